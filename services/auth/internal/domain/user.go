package domain

import "time"

type UserType string

const (
	UserCustomer UserType = "CUSTOMER"
	UserSeller   UserType = "SELLER"
	UserAdmin    UserType = "ADMIN"
)

type User struct {
	ID           int64     `json:"userId"`
	FullName     string    `json:"fullName"`
	MobileNumber string    `json:"mobileNumber"`
	Email        *string   `json:"email,omitempty"`
	UserType     UserType  `json:"userType"`
	IsActive     bool      `json:"isActive"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

type SendOTPRequest struct {
	MobileNumber string `json:"mobileNumber" validate:"required,mobile"`
}

type LoginRequest struct {
	MobileNumber string `json:"mobileNumber" validate:"required,mobile"`
	OTP          string `json:"otp" validate:"required,otp"`
}

type LoginResponse struct {
	User        *User     `json:"user"`
	AccessToken string    `json:"token"`
	ExpiresAt   time.Time `json:"expiresAt"`
}
