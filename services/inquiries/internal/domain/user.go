package domain

import "time"

type UserType string

const (
	UserCustomer UserType = "CUSTOMER"
	UserSeller   UserType = "SELLER"
	UserAdmin    UserType = "ADMIN"
)

type User struct {
	ID           int64
	FullName     string
	MobileNumber string
	UserType     UserType
	IsActive     bool
}

type Property struct {
	ID        int64
	SellerID  int64
	Title     string
	IsActive  bool
	CreatedAt time.Time
}
