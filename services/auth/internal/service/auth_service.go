package service

import (
	"context"
	"time"

	"github.com/propertyapp/property-listing/pkg/apperr"
	"github.com/propertyapp/property-listing/pkg/auth"
	"github.com/propertyapp/property-listing/pkg/logger"
	"github.com/propertyapp/property-listing/services/auth/internal/domain"
	"github.com/propertyapp/property-listing/services/auth/internal/repository"
)

type AuthService interface {
	SendOTP(ctx context.Context, req *domain.SendOTPRequest) (string, error)
	Login(ctx context.Context, req *domain.LoginRequest) (*domain.LoginResponse, error)
}

type authService struct {
	userRepo repository.UserRepository
	otp      OTPService
	signer   *auth.Signer
}

func NewAuthService(userRepo repository.UserRepository, otp OTPService, signer *auth.Signer) AuthService {
	return &authService{
		userRepo: userRepo,
		otp:      otp,
		signer:   signer,
	}
}

func (s *authService) SendOTP(ctx context.Context, req *domain.SendOTPRequest) (string, error) {
	if _, err := s.findUser(ctx, req.MobileNumber); err != nil {
		return "", err
	}
	return s.otp.RequestChallenge(ctx, req.MobileNumber)
}

func (s *authService) Login(ctx context.Context, req *domain.LoginRequest) (*domain.LoginResponse, error) {
	ok, err := s.otp.VerifyChallenge(ctx, req.MobileNumber, req.OTP)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperr.Unauthorized("Invalid or expired OTP")
	}

	user, err := s.findUser(ctx, req.MobileNumber)
	if err != nil {
		return nil, err
	}
	if !user.IsActive {
		return nil, apperr.Unauthorized("Account is deactivated")
	}

	token, expiresAt, err := s.signer.NewAccessToken(user.ID, user.MobileNumber, string(user.UserType))
	if err != nil {
		return nil, err
	}

	logger.InfoContext(ctx, "User logged in", "user_id", user.ID, "user_type", user.UserType)
	return &domain.LoginResponse{User: user, AccessToken: token, ExpiresAt: expiresAt.UTC().Truncate(time.Second)}, nil
}

func (s *authService) findUser(ctx context.Context, mobile string) (*domain.User, error) {
	user, err := s.userRepo.FindByMobile(ctx, mobile)
	if err != nil {
		return nil, apperr.Store(err, "find user by mobile")
	}
	if user == nil {
		return nil, apperr.NotFound("User not found with mobile number: %s", mobile)
	}
	return user, nil
}
