package service

import (
	"context"
	"fmt"
	"time"

	"github.com/propertyapp/property-listing/pkg/apperr"
	"github.com/propertyapp/property-listing/pkg/logger"
	"github.com/propertyapp/property-listing/pkg/metrics"
	"github.com/propertyapp/property-listing/pkg/sms"
	"github.com/propertyapp/property-listing/services/auth/internal/domain"
	"github.com/propertyapp/property-listing/services/auth/internal/repository"
)

const otpMessageTemplate = "Your Property App verification code is: %s. This code will expire in %d minutes. Do not share this code with anyone."

// OTPService issues and verifies single-use codes bound to a mobile number.
// Callers are responsible for checking that the number belongs to an account.
type OTPService interface {
	RequestChallenge(ctx context.Context, mobile string) (string, error)
	VerifyChallenge(ctx context.Context, mobile, code string) (bool, error)
	CleanupExpired(ctx context.Context) (int64, error)
}

type OTPOption func(*otpService)

// WithClock overrides time.Now.
func WithClock(now func() time.Time) OTPOption {
	return func(s *otpService) { s.now = now }
}

// WithGenerator overrides the random code source.
func WithGenerator(gen func() (string, error)) OTPOption {
	return func(s *otpService) { s.generate = gen }
}

type otpService struct {
	repo     repository.OTPRepository
	gateway  sms.Gateway
	ttl      time.Duration
	now      func() time.Time
	generate func() (string, error)
}

func NewOTPService(repo repository.OTPRepository, gateway sms.Gateway, ttl time.Duration, opts ...OTPOption) OTPService {
	s := &otpService{
		repo:     repo,
		gateway:  gateway,
		ttl:      ttl,
		now:      time.Now,
		generate: domain.GenerateOTP,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RequestChallenge delivers a fresh code and then records it. A failed
// delivery leaves nothing behind; earlier challenges for the number stay valid.
func (s *otpService) RequestChallenge(ctx context.Context, mobile string) (string, error) {
	code, err := s.generate()
	if err != nil {
		return "", err
	}

	now := s.now()
	challenge := &domain.OTPChallenge{
		MobileNumber: mobile,
		CodeHash:     domain.HashOTP(code),
		CreatedAt:    now,
		ExpiresAt:    now.Add(s.ttl),
	}

	message := fmt.Sprintf(otpMessageTemplate, code, int(s.ttl/time.Minute))
	if err := s.gateway.Send(ctx, mobile, message); err != nil {
		metrics.OTPEvents.WithLabelValues(metrics.OTPDeliveryFailed).Inc()
		return "", apperr.Delivery(err, "Failed to send OTP. Please try again.")
	}

	if err := s.repo.Create(ctx, challenge); err != nil {
		return "", apperr.Store(err, "create otp challenge")
	}

	metrics.OTPEvents.WithLabelValues(metrics.OTPSent).Inc()
	logger.InfoContext(ctx, "OTP sent", "mobile", logger.MaskMobile(mobile), "challenge_id", challenge.ID)
	return "OTP sent successfully to " + mobile, nil
}

// VerifyChallenge consumes the newest matching challenge. Wrong, unknown,
// expired and already used codes all yield false.
func (s *otpService) VerifyChallenge(ctx context.Context, mobile, code string) (bool, error) {
	ok, err := s.repo.Consume(ctx, mobile, domain.HashOTP(code), s.now())
	if err != nil {
		return false, apperr.Store(err, "consume otp challenge")
	}
	if !ok {
		metrics.OTPEvents.WithLabelValues(metrics.OTPRejected).Inc()
		logger.InfoContext(ctx, "OTP rejected", "mobile", logger.MaskMobile(mobile))
		return false, nil
	}
	metrics.OTPEvents.WithLabelValues(metrics.OTPVerified).Inc()
	return true, nil
}

func (s *otpService) CleanupExpired(ctx context.Context) (int64, error) {
	n, err := s.repo.DeleteExpired(ctx, s.now())
	if err != nil {
		return 0, apperr.Store(err, "delete expired otp challenges")
	}
	return n, nil
}
