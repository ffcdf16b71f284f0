package handlers

import (
	"github.com/propertyapp/property-listing/pkg/config"
	"github.com/propertyapp/property-listing/pkg/ratelimit"
	"github.com/propertyapp/property-listing/services/auth/internal/service"
)

type Handlers struct {
	authService service.AuthService
	guard       *ratelimit.Guard
	mobileRule  ratelimit.Rule
	ipRule      ratelimit.Rule
}

func New(authService service.AuthService, guard *ratelimit.Guard, cfg config.OTPConfig) *Handlers {
	return &Handlers{
		authService: authService,
		guard:       guard,
		mobileRule:  ratelimit.Rule{Name: "otp_mobile", Limit: cfg.MobileLimit, Window: cfg.MobileWindow},
		ipRule:      ratelimit.Rule{Name: "otp_ip", Limit: cfg.IPLimit, Window: cfg.IPWindow},
	}
}
