package handlers

import (
	"net/http"

	"github.com/propertyapp/property-listing/pkg/httpx"
	"github.com/propertyapp/property-listing/services/auth/internal/domain"
)

// SendOTP handles POST /auth/send-otp
func (h *Handlers) SendOTP(w http.ResponseWriter, r *http.Request) {
	var req domain.SendOTPRequest
	if err := httpx.Decode(r, &req); err != nil {
		httpx.BadRequest(w, err.Error())
		return
	}

	if !h.guard.Allow(r.Context(), h.ipRule, httpx.ClientIP(r)) ||
		!h.guard.Allow(r.Context(), h.mobileRule, req.MobileNumber) {
		httpx.RateLimit(w, "Too many OTP requests. Please try again later.")
		return
	}

	message, err := h.authService.SendOTP(r.Context(), &req)
	if err != nil {
		httpx.Error(w, r, err)
		return
	}

	httpx.OK(w, http.StatusOK, message, nil)
}

// Login handles POST /auth/login
func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	var req domain.LoginRequest
	if err := httpx.Decode(r, &req); err != nil {
		httpx.BadRequest(w, err.Error())
		return
	}

	resp, err := h.authService.Login(r.Context(), &req)
	if err != nil {
		httpx.Error(w, r, err)
		return
	}

	httpx.OK(w, http.StatusOK, "Login successful", resp)
}
