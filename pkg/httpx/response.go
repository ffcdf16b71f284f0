package httpx

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/propertyapp/property-listing/pkg/apperr"
	"github.com/propertyapp/property-listing/pkg/logger"
)

// Response is the envelope every endpoint returns.
type Response struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
	Code    string `json:"code,omitempty"`
}

// Common error codes
const (
	CodeInvalidInput     = "INVALID_INPUT"
	CodeUnauthorized     = "UNAUTHORIZED"
	CodeForbidden        = "FORBIDDEN"
	CodeNotFound         = "NOT_FOUND"
	CodeInvalidState     = "INVALID_STATE"
	CodeRateLimit        = "RATE_LIMIT_EXCEEDED"
	CodeDeliveryFailed   = "DELIVERY_FAILED"
	CodeStoreUnavailable = "STORE_UNAVAILABLE"
	CodeInternalError    = "INTERNAL_ERROR"
)

func WriteJSON(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Error("Failed to encode response", "error", err)
	}
}

// OK writes a success envelope.
func OK(w http.ResponseWriter, statusCode int, message string, data any) {
	WriteJSON(w, statusCode, Response{Success: true, Message: message, Data: data})
}

// Fail writes a failure envelope.
func Fail(w http.ResponseWriter, statusCode int, message, code string) {
	WriteJSON(w, statusCode, Response{Success: false, Message: message, Error: message, Code: code})
}

func BadRequest(w http.ResponseWriter, message string) {
	Fail(w, http.StatusBadRequest, message, CodeInvalidInput)
}

func Unauthorized(w http.ResponseWriter, message string) {
	Fail(w, http.StatusUnauthorized, message, CodeUnauthorized)
}

func Forbidden(w http.ResponseWriter, message string) {
	Fail(w, http.StatusForbidden, message, CodeForbidden)
}

func NotFound(w http.ResponseWriter, message string) {
	Fail(w, http.StatusNotFound, message, CodeNotFound)
}

func Conflict(w http.ResponseWriter, message string) {
	Fail(w, http.StatusConflict, message, CodeInvalidState)
}

func RateLimit(w http.ResponseWriter, message string) {
	Fail(w, http.StatusTooManyRequests, message, CodeRateLimit)
}

func InternalError(w http.ResponseWriter, message string) {
	Fail(w, http.StatusInternalServerError, message, CodeInternalError)
}

// Error maps an apperr kind to a status and writes the caller-facing message.
// Store and unknown errors are logged and reported without internal detail.
func Error(w http.ResponseWriter, r *http.Request, err error) {
	msg := apperr.Message(err)
	switch {
	case errors.Is(err, apperr.ErrValidation):
		Fail(w, http.StatusBadRequest, msg, CodeInvalidInput)
	case errors.Is(err, apperr.ErrNotFound):
		Fail(w, http.StatusNotFound, msg, CodeNotFound)
	case errors.Is(err, apperr.ErrUnauthorized):
		Fail(w, http.StatusForbidden, msg, CodeForbidden)
	case errors.Is(err, apperr.ErrInvalidState):
		Fail(w, http.StatusConflict, msg, CodeInvalidState)
	case errors.Is(err, apperr.ErrDeliveryFailure):
		logger.ErrorContext(r.Context(), "Delivery failed", "error", err)
		Fail(w, http.StatusBadGateway, msg, CodeDeliveryFailed)
	case errors.Is(err, apperr.ErrStoreUnavailable):
		logger.ErrorContext(r.Context(), "Store unavailable", "error", err)
		Fail(w, http.StatusServiceUnavailable, "Service temporarily unavailable", CodeStoreUnavailable)
	default:
		logger.ErrorContext(r.Context(), "Unhandled error", "error", err)
		InternalError(w, "Internal server error")
	}
}
