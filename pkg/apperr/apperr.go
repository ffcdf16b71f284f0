// Package apperr is the error taxonomy shared by every service. Each error
// carries a kind for classification and a message safe to show to callers.
package apperr

import (
	"errors"
	"fmt"
)

// Kinds. Match with errors.Is.
var (
	ErrNotFound         = errors.New("not found")
	ErrUnauthorized     = errors.New("unauthorized")
	ErrInvalidState     = errors.New("invalid state")
	ErrValidation       = errors.New("validation failed")
	ErrDeliveryFailure  = errors.New("delivery failed")
	ErrStoreUnavailable = errors.New("store unavailable")
)

type Error struct {
	Kind    error
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() []error {
	if e.Cause != nil {
		return []error{e.Kind, e.Cause}
	}
	return []error{e.Kind}
}

// New returns an error of kind with a formatted caller-facing message.
func New(kind error, format string, args ...any) error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches cause to a new error of kind.
func Wrap(kind error, cause error, format string, args ...any) error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Cause: cause}
}

// Message returns the caller-facing part of err without the cause chain.
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}

func NotFound(format string, args ...any) error     { return New(ErrNotFound, format, args...) }
func Unauthorized(format string, args ...any) error { return New(ErrUnauthorized, format, args...) }
func InvalidState(format string, args ...any) error { return New(ErrInvalidState, format, args...) }
func Validation(format string, args ...any) error   { return New(ErrValidation, format, args...) }

// Store wraps a persistence failure.
func Store(cause error, op string) error {
	return Wrap(ErrStoreUnavailable, cause, "%s", op)
}

// Delivery wraps a transport failure.
func Delivery(cause error, format string, args ...any) error {
	return Wrap(ErrDeliveryFailure, cause, format, args...)
}
