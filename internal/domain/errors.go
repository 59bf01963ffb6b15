package domain

import (
	"errors"
	"fmt"
)

// ValidationError reports a malformed request caught locally, before any
// network call. Never retried.
type ValidationError struct {
	Field   string
	Message string
}

func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// AuthError reports credentials rejected by the provider. Never retried.
type AuthError struct {
	Message string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("provider rejected credentials: %s", e.Message)
}

// GatewayError reports a non-2xx provider response after the request shape
// was accepted. Retryable for 5xx, terminal otherwise.
type GatewayError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *GatewayError) Error() string {
	return fmt.Sprintf("provider error [%s]: %s (status: %d)", e.Code, e.Message, e.StatusCode)
}

// TimeoutError reports a request that exceeded its deadline. The transport is
// aborted; the error is distinguishable from a generic network failure.
type TimeoutError struct {
	Operation string
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("%s timed out waiting for the provider", e.Operation)
}

// NotFoundError reports a payment or receipt unknown to the provider or store.
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Resource, e.ID)
}

func IsValidationError(err error) (*ValidationError, bool) {
	var v *ValidationError
	ok := errors.As(err, &v)
	return v, ok
}

func IsAuthError(err error) (*AuthError, bool) {
	var a *AuthError
	ok := errors.As(err, &a)
	return a, ok
}

func IsGatewayError(err error) (*GatewayError, bool) {
	var g *GatewayError
	ok := errors.As(err, &g)
	return g, ok
}

func IsTimeoutError(err error) (*TimeoutError, bool) {
	var t *TimeoutError
	ok := errors.As(err, &t)
	return t, ok
}

func IsNotFoundError(err error) (*NotFoundError, bool) {
	var n *NotFoundError
	ok := errors.As(err, &n)
	return n, ok
}
