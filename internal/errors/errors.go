// Package errors provides domain-specific error types for the
// order-dispatch core.
package errors

import (
	"errors"
	"fmt"
)

// Standard sentinel errors
var (
	// ErrCredentialUnavailable is returned when the rotating token file is
	// missing, unreadable, or empty. Fatal to any authenticated operation.
	ErrCredentialUnavailable = errors.New("credential unavailable")

	ErrUnsupportedSide         = errors.New("unsupported side")
	ErrMalformedRecommendation = errors.New("malformed recommendation")
	ErrNoFundsData             = errors.New("no funds data available")
	ErrTransportUnavailable    = errors.New("transport unavailable")
	ErrUnexpectedResponse      = errors.New("unexpected provider response")
	ErrOrderNotFound           = errors.New("order not found")
	ErrInvalidConfiguration    = errors.New("invalid configuration")
	ErrPipelineBusy            = errors.New("another dispatch is in flight")
)

// RequestError represents a non-2xx response from the broker REST surface.
type RequestError struct {
	Method string
	Path   string
	Status int
	Body   string
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("broker request failed: %s %s: status %d: %s", e.Method, e.Path, e.Status, e.Body)
}

// NewRequestError creates a new RequestError.
func NewRequestError(method, path string, status int, body string) *RequestError {
	return &RequestError{
		Method: method,
		Path:   path,
		Status: status,
		Body:   body,
	}
}

// CredentialError wraps a failure to read the backing credential store.
type CredentialError struct {
	Path string
	Err  error
}

func (e *CredentialError) Error() string {
	return fmt.Sprintf("credential store %s: %v", e.Path, e.Err)
}

func (e *CredentialError) Unwrap() error {
	return ErrCredentialUnavailable
}

// NewCredentialError creates a new CredentialError.
func NewCredentialError(path string, err error) *CredentialError {
	return &CredentialError{Path: path, Err: err}
}

// ValidationError represents an input validation failure.
type ValidationError struct {
	Field   string
	Value   interface{}
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error: %s (%v): %s", e.Field, e.Value, e.Message)
}

func (e *ValidationError) Unwrap() error {
	return ErrMalformedRecommendation
}

// NewValidationError creates a new ValidationError.
func NewValidationError(field string, value interface{}, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Value:   value,
		Message: message,
	}
}

// Wrap wraps an error with additional context.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf wraps an error with formatted context.
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target.
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
