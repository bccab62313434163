package errors

import (
	"errors"
	"fmt"
)

// Common error types for the CityPulse client
var (
	// Configuration errors: missing or malformed external-service settings.
	// These fail synchronously and are never retried.
	ErrConfiguration = errors.New("configuration error")

	// Transport errors
	ErrTransport     = errors.New("network request failed")
	ErrRequestFailed = errors.New("request failed")

	// Authentication errors
	ErrUnauthorized       = errors.New("unauthorized")
	ErrNoSession          = errors.New("no valid session")
	ErrMissingCode        = errors.New("missing authorization code")
	ErrStateMismatch      = errors.New("authorization state mismatch")
	ErrInvalidTransition  = errors.New("invalid login flow transition")
	ErrForbidden          = errors.New("administrator access required")
	ErrInvalidCredentials = errors.New("invalid credentials")

	// Validation errors: blocked client-side, never reach the network
	ErrValidation = errors.New("validation failed")

	// General errors
	ErrNotFound  = errors.New("not found")
	ErrClosed    = errors.New("context closed")
	ErrNoAddress = errors.New("no address found for location")
)

// Wrapf wraps an error with context using fmt.Errorf
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}

// Is reports whether any error in err's chain matches target
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

// New returns an error that formats as the given text.
func New(text string) error {
	return errors.New(text)
}
