// Package common defines shared constants and sentinel errors used across
// the Data Cleaner service layers. Callers should use errors.Is to match
// these values.
package common

import (
	"errors"
	"fmt"
	"time"
)

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")

	// Service-level errors (generic/internal flow control).
	ErrorInternal     = errors.New("internal error")
	ErrorUnauthorized = errors.New("unauthorized")

	// Registration errors.
	ErrValidation = errors.New("validation error")
	ErrEmailTaken = errors.New("email already registered")

	// Login-flow errors. ErrInvalidCredentials is deliberately uniform for
	// unknown email and wrong password.
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrAccountLocked      = errors.New("account locked")
	ErrMFARequired        = errors.New("mfa code required")
	ErrInvalidMFACode     = errors.New("invalid mfa code")

	// MFA enrollment errors.
	ErrMFANotEnrolled    = errors.New("mfa enrollment not started")
	ErrMFAAlreadyEnabled = errors.New("mfa already enabled")

	// Token lifecycle errors.
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
)

// ValidationError carries a user-facing message for a failed input check.
// It unwraps to ErrValidation so errors.Is(err, ErrValidation) matches.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

func (e *ValidationError) Unwrap() error { return ErrValidation }

func NewValidationError(format string, args ...any) *ValidationError {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

// LockedError reports that an account is locked out and for how much longer.
// It unwraps to ErrAccountLocked so errors.Is(err, ErrAccountLocked) matches.
type LockedError struct {
	Until     time.Time
	Remaining time.Duration
}

func (e *LockedError) Error() string {
	return fmt.Sprintf("account locked, try again in %s", e.Remaining)
}

func (e *LockedError) Unwrap() error { return ErrAccountLocked }

// NewLockedError builds a LockedError for a lock expiring at until,
// with the remaining duration rounded up to whole seconds.
func NewLockedError(until time.Time, now time.Time) *LockedError {
	remaining := until.Sub(now)
	if rounded := remaining.Truncate(time.Second); rounded < remaining {
		remaining = rounded + time.Second
	}
	return &LockedError{Until: until, Remaining: remaining}
}
