package service

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrTOTPRequired       = errors.New("second factor required")
	ErrTOTPInvalid        = errors.New("invalid second factor code")
	ErrTOTPAlreadyEnabled = errors.New("totp already enabled")
	ErrTOTPNotEnabled     = errors.New("totp not enabled")
	ErrCSRFMismatch       = errors.New("csrf token mismatch")
	ErrSessionNotFound    = errors.New("session not found")
	ErrSessionExpired     = errors.New("session expired")
	ErrPermissionDenied   = errors.New("permission denied")
	ErrAlumniNotValidated = errors.New("alumni status not validated")
	ErrAlumniNotRequested = errors.New("no pending alumni request")

	ErrInvitationNotFound        = errors.New("invitation not found")
	ErrInvitationExpired         = errors.New("invitation expired")
	ErrInvitationAlreadyAccepted = errors.New("invitation already accepted")
	ErrInvitationOutstanding     = errors.New("an open invitation already exists for this email")
	ErrInvalidInvitationRequest  = errors.New("invalid invitation request")

	ErrIdentityNotFound = errors.New("identity not found")
	ErrIdentityExists   = errors.New("identity already exists")
	ErrInvalidProfile   = errors.New("invalid profile")
	ErrWeakPassword     = errors.New("password does not meet requirements")
	ErrInvalidRole      = errors.New("invalid role")

	// ErrStoreUnavailable marks failures of the backing store rather than of
	// the request.
	ErrStoreUnavailable = errors.New("store unavailable")
)

// RateLimitedError is returned when the attempt limiter refuses a login.
type RateLimitedError struct {
	RetryAfter time.Duration
}

func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("too many attempts, retry after %s", e.RetryAfter)
}

var requestErrors = []error{
	ErrInvalidCredentials,
	ErrTOTPRequired,
	ErrTOTPInvalid,
	ErrTOTPAlreadyEnabled,
	ErrTOTPNotEnabled,
	ErrCSRFMismatch,
	ErrSessionNotFound,
	ErrSessionExpired,
	ErrPermissionDenied,
	ErrAlumniNotValidated,
	ErrAlumniNotRequested,
	ErrInvitationNotFound,
	ErrInvitationExpired,
	ErrInvitationAlreadyAccepted,
	ErrInvitationOutstanding,
	ErrInvalidInvitationRequest,
	ErrIdentityNotFound,
	ErrIdentityExists,
	ErrInvalidProfile,
	ErrWeakPassword,
	ErrInvalidRole,
	ErrBootstrapAlready,
	ErrBootstrapUnauthorized,
	ErrStoreUnavailable,
}

// storeErr passes request errors through untouched and marks anything else
// as a store failure.
func storeErr(err error) error {
	if err == nil {
		return nil
	}
	for _, known := range requestErrors {
		if errors.Is(err, known) {
			return err
		}
	}
	var rl *RateLimitedError
	if errors.As(err, &rl) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
}
