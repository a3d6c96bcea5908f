package http

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/aussiebroadwan/clubhouse/internal/auth/service"
	"github.com/aussiebroadwan/clubhouse/pkg/authsdk"
	"github.com/aussiebroadwan/clubhouse/pkg/httpx"
	"github.com/aussiebroadwan/clubhouse/pkg/slogx"
)

var (
	errTOTPAlreadyEnabled = authsdk.NewAPIError(http.StatusConflict, authsdk.ErrorCodeConflict, "two-factor authentication is already enabled")
	errTOTPNotEnabled     = authsdk.NewAPIError(http.StatusConflict, authsdk.ErrorCodeConflict, "two-factor authentication is not enabled")
	errInvalidInvitation  = authsdk.NewAPIError(http.StatusBadRequest, authsdk.ErrorCodeInvalidRequest, "invalid invitation request")
	errInvalidProfile     = authsdk.NewAPIError(http.StatusBadRequest, authsdk.ErrorCodeValidationFailed, "invalid profile")
	errWeakPassword       = authsdk.NewAPIError(http.StatusBadRequest, authsdk.ErrorCodeValidationFailed, "password must be between 10 and 128 characters")
	errInvalidRole        = authsdk.NewAPIError(http.StatusBadRequest, authsdk.ErrorCodeInvalidRequest, "unknown role")
	errBootstrapDisabled  = authsdk.NewAPIError(http.StatusNotFound, authsdk.ErrorCodeNotFound, "bootstrap endpoint is not enabled")
	errAlumniNotRequested = authsdk.NewAPIError(http.StatusConflict, authsdk.ErrorCodeConflict, "no pending alumni request")
)

// serviceErrors maps service sentinels to the generic API errors clients see.
var serviceErrors = []struct {
	err error
	api *authsdk.APIError
}{
	{service.ErrInvalidCredentials, authsdk.ErrInvalidCredentials},
	{service.ErrTOTPRequired, authsdk.ErrTOTPRequired},
	{service.ErrTOTPInvalid, authsdk.ErrTOTPInvalid},
	{service.ErrTOTPAlreadyEnabled, errTOTPAlreadyEnabled},
	{service.ErrTOTPNotEnabled, errTOTPNotEnabled},
	{service.ErrCSRFMismatch, authsdk.ErrCSRFMismatch},
	{service.ErrSessionNotFound, authsdk.ErrUnauthenticated},
	{service.ErrSessionExpired, authsdk.ErrSessionExpired},
	{service.ErrPermissionDenied, authsdk.ErrPermissionDenied},
	{service.ErrAlumniNotValidated, authsdk.ErrAlumniNotValidated},
	{service.ErrAlumniNotRequested, errAlumniNotRequested},
	{service.ErrInvitationNotFound, authsdk.ErrInvitationNotFound},
	{service.ErrInvitationExpired, authsdk.ErrInvitationExpired},
	{service.ErrInvitationAlreadyAccepted, authsdk.ErrInvitationAlreadyAccepted},
	{service.ErrInvitationOutstanding, authsdk.ErrInvitationOutstanding},
	{service.ErrInvalidInvitationRequest, errInvalidInvitation},
	{service.ErrIdentityNotFound, authsdk.ErrNotFound},
	{service.ErrIdentityExists, authsdk.ErrConflict},
	{service.ErrInvalidProfile, errInvalidProfile},
	{service.ErrWeakPassword, errWeakPassword},
	{service.ErrInvalidRole, errInvalidRole},
	{service.ErrBootstrapAlready, authsdk.ErrBootstrapAlreadyCompleted},
	{service.ErrBootstrapUnauthorized, authsdk.ErrBootstrapUnauthorized},
	{service.ErrStoreUnavailable, authsdk.ErrServiceUnavailable},
}

// writeError answers with the API error for err. Anything unrecognised is
// logged and reported as a server error.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	log := slogx.FromContext(r.Context())

	var rl *service.RateLimitedError
	if errors.As(err, &rl) {
		authsdk.NewRateLimitedError(rl.RetryAfter).WriteError(w)
		return
	}

	for _, m := range serviceErrors {
		if errors.Is(err, m.err) {
			if m.err == service.ErrStoreUnavailable {
				log.Error("store unavailable", slog.Any("error", err))
			}
			m.api.WriteError(w)
			return
		}
	}

	log.Error("unhandled service error", slog.Any("error", err))
	authsdk.ErrServerError.WriteError(w)
}

// decode reads and validates a JSON body, writing the error response itself.
func decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := httpx.DecodeJSON(w, r, dst); err != nil {
		slogx.FromContext(r.Context()).Warn("failed to parse request", slog.Any("error", err))
		authsdk.ErrInvalidRequest.WriteError(w)
		return false
	}
	if fields := httpx.Validate(dst); fields != nil {
		authsdk.NewValidationError(fields).WriteError(w)
		return false
	}
	return true
}
