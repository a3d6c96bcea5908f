package authsdk

import (
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/aussiebroadwan/clubhouse/pkg/httpx"
)

// ============================================================================
// Error Codes
// ============================================================================

const (
	ErrorCodeInvalidRequest            = "invalid_request"
	ErrorCodeValidationFailed          = "validation_failed"
	ErrorCodeInvalidCredentials        = "invalid_credentials"
	ErrorCodeRateLimited               = "rate_limited"
	ErrorCodeTOTPRequired              = "totp_required"
	ErrorCodeTOTPInvalid               = "totp_invalid"
	ErrorCodeCSRFMismatch              = "csrf_mismatch"
	ErrorCodeUnauthenticated           = "unauthenticated"
	ErrorCodeSessionExpired            = "session_expired"
	ErrorCodePermissionDenied          = "permission_denied"
	ErrorCodeAlumniNotValidated        = "alumni_not_validated"
	ErrorCodeInvitationNotFound        = "invitation_not_found"
	ErrorCodeInvitationExpired         = "invitation_expired"
	ErrorCodeInvitationAccepted        = "invitation_already_accepted"
	ErrorCodeInvitationOutstanding     = "invitation_outstanding"
	ErrorCodeNotFound                  = "not_found"
	ErrorCodeConflict                  = "conflict"
	ErrorCodeServiceUnavailable        = "service_unavailable"
	ErrorCodeServerError               = "server_error"
	ErrorCodeMethodNotAllowed          = "method_not_allowed"
	ErrorCodeBootstrapUnauthorized     = "bootstrap_unauthorized"
	ErrorCodeBootstrapAlreadyCompleted = "bootstrap_already_completed"
)

// ============================================================================
// APIError
// ============================================================================

// APIError is the error half of every endpoint. The server writes it with
// WriteError and the SDK parses non-2xx responses back into it.
type APIError struct {
	StatusCode int    `json:"-"`
	Code       string `json:"error"`
	Message    string `json:"message"`

	// Fields is set for validation failures.
	Fields map[string]string `json:"fields,omitempty"`

	// RetryAfter is set for rate limited responses.
	RetryAfter time.Duration `json:"-"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Is matches on Code so client-side errors compare equal to the predefined values.
func (e *APIError) Is(target error) bool {
	t, ok := target.(*APIError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// WriteError writes e as the JSON error body.
func (e *APIError) WriteError(w http.ResponseWriter) {
	if e.RetryAfter > 0 {
		secs := int(math.Ceil(e.RetryAfter.Seconds()))
		w.Header().Set("Retry-After", strconv.Itoa(secs))
	}
	httpx.WriteJSON(w, e.StatusCode, ErrorResponse{
		Success: false,
		Error:   e.Code,
		Message: e.Message,
		Fields:  e.Fields,
	})
}

// NewAPIError creates an APIError with a custom message.
func NewAPIError(statusCode int, code, message string) *APIError {
	return &APIError{StatusCode: statusCode, Code: code, Message: message}
}

// NewValidationError reports per-field problems with a 400.
func NewValidationError(fields map[string]string) *APIError {
	return &APIError{
		StatusCode: http.StatusBadRequest,
		Code:       ErrorCodeValidationFailed,
		Message:    "one or more fields are invalid",
		Fields:     fields,
	}
}

// NewRateLimitedError is ErrRateLimited with a Retry-After hint.
func NewRateLimitedError(retryAfter time.Duration) *APIError {
	e := *ErrRateLimited
	e.RetryAfter = retryAfter
	return &e
}

// ============================================================================
// Predefined Errors
// ============================================================================

var (
	ErrInvalidRequest = &APIError{
		StatusCode: http.StatusBadRequest,
		Code:       ErrorCodeInvalidRequest,
		Message:    "the request is malformed",
	}

	// ErrInvalidCredentials never says which half of the pair was wrong.
	ErrInvalidCredentials = &APIError{
		StatusCode: http.StatusUnauthorized,
		Code:       ErrorCodeInvalidCredentials,
		Message:    "invalid email or password",
	}

	ErrRateLimited = &APIError{
		StatusCode: http.StatusTooManyRequests,
		Code:       ErrorCodeRateLimited,
		Message:    "too many attempts, try again later",
	}

	ErrTOTPRequired = &APIError{
		StatusCode: http.StatusUnauthorized,
		Code:       ErrorCodeTOTPRequired,
		Message:    "a second factor is required",
	}

	ErrTOTPInvalid = &APIError{
		StatusCode: http.StatusUnauthorized,
		Code:       ErrorCodeTOTPInvalid,
		Message:    "invalid verification code",
	}

	ErrCSRFMismatch = &APIError{
		StatusCode: http.StatusForbidden,
		Code:       ErrorCodeCSRFMismatch,
		Message:    "missing or invalid CSRF token",
	}

	ErrUnauthenticated = &APIError{
		StatusCode: http.StatusUnauthorized,
		Code:       ErrorCodeUnauthenticated,
		Message:    "authentication required",
	}

	ErrSessionExpired = &APIError{
		StatusCode: http.StatusUnauthorized,
		Code:       ErrorCodeSessionExpired,
		Message:    "session expired, sign in again",
	}

	ErrPermissionDenied = &APIError{
		StatusCode: http.StatusForbidden,
		Code:       ErrorCodePermissionDenied,
		Message:    "you do not have permission to do that",
	}

	ErrAlumniNotValidated = &APIError{
		StatusCode: http.StatusForbidden,
		Code:       ErrorCodeAlumniNotValidated,
		Message:    "alumni status has not been validated yet",
	}

	ErrInvitationNotFound = &APIError{
		StatusCode: http.StatusNotFound,
		Code:       ErrorCodeInvitationNotFound,
		Message:    "invitation not found",
	}

	ErrInvitationExpired = &APIError{
		StatusCode: http.StatusGone,
		Code:       ErrorCodeInvitationExpired,
		Message:    "invitation has expired",
	}

	ErrInvitationAlreadyAccepted = &APIError{
		StatusCode: http.StatusConflict,
		Code:       ErrorCodeInvitationAccepted,
		Message:    "invitation has already been used",
	}

	ErrInvitationOutstanding = &APIError{
		StatusCode: http.StatusConflict,
		Code:       ErrorCodeInvitationOutstanding,
		Message:    "an invitation is already pending for this email",
	}

	ErrNotFound = &APIError{
		StatusCode: http.StatusNotFound,
		Code:       ErrorCodeNotFound,
		Message:    "not found",
	}

	ErrConflict = &APIError{
		StatusCode: http.StatusConflict,
		Code:       ErrorCodeConflict,
		Message:    "the request conflicts with existing state",
	}

	ErrServiceUnavailable = &APIError{
		StatusCode: http.StatusServiceUnavailable,
		Code:       ErrorCodeServiceUnavailable,
		Message:    "service temporarily unavailable",
	}

	ErrServerError = &APIError{
		StatusCode: http.StatusInternalServerError,
		Code:       ErrorCodeServerError,
		Message:    "internal server error",
	}

	ErrMethodNotAllowed = &APIError{
		StatusCode: http.StatusMethodNotAllowed,
		Code:       ErrorCodeMethodNotAllowed,
		Message:    "method not allowed",
	}

	ErrBootstrapUnauthorized = &APIError{
		StatusCode: http.StatusUnauthorized,
		Code:       ErrorCodeBootstrapUnauthorized,
		Message:    "invalid bootstrap token",
	}

	ErrBootstrapAlreadyCompleted = &APIError{
		StatusCode: http.StatusConflict,
		Code:       ErrorCodeBootstrapAlreadyCompleted,
		Message:    "bootstrap has already been completed",
	}
)

// ============================================================================
// Error Parsing
// ============================================================================

// parseErrorResponse turns a non-2xx response into an *APIError.
func parseErrorResponse(resp *http.Response, body []byte) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	apiErr := &APIError{StatusCode: resp.StatusCode}

	var errResp ErrorResponse
	if err := json.Unmarshal(body, &errResp); err == nil && errResp.Error != "" {
		apiErr.Code = errResp.Error
		apiErr.Message = errResp.Message
		apiErr.Fields = errResp.Fields
	} else {
		apiErr.Code = ErrorCodeServerError
		apiErr.Message = fmt.Sprintf("HTTP %d: %s", resp.StatusCode, http.StatusText(resp.StatusCode))
	}

	if ra := resp.Header.Get("Retry-After"); ra != "" {
		if secs, err := strconv.Atoi(ra); err == nil && secs > 0 {
			apiErr.RetryAfter = time.Duration(secs) * time.Second
		}
	}

	return apiErr
}
