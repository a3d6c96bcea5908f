package authsdk

import "time"

// ============================================================================
// Common
// ============================================================================

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Message string `json:"message"`

	// Fields carries per-field validation failures (field name: reason).
	Fields map[string]string `json:"fields,omitempty"`
}

type SuccessResponse struct {
	Success bool `json:"success"`
}

// HealthResponse is returned by /livez and /readyz.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// IdentityInfo is the public view of an identity. Secrets never leave the service.
type IdentityInfo struct {
	ID                string     `json:"id"`
	Email             string     `json:"email"`
	FirstName         string     `json:"first_name"`
	LastName          string     `json:"last_name"`
	Role              string     `json:"role"`
	TOTPEnabled       bool       `json:"totp_enabled"`
	AlumniValidated   bool       `json:"alumni_validated"`
	AlumniRequestedAt *time.Time `json:"alumni_requested_at,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
}

// ============================================================================
// Authentication
// ============================================================================

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,max=256"`
	TOTPCode string `json:"totp_code,omitempty" validate:"omitempty,numeric,len=6"`
}

type LoginTOTPRequest struct {
	ChallengeToken string `json:"challenge_token" validate:"required"`

	// Code is either a 6 digit TOTP code or a recovery code.
	Code string `json:"code" validate:"required,max=32"`
}

// LoginResponse is returned by both login endpoints. When RequiresTOTP is set no
// session exists yet and ChallengeToken must be exchanged at /v1/auth/login/totp.
type LoginResponse struct {
	Success            bool          `json:"success"`
	Message            string        `json:"message"`
	SessionEstablished bool          `json:"session_established"`
	RequiresTOTP       bool          `json:"requires_totp"`
	ChallengeToken     string        `json:"challenge_token,omitempty"`
	CSRFToken          string        `json:"csrf_token,omitempty"`
	Identity           *IdentityInfo `json:"identity,omitempty"`
}

type SessionResponse struct {
	Success     bool         `json:"success"`
	Identity    IdentityInfo `json:"identity"`
	Permissions []string     `json:"permissions"`
	ExpiresAt   time.Time    `json:"expires_at"`
}

// ============================================================================
// Invitations & Registration
// ============================================================================

type CreateInvitationRequest struct {
	Email string `json:"email" validate:"required,email,max=254"`
	Role  string `json:"role" validate:"required"`
}

type InvitationInfo struct {
	ID         string     `json:"id"`
	Email      string     `json:"email"`
	Role       string     `json:"role"`
	Status     string     `json:"status"`
	CreatedBy  string     `json:"created_by"`
	CreatedAt  time.Time  `json:"created_at"`
	ExpiresAt  time.Time  `json:"expires_at"`
	AcceptedAt *time.Time `json:"accepted_at,omitempty"`
}

// CreateInvitationResponse carries the raw token. It is never retrievable again.
type CreateInvitationResponse struct {
	Success    bool           `json:"success"`
	Token      string         `json:"token"`
	Invitation InvitationInfo `json:"invitation"`
}

type ListInvitationsResponse struct {
	Success     bool             `json:"success"`
	Invitations []InvitationInfo `json:"invitations"`
}

type ValidateInvitationResponse struct {
	Success   bool      `json:"success"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	ExpiresAt time.Time `json:"expires_at"`
}

type RegisterRequest struct {
	Token     string `json:"token" validate:"required"`
	FirstName string `json:"first_name" validate:"required,max=64"`
	LastName  string `json:"last_name" validate:"required,max=64"`
	Password  string `json:"password" validate:"required,min=10,max=128"`
}

type IdentityResponse struct {
	Success  bool         `json:"success"`
	Identity IdentityInfo `json:"identity"`
}

// ============================================================================
// Alumni
// ============================================================================

type AlumniValidateRequest struct {
	TargetIdentityID string `json:"target_identity_id" validate:"required"`
	Approve          bool   `json:"approve"`
}

type PendingAlumniResponse struct {
	Success    bool           `json:"success"`
	Identities []IdentityInfo `json:"identities"`
}

// ============================================================================
// Identity management
// ============================================================================

type SetRoleRequest struct {
	Role string `json:"role" validate:"required"`
}

type UpdateProfileRequest struct {
	FirstName string `json:"first_name" validate:"required,max=64"`
	LastName  string `json:"last_name" validate:"required,max=64"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required,max=256"`
	NewPassword     string `json:"new_password" validate:"required,min=10,max=128"`
}

// ============================================================================
// MFA
// ============================================================================

type TOTPEnrollResponse struct {
	Success         bool   `json:"success"`
	Secret          string `json:"secret"`
	ProvisioningURI string `json:"provisioning_uri"`
	EnrollmentToken string `json:"enrollment_token"`
}

type TOTPConfirmRequest struct {
	EnrollmentToken string `json:"enrollment_token" validate:"required"`
	Code            string `json:"code" validate:"required,numeric,len=6"`
}

type TOTPConfirmResponse struct {
	Success       bool     `json:"success"`
	RecoveryCodes []string `json:"recovery_codes"`
}

type TOTPDisableRequest struct {
	Code string `json:"code" validate:"required,max=32"`
}

type RecoveryCodesRequest struct {
	Code string `json:"code" validate:"required,numeric,len=6"`
}

// ============================================================================
// Audit
// ============================================================================

type AuditEntryInfo struct {
	ID         string    `json:"id"`
	ActorID    string    `json:"actor_id,omitempty"`
	Action     string    `json:"action"`
	TargetType string    `json:"target_type"`
	TargetID   string    `json:"target_id"`
	Detail     string    `json:"detail,omitempty"`
	IP         string    `json:"ip"`
	CreatedAt  time.Time `json:"created_at"`
}

type ListAuditResponse struct {
	Success bool             `json:"success"`
	Entries []AuditEntryInfo `json:"entries"`
}

// ============================================================================
// Bootstrap
// ============================================================================

type BootstrapRequest struct {
	Email     string `json:"email" validate:"required,email,max=254"`
	Password  string `json:"password" validate:"required,min=10,max=128"`
	FirstName string `json:"first_name" validate:"required,max=64"`
	LastName  string `json:"last_name" validate:"required,max=64"`
}
