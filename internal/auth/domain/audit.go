package domain

import "time"

type AuditAction string

const (
	AuditLoginSuccess   AuditAction = "auth.login.success"
	AuditLoginFailure   AuditAction = "auth.login.failure"
	AuditLoginBlocked   AuditAction = "auth.login.blocked"
	AuditTOTPFailure    AuditAction = "auth.totp.failure"
	AuditLogout         AuditAction = "auth.logout"
	AuditSessionExpired AuditAction = "auth.session.expired"

	AuditTOTPEnabled        AuditAction = "totp.enabled"
	AuditTOTPDisabled       AuditAction = "totp.disabled"
	AuditRecoveryCodeUsed   AuditAction = "totp.recovery_code_used"
	AuditRecoveryCodesReset AuditAction = "totp.recovery_codes_regenerated"
	AuditInvitationCreated  AuditAction = "invitation.created"
	AuditInvitationAccepted AuditAction = "invitation.accepted"
	AuditInvitationDeleted  AuditAction = "invitation.deleted"
	AuditRoleChanged        AuditAction = "identity.role_changed"
	AuditProfileUpdated     AuditAction = "identity.profile_updated"
	AuditPasswordChanged    AuditAction = "identity.password_changed"
	AuditAlumniRequested    AuditAction = "alumni.requested"
	AuditAlumniValidated    AuditAction = "alumni.validated"
	AuditAlumniRejected     AuditAction = "alumni.rejected"
	AuditCSRFMismatch       AuditAction = "csrf.mismatch"
	AuditBootstrapCompleted AuditAction = "bootstrap.completed"
	AuditPermissionDenied   AuditAction = "access.denied"
)

const (
	TargetIdentity   = "identity"
	TargetInvitation = "invitation"
	TargetSession    = "session"
)

// AuditEntry is append-only. ActorID is nil for anonymous actions.
type AuditEntry struct {
	ID         string
	ActorID    *string
	Action     AuditAction
	TargetType string
	TargetID   string
	Detail     string
	IP         string
	CreatedAt  time.Time
}
