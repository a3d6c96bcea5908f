package store

import (
	"context"
	"errors"
	"time"

	"github.com/aussiebroadwan/clubhouse/internal/auth/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")

	// ErrConditionFailed is returned when a conditional update matched no row.
	ErrConditionFailed = errors.New("store: condition failed")
)

// Store is the root data access interface. Concrete drivers implement it and
// hand out sub-repositories so transactional code cannot accidentally open a
// nested transaction.
type Store interface {
	Identities() Identities
	Attempts() Attempts
	Invitations() Invitations
	Sessions() Sessions
	AuditEntries() AuditEntries
	RecoveryCodes() RecoveryCodes

	ApplyMigrations() error

	// Tx starts a write transaction. The driver takes the write lock up
	// front, so check-then-write sequences inside it are serialised.
	// The caller MUST call Commit() or Rollback() on the returned Tx.
	Tx(ctx context.Context) (Tx, error)

	// WithTx runs fn in a transaction, committing when fn returns nil.
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	Close() error
	Ping(ctx context.Context) error
}

// Tx is a transactional store. It embeds the same repos but adds Commit/Rollback.
type Tx interface {
	Store
	Commit() error
	Rollback() error
}

type Identities interface {
	// CreateIdentity returns ErrAlreadyExists when the email is taken.
	CreateIdentity(ctx context.Context, i domain.Identity) error

	GetIdentityByID(ctx context.Context, id string) (domain.Identity, error)

	// GetIdentityByEmail matches case-insensitively.
	GetIdentityByEmail(ctx context.Context, email string) (domain.Identity, error)

	IsEmpty(ctx context.Context) (bool, error)

	UpdateProfile(ctx context.Context, id, firstName, lastName string, now time.Time) error
	UpdatePasswordHash(ctx context.Context, id, hash string, now time.Time) error
	UpdateRole(ctx context.Context, id string, role domain.Role, now time.Time) error

	// EnableTOTP stores the sealed secret and sets the flag in one statement.
	// Returns ErrConditionFailed when TOTP is already enabled.
	EnableTOTP(ctx context.Context, id, sealedSecret string, now time.Time) error

	// DisableTOTP clears the secret and the flag in one statement.
	// Returns ErrConditionFailed when TOTP is not enabled.
	DisableTOTP(ctx context.Context, id string, now time.Time) error

	// AdvanceTOTPStep records step as the last accepted code. It returns
	// false when step is not newer than the stored one.
	AdvanceTOTPStep(ctx context.Context, id string, step int64) (bool, error)

	// RequestAlumni returns false when a request is already pending or the
	// identity is already validated.
	RequestAlumni(ctx context.Context, id string, now time.Time) (bool, error)

	ListPendingAlumni(ctx context.Context) ([]domain.Identity, error)

	// SetAlumniValidated records the decision and clears the request.
	// Returns ErrConditionFailed when no request is pending.
	SetAlumniValidated(ctx context.Context, id string, validated bool, now time.Time) error
}

type Attempts interface {
	CreateAttempt(ctx context.Context, a domain.AttemptRecord) error

	// ListCountedSince returns the timestamps of failure and pending attempts
	// for the pair at or after since, oldest first.
	ListCountedSince(ctx context.Context, ip, identifier string, since time.Time) ([]time.Time, error)

	// ResolveAttempt moves a pending attempt to its final outcome.
	// Returns ErrConditionFailed when the attempt is not pending.
	ResolveAttempt(ctx context.Context, id string, outcome domain.AttemptOutcome) error

	GetAttempt(ctx context.Context, id string) (domain.AttemptRecord, error)
}

type Invitations interface {
	// CreateInvitation returns ErrAlreadyExists while another unaccepted
	// invitation exists for the email.
	CreateInvitation(ctx context.Context, inv domain.Invitation) error

	GetInvitationByID(ctx context.Context, id string) (domain.Invitation, error)
	GetInvitationByTokenHash(ctx context.Context, hash string) (domain.Invitation, error)

	// AcceptInvitation marks the invitation accepted when it is still open at
	// now and returns the updated row, or ErrConditionFailed.
	AcceptInvitation(ctx context.Context, tokenHash, acceptedBy string, now time.Time) (domain.Invitation, error)

	// ListOpenInvitations returns unaccepted, unexpired invitations. An empty
	// createdBy lists every creator.
	ListOpenInvitations(ctx context.Context, createdBy string, now time.Time) ([]domain.Invitation, error)

	// DeleteOpenInvitation removes an unaccepted invitation.
	// Returns ErrConditionFailed when it has been accepted or does not exist.
	DeleteOpenInvitation(ctx context.Context, id string) error

	// DeleteExpiredForEmail removes unaccepted invitations for email that
	// expired at or before now.
	DeleteExpiredForEmail(ctx context.Context, email string, now time.Time) error

	// DeleteExpiredBefore removes unaccepted invitations that expired before cutoff.
	DeleteExpiredBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

type Sessions interface {
	CreateSession(ctx context.Context, s domain.Session) error
	GetSession(ctx context.Context, id string) (domain.Session, error)

	// TouchSession bumps last_activity_at to now only while the session has
	// been active since idleCutoff and was created after createdCutoff.
	TouchSession(ctx context.Context, id string, now, idleCutoff, createdCutoff time.Time) (bool, error)

	DeleteSession(ctx context.Context, id string) error

	// DeleteIdentitySessions removes every session of the identity except keepID.
	DeleteIdentitySessions(ctx context.Context, identityID, keepID string) (int64, error)

	// DeleteStaleSessions removes sessions idle since before idleCutoff or
	// created before createdCutoff.
	DeleteStaleSessions(ctx context.Context, idleCutoff, createdCutoff time.Time) (int64, error)
}

type AuditEntries interface {
	AppendAuditEntry(ctx context.Context, e domain.AuditEntry) error

	// ListRecentAuditEntries returns up to limit entries, newest first.
	ListRecentAuditEntries(ctx context.Context, limit int) ([]domain.AuditEntry, error)
}

type RecoveryCodes interface {
	// ReplaceRecoveryCodes drops any existing codes for the identity and stores hashes.
	ReplaceRecoveryCodes(ctx context.Context, identityID string, hashes []string, now time.Time) error

	// ConsumeRecoveryCode deletes the code and reports whether it existed.
	ConsumeRecoveryCode(ctx context.Context, identityID, hash string) (bool, error)

	DeleteAllRecoveryCodes(ctx context.Context, identityID string) error
	CountRecoveryCodes(ctx context.Context, identityID string) (int64, error)
}
