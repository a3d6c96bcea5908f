package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/aussiebroadwan/clubhouse/internal/auth/domain"
	"github.com/aussiebroadwan/clubhouse/internal/auth/store"
	"github.com/aussiebroadwan/clubhouse/pkg/idx"
	"github.com/stretchr/testify/require"
)

var epoch = time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	s, err := NewStore(DSN(filepath.Join(t.TempDir(), "auth.db")))
	require.NoError(t, err)
	require.NoError(t, s.ApplyMigrations())
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func seedIdentity(t *testing.T, s *Store, email string, role domain.Role) domain.Identity {
	t.Helper()

	id := domain.Identity{
		ID:           idx.New().String(),
		Email:        email,
		PasswordHash: "$argon2id$v=19$m=19456,t=2,p=1$c2FsdA$aGFzaA",
		Role:         role,
		FirstName:    "Test",
		LastName:     "Person",
		CreatedAt:    epoch,
		UpdatedAt:    epoch,
	}
	require.NoError(t, s.Identities().CreateIdentity(context.Background(), id))
	return id
}

func TestApplyMigrationsIsIdempotent(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.ApplyMigrations())

	version, dirty, err := s.SchemaVersion()
	require.NoError(t, err)
	require.False(t, dirty)
	require.EqualValues(t, 1, version)
}

func TestIdentityEmailIsCaseInsensitive(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	created := seedIdentity(t, s, "Ada@Example.com", domain.RoleMember)

	got, err := s.Identities().GetIdentityByEmail(ctx, "ADA@example.COM")
	require.NoError(t, err)
	require.Equal(t, created.ID, got.ID)
	require.Equal(t, "ada@example.com", got.Email)
	require.Equal(t, domain.RoleMember, got.Role)
	require.True(t, got.CreatedAt.Equal(epoch))

	dup := created
	dup.ID = idx.New().String()
	dup.Email = "ada@EXAMPLE.com"
	err = s.Identities().CreateIdentity(ctx, dup)
	require.ErrorIs(t, err, store.ErrAlreadyExists)

	_, err = s.Identities().GetIdentityByEmail(ctx, "nobody@example.com")
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestTOTPSecretPresentIffEnabled(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	id := seedIdentity(t, s, "totp@example.com", domain.RoleMember)

	// The CHECK constraint refuses a secret without the flag.
	_, err := s.db.ExecContext(ctx, `UPDATE identities SET totp_secret = 'x' WHERE id = ?`, id.ID)
	require.Error(t, err)
	_, err = s.db.ExecContext(ctx, `UPDATE identities SET totp_enabled = 1 WHERE id = ?`, id.ID)
	require.Error(t, err)

	require.NoError(t, s.Identities().EnableTOTP(ctx, id.ID, "sealed", epoch))
	require.ErrorIs(t, s.Identities().EnableTOTP(ctx, id.ID, "other", epoch), store.ErrConditionFailed)

	got, err := s.Identities().GetIdentityByID(ctx, id.ID)
	require.NoError(t, err)
	require.True(t, got.TOTPEnabled)
	require.Equal(t, "sealed", got.TOTPSecret)

	ok, err := s.Identities().AdvanceTOTPStep(ctx, id.ID, 100)
	require.NoError(t, err)
	require.True(t, ok)
	ok, err = s.Identities().AdvanceTOTPStep(ctx, id.ID, 100)
	require.NoError(t, err)
	require.False(t, ok, "a step may only be used once")

	require.NoError(t, s.Identities().DisableTOTP(ctx, id.ID, epoch))
	got, err = s.Identities().GetIdentityByID(ctx, id.ID)
	require.NoError(t, err)
	require.False(t, got.TOTPEnabled)
	require.Empty(t, got.TOTPSecret)
	require.Zero(t, got.TOTPLastStep)
}

func TestAttemptWindow(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	repo := s.Attempts()

	add := func(outcome domain.AttemptOutcome, at time.Time) string {
		id := idx.NewAt(at).String()
		require.NoError(t, repo.CreateAttempt(ctx, domain.AttemptRecord{
			ID:         id,
			IP:         "10.0.0.1",
			Identifier: "a@example.com",
			Outcome:    outcome,
			CreatedAt:  at,
		}))
		return id
	}

	add(domain.OutcomeFailure, epoch.Add(-20*time.Minute)) // outside
	add(domain.OutcomeFailure, epoch.Add(-10*time.Minute))
	add(domain.OutcomeSuccess, epoch.Add(-9*time.Minute))
	add(domain.OutcomeBlocked, epoch.Add(-8*time.Minute))
	pending := add(domain.OutcomePending, epoch.Add(-1*time.Minute))

	times, err := repo.ListCountedSince(ctx, "10.0.0.1", "a@example.com", epoch.Add(-15*time.Minute))
	require.NoError(t, err)
	require.Len(t, times, 2)
	require.True(t, times[0].Equal(epoch.Add(-10*time.Minute)))

	require.NoError(t, repo.ResolveAttempt(ctx, pending, domain.OutcomeSuccess))
	require.ErrorIs(t, repo.ResolveAttempt(ctx, pending, domain.OutcomeFailure), store.ErrConditionFailed)

	times, err = repo.ListCountedSince(ctx, "10.0.0.1", "a@example.com", epoch.Add(-15*time.Minute))
	require.NoError(t, err)
	require.Len(t, times, 1)

	times, err = repo.ListCountedSince(ctx, "10.0.0.2", "a@example.com", epoch.Add(-15*time.Minute))
	require.NoError(t, err)
	require.Empty(t, times)
}

func TestInvitationLifecycle(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	creator := seedIdentity(t, s, "lead@example.com", domain.RoleDepartmentLead)

	inv := domain.Invitation{
		ID:        idx.New().String(),
		Email:     "new@example.com",
		TokenHash: "hash-1",
		Role:      domain.RoleMember,
		CreatedBy: creator.ID,
		CreatedAt: epoch,
		ExpiresAt: epoch.Add(time.Hour),
	}
	require.NoError(t, s.Invitations().CreateInvitation(ctx, inv))

	second := inv
	second.ID = idx.New().String()
	second.TokenHash = "hash-2"
	second.Email = "NEW@example.com"
	require.ErrorIs(t, s.Invitations().CreateInvitation(ctx, second), store.ErrAlreadyExists)

	open, err := s.Invitations().ListOpenInvitations(ctx, creator.ID, epoch)
	require.NoError(t, err)
	require.Len(t, open, 1)

	_, err = s.Invitations().AcceptInvitation(ctx, "hash-1", "someone", epoch.Add(2*time.Hour))
	require.ErrorIs(t, err, store.ErrConditionFailed, "expired invitations cannot be accepted")

	accepted, err := s.Invitations().AcceptInvitation(ctx, "hash-1", "someone", epoch.Add(time.Minute))
	require.NoError(t, err)
	require.Equal(t, domain.InvitationAccepted, accepted.Status(epoch))
	require.Equal(t, "someone", *accepted.AcceptedBy)

	_, err = s.Invitations().AcceptInvitation(ctx, "hash-1", "other", epoch.Add(time.Minute))
	require.ErrorIs(t, err, store.ErrConditionFailed)

	require.ErrorIs(t, s.Invitations().DeleteOpenInvitation(ctx, inv.ID), store.ErrConditionFailed)

	// Acceptance frees the email for a new invitation.
	require.NoError(t, s.Invitations().CreateInvitation(ctx, second))
}

func TestExpiredInvitationCleanup(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	creator := seedIdentity(t, s, "board@example.com", domain.RoleBoard)

	inv := domain.Invitation{
		ID:        idx.New().String(),
		Email:     "late@example.com",
		TokenHash: "hash-late",
		Role:      domain.RoleAlumni,
		CreatedBy: creator.ID,
		CreatedAt: epoch,
		ExpiresAt: epoch.Add(time.Hour),
	}
	require.NoError(t, s.Invitations().CreateInvitation(ctx, inv))

	require.NoError(t, s.Invitations().DeleteExpiredForEmail(ctx, inv.Email, epoch))
	_, err := s.Invitations().GetInvitationByID(ctx, inv.ID)
	require.NoError(t, err, "unexpired invitations are kept")

	n, err := s.Invitations().DeleteExpiredBefore(ctx, epoch.Add(2*time.Hour))
	require.NoError(t, err)
	require.EqualValues(t, 1, n)

	_, err = s.Invitations().GetInvitationByID(ctx, inv.ID)
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestAlumniDecisionNeedsPendingRequest(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	alum := seedIdentity(t, s, "alum@example.com", domain.RoleAlumni)

	err := s.Identities().SetAlumniValidated(ctx, alum.ID, true, epoch)
	require.ErrorIs(t, err, store.ErrConditionFailed)

	created, err := s.Identities().RequestAlumni(ctx, alum.ID, epoch)
	require.NoError(t, err)
	require.True(t, created)

	require.NoError(t, s.Identities().SetAlumniValidated(ctx, alum.ID, false, epoch.Add(time.Minute)))
	err = s.Identities().SetAlumniValidated(ctx, alum.ID, true, epoch.Add(2*time.Minute))
	require.ErrorIs(t, err, store.ErrConditionFailed)

	got, err := s.Identities().GetIdentityByID(ctx, alum.ID)
	require.NoError(t, err)
	require.False(t, got.AlumniValidated)
	require.Nil(t, got.AlumniRequestedAt)
}

func TestSessionTouchRespectsCutoffs(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	id := seedIdentity(t, s, "s@example.com", domain.RoleMember)

	sess := domain.Session{
		ID:             "fp-1",
		IdentityID:     id.ID,
		CSRFHash:       "csrf",
		CreatedAt:      epoch,
		LastActivityAt: epoch,
	}
	require.NoError(t, s.Sessions().CreateSession(ctx, sess))

	now := epoch.Add(10 * time.Minute)
	ok, err := s.Sessions().TouchSession(ctx, sess.ID, now, now.Add(-30*time.Minute), now.Add(-12*time.Hour))
	require.NoError(t, err)
	require.True(t, ok)

	later := now.Add(31 * time.Minute)
	ok, err = s.Sessions().TouchSession(ctx, sess.ID, later, later.Add(-30*time.Minute), later.Add(-12*time.Hour))
	require.NoError(t, err)
	require.False(t, ok)

	n, err := s.Sessions().DeleteStaleSessions(ctx, later.Add(-30*time.Minute), later.Add(-12*time.Hour))
	require.NoError(t, err)
	require.EqualValues(t, 1, n)

	_, err = s.Sessions().GetSession(ctx, sess.ID)
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestAuditEntriesAreAppendOnly(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.AuditEntries().AppendAuditEntry(ctx, domain.AuditEntry{
		ID:        idx.New().String(),
		Action:    domain.AuditLoginFailure,
		Detail:    "identifier=a@example.com",
		CreatedAt: epoch,
	}))

	_, err := s.db.ExecContext(ctx, `UPDATE audit_entries SET detail = 'tampered'`)
	require.ErrorContains(t, err, "append-only")
	_, err = s.db.ExecContext(ctx, `DELETE FROM audit_entries`)
	require.ErrorContains(t, err, "append-only")

	entries, err := s.AuditEntries().ListRecentAuditEntries(ctx, 10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Nil(t, entries[0].ActorID)
	require.Equal(t, domain.AuditLoginFailure, entries[0].Action)
}

func TestRecoveryCodesAreSingleUse(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	id := seedIdentity(t, s, "r@example.com", domain.RoleMember)

	err := s.WithTx(ctx, func(tx store.Tx) error {
		return tx.RecoveryCodes().ReplaceRecoveryCodes(ctx, id.ID, []string{"a", "b"}, epoch)
	})
	require.NoError(t, err)

	ok, err := s.RecoveryCodes().ConsumeRecoveryCode(ctx, id.ID, "a")
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = s.RecoveryCodes().ConsumeRecoveryCode(ctx, id.ID, "a")
	require.NoError(t, err)
	require.False(t, ok)

	n, err := s.RecoveryCodes().CountRecoveryCodes(ctx, id.ID)
	require.NoError(t, err)
	require.EqualValues(t, 1, n)
}
