package service

import (
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/aussiebroadwan/clubhouse/internal/auth/domain"
	"github.com/stretchr/testify/require"
)

var newcomer = domain.Profile{FirstName: "New", LastName: "Member"}

func TestInvitationConsumedOnce(t *testing.T) {
	h := newHarness(t)
	admin := h.seed("admin@test.com", domain.RoleAdmin)

	inv, token, err := h.svc.Invitations.Create(h.ctx, "new@test.com", domain.RoleMember, admin, client)
	require.NoError(t, err)
	require.Equal(t, "new@test.com", inv.Email)
	require.Equal(t, domain.RoleMember, inv.Role)
	require.Equal(t, h.clock.Now().Add(7*24*time.Hour), inv.ExpiresAt)
	require.NotEqual(t, token, inv.TokenHash)

	ident, err := h.svc.Invitations.Consume(h.ctx, token, newcomer, testPassword, client)
	require.NoError(t, err)
	require.Equal(t, "new@test.com", ident.Email)
	require.Equal(t, domain.RoleMember, ident.Role)

	_, err = h.svc.Invitations.Consume(h.ctx, token, newcomer, testPassword, client)
	require.ErrorIs(t, err, ErrInvitationAlreadyAccepted)

	// The new identity can log in.
	res, err := h.svc.Sessions.Submit(h.ctx, "new@test.com", testPassword, "", client)
	require.NoError(t, err)
	require.Equal(t, LoginAuthenticated, res.State)

	actions := h.auditActions()
	require.Contains(t, actions, domain.AuditInvitationCreated)
	require.Contains(t, actions, domain.AuditInvitationAccepted)
}

func TestInvitationEmailIsSent(t *testing.T) {
	h := newHarness(t)
	admin := h.seed("admin@test.com", domain.RoleAdmin)

	_, token, err := h.svc.Invitations.Create(h.ctx, "new@test.com", domain.RoleMember, admin, client)
	require.NoError(t, err)

	require.Len(t, h.mail.Sent(), 1)
	msg := h.mail.Sent()[0]
	require.Equal(t, "new@test.com", msg.To)
	require.Contains(t, msg.Text, "https://club.example/register?token="+token)
}

func TestInvitationSendFailureIsNotFatal(t *testing.T) {
	h := newHarness(t)
	admin := h.seed("admin@test.com", domain.RoleAdmin)
	h.mail.Err = errors.New("mail provider down")

	_, token, err := h.svc.Invitations.Create(h.ctx, "new@test.com", domain.RoleMember, admin, client)
	require.NoError(t, err)
	require.NotEmpty(t, token)
}

func TestConcurrentConsumeRegistersOnce(t *testing.T) {
	h := newHarness(t)
	admin := h.seed("admin@test.com", domain.RoleAdmin)

	_, token, err := h.svc.Invitations.Create(h.ctx, "race@test.com", domain.RoleMember, admin, client)
	require.NoError(t, err)

	const n = 8
	var (
		wg   sync.WaitGroup
		errs = make([]error, n)
	)
	for i := range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			profile := domain.Profile{FirstName: "Racer", LastName: fmt.Sprintf("No%d", i)}
			_, errs[i] = h.svc.Invitations.Consume(h.ctx, token, profile, testPassword, client)
		}()
	}
	wg.Wait()

	var ok, accepted int
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, ErrInvitationAlreadyAccepted):
			accepted++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	require.Equal(t, 1, ok)
	require.Equal(t, n-1, accepted)

	_, err = h.store.Identities().GetIdentityByEmail(h.ctx, "race@test.com")
	require.NoError(t, err)
}

func TestInvitationValidate(t *testing.T) {
	h := newHarness(t)
	admin := h.seed("admin@test.com", domain.RoleAdmin)

	_, token, err := h.svc.Invitations.Create(h.ctx, "new@test.com", domain.RoleAlumni, admin, client)
	require.NoError(t, err)

	inv, err := h.svc.Invitations.Validate(h.ctx, token)
	require.NoError(t, err)
	require.Equal(t, domain.RoleAlumni, inv.Role)
	require.Equal(t, domain.InvitationPending, inv.Status(h.clock.Now()))

	_, err = h.svc.Invitations.Validate(h.ctx, "unknown")
	require.ErrorIs(t, err, ErrInvitationNotFound)
	_, err = h.svc.Invitations.Validate(h.ctx, "")
	require.ErrorIs(t, err, ErrInvitationNotFound)

	h.clock.Advance(7 * 24 * time.Hour)
	_, err = h.svc.Invitations.Validate(h.ctx, token)
	require.ErrorIs(t, err, ErrInvitationExpired)

	_, err = h.svc.Invitations.Consume(h.ctx, token, newcomer, testPassword, client)
	require.ErrorIs(t, err, ErrInvitationExpired)

	_, err = h.svc.Invitations.Consume(h.ctx, "unknown", newcomer, testPassword, client)
	require.ErrorIs(t, err, ErrInvitationNotFound)
}

func TestConsumeValidatesInput(t *testing.T) {
	h := newHarness(t)
	admin := h.seed("admin@test.com", domain.RoleAdmin)

	_, token, err := h.svc.Invitations.Create(h.ctx, "new@test.com", domain.RoleMember, admin, client)
	require.NoError(t, err)

	_, err = h.svc.Invitations.Consume(h.ctx, token, newcomer, "short", client)
	require.ErrorIs(t, err, ErrWeakPassword)

	_, err = h.svc.Invitations.Consume(h.ctx, token, domain.Profile{FirstName: " "}, testPassword, client)
	require.ErrorIs(t, err, ErrInvalidProfile)

	// Rejected input leaves the invitation open.
	_, err = h.svc.Invitations.Validate(h.ctx, token)
	require.NoError(t, err)
}

func TestOneOpenInvitationPerEmail(t *testing.T) {
	h := newHarness(t)
	admin := h.seed("admin@test.com", domain.RoleAdmin)

	_, _, err := h.svc.Invitations.Create(h.ctx, "new@test.com", domain.RoleMember, admin, client)
	require.NoError(t, err)

	_, _, err = h.svc.Invitations.Create(h.ctx, "NEW@test.com", domain.RoleAlumni, admin, client)
	require.ErrorIs(t, err, ErrInvitationOutstanding)

	// Once the first has expired a new one may be issued.
	h.clock.Advance(7*24*time.Hour + time.Second)
	_, token, err := h.svc.Invitations.Create(h.ctx, "new@test.com", domain.RoleAlumni, admin, client)
	require.NoError(t, err)

	inv, err := h.svc.Invitations.Validate(h.ctx, token)
	require.NoError(t, err)
	require.Equal(t, domain.RoleAlumni, inv.Role)
}

func TestInvitationCreateRules(t *testing.T) {
	h := newHarness(t)
	admin := h.seed("admin@test.com", domain.RoleAdmin)
	lead := h.seed("lead@test.com", domain.RoleDepartmentLead)
	member := h.seed("member@test.com", domain.RoleMember)

	_, _, err := h.svc.Invitations.Create(h.ctx, "not-an-email", domain.RoleMember, admin, client)
	require.ErrorIs(t, err, ErrInvalidInvitationRequest)

	_, _, err = h.svc.Invitations.Create(h.ctx, "a@test.com", domain.RoleNone, admin, client)
	require.ErrorIs(t, err, ErrInvalidInvitationRequest)

	_, _, err = h.svc.Invitations.Create(h.ctx, "a@test.com", domain.Role(42), admin, client)
	require.ErrorIs(t, err, ErrInvalidInvitationRequest)

	_, _, err = h.svc.Invitations.Create(h.ctx, "a@test.com", domain.RoleMember, member, client)
	require.ErrorIs(t, err, ErrPermissionDenied)

	_, _, err = h.svc.Invitations.Create(h.ctx, "a@test.com", domain.RoleBoard, lead, client)
	require.ErrorIs(t, err, ErrPermissionDenied)

	_, _, err = h.svc.Invitations.Create(h.ctx, "a@test.com", domain.RoleDepartmentLead, lead, client)
	require.NoError(t, err)

	_, _, err = h.svc.Invitations.Create(h.ctx, "member@test.com", domain.RoleMember, admin, client)
	require.ErrorIs(t, err, ErrIdentityExists)
}

func TestInvitationDeleteAndList(t *testing.T) {
	h := newHarness(t)
	admin := h.seed("admin@test.com", domain.RoleAdmin)
	lead := h.seed("lead@test.com", domain.RoleDepartmentLead)
	other := h.seed("other@test.com", domain.RoleDepartmentLead)

	mine, _, err := h.svc.Invitations.Create(h.ctx, "a@test.com", domain.RoleMember, lead, client)
	require.NoError(t, err)
	_, adminToken, err := h.svc.Invitations.Create(h.ctx, "b@test.com", domain.RoleMember, admin, client)
	require.NoError(t, err)

	list, err := h.svc.Invitations.ListPending(h.ctx, lead)
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Equal(t, mine.ID, list[0].ID)

	list, err = h.svc.Invitations.ListPending(h.ctx, admin)
	require.NoError(t, err)
	require.Len(t, list, 2)

	require.ErrorIs(t, h.svc.Invitations.Delete(h.ctx, mine.ID, other, client), ErrPermissionDenied)
	require.NoError(t, h.svc.Invitations.Delete(h.ctx, mine.ID, lead, client))
	require.ErrorIs(t, h.svc.Invitations.Delete(h.ctx, mine.ID, lead, client), ErrInvitationNotFound)

	// Accepted invitations stay as the registration record.
	_, err = h.svc.Invitations.Consume(h.ctx, adminToken, newcomer, testPassword, client)
	require.NoError(t, err)
	inv, err := h.store.Invitations().GetInvitationByTokenHash(h.ctx, fingerprint(adminToken))
	require.NoError(t, err)
	require.ErrorIs(t, h.svc.Invitations.Delete(h.ctx, inv.ID, admin, client), ErrInvitationAlreadyAccepted)

	require.Contains(t, h.auditActions(), domain.AuditInvitationDeleted)
}
