package service

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/aussiebroadwan/clubhouse/internal/auth/domain"
	"github.com/stretchr/testify/require"
)

func newTestHousekeeping(h *harness) *HousekeepingService {
	hk := NewHousekeepingService(h.store, slog.New(slog.NewTextHandler(io.Discard, nil)), time.Hour)
	hk.Metrics = h.metrics
	hk.Now = h.clock.Now
	return hk
}

func TestHousekeepingCleanup(t *testing.T) {
	h := newHarness(t)
	admin := h.seed("admin@test.com", domain.RoleAdmin)
	hk := newTestHousekeeping(h)

	stale, err := h.svc.Sessions.Submit(h.ctx, "admin@test.com", testPassword, "", client)
	require.NoError(t, err)
	h.clock.Advance(10 * time.Minute)
	fresh, err := h.svc.Sessions.Submit(h.ctx, "admin@test.com", testPassword, "", client)
	require.NoError(t, err)
	h.clock.Advance(25 * time.Minute)

	inv, _, err := h.svc.Invitations.Create(h.ctx, "new@test.com", domain.RoleMember, admin, client)
	require.NoError(t, err)

	res, err := hk.Cleanup(h.ctx)
	require.NoError(t, err)
	require.Equal(t, CleanupResult{Sessions: 1}, res)

	_, err = h.store.Sessions().GetSession(h.ctx, stale.Session.ID)
	require.Error(t, err)
	_, err = h.store.Sessions().GetSession(h.ctx, fresh.Session.ID)
	require.NoError(t, err)

	// Expired invitations are kept for the retention period.
	h.clock.Advance(DefaultInvitationTTL + time.Hour)
	res, err = hk.Cleanup(h.ctx)
	require.NoError(t, err)
	require.Equal(t, CleanupResult{Sessions: 1}, res)
	_, err = h.store.Invitations().GetInvitationByID(h.ctx, inv.ID)
	require.NoError(t, err)

	h.clock.Advance(DefaultInvitationRetention)
	res, err = hk.Cleanup(h.ctx)
	require.NoError(t, err)
	require.Equal(t, CleanupResult{Invitations: 1}, res)
	_, err = h.store.Invitations().GetInvitationByID(h.ctx, inv.ID)
	require.Error(t, err)
}

func TestHousekeepingStartStop(t *testing.T) {
	h := newHarness(t)
	h.seed("admin@test.com", domain.RoleAdmin)
	res, err := h.svc.Sessions.Submit(h.ctx, "admin@test.com", testPassword, "", client)
	require.NoError(t, err)
	h.clock.Advance(DefaultSessionMaxAge)

	hk := newTestHousekeeping(h)
	hk.Start()
	require.Eventually(t, func() bool {
		_, err := h.store.Sessions().GetSession(h.ctx, res.Session.ID)
		return err != nil
	}, 5*time.Second, 10*time.Millisecond)
	hk.Stop()
}
