package service

import (
	"testing"

	"github.com/aussiebroadwan/clubhouse/internal/auth/domain"
	"github.com/stretchr/testify/require"
)

func adminRequest() AdminRequest {
	return AdminRequest{
		Email:     "Root@Club.Example",
		Password:  testPassword,
		FirstName: "Root",
		LastName:  "Admin",
	}
}

func TestBootstrap(t *testing.T) {
	h := newHarness(t)

	done, err := h.svc.Bootstrap.IsBootstrapped(h.ctx)
	require.NoError(t, err)
	require.False(t, done)

	_, err = h.svc.Bootstrap.Bootstrap(h.ctx, "wrong", adminRequest(), client)
	require.ErrorIs(t, err, ErrBootstrapUnauthorized)

	admin, err := h.svc.Bootstrap.Bootstrap(h.ctx, "bootstrap-secret", adminRequest(), client)
	require.NoError(t, err)
	require.Equal(t, "root@club.example", admin.Email)
	require.Equal(t, domain.RoleAdmin, admin.Role)

	done, err = h.svc.Bootstrap.IsBootstrapped(h.ctx)
	require.NoError(t, err)
	require.True(t, done)

	_, err = h.svc.Bootstrap.Bootstrap(h.ctx, "bootstrap-secret", adminRequest(), client)
	require.ErrorIs(t, err, ErrBootstrapAlready)

	res, err := h.svc.Sessions.Submit(h.ctx, "root@club.example", testPassword, "", client)
	require.NoError(t, err)
	require.Equal(t, LoginAuthenticated, res.State)
	require.Contains(t, h.auditActions(), domain.AuditBootstrapCompleted)
}

func TestBootstrapWithoutConfiguredToken(t *testing.T) {
	h := newHarness(t)
	h.svc.Bootstrap.Token = ""

	_, err := h.svc.Bootstrap.Bootstrap(h.ctx, "", adminRequest(), client)
	require.ErrorIs(t, err, ErrBootstrapUnauthorized)

	// The operator path does not need the token.
	_, err = h.svc.Bootstrap.CreateAdmin(h.ctx, adminRequest(), client)
	require.NoError(t, err)
}

func TestCreateAdminValidation(t *testing.T) {
	h := newHarness(t)

	req := adminRequest()
	req.Password = "short"
	_, err := h.svc.Bootstrap.CreateAdmin(h.ctx, req, client)
	require.ErrorIs(t, err, ErrWeakPassword)

	req = adminRequest()
	req.Email = "not-an-email"
	_, err = h.svc.Bootstrap.CreateAdmin(h.ctx, req, client)
	require.ErrorIs(t, err, ErrInvalidProfile)

	done, err := h.svc.Bootstrap.IsBootstrapped(h.ctx)
	require.NoError(t, err)
	require.False(t, done)
}

func TestCreateAdminRefusedOnceIdentitiesExist(t *testing.T) {
	h := newHarness(t)
	h.seed("member@test.com", domain.RoleMember)

	_, err := h.svc.Bootstrap.CreateAdmin(h.ctx, adminRequest(), client)
	require.ErrorIs(t, err, ErrBootstrapAlready)
}
