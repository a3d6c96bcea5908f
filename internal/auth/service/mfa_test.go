package service

import (
	"testing"
	"time"

	"github.com/aussiebroadwan/clubhouse/internal/auth/domain"
	"github.com/stretchr/testify/require"
)

func TestEnrollConfirmDisable(t *testing.T) {
	h := newHarness(t)
	ident := h.seed("ada@test.com", domain.RoleMember)

	enr, err := h.svc.MFA.Enroll(h.ctx, ident)
	require.NoError(t, err)
	require.NotEmpty(t, enr.Secret)
	require.Contains(t, enr.ProvisioningURI, "otpauth://totp/")
	require.False(t, h.reload(ident.ID).TOTPEnabled, "nothing is stored before confirmation")

	now := h.clock.Now()
	_, err = h.svc.MFA.Confirm(h.ctx, ident, enr.Token, wrongCode(t, enr.Secret, now), client)
	require.ErrorIs(t, err, ErrTOTPInvalid)

	codes, err := h.svc.MFA.Confirm(h.ctx, ident, enr.Token, codeAt(t, enr.Secret, now), client)
	require.NoError(t, err)
	require.Len(t, codes, 10)

	ident = h.reload(ident.ID)
	require.True(t, ident.TOTPEnabled)

	_, err = h.svc.MFA.Enroll(h.ctx, ident)
	require.ErrorIs(t, err, ErrTOTPAlreadyEnabled)

	// The confirming code cannot be reused to disable.
	require.ErrorIs(t, h.svc.MFA.Disable(h.ctx, ident, codeAt(t, enr.Secret, now), client), ErrTOTPInvalid)

	h.clock.Advance(30 * time.Second)
	require.NoError(t, h.svc.MFA.Disable(h.ctx, ident, codeAt(t, enr.Secret, h.clock.Now()), client))

	ident = h.reload(ident.ID)
	require.False(t, ident.TOTPEnabled)
	require.Empty(t, ident.TOTPSecret)

	left, err := h.store.RecoveryCodes().CountRecoveryCodes(h.ctx, ident.ID)
	require.NoError(t, err)
	require.Zero(t, left)

	require.ErrorIs(t, h.svc.MFA.Disable(h.ctx, ident, "123456", client), ErrTOTPNotEnabled)

	actions := h.auditActions()
	require.Contains(t, actions, domain.AuditTOTPEnabled)
	require.Contains(t, actions, domain.AuditTOTPDisabled)
}

func TestEnrollmentTokenIsBoundToIdentity(t *testing.T) {
	h := newHarness(t)
	ada := h.seed("ada@test.com", domain.RoleMember)
	bob := h.seed("bob@test.com", domain.RoleMember)

	enr, err := h.svc.MFA.Enroll(h.ctx, ada)
	require.NoError(t, err)

	_, err = h.svc.MFA.Confirm(h.ctx, bob, enr.Token, codeAt(t, enr.Secret, h.clock.Now()), client)
	require.ErrorIs(t, err, ErrTOTPInvalid)
	require.False(t, h.reload(bob.ID).TOTPEnabled)

	h.clock.Advance(EnrollmentTTL + time.Second)
	_, err = h.svc.MFA.Confirm(h.ctx, ada, enr.Token, codeAt(t, enr.Secret, h.clock.Now()), client)
	require.ErrorIs(t, err, ErrTOTPInvalid)
}

func TestDisableWithRecoveryCode(t *testing.T) {
	h := newHarness(t)
	ident := h.seed("ada@test.com", domain.RoleMember)

	enr, err := h.svc.MFA.Enroll(h.ctx, ident)
	require.NoError(t, err)
	codes, err := h.svc.MFA.Confirm(h.ctx, ident, enr.Token, codeAt(t, enr.Secret, h.clock.Now()), client)
	require.NoError(t, err)

	require.NoError(t, h.svc.MFA.Disable(h.ctx, h.reload(ident.ID), codes[3], client))
	require.False(t, h.reload(ident.ID).TOTPEnabled)
}

func TestRegenerateRecoveryCodes(t *testing.T) {
	h := newHarness(t)
	ident := h.seed("ada@test.com", domain.RoleMember)

	enr, err := h.svc.MFA.Enroll(h.ctx, ident)
	require.NoError(t, err)
	old, err := h.svc.MFA.Confirm(h.ctx, ident, enr.Token, codeAt(t, enr.Secret, h.clock.Now()), client)
	require.NoError(t, err)
	ident = h.reload(ident.ID)

	h.clock.Advance(30 * time.Second)
	stale := codeAt(t, enr.Secret, h.clock.Now().Add(-10*time.Minute))
	_, err = h.svc.MFA.RegenerateRecoveryCodes(h.ctx, ident, stale, client)
	require.ErrorIs(t, err, ErrTOTPInvalid)

	ok, err := h.svc.MFA.VerifySecondFactor(h.ctx, ident, old[1], client)
	require.NoError(t, err)
	require.True(t, ok, "a rejected regeneration leaves the old codes in place")

	fresh, err := h.svc.MFA.RegenerateRecoveryCodes(h.ctx, ident, codeAt(t, enr.Secret, h.clock.Now()), client)
	require.NoError(t, err)
	require.Len(t, fresh, 10)

	entries, err := h.svc.Audit.Recent(h.ctx, 10)
	require.NoError(t, err)
	var actions []domain.AuditAction
	for _, e := range entries {
		actions = append(actions, e.Action)
	}
	require.Contains(t, actions, domain.AuditTOTPFailure)
	require.Contains(t, actions, domain.AuditRecoveryCodesReset)

	ok, err = h.svc.MFA.VerifySecondFactor(h.ctx, ident, old[0], client)
	require.NoError(t, err)
	require.False(t, ok)

	ok, err = h.svc.MFA.VerifySecondFactor(h.ctx, ident, fresh[0], client)
	require.NoError(t, err)
	require.True(t, ok)
}
