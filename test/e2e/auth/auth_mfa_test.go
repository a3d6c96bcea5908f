package auth_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/aussiebroadwan/clubhouse/pkg/authsdk"
)

// enrollTOTP enrolls the signed-in identity and returns the secret and the
// recovery codes issued on confirmation.
func enrollTOTP(t *testing.T, session *authsdk.Session) (string, []string) {
	t.Helper()

	enroll, err := session.EnrollTOTP(t.Context())
	require.NoError(t, err)
	require.NotEmpty(t, enroll.Secret)
	require.Contains(t, enroll.ProvisioningURI, "otpauth://totp/")

	confirm, err := session.ConfirmTOTP(t.Context(), authsdk.TOTPConfirmRequest{
		EnrollmentToken: enroll.EnrollmentToken,
		Code:            generateTOTP(t, enroll.Secret),
	})
	require.NoError(t, err)
	require.NotEmpty(t, confirm.RecoveryCodes)

	return enroll.Secret, confirm.RecoveryCodes
}

// TestTOTPLoginFlow enrolls TOTP and then signs in through the challenge.
func TestTOTPLoginFlow(t *testing.T) {
	baseURL := setupAuthContainer(t)
	bootstrapAdmin(t, baseURL)
	_, admin := login(t, baseURL, adminEmail, adminPassword)

	_, codes := enrollTOTP(t, admin)

	client := newClient(t, baseURL)
	resp, err := client.Login(t.Context(), authsdk.LoginRequest{Email: adminEmail, Password: adminPassword})
	require.NoError(t, err)
	require.True(t, resp.RequiresTOTP)
	require.False(t, resp.SessionEstablished)
	require.NotEmpty(t, resp.ChallengeToken)

	_, err = client.Session().Current(t.Context())
	require.ErrorIs(t, err, authsdk.ErrUnauthenticated, "no session before the second factor")

	_, err = client.LoginTOTP(t.Context(), authsdk.LoginTOTPRequest{ChallengeToken: resp.ChallengeToken, Code: "000000"})
	require.ErrorIs(t, err, authsdk.ErrTOTPInvalid)

	// The confirmation code's time step is spent, so complete with a recovery code.
	done, err := client.LoginTOTP(t.Context(), authsdk.LoginTOTPRequest{ChallengeToken: resp.ChallengeToken, Code: codes[0]})
	require.NoError(t, err)
	require.True(t, done.SessionEstablished)

	current, err := client.Session().Current(t.Context())
	require.NoError(t, err)
	require.True(t, current.Identity.TOTPEnabled)

	// A recovery code works once.
	again := newClient(t, baseURL)
	resp, err = again.Login(t.Context(), authsdk.LoginRequest{Email: adminEmail, Password: adminPassword})
	require.NoError(t, err)
	_, err = again.LoginTOTP(t.Context(), authsdk.LoginTOTPRequest{ChallengeToken: resp.ChallengeToken, Code: codes[0]})
	require.ErrorIs(t, err, authsdk.ErrTOTPInvalid)
}

func TestTOTPEnrollTwice(t *testing.T) {
	baseURL := setupAuthContainer(t)
	bootstrapAdmin(t, baseURL)
	_, admin := login(t, baseURL, adminEmail, adminPassword)

	enrollTOTP(t, admin)

	_, err := admin.EnrollTOTP(t.Context())
	var apiErr *authsdk.APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, 409, apiErr.StatusCode)
}

func TestTOTPDisable(t *testing.T) {
	baseURL := setupAuthContainer(t)
	bootstrapAdmin(t, baseURL)
	_, admin := login(t, baseURL, adminEmail, adminPassword)

	_, codes := enrollTOTP(t, admin)

	require.ErrorIs(t, admin.DisableTOTP(t.Context(), "not-a-code"), authsdk.ErrTOTPInvalid)
	require.NoError(t, admin.DisableTOTP(t.Context(), codes[1]))

	resp, err := newClient(t, baseURL).Login(t.Context(), authsdk.LoginRequest{Email: adminEmail, Password: adminPassword})
	require.NoError(t, err)
	require.True(t, resp.SessionEstablished)
	require.False(t, resp.RequiresTOTP)
}
