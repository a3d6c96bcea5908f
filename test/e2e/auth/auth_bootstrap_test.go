package auth_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/aussiebroadwan/clubhouse/pkg/authsdk"
)

func TestBootstrapSuccess(t *testing.T) {
	baseURL := setupAuthContainer(t)

	admin := bootstrapAdmin(t, baseURL)
	require.Equal(t, adminEmail, admin.Email)

	_, session := login(t, baseURL, adminEmail, adminPassword)
	current, err := session.Current(t.Context())
	require.NoError(t, err)
	require.Equal(t, admin.ID, current.Identity.ID)
	require.Contains(t, current.Permissions, "manage_invitations")
}

func TestBootstrapIdempotency(t *testing.T) {
	baseURL := setupAuthContainer(t)
	bootstrapAdmin(t, baseURL)

	_, err := newClient(t, baseURL).Bootstrap(t.Context(), bootstrapToken, authsdk.BootstrapRequest{
		Email:     "second@clubhouse.test",
		Password:  adminPassword,
		FirstName: "Second",
		LastName:  "Admin",
	})
	require.ErrorIs(t, err, authsdk.ErrBootstrapAlreadyCompleted)
}

func TestBootstrapWrongToken(t *testing.T) {
	baseURL := setupAuthContainer(t)

	_, err := newClient(t, baseURL).Bootstrap(t.Context(), "not-the-token", authsdk.BootstrapRequest{
		Email:     adminEmail,
		Password:  adminPassword,
		FirstName: "Club",
		LastName:  "Admin",
	})
	require.ErrorIs(t, err, authsdk.ErrBootstrapUnauthorized)
}

func TestBootstrapDisabledWithoutToken(t *testing.T) {
	baseURL := setupAuthContainer(t, map[string]string{"BOOTSTRAP_TOKEN": ""})

	_, err := newClient(t, baseURL).Bootstrap(t.Context(), bootstrapToken, authsdk.BootstrapRequest{
		Email:     adminEmail,
		Password:  adminPassword,
		FirstName: "Club",
		LastName:  "Admin",
	})
	var apiErr *authsdk.APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, 404, apiErr.StatusCode)
}
