package cryptox_test

import (
	"testing"

	"github.com/aussiebroadwan/clubhouse/pkg/cryptox"
	"github.com/stretchr/testify/require"
)

func TestSecretBoxRoundTrip(t *testing.T) {
	box, err := cryptox.NewSecretBox([]byte("test-master-key-for-encryption-12345"))
	require.NoError(t, err)

	secret := []byte("JBSWY3DPEHPK3PXPJBSWY3DPEHPK3PXP")

	sealed1, err := box.Seal(secret)
	require.NoError(t, err)
	sealed2, err := box.Seal(secret)
	require.NoError(t, err)
	require.NotEqual(t, sealed1, sealed2, "nonces should differ")

	opened, err := box.Open(sealed1)
	require.NoError(t, err)
	require.Equal(t, secret, opened)
}

func TestSecretBoxRejectsTampering(t *testing.T) {
	box, err := cryptox.NewSecretBox([]byte("key-one"))
	require.NoError(t, err)
	other, err := cryptox.NewSecretBox([]byte("key-two"))
	require.NoError(t, err)

	sealed, err := box.Seal([]byte("seed"))
	require.NoError(t, err)

	_, err = other.Open(sealed)
	require.Error(t, err, "wrong key must not decrypt")

	_, err = box.Open("AAAA")
	require.ErrorIs(t, err, cryptox.ErrCiphertextTooShort)

	_, err = box.Open("%%%")
	require.Error(t, err)
}

func TestNewSecretBoxRequiresKey(t *testing.T) {
	_, err := cryptox.NewSecretBox(nil)
	require.Error(t, err)
}
