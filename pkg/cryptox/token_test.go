package cryptox

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGenerateToken(t *testing.T) {
	for _, size := range []int{TokenSize128, TokenSize256, 24} {
		a, err := GenerateToken(size)
		require.NoError(t, err)
		b, err := GenerateToken(size)
		require.NoError(t, err)
		require.NotEqual(t, a, b)
	}

	for _, size := range []int{0, -1} {
		token, err := GenerateToken(size)
		require.Error(t, err)
		require.Empty(t, token)
	}
}

func TestFingerprintToken(t *testing.T) {
	fp := FingerprintToken("token-1")
	require.Equal(t, fp, FingerprintToken("token-1"))
	require.NotEqual(t, fp, FingerprintToken("token-2"))
	require.Len(t, fp, 43)
}

func TestMatchesFingerprint(t *testing.T) {
	fp := FingerprintToken("csrf")
	require.True(t, MatchesFingerprint("csrf", fp))
	require.False(t, MatchesFingerprint("CSRF", fp))
	require.False(t, MatchesFingerprint("", fp))
	require.False(t, MatchesFingerprint("csrf", ""))
}
