package service

import (
	"fmt"

	"github.com/aussiebroadwan/clubhouse/internal/auth/domain"
	"github.com/aussiebroadwan/clubhouse/pkg/cryptox"
)

// CSRFService binds an anti-forgery token to a session. Only the fingerprint
// is kept on the session.
type CSRFService struct{}

// Issue stores a fresh token's fingerprint on sess and returns the raw token.
func (CSRFService) Issue(sess *domain.Session) (string, error) {
	token, err := cryptox.GenerateToken(cryptox.TokenSize256)
	if err != nil {
		return "", fmt.Errorf("generate csrf token: %w", err)
	}
	sess.CSRFHash = cryptox.FingerprintToken(token)
	return token, nil
}

func (CSRFService) Verify(sess domain.Session, supplied string) bool {
	return cryptox.MatchesFingerprint(supplied, sess.CSRFHash)
}
