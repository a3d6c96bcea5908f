package jwtx

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const minKeyLength = 32

// TicketSigner signs and verifies tickets with a single HMAC key. Tickets
// never leave the auth service, so there is no key set to publish.
type TicketSigner struct {
	key    []byte
	issuer string

	// Now is the clock used for iat/exp. Defaults to time.Now.
	Now func() time.Time
}

// NewTicketSigner builds a signer. The key must carry at least 256 bits.
func NewTicketSigner(key []byte, issuer string) (*TicketSigner, error) {
	if len(key) < minKeyLength {
		return nil, fmt.Errorf("jwtx: ticket key must be at least %d bytes, got %d", minKeyLength, len(key))
	}
	return &TicketSigner{key: key, issuer: issuer, Now: time.Now}, nil
}

func (s *TicketSigner) now() time.Time {
	if s.Now == nil {
		return time.Now()
	}
	return s.Now()
}

// Issue mints a ticket for subject valid for ttl.
func (s *TicketSigner) Issue(purpose Purpose, subject string, ttl time.Duration, opts ...TicketOption) (string, error) {
	now := s.now()
	claims := TicketClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.issuer,
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        NewJTI(),
		},
		Purpose: purpose,
	}
	for _, opt := range opts {
		opt(&claims)
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.key)
	if err != nil {
		return "", fmt.Errorf("jwtx: sign ticket: %w", err)
	}
	return signed, nil
}

// Verify checks signature, issuer, expiry and purpose, returning the claims.
func (s *TicketSigner) Verify(token string, purpose Purpose) (*TicketClaims, error) {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(s.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)

	parsed, err := parser.ParseWithClaims(token, &TicketClaims{}, func(*jwt.Token) (any, error) {
		return s.key, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidTicket, err)
	}

	claims, ok := parsed.Claims.(*TicketClaims)
	if !ok || !parsed.Valid || claims.Subject == "" {
		return nil, ErrInvalidTicket
	}
	if claims.Purpose != purpose {
		return nil, ErrWrongPurpose
	}
	return claims, nil
}

// IsExpired reports whether err came from an expired ticket.
func IsExpired(err error) bool {
	return errors.Is(err, jwt.ErrTokenExpired)
}
