// Package jwtx issues and verifies the short-lived HS256 tickets the auth
// service hands to clients between steps of a multi-request flow.
package jwtx

import (
	"crypto/rand"
	"encoding/base64"
	"errors"

	"github.com/golang-jwt/jwt/v5"
)

// Purpose binds a ticket to exactly one flow so a ticket minted for one step
// cannot be replayed against another.
type Purpose string

const (
	// PurposeSecondFactor correlates a password-verified login with the
	// follow-up TOTP submission.
	PurposeSecondFactor Purpose = "mfa_challenge"

	// PurposeTOTPEnrollment carries a freshly generated TOTP seed until the
	// user proves possession of it.
	PurposeTOTPEnrollment Purpose = "totp_enroll"
)

var (
	ErrInvalidTicket = errors.New("jwtx: invalid ticket")
	ErrWrongPurpose  = errors.New("jwtx: ticket purpose mismatch")
)

// TicketClaims are the claims carried by every ticket.
type TicketClaims struct {
	jwt.RegisteredClaims

	Purpose Purpose `json:"pur"`

	// Identifier is the login identifier (normalised email) the ticket was
	// minted for. Rate limiting of the follow-up step keys on it.
	Identifier string `json:"idf,omitempty"`

	// Secret is the pending TOTP seed for enrollment tickets.
	Secret string `json:"sec,omitempty"`
}

// TicketOption customises claims before signing.
type TicketOption func(*TicketClaims)

func WithIdentifier(identifier string) TicketOption {
	return func(c *TicketClaims) { c.Identifier = identifier }
}

func WithSecret(secret string) TicketOption {
	return func(c *TicketClaims) { c.Secret = secret }
}

// NewJTI returns a URL-safe random identifier for the "jti" claim.
func NewJTI() string {
	var b [16]byte
	_, _ = rand.Read(b[:])
	return base64.RawURLEncoding.EncodeToString(b[:])
}
