package domain

import "time"

type InvitationStatus string

const (
	InvitationPending  InvitationStatus = "pending"
	InvitationAccepted InvitationStatus = "accepted"
	InvitationExpired  InvitationStatus = "expired"
)

type Invitation struct {
	ID         string
	Email      string
	TokenHash  string
	Role       Role
	CreatedBy  string
	CreatedAt  time.Time
	ExpiresAt  time.Time
	AcceptedAt *time.Time
	AcceptedBy *string
}

// Status derives the lifecycle state. Acceptance wins over expiry.
func (inv Invitation) Status(now time.Time) InvitationStatus {
	switch {
	case inv.AcceptedAt != nil:
		return InvitationAccepted
	case !now.Before(inv.ExpiresAt):
		return InvitationExpired
	default:
		return InvitationPending
	}
}

// Profile is the personal data supplied at registration.
type Profile struct {
	FirstName string
	LastName  string
}
