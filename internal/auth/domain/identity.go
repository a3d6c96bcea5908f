package domain

import (
	"strings"
	"time"
)

type Identity struct {
	ID           string
	Email        string // stored normalised
	PasswordHash string // PHC argon2id
	Role         Role
	FirstName    string
	LastName     string

	// TOTPSecret is the sealed secret. It is empty iff TOTPEnabled is false.
	TOTPSecret   string
	TOTPEnabled  bool
	TOTPLastStep int64

	AlumniValidated   bool
	AlumniRequestedAt *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// AlumniPending reports an outstanding, unanswered alumni request.
func (i Identity) AlumniPending() bool {
	return i.AlumniRequestedAt != nil && !i.AlumniValidated
}

func (i Identity) DisplayName() string {
	return strings.TrimSpace(i.FirstName + " " + i.LastName)
}

// NormaliseEmail is the canonical form used for lookups and rate limiting.
func NormaliseEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
