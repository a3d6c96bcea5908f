package gen

import "database/sql"

type Identity struct {
	ID                string
	Email             string
	PasswordHash      string
	Role              string
	FirstName         string
	LastName          string
	TotpSecret        sql.NullString
	TotpEnabled       bool
	TotpLastStep      int64
	AlumniValidated   bool
	AlumniRequestedAt sql.NullInt64
	CreatedAt         int64
	UpdatedAt         int64
}

type Attempt struct {
	ID         string
	Ip         string
	Identifier string
	Outcome    string
	Descriptor string
	CreatedAt  int64
}

type Invitation struct {
	ID         string
	Email      string
	TokenHash  string
	Role       string
	CreatedBy  string
	CreatedAt  int64
	ExpiresAt  int64
	AcceptedAt sql.NullInt64
	AcceptedBy sql.NullString
}

type Session struct {
	ID             string
	IdentityID     string
	CsrfHash       string
	Ip             string
	UserAgent      string
	CreatedAt      int64
	LastActivityAt int64
}

type AuditEntry struct {
	ID         string
	ActorID    sql.NullString
	Action     string
	TargetType string
	TargetID   string
	Detail     string
	Ip         string
	CreatedAt  int64
}
