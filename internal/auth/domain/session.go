package domain

import "time"

type Session struct {
	ID             string // fingerprint of the opaque cookie token
	IdentityID     string
	CSRFHash       string
	IP             string
	UserAgent      string
	CreatedAt      time.Time
	LastActivityAt time.Time
}

// ClientInfo describes who is on the other end of a request.
type ClientInfo struct {
	IP        string
	UserAgent string
}
