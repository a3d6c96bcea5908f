package domain

import (
	"fmt"
	"time"
)

type AttemptOutcome string

const (
	OutcomeSuccess    AttemptOutcome = "success"
	OutcomeFailure    AttemptOutcome = "failure"
	OutcomePending    AttemptOutcome = "pending"    // reserved, counts as a failure until resolved
	OutcomeChallenged AttemptOutcome = "challenged" // password ok, second factor outstanding
	OutcomeBlocked    AttemptOutcome = "blocked"    // refused by the limiter, never counted
)

func ParseAttemptOutcome(s string) (AttemptOutcome, error) {
	switch o := AttemptOutcome(s); o {
	case OutcomeSuccess, OutcomeFailure, OutcomePending, OutcomeChallenged, OutcomeBlocked:
		return o, nil
	}
	return "", fmt.Errorf("unknown attempt outcome %q", s)
}

// Final reports outcomes a pending reservation may resolve to.
func (o AttemptOutcome) Final() bool {
	return o == OutcomeSuccess || o == OutcomeFailure || o == OutcomeChallenged
}

// AttemptRecord is one row of the login attempt log.
type AttemptRecord struct {
	ID         string
	IP         string
	Identifier string // normalised email
	Outcome    AttemptOutcome
	Descriptor string // user agent
	CreatedAt  time.Time
}
