package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aussiebroadwan/clubhouse/internal/auth/domain"
	"github.com/aussiebroadwan/clubhouse/internal/auth/metrics"
	"github.com/aussiebroadwan/clubhouse/internal/auth/store"
	"github.com/aussiebroadwan/clubhouse/pkg/idx"
	"github.com/aussiebroadwan/clubhouse/pkg/slogx"
)

const (
	DefaultRateLimitThreshold = 5
	DefaultRateLimitWindow    = 15 * time.Minute
)

type Decision struct {
	Allowed    bool
	RetryAfter time.Duration
}

// Reservation is a pending attempt row. It counts as a failure until resolved.
// The zero value resolves to nothing.
type Reservation struct {
	ID string
}

// RateLimiter is a sliding window over persisted attempts per (ip, identifier).
// Failures and unresolved reservations count. Blocked attempts are recorded
// but never counted.
type RateLimiter struct {
	Store     store.Store
	Metrics   *metrics.Metrics
	Threshold int
	Window    time.Duration
	Now       Clock
}

func (r *RateLimiter) threshold() int {
	if r.Threshold <= 0 {
		return DefaultRateLimitThreshold
	}
	return r.Threshold
}

func (r *RateLimiter) window() time.Duration {
	if r.Window <= 0 {
		return DefaultRateLimitWindow
	}
	return r.Window
}

// CheckAllowed is a read-only decision. Use Acquire on the login path.
func (r *RateLimiter) CheckAllowed(ctx context.Context, ip, identifier string) (Decision, error) {
	d, err := r.decide(ctx, r.Store, ip, identifier, r.Now.now())
	return d, storeErr(err)
}

func (r *RateLimiter) decide(ctx context.Context, s store.Store, ip, identifier string, now time.Time) (Decision, error) {
	window := r.window()
	threshold := r.threshold()

	times, err := s.Attempts().ListCountedSince(ctx, ip, identifier, now.Add(-window))
	if err != nil {
		return Decision{}, fmt.Errorf("count attempts: %w", err)
	}
	if len(times) < threshold {
		return Decision{Allowed: true}, nil
	}

	// The block lifts once enough of the oldest counted attempts age out.
	retryAfter := times[len(times)-threshold].Add(window).Sub(now)
	if retryAfter < time.Second {
		retryAfter = time.Second
	}
	return Decision{Allowed: false, RetryAfter: retryAfter}, nil
}

// RecordAttempt appends one attempt with a final outcome.
func (r *RateLimiter) RecordAttempt(ctx context.Context, ip, identifier string, outcome domain.AttemptOutcome, descriptor string) error {
	now := r.Now.now()
	err := r.Store.Attempts().CreateAttempt(ctx, domain.AttemptRecord{
		ID:         idx.NewAt(now).String(),
		IP:         ip,
		Identifier: identifier,
		Outcome:    outcome,
		Descriptor: descriptor,
		CreatedAt:  now,
	})
	if err != nil {
		return storeErr(err)
	}
	r.Metrics.LoginOutcome(string(outcome))
	return nil
}

// Acquire decides and records in one write transaction, so two concurrent
// attempts can never both slip under the threshold.
func (r *RateLimiter) Acquire(ctx context.Context, ip, identifier, descriptor string) (Reservation, Decision, error) {
	now := r.Now.now()

	var (
		res Reservation
		dec Decision
	)
	err := r.Store.WithTx(ctx, func(tx store.Tx) error {
		d, err := r.decide(ctx, tx, ip, identifier, now)
		if err != nil {
			return err
		}

		rec := domain.AttemptRecord{
			ID:         idx.NewAt(now).String(),
			IP:         ip,
			Identifier: identifier,
			Outcome:    domain.OutcomePending,
			Descriptor: descriptor,
			CreatedAt:  now,
		}
		if !d.Allowed {
			rec.Outcome = domain.OutcomeBlocked
		}
		if err := tx.Attempts().CreateAttempt(ctx, rec); err != nil {
			return fmt.Errorf("record attempt: %w", err)
		}

		if d.Allowed {
			res = Reservation{ID: rec.ID}
		}
		dec = d
		return nil
	})
	if err != nil {
		slogx.FromContext(ctx).Error("rate limiter acquire failed", slog.Any("error", err))
		return Reservation{}, Decision{}, storeErr(err)
	}

	if !dec.Allowed {
		r.Metrics.RateLimitBlocked()
		r.Metrics.LoginOutcome(string(domain.OutcomeBlocked))
	}
	return res, dec, nil
}

// Resolve sets the final outcome of a reservation.
func (r *RateLimiter) Resolve(ctx context.Context, res Reservation, outcome domain.AttemptOutcome) error {
	return r.resolve(ctx, r.Store, res, outcome)
}

func (r *RateLimiter) resolve(ctx context.Context, s store.Store, res Reservation, outcome domain.AttemptOutcome) error {
	if res.ID == "" {
		return nil
	}
	if !outcome.Final() {
		return fmt.Errorf("rate limiter: %q is not a final outcome", outcome)
	}

	err := s.Attempts().ResolveAttempt(ctx, res.ID, outcome)
	switch {
	case errors.Is(err, store.ErrConditionFailed):
		slogx.FromContext(ctx).Warn("attempt already resolved",
			slog.String("attempt_id", res.ID),
			slog.String("outcome", string(outcome)),
		)
		return nil
	case err != nil:
		return storeErr(err)
	}

	r.Metrics.LoginOutcome(string(outcome))
	return nil
}
