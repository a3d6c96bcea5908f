package sqlite

import (
	"context"
	"time"

	"github.com/aussiebroadwan/clubhouse/internal/auth/domain"
	"github.com/aussiebroadwan/clubhouse/internal/auth/store"
	"github.com/aussiebroadwan/clubhouse/internal/auth/store/drivers/sqlite/gen"
)

type attemptsRepo struct {
	q *gen.Queries
}

func (r *attemptsRepo) CreateAttempt(ctx context.Context, a domain.AttemptRecord) error {
	return mapWriteErr(r.q.CreateAttempt(ctx, gen.CreateAttemptParams{
		ID:         a.ID,
		Ip:         a.IP,
		Identifier: a.Identifier,
		Outcome:    string(a.Outcome),
		Descriptor: a.Descriptor,
		CreatedAt:  toMillis(a.CreatedAt),
	}))
}

func (r *attemptsRepo) ListCountedSince(
	ctx context.Context,
	ip, identifier string,
	since time.Time,
) ([]time.Time, error) {
	rows, err := r.q.ListCountedAttemptTimes(ctx, gen.ListCountedAttemptTimesParams{
		Ip:         ip,
		Identifier: identifier,
		Since:      toMillis(since),
	})
	if err != nil {
		return nil, err
	}

	out := make([]time.Time, len(rows))
	for i, ms := range rows {
		out[i] = fromMillis(ms)
	}
	return out, nil
}

func (r *attemptsRepo) ResolveAttempt(ctx context.Context, id string, outcome domain.AttemptOutcome) error {
	n, err := r.q.ResolveAttempt(ctx, gen.ResolveAttemptParams{
		Outcome: string(outcome),
		ID:      id,
	})
	return rowsOr(n, err, store.ErrConditionFailed)
}

func (r *attemptsRepo) GetAttempt(ctx context.Context, id string) (domain.AttemptRecord, error) {
	row, err := r.q.GetAttempt(ctx, id)
	if err != nil {
		return domain.AttemptRecord{}, mapNotFound(err)
	}
	return mapAttempt(row)
}
