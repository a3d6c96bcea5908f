package sqlite

import (
	"context"
	"time"

	"github.com/aussiebroadwan/clubhouse/internal/auth/domain"
	"github.com/aussiebroadwan/clubhouse/internal/auth/store/drivers/sqlite/gen"
)

type sessionsRepo struct {
	q *gen.Queries
}

func (r *sessionsRepo) CreateSession(ctx context.Context, s domain.Session) error {
	return mapWriteErr(r.q.CreateSession(ctx, gen.CreateSessionParams{
		ID:             s.ID,
		IdentityID:     s.IdentityID,
		CsrfHash:       s.CSRFHash,
		Ip:             s.IP,
		UserAgent:      s.UserAgent,
		CreatedAt:      toMillis(s.CreatedAt),
		LastActivityAt: toMillis(s.LastActivityAt),
	}))
}

func (r *sessionsRepo) GetSession(ctx context.Context, id string) (domain.Session, error) {
	row, err := r.q.GetSession(ctx, id)
	if err != nil {
		return domain.Session{}, mapNotFound(err)
	}
	return mapSession(row), nil
}

func (r *sessionsRepo) TouchSession(
	ctx context.Context,
	id string,
	now, idleCutoff, createdCutoff time.Time,
) (bool, error) {
	n, err := r.q.TouchSession(ctx, gen.TouchSessionParams{
		Now:           toMillis(now),
		ID:            id,
		IdleCutoff:    toMillis(idleCutoff),
		CreatedCutoff: toMillis(createdCutoff),
	})
	return n == 1, err
}

func (r *sessionsRepo) DeleteSession(ctx context.Context, id string) error {
	return r.q.DeleteSession(ctx, id)
}

func (r *sessionsRepo) DeleteIdentitySessions(ctx context.Context, identityID, keepID string) (int64, error) {
	return r.q.DeleteIdentitySessions(ctx, gen.DeleteIdentitySessionsParams{
		IdentityID: identityID,
		KeepID:     keepID,
	})
}

func (r *sessionsRepo) DeleteStaleSessions(ctx context.Context, idleCutoff, createdCutoff time.Time) (int64, error) {
	return r.q.DeleteStaleSessions(ctx, gen.DeleteStaleSessionsParams{
		IdleCutoff:    toMillis(idleCutoff),
		CreatedCutoff: toMillis(createdCutoff),
	})
}
