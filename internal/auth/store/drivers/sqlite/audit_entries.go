package sqlite

import (
	"context"

	"github.com/aussiebroadwan/clubhouse/internal/auth/domain"
	"github.com/aussiebroadwan/clubhouse/internal/auth/store/drivers/sqlite/gen"
)

type auditEntriesRepo struct {
	q *gen.Queries
}

func (r *auditEntriesRepo) AppendAuditEntry(ctx context.Context, e domain.AuditEntry) error {
	return mapWriteErr(r.q.AppendAuditEntry(ctx, gen.AuditEntry{
		ID:         e.ID,
		ActorID:    mapOptionalString(e.ActorID),
		Action:     string(e.Action),
		TargetType: e.TargetType,
		TargetID:   e.TargetID,
		Detail:     e.Detail,
		Ip:         e.IP,
		CreatedAt:  toMillis(e.CreatedAt),
	}))
}

func (r *auditEntriesRepo) ListRecentAuditEntries(ctx context.Context, limit int) ([]domain.AuditEntry, error) {
	rows, err := r.q.ListRecentAuditEntries(ctx, int64(limit))
	if err != nil {
		return nil, err
	}

	out := make([]domain.AuditEntry, len(rows))
	for i, row := range rows {
		out[i] = mapAuditEntry(row)
	}
	return out, nil
}
