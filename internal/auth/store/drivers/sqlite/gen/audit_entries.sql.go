package gen

import "context"

const appendAuditEntry = `-- name: AppendAuditEntry :exec
INSERT INTO audit_entries (id, actor_id, action, target_type, target_id, detail, ip, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
`

func (q *Queries) AppendAuditEntry(ctx context.Context, arg AuditEntry) error {
	_, err := q.db.ExecContext(ctx, appendAuditEntry,
		arg.ID,
		arg.ActorID,
		arg.Action,
		arg.TargetType,
		arg.TargetID,
		arg.Detail,
		arg.Ip,
		arg.CreatedAt,
	)
	return err
}

const listRecentAuditEntries = `-- name: ListRecentAuditEntries :many
SELECT id, actor_id, action, target_type, target_id, detail, ip, created_at
FROM audit_entries
ORDER BY created_at DESC, id DESC
LIMIT ?
`

func (q *Queries) ListRecentAuditEntries(ctx context.Context, limit int64) ([]AuditEntry, error) {
	rows, err := q.db.QueryContext(ctx, listRecentAuditEntries, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []AuditEntry
	for rows.Next() {
		var e AuditEntry
		if err := rows.Scan(
			&e.ID,
			&e.ActorID,
			&e.Action,
			&e.TargetType,
			&e.TargetID,
			&e.Detail,
			&e.Ip,
			&e.CreatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
