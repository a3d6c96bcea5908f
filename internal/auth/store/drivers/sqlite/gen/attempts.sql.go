package gen

import "context"

const createAttempt = `-- name: CreateAttempt :exec
INSERT INTO attempts (id, ip, identifier, outcome, descriptor, created_at)
VALUES (?, ?, ?, ?, ?, ?)
`

type CreateAttemptParams struct {
	ID         string
	Ip         string
	Identifier string
	Outcome    string
	Descriptor string
	CreatedAt  int64
}

func (q *Queries) CreateAttempt(ctx context.Context, arg CreateAttemptParams) error {
	_, err := q.db.ExecContext(ctx, createAttempt,
		arg.ID,
		arg.Ip,
		arg.Identifier,
		arg.Outcome,
		arg.Descriptor,
		arg.CreatedAt,
	)
	return err
}

const listCountedAttemptTimes = `-- name: ListCountedAttemptTimes :many
SELECT created_at
FROM attempts
WHERE ip = ? AND identifier = ? AND created_at >= ? AND outcome IN ('failure', 'pending')
ORDER BY created_at ASC
`

type ListCountedAttemptTimesParams struct {
	Ip         string
	Identifier string
	Since      int64
}

func (q *Queries) ListCountedAttemptTimes(ctx context.Context, arg ListCountedAttemptTimesParams) ([]int64, error) {
	rows, err := q.db.QueryContext(ctx, listCountedAttemptTimes, arg.Ip, arg.Identifier, arg.Since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []int64
	for rows.Next() {
		var createdAt int64
		if err := rows.Scan(&createdAt); err != nil {
			return nil, err
		}
		items = append(items, createdAt)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const resolveAttempt = `-- name: ResolveAttempt :execrows
UPDATE attempts SET outcome = ? WHERE id = ? AND outcome = 'pending'
`

type ResolveAttemptParams struct {
	Outcome string
	ID      string
}

func (q *Queries) ResolveAttempt(ctx context.Context, arg ResolveAttemptParams) (int64, error) {
	return execRows(q.db.ExecContext(ctx, resolveAttempt, arg.Outcome, arg.ID))
}

const getAttempt = `-- name: GetAttempt :one
SELECT id, ip, identifier, outcome, descriptor, created_at FROM attempts WHERE id = ?
`

func (q *Queries) GetAttempt(ctx context.Context, id string) (Attempt, error) {
	var a Attempt
	err := q.db.QueryRowContext(ctx, getAttempt, id).Scan(
		&a.ID,
		&a.Ip,
		&a.Identifier,
		&a.Outcome,
		&a.Descriptor,
		&a.CreatedAt,
	)
	return a, err
}
