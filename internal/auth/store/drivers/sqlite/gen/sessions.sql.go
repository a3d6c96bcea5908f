package gen

import "context"

const createSession = `-- name: CreateSession :exec
INSERT INTO sessions (id, identity_id, csrf_hash, ip, user_agent, created_at, last_activity_at)
VALUES (?, ?, ?, ?, ?, ?, ?)
`

type CreateSessionParams struct {
	ID             string
	IdentityID     string
	CsrfHash       string
	Ip             string
	UserAgent      string
	CreatedAt      int64
	LastActivityAt int64
}

func (q *Queries) CreateSession(ctx context.Context, arg CreateSessionParams) error {
	_, err := q.db.ExecContext(ctx, createSession,
		arg.ID,
		arg.IdentityID,
		arg.CsrfHash,
		arg.Ip,
		arg.UserAgent,
		arg.CreatedAt,
		arg.LastActivityAt,
	)
	return err
}

const getSession = `-- name: GetSession :one
SELECT id, identity_id, csrf_hash, ip, user_agent, created_at, last_activity_at
FROM sessions
WHERE id = ?
`

func (q *Queries) GetSession(ctx context.Context, id string) (Session, error) {
	var s Session
	err := q.db.QueryRowContext(ctx, getSession, id).Scan(
		&s.ID,
		&s.IdentityID,
		&s.CsrfHash,
		&s.Ip,
		&s.UserAgent,
		&s.CreatedAt,
		&s.LastActivityAt,
	)
	return s, err
}

const touchSession = `-- name: TouchSession :execrows
UPDATE sessions
SET last_activity_at = ?
WHERE id = ? AND last_activity_at > ? AND created_at > ?
`

type TouchSessionParams struct {
	Now           int64
	ID            string
	IdleCutoff    int64
	CreatedCutoff int64
}

func (q *Queries) TouchSession(ctx context.Context, arg TouchSessionParams) (int64, error) {
	return execRows(q.db.ExecContext(ctx, touchSession, arg.Now, arg.ID, arg.IdleCutoff, arg.CreatedCutoff))
}

const deleteSession = `-- name: DeleteSession :exec
DELETE FROM sessions WHERE id = ?
`

func (q *Queries) DeleteSession(ctx context.Context, id string) error {
	_, err := q.db.ExecContext(ctx, deleteSession, id)
	return err
}

const deleteIdentitySessions = `-- name: DeleteIdentitySessions :execrows
DELETE FROM sessions WHERE identity_id = ? AND id <> ?
`

type DeleteIdentitySessionsParams struct {
	IdentityID string
	KeepID     string
}

func (q *Queries) DeleteIdentitySessions(ctx context.Context, arg DeleteIdentitySessionsParams) (int64, error) {
	return execRows(q.db.ExecContext(ctx, deleteIdentitySessions, arg.IdentityID, arg.KeepID))
}

const deleteStaleSessions = `-- name: DeleteStaleSessions :execrows
DELETE FROM sessions WHERE last_activity_at <= ? OR created_at <= ?
`

type DeleteStaleSessionsParams struct {
	IdleCutoff    int64
	CreatedCutoff int64
}

func (q *Queries) DeleteStaleSessions(ctx context.Context, arg DeleteStaleSessionsParams) (int64, error) {
	return execRows(q.db.ExecContext(ctx, deleteStaleSessions, arg.IdleCutoff, arg.CreatedCutoff))
}
