package gen

import "context"

const createRecoveryCode = `-- name: CreateRecoveryCode :exec
INSERT INTO recovery_codes (identity_id, code_hash, created_at) VALUES (?, ?, ?)
`

type CreateRecoveryCodeParams struct {
	IdentityID string
	CodeHash   string
	CreatedAt  int64
}

func (q *Queries) CreateRecoveryCode(ctx context.Context, arg CreateRecoveryCodeParams) error {
	_, err := q.db.ExecContext(ctx, createRecoveryCode, arg.IdentityID, arg.CodeHash, arg.CreatedAt)
	return err
}

const deleteRecoveryCode = `-- name: DeleteRecoveryCode :execrows
DELETE FROM recovery_codes WHERE identity_id = ? AND code_hash = ?
`

type DeleteRecoveryCodeParams struct {
	IdentityID string
	CodeHash   string
}

func (q *Queries) DeleteRecoveryCode(ctx context.Context, arg DeleteRecoveryCodeParams) (int64, error) {
	return execRows(q.db.ExecContext(ctx, deleteRecoveryCode, arg.IdentityID, arg.CodeHash))
}

const deleteAllRecoveryCodes = `-- name: DeleteAllRecoveryCodes :exec
DELETE FROM recovery_codes WHERE identity_id = ?
`

func (q *Queries) DeleteAllRecoveryCodes(ctx context.Context, identityID string) error {
	_, err := q.db.ExecContext(ctx, deleteAllRecoveryCodes, identityID)
	return err
}

const countRecoveryCodes = `-- name: CountRecoveryCodes :one
SELECT COUNT(*) FROM recovery_codes WHERE identity_id = ?
`

func (q *Queries) CountRecoveryCodes(ctx context.Context, identityID string) (int64, error) {
	var count int64
	err := q.db.QueryRowContext(ctx, countRecoveryCodes, identityID).Scan(&count)
	return count, err
}
