package gen

import (
	"context"
	"database/sql"
)

const invitationColumns = `id, email, token_hash, role, created_by, created_at, expires_at, accepted_at, accepted_by`

func scanInvitation(s scanner) (Invitation, error) {
	var i Invitation
	err := s.Scan(
		&i.ID,
		&i.Email,
		&i.TokenHash,
		&i.Role,
		&i.CreatedBy,
		&i.CreatedAt,
		&i.ExpiresAt,
		&i.AcceptedAt,
		&i.AcceptedBy,
	)
	return i, err
}

func scanInvitations(rows *sql.Rows, err error) ([]Invitation, error) {
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []Invitation
	for rows.Next() {
		i, err := scanInvitation(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const createInvitation = `-- name: CreateInvitation :exec
INSERT INTO invitations (id, email, token_hash, role, created_by, created_at, expires_at)
VALUES (?, ?, ?, ?, ?, ?, ?)
`

type CreateInvitationParams struct {
	ID        string
	Email     string
	TokenHash string
	Role      string
	CreatedBy string
	CreatedAt int64
	ExpiresAt int64
}

func (q *Queries) CreateInvitation(ctx context.Context, arg CreateInvitationParams) error {
	_, err := q.db.ExecContext(ctx, createInvitation,
		arg.ID,
		arg.Email,
		arg.TokenHash,
		arg.Role,
		arg.CreatedBy,
		arg.CreatedAt,
		arg.ExpiresAt,
	)
	return err
}

const getInvitationByID = `-- name: GetInvitationByID :one
SELECT ` + invitationColumns + ` FROM invitations WHERE id = ?
`

func (q *Queries) GetInvitationByID(ctx context.Context, id string) (Invitation, error) {
	return scanInvitation(q.db.QueryRowContext(ctx, getInvitationByID, id))
}

const getInvitationByTokenHash = `-- name: GetInvitationByTokenHash :one
SELECT ` + invitationColumns + ` FROM invitations WHERE token_hash = ?
`

func (q *Queries) GetInvitationByTokenHash(ctx context.Context, tokenHash string) (Invitation, error) {
	return scanInvitation(q.db.QueryRowContext(ctx, getInvitationByTokenHash, tokenHash))
}

const acceptInvitation = `-- name: AcceptInvitation :one
UPDATE invitations
SET accepted_at = ?, accepted_by = ?
WHERE token_hash = ? AND accepted_at IS NULL AND expires_at > ?
RETURNING ` + invitationColumns + `
`

type AcceptInvitationParams struct {
	AcceptedAt int64
	AcceptedBy string
	TokenHash  string
}

// AcceptInvitation uses AcceptedAt as the expiry reference.
func (q *Queries) AcceptInvitation(ctx context.Context, arg AcceptInvitationParams) (Invitation, error) {
	return scanInvitation(q.db.QueryRowContext(ctx, acceptInvitation,
		arg.AcceptedAt,
		arg.AcceptedBy,
		arg.TokenHash,
		arg.AcceptedAt,
	))
}

const listOpenInvitations = `-- name: ListOpenInvitations :many
SELECT ` + invitationColumns + `
FROM invitations
WHERE accepted_at IS NULL AND expires_at > ?
ORDER BY created_at DESC, id DESC
`

func (q *Queries) ListOpenInvitations(ctx context.Context, now int64) ([]Invitation, error) {
	return scanInvitations(q.db.QueryContext(ctx, listOpenInvitations, now))
}

const listOpenInvitationsByCreator = `-- name: ListOpenInvitationsByCreator :many
SELECT ` + invitationColumns + `
FROM invitations
WHERE accepted_at IS NULL AND expires_at > ? AND created_by = ?
ORDER BY created_at DESC, id DESC
`

type ListOpenInvitationsByCreatorParams struct {
	Now       int64
	CreatedBy string
}

func (q *Queries) ListOpenInvitationsByCreator(ctx context.Context, arg ListOpenInvitationsByCreatorParams) ([]Invitation, error) {
	return scanInvitations(q.db.QueryContext(ctx, listOpenInvitationsByCreator, arg.Now, arg.CreatedBy))
}

const deleteOpenInvitation = `-- name: DeleteOpenInvitation :execrows
DELETE FROM invitations WHERE id = ? AND accepted_at IS NULL
`

func (q *Queries) DeleteOpenInvitation(ctx context.Context, id string) (int64, error) {
	return execRows(q.db.ExecContext(ctx, deleteOpenInvitation, id))
}

const deleteExpiredInvitationsForEmail = `-- name: DeleteExpiredInvitationsForEmail :exec
DELETE FROM invitations WHERE email = ? AND accepted_at IS NULL AND expires_at <= ?
`

type DeleteExpiredInvitationsForEmailParams struct {
	Email string
	Now   int64
}

func (q *Queries) DeleteExpiredInvitationsForEmail(ctx context.Context, arg DeleteExpiredInvitationsForEmailParams) error {
	_, err := q.db.ExecContext(ctx, deleteExpiredInvitationsForEmail, arg.Email, arg.Now)
	return err
}

const deleteInvitationsExpiredBefore = `-- name: DeleteInvitationsExpiredBefore :execrows
DELETE FROM invitations WHERE accepted_at IS NULL AND expires_at < ?
`

func (q *Queries) DeleteInvitationsExpiredBefore(ctx context.Context, cutoff int64) (int64, error) {
	return execRows(q.db.ExecContext(ctx, deleteInvitationsExpiredBefore, cutoff))
}
