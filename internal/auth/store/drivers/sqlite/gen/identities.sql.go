package gen

import (
	"context"
	"database/sql"
)

const identityColumns = `id, email, password_hash, role, first_name, last_name, totp_secret, totp_enabled,
       totp_last_step, alumni_validated, alumni_requested_at, created_at, updated_at`

func scanIdentity(s scanner) (Identity, error) {
	var i Identity
	err := s.Scan(
		&i.ID,
		&i.Email,
		&i.PasswordHash,
		&i.Role,
		&i.FirstName,
		&i.LastName,
		&i.TotpSecret,
		&i.TotpEnabled,
		&i.TotpLastStep,
		&i.AlumniValidated,
		&i.AlumniRequestedAt,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const createIdentity = `-- name: CreateIdentity :exec
INSERT INTO identities (id, email, password_hash, role, first_name, last_name, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
`

type CreateIdentityParams struct {
	ID           string
	Email        string
	PasswordHash string
	Role         string
	FirstName    string
	LastName     string
	CreatedAt    int64
	UpdatedAt    int64
}

func (q *Queries) CreateIdentity(ctx context.Context, arg CreateIdentityParams) error {
	_, err := q.db.ExecContext(ctx, createIdentity,
		arg.ID,
		arg.Email,
		arg.PasswordHash,
		arg.Role,
		arg.FirstName,
		arg.LastName,
		arg.CreatedAt,
		arg.UpdatedAt,
	)
	return err
}

const getIdentityByID = `-- name: GetIdentityByID :one
SELECT ` + identityColumns + `
FROM identities
WHERE id = ?
`

func (q *Queries) GetIdentityByID(ctx context.Context, id string) (Identity, error) {
	return scanIdentity(q.db.QueryRowContext(ctx, getIdentityByID, id))
}

const getIdentityByEmail = `-- name: GetIdentityByEmail :one
SELECT ` + identityColumns + `
FROM identities
WHERE email = ?
`

func (q *Queries) GetIdentityByEmail(ctx context.Context, email string) (Identity, error) {
	return scanIdentity(q.db.QueryRowContext(ctx, getIdentityByEmail, email))
}

const countIdentities = `-- name: CountIdentities :one
SELECT COUNT(*) FROM identities
`

func (q *Queries) CountIdentities(ctx context.Context) (int64, error) {
	var count int64
	err := q.db.QueryRowContext(ctx, countIdentities).Scan(&count)
	return count, err
}

const updateIdentityProfile = `-- name: UpdateIdentityProfile :execrows
UPDATE identities SET first_name = ?, last_name = ?, updated_at = ? WHERE id = ?
`

type UpdateIdentityProfileParams struct {
	FirstName string
	LastName  string
	UpdatedAt int64
	ID        string
}

func (q *Queries) UpdateIdentityProfile(ctx context.Context, arg UpdateIdentityProfileParams) (int64, error) {
	return execRows(q.db.ExecContext(ctx, updateIdentityProfile, arg.FirstName, arg.LastName, arg.UpdatedAt, arg.ID))
}

const updateIdentityPasswordHash = `-- name: UpdateIdentityPasswordHash :execrows
UPDATE identities SET password_hash = ?, updated_at = ? WHERE id = ?
`

type UpdateIdentityPasswordHashParams struct {
	PasswordHash string
	UpdatedAt    int64
	ID           string
}

func (q *Queries) UpdateIdentityPasswordHash(ctx context.Context, arg UpdateIdentityPasswordHashParams) (int64, error) {
	return execRows(q.db.ExecContext(ctx, updateIdentityPasswordHash, arg.PasswordHash, arg.UpdatedAt, arg.ID))
}

const updateIdentityRole = `-- name: UpdateIdentityRole :execrows
UPDATE identities SET role = ?, updated_at = ? WHERE id = ?
`

type UpdateIdentityRoleParams struct {
	Role      string
	UpdatedAt int64
	ID        string
}

func (q *Queries) UpdateIdentityRole(ctx context.Context, arg UpdateIdentityRoleParams) (int64, error) {
	return execRows(q.db.ExecContext(ctx, updateIdentityRole, arg.Role, arg.UpdatedAt, arg.ID))
}

const enableIdentityTOTP = `-- name: EnableIdentityTOTP :execrows
UPDATE identities
SET totp_secret = ?, totp_enabled = 1, totp_last_step = 0, updated_at = ?
WHERE id = ? AND totp_enabled = 0
`

type EnableIdentityTOTPParams struct {
	TotpSecret string
	UpdatedAt  int64
	ID         string
}

func (q *Queries) EnableIdentityTOTP(ctx context.Context, arg EnableIdentityTOTPParams) (int64, error) {
	return execRows(q.db.ExecContext(ctx, enableIdentityTOTP, arg.TotpSecret, arg.UpdatedAt, arg.ID))
}

const disableIdentityTOTP = `-- name: DisableIdentityTOTP :execrows
UPDATE identities
SET totp_secret = NULL, totp_enabled = 0, totp_last_step = 0, updated_at = ?
WHERE id = ? AND totp_enabled = 1
`

type DisableIdentityTOTPParams struct {
	UpdatedAt int64
	ID        string
}

func (q *Queries) DisableIdentityTOTP(ctx context.Context, arg DisableIdentityTOTPParams) (int64, error) {
	return execRows(q.db.ExecContext(ctx, disableIdentityTOTP, arg.UpdatedAt, arg.ID))
}

const advanceIdentityTOTPStep = `-- name: AdvanceIdentityTOTPStep :execrows
UPDATE identities
SET totp_last_step = ?
WHERE id = ? AND totp_enabled = 1 AND totp_last_step < ?
`

type AdvanceIdentityTOTPStepParams struct {
	Step int64
	ID   string
}

func (q *Queries) AdvanceIdentityTOTPStep(ctx context.Context, arg AdvanceIdentityTOTPStepParams) (int64, error) {
	return execRows(q.db.ExecContext(ctx, advanceIdentityTOTPStep, arg.Step, arg.ID, arg.Step))
}

const requestIdentityAlumni = `-- name: RequestIdentityAlumni :execrows
UPDATE identities
SET alumni_requested_at = ?, updated_at = ?
WHERE id = ? AND alumni_requested_at IS NULL AND alumni_validated = 0
`

type RequestIdentityAlumniParams struct {
	RequestedAt int64
	ID          string
}

func (q *Queries) RequestIdentityAlumni(ctx context.Context, arg RequestIdentityAlumniParams) (int64, error) {
	return execRows(q.db.ExecContext(ctx, requestIdentityAlumni, arg.RequestedAt, arg.RequestedAt, arg.ID))
}

const listPendingAlumni = `-- name: ListPendingAlumni :many
SELECT ` + identityColumns + `
FROM identities
WHERE alumni_requested_at IS NOT NULL AND alumni_validated = 0
ORDER BY alumni_requested_at ASC, id ASC
`

func (q *Queries) ListPendingAlumni(ctx context.Context) ([]Identity, error) {
	rows, err := q.db.QueryContext(ctx, listPendingAlumni)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []Identity
	for rows.Next() {
		i, err := scanIdentity(rows)
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

const setIdentityAlumniValidated = `-- name: SetIdentityAlumniValidated :execrows
UPDATE identities
SET alumni_validated = ?, alumni_requested_at = NULL, updated_at = ?
WHERE id = ? AND alumni_requested_at IS NOT NULL
`

type SetIdentityAlumniValidatedParams struct {
	AlumniValidated bool
	UpdatedAt       int64
	ID              string
}

func (q *Queries) SetIdentityAlumniValidated(ctx context.Context, arg SetIdentityAlumniValidatedParams) (int64, error) {
	return execRows(q.db.ExecContext(ctx, setIdentityAlumniValidated, arg.AlumniValidated, arg.UpdatedAt, arg.ID))
}

func execRows(res sql.Result, err error) (int64, error) {
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
