package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/aussiebroadwan/clubhouse/internal/auth/domain"
	"github.com/aussiebroadwan/clubhouse/internal/auth/store"
	"github.com/aussiebroadwan/clubhouse/internal/auth/store/drivers/sqlite/gen"
)

type invitationsRepo struct {
	q *gen.Queries
}

func (r *invitationsRepo) CreateInvitation(ctx context.Context, inv domain.Invitation) error {
	return mapWriteErr(r.q.CreateInvitation(ctx, gen.CreateInvitationParams{
		ID:        inv.ID,
		Email:     domain.NormaliseEmail(inv.Email),
		TokenHash: inv.TokenHash,
		Role:      inv.Role.String(),
		CreatedBy: inv.CreatedBy,
		CreatedAt: toMillis(inv.CreatedAt),
		ExpiresAt: toMillis(inv.ExpiresAt),
	}))
}

func (r *invitationsRepo) GetInvitationByID(ctx context.Context, id string) (domain.Invitation, error) {
	row, err := r.q.GetInvitationByID(ctx, id)
	if err != nil {
		return domain.Invitation{}, mapNotFound(err)
	}
	return mapInvitation(row)
}

func (r *invitationsRepo) GetInvitationByTokenHash(ctx context.Context, hash string) (domain.Invitation, error) {
	row, err := r.q.GetInvitationByTokenHash(ctx, hash)
	if err != nil {
		return domain.Invitation{}, mapNotFound(err)
	}
	return mapInvitation(row)
}

func (r *invitationsRepo) AcceptInvitation(
	ctx context.Context,
	tokenHash, acceptedBy string,
	now time.Time,
) (domain.Invitation, error) {
	row, err := r.q.AcceptInvitation(ctx, gen.AcceptInvitationParams{
		AcceptedAt: toMillis(now),
		AcceptedBy: acceptedBy,
		TokenHash:  tokenHash,
	})
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Invitation{}, store.ErrConditionFailed
	}
	if err != nil {
		return domain.Invitation{}, err
	}
	return mapInvitation(row)
}

func (r *invitationsRepo) ListOpenInvitations(
	ctx context.Context,
	createdBy string,
	now time.Time,
) ([]domain.Invitation, error) {
	var (
		rows []gen.Invitation
		err  error
	)
	if createdBy == "" {
		rows, err = r.q.ListOpenInvitations(ctx, toMillis(now))
	} else {
		rows, err = r.q.ListOpenInvitationsByCreator(ctx, gen.ListOpenInvitationsByCreatorParams{
			Now:       toMillis(now),
			CreatedBy: createdBy,
		})
	}
	if err != nil {
		return nil, err
	}

	out := make([]domain.Invitation, 0, len(rows))
	for _, row := range rows {
		inv, err := mapInvitation(row)
		if err != nil {
			return nil, err
		}
		out = append(out, inv)
	}
	return out, nil
}

func (r *invitationsRepo) DeleteOpenInvitation(ctx context.Context, id string) error {
	n, err := r.q.DeleteOpenInvitation(ctx, id)
	return rowsOr(n, err, store.ErrConditionFailed)
}

func (r *invitationsRepo) DeleteExpiredForEmail(ctx context.Context, email string, now time.Time) error {
	return r.q.DeleteExpiredInvitationsForEmail(ctx, gen.DeleteExpiredInvitationsForEmailParams{
		Email: domain.NormaliseEmail(email),
		Now:   toMillis(now),
	})
}

func (r *invitationsRepo) DeleteExpiredBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	return r.q.DeleteInvitationsExpiredBefore(ctx, toMillis(cutoff))
}
