package sqlite

import (
	"context"
	"time"

	"github.com/aussiebroadwan/clubhouse/internal/auth/domain"
	"github.com/aussiebroadwan/clubhouse/internal/auth/store"
	"github.com/aussiebroadwan/clubhouse/internal/auth/store/drivers/sqlite/gen"
)

type identitiesRepo struct {
	q *gen.Queries
}

func (r *identitiesRepo) CreateIdentity(ctx context.Context, i domain.Identity) error {
	err := r.q.CreateIdentity(ctx, gen.CreateIdentityParams{
		ID:           i.ID,
		Email:        domain.NormaliseEmail(i.Email),
		PasswordHash: i.PasswordHash,
		Role:         i.Role.String(),
		FirstName:    i.FirstName,
		LastName:     i.LastName,
		CreatedAt:    toMillis(i.CreatedAt),
		UpdatedAt:    toMillis(i.UpdatedAt),
	})
	return mapWriteErr(err)
}

func (r *identitiesRepo) GetIdentityByID(ctx context.Context, id string) (domain.Identity, error) {
	row, err := r.q.GetIdentityByID(ctx, id)
	if err != nil {
		return domain.Identity{}, mapNotFound(err)
	}
	return mapIdentity(row)
}

func (r *identitiesRepo) GetIdentityByEmail(ctx context.Context, email string) (domain.Identity, error) {
	row, err := r.q.GetIdentityByEmail(ctx, domain.NormaliseEmail(email))
	if err != nil {
		return domain.Identity{}, mapNotFound(err)
	}
	return mapIdentity(row)
}

func (r *identitiesRepo) IsEmpty(ctx context.Context) (bool, error) {
	count, err := r.q.CountIdentities(ctx)
	if err != nil {
		return false, err
	}
	return count == 0, nil
}

func (r *identitiesRepo) UpdateProfile(ctx context.Context, id, firstName, lastName string, now time.Time) error {
	n, err := r.q.UpdateIdentityProfile(ctx, gen.UpdateIdentityProfileParams{
		FirstName: firstName,
		LastName:  lastName,
		UpdatedAt: toMillis(now),
		ID:        id,
	})
	return rowsOr(n, err, store.ErrNotFound)
}

func (r *identitiesRepo) UpdatePasswordHash(ctx context.Context, id, hash string, now time.Time) error {
	n, err := r.q.UpdateIdentityPasswordHash(ctx, gen.UpdateIdentityPasswordHashParams{
		PasswordHash: hash,
		UpdatedAt:    toMillis(now),
		ID:           id,
	})
	return rowsOr(n, err, store.ErrNotFound)
}

func (r *identitiesRepo) UpdateRole(ctx context.Context, id string, role domain.Role, now time.Time) error {
	n, err := r.q.UpdateIdentityRole(ctx, gen.UpdateIdentityRoleParams{
		Role:      role.String(),
		UpdatedAt: toMillis(now),
		ID:        id,
	})
	return rowsOr(n, err, store.ErrNotFound)
}

func (r *identitiesRepo) EnableTOTP(ctx context.Context, id, sealedSecret string, now time.Time) error {
	n, err := r.q.EnableIdentityTOTP(ctx, gen.EnableIdentityTOTPParams{
		TotpSecret: sealedSecret,
		UpdatedAt:  toMillis(now),
		ID:         id,
	})
	return rowsOr(n, err, store.ErrConditionFailed)
}

func (r *identitiesRepo) DisableTOTP(ctx context.Context, id string, now time.Time) error {
	n, err := r.q.DisableIdentityTOTP(ctx, gen.DisableIdentityTOTPParams{
		UpdatedAt: toMillis(now),
		ID:        id,
	})
	return rowsOr(n, err, store.ErrConditionFailed)
}

func (r *identitiesRepo) AdvanceTOTPStep(ctx context.Context, id string, step int64) (bool, error) {
	n, err := r.q.AdvanceIdentityTOTPStep(ctx, gen.AdvanceIdentityTOTPStepParams{
		Step: step,
		ID:   id,
	})
	return n == 1, err
}

func (r *identitiesRepo) RequestAlumni(ctx context.Context, id string, now time.Time) (bool, error) {
	n, err := r.q.RequestIdentityAlumni(ctx, gen.RequestIdentityAlumniParams{
		RequestedAt: toMillis(now),
		ID:          id,
	})
	return n == 1, err
}

func (r *identitiesRepo) ListPendingAlumni(ctx context.Context) ([]domain.Identity, error) {
	rows, err := r.q.ListPendingAlumni(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]domain.Identity, 0, len(rows))
	for _, row := range rows {
		i, err := mapIdentity(row)
		if err != nil {
			return nil, err
		}
		out = append(out, i)
	}
	return out, nil
}

func (r *identitiesRepo) SetAlumniValidated(ctx context.Context, id string, validated bool, now time.Time) error {
	n, err := r.q.SetIdentityAlumniValidated(ctx, gen.SetIdentityAlumniValidatedParams{
		AlumniValidated: validated,
		UpdatedAt:       toMillis(now),
		ID:              id,
	})
	return rowsOr(n, err, store.ErrConditionFailed)
}
