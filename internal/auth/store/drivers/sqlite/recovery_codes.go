package sqlite

import (
	"context"
	"time"

	"github.com/aussiebroadwan/clubhouse/internal/auth/store/drivers/sqlite/gen"
)

type recoveryCodesRepo struct {
	q *gen.Queries
}

// ReplaceRecoveryCodes should run inside a transaction so the old set never
// coexists with a partial new one.
func (r *recoveryCodesRepo) ReplaceRecoveryCodes(
	ctx context.Context,
	identityID string,
	hashes []string,
	now time.Time,
) error {
	if err := r.q.DeleteAllRecoveryCodes(ctx, identityID); err != nil {
		return err
	}
	for _, h := range hashes {
		err := r.q.CreateRecoveryCode(ctx, gen.CreateRecoveryCodeParams{
			IdentityID: identityID,
			CodeHash:   h,
			CreatedAt:  toMillis(now),
		})
		if err != nil {
			return mapWriteErr(err)
		}
	}
	return nil
}

func (r *recoveryCodesRepo) ConsumeRecoveryCode(ctx context.Context, identityID, hash string) (bool, error) {
	n, err := r.q.DeleteRecoveryCode(ctx, gen.DeleteRecoveryCodeParams{
		IdentityID: identityID,
		CodeHash:   hash,
	})
	return n == 1, err
}

func (r *recoveryCodesRepo) DeleteAllRecoveryCodes(ctx context.Context, identityID string) error {
	return r.q.DeleteAllRecoveryCodes(ctx, identityID)
}

func (r *recoveryCodesRepo) CountRecoveryCodes(ctx context.Context, identityID string) (int64, error) {
	return r.q.CountRecoveryCodes(ctx, identityID)
}
