package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/aussiebroadwan/clubhouse/internal/auth/domain"
	"github.com/aussiebroadwan/clubhouse/internal/auth/store"
	"github.com/aussiebroadwan/clubhouse/pkg/slogx"
)

// AlumniService runs the alumni validation workflow: an identity asks to be
// validated and a board-tier member approves or rejects the request.
type AlumniService struct {
	Store store.Store
	Audit *AuditLogger
	Now   Clock
}

// RequestStatus marks the identity as waiting for validation. Repeating the
// request, or requesting once validated, changes nothing.
func (s *AlumniService) RequestStatus(ctx context.Context, ident domain.Identity, client domain.ClientInfo) error {
	var created bool
	err := s.Store.WithTx(ctx, func(tx store.Tx) error {
		var err error
		created, err = tx.Identities().RequestAlumni(ctx, ident.ID, s.Now.now())
		if err != nil || !created {
			return err
		}
		return s.Audit.AppendTx(ctx, tx, entry(domain.AuditAlumniRequested, ident.ID, domain.TargetIdentity, ident.ID, client.IP))
	})
	if err != nil {
		return storeErr(err)
	}

	if created {
		slogx.FromContext(ctx).Info("alumni validation requested", slog.String("identity_id", ident.ID))
	}
	return nil
}

// ListPending returns identities with an unanswered request.
func (s *AlumniService) ListPending(ctx context.Context) ([]domain.Identity, error) {
	idents, err := s.Store.Identities().ListPendingAlumni(ctx)
	return idents, storeErr(err)
}

// Validate records the validator's decision on the target's pending request.
// Only one decision is recorded per request.
func (s *AlumniService) Validate(
	ctx context.Context,
	validator domain.Identity,
	targetID string,
	approve bool,
	client domain.ClientInfo,
) error {
	log := slogx.FromContext(ctx)

	if !validator.Role.IsBoardTier() {
		log.Warn("alumni validation by non-board identity",
			slog.String("validator_id", validator.ID),
			slog.String("role", validator.Role.String()),
		)
		return ErrPermissionDenied
	}
	if validator.ID == targetID {
		return ErrPermissionDenied
	}

	action := domain.AuditAlumniRejected
	if approve {
		action = domain.AuditAlumniValidated
	}

	err := s.Store.WithTx(ctx, func(tx store.Tx) error {
		err := tx.Identities().SetAlumniValidated(ctx, targetID, approve, s.Now.now())
		if errors.Is(err, store.ErrConditionFailed) {
			if _, err := tx.Identities().GetIdentityByID(ctx, targetID); errors.Is(err, store.ErrNotFound) {
				return ErrIdentityNotFound
			} else if err != nil {
				return fmt.Errorf("get identity: %w", err)
			}
			return ErrAlumniNotRequested
		}
		if err != nil {
			return fmt.Errorf("set alumni validated: %w", err)
		}
		return s.Audit.AppendTx(ctx, tx, entry(action, validator.ID, domain.TargetIdentity, targetID, client.IP))
	})
	if err != nil {
		return storeErr(err)
	}

	log.Info("alumni request decided",
		slog.String("validator_id", validator.ID),
		slog.String("target_id", targetID),
		slog.Bool("approved", approve),
	)
	return nil
}
