package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/aussiebroadwan/clubhouse/internal/auth/domain"
	"github.com/aussiebroadwan/clubhouse/internal/auth/store"
	"github.com/aussiebroadwan/clubhouse/pkg/cryptox"
	"github.com/aussiebroadwan/clubhouse/pkg/slogx"
)

// IdentityService manages existing identities: roles, profile and password.
type IdentityService struct {
	Store       store.Store
	Credentials *CredentialStore
	Audit       *AuditLogger
	Permissions PermissionModel
	Now         Clock
}

func (s *IdentityService) Get(ctx context.Context, id string) (domain.Identity, error) {
	ident, err := s.Store.Identities().GetIdentityByID(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return domain.Identity{}, ErrIdentityNotFound
	}
	return ident, storeErr(err)
}

// SetRole changes the target's role. The actor must strictly outrank both
// the target's current role and the new one.
func (s *IdentityService) SetRole(
	ctx context.Context,
	actor domain.Identity,
	targetID string,
	role domain.Role,
	client domain.ClientInfo,
) (domain.Identity, error) {
	log := slogx.FromContext(ctx)

	if err := s.Permissions.Authorize(actor, domain.PermManageIdentities); err != nil {
		return domain.Identity{}, ErrPermissionDenied
	}
	if !role.Valid() {
		return domain.Identity{}, ErrInvalidRole
	}
	if actor.ID == targetID {
		return domain.Identity{}, ErrPermissionDenied
	}

	var updated domain.Identity
	err := s.Store.WithTx(ctx, func(tx store.Tx) error {
		target, err := tx.Identities().GetIdentityByID(ctx, targetID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return ErrIdentityNotFound
			}
			return err
		}
		if !s.Permissions.CanManage(actor.Role, target.Role) || !s.Permissions.CanManage(actor.Role, role) {
			log.Warn("role change above actor rank",
				slog.String("actor_id", actor.ID),
				slog.String("target_id", targetID),
				slog.String("from", target.Role.String()),
				slog.String("to", role.String()),
			)
			return ErrPermissionDenied
		}

		updated, err = s.changeRole(ctx, tx, target, role, actor.ID, client.IP)
		return err
	})
	if err != nil {
		return domain.Identity{}, storeErr(err)
	}
	return updated, nil
}

// AssignRole is the operator path used by authctl. It skips rank checks and
// records no actor.
func (s *IdentityService) AssignRole(ctx context.Context, email string, role domain.Role) (domain.Identity, error) {
	if !role.Valid() {
		return domain.Identity{}, ErrInvalidRole
	}

	var updated domain.Identity
	err := s.Store.WithTx(ctx, func(tx store.Tx) error {
		target, err := tx.Identities().GetIdentityByEmail(ctx, domain.NormaliseEmail(email))
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return ErrIdentityNotFound
			}
			return err
		}
		updated, err = s.changeRole(ctx, tx, target, role, "", "")
		return err
	})
	if err != nil {
		return domain.Identity{}, storeErr(err)
	}
	return updated, nil
}

func (s *IdentityService) changeRole(ctx context.Context, tx store.Tx, target domain.Identity, role domain.Role, actorID, ip string) (domain.Identity, error) {
	now := s.Now.now()
	if err := tx.Identities().UpdateRole(ctx, target.ID, role, now); err != nil {
		return domain.Identity{}, fmt.Errorf("update role: %w", err)
	}

	e := entry(domain.AuditRoleChanged, actorID, domain.TargetIdentity, target.ID, ip)
	e.Detail = fmt.Sprintf("from=%s to=%s", target.Role, role)
	if err := s.Audit.AppendTx(ctx, tx, e); err != nil {
		return domain.Identity{}, err
	}

	slogx.FromContext(ctx).Info("role changed",
		slog.String("identity_id", target.ID),
		slog.String("from", target.Role.String()),
		slog.String("to", role.String()),
	)

	target.Role = role
	target.UpdatedAt = now
	return target, nil
}

func (s *IdentityService) UpdateProfile(ctx context.Context, ident domain.Identity, profile domain.Profile, client domain.ClientInfo) (domain.Identity, error) {
	first := strings.TrimSpace(profile.FirstName)
	last := strings.TrimSpace(profile.LastName)
	if !validName(first) || !validName(last) {
		return domain.Identity{}, ErrInvalidProfile
	}

	now := s.Now.now()
	err := s.Store.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.Identities().UpdateProfile(ctx, ident.ID, first, last, now); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return ErrIdentityNotFound
			}
			return fmt.Errorf("update profile: %w", err)
		}
		return s.Audit.AppendTx(ctx, tx, entry(domain.AuditProfileUpdated, ident.ID, domain.TargetIdentity, ident.ID, client.IP))
	})
	if err != nil {
		return domain.Identity{}, storeErr(err)
	}

	ident.FirstName = first
	ident.LastName = last
	ident.UpdatedAt = now
	return ident, nil
}

// ChangePassword replaces the password after checking the current one and
// signs out every other session of the identity.
func (s *IdentityService) ChangePassword(
	ctx context.Context,
	ident domain.Identity,
	currentSessionID string,
	current, next string,
	client domain.ClientInfo,
) error {
	log := slogx.FromContext(ctx)

	if err := cryptox.VerifyPassword(current, ident.PasswordHash); err != nil {
		_ = s.Audit.Append(ctx, entry(domain.AuditLoginFailure, ident.ID, domain.TargetIdentity, ident.ID, client.IP))
		return ErrInvalidCredentials
	}
	hash, err := s.Credentials.Hash(next)
	if err != nil {
		return err
	}

	var revoked int64
	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.Identities().UpdatePasswordHash(ctx, ident.ID, hash, s.Now.now()); err != nil {
			return fmt.Errorf("update password: %w", err)
		}
		n, err := tx.Sessions().DeleteIdentitySessions(ctx, ident.ID, currentSessionID)
		if err != nil {
			return fmt.Errorf("revoke sessions: %w", err)
		}
		revoked = n

		e := entry(domain.AuditPasswordChanged, ident.ID, domain.TargetIdentity, ident.ID, client.IP)
		e.Detail = fmt.Sprintf("sessions_revoked=%d", n)
		return s.Audit.AppendTx(ctx, tx, e)
	})
	if err != nil {
		log.Error("failed to change password", slog.String("identity_id", ident.ID), slog.Any("error", err))
		return storeErr(err)
	}

	log.Info("password changed",
		slog.String("identity_id", ident.ID),
		slog.Int64("sessions_revoked", revoked),
	)
	return nil
}
