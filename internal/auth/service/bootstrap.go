package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/aussiebroadwan/clubhouse/internal/auth/domain"
	"github.com/aussiebroadwan/clubhouse/internal/auth/store"
	"github.com/aussiebroadwan/clubhouse/pkg/idx"
	"github.com/aussiebroadwan/clubhouse/pkg/slogx"
)

var (
	ErrBootstrapAlready      = errors.New("system already bootstrapped")
	ErrBootstrapUnauthorized = errors.New("unauthorized bootstrap attempt")
)

// AdminRequest describes the first administrator.
type AdminRequest struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
}

// BootstrapService creates the first admin identity while the store is empty.
type BootstrapService struct {
	Store       store.Store
	Credentials *CredentialStore
	Audit       *AuditLogger
	Token       string // pre-configured bootstrap token; empty disables the HTTP path
	Now         Clock
}

func (s *BootstrapService) IsBootstrapped(ctx context.Context) (bool, error) {
	empty, err := s.Store.Identities().IsEmpty(ctx)
	if err != nil {
		return false, storeErr(err)
	}
	return !empty, nil
}

// Bootstrap is the token-guarded HTTP entry point.
func (s *BootstrapService) Bootstrap(ctx context.Context, token string, req AdminRequest, client domain.ClientInfo) (domain.Identity, error) {
	l := slogx.FromContext(ctx)

	if s.Token == "" || subtle.ConstantTimeCompare([]byte(token), []byte(s.Token)) != 1 {
		l.Warn("unauthorized bootstrap attempt", slog.String("ip", client.IP))
		return domain.Identity{}, ErrBootstrapUnauthorized
	}
	return s.CreateAdmin(ctx, req, client)
}

// CreateAdmin inserts the admin. The emptiness check and the insert share one
// write transaction, so only one caller can ever succeed.
func (s *BootstrapService) CreateAdmin(ctx context.Context, req AdminRequest, client domain.ClientInfo) (domain.Identity, error) {
	l := slogx.FromContext(ctx)

	email := domain.NormaliseEmail(req.Email)
	if !validEmail(email) || !validName(req.FirstName) || !validName(req.LastName) {
		return domain.Identity{}, ErrInvalidProfile
	}

	// 1. Hash password before taking the write lock.
	hash, err := s.Credentials.Hash(req.Password)
	if err != nil {
		return domain.Identity{}, err
	}

	now := s.Now.now()
	admin := domain.Identity{
		ID:           idx.NewAt(now).String(),
		Email:        email,
		PasswordHash: hash,
		Role:         domain.RoleAdmin,
		FirstName:    strings.TrimSpace(req.FirstName),
		LastName:     strings.TrimSpace(req.LastName),
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	// 2. Check and insert atomically.
	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		empty, err := tx.Identities().IsEmpty(ctx)
		if err != nil {
			return err
		}
		if !empty {
			return ErrBootstrapAlready
		}
		if err := tx.Identities().CreateIdentity(ctx, admin); err != nil {
			return fmt.Errorf("create admin: %w", err)
		}
		return s.Audit.AppendTx(ctx, tx, entry(domain.AuditBootstrapCompleted, admin.ID, domain.TargetIdentity, admin.ID, client.IP))
	})
	if err != nil {
		if errors.Is(err, ErrBootstrapAlready) {
			l.Warn("attempted bootstrap on already-bootstrapped system")
		} else {
			l.Error("failed to bootstrap admin", slog.Any("error", err))
		}
		return domain.Identity{}, storeErr(err)
	}

	l.Info("successfully bootstrapped system", slog.String("admin_id", admin.ID))
	return admin, nil
}
