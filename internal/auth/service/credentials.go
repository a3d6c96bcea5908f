package service

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/aussiebroadwan/clubhouse/internal/auth/domain"
	"github.com/aussiebroadwan/clubhouse/internal/auth/store"
	"github.com/aussiebroadwan/clubhouse/pkg/cryptox"
	"github.com/aussiebroadwan/clubhouse/pkg/slogx"
)

var (
	dummyHashOnce sync.Once
	dummyHash     string
)

// dummyPasswordHash is verified against when the email is unknown so that
// both failure paths cost one Argon2id derivation.
func dummyPasswordHash() string {
	dummyHashOnce.Do(func() {
		h, err := cryptox.HashPassword("clubhouse-dummy-password")
		if err != nil {
			slog.Error("failed to prepare dummy password hash", slog.Any("error", err))
			return
		}
		dummyHash = h
	})
	return dummyHash
}

// CredentialStore verifies email and password pairs.
type CredentialStore struct {
	Store store.Store
}

// Verify returns the identity for a matching email and password. An unknown
// email and a wrong password both yield ErrInvalidCredentials.
func (c *CredentialStore) Verify(ctx context.Context, email, password string) (domain.Identity, error) {
	log := slogx.FromContext(ctx)

	ident, err := c.Store.Identities().GetIdentityByEmail(ctx, domain.NormaliseEmail(email))
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			log.Error("failed to look up identity", slog.Any("error", err))
			return domain.Identity{}, storeErr(err)
		}
		if h := dummyPasswordHash(); h != "" {
			_ = cryptox.VerifyPassword(password, h)
		}
		return domain.Identity{}, ErrInvalidCredentials
	}

	if err := cryptox.VerifyPassword(password, ident.PasswordHash); err != nil {
		if !errors.Is(err, cryptox.ErrPasswordMismatch) {
			log.Error("stored password hash is unreadable",
				slog.String("identity_id", ident.ID),
				slog.Any("error", err),
			)
		}
		return domain.Identity{}, ErrInvalidCredentials
	}
	return ident, nil
}

// Hash checks the password policy and returns a PHC Argon2id hash.
func (c *CredentialStore) Hash(password string) (string, error) {
	if !validPassword(password) {
		return "", ErrWeakPassword
	}
	return cryptox.HashPassword(password)
}
