package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/aussiebroadwan/clubhouse/internal/auth/domain"
	"github.com/aussiebroadwan/clubhouse/internal/auth/store"
	"github.com/aussiebroadwan/clubhouse/pkg/cryptox"
	"github.com/aussiebroadwan/clubhouse/pkg/jwtx"
	"github.com/aussiebroadwan/clubhouse/pkg/slogx"
)

const (
	recoveryCodeCount = 10
	recoveryCodeBytes = cryptox.TokenSize128

	EnrollmentTTL = 10 * time.Minute
)

// Enrollment is a TOTP secret awaiting proof of possession. Nothing is
// stored until Confirm succeeds; Token carries the secret in the meantime.
type Enrollment struct {
	Secret          string
	ProvisioningURI string
	Token           string
	ExpiresAt       time.Time
}

type MFAService struct {
	Store   store.Store
	TOTP    *TOTPService
	Audit   *AuditLogger
	Tickets *jwtx.TicketSigner
	Now     Clock
}

// Enroll generates a secret for ident without enabling anything.
func (s *MFAService) Enroll(ctx context.Context, ident domain.Identity) (Enrollment, error) {
	if ident.TOTPEnabled {
		return Enrollment{}, ErrTOTPAlreadyEnabled
	}

	secret, err := s.TOTP.GenerateSecret()
	if err != nil {
		return Enrollment{}, err
	}
	uri, err := s.TOTP.ProvisioningURI(ident.Email, secret)
	if err != nil {
		return Enrollment{}, err
	}
	token, err := s.Tickets.Issue(jwtx.PurposeTOTPEnrollment, ident.ID, EnrollmentTTL, jwtx.WithSecret(secret))
	if err != nil {
		return Enrollment{}, err
	}

	return Enrollment{
		Secret:          secret,
		ProvisioningURI: uri,
		Token:           token,
		ExpiresAt:       s.Now.now().Add(EnrollmentTTL),
	}, nil
}

// Confirm enables TOTP once code proves possession of the enrolled secret,
// and returns freshly issued recovery codes.
func (s *MFAService) Confirm(ctx context.Context, ident domain.Identity, enrollmentToken, code string, client domain.ClientInfo) ([]string, error) {
	log := slogx.FromContext(ctx)

	claims, err := s.Tickets.Verify(enrollmentToken, jwtx.PurposeTOTPEnrollment)
	if err != nil || claims.Subject != ident.ID || claims.Secret == "" {
		log.Warn("totp enrollment token rejected",
			slog.String("identity_id", ident.ID),
			slog.Any("error", err),
		)
		return nil, ErrTOTPInvalid
	}

	step, ok := s.TOTP.Match(claims.Secret, strings.TrimSpace(code), s.Now.now())
	if !ok {
		_ = s.Audit.Append(ctx, entry(domain.AuditTOTPFailure, ident.ID, domain.TargetIdentity, ident.ID, client.IP))
		return nil, ErrTOTPInvalid
	}

	codes, hashes, err := newRecoveryCodes()
	if err != nil {
		return nil, err
	}

	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		if err := s.TOTP.enable(ctx, tx, ident.ID, claims.Secret); err != nil {
			return err
		}
		if _, err := tx.Identities().AdvanceTOTPStep(ctx, ident.ID, step); err != nil {
			return fmt.Errorf("advance totp step: %w", err)
		}
		if err := tx.RecoveryCodes().ReplaceRecoveryCodes(ctx, ident.ID, hashes, s.Now.now()); err != nil {
			return fmt.Errorf("store recovery codes: %w", err)
		}
		return s.Audit.AppendTx(ctx, tx, entry(domain.AuditTOTPEnabled, ident.ID, domain.TargetIdentity, ident.ID, client.IP))
	})
	if err != nil {
		if !errors.Is(err, ErrTOTPAlreadyEnabled) {
			log.Error("failed to enable totp", slog.String("identity_id", ident.ID), slog.Any("error", err))
		}
		return nil, storeErr(err)
	}

	log.Info("totp enabled", slog.String("identity_id", ident.ID))
	return codes, nil
}

// Disable turns TOTP off after a valid code or recovery code and drops every
// remaining recovery code.
func (s *MFAService) Disable(ctx context.Context, ident domain.Identity, code string, client domain.ClientInfo) error {
	if !ident.TOTPEnabled {
		return ErrTOTPNotEnabled
	}

	ok, err := s.VerifySecondFactor(ctx, ident, code, client)
	if err != nil {
		return err
	}
	if !ok {
		_ = s.Audit.Append(ctx, entry(domain.AuditTOTPFailure, ident.ID, domain.TargetIdentity, ident.ID, client.IP))
		return ErrTOTPInvalid
	}

	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		if err := s.TOTP.disable(ctx, tx, ident.ID); err != nil {
			return err
		}
		if err := tx.RecoveryCodes().DeleteAllRecoveryCodes(ctx, ident.ID); err != nil {
			return fmt.Errorf("delete recovery codes: %w", err)
		}
		return s.Audit.AppendTx(ctx, tx, entry(domain.AuditTOTPDisabled, ident.ID, domain.TargetIdentity, ident.ID, client.IP))
	})
	if err != nil {
		return storeErr(err)
	}

	slogx.FromContext(ctx).Info("totp disabled", slog.String("identity_id", ident.ID))
	return nil
}

// RegenerateRecoveryCodes replaces every recovery code after a valid TOTP
// code. The check, the replacement and its audit entry share one
// transaction; a wrong code is audited on its own.
func (s *MFAService) RegenerateRecoveryCodes(ctx context.Context, ident domain.Identity, code string, client domain.ClientInfo) ([]string, error) {
	if !ident.TOTPEnabled {
		return nil, ErrTOTPNotEnabled
	}

	codes, hashes, err := newRecoveryCodes()
	if err != nil {
		return nil, err
	}

	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		ok, err := s.TOTP.checkIdentityCode(ctx, tx, ident, strings.TrimSpace(code))
		if err != nil {
			return err
		}
		if !ok {
			return ErrTOTPInvalid
		}
		if err := tx.RecoveryCodes().ReplaceRecoveryCodes(ctx, ident.ID, hashes, s.Now.now()); err != nil {
			return fmt.Errorf("store recovery codes: %w", err)
		}
		return s.Audit.AppendTx(ctx, tx, entry(domain.AuditRecoveryCodesReset, ident.ID, domain.TargetIdentity, ident.ID, client.IP))
	})
	if errors.Is(err, ErrTOTPInvalid) {
		_ = s.Audit.Append(ctx, entry(domain.AuditTOTPFailure, ident.ID, domain.TargetIdentity, ident.ID, client.IP))
		return nil, ErrTOTPInvalid
	}
	if err != nil {
		return nil, storeErr(err)
	}

	slogx.FromContext(ctx).Info("recovery codes regenerated", slog.String("identity_id", ident.ID))
	return codes, nil
}

// VerifySecondFactor accepts either a 6 digit TOTP code or an unused
// recovery code. A recovery code is consumed when it matches.
func (s *MFAService) VerifySecondFactor(ctx context.Context, ident domain.Identity, code string, client domain.ClientInfo) (bool, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return false, nil
	}
	if isTOTPCode(code) {
		ok, err := s.TOTP.checkIdentityCode(ctx, s.Store, ident, code)
		return ok, storeErr(err)
	}

	hash := cryptox.FingerprintToken(code)
	var used bool
	err := s.Store.WithTx(ctx, func(tx store.Tx) error {
		var err error
		used, err = tx.RecoveryCodes().ConsumeRecoveryCode(ctx, ident.ID, hash)
		if err != nil || !used {
			return err
		}
		e := entry(domain.AuditRecoveryCodeUsed, ident.ID, domain.TargetIdentity, ident.ID, client.IP)
		if left, err := tx.RecoveryCodes().CountRecoveryCodes(ctx, ident.ID); err == nil {
			e.Detail = fmt.Sprintf("remaining=%d", left)
		}
		return s.Audit.AppendTx(ctx, tx, e)
	})
	if err != nil {
		return false, storeErr(err)
	}
	return used, nil
}

func isTOTPCode(code string) bool {
	if len(code) != int(totpDigits) {
		return false
	}
	for _, r := range code {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func newRecoveryCodes() (codes, hashes []string, err error) {
	codes = make([]string, recoveryCodeCount)
	hashes = make([]string, recoveryCodeCount)
	for i := range recoveryCodeCount {
		code, err := cryptox.GenerateToken(recoveryCodeBytes)
		if err != nil {
			return nil, nil, fmt.Errorf("generate recovery code: %w", err)
		}
		codes[i] = code
		hashes[i] = cryptox.FingerprintToken(code)
	}
	return codes, hashes, nil
}
