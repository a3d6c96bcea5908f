package service

import (
	"context"
	"crypto/subtle"
	"encoding/base32"
	"errors"
	"fmt"
	"time"

	"github.com/aussiebroadwan/clubhouse/internal/auth/domain"
	"github.com/aussiebroadwan/clubhouse/internal/auth/store"
	"github.com/aussiebroadwan/clubhouse/pkg/cryptox"
	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
)

const DefaultTOTPIssuer = "Clubhouse"

const (
	totpSecretSize = 20
	totpPeriod     = 30
	totpSkewSteps  = 1
	totpDigits     = otp.DigitsSix
)

var secretEncoding = base32.StdEncoding.WithPadding(base32.NoPadding)

// TOTPService generates and checks RFC 6238 codes. Secrets are sealed with
// Box before they are written to the store.
type TOTPService struct {
	Store  store.Store
	Box    *cryptox.SecretBox
	Issuer string
	Now    Clock
}

// GenerateSecret returns a fresh base32 secret without padding.
func (t *TOTPService) GenerateSecret() (string, error) {
	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      t.issuer(),
		AccountName: "enrollment",
		Period:      totpPeriod,
		SecretSize:  totpSecretSize,
		Digits:      totpDigits,
		Algorithm:   otp.AlgorithmSHA1,
	})
	if err != nil {
		return "", fmt.Errorf("generate totp secret: %w", err)
	}
	return key.Secret(), nil
}

func (t *TOTPService) issuer() string {
	if t.Issuer == "" {
		return DefaultTOTPIssuer
	}
	return t.Issuer
}

// ProvisioningURI returns the otpauth:// URI authenticator apps scan.
func (t *TOTPService) ProvisioningURI(email, secret string) (string, error) {
	raw, err := secretEncoding.DecodeString(secret)
	if err != nil {
		return "", fmt.Errorf("decode totp secret: %w", err)
	}

	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      t.issuer(),
		AccountName: email,
		Period:      totpPeriod,
		SecretSize:  uint(len(raw)),
		Secret:      raw,
		Digits:      totpDigits,
		Algorithm:   otp.AlgorithmSHA1,
	})
	if err != nil {
		return "", fmt.Errorf("build provisioning uri: %w", err)
	}
	return key.URL(), nil
}

// VerifyCode accepts the code for now and one step either side.
func (t *TOTPService) VerifyCode(secret, code string, now time.Time) bool {
	_, ok := t.Match(secret, code, now)
	return ok
}

// Match returns the time step the code belongs to. Every candidate step is
// compared so timing does not reveal which one matched.
func (t *TOTPService) Match(secret, code string, now time.Time) (int64, bool) {
	if len(code) != int(totpDigits) {
		return 0, false
	}

	current := now.Unix() / totpPeriod
	var (
		matched int64
		ok      bool
	)
	for offset := int64(-totpSkewSteps); offset <= totpSkewSteps; offset++ {
		step := current + offset
		if step < 0 {
			continue
		}
		want, err := totp.GenerateCodeCustom(secret, time.Unix(step*totpPeriod, 0).UTC(), totp.ValidateOpts{
			Period:    totpPeriod,
			Digits:    totpDigits,
			Algorithm: otp.AlgorithmSHA1,
		})
		if err != nil {
			return 0, false
		}
		if subtle.ConstantTimeCompare([]byte(want), []byte(code)) == 1 && !ok {
			matched, ok = step, true
		}
	}
	return matched, ok
}

// Enable seals secret and sets it together with the enabled flag.
func (t *TOTPService) Enable(ctx context.Context, identityID, secret string) error {
	return storeErr(t.enable(ctx, t.Store, identityID, secret))
}

func (t *TOTPService) enable(ctx context.Context, s store.Store, identityID, secret string) error {
	sealed, err := t.Box.Seal([]byte(secret))
	if err != nil {
		return fmt.Errorf("seal totp secret: %w", err)
	}

	err = s.Identities().EnableTOTP(ctx, identityID, sealed, t.Now.now())
	switch {
	case errors.Is(err, store.ErrConditionFailed):
		return ErrTOTPAlreadyEnabled
	case errors.Is(err, store.ErrNotFound):
		return ErrIdentityNotFound
	}
	return err
}

// Disable clears the secret and the flag together.
func (t *TOTPService) Disable(ctx context.Context, identityID string) error {
	return storeErr(t.disable(ctx, t.Store, identityID))
}

func (t *TOTPService) disable(ctx context.Context, s store.Store, identityID string) error {
	err := s.Identities().DisableTOTP(ctx, identityID, t.Now.now())
	if errors.Is(err, store.ErrConditionFailed) {
		return ErrTOTPNotEnabled
	}
	return err
}

// checkIdentityCode verifies code against the identity's stored secret and
// advances the replay guard. A code whose step was already used is refused.
func (t *TOTPService) checkIdentityCode(ctx context.Context, s store.Store, ident domain.Identity, code string) (bool, error) {
	if !ident.TOTPEnabled {
		return false, ErrTOTPNotEnabled
	}

	secret, err := t.Box.Open(ident.TOTPSecret)
	if err != nil {
		return false, fmt.Errorf("open totp secret: %w", err)
	}

	step, ok := t.Match(string(secret), code, t.Now.now())
	if !ok {
		return false, nil
	}

	advanced, err := s.Identities().AdvanceTOTPStep(ctx, ident.ID, step)
	if err != nil {
		return false, storeErr(err)
	}
	return advanced, nil
}
