package service

import (
	"log/slog"
	"time"

	"github.com/aussiebroadwan/clubhouse/internal/auth/metrics"
	"github.com/aussiebroadwan/clubhouse/internal/auth/notify"
	"github.com/aussiebroadwan/clubhouse/internal/auth/store"
	"github.com/aussiebroadwan/clubhouse/pkg/cryptox"
	"github.com/aussiebroadwan/clubhouse/pkg/jwtx"
)

// Options carries the collaborators and tunables shared by every service.
// Zero durations and thresholds fall back to the package defaults.
type Options struct {
	Store   store.Store
	Box     *cryptox.SecretBox
	Tickets *jwtx.TicketSigner
	Sender  notify.Sender
	Metrics *metrics.Metrics
	Logger  *slog.Logger
	Now     Clock

	Issuer          string
	BootstrapToken  string
	RegistrationURL string

	RateLimitThreshold int
	RateLimitWindow    time.Duration
	SessionIdleTimeout time.Duration
	SessionMaxAge      time.Duration
	InvitationTTL      time.Duration
}

type Services struct {
	Credentials *CredentialStore
	Limiter     *RateLimiter
	TOTP        *TOTPService
	CSRF        CSRFService
	Audit       *AuditLogger
	Permissions PermissionModel
	MFA         *MFAService
	Sessions    *SessionManager
	Invitations *InvitationService
	Alumni      *AlumniService
	Identities  *IdentityService
	Bootstrap   *BootstrapService
}

func New(opts Options) *Services {
	if opts.Sender == nil {
		opts.Sender = notify.LogSender{Logger: opts.Logger}
	}

	creds := &CredentialStore{Store: opts.Store}
	audit := NewAuditLogger(opts.Store, opts.Logger, opts.Metrics, opts.Now)
	limiter := &RateLimiter{
		Store:     opts.Store,
		Metrics:   opts.Metrics,
		Threshold: opts.RateLimitThreshold,
		Window:    opts.RateLimitWindow,
		Now:       opts.Now,
	}
	totpSvc := &TOTPService{
		Store:  opts.Store,
		Box:    opts.Box,
		Issuer: opts.Issuer,
		Now:    opts.Now,
	}
	mfa := &MFAService{
		Store:   opts.Store,
		TOTP:    totpSvc,
		Audit:   audit,
		Tickets: opts.Tickets,
		Now:     opts.Now,
	}

	return &Services{
		Credentials: creds,
		Limiter:     limiter,
		TOTP:        totpSvc,
		Audit:       audit,
		MFA:         mfa,
		Sessions: &SessionManager{
			Store:       opts.Store,
			Credentials: creds,
			Limiter:     limiter,
			MFA:         mfa,
			Audit:       audit,
			Tickets:     opts.Tickets,
			IdleTimeout: opts.SessionIdleTimeout,
			MaxAge:      opts.SessionMaxAge,
			Now:         opts.Now,
		},
		Invitations: &InvitationService{
			Store:           opts.Store,
			Credentials:     creds,
			Audit:           audit,
			Sender:          opts.Sender,
			Metrics:         opts.Metrics,
			TTL:             opts.InvitationTTL,
			RegistrationURL: opts.RegistrationURL,
			Now:             opts.Now,
		},
		Alumni: &AlumniService{
			Store: opts.Store,
			Audit: audit,
			Now:   opts.Now,
		},
		Identities: &IdentityService{
			Store:       opts.Store,
			Credentials: creds,
			Audit:       audit,
			Now:         opts.Now,
		},
		Bootstrap: &BootstrapService{
			Store:       opts.Store,
			Credentials: creds,
			Audit:       audit,
			Token:       opts.BootstrapToken,
			Now:         opts.Now,
		},
	}
}
