package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aussiebroadwan/clubhouse/internal/auth/domain"
	"github.com/aussiebroadwan/clubhouse/internal/auth/store"
	"github.com/aussiebroadwan/clubhouse/pkg/cryptox"
	"github.com/aussiebroadwan/clubhouse/pkg/jwtx"
	"github.com/aussiebroadwan/clubhouse/pkg/slogx"
)

const (
	DefaultSessionIdleTimeout = 30 * time.Minute
	DefaultSessionMaxAge      = 12 * time.Hour

	ChallengeTTL = 5 * time.Minute
)

type LoginState int

const (
	LoginAuthenticated LoginState = iota + 1
	LoginNeedsSecondFactor
)

func (s LoginState) String() string {
	switch s {
	case LoginAuthenticated:
		return "authenticated"
	case LoginNeedsSecondFactor:
		return "needs_second_factor"
	default:
		return "anonymous"
	}
}

// LoginResult is the outcome of a successful step of the login flow.
// SessionToken and CSRFToken are set only when State is LoginAuthenticated;
// ChallengeToken only when it is LoginNeedsSecondFactor.
type LoginResult struct {
	State          LoginState
	Identity       domain.Identity
	Session        domain.Session
	SessionToken   string
	CSRFToken      string
	ChallengeToken string
}

// SessionManager runs the login state machine and owns session lifetimes.
type SessionManager struct {
	Store       store.Store
	Credentials *CredentialStore
	Limiter     *RateLimiter
	MFA         *MFAService
	CSRF        CSRFService
	Audit       *AuditLogger
	Tickets     *jwtx.TicketSigner

	IdleTimeout time.Duration
	MaxAge      time.Duration
	Now         Clock
}

func (m *SessionManager) idleTimeout() time.Duration {
	if m.IdleTimeout <= 0 {
		return DefaultSessionIdleTimeout
	}
	return m.IdleTimeout
}

func (m *SessionManager) maxAge() time.Duration {
	if m.MaxAge <= 0 {
		return DefaultSessionMaxAge
	}
	return m.MaxAge
}

// MaxLifetime is the absolute session lifetime, used for the cookie.
func (m *SessionManager) MaxLifetime() time.Duration { return m.maxAge() }

// ExpiresAt is when sess lapses unless it is used again first.
func (m *SessionManager) ExpiresAt(sess domain.Session) time.Time {
	idle := sess.LastActivityAt.Add(m.idleTimeout())
	hard := sess.CreatedAt.Add(m.maxAge())
	if hard.Before(idle) {
		return hard
	}
	return idle
}

// Submit checks a password login. When the identity has TOTP enabled and no
// code came with the request, the result asks for a second factor.
func (m *SessionManager) Submit(ctx context.Context, email, password, totpCode string, client domain.ClientInfo) (LoginResult, error) {
	log := slogx.FromContext(ctx)
	identifier := domain.NormaliseEmail(email)

	// 1. Reserve an attempt slot.
	res, dec, err := m.Limiter.Acquire(ctx, client.IP, identifier, client.UserAgent)
	if err != nil {
		return LoginResult{}, err
	}
	if !dec.Allowed {
		return LoginResult{}, m.blocked(ctx, identifier, client, dec)
	}

	// 2. Check the password.
	ident, err := m.Credentials.Verify(ctx, identifier, password)
	if err != nil {
		_ = m.Limiter.Resolve(ctx, res, domain.OutcomeFailure)
		if !errors.Is(err, ErrInvalidCredentials) {
			return LoginResult{}, err
		}
		log.Info("login failed", slog.String("identifier", identifier), slog.String("ip", client.IP))
		_ = m.Audit.Append(ctx, entry(domain.AuditLoginFailure, "", domain.TargetIdentity, identifier, client.IP))
		return LoginResult{}, ErrInvalidCredentials
	}

	if !ident.TOTPEnabled {
		return m.establish(ctx, res, ident, client)
	}

	// 3. Second factor on the same request.
	if totpCode != "" {
		ok, err := m.MFA.VerifySecondFactor(ctx, ident, totpCode, client)
		if err != nil {
			_ = m.Limiter.Resolve(ctx, res, domain.OutcomeFailure)
			return LoginResult{}, err
		}
		if !ok {
			return LoginResult{}, m.secondFactorFailed(ctx, res, ident, client)
		}
		return m.establish(ctx, res, ident, client)
	}

	// 4. Password ok, second factor outstanding.
	if err := m.Limiter.Resolve(ctx, res, domain.OutcomeChallenged); err != nil {
		return LoginResult{}, err
	}
	ticket, err := m.Tickets.Issue(jwtx.PurposeSecondFactor, ident.ID, ChallengeTTL, jwtx.WithIdentifier(identifier))
	if err != nil {
		log.Error("failed to issue challenge ticket", slog.Any("error", err))
		return LoginResult{}, err
	}

	log.Info("login needs second factor", slog.String("identity_id", ident.ID))
	return LoginResult{
		State:          LoginNeedsSecondFactor,
		Identity:       ident,
		ChallengeToken: ticket,
	}, nil
}

// CompleteSecondFactor finishes a challenged login. A wrong code leaves the
// ticket usable until it expires; an invalid or expired ticket means the
// password step must be repeated.
func (m *SessionManager) CompleteSecondFactor(ctx context.Context, ticket, code string, client domain.ClientInfo) (LoginResult, error) {
	log := slogx.FromContext(ctx)

	claims, err := m.Tickets.Verify(ticket, jwtx.PurposeSecondFactor)
	if err != nil {
		log.Info("challenge ticket rejected", slog.Bool("expired", jwtx.IsExpired(err)), slog.Any("error", err))
		return LoginResult{}, ErrTOTPRequired
	}

	res, dec, err := m.Limiter.Acquire(ctx, client.IP, claims.Identifier, client.UserAgent)
	if err != nil {
		return LoginResult{}, err
	}
	if !dec.Allowed {
		return LoginResult{}, m.blocked(ctx, claims.Identifier, client, dec)
	}

	ident, err := m.Store.Identities().GetIdentityByID(ctx, claims.Subject)
	if err != nil {
		_ = m.Limiter.Resolve(ctx, res, domain.OutcomeFailure)
		if errors.Is(err, store.ErrNotFound) {
			return LoginResult{}, ErrTOTPRequired
		}
		return LoginResult{}, storeErr(err)
	}
	if !ident.TOTPEnabled {
		// TOTP was turned off since the ticket was issued.
		_ = m.Limiter.Resolve(ctx, res, domain.OutcomeFailure)
		return LoginResult{}, ErrTOTPRequired
	}

	ok, err := m.MFA.VerifySecondFactor(ctx, ident, code, client)
	if err != nil {
		_ = m.Limiter.Resolve(ctx, res, domain.OutcomeFailure)
		return LoginResult{}, err
	}
	if !ok {
		return LoginResult{}, m.secondFactorFailed(ctx, res, ident, client)
	}
	return m.establish(ctx, res, ident, client)
}

// Authenticate resolves a session token and records activity. Sessions idle
// past the timeout or older than the maximum age are removed.
func (m *SessionManager) Authenticate(ctx context.Context, token string) (domain.Session, domain.Identity, error) {
	if token == "" {
		return domain.Session{}, domain.Identity{}, ErrSessionNotFound
	}

	id := cryptox.FingerprintToken(token)
	now := m.Now.now()

	touched, err := m.Store.Sessions().TouchSession(ctx, id, now, now.Add(-m.idleTimeout()), now.Add(-m.maxAge()))
	if err != nil {
		return domain.Session{}, domain.Identity{}, storeErr(err)
	}

	sess, err := m.Store.Sessions().GetSession(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Session{}, domain.Identity{}, ErrSessionNotFound
		}
		return domain.Session{}, domain.Identity{}, storeErr(err)
	}

	if !touched {
		m.expire(ctx, sess)
		return domain.Session{}, domain.Identity{}, ErrSessionExpired
	}

	ident, err := m.Store.Identities().GetIdentityByID(ctx, sess.IdentityID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Session{}, domain.Identity{}, ErrSessionNotFound
		}
		return domain.Session{}, domain.Identity{}, storeErr(err)
	}
	return sess, ident, nil
}

// Logout destroys the session behind token.
func (m *SessionManager) Logout(ctx context.Context, token string, client domain.ClientInfo) error {
	if token == "" {
		return ErrSessionNotFound
	}
	id := cryptox.FingerprintToken(token)

	err := m.Store.WithTx(ctx, func(tx store.Tx) error {
		sess, err := tx.Sessions().GetSession(ctx, id)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return ErrSessionNotFound
			}
			return err
		}
		if err := tx.Sessions().DeleteSession(ctx, id); err != nil {
			return fmt.Errorf("delete session: %w", err)
		}
		return m.Audit.AppendTx(ctx, tx, entry(domain.AuditLogout, sess.IdentityID, domain.TargetSession, sess.ID, client.IP))
	})
	return storeErr(err)
}

// VerifyCSRF compares the supplied token with the session's.
func (m *SessionManager) VerifyCSRF(sess domain.Session, supplied string) error {
	if !m.CSRF.Verify(sess, supplied) {
		return ErrCSRFMismatch
	}
	return nil
}

func (m *SessionManager) establish(ctx context.Context, res Reservation, ident domain.Identity, client domain.ClientInfo) (LoginResult, error) {
	log := slogx.FromContext(ctx)
	now := m.Now.now()

	token, err := cryptox.GenerateToken(cryptox.TokenSize256)
	if err != nil {
		return LoginResult{}, err
	}
	sess := domain.Session{
		ID:             cryptox.FingerprintToken(token),
		IdentityID:     ident.ID,
		IP:             client.IP,
		UserAgent:      client.UserAgent,
		CreatedAt:      now,
		LastActivityAt: now,
	}
	csrf, err := m.CSRF.Issue(&sess)
	if err != nil {
		return LoginResult{}, err
	}

	err = m.Store.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.Sessions().CreateSession(ctx, sess); err != nil {
			return fmt.Errorf("create session: %w", err)
		}
		if err := m.Limiter.resolve(ctx, tx, res, domain.OutcomeSuccess); err != nil {
			return err
		}
		return m.Audit.AppendTx(ctx, tx, entry(domain.AuditLoginSuccess, ident.ID, domain.TargetSession, sess.ID, client.IP))
	})
	if err != nil {
		log.Error("failed to establish session", slog.String("identity_id", ident.ID), slog.Any("error", err))
		_ = m.Limiter.Resolve(ctx, res, domain.OutcomeFailure)
		return LoginResult{}, storeErr(err)
	}

	log.Info("login succeeded", slog.String("identity_id", ident.ID))
	return LoginResult{
		State:        LoginAuthenticated,
		Identity:     ident,
		Session:      sess,
		SessionToken: token,
		CSRFToken:    csrf,
	}, nil
}

func (m *SessionManager) blocked(ctx context.Context, identifier string, client domain.ClientInfo, dec Decision) error {
	slogx.FromContext(ctx).Warn("login blocked by rate limiter",
		slog.String("identifier", identifier),
		slog.String("ip", client.IP),
		slog.Duration("retry_after", dec.RetryAfter),
	)
	e := entry(domain.AuditLoginBlocked, "", domain.TargetIdentity, identifier, client.IP)
	e.Detail = fmt.Sprintf("retry_after=%s", dec.RetryAfter.Round(time.Second))
	_ = m.Audit.Append(ctx, e)
	return &RateLimitedError{RetryAfter: dec.RetryAfter}
}

func (m *SessionManager) secondFactorFailed(ctx context.Context, res Reservation, ident domain.Identity, client domain.ClientInfo) error {
	_ = m.Limiter.Resolve(ctx, res, domain.OutcomeFailure)
	slogx.FromContext(ctx).Info("second factor rejected", slog.String("identity_id", ident.ID))
	_ = m.Audit.Append(ctx, entry(domain.AuditTOTPFailure, ident.ID, domain.TargetIdentity, ident.ID, client.IP))
	return ErrTOTPInvalid
}

func (m *SessionManager) expire(ctx context.Context, sess domain.Session) {
	err := m.Store.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.Sessions().DeleteSession(ctx, sess.ID); err != nil {
			return err
		}
		return m.Audit.AppendTx(ctx, tx, entry(domain.AuditSessionExpired, sess.IdentityID, domain.TargetSession, sess.ID, sess.IP))
	})
	if err != nil {
		slogx.FromContext(ctx).Error("failed to remove expired session", slog.Any("error", err))
	}
}
