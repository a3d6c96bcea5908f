package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/aussiebroadwan/clubhouse/internal/auth/domain"
	"github.com/aussiebroadwan/clubhouse/internal/auth/metrics"
	"github.com/aussiebroadwan/clubhouse/internal/auth/notify"
	"github.com/aussiebroadwan/clubhouse/internal/auth/store"
	"github.com/aussiebroadwan/clubhouse/pkg/cryptox"
	"github.com/aussiebroadwan/clubhouse/pkg/idx"
	"github.com/aussiebroadwan/clubhouse/pkg/slogx"
)

const DefaultInvitationTTL = 7 * 24 * time.Hour

// InvitationService issues single-use registration tokens and redeems them.
type InvitationService struct {
	Store       store.Store
	Credentials *CredentialStore
	Audit       *AuditLogger
	Sender      notify.Sender
	Metrics     *metrics.Metrics
	Permissions PermissionModel

	TTL time.Duration

	// RegistrationURL is the page that accepts the token as ?token=.
	RegistrationURL string

	Now Clock
}

func (s *InvitationService) ttl() time.Duration {
	if s.TTL <= 0 {
		return DefaultInvitationTTL
	}
	return s.TTL
}

// Create invites email with role. The raw token is returned once and only
// its fingerprint is stored.
func (s *InvitationService) Create(
	ctx context.Context,
	email string,
	role domain.Role,
	creator domain.Identity,
	client domain.ClientInfo,
) (domain.Invitation, string, error) {
	log := slogx.FromContext(ctx)
	email = domain.NormaliseEmail(email)

	// 1. Validate the request.
	if !validEmail(email) {
		log.Warn("invitation with invalid email", slog.String("creator_id", creator.ID))
		return domain.Invitation{}, "", ErrInvalidInvitationRequest
	}
	if !role.Valid() || role == domain.RoleNone {
		log.Warn("invitation with invalid role", slog.String("role", role.String()))
		return domain.Invitation{}, "", ErrInvalidInvitationRequest
	}

	// 2. The creator may only invite at or below their own rank.
	if err := s.Permissions.Authorize(creator, domain.PermManageInvitations); err != nil {
		return domain.Invitation{}, "", ErrPermissionDenied
	}
	if !creator.Role.AtLeast(role) {
		log.Warn("invitation above creator rank",
			slog.String("creator_id", creator.ID),
			slog.String("creator_role", creator.Role.String()),
			slog.String("role", role.String()),
		)
		return domain.Invitation{}, "", ErrPermissionDenied
	}

	// 3. Registered emails cannot be invited again.
	if _, err := s.Store.Identities().GetIdentityByEmail(ctx, email); err == nil {
		return domain.Invitation{}, "", ErrIdentityExists
	} else if !errors.Is(err, store.ErrNotFound) {
		return domain.Invitation{}, "", storeErr(err)
	}

	// 4. Generate the token.
	token, err := cryptox.GenerateToken(cryptox.TokenSize256)
	if err != nil {
		log.Error("failed to generate invitation token", slog.Any("error", err))
		return domain.Invitation{}, "", err
	}

	now := s.Now.now()
	inv := domain.Invitation{
		ID:        idx.NewAt(now).String(),
		Email:     email,
		TokenHash: cryptox.FingerprintToken(token),
		Role:      role,
		CreatedBy: creator.ID,
		CreatedAt: now,
		ExpiresAt: now.Add(s.ttl()),
	}

	// 5. Clear expired leftovers for the email and insert, atomically.
	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.Invitations().DeleteExpiredForEmail(ctx, email, now); err != nil {
			return fmt.Errorf("clear expired invitations: %w", err)
		}
		if err := tx.Invitations().CreateInvitation(ctx, inv); err != nil {
			if errors.Is(err, store.ErrAlreadyExists) {
				return ErrInvitationOutstanding
			}
			return fmt.Errorf("create invitation: %w", err)
		}
		e := entry(domain.AuditInvitationCreated, creator.ID, domain.TargetInvitation, inv.ID, client.IP)
		e.Detail = fmt.Sprintf("email=%s role=%s", email, role)
		return s.Audit.AppendTx(ctx, tx, e)
	})
	if err != nil {
		if !errors.Is(err, ErrInvitationOutstanding) {
			log.Error("failed to create invitation", slog.Any("error", err))
		}
		return domain.Invitation{}, "", storeErr(err)
	}
	s.Metrics.Invitation("created")

	log.Info("invitation created",
		slog.String("invitation_id", inv.ID),
		slog.String("creator_id", creator.ID),
		slog.String("role", role.String()),
		slog.Time("expires_at", inv.ExpiresAt),
	)

	// 6. Delivery problems do not undo the invitation.
	if s.Sender != nil {
		if err := s.Sender.Send(ctx, s.invitationMessage(inv, token, creator)); err != nil {
			log.Error("failed to send invitation email",
				slog.String("invitation_id", inv.ID),
				slog.Any("error", err),
			)
		}
	}

	return inv, token, nil
}

func (s *InvitationService) invitationMessage(inv domain.Invitation, token string, creator domain.Identity) notify.Message {
	link := token
	if s.RegistrationURL != "" {
		sep := "?"
		if strings.Contains(s.RegistrationURL, "?") {
			sep = "&"
		}
		link = s.RegistrationURL + sep + "token=" + url.QueryEscape(token)
	}

	inviter := creator.DisplayName()
	if inviter == "" {
		inviter = "A club member"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s has invited you to join the clubhouse as %s.\n\n", inviter, inv.Role)
	fmt.Fprintf(&b, "Register here: %s\n\n", link)
	fmt.Fprintf(&b, "This invitation expires on %s.\n", inv.ExpiresAt.Format(time.RFC1123))

	return notify.Message{
		To:      inv.Email,
		Subject: "You're invited to the clubhouse",
		Text:    b.String(),
	}
}

// Validate looks a token up without changing anything.
func (s *InvitationService) Validate(ctx context.Context, token string) (domain.Invitation, error) {
	if token == "" {
		return domain.Invitation{}, ErrInvitationNotFound
	}

	inv, err := s.Store.Invitations().GetInvitationByTokenHash(ctx, cryptox.FingerprintToken(token))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Invitation{}, ErrInvitationNotFound
		}
		return domain.Invitation{}, storeErr(err)
	}
	if err := statusErr(inv, s.Now.now()); err != nil {
		return domain.Invitation{}, err
	}
	return inv, nil
}

// Consume redeems a token and registers the identity with the invitation's
// email and role. Concurrent calls with one token yield one identity; the
// rest get ErrInvitationAlreadyAccepted.
func (s *InvitationService) Consume(
	ctx context.Context,
	token string,
	profile domain.Profile,
	password string,
	client domain.ClientInfo,
) (domain.Identity, error) {
	log := slogx.FromContext(ctx)

	// 1. Validate input.
	if token == "" {
		return domain.Identity{}, ErrInvitationNotFound
	}
	profile.FirstName = strings.TrimSpace(profile.FirstName)
	profile.LastName = strings.TrimSpace(profile.LastName)
	if !validName(profile.FirstName) || !validName(profile.LastName) {
		return domain.Identity{}, ErrInvalidProfile
	}

	// 2. Hash outside the write transaction.
	passwordHash, err := s.Credentials.Hash(password)
	if err != nil {
		return domain.Identity{}, err
	}

	tokenHash := cryptox.FingerprintToken(token)
	now := s.Now.now()

	// 3. Accept and register atomically.
	var ident domain.Identity
	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		identityID := idx.NewAt(now).String()

		inv, err := tx.Invitations().AcceptInvitation(ctx, tokenHash, identityID, now)
		if errors.Is(err, store.ErrConditionFailed) {
			return classifyUnaccepted(ctx, tx, tokenHash, now)
		}
		if err != nil {
			return fmt.Errorf("accept invitation: %w", err)
		}

		ident = domain.Identity{
			ID:           identityID,
			Email:        inv.Email,
			PasswordHash: passwordHash,
			Role:         inv.Role,
			FirstName:    profile.FirstName,
			LastName:     profile.LastName,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		if err := tx.Identities().CreateIdentity(ctx, ident); err != nil {
			if errors.Is(err, store.ErrAlreadyExists) {
				return ErrIdentityExists
			}
			return fmt.Errorf("create identity: %w", err)
		}

		e := entry(domain.AuditInvitationAccepted, ident.ID, domain.TargetInvitation, inv.ID, client.IP)
		e.Detail = fmt.Sprintf("role=%s", inv.Role)
		return s.Audit.AppendTx(ctx, tx, e)
	})
	if err != nil {
		log.Info("invitation not consumed", slog.Any("error", err))
		return domain.Identity{}, storeErr(err)
	}
	s.Metrics.Invitation("accepted")

	log.Info("identity registered via invitation",
		slog.String("identity_id", ident.ID),
		slog.String("role", ident.Role.String()),
	)
	return ident, nil
}

// classifyUnaccepted explains why a conditional accept matched no row.
func classifyUnaccepted(ctx context.Context, s store.Store, tokenHash string, now time.Time) error {
	inv, err := s.Invitations().GetInvitationByTokenHash(ctx, tokenHash)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrInvitationNotFound
		}
		return err
	}
	if err := statusErr(inv, now); err != nil {
		return err
	}
	return ErrInvitationAlreadyAccepted
}

func statusErr(inv domain.Invitation, now time.Time) error {
	switch inv.Status(now) {
	case domain.InvitationAccepted:
		return ErrInvitationAlreadyAccepted
	case domain.InvitationExpired:
		return ErrInvitationExpired
	}
	return nil
}

// Delete revokes an unaccepted invitation. Only its creator or a wildcard
// role may do so.
func (s *InvitationService) Delete(ctx context.Context, invitationID string, requester domain.Identity, client domain.ClientInfo) error {
	if err := s.Permissions.Authorize(requester, domain.PermManageInvitations); err != nil {
		return ErrPermissionDenied
	}

	err := s.Store.WithTx(ctx, func(tx store.Tx) error {
		inv, err := tx.Invitations().GetInvitationByID(ctx, invitationID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return ErrInvitationNotFound
			}
			return err
		}
		if inv.CreatedBy != requester.ID && !requester.Role.IsWildcard() {
			return ErrPermissionDenied
		}
		if inv.AcceptedAt != nil {
			return ErrInvitationAlreadyAccepted
		}
		if err := tx.Invitations().DeleteOpenInvitation(ctx, inv.ID); err != nil {
			if errors.Is(err, store.ErrConditionFailed) {
				return ErrInvitationAlreadyAccepted
			}
			return fmt.Errorf("delete invitation: %w", err)
		}
		e := entry(domain.AuditInvitationDeleted, requester.ID, domain.TargetInvitation, inv.ID, client.IP)
		e.Detail = fmt.Sprintf("email=%s", inv.Email)
		return s.Audit.AppendTx(ctx, tx, e)
	})
	if err != nil {
		return storeErr(err)
	}
	s.Metrics.Invitation("deleted")
	return nil
}

// ListPending returns open invitations the requester created, or every open
// invitation for wildcard roles.
func (s *InvitationService) ListPending(ctx context.Context, requester domain.Identity) ([]domain.Invitation, error) {
	if err := s.Permissions.Authorize(requester, domain.PermManageInvitations); err != nil {
		return nil, ErrPermissionDenied
	}

	createdBy := requester.ID
	if requester.Role.IsWildcard() {
		createdBy = ""
	}
	invs, err := s.Store.Invitations().ListOpenInvitations(ctx, createdBy, s.Now.now())
	return invs, storeErr(err)
}
