package http

import (
	"time"

	"github.com/aussiebroadwan/clubhouse/internal/auth/domain"
	"github.com/aussiebroadwan/clubhouse/pkg/authsdk"
)

func identityInfo(ident domain.Identity) authsdk.IdentityInfo {
	return authsdk.IdentityInfo{
		ID:                ident.ID,
		Email:             ident.Email,
		FirstName:         ident.FirstName,
		LastName:          ident.LastName,
		Role:              ident.Role.String(),
		TOTPEnabled:       ident.TOTPEnabled,
		AlumniValidated:   ident.AlumniValidated,
		AlumniRequestedAt: ident.AlumniRequestedAt,
		CreatedAt:         ident.CreatedAt,
	}
}

func invitationInfo(inv domain.Invitation, now time.Time) authsdk.InvitationInfo {
	return authsdk.InvitationInfo{
		ID:         inv.ID,
		Email:      inv.Email,
		Role:       inv.Role.String(),
		Status:     string(inv.Status(now)),
		CreatedBy:  inv.CreatedBy,
		CreatedAt:  inv.CreatedAt,
		ExpiresAt:  inv.ExpiresAt,
		AcceptedAt: inv.AcceptedAt,
	}
}

func auditEntryInfo(e domain.AuditEntry) authsdk.AuditEntryInfo {
	info := authsdk.AuditEntryInfo{
		ID:         e.ID,
		Action:     string(e.Action),
		TargetType: e.TargetType,
		TargetID:   e.TargetID,
		Detail:     e.Detail,
		IP:         e.IP,
		CreatedAt:  e.CreatedAt,
	}
	if e.ActorID != nil {
		info.ActorID = *e.ActorID
	}
	return info
}

func permissionNames(perms []domain.Permission) []string {
	out := make([]string, len(perms))
	for i, p := range perms {
		out[i] = p.String()
	}
	return out
}
