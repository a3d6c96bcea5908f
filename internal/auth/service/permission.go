package service

import "github.com/aussiebroadwan/clubhouse/internal/auth/domain"

// PermissionModel answers access questions from the role matrix.
type PermissionModel struct{}

// Check ignores alumni validation. Use Authorize for a concrete identity.
func (PermissionModel) Check(role domain.Role, perm domain.Permission) bool {
	return role.Grants(perm)
}

// Authorize returns ErrAlumniNotValidated when an alumni asks for an
// elevated-alumni permission before being validated.
func (PermissionModel) Authorize(ident domain.Identity, perm domain.Permission) error {
	if !ident.Role.Grants(perm) {
		return ErrPermissionDenied
	}
	if ident.Role == domain.RoleAlumni && perm.RequiresAlumniValidation() && !ident.AlumniValidated {
		return ErrAlumniNotValidated
	}
	return nil
}

// CanManage is strict: the actor must outrank the target.
func (PermissionModel) CanManage(actor, target domain.Role) bool {
	return actor.CanManage(target)
}

// Effective lists the permissions Authorize would currently allow.
func (m PermissionModel) Effective(ident domain.Identity) []domain.Permission {
	perms := ident.Role.Permissions()
	out := perms[:0]
	for _, p := range perms {
		if m.Authorize(ident, p) == nil {
			out = append(out, p)
		}
	}
	return out
}
