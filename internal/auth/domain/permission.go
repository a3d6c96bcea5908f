package domain

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

var ErrUnknownPermission = errors.New("unknown permission")

type Permission string

const (
	PermViewInventory       Permission = "view_inventory"
	PermEditInventory       Permission = "edit_inventory"
	PermManageEvents        Permission = "manage_events"
	PermPublishNews         Permission = "publish_news"
	PermManageProjects      Permission = "manage_projects"
	PermViewAlumniDirectory Permission = "view_alumni_directory"
	PermContactAlumni       Permission = "contact_alumni"
	PermManageInvitations   Permission = "manage_invitations"
	PermManageIdentities    Permission = "manage_identities"
	PermValidateAlumni      Permission = "validate_alumni"
	PermViewAuditLog        Permission = "view_audit_log"
)

var allPermissions = []Permission{
	PermViewInventory,
	PermEditInventory,
	PermManageEvents,
	PermPublishNews,
	PermManageProjects,
	PermViewAlumniDirectory,
	PermContactAlumni,
	PermManageInvitations,
	PermManageIdentities,
	PermValidateAlumni,
	PermViewAuditLog,
}

// Permissions lists every known permission.
func Permissions() []Permission { return slices.Clone(allPermissions) }

func ParsePermission(s string) (Permission, error) {
	p := Permission(strings.ToLower(strings.TrimSpace(s)))
	if slices.Contains(allPermissions, p) {
		return p, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownPermission, s)
}

func (p Permission) String() string { return string(p) }

// RequiresAlumniValidation reports the permissions an alumni only holds once
// a board member has validated them.
func (p Permission) RequiresAlumniValidation() bool {
	return p == PermViewAlumniDirectory || p == PermContactAlumni
}

var departmentLeadPerms = []Permission{
	PermViewInventory,
	PermViewAlumniDirectory,
	PermEditInventory,
	PermManageEvents,
	PermManageProjects,
	PermManageInvitations,
}

// rolePermissions is the explicit grant matrix. Wildcard roles are absent.
var rolePermissions = map[Role][]Permission{
	RoleNone:   nil,
	RoleAlumni: {PermViewAlumniDirectory, PermContactAlumni},
	RoleMember: {PermViewInventory, PermViewAlumniDirectory},

	RoleDepartmentLead: departmentLeadPerms,

	RoleBoardAlumni: {
		PermViewInventory,
		PermViewAlumniDirectory,
		PermContactAlumni,
		PermManageInvitations,
		PermValidateAlumni,
	},
	RoleBoardFinance: append(slices.Clone(departmentLeadPerms),
		PermViewAuditLog,
		PermValidateAlumni,
	),
	RoleBoardInternal: append(slices.Clone(departmentLeadPerms),
		PermPublishNews,
		PermManageIdentities,
		PermValidateAlumni,
		PermViewAuditLog,
		PermContactAlumni,
	),
	RoleBoardExternal: append(slices.Clone(departmentLeadPerms),
		PermPublishNews,
		PermContactAlumni,
		PermValidateAlumni,
	),
}

// Grants reports whether r holds p, ignoring alumni validation.
func (r Role) Grants(p Permission) bool {
	if r.IsWildcard() {
		return true
	}
	return slices.Contains(rolePermissions[r], p)
}

// Permissions returns the permissions r holds, in declaration order.
func (r Role) Permissions() []Permission {
	if r.IsWildcard() {
		return Permissions()
	}
	out := make([]Permission, 0, len(rolePermissions[r]))
	for _, p := range allPermissions {
		if slices.Contains(rolePermissions[r], p) {
			out = append(out, p)
		}
	}
	return out
}
