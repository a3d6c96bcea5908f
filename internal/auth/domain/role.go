package domain

import (
	"errors"
	"fmt"
	"strings"
)

var ErrUnknownRole = errors.New("unknown role")

// Role is a closed, totally ordered enum. The zero value is RoleNone.
type Role int

// Declaration order is rank order, lowest first.
const (
	RoleNone Role = iota
	RoleAlumni
	RoleMember
	RoleDepartmentLead
	RoleBoardAlumni
	RoleBoardFinance
	RoleBoardInternal
	RoleBoardExternal
	RoleBoard
	RoleAdmin
)

var roleNames = [...]string{
	RoleNone:           "none",
	RoleAlumni:         "alumni",
	RoleMember:         "member",
	RoleDepartmentLead: "department_lead",
	RoleBoardAlumni:    "board_alumni",
	RoleBoardFinance:   "board_finance",
	RoleBoardInternal:  "board_internal",
	RoleBoardExternal:  "board_external",
	RoleBoard:          "board",
	RoleAdmin:          "admin",
}

// Roles lists every role, lowest rank first.
func Roles() []Role {
	out := make([]Role, len(roleNames))
	for i := range roleNames {
		out[i] = Role(i)
	}
	return out
}

// ParseRole maps a stored or submitted name to a Role.
func ParseRole(s string) (Role, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for i, n := range roleNames {
		if n == name {
			return Role(i), nil
		}
	}
	return RoleNone, fmt.Errorf("%w: %q", ErrUnknownRole, s)
}

func (r Role) Valid() bool { return r >= RoleNone && r <= RoleAdmin }

func (r Role) String() string {
	if !r.Valid() {
		return fmt.Sprintf("role(%d)", int(r))
	}
	return roleNames[r]
}

func (r Role) Rank() int { return int(r) }

// IsWildcard reports roles that hold every permission.
func (r Role) IsWildcard() bool { return r == RoleBoard || r == RoleAdmin }

// IsBoardTier reports the roles allowed to validate alumni.
func (r Role) IsBoardTier() bool { return r >= RoleBoardAlumni && r.Valid() }

// CanManage reports whether r strictly outranks target.
func (r Role) CanManage(target Role) bool {
	return r.Valid() && target.Valid() && r.Rank() > target.Rank()
}

// AtLeast reports whether r ranks at or above other.
func (r Role) AtLeast(other Role) bool { return r.Rank() >= other.Rank() }
