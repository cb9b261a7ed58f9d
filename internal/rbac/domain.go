package rbac

import (
	"errors"
	"fmt"
)

// Role is the closed set of user categories.
type Role uint8

const (
	// RoleUnknown is the zero value; it holds no permissions.
	RoleUnknown Role = iota
	SuperAdmin
	HostelAdmin
	Student
	Receptionist
)

// ErrUnknownRole is returned when parsing a role name outside the fixed set.
var ErrUnknownRole = errors.New("rbac: unknown role")

// Roles lists every assignable role in table order.
func Roles() []Role {
	return []Role{SuperAdmin, HostelAdmin, Student, Receptionist}
}

func (r Role) String() string {
	switch r {
	case SuperAdmin:
		return "SuperAdmin"
	case HostelAdmin:
		return "HostelAdmin"
	case Student:
		return "Student"
	case Receptionist:
		return "Receptionist"
	default:
		return "Unknown"
	}
}

// Description is the human summary of what the role is for.
func (r Role) Description() string {
	switch r {
	case SuperAdmin:
		return "Full system access with all administrative privileges"
	case HostelAdmin:
		return "Hostel management with student and facility oversight"
	case Student:
		return "Student access to personal information and services"
	case Receptionist:
		return "Front desk operations and visitor management"
	default:
		return ""
	}
}

// Valid reports whether r is one of the assignable roles.
func (r Role) Valid() bool {
	return r >= SuperAdmin && r <= Receptionist
}

// IsAdmin reports whether r is one of the administrative roles.
func (r Role) IsAdmin() bool {
	return r == SuperAdmin || r == HostelAdmin
}

// ParseRole converts an exact role name into a Role.
func ParseRole(name string) (Role, error) {
	for _, role := range Roles() {
		if role.String() == name {
			return role, nil
		}
	}
	return RoleUnknown, fmt.Errorf("%w: %q", ErrUnknownRole, name)
}

// MarshalText encodes the role by name.
func (r Role) MarshalText() ([]byte, error) {
	if !r.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownRole, uint8(r))
	}
	return []byte(r.String()), nil
}

// UnmarshalText decodes a role name.
func (r *Role) UnmarshalText(text []byte) error {
	role, err := ParseRole(string(text))
	if err != nil {
		return err
	}
	*r = role
	return nil
}

// Principal describes the authenticated actor.
//
// Implementations must tolerate nil receivers and report RoleUnknown for them,
// so a nil user never gains a permission.
type Principal interface {
	GetRole() Role
}

func roleOf(p Principal) Role {
	if p == nil {
		return RoleUnknown
	}
	return p.GetRole()
}
