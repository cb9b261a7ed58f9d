package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/hostelhub/hostelhub/internal/rbac"
)

// ErrMalformedUser marks a persisted user record that fails structural checks.
var ErrMalformedUser = errors.New("auth: malformed user record")

// User is the identity record issued at login. It is never mutated after issue.
type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Role      rbac.Role `json:"role"`
	Avatar    string    `json:"avatar,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// GetRole implements rbac.Principal. A nil user has RoleUnknown.
func (u *User) GetRole() rbac.Role {
	if u == nil {
		return rbac.RoleUnknown
	}
	return u.Role
}

func (u *User) validate() error {
	switch {
	case u == nil:
		return ErrMalformedUser
	case u.ID == "":
		return fmt.Errorf("%w: missing id", ErrMalformedUser)
	case u.Email == "":
		return fmt.Errorf("%w: missing email", ErrMalformedUser)
	case !u.Role.Valid():
		return fmt.Errorf("%w: invalid role", ErrMalformedUser)
	}
	return nil
}

func (u *User) clone() *User {
	if u == nil {
		return nil
	}
	c := *u
	return &c
}
