package auth

import (
	"context"
	"errors"
	"time"

	"github.com/hostelhub/hostelhub/internal/rbac"
)

// ErrUserNotFound is returned when no identity matches an email.
var ErrUserNotFound = errors.New("auth: user not found")

// Repository looks identities up by email.
type Repository interface {
	FindByEmail(ctx context.Context, email string) (*User, error)
}

// Directory is a fixed, in-memory identity list.
type Directory struct {
	users []User
}

// NewDirectory builds a Directory over users.
func NewDirectory(users ...User) *Directory {
	list := make([]User, len(users))
	copy(list, users)
	return &Directory{users: list}
}

// DemoDirectory returns the four demonstration identities, one per role.
func DemoDirectory() *Directory {
	day := func(year int, month time.Month, d int) time.Time {
		return time.Date(year, month, d, 0, 0, 0, 0, time.UTC)
	}
	return NewDirectory(
		User{
			ID:        "1",
			Email:     "superadmin@hostel.com",
			Name:      "John Doe",
			Role:      rbac.SuperAdmin,
			Avatar:    "https://images.unsplash.com/photo-1472099645785-5658abf4ff4e?w=150&h=150&fit=crop&crop=face",
			CreatedAt: day(2024, time.January, 15),
		},
		User{
			ID:        "2",
			Email:     "admin@hostel.com",
			Name:      "Jane Smith",
			Role:      rbac.HostelAdmin,
			Avatar:    "https://images.unsplash.com/photo-1494790108755-2616b72cf3cc?w=150&h=150&fit=crop&crop=face",
			CreatedAt: day(2024, time.January, 20),
		},
		User{
			ID:        "3",
			Email:     "student@hostel.com",
			Name:      "Mike Johnson",
			Role:      rbac.Student,
			Avatar:    "https://images.unsplash.com/photo-1507003211169-0a1dd7228f2d?w=150&h=150&fit=crop&crop=face",
			CreatedAt: day(2024, time.February, 1),
		},
		User{
			ID:        "4",
			Email:     "receptionist@hostel.com",
			Name:      "Sarah Wilson",
			Role:      rbac.Receptionist,
			Avatar:    "https://images.unsplash.com/photo-1438761681033-6461ffad8d80?w=150&h=150&fit=crop&crop=face",
			CreatedAt: day(2024, time.January, 25),
		},
	)
}

// FindByEmail returns a copy of the identity registered under email.
func (d *Directory) FindByEmail(_ context.Context, email string) (*User, error) {
	for i := range d.users {
		if d.users[i].Email == email {
			return d.users[i].clone(), nil
		}
	}
	return nil, ErrUserNotFound
}

// Users lists the directory in declaration order.
func (d *Directory) Users() []User {
	out := make([]User, len(d.users))
	copy(out, d.users)
	return out
}

// DemoAccount is a sign in hint shown on the login page.
type DemoAccount struct {
	Role  string
	Email string
}

// DemoAccounts lists one hint per identity, in directory order.
func (d *Directory) DemoAccounts() []DemoAccount {
	users := d.Users()
	out := make([]DemoAccount, 0, len(users))
	for _, u := range users {
		out = append(out, DemoAccount{Role: u.Role.String(), Email: u.Email})
	}
	return out
}

var _ Repository = (*Directory)(nil)
