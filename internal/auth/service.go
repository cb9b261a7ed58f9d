package auth

import (
	"context"
	"sync"

	"golang.org/x/crypto/bcrypt"

	"github.com/hostelhub/hostelhub/internal/shared"
)

// DemoPassword is the password shared by every directory identity.
const DemoPassword = "password"

var demoPasswordHash = sync.OnceValues(func() ([]byte, error) {
	return bcrypt.GenerateFromPassword([]byte(DemoPassword), bcrypt.DefaultCost)
})

// Service wraps credential checks.
type Service struct {
	repo Repository
}

// NewService constructs a new Service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Authenticate validates email/password credentials. Every mismatch is
// reported as shared.ErrInvalidCredentials.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*User, error) {
	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		return nil, shared.ErrInvalidCredentials
	}
	hash, err := demoPasswordHash()
	if err != nil {
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword(hash, []byte(password)); err != nil {
		return nil, shared.ErrInvalidCredentials
	}
	return user, nil
}
