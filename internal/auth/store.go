package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/hostelhub/hostelhub/internal/platform/kv"
	"github.com/hostelhub/hostelhub/internal/rbac"
	"github.com/hostelhub/hostelhub/internal/shared"
)

// Storage keys of the persisted session.
const (
	UserKey  = "hostel_user"
	TokenKey = "hostel_token"
)

// DefaultLatency is the simulated round trip of a credential check.
const DefaultLatency = time.Second

// ErrLoginSuperseded is returned by a login that was still in flight when
// the session was logged out. Its result is discarded.
var ErrLoginSuperseded = errors.New("auth: login superseded by logout")

// State is the lifecycle position of a Store.
type State uint8

const (
	StateInitializing State = iota
	StateAnonymous
	StateAuthenticating
	StateAuthenticated
)

func (s State) String() string {
	switch s {
	case StateInitializing:
		return "initializing"
	case StateAnonymous:
		return "anonymous"
	case StateAuthenticating:
		return "authenticating"
	case StateAuthenticated:
		return "authenticated"
	default:
		return "unknown"
	}
}

// Snapshot is a consistent view of a Store.
type Snapshot struct {
	User      *User
	IsLoading bool
}

// StoreOptions tunes a Store.
type StoreOptions struct {
	// Latency delays every login to mimic a remote credential check.
	Latency time.Duration
	// EnforceExpiry rejects persisted tokens past their expiry on restore.
	// Off by default: restored sessions ignore token expiry.
	EnforceExpiry bool
	Now           func() time.Time
	Logger        *slog.Logger
}

// Store is the single source of truth for who is using one browser.
//
// Logins may overlap; the last one to finish decides the current user.
// Logout bumps an epoch so a login still in flight cannot bring the session
// back. Storage writes are serialised by writeMu.
type Store struct {
	storage kv.Store
	service *Service
	tokens  *TokenIssuer
	opts    StoreOptions
	logger  *slog.Logger

	writeMu sync.Mutex

	mu            sync.Mutex
	user          *User
	bootstrapping bool
	inflight      int
	epoch         uint64
}

// NewStore returns a Store in the initializing state. Call Bootstrap to
// resolve it.
func NewStore(storage kv.Store, service *Service, tokens *TokenIssuer, opts StoreOptions) *Store {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Store{
		storage:       storage,
		service:       service,
		tokens:        tokens,
		opts:          opts,
		logger:        logger,
		bootstrapping: true,
	}
}

// Bootstrap restores a persisted session. Missing, unreadable or malformed
// data leaves the store anonymous; it never fails.
func (s *Store) Bootstrap(ctx context.Context) {
	s.mu.Lock()
	s.bootstrapping = true
	s.mu.Unlock()

	s.writeMu.Lock()
	user := s.restore(ctx)
	s.writeMu.Unlock()

	s.mu.Lock()
	s.user = user
	s.bootstrapping = false
	s.mu.Unlock()
}

func (s *Store) restore(ctx context.Context) *User {
	rawUser, ok := s.read(ctx, UserKey)
	if !ok {
		return nil
	}
	rawToken, ok := s.read(ctx, TokenKey)
	if !ok {
		return nil
	}

	var user User
	if err := json.Unmarshal([]byte(rawUser), &user); err != nil {
		s.logger.Warn("auth discard persisted user", slog.Any("error", err))
		return nil
	}
	if err := user.validate(); err != nil {
		s.logger.Warn("auth discard persisted user", slog.Any("error", err))
		return nil
	}
	claims, err := DecodeToken(rawToken)
	if err != nil {
		s.logger.Warn("auth discard persisted token", slog.Any("error", err))
		return nil
	}
	if s.opts.EnforceExpiry && claims.Expired(s.opts.Now()) {
		s.logger.Info("auth persisted token expired", slog.String("user_id", user.ID))
		return nil
	}
	return &user
}

func (s *Store) read(ctx context.Context, key string) (string, bool) {
	value, err := s.storage.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, kv.ErrNotFound) {
			s.logger.Warn("auth read persisted session", slog.String("key", key), slog.Any("error", err))
		}
		return "", false
	}
	return value, value != ""
}

// Login checks credentials after the configured latency. Wrong credentials
// yield (false, nil). An error is returned only when ctx ends, the session
// was logged out meanwhile, or the session could not be persisted.
func (s *Store) Login(ctx context.Context, email, password string) (bool, error) {
	s.mu.Lock()
	s.inflight++
	epoch := s.epoch
	s.mu.Unlock()
	defer s.finishLogin(epoch)

	if err := s.wait(ctx); err != nil {
		return false, err
	}

	user, err := s.service.Authenticate(ctx, email, password)
	if err != nil {
		if errors.Is(err, shared.ErrInvalidCredentials) {
			return false, nil
		}
		return false, err
	}
	token, err := s.tokens.Issue(user)
	if err != nil {
		return false, err
	}
	encoded, err := json.Marshal(user)
	if err != nil {
		return false, fmt.Errorf("auth: encode user: %w", err)
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if s.currentEpoch() != epoch {
		return false, ErrLoginSuperseded
	}
	if err := s.storage.Set(ctx, UserKey, string(encoded)); err != nil {
		return false, fmt.Errorf("auth: persist user: %w", err)
	}
	if err := s.storage.Set(ctx, TokenKey, token); err != nil {
		_ = s.storage.Delete(ctx, UserKey)
		return false, fmt.Errorf("auth: persist token: %w", err)
	}

	s.mu.Lock()
	s.user = user
	s.mu.Unlock()
	return true, nil
}

func (s *Store) finishLogin(epoch uint64) {
	s.mu.Lock()
	if s.epoch == epoch && s.inflight > 0 {
		s.inflight--
	}
	s.mu.Unlock()
}

func (s *Store) wait(ctx context.Context) error {
	if s.opts.Latency <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(s.opts.Latency)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Logout forgets the current user and removes the persisted session.
// Calling it repeatedly is harmless.
func (s *Store) Logout(ctx context.Context) {
	s.mu.Lock()
	s.epoch++
	s.inflight = 0
	s.mu.Unlock()

	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	if err := s.storage.Delete(ctx, UserKey, TokenKey); err != nil {
		s.logger.Warn("auth clear persisted session", slog.Any("error", err))
	}

	s.mu.Lock()
	s.user = nil
	s.mu.Unlock()
}

// relocate copies the persisted session to target, clears it at the old
// location and makes target the store's storage.
func (s *Store) relocate(ctx context.Context, target kv.Store) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	for _, key := range []string{UserKey, TokenKey} {
		value, err := s.storage.Get(ctx, key)
		if errors.Is(err, kv.ErrNotFound) {
			continue
		}
		if err != nil {
			return fmt.Errorf("auth: relocate %s: %w", key, err)
		}
		if err := target.Set(ctx, key, value); err != nil {
			return fmt.Errorf("auth: relocate %s: %w", key, err)
		}
	}
	if err := s.storage.Delete(ctx, UserKey, TokenKey); err != nil {
		s.logger.Warn("auth clear relocated session", slog.Any("error", err))
	}
	s.storage = target
	return nil
}

func (s *Store) currentEpoch() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.epoch
}

// Snapshot returns the current user and loading flag together.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{User: s.user.clone(), IsLoading: s.bootstrapping || s.inflight > 0}
}

// User returns the current user or nil.
func (s *Store) User() *User {
	return s.Snapshot().User
}

// State reports the lifecycle position of the store.
func (s *Store) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch {
	case s.bootstrapping:
		return StateInitializing
	case s.inflight > 0:
		return StateAuthenticating
	case s.user != nil:
		return StateAuthenticated
	default:
		return StateAnonymous
	}
}

// GuardState adapts the snapshot for route decisions.
func (s *Store) GuardState() rbac.GuardState {
	snap := s.Snapshot()
	state := rbac.GuardState{Loading: snap.IsLoading}
	if snap.User != nil {
		state.Principal = snap.User
	}
	return state
}
