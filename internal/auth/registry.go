package auth

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/hostelhub/hostelhub/internal/observability"
	"github.com/hostelhub/hostelhub/internal/platform/kv"
	"github.com/hostelhub/hostelhub/internal/rbac"
	"github.com/hostelhub/hostelhub/internal/shared"
)

// DefaultIdleTimeout is how long an unused Store stays in memory.
const DefaultIdleTimeout = 30 * time.Minute

var (
	// ErrEmptyBrowserID is returned by Acquire for a blank browser id.
	ErrEmptyBrowserID = errors.New("auth: empty browser id")
	// ErrUnknownBrowser is returned by Rotate when no Store is held for the id.
	ErrUnknownBrowser = errors.New("auth: unknown browser id")
)

// RegistryConfig wires a Registry.
type RegistryConfig struct {
	Storage     kv.Store
	Service     *Service
	Tokens      *TokenIssuer
	Store       StoreOptions
	IdleTimeout time.Duration
	Metrics     *observability.Metrics
	Logger      *slog.Logger
}

type registryEntry struct {
	store    *Store
	lastSeen time.Time
}

// Registry keeps one Store per browser. Each Store persists under its own
// "browser:<id>:" namespace so browsers never share a session.
type Registry struct {
	cfg    RegistryConfig
	logger *slog.Logger
	now    func() time.Time

	group singleflight.Group

	mu      sync.Mutex
	entries map[string]*registryEntry
}

// NewRegistry constructs a Registry.
func NewRegistry(cfg RegistryConfig) *Registry {
	if cfg.IdleTimeout <= 0 {
		cfg.IdleTimeout = DefaultIdleTimeout
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if cfg.Store.Logger == nil {
		cfg.Store.Logger = logger
	}
	return &Registry{
		cfg:     cfg,
		logger:  logger,
		now:     time.Now,
		entries: make(map[string]*registryEntry),
	}
}

// Acquire returns the Store of browserID, creating and bootstrapping it on
// first use. Concurrent first requests share one bootstrap.
func (r *Registry) Acquire(ctx context.Context, browserID string) (*Store, error) {
	if browserID == "" {
		return nil, ErrEmptyBrowserID
	}
	if store := r.lookup(browserID); store != nil {
		return store, nil
	}

	v, err, _ := r.group.Do(browserID, func() (any, error) {
		if store := r.lookup(browserID); store != nil {
			return store, nil
		}
		store := NewStore(r.namespace(browserID), r.cfg.Service, r.cfg.Tokens, r.cfg.Store)
		store.Bootstrap(context.WithoutCancel(ctx))

		r.mu.Lock()
		r.entries[browserID] = &registryEntry{store: store, lastSeen: r.now()}
		n := len(r.entries)
		r.mu.Unlock()
		r.cfg.Metrics.SetSessionStores(n)
		return store, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Store), nil
}

// Rotate moves the Store of oldID, persisted session included, to newID.
// Afterwards oldID resolves to a fresh anonymous Store, so a session
// identifier known before sign-in never carries the signed-in user.
func (r *Registry) Rotate(ctx context.Context, oldID, newID string) error {
	if oldID == "" || newID == "" {
		return ErrEmptyBrowserID
	}

	// Held across the move so no request can bootstrap oldID from the
	// namespace being emptied.
	r.mu.Lock()
	defer r.mu.Unlock()
	entry, ok := r.entries[oldID]
	if !ok {
		return ErrUnknownBrowser
	}
	if err := entry.store.relocate(ctx, r.namespace(newID)); err != nil {
		return err
	}
	delete(r.entries, oldID)
	entry.lastSeen = r.now()
	r.entries[newID] = entry
	return nil
}

// Release drops the Store of browserID from memory.
func (r *Registry) Release(browserID string) {
	r.mu.Lock()
	delete(r.entries, browserID)
	n := len(r.entries)
	r.mu.Unlock()
	r.cfg.Metrics.SetSessionStores(n)
}

func (r *Registry) namespace(browserID string) kv.Store {
	return kv.Namespace(r.cfg.Storage, "browser:"+browserID+":")
}

func (r *Registry) lookup(browserID string) *Store {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry, ok := r.entries[browserID]
	if !ok {
		return nil
	}
	entry.lastSeen = r.now()
	return entry.store
}

// Sweep evicts stores idle since before now minus the idle timeout. Stores
// with a login in flight are kept. Persisted sessions survive eviction and
// are restored on the next Acquire.
func (r *Registry) Sweep(now time.Time) int {
	start := time.Now()
	cutoff := now.Add(-r.cfg.IdleTimeout)

	r.mu.Lock()
	evicted := 0
	for id, entry := range r.entries {
		if entry.lastSeen.After(cutoff) || entry.store.State() == StateAuthenticating {
			continue
		}
		delete(r.entries, id)
		evicted++
	}
	n := len(r.entries)
	r.mu.Unlock()

	r.cfg.Metrics.SetSessionStores(n)
	r.cfg.Metrics.ObserveSweep(evicted, time.Since(start))
	if evicted > 0 {
		r.logger.Debug("auth evicted idle session stores", slog.Int("evicted", evicted), slog.Int("remaining", n))
	}
	return evicted
}

// Len reports how many stores are held in memory.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// Run sweeps on every interval tick until ctx ends.
func (r *Registry) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			r.Sweep(now)
		}
	}
}

// Middleware attaches the Store of the requesting browser to the context.
// It must run after the browser session middleware.
func (r *Registry) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		browser := shared.BrowserFromContext(req.Context())
		if browser == nil {
			http.Error(w, shared.ErrBrowserMissing.Error(), http.StatusInternalServerError)
			return
		}
		store, err := r.Acquire(req.Context(), browser.ID)
		if err != nil {
			r.logger.Error("auth acquire session store", slog.Any("error", err))
			http.Error(w, "session unavailable", http.StatusInternalServerError)
			return
		}
		next.ServeHTTP(w, req.WithContext(ContextWithStore(req.Context(), store)))
	})
}

type storeContextKey struct{}

// ContextWithStore stores the session Store in context.
func ContextWithStore(ctx context.Context, store *Store) context.Context {
	return context.WithValue(ctx, storeContextKey{}, store)
}

// StoreFromContext extracts the session Store.
func StoreFromContext(ctx context.Context) *Store {
	store, _ := ctx.Value(storeContextKey{}).(*Store)
	return store
}

// GuardStateFromRequest reports the guard view of the request's session.
// Requests without a Store are treated as anonymous.
func GuardStateFromRequest(r *http.Request) rbac.GuardState {
	store := StoreFromContext(r.Context())
	if store == nil {
		return rbac.GuardState{}
	}
	return store.GuardState()
}
