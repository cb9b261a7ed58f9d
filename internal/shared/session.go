package shared

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/hostelhub/hostelhub/internal/platform/kv"
)

// FlashMessage represents a one-time notification stored in the browser session.
type FlashMessage struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// BrowserManager issues the cookie that identifies a browser and keeps its
// small per-browser payload (CSRF token, flashes) in a kv.Store.
type BrowserManager struct {
	store      kv.Store
	cookieName string
	ttl        time.Duration
	secure     bool
	secret     []byte
}

// Browser holds per-request browser session data.
type Browser struct {
	ID        string
	values    map[string]string
	flashes   []FlashMessage
	isNew     bool
	dirty     bool
	destroyed bool
	// replaced is the id given up by Rotate; its payload is dropped on commit.
	replaced  string
}

type browserPayload struct {
	Values  map[string]string `json:"values"`
	Flashes []FlashMessage    `json:"flashes"`
}

// NewBrowserManager constructs a BrowserManager.
func NewBrowserManager(store kv.Store, cookieName string, secret string, ttl time.Duration, secure bool) *BrowserManager {
	return &BrowserManager{
		store:      store,
		cookieName: cookieName,
		ttl:        ttl,
		secure:     secure,
		secret:     []byte(secret),
	}
}

// Load returns the browser session named by the request cookie, or a new one.
// A cookie naming an unknown or corrupt payload gets a fresh id: the server
// never adopts an id it did not issue.
func (bm *BrowserManager) Load(ctx context.Context, r *http.Request) (*Browser, error) {
	cookie, err := r.Cookie(bm.cookieName)
	if err != nil {
		if errors.Is(err, http.ErrNoCookie) {
			return bm.newBrowser(), nil
		}
		return nil, err
	}
	if cookie.Value == "" {
		return bm.newBrowser(), nil
	}

	raw, err := bm.store.Get(ctx, bm.payloadKey(cookie.Value))
	if err != nil {
		if errors.Is(err, kv.ErrNotFound) {
			return bm.newBrowser(), nil
		}
		return nil, fmt.Errorf("shared: load browser session: %w", err)
	}

	var stored browserPayload
	if err := json.Unmarshal([]byte(raw), &stored); err != nil {
		return bm.newBrowser(), nil
	}

	b := bm.newBrowser()
	b.ID = cookie.Value
	if stored.Values != nil {
		b.values = stored.Values
	}
	b.flashes = stored.Flashes
	b.isNew = false
	b.dirty = false
	return b, nil
}

// Commit persists the payload when changed and refreshes the cookie.
func (bm *BrowserManager) Commit(ctx context.Context, w http.ResponseWriter, b *Browser) error {
	if b == nil {
		return nil
	}

	if b.destroyed {
		if err := bm.store.Delete(ctx, bm.payloadKey(b.ID)); err != nil {
			return err
		}
		http.SetCookie(w, &http.Cookie{
			Name:     bm.cookieName,
			Value:    "",
			Path:     "/",
			MaxAge:   -1,
			HttpOnly: true,
			Secure:   bm.secure,
			SameSite: http.SameSiteLaxMode,
		})
		return nil
	}

	if b.ID == "" {
		b.ID = bm.generateID()
	}
	if b.replaced != "" {
		if err := bm.store.Delete(ctx, bm.payloadKey(b.replaced)); err != nil {
			return err
		}
		b.replaced = ""
	}

	if b.dirty || b.isNew {
		data, err := json.Marshal(browserPayload{Values: b.values, Flashes: b.flashes})
		if err != nil {
			return err
		}
		if err := bm.store.Set(ctx, bm.payloadKey(b.ID), string(data)); err != nil {
			return err
		}
		b.dirty = false
		b.isNew = false
	}

	http.SetCookie(w, &http.Cookie{
		Name:     bm.cookieName,
		Value:    b.ID,
		Path:     "/",
		HttpOnly: true,
		Secure:   bm.secure,
		SameSite: http.SameSiteLaxMode,
		Expires:  time.Now().Add(bm.ttl),
	})
	return nil
}

// Destroy marks the browser session for deletion on commit.
func (bm *BrowserManager) Destroy(b *Browser) {
	if b == nil {
		return
	}
	b.destroyed = true
}

// Rotate gives the browser a fresh id and returns the one it replaced. The
// payload moves to the new id on commit.
func (bm *BrowserManager) Rotate(b *Browser) string {
	previous := b.ID
	if b.replaced == "" && !b.isNew {
		b.replaced = previous
	}
	b.ID = bm.generateID()
	b.dirty = true
	return previous
}

// Middleware loads the browser into the request context and commits it
// before the first byte of the response, or after the handler if it wrote
// nothing.
func (bm *BrowserManager) Middleware(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			browser, err := bm.Load(ctx, r)
			if err != nil {
				logger.Error("failed to load browser session", slog.Any("error", err))
				http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
				return
			}
			ctx = ContextWithBrowser(ctx, browser)

			wrapped := &committingWriter{
				ResponseWriter: w,
				browser:        browser,
				manager:        bm,
				logger:         logger,
				ctx:            ctx,
			}
			next.ServeHTTP(wrapped, r.WithContext(ctx))
			wrapped.commit()
		})
	}
}

type committingWriter struct {
	http.ResponseWriter
	browser       *Browser
	manager       *BrowserManager
	logger        *slog.Logger
	ctx           context.Context
	headerWritten bool
}

func (w *committingWriter) commit() {
	if w.headerWritten {
		return
	}
	w.headerWritten = true
	if err := w.manager.Commit(w.ctx, w.ResponseWriter, w.browser); err != nil {
		w.logger.Warn("commit browser session", slog.Any("error", err))
	}
}

func (w *committingWriter) WriteHeader(statusCode int) {
	w.commit()
	w.ResponseWriter.WriteHeader(statusCode)
}

func (w *committingWriter) Write(data []byte) (int, error) {
	if !w.headerWritten {
		w.WriteHeader(http.StatusOK)
	}
	return w.ResponseWriter.Write(data)
}

// Set stores a key-value pair.
func (b *Browser) Set(key, value string) {
	if b.values == nil {
		b.values = make(map[string]string)
	}
	b.values[key] = value
	b.dirty = true
}

// Get retrieves a value.
func (b *Browser) Get(key string) string {
	if b.values == nil {
		return ""
	}
	return b.values[key]
}

// AddFlash queues a flash message for the next rendered page.
func (b *Browser) AddFlash(msg FlashMessage) {
	b.flashes = append(b.flashes, msg)
	b.dirty = true
}

// PopFlash retrieves and clears the oldest flash message.
func (b *Browser) PopFlash() *FlashMessage {
	if b == nil || len(b.flashes) == 0 {
		return nil
	}
	msg := b.flashes[0]
	b.flashes = b.flashes[1:]
	b.dirty = true
	return &msg
}

func (bm *BrowserManager) newBrowser() *Browser {
	return &Browser{
		ID:     bm.generateID(),
		values: make(map[string]string),
		isNew:  true,
		dirty:  true,
	}
}

func (bm *BrowserManager) payloadKey(id string) string {
	return "browser:" + id + ":payload"
}

func (bm *BrowserManager) generateID() string {
	if id, err := uuid.NewRandom(); err == nil {
		return id.String()
	}
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return base64.RawURLEncoding.EncodeToString([]byte(time.Now().Format(time.RFC3339Nano)))
	}
	if len(bm.secret) > 0 {
		for i := range b {
			b[i] ^= bm.secret[i%len(bm.secret)]
		}
	}
	return base64.RawURLEncoding.EncodeToString(b)
}
