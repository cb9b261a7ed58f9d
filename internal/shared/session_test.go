package shared_test

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hostelhub/hostelhub/internal/platform/kv"
	"github.com/hostelhub/hostelhub/internal/shared"
)

const testCookie = "test_browser"

func newRedisBrowsers(t *testing.T) (*shared.BrowserManager, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := kv.NewRedisStore(client, time.Hour)
	return shared.NewBrowserManager(store, testCookie, "secret", time.Hour, false), mr
}

func cookieFrom(t *testing.T, res *httptest.ResponseRecorder, name string) *http.Cookie {
	t.Helper()
	for _, c := range res.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	t.Fatalf("cookie %s not set", name)
	return nil
}

func TestBrowserRoundTrip(t *testing.T) {
	manager, mr := newRedisBrowsers(t)
	ctx := context.Background()

	first, err := manager.Load(ctx, httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	assert.False(t, mr.Exists("browser:"+first.ID+":payload"))
	first.Set("k", "v")
	first.AddFlash(shared.FlashMessage{Kind: "success", Message: "hello"})

	res := httptest.NewRecorder()
	require.NoError(t, manager.Commit(ctx, res, first))
	cookie := cookieFrom(t, res, testCookie)
	assert.Equal(t, first.ID, cookie.Value)
	assert.True(t, mr.Exists("browser:"+first.ID+":payload"))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(cookie)
	second, err := manager.Load(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, "v", second.Get("k"))

	flash := second.PopFlash()
	require.NotNil(t, flash)
	assert.Equal(t, "hello", flash.Message)
	assert.Nil(t, second.PopFlash())
}

func TestBrowserCorruptPayloadStartsFresh(t *testing.T) {
	manager, mr := newRedisBrowsers(t)
	require.NoError(t, mr.Set("browser:abc:payload", "{not json"))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: testCookie, Value: "abc"})
	b, err := manager.Load(context.Background(), req)
	require.NoError(t, err)
	assert.NotEqual(t, "abc", b.ID)
}

func TestBrowserUnknownCookieGetsFreshID(t *testing.T) {
	manager, mr := newRedisBrowsers(t)
	ctx := context.Background()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: testCookie, Value: "chosen-by-client"})
	b, err := manager.Load(ctx, req)
	require.NoError(t, err)
	assert.NotEqual(t, "chosen-by-client", b.ID)

	res := httptest.NewRecorder()
	require.NoError(t, manager.Commit(ctx, res, b))
	assert.Equal(t, b.ID, cookieFrom(t, res, testCookie).Value)
	assert.False(t, mr.Exists("browser:chosen-by-client:payload"))
}

func TestBrowserRotateMovesPayload(t *testing.T) {
	manager, mr := newRedisBrowsers(t)
	ctx := context.Background()

	b, err := manager.Load(ctx, httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	b.Set("k", "v")
	res := httptest.NewRecorder()
	require.NoError(t, manager.Commit(ctx, res, b))

	req := httptest.NewRequest(http.MethodPost, "/login", nil)
	req.AddCookie(cookieFrom(t, res, testCookie))
	loaded, err := manager.Load(ctx, req)
	require.NoError(t, err)

	previous := manager.Rotate(loaded)
	assert.Equal(t, b.ID, previous)
	assert.NotEqual(t, previous, loaded.ID)

	res = httptest.NewRecorder()
	require.NoError(t, manager.Commit(ctx, res, loaded))
	assert.Equal(t, loaded.ID, cookieFrom(t, res, testCookie).Value)
	assert.False(t, mr.Exists("browser:"+previous+":payload"))
	assert.True(t, mr.Exists("browser:"+loaded.ID+":payload"))

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(cookieFrom(t, res, testCookie))
	again, err := manager.Load(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, "v", again.Get("k"))
}

func TestBrowserMiddlewareCommitsBeforeBody(t *testing.T) {
	manager, _ := newRedisBrowsers(t)
	var seen string
	handler := manager.Middleware(slog.New(slog.DiscardHandler))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b := shared.BrowserFromContext(r.Context())
		require.NotNil(t, b)
		seen = b.ID
		_, _ = w.Write([]byte("ok"))
	}))

	res := httptest.NewRecorder()
	handler.ServeHTTP(res, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, "ok", res.Body.String())
	assert.Equal(t, seen, cookieFrom(t, res, testCookie).Value)
}

func TestBrowserDestroyClearsCookie(t *testing.T) {
	manager, mr := newRedisBrowsers(t)
	ctx := context.Background()

	b, err := manager.Load(ctx, httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	require.NoError(t, manager.Commit(ctx, httptest.NewRecorder(), b))

	manager.Destroy(b)
	res := httptest.NewRecorder()
	require.NoError(t, manager.Commit(ctx, res, b))
	assert.Equal(t, -1, cookieFrom(t, res, testCookie).MaxAge)
	assert.False(t, mr.Exists("browser:"+b.ID+":payload"))
}

func TestCSRFToken(t *testing.T) {
	manager := shared.NewBrowserManager(kv.NewMemoryStore(), "b", "secret", time.Hour, false)
	csrf := shared.NewCSRFManager("csrf-secret")

	b, err := manager.Load(context.Background(), httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)

	token, err := csrf.EnsureToken(b)
	require.NoError(t, err)
	again, err := csrf.EnsureToken(b)
	require.NoError(t, err)
	assert.Equal(t, token, again)

	assert.NoError(t, csrf.VerifyToken(b, token))
	assert.ErrorIs(t, csrf.VerifyToken(b, ""), shared.ErrCSRFTokenMissing)
	assert.ErrorIs(t, csrf.VerifyToken(b, "forged"), shared.ErrCSRFTokenMismatch)
	assert.ErrorIs(t, csrf.VerifyToken(nil, token), shared.ErrCSRFTokenMissing)

	_, err = csrf.EnsureToken(nil)
	assert.ErrorIs(t, err, shared.ErrBrowserMissing)
}
