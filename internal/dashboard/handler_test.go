package dashboard_test

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hostelhub/hostelhub/internal/auth"
	"github.com/hostelhub/hostelhub/internal/dashboard"
	"github.com/hostelhub/hostelhub/internal/observability"
	"github.com/hostelhub/hostelhub/internal/platform/kv"
	"github.com/hostelhub/hostelhub/internal/rbac"
	"github.com/hostelhub/hostelhub/internal/shared"
	"github.com/hostelhub/hostelhub/internal/view"
	_ "github.com/hostelhub/hostelhub/testing"
)

const browserHeader = "X-Test-Browser"

type fixture struct {
	router   http.Handler
	registry *auth.Registry
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	templates, err := view.NewEngine()
	require.NoError(t, err)
	logger := slog.New(slog.DiscardHandler)

	registry := auth.NewRegistry(auth.RegistryConfig{
		Storage: kv.NewMemoryStore(),
		Service: auth.NewService(auth.DemoDirectory()),
		Tokens:  auth.NewTokenIssuer("secret", 0),
	})
	guard := rbac.Middleware{
		State:     auth.GuardStateFromRequest,
		Templates: templates,
		Logger:    logger,
		Metrics:   observability.NewMetrics(),
	}
	handler := dashboard.NewHandler(logger, templates, shared.NewCSRFManager("csrf"), guard)

	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			browser := &shared.Browser{ID: req.Header.Get(browserHeader)}
			next.ServeHTTP(w, req.WithContext(shared.ContextWithBrowser(req.Context(), browser)))
		})
	})
	r.Use(registry.Middleware)
	handler.MountRoutes(r)
	return &fixture{router: r, registry: registry}
}

func (f *fixture) login(t *testing.T, browser, email string) {
	t.Helper()
	store, err := f.registry.Acquire(context.Background(), browser)
	require.NoError(t, err)
	ok, err := store.Login(context.Background(), email, auth.DemoPassword)
	require.NoError(t, err)
	require.True(t, ok)
}

func (f *fixture) get(browser, target string, headers ...string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	req.Header.Set(browserHeader, browser)
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	res := httptest.NewRecorder()
	f.router.ServeHTTP(res, req)
	return res
}

func TestAnonymousIsSentToLogin(t *testing.T) {
	f := newFixture(t)

	res := f.get("anon", "/rooms")
	assert.Equal(t, http.StatusSeeOther, res.Code)
	assert.Equal(t, "/login?from=%2Frooms", res.Header().Get("Location"))

	res = f.get("anon", "/")
	assert.Equal(t, http.StatusSeeOther, res.Code)
	assert.Equal(t, "/login?from=%2F", res.Header().Get("Location"))
}

func TestRootRedirectsToDashboard(t *testing.T) {
	f := newFixture(t)
	f.login(t, "c1", "receptionist@hostel.com")

	res := f.get("c1", "/")
	assert.Equal(t, http.StatusSeeOther, res.Code)
	assert.Equal(t, "/dashboard", res.Header().Get("Location"))
}

func TestPageRendersNavigationForRole(t *testing.T) {
	f := newFixture(t)
	f.login(t, "c1", "admin@hostel.com")

	res := f.get("c1", "/rooms")
	require.Equal(t, http.StatusOK, res.Code)
	body := res.Body.String()
	assert.Contains(t, body, "Room Management")
	assert.Contains(t, body, "Jane Smith")
	assert.Contains(t, body, `href="/rooms" data-icon="Home" class="active"`)
	assert.Contains(t, body, `href="/maintenance"`)
	assert.NotContains(t, body, `href="/backup"`)
}

func TestStudentProfileAndDenial(t *testing.T) {
	f := newFixture(t)
	f.login(t, "c1", "student@hostel.com")

	res := f.get("c1", "/my-profile")
	require.Equal(t, http.StatusOK, res.Code)
	assert.Contains(t, res.Body.String(), "Mike Johnson")
	assert.Contains(t, res.Body.String(), "01 Feb 2024")

	res = f.get("c1", "/rooms")
	assert.Equal(t, http.StatusSeeOther, res.Code)
	assert.Equal(t, "/unauthorized", res.Header().Get("Location"))
}

func TestReceptionistCannotReachBackup(t *testing.T) {
	f := newFixture(t)
	f.login(t, "c1", "receptionist@hostel.com")

	res := f.get("c1", "/backup")
	assert.Equal(t, http.StatusSeeOther, res.Code)
	assert.Equal(t, "/unauthorized", res.Header().Get("Location"))

	res = f.get("c1", "/backup", "Accept", "application/json")
	assert.Equal(t, http.StatusForbidden, res.Code)

	res = f.get("c1", "/visitor-logs")
	assert.Equal(t, http.StatusOK, res.Code)
}

func TestRoleSettingsPage(t *testing.T) {
	f := newFixture(t)
	f.login(t, "c1", "superadmin@hostel.com")

	res := f.get("c1", "/role-settings")
	require.Equal(t, http.StatusOK, res.Code)
	body := res.Body.String()
	assert.Contains(t, body, "Full system access with all administrative privileges")
	assert.Contains(t, body, "Front desk operations and visitor management")
	assert.Contains(t, body, "14 permissions")
}

func TestRolesAPI(t *testing.T) {
	f := newFixture(t)
	f.login(t, "admin", "superadmin@hostel.com")
	f.login(t, "student", "student@hostel.com")

	res := f.get("admin", "/api/roles", "Accept", "application/json")
	require.Equal(t, http.StatusOK, res.Code)
	var roles []dashboard.RoleView
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), &roles))
	require.Len(t, roles, 4)
	assert.Equal(t, "Receptionist", roles[3].Role)
	assert.Equal(t, dashboard.PermissionView{Key: "dashboard", Label: "Dashboard Access"}, roles[3].Permissions[0])

	res = f.get("student", "/api/roles", "Accept", "application/json")
	assert.Equal(t, http.StatusForbidden, res.Code)
}

func TestMenuAPI(t *testing.T) {
	f := newFixture(t)

	res := f.get("anon", "/api/menu")
	require.Equal(t, http.StatusOK, res.Code)
	assert.JSONEq(t, `{"menu":[],"mobile":[]}`, res.Body.String())

	f.login(t, "c1", "student@hostel.com")
	res = f.get("c1", "/api/menu")
	require.Equal(t, http.StatusOK, res.Code)
	var body struct {
		Menu   []rbac.MenuItem `json:"menu"`
		Mobile []rbac.MenuItem `json:"mobile"`
	}
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), &body))
	assert.Len(t, body.Menu, 9)
	ids := make([]string, 0, len(body.Mobile))
	for _, item := range body.Mobile {
		ids = append(ids, item.ID)
	}
	assert.Equal(t, []string{"dashboard", "my-profile", "my-fees"}, ids)
}

func TestUnauthorizedPage(t *testing.T) {
	f := newFixture(t)
	res := f.get("anon", "/unauthorized")
	assert.Equal(t, http.StatusForbidden, res.Code)
	assert.Contains(t, res.Body.String(), "Go to Dashboard")
}

func TestRoleTableMatchesPermissions(t *testing.T) {
	for i, row := range dashboard.RoleTable() {
		role := rbac.Roles()[i]
		assert.Equal(t, role.String(), row.Role)
		assert.Len(t, row.Permissions, len(rbac.PermissionsFor(role)))
	}
}
