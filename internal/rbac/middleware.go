package rbac

import (
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/hostelhub/hostelhub/internal/observability"
	"github.com/hostelhub/hostelhub/internal/platform/httpx"
	"github.com/hostelhub/hostelhub/internal/view"
)

const (
	defaultLoginPath  = "/login"
	defaultDeniedPath = "/unauthorized"
)

// Middleware turns route guard decisions into HTTP responses.
type Middleware struct {
	// State reports the session snapshot for the request.
	State      func(*http.Request) GuardState
	Templates  *view.Engine
	Logger     *slog.Logger
	Metrics    *observability.Metrics
	LoginPath  string
	DeniedPath string
}

// RequireAuthenticated admits any signed in user.
func (m Middleware) RequireAuthenticated() func(http.Handler) http.Handler {
	return m.Require("")
}

// Require admits users holding permission. The decision is re-evaluated on
// every request.
func (m Middleware) Require(permission string) func(http.Handler) http.Handler {
	permission = strings.TrimSpace(permission)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var state GuardState
			if m.State != nil {
				state = m.State(r)
			}
			decision := Evaluate(state, permission, r.URL.RequestURI())
			m.Metrics.ObserveGuardDecision(decision.Kind.String())

			switch decision.Kind {
			case DecisionAllow:
				next.ServeHTTP(w, r)
			case DecisionLoading:
				m.renderLoading(w, r)
			case DecisionLogin:
				if wantsJSON(r) {
					httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "authentication required")
					return
				}
				http.Redirect(w, r, LoginURL(m.loginPath(), decision.From), http.StatusSeeOther)
			case DecisionDenied:
				if m.Logger != nil {
					m.Logger.Info("rbac access denied",
						slog.String("path", r.URL.Path),
						slog.String("permission", permission),
						slog.String("role", roleOf(state.Principal).String()))
				}
				if wantsJSON(r) {
					httpx.Problem(w, http.StatusForbidden, "Forbidden", "missing permission "+permission)
					return
				}
				http.Redirect(w, r, m.deniedPath(), http.StatusSeeOther)
			}
		})
	}
}

func (m Middleware) renderLoading(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Cache-Control", "no-store")
	if wantsJSON(r) {
		w.Header().Set("Retry-After", "1")
		httpx.Problem(w, http.StatusAccepted, "Session Loading", "session is still being resolved")
		return
	}
	w.Header().Set("Refresh", "1")
	if m.Templates == nil {
		http.Error(w, "Loading", http.StatusOK)
		return
	}
	data := view.TemplateData{Title: "Loading", CurrentPath: r.URL.Path}
	if err := m.Templates.Render(w, "pages/loading.html", data); err != nil && m.Logger != nil {
		m.Logger.Error("render loading", slog.Any("error", err))
	}
}

func (m Middleware) loginPath() string {
	if m.LoginPath != "" {
		return m.LoginPath
	}
	return defaultLoginPath
}

func (m Middleware) deniedPath() string {
	if m.DeniedPath != "" {
		return m.DeniedPath
	}
	return defaultDeniedPath
}

// LoginURL builds the login location carrying the originally requested path.
func LoginURL(loginPath, from string) string {
	if from == "" {
		return loginPath
	}
	return loginPath + "?" + url.Values{"from": {from}}.Encode()
}

// SafeRedirect returns from when it is a local absolute path, else fallback.
func SafeRedirect(from, fallback string) string {
	from = strings.TrimSpace(from)
	if from == "" || !strings.HasPrefix(from, "/") || strings.HasPrefix(from, "//") || strings.Contains(from, "\\") {
		return fallback
	}
	u, err := url.Parse(from)
	if err != nil || u.IsAbs() || u.Host != "" {
		return fallback
	}
	return from
}

func wantsJSON(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), "application/json")
}
