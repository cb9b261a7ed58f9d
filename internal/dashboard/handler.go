// Package dashboard serves the protected hostel pages and the navigation APIs.
package dashboard

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hostelhub/hostelhub/internal/auth"
	"github.com/hostelhub/hostelhub/internal/platform/httpx"
	"github.com/hostelhub/hostelhub/internal/rbac"
	"github.com/hostelhub/hostelhub/internal/shared"
	"github.com/hostelhub/hostelhub/internal/view"
)

// Handler renders every navigable page behind the route guard.
type Handler struct {
	logger      *slog.Logger
	templates   *view.Engine
	csrfManager *shared.CSRFManager
	guard       rbac.Middleware
}

// NewHandler constructs a dashboard handler.
func NewHandler(logger *slog.Logger, templates *view.Engine, csrf *shared.CSRFManager, guard rbac.Middleware) *Handler {
	return &Handler{logger: logger, templates: templates, csrfManager: csrf, guard: guard}
}

// MountRoutes registers one guarded page per route and the JSON endpoints.
func (h *Handler) MountRoutes(r chi.Router) {
	for _, route := range rbac.Routes() {
		if route.Path == rbac.RootPath {
			r.With(h.guard.RequireAuthenticated()).Get(route.Path, h.redirectHome)
			continue
		}
		r.With(h.guard.Require(route.Permission)).Get(route.Path, h.pageHandler(route))
	}
	r.Get("/unauthorized", h.showUnauthorized)
	r.Get("/api/menu", h.showMenu)
	r.With(h.guard.Require(rbac.PermRoleSettings)).Get("/api/roles", h.showRoles)
}

func (h *Handler) redirectHome(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, auth.DefaultLandingPath, http.StatusSeeOther)
}

func (h *Handler) pageHandler(route rbac.Route) http.HandlerFunc {
	item, ok := rbac.MenuItemByID(route.Permission)
	if !ok {
		item = rbac.MenuItem{ID: route.Permission, Label: route.Permission, Path: route.Path, Permission: route.Permission}
	}
	switch item.ID {
	case "role-settings":
		return h.showRoleSettings
	case "my-profile":
		return h.showProfile
	}
	return func(w http.ResponseWriter, r *http.Request) {
		data := pageData{Label: item.Label, Description: rbac.PermissionLabel(item.Permission)}
		h.render(w, r, http.StatusOK, "pages/page.html", item.Label, data)
	}
}

type pageData struct {
	Label       string
	Description string
}

func (h *Handler) showRoleSettings(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, "pages/role_settings.html", "Role & Permission Settings", RoleTable())
}

func (h *Handler) showProfile(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)
	if user == nil {
		http.Redirect(w, r, rbac.LoginURL("/login", r.URL.RequestURI()), http.StatusSeeOther)
		return
	}
	h.render(w, r, http.StatusOK, "pages/my_profile.html", "My Profile", user)
}

func (h *Handler) showUnauthorized(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusForbidden, "pages/unauthorized.html", "Access Denied", nil)
}

type menuResponse struct {
	Menu   []rbac.MenuItem `json:"menu"`
	Mobile []rbac.MenuItem `json:"mobile"`
}

func (h *Handler) showMenu(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)
	w.Header().Set("Cache-Control", "no-store")
	httpx.JSON(w, http.StatusOK, menuResponse{
		Menu:   rbac.MenuFor(principal(user)),
		Mobile: rbac.MobileMenuFor(principal(user)),
	})
}

func (h *Handler) showRoles(w http.ResponseWriter, r *http.Request) {
	httpx.JSON(w, http.StatusOK, RoleTable())
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, status int, name, title string, data any) {
	browser := shared.BrowserFromContext(r.Context())
	csrfToken, _ := h.csrfManager.EnsureToken(browser)
	user := currentUser(r)
	viewData := view.TemplateData{
		Title:       title,
		CSRFToken:   csrfToken,
		Flash:       browser.PopFlash(),
		CurrentPath: r.URL.Path,
		Viewer:      viewerOf(user),
		Nav:         navItems(rbac.MenuFor(principal(user)), r.URL.Path),
		MobileNav:   navItems(rbac.MobileMenuFor(principal(user)), r.URL.Path),
		Data:        data,
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := h.templates.Render(w, name, viewData); err != nil {
		h.logger.Error("render page", slog.String("template", name), slog.Any("error", err))
	}
}

func currentUser(r *http.Request) *auth.User {
	store := auth.StoreFromContext(r.Context())
	if store == nil {
		return nil
	}
	return store.User()
}

// principal keeps a nil *auth.User from becoming a non-nil interface.
func principal(user *auth.User) rbac.Principal {
	if user == nil {
		return nil
	}
	return user
}

func viewerOf(user *auth.User) *view.Viewer {
	if user == nil {
		return nil
	}
	return &view.Viewer{Name: user.Name, Email: user.Email, Role: user.Role.String(), Avatar: user.Avatar}
}

func navItems(items []rbac.MenuItem, current string) []view.NavItem {
	out := make([]view.NavItem, 0, len(items))
	for _, item := range items {
		out = append(out, view.NavItem{
			ID:     item.ID,
			Label:  item.Label,
			Icon:   item.Icon,
			Path:   item.Path,
			Active: item.Path == current,
		})
	}
	return out
}
