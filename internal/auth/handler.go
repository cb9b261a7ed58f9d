package auth

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"
	"github.com/go-playground/validator/v10"

	"github.com/hostelhub/hostelhub/internal/observability"
	"github.com/hostelhub/hostelhub/internal/platform/httpx"
	"github.com/hostelhub/hostelhub/internal/rbac"
	"github.com/hostelhub/hostelhub/internal/shared"
	"github.com/hostelhub/hostelhub/internal/view"
)

// DefaultLandingPath is where a successful login goes without a "from" hint.
const DefaultLandingPath = "/dashboard"

const invalidCredentialsMessage = "Invalid email or password"

// Handler wires HTTP endpoints for authentication flows.
type Handler struct {
	logger      *slog.Logger
	registry    *Registry
	browsers    *shared.BrowserManager
	directory   *Directory
	templates   *view.Engine
	csrfManager *shared.CSRFManager
	metrics     *observability.Metrics
	validator   *validator.Validate
	loginLimit  int
}

// HandlerOption customises a Handler.
type HandlerOption func(*Handler)

// WithMetrics records login outcomes.
func WithMetrics(m *observability.Metrics) HandlerOption {
	return func(h *Handler) { h.metrics = m }
}

// WithLoginRateLimit caps login attempts per client IP per minute. Zero disables it.
func WithLoginRateLimit(perMinute int) HandlerOption {
	return func(h *Handler) { h.loginLimit = perMinute }
}

// NewHandler constructs a Handler instance. The browser id is rotated on
// every sign-in and discarded on sign-out, moving the Store along in registry.
func NewHandler(logger *slog.Logger, registry *Registry, browsers *shared.BrowserManager, directory *Directory, templates *view.Engine, csrf *shared.CSRFManager, opts ...HandlerOption) *Handler {
	h := &Handler{
		logger:      logger,
		registry:    registry,
		browsers:    browsers,
		directory:   directory,
		templates:   templates,
		csrfManager: csrf,
		validator:   validator.New(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// MountRoutes registers auth routes on provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/login", h.showLogin)
	r.Group(func(r chi.Router) {
		if h.loginLimit > 0 {
			r.Use(httprate.LimitByIP(h.loginLimit, time.Minute))
		}
		r.Post("/login", h.handleLogin)
	})
	r.Post("/logout", h.handleLogout)
	r.Get("/api/session", h.showSession)
}

type loginForm struct {
	Email    string `validate:"required,email"`
	Password string `validate:"required"`
}

type loginPageData struct {
	Form         loginForm
	From         string
	Errors       map[string]string
	DemoAccounts []DemoAccount
	DemoPassword string
}

func (h *Handler) showLogin(w http.ResponseWriter, r *http.Request) {
	from := r.URL.Query().Get("from")
	if store := StoreFromContext(r.Context()); store != nil && store.User() != nil {
		http.Redirect(w, r, rbac.SafeRedirect(from, DefaultLandingPath), http.StatusSeeOther)
		return
	}
	h.renderLogin(w, r, http.StatusOK, loginPageData{From: from})
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	store := StoreFromContext(r.Context())
	if store == nil {
		h.logger.Error("session store missing during login")
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	form := loginForm{
		Email:    r.PostFormValue("email"),
		Password: r.PostFormValue("password"),
	}
	data := loginPageData{Form: form, From: r.PostFormValue("from"), Errors: h.validate(form)}
	if len(data.Errors) > 0 {
		h.metrics.ObserveLogin("invalid")
		h.renderLogin(w, r, http.StatusBadRequest, data)
		return
	}

	ok, err := store.Login(r.Context(), form.Email, form.Password)
	switch {
	case errors.Is(err, ErrLoginSuperseded):
		h.metrics.ObserveLogin("superseded")
		data.Errors["general"] = "You were signed out while signing in. Please try again."
		h.renderLogin(w, r, http.StatusConflict, data)
		return
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		h.metrics.ObserveLogin("error")
		h.logger.Info("login abandoned", slog.Any("error", err))
		return
	case err != nil:
		h.metrics.ObserveLogin("error")
		h.logger.Error("login", slog.Any("error", err))
		data.Errors["general"] = "Sign in is unavailable right now. Please try again."
		h.renderLogin(w, r, http.StatusInternalServerError, data)
		return
	case !ok:
		h.metrics.ObserveLogin("invalid")
		data.Errors["general"] = invalidCredentialsMessage
		h.renderLogin(w, r, http.StatusBadRequest, data)
		return
	}

	if err := h.rotateBrowser(r); err != nil {
		h.logger.Error("rotate browser after login", slog.Any("error", err))
		store.Logout(context.WithoutCancel(r.Context()))
		h.metrics.ObserveLogin("error")
		data.Errors["general"] = "Sign in is unavailable right now. Please try again."
		h.renderLogin(w, r, http.StatusInternalServerError, data)
		return
	}

	h.metrics.ObserveLogin("success")
	if browser := shared.BrowserFromContext(r.Context()); browser != nil {
		msg := "Welcome back"
		if user := store.User(); user != nil {
			msg += ", " + user.Name
		}
		browser.AddFlash(shared.FlashMessage{Kind: "success", Message: msg})
	}
	http.Redirect(w, r, rbac.SafeRedirect(data.From, DefaultLandingPath), http.StatusSeeOther)
}

// rotateBrowser issues the browser a new id and moves its Store there, so a
// cookie value seen before sign-in does not carry the signed-in session.
func (h *Handler) rotateBrowser(r *http.Request) error {
	browser := shared.BrowserFromContext(r.Context())
	if browser == nil {
		return shared.ErrBrowserMissing
	}
	previous := h.browsers.Rotate(browser)
	return h.registry.Rotate(r.Context(), previous, browser.ID)
}

func (h *Handler) validate(form loginForm) map[string]string {
	errs := make(map[string]string)
	err := h.validator.Struct(form)
	if err == nil {
		return errs
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		errs["general"] = invalidCredentialsMessage
		return errs
	}
	for _, fieldErr := range fieldErrs {
		switch fieldErr.Tag() {
		case "required":
			errs[fieldErr.Field()] = fieldErr.Field() + " is required"
		case "email":
			errs[fieldErr.Field()] = "Enter a valid email address"
		default:
			errs[fieldErr.Field()] = fieldErr.Error()
		}
	}
	return errs
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	if store := StoreFromContext(r.Context()); store != nil {
		store.Logout(r.Context())
	}
	if browser := shared.BrowserFromContext(r.Context()); browser != nil {
		h.browsers.Destroy(browser)
		h.registry.Release(browser.ID)
	}
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

type sessionResponse struct {
	State     string `json:"state"`
	IsLoading bool   `json:"isLoading"`
	User      *User  `json:"user"`
}

func (h *Handler) showSession(w http.ResponseWriter, r *http.Request) {
	store := StoreFromContext(r.Context())
	if store == nil {
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", shared.ErrBrowserMissing.Error())
		return
	}
	snap := store.Snapshot()
	w.Header().Set("Cache-Control", "no-store")
	httpx.JSON(w, http.StatusOK, sessionResponse{
		State:     store.State().String(),
		IsLoading: snap.IsLoading,
		User:      snap.User,
	})
}

func (h *Handler) renderLogin(w http.ResponseWriter, r *http.Request, status int, data loginPageData) {
	browser := shared.BrowserFromContext(r.Context())
	csrfToken, _ := h.csrfManager.EnsureToken(browser)
	if h.directory != nil {
		data.DemoAccounts = h.directory.DemoAccounts()
		data.DemoPassword = DemoPassword
	}
	viewData := view.TemplateData{
		Title:       "Sign In",
		CSRFToken:   csrfToken,
		Flash:       browser.PopFlash(),
		CurrentPath: r.URL.Path,
		Data:        data,
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := h.templates.Render(w, "pages/login.html", viewData); err != nil {
		h.logger.Error("render login", slog.Any("error", err))
	}
}
