package app

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/hostelhub/hostelhub/internal/auth"
	"github.com/hostelhub/hostelhub/internal/dashboard"
	"github.com/hostelhub/hostelhub/internal/observability"
	"github.com/hostelhub/hostelhub/internal/platform/httpx"
	"github.com/hostelhub/hostelhub/internal/shared"
	"github.com/hostelhub/hostelhub/web"
)

// HealthCheck reports whether a backing service is reachable.
type HealthCheck func(ctx context.Context) error

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger           *slog.Logger
	Config           *Config
	Browsers         *shared.BrowserManager
	CSRFManager      *shared.CSRFManager
	Registry         *auth.Registry
	AuthHandler      *auth.Handler
	DashboardHandler *dashboard.Handler
	Metrics          *observability.Metrics
	Health           HealthCheck
}

// NewRouter constructs the chi.Router with HostelHub defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	mwConfig := MiddlewareConfig{
		Logger:      params.Logger,
		Config:      params.Config,
		Browsers:    params.Browsers,
		CSRFManager: params.CSRFManager,
		Registry:    params.Registry,
		Metrics:     params.Metrics,
	}
	for _, mw := range BaseStack(mwConfig) {
		r.Use(mw)
	}
	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if params.Health != nil {
			if err := params.Health(r.Context()); err != nil {
				params.Logger.Warn("health check failed", slog.Any("error", err))
				httpx.RespondError(w, fmt.Errorf("%w: %v", httpx.ErrUnavailable, err))
				return
			}
		}
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	staticFS, err := fs.Sub(web.Static, "static")
	if err != nil {
		params.Logger.Error("create static sub filesystem", slog.Any("error", err))
	} else {
		fileServer := http.StripPrefix("/static/", http.FileServer(http.FS(staticFS)))
		r.Handle("/static/*", staticCacheHandler(fileServer))
	}

	r.Group(func(r chi.Router) {
		for _, mw := range SessionStack(mwConfig) {
			r.Use(mw)
		}
		params.AuthHandler.MountRoutes(r)
		params.DashboardHandler.MountRoutes(r)
	})

	return r
}

// staticCacheHandler lets browsers cache static assets for an hour.
func staticCacheHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "public, max-age=3600")
		next.ServeHTTP(w, r)
	})
}
