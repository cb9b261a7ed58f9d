package app

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/hostelhub/hostelhub/internal/auth"
	"github.com/hostelhub/hostelhub/internal/dashboard"
	"github.com/hostelhub/hostelhub/internal/observability"
	"github.com/hostelhub/hostelhub/internal/platform/kv"
	"github.com/hostelhub/hostelhub/internal/rbac"
	"github.com/hostelhub/hostelhub/internal/shared"
	"github.com/hostelhub/hostelhub/internal/view"
)

// Application is the assembled HTTP service.
type Application struct {
	Router   http.Handler
	Registry *auth.Registry
	Metrics  *observability.Metrics
}

// Dependencies are the external resources an Application runs on.
type Dependencies struct {
	Storage kv.Store
	Health  HealthCheck
}

// NewApplication wires every component over deps.
func NewApplication(cfg *Config, logger *slog.Logger, deps Dependencies) (*Application, error) {
	templates, err := view.NewEngine()
	if err != nil {
		return nil, err
	}
	metrics := observability.NewMetrics()

	browsers := shared.NewBrowserManager(deps.Storage, cfg.SessionCookie, cfg.SessionSecret, cfg.SessionTTL, cfg.IsProduction())
	csrfManager := shared.NewCSRFManager(cfg.CSRFSecret)

	directory := auth.DemoDirectory()
	registry := auth.NewRegistry(auth.RegistryConfig{
		Storage: deps.Storage,
		Service: auth.NewService(directory),
		Tokens:  auth.NewTokenIssuer(cfg.SessionSecret, auth.TokenTTL),
		Store: auth.StoreOptions{
			Latency:       cfg.AuthLatency,
			EnforceExpiry: cfg.SessionEnforceExpiry,
		},
		IdleTimeout: cfg.SessionIdleTimeout,
		Metrics:     metrics,
		Logger:      logger,
	})

	guard := rbac.Middleware{
		State:     auth.GuardStateFromRequest,
		Templates: templates,
		Logger:    logger,
		Metrics:   metrics,
	}
	authHandler := auth.NewHandler(logger, registry, browsers, directory, templates, csrfManager,
		auth.WithMetrics(metrics),
		auth.WithLoginRateLimit(cfg.LoginRateLimit),
	)
	dashboardHandler := dashboard.NewHandler(logger, templates, csrfManager, guard)

	router := NewRouter(RouterParams{
		Logger:           logger,
		Config:           cfg,
		Browsers:         browsers,
		CSRFManager:      csrfManager,
		Registry:         registry,
		AuthHandler:      authHandler,
		DashboardHandler: dashboardHandler,
		Metrics:          metrics,
		Health:           deps.Health,
	})
	return &Application{Router: router, Registry: registry, Metrics: metrics}, nil
}

// RunSweeper evicts idle session stores until ctx ends.
func (a *Application) RunSweeper(ctx context.Context, cfg *Config) {
	a.Registry.Run(ctx, cfg.SessionSweepInterval)
}
