package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/hostelhub/hostelhub/internal/app"
	"github.com/hostelhub/hostelhub/internal/platform/cache"
	"github.com/hostelhub/hostelhub/internal/platform/kv"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	var deps app.Dependencies
	switch cfg.StorageDriver {
	case app.StorageMemory:
		logger.Warn("using in-memory session storage; for development only, sessions are lost on restart")
		memory := kv.NewExpiringMemoryStore(cfg.SessionTTL)
		go memory.Run(ctx, cfg.SessionSweepInterval)
		deps.Storage = memory
	default:
		redisClient, err := cache.New(ctx, cache.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB})
		if err != nil {
			logger.Error("connect redis", slog.Any("error", err))
			os.Exit(1)
		}
		defer func() {
			if err := redisClient.Close(); err != nil {
				logger.Warn("redis close", slog.Any("error", err))
			}
		}()
		deps.Storage = kv.NewRedisStore(redisClient, cfg.SessionTTL)
		deps.Health = func(ctx context.Context) error { return cache.Ping(ctx, redisClient) }
	}

	application, err := app.NewApplication(cfg, logger, deps)
	if err != nil {
		logger.Error("build application", slog.Any("error", err))
		os.Exit(1)
	}
	go application.RunSweeper(ctx, cfg)

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      application.Router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr), slog.String("storage", cfg.StorageDriver))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
