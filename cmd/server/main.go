package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/JonMunkholm/sheetinspect/internal/auth"
	"github.com/JonMunkholm/sheetinspect/internal/config"
	"github.com/JonMunkholm/sheetinspect/internal/core"
	"github.com/JonMunkholm/sheetinspect/internal/logging"
	"github.com/JonMunkholm/sheetinspect/internal/web"
	"github.com/JonMunkholm/sheetinspect/internal/xlsx"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"
)

func main() {
	if err := run(); err != nil {
		slog.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// Load .env file if it exists (Overload overwrites existing env vars)
	if err := godotenv.Overload(); err != nil {
		slog.Info("no .env file found, using environment variables")
	} else {
		slog.Info("loaded .env file (overwriting existing env vars)")
	}

	// Load and validate configuration
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	// Setup structured logging based on config
	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)

	slog.Info("configuration loaded",
		"port", cfg.Server.Port,
		"cache_capacity", cfg.Cache.Capacity,
		"cache_ttl", cfg.Cache.TTL,
		"upload_max_concurrent", cfg.Upload.MaxConcurrent,
		"rate_limit_enabled", cfg.Rate.Enabled,
		"identity_enabled", cfg.Database.Enabled(),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var identity web.Identity
	if cfg.Database.Enabled() {
		pool, err := connect(ctx, cfg.Database)
		if err != nil {
			return err
		}
		defer pool.Close()

		users := auth.NewPGUserStore(pool)
		if err := users.EnsureSchema(ctx); err != nil {
			return err
		}
		identity = auth.NewService(users, auth.NewTokenIssuer(cfg.Security.JWTSecret, cfg.Security.JWTExpiry))
	}

	store := core.NewMemoryStore(core.StoreConfig{
		Capacity:   cfg.Cache.Capacity,
		TTL:        cfg.Cache.TTL,
		EvictBatch: cfg.Cache.EvictBatch,
	})
	parser := xlsx.NewParser(xlsx.Options{UnzipSizeLimit: cfg.Upload.UnzipSizeLimit()})
	limiter := core.NewUploadLimiter(cfg.Upload.MaxConcurrent, cfg.Upload.MaxWaitTime)
	service := core.NewService(store, parser, limiter)

	server := web.NewServer(service, identity, cfg)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	// Graceful shutdown
	g.Go(func() error {
		<-gctx.Done()
		slog.Info("shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		return gracefulShutdown(shutdownCtx, server, service)
	})

	if err := g.Wait(); err != nil {
		return err
	}
	slog.Info("server stopped")
	return nil
}

// shutdowner stops an HTTP server: listeners close at once, then it waits
// for in-flight requests.
type shutdowner interface {
	Shutdown(ctx context.Context) error
}

// uploadTracker reports and waits on previews that are still parsing.
type uploadTracker interface {
	UploadLimiterStatus() core.UploadLimiterStatus
	WaitForUploads(ctx context.Context) error
}

// gracefulShutdown stops accepting connections and then waits for
// in-flight previews to finish parsing, both bounded by ctx. New uploads
// cannot arrive while the drain runs.
func gracefulShutdown(ctx context.Context, server shutdowner, uploads uploadTracker) error {
	stopped := make(chan error, 1)
	go func() {
		stopped <- server.Shutdown(ctx)
	}()

	if status := uploads.UploadLimiterStatus(); status.Active > 0 {
		slog.Info("waiting for uploads to complete", "active", status.Active)
		if err := uploads.WaitForUploads(ctx); err != nil {
			slog.Warn("uploads did not complete in time", "error", err)
		} else {
			slog.Info("all uploads completed")
		}
	}

	return <-stopped
}

// connect opens the identity database pool and verifies it with a ping.
func connect(ctx context.Context, cfg config.DatabaseConfig) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, err
	}

	// Apply pool configuration from config
	poolConfig.MaxConns = int32(cfg.MaxConns)
	poolConfig.MinConns = int32(cfg.MinConns)
	poolConfig.MaxConnLifetime = cfg.MaxConnLifetime
	poolConfig.MaxConnIdleTime = cfg.MaxConnIdleTime

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, err
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	// Log which database we connected to
	if u, err := url.Parse(cfg.URL); err == nil {
		slog.Info("connected to database", "name", strings.TrimPrefix(u.Path, "/"))
	} else {
		slog.Info("connected to database")
	}
	return pool, nil
}
