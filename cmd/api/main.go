// Package main is the entry point for the geo-temporal weather forecast API
// server.
//
// It loads the configuration, optionally opens the PostgreSQL document store,
// builds the HTTP server with the core chassis (middleware, routing, health
// checks), registers the domain handlers, and listens for requests.
//
// A missing or unreachable database never aborts startup: the API keeps
// serving, storage-backed endpoints answer with a storage error, and
// GET /test reports the connection state.
//
// Graceful shutdown is handled via OS signal interception (SIGINT, SIGTERM).
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"geoforecast/internal/api/handlers"
	"geoforecast/internal/config"
	"geoforecast/internal/core"
	"geoforecast/internal/db"
	"geoforecast/internal/observability"
)

var (
	_ handlers.ForecastStoreInterface    = (*db.DocumentStore)(nil)
	_ handlers.AlertStoreInterface       = (*db.DocumentStore)(nil)
	_ handlers.DiagnosticsStoreInterface = (*db.DocumentStore)(nil)
	_ core.Pinger                        = (*db.DocumentStore)(nil)
	_ core.MetricsCollector              = (*observability.Metrics)(nil)
	_ db.DBTX                            = (*pgxpool.Pool)(nil)
)

// schemaTimeout bounds the startup schema migration against a slow or
// unreachable database.
const schemaTimeout = 10 * time.Second

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

// run encapsulates the startup lifecycle so that main() can cleanly exit on error.
func run() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	// Initialize structured logger.
	logger := newLogger(cfg.LogLevel)
	logger.Info("geoforecast API starting",
		"environment", cfg.Environment,
		"version", cfg.Build.Version,
		"commit", cfg.Build.Commit,
		"port", cfg.Server.Port,
	)

	// Open the document store when a DSN is configured. A dial or schema
	// failure is carried into the diagnostics handler instead of aborting.
	pool, store, dialErr := openStore(context.Background(), cfg, logger)

	// Build the server.
	srv, err := core.NewServer(cfg, logger)
	if err != nil {
		return fmt.Errorf("creating server: %w", err)
	}
	srv.Metrics = observability.NewMetrics()

	// The store is optional. Handlers receive a nil interface when it is
	// absent and answer persistence calls with a storage error. Assigning
	// through typed interface variables keeps a nil *DocumentStore from
	// becoming a non-nil interface value.
	var (
		forecastStore handlers.ForecastStoreInterface
		alertStore    handlers.AlertStoreInterface
		diagStore     handlers.DiagnosticsStoreInterface
	)
	if store != nil {
		forecastStore = store
		alertStore = store
		diagStore = store
		srv.HealthProbes = append(srv.HealthProbes, core.NewStoreProbe(store))
	}
	if pool != nil {
		srv.OnShutdown = append(srv.OnShutdown, func(_ context.Context) error {
			pool.Close()
			return nil
		})
	}

	// Wire the system handler (service banner + store diagnostics) at the
	// router root.
	systemHandler := handlers.NewSystemHandler(diagStore, cfg, dialErr, logger)
	srv.RootRouteRegistrars = append(srv.RootRouteRegistrars, systemHandler.RegisterRoutes)

	// Wire the domain handlers under /api.
	forecastHandler := handlers.NewForecastHandler(forecastStore, srv.Validator, logger)
	alertHandler := handlers.NewAlertHandler(alertStore, srv.Validator, logger)
	meteogramHandler := handlers.NewMeteogramHandler(srv.Validator, logger)

	srv.APIRouteRegistrars = append(srv.APIRouteRegistrars, func(r chi.Router) {
		r.Route("/forecasts", forecastHandler.RegisterRoutes)
		r.Route("/alerts", alertHandler.RegisterRoutes)
		r.Route("/meteogram", meteogramHandler.RegisterRoutes)
	})

	// Mount all routes (middleware chain + API endpoints + health + metrics).
	srv.MountRoutes()

	return runHTTPServer(srv, cfg, logger)
}

// openStore connects to PostgreSQL and prepares the document store. It
// returns (nil, nil, nil) when no DATABASE_URL is configured, and
// (nil, nil, err) when the configured database cannot be reached or migrated;
// in both cases the API starts without persistence.
func openStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*pgxpool.Pool, *db.DocumentStore, error) {
	if cfg.Database.URL == "" {
		logger.Warn("DATABASE_URL is not set; starting without a document store")
		return nil, nil, nil
	}

	poolCfg, err := pgxpool.ParseConfig(cfg.Database.URL.Unmask())
	if err != nil {
		logger.Error("invalid database DSN", "error", err)
		return nil, nil, fmt.Errorf("parsing database DSN: %w", err)
	}

	poolCfg.MaxConns = int32(cfg.Database.MaxConns)
	poolCfg.MinConns = int32(cfg.Database.MinConns)
	poolCfg.MaxConnLifetime = cfg.Database.MaxConnLifetime
	poolCfg.HealthCheckPeriod = cfg.Database.HealthCheckPeriod
	poolCfg.ConnConfig.ConnectTimeout = cfg.Database.AcquireTimeout
	if cfg.Database.Name != "" {
		poolCfg.ConnConfig.Database = cfg.Database.Name
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		logger.Error("failed to create connection pool", "error", err)
		return nil, nil, fmt.Errorf("creating connection pool: %w", err)
	}

	store := db.NewDocumentStore(pool)

	migrateCtx, cancel := context.WithTimeout(ctx, schemaTimeout)
	defer cancel()
	if err := store.EnsureSchema(migrateCtx); err != nil {
		logger.Error("failed to ensure document schema", "error", err)
		pool.Close()
		return nil, nil, fmt.Errorf("ensuring document schema: %w", err)
	}

	logger.Info("document store ready",
		"name", cfg.Database.Name,
		"max_conns", cfg.Database.MaxConns,
	)
	return pool, store, nil
}

// runHTTPServer starts the server in standard HTTP mode with graceful shutdown.
func runHTTPServer(srv *core.Server, cfg *config.Config, logger *slog.Logger) error {
	addr := ":" + cfg.Server.Port

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	// Channel to capture server errors from ListenAndServe.
	serverErr := make(chan error, 1)

	go func() {
		logger.Info("HTTP server listening", "addr", addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	// Wait for shutdown signal or server error.
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-shutdown:
		logger.Info("shutdown signal received", "signal", sig.String())
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	}

	// Graceful shutdown with a 10-second deadline.
	logger.Info("initiating graceful shutdown")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Error("HTTP server shutdown error", "error", err)
	}

	// Shutdown server resources (connection pool, etc.).
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server resource shutdown error", "error", err)
		return fmt.Errorf("server shutdown: %w", err)
	}

	logger.Info("server stopped cleanly")
	return nil
}

// newLogger creates a structured slog.Logger configured for the given log level.
func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "info":
		lvl = slog.LevelInfo
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}

	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level:     lvl,
		AddSource: false,
	})
	return slog.New(handler)
}
