// Package core provides the API chassis for the forecast platform.
// It creates a chi router and enforces cross-cutting concerns -- security,
// logging, observability, and error handling -- before requests reach
// domain-specific handlers.
package core

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"geoforecast/internal/config"
)

// MetricsCollector defines the interface for recording API telemetry.
// The production implementation exports Prometheus series; tests inject
// a recorder.
type MetricsCollector interface {
	// RecordRequest records request latency and count for one completed call.
	RecordRequest(method, endpoint, status string, duration time.Duration)
}

// Server encapsulates all dependencies for the forecast API, allowing for
// easy injection during testing and distinct configuration for different
// environments.
type Server struct {
	Config    *config.Config
	Logger    *slog.Logger
	Validator *Validator
	Metrics   MetricsCollector

	// HealthProbes are executed concurrently by the health endpoint. The
	// entry point registers one probe per critical dependency.
	HealthProbes []HealthProbe

	// RootRouteRegistrars mount handlers at the router root (service
	// banner, store diagnostics). APIRouteRegistrars mount domain handlers
	// under /api. Both are populated by the application entry point; this
	// indirection avoids import cycles between core and handler packages.
	RootRouteRegistrars []func(chi.Router)
	APIRouteRegistrars  []func(chi.Router)

	// OnShutdown hooks run during Shutdown in registration order. The
	// entry point registers resource releases here, such as closing the
	// database pool.
	OnShutdown []func(ctx context.Context) error

	// Internal router
	router *chi.Mux
}

// NewServer initializes dependencies, sets up the router, and prepares the
// server for route mounting. It performs a "fail-fast" check on critical
// configuration.
//
// The caller is responsible for mounting routes (via MountRoutes or equivalent)
// after construction. This separation allows tests to customize route
// registration.
func NewServer(cfg *config.Config, logger *slog.Logger) (*Server, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must not be nil")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger must not be nil")
	}

	s := &Server{
		Config:    cfg,
		Logger:    logger,
		Validator: NewValidator(logger),
		router:    chi.NewRouter(),
	}

	return s, nil
}

// Handler returns the http.Handler interface for the router.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Router returns the underlying chi.Mux for route registration.
// This is used internally by route-mounting methods and tests.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// Shutdown performs a graceful termination of server resources by running
// the registered OnShutdown hooks in order. The first hook failure aborts
// the sequence.
func (s *Server) Shutdown(ctx context.Context) error {
	s.Logger.Info("server shutdown initiated")

	for _, hook := range s.OnShutdown {
		if err := hook(ctx); err != nil {
			s.Logger.Error("shutdown hook failed", "error", err)
			return fmt.Errorf("running shutdown hook: %w", err)
		}
	}

	s.Logger.Info("server shutdown complete")
	return nil
}
