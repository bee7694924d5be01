package core

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"testing"

	"github.com/go-chi/chi/v5"

	"geoforecast/internal/config"
)

func TestNewServer_Success(t *testing.T) {
	cfg := &config.Config{
		Environment: "local",
	}
	logger := slog.Default()

	srv, err := NewServer(cfg, logger)
	if err != nil {
		t.Fatalf("NewServer returned unexpected error: %v", err)
	}
	if srv == nil {
		t.Fatal("NewServer returned nil server")
	}
	if srv.Config != cfg {
		t.Error("Config field not set correctly")
	}
	if srv.Logger != logger {
		t.Error("Logger field not set correctly")
	}
	if srv.Validator == nil {
		t.Error("Validator should be initialized by constructor")
	}
	if srv.router == nil {
		t.Error("internal router should be initialized by constructor")
	}
}

func TestNewServer_NilConfig(t *testing.T) {
	logger := slog.Default()

	srv, err := NewServer(nil, logger)
	if err == nil {
		t.Fatal("NewServer should return error for nil config")
	}
	if srv != nil {
		t.Error("NewServer should return nil server on error")
	}
}

func TestNewServer_NilLogger(t *testing.T) {
	cfg := &config.Config{Environment: "local"}

	srv, err := NewServer(cfg, nil)
	if err == nil {
		t.Fatal("NewServer should return error for nil logger")
	}
	if srv != nil {
		t.Error("NewServer should return nil server on error")
	}
}

func TestServer_Handler(t *testing.T) {
	cfg := &config.Config{Environment: "local"}
	logger := slog.Default()

	srv, err := NewServer(cfg, logger)
	if err != nil {
		t.Fatalf("NewServer returned unexpected error: %v", err)
	}

	handler := srv.Handler()
	if handler == nil {
		t.Fatal("Handler() returned nil")
	}
	// Verify it implements http.Handler
	var _ http.Handler = handler
}

func TestServer_Router(t *testing.T) {
	cfg := &config.Config{Environment: "local"}
	logger := slog.Default()

	srv, err := NewServer(cfg, logger)
	if err != nil {
		t.Fatalf("NewServer returned unexpected error: %v", err)
	}

	router := srv.Router()
	if router == nil {
		t.Fatal("Router() returned nil")
	}
}

func TestServer_Shutdown(t *testing.T) {
	cfg := &config.Config{Environment: "local"}
	logger := slog.Default()

	srv, err := NewServer(cfg, logger)
	if err != nil {
		t.Fatalf("NewServer returned unexpected error: %v", err)
	}

	err = srv.Shutdown(context.Background())
	if err != nil {
		t.Fatalf("Shutdown returned unexpected error: %v", err)
	}
}

func TestServer_Shutdown_RunsHooksInOrder(t *testing.T) {
	cfg := &config.Config{Environment: "local"}
	logger := slog.Default()

	srv, err := NewServer(cfg, logger)
	if err != nil {
		t.Fatalf("NewServer returned unexpected error: %v", err)
	}

	var order []string
	srv.OnShutdown = append(srv.OnShutdown,
		func(ctx context.Context) error {
			order = append(order, "drain")
			return nil
		},
		func(ctx context.Context) error {
			order = append(order, "close-pool")
			return nil
		},
	)

	if err := srv.Shutdown(context.Background()); err != nil {
		t.Fatalf("Shutdown returned unexpected error: %v", err)
	}

	if len(order) != 2 || order[0] != "drain" || order[1] != "close-pool" {
		t.Errorf("hooks ran out of order: %v", order)
	}
}

func TestServer_Shutdown_AbortsOnHookFailure(t *testing.T) {
	cfg := &config.Config{Environment: "local"}
	logger := slog.Default()

	srv, err := NewServer(cfg, logger)
	if err != nil {
		t.Fatalf("NewServer returned unexpected error: %v", err)
	}

	hookErr := errors.New("pool close failed")
	secondRan := false
	srv.OnShutdown = append(srv.OnShutdown,
		func(ctx context.Context) error { return hookErr },
		func(ctx context.Context) error {
			secondRan = true
			return nil
		},
	)

	err = srv.Shutdown(context.Background())
	if err == nil {
		t.Fatal("Shutdown should surface the hook failure")
	}
	if !errors.Is(err, hookErr) {
		t.Errorf("expected wrapped hook error, got: %v", err)
	}
	if secondRan {
		t.Error("hooks after a failure should not run")
	}
}

func TestServer_ExportedFields(t *testing.T) {
	// Verify that all wiring points are accessible (exported).
	cfg := &config.Config{Environment: "local"}
	logger := slog.Default()
	metrics := &MockMetricsCollector{}

	srv, err := NewServer(cfg, logger)
	if err != nil {
		t.Fatalf("NewServer returned unexpected error: %v", err)
	}

	// Set optional fields post-construction (these are exported).
	srv.Metrics = metrics
	srv.HealthProbes = []HealthProbe{&MockProbe{ProbeName: "database"}}
	srv.RootRouteRegistrars = []func(chi.Router){func(chi.Router) {}}
	srv.APIRouteRegistrars = []func(chi.Router){func(chi.Router) {}}

	if srv.Metrics != metrics {
		t.Error("Metrics field not set correctly")
	}
	if len(srv.HealthProbes) != 1 {
		t.Error("HealthProbes field not set correctly")
	}
	if len(srv.RootRouteRegistrars) != 1 {
		t.Error("RootRouteRegistrars field not set correctly")
	}
	if len(srv.APIRouteRegistrars) != 1 {
		t.Error("APIRouteRegistrars field not set correctly")
	}
}
