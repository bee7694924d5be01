// Package handlers contains the HTTP handler implementations for the geoforecast API.
//
// This file implements the System handler: the service banner (GET /) and the
// store diagnostic report (GET /test). Both live outside the /api namespace.
package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/sony/gobreaker/v2"
	"golang.org/x/sync/errgroup"

	"geoforecast/internal/config"
	"geoforecast/internal/core"
)

// diagErrorLimit caps error text embedded in the diagnostic report.
const diagErrorLimit = 80

// DiagnosticsStoreInterface defines the store probes used by the diagnostic
// endpoint. Matches the DocumentStore methods but is defined locally to avoid
// tight coupling per the handler injection pattern.
type DiagnosticsStoreInterface interface {
	Ping(ctx context.Context) error
	Collections(ctx context.Context) ([]string, error)
}

// bannerResponse is the body of the service banner endpoint.
type bannerResponse struct {
	Message string `json:"message"`
}

// testReport is the body of the diagnostic endpoint. The key set and the
// status strings are a stable contract consumed by deployment smoke checks.
type testReport struct {
	Backend          string   `json:"backend"`
	Database         string   `json:"database"`
	DatabaseURL      string   `json:"database_url"`
	DatabaseName     string   `json:"database_name"`
	ConnectionStatus string   `json:"connection_status"`
	Collections      []string `json:"collections"`
}

// SystemHandler serves the banner and the store diagnostic report.
type SystemHandler struct {
	store   DiagnosticsStoreInterface
	cfg     *config.Config
	dialErr error
	breaker *gobreaker.CircuitBreaker[[]string]
	logger  *slog.Logger
}

// NewSystemHandler creates a new SystemHandler. store is nil when no document
// store is configured; dialErr carries a startup dial failure so the report
// can surface it. The connectivity probe runs behind a circuit breaker so
// repeated diagnostics against a dead store fail fast instead of re-dialing
// on every call.
func NewSystemHandler(
	store DiagnosticsStoreInterface,
	cfg *config.Config,
	dialErr error,
	logger *slog.Logger,
) *SystemHandler {
	if cfg == nil {
		cfg = &config.Config{}
	}
	if logger == nil {
		logger = slog.Default()
	}

	breaker := gobreaker.NewCircuitBreaker[[]string](gobreaker.Settings{
		Name:    "diagnostics",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
	})

	return &SystemHandler{
		store:   store,
		cfg:     cfg,
		dialErr: dialErr,
		breaker: breaker,
		logger:  logger,
	}
}

// RegisterRoutes mounts the system endpoints onto the root mux.
func (h *SystemHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.HandleRoot)
	r.Get("/test", h.HandleTest)
}

// HandleRoot handles GET /. Returns the service banner.
func (h *SystemHandler) HandleRoot(w http.ResponseWriter, r *http.Request) {
	core.JSON(w, r, http.StatusOK, bannerResponse{
		Message: "Geo-temporal Weather Forecast Platform API",
	})
}

// HandleTest handles GET /test. Reports store connectivity and the
// collections currently present. Always 200; failures are encoded in the
// report fields, not the status code:
//
//   - no store configured: database "❌ Not Available", everything unset.
//   - startup dial failed: database "❌ Error: <cause>", everything unset.
//   - store reachable: database "✅ Connected & Working" plus collections.
//   - handle exists but the probe fails: database "⚠️ Connected but Error: <cause>".
func (h *SystemHandler) HandleTest(w http.ResponseWriter, r *http.Request) {
	report := testReport{
		Backend:          "✅ Running",
		Database:         "❌ Not Available",
		DatabaseURL:      "❌ Not Set",
		DatabaseName:     "❌ Not Set",
		ConnectionStatus: "Not Connected",
		Collections:      []string{},
	}

	switch {
	case h.dialErr != nil:
		report.Database = "❌ Error: " + truncateError(h.dialErr)

	case h.store == nil:
		// Defaults already describe the storeless state.

	default:
		if h.cfg.Database.URL != "" {
			report.DatabaseURL = "✅ Set"
		}
		if h.cfg.Database.Name != "" {
			report.DatabaseName = h.cfg.Database.Name
		}
		report.ConnectionStatus = "Connected"

		collections, err := h.breaker.Execute(func() ([]string, error) {
			return h.probeStore(r.Context())
		})
		if err != nil {
			h.logger.Warn("store diagnostics probe failed", "error", err)
			report.Database = "⚠️ Connected but Error: " + truncateError(err)
		} else {
			report.Database = "✅ Connected & Working"
			report.Collections = collections
		}
	}

	core.JSON(w, r, http.StatusOK, report)
}

// probeStore fans out the connectivity checks: a ping round trip and the
// collection listing. The first failure cancels the sibling check.
func (h *SystemHandler) probeStore(ctx context.Context) ([]string, error) {
	g, ctx := errgroup.WithContext(ctx)

	var collections []string
	g.Go(func() error {
		return h.store.Ping(ctx)
	})
	g.Go(func() error {
		names, err := h.store.Collections(ctx)
		if err != nil {
			return err
		}
		collections = names
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return collections, nil
}

// truncateError formats an error for the diagnostic report, capped at
// diagErrorLimit bytes to keep the payload compact.
func truncateError(err error) string {
	s := err.Error()
	if len(s) > diagErrorLimit {
		return s[:diagErrorLimit]
	}
	return s
}
