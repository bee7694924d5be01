package core

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/sony/gobreaker/v2"
)

// healthCheckTimeout bounds how long the health endpoint waits for all
// probes before reporting them as timed out.
const healthCheckTimeout = 2 * time.Second

// HealthProbe is a named readiness check for one backing component.
type HealthProbe interface {
	Name() string
	Check(ctx context.Context) error
}

type componentStatus struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

type healthResponse struct {
	Status     string                     `json:"status"`
	Components map[string]componentStatus `json:"components,omitempty"`
}

// HandleHealth runs all registered probes concurrently and reports aggregate
// health: 200 when every component passes, 503 otherwise. A probe that does
// not answer within healthCheckTimeout is reported as timed out rather than
// blocking the endpoint.
func (s *Server) HandleHealth(w http.ResponseWriter, r *http.Request) {
	if len(s.HealthProbes) == 0 {
		JSON(w, r, http.StatusOK, healthResponse{Status: "healthy"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
	defer cancel()

	var mu sync.Mutex
	results := make(map[string]componentStatus, len(s.HealthProbes))

	var wg sync.WaitGroup
	for _, probe := range s.HealthProbes {
		wg.Add(1)
		go func(p HealthProbe) {
			defer wg.Done()
			defer func() {
				if rvr := recover(); rvr != nil {
					mu.Lock()
					results[p.Name()] = componentStatus{
						Status:  "unhealthy",
						Message: fmt.Sprintf("probe panicked: %v", rvr),
					}
					mu.Unlock()
				}
			}()

			err := p.Check(ctx)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				results[p.Name()] = componentStatus{
					Status:  "unhealthy",
					Message: err.Error(),
				}
			} else {
				results[p.Name()] = componentStatus{Status: "healthy"}
			}
		}(probe)
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
	}

	mu.Lock()
	defer mu.Unlock()

	// Probes that never answered are reported as timed out.
	for _, probe := range s.HealthProbes {
		if _, ok := results[probe.Name()]; !ok {
			results[probe.Name()] = componentStatus{
				Status:  "unhealthy",
				Message: "health check timed out",
			}
		}
	}

	allHealthy := true
	for _, st := range results {
		if st.Status != "healthy" {
			allHealthy = false
			break
		}
	}

	status := http.StatusOK
	overall := "healthy"
	if !allHealthy {
		status = http.StatusServiceUnavailable
		overall = "unhealthy"
	}

	JSON(w, r, status, healthResponse{
		Status:     overall,
		Components: results,
	})
}

// Pinger is the slice of the document store the health probe needs.
type Pinger interface {
	Ping(ctx context.Context) error
}

// storeProbe checks document store connectivity through a circuit breaker
// so a down database is reported from breaker state instead of hammering
// the store with a fresh connection attempt on every poll.
type storeProbe struct {
	store   Pinger
	breaker *gobreaker.CircuitBreaker[struct{}]
}

// NewStoreProbe builds the database health probe. The breaker opens after
// three consecutive ping failures and re-probes after thirty seconds.
func NewStoreProbe(store Pinger) HealthProbe {
	return &storeProbe{
		store: store,
		breaker: gobreaker.NewCircuitBreaker[struct{}](gobreaker.Settings{
			Name:    "document-store",
			Timeout: 30 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 3
			},
		}),
	}
}

func (p *storeProbe) Name() string { return "database" }

func (p *storeProbe) Check(ctx context.Context) error {
	_, err := p.breaker.Execute(func() (struct{}, error) {
		return struct{}{}, p.store.Ping(ctx)
	})
	return err
}
