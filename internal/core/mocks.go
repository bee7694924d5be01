package core

import (
	"context"
	"sync"
	"time"
)

// --- MockMetricsCollector ---

// MockMetricsCollector implements MetricsCollector for testing. It records
// every call so tests can assert on what the middleware reported.
type MockMetricsCollector struct {
	// RecordRequestFunc, if set, is invoked instead of the default recording.
	RecordRequestFunc func(method, endpoint, status string, duration time.Duration)

	mu    sync.Mutex
	Calls []MetricsCall
}

// MetricsCall captures the arguments of one RecordRequest invocation.
type MetricsCall struct {
	Method   string
	Endpoint string
	Status   string
	Duration time.Duration
}

func (m *MockMetricsCollector) RecordRequest(method, endpoint, status string, duration time.Duration) {
	m.mu.Lock()
	m.Calls = append(m.Calls, MetricsCall{
		Method:   method,
		Endpoint: endpoint,
		Status:   status,
		Duration: duration,
	})
	m.mu.Unlock()

	if m.RecordRequestFunc != nil {
		m.RecordRequestFunc(method, endpoint, status, duration)
	}
}

// CallCount returns the number of recorded calls.
func (m *MockMetricsCollector) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Calls)
}

// --- MockProbe ---

// MockProbe implements HealthProbe for testing. It returns the configured
// error, or delegates to CheckFunc when set.
type MockProbe struct {
	// ProbeName is returned by Name.
	ProbeName string

	// Err is returned by Check when CheckFunc is nil.
	Err error

	// CheckFunc, if set, overrides the default behavior.
	CheckFunc func(ctx context.Context) error

	mu    sync.Mutex
	Calls int
}

func (m *MockProbe) Name() string {
	return m.ProbeName
}

func (m *MockProbe) Check(ctx context.Context) error {
	m.mu.Lock()
	m.Calls++
	m.mu.Unlock()

	if m.CheckFunc != nil {
		return m.CheckFunc(ctx)
	}
	return m.Err
}

// --- MockPinger ---

// MockPinger implements Pinger for testing store probes. It returns the
// configured error, or delegates to PingFunc when set.
type MockPinger struct {
	// Err is returned by Ping when PingFunc is nil.
	Err error

	// PingFunc, if set, overrides the default behavior.
	PingFunc func(ctx context.Context) error

	mu    sync.Mutex
	Calls int
}

func (m *MockPinger) Ping(ctx context.Context) error {
	m.mu.Lock()
	m.Calls++
	m.mu.Unlock()

	if m.PingFunc != nil {
		return m.PingFunc(ctx)
	}
	return m.Err
}

// CallCount returns the number of recorded calls.
func (m *MockPinger) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Calls
}

// Compile-time interface checks.
var (
	_ MetricsCollector = (*MockMetricsCollector)(nil)
	_ HealthProbe      = (*MockProbe)(nil)
	_ Pinger           = (*MockPinger)(nil)
)
