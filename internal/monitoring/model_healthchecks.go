package monitoring

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

const (
	HEALTHCHECK_TIMER   = 15 * time.Second
	HEALTHCHECK_TIMEOUT = 5 * time.Second
)

// Probe returns nil when the dependency it checks can serve requests.
type Probe func(ctx context.Context) error

// HealthMonitor runs every probe on a fixed interval and keeps the last
// verdict per probe.
type HealthMonitor struct {
	probes   map[string]Probe
	interval time.Duration
	healthy  atomic.Bool

	mu       sync.RWMutex
	failures map[string]string
}

func NewHealthMonitor(interval time.Duration, probes map[string]Probe) *HealthMonitor {
	if interval <= 0 {
		interval = HEALTHCHECK_TIMER
	}
	m := &HealthMonitor{
		probes:   probes,
		interval: interval,
		failures: map[string]string{},
	}
	m.healthy.Store(true)
	return m
}

// Run probes once immediately and then on every tick until ctx is done.
func (m *HealthMonitor) Run(ctx context.Context) {
	m.Check(ctx)

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.Check(ctx)
		}
	}
}

// Check runs every probe once and records the outcome.
func (m *HealthMonitor) Check(ctx context.Context) bool {
	failures := map[string]string{}
	for name, probe := range m.probes {
		probeCtx, cancel := context.WithTimeout(ctx, HEALTHCHECK_TIMEOUT)
		err := probe(probeCtx)
		cancel()
		if err != nil {
			failures[name] = err.Error()
			slog.Warn("[HealthCheck] dependency is unhealthy",
				slog.String("probe", name),
				slog.String("error", err.Error()))
		}
	}

	m.mu.Lock()
	m.failures = failures
	m.mu.Unlock()

	healthy := len(failures) == 0
	if was := m.healthy.Swap(healthy); was != healthy && healthy {
		slog.Info("[HealthCheck] all dependencies recovered")
	}
	return healthy
}

func (m *HealthMonitor) Healthy() bool {
	return m.healthy.Load()
}

// Failures returns the last error message per failing probe.
func (m *HealthMonitor) Failures() map[string]string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string]string, len(m.failures))
	for k, v := range m.failures {
		out[k] = v
	}
	return out
}
