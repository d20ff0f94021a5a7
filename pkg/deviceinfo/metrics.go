package deviceinfo

import (
	"expvar"
	"sync/atomic"
	"time"

	"github.com/opd-ai/go-deviceinfo/internal/bridge"
)

// Metrics provides dispatch metrics for the device-info bridge. It uses Go's
// expvar package for exposition, available at /debug/vars when an HTTP
// server is running.
//
// Thread-safe for concurrent use. Metrics implements the dispatcher's
// recorder, so every handled, failed and unhandled action is counted.
type Metrics struct {
	// Counters
	dispatches     atomic.Int64
	succeeded      atomic.Int64
	failed         atomic.Int64
	unhandled      atomic.Int64
	workerSubmits  atomic.Int64
	configReloads  atomic.Int64
	platformBuilds atomic.Int64
	errorsTotal    atomic.Int64

	// Latency tracking (stored as nanoseconds)
	latencyNs    atomic.Int64
	latencyCount atomic.Int64

	// Per-action dispatch counts
	byAction *expvar.Map

	// Registration tracking to prevent duplicate expvar registration
	registered atomic.Bool
}

// Verify interface implementation at compile time.
var _ bridge.Recorder = (*Metrics)(nil)

// NewMetrics creates a new Metrics instance.
// Call RegisterExpvar() to expose metrics via the /debug/vars endpoint.
func NewMetrics() *Metrics {
	return &Metrics{byAction: new(expvar.Map).Init()}
}

// RegisterExpvar registers all metrics with Go's expvar package.
// Safe to call multiple times; subsequent calls are no-ops.
func (m *Metrics) RegisterExpvar() {
	if m.registered.Swap(true) {
		return
	}

	expvar.Publish("deviceinfo_dispatches_total", expvar.Func(func() any { return m.dispatches.Load() }))
	expvar.Publish("deviceinfo_succeeded_total", expvar.Func(func() any { return m.succeeded.Load() }))
	expvar.Publish("deviceinfo_failed_total", expvar.Func(func() any { return m.failed.Load() }))
	expvar.Publish("deviceinfo_unhandled_total", expvar.Func(func() any { return m.unhandled.Load() }))
	expvar.Publish("deviceinfo_worker_submits_total", expvar.Func(func() any { return m.workerSubmits.Load() }))
	expvar.Publish("deviceinfo_config_reloads_total", expvar.Func(func() any { return m.configReloads.Load() }))
	expvar.Publish("deviceinfo_platform_builds_total", expvar.Func(func() any { return m.platformBuilds.Load() }))
	expvar.Publish("deviceinfo_errors_total", expvar.Func(func() any { return m.errorsTotal.Load() }))
	expvar.Publish("deviceinfo_dispatches_by_action", m.byAction)

	expvar.Publish("deviceinfo_latency_avg_ms", expvar.Func(func() any {
		count := m.latencyCount.Load()
		if count == 0 {
			return float64(0)
		}
		return float64(m.latencyNs.Load()) / float64(count) / 1e6
	}))
}

// RecordDispatch records a finished dispatch.
func (m *Metrics) RecordDispatch(action string, outcome bridge.Outcome, latency time.Duration) {
	m.dispatches.Add(1)
	switch outcome {
	case bridge.OutcomeSucceeded:
		m.succeeded.Add(1)
	case bridge.OutcomeFailed:
		m.failed.Add(1)
	}
	m.byAction.Add(action, 1)
	m.latencyNs.Add(latency.Nanoseconds())
	m.latencyCount.Add(1)
}

// RecordUnhandled records an action no operation serves.
func (m *Metrics) RecordUnhandled(action string) {
	m.unhandled.Add(1)
}

// RecordWorkerSubmit records an operation handed to the worker pool.
func (m *Metrics) RecordWorkerSubmit(action string) {
	m.workerSubmits.Add(1)
}

// IncrementConfigReloads records a configuration reload.
func (m *Metrics) IncrementConfigReloads() {
	m.configReloads.Add(1)
}

// IncrementPlatformBuilds records a platform being built and initialized.
func (m *Metrics) IncrementPlatformBuilds() {
	m.platformBuilds.Add(1)
}

// IncrementErrors records an error occurrence.
func (m *Metrics) IncrementErrors() {
	m.errorsTotal.Add(1)
}

// Snapshot returns a point-in-time copy of all metrics.
func (m *Metrics) Snapshot() MetricsSnapshot {
	byAction := make(map[string]int64)
	m.byAction.Do(func(kv expvar.KeyValue) {
		if v, ok := kv.Value.(*expvar.Int); ok {
			byAction[kv.Key] = v.Value()
		}
	})

	return MetricsSnapshot{
		Dispatches:     m.dispatches.Load(),
		Succeeded:      m.succeeded.Load(),
		Failed:         m.failed.Load(),
		Unhandled:      m.unhandled.Load(),
		WorkerSubmits:  m.workerSubmits.Load(),
		ConfigReloads:  m.configReloads.Load(),
		PlatformBuilds: m.platformBuilds.Load(),
		ErrorsTotal:    m.errorsTotal.Load(),
		ByAction:       byAction,
		LatencyAvg:     safeDivide(m.latencyNs.Load(), m.latencyCount.Load()),
	}
}

// MetricsSnapshot is a point-in-time copy of all metrics.
type MetricsSnapshot struct {
	Dispatches     int64
	Succeeded      int64
	Failed         int64
	Unhandled      int64
	WorkerSubmits  int64
	ConfigReloads  int64
	PlatformBuilds int64
	ErrorsTotal    int64

	// ByAction counts finished dispatches per action name.
	ByAction map[string]int64

	// LatencyAvg is the mean operation latency.
	LatencyAvg time.Duration
}

// Reset clears all metrics. Useful for testing.
func (m *Metrics) Reset() {
	m.dispatches.Store(0)
	m.succeeded.Store(0)
	m.failed.Store(0)
	m.unhandled.Store(0)
	m.workerSubmits.Store(0)
	m.configReloads.Store(0)
	m.platformBuilds.Store(0)
	m.errorsTotal.Store(0)
	m.latencyNs.Store(0)
	m.latencyCount.Store(0)
	m.byAction.Init()
}

// safeDivide performs safe division, returning 0 for divide by zero.
func safeDivide(total, count int64) time.Duration {
	if count == 0 {
		return 0
	}
	return time.Duration(total / count)
}

// defaultMetrics is a global metrics instance for convenience.
var defaultMetrics = NewMetrics()

// DefaultMetrics returns the global default Metrics instance.
func DefaultMetrics() *Metrics {
	return defaultMetrics
}
