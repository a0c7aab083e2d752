package metrics

import (
	"sync/atomic"
	"time"

	"github.com/abkarcher/libamvp/pkg/engine"
)

// PoolMetricsObserver implements engine.PoolObserver and records metrics
// for a processor pool.
type PoolMetricsObserver struct {
	// Gauges (current state)
	workersTotal atomic.Int64
	workersIdle  atomic.Int64
	workersInUse atomic.Int64
	waitingCount atomic.Int64

	// Counters (cumulative)
	acquiresTotal        atomic.Uint64
	acquireTimeoutsTotal atomic.Uint64
	workersCreated       atomic.Uint64
	workersRetired       atomic.Uint64
	healthChecksTotal    atomic.Uint64
	healthChecksFailed   atomic.Uint64

	// Histograms
	acquireLatency *Histogram
	spawnLatency   *Histogram

	// Logger
	logger *Logger

	// Pool name/identifier for labeling
	poolName string
}

// Default bucket configurations for pool histograms.
var (
	// PoolAcquireLatencyBuckets for acquire duration (milliseconds).
	PoolAcquireLatencyBuckets = []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 5000}

	// PoolSpawnLatencyBuckets for worker spawn duration (microseconds);
	// spawning a processor allocates handler state but performs no I/O,
	// so the scale is far below a network dial's.
	PoolSpawnLatencyBuckets = []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 5000}
)

// PoolMetricsObserverConfig configures a pool metrics observer.
type PoolMetricsObserverConfig struct {
	Logger   *Logger
	PoolName string
}

// NewPoolMetricsObserver creates a new pool metrics observer.
func NewPoolMetricsObserver(cfg PoolMetricsObserverConfig) *PoolMetricsObserver {
	if cfg.Logger == nil {
		cfg.Logger = GetLogger()
	}
	if cfg.PoolName == "" {
		cfg.PoolName = "default"
	}

	return &PoolMetricsObserver{
		acquireLatency: NewHistogram(PoolAcquireLatencyBuckets),
		spawnLatency:   NewHistogram(PoolSpawnLatencyBuckets),
		logger:         cfg.Logger.Named("pool").With(Fields{"pool": cfg.PoolName}),
		poolName:       cfg.PoolName,
	}
}

// Ensure PoolMetricsObserver implements engine.PoolObserver.
var _ engine.PoolObserver = (*PoolMetricsObserver)(nil)

// OnAcquire implements engine.PoolObserver.
func (o *PoolMetricsObserver) OnAcquire(waitDuration time.Duration, reused bool) {
	o.acquiresTotal.Add(1)
	o.acquireLatency.Observe(float64(waitDuration.Milliseconds()))
	o.workersInUse.Add(1)
	if reused {
		o.workersIdle.Add(-1)
	}

	o.logger.Debug("worker acquired", Fields{
		"wait_ms": waitDuration.Milliseconds(),
		"reused":  reused,
	})
}

// OnAcquireTimeout implements engine.PoolObserver.
func (o *PoolMetricsObserver) OnAcquireTimeout() {
	o.acquireTimeoutsTotal.Add(1)
	o.logger.Warn("acquire timed out")
}

// OnRelease implements engine.PoolObserver.
func (o *PoolMetricsObserver) OnRelease() {
	current := o.workersInUse.Add(-1)
	if current < 0 {
		o.workersInUse.Store(0)
	}
	o.workersIdle.Add(1)
	o.logger.Debug("worker released")
}

// OnWorkerCreated implements engine.PoolObserver.
func (o *PoolMetricsObserver) OnWorkerCreated(spawnDuration time.Duration) {
	o.workersCreated.Add(1)
	o.workersTotal.Add(1)
	o.spawnLatency.Observe(float64(spawnDuration.Microseconds()))

	o.logger.Info("worker created", Fields{
		"spawn_us": spawnDuration.Microseconds(),
	})
}

// OnWorkerRetired implements engine.PoolObserver.
func (o *PoolMetricsObserver) OnWorkerRetired(reason string) {
	o.workersRetired.Add(1)
	o.workersTotal.Add(-1)

	o.logger.Info("worker retired", Fields{
		"reason": reason,
	})
}

// OnHealthCheck implements engine.PoolObserver.
func (o *PoolMetricsObserver) OnHealthCheck(healthy bool) {
	o.healthChecksTotal.Add(1)
	if !healthy {
		o.healthChecksFailed.Add(1)
		o.logger.Warn("health check failed")
	}
}

// OnPoolStats implements engine.PoolObserver.
func (o *PoolMetricsObserver) OnPoolStats(stats engine.PoolStatsSnapshot) {
	// Update gauges from authoritative stats
	o.workersTotal.Store(stats.WorkersTotal)
	o.workersIdle.Store(stats.WorkersIdle)
	o.workersInUse.Store(stats.WorkersInUse)
	o.waitingCount.Store(stats.WaitingCount)

	o.logger.Debug("pool stats", Fields{
		"total":      stats.WorkersTotal,
		"idle":       stats.WorkersIdle,
		"in_use":     stats.WorkersInUse,
		"waiting":    stats.WaitingCount,
		"acquires":   stats.AcquiresTotal,
		"timeouts":   stats.AcquireTimeoutsTotal,
		"created":    stats.WorkersCreated,
		"retired":    stats.WorkersRetired,
		"uptime_sec": stats.Uptime.Seconds(),
	})
}

// PoolMetricsSnapshot is a snapshot of pool metrics.
type PoolMetricsSnapshot struct {
	// Current state (gauges)
	WorkersTotal int64
	WorkersIdle  int64
	WorkersInUse int64
	WaitingCount int64

	// Cumulative counters
	AcquiresTotal        uint64
	AcquireTimeoutsTotal uint64
	WorkersCreated       uint64
	WorkersRetired       uint64
	HealthChecksTotal    uint64
	HealthChecksFailed   uint64

	// Histogram summaries
	AcquireLatency HistogramSummary
	SpawnLatency   HistogramSummary

	// Pool identifier
	PoolName string
}

// Snapshot returns a point-in-time snapshot of pool metrics.
func (o *PoolMetricsObserver) Snapshot() PoolMetricsSnapshot {
	return PoolMetricsSnapshot{
		WorkersTotal:         o.workersTotal.Load(),
		WorkersIdle:          o.workersIdle.Load(),
		WorkersInUse:         o.workersInUse.Load(),
		WaitingCount:         o.waitingCount.Load(),
		AcquiresTotal:        o.acquiresTotal.Load(),
		AcquireTimeoutsTotal: o.acquireTimeoutsTotal.Load(),
		WorkersCreated:       o.workersCreated.Load(),
		WorkersRetired:       o.workersRetired.Load(),
		HealthChecksTotal:    o.healthChecksTotal.Load(),
		HealthChecksFailed:   o.healthChecksFailed.Load(),
		AcquireLatency:       o.acquireLatency.Summary(),
		SpawnLatency:         o.spawnLatency.Summary(),
		PoolName:             o.poolName,
	}
}

// Reset clears all metrics (useful for testing).
func (o *PoolMetricsObserver) Reset() {
	o.workersTotal.Store(0)
	o.workersIdle.Store(0)
	o.workersInUse.Store(0)
	o.waitingCount.Store(0)
	o.acquiresTotal.Store(0)
	o.acquireTimeoutsTotal.Store(0)
	o.workersCreated.Store(0)
	o.workersRetired.Store(0)
	o.healthChecksTotal.Store(0)
	o.healthChecksFailed.Store(0)
	o.acquireLatency.Reset()
	o.spawnLatency.Reset()
}
