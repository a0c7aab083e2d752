package engine

import (
	"errors"
	"time"
)

// PoolConfig holds configuration for the processor pool.
type PoolConfig struct {
	// MinWorkers is the minimum number of processors to maintain.
	// The health sweep spawns workers until the pool holds at least this
	// many in total, idle and in use. 0 is replaced by the default.
	// Default: 1
	MinWorkers int

	// MaxWorkers is the maximum number of processors allowed.
	// 0 is replaced by the default; the pool is always bounded.
	// Default: 4
	MaxWorkers int

	// IdleTimeout retires idle workers after this duration, bounding the
	// Monte-Carlo scratch a dormant worker keeps alive.
	// 0 is replaced by the default.
	// Default: 5 minutes
	IdleTimeout time.Duration

	// MaxLifetime is the maximum lifetime of a worker. Workers older
	// than this are retired on their next health check.
	// 0 is replaced by the default.
	// Default: 30 minutes
	MaxLifetime time.Duration

	// MaxSetsPerWorker retires a worker after it has processed this many
	// vector sets. 0 disables the cap.
	// Default: 0
	MaxSetsPerWorker uint64

	// HealthCheckInterval is the interval between health sweeps over idle
	// workers. 0 is replaced by the default (on-acquire checks also run).
	// Default: 30 seconds
	HealthCheckInterval time.Duration

	// WaitTimeout is how long Acquire waits for a worker when the pool is
	// exhausted. 0 is replaced by the default; TryAcquire is the form that
	// returns ErrPoolExhausted at once instead of waiting.
	// Default: 30 seconds
	WaitTimeout time.Duration

	// Observer receives pool lifecycle and statistics events.
	// Optional - if nil, events are not reported.
	Observer PoolObserver
}

// DefaultPoolConfig returns a PoolConfig with sensible defaults.
func DefaultPoolConfig() PoolConfig {
	return PoolConfig{
		MinWorkers:          1,
		MaxWorkers:          4,
		IdleTimeout:         5 * time.Minute,
		MaxLifetime:         30 * time.Minute,
		HealthCheckInterval: 30 * time.Second,
		WaitTimeout:         30 * time.Second,
	}
}

// Validate checks the configuration for errors.
func (c *PoolConfig) Validate() error {
	if c.MinWorkers < 0 {
		return errors.New("pool: MinWorkers cannot be negative")
	}
	if c.MaxWorkers < 0 {
		return errors.New("pool: MaxWorkers cannot be negative")
	}
	if c.MaxWorkers > 0 && c.MinWorkers > c.MaxWorkers {
		return errors.New("pool: MinWorkers cannot exceed MaxWorkers")
	}
	if c.IdleTimeout < 0 {
		return errors.New("pool: IdleTimeout cannot be negative")
	}
	if c.MaxLifetime < 0 {
		return errors.New("pool: MaxLifetime cannot be negative")
	}
	if c.HealthCheckInterval < 0 {
		return errors.New("pool: HealthCheckInterval cannot be negative")
	}
	if c.WaitTimeout < 0 {
		return errors.New("pool: WaitTimeout cannot be negative")
	}
	return nil
}

// applyDefaults fills in zero values with defaults.
func (c *PoolConfig) applyDefaults() {
	defaults := DefaultPoolConfig()

	if c.MinWorkers == 0 {
		c.MinWorkers = defaults.MinWorkers
	}
	if c.MaxWorkers == 0 {
		c.MaxWorkers = defaults.MaxWorkers
	}
	if c.IdleTimeout == 0 {
		c.IdleTimeout = defaults.IdleTimeout
	}
	if c.MaxLifetime == 0 {
		c.MaxLifetime = defaults.MaxLifetime
	}
	if c.HealthCheckInterval == 0 {
		c.HealthCheckInterval = defaults.HealthCheckInterval
	}
	if c.WaitTimeout == 0 {
		c.WaitTimeout = defaults.WaitTimeout
	}
}
