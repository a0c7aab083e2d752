package engine

import (
	"context"
	"sync"
	"time"

	"github.com/abkarcher/libamvp/pkg/capability"
)

// Pool-level errors.
var (
	// ErrPoolClosed is returned for operations on a closed pool.
	ErrPoolClosed = &poolError{msg: "pool: closed"}
	// ErrPoolExhausted is returned when no worker is available and the
	// pool is configured not to wait.
	ErrPoolExhausted = &poolError{msg: "pool: exhausted"}
	// ErrPoolTimeout is returned when Acquire timed out waiting for a worker.
	ErrPoolTimeout = &poolError{msg: "pool: acquire timeout"}
)

// Pool manages a pool of reusable vector-set processors. Each worker owns
// its own handler set and Monte-Carlo state; all workers share one
// read-only capability registry, which must not be mutated once the pool
// has started.
type Pool struct {
	registry *capability.Registry
	config   PoolConfig

	mu      sync.Mutex
	workers []*pooledWorker // All workers (idle + in-use)
	idle    []*pooledWorker // Available workers (LIFO for cache locality)
	waiters []chan *pooledWorker
	closed  bool
	stats   *PoolStats

	healthCtx    context.Context
	healthCancel context.CancelFunc
	healthWg     sync.WaitGroup
}

// NewPool creates a new processor pool over the given capability registry.
// The pool is not started until Start is called.
func NewPool(registry *capability.Registry, config PoolConfig) (*Pool, error) {
	config.applyDefaults()
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &Pool{
		registry: registry,
		config:   config,
		workers:  make([]*pooledWorker, 0, config.MaxWorkers),
		idle:     make([]*pooledWorker, 0, config.MaxWorkers),
		waiters:  make([]chan *pooledWorker, 0),
		stats:    newPoolStats(),
	}, nil
}

// Start initializes the pool and creates the minimum worker count.
// It also starts background health sweeping if configured.
func (p *Pool) Start(ctx context.Context) error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return ErrPoolClosed
	}
	p.mu.Unlock()

	// Pre-create minimum workers
	for i := 0; i < p.config.MinWorkers; i++ {
		pw := p.createWorker()
		p.mu.Lock()
		p.workers = append(p.workers, pw)
		p.idle = append(p.idle, pw)
		p.stats.setTotalCount(int64(len(p.workers)))
		p.stats.setIdleCount(int64(len(p.idle)))
		p.mu.Unlock()
	}

	// Start health sweeper if configured
	if p.config.HealthCheckInterval > 0 {
		p.healthCtx, p.healthCancel = context.WithCancel(context.Background())
		p.healthWg.Add(1)
		go p.healthChecker()
	}

	return nil
}

// Close retires all workers in the pool and prevents new acquires.
func (p *Pool) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true

	// Cancel health sweeper
	if p.healthCancel != nil {
		p.healthCancel()
	}

	// Close all waiting channels
	for _, ch := range p.waiters {
		close(ch)
	}
	p.waiters = nil

	// Collect workers to retire
	toRetire := make([]*pooledWorker, len(p.workers))
	copy(toRetire, p.workers)
	p.workers = nil
	p.idle = nil
	p.mu.Unlock()

	// Wait for health sweeper to stop
	p.healthWg.Wait()

	// Retire all workers outside the lock
	for _, pw := range toRetire {
		pw.retire()
		if p.config.Observer != nil {
			p.config.Observer.OnWorkerRetired("pool_closed")
		}
	}

	return nil
}

// Acquire gets a worker from the pool, waiting up to WaitTimeout if
// necessary. The returned PoolWorker must be released with Release() or
// discarded with Close().
func (p *Pool) Acquire(ctx context.Context) (*PoolWorker, error) {
	startTime := time.Now()

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil, ErrPoolClosed
	}

	// Try to get an idle worker
	for len(p.idle) > 0 {
		// Pop from end (LIFO for better cache locality)
		pw := p.idle[len(p.idle)-1]
		p.idle = p.idle[:len(p.idle)-1]

		// Quick health check
		if p.isHealthy(pw) {
			pw.inUse.Store(true)
			p.stats.recordAcquire(time.Since(startTime), true)
			p.mu.Unlock()

			if p.config.Observer != nil {
				p.config.Observer.OnAcquire(time.Since(startTime), true)
			}
			return newPoolWorker(pw), nil
		}

		// Worker has aged out, retire it
		p.removeWorkerLocked(pw)
		go func(pw *pooledWorker) {
			pw.retire()
			if p.config.Observer != nil {
				p.config.Observer.OnWorkerRetired("unhealthy")
			}
		}(pw)
	}

	// Check if we can create a new worker
	if p.config.MaxWorkers == 0 || len(p.workers) < p.config.MaxWorkers {
		p.mu.Unlock()
		return p.createAndAcquire(startTime)
	}

	// Pool is exhausted, wait for a worker
	if p.config.WaitTimeout == 0 {
		p.mu.Unlock()
		p.stats.recordAcquireTimeout()
		if p.config.Observer != nil {
			p.config.Observer.OnAcquireTimeout()
		}
		return nil, ErrPoolExhausted
	}

	// Create wait channel
	ch := make(chan *pooledWorker, 1)
	p.waiters = append(p.waiters, ch)
	p.stats.incrementWaiting()
	p.mu.Unlock()

	// Wait with timeout
	timeout := p.config.WaitTimeout
	if deadline, ok := ctx.Deadline(); ok {
		remaining := time.Until(deadline)
		if remaining < timeout {
			timeout = remaining
		}
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case pw := <-ch:
		p.stats.decrementWaiting()
		if pw == nil {
			// Channel closed, pool is closing
			return nil, ErrPoolClosed
		}

		// Quick health check
		if !p.isHealthy(pw) {
			p.mu.Lock()
			p.removeWorkerLocked(pw)
			p.mu.Unlock()
			go func() {
				pw.retire()
				if p.config.Observer != nil {
					p.config.Observer.OnWorkerRetired("unhealthy")
				}
			}()
			// Try again recursively
			return p.Acquire(ctx)
		}

		pw.inUse.Store(true)
		p.stats.recordAcquire(time.Since(startTime), true)
		if p.config.Observer != nil {
			p.config.Observer.OnAcquire(time.Since(startTime), true)
		}
		return newPoolWorker(pw), nil

	case <-timer.C:
		p.mu.Lock()
		p.removeWaiter(ch)
		p.mu.Unlock()
		p.stats.decrementWaiting()
		p.stats.recordAcquireTimeout()
		if p.config.Observer != nil {
			p.config.Observer.OnAcquireTimeout()
		}
		return nil, ErrPoolTimeout

	case <-ctx.Done():
		p.mu.Lock()
		p.removeWaiter(ch)
		p.mu.Unlock()
		p.stats.decrementWaiting()
		p.stats.recordAcquireTimeout()
		if p.config.Observer != nil {
			p.config.Observer.OnAcquireTimeout()
		}
		return nil, ctx.Err()
	}
}

// TryAcquire attempts to get a worker without waiting.
// Returns ErrPoolExhausted if no worker is available.
func (p *Pool) TryAcquire() (*PoolWorker, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 0)
	defer cancel()

	// Use a zero WaitTimeout to not wait
	p.mu.Lock()
	origTimeout := p.config.WaitTimeout
	p.config.WaitTimeout = 0
	p.mu.Unlock()

	w, err := p.Acquire(ctx)

	p.mu.Lock()
	p.config.WaitTimeout = origTimeout
	p.mu.Unlock()

	return w, err
}

// Stats returns the current pool statistics.
func (p *Pool) Stats() PoolStatsSnapshot {
	return p.stats.Snapshot()
}

// Size returns the current total number of workers (idle + in-use).
func (p *Pool) Size() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.workers)
}

// IdleCount returns the current number of idle workers.
func (p *Pool) IdleCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.idle)
}

// InUseCount returns the current number of in-use workers.
func (p *Pool) InUseCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.workers) - len(p.idle)
}

// release returns a worker to the pool.
func (p *Pool) release(pw *pooledWorker) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		// Pool is closed, just retire the worker
		go pw.retire()
		return nil
	}

	pw.inUse.Store(false)

	// If unhealthy, retire it
	if pw.unhealthy.Load() {
		p.removeWorkerLocked(pw)
		p.stats.recordWorkerRetired(false)
		go func() {
			pw.retire()
			if p.config.Observer != nil {
				p.config.Observer.OnWorkerRetired("marked_unhealthy")
			}
		}()
		return nil
	}

	// Check if there are waiters
	if len(p.waiters) > 0 {
		ch := p.waiters[0]
		p.waiters = p.waiters[1:]
		pw.inUse.Store(true) // Mark as in use before handing off
		ch <- pw
		return nil
	}

	// Return to idle pool
	p.idle = append(p.idle, pw)
	p.stats.recordRelease()

	if p.config.Observer != nil {
		p.config.Observer.OnRelease()
	}

	return nil
}

// createAndAcquire creates a new worker and returns it.
func (p *Pool) createAndAcquire(startTime time.Time) (*PoolWorker, error) {
	pw := p.createWorker()

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		pw.retire()
		return nil, ErrPoolClosed
	}

	pw.inUse.Store(true)
	p.workers = append(p.workers, pw)
	p.stats.setTotalCount(int64(len(p.workers)))
	p.stats.recordAcquire(time.Since(startTime), false)
	p.mu.Unlock()

	if p.config.Observer != nil {
		p.config.Observer.OnAcquire(time.Since(startTime), false)
	}

	return newPoolWorker(pw), nil
}

// createWorker creates a new processor worker.
func (p *Pool) createWorker() *pooledWorker {
	spawnStart := time.Now()
	pw := newPooledWorker(p.registry, p)

	spawnDuration := time.Since(spawnStart)
	p.stats.recordWorkerCreated(spawnDuration)

	if p.config.Observer != nil {
		p.config.Observer.OnWorkerCreated(spawnDuration)
	}

	return pw
}

// isHealthy performs a quick health check on a worker.
func (p *Pool) isHealthy(pw *pooledWorker) bool {
	// Check if marked unhealthy
	if pw.unhealthy.Load() {
		return false
	}

	// Check max lifetime
	if p.config.MaxLifetime > 0 && pw.age() > p.config.MaxLifetime {
		return false
	}

	// Check idle timeout
	if p.config.IdleTimeout > 0 && pw.idleTime() > p.config.IdleTimeout {
		return false
	}

	// Check per-worker set cap
	if p.config.MaxSetsPerWorker > 0 && pw.setsProcessed.Load() >= p.config.MaxSetsPerWorker {
		return false
	}

	return true
}

// removeWorkerLocked removes a worker from the pool (must hold lock).
func (p *Pool) removeWorkerLocked(pw *pooledWorker) {
	// Remove from workers
	for i, w := range p.workers {
		if w == pw {
			p.workers = append(p.workers[:i], p.workers[i+1:]...)
			break
		}
	}

	// Remove from idle if present
	for i, w := range p.idle {
		if w == pw {
			p.idle = append(p.idle[:i], p.idle[i+1:]...)
			break
		}
	}

	p.stats.setTotalCount(int64(len(p.workers)))
	p.stats.setIdleCount(int64(len(p.idle)))
}

// removeWaiter removes a wait channel from the waiters list.
func (p *Pool) removeWaiter(ch chan *pooledWorker) {
	for i, w := range p.waiters {
		if w == ch {
			p.waiters = append(p.waiters[:i], p.waiters[i+1:]...)
			return
		}
	}
}

// healthChecker runs periodic health sweeps over idle workers.
func (p *Pool) healthChecker() {
	defer p.healthWg.Done()

	ticker := time.NewTicker(p.config.HealthCheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-p.healthCtx.Done():
			return
		case <-ticker.C:
			p.runHealthCheck()
		}
	}
}

// runHealthCheck checks all idle workers and retires aged-out ones.
func (p *Pool) runHealthCheck() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}

	// Check idle workers
	var unhealthy []*pooledWorker
	newIdle := make([]*pooledWorker, 0, len(p.idle))

	for _, pw := range p.idle {
		healthy := p.isHealthy(pw)

		if p.config.Observer != nil {
			p.config.Observer.OnHealthCheck(healthy)
		}
		p.stats.recordHealthCheck(healthy)

		if healthy {
			newIdle = append(newIdle, pw)
		} else {
			unhealthy = append(unhealthy, pw)
		}
	}

	p.idle = newIdle
	for _, pw := range unhealthy {
		p.removeWorkerLocked(pw)
	}

	p.stats.setIdleCount(int64(len(p.idle)))
	p.mu.Unlock()

	// Retire aged-out workers outside the lock
	for _, pw := range unhealthy {
		pw.retire()
		if p.config.Observer != nil {
			p.config.Observer.OnWorkerRetired("health_check_failed")
		}
	}

	// Try to maintain minimum workers
	p.mu.Lock()
	deficit := p.config.MinWorkers - len(p.workers)
	if deficit > 0 && !p.closed {
		for i := 0; i < deficit; i++ {
			pw := p.createWorker()
			p.workers = append(p.workers, pw)
			p.idle = append(p.idle, pw)
		}
		p.stats.setTotalCount(int64(len(p.workers)))
		p.stats.setIdleCount(int64(len(p.idle)))
	}
	p.mu.Unlock()

	// Report stats to observer
	if p.config.Observer != nil {
		p.config.Observer.OnPoolStats(p.stats.Snapshot())
	}
}
