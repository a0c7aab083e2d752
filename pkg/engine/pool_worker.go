package engine

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/abkarcher/libamvp/pkg/capability"
	"github.com/abkarcher/libamvp/pkg/handlers/symmetric"
	"github.com/abkarcher/libamvp/pkg/vectorset"
)

// pooledWorker is an internal representation of a processor in the pool.
// Each worker owns its own handler set - in particular its own symmetric
// handler and therefore its own Monte-Carlo state - and shares only the
// read-only capability registry with its siblings.
type pooledWorker struct {
	registry  *capability.Registry
	handlers  vectorset.Registry
	symmetric *symmetric.Handler

	pool          *Pool
	createdAt     time.Time
	lastUsed      time.Time
	useMu         sync.Mutex // Protects lastUsed updates
	inUse         atomic.Bool
	unhealthy     atomic.Bool
	setsProcessed atomic.Uint64
}

// newPooledWorker creates a new pooled processor wrapper.
func newPooledWorker(registry *capability.Registry, pool *Pool) *pooledWorker {
	now := time.Now()
	sym := symmetric.New()
	return &pooledWorker{
		registry:  registry,
		handlers:  newHandlerRegistry(sym),
		symmetric: sym,
		pool:      pool,
		createdAt: now,
		lastUsed:  now,
	}
}

// process runs one vector set on this worker's handler set.
func (pw *pooledWorker) process(raw []byte) ([]byte, error) {
	pw.setsProcessed.Add(1)
	resp, err := vectorset.Dispatch(pw.registry, pw.handlers, raw)
	if err != nil {
		pw.symmetric.MCTCleanup()
		return nil, err
	}
	return resp, nil
}

// retire releases any state the worker still holds.
func (pw *pooledWorker) retire() {
	pw.symmetric.MCTCleanup()
}

// markUsed updates the last used timestamp.
func (pw *pooledWorker) markUsed() {
	pw.useMu.Lock()
	pw.lastUsed = time.Now()
	pw.useMu.Unlock()
}

// getLastUsed returns the last used time safely.
func (pw *pooledWorker) getLastUsed() time.Time {
	pw.useMu.Lock()
	defer pw.useMu.Unlock()
	return pw.lastUsed
}

// age returns how old the worker is.
func (pw *pooledWorker) age() time.Duration {
	return time.Since(pw.createdAt)
}

// idleTime returns how long the worker has been idle.
func (pw *pooledWorker) idleTime() time.Duration {
	return time.Since(pw.getLastUsed())
}

// PoolWorker is the public handle returned to users from Acquire.
// It wraps a processor and provides Release/Close methods.
type PoolWorker struct {
	pw       *pooledWorker
	released atomic.Bool
}

// newPoolWorker creates a new PoolWorker handle for a pooled processor.
func newPoolWorker(pw *pooledWorker) *PoolWorker {
	return &PoolWorker{pw: pw}
}

// Process runs one vector set through this worker's handler set.
func (w *PoolWorker) Process(raw []byte) ([]byte, error) {
	if w.released.Load() {
		return nil, ErrWorkerReleased
	}
	return w.pw.process(raw)
}

// MCTCleanup releases the worker's Monte-Carlo context if one is live.
func (w *PoolWorker) MCTCleanup() {
	if w.released.Load() {
		return
	}
	w.pw.symmetric.MCTCleanup()
}

// Release returns the worker to the pool for reuse.
// After calling Release, the PoolWorker should not be used.
func (w *PoolWorker) Release() error {
	if !w.released.CompareAndSwap(false, true) {
		return nil // Already released, idempotent
	}
	w.pw.markUsed()
	return w.pw.pool.release(w.pw)
}

// Close marks the worker as unhealthy and removes it from the pool.
// Use this instead of Release when processing left the worker in an
// unknown state.
func (w *PoolWorker) Close() error {
	if !w.released.CompareAndSwap(false, true) {
		return nil // Already released/closed
	}
	w.pw.unhealthy.Store(true)
	return w.pw.pool.release(w.pw)
}

// SetsProcessed returns how many vector sets this worker has run.
func (w *PoolWorker) SetsProcessed() uint64 {
	return w.pw.setsProcessed.Load()
}

// CreatedAt returns when the worker was created.
func (w *PoolWorker) CreatedAt() time.Time {
	return w.pw.createdAt
}

// ErrWorkerReleased is returned when trying to use a released worker.
var ErrWorkerReleased = &poolError{msg: "pool: worker already released"}

// poolError is a simple error type for pool-related errors.
type poolError struct {
	msg string
}

func (e *poolError) Error() string {
	return e.msg
}
