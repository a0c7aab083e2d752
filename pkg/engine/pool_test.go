package engine

import (
	"context"
	"testing"
	"time"

	"github.com/abkarcher/libamvp/pkg/capability"
	"github.com/abkarcher/libamvp/pkg/catalog"
)

func newPoolRegistry(t *testing.T) *capability.Registry {
	t.Helper()
	reg := capability.New()
	if err := reg.Enable(catalog.AESCBC, &xorCipher{}); err != nil {
		t.Fatal(err)
	}
	if err := reg.SetIntParm(catalog.AESCBC, capability.ParamKeyLen, 128); err != nil {
		t.Fatal(err)
	}
	return reg
}

func startPool(t *testing.T, cfg PoolConfig) *Pool {
	t.Helper()
	p, err := NewPool(newPoolRegistry(t), cfg)
	if err != nil {
		t.Fatal(err)
	}
	if err := p.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = p.Close() })
	return p
}

func TestPoolAcquireProcessRelease(t *testing.T) {
	p := startPool(t, PoolConfig{MinWorkers: 1, MaxWorkers: 2})

	w, err := p.Acquire(context.Background())
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	resp, err := w.Process([]byte(aesCBCVectorSet))
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if len(resp) == 0 {
		t.Error("empty response")
	}
	if w.SetsProcessed() != 1 {
		t.Errorf("SetsProcessed = %d, want 1", w.SetsProcessed())
	}
	if err := w.Release(); err != nil {
		t.Fatalf("Release: %v", err)
	}
	// Released handles are inert.
	if _, err := w.Process([]byte(aesCBCVectorSet)); err != ErrWorkerReleased {
		t.Errorf("Process after Release: %v", err)
	}
	if p.IdleCount() != 1 {
		t.Errorf("IdleCount = %d, want 1", p.IdleCount())
	}
}

func TestPoolReusesIdleWorker(t *testing.T) {
	p := startPool(t, PoolConfig{MinWorkers: 1, MaxWorkers: 2})

	w1, err := p.Acquire(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if err := w1.Release(); err != nil {
		t.Fatal(err)
	}
	w2, err := p.Acquire(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	defer w2.Release()

	if p.Size() != 1 {
		t.Errorf("pool grew to %d workers despite an idle one", p.Size())
	}
	stats := p.Stats()
	if stats.AcquiresTotal != 2 {
		t.Errorf("AcquiresTotal = %d, want 2", stats.AcquiresTotal)
	}
}

func TestPoolExhaustionWithoutWait(t *testing.T) {
	p := startPool(t, PoolConfig{MinWorkers: 1, MaxWorkers: 1})

	w, err := p.Acquire(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	defer w.Release()

	if _, err := p.TryAcquire(); err != ErrPoolExhausted {
		t.Errorf("TryAcquire on an exhausted pool: %v", err)
	}
}

func TestPoolWaiterGetsReleasedWorker(t *testing.T) {
	p := startPool(t, PoolConfig{MinWorkers: 1, MaxWorkers: 1, WaitTimeout: 2 * time.Second})

	w, err := p.Acquire(context.Background())
	if err != nil {
		t.Fatal(err)
	}

	done := make(chan error, 1)
	go func() {
		w2, err := p.Acquire(context.Background())
		if err != nil {
			done <- err
			return
		}
		done <- w2.Release()
	}()

	time.Sleep(50 * time.Millisecond)
	if err := w.Release(); err != nil {
		t.Fatal(err)
	}

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("waiter: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("waiter never received the released worker")
	}
}

func TestPoolCloseMarksWorkerUnhealthy(t *testing.T) {
	p := startPool(t, PoolConfig{MinWorkers: 1, MaxWorkers: 2})

	w, err := p.Acquire(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	if p.Size() != 0 {
		t.Errorf("Size = %d after discarding the only worker", p.Size())
	}
}

func TestPoolAcquireAfterClose(t *testing.T) {
	p := startPool(t, PoolConfig{MinWorkers: 1})
	if err := p.Close(); err != nil {
		t.Fatal(err)
	}
	if _, err := p.Acquire(context.Background()); err != ErrPoolClosed {
		t.Errorf("Acquire after Close: %v", err)
	}
}

func TestPoolConfigValidation(t *testing.T) {
	if _, err := NewPool(newPoolRegistry(t), PoolConfig{MinWorkers: 5, MaxWorkers: 2}); err == nil {
		t.Error("MinWorkers > MaxWorkers should fail validation")
	}
	if _, err := NewPool(newPoolRegistry(t), PoolConfig{IdleTimeout: -time.Second}); err == nil {
		t.Error("negative IdleTimeout should fail validation")
	}
}
