package metrics

import (
	"testing"
	"time"

	"github.com/abkarcher/libamvp/internal/errors"
)

func TestNewCollector(t *testing.T) {
	labels := Labels{"instance": "test"}
	c := NewCollector(labels)

	if c == nil {
		t.Fatal("expected non-nil collector")
	}

	snap := c.Snapshot()
	if snap.Labels["instance"] != "test" {
		t.Errorf("expected label instance=test, got %v", snap.Labels)
	}
}

func TestCollectorVectorSetMetrics(t *testing.T) {
	c := NewCollector(nil)

	c.VectorSetStarted()
	c.VectorSetStarted()
	snap := c.Snapshot()
	if snap.VectorSetsActive != 2 {
		t.Errorf("expected 2 active vector sets, got %d", snap.VectorSetsActive)
	}
	if snap.VectorSetsTotal != 2 {
		t.Errorf("expected 2 total vector sets, got %d", snap.VectorSetsTotal)
	}

	c.VectorSetCompleted()
	snap = c.Snapshot()
	if snap.VectorSetsActive != 1 {
		t.Errorf("expected 1 active vector set, got %d", snap.VectorSetsActive)
	}
	if snap.VectorSetsTotal != 2 {
		t.Errorf("expected 2 total vector sets, got %d", snap.VectorSetsTotal)
	}

	c.VectorSetFailed()
	snap = c.Snapshot()
	if snap.VectorSetsFailed != 1 {
		t.Errorf("expected 1 failed vector set, got %d", snap.VectorSetsFailed)
	}
}

func TestCollectorTestCaseMetrics(t *testing.T) {
	c := NewCollector(nil)

	c.RecordTestCase(true)
	c.RecordTestCase(true)
	c.RecordTestCase(false)

	snap := c.Snapshot()
	if snap.TestCasesTotal != 3 {
		t.Errorf("expected 3 total test cases, got %d", snap.TestCasesTotal)
	}
	if snap.TestCasesPassed != 2 {
		t.Errorf("expected 2 passed test cases, got %d", snap.TestCasesPassed)
	}
	if snap.TestCasesFailed != 1 {
		t.Errorf("expected 1 failed test case, got %d", snap.TestCasesFailed)
	}
}

func TestCollectorErrorMetrics(t *testing.T) {
	c := NewCollector(nil)

	c.RecordError(errors.KindMalformedJSON)
	c.RecordError(errors.KindNoCap)
	c.RecordError(errors.KindCryptoModuleFail)
	c.RecordError(errors.KindCryptoModuleFail)

	snap := c.Snapshot()
	if snap.MalformedJSON != 1 {
		t.Errorf("expected 1 malformed json error, got %d", snap.MalformedJSON)
	}
	if snap.NoCap != 1 {
		t.Errorf("expected 1 no-cap error, got %d", snap.NoCap)
	}
	if snap.CryptoModuleFail != 2 {
		t.Errorf("expected 2 crypto module failures, got %d", snap.CryptoModuleFail)
	}
}

func TestCollectorLatencyMetrics(t *testing.T) {
	c := NewCollector(nil)

	c.RecordProcessingLatency(100 * time.Millisecond)
	c.RecordProcessingLatency(200 * time.Millisecond)
	c.RecordTestCaseLatency(10 * time.Microsecond)

	snap := c.Snapshot()
	if snap.ProcessingLatency.Count != 2 {
		t.Errorf("expected 2 processing latency observations, got %d", snap.ProcessingLatency.Count)
	}
	if snap.ProcessingLatency.Mean != 150 {
		t.Errorf("expected mean processing latency 150ms, got %.2f", snap.ProcessingLatency.Mean)
	}
	if snap.TestCaseLatency.Count != 1 {
		t.Errorf("expected 1 test case latency observation, got %d", snap.TestCaseLatency.Count)
	}
}

func TestCollectorCapabilitiesRegistered(t *testing.T) {
	c := NewCollector(nil)
	c.RecordCapabilityRegistered()
	c.RecordCapabilityRegistered()

	snap := c.Snapshot()
	if snap.CapabilitiesRegistered != 2 {
		t.Errorf("expected 2 registered capabilities, got %d", snap.CapabilitiesRegistered)
	}
}

func TestCollectorReset(t *testing.T) {
	c := NewCollector(nil)

	c.VectorSetStarted()
	c.RecordTestCase(true)
	c.RecordError(errors.KindNoCap)

	snap := c.Snapshot()
	if snap.VectorSetsActive != 1 || snap.TestCasesTotal != 1 {
		t.Fatal("metrics not recorded")
	}

	c.Reset()

	snap = c.Snapshot()
	if snap.VectorSetsActive != 0 {
		t.Errorf("expected 0 active vector sets after reset, got %d", snap.VectorSetsActive)
	}
	if snap.TestCasesTotal != 0 {
		t.Errorf("expected 0 test cases after reset, got %d", snap.TestCasesTotal)
	}
	if snap.NoCap != 0 {
		t.Errorf("expected 0 no-cap errors after reset, got %d", snap.NoCap)
	}
}

func TestCollectorUptime(t *testing.T) {
	c := NewCollector(nil)
	time.Sleep(10 * time.Millisecond)

	snap := c.Snapshot()
	if snap.Uptime < 10*time.Millisecond {
		t.Errorf("expected uptime >= 10ms, got %v", snap.Uptime)
	}
}

func TestGlobalCollector(t *testing.T) {
	g := Global()
	if g == nil {
		t.Fatal("expected non-nil global collector")
	}

	g2 := Global()
	if g != g2 {
		t.Error("expected same global collector instance")
	}

	custom := NewCollector(Labels{"custom": "true"})
	SetGlobal(custom)
}

func TestCollectorConcurrency(t *testing.T) {
	c := NewCollector(nil)

	done := make(chan bool)
	for i := 0; i < 10; i++ {
		go func() {
			for j := 0; j < 100; j++ {
				c.VectorSetStarted()
				c.RecordTestCase(j%2 == 0)
				c.RecordProcessingLatency(time.Duration(j) * time.Millisecond)
				c.VectorSetCompleted()
			}
			done <- true
		}()
	}

	for i := 0; i < 10; i++ {
		<-done
	}

	snap := c.Snapshot()
	if snap.VectorSetsTotal != 1000 {
		t.Errorf("expected 1000 total vector sets, got %d", snap.VectorSetsTotal)
	}
	if snap.VectorSetsActive != 0 {
		t.Errorf("expected 0 active vector sets, got %d", snap.VectorSetsActive)
	}
}
