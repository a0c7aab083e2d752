package metrics

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/abkarcher/libamvp/internal/errors"
)

// Collector aggregates metrics from vector-set processing: how many vector
// sets and test cases ran, how long they took, and which error kinds
// handlers reported.
type Collector struct {
	// Vector-set metrics
	vectorSetsActive  atomic.Uint64
	vectorSetsTotal   atomic.Uint64
	vectorSetsFailed  atomic.Uint64
	processingLatency *Histogram

	// Test-case metrics
	testCasesTotal  atomic.Uint64
	testCasesPassed atomic.Uint64
	testCasesFailed atomic.Uint64
	testCaseLatency *Histogram

	// Error-kind metrics, one counter per internal/errors.Kind
	malformedJSON    atomic.Uint64
	missingArg       atomic.Uint64
	invalidArg       atomic.Uint64
	tcInvalidData    atomic.Uint64
	noCap            atomic.Uint64
	unsupportedOp    atomic.Uint64
	cryptoModuleFail atomic.Uint64
	mallocFail       atomic.Uint64
	duplicate        atomic.Uint64

	// Registry metrics
	capabilitiesRegistered atomic.Uint64

	// Creation time for uptime tracking
	createdAt time.Time

	// Labels for this collector instance
	labels Labels
}

// Labels represents key-value pairs for metric labeling.
type Labels map[string]string

// NewCollector creates a new metrics collector.
func NewCollector(labels Labels) *Collector {
	if labels == nil {
		labels = make(Labels)
	}

	return &Collector{
		processingLatency: NewHistogram(VectorSetLatencyBuckets),
		testCaseLatency:   NewHistogram(TestCaseLatencyBuckets),
		createdAt:         time.Now(),
		labels:            labels,
	}
}

// Default bucket configurations for histograms.
var (
	// VectorSetLatencyBuckets for whole vector-set processing time (milliseconds).
	VectorSetLatencyBuckets = []float64{10, 25, 50, 100, 250, 500, 1000, 2500, 5000, 10000}

	// TestCaseLatencyBuckets for individual test-case dispatch time (microseconds).
	TestCaseLatencyBuckets = []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 5000}
)

// --- Vector-set metrics ---

// VectorSetStarted increments active and total vector-set counters.
func (c *Collector) VectorSetStarted() {
	c.vectorSetsActive.Add(1)
	c.vectorSetsTotal.Add(1)
}

// VectorSetCompleted decrements the active vector-set counter.
func (c *Collector) VectorSetCompleted() {
	for {
		current := c.vectorSetsActive.Load()
		if current == 0 {
			return
		}
		if c.vectorSetsActive.CompareAndSwap(current, current-1) {
			return
		}
	}
}

// VectorSetFailed records a vector set that could not be processed at all
// (malformed JSON, no matching capability for the whole group).
func (c *Collector) VectorSetFailed() {
	c.vectorSetsFailed.Add(1)
}

// RecordProcessingLatency records a whole vector set's processing duration.
func (c *Collector) RecordProcessingLatency(d time.Duration) {
	c.processingLatency.Observe(float64(d.Milliseconds()))
}

// --- Test-case metrics ---

// RecordTestCase records one test case's pass/fail outcome.
func (c *Collector) RecordTestCase(passed bool) {
	c.testCasesTotal.Add(1)
	if passed {
		c.testCasesPassed.Add(1)
	} else {
		c.testCasesFailed.Add(1)
	}
}

// RecordTestCaseLatency records a single test case's dispatch duration.
func (c *Collector) RecordTestCaseLatency(d time.Duration) {
	c.testCaseLatency.Observe(float64(d.Microseconds()))
}

// --- Error-kind metrics ---

// RecordError increments the counter matching kind's error taxonomy entry.
func (c *Collector) RecordError(kind errors.Kind) {
	switch kind {
	case errors.KindMalformedJSON:
		c.malformedJSON.Add(1)
	case errors.KindMissingArg:
		c.missingArg.Add(1)
	case errors.KindInvalidArg:
		c.invalidArg.Add(1)
	case errors.KindTCInvalidData:
		c.tcInvalidData.Add(1)
	case errors.KindNoCap:
		c.noCap.Add(1)
	case errors.KindUnsupportedOp:
		c.unsupportedOp.Add(1)
	case errors.KindCryptoModuleFail:
		c.cryptoModuleFail.Add(1)
	case errors.KindMallocFail:
		c.mallocFail.Add(1)
	case errors.KindDuplicate:
		c.duplicate.Add(1)
	}
}

// --- Registry metrics ---

// RecordCapabilityRegistered increments the registered-capability counter.
func (c *Collector) RecordCapabilityRegistered() {
	c.capabilitiesRegistered.Add(1)
}

// --- Snapshot ---

// Snapshot is a point-in-time view of all metrics.
type Snapshot struct {
	Timestamp time.Time
	Uptime    time.Duration

	VectorSetsActive uint64
	VectorSetsTotal  uint64
	VectorSetsFailed uint64

	TestCasesTotal  uint64
	TestCasesPassed uint64
	TestCasesFailed uint64

	MalformedJSON    uint64
	MissingArg       uint64
	InvalidArg       uint64
	TCInvalidData    uint64
	NoCap            uint64
	UnsupportedOp    uint64
	CryptoModuleFail uint64
	MallocFail       uint64
	Duplicate        uint64

	CapabilitiesRegistered uint64

	ProcessingLatency HistogramSummary
	TestCaseLatency   HistogramSummary

	Labels Labels
}

// Snapshot returns a point-in-time snapshot of all metrics.
func (c *Collector) Snapshot() Snapshot {
	return Snapshot{
		Timestamp:              time.Now(),
		Uptime:                 time.Since(c.createdAt),
		VectorSetsActive:       c.vectorSetsActive.Load(),
		VectorSetsTotal:        c.vectorSetsTotal.Load(),
		VectorSetsFailed:       c.vectorSetsFailed.Load(),
		TestCasesTotal:         c.testCasesTotal.Load(),
		TestCasesPassed:        c.testCasesPassed.Load(),
		TestCasesFailed:        c.testCasesFailed.Load(),
		MalformedJSON:          c.malformedJSON.Load(),
		MissingArg:             c.missingArg.Load(),
		InvalidArg:             c.invalidArg.Load(),
		TCInvalidData:          c.tcInvalidData.Load(),
		NoCap:                  c.noCap.Load(),
		UnsupportedOp:          c.unsupportedOp.Load(),
		CryptoModuleFail:       c.cryptoModuleFail.Load(),
		MallocFail:             c.mallocFail.Load(),
		Duplicate:              c.duplicate.Load(),
		CapabilitiesRegistered: c.capabilitiesRegistered.Load(),
		ProcessingLatency:      c.processingLatency.Summary(),
		TestCaseLatency:        c.testCaseLatency.Summary(),
		Labels:                 c.labels,
	}
}

// Reset clears all metrics (useful for testing).
func (c *Collector) Reset() {
	c.vectorSetsActive.Store(0)
	c.vectorSetsTotal.Store(0)
	c.vectorSetsFailed.Store(0)
	c.testCasesTotal.Store(0)
	c.testCasesPassed.Store(0)
	c.testCasesFailed.Store(0)
	c.malformedJSON.Store(0)
	c.missingArg.Store(0)
	c.invalidArg.Store(0)
	c.tcInvalidData.Store(0)
	c.noCap.Store(0)
	c.unsupportedOp.Store(0)
	c.cryptoModuleFail.Store(0)
	c.mallocFail.Store(0)
	c.duplicate.Store(0)
	c.capabilitiesRegistered.Store(0)
	c.processingLatency.Reset()
	c.testCaseLatency.Reset()
	c.createdAt = time.Now()
}

// --- Global Collector ---

var (
	globalCollector     *Collector
	globalCollectorOnce sync.Once
)

// Global returns the global metrics collector, creating one with default
// settings if not already initialized.
func Global() *Collector {
	globalCollectorOnce.Do(func() {
		globalCollector = NewCollector(Labels{"instance": "default"})
	})
	return globalCollector
}

// SetGlobal sets the global metrics collector. Should be called during
// initialization before any metrics are recorded.
func SetGlobal(c *Collector) {
	globalCollector = c
}
