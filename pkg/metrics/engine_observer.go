package metrics

import (
	"context"
	"time"

	amvperrors "github.com/abkarcher/libamvp/internal/errors"
	"github.com/abkarcher/libamvp/pkg/engine"
)

// EngineObserver implements engine.Observer, recording every lifecycle
// event into a Collector, a structured Logger, and (optionally) a Tracer
// span per vector set.
type EngineObserver struct {
	collector *Collector
	logger    *Logger
	tracer    Tracer

	// end closes the span opened by the last OnVectorSetStart. The engine
	// processes one vector set at a time per Context, so a single slot
	// suffices.
	end SpanEnder
}

// EngineObserverConfig configures an engine observer. Zero-value fields
// fall back to the package globals (Global collector, GetLogger,
// GetTracer).
type EngineObserverConfig struct {
	Collector *Collector
	Logger    *Logger
	Tracer    Tracer
}

// NewEngineObserver creates an observer recording into the given sinks.
func NewEngineObserver(cfg EngineObserverConfig) *EngineObserver {
	if cfg.Collector == nil {
		cfg.Collector = Global()
	}
	if cfg.Logger == nil {
		cfg.Logger = GetLogger()
	}
	if cfg.Tracer == nil {
		cfg.Tracer = GetTracer()
	}
	return &EngineObserver{
		collector: cfg.Collector,
		logger:    cfg.Logger.Named("engine"),
		tracer:    cfg.Tracer,
	}
}

// Ensure EngineObserver implements engine.Observer.
var _ engine.Observer = (*EngineObserver)(nil)

// OnVectorSetStart implements engine.Observer.
func (o *EngineObserver) OnVectorSetStart() {
	o.collector.VectorSetStarted()
	_, o.end = o.tracer.StartSpan(context.Background(), SpanProcessVectorSet)
	o.logger.Debug("vector set started")
}

// OnVectorSetEnd implements engine.Observer.
func (o *EngineObserver) OnVectorSetEnd(algorithm string, duration time.Duration) {
	o.collector.VectorSetCompleted()
	o.collector.RecordProcessingLatency(duration)
	if o.end != nil {
		o.end(nil)
		o.end = nil
	}
	o.logger.Info("vector set processed", Fields{
		"algorithm":   algorithm,
		"duration_ms": duration.Milliseconds(),
	})
}

// OnVectorSetFailed implements engine.Observer.
func (o *EngineObserver) OnVectorSetFailed(err error) {
	o.collector.VectorSetCompleted()
	o.collector.VectorSetFailed()
	if kind, ok := amvperrors.KindOf(err); ok {
		o.collector.RecordError(kind)
	}
	if o.end != nil {
		o.end(err)
		o.end = nil
	}
	o.logger.Error("vector set failed", Fields{"error": err.Error()})
}

// OnRegistrationBuilt implements engine.Observer.
func (o *EngineObserver) OnRegistrationBuilt(capabilities int) {
	o.logger.Info("registration built", Fields{"capabilities": capabilities})
}
