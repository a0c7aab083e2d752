// Package metrics provides observability primitives for libamvp: structured
// logging, Prometheus-compatible metrics, and distributed tracing of
// vector-set processing.
//
// # Overview
//
//   - Metrics collection (counters, histograms) for vector sets/test cases
//   - Prometheus export via github.com/prometheus/client_golang
//   - Distributed tracing (OpenTelemetry-compatible interface, `-tags otel`)
//   - Structured logging with levels, and a zap-backed production sink
//   - Health check endpoints, and a Server bundling them with /metrics
//
// # Quick Start
//
//	import "github.com/abkarcher/libamvp/pkg/metrics"
//
//	collector := metrics.NewCollector(metrics.Labels{"worker": "0"})
//	collector.VectorSetStarted()
//	collector.RecordTestCase(true)
//	collector.VectorSetCompleted()
//
//	exporter := metrics.NewPrometheusExporter(collector, "amvp")
//	http.Handle("/metrics", exporter.Handler())
//
// # Tracing
//
//	tracer := metrics.NewSimpleTracer()
//	metrics.SetTracer(tracer)
//
//	otelTracer := metrics.NewOTelTracer("libamvp")
//	metrics.SetTracer(otelTracer) // build with -tags otel
//
//	ctx, end := metrics.StartSpan(ctx, metrics.SpanProcessVectorSet)
//	defer end(nil)
//
// # Structured Logging
//
//	logger := metrics.NewLogger(
//		metrics.WithLevel(metrics.LevelInfo),
//		metrics.WithFormat(metrics.FormatJSON),
//		metrics.WithFields(metrics.Fields{"service": "libamvp"}),
//	)
//
//	logger.Info("processing test case", metrics.Fields{
//		"algorithm": "ACVP-AES-GCM",
//		"tgId":      1,
//		"tcId":      4,
//	})
//
//	zlog := metrics.NewZapLogger(metrics.LevelInfo, os.Stdout)
//	zlog.Info("engine started", zap.String("version", version.String()))
//
// # Health Checks
//
//	health := metrics.NewHealthCheck(collector, "1.0.0")
//	health.AddCheck("registry", func() error { return nil })
//	http.Handle("/healthz", health.LivenessHandler())
package metrics
