package metrics

import (
	"io"
	"net/http"
	"sort"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/prometheus/common/expfmt"
)

// PrometheusExporter exports a Collector's metrics through a real
// prometheus.Registry, replacing a hand-rolled text writer with the
// client_golang collector/registry/expfmt pipeline.
type PrometheusExporter struct {
	collector *Collector
	namespace string
	registry  *prometheus.Registry
}

// NewPrometheusExporter creates a Prometheus exporter for the given
// collector. namespace is prepended to every metric name (e.g. "amvp").
func NewPrometheusExporter(c *Collector, namespace string) *PrometheusExporter {
	reg := prometheus.NewRegistry()
	e := &PrometheusExporter{collector: c, namespace: namespace, registry: reg}
	reg.MustRegister(&promAdapter{exporter: e})
	return e
}

// Handler returns an http.Handler serving metrics via promhttp.
func (e *PrometheusExporter) Handler() http.Handler {
	return promhttp.HandlerFor(e.registry, promhttp.HandlerOpts{})
}

// WriteMetrics gathers the registry and writes it in Prometheus text
// exposition format to w.
func (e *PrometheusExporter) WriteMetrics(w io.Writer) error {
	families, err := e.registry.Gather()
	if err != nil {
		return err
	}
	enc := expfmt.NewEncoder(w, expfmt.NewFormat(expfmt.TypeTextPlain))
	for _, mf := range families {
		if err := enc.Encode(mf); err != nil {
			return err
		}
	}
	return nil
}

// ServePrometheus starts an HTTP server serving Prometheus metrics. A
// convenience wrapper for simple standalone deployments.
func ServePrometheus(addr string, c *Collector, namespace string) error {
	exp := NewPrometheusExporter(c, namespace)
	mux := http.NewServeMux()
	mux.Handle("/metrics", exp.Handler())
	return newHTTPServer(addr, mux).ListenAndServe()
}

// promAdapter implements prometheus.Collector by reading a fresh Snapshot
// from the underlying Collector on every scrape, so the registry never
// holds stale state between calls.
type promAdapter struct {
	exporter *PrometheusExporter
}

var _ prometheus.Collector = (*promAdapter)(nil)

func (p *promAdapter) Describe(ch chan<- *prometheus.Desc) {
	// Dynamically described; client_golang permits unchecked collectors
	// as long as Collect emits metrics with stable Descs across calls.
}

func (p *promAdapter) Collect(ch chan<- prometheus.Metric) {
	ns := p.exporter.namespace
	snap := p.exporter.collector.Snapshot()
	labelNames, labelValues := promLabels(snap.Labels)

	gauge := func(name, help string, value float64) {
		desc := prometheus.NewDesc(ns+"_"+name, help, labelNames, nil)
		ch <- prometheus.MustNewConstMetric(desc, prometheus.GaugeValue, value, labelValues...)
	}
	counter := func(name, help string, value float64) {
		desc := prometheus.NewDesc(ns+"_"+name, help, labelNames, nil)
		ch <- prometheus.MustNewConstMetric(desc, prometheus.CounterValue, value, labelValues...)
	}
	histogram := func(name, help string, h HistogramSummary) {
		buckets := make(map[float64]uint64, len(h.Buckets))
		for _, b := range h.Buckets {
			buckets[b.UpperBound] = b.Count
		}
		desc := prometheus.NewDesc(ns+"_"+name, help, labelNames, nil)
		ch <- prometheus.MustNewConstHistogram(desc, h.Count, h.Sum, buckets, labelValues...)
	}

	gauge("vector_sets_active", "Number of currently active vector sets", float64(snap.VectorSetsActive))
	counter("vector_sets_total", "Total number of vector sets processed", float64(snap.VectorSetsTotal))
	counter("vector_sets_failed_total", "Total number of vector sets that failed outright", float64(snap.VectorSetsFailed))

	counter("test_cases_total", "Total number of test cases dispatched", float64(snap.TestCasesTotal))
	counter("test_cases_passed_total", "Total number of test cases that passed", float64(snap.TestCasesPassed))
	counter("test_cases_failed_total", "Total number of test cases that failed", float64(snap.TestCasesFailed))

	counter("errors_malformed_json_total", "Total malformed-json errors", float64(snap.MalformedJSON))
	counter("errors_missing_arg_total", "Total missing-argument errors", float64(snap.MissingArg))
	counter("errors_invalid_arg_total", "Total invalid-argument errors", float64(snap.InvalidArg))
	counter("errors_tc_invalid_data_total", "Total invalid test-case data errors", float64(snap.TCInvalidData))
	counter("errors_no_cap_total", "Total no-matching-capability errors", float64(snap.NoCap))
	counter("errors_unsupported_op_total", "Total unsupported-operation errors", float64(snap.UnsupportedOp))
	counter("errors_crypto_module_fail_total", "Total crypto module callback failures", float64(snap.CryptoModuleFail))
	counter("errors_malloc_fail_total", "Total allocation failures", float64(snap.MallocFail))
	counter("errors_duplicate_total", "Total duplicate capability registrations", float64(snap.Duplicate))

	counter("capabilities_registered_total", "Total capabilities registered", float64(snap.CapabilitiesRegistered))

	gauge("uptime_seconds", "Time since the collector was created", snap.Uptime.Seconds())

	histogram("vector_set_duration_milliseconds", "Vector-set processing duration in milliseconds", snap.ProcessingLatency)
	histogram("test_case_duration_microseconds", "Test-case dispatch duration in microseconds", snap.TestCaseLatency)
}

func promLabels(labels Labels) (names []string, values []string) {
	keys := make([]string, 0, len(labels))
	for k := range labels {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		names = append(names, k)
		values = append(values, labels[k])
	}
	return names, values
}
