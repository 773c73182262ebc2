// Package metrics provides Prometheus metrics for the workbench.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the service.
type Metrics struct {
	LoadsTotal        *prometheus.CounterVec
	EmitDuration      prometheus.Histogram
	EmitFilesTotal    *prometheus.CounterVec
	WorkerErrorsTotal prometheus.Counter
	BufferFlushes     prometheus.Counter
	FetchCacheTotal   *prometheus.CounterVec

	registry *prometheus.Registry
}

// New creates and registers all metrics.
func New() *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		LoadsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "workbench_loads_total",
				Help: "Total workspace load attempts by status.",
			},
			[]string{"status"},
		),
		EmitDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "workbench_emit_duration_seconds",
				Help:    "Emit pipeline duration.",
				Buckets: prometheus.DefBuckets,
			},
		),
		EmitFilesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "workbench_emit_files_total",
				Help: "Total emitted output files by source partition.",
			},
			[]string{"partition"},
		),
		WorkerErrorsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "workbench_worker_errors_total",
				Help: "Total type-checking worker failures.",
			},
		),
		BufferFlushes: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "workbench_buffer_flushes_total",
				Help: "Total dirty buffers flushed into the bundle snapshot.",
			},
		),
		FetchCacheTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "workbench_fetch_cache_total",
				Help: "Bundle fetch cache lookups by result.",
			},
			[]string{"result"},
		),
		registry: reg,
	}

	reg.MustRegister(m.LoadsTotal)
	reg.MustRegister(m.EmitDuration)
	reg.MustRegister(m.EmitFilesTotal)
	reg.MustRegister(m.WorkerErrorsTotal)
	reg.MustRegister(m.BufferFlushes)
	reg.MustRegister(m.FetchCacheTotal)

	return m
}

// Handler returns an http.Handler for the /metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// RecordLoad increments the load counter.
func (m *Metrics) RecordLoad(status string) {
	m.LoadsTotal.WithLabelValues(status).Inc()
}

// RecordEmit records one emit pipeline run.
func (m *Metrics) RecordEmit(seconds float64, compiled, passthrough int) {
	m.EmitDuration.Observe(seconds)
	m.EmitFilesTotal.WithLabelValues("compiled").Add(float64(compiled))
	m.EmitFilesTotal.WithLabelValues("passthrough").Add(float64(passthrough))
}

// RecordWorkerError increments the worker failure counter.
func (m *Metrics) RecordWorkerError() {
	m.WorkerErrorsTotal.Inc()
}

// RecordFlush counts dirty buffers flushed by a snapshot.
func (m *Metrics) RecordFlush(n int) {
	m.BufferFlushes.Add(float64(n))
}

// RecordFetchCache records a bundle cache lookup.
func (m *Metrics) RecordFetchCache(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	m.FetchCacheTotal.WithLabelValues(result).Inc()
}
