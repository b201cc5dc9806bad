// Package metrics exposes Prometheus metrics for ETL runs and the read API.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Manager owns every collector and the registry they are registered on.
// ⭐ SSOT: 메트릭 정의는 여기서만
type Manager struct {
	registry *prometheus.Registry

	runsTotal       *prometheus.CounterVec
	runDuration     prometheus.Histogram
	stageDuration   *prometheus.HistogramVec
	matchesIngested prometheus.Counter
	sourcesSkipped  prometheus.Counter
	rowsPublished   *prometheus.GaugeVec
	lastSuccessUnix prometheus.Gauge

	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
}

// Option configures a Manager
type Option func(*options)

type options struct {
	namespace string
	buckets   []float64
	registry  *prometheus.Registry
}

// WithNamespace sets the metric namespace (default "epl_etl")
func WithNamespace(namespace string) Option {
	return func(o *options) {
		if namespace != "" {
			o.namespace = namespace
		}
	}
}

// WithHistogramBuckets overrides the duration buckets
func WithHistogramBuckets(buckets []float64) Option {
	return func(o *options) {
		if len(buckets) > 0 {
			o.buckets = buckets
		}
	}
}

// WithRegistry registers collectors on the given registry
func WithRegistry(registry *prometheus.Registry) Option {
	return func(o *options) {
		if registry != nil {
			o.registry = registry
		}
	}
}

// NewManager creates and registers all collectors
func NewManager(opts ...Option) *Manager {
	o := &options{
		namespace: "epl_etl",
		buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		registry:  prometheus.NewRegistry(),
	}
	for _, opt := range opts {
		opt(o)
	}

	m := &Manager{
		registry: o.registry,
		runsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: o.namespace,
			Name:      "runs_total",
			Help:      "Pipeline runs by final status",
		}, []string{"status"}),
		runDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: o.namespace,
			Name:      "run_duration_seconds",
			Help:      "Wall time of a full pipeline run",
			Buckets:   o.buckets,
		}),
		stageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: o.namespace,
			Name:      "stage_duration_seconds",
			Help:      "Wall time per pipeline stage",
			Buckets:   o.buckets,
		}, []string{"stage"}),
		matchesIngested: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: o.namespace,
			Name:      "matches_ingested_total",
			Help:      "Match records tagged and accepted",
		}),
		sourcesSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: o.namespace,
			Name:      "sources_skipped_total",
			Help:      "Sources dropped because their season could not be parsed",
		}),
		rowsPublished: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: o.namespace,
			Name:      "rows_published",
			Help:      "Rows written by the last successful run",
		}, []string{"table"}),
		lastSuccessUnix: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: o.namespace,
			Name:      "last_success_timestamp_seconds",
			Help:      "Unix time of the last successful run",
		}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: o.namespace,
			Subsystem: "api",
			Name:      "requests_total",
			Help:      "HTTP requests by route and status code",
		}, []string{"method", "route", "code"}),
		httpRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: o.namespace,
			Subsystem: "api",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency by route",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}

	m.registry.MustRegister(
		m.runsTotal,
		m.runDuration,
		m.stageDuration,
		m.matchesIngested,
		m.sourcesSkipped,
		m.rowsPublished,
		m.lastSuccessUnix,
		m.httpRequests,
		m.httpRequestDuration,
	)

	return m
}

// Registry returns the underlying registry
func (m *Manager) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format
func (m *Manager) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// RecordRun records a finished run
func (m *Manager) RecordRun(success bool, d time.Duration) {
	if m == nil {
		return
	}
	status := "failed"
	if success {
		status = "success"
		m.lastSuccessUnix.SetToCurrentTime()
	}
	m.runsTotal.WithLabelValues(status).Inc()
	m.runDuration.Observe(d.Seconds())
}

// ObserveStage records how long one stage took
func (m *Manager) ObserveStage(stage string, d time.Duration) {
	if m == nil {
		return
	}
	m.stageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

// AddMatches counts ingested match records
func (m *Manager) AddMatches(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.matchesIngested.Add(float64(n))
}

// IncSkippedSource counts a dropped source
func (m *Manager) IncSkippedSource() {
	if m == nil {
		return
	}
	m.sourcesSkipped.Inc()
}

// SetRowsPublished records the row count written for a table
func (m *Manager) SetRowsPublished(table string, n int) {
	if m == nil {
		return
	}
	m.rowsPublished.WithLabelValues(table).Set(float64(n))
}

// ObserveHTTP records one API request
func (m *Manager) ObserveHTTP(method, route string, code int, d time.Duration) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(code)).Inc()
	m.httpRequestDuration.WithLabelValues(method, route).Observe(d.Seconds())
}
