// Package metrics exposes Prometheus collectors for authentication and library scans.
//
// A nil *Metrics is valid and records nothing, so components can be built without it.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Auth outcomes.
const (
	OutcomeSuccess            = "success"
	OutcomeInvalidCredentials = "invalid_credentials"
	OutcomeDuplicate          = "duplicate"
	OutcomeError              = "error"
)

// Import outcomes.
const (
	ImportImported = "imported"
	ImportSkipped  = "skipped"
	ImportFailed   = "failed"
)

type Metrics struct {
	reg *prometheus.Registry

	authAttempts *prometheus.CounterVec
	rehashes     *prometheus.CounterVec
	hashDuration prometheus.Histogram
	imports      *prometheus.CounterVec
	scanDuration prometheus.Histogram
}

// New registers all collectors, plus the Go and process collectors, on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)

	return &Metrics{
		reg: reg,
		authAttempts: f.NewCounterVec(prometheus.CounterOpts{
			Name: "visiverse_auth_attempts_total",
			Help: "Register and authenticate calls by operation and outcome",
		}, []string{"operation", "outcome"}),
		rehashes: f.NewCounterVec(prometheus.CounterOpts{
			Name: "visiverse_auth_rehash_total",
			Help: "Opportunistic password rehashes by outcome",
		}, []string{"outcome"}),
		hashDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "visiverse_auth_hash_duration_seconds",
			Help:    "Latency of password hash and verify computations",
			Buckets: prometheus.DefBuckets,
		}),
		imports: f.NewCounterVec(prometheus.CounterOpts{
			Name: "visiverse_library_imports_total",
			Help: "Files seen by the library importer by outcome",
		}, []string{"outcome"}),
		scanDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "visiverse_library_scan_duration_seconds",
			Help:    "Duration of full library scans",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 12),
		}),
	}
}

func (m *Metrics) AuthAttempt(operation, outcome string) {
	if m == nil {
		return
	}
	m.authAttempts.WithLabelValues(operation, outcome).Inc()
}

func (m *Metrics) Rehash(outcome string) {
	if m == nil {
		return
	}
	m.rehashes.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ObserveHash(d time.Duration) {
	if m == nil {
		return
	}
	m.hashDuration.Observe(d.Seconds())
}

func (m *Metrics) Import(outcome string) {
	if m == nil {
		return
	}
	m.imports.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ObserveScan(d time.Duration) {
	if m == nil {
		return
	}
	m.scanDuration.Observe(d.Seconds())
}

// Registry is exposed for tests and for callers adding their own collectors.
func (m *Metrics) Registry() *prometheus.Registry { return m.reg }

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{Registry: m.reg})
}
