// Package metrics exposes Prometheus counters for degraded reads, rule
// failures and HTTP traffic.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "toxref"

// Metrics owns a private registry and the application collectors.
type Metrics struct {
	registry           *prometheus.Registry
	sourceReadFailures *prometheus.CounterVec
	ruleFailures       *prometheus.CounterVec
	lookups            *prometheus.CounterVec
	requestDuration    *prometheus.HistogramVec
}

// New creates the collectors and registers them, along with the Go and
// process collectors, on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		sourceReadFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "source_read_failures_total",
			Help:      "Source table reads that degraded to zero rows.",
		}, []string{"table"}),
		ruleFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rule_failures_total",
			Help:      "Source rules that failed on a row and were treated as not firing.",
		}, []string{"table"}),
		lookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "lookups_total",
			Help:      "CAS numbers looked up, by operation.",
		}, []string{"operation"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		}, []string{"route", "method", "status"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{Namespace: namespace}),
		m.sourceReadFailures,
		m.ruleFailures,
		m.lookups,
		m.requestDuration,
	)
	return m
}

// SourceReadFailed counts a degraded table read. Its signature matches
// storage.FailureHook.
func (m *Metrics) SourceReadFailed(table string, _ error) {
	m.sourceReadFailures.WithLabelValues(table).Inc()
}

// RuleFailed counts a failed rule evaluation; it makes Metrics an
// engine.Observer.
func (m *Metrics) RuleFailed(table string, _ error) {
	m.ruleFailures.WithLabelValues(table).Inc()
}

// Lookups adds n looked-up CAS numbers for an operation.
func (m *Metrics) Lookups(operation string, n int) {
	m.lookups.WithLabelValues(operation).Add(float64(n))
}

// ObserveRequest records one served HTTP request.
func (m *Metrics) ObserveRequest(route, method string, status int, d time.Duration) {
	m.requestDuration.WithLabelValues(route, method, strconv.Itoa(status)).Observe(d.Seconds())
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{EnableOpenMetrics: true})
}
