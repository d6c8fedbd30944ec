// Package metrics exposes Prometheus metrics for the recommendation
// pipeline and its HTTP surface. All recording methods are safe on a nil
// *Metrics, which records nothing.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcomes of a recommendation request
const (
	OutcomeOK               = "ok"
	OutcomeValidation       = "validation_error"
	OutcomePolicyViolation  = "policy_violation"
	OutcomeInference        = "no_recommendation"
	OutcomeModelUnavailable = "model_unavailable"
	OutcomeError            = "error"
)

// DefaultNamespace prefixes every metric name
const DefaultNamespace = "invoice_advisor"

// Metrics holds the collectors on a private registry
type Metrics struct {
	registry *prometheus.Registry

	recommendations *prometheus.CounterVec
	stageDuration   *prometheus.HistogramVec
	adjustments     *prometheus.CounterVec
	modelInfo       *prometheus.GaugeVec
	httpRequests    *prometheus.CounterVec
	httpDuration    *prometheus.HistogramVec
}

// New creates the collectors. Process and Go runtime collectors are added
// when withRuntime is set.
func New(namespace string, withRuntime bool) *Metrics {
	if namespace == "" {
		namespace = DefaultNamespace
	}
	registry := prometheus.NewRegistry()
	if withRuntime {
		registry.MustRegister(
			prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{Namespace: namespace}),
			prometheus.NewGoCollector(),
		)
	}

	buckets := []float64{.0001, .0005, .001, .0025, .005, .01, .025, .05, .1, .25}

	m := &Metrics{
		registry: registry,
		recommendations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "recommendations_total",
			Help:      "Recommendation requests by outcome.",
		}, []string{"outcome"}),
		stageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "pipeline_stage_duration_seconds",
			Help:      "Duration of each pipeline stage.",
			Buckets:   buckets,
		}, []string{"stage"}),
		adjustments: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "policy_adjustments_total",
			Help:      "Business-rule adjustments applied to predictions, by rule.",
		}, []string{"rule"}),
		modelInfo: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "model_info",
			Help:      "Loaded model artifacts (value is always 1).",
		}, []string{"model", "version"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route and status.",
		}, []string{"method", "route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}

	registry.MustRegister(
		m.recommendations,
		m.stageDuration,
		m.adjustments,
		m.modelInfo,
		m.httpRequests,
		m.httpDuration,
	)
	return m
}

// Registry returns the underlying registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	})
}

// RecordOutcome counts one recommendation request
func (m *Metrics) RecordOutcome(outcome string) {
	if m == nil {
		return
	}
	m.recommendations.WithLabelValues(outcome).Inc()
}

// ObserveStage records the duration of a pipeline stage
func (m *Metrics) ObserveStage(stage string, d time.Duration) {
	if m == nil {
		return
	}
	m.stageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

// RecordAdjustment counts one rule adjustment
func (m *Metrics) RecordAdjustment(rule string) {
	if m == nil {
		return
	}
	m.adjustments.WithLabelValues(rule).Inc()
}

// SetModel marks a model version as loaded
func (m *Metrics) SetModel(name, version string) {
	if m == nil {
		return
	}
	m.modelInfo.WithLabelValues(name, version).Set(1)
}

// ObserveHTTP records one served HTTP request
func (m *Metrics) ObserveHTTP(method, route, status string, d time.Duration) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(method, route, status).Inc()
	m.httpDuration.WithLabelValues(method, route).Observe(d.Seconds())
}
