// Package metrics exposes prometheus collectors for the risk engines.
package metrics

import (
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/aristath/sentinel-risk/internal/domain"
)

// Engine label values.
const (
	EngineVaR        = "var"
	EngineStress     = "stress"
	EngineCompliance = "compliance"
)

// Metrics holds the collectors on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	Computations *prometheus.CounterVec
	Duration     *prometheus.HistogramVec
	Runs         *prometheus.CounterVec
	Compliance   *prometheus.GaugeVec
}

// New creates and registers the collectors, plus the Go runtime and process collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		Computations: prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: "risk_computations_total", Help: "Risk computations by engine, method and outcome"},
			[]string{"engine", "method", "outcome"},
		),
		Duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "risk_computation_seconds",
				Help:    "Wall time of risk computations",
				Buckets: prometheus.ExponentialBuckets(0.0005, 4, 10),
			},
			[]string{"engine"},
		),
		Runs: prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: "risk_runs_total", Help: "Background runs by kind and final status"},
			[]string{"kind", "status"},
		),
		Compliance: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{Name: "risk_compliance_rules", Help: "Rules per status in the latest compliance report"},
			[]string{"status"},
		),
	}
	m.registry.MustRegister(
		m.Computations, m.Duration, m.Runs, m.Compliance,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Handler serves the registry in the prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Gatherer returns the underlying registry.
func (m *Metrics) Gatherer() prometheus.Gatherer {
	return m.registry
}

// ObserveComputation records one synchronous computation.
func (m *Metrics) ObserveComputation(engine, method string, err error, elapsed time.Duration) {
	m.Computations.WithLabelValues(engine, method, Outcome(err)).Inc()
	m.Duration.WithLabelValues(engine).Observe(elapsed.Seconds())
}

// ObserveRun implements work.Observer.
func (m *Metrics) ObserveRun(kind, status string, elapsed time.Duration) {
	m.Runs.WithLabelValues(kind, status).Inc()
	if elapsed > 0 {
		m.Duration.WithLabelValues(kind).Observe(elapsed.Seconds())
	}
}

// SetComplianceReport publishes the status counts of a report.
func (m *Metrics) SetComplianceReport(report domain.ComplianceReport) {
	m.Compliance.WithLabelValues(string(domain.StatusCompliant)).Set(float64(report.Compliant))
	m.Compliance.WithLabelValues(string(domain.StatusWarning)).Set(float64(report.Warnings))
	m.Compliance.WithLabelValues(string(domain.StatusViolation)).Set(float64(report.Violations))
}

// Outcome maps an engine error to a low-cardinality label value.
func Outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, domain.ErrCancelled):
		return "cancelled"
	case errors.Is(err, domain.ErrInsufficientData):
		return "insufficient_data"
	case errors.Is(err, domain.ErrInvalidConfiguration):
		return "invalid_configuration"
	case errors.Is(err, domain.ErrInvalidInput):
		return "invalid_input"
	default:
		return "error"
	}
}
