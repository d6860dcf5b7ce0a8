// Package metrics collects per-run counters and writes them in the
// Prometheus text exposition format.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// FileName is the textfile written inside a run directory.
const FileName = "metrics.prom"

// Metrics holds the counters of a single run. A nil *Metrics ignores every
// observation.
type Metrics struct {
	registry *prometheus.Registry

	// Drift findings reported before render or preflight
	DriftErrors prometheus.Counter

	// Preflight violations by type and severity
	Violations *prometheus.CounterVec

	// Slides rewritten by remediation
	RemediatedSlides prometheus.Counter

	RenderedSlides prometheus.Counter
	BoundFields    prometheus.Counter

	// Wall time of each pipeline stage
	StageDuration *prometheus.HistogramVec
}

// New registers the run metrics on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	return &Metrics{
		registry: reg,
		DriftErrors: factory.NewCounter(prometheus.CounterOpts{
			Name: "deckgen_drift_errors_total",
			Help: "Catalog/template drift findings",
		}),
		Violations: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "deckgen_preflight_violations_total",
			Help: "Preflight violations by type and severity",
		}, []string{"type", "severity"}),
		RemediatedSlides: factory.NewCounter(prometheus.CounterOpts{
			Name: "deckgen_remediated_slides_total",
			Help: "Slides changed by preflight remediation",
		}),
		RenderedSlides: factory.NewCounter(prometheus.CounterOpts{
			Name: "deckgen_rendered_slides_total",
			Help: "Slides written to the output document",
		}),
		BoundFields: factory.NewCounter(prometheus.CounterOpts{
			Name: "deckgen_bound_fields_total",
			Help: "Field keys bound across rendered slides",
		}),
		StageDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "deckgen_stage_duration_seconds",
			Help:    "Duration of pipeline stages",
			Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"stage"}),
	}
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// ObserveDrift records the number of drift findings.
func (m *Metrics) ObserveDrift(findings int) {
	if m != nil {
		m.DriftErrors.Add(float64(findings))
	}
}

// IncrementViolation records one preflight violation.
func (m *Metrics) IncrementViolation(violationType, severity string) {
	if m != nil {
		m.Violations.WithLabelValues(violationType, severity).Inc()
	}
}

// ObserveRemediated records slides changed by remediation.
func (m *Metrics) ObserveRemediated(slides int) {
	if m != nil {
		m.RemediatedSlides.Add(float64(slides))
	}
}

// ObserveRendered records a finished render.
func (m *Metrics) ObserveRendered(slides, fields int) {
	if m != nil {
		m.RenderedSlides.Add(float64(slides))
		m.BoundFields.Add(float64(fields))
	}
}

// ObserveStage records how long a stage took.
func (m *Metrics) ObserveStage(stage string, d time.Duration) {
	if m != nil {
		m.StageDuration.WithLabelValues(stage).Observe(d.Seconds())
	}
}

// WriteFile writes every registered metric to path.
func (m *Metrics) WriteFile(path string) error {
	if m == nil {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("metrics: write %s: %w", path, err)
	}
	return nil
}
