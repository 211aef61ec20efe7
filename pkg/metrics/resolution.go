package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// ResolutionMetrics records pricing resolution outcomes.
type ResolutionMetrics struct {
	duration    *prometheus.HistogramVec
	lines       *prometheus.CounterVec
	diagnostics *prometheus.CounterVec
}

// NewResolutionMetrics registers the resolution metrics on the provided registerer.
func NewResolutionMetrics(reg prometheus.Registerer) *ResolutionMetrics {
	if reg == nil {
		return &ResolutionMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "pricing_resolve_duration_seconds",
		Help:    "Duration of transaction pricing resolution in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"intent"})
	lines := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "pricing_lines_resolved_total",
		Help: "Resolved transaction lines by price source.",
	}, []string{"source"})
	diagnostics := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "pricing_rule_diagnostics_total",
		Help: "Rule evaluation diagnostics emitted during resolution.",
	}, []string{"kind"})
	reg.MustRegister(duration, lines, diagnostics)
	return &ResolutionMetrics{
		duration:    duration,
		lines:       lines,
		diagnostics: diagnostics,
	}
}

// ObserveDuration records how long one resolution call took.
func (m *ResolutionMetrics) ObserveDuration(intent string, duration time.Duration) {
	if m == nil || m.duration == nil {
		return
	}
	m.duration.WithLabelValues(normalizeLabel(intent)).Observe(duration.Seconds())
}

// IncLine counts one resolved line by its price source.
func (m *ResolutionMetrics) IncLine(source string) {
	if m == nil || m.lines == nil {
		return
	}
	m.lines.WithLabelValues(normalizeLabel(source)).Inc()
}

// IncDiagnostic counts one rule diagnostic by kind.
func (m *ResolutionMetrics) IncDiagnostic(kind string) {
	if m == nil || m.diagnostics == nil {
		return
	}
	m.diagnostics.WithLabelValues(normalizeLabel(kind)).Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
