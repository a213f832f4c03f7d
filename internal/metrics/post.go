// Package metrics exposes Prometheus metrics for post validation.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/forgo/micropost/internal/model"
)

const (
	namespace = "micropost"
	subsystem = "post"

	labelOutcome = "outcome"
	labelKind    = "kind"

	outcomeAccepted = "accepted"
	outcomeRejected = "rejected"
)

// PostMetrics counts validation outcomes and the violations behind rejections.
// It satisfies service.ValidationRecorder.
type PostMetrics struct {
	validations *prometheus.CounterVec
	violations  *prometheus.CounterVec
}

// NewPostMetrics creates the post counters and registers them on reg.
func NewPostMetrics(reg prometheus.Registerer) (*PostMetrics, error) {
	m := &PostMetrics{
		validations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "validations_total",
				Help:      "Number of post validations by outcome",
			},
			[]string{labelOutcome},
		),
		violations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "violations_total",
				Help:      "Number of post rule violations by kind",
			},
			[]string{labelKind},
		),
	}

	for _, c := range []prometheus.Collector{m.validations, m.violations} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}

	// Pre-populate label values so every series is exported from the start.
	m.validations.WithLabelValues(outcomeAccepted)
	m.validations.WithLabelValues(outcomeRejected)
	for _, k := range model.AllViolationKinds() {
		m.violations.WithLabelValues(string(k))
	}

	return m, nil
}

// RecordValidation counts one validation and each violation it produced.
func (m *PostMetrics) RecordValidation(v model.Violations) {
	if v.Empty() {
		m.validations.WithLabelValues(outcomeAccepted).Inc()
		return
	}
	m.validations.WithLabelValues(outcomeRejected).Inc()
	for _, k := range v.Kinds() {
		m.violations.WithLabelValues(string(k)).Inc()
	}
}

// Handler serves the metrics gathered by g in the Prometheus text format.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
