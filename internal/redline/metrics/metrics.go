package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds Prometheus metrics for the redline domain.
type Metrics struct {
	RedlinesCreated  prometheus.Counter
	RedlinesResolved *prometheus.CounterVec
	HunkDecisions    *prometheus.CounterVec
}

// New creates and registers redline metrics.
func New() *Metrics {
	return &Metrics{
		RedlinesCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "lexdraft_redlines_created_total",
			Help: "Total number of redlines created",
		}),
		RedlinesResolved: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "lexdraft_redlines_resolved_total",
			Help: "Total number of redlines resolved by outcome",
		}, []string{"outcome"}),
		HunkDecisions: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "lexdraft_redline_hunk_decisions_total",
			Help: "Total number of hunk decisions by verdict",
		}, []string{"decision"}),
	}
}

func (m *Metrics) IncrementRedlinesCreated() {
	if m != nil {
		m.RedlinesCreated.Inc()
	}
}

func (m *Metrics) IncrementRedlinesResolved(outcome string) {
	if m != nil {
		m.RedlinesResolved.WithLabelValues(outcome).Inc()
	}
}

func (m *Metrics) IncrementHunkDecisions(decision string) {
	if m != nil {
		m.HunkDecisions.WithLabelValues(decision).Inc()
	}
}
