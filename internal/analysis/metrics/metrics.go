package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds Prometheus metrics for the analysis domain.
type Metrics struct {
	JobsQueued    prometheus.Counter
	JobsProcessed *prometheus.CounterVec
	CacheHits     prometheus.Counter
}

// New creates and registers analysis metrics.
func New() *Metrics {
	return &Metrics{
		JobsQueued: promauto.NewCounter(prometheus.CounterOpts{
			Name: "lexdraft_analysis_jobs_queued_total",
			Help: "Total number of clause analysis jobs queued",
		}),
		JobsProcessed: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "lexdraft_analysis_jobs_processed_total",
			Help: "Total number of clause analysis jobs processed by outcome",
		}, []string{"outcome"}),
		CacheHits: promauto.NewCounter(prometheus.CounterOpts{
			Name: "lexdraft_analysis_cache_hits_total",
			Help: "Total number of analyses served from the content cache",
		}),
	}
}

func (m *Metrics) IncrementJobsQueued(n int) {
	if m != nil {
		m.JobsQueued.Add(float64(n))
	}
}

func (m *Metrics) IncrementJobsProcessed(outcome string) {
	if m != nil {
		m.JobsProcessed.WithLabelValues(outcome).Inc()
	}
}

func (m *Metrics) IncrementCacheHits() {
	if m != nil {
		m.CacheHits.Inc()
	}
}
