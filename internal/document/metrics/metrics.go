package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds Prometheus metrics for the document domain.
type Metrics struct {
	DocumentsUploaded   prometheus.Counter
	WorkflowTransitions *prometheus.CounterVec
	ExtractionSeconds   prometheus.Histogram
}

// New creates and registers document metrics.
func New() *Metrics {
	return &Metrics{
		DocumentsUploaded: promauto.NewCounter(prometheus.CounterOpts{
			Name: "lexdraft_documents_uploaded_total",
			Help: "Total number of documents uploaded",
		}),
		WorkflowTransitions: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "lexdraft_workflow_transitions_total",
			Help: "Total number of workflow transitions by target state",
		}, []string{"to"}),
		ExtractionSeconds: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "lexdraft_text_extraction_seconds",
			Help:    "Upload text extraction latency",
			Buckets: []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60},
		}),
	}
}

func (m *Metrics) IncrementDocumentsUploaded() {
	if m != nil {
		m.DocumentsUploaded.Inc()
	}
}

func (m *Metrics) IncrementWorkflowTransitions(to string) {
	if m != nil {
		m.WorkflowTransitions.WithLabelValues(to).Inc()
	}
}

func (m *Metrics) ObserveExtraction(seconds float64) {
	if m != nil {
		m.ExtractionSeconds.Observe(seconds)
	}
}
