package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds Prometheus metrics for the tenant domain.
type Metrics struct {
	TenantsCreated   prometheus.Counter
	TenantsSuspended prometheus.Counter
}

// New creates and registers tenant metrics.
func New() *Metrics {
	return &Metrics{
		TenantsCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "lexdraft_tenants_created_total",
			Help: "Total number of tenants created",
		}),
		TenantsSuspended: promauto.NewCounter(prometheus.CounterOpts{
			Name: "lexdraft_tenants_suspended_total",
			Help: "Total number of tenant suspensions",
		}),
	}
}

func (m *Metrics) IncrementTenantsCreated() {
	if m != nil {
		m.TenantsCreated.Inc()
	}
}

func (m *Metrics) IncrementTenantsSuspended() {
	if m != nil {
		m.TenantsSuspended.Inc()
	}
}
