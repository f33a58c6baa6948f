package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the site module.
type Metrics struct {
	SitesCreated  prometheus.Counter
	GrantsCreated prometheus.Counter
	GrantsRevoked prometheus.Counter
	IsAdminDuration prometheus.Histogram
}

// New creates a Metrics instance with all site module metrics registered.
func New() *Metrics {
	return &Metrics{
		SitesCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "sightsign_sites_created_total",
			Help: "Total number of sites created",
		}),
		GrantsCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "sightsign_grants_created_total",
			Help: "Total number of admin grants created",
		}),
		GrantsRevoked: promauto.NewCounter(prometheus.CounterOpts{
			Name: "sightsign_grants_revoked_total",
			Help: "Total number of admin grants revoked",
		}),
		IsAdminDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "sightsign_is_admin_duration_seconds",
			Help:    "Duration of admin authorization lookups (validation critical path)",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),
	}
}
