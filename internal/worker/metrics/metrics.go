package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the worker module.
type Metrics struct {
	WorkersRegistered    prometheus.Counter
	CredentialRetries    prometheus.Counter
	CredentialsReissued  prometheus.Counter
	RegisterDuration     prometheus.Histogram
}

// New creates a Metrics instance with all worker module metrics registered.
func New() *Metrics {
	return &Metrics{
		WorkersRegistered: promauto.NewCounter(prometheus.CounterOpts{
			Name: "sightsign_workers_registered_total",
			Help: "Total number of workers registered",
		}),
		CredentialRetries: promauto.NewCounter(prometheus.CounterOpts{
			Name: "sightsign_credential_issue_retries_total",
			Help: "Total credential issuance retries after a storage collision",
		}),
		CredentialsReissued: promauto.NewCounter(prometheus.CounterOpts{
			Name: "sightsign_credentials_reissued_total",
			Help: "Total explicit credential reissues",
		}),
		RegisterDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "sightsign_worker_register_duration_seconds",
			Help:    "Duration of worker registration including credential issuance",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),
	}
}
