package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Validation outcomes recorded by the gateway.
const (
	OutcomeAccepted          = "accepted"
	OutcomeDuplicate         = "duplicate"
	OutcomeUnknownCredential = "unknown_credential"
	OutcomeNotAuthorized     = "not_authorized"
	OutcomeError             = "error"
)

// Metrics provides observability for the attendance module.
type Metrics struct {
	Validations      *prometheus.CounterVec
	RecordsOpened    prometheus.Counter
	RecordsClosed    prometheus.Counter
	SweepRuns        prometheus.Counter
	SweepFailures    prometheus.Counter
	RecordsSwept     prometheus.Counter
	SweepDuration    prometheus.Histogram
}

// New creates a Metrics instance with all attendance module metrics
// registered.
func New() *Metrics {
	return &Metrics{
		Validations: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "sightsign_validations_total",
			Help: "Credential validations by outcome",
		}, []string{"outcome"}),
		RecordsOpened: promauto.NewCounter(prometheus.CounterOpts{
			Name: "sightsign_attendance_opened_total",
			Help: "Attendance records opened",
		}),
		RecordsClosed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "sightsign_attendance_closed_total",
			Help: "Attendance records closed explicitly",
		}),
		SweepRuns: promauto.NewCounter(prometheus.CounterOpts{
			Name: "sightsign_sweep_runs_total",
			Help: "Auto sign-out sweep executions (per site)",
		}),
		SweepFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "sightsign_sweep_failures_total",
			Help: "Auto sign-out sweeps that failed and will be retried",
		}),
		RecordsSwept: promauto.NewCounter(prometheus.CounterOpts{
			Name: "sightsign_attendance_swept_total",
			Help: "Attendance records closed by the auto sign-out sweep",
		}),
		SweepDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "sightsign_sweep_duration_seconds",
			Help:    "Duration of a full scheduler pass over all sites",
			Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 10},
		}),
	}
}

// ObserveSweep records the duration of a full sweep pass.
func (m *Metrics) ObserveSweep(start time.Time) {
	m.SweepDuration.Observe(time.Since(start).Seconds())
}
