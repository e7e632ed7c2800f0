package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"casetransfer/internal/casetransfer/models"
)

// Metrics provides observability for the case transfer module.
type Metrics struct {
	// Completed transfers by strategy scope and outcome
	Transfers *prometheus.CounterVec

	// Validation failures by rule
	ValidationFailures *prometheus.CounterVec

	// Per-member dispatch outcomes by operation
	Dispatches *prometheus.CounterVec

	DispatchLatency *prometheus.HistogramVec

	// Members per resolved transfer group
	GroupSize prometheus.Histogram

	TransferLatency prometheus.Histogram
}

// New registers the metrics with the default registry.
func New() *Metrics {
	return NewWithRegisterer(prometheus.DefaultRegisterer)
}

// NewWithRegisterer registers the metrics with reg.
func NewWithRegisterer(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Transfers: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "casetransfer_transfers_total",
			Help: "Total case transfers by strategy and outcome",
		}, []string{"strategy", "outcome"}), // outcome: "completed", "blocked", "partially_failed", "failed"

		ValidationFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "casetransfer_validation_failures_total",
			Help: "Total transfer pre-condition failures by rule",
		}, []string{"rule"}),

		Dispatches: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "casetransfer_dispatches_total",
			Help: "Total dispatched member operations by operation and outcome",
		}, []string{"operation", "outcome"}),

		DispatchLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "casetransfer_dispatch_duration_seconds",
			Help:    "Duration of a single dispatch call by operation",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}, []string{"operation"}),

		GroupSize: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "casetransfer_group_size",
			Help:    "Number of cases in a resolved transfer group",
			Buckets: []float64{1, 2, 3, 5, 8, 13, 21},
		}),

		TransferLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "casetransfer_transfer_duration_seconds",
			Help:    "Duration of a full transfer including resolution and dispatch",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}),
	}
}

// IncrementTransfer records a transfer outcome.
func (m *Metrics) IncrementTransfer(scope models.TransferScope, outcome string) {
	if m != nil {
		m.Transfers.WithLabelValues(string(scope), outcome).Inc()
	}
}

// IncrementValidationFailure records one failed pre-condition.
func (m *Metrics) IncrementValidationFailure(rule string) {
	if m != nil {
		m.ValidationFailures.WithLabelValues(rule).Inc()
	}
}

// ObserveDispatch records a dispatch call. It satisfies strategy.Observer.
func (m *Metrics) ObserveDispatch(op models.Operation, err error, d time.Duration) {
	if m == nil {
		return
	}
	outcome := "success"
	if err != nil {
		outcome = "failure"
	}
	m.Dispatches.WithLabelValues(string(op), outcome).Inc()
	m.DispatchLatency.WithLabelValues(string(op)).Observe(d.Seconds())
}

func (m *Metrics) ObserveGroupSize(size int) {
	if m != nil {
		m.GroupSize.Observe(float64(size))
	}
}

func (m *Metrics) ObserveTransferLatency(d time.Duration) {
	if m != nil {
		m.TransferLatency.Observe(d.Seconds())
	}
}
