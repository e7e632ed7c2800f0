package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"casetransfer/internal/casetransfer/models"
)

func TestObserveDispatch(t *testing.T) {
	m := NewWithRegisterer(prometheus.NewRegistry())

	m.ObserveDispatch(models.OperationUpdateOffice, nil, 10*time.Millisecond)
	m.ObserveDispatch(models.OperationUpdateOffice, errors.New("boom"), 10*time.Millisecond)
	m.ObserveDispatch(models.OperationUpdateOffice, nil, 10*time.Millisecond)

	assert.Equal(t, 2.0, promtest.ToFloat64(m.Dispatches.WithLabelValues("update_managing_office", "success")))
	assert.Equal(t, 1.0, promtest.ToFloat64(m.Dispatches.WithLabelValues("update_managing_office", "failure")))
}

func TestIncrementTransfer(t *testing.T) {
	m := NewWithRegisterer(prometheus.NewRegistry())

	m.IncrementTransfer(models.ScopeCrossFamily, "completed")
	m.IncrementValidationFailure("bf_actions_cleared")

	assert.Equal(t, 1.0, promtest.ToFloat64(m.Transfers.WithLabelValues("cross_family", "completed")))
	assert.Equal(t, 1.0, promtest.ToFloat64(m.ValidationFailures.WithLabelValues("bf_actions_cleared")))
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.IncrementTransfer(models.ScopeSameFamily, "completed")
		m.IncrementValidationFailure("no_listed_hearings")
		m.ObserveDispatch(models.OperationCreateInFamily, nil, time.Second)
		m.ObserveGroupSize(3)
		m.ObserveTransferLatency(time.Second)
	})
}
