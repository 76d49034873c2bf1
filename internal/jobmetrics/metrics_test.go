package jobmetrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestTrackerRecordsOutcome(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	assert.NoError(t, m.Track("catalog:snapshot").End(nil))
	boom := errors.New("boom")
	assert.ErrorIs(t, m.Track("catalog:snapshot").End(boom), boom)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.runs.WithLabelValues("catalog:snapshot", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.runs.WithLabelValues("catalog:snapshot", "failure")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.failures.WithLabelValues("catalog:snapshot")))
}

func TestRecordSnapshot(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())
	at := time.Unix(1700000000, 0)
	m.RecordSnapshot(3, 12.5, at)

	assert.Equal(t, 3.0, testutil.ToFloat64(m.products))
	assert.Equal(t, 12.5, testutil.ToFloat64(m.rateTotal))
	assert.Equal(t, float64(at.Unix()), testutil.ToFloat64(m.lastSnapshot))
}

func TestNilMetricsAreNoOps(t *testing.T) {
	var m *Metrics
	assert.NoError(t, m.Track("x").End(nil))
	m.RecordSnapshot(1, 1, time.Now())
}
