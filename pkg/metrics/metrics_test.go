package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetrics_NilSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.AddScoresRecorded(3)
		m.IncrementBatch(BatchOK)
		m.IncrementRecompute(true)
		m.ObserveRequest("GET", "/x", "2xx", time.Millisecond)
	})
}

func TestMetrics_Counters(t *testing.T) {
	m := NewWithRegisterer(prometheus.NewRegistry())

	m.AddScoresRecorded(2)
	m.AddScoresRecorded(3)
	assert.Equal(t, 5.0, testutil.ToFloat64(m.ScoresRecorded))

	m.IncrementBatch(BatchOK)
	m.IncrementBatch(BatchRejected)
	m.IncrementBatch(BatchRejected)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ScoreBatches.WithLabelValues(BatchOK)))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.ScoreBatches.WithLabelValues(BatchRejected)))

	m.IncrementRecompute(true)
	m.IncrementRecompute(false)
	m.IncrementRecompute(false)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CompetenceRecomputes.WithLabelValues("cached")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.CompetenceRecomputes.WithLabelValues("readonly")))
}
