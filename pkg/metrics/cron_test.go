package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCronJobMetricsRecordsRunsByResult(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewCronJobMetrics(reg)
	m.ObserveDuration("cart-idle-sweep", 250*time.Millisecond)
	m.IncSuccess("cart-idle-sweep")
	m.IncFailure("cart-idle-sweep")
	m.IncFailure("")
	m.IncSkipped()

	assert.Equal(t, 1.0, testutil.ToFloat64(m.runs.WithLabelValues("cart-idle-sweep", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.runs.WithLabelValues("cart-idle-sweep", "failure")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.runs.WithLabelValues("unknown", "failure")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.skipped))
	assert.Greater(t, testutil.ToFloat64(m.lastSuccess.WithLabelValues("cart-idle-sweep")), 0.0)

	mfs, err := reg.Gather()
	require.NoError(t, err)
	sum, err := fetchHistogramSum(mfs, "veggiepos_cron_job_duration_seconds", "job", "cart-idle-sweep")
	require.NoError(t, err)
	assert.InDelta(t, 0.25, sum, 1e-9)
}

func TestCronJobMetricsNilIsNoop(t *testing.T) {
	var m *CronJobMetrics
	assert.Nil(t, NewCronJobMetrics(nil))
	assert.NotPanics(t, func() {
		m.ObserveDuration("x", time.Second)
		m.IncSuccess("x")
		m.IncFailure("x")
		m.IncSkipped()
	})
}
