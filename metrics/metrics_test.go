package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsCount(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.ObserveFill("sell")
	m.ObserveFill("sell")
	m.ObserveFill("buy")
	m.ObserveRejection("margin")
	m.ObserveTick()
	m.ObserveTick()
	m.ObserveRun(false, 1012.5, 10*time.Millisecond)
	m.ObserveRun(true, 0, time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.orders.WithLabelValues("sell")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.orders.WithLabelValues("buy")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.rejections.WithLabelValues("margin")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.ticks))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.runs.WithLabelValues("ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.runs.WithLabelValues("failed")))
	// failed runs leave the gauge alone
	assert.Equal(t, 1012.5, testutil.ToFloat64(m.wallet))

	n, err := testutil.GatherAndCount(reg, "gridsim_run_seconds")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveFill("buy")
		m.ObserveRejection("margin")
		m.ObserveTick()
		m.ObserveRun(false, 1, time.Second)
	})
}

func TestNewUnregistered(t *testing.T) {
	a := New(nil)
	b := New(nil)
	a.ObserveTick()
	assert.Equal(t, 1.0, testutil.ToFloat64(a.ticks))
	assert.Equal(t, 0.0, testutil.ToFloat64(b.ticks))
}
