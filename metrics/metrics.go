// Package metrics holds the Prometheus collectors updated by simulation runs.
//
//   - gridsim_orders_total{side}        orders filled by the ledger
//   - gridsim_rejections_total{reason}  orders refused (margin, no_equity)
//   - gridsim_runs_total{status}        finished runs (ok, failed)
//   - gridsim_ticks_total               ticks processed across all runs
//   - gridsim_last_wallet               final wallet of the most recent run
//   - gridsim_run_seconds               wall time per run
//
// A nil *Metrics is valid and records nothing.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

type Metrics struct {
	orders     *prometheus.CounterVec
	rejections *prometheus.CounterVec
	runs       *prometheus.CounterVec
	ticks      prometheus.Counter
	wallet     prometheus.Gauge
	duration   prometheus.Histogram
}

// New creates the collectors and registers them with reg. A nil reg
// leaves them unregistered.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		orders: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gridsim_orders_total",
				Help: "Grid orders filled",
			},
			[]string{"side"},
		),
		rejections: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gridsim_rejections_total",
				Help: "Grid orders refused",
			},
			[]string{"reason"},
		),
		runs: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gridsim_runs_total",
				Help: "Simulation runs finished",
			},
			[]string{"status"},
		),
		ticks: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "gridsim_ticks_total",
				Help: "Price ticks processed",
			},
		),
		wallet: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "gridsim_last_wallet",
				Help: "Final wallet of the most recent run",
			},
		),
		duration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "gridsim_run_seconds",
				Help:    "Wall time per simulation run",
				Buckets: prometheus.ExponentialBuckets(0.001, 4, 10),
			},
		),
	}
	if reg != nil {
		reg.MustRegister(m.orders, m.rejections, m.runs, m.ticks, m.wallet, m.duration)
	}
	return m
}

func (m *Metrics) ObserveFill(side string) {
	if m == nil {
		return
	}
	m.orders.WithLabelValues(side).Inc()
}

func (m *Metrics) ObserveRejection(reason string) {
	if m == nil {
		return
	}
	m.rejections.WithLabelValues(reason).Inc()
}

func (m *Metrics) ObserveTick() {
	if m == nil {
		return
	}
	m.ticks.Inc()
}

// ObserveRun records a finished run.
func (m *Metrics) ObserveRun(failed bool, wallet float64, took time.Duration) {
	if m == nil {
		return
	}
	status := "ok"
	if failed {
		status = "failed"
	} else {
		m.wallet.Set(wallet)
	}
	m.runs.WithLabelValues(status).Inc()
	m.duration.Observe(took.Seconds())
}
