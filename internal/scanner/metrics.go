package scanner

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// IterationsTotal counts scan iterations.
	IterationsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "clob_arb_scan_iterations_total",
		Help: "Total scan loop iterations",
	})

	// IterationDurationSeconds tracks iteration wall time.
	IterationDurationSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "clob_arb_scan_iteration_duration_seconds",
		Help:    "Duration of one scan iteration",
		Buckets: prometheus.DefBuckets,
	})

	// SuppressedTotal counts opportunities dropped by the cooldown tracker.
	SuppressedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "clob_arb_scan_suppressed_total",
		Help: "Total opportunities suppressed by the cooldown tracker",
	})
)
