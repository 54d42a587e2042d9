package arbitrage

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// DetectedTotal tracks arbitrage opportunities detected.
	DetectedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "clob_arb_opportunities_detected_total",
		Help: "Total number of arbitrage opportunities detected",
	})

	// RejectedTotal tracks rejected candidate opportunities by reason.
	RejectedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "clob_arb_opportunities_rejected_total",
			Help: "Total number of candidate opportunities rejected",
		},
		[]string{"reason"},
	)

	// ProfitBps tracks expected profit of detected opportunities in basis points.
	ProfitBps = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "clob_arb_opportunity_profit_bps",
		Help:    "Expected arbitrage profit in basis points",
		Buckets: []float64{10, 25, 50, 100, 200, 500, 1000, 2000, 5000},
	})

	// DetectionDurationSeconds tracks per-market detection latency.
	DetectionDurationSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "clob_arb_detection_duration_seconds",
		Help:    "Duration of one market's detection pass",
		Buckets: prometheus.DefBuckets,
	})
)
