package execution

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ExecutionsTotal counts executions by outcome.
	ExecutionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "clob_arb_executions_total",
			Help: "Total trade executions by outcome",
		},
		[]string{"outcome"},
	)

	// ExecutionDurationSeconds tracks end-to-end execution latency.
	ExecutionDurationSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "clob_arb_execution_duration_seconds",
		Help:    "Duration of trade execution",
		Buckets: prometheus.DefBuckets,
	})

	// FillLatencySeconds tracks time from placement to accepted fill.
	FillLatencySeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "clob_arb_fill_latency_seconds",
		Help:    "Latency from order placement to accepted fill",
		Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
	})

	// HedgesTotal counts hedge attempts by outcome.
	HedgesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "clob_arb_hedges_total",
			Help: "Total hedge attempts",
		},
		[]string{"outcome"},
	)

	// HedgeLossUSD accumulates realised hedge losses.
	HedgeLossUSD = promauto.NewCounter(prometheus.CounterOpts{
		Name: "clob_arb_hedge_loss_usd_total",
		Help: "Cumulative loss booked through hedging in USD",
	})

	// RealizedProfitUSD accumulates realised arbitrage profit.
	RealizedProfitUSD = promauto.NewCounter(prometheus.CounterOpts{
		Name: "clob_arb_realized_profit_usd_total",
		Help: "Cumulative realised profit in USD",
	})

	// AdaptiveTimeoutSeconds gauges the current fill-poll timeout.
	AdaptiveTimeoutSeconds = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "clob_arb_adaptive_timeout_seconds",
		Help: "Current adaptive fill timeout in seconds",
	})
)
