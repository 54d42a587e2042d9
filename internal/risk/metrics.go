package risk

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RefusalsTotal counts CanTrade refusals by gate.
	RefusalsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "clob_arb_risk_refusals_total",
			Help: "Total trades refused by the risk manager",
		},
		[]string{"reason"},
	)

	// GlobalExposureUSD gauges current global exposure.
	GlobalExposureUSD = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "clob_arb_risk_global_exposure_usd",
		Help: "Current global exposure in USD",
	})

	// DailyLossUSD gauges realised loss for the current UTC day.
	DailyLossUSD = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "clob_arb_risk_daily_loss_usd",
		Help: "Realised loss for the current UTC day in USD",
	})

	// OpenOrders gauges outstanding open orders.
	OpenOrders = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "clob_arb_risk_open_orders",
		Help: "Number of currently open orders",
	})

	// SafeModeActive gauges the safe-mode flag.
	SafeModeActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "clob_arb_risk_safe_mode",
		Help: "Whether safe mode is active (1) or not (0)",
	})

	// BalanceUSD gauges the last known exchange balance.
	BalanceUSD = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "clob_arb_risk_balance_usd",
		Help: "Last known exchange balance in USD",
	})
)
