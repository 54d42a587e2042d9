package positions

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// TrackedPositions gauges currently monitored legs.
	TrackedPositions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "clob_arb_positions_tracked",
		Help: "Number of positions under monitoring",
	})

	// ExitsTotal counts auto-exits by reason.
	ExitsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "clob_arb_position_exits_total",
			Help: "Total automatic position exits",
		},
		[]string{"reason"},
	)

	// ExitPnLUSD accumulates realised exit PnL (may go negative).
	ExitPnLUSD = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "clob_arb_position_exit_pnl_usd",
		Help: "Cumulative PnL from automatic position exits in USD",
	})
)
