package circuitbreaker

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// StateGauge tracks the current breaker state (0=closed, 1=open, 2=half-open).
	StateGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "clob_arb_breaker_state",
		Help: "Circuit breaker state (0=closed, 1=open, 2=half-open)",
	})

	// RefusedTotal counts calls refused while open.
	RefusedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "clob_arb_breaker_refused_total",
		Help: "Total calls refused by the open circuit breaker",
	})

	// TransitionsTotal counts state transitions by edge.
	TransitionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "clob_arb_breaker_transitions_total",
			Help: "Total circuit breaker state transitions",
		},
		[]string{"from", "to"},
	)
)
