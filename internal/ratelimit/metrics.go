package ratelimit

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RefillRate tracks the adaptive limiter's current refill rate.
	RefillRate = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "clob_arb_ratelimit_refill_per_sec",
		Help: "Current adaptive rate limiter refill rate in tokens per second",
	})
)
