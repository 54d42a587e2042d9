package exchange

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RequestsTotal counts exchange API requests by operation and outcome.
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "clob_arb_exchange_requests_total",
			Help: "Total exchange API requests",
		},
		[]string{"op", "outcome"},
	)

	// RequestDurationSeconds tracks per-attempt exchange request latency.
	RequestDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "clob_arb_exchange_request_duration_seconds",
			Help:    "Exchange API request duration per attempt",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"op"},
	)
)
