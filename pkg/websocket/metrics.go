package websocket

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ActiveConnections gauges live feed connections (0 or 1).
	ActiveConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "clob_arb_feed_active_connections",
		Help: "Number of active book feed connections",
	})

	// SubscriptionCount gauges subscribed token ids.
	SubscriptionCount = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "clob_arb_feed_subscriptions",
		Help: "Number of subscribed token ids",
	})

	// MessagesTotal counts decoded feed messages.
	MessagesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "clob_arb_feed_messages_total",
		Help: "Total book feed messages received",
	})

	// DroppedTotal counts messages dropped on a full channel.
	DroppedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "clob_arb_feed_dropped_total",
		Help: "Total book feed messages dropped due to backpressure",
	})

	// ReconnectsTotal counts successful reconnects.
	ReconnectsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "clob_arb_feed_reconnects_total",
		Help: "Total successful feed reconnections",
	})
)
