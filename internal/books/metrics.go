package books

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// BooksTracked gauges how many token books are cached.
	BooksTracked = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "clob_arb_books_tracked",
		Help: "Number of order books currently cached",
	})

	// PushUpdatesTotal counts books applied from the push feed.
	PushUpdatesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "clob_arb_books_push_updates_total",
		Help: "Total order book updates applied from the push feed",
	})

	// StaleReadsTotal counts reads rejected for staleness.
	StaleReadsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "clob_arb_books_stale_reads_total",
		Help: "Total cache reads that found only a stale book",
	})
)
