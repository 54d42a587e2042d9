// Package httpserver exposes the operator surface: health probes, prometheus
// metrics, and read-only risk/book snapshots.
package httpserver

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	gojson "github.com/goccy/go-json"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/mselser95/clob-arb/internal/books"
	"github.com/mselser95/clob-arb/internal/risk"
	"github.com/mselser95/clob-arb/pkg/healthprobe"
)

// Config holds HTTP server configuration.
type Config struct {
	Port          string
	Logger        *zap.Logger
	HealthChecker *healthprobe.HealthChecker
	RiskManager   *risk.Manager
	BookCache     *books.Cache
}

// Server is the operator HTTP server.
type Server struct {
	server *http.Server
	logger *zap.Logger
}

// New creates the server and wires its routes.
func New(cfg *Config) *Server {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/healthz", cfg.HealthChecker.Health())
	r.Get("/readyz", cfg.HealthChecker.Ready())
	r.Handle("/metrics", promhttp.Handler())

	r.Get("/api/v1/risk", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, cfg.RiskManager.GetSnapshot())
	})

	r.Get("/api/v1/books", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, bookSummaries(cfg.BookCache))
	})

	return &Server{
		server: &http.Server{
			Addr:              ":" + cfg.Port,
			Handler:           r,
			ReadHeaderTimeout: 5 * time.Second,
		},
		logger: cfg.Logger,
	}
}

// bookSummary is the JSON view of one cached book. An empty ask side is
// reported as zeros rather than the cache's +Inf sentinel.
type bookSummary struct {
	TokenID      string    `json:"token_id"`
	BestBidPrice float64   `json:"best_bid_price"`
	BestBidSize  float64   `json:"best_bid_size"`
	BestAskPrice float64   `json:"best_ask_price"`
	BestAskSize  float64   `json:"best_ask_size"`
	LastUpdated  time.Time `json:"last_updated"`
}

func bookSummaries(cache *books.Cache) []bookSummary {
	all := cache.GetAll()
	out := make([]bookSummary, 0, len(all))
	for tokenID, book := range all {
		summary := bookSummary{
			TokenID:      tokenID,
			BestBidPrice: book.BestBidPrice,
			BestBidSize:  book.BestBidSize,
			LastUpdated:  book.LastUpdated,
		}
		if book.HasAsk() {
			summary.BestAskPrice = book.BestAskPrice
			summary.BestAskSize = book.BestAskSize
		}
		out = append(out, summary)
	}
	return out
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	data, err := gojson.Marshal(v)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	_, _ = w.Write(data)
}

// Start serves until shutdown. Blocks.
func (s *Server) Start() error {
	s.logger.Info("http-server-starting", zap.String("addr", s.server.Addr))

	err := s.server.ListenAndServe()
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops the server gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("http-server-shutting-down")
	return s.server.Shutdown(ctx)
}
