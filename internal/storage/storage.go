// Package storage persists trade outcomes and config snapshots.
package storage

import (
	"context"
	"time"

	"github.com/mselser95/clob-arb/pkg/types"
)

// TradeRecord is the persisted form of one trade attempt.
type TradeRecord struct {
	TradeID           string
	MarketName        string
	Kind              string
	DetectedAt        time.Time
	ExecutedAt        time.Time
	PriceSum          float64
	AllInCost         float64
	ExpectedProfitBps float64
	SizeShares        int
	Status            types.TradeStatus
	PnLUSD            float64
}

// Storage is the persistence contract. InsertTrade and UpdateTradeStatus are
// idempotent on the trade id.
type Storage interface {
	InsertTrade(ctx context.Context, rec *TradeRecord) error
	UpdateTradeStatus(ctx context.Context, tradeID string, status types.TradeStatus, pnlUSD float64) error
	SaveConfigSnapshot(ctx context.Context, snapshot []byte) error
	Close() error
}
