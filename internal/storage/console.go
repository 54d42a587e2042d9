package storage

import (
	"context"

	"go.uber.org/zap"

	"github.com/mselser95/clob-arb/pkg/types"
)

// ConsoleStorage logs instead of persisting. Default when postgres is not
// configured.
type ConsoleStorage struct {
	logger *zap.Logger
}

// NewConsoleStorage creates a console storage.
func NewConsoleStorage(logger *zap.Logger) *ConsoleStorage {
	return &ConsoleStorage{logger: logger}
}

func (c *ConsoleStorage) InsertTrade(_ context.Context, rec *TradeRecord) error {
	c.logger.Info("trade-record",
		zap.String("trade-id", rec.TradeID),
		zap.String("market", rec.MarketName),
		zap.String("kind", rec.Kind),
		zap.String("status", string(rec.Status)),
		zap.Float64("expected-profit-bps", rec.ExpectedProfitBps),
		zap.Int("size-shares", rec.SizeShares),
		zap.Float64("pnl-usd", rec.PnLUSD))
	return nil
}

func (c *ConsoleStorage) UpdateTradeStatus(_ context.Context, tradeID string, status types.TradeStatus, pnlUSD float64) error {
	c.logger.Info("trade-status-update",
		zap.String("trade-id", tradeID),
		zap.String("status", string(status)),
		zap.Float64("pnl-usd", pnlUSD))
	return nil
}

func (c *ConsoleStorage) SaveConfigSnapshot(_ context.Context, snapshot []byte) error {
	c.logger.Info("config-snapshot", zap.Int("bytes", len(snapshot)))
	return nil
}

func (c *ConsoleStorage) Close() error {
	return nil
}
