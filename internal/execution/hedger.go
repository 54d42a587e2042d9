package execution

import (
	"context"

	"go.uber.org/zap"

	"github.com/mselser95/clob-arb/internal/exchange"
	"github.com/mselser95/clob-arb/internal/pricing"
	"github.com/mselser95/clob-arb/pkg/types"
)

// Hedger liquidates unmatched legs into the best bid immediately, bounding
// the loss from a broken arbitrage.
type Hedger struct {
	client exchange.API
	logger *zap.Logger
}

// NewHedger creates a hedger.
func NewHedger(client exchange.API, logger *zap.Logger) *Hedger {
	return &Hedger{client: client, logger: logger}
}

// Hedge sells size shares of tokenID at the rounded-down best bid.
// With no bid or a failed placement it reports failure with zero loss; the
// caller books its own conservative estimate in that case.
func (h *Hedger) Hedge(ctx context.Context, tokenID string, size, entryPrice float64, book *types.OrderBook) types.HedgeResult {
	if book == nil || !book.HasBid() {
		HedgesTotal.WithLabelValues("no_bid").Inc()
		return types.HedgeResult{Success: false, Reason: "no bid to hedge into"}
	}

	price := pricing.RoundDown(book.BestBidPrice)

	_, err := h.client.PlaceOrder(ctx, tokenID, types.SideSell, price, size)
	if err != nil {
		HedgesTotal.WithLabelValues("failed").Inc()
		h.logger.Error("hedge-placement-failed",
			zap.String("token-id", tokenID),
			zap.Float64("price", price),
			zap.Float64("size", size),
			zap.Error(err))
		return types.HedgeResult{Success: false, Reason: err.Error()}
	}

	loss := size * (entryPrice - book.BestBidPrice)
	HedgesTotal.WithLabelValues("placed").Inc()

	h.logger.Warn("leg-hedged",
		zap.String("token-id", tokenID),
		zap.Float64("entry-price", entryPrice),
		zap.Float64("hedge-price", price),
		zap.Float64("size", size),
		zap.Float64("loss-usd", loss))

	return types.HedgeResult{
		Success: true,
		Price:   price,
		Size:    size,
		LossUSD: loss,
	}
}
