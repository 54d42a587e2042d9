// Package execution places multi-leg arbitrage trades and bounds their loss.
//
// A trade is only as atomic as the exchange allows: legs are placed one by
// one (or concurrently) and any leg that fails or times out triggers an
// immediate best-bid hedge of everything already filled, plus cooldowns so
// the same flapping book is not re-entered straight away.
package execution

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/mselser95/clob-arb/internal/arbitrage"
	"github.com/mselser95/clob-arb/internal/exchange"
	"github.com/mselser95/clob-arb/internal/pricing"
	"github.com/mselser95/clob-arb/internal/risk"
	"github.com/mselser95/clob-arb/pkg/types"
)

// Mode is the trading mode.
type Mode string

const (
	ModeDry   Mode = "dry"
	ModePaper Mode = "paper"
	ModeLive  Mode = "live"
)

// Config holds executor configuration.
type Config struct {
	Mode                  Mode
	EnableLiveTrading     bool
	OrderTimeout          time.Duration
	PriceImprovementTicks int
	GlobalCooldown        time.Duration
	MarketCooldown        time.Duration
	MinProfit             float64
	FeeBps                float64
	TakerFeeBps           float64
	SlippageBps           float64
	ConcurrentLegs        bool
	AdaptiveTimeout       bool
	AdaptiveTimeoutMin    time.Duration
	AdaptiveTimeoutMax    time.Duration
	Logger                *zap.Logger
}

// Executor turns opportunities into orders.
type Executor struct {
	cfg       Config
	client    exchange.API
	riskMgr   *risk.Manager
	hedger    *Hedger
	latencies *latencyRing
	logger    *zap.Logger
}

// New creates an executor.
func New(cfg Config, client exchange.API, riskMgr *risk.Manager) *Executor {
	return &Executor{
		cfg:       cfg,
		client:    client,
		riskMgr:   riskMgr,
		hedger:    NewHedger(client, cfg.Logger),
		latencies: newLatencyRing(latencyWindow),
		logger:    cfg.Logger,
	}
}

// placedLeg pairs an opportunity leg with its live order.
type placedLeg struct {
	leg        arbitrage.Leg
	orderPrice float64
	order      *types.Order
}

// Execute runs the pre-trade gates and places every leg of the opportunity.
// snapshot is the book view the opportunity was detected against; it backs
// the hedger when a fresh book is unavailable.
func (e *Executor) Execute(ctx context.Context, opp *arbitrage.Opportunity, snapshot map[string]*types.OrderBook) *types.ExecutionResult {
	start := time.Now()
	defer func() {
		ExecutionDurationSeconds.Observe(time.Since(start).Seconds())
	}()

	result := &types.ExecutionResult{
		TradeID:    opp.TradeID,
		MarketName: opp.MarketName,
		ExecutedAt: start,
	}

	decision := e.riskMgr.CanTrade(opp.MarketName, opp.EstimatedExposureUSD())
	if !decision.Allowed {
		result.Status = types.TradeSkipped
		result.Reason = decision.Reason
		ExecutionsTotal.WithLabelValues("refused").Inc()
		return result
	}

	if e.cfg.Mode == ModeLive && !e.cfg.EnableLiveTrading {
		result.Status = types.TradeSkipped
		result.Reason = "live_trading_disabled"
		ExecutionsTotal.WithLabelValues("refused").Inc()
		return result
	}

	if e.cfg.Mode == ModeDry || e.riskMgr.IsSafeMode() {
		e.logger.Info("dry-run-trade",
			zap.String("trade-id", opp.TradeID),
			zap.String("market", opp.MarketName),
			zap.Float64("profit-bps", opp.ExpectedProfitBps),
			zap.Int("size-shares", opp.TargetSizeShares))
		result.Status = types.TradeSkipped
		result.Success = true
		result.Reason = "dry_run"
		ExecutionsTotal.WithLabelValues("dry").Inc()
		return result
	}

	if e.cfg.Mode == ModePaper {
		return e.executePaper(opp, result)
	}

	freshBooks, ok := e.revalidate(ctx, opp)
	if !ok {
		result.Status = types.TradeSkipped
		result.Reason = "stale_opportunity"
		ExecutionsTotal.WithLabelValues("stale").Inc()
		return result
	}
	// Prefer fresh bids for hedging; fall back to the detection snapshot.
	for id, book := range snapshot {
		if _, exists := freshBooks[id]; !exists {
			freshBooks[id] = book
		}
	}

	if e.cfg.ConcurrentLegs && len(opp.Legs) >= 2 {
		return e.executeConcurrent(ctx, opp, freshBooks, result)
	}
	return e.executeSequential(ctx, opp, freshBooks, result)
}

// revalidate re-fetches every leg's book and reprices the opportunity.
// A vanished edge means a stale opportunity: silently dropped, not an error.
func (e *Executor) revalidate(ctx context.Context, opp *arbitrage.Opportunity) (map[string]*types.OrderBook, bool) {
	fresh := make(map[string]*types.OrderBook, len(opp.Legs))
	asks := make([]float64, len(opp.Legs))

	for i, leg := range opp.Legs {
		book, err := e.client.GetOrderBook(ctx, leg.TokenID)
		if err != nil || !book.HasAsk() {
			return nil, false
		}
		fresh[leg.TokenID] = book
		asks[i] = book.BestAskPrice
	}

	feeBps := pricing.EffectiveFeeBps(e.cfg.FeeBps, e.cfg.TakerFeeBps)
	bd, ok := pricing.ComputeCostBreakdown(asks, feeBps, e.cfg.SlippageBps)
	if !ok || bd.ExpectedProfit < e.cfg.MinProfit {
		e.logger.Info("opportunity-stale-on-revalidation",
			zap.String("trade-id", opp.TradeID),
			zap.String("market", opp.MarketName))
		return nil, false
	}

	return fresh, true
}

// executeSequential places legs in declared order, polling each to fill
// before moving on. Any failure hedges the legs already filled.
func (e *Executor) executeSequential(ctx context.Context, opp *arbitrage.Opportunity, books map[string]*types.OrderBook, result *types.ExecutionResult) *types.ExecutionResult {
	size := float64(opp.TargetSizeShares)
	filled := make([]types.FilledLeg, 0, len(opp.Legs))

	for _, leg := range opp.Legs {
		ask := leg.AskPrice
		if book := books[leg.TokenID]; book != nil && book.HasAsk() {
			ask = book.BestAskPrice
		}
		orderPrice := pricing.RoundUp(pricing.AdjustByTicks(ask, e.cfg.PriceImprovementTicks))

		order, err := e.client.PlaceOrder(ctx, leg.TokenID, types.SideBuy, orderPrice, size)
		if err != nil {
			e.riskMgr.RecordError()
			return e.failAndHedge(ctx, opp, filled, books, result,
				fmt.Errorf("place %s leg: %w", leg.Label, err))
		}
		e.riskMgr.RecordOrderPlaced()

		placedAt := time.Now()
		accepted, filledSize := e.pollFill(ctx, order.ID, size)
		if !accepted {
			if cancelErr := e.client.CancelOrder(ctx, order.ID); cancelErr != nil {
				e.logger.Warn("cancel-after-timeout-failed",
					zap.String("order-id", order.ID),
					zap.Error(cancelErr))
			}
			e.riskMgr.RecordOrderClosed()
			// A timed-out leg is expected behavior, not an error: no
			// recordError, so timeouts never trip safe mode.
			return e.failAndHedge(ctx, opp, filled, books, result,
				fmt.Errorf("leg timeout: %s", leg.Label))
		}
		e.riskMgr.RecordOrderClosed()
		e.recordLatency(time.Since(placedAt))

		filled = append(filled, types.FilledLeg{
			OrderID:    order.ID,
			TokenID:    leg.TokenID,
			Label:      leg.Label,
			Price:      orderPrice,
			Size:       size,
			FilledSize: filledSize,
		})
	}

	return e.succeed(opp, filled, result)
}

// executeConcurrent fans every leg out simultaneously, then polls all fills
// in parallel.
func (e *Executor) executeConcurrent(ctx context.Context, opp *arbitrage.Opportunity, books map[string]*types.OrderBook, result *types.ExecutionResult) *types.ExecutionResult {
	size := float64(opp.TargetSizeShares)
	placed := make([]*placedLeg, len(opp.Legs))

	var placeGroup errgroup.Group
	for i, leg := range opp.Legs {
		ask := leg.AskPrice
		if book := books[leg.TokenID]; book != nil && book.HasAsk() {
			ask = book.BestAskPrice
		}
		orderPrice := pricing.RoundUp(pricing.AdjustByTicks(ask, e.cfg.PriceImprovementTicks))

		placeGroup.Go(func() error {
			order, err := e.client.PlaceOrder(ctx, leg.TokenID, types.SideBuy, orderPrice, size)
			if err != nil {
				return fmt.Errorf("place %s leg: %w", leg.Label, err)
			}
			e.riskMgr.RecordOrderPlaced()
			placed[i] = &placedLeg{leg: leg, orderPrice: orderPrice, order: order}
			return nil
		})
	}

	if err := placeGroup.Wait(); err != nil {
		e.riskMgr.RecordError()
		filled := e.unwindPlacements(ctx, placed)
		return e.failAndHedge(ctx, opp, filled, books, result, err)
	}

	placedAt := time.Now()
	filledSizes := make([]float64, len(placed))
	acceptedAll := make([]bool, len(placed))

	var pollGroup sync.WaitGroup
	for i, pl := range placed {
		pollGroup.Add(1)
		go func() {
			defer pollGroup.Done()
			acceptedAll[i], filledSizes[i] = e.pollFill(ctx, pl.order.ID, size)
		}()
	}
	pollGroup.Wait()

	filled := make([]types.FilledLeg, 0, len(placed))
	anyUnfilled := false
	for i, pl := range placed {
		if !acceptedAll[i] {
			anyUnfilled = true
			if err := e.client.CancelOrder(ctx, pl.order.ID); err != nil {
				e.logger.Warn("cancel-unfilled-leg-failed",
					zap.String("order-id", pl.order.ID),
					zap.Error(err))
			}
			e.riskMgr.RecordOrderClosed()
			continue
		}
		e.riskMgr.RecordOrderClosed()
		e.recordLatency(time.Since(placedAt))
		filled = append(filled, types.FilledLeg{
			OrderID:    pl.order.ID,
			TokenID:    pl.leg.TokenID,
			Label:      pl.leg.Label,
			Price:      pl.orderPrice,
			Size:       size,
			FilledSize: filledSizes[i],
		})
	}

	if anyUnfilled {
		return e.failAndHedge(ctx, opp, filled, books, result, fmt.Errorf("leg timeout"))
	}
	return e.succeed(opp, filled, result)
}

// unwindPlacements cancels the orders that did go through after a concurrent
// placement failure and reports any fills picked up before the cancel landed.
func (e *Executor) unwindPlacements(ctx context.Context, placed []*placedLeg) []types.FilledLeg {
	filled := make([]types.FilledLeg, 0, len(placed))
	for _, pl := range placed {
		if pl == nil {
			continue
		}
		if err := e.client.CancelOrder(ctx, pl.order.ID); err != nil {
			e.logger.Warn("unwind-cancel-failed",
				zap.String("order-id", pl.order.ID),
				zap.Error(err))
		}
		e.riskMgr.RecordOrderClosed()

		status, err := e.client.GetOrderStatus(ctx, pl.order.ID)
		if err != nil || status == nil || status.FilledSize <= 0 {
			continue
		}
		filled = append(filled, types.FilledLeg{
			OrderID:    pl.order.ID,
			TokenID:    pl.leg.TokenID,
			Label:      pl.leg.Label,
			Price:      pl.orderPrice,
			Size:       pl.order.Size,
			FilledSize: status.FilledSize,
		})
	}
	return filled
}

// pollFill polls order status until the order fills, reaches an accepted
// partial (>= 50% of requested), goes terminal, or the timeout elapses.
func (e *Executor) pollFill(ctx context.Context, orderID string, requested float64) (accepted bool, filledSize float64) {
	timeout := e.currentTimeout()
	interval := timeout / 10
	if interval > 150*time.Millisecond {
		interval = 150 * time.Millisecond
	}

	deadline := time.Now().Add(timeout)
	for {
		order, err := e.client.GetOrderStatus(ctx, orderID)
		if err == nil && order != nil {
			switch {
			case order.Status == types.OrderFilled:
				return true, order.FilledSize
			case order.FilledSize >= requested/2:
				// Accept partials at or above half the requested size as
				// filled at the actual size.
				return true, order.FilledSize
			case order.Status.Terminal():
				return false, order.FilledSize
			}
		}

		if time.Now().After(deadline) {
			return false, 0
		}

		select {
		case <-ctx.Done():
			return false, 0
		case <-time.After(interval):
		}
	}
}

// failAndHedge liquidates everything already filled, arms cooldowns and
// finalises a failed result.
func (e *Executor) failAndHedge(ctx context.Context, opp *arbitrage.Opportunity, filled []types.FilledLeg, books map[string]*types.OrderBook, result *types.ExecutionResult, cause error) *types.ExecutionResult {
	e.riskMgr.ActivateCooldown(e.cfg.GlobalCooldown)
	e.riskMgr.ActivateMarketCooldown(opp.MarketName, e.cfg.MarketCooldown)

	lossUSD := 0.0
	for _, leg := range filled {
		hedge := e.hedger.Hedge(ctx, leg.TokenID, leg.FilledSize, leg.Price, books[leg.TokenID])
		if hedge.Success {
			lossUSD += hedge.LossUSD
		} else {
			// Conservative notional estimate when the hedge itself fails,
			// plus an extended market cooldown.
			lossUSD += leg.FilledSize * leg.Price
			e.riskMgr.ActivateMarketCooldown(opp.MarketName, 2*e.cfg.MarketCooldown)
			e.logger.Error("hedge-failed",
				zap.String("trade-id", opp.TradeID),
				zap.String("token-id", leg.TokenID),
				zap.String("reason", hedge.Reason))
		}
	}

	if lossUSD > 0 {
		e.riskMgr.RecordLoss(lossUSD)
	}

	result.Status = types.TradeFailed
	if len(filled) > 0 {
		result.Status = types.TradeHedged
		result.Hedged = true
	}
	result.FilledLegs = filled
	result.LossUSD = lossUSD
	result.Err = cause
	result.Reason = cause.Error()

	ExecutionsTotal.WithLabelValues("failed").Inc()
	HedgeLossUSD.Add(lossUSD)

	e.logger.Error("execution-failed",
		zap.String("trade-id", opp.TradeID),
		zap.String("market", opp.MarketName),
		zap.Int("filled-legs", len(filled)),
		zap.Float64("loss-usd", lossUSD),
		zap.Error(cause))

	return result
}

// succeed books exposure for the filled set and finalises a successful result.
func (e *Executor) succeed(opp *arbitrage.Opportunity, filled []types.FilledLeg, result *types.ExecutionResult) *types.ExecutionResult {
	totalCost := 0.0
	minFilled := filled[0].FilledSize
	priceSum := 0.0
	for _, leg := range filled {
		totalCost += leg.Price * leg.FilledSize
		priceSum += leg.Price
		if leg.FilledSize < minFilled {
			minFilled = leg.FilledSize
		}
	}
	e.riskMgr.UpdateExposure(opp.MarketName, totalCost, totalCost)
	e.riskMgr.RecordSuccess()

	feeRate := pricing.EffectiveFeeBps(e.cfg.FeeBps, e.cfg.TakerFeeBps) / 10_000
	// Each complete outcome set redeems for exactly one quote unit.
	realized := minFilled - totalCost - totalCost*feeRate

	result.Status = types.TradeFilled
	result.Success = true
	result.FilledLegs = filled
	result.RealizedProfit = realized

	ExecutionsTotal.WithLabelValues("success").Inc()
	RealizedProfitUSD.Add(realized)

	e.logger.Info("execution-successful",
		zap.String("trade-id", opp.TradeID),
		zap.String("market", opp.MarketName),
		zap.Int("legs", len(filled)),
		zap.Float64("price-sum", priceSum),
		zap.Float64("realized-profit-usd", realized))

	return result
}

// executePaper simulates fills at the detected ask prices.
func (e *Executor) executePaper(opp *arbitrage.Opportunity, result *types.ExecutionResult) *types.ExecutionResult {
	size := float64(opp.TargetSizeShares)
	filled := make([]types.FilledLeg, len(opp.Legs))
	for i, leg := range opp.Legs {
		filled[i] = types.FilledLeg{
			TokenID:    leg.TokenID,
			Label:      leg.Label,
			Price:      leg.AskPrice,
			Size:       size,
			FilledSize: size,
		}
	}

	exposure := opp.TotalCost * size
	e.riskMgr.UpdateExposure(opp.MarketName, exposure, exposure)
	e.riskMgr.RecordSuccess()

	result.Status = types.TradeFilled
	result.Success = true
	result.FilledLegs = filled
	result.RealizedProfit = opp.ExpectedProfit * size

	ExecutionsTotal.WithLabelValues("paper").Inc()

	e.logger.Info("paper-trade-executed",
		zap.String("trade-id", opp.TradeID),
		zap.String("market", opp.MarketName),
		zap.Int("legs", len(filled)),
		zap.Float64("profit-usd", result.RealizedProfit))

	return result
}

func (e *Executor) recordLatency(d time.Duration) {
	e.latencies.Add(d)
	FillLatencySeconds.Observe(d.Seconds())
}

// currentTimeout is the fill-poll deadline: twice the p75 of recent fill
// latencies, clamped, once enough samples exist.
func (e *Executor) currentTimeout() time.Duration {
	if !e.cfg.AdaptiveTimeout {
		return e.cfg.OrderTimeout
	}

	p75, n := e.latencies.P75()
	if n < minLatencySamples {
		return e.cfg.OrderTimeout
	}

	timeout := 2 * p75
	if timeout < e.cfg.AdaptiveTimeoutMin {
		timeout = e.cfg.AdaptiveTimeoutMin
	}
	if timeout > e.cfg.AdaptiveTimeoutMax {
		timeout = e.cfg.AdaptiveTimeoutMax
	}

	AdaptiveTimeoutSeconds.Set(timeout.Seconds())
	return timeout
}
