// Package scanner runs the closed loop: refresh books, detect, pick the best
// opportunity, execute, notify. One iteration is a sequential state machine;
// the only suspension points are exchange I/O and the inter-cycle sleep.
package scanner

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/mselser95/clob-arb/internal/arbitrage"
	"github.com/mselser95/clob-arb/internal/books"
	"github.com/mselser95/clob-arb/internal/exchange"
	"github.com/mselser95/clob-arb/internal/execution"
	"github.com/mselser95/clob-arb/internal/markets"
	"github.com/mselser95/clob-arb/internal/notify"
	"github.com/mselser95/clob-arb/internal/positions"
	"github.com/mselser95/clob-arb/internal/risk"
	"github.com/mselser95/clob-arb/internal/storage"
	"github.com/mselser95/clob-arb/pkg/types"
)

const (
	balanceCheckInterval = 20 // iterations between balance refreshes
	metricsLogInterval   = 50 // iterations between cooldown prunes / summaries
)

// Config holds scan loop configuration.
type Config struct {
	PollingInterval time.Duration
	MinProfit       float64
	MarketCooldown  time.Duration
	Mode            execution.Mode
	Logger          *zap.Logger
}

// Loop is the orchestrator.
type Loop struct {
	cfg       Config
	registry  *markets.Registry
	cache     *books.Cache
	client    exchange.API
	detector  *arbitrage.Detector
	executor  *execution.Executor
	riskMgr   *risk.Manager
	cooldowns *risk.CooldownTracker
	monitor   *positions.Monitor
	notifier  notify.Notifier
	store     storage.Storage

	iteration uint64
	ctx       context.Context
	wg        sync.WaitGroup
	logger    *zap.Logger
}

// Deps bundles the loop's collaborators.
type Deps struct {
	Registry  *markets.Registry
	Cache     *books.Cache
	Client    exchange.API
	Detector  *arbitrage.Detector
	Executor  *execution.Executor
	RiskMgr   *risk.Manager
	Cooldowns *risk.CooldownTracker
	Monitor   *positions.Monitor
	Notifier  notify.Notifier
	Store     storage.Storage
}

// New creates a scan loop.
func New(cfg Config, deps Deps) *Loop {
	return &Loop{
		cfg:       cfg,
		registry:  deps.Registry,
		cache:     deps.Cache,
		client:    deps.Client,
		detector:  deps.Detector,
		executor:  deps.Executor,
		riskMgr:   deps.RiskMgr,
		cooldowns: deps.Cooldowns,
		monitor:   deps.Monitor,
		notifier:  deps.Notifier,
		store:     deps.Store,
		logger:    cfg.Logger,
	}
}

// Start begins scanning.
func (l *Loop) Start(ctx context.Context) error {
	l.ctx = ctx
	l.logger.Info("scan-loop-starting",
		zap.Duration("polling-interval", l.cfg.PollingInterval),
		zap.Float64("min-profit", l.cfg.MinProfit),
		zap.Int("markets", l.registry.Len()))

	l.wg.Add(2)
	go l.run()
	go l.forwardExits()
	return nil
}

func (l *Loop) run() {
	defer l.wg.Done()

	for {
		select {
		case <-l.ctx.Done():
			l.logger.Info("scan-loop-stopping")
			return
		default:
		}

		l.runOnce()

		select {
		case <-l.ctx.Done():
		case <-time.After(l.cfg.PollingInterval):
		}
	}
}

// forwardExits relays monitor auto-exits to the notifier and persistence.
func (l *Loop) forwardExits() {
	defer l.wg.Done()

	for {
		select {
		case <-l.ctx.Done():
			return
		case exit := <-l.monitor.ExitChan():
			l.notifier.PositionExited(exit)
			// The trade stays filled; the auto-exit just settles its PnL.
			if err := l.store.UpdateTradeStatus(l.ctx, exit.Position.TradeID, types.TradeFilled, exit.PnL); err != nil {
				l.logger.Warn("exit-status-persist-failed",
					zap.String("trade-id", exit.Position.TradeID),
					zap.Error(err))
			}
		}
	}
}

// runOnce is one scan iteration.
func (l *Loop) runOnce() {
	start := time.Now()
	l.iteration++
	IterationsTotal.Inc()

	// Kill switch also gates the loop entry: cheap exit before any I/O.
	if l.riskMgr.KillSwitchActive() {
		l.logger.Warn("kill-switch-active-skipping-cycle")
		return
	}

	if l.cfg.Mode != execution.ModeDry && l.iteration%balanceCheckInterval == 1 {
		l.refreshBalance()
	}

	if !l.cache.FeedActive(l.cache.MaxAge()) {
		l.pullBooks()
	}

	snapshot := l.cache.GetAll()
	opportunities := l.detect(snapshot)

	best := l.pickBest(opportunities)
	if best != nil {
		l.executeBest(best, snapshot)
	}

	if l.iteration%metricsLogInterval == 0 {
		l.cooldowns.Prune()
		l.logger.Info("scan-metrics",
			zap.Uint64("iteration", l.iteration),
			zap.Int("fresh-books", len(snapshot)),
			zap.Int("cooldown-keys", l.cooldowns.Len()),
			zap.Int("open-positions", l.monitor.Open()))
	}

	IterationDurationSeconds.Observe(time.Since(start).Seconds())
}

func (l *Loop) refreshBalance() {
	ctx, cancel := context.WithTimeout(l.ctx, l.cfg.PollingInterval)
	defer cancel()

	balance, err := l.client.GetBalance(ctx)
	if err != nil {
		l.logger.Warn("balance-refresh-failed", zap.Error(err))
		l.notifier.Error("balance_refresh", err)
		return
	}
	l.riskMgr.UpdateBalance(balance)
}

// pullBooks refreshes every registered token's book sequentially. The
// exchange client's rate limiter paces the pulls.
func (l *Loop) pullBooks() {
	for _, tokenID := range l.registry.TokenIDs() {
		select {
		case <-l.ctx.Done():
			return
		default:
		}

		book, err := l.client.GetOrderBook(l.ctx, tokenID)
		if err != nil {
			l.logger.Debug("book-pull-failed",
				zap.String("token-id", tokenID),
				zap.Error(err))
			continue
		}
		l.cache.Set(tokenID, book)
	}
}

func (l *Loop) detect(snapshot map[string]*types.OrderBook) []*arbitrage.Opportunity {
	var out []*arbitrage.Opportunity

	for _, market := range l.registry.All() {
		opp := l.detector.Detect(market, snapshot, l.riskMgr.RemainingGlobalUSD())
		if opp == nil {
			continue
		}
		if opp.ExpectedProfitBps < l.cfg.MinProfit*10_000 {
			continue
		}
		if l.cooldowns.IsSuppressed(opp.TokenIDs()) {
			SuppressedTotal.Inc()
			l.logger.Debug("opportunity-suppressed-by-cooldown",
				zap.String("trade-id", opp.TradeID),
				zap.String("market", opp.MarketName))
			continue
		}
		out = append(out, opp)
	}

	return out
}

func (l *Loop) pickBest(opportunities []*arbitrage.Opportunity) *arbitrage.Opportunity {
	var best *arbitrage.Opportunity
	for _, opp := range opportunities {
		if best == nil || opp.ExpectedProfitBps > best.ExpectedProfitBps {
			best = opp
		}
	}
	return best
}

func (l *Loop) executeBest(opp *arbitrage.Opportunity, snapshot map[string]*types.OrderBook) {
	result := l.executor.Execute(l.ctx, opp, snapshot)

	// Recorded regardless of outcome so a flapping book is not re-entered.
	l.cooldowns.Record(opp.TokenIDs())
	l.riskMgr.ActivateMarketCooldown(opp.MarketName, l.cfg.MarketCooldown)

	l.persistTrade(opp, result)

	switch {
	case result.Success && len(result.FilledLegs) > 0:
		for _, leg := range result.FilledLegs {
			l.monitor.Track(types.Position{
				TradeID:    opp.TradeID,
				MarketName: opp.MarketName,
				TokenID:    leg.TokenID,
				EntryPrice: leg.Price,
				Size:       leg.FilledSize,
				EnteredAt:  result.ExecutedAt,
			})
		}
		l.notifier.TradeExecuted(result)
	case result.Success:
		// Dry-run synthetic success: nothing to track.
	default:
		l.notifier.TradeFailed(result)
	}
}

func (l *Loop) persistTrade(opp *arbitrage.Opportunity, result *types.ExecutionResult) {
	if result.Status == types.TradeSkipped {
		return
	}

	pnl := result.RealizedProfit
	if result.Status != types.TradeFilled {
		pnl = -result.LossUSD
	}

	rec := &storage.TradeRecord{
		TradeID:           opp.TradeID,
		MarketName:        opp.MarketName,
		Kind:              opp.Kind.String(),
		DetectedAt:        opp.DetectedAt,
		ExecutedAt:        result.ExecutedAt,
		PriceSum:          opp.TotalCost,
		AllInCost:         opp.AllInCost,
		ExpectedProfitBps: opp.ExpectedProfitBps,
		SizeShares:        opp.TargetSizeShares,
		Status:            result.Status,
		PnLUSD:            pnl,
	}

	if err := l.store.InsertTrade(l.ctx, rec); err != nil {
		l.logger.Warn("trade-persist-failed",
			zap.String("trade-id", opp.TradeID),
			zap.Error(err))
	}
}

// Close waits for the loop goroutines to stop.
func (l *Loop) Close() error {
	l.wg.Wait()
	l.logger.Info("scan-loop-closed", zap.Uint64("iterations", l.iteration))
	return nil
}
