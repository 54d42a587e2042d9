// Package positions auto-exits open legs via trailing stop and max age.
//
// The monitor runs on its own cooperative timer. Each tick it refreshes the
// book for every tracked leg, ratchets the high-water mark over the best bid,
// and sells into the bid when the trailing stop or the age limit triggers.
package positions

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/mselser95/clob-arb/internal/exchange"
	"github.com/mselser95/clob-arb/internal/pricing"
	"github.com/mselser95/clob-arb/internal/risk"
	"github.com/mselser95/clob-arb/pkg/types"
)

// Exit reasons emitted with PositionExit.
const (
	ReasonTrailingStop = "trailing_stop"
	ReasonMaxAge       = "max_age"
)

// Config holds position monitor configuration.
type Config struct {
	CheckInterval   time.Duration
	TrailingStopBps float64
	MaxAge          time.Duration
	Logger          *zap.Logger
}

// Monitor tracks filled legs and exits them automatically.
type Monitor struct {
	cfg     Config
	client  exchange.API
	riskMgr *risk.Manager
	logger  *zap.Logger

	mu        sync.Mutex
	positions map[string]*types.Position // key: tradeID + "/" + tokenID

	exitChan chan types.PositionExit
	ctx      context.Context
	wg       sync.WaitGroup
}

// New creates a position monitor.
func New(cfg Config, client exchange.API, riskMgr *risk.Manager) *Monitor {
	return &Monitor{
		cfg:       cfg,
		client:    client,
		riskMgr:   riskMgr,
		logger:    cfg.Logger,
		positions: make(map[string]*types.Position),
		exitChan:  make(chan types.PositionExit, 100),
	}
}

// Start begins the check loop.
func (m *Monitor) Start(ctx context.Context) error {
	m.ctx = ctx
	m.wg.Add(1)
	go m.run()
	return nil
}

func (m *Monitor) run() {
	defer m.wg.Done()

	ticker := time.NewTicker(m.cfg.CheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-m.ctx.Done():
			m.logger.Info("position-monitor-stopping")
			return
		case <-ticker.C:
			m.checkPositions()
		}
	}
}

// Track starts monitoring a filled leg.
func (m *Monitor) Track(pos types.Position) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.positions[pos.TradeID+"/"+pos.TokenID] = &pos
	TrackedPositions.Set(float64(len(m.positions)))
}

// Open returns the number of tracked positions.
func (m *Monitor) Open() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.positions)
}

// ExitChan delivers auto-exits to the orchestrator.
func (m *Monitor) ExitChan() <-chan types.PositionExit {
	return m.exitChan
}

func (m *Monitor) checkPositions() {
	m.mu.Lock()
	keys := make([]string, 0, len(m.positions))
	for key := range m.positions {
		keys = append(keys, key)
	}
	m.mu.Unlock()

	for _, key := range keys {
		m.mu.Lock()
		pos, ok := m.positions[key]
		m.mu.Unlock()
		if !ok {
			continue
		}
		m.checkOne(key, pos)
	}
}

func (m *Monitor) checkOne(key string, pos *types.Position) {
	ctx, cancel := context.WithTimeout(m.ctx, m.cfg.CheckInterval)
	defer cancel()

	book, err := m.client.GetOrderBook(ctx, pos.TokenID)
	if err != nil {
		m.logger.Warn("position-book-fetch-failed",
			zap.String("token-id", pos.TokenID),
			zap.Error(err))
		return
	}
	if !book.HasBid() {
		return
	}

	bid := book.BestBidPrice
	if bid > pos.HighWaterMark {
		pos.HighWaterMark = bid
	}

	if pos.HighWaterMark > 0 {
		drawdownBps := (pos.HighWaterMark - bid) / pos.HighWaterMark * 10_000
		if drawdownBps >= m.cfg.TrailingStopBps && bid > 0 {
			m.exit(ctx, key, pos, bid, ReasonTrailingStop)
			return
		}
	}

	if time.Since(pos.EnteredAt) >= m.cfg.MaxAge {
		m.exit(ctx, key, pos, bid, ReasonMaxAge)
	}
}

func (m *Monitor) exit(ctx context.Context, key string, pos *types.Position, bid float64, reason string) {
	exitPrice := pricing.RoundDown(bid)

	_, err := m.client.PlaceOrder(ctx, pos.TokenID, types.SideSell, exitPrice, pos.Size)
	if err != nil {
		m.logger.Error("position-exit-failed",
			zap.String("token-id", pos.TokenID),
			zap.String("reason", reason),
			zap.Error(err))
		return
	}

	pnl := (exitPrice - pos.EntryPrice) * pos.Size

	m.mu.Lock()
	delete(m.positions, key)
	TrackedPositions.Set(float64(len(m.positions)))
	m.mu.Unlock()

	notional := pos.EntryPrice * pos.Size
	m.riskMgr.UpdateExposure(pos.MarketName, -notional, -notional)
	if pnl < 0 {
		m.riskMgr.RecordLoss(-pnl)
	}

	ExitsTotal.WithLabelValues(reason).Inc()
	ExitPnLUSD.Add(pnl)

	m.logger.Info("position-auto-exited",
		zap.String("trade-id", pos.TradeID),
		zap.String("token-id", pos.TokenID),
		zap.String("reason", reason),
		zap.Float64("entry-price", pos.EntryPrice),
		zap.Float64("exit-price", exitPrice),
		zap.Float64("pnl-usd", pnl))

	select {
	case m.exitChan <- types.PositionExit{
		Position:  *pos,
		Reason:    reason,
		ExitPrice: exitPrice,
		PnL:       pnl,
		ExitedAt:  time.Now(),
	}:
	default:
		m.logger.Warn("position-exit-channel-full")
	}
}

// Close waits for the check loop to stop.
func (m *Monitor) Close() error {
	m.wg.Wait()
	return nil
}
