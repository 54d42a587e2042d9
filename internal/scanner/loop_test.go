package scanner

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mselser95/clob-arb/internal/arbitrage"
	"github.com/mselser95/clob-arb/internal/books"
	"github.com/mselser95/clob-arb/internal/execution"
	"github.com/mselser95/clob-arb/internal/markets"
	"github.com/mselser95/clob-arb/internal/notify"
	"github.com/mselser95/clob-arb/internal/positions"
	"github.com/mselser95/clob-arb/internal/risk"
	"github.com/mselser95/clob-arb/internal/storage"
	"github.com/mselser95/clob-arb/internal/testutil"
	"github.com/mselser95/clob-arb/pkg/types"
)

func newTestLoop(t *testing.T, mock *testutil.MockExchange) (*Loop, *risk.Manager, *risk.CooldownTracker) {
	t.Helper()
	logger := zap.NewNop()

	registry := markets.NewRegistry([]types.Market{
		types.NewBinaryMarket("test-market", "tok-yes", "tok-no"),
	}, logger)

	cache := books.New(&books.Config{
		Logger:          logger,
		PollingInterval: time.Second,
		TokenCount:      2,
	})

	riskMgr := risk.NewManager(risk.Config{
		MaxExposureUSD:         10_000,
		PerMarketMaxUSD:        1_000,
		DailyStopLossUSD:       500,
		MinBalanceUSD:          1,
		MaxOpenOrders:          10,
		SafeModeErrorThreshold: 5,
		KillSwitchFile:         filepath.Join(t.TempDir(), "KILL_SWITCH"),
		Logger:                 logger,
	})
	riskMgr.UpdateBalance(5_000)

	cooldowns := risk.NewCooldownTracker(5 * time.Minute)

	detector := arbitrage.New(arbitrage.Config{
		MinProfit:       0.001,
		MinTopSizeUSD:   1,
		PerMarketMaxUSD: 1_000,
		Logger:          logger,
	})

	executor := execution.New(execution.Config{
		Mode:              execution.ModeLive,
		EnableLiveTrading: true,
		OrderTimeout:      200 * time.Millisecond,
		GlobalCooldown:    time.Minute,
		MarketCooldown:    time.Minute,
		MinProfit:         0.001,
		Logger:            logger,
	}, mock, riskMgr)

	monitor := positions.New(positions.Config{
		CheckInterval:   time.Second,
		TrailingStopBps: 500,
		MaxAge:          time.Hour,
		Logger:          logger,
	}, mock, riskMgr)

	loop := New(Config{
		PollingInterval: 10 * time.Millisecond,
		MinProfit:       0.001,
		MarketCooldown:  time.Minute,
		Mode:            execution.ModeLive,
		Logger:          logger,
	}, Deps{
		Registry:  registry,
		Cache:     cache,
		Client:    mock,
		Detector:  detector,
		Executor:  executor,
		RiskMgr:   riskMgr,
		Cooldowns: cooldowns,
		Monitor:   monitor,
		Notifier:  notify.NewLogNotifier(logger),
		Store:     storage.NewConsoleStorage(logger),
	})
	loop.ctx = context.Background()

	return loop, riskMgr, cooldowns
}

func seedArb(mock *testutil.MockExchange) {
	mock.SetBook(testutil.Book("tok-yes", 0.40, 100, 0.47, 100))
	mock.SetBook(testutil.Book("tok-no", 0.44, 100, 0.51, 100))
	mock.Balance = 5_000
	mock.FillOnPlace = true
}

func TestRunOnceExecutesBestOpportunity(t *testing.T) {
	mock := testutil.NewMockExchange()
	seedArb(mock)

	loop, riskMgr, cooldowns := newTestLoop(t, mock)
	loop.runOnce()

	// Both legs bought, both tracked, token set cooled down.
	require.Len(t, mock.BuyOrders(), 2)
	assert.Equal(t, 2, loop.monitor.Open())
	assert.True(t, cooldowns.IsSuppressed([]string{"tok-yes", "tok-no"}))

	// Market cooldown armed unconditionally after execution.
	decision := riskMgr.CanTrade("test-market", 1)
	assert.False(t, decision.Allowed)
}

func TestRunOnceSuppressedSecondCycle(t *testing.T) {
	mock := testutil.NewMockExchange()
	seedArb(mock)

	loop, _, _ := newTestLoop(t, mock)
	loop.runOnce()
	placed := len(mock.BuyOrders())

	loop.runOnce()
	assert.Equal(t, placed, len(mock.BuyOrders()))
}

func TestRunOnceNoOpportunity(t *testing.T) {
	mock := testutil.NewMockExchange()
	mock.SetBook(testutil.Book("tok-yes", 0.48, 100, 0.52, 100))
	mock.SetBook(testutil.Book("tok-no", 0.46, 100, 0.50, 100))
	mock.Balance = 5_000

	loop, _, _ := newTestLoop(t, mock)
	loop.runOnce()

	assert.Empty(t, mock.Placed)
}

func TestRunOnceKillSwitchSkipsCycle(t *testing.T) {
	mock := testutil.NewMockExchange()
	seedArb(mock)

	loop, _, _ := newTestLoop(t, mock)
	t.Setenv("KILL_SWITCH", "1")

	loop.runOnce()
	assert.Empty(t, mock.Placed)
}

func TestRunOncePullsBooksIntoCache(t *testing.T) {
	mock := testutil.NewMockExchange()
	seedArb(mock)
	mock.FillOnPlace = false
	// Empty the arb away so only the pull matters.
	mock.SetBook(testutil.Book("tok-yes", 0.48, 100, 0.55, 100))
	mock.SetBook(testutil.Book("tok-no", 0.46, 100, 0.50, 100))

	loop, _, _ := newTestLoop(t, mock)
	loop.runOnce()

	require.NotNil(t, loop.cache.Get("tok-yes"))
	require.NotNil(t, loop.cache.Get("tok-no"))
}

func TestPickBest(t *testing.T) {
	loop, _, _ := newTestLoop(t, testutil.NewMockExchange())

	low := &arbitrage.Opportunity{ExpectedProfitBps: 100}
	high := &arbitrage.Opportunity{ExpectedProfitBps: 300}
	mid := &arbitrage.Opportunity{ExpectedProfitBps: 200}

	assert.Equal(t, high, loop.pickBest([]*arbitrage.Opportunity{low, high, mid}))
	assert.Nil(t, loop.pickBest(nil))
}
