package positions

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mselser95/clob-arb/internal/risk"
	"github.com/mselser95/clob-arb/internal/testutil"
	"github.com/mselser95/clob-arb/pkg/types"
)

func newTestMonitor(t *testing.T, mock *testutil.MockExchange) (*Monitor, *risk.Manager) {
	t.Helper()

	riskMgr := risk.NewManager(risk.Config{
		MaxExposureUSD:   10_000,
		PerMarketMaxUSD:  1_000,
		DailyStopLossUSD: 500,
		MaxOpenOrders:    10,
		KillSwitchFile:   filepath.Join(t.TempDir(), "KILL_SWITCH"),
		Logger:           zap.NewNop(),
	})

	m := New(Config{
		CheckInterval:   time.Second,
		TrailingStopBps: 500, // 5%
		MaxAge:          time.Hour,
		Logger:          zap.NewNop(),
	}, mock, riskMgr)
	m.ctx = context.Background()
	return m, riskMgr
}

func trackTestPosition(m *Monitor, entry float64) {
	m.Track(types.Position{
		TradeID:    "trade-1",
		MarketName: "test-market",
		TokenID:    "tok-1",
		EntryPrice: entry,
		Size:       100,
		EnteredAt:  time.Now(),
	})
}

func TestHighWaterMarkRatchets(t *testing.T) {
	mock := testutil.NewMockExchange()
	m, _ := newTestMonitor(t, mock)
	trackTestPosition(m, 0.47)

	mock.SetBook(testutil.Book("tok-1", 0.50, 100, 0.52, 100))
	m.checkPositions()
	require.Equal(t, 1, m.Open())

	pos := m.positions["trade-1/tok-1"]
	assert.InDelta(t, 0.50, pos.HighWaterMark, 1e-9)

	// Bid dips but not past the stop: high-water mark holds.
	mock.SetBook(testutil.Book("tok-1", 0.49, 100, 0.52, 100))
	m.checkPositions()
	require.Equal(t, 1, m.Open())
	assert.InDelta(t, 0.50, pos.HighWaterMark, 1e-9)
}

func TestTrailingStopExit(t *testing.T) {
	mock := testutil.NewMockExchange()
	m, riskMgr := newTestMonitor(t, mock)
	trackTestPosition(m, 0.47)

	mock.SetBook(testutil.Book("tok-1", 0.50, 100, 0.52, 100))
	m.checkPositions()

	// 0.50 -> 0.45 is a 10% drawdown from the high-water mark.
	mock.SetBook(testutil.Book("tok-1", 0.45, 100, 0.52, 100))
	m.checkPositions()

	assert.Equal(t, 0, m.Open())

	sells := mock.SellOrders()
	require.Len(t, sells, 1)
	assert.InDelta(t, 0.45, sells[0].Price, 1e-9)

	// Exit below entry books the loss.
	assert.InDelta(t, (0.47-0.45)*100, riskMgr.GetSnapshot().DailyLossUSD, 1e-9)

	exit := <-m.ExitChan()
	assert.Equal(t, ReasonTrailingStop, exit.Reason)
	assert.InDelta(t, (0.45-0.47)*100, exit.PnL, 1e-9)
}

func TestMaxAgeExit(t *testing.T) {
	mock := testutil.NewMockExchange()
	m, riskMgr := newTestMonitor(t, mock)
	m.cfg.MaxAge = time.Millisecond

	m.Track(types.Position{
		TradeID:    "trade-1",
		MarketName: "test-market",
		TokenID:    "tok-1",
		EntryPrice: 0.47,
		Size:       100,
		EnteredAt:  time.Now().Add(-time.Minute),
	})
	mock.SetBook(testutil.Book("tok-1", 0.48, 100, 0.52, 100))

	m.checkPositions()

	assert.Equal(t, 0, m.Open())
	exit := <-m.ExitChan()
	assert.Equal(t, ReasonMaxAge, exit.Reason)
	assert.InDelta(t, (0.48-0.47)*100, exit.PnL, 1e-9)

	// Profitable exit: no loss booked.
	assert.Equal(t, 0.0, riskMgr.GetSnapshot().DailyLossUSD)
}

func TestExitKeptWhenSellFails(t *testing.T) {
	mock := testutil.NewMockExchange()
	m, _ := newTestMonitor(t, mock)
	m.cfg.MaxAge = time.Millisecond

	m.Track(types.Position{
		TradeID:    "trade-1",
		MarketName: "test-market",
		TokenID:    "tok-1",
		EntryPrice: 0.47,
		Size:       100,
		EnteredAt:  time.Now().Add(-time.Minute),
	})
	mock.SetBook(testutil.Book("tok-1", 0.48, 100, 0.52, 100))
	mock.PlaceErrs["tok-1"] = assert.AnError

	m.checkPositions()

	// Sell failed: the position stays tracked for the next cycle.
	assert.Equal(t, 1, m.Open())
}

func TestNoBidSkipsChecks(t *testing.T) {
	mock := testutil.NewMockExchange()
	m, _ := newTestMonitor(t, mock)
	trackTestPosition(m, 0.47)

	mock.SetBook(testutil.Book("tok-1", 0, 0, 0.52, 100))
	m.checkPositions()

	assert.Equal(t, 1, m.Open())
	assert.Empty(t, mock.Placed)
}
