package arbitrage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mselser95/clob-arb/internal/testutil"
	"github.com/mselser95/clob-arb/pkg/types"
)

func newTestDetector(mutate func(*Config)) *Detector {
	cfg := Config{
		MinProfit:       0.001,
		MinTopSizeUSD:   1,
		PerMarketMaxUSD: 10_000,
		Logger:          zap.NewNop(),
	}
	if mutate != nil {
		mutate(&cfg)
	}
	return New(cfg)
}

func binarySnapshot(yesAsk, yesSize, noAsk, noSize float64) (types.Market, map[string]*types.OrderBook) {
	market := types.NewBinaryMarket("test-market", "tok-yes", "tok-no")
	snapshot := map[string]*types.OrderBook{
		"tok-yes": testutil.Book("tok-yes", yesAsk-0.02, 50, yesAsk, yesSize),
		"tok-no":  testutil.Book("tok-no", noAsk-0.02, 50, noAsk, noSize),
	}
	return market, snapshot
}

func TestDetectBinaryHappyPath(t *testing.T) {
	detector := newTestDetector(nil)
	market, snapshot := binarySnapshot(0.47, 100, 0.51, 100)

	opp := detector.Detect(market, snapshot, 10_000)
	require.NotNil(t, opp)

	assert.Equal(t, KindBinaryComplement, opp.Kind)
	assert.InDelta(t, 0.98, opp.TotalCost, 1e-9)
	assert.InDelta(t, 0.02, opp.ExpectedProfit, 1e-9)
	assert.InDelta(t, 200, opp.ExpectedProfitBps, 1e-6)
	assert.Equal(t, 100, opp.TargetSizeShares)
	assert.NotEmpty(t, opp.TradeID)
	assert.Equal(t, []string{"tok-yes", "tok-no"}, opp.TokenIDs())
}

func TestDetectQuickReject(t *testing.T) {
	detector := newTestDetector(nil)
	market, snapshot := binarySnapshot(0.55, 100, 0.50, 100)

	assert.Nil(t, detector.Detect(market, snapshot, 10_000))
}

func TestDetectMissingBook(t *testing.T) {
	detector := newTestDetector(nil)
	market, snapshot := binarySnapshot(0.47, 100, 0.51, 100)

	// A stale book never reaches the snapshot; its absence kills the market.
	delete(snapshot, "tok-no")
	assert.Nil(t, detector.Detect(market, snapshot, 10_000))
}

func TestDetectEmptyAskSide(t *testing.T) {
	detector := newTestDetector(nil)
	market, snapshot := binarySnapshot(0.47, 100, 0.51, 100)
	snapshot["tok-no"] = testutil.Book("tok-no", 0.40, 50, 0, 0)

	assert.Nil(t, detector.Detect(market, snapshot, 10_000))
}

func TestDetectBelowMinProfit(t *testing.T) {
	detector := newTestDetector(func(cfg *Config) { cfg.MinProfit = 0.05 })
	market, snapshot := binarySnapshot(0.47, 100, 0.51, 100) // 2% edge only

	assert.Nil(t, detector.Detect(market, snapshot, 10_000))
}

func TestDetectLiquidityGate(t *testing.T) {
	detector := newTestDetector(func(cfg *Config) { cfg.MinTopSizeUSD = 100 })
	// 0.47 * 100 = $47 top-of-book on the YES leg: below the gate.
	market, snapshot := binarySnapshot(0.47, 100, 0.51, 1000)

	assert.Nil(t, detector.Detect(market, snapshot, 10_000))
}

func TestDetectSpreadFilter(t *testing.T) {
	detector := newTestDetector(func(cfg *Config) { cfg.MaxSpreadBps = 100 })
	market, snapshot := binarySnapshot(0.47, 100, 0.51, 100)
	// YES spread: (0.47-0.30)/0.47 = ~3617 bps.
	snapshot["tok-yes"] = testutil.Book("tok-yes", 0.30, 50, 0.47, 100)

	assert.Nil(t, detector.Detect(market, snapshot, 10_000))
}

func TestDetectMultiOutcome(t *testing.T) {
	detector := newTestDetector(nil)

	market := types.NewMultiMarket("election", []types.Outcome{
		{Label: "A", TokenID: "tok-a"},
		{Label: "B", TokenID: "tok-b"},
		{Label: "C", TokenID: "tok-c"},
	})
	snapshot := map[string]*types.OrderBook{
		"tok-a": testutil.Book("tok-a", 0.28, 50, 0.30, 100),
		"tok-b": testutil.Book("tok-b", 0.27, 50, 0.29, 100),
		"tok-c": testutil.Book("tok-c", 0.29, 50, 0.31, 100),
	}

	opp := detector.Detect(market, snapshot, 10_000)
	require.NotNil(t, opp)

	assert.Equal(t, KindMultiOutcome, opp.Kind)
	assert.Len(t, opp.Legs, 3)
	assert.InDelta(t, 0.90, opp.TotalCost, 1e-9)
	assert.InDelta(t, 0.10, opp.ExpectedProfit, 1e-9)
	assert.Equal(t, 100, opp.TargetSizeShares)
}

func TestDetectSizedToZero(t *testing.T) {
	detector := newTestDetector(nil)
	market, snapshot := binarySnapshot(0.47, 100, 0.51, 100)

	// No global headroom left.
	assert.Nil(t, detector.Detect(market, snapshot, 0))
}

func TestDetectVWAPRevalidationShrinks(t *testing.T) {
	detector := newTestDetector(func(cfg *Config) { cfg.UseBookDepth = true })

	market := types.NewBinaryMarket("test-market", "tok-yes", "tok-no")
	snapshot := map[string]*types.OrderBook{
		// The YES depth holds only 60 shares across two levels.
		"tok-yes": testutil.DeepBook("tok-yes",
			[]types.Level{{Price: 0.45, Size: 50}},
			[]types.Level{{Price: 0.47, Size: 40}, {Price: 0.48, Size: 20}}),
		"tok-no": testutil.DeepBook("tok-no",
			[]types.Level{{Price: 0.48, Size: 50}},
			[]types.Level{{Price: 0.50, Size: 200}}),
	}

	opp := detector.Detect(market, snapshot, 10_000)
	require.NotNil(t, opp)

	// Sized to the thinnest leg's total depth, priced at its VWAP.
	assert.Equal(t, 60, opp.TargetSizeShares)
	assert.InDelta(t, 0.47333333+0.50, opp.TotalCost, 1e-6)
}

func TestDetectVWAPRevalidationKillsThinEdge(t *testing.T) {
	detector := newTestDetector(func(cfg *Config) { cfg.UseBookDepth = true; cfg.MinProfit = 0.02 })

	market := types.NewBinaryMarket("test-market", "tok-yes", "tok-no")
	snapshot := map[string]*types.OrderBook{
		// Top of book shows a 3% edge, but the depth needed for the full size
		// prices the YES leg up to where the edge dips under min profit.
		"tok-yes": testutil.DeepBook("tok-yes",
			[]types.Level{{Price: 0.45, Size: 50}},
			[]types.Level{{Price: 0.47, Size: 10}, {Price: 0.60, Size: 190}}),
		"tok-no": testutil.DeepBook("tok-no",
			[]types.Level{{Price: 0.48, Size: 50}},
			[]types.Level{{Price: 0.50, Size: 200}}),
	}

	assert.Nil(t, detector.Detect(market, snapshot, 10_000))
}
