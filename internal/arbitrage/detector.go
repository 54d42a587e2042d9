package arbitrage

import (
	"time"

	"go.uber.org/zap"

	"github.com/mselser95/clob-arb/internal/pricing"
	"github.com/mselser95/clob-arb/pkg/types"
)

// Config holds detector configuration.
type Config struct {
	MinProfit       float64 // fraction of one quote unit
	FeeBps          float64
	TakerFeeBps     float64 // wins over FeeBps when set
	SlippageBps     float64
	MinTopSizeUSD   float64
	MaxSpreadBps    float64 // 0 disables the spread filter
	UseBookDepth    bool    // VWAP revalidation over full ask depth
	PerMarketMaxUSD float64
	BankrollUSD     float64
	KellyFraction   float64
	Logger          *zap.Logger
}

// Detector turns fresh books into at most one opportunity per market per call.
type Detector struct {
	cfg    Config
	logger *zap.Logger
}

// New creates a detector.
func New(cfg Config) *Detector {
	return &Detector{cfg: cfg, logger: cfg.Logger}
}

// Detect runs the market's detector against a point-in-time book snapshot.
// snapshot holds only fresh books, so a missing entry means a stale or absent
// book and the market is skipped. remainingGlobalUSD is the exposure headroom
// the sizer may consume.
func (d *Detector) Detect(market types.Market, snapshot map[string]*types.OrderBook, remainingGlobalUSD float64) *Opportunity {
	start := time.Now()
	defer func() {
		DetectionDurationSeconds.Observe(time.Since(start).Seconds())
	}()

	legBooks := make([]*types.OrderBook, 0, len(market.Outcomes))
	for _, outcome := range market.Outcomes {
		book, ok := snapshot[outcome.TokenID]
		if !ok {
			RejectedTotal.WithLabelValues("stale_book").Inc()
			return nil
		}
		if !book.HasAsk() || book.BestAskSize <= 0 {
			RejectedTotal.WithLabelValues("empty_ask").Inc()
			return nil
		}
		legBooks = append(legBooks, book)
	}

	asks := make([]float64, len(legBooks))
	for i, book := range legBooks {
		asks[i] = book.BestAskPrice
	}

	feeBps := pricing.EffectiveFeeBps(d.cfg.FeeBps, d.cfg.TakerFeeBps)
	bd, ok := pricing.ComputeCostBreakdown(asks, feeBps, d.cfg.SlippageBps)
	if !ok {
		RejectedTotal.WithLabelValues("ask_sum_at_or_above_one").Inc()
		return nil
	}
	if bd.ExpectedProfit < d.cfg.MinProfit {
		RejectedTotal.WithLabelValues("below_min_profit").Inc()
		return nil
	}

	for _, book := range legBooks {
		if book.BestAskSize*book.BestAskPrice < d.cfg.MinTopSizeUSD {
			RejectedTotal.WithLabelValues("below_min_top_size").Inc()
			return nil
		}
	}

	if d.cfg.MaxSpreadBps > 0 {
		for _, book := range legBooks {
			spreadBps := (book.BestAskPrice - book.BestBidPrice) / book.BestAskPrice * 10_000
			if spreadBps > d.cfg.MaxSpreadBps {
				RejectedTotal.WithLabelValues("spread_too_wide").Inc()
				return nil
			}
		}
	}

	// With depth-based detection the sizer may reach past the top level; the
	// VWAP revalidation below reprices (and shrinks) whatever it picks.
	fillable := make([]float64, len(legBooks))
	for i, book := range legBooks {
		if d.cfg.UseBookDepth {
			for _, lvl := range book.Asks {
				fillable[i] += lvl.Size
			}
		} else {
			fillable[i] = book.BestAskSize
		}
	}

	size := pricing.ComputeOptimalSize(pricing.SizeInputs{
		LegAskPrices:       asks,
		LegFillableSizes:   fillable,
		PerMarketMaxUSD:    d.cfg.PerMarketMaxUSD,
		RemainingGlobalUSD: remainingGlobalUSD,
		BankrollUSD:        d.cfg.BankrollUSD,
		KellyFraction:      d.cfg.KellyFraction,
		ExpectedProfit:     bd.ExpectedProfit,
	})
	if size <= 0 {
		RejectedTotal.WithLabelValues("sized_to_zero").Inc()
		return nil
	}

	if d.cfg.UseBookDepth {
		bd, size, ok = d.revalidateDepth(legBooks, bd, size, feeBps)
		if !ok {
			return nil
		}
	}

	legs := make([]Leg, len(legBooks))
	for i, book := range legBooks {
		legs[i] = Leg{
			Label:    market.Outcomes[i].Label,
			TokenID:  market.Outcomes[i].TokenID,
			AskPrice: book.BestAskPrice,
			BidPrice: book.BestBidPrice,
			AskSize:  book.BestAskSize,
		}
	}

	kind := KindMultiOutcome
	if market.IsBinary() {
		kind = KindBinaryComplement
	}

	opp := newOpportunity(market.Name, kind, legs, bd, size)

	DetectedTotal.Inc()
	ProfitBps.Observe(opp.ExpectedProfitBps)

	d.logger.Info("arbitrage-opportunity-detected",
		zap.String("trade-id", opp.TradeID),
		zap.String("market", opp.MarketName),
		zap.String("kind", opp.Kind.String()),
		zap.Float64("profit-bps", opp.ExpectedProfitBps),
		zap.Int("size-shares", opp.TargetSizeShares))

	return opp
}

// revalidateDepth reprices the arb over full ask depth at the chosen size and
// shrinks the size down to the thinnest leg's fillable depth.
func (d *Detector) revalidateDepth(legBooks []*types.OrderBook, bd pricing.CostBreakdown, size int, feeBps float64) (pricing.CostBreakdown, int, bool) {
	depths := make([][]types.Level, len(legBooks))
	for i, book := range legBooks {
		depths[i] = book.Asks
	}

	vwapBD, ok := pricing.ComputeCostBreakdownVWAP(depths, float64(size), feeBps, d.cfg.SlippageBps)
	if !ok {
		RejectedTotal.WithLabelValues("vwap_ask_sum_at_or_above_one").Inc()
		return bd, 0, false
	}
	if vwapBD.ExpectedProfit < d.cfg.MinProfit {
		RejectedTotal.WithLabelValues("vwap_below_min_profit").Inc()
		return bd, 0, false
	}

	minFillable := float64(size)
	for _, f := range vwapBD.FillableSizes {
		if f < minFillable {
			minFillable = f
		}
	}
	shrunk := int(minFillable)
	if shrunk <= 0 {
		RejectedTotal.WithLabelValues("vwap_unfillable").Inc()
		return bd, 0, false
	}

	return vwapBD, shrunk, true
}
