package pricing

import (
	"github.com/shopspring/decimal"

	"github.com/mselser95/clob-arb/pkg/types"
)

// CostBreakdown is the all-in cost of buying one share of every outcome.
// ExpectedProfit + AllInCost == 1 by construction.
type CostBreakdown struct {
	TotalCost         float64
	FeeCost           float64
	SlippageCost      float64
	AllInCost         float64
	ExpectedProfit    float64
	ExpectedProfitBps float64
	// FillableSizes is the per-leg size actually obtainable at the priced
	// levels. Populated by the VWAP variant; nil for top-of-book.
	FillableSizes []float64
}

// EffectiveFeeBps resolves the fee to apply: takerFeeBps wins when set.
func EffectiveFeeBps(feeBps, takerFeeBps float64) float64 {
	if takerFeeBps > 0 {
		return takerFeeBps
	}
	return feeBps
}

// ComputeCostBreakdown prices the arbitrage at top-of-book ask prices.
// Returns ok=false on the quick-reject path: when the raw ask sum is already
// at or above 1 no further work is worth doing.
func ComputeCostBreakdown(asks []float64, feeBps, slippageBps float64) (CostBreakdown, bool) {
	total := decimal.Zero
	for _, ask := range asks {
		total = total.Add(decimal.NewFromFloat(ask))
	}

	if total.GreaterThanOrEqual(oneDec) {
		return CostBreakdown{}, false
	}

	return breakdownFromTotal(total, feeBps, slippageBps, nil), true
}

// ComputeCostBreakdownVWAP prices the arbitrage at the volume-weighted average
// price obtained by walking each leg's ask depth until targetShares is filled.
// Legs that run out of depth report a FillableSize below targetShares and are
// priced over the depth they do have. The result is independent of leg order.
func ComputeCostBreakdownVWAP(askDepths [][]types.Level, targetShares float64, feeBps, slippageBps float64) (CostBreakdown, bool) {
	if targetShares <= 0 {
		return CostBreakdown{}, false
	}

	target := decimal.NewFromFloat(targetShares)
	total := decimal.Zero
	fillable := make([]float64, len(askDepths))

	for i, levels := range askDepths {
		vwap, filled := walkDepth(levels, target)
		if filled.IsZero() {
			return CostBreakdown{}, false
		}
		total = total.Add(vwap)
		fillable[i], _ = filled.Float64()
	}

	if total.GreaterThanOrEqual(oneDec) {
		return CostBreakdown{}, false
	}

	return breakdownFromTotal(total, feeBps, slippageBps, fillable), true
}

// walkDepth consumes ask levels until target shares are filled and returns the
// volume-weighted average price over the consumed depth plus the filled size.
func walkDepth(levels []types.Level, target decimal.Decimal) (vwap, filled decimal.Decimal) {
	notional := decimal.Zero

	remaining := target
	for _, lvl := range levels {
		if remaining.LessThanOrEqual(decimal.Zero) {
			break
		}
		price := decimal.NewFromFloat(lvl.Price)
		size := decimal.NewFromFloat(lvl.Size)
		take := decimal.Min(size, remaining)
		notional = notional.Add(price.Mul(take))
		filled = filled.Add(take)
		remaining = remaining.Sub(take)
	}

	if filled.IsZero() {
		return decimal.Zero, decimal.Zero
	}
	return notional.Div(filled), filled
}

func breakdownFromTotal(total decimal.Decimal, feeBps, slippageBps float64, fillable []float64) CostBreakdown {
	fee := total.Mul(decimal.NewFromFloat(feeBps)).Div(bpsDec)
	slippage := total.Mul(decimal.NewFromFloat(slippageBps)).Div(bpsDec)
	allIn := total.Add(fee).Add(slippage)
	profit := oneDec.Sub(allIn)

	bd := CostBreakdown{FillableSizes: fillable}
	bd.TotalCost, _ = total.Float64()
	bd.FeeCost, _ = fee.Float64()
	bd.SlippageCost, _ = slippage.Float64()
	bd.AllInCost, _ = allIn.Float64()
	bd.ExpectedProfit, _ = profit.Float64()
	bd.ExpectedProfitBps, _ = profit.Mul(bpsDec).Float64()
	return bd
}
