package pricing

import "math"

// SizeInputs are the constraints feeding the sizing decision.
type SizeInputs struct {
	LegAskPrices       []float64
	LegFillableSizes   []float64 // shares available per leg at the priced levels
	PerMarketMaxUSD    float64
	RemainingGlobalUSD float64
	BankrollUSD        float64
	KellyFraction      float64
	ExpectedProfit     float64 // edge per share set, from the cost model
}

// ComputeOptimalSize returns the share count to trade: the floor of the
// tightest of four caps (per-leg depth, per-market USD cap, remaining global
// exposure, Kelly). Returns 0 when the opportunity carries no edge.
func ComputeOptimalSize(in SizeInputs) int {
	if in.ExpectedProfit <= 0 || len(in.LegAskPrices) == 0 {
		return 0
	}

	maxAsk := 0.0
	askSum := 0.0
	for _, ask := range in.LegAskPrices {
		askSum += ask
		if ask > maxAsk {
			maxAsk = ask
		}
	}
	if maxAsk <= 0 || askSum <= 0 {
		return 0
	}

	size := math.Inf(1)
	for _, fillable := range in.LegFillableSizes {
		size = math.Min(size, fillable)
	}

	size = math.Min(size, in.PerMarketMaxUSD/maxAsk)
	size = math.Min(size, in.RemainingGlobalUSD/maxAsk)

	if in.KellyFraction > 0 && in.BankrollUSD > 0 {
		kelly := in.KellyFraction * in.BankrollUSD * in.ExpectedProfit / askSum
		size = math.Min(size, kelly)
	}

	if math.IsInf(size, 1) || size <= 0 {
		return 0
	}
	return int(math.Floor(size))
}
