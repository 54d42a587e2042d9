// Package pricing implements tick-precise price arithmetic, cost modeling and
// trade sizing for binary-outcome CLOB arbitrage.
//
// Price rounding and cost breakdowns run on arbitrary-precision decimals
// internally, with float64 only at their boundaries; the sizer's caps are
// computed in float64. Buy-side prices round up and
// sell-side prices round down, so every caller pays at most what it computed
// and receives at least what it computed.
package pricing

import "github.com/shopspring/decimal"

const (
	// Tick is the minimum price increment on the exchange.
	Tick = 0.01
	// MinPrice is the lowest valid order price.
	MinPrice = 0.01
	// MaxPrice is the highest valid order price.
	MaxPrice = 0.99
)

var (
	tickDec = decimal.NewFromFloat(Tick)
	minDec  = decimal.NewFromFloat(MinPrice)
	maxDec  = decimal.NewFromFloat(MaxPrice)
	oneDec  = decimal.NewFromInt(1)
	bpsDec  = decimal.NewFromInt(10_000)
)

func clamp(d decimal.Decimal) decimal.Decimal {
	if d.LessThan(minDec) {
		return minDec
	}
	if d.GreaterThan(maxDec) {
		return maxDec
	}
	return d
}

func roundTicks(price float64, round func(decimal.Decimal) decimal.Decimal) float64 {
	d := decimal.NewFromFloat(price)
	ticks := round(d.Div(tickDec))
	out, _ := clamp(ticks.Mul(tickDec)).Float64()
	return out
}

// RoundNearest rounds price to the nearest tick and clamps to [MinPrice, MaxPrice].
func RoundNearest(price float64) float64 {
	return roundTicks(price, func(d decimal.Decimal) decimal.Decimal { return d.Round(0) })
}

// RoundUp rounds price up to the next tick. Use for buy-side prices.
func RoundUp(price float64) float64 {
	return roundTicks(price, func(d decimal.Decimal) decimal.Decimal { return d.Ceil() })
}

// RoundDown rounds price down to the previous tick. Use for sell-side prices.
func RoundDown(price float64) float64 {
	return roundTicks(price, func(d decimal.Decimal) decimal.Decimal { return d.Floor() })
}

// AdjustByTicks moves price by n ticks (n may be negative) and clamps.
func AdjustByTicks(price float64, n int) float64 {
	d := decimal.NewFromFloat(price).Add(tickDec.Mul(decimal.NewFromInt(int64(n))))
	out, _ := clamp(d).Float64()
	return out
}
