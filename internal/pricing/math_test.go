package pricing

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRounding(t *testing.T) {
	tests := []struct {
		name        string
		price       float64
		wantNearest float64
		wantUp      float64
		wantDown    float64
	}{
		{name: "on-tick", price: 0.47, wantNearest: 0.47, wantUp: 0.47, wantDown: 0.47},
		{name: "between-ticks", price: 0.473, wantNearest: 0.47, wantUp: 0.48, wantDown: 0.47},
		{name: "midpoint-rounds-away", price: 0.475, wantNearest: 0.48, wantUp: 0.48, wantDown: 0.47},
		{name: "clamps-low", price: 0.001, wantNearest: 0.01, wantUp: 0.01, wantDown: 0.01},
		{name: "clamps-high", price: 1.25, wantNearest: 0.99, wantUp: 0.99, wantDown: 0.99},
		{name: "float-noise", price: 0.07000000000000001, wantNearest: 0.07, wantUp: 0.07, wantDown: 0.07},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.wantNearest, RoundNearest(tt.price), 1e-12)
			assert.InDelta(t, tt.wantUp, RoundUp(tt.price), 1e-12)
			assert.InDelta(t, tt.wantDown, RoundDown(tt.price), 1e-12)
		})
	}
}

// roundUp(p) >= p >= roundDown(p), both in range and on tick boundaries.
func TestRoundingInvariants(t *testing.T) {
	prices := []float64{0.01, 0.013, 0.25, 0.333, 0.5, 0.666, 0.98, 0.987, 0.99}

	for _, p := range prices {
		up := RoundUp(p)
		down := RoundDown(p)

		assert.GreaterOrEqual(t, up, down)
		assert.GreaterOrEqual(t, up, MinPrice)
		assert.LessOrEqual(t, up, MaxPrice)
		assert.GreaterOrEqual(t, down, MinPrice)
		assert.LessOrEqual(t, down, MaxPrice)

		// Multiples of the tick within floating tolerance.
		assert.InDelta(t, up, RoundNearest(up), 1e-12)
		assert.InDelta(t, down, RoundNearest(down), 1e-12)
	}
}

func TestRoundNearestIdempotent(t *testing.T) {
	for _, p := range []float64{0.013, 0.475, 0.981, 0.5} {
		once := RoundNearest(p)
		assert.Equal(t, once, RoundNearest(once))
	}
}

func TestAdjustByTicks(t *testing.T) {
	assert.InDelta(t, 0.49, AdjustByTicks(0.47, 2), 1e-12)
	assert.InDelta(t, 0.45, AdjustByTicks(0.47, -2), 1e-12)
	assert.InDelta(t, 0.47, AdjustByTicks(AdjustByTicks(0.47, 3), -3), 1e-12)

	// Clamped at the boundaries.
	assert.InDelta(t, 0.99, AdjustByTicks(0.98, 5), 1e-12)
	assert.InDelta(t, 0.01, AdjustByTicks(0.02, -5), 1e-12)
}
