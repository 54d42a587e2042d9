package pricing

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestComputeOptimalSize(t *testing.T) {
	base := SizeInputs{
		LegAskPrices:       []float64{0.47, 0.51},
		LegFillableSizes:   []float64{100, 100},
		PerMarketMaxUSD:    1000,
		RemainingGlobalUSD: 1000,
		BankrollUSD:        0,
		KellyFraction:      0,
		ExpectedProfit:     0.02,
	}

	tests := []struct {
		name   string
		mutate func(*SizeInputs)
		want   int
	}{
		{name: "depth-bound", mutate: func(in *SizeInputs) {}, want: 100},
		{
			name:   "thin-leg-bounds",
			mutate: func(in *SizeInputs) { in.LegFillableSizes = []float64{100, 40} },
			want:   40,
		},
		{
			name:   "per-market-cap",
			mutate: func(in *SizeInputs) { in.PerMarketMaxUSD = 25.5 }, // 25.5 / 0.51 = 50
			want:   50,
		},
		{
			name:   "global-headroom-cap",
			mutate: func(in *SizeInputs) { in.RemainingGlobalUSD = 10.2 }, // 10.2 / 0.51 = 20
			want:   20,
		},
		{
			name: "kelly-cap",
			mutate: func(in *SizeInputs) {
				in.BankrollUSD = 1000
				in.KellyFraction = 0.5
				// 0.5 * 1000 * 0.02 / 0.98 = 10.2
			},
			want: 10,
		},
		{
			name:   "no-edge",
			mutate: func(in *SizeInputs) { in.ExpectedProfit = 0 },
			want:   0,
		},
		{
			name:   "negative-edge",
			mutate: func(in *SizeInputs) { in.ExpectedProfit = -0.01 },
			want:   0,
		},
		{
			name:   "exhausted-global",
			mutate: func(in *SizeInputs) { in.RemainingGlobalUSD = 0 },
			want:   0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := base
			in.LegAskPrices = append([]float64(nil), base.LegAskPrices...)
			in.LegFillableSizes = append([]float64(nil), base.LegFillableSizes...)
			tt.mutate(&in)

			got := ComputeOptimalSize(in)
			assert.Equal(t, tt.want, got)

			// Output never exceeds any supplied per-leg size.
			for _, fillable := range in.LegFillableSizes {
				assert.LessOrEqual(t, float64(got), fillable)
			}
		})
	}
}
