package arbitrage

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mselser95/clob-arb/internal/pricing"
)

// Kind discriminates the opportunity union.
type Kind int

const (
	// KindBinaryComplement is a YES+NO pair summing below one.
	KindBinaryComplement Kind = iota
	// KindMultiOutcome is an N-way outcome set summing below one.
	KindMultiOutcome
)

func (k Kind) String() string {
	switch k {
	case KindBinaryComplement:
		return "binary_complement"
	case KindMultiOutcome:
		return "multi_outcome"
	default:
		return "unknown"
	}
}

// Leg is one outcome to buy. For binary opportunities legs are in YES, NO order.
type Leg struct {
	Label    string
	TokenID  string
	AskPrice float64
	BidPrice float64
	AskSize  float64
}

// Opportunity is a detected arbitrage. Created in one scan cycle, consumed at
// most once, never mutated.
type Opportunity struct {
	TradeID           string
	MarketName        string
	Kind              Kind
	Legs              []Leg
	TotalCost         float64
	FeeCost           float64
	SlippageCost      float64
	AllInCost         float64
	ExpectedProfit    float64
	ExpectedProfitBps float64
	TargetSizeShares  int
	DetectedAt        time.Time
}

func newOpportunity(marketName string, kind Kind, legs []Leg, bd pricing.CostBreakdown, sizeShares int) *Opportunity {
	return &Opportunity{
		TradeID:           uuid.New().String(),
		MarketName:        marketName,
		Kind:              kind,
		Legs:              legs,
		TotalCost:         bd.TotalCost,
		FeeCost:           bd.FeeCost,
		SlippageCost:      bd.SlippageCost,
		AllInCost:         bd.AllInCost,
		ExpectedProfit:    bd.ExpectedProfit,
		ExpectedProfitBps: bd.ExpectedProfitBps,
		TargetSizeShares:  sizeShares,
		DetectedAt:        time.Now(),
	}
}

// TokenIDs returns the token ids of every leg in declared order.
func (o *Opportunity) TokenIDs() []string {
	ids := make([]string, len(o.Legs))
	for i, leg := range o.Legs {
		ids[i] = leg.TokenID
	}
	return ids
}

// AskPrices returns every leg's ask price in declared order.
func (o *Opportunity) AskPrices() []float64 {
	asks := make([]float64, len(o.Legs))
	for i, leg := range o.Legs {
		asks[i] = leg.AskPrice
	}
	return asks
}

// YesLeg returns the YES leg of a binary complement opportunity.
func (o *Opportunity) YesLeg() Leg {
	return o.Legs[0]
}

// NoLeg returns the NO leg of a binary complement opportunity.
func (o *Opportunity) NoLeg() Leg {
	return o.Legs[1]
}

// EstimatedExposureUSD is the all-in cost of the full target size.
func (o *Opportunity) EstimatedExposureUSD() float64 {
	return o.AllInCost * float64(o.TargetSizeShares)
}

// String returns a compact human-readable summary.
func (o *Opportunity) String() string {
	return fmt.Sprintf(
		"Opportunity[%s] market=%s kind=%s legs=%d sum=%.4f allin=%.4f profit=%.0fbps size=%d",
		o.TradeID[:8],
		o.MarketName,
		o.Kind,
		len(o.Legs),
		o.TotalCost,
		o.AllInCost,
		o.ExpectedProfitBps,
		o.TargetSizeShares,
	)
}
