package types

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewOrderBookSortsAndComputesBest(t *testing.T) {
	book := NewOrderBook("tok-1",
		[]Level{{Price: 0.40, Size: 10}, {Price: 0.45, Size: 5}},
		[]Level{{Price: 0.50, Size: 20}, {Price: 0.47, Size: 100}})

	assert.Equal(t, 0.45, book.BestBidPrice)
	assert.Equal(t, 5.0, book.BestBidSize)
	assert.Equal(t, 0.47, book.BestAskPrice)
	assert.Equal(t, 100.0, book.BestAskSize)

	// bids[0] == best bid, asks[0] == best ask, correct orderings.
	assert.Equal(t, book.BestBidPrice, book.Bids[0].Price)
	assert.Equal(t, book.BestAskPrice, book.Asks[0].Price)
	assert.Less(t, book.Bids[1].Price, book.Bids[0].Price)
	assert.Greater(t, book.Asks[1].Price, book.Asks[0].Price)
	assert.Less(t, book.BestBidPrice, book.BestAskPrice)
}

func TestNewOrderBookEmptyAskIsInfinite(t *testing.T) {
	book := NewOrderBook("tok-1", []Level{{Price: 0.40, Size: 10}}, nil)

	assert.True(t, math.IsInf(book.BestAskPrice, 1))
	assert.False(t, book.HasAsk())
	assert.True(t, book.HasBid())
}

func TestNewOrderBookDropsInvalidLevels(t *testing.T) {
	book := NewOrderBook("tok-1",
		[]Level{{Price: 0, Size: 10}, {Price: 0.4, Size: 0}},
		[]Level{{Price: -1, Size: 5}})

	assert.False(t, book.HasBid())
	assert.False(t, book.HasAsk())
}

func TestCloneIsDeep(t *testing.T) {
	book := NewOrderBook("tok-1", nil, []Level{{Price: 0.47, Size: 100}})
	cp := book.Clone()
	cp.Asks[0].Price = 0.99

	assert.Equal(t, 0.47, book.Asks[0].Price)
}

func TestAge(t *testing.T) {
	book := NewOrderBook("tok-1", nil, nil)
	book.LastUpdated = time.Now().Add(-3 * time.Second)

	assert.GreaterOrEqual(t, book.Age(time.Now()), 3*time.Second)
}

func TestParseLevels(t *testing.T) {
	levels, err := ParseLevels([]PriceLevel{{Price: "0.47", Size: "100.5"}})
	require.NoError(t, err)
	require.Len(t, levels, 1)
	assert.Equal(t, 0.47, levels[0].Price)
	assert.Equal(t, 100.5, levels[0].Size)

	_, err = ParseLevels([]PriceLevel{{Price: "abc", Size: "1"}})
	assert.Error(t, err)

	_, err = ParseLevels([]PriceLevel{{Price: "0.47", Size: "x"}})
	assert.Error(t, err)
}

func TestOrderStatusTerminal(t *testing.T) {
	assert.True(t, OrderFilled.Terminal())
	assert.True(t, OrderCancelled.Terminal())
	assert.True(t, OrderExpired.Terminal())
	assert.False(t, OrderOpen.Terminal())
	assert.False(t, OrderPartial.Terminal())
}

func TestOrderFullyFilled(t *testing.T) {
	order := &Order{Size: 100, FilledSize: 100}
	assert.True(t, order.FullyFilled())

	order.FilledSize = 99.9995
	assert.True(t, order.FullyFilled())

	order.FilledSize = 50
	assert.False(t, order.FullyFilled())
}

func TestMarketAccessors(t *testing.T) {
	binary := NewBinaryMarket("m", "yes-tok", "no-tok")
	assert.True(t, binary.IsBinary())
	assert.Equal(t, "yes-tok", binary.YesTokenID())
	assert.Equal(t, "no-tok", binary.NoTokenID())
	assert.Equal(t, []string{"yes-tok", "no-tok"}, binary.TokenIDs())

	multi := NewMultiMarket("e", []Outcome{
		{Label: "A", TokenID: "a"}, {Label: "B", TokenID: "b"}, {Label: "C", TokenID: "c"},
	})
	assert.False(t, multi.IsBinary())
	assert.Empty(t, multi.YesTokenID())
	assert.Equal(t, []string{"a", "b", "c"}, multi.TokenIDs())
}
