package testutil

import (
	"github.com/mselser95/clob-arb/pkg/types"
)

// Book builds a one-level book.
func Book(tokenID string, bidPrice, bidSize, askPrice, askSize float64) *types.OrderBook {
	var bids, asks []types.Level
	if bidPrice > 0 && bidSize > 0 {
		bids = []types.Level{{Price: bidPrice, Size: bidSize}}
	}
	if askPrice > 0 && askSize > 0 {
		asks = []types.Level{{Price: askPrice, Size: askSize}}
	}
	return types.NewOrderBook(tokenID, bids, asks)
}

// DeepBook builds a book with explicit depth on both sides.
func DeepBook(tokenID string, bids, asks []types.Level) *types.OrderBook {
	return types.NewOrderBook(tokenID, bids, asks)
}

// BinaryMarket builds a YES/NO market fixture.
func BinaryMarket(name string) types.Market {
	return types.NewBinaryMarket(name, name+"-yes", name+"-no")
}
