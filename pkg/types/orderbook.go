package types

import (
	"math"
	"sort"
	"strconv"
	"time"
)

// Level is a single resting price level. Price and size are strictly positive.
type Level struct {
	Price float64
	Size  float64
}

// PriceLevel is the wire representation with string-encoded decimals.
type PriceLevel struct {
	Price string `json:"price"`
	Size  string `json:"size"`
}

// BookMessage represents a book update from the push feed or the REST book endpoint.
type BookMessage struct {
	EventType string       `json:"event_type,omitempty"` // "book", "price_change"
	TokenID   string       `json:"token_id"`
	Bids      []PriceLevel `json:"bids"`
	Asks      []PriceLevel `json:"asks"`
}

// OrderBook is a point-in-time view of one token's book.
// Bids are ordered descending, asks ascending. BestAskPrice is +Inf when the
// ask side is empty so that cost sums stay conservative.
type OrderBook struct {
	TokenID      string
	Bids         []Level
	Asks         []Level
	BestBidPrice float64
	BestBidSize  float64
	BestAskPrice float64
	BestAskSize  float64
	LastUpdated  time.Time
}

// NewOrderBook builds an OrderBook from raw levels, sorting each side and
// computing the best levels. Levels with non-positive price or size are dropped.
func NewOrderBook(tokenID string, bids, asks []Level) *OrderBook {
	book := &OrderBook{
		TokenID:      tokenID,
		Bids:         sanitize(bids),
		Asks:         sanitize(asks),
		BestAskPrice: math.Inf(1),
		LastUpdated:  time.Now(),
	}

	sort.Slice(book.Bids, func(i, j int) bool { return book.Bids[i].Price > book.Bids[j].Price })
	sort.Slice(book.Asks, func(i, j int) bool { return book.Asks[i].Price < book.Asks[j].Price })

	if len(book.Bids) > 0 {
		book.BestBidPrice = book.Bids[0].Price
		book.BestBidSize = book.Bids[0].Size
	}
	if len(book.Asks) > 0 {
		book.BestAskPrice = book.Asks[0].Price
		book.BestAskSize = book.Asks[0].Size
	}

	return book
}

func sanitize(levels []Level) []Level {
	out := make([]Level, 0, len(levels))
	for _, lvl := range levels {
		if lvl.Price > 0 && lvl.Size > 0 {
			out = append(out, lvl)
		}
	}
	return out
}

// HasAsk reports whether the ask side is populated.
func (b *OrderBook) HasAsk() bool {
	return len(b.Asks) > 0 && !math.IsInf(b.BestAskPrice, 1)
}

// HasBid reports whether the bid side is populated.
func (b *OrderBook) HasBid() bool {
	return len(b.Bids) > 0
}

// Age returns how long ago the book was last updated.
func (b *OrderBook) Age(now time.Time) time.Duration {
	return now.Sub(b.LastUpdated)
}

// Clone returns a deep copy of the book.
func (b *OrderBook) Clone() *OrderBook {
	cp := *b
	cp.Bids = append([]Level(nil), b.Bids...)
	cp.Asks = append([]Level(nil), b.Asks...)
	return &cp
}

// ParseLevels converts wire price levels to numeric levels.
func ParseLevels(raw []PriceLevel) ([]Level, error) {
	levels := make([]Level, 0, len(raw))
	for _, pl := range raw {
		price, err := strconv.ParseFloat(pl.Price, 64)
		if err != nil {
			return nil, err
		}
		size, err := strconv.ParseFloat(pl.Size, 64)
		if err != nil {
			return nil, err
		}
		levels = append(levels, Level{Price: price, Size: size})
	}
	return levels, nil
}
