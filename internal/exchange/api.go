package exchange

import (
	"context"

	"github.com/mselser95/clob-arb/pkg/types"
)

// API is the typed surface of the exchange consumed by the engine. Client
// implements it; tests substitute mocks.
type API interface {
	// GetOrderBook fetches and normalises one token's book: sorted sides,
	// best levels computed.
	GetOrderBook(ctx context.Context, tokenID string) (*types.OrderBook, error)

	// PlaceOrder submits a limit order. The price must already be
	// tick-rounded in the trade direction (up for buys, down for sells).
	PlaceOrder(ctx context.Context, tokenID string, side types.Side, price, size float64) (*types.Order, error)

	// CancelOrder cancels an order; a missing order counts as success.
	CancelOrder(ctx context.Context, orderID string) error

	// GetOrderStatus returns the authoritative order state, or (nil, nil)
	// when the exchange does not know the order — unknown, not cancelled.
	GetOrderStatus(ctx context.Context, orderID string) (*types.Order, error)

	// GetBalance returns the available quote-currency balance.
	GetBalance(ctx context.Context) (float64, error)

	// CancelAllOpenOrders is a best-effort bulk cancel used on shutdown.
	CancelAllOpenOrders(ctx context.Context) error
}
