// Package testutil provides shared mocks and fixtures for engine tests.
package testutil

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/mselser95/clob-arb/pkg/types"
)

// PlacedOrder records one PlaceOrder call on the mock exchange.
type PlacedOrder struct {
	ID      string
	TokenID string
	Side    types.Side
	Price   float64
	Size    float64
}

// MockExchange is a scriptable in-memory exchange implementing exchange.API.
type MockExchange struct {
	mu sync.Mutex

	// Books served by GetOrderBook, keyed by token id.
	Books map[string]*types.OrderBook
	// BookErrs forces GetOrderBook failures per token id.
	BookErrs map[string]error
	// PlaceErrs forces PlaceOrder failures per token id.
	PlaceErrs map[string]error
	// Orders is the authoritative status store served by GetOrderStatus.
	Orders map[string]*types.Order
	// FillOnPlace immediately marks placed orders fully filled.
	FillOnPlace bool
	// FillFraction, when non-zero with FillOnPlace, fills only this share of
	// the requested size (status partial).
	FillFraction float64

	Balance    float64
	BalanceErr error

	Placed     []PlacedOrder
	Cancelled  []string
	BulkCancel int

	nextID int
}

// NewMockExchange creates an empty mock exchange.
func NewMockExchange() *MockExchange {
	return &MockExchange{
		Books:     make(map[string]*types.OrderBook),
		BookErrs:  make(map[string]error),
		PlaceErrs: make(map[string]error),
		Orders:    make(map[string]*types.Order),
	}
}

// SetBook installs a book for a token.
func (m *MockExchange) SetBook(book *types.OrderBook) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Books[book.TokenID] = book
}

func (m *MockExchange) GetOrderBook(_ context.Context, tokenID string) (*types.OrderBook, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.BookErrs[tokenID]; err != nil {
		return nil, err
	}
	book, ok := m.Books[tokenID]
	if !ok {
		return nil, fmt.Errorf("no book for token %s", tokenID)
	}
	return book.Clone(), nil
}

func (m *MockExchange) PlaceOrder(_ context.Context, tokenID string, side types.Side, price, size float64) (*types.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.PlaceErrs[tokenID]; err != nil {
		return nil, err
	}

	m.nextID++
	id := fmt.Sprintf("mock-order-%d", m.nextID)
	m.Placed = append(m.Placed, PlacedOrder{ID: id, TokenID: tokenID, Side: side, Price: price, Size: size})

	now := time.Now()
	order := &types.Order{
		ID:        id,
		TokenID:   tokenID,
		Side:      side,
		Price:     price,
		Size:      size,
		Status:    types.OrderOpen,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if m.FillOnPlace {
		filled := size
		status := types.OrderFilled
		if m.FillFraction > 0 && m.FillFraction < 1 {
			filled = size * m.FillFraction
			status = types.OrderPartial
		}
		statusCopy := *order
		statusCopy.FilledSize = filled
		statusCopy.Status = status
		m.Orders[id] = &statusCopy
	} else {
		statusCopy := *order
		m.Orders[id] = &statusCopy
	}

	return order, nil
}

func (m *MockExchange) CancelOrder(_ context.Context, orderID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Cancelled = append(m.Cancelled, orderID)
	if order, ok := m.Orders[orderID]; ok && !order.Status.Terminal() {
		order.Status = types.OrderCancelled
	}
	return nil
}

func (m *MockExchange) GetOrderStatus(_ context.Context, orderID string) (*types.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	order, ok := m.Orders[orderID]
	if !ok {
		return nil, nil
	}
	cp := *order
	return &cp, nil
}

func (m *MockExchange) GetBalance(_ context.Context) (float64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.BalanceErr != nil {
		return 0, m.BalanceErr
	}
	return m.Balance, nil
}

func (m *MockExchange) CancelAllOpenOrders(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.BulkCancel++
	return nil
}

// SellOrders returns the sell-side orders placed so far.
func (m *MockExchange) SellOrders() []PlacedOrder {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []PlacedOrder
	for _, po := range m.Placed {
		if po.Side == types.SideSell {
			out = append(out, po)
		}
	}
	return out
}

// BuyOrders returns the buy-side orders placed so far.
func (m *MockExchange) BuyOrders() []PlacedOrder {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []PlacedOrder
	for _, po := range m.Placed {
		if po.Side == types.SideBuy {
			out = append(out, po)
		}
	}
	return out
}
