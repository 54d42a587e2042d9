// Package exchange wraps the CLOB HTTPS API behind a typed client.
//
// Every call passes through the adaptive rate limiter, the circuit breaker
// and the retry policy, in that order. Order placement costs two rate-limit
// tokens; everything else costs one.
package exchange

import (
	"context"
	"fmt"
	"math/big"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	gojson "github.com/goccy/go-json"
	"github.com/polymarket/go-order-utils/pkg/builder"
	"go.uber.org/zap"

	"github.com/mselser95/clob-arb/internal/circuitbreaker"
	"github.com/mselser95/clob-arb/internal/ratelimit"
	"github.com/mselser95/clob-arb/internal/retry"
	"github.com/mselser95/clob-arb/pkg/types"
	"github.com/mselser95/clob-arb/pkg/wallet"
)

const (
	chainID           = 137
	defaultTimeout    = 30 * time.Second
	placeTokenCost    = 2
	defaultTokenCost  = 1
	cancelMaxAttempts = 3
)

// Credentials are the L2 API credentials for request signing.
type Credentials struct {
	APIKey     string
	Secret     string
	Passphrase string
}

// Config holds exchange client configuration.
type Config struct {
	BaseURL     string
	Credentials Credentials
	Signer      *wallet.Signer
	Limiter     *ratelimit.Adaptive
	Breaker     *circuitbreaker.Breaker
	Retry       retry.Policy
	HTTPTimeout time.Duration
	Logger      *zap.Logger
}

// Client is the typed exchange wrapper.
type Client struct {
	http         *resty.Client
	creds        Credentials
	signer       *wallet.Signer
	orderBuilder builder.ExchangeOrderBuilder
	limiter      *ratelimit.Adaptive
	breaker      *circuitbreaker.Breaker
	retry        retry.Policy
	logger       *zap.Logger

	mu     sync.Mutex
	placed map[string]string // orderID -> tokenID, first-success record
}

// NewClient creates an exchange client.
func NewClient(cfg *Config) *Client {
	timeout := cfg.HTTPTimeout
	if timeout == 0 {
		timeout = defaultTimeout
	}

	httpClient := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(timeout)
	httpClient.JSONMarshal = gojson.Marshal
	httpClient.JSONUnmarshal = gojson.Unmarshal

	return &Client{
		http:         httpClient,
		creds:        cfg.Credentials,
		signer:       cfg.Signer,
		orderBuilder: builder.NewExchangeOrderBuilderImpl(big.NewInt(chainID), nil),
		limiter:      cfg.Limiter,
		breaker:      cfg.Breaker,
		retry:        cfg.Retry,
		logger:       cfg.Logger,
		placed:       make(map[string]string),
	}
}

// call runs one attempt function under limiter, breaker and retry policy,
// feeding outcomes back into the adaptive limiter.
func (c *Client) call(ctx context.Context, op string, tokens float64, attempt func(context.Context) error) error {
	return c.callWith(ctx, c.retry, op, tokens, attempt)
}

func (c *Client) callWith(ctx context.Context, policy retry.Policy, op string, tokens float64, attempt func(context.Context) error) error {
	return policy.Do(ctx, op, func(ctx context.Context) error {
		if err := c.limiter.Acquire(ctx, tokens); err != nil {
			return err
		}
		if err := c.breaker.Allow(); err != nil {
			return err
		}

		start := time.Now()
		err := attempt(ctx)
		RequestDurationSeconds.WithLabelValues(op).Observe(time.Since(start).Seconds())

		if err != nil {
			RequestsTotal.WithLabelValues(op, "error").Inc()
			c.breaker.RecordFailure()
			if types.IsRateLimited(err) {
				c.limiter.OnRateLimited()
			} else {
				c.limiter.OnError()
			}
			return err
		}

		RequestsTotal.WithLabelValues(op, "ok").Inc()
		c.breaker.RecordSuccess()
		c.limiter.OnSuccess()
		return nil
	})
}

// apiError converts a non-2xx response into a typed APIError with any
// Retry-After hint preserved.
func apiError(op string, resp *resty.Response) *types.APIError {
	retryAfter := time.Duration(0)
	if header := resp.Header().Get("Retry-After"); header != "" {
		if secs, err := strconv.Atoi(header); err == nil {
			retryAfter = time.Duration(secs) * time.Second
		}
	}

	return &types.APIError{
		Op:         op,
		Status:     resp.StatusCode(),
		Body:       string(resp.Body()),
		RetryAfter: retryAfter,
	}
}

type bookResponse struct {
	Bids []types.PriceLevel `json:"bids"`
	Asks []types.PriceLevel `json:"asks"`
}

// GetOrderBook fetches one token's book.
func (c *Client) GetOrderBook(ctx context.Context, tokenID string) (*types.OrderBook, error) {
	var book *types.OrderBook

	err := c.call(ctx, "get_order_book", defaultTokenCost, func(ctx context.Context) error {
		resp, err := c.http.R().
			SetContext(ctx).
			SetQueryParam("token_id", tokenID).
			Get("/book")
		if err != nil {
			return fmt.Errorf("get book: %w", err)
		}
		if resp.StatusCode() != http.StatusOK {
			return apiError("get_order_book", resp)
		}

		var body bookResponse
		if err := gojson.Unmarshal(resp.Body(), &body); err != nil {
			return fmt.Errorf("parse book: %w", err)
		}

		bids, err := types.ParseLevels(body.Bids)
		if err != nil {
			return fmt.Errorf("parse bids: %w", err)
		}
		asks, err := types.ParseLevels(body.Asks)
		if err != nil {
			return fmt.Errorf("parse asks: %w", err)
		}

		book = types.NewOrderBook(tokenID, bids, asks)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return book, nil
}

type placeResponse struct {
	Success  bool   `json:"success"`
	ErrorMsg string `json:"errorMsg"`
	OrderID  string `json:"orderID"`
}

// PlaceOrder signs and submits a limit order. The exchange does not guarantee
// idempotency, so the first successful submission is recorded and retries
// after it become no-ops instead of double-submitting.
func (c *Client) PlaceOrder(ctx context.Context, tokenID string, side types.Side, price, size float64) (*types.Order, error) {
	payload, err := c.buildOrderPayload(tokenID, side, price, size)
	if err != nil {
		return nil, fmt.Errorf("build order: %w", err)
	}

	var placed *types.Order

	err = c.call(ctx, "place_order", placeTokenCost, func(ctx context.Context) error {
		if placed != nil {
			return nil
		}

		headers, err := c.authHeaders(http.MethodPost, "/order", payload)
		if err != nil {
			return err
		}

		resp, err := c.http.R().
			SetContext(ctx).
			SetHeaders(headers).
			SetHeader("Content-Type", "application/json").
			SetBody(payload).
			Post("/order")
		if err != nil {
			return fmt.Errorf("submit order: %w", err)
		}
		if resp.StatusCode() != http.StatusOK && resp.StatusCode() != http.StatusCreated {
			return apiError("place_order", resp)
		}

		var body placeResponse
		if err := gojson.Unmarshal(resp.Body(), &body); err != nil {
			return fmt.Errorf("parse order response: %w", err)
		}
		if !body.Success || body.OrderID == "" {
			return fmt.Errorf("order rejected: %s", body.ErrorMsg)
		}

		now := time.Now()
		placed = &types.Order{
			ID:        body.OrderID,
			TokenID:   tokenID,
			Side:      side,
			Price:     price,
			Size:      size,
			Status:    types.OrderOpen,
			CreatedAt: now,
			UpdatedAt: now,
		}

		c.mu.Lock()
		c.placed[body.OrderID] = tokenID
		c.mu.Unlock()

		c.logger.Info("order-placed",
			zap.String("order-id", body.OrderID),
			zap.String("token-id", tokenID),
			zap.String("side", string(side)),
			zap.Float64("price", price),
			zap.Float64("size", size))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return placed, nil
}

// CancelOrder cancels an order. Retried twice beyond the first attempt; a 404
// means the order is already gone and counts as success.
func (c *Client) CancelOrder(ctx context.Context, orderID string) error {
	cancelPolicy := c.retry
	cancelPolicy.MaxAttempts = cancelMaxAttempts

	return c.callWith(ctx, cancelPolicy, "cancel_order", defaultTokenCost, func(ctx context.Context) error {
		path := "/order/" + orderID
		headers, err := c.authHeaders(http.MethodDelete, path, nil)
		if err != nil {
			return err
		}

		resp, err := c.http.R().
			SetContext(ctx).
			SetHeaders(headers).
			Delete(path)
		if err != nil {
			return fmt.Errorf("cancel order: %w", err)
		}
		if resp.StatusCode() == http.StatusNotFound {
			return nil
		}
		if resp.StatusCode() < 200 || resp.StatusCode() >= 300 {
			return apiError("cancel_order", resp)
		}

		c.mu.Lock()
		delete(c.placed, orderID)
		c.mu.Unlock()
		return nil
	})
}

type orderStatusResponse struct {
	ID           string `json:"id"`
	AssetID      string `json:"asset_id"`
	Side         string `json:"side"`
	Price        string `json:"price"`
	OriginalSize string `json:"original_size"`
	SizeMatched  string `json:"size_matched"`
	Status       string `json:"status"`
}

// GetOrderStatus returns the authoritative fill state, or (nil, nil) when the
// exchange does not know the order.
func (c *Client) GetOrderStatus(ctx context.Context, orderID string) (*types.Order, error) {
	var order *types.Order

	err := c.call(ctx, "get_order_status", defaultTokenCost, func(ctx context.Context) error {
		path := "/order/" + orderID
		headers, err := c.authHeaders(http.MethodGet, path, nil)
		if err != nil {
			return err
		}

		resp, err := c.http.R().
			SetContext(ctx).
			SetHeaders(headers).
			Get(path)
		if err != nil {
			return fmt.Errorf("get order: %w", err)
		}
		if resp.StatusCode() == http.StatusNotFound {
			order = nil
			return nil
		}
		if resp.StatusCode() != http.StatusOK {
			return apiError("get_order_status", resp)
		}

		var body orderStatusResponse
		if err := gojson.Unmarshal(resp.Body(), &body); err != nil {
			return fmt.Errorf("parse order status: %w", err)
		}

		order, err = body.toOrder()
		return err
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

func (r *orderStatusResponse) toOrder() (*types.Order, error) {
	price, err := strconv.ParseFloat(r.Price, 64)
	if err != nil {
		return nil, fmt.Errorf("parse price: %w", err)
	}
	size, err := strconv.ParseFloat(r.OriginalSize, 64)
	if err != nil {
		return nil, fmt.Errorf("parse original size: %w", err)
	}
	matched, err := strconv.ParseFloat(r.SizeMatched, 64)
	if err != nil {
		return nil, fmt.Errorf("parse size matched: %w", err)
	}

	order := &types.Order{
		ID:         r.ID,
		TokenID:    r.AssetID,
		Side:       types.Side(r.Side),
		Price:      price,
		Size:       size,
		FilledSize: matched,
		UpdatedAt:  time.Now(),
	}

	switch r.Status {
	case "CANCELED", "CANCELLED":
		order.Status = types.OrderCancelled
	case "EXPIRED":
		order.Status = types.OrderExpired
	default:
		switch {
		case order.FullyFilled():
			order.Status = types.OrderFilled
		case matched > 0:
			order.Status = types.OrderPartial
		default:
			order.Status = types.OrderOpen
		}
	}

	return order, nil
}

type balanceResponse struct {
	Balance string `json:"balance"`
}

// GetBalance returns the available quote balance.
func (c *Client) GetBalance(ctx context.Context) (float64, error) {
	var balance float64

	err := c.call(ctx, "get_balance", defaultTokenCost, func(ctx context.Context) error {
		headers, err := c.authHeaders(http.MethodGet, "/balance", nil)
		if err != nil {
			return err
		}

		resp, err := c.http.R().
			SetContext(ctx).
			SetHeaders(headers).
			Get("/balance")
		if err != nil {
			return fmt.Errorf("get balance: %w", err)
		}
		if resp.StatusCode() != http.StatusOK {
			return apiError("get_balance", resp)
		}

		var body balanceResponse
		if err := gojson.Unmarshal(resp.Body(), &body); err != nil {
			return fmt.Errorf("parse balance: %w", err)
		}

		balance, err = strconv.ParseFloat(body.Balance, 64)
		if err != nil {
			return fmt.Errorf("parse balance value: %w", err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return balance, nil
}

// CancelAllOpenOrders broadcasts a bulk cancel. Best-effort: used on shutdown.
func (c *Client) CancelAllOpenOrders(ctx context.Context) error {
	return c.call(ctx, "cancel_all", defaultTokenCost, func(ctx context.Context) error {
		headers, err := c.authHeaders(http.MethodDelete, "/orders", nil)
		if err != nil {
			return err
		}

		resp, err := c.http.R().
			SetContext(ctx).
			SetHeaders(headers).
			Delete("/orders")
		if err != nil {
			return fmt.Errorf("cancel all: %w", err)
		}
		if resp.StatusCode() < 200 || resp.StatusCode() >= 300 {
			return apiError("cancel_all", resp)
		}

		c.mu.Lock()
		c.placed = make(map[string]string)
		c.mu.Unlock()
		return nil
	})
}

// PlacedOrders returns a copy of the orders recorded as successfully placed.
func (c *Client) PlacedOrders() map[string]string {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make(map[string]string, len(c.placed))
	for id, token := range c.placed {
		out[id] = token
	}
	return out
}
