// Package books maintains the staleness-gated order book cache.
//
// Books arrive from two sources that are treated identically: sequential REST
// pulls by the scan loop, and push feed messages drained off a bounded
// channel. A book older than the cache's max age is dead; Get returns nil for
// it and detectors never see it.
package books

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/mselser95/clob-arb/pkg/types"
)

// MaxAgeFor computes the freshness bound: the larger of twice the polling
// interval (plus dispatch slack) and the time a full throttled sequential
// refresh of every token takes.
func MaxAgeFor(pollingInterval time.Duration, tokenCount int) time.Duration {
	byPolling := 2*pollingInterval + 200*time.Millisecond
	byFetch := time.Duration(tokenCount)*150*time.Millisecond + 2*time.Second
	if byFetch > byPolling {
		return byFetch
	}
	return byPolling
}

// Cache is the staleness-gated top-of-book / depth cache keyed by token id.
type Cache struct {
	mu       sync.RWMutex
	books    map[string]*types.OrderBook
	maxAge   time.Duration
	lastPush time.Time

	logger  *zap.Logger
	msgChan <-chan *types.BookMessage
	ctx     context.Context
	wg      sync.WaitGroup
}

// Config holds book cache configuration.
type Config struct {
	Logger          *zap.Logger
	PollingInterval time.Duration
	TokenCount      int
	// MessageChannel optionally delivers push feed updates; nil disables.
	MessageChannel <-chan *types.BookMessage
}

// New creates a book cache.
func New(cfg *Config) *Cache {
	return &Cache{
		books:   make(map[string]*types.OrderBook),
		maxAge:  MaxAgeFor(cfg.PollingInterval, cfg.TokenCount),
		logger:  cfg.Logger,
		msgChan: cfg.MessageChannel,
	}
}

// Start begins draining the push feed, when one is configured.
func (c *Cache) Start(ctx context.Context) error {
	c.ctx = ctx
	if c.msgChan == nil {
		return nil
	}

	c.wg.Add(1)
	go c.processMessages()
	return nil
}

func (c *Cache) processMessages() {
	defer c.wg.Done()

	for {
		select {
		case <-c.ctx.Done():
			c.logger.Info("book-cache-stopping")
			return
		case msg, ok := <-c.msgChan:
			if !ok {
				c.logger.Info("book-feed-channel-closed")
				return
			}
			c.handleMessage(msg)
		}
	}
}

func (c *Cache) handleMessage(msg *types.BookMessage) {
	bids, err := types.ParseLevels(msg.Bids)
	if err != nil {
		c.logger.Warn("book-message-bad-bids", zap.String("token-id", msg.TokenID), zap.Error(err))
		return
	}
	asks, err := types.ParseLevels(msg.Asks)
	if err != nil {
		c.logger.Warn("book-message-bad-asks", zap.String("token-id", msg.TokenID), zap.Error(err))
		return
	}

	c.Set(msg.TokenID, types.NewOrderBook(msg.TokenID, bids, asks))

	c.mu.Lock()
	c.lastPush = time.Now()
	c.mu.Unlock()

	PushUpdatesTotal.Inc()
}

// Set replaces the book for a token wholesale and stamps its update time.
func (c *Cache) Set(tokenID string, book *types.OrderBook) {
	book.LastUpdated = time.Now()

	c.mu.Lock()
	c.books[tokenID] = book
	BooksTracked.Set(float64(len(c.books)))
	c.mu.Unlock()
}

// Get returns a copy of the book for tokenID, or nil when missing or stale.
func (c *Cache) Get(tokenID string) *types.OrderBook {
	c.mu.RLock()
	defer c.mu.RUnlock()

	book, ok := c.books[tokenID]
	if !ok {
		return nil
	}
	if book.Age(time.Now()) > c.maxAge {
		StaleReadsTotal.Inc()
		return nil
	}
	return book.Clone()
}

// GetAll returns copies of every fresh book, a point-in-time snapshot for one
// detection pass.
func (c *Cache) GetAll() map[string]*types.OrderBook {
	c.mu.RLock()
	defer c.mu.RUnlock()

	now := time.Now()
	out := make(map[string]*types.OrderBook, len(c.books))
	for id, book := range c.books {
		if book.Age(now) <= c.maxAge {
			out[id] = book.Clone()
		}
	}
	return out
}

// MaxAge returns the freshness bound in force.
func (c *Cache) MaxAge() time.Duration {
	return c.maxAge
}

// FeedActive reports whether a push update arrived within window. The scan
// loop falls back to sequential pulls when the feed goes quiet.
func (c *Cache) FeedActive(window time.Duration) bool {
	if c.msgChan == nil {
		return false
	}

	c.mu.RLock()
	defer c.mu.RUnlock()
	return !c.lastPush.IsZero() && time.Since(c.lastPush) <= window
}

// Close waits for the feed drain goroutine to stop.
func (c *Cache) Close() error {
	c.wg.Wait()
	return nil
}
