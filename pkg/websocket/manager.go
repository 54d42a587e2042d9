// Package websocket maintains the optional push book feed.
//
// A single connection subscribes to every tracked token id and delivers
// decoded book messages into a bounded channel that the book cache drains.
// The connection heals itself: read failures trigger backoff reconnects and
// resubscription of everything previously subscribed.
package websocket

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	json "github.com/goccy/go-json"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/mselser95/clob-arb/pkg/types"
)

// Manager manages the push feed connection.
type Manager struct {
	url          string
	conn         *websocket.Conn
	logger       *zap.Logger
	reconnectMgr *ReconnectManager
	config       Config
	messageChan  chan *types.BookMessage
	ctx          context.Context
	cancel       context.CancelFunc
	wg           sync.WaitGroup
	mu           sync.RWMutex
	subscribed   map[string]bool
	connected    atomic.Bool
	lastPongTime atomic.Int64
}

// Config holds feed configuration.
type Config struct {
	URL                   string
	DialTimeout           time.Duration
	PongTimeout           time.Duration
	PingInterval          time.Duration
	ReconnectInitialDelay time.Duration
	ReconnectMaxDelay     time.Duration
	ReconnectBackoffMult  float64
	MessageBufferSize     int
	Logger                *zap.Logger
}

// New creates a feed manager.
func New(cfg Config) *Manager {
	ctx, cancel := context.WithCancel(context.Background())

	return &Manager{
		url:    cfg.URL,
		logger: cfg.Logger,
		reconnectMgr: NewReconnectManager(ReconnectConfig{
			InitialDelay:      cfg.ReconnectInitialDelay,
			MaxDelay:          cfg.ReconnectMaxDelay,
			BackoffMultiplier: cfg.ReconnectBackoffMult,
			JitterPercent:     0.2,
		}, cfg.Logger),
		config:      cfg,
		messageChan: make(chan *types.BookMessage, cfg.MessageBufferSize),
		ctx:         ctx,
		cancel:      cancel,
		subscribed:  make(map[string]bool),
	}
}

// Start dials and begins the read, ping and reconnect loops.
func (m *Manager) Start() error {
	m.logger.Info("book-feed-starting", zap.String("url", m.url))

	if err := m.connect(m.ctx); err != nil {
		return fmt.Errorf("initial connection: %w", err)
	}

	m.wg.Add(2)
	go m.readLoop()
	go m.pingLoop()

	return nil
}

func (m *Manager) connect(ctx context.Context) error {
	dialer := websocket.Dialer{HandshakeTimeout: m.config.DialTimeout}

	conn, _, err := dialer.DialContext(ctx, m.url, nil)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}

	conn.SetPongHandler(func(string) error {
		m.lastPongTime.Store(time.Now().Unix())
		return nil
	})

	m.mu.Lock()
	m.conn = conn
	m.mu.Unlock()

	m.connected.Store(true)
	m.lastPongTime.Store(time.Now().Unix())
	ActiveConnections.Set(1)

	m.logger.Info("book-feed-connected")
	return nil
}

// Subscribe adds token ids to the feed subscription.
func (m *Manager) Subscribe(tokenIDs []string) error {
	if len(tokenIDs) == 0 {
		return nil
	}

	m.mu.Lock()
	newTokens := make([]string, 0, len(tokenIDs))
	for _, tokenID := range tokenIDs {
		if !m.subscribed[tokenID] {
			newTokens = append(newTokens, tokenID)
			m.subscribed[tokenID] = true
		}
	}
	conn := m.conn
	total := len(m.subscribed)
	m.mu.Unlock()

	if len(newTokens) == 0 {
		return nil
	}

	err := conn.WriteJSON(map[string]interface{}{
		"assets_ids": newTokens,
		"type":       "market",
	})
	if err != nil {
		m.mu.Lock()
		for _, tokenID := range newTokens {
			delete(m.subscribed, tokenID)
		}
		m.mu.Unlock()
		return fmt.Errorf("write subscribe message: %w", err)
	}

	SubscriptionCount.Set(float64(total))
	m.logger.Info("book-feed-subscribed",
		zap.Int("new-count", len(newTokens)),
		zap.Int("total-count", total))
	return nil
}

func (m *Manager) readLoop() {
	defer m.wg.Done()

	for {
		select {
		case <-m.ctx.Done():
			return
		default:
		}

		m.mu.RLock()
		conn := m.conn
		m.mu.RUnlock()

		_, data, err := conn.ReadMessage()
		if err != nil {
			m.connected.Store(false)
			ActiveConnections.Set(0)

			select {
			case <-m.ctx.Done():
				return
			default:
			}

			m.logger.Warn("book-feed-read-error", zap.Error(err))
			if reconnErr := m.reconnect(); reconnErr != nil {
				m.logger.Error("book-feed-reconnect-abandoned", zap.Error(reconnErr))
				return
			}
			continue
		}

		var msg types.BookMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			m.logger.Debug("book-feed-decode-error", zap.Error(err))
			continue
		}
		if msg.TokenID == "" {
			continue
		}

		MessagesTotal.Inc()
		select {
		case m.messageChan <- &msg:
		default:
			DroppedTotal.Inc()
			m.logger.Warn("book-feed-channel-full-dropping",
				zap.String("token-id", msg.TokenID))
		}
	}
}

// reconnect re-dials with backoff and resubscribes everything.
func (m *Manager) reconnect() error {
	err := m.reconnectMgr.Run(m.ctx, func(ctx context.Context) error {
		return m.connect(ctx)
	})
	if err != nil {
		return err
	}

	m.mu.Lock()
	tokenIDs := make([]string, 0, len(m.subscribed))
	for tokenID := range m.subscribed {
		tokenIDs = append(tokenIDs, tokenID)
	}
	m.subscribed = make(map[string]bool)
	m.mu.Unlock()

	return m.Subscribe(tokenIDs)
}

func (m *Manager) pingLoop() {
	defer m.wg.Done()

	ticker := time.NewTicker(m.config.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-m.ctx.Done():
			return
		case <-ticker.C:
			if !m.connected.Load() {
				continue
			}

			m.mu.RLock()
			conn := m.conn
			m.mu.RUnlock()

			deadline := time.Now().Add(m.config.PongTimeout)
			if err := conn.WriteControl(websocket.PingMessage, nil, deadline); err != nil {
				m.logger.Warn("book-feed-ping-failed", zap.Error(err))
			}
		}
	}
}

// MessageChan delivers decoded book messages.
func (m *Manager) MessageChan() <-chan *types.BookMessage {
	return m.messageChan
}

// Connected reports whether the feed is currently up.
func (m *Manager) Connected() bool {
	return m.connected.Load()
}

// Close tears the connection down and stops the loops.
func (m *Manager) Close() error {
	m.cancel()

	m.mu.RLock()
	conn := m.conn
	m.mu.RUnlock()
	if conn != nil {
		_ = conn.Close()
	}

	m.wg.Wait()
	close(m.messageChan)
	m.logger.Info("book-feed-closed")
	return nil
}
