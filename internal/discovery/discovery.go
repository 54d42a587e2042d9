package discovery

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/mselser95/clob-arb/internal/markets"
	"github.com/mselser95/clob-arb/pkg/cache"
)

// Service polls the discovery API and feeds new markets into the registry.
type Service struct {
	client       *Client
	registry     *markets.Registry
	seen         cache.Cache
	pollInterval time.Duration
	marketLimit  int
	logger       *zap.Logger
	// onNewTokens is invoked with the token ids of each newly registered
	// market, so the feed can subscribe to them.
	onNewTokens func([]string)
}

// Config holds discovery configuration.
type Config struct {
	Client       *Client
	Registry     *markets.Registry
	SeenCache    cache.Cache
	PollInterval time.Duration
	MarketLimit  int
	OnNewTokens  func([]string)
	Logger       *zap.Logger
}

// New creates a discovery service.
func New(cfg *Config) *Service {
	return &Service{
		client:       cfg.Client,
		registry:     cfg.Registry,
		seen:         cfg.SeenCache,
		pollInterval: cfg.PollInterval,
		marketLimit:  cfg.MarketLimit,
		onNewTokens:  cfg.OnNewTokens,
		logger:       cfg.Logger,
	}
}

// Run polls until the context ends.
func (s *Service) Run(ctx context.Context) error {
	s.logger.Info("discovery-starting",
		zap.Duration("poll-interval", s.pollInterval),
		zap.Int("market-limit", s.marketLimit))

	s.poll(ctx)

	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("discovery-stopping")
			return ctx.Err()
		case <-ticker.C:
			s.poll(ctx)
		}
	}
}

func (s *Service) poll(ctx context.Context) {
	found, err := s.client.FetchMarkets(ctx, s.marketLimit)
	if err != nil {
		s.logger.Warn("discovery-poll-failed", zap.Error(err))
		return
	}

	added := 0
	for _, market := range found {
		// Seen-cache keeps repeat polls cheap; the registry is still the
		// authority on duplicates.
		if _, hit := s.seen.Get(market.Name); hit {
			continue
		}
		s.seen.Set(market.Name, struct{}{}, 2*s.pollInterval)

		if !s.registry.Add(market) {
			continue
		}
		added++
		if s.onNewTokens != nil {
			s.onNewTokens(market.TokenIDs())
		}
	}

	if added > 0 {
		s.logger.Info("discovery-markets-added",
			zap.Int("added", added),
			zap.Int("registry-size", s.registry.Len()))
	}
}
