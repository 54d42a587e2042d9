package app

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/mselser95/clob-arb/internal/arbitrage"
	"github.com/mselser95/clob-arb/internal/books"
	"github.com/mselser95/clob-arb/internal/circuitbreaker"
	"github.com/mselser95/clob-arb/internal/discovery"
	"github.com/mselser95/clob-arb/internal/exchange"
	"github.com/mselser95/clob-arb/internal/execution"
	"github.com/mselser95/clob-arb/internal/markets"
	"github.com/mselser95/clob-arb/internal/notify"
	"github.com/mselser95/clob-arb/internal/positions"
	"github.com/mselser95/clob-arb/internal/ratelimit"
	"github.com/mselser95/clob-arb/internal/retry"
	"github.com/mselser95/clob-arb/internal/risk"
	"github.com/mselser95/clob-arb/internal/scanner"
	"github.com/mselser95/clob-arb/internal/storage"
	"github.com/mselser95/clob-arb/pkg/cache"
	"github.com/mselser95/clob-arb/pkg/config"
	"github.com/mselser95/clob-arb/pkg/healthprobe"
	"github.com/mselser95/clob-arb/pkg/httpserver"
	"github.com/mselser95/clob-arb/pkg/wallet"
	"github.com/mselser95/clob-arb/pkg/websocket"
)

// New builds the application graph. Errors here are fatal for startup.
func New(cfg *config.Config, logger *zap.Logger) (*App, error) {
	ctx, cancel := context.WithCancel(context.Background())

	seed, err := markets.LoadFile(cfg.MarketsFile)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("load markets: %w", err)
	}
	registry := markets.NewRegistry(seed, logger)

	var feed *websocket.Manager
	if cfg.FeedEnabled {
		feed = setupFeed(cfg, logger)
	}

	bookCache := setupBookCache(cfg, logger, registry, feed)
	client, err := NewExchangeClient(cfg, logger)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("setup exchange client: %w", err)
	}

	riskMgr := risk.NewManager(risk.Config{
		MaxExposureUSD:         cfg.MaxExposureUSD,
		PerMarketMaxUSD:        cfg.PerMarketMaxUSD,
		DailyStopLossUSD:       cfg.DailyStopLossUSD,
		MinBalanceUSD:          cfg.MinBalanceUSD,
		MaxOpenOrders:          cfg.MaxOpenOrders,
		SafeModeErrorThreshold: cfg.SafeModeErrorThreshold,
		KillSwitchFile:         cfg.KillSwitchFile,
		Logger:                 logger,
	})
	cooldowns := risk.NewCooldownTracker(cfg.OppCooldown)

	detector := arbitrage.New(arbitrage.Config{
		MinProfit:       cfg.MinProfit,
		FeeBps:          cfg.FeeBps,
		TakerFeeBps:     cfg.TakerFeeBps,
		SlippageBps:     cfg.SlippageBps,
		MinTopSizeUSD:   cfg.MinTopSizeUSD,
		MaxSpreadBps:    cfg.MaxSpreadBps,
		UseBookDepth:    cfg.UseBookDepth,
		PerMarketMaxUSD: cfg.PerMarketMaxUSD,
		BankrollUSD:     cfg.BankrollUSD,
		KellyFraction:   cfg.KellyFraction,
		Logger:          logger,
	})

	executor := execution.New(execution.Config{
		Mode:                  execution.Mode(cfg.Mode),
		EnableLiveTrading:     cfg.EnableLiveTrading,
		OrderTimeout:          cfg.OrderTimeout,
		PriceImprovementTicks: cfg.PriceImprovementTicks,
		GlobalCooldown:        cfg.GlobalCooldown,
		MarketCooldown:        cfg.PerMarketCooldown,
		MinProfit:             cfg.MinProfit,
		FeeBps:                cfg.FeeBps,
		TakerFeeBps:           cfg.TakerFeeBps,
		SlippageBps:           cfg.SlippageBps,
		ConcurrentLegs:        cfg.ConcurrentLegs,
		AdaptiveTimeout:       cfg.AdaptiveTimeout,
		AdaptiveTimeoutMin:    cfg.AdaptiveTimeoutMin,
		AdaptiveTimeoutMax:    cfg.AdaptiveTimeoutMax,
		Logger:                logger,
	}, client, riskMgr)

	monitor := positions.New(positions.Config{
		CheckInterval:   cfg.PositionCheckInterval,
		TrailingStopBps: cfg.TrailingStopBps,
		MaxAge:          cfg.PositionMaxAge,
		Logger:          logger,
	}, client, riskMgr)

	store, err := setupStorage(cfg, logger)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("setup storage: %w", err)
	}
	notifier := notify.NewLogNotifier(logger)

	loop := scanner.New(scanner.Config{
		PollingInterval: cfg.PollingInterval,
		MinProfit:       cfg.MinProfit,
		MarketCooldown:  cfg.PerMarketCooldown,
		Mode:            execution.Mode(cfg.Mode),
		Logger:          logger,
	}, scanner.Deps{
		Registry:  registry,
		Cache:     bookCache,
		Client:    client,
		Detector:  detector,
		Executor:  executor,
		RiskMgr:   riskMgr,
		Cooldowns: cooldowns,
		Monitor:   monitor,
		Notifier:  notifier,
		Store:     store,
	})

	var discoverySvc *discovery.Service
	if cfg.DiscoveryEnabled {
		discoverySvc, err = setupDiscovery(cfg, logger, registry, feed)
		if err != nil {
			cancel()
			return nil, fmt.Errorf("setup discovery: %w", err)
		}
	}

	healthChecker := healthprobe.New()
	httpServer := httpserver.New(&httpserver.Config{
		Port:          cfg.HTTPPort,
		Logger:        logger,
		HealthChecker: healthChecker,
		RiskManager:   riskMgr,
		BookCache:     bookCache,
	})

	return &App{
		cfg:           cfg,
		logger:        logger,
		healthChecker: healthChecker,
		httpServer:    httpServer,
		registry:      registry,
		feed:          feed,
		cache:         bookCache,
		client:        client,
		riskMgr:       riskMgr,
		monitor:       monitor,
		loop:          loop,
		discoverySvc:  discoverySvc,
		store:         store,
		notifier:      notifier,
		ctx:           ctx,
		cancel:        cancel,
	}, nil
}

func setupFeed(cfg *config.Config, logger *zap.Logger) *websocket.Manager {
	return websocket.New(websocket.Config{
		URL:                   cfg.ExchangeWSURL,
		DialTimeout:           cfg.WSDialTimeout,
		PongTimeout:           cfg.WSPongTimeout,
		PingInterval:          cfg.WSPingInterval,
		ReconnectInitialDelay: cfg.WSReconnectInitialDelay,
		ReconnectMaxDelay:     cfg.WSReconnectMaxDelay,
		ReconnectBackoffMult:  cfg.WSReconnectBackoffMult,
		MessageBufferSize:     cfg.WSMessageBufferSize,
		Logger:                logger,
	})
}

func setupBookCache(cfg *config.Config, logger *zap.Logger, registry *markets.Registry, feed *websocket.Manager) *books.Cache {
	bookCfg := &books.Config{
		Logger:          logger,
		PollingInterval: cfg.PollingInterval,
		TokenCount:      len(registry.TokenIDs()),
	}
	if feed != nil {
		bookCfg.MessageChannel = feed.MessageChan()
	}
	return books.New(bookCfg)
}

// NewExchangeClient builds a fully wired exchange client (signer, limiter,
// breaker, retry). Shared with the operator subcommands.
func NewExchangeClient(cfg *config.Config, logger *zap.Logger) (*exchange.Client, error) {
	var signer *wallet.Signer
	if cfg.ExchangePrivateKey != "" {
		var err error
		signer, err = wallet.NewSigner(cfg.ExchangePrivateKey, cfg.ExchangeProxyAddr, cfg.SignatureType)
		if err != nil {
			return nil, fmt.Errorf("create signer: %w", err)
		}
	}

	limiter := ratelimit.NewAdaptive(ratelimit.AdaptiveConfig{
		Capacity:    cfg.RateLimitCapacity,
		InitialRate: cfg.RateLimitInitialRate,
		MinRate:     cfg.RateLimitMinRate,
		MaxRate:     cfg.RateLimitMaxRate,
		Logger:      logger,
	})

	breaker := circuitbreaker.New(circuitbreaker.Config{
		FailureThreshold: cfg.BreakerFailureThreshold,
		SuccessThreshold: cfg.BreakerSuccessThreshold,
		ResetTimeout:     cfg.BreakerResetTimeout,
		Logger:           logger,
	})

	return exchange.NewClient(&exchange.Config{
		BaseURL: cfg.ExchangeBaseURL,
		Credentials: exchange.Credentials{
			APIKey:     cfg.ExchangeAPIKey,
			Secret:     cfg.ExchangeSecret,
			Passphrase: cfg.ExchangePassphrase,
		},
		Signer:  signer,
		Limiter: limiter,
		Breaker: breaker,
		Retry: retry.Policy{
			MaxAttempts:  cfg.RetryMaxAttempts,
			InitialDelay: cfg.RetryInitialDelay,
			MaxDelay:     cfg.RetryMaxDelay,
			Multiplier:   cfg.RetryMultiplier,
			Logger:       logger,
		},
		Logger: logger,
	}), nil
}

func setupStorage(cfg *config.Config, logger *zap.Logger) (storage.Storage, error) {
	if cfg.StorageMode == "postgres" {
		pg, err := storage.NewPostgresStorage(&storage.PostgresConfig{
			Host:     cfg.PostgresHost,
			Port:     cfg.PostgresPort,
			User:     cfg.PostgresUser,
			Password: cfg.PostgresPass,
			Database: cfg.PostgresDB,
			SSLMode:  cfg.PostgresSSL,
			Logger:   logger,
		})
		if err != nil {
			return nil, fmt.Errorf("create postgres storage: %w", err)
		}
		return pg, nil
	}

	return storage.NewConsoleStorage(logger), nil
}

func setupDiscovery(cfg *config.Config, logger *zap.Logger, registry *markets.Registry, feed *websocket.Manager) (*discovery.Service, error) {
	seenCache, err := cache.NewRistrettoCache(&cache.RistrettoConfig{
		NumCounters: 10_000,
		MaxCost:     1_000,
		BufferItems: 64,
		Logger:      logger,
	})
	if err != nil {
		return nil, fmt.Errorf("create seen cache: %w", err)
	}

	var onNewTokens func([]string)
	if feed != nil {
		onNewTokens = func(tokenIDs []string) {
			if err := feed.Subscribe(tokenIDs); err != nil {
				logger.Warn("feed-subscribe-new-market-failed", zap.Error(err))
			}
		}
	}

	return discovery.New(&discovery.Config{
		Client:       discovery.NewClient(cfg.GammaAPIURL, logger),
		Registry:     registry,
		SeenCache:    seenCache,
		PollInterval: cfg.DiscoveryPoll,
		MarketLimit:  cfg.DiscoveryLimit,
		OnNewTokens:  onNewTokens,
		Logger:       logger,
	}), nil
}
