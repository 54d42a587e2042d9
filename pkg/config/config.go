package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	gojson "github.com/goccy/go-json"
)

// Config holds all application configuration.
type Config struct {
	// Application
	Mode     string // "dry", "paper" or "live"
	LogLevel string
	HTTPPort string

	// Exchange API
	ExchangeBaseURL    string
	ExchangeWSURL      string
	GammaAPIURL        string
	ExchangeAPIKey     string
	ExchangeSecret     string
	ExchangePassphrase string
	ExchangePrivateKey string
	ExchangeProxyAddr  string
	SignatureType      int

	// Markets
	MarketsFile      string
	DiscoveryEnabled bool
	DiscoveryPoll    time.Duration
	DiscoveryLimit   int
	FeedEnabled      bool

	// Scanning & detection
	PollingInterval time.Duration
	MinProfit       float64 // fraction of one quote unit
	FeeBps          float64
	TakerFeeBps     float64
	SlippageBps     float64
	MinTopSizeUSD   float64
	MaxSpreadBps    float64
	UseBookDepth    bool

	// Sizing
	PerMarketMaxUSD float64
	MaxExposureUSD  float64
	BankrollUSD     float64
	KellyFraction   float64

	// Execution
	EnableLiveTrading     bool
	OrderTimeout          time.Duration
	PriceImprovementTicks int
	ConcurrentLegs        bool
	AdaptiveTimeout       bool
	AdaptiveTimeoutMin    time.Duration
	AdaptiveTimeoutMax    time.Duration

	// Risk
	DailyStopLossUSD       float64
	MinBalanceUSD          float64
	MaxOpenOrders          int
	GlobalCooldown         time.Duration
	PerMarketCooldown      time.Duration
	OppCooldown            time.Duration
	SafeModeErrorThreshold int
	KillSwitchFile         string

	// Positions
	PositionCheckInterval time.Duration
	PositionMaxAge        time.Duration
	TrailingStopBps       float64

	// Rate limiting
	RateLimitCapacity    float64
	RateLimitInitialRate float64
	RateLimitMinRate     float64
	RateLimitMaxRate     float64

	// Retry
	RetryMaxAttempts  int
	RetryInitialDelay time.Duration
	RetryMaxDelay     time.Duration
	RetryMultiplier   float64

	// Circuit breaker
	BreakerFailureThreshold int
	BreakerSuccessThreshold int
	BreakerResetTimeout     time.Duration

	// Book feed
	WSDialTimeout           time.Duration
	WSPongTimeout           time.Duration
	WSPingInterval          time.Duration
	WSReconnectInitialDelay time.Duration
	WSReconnectMaxDelay     time.Duration
	WSReconnectBackoffMult  float64
	WSMessageBufferSize     int

	// Storage
	StorageMode  string // "postgres" or "console"
	PostgresHost string
	PostgresPort string
	PostgresUser string
	PostgresPass string
	PostgresDB   string
	PostgresSSL  string
}

// LoadFromEnv loads configuration from environment variables with defaults.
func LoadFromEnv() (*Config, error) {
	cfg := &Config{
		Mode:     getEnvOrDefault("MODE", "dry"),
		LogLevel: getEnvOrDefault("LOG_LEVEL", "info"),
		HTTPPort: getEnvOrDefault("HTTP_PORT", "8080"),

		ExchangeBaseURL:    getEnvOrDefault("EXCHANGE_BASE_URL", "https://clob.polymarket.com"),
		ExchangeWSURL:      getEnvOrDefault("EXCHANGE_WS_URL", "wss://ws-subscriptions-clob.polymarket.com/ws/market"),
		GammaAPIURL:        getEnvOrDefault("GAMMA_API_URL", "https://gamma-api.polymarket.com"),
		ExchangeAPIKey:     os.Getenv("EXCHANGE_API_KEY"),
		ExchangeSecret:     os.Getenv("EXCHANGE_SECRET"),
		ExchangePassphrase: os.Getenv("EXCHANGE_PASSPHRASE"),
		ExchangePrivateKey: os.Getenv("EXCHANGE_PRIVATE_KEY"),
		ExchangeProxyAddr:  os.Getenv("EXCHANGE_PROXY_ADDRESS"),
		SignatureType:      getIntOrDefault("EXCHANGE_SIGNATURE_TYPE", 0),

		MarketsFile:      getEnvOrDefault("MARKETS_FILE", "./markets.json"),
		DiscoveryEnabled: getBoolOrDefault("DISCOVERY_ENABLED", false),
		DiscoveryPoll:    getDurationOrDefault("DISCOVERY_POLL_INTERVAL", 30*time.Second),
		DiscoveryLimit:   getIntOrDefault("DISCOVERY_MARKET_LIMIT", 200),
		FeedEnabled:      getBoolOrDefault("BOOK_FEED_ENABLED", false),

		PollingInterval: getDurationOrDefault("ARB_POLLING_INTERVAL", 1*time.Second),
		MinProfit:       getFloat64OrDefault("ARB_MIN_PROFIT", 0.005),
		FeeBps:          getFloat64OrDefault("ARB_FEE_BPS", 0),
		TakerFeeBps:     getFloat64OrDefault("ARB_TAKER_FEE_BPS", 0),
		SlippageBps:     getFloat64OrDefault("ARB_SLIPPAGE_BPS", 10),
		MinTopSizeUSD:   getFloat64OrDefault("ARB_MIN_TOP_SIZE_USD", 10),
		MaxSpreadBps:    getFloat64OrDefault("ARB_MAX_SPREAD_BPS", 0),
		UseBookDepth:    getBoolOrDefault("ARB_USE_BOOK_DEPTH", true),

		PerMarketMaxUSD: getFloat64OrDefault("RISK_PER_MARKET_MAX_USD", 250),
		MaxExposureUSD:  getFloat64OrDefault("RISK_MAX_EXPOSURE_USD", 1000),
		BankrollUSD:     getFloat64OrDefault("ARB_BANKROLL_USD", 1000),
		KellyFraction:   getFloat64OrDefault("ARB_KELLY_FRACTION", 0.25),

		EnableLiveTrading:     getBoolOrDefault("ENABLE_LIVE_TRADING", false),
		OrderTimeout:          getDurationOrDefault("EXEC_ORDER_TIMEOUT", 5*time.Second),
		PriceImprovementTicks: getIntOrDefault("EXEC_PRICE_IMPROVEMENT_TICKS", 1),
		ConcurrentLegs:        getBoolOrDefault("EXEC_CONCURRENT_LEGS", false),
		AdaptiveTimeout:       getBoolOrDefault("EXEC_ADAPTIVE_TIMEOUT", true),
		AdaptiveTimeoutMin:    getDurationOrDefault("EXEC_ADAPTIVE_TIMEOUT_MIN", 1*time.Second),
		AdaptiveTimeoutMax:    getDurationOrDefault("EXEC_ADAPTIVE_TIMEOUT_MAX", 15*time.Second),

		DailyStopLossUSD:       getFloat64OrDefault("RISK_DAILY_STOP_LOSS_USD", 100),
		MinBalanceUSD:          getFloat64OrDefault("RISK_MIN_BALANCE_USD", 10),
		MaxOpenOrders:          getIntOrDefault("RISK_MAX_OPEN_ORDERS", 10),
		GlobalCooldown:         getDurationOrDefault("RISK_COOLDOWN", 30*time.Second),
		PerMarketCooldown:      getDurationOrDefault("RISK_PER_MARKET_COOLDOWN", 2*time.Minute),
		OppCooldown:            getDurationOrDefault("RISK_OPP_COOLDOWN", 5*time.Minute),
		SafeModeErrorThreshold: getIntOrDefault("RISK_SAFE_MODE_ERROR_THRESHOLD", 5),
		KillSwitchFile:         getEnvOrDefault("KILL_SWITCH_FILE", "./KILL_SWITCH"),

		PositionCheckInterval: getDurationOrDefault("POSITION_CHECK_INTERVAL", 10*time.Second),
		PositionMaxAge:        getDurationOrDefault("POSITION_MAX_AGE", 30*time.Minute),
		TrailingStopBps:       getFloat64OrDefault("POSITION_TRAILING_STOP_BPS", 300),

		RateLimitCapacity:    getFloat64OrDefault("RATE_LIMIT_CAPACITY", 20),
		RateLimitInitialRate: getFloat64OrDefault("RATE_LIMIT_INITIAL_RATE", 5),
		RateLimitMinRate:     getFloat64OrDefault("RATE_LIMIT_MIN_RATE", 0.5),
		RateLimitMaxRate:     getFloat64OrDefault("RATE_LIMIT_MAX_RATE", 15),

		RetryMaxAttempts:  getIntOrDefault("RETRY_MAX_ATTEMPTS", 4),
		RetryInitialDelay: getDurationOrDefault("RETRY_INITIAL_DELAY", 250*time.Millisecond),
		RetryMaxDelay:     getDurationOrDefault("RETRY_MAX_DELAY", 5*time.Second),
		RetryMultiplier:   getFloat64OrDefault("RETRY_MULTIPLIER", 2.0),

		BreakerFailureThreshold: getIntOrDefault("BREAKER_FAILURE_THRESHOLD", 5),
		BreakerSuccessThreshold: getIntOrDefault("BREAKER_SUCCESS_THRESHOLD", 2),
		BreakerResetTimeout:     getDurationOrDefault("BREAKER_RESET_TIMEOUT", 30*time.Second),

		WSDialTimeout:           getDurationOrDefault("WS_DIAL_TIMEOUT", 10*time.Second),
		WSPongTimeout:           getDurationOrDefault("WS_PONG_TIMEOUT", 15*time.Second),
		WSPingInterval:          getDurationOrDefault("WS_PING_INTERVAL", 10*time.Second),
		WSReconnectInitialDelay: getDurationOrDefault("WS_RECONNECT_INITIAL_DELAY", 1*time.Second),
		WSReconnectMaxDelay:     getDurationOrDefault("WS_RECONNECT_MAX_DELAY", 30*time.Second),
		WSReconnectBackoffMult:  getFloat64OrDefault("WS_RECONNECT_BACKOFF_MULTIPLIER", 2.0),
		WSMessageBufferSize:     getIntOrDefault("WS_MESSAGE_BUFFER_SIZE", 10000),

		StorageMode:  getEnvOrDefault("STORAGE_MODE", "console"),
		PostgresHost: getEnvOrDefault("POSTGRES_HOST", "localhost"),
		PostgresPort: getEnvOrDefault("POSTGRES_PORT", "5432"),
		PostgresUser: getEnvOrDefault("POSTGRES_USER", "clobarb"),
		PostgresPass: getEnvOrDefault("POSTGRES_PASSWORD", ""),
		PostgresDB:   getEnvOrDefault("POSTGRES_DB", "clob_arb"),
		PostgresSSL:  getEnvOrDefault("POSTGRES_SSLMODE", "disable"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return cfg, nil
}

// Validate checks that configuration values are coherent.
func (c *Config) Validate() error {
	if c.Mode != "dry" && c.Mode != "paper" && c.Mode != "live" {
		return fmt.Errorf("MODE must be 'dry', 'paper' or 'live', got %q", c.Mode)
	}

	if c.HTTPPort == "" {
		return errors.New("HTTP_PORT cannot be empty")
	}
	if c.ExchangeBaseURL == "" {
		return errors.New("EXCHANGE_BASE_URL cannot be empty")
	}

	if c.Mode == "live" {
		if c.ExchangeAPIKey == "" || c.ExchangeSecret == "" || c.ExchangePassphrase == "" {
			return errors.New("live mode requires EXCHANGE_API_KEY, EXCHANGE_SECRET and EXCHANGE_PASSPHRASE")
		}
		if c.ExchangePrivateKey == "" {
			return errors.New("live mode requires EXCHANGE_PRIVATE_KEY")
		}
	}

	if c.MinProfit <= 0 || c.MinProfit >= 1 {
		return fmt.Errorf("ARB_MIN_PROFIT must be in (0, 1), got %f", c.MinProfit)
	}
	if c.PollingInterval <= 0 {
		return fmt.Errorf("ARB_POLLING_INTERVAL must be positive, got %s", c.PollingInterval)
	}

	if c.PerMarketMaxUSD <= 0 {
		return fmt.Errorf("RISK_PER_MARKET_MAX_USD must be positive, got %f", c.PerMarketMaxUSD)
	}
	if c.MaxExposureUSD < c.PerMarketMaxUSD {
		return fmt.Errorf("RISK_MAX_EXPOSURE_USD (%f) must be >= RISK_PER_MARKET_MAX_USD (%f)",
			c.MaxExposureUSD, c.PerMarketMaxUSD)
	}
	if c.KellyFraction < 0 || c.KellyFraction > 1 {
		return fmt.Errorf("ARB_KELLY_FRACTION must be in [0, 1], got %f", c.KellyFraction)
	}

	if c.OrderTimeout <= 0 {
		return fmt.Errorf("EXEC_ORDER_TIMEOUT must be positive, got %s", c.OrderTimeout)
	}
	if c.AdaptiveTimeoutMax < c.AdaptiveTimeoutMin {
		return fmt.Errorf("EXEC_ADAPTIVE_TIMEOUT_MAX (%s) must be >= EXEC_ADAPTIVE_TIMEOUT_MIN (%s)",
			c.AdaptiveTimeoutMax, c.AdaptiveTimeoutMin)
	}

	if c.RateLimitMinRate <= 0 || c.RateLimitMaxRate < c.RateLimitMinRate {
		return fmt.Errorf("rate limit bounds invalid: min %f max %f", c.RateLimitMinRate, c.RateLimitMaxRate)
	}
	if c.RetryMaxAttempts < 1 {
		return fmt.Errorf("RETRY_MAX_ATTEMPTS must be at least 1, got %d", c.RetryMaxAttempts)
	}

	if c.StorageMode != "console" && c.StorageMode != "postgres" {
		return fmt.Errorf("STORAGE_MODE must be 'console' or 'postgres', got %q", c.StorageMode)
	}

	return nil
}

// Snapshot marshals the non-secret configuration for persistence.
func (c *Config) Snapshot() ([]byte, error) {
	redacted := *c
	redacted.ExchangeAPIKey = ""
	redacted.ExchangeSecret = ""
	redacted.ExchangePassphrase = ""
	redacted.ExchangePrivateKey = ""
	redacted.PostgresPass = ""
	return gojson.Marshal(redacted)
}

func getEnvOrDefault(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	intVal, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return intVal
}

func getFloat64OrDefault(key string, defaultValue float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	floatVal, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return defaultValue
	}
	return floatVal
}

func getDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	duration, err := time.ParseDuration(value)
	if err != nil {
		return defaultValue
	}
	return duration
}

func getBoolOrDefault(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	boolVal, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue
	}
	return boolVal
}
