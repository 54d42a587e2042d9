// Package risk enforces process-wide trading limits.
//
// The manager is the single authority consulted before any trade: kill
// switch, safe mode, cooldowns, daily stop-loss, balance floors, exposure
// caps and the open-order budget, checked in that order. All state is mutated
// from the scan loop, the executor and the position monitor, behind one mutex.
package risk

import (
	"os"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Gate refusal reasons, returned in Decision.Reason.
const (
	ReasonKillSwitch       = "kill_switch"
	ReasonSafeMode         = "safe_mode"
	ReasonGlobalCooldown   = "global_cooldown"
	ReasonMarketCooldown   = "market_cooldown"
	ReasonDailyStopLoss    = "daily_stop_loss"
	ReasonBalanceFloor     = "balance_floor"
	ReasonInsufficientBal  = "insufficient_balance"
	ReasonGlobalExposure   = "global_exposure_cap"
	ReasonMarketExposure   = "market_exposure_cap"
	ReasonMaxOpenOrders    = "max_open_orders"
)

const msPerDay = 86_400_000

// Decision is the outcome of a CanTrade check.
type Decision struct {
	Allowed bool
	Reason  string
}

// Config holds risk manager configuration.
type Config struct {
	MaxExposureUSD         float64
	PerMarketMaxUSD        float64
	DailyStopLossUSD       float64
	MinBalanceUSD          float64
	MaxOpenOrders          int
	SafeModeErrorThreshold int
	KillSwitchFile         string
	Logger                 *zap.Logger
}

// Manager tracks exposure, losses and protective state for the whole process.
type Manager struct {
	mu  sync.Mutex
	cfg Config

	globalExposureUSD   float64
	marketExposureUSD   map[string]float64
	openOrders          int
	dailyLossUSD        float64
	globalCooldownUntil time.Time
	marketCooldownUntil map[string]time.Time
	consecErrors        int
	safeMode            bool
	balanceUSD          float64
	dayTag              int64

	logger *zap.Logger
	now    func() time.Time
}

// Snapshot is a copy of the risk state for operator surfaces.
type Snapshot struct {
	GlobalExposureUSD float64            `json:"global_exposure_usd"`
	MarketExposureUSD map[string]float64 `json:"market_exposure_usd"`
	OpenOrders        int                `json:"open_orders"`
	DailyLossUSD      float64            `json:"daily_loss_usd"`
	SafeMode          bool               `json:"safe_mode"`
	ConsecutiveErrors int                `json:"consecutive_errors"`
	BalanceUSD        float64            `json:"balance_usd"`
	CooldownUntil     time.Time          `json:"cooldown_until"`
}

// NewManager creates a risk manager.
func NewManager(cfg Config) *Manager {
	if cfg.KillSwitchFile == "" {
		cfg.KillSwitchFile = "./KILL_SWITCH"
	}

	m := &Manager{
		cfg:                 cfg,
		marketExposureUSD:   make(map[string]float64),
		marketCooldownUntil: make(map[string]time.Time),
		logger:              cfg.Logger,
		now:                 time.Now,
	}
	m.dayTag = m.utcDayTag(m.now())
	return m
}

func (m *Manager) utcDayTag(t time.Time) int64 {
	return t.UTC().UnixMilli() / msPerDay
}

// KillSwitchActive reports the operator kill switch: the KILL_SWITCH env var
// or the sentinel file, either one suppresses every trade attempt.
func (m *Manager) KillSwitchActive() bool {
	if os.Getenv("KILL_SWITCH") == "1" {
		return true
	}
	_, err := os.Stat(m.cfg.KillSwitchFile)
	return err == nil
}

// CanTrade checks every gate in order and returns the first refusal.
func (m *Manager) CanTrade(marketName string, estimatedExposureUSD float64) Decision {
	if m.KillSwitchActive() {
		return m.refuse(ReasonKillSwitch)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()

	if m.safeMode {
		return m.refuse(ReasonSafeMode)
	}
	if now.Before(m.globalCooldownUntil) {
		return m.refuse(ReasonGlobalCooldown)
	}
	if until, ok := m.marketCooldownUntil[marketName]; ok && now.Before(until) {
		return m.refuse(ReasonMarketCooldown)
	}

	// Roll the UTC day before the stop-loss check so yesterday's losses
	// never block today's first trade.
	if tag := m.utcDayTag(now); tag != m.dayTag {
		m.dayTag = tag
		m.dailyLossUSD = 0
		DailyLossUSD.Set(0)
		if m.logger != nil {
			m.logger.Info("risk-day-rolled", zap.Int64("day-tag", tag))
		}
	}
	if m.cfg.DailyStopLossUSD > 0 && m.dailyLossUSD >= m.cfg.DailyStopLossUSD {
		return m.refuse(ReasonDailyStopLoss)
	}

	if m.balanceUSD < m.cfg.MinBalanceUSD {
		return m.refuse(ReasonBalanceFloor)
	}
	if m.balanceUSD < estimatedExposureUSD {
		return m.refuse(ReasonInsufficientBal)
	}

	if m.globalExposureUSD+estimatedExposureUSD > m.cfg.MaxExposureUSD {
		return m.refuse(ReasonGlobalExposure)
	}
	if m.marketExposureUSD[marketName]+estimatedExposureUSD > m.cfg.PerMarketMaxUSD {
		return m.refuse(ReasonMarketExposure)
	}

	if m.openOrders >= m.cfg.MaxOpenOrders {
		return m.refuse(ReasonMaxOpenOrders)
	}

	return Decision{Allowed: true}
}

func (m *Manager) refuse(reason string) Decision {
	RefusalsTotal.WithLabelValues(reason).Inc()
	return Decision{Allowed: false, Reason: reason}
}

// RemainingGlobalUSD returns headroom under the global exposure cap.
func (m *Manager) RemainingGlobalUSD() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()

	remaining := m.cfg.MaxExposureUSD - m.globalExposureUSD
	if remaining < 0 {
		return 0
	}
	return remaining
}

// UpdateExposure applies signed exposure deltas, clamped at zero.
func (m *Manager) UpdateExposure(marketName string, deltaGlobalUSD, deltaMarketUSD float64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.globalExposureUSD += deltaGlobalUSD
	if m.globalExposureUSD < 0 {
		m.globalExposureUSD = 0
	}

	m.marketExposureUSD[marketName] += deltaMarketUSD
	if m.marketExposureUSD[marketName] < 0 {
		m.marketExposureUSD[marketName] = 0
	}

	GlobalExposureUSD.Set(m.globalExposureUSD)
}

// RecordOrderPlaced increments the open-order count.
func (m *Manager) RecordOrderPlaced() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.openOrders++
	OpenOrders.Set(float64(m.openOrders))
}

// RecordOrderClosed decrements the open-order count.
func (m *Manager) RecordOrderClosed() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.openOrders > 0 {
		m.openOrders--
	}
	OpenOrders.Set(float64(m.openOrders))
}

// RecordLoss books a realised loss against the daily stop.
func (m *Manager) RecordLoss(usd float64) {
	if usd <= 0 {
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.dailyLossUSD += usd
	DailyLossUSD.Set(m.dailyLossUSD)

	if m.logger != nil {
		m.logger.Warn("risk-loss-recorded",
			zap.Float64("loss-usd", usd),
			zap.Float64("daily-loss-usd", m.dailyLossUSD))
	}
}

// RecordError increments the consecutive-error counter; crossing the
// threshold flips safe mode on.
func (m *Manager) RecordError() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.consecErrors++
	if !m.safeMode && m.cfg.SafeModeErrorThreshold > 0 && m.consecErrors >= m.cfg.SafeModeErrorThreshold {
		m.safeMode = true
		SafeModeActive.Set(1)
		if m.logger != nil {
			m.logger.Error("safe-mode-activated",
				zap.Int("consecutive-errors", m.consecErrors))
		}
	}
}

// RecordSuccess resets the consecutive-error counter.
func (m *Manager) RecordSuccess() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.consecErrors = 0
}

// IsSafeMode reports whether safe mode is active.
func (m *Manager) IsSafeMode() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.safeMode
}

// ClearSafeMode is an operator action: it clears safe mode and the error count.
func (m *Manager) ClearSafeMode() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.safeMode = false
	m.consecErrors = 0
	SafeModeActive.Set(0)
	if m.logger != nil {
		m.logger.Info("safe-mode-cleared")
	}
}

// ActivateCooldown arms the global cooldown for d. Deadlines only ever move
// forward, so an extended cooldown is never shortened by a later standard one.
func (m *Manager) ActivateCooldown(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	until := m.now().Add(d)
	if until.After(m.globalCooldownUntil) {
		m.globalCooldownUntil = until
	}
}

// ActivateMarketCooldown arms a per-market cooldown for d, extending only.
func (m *Manager) ActivateMarketCooldown(marketName string, d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	until := m.now().Add(d)
	if until.After(m.marketCooldownUntil[marketName]) {
		m.marketCooldownUntil[marketName] = until
	}
}

// UpdateBalance stores the last known exchange balance.
func (m *Manager) UpdateBalance(usd float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.balanceUSD = usd
	BalanceUSD.Set(usd)
}

// ResetDaily zeroes the daily loss and re-tags the day. Idempotent.
func (m *Manager) ResetDaily() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.dailyLossUSD = 0
	m.dayTag = m.utcDayTag(m.now())
	DailyLossUSD.Set(0)
}

// GetSnapshot copies the current risk state.
func (m *Manager) GetSnapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	perMarket := make(map[string]float64, len(m.marketExposureUSD))
	for k, v := range m.marketExposureUSD {
		perMarket[k] = v
	}

	return Snapshot{
		GlobalExposureUSD: m.globalExposureUSD,
		MarketExposureUSD: perMarket,
		OpenOrders:        m.openOrders,
		DailyLossUSD:      m.dailyLossUSD,
		SafeMode:          m.safeMode,
		ConsecutiveErrors: m.consecErrors,
		BalanceUSD:        m.balanceUSD,
		CooldownUntil:     m.globalCooldownUntil,
	}
}
