package ratelimit

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

const (
	successRamp  = 1.05
	rateLimitCut = 0.5
	errorCut     = 0.8
)

// Adaptive wraps a TokenBucket and tunes its refill rate from call outcomes.
type Adaptive struct {
	bucket  *TokenBucket
	minRate float64
	maxRate float64
	mu      sync.Mutex
	logger  *zap.Logger
}

// AdaptiveConfig holds adaptive limiter configuration.
type AdaptiveConfig struct {
	Capacity    float64
	InitialRate float64
	MinRate     float64
	MaxRate     float64
	Logger      *zap.Logger
}

// NewAdaptive creates an adaptive limiter over a fresh bucket.
func NewAdaptive(cfg AdaptiveConfig) *Adaptive {
	return &Adaptive{
		bucket:  NewTokenBucket(cfg.Capacity, cfg.InitialRate),
		minRate: cfg.MinRate,
		maxRate: cfg.MaxRate,
		logger:  cfg.Logger,
	}
}

// Acquire blocks until n tokens are available or ctx is cancelled.
func (a *Adaptive) Acquire(ctx context.Context, n float64) error {
	return a.bucket.Acquire(ctx, n)
}

// TryAcquire takes n tokens without blocking.
func (a *Adaptive) TryAcquire(n float64) bool {
	return a.bucket.TryAcquire(n)
}

// Rate returns the current refill rate.
func (a *Adaptive) Rate() float64 {
	return a.bucket.Rate()
}

// OnSuccess ramps the refill rate up by 5%, capped at maxRate.
func (a *Adaptive) OnSuccess() {
	a.adjust(successRamp)
}

// OnRateLimited halves the refill rate after an HTTP 429, floored at minRate.
func (a *Adaptive) OnRateLimited() {
	a.adjust(rateLimitCut)
}

// OnError shaves the refill rate after a non-429 failure, floored at minRate.
func (a *Adaptive) OnError() {
	a.adjust(errorCut)
}

func (a *Adaptive) adjust(factor float64) {
	a.mu.Lock()
	defer a.mu.Unlock()

	rate := a.bucket.Rate() * factor
	if rate > a.maxRate {
		rate = a.maxRate
	}
	if rate < a.minRate {
		rate = a.minRate
	}
	a.bucket.SetRate(rate)
	RefillRate.Set(rate)

	if factor < 1 && a.logger != nil {
		a.logger.Debug("rate-limiter-backoff", zap.Float64("rate-per-sec", rate))
	}
}
