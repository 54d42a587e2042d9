package websocket

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"go.uber.org/zap"
)

// ReconnectConfig holds reconnect backoff configuration.
type ReconnectConfig struct {
	InitialDelay      time.Duration
	MaxDelay          time.Duration
	BackoffMultiplier float64
	JitterPercent     float64
}

// ReconnectManager retries a connect function with capped exponential backoff
// and jitter until it succeeds or the context ends.
type ReconnectManager struct {
	cfg    ReconnectConfig
	logger *zap.Logger
}

// NewReconnectManager creates a reconnect manager.
func NewReconnectManager(cfg ReconnectConfig, logger *zap.Logger) *ReconnectManager {
	return &ReconnectManager{cfg: cfg, logger: logger}
}

// Run retries connect until success or context cancellation.
func (r *ReconnectManager) Run(ctx context.Context, connect func(context.Context) error) error {
	delay := r.cfg.InitialDelay
	attempt := 0

	for {
		attempt++
		err := connect(ctx)
		if err == nil {
			ReconnectsTotal.Inc()
			r.logger.Info("reconnected", zap.Int("attempt", attempt))
			return nil
		}

		jitter := time.Duration(float64(delay) * r.cfg.JitterPercent * rand.Float64())
		wait := delay + jitter

		r.logger.Warn("reconnect-attempt-failed",
			zap.Int("attempt", attempt),
			zap.Duration("next-delay", wait),
			zap.Error(err))

		select {
		case <-ctx.Done():
			return fmt.Errorf("reconnect cancelled: %w", ctx.Err())
		case <-time.After(wait):
		}

		delay = time.Duration(float64(delay) * r.cfg.BackoffMultiplier)
		if delay > r.cfg.MaxDelay {
			delay = r.cfg.MaxDelay
		}
	}
}
