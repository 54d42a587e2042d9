// Package retry provides exponential backoff with jitter for exchange calls.
package retry

import (
	"context"
	"math"
	"math/rand"
	"time"

	"go.uber.org/zap"

	"github.com/mselser95/clob-arb/pkg/types"
)

const jitterFraction = 0.3

// Policy describes a bounded exponential backoff schedule.
type Policy struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
	Logger       *zap.Logger
}

// Do runs fn up to MaxAttempts times, sleeping between attempts.
// Only transient errors (429, 5xx, transport resets) are retried; a
// server-provided Retry-After overrides the computed delay.
func (p Policy) Do(ctx context.Context, op string, fn func(context.Context) error) error {
	var err error

	for attempt := 0; attempt < p.MaxAttempts; attempt++ {
		err = fn(ctx)
		if err == nil {
			return nil
		}
		if !types.IsTransient(err) {
			return err
		}
		if attempt == p.MaxAttempts-1 {
			break
		}

		delay := p.delayFor(attempt, err)
		if p.Logger != nil {
			p.Logger.Debug("retrying-after-transient-error",
				zap.String("op", op),
				zap.Int("attempt", attempt+1),
				zap.Duration("delay", delay),
				zap.Error(err))
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}

	return err
}

// delayFor computes the sleep before the next attempt after attempt k.
func (p Policy) delayFor(attempt int, err error) time.Duration {
	if after := types.RetryAfter(err); after > 0 {
		return after
	}

	backoff := float64(p.InitialDelay) * math.Pow(p.Multiplier, float64(attempt))
	if backoff > float64(p.MaxDelay) {
		backoff = float64(p.MaxDelay)
	}

	jitter := backoff * jitterFraction * rand.Float64()
	return time.Duration(backoff + jitter)
}
