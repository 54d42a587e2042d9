package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTryAcquireDrainsBucket(t *testing.T) {
	bucket := NewTokenBucket(3, 0.0001) // effectively no refill during the test

	assert.True(t, bucket.TryAcquire(1))
	assert.True(t, bucket.TryAcquire(2))
	assert.False(t, bucket.TryAcquire(1))
}

func TestAcquireBlocksUntilRefill(t *testing.T) {
	bucket := NewTokenBucket(1, 100) // 100 tokens/sec: ~10ms per token

	require.NoError(t, bucket.Acquire(context.Background(), 1))

	start := time.Now()
	require.NoError(t, bucket.Acquire(context.Background(), 1))
	assert.GreaterOrEqual(t, time.Since(start), 5*time.Millisecond)
}

func TestAcquireHonoursContext(t *testing.T) {
	bucket := NewTokenBucket(1, 0.001)
	require.NoError(t, bucket.Acquire(context.Background(), 1))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := bucket.Acquire(ctx, 1)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestAdaptiveAdjustments(t *testing.T) {
	limiter := NewAdaptive(AdaptiveConfig{
		Capacity:    10,
		InitialRate: 4,
		MinRate:     1,
		MaxRate:     5,
	})

	// 429 halves.
	limiter.OnRateLimited()
	assert.InDelta(t, 2.0, limiter.Rate(), 1e-9)

	// Other errors shave by 0.8.
	limiter.OnError()
	assert.InDelta(t, 1.6, limiter.Rate(), 1e-9)

	// Successes ramp by 1.05 up to the cap.
	for i := 0; i < 100; i++ {
		limiter.OnSuccess()
	}
	assert.InDelta(t, 5.0, limiter.Rate(), 1e-9)

	// Repeated 429s floor at minRate.
	for i := 0; i < 10; i++ {
		limiter.OnRateLimited()
	}
	assert.InDelta(t, 1.0, limiter.Rate(), 1e-9)
}
