package execution

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"go.uber.org/zap"

	"github.com/mselser95/clob-arb/internal/testutil"
)

func TestLatencyRingP75(t *testing.T) {
	ring := newLatencyRing(50)

	_, n := ring.P75()
	assert.Equal(t, 0, n)

	for _, ms := range []int{100, 200, 300, 400} {
		ring.Add(time.Duration(ms) * time.Millisecond)
	}

	p75, n := ring.P75()
	assert.Equal(t, 4, n)
	assert.Equal(t, 400*time.Millisecond, p75)
}

func TestLatencyRingEvictsOldest(t *testing.T) {
	ring := newLatencyRing(3)

	ring.Add(1 * time.Second)
	ring.Add(2 * time.Second)
	ring.Add(3 * time.Second)
	ring.Add(10 * time.Millisecond) // evicts the 1s sample

	_, n := ring.P75()
	assert.Equal(t, 3, n)
}

func TestCurrentTimeoutAdaptive(t *testing.T) {
	cfg := testConfig(ModeLive)
	cfg.AdaptiveTimeout = true
	cfg.OrderTimeout = 5 * time.Second
	cfg.AdaptiveTimeoutMin = 1 * time.Second
	cfg.AdaptiveTimeoutMax = 4 * time.Second
	cfg.Logger = zap.NewNop()

	exec := New(cfg, testutil.NewMockExchange(), testRiskManager(t))

	// Below 3 samples: fall back to the configured timeout.
	exec.latencies.Add(100 * time.Millisecond)
	exec.latencies.Add(100 * time.Millisecond)
	assert.Equal(t, 5*time.Second, exec.currentTimeout())

	// 2 * p75 clamped to the floor.
	exec.latencies.Add(100 * time.Millisecond)
	assert.Equal(t, 1*time.Second, exec.currentTimeout())

	// Large latencies clamp to the ceiling.
	for i := 0; i < 10; i++ {
		exec.latencies.Add(10 * time.Second)
	}
	assert.Equal(t, 4*time.Second, exec.currentTimeout())
}

func TestCurrentTimeoutDisabled(t *testing.T) {
	cfg := testConfig(ModeLive)
	cfg.AdaptiveTimeout = false

	exec := New(cfg, testutil.NewMockExchange(), testRiskManager(t))
	for i := 0; i < 10; i++ {
		exec.latencies.Add(10 * time.Second)
	}
	assert.Equal(t, cfg.OrderTimeout, exec.currentTimeout())
}
