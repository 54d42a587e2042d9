package websocket

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestReconnectRetriesUntilSuccess(t *testing.T) {
	mgr := NewReconnectManager(ReconnectConfig{
		InitialDelay:      time.Millisecond,
		MaxDelay:          5 * time.Millisecond,
		BackoffMultiplier: 2,
		JitterPercent:     0.2,
	}, zap.NewNop())

	attempts := 0
	err := mgr.Run(context.Background(), func(context.Context) error {
		attempts++
		if attempts < 4 {
			return errors.New("dial refused")
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 4, attempts)
}

func TestReconnectStopsOnContextCancel(t *testing.T) {
	mgr := NewReconnectManager(ReconnectConfig{
		InitialDelay:      50 * time.Millisecond,
		MaxDelay:          time.Second,
		BackoffMultiplier: 2,
		JitterPercent:     0.2,
	}, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())

	attempts := 0
	errCh := make(chan error, 1)
	go func() {
		errCh <- mgr.Run(ctx, func(context.Context) error {
			attempts++
			return errors.New("dial refused")
		})
	}()

	time.Sleep(10 * time.Millisecond)
	cancel()

	select {
	case err := <-errCh:
		assert.Error(t, err)
	case <-time.After(time.Second):
		t.Fatal("reconnect did not stop on cancel")
	}
}
