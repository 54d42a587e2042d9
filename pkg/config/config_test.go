package config

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFromEnvDefaults(t *testing.T) {
	cfg, err := LoadFromEnv()
	require.NoError(t, err)

	assert.Equal(t, "dry", cfg.Mode)
	assert.Equal(t, "8080", cfg.HTTPPort)
	assert.Equal(t, 1*time.Second, cfg.PollingInterval)
	assert.Equal(t, 0.005, cfg.MinProfit)
	assert.False(t, cfg.EnableLiveTrading)
	assert.Equal(t, "console", cfg.StorageMode)
	assert.Equal(t, "./KILL_SWITCH", cfg.KillSwitchFile)
}

func TestLoadFromEnvOverrides(t *testing.T) {
	t.Setenv("MODE", "paper")
	t.Setenv("ARB_MIN_PROFIT", "0.01")
	t.Setenv("ARB_POLLING_INTERVAL", "750ms")
	t.Setenv("RISK_MAX_OPEN_ORDERS", "4")
	t.Setenv("EXEC_CONCURRENT_LEGS", "true")

	cfg, err := LoadFromEnv()
	require.NoError(t, err)

	assert.Equal(t, "paper", cfg.Mode)
	assert.Equal(t, 0.01, cfg.MinProfit)
	assert.Equal(t, 750*time.Millisecond, cfg.PollingInterval)
	assert.Equal(t, 4, cfg.MaxOpenOrders)
	assert.True(t, cfg.ConcurrentLegs)
}

func TestValidateErrors(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantErr string
	}{
		{
			name:    "bad-mode",
			env:     map[string]string{"MODE": "yolo"},
			wantErr: "MODE",
		},
		{
			name:    "live-missing-creds",
			env:     map[string]string{"MODE": "live"},
			wantErr: "EXCHANGE_API_KEY",
		},
		{
			name:    "min-profit-out-of-range",
			env:     map[string]string{"ARB_MIN_PROFIT": "1.5"},
			wantErr: "ARB_MIN_PROFIT",
		},
		{
			name: "exposure-caps-inverted",
			env: map[string]string{
				"RISK_MAX_EXPOSURE_USD":   "100",
				"RISK_PER_MARKET_MAX_USD": "500",
			},
			wantErr: "RISK_MAX_EXPOSURE_USD",
		},
		{
			name:    "bad-storage-mode",
			env:     map[string]string{"STORAGE_MODE": "sqlite"},
			wantErr: "STORAGE_MODE",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			_, err := LoadFromEnv()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestSnapshotRedactsSecrets(t *testing.T) {
	t.Setenv("EXCHANGE_API_KEY", "key-123")
	t.Setenv("EXCHANGE_SECRET", "secret-456")
	t.Setenv("POSTGRES_PASSWORD", "pg-pass")

	cfg, err := LoadFromEnv()
	require.NoError(t, err)

	snapshot, err := cfg.Snapshot()
	require.NoError(t, err)

	body := string(snapshot)
	assert.False(t, strings.Contains(body, "key-123"))
	assert.False(t, strings.Contains(body, "secret-456"))
	assert.False(t, strings.Contains(body, "pg-pass"))
	assert.True(t, strings.Contains(body, "dry"))
}
