package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://futurescan:pw@localhost:5432/futurescan")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.Env)
	assert.Equal(t, 150, cfg.Probe.Workers)
	assert.Equal(t, 10*time.Second, cfg.Probe.Timeout)
	assert.Equal(t, 1, cfg.Probe.LookbackDays)
	assert.Equal(t, 2, cfg.Validation.BufferDays)
	assert.Equal(t, 700, cfg.Validation.MinSymbolCount)
	assert.Equal(t, "https://data.binance.vision", cfg.Vision.BaseURL)
	assert.False(t, cfg.Redis.Enabled)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://futurescan:pw@localhost:5432/futurescan")
	t.Setenv("LOOKBACK_DAYS", "20")
	t.Setenv("PROBE_WORKERS", "50")
	t.Setenv("PROBE_TIMEOUT", "3s")
	t.Setenv("VALIDATION_BUFFER_DAYS", "1")
	t.Setenv("HISTORY_START", "2020-01-01")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 20, cfg.Probe.LookbackDays)
	assert.Equal(t, 50, cfg.Probe.Workers)
	assert.Equal(t, 3*time.Second, cfg.Probe.Timeout)
	assert.Equal(t, 1, cfg.Validation.BufferDays)
	assert.Equal(t, time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC), cfg.Validation.HistoryStartDate())
}

func TestLoad_MissingDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DATABASE_URL")
}

func TestLoad_InvalidValues(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"bad env", "ENV", "sandbox"},
		{"zero workers", "PROBE_WORKERS", "0"},
		{"zero lookback", "LOOKBACK_DAYS", "0"},
		{"bad history start", "HISTORY_START", "01/01/2020"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("DATABASE_URL", "postgres://futurescan:pw@localhost:5432/futurescan")
			t.Setenv(tt.key, tt.value)

			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestLoad_InvalidNumericFallsBackToDefault(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://futurescan:pw@localhost:5432/futurescan")
	t.Setenv("PROBE_WORKERS", "many")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 150, cfg.Probe.Workers)
}
