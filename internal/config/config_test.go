package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("NPG_DB_PATH", t.TempDir()+"/neuroguard.db")

	cfg, err := Load()
	assert.NoError(t, err)

	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, "8080", cfg.HTTPPort)

	assert.Equal(t, 256, cfg.Signal.SamplingRate)
	assert.Equal(t, 8, cfg.Signal.NumChannels)
	assert.Equal(t, 32, cfg.Signal.MaxChannels)

	assert.Equal(t, 0.5, cfg.Privacy.DefaultLevel)
	assert.Equal(t, 1.0, cfg.Privacy.Epsilon)
	assert.Equal(t, [3]float64{0.1, 0.5, 0.9}, cfg.Privacy.TierLevels)

	assert.Equal(t, 5*time.Second, cfg.Threat.Window)
	assert.Equal(t, 20, cfg.Threat.BurstThreshold)
	assert.Equal(t, 60, cfg.Threat.BlockThreshold)
	assert.Equal(t, "@every 30s", cfg.Threat.SweepSchedule)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("NPG_DB_PATH", t.TempDir()+"/neuroguard.db")
	t.Setenv("NPG_ENV", "production")
	t.Setenv("NPG_SAMPLING_RATE", "512")
	t.Setenv("NPG_PRIVACY_DEFAULT_LEVEL", "0.2")
	t.Setenv("NPG_THREAT_WINDOW", "10s")

	cfg, err := Load()
	assert.NoError(t, err)
	assert.Equal(t, "production", cfg.Environment)
	assert.Equal(t, 512, cfg.Signal.SamplingRate)
	assert.Equal(t, 0.2, cfg.Privacy.DefaultLevel)
	assert.Equal(t, 10*time.Second, cfg.Threat.Window)
}

func TestLoad_TierLevels(t *testing.T) {
	t.Setenv("NPG_DB_PATH", t.TempDir()+"/neuroguard.db")

	t.Run("valid", func(t *testing.T) {
		t.Setenv("NPG_PRIVACY_TIER_LEVELS", "0.15, 0.45, 0.85")
		cfg, err := Load()
		assert.NoError(t, err)
		assert.Equal(t, [3]float64{0.15, 0.45, 0.85}, cfg.Privacy.TierLevels)
	})

	t.Run("wrong count", func(t *testing.T) {
		t.Setenv("NPG_PRIVACY_TIER_LEVELS", "0.1,0.5")
		_, err := Load()
		assert.Error(t, err)
	})

	t.Run("out of range", func(t *testing.T) {
		t.Setenv("NPG_PRIVACY_TIER_LEVELS", "0.1,0.5,1.9")
		_, err := Load()
		assert.Error(t, err)
	})
}

func TestLoad_ThresholdOrderingEnforced(t *testing.T) {
	t.Setenv("NPG_DB_PATH", t.TempDir()+"/neuroguard.db")
	t.Setenv("NPG_THREAT_BURST_THRESHOLD", "60")
	t.Setenv("NPG_THREAT_BLOCK_THRESHOLD", "20")

	_, err := Load()
	assert.Error(t, err)
}
