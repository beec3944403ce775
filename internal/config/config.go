package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// SignalConfig captures EEG acquisition defaults used by the processor and
// the synthetic generator.
type SignalConfig struct {
	SamplingRate    int     // Hz
	NumChannels     int     // default synthetic channel count
	MaxChannels     int     // upper bound accepted from callers
	DefaultDuration float64 // seconds
	MaxDuration     float64 // seconds
}

// PrivacyConfig holds the differential-privacy defaults. TierLevels maps the
// three dashboard tiers (strict, balanced, performance) onto continuous
// levels; the continuous value remains the source of truth.
type PrivacyConfig struct {
	DefaultLevel float64
	Epsilon      float64
	Delta        float64
	TierLevels   [3]float64 // strict, balanced, performance
}

// ThreatConfig holds the monitor thresholds. These are deliberately
// configuration values, not constants in the monitor.
type ThreatConfig struct {
	Window          time.Duration // sliding detection window
	BurstThreshold  int           // attempts/window: Normal -> Suspicious
	BlockThreshold  int           // attempts/window: Suspicious -> Blocked
	Cooldown        time.Duration // per (app, threat type) alert dedupe
	QuietPeriod     time.Duration // idle time before Suspicious decays
	RecentAlertsCap int           // bounded recent-alerts buffer
	SweepSchedule   string        // cron spec for the state sweeper
}

// Config captures runtime configuration sourced from environment variables.
type Config struct {
	Environment  string
	HTTPPort     string
	DatabasePath string
	LogDir       string
	// IntentModelPath points at trained classifier weights; empty selects
	// the rule-based classifier.
	IntentModelPath string

	Signal  SignalConfig
	Privacy PrivacyConfig
	Threat  ThreatConfig
}

// Load reads env vars and falls back to defaults so the engine can boot with
// zero configuration.
func Load() (Config, error) {
	cfg := Config{
		Environment:     getEnv("NPG_ENV", "development"),
		HTTPPort:        getEnv("NPG_HTTP_PORT", "8080"),
		DatabasePath:    getEnv("NPG_DB_PATH", filepath.Join("data", "neuroguard.db")),
		LogDir:          getEnv("NPG_LOG_DIR", filepath.Join("data", "logs")),
		IntentModelPath: getEnv("NPG_INTENT_MODEL", ""),
		Signal: SignalConfig{
			SamplingRate:    getEnvInt("NPG_SAMPLING_RATE", 256),
			NumChannels:     getEnvInt("NPG_NUM_CHANNELS", 8),
			MaxChannels:     getEnvInt("NPG_MAX_CHANNELS", 32),
			DefaultDuration: getEnvFloat("NPG_SIGNAL_DURATION", 2.0),
			MaxDuration:     getEnvFloat("NPG_SIGNAL_MAX_DURATION", 30.0),
		},
		Privacy: PrivacyConfig{
			DefaultLevel: getEnvFloat("NPG_PRIVACY_DEFAULT_LEVEL", 0.5),
			Epsilon:      getEnvFloat("NPG_PRIVACY_EPSILON", 1.0),
			Delta:        getEnvFloat("NPG_PRIVACY_DELTA", 1e-5),
			TierLevels:   [3]float64{0.1, 0.5, 0.9},
		},
		Threat: ThreatConfig{
			Window:          getEnvDuration("NPG_THREAT_WINDOW", 5*time.Second),
			BurstThreshold:  getEnvInt("NPG_THREAT_BURST_THRESHOLD", 20),
			BlockThreshold:  getEnvInt("NPG_THREAT_BLOCK_THRESHOLD", 60),
			Cooldown:        getEnvDuration("NPG_THREAT_COOLDOWN", 60*time.Second),
			QuietPeriod:     getEnvDuration("NPG_THREAT_QUIET_PERIOD", 2*time.Minute),
			RecentAlertsCap: getEnvInt("NPG_THREAT_RECENT_CAP", 50),
			SweepSchedule:   getEnv("NPG_THREAT_SWEEP_SCHEDULE", "@every 30s"),
		},
	}

	if raw := os.Getenv("NPG_PRIVACY_TIER_LEVELS"); raw != "" {
		levels, err := parseTierLevels(raw)
		if err != nil {
			return Config{}, fmt.Errorf("parse NPG_PRIVACY_TIER_LEVELS: %w", err)
		}
		cfg.Privacy.TierLevels = levels
	}

	if cfg.Threat.BlockThreshold <= cfg.Threat.BurstThreshold {
		return Config{}, fmt.Errorf("block threshold %d must exceed burst threshold %d",
			cfg.Threat.BlockThreshold, cfg.Threat.BurstThreshold)
	}

	if err := os.MkdirAll(filepath.Dir(cfg.DatabasePath), 0o755); err != nil {
		return Config{}, fmt.Errorf("ensure data directory: %w", err)
	}

	return cfg, nil
}

// parseTierLevels parses "strict,balanced,performance" continuous levels.
func parseTierLevels(raw string) ([3]float64, error) {
	var out [3]float64
	parts := strings.Split(raw, ",")
	if len(parts) != 3 {
		return out, fmt.Errorf("expected 3 comma-separated levels, got %d", len(parts))
	}
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return out, err
		}
		if v < 0 || v > 1 {
			return out, fmt.Errorf("tier level %q out of [0,1]", p)
		}
		out[i] = v
	}
	return out, nil
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if val := os.Getenv(key); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			return f
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return fallback
}
