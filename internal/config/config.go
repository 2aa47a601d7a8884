// Package config holds the grouped, JSON-tagged configuration structs for
// the PDA runtime and the Vendor Pool: one struct per component, a
// DefaultConfig constructor, and a LoadFromFile/LoadFromEnv pair for
// file- and environment-driven overrides.
package config

import (
	"encoding/json"
	"os"
	"strconv"
	"time"
)

// OrchestratorConfig holds Orchestrator run-level settings.
type OrchestratorConfig struct {
	// DefaultInteractionTimeout is loaded from config but not applied: the
	// Orchestrator times out only interactions that carry their own Timeout.
	DefaultInteractionTimeout time.Duration `json:"default_interaction_timeout"`
}

// PoolConfig holds Vendor Pool dispatch settings.
type PoolConfig struct {
	MaxRetries             int           `json:"max_retries"`              // default: 10
	MaxConsecutiveFailures int           `json:"max_consecutive_failures"` // default: 5
	Timeout                time.Duration `json:"timeout"`                  // default: 30s
	InitialMinTime         time.Duration `json:"initial_min_time"`         // default: 500ms
	ProbeStep              time.Duration `json:"probe_step"`               // default: 20ms
	RateLimitBackoff       float64       `json:"rate_limit_backoff"`       // default: 1.25
	SoftFreezeMin          time.Duration `json:"soft_freeze_min"`          // default: 5s
	SoftFreezeMax          time.Duration `json:"soft_freeze_max"`          // default: 10s
	HardFreezeMin          time.Duration `json:"hard_freeze_min"`          // default: 30s
	HardFreezeMax          time.Duration `json:"hard_freeze_max"`          // default: 60s
}

// CLIConfig holds cmd/pda-level settings.
type CLIConfig struct {
	LogLevel string `json:"log_level"` // debug, info, warn, error
}

// LoggingConfig holds the log output settings a PDA/Pool process emits:
// no tracing, no metrics.
type LoggingConfig struct {
	Level  string `json:"level"`  // debug, info, warn, error
	Format string `json:"format"` // text, json
}

// Config is the central configuration struct embedding every component
// config.
type Config struct {
	Orchestrator OrchestratorConfig `json:"orchestrator"`
	Pool         PoolConfig         `json:"pool"`
	CLI          CLIConfig          `json:"cli"`
	Logging      LoggingConfig      `json:"logging"`
}

// DefaultConfig returns a Config populated with the documented defaults.
func DefaultConfig() *Config {
	return &Config{
		Orchestrator: OrchestratorConfig{
			DefaultInteractionTimeout: 0,
		},
		Pool: PoolConfig{
			MaxRetries:             10,
			MaxConsecutiveFailures: 5,
			Timeout:                30 * time.Second,
			InitialMinTime:         500 * time.Millisecond,
			ProbeStep:              20 * time.Millisecond,
			RateLimitBackoff:       1.25,
			SoftFreezeMin:          5 * time.Second,
			SoftFreezeMax:          10 * time.Second,
			HardFreezeMin:          30 * time.Second,
			HardFreezeMax:          60 * time.Second,
		},
		CLI: CLIConfig{
			LogLevel: "info",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// LoadFromFile loads configuration from a JSON file, applied over
// DefaultConfig so an omitted field keeps its default.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := DefaultConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFromEnv applies environment variable overrides to cfg.
func LoadFromEnv(cfg *Config) {
	if v := os.Getenv("PDA_LOG_LEVEL"); v != "" {
		cfg.CLI.LogLevel = v
		cfg.Logging.Level = v
	}
	if v := os.Getenv("PDA_POOL_MAX_RETRIES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Pool.MaxRetries = n
		}
	}
	if v := os.Getenv("PDA_POOL_TIMEOUT_MS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Pool.Timeout = time.Duration(n) * time.Millisecond
		}
	}
}
