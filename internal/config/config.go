// Package config loads the service configuration from an optional YAML file
// with environment variable overrides.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// Config holds every tunable of the service.
type Config struct {
	// Addr is the HTTP listen address.
	Addr string `mapstructure:"addr"`
	// LogLevel is one of debug, info, warn, error.
	LogLevel string `mapstructure:"log_level"`

	// GroqAPIKey authenticates against the completion API. Without it the
	// analysis states fall back to their error routes.
	GroqAPIKey string `mapstructure:"groq_api_key"`
	// GroqModel overrides the default completion model.
	GroqModel string `mapstructure:"groq_model"`

	// RedisAddr enables the Redis transcript store when non-empty;
	// otherwise transcripts live in memory.
	RedisAddr     string `mapstructure:"redis_addr"`
	RedisPassword string `mapstructure:"redis_password"`
	RedisDB       int    `mapstructure:"redis_db"`

	// QuietWindow is the silence window closing a reply batch.
	QuietWindow time.Duration `mapstructure:"quiet_window"`
	// CollectCeiling caps the total wait for one reply batch.
	CollectCeiling time.Duration `mapstructure:"collect_ceiling"`
	// AdvanceDelay paces automatic transitions out of advice states.
	AdvanceDelay time.Duration `mapstructure:"advance_delay"`

	// MaxSessions bounds the number of live conversation actors. Zero
	// means unbounded.
	MaxSessions int `mapstructure:"max_sessions"`
	// SessionIdleTTL evicts sessions idle for longer than this. Zero
	// disables eviction.
	SessionIdleTTL time.Duration `mapstructure:"session_idle_ttl"`
	// TaskWorkers sizes the shared pool running invoked tasks.
	TaskWorkers int `mapstructure:"task_workers"`
}

// Default returns the configuration used when no file and no environment
// overrides are present.
func Default() Config {
	return Config{
		Addr:           ":8080",
		LogLevel:       "info",
		QuietWindow:    time.Second,
		CollectCeiling: 10 * time.Second,
		AdvanceDelay:   600 * time.Millisecond,
		MaxSessions:    1000,
		SessionIdleTTL: 30 * time.Minute,
		TaskWorkers:    32,
	}
}

// envOverrides maps environment variable names to config keys.
var envOverrides = map[string]string{
	"IASYS_ADDR":             "addr",
	"IASYS_LOG_LEVEL":        "log_level",
	"GROQ_API_KEY":           "groq_api_key",
	"IASYS_GROQ_MODEL":       "groq_model",
	"IASYS_REDIS_ADDR":       "redis_addr",
	"IASYS_REDIS_PASSWORD":   "redis_password",
	"IASYS_QUIET_WINDOW":     "quiet_window",
	"IASYS_COLLECT_CEILING":  "collect_ceiling",
	"IASYS_ADVANCE_DELAY":    "advance_delay",
	"IASYS_MAX_SESSIONS":     "max_sessions",
	"IASYS_SESSION_IDLE_TTL": "session_idle_ttl",
	"IASYS_TASK_WORKERS":     "task_workers",
}

// Load reads the YAML file at path (skipped when path is empty or missing),
// applies environment overrides and decodes the result over the defaults.
func Load(path string) (Config, error) {
	raw := map[string]any{}

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case os.IsNotExist(err):
			// Missing file falls back to defaults.
		case err != nil:
			return Config{}, fmt.Errorf("failed to read config: %w", err)
		default:
			if err := yaml.Unmarshal(data, &raw); err != nil {
				return Config{}, fmt.Errorf("failed to parse config: %w", err)
			}
		}
	}

	for env, key := range envOverrides {
		if v, ok := os.LookupEnv(env); ok && v != "" {
			raw[key] = v
		}
	}

	cfg := Default()
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &cfg,
		WeaklyTypedInput: true,
		DecodeHook:       mapstructure.StringToTimeDurationHookFunc(),
	})
	if err != nil {
		return Config{}, fmt.Errorf("failed to build config decoder: %w", err)
	}
	if err := dec.Decode(raw); err != nil {
		return Config{}, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, cfg.validate()
}

func (c Config) validate() error {
	if c.QuietWindow <= c.AdvanceDelay {
		return fmt.Errorf("quiet_window (%s) must exceed advance_delay (%s)", c.QuietWindow, c.AdvanceDelay)
	}
	if c.CollectCeiling < c.QuietWindow {
		return fmt.Errorf("collect_ceiling (%s) must be at least quiet_window (%s)", c.CollectCeiling, c.QuietWindow)
	}
	return nil
}
