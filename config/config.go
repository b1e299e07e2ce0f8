// Package config provides configuration loading and validation.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure.
type Config struct {
	Server        ServerConfig        `yaml:"server"`
	RateLimit     RateLimitConfig     `yaml:"rate_limit"`
	RequestID     RequestIDConfig     `yaml:"request_id"`
	Observability ObservabilityConfig `yaml:"observability"`
	Logging       LoggingConfig       `yaml:"logging"`
	Metrics       MetricsConfig       `yaml:"metrics"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// RateLimitConfig configures the token-bucket rate limiter.
type RateLimitConfig struct {
	Enabled      bool    `yaml:"enabled"`
	Capacity     float64 `yaml:"capacity"`
	RefillPerSec float64 `yaml:"refill_per_sec"`
	KeyHeader    string  `yaml:"key_header"`
}

// RequestIDConfig configures request id handling.
type RequestIDConfig struct {
	Header         string `yaml:"header"`
	RejectIncoming bool   `yaml:"reject_incoming"`
}

// ObservabilityConfig configures tracing and the dev diagnostic bundle.
type ObservabilityConfig struct {
	Tracing    bool `yaml:"tracing"`
	DevOnly    bool `yaml:"dev_only"`
	DebugTrace bool `yaml:"debug_trace"`
}

// LoggingConfig configures logging.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // "debug", "info", "warn", "error"
	Format string `yaml:"format"` // "json" or "console"
}

// MetricsConfig configures the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"` // default /metrics
}

// Load reads configuration from a YAML file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	// Expand environment variables
	data = []byte(os.ExpandEnv(string(data)))

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	// Environment variables always override file-based configuration.
	applyEnvOverrides(&cfg)

	setDefaults(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &cfg, nil
}

// LoadFromEnv creates configuration entirely from environment variables.
// This is useful for container deployments where no config file is needed.
//
// Environment variables:
//
//	CONDUIT_SERVER_HOST          - Server host (default: 0.0.0.0)
//	CONDUIT_SERVER_PORT          - Server port (default: 8080)
//	CONDUIT_RATELIMIT_ENABLED    - Enable rate limiting (default: false)
//	CONDUIT_RATELIMIT_CAPACITY   - Bucket capacity in tokens (default: 60)
//	CONDUIT_RATELIMIT_REFILL     - Tokens restored per second (default: 1)
//	CONDUIT_LOG_LEVEL            - Log level: debug, info, warn, error (default: info)
//	CONDUIT_LOG_FORMAT           - Log format: json or console (default: json)
//	CONDUIT_METRICS_ENABLED      - Enable /metrics endpoint (default: true)
func LoadFromEnv() (*Config, error) {
	var cfg Config

	applyEnvOverrides(&cfg)
	setDefaults(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &cfg, nil
}

// LoadWithFallback tries to load from file, falls back to environment variables.
func LoadWithFallback(path string) (*Config, error) {
	if path != "" {
		if _, err := os.Stat(path); err == nil {
			return Load(path)
		}
	}
	return LoadFromEnv()
}

// applyEnvOverrides applies CONDUIT_* environment variables to the config.
func applyEnvOverrides(cfg *Config) {
	// Server configuration
	if v := os.Getenv("CONDUIT_SERVER_HOST"); v != "" {
		cfg.Server.Host = v
	}
	if v := os.Getenv("CONDUIT_SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("CONDUIT_SERVER_READ_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Server.ReadTimeout = d
		}
	}
	if v := os.Getenv("CONDUIT_SERVER_WRITE_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Server.WriteTimeout = d
		}
	}

	// Rate limit configuration
	if v := os.Getenv("CONDUIT_RATELIMIT_ENABLED"); v != "" {
		cfg.RateLimit.Enabled = parseBool(v)
	}
	if v := os.Getenv("CONDUIT_RATELIMIT_CAPACITY"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.RateLimit.Capacity = f
		}
	}
	if v := os.Getenv("CONDUIT_RATELIMIT_REFILL"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.RateLimit.RefillPerSec = f
		}
	}
	if v := os.Getenv("CONDUIT_RATELIMIT_KEY_HEADER"); v != "" {
		cfg.RateLimit.KeyHeader = v
	}

	// Request id configuration
	if v := os.Getenv("CONDUIT_REQUEST_ID_HEADER"); v != "" {
		cfg.RequestID.Header = v
	}

	// Observability configuration
	if v := os.Getenv("CONDUIT_TRACING_ENABLED"); v != "" {
		cfg.Observability.Tracing = parseBool(v)
	}
	if v := os.Getenv("CONDUIT_DEBUG_TRACE"); v != "" {
		cfg.Observability.DebugTrace = parseBool(v)
	}

	// Logging configuration
	if v := os.Getenv("CONDUIT_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("CONDUIT_LOG_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}

	// Metrics configuration
	if v := os.Getenv("CONDUIT_METRICS_ENABLED"); v != "" {
		cfg.Metrics.Enabled = parseBool(v)
	}
	if v := os.Getenv("CONDUIT_METRICS_PATH"); v != "" {
		cfg.Metrics.Path = v
	}
}

// parseBool parses a boolean from common string values.
func parseBool(v string) bool {
	v = strings.ToLower(strings.TrimSpace(v))
	return v == "true" || v == "1" || v == "yes" || v == "on"
}

func setDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "0.0.0.0"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = 30 * time.Second
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = 60 * time.Second
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = 10 * time.Second
	}

	if cfg.RateLimit.Capacity == 0 {
		cfg.RateLimit.Capacity = 60
	}
	if cfg.RateLimit.RefillPerSec == 0 {
		cfg.RateLimit.RefillPerSec = 1
	}
	if cfg.RateLimit.KeyHeader == "" {
		cfg.RateLimit.KeyHeader = "X-Forwarded-For"
	}

	if cfg.RequestID.Header == "" {
		cfg.RequestID.Header = "X-Request-Id"
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}

	if cfg.Metrics.Path == "" {
		cfg.Metrics.Path = "/metrics"
	}
}

func validate(cfg *Config) error {
	if cfg.Server.Port < 1 || cfg.Server.Port > 65535 {
		return fmt.Errorf("server.port must be in 1..65535, got %d", cfg.Server.Port)
	}

	if cfg.RateLimit.Capacity < 0 {
		return fmt.Errorf("rate_limit.capacity must not be negative, got %v", cfg.RateLimit.Capacity)
	}
	if cfg.RateLimit.RefillPerSec < 0 {
		return fmt.Errorf("rate_limit.refill_per_sec must not be negative, got %v", cfg.RateLimit.RefillPerSec)
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[cfg.Logging.Level] {
		return fmt.Errorf("logging.level must be one of: debug, info, warn, error, got %q", cfg.Logging.Level)
	}

	validFormats := map[string]bool{"json": true, "console": true}
	if !validFormats[cfg.Logging.Format] {
		return fmt.Errorf("logging.format must be 'json' or 'console', got %q", cfg.Logging.Format)
	}

	if !strings.HasPrefix(cfg.Metrics.Path, "/") {
		return fmt.Errorf("metrics.path must start with '/', got %q", cfg.Metrics.Path)
	}

	return nil
}
