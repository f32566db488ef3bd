// Package config provides unified configuration for the sampler.
//
// Configuration is loaded with a layered approach:
//  1. Built-in defaults
//  2. .env file (values never override variables already set)
//  3. YAML config file (discovered or explicitly specified)
//  4. Environment variable overrides (LORASAMPLER_ prefix, PREDIBASE_API_KEY)
//  5. File reference resolution (_file suffix fields)
//  6. Validation
package config

import (
	"time"

	"github.com/rhuss/lorasampler/pkg/provider/predibase"
	"github.com/rhuss/lorasampler/pkg/retry"
)

// Config holds all configuration for the sampler.
type Config struct {
	Predibase     PredibaseConfig     `yaml:"predibase"`
	Retry         RetryConfig         `yaml:"retry"`
	Server        ServerConfig        `yaml:"server"`
	Logging       LoggingConfig       `yaml:"logging"`
	Observability ObservabilityConfig `yaml:"observability"`
}

// PredibaseConfig holds the deployment and adapter settings.
type PredibaseConfig struct {
	BaseURL       string        `yaml:"base_url"`       // required
	APIKey        string        `yaml:"api_key"`        // or PREDIBASE_API_KEY
	APIKeyFile    string        `yaml:"api_key_file"`   // _file variant for api_key
	AdapterID     string        `yaml:"adapter_id"`     // required
	AdapterSource string        `yaml:"adapter_source"` // default: "pbase"
	Model         string        `yaml:"model"`          // default: ""
	SystemMessage string        `yaml:"system_message"` // optional
	Temperature   float64       `yaml:"temperature"`    // default: 0.5
	MaxTokens     int           `yaml:"max_tokens"`     // default: 1024
	Timeout       time.Duration `yaml:"timeout"`        // default: 120s
}

// RetryConfig holds the backoff settings for failed calls.
type RetryConfig struct {
	MaxAttempts    int           `yaml:"max_attempts"`    // default: 5
	InitialBackoff time.Duration `yaml:"initial_backoff"` // default: 1s
	Factor         float64       `yaml:"factor"`          // default: 2
	Strict         bool          `yaml:"strict"`          // default: false (retry every error)
}

// ServerConfig holds HTTP server settings for "sampler serve".
type ServerConfig struct {
	Port         int           `yaml:"port"`          // default: 8090
	ReadTimeout  time.Duration `yaml:"read_timeout"`  // default: 30s
	WriteTimeout time.Duration `yaml:"write_timeout"` // default: 15m
}

// LoggingConfig holds log level and debug category settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // default: "INFO"
	Debug string `yaml:"debug"` // comma-separated debug categories
}

// ObservabilityConfig holds monitoring and instrumentation settings.
type ObservabilityConfig struct {
	Metrics MetricsConfig `yaml:"metrics"`
}

// MetricsConfig holds Prometheus metrics endpoint settings.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"` // default: true
	Path    string `yaml:"path"`    // default: "/metrics"
}

// Defaults returns a Config with all default values filled in.
func Defaults() Config {
	return Config{
		Predibase: PredibaseConfig{
			AdapterSource: predibase.DefaultAdapterSource,
			Temperature:   predibase.DefaultTemperature,
			MaxTokens:     predibase.DefaultMaxTokens,
			Timeout:       120 * time.Second,
		},
		Retry: RetryConfig{
			MaxAttempts:    5,
			InitialBackoff: time.Second,
			Factor:         2,
		},
		Server: ServerConfig{
			Port:        8090,
			ReadTimeout: 30 * time.Second,
			// A fully exhausted call spends 31s in backoff alone, on top of
			// up to five request timeouts.
			WriteTimeout: 15 * time.Minute,
		},
		Logging: LoggingConfig{
			Level: "INFO",
		},
		Observability: ObservabilityConfig{
			Metrics: MetricsConfig{
				Enabled: true,
				Path:    "/metrics",
			},
		},
	}
}

// AdapterConfig converts the predibase section into the adapter's Config.
func (c *Config) AdapterConfig() predibase.Config {
	temp := c.Predibase.Temperature
	return predibase.Config{
		BaseURL:       c.Predibase.BaseURL,
		APIKey:        c.Predibase.APIKey,
		AdapterID:     c.Predibase.AdapterID,
		AdapterSource: c.Predibase.AdapterSource,
		Model:         c.Predibase.Model,
		SystemMessage: c.Predibase.SystemMessage,
		Temperature:   &temp,
		MaxTokens:     c.Predibase.MaxTokens,
		Timeout:       c.Predibase.Timeout,
	}
}

// RetryPolicy converts the retry section into a retry.Policy.
func (c *Config) RetryPolicy() retry.Policy {
	return retry.Policy{
		MaxAttempts:    c.Retry.MaxAttempts,
		InitialBackoff: c.Retry.InitialBackoff,
		Factor:         c.Retry.Factor,
		Strict:         c.Retry.Strict,
	}
}
