package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/rhuss/lorasampler/pkg/provider/predibase"
)

// Validate checks the configuration for required fields and valid values.
// Returns an error with a descriptive field path on failure.
func (c *Config) Validate() error {
	var errs []error

	// predibase.base_url is required.
	if strings.TrimRight(c.Predibase.BaseURL, "/") == "" {
		errs = append(errs, fmt.Errorf("predibase.base_url is required"))
	}

	// predibase.adapter_id is required.
	if c.Predibase.AdapterID == "" {
		errs = append(errs, fmt.Errorf("predibase.adapter_id is required"))
	}

	// A credential must come from somewhere.
	if c.Predibase.APIKey == "" && c.Predibase.APIKeyFile == "" {
		errs = append(errs, fmt.Errorf("predibase.api_key, predibase.api_key_file or %s is required", predibase.APIKeyEnv))
	}

	if c.Predibase.Temperature < 0 || c.Predibase.Temperature > 2 {
		errs = append(errs, fmt.Errorf("predibase.temperature must be between 0 and 2, got %g", c.Predibase.Temperature))
	}

	if c.Predibase.MaxTokens <= 0 {
		errs = append(errs, fmt.Errorf("predibase.max_tokens must be > 0, got %d", c.Predibase.MaxTokens))
	}

	if c.Predibase.Timeout < 0 {
		errs = append(errs, fmt.Errorf("predibase.timeout must be >= 0, got %s", c.Predibase.Timeout))
	}

	if err := c.RetryPolicy().Validate(); err != nil {
		errs = append(errs, fmt.Errorf("retry: %w", err))
	}

	// server.port must be positive.
	if c.Server.Port <= 0 {
		errs = append(errs, fmt.Errorf("server.port must be > 0, got %d", c.Server.Port))
	}

	// logging.level must be a known value.
	switch strings.ToUpper(c.Logging.Level) {
	case "TRACE", "DEBUG", "INFO", "WARN", "WARNING", "ERROR", "":
		// valid
	default:
		errs = append(errs, fmt.Errorf("logging.level must be one of TRACE, DEBUG, INFO, WARN, ERROR, got %q", c.Logging.Level))
	}

	return errors.Join(errs...)
}
