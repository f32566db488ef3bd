package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/rhuss/lorasampler/pkg/debug"
	"github.com/rhuss/lorasampler/pkg/provider/predibase"
)

// Load loads configuration from a layered set of sources.
//
// The loading order is:
//  1. Built-in defaults
//  2. .env file (LORASAMPLER_ENV_FILE or ./.env); missing files are ignored
//  3. YAML config file (explicit path, LORASAMPLER_CONFIG env, ./sampler.yaml, /etc/lorasampler/sampler.yaml)
//  4. Environment variable overrides
//  5. File reference resolution (_file suffix)
//  6. Validation
func Load(configPath string) (*Config, error) {
	// Start with defaults.
	cfg := Defaults()

	if err := loadDotEnv(); err != nil {
		return nil, fmt.Errorf("loading .env file: %w", err)
	}

	// Discover and load YAML config file.
	filePath := discoverConfigFile(configPath)
	if filePath != "" {
		debug.Log(debug.Config, "loading config file", "path", filePath)
		if err := loadYAMLFile(filePath, &cfg); err != nil {
			return nil, fmt.Errorf("loading config file %s: %w", filePath, err)
		}
	}

	if err := applyEnvOverrides(&cfg); err != nil {
		return nil, fmt.Errorf("applying environment overrides: %w", err)
	}

	// Resolve _file references.
	if err := resolveFileReferences(&cfg); err != nil {
		return nil, fmt.Errorf("resolving file references: %w", err)
	}

	// Validate.
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return &cfg, nil
}

// loadDotEnv populates the process environment from a .env file.
// Variables that are already set keep their values.
func loadDotEnv() error {
	path := os.Getenv("LORASAMPLER_ENV_FILE")
	if path == "" {
		path = ".env"
	}
	err := godotenv.Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

// discoverConfigFile finds the config file path using the discovery order:
// 1. Explicit configPath argument
// 2. LORASAMPLER_CONFIG environment variable
// 3. ./sampler.yaml in the current directory
// 4. /etc/lorasampler/sampler.yaml
//
// Returns empty string if no config file is found.
func discoverConfigFile(configPath string) string {
	// Explicit path takes priority.
	if configPath != "" {
		return configPath
	}

	if envPath := os.Getenv("LORASAMPLER_CONFIG"); envPath != "" {
		return envPath
	}

	candidates := []string{
		"sampler.yaml",
		"/etc/lorasampler/sampler.yaml",
	}
	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// loadYAMLFile reads and parses a YAML file into the Config struct.
// Fields not present in the YAML retain their current (default) values.
func loadYAMLFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

// applyEnvOverrides maps environment variables to config fields. Numeric
// variables that do not parse are reported instead of silently ignored.
func applyEnvOverrides(cfg *Config) error {
	var errs []error

	if v := os.Getenv(predibase.APIKeyEnv); v != "" && cfg.Predibase.APIKey == "" {
		cfg.Predibase.APIKey = v
	}
	if v := os.Getenv("LORASAMPLER_BASE_URL"); v != "" {
		cfg.Predibase.BaseURL = v
	}
	if v := os.Getenv("LORASAMPLER_ADAPTER_ID"); v != "" {
		cfg.Predibase.AdapterID = v
	}
	if v := os.Getenv("LORASAMPLER_ADAPTER_SOURCE"); v != "" {
		cfg.Predibase.AdapterSource = v
	}
	if v := os.Getenv("LORASAMPLER_MODEL"); v != "" {
		cfg.Predibase.Model = v
	}
	if v := os.Getenv("LORASAMPLER_SYSTEM_MESSAGE"); v != "" {
		cfg.Predibase.SystemMessage = v
	}
	if v := os.Getenv("LORASAMPLER_TEMPERATURE"); v != "" {
		temp, err := strconv.ParseFloat(v, 64)
		if err != nil {
			errs = append(errs, fmt.Errorf("LORASAMPLER_TEMPERATURE: %w", err))
		} else {
			cfg.Predibase.Temperature = temp
		}
	}
	if v := os.Getenv("LORASAMPLER_MAX_TOKENS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("LORASAMPLER_MAX_TOKENS: %w", err))
		} else {
			cfg.Predibase.MaxTokens = n
		}
	}
	if v := os.Getenv("LORASAMPLER_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("LORASAMPLER_PORT: %w", err))
		} else {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("LORASAMPLER_RETRY_STRICT"); v != "" {
		strict, err := strconv.ParseBool(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("LORASAMPLER_RETRY_STRICT: %w", err))
		} else {
			cfg.Retry.Strict = strict
		}
	}

	return errors.Join(errs...)
}

// resolveFileReferences reads _file fields and populates the corresponding value fields.
// For each field ending in _file, if the value field is empty and the file field is set,
// the file is read, whitespace is trimmed, and the value field is populated.
func resolveFileReferences(cfg *Config) error {
	// predibase.api_key_file -> predibase.api_key
	if cfg.Predibase.APIKeyFile != "" && cfg.Predibase.APIKey == "" {
		val, err := readSecretFile(cfg.Predibase.APIKeyFile)
		if err != nil {
			return fmt.Errorf("predibase.api_key_file: %w", err)
		}
		cfg.Predibase.APIKey = val
	}

	return nil
}

// readSecretFile reads a file and returns its content with surrounding whitespace trimmed.
func readSecretFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}
