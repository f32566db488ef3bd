package predibase

import (
	"os"
	"time"
)

const (
	// APIKeyEnv is the environment variable read by the default
	// CredentialSource.
	APIKeyEnv = "PREDIBASE_API_KEY"

	// DefaultAdapterSource tags adapters registered in the Predibase
	// model repository.
	DefaultAdapterSource = "pbase"

	// DefaultTemperature is the sampling temperature used when none is set.
	DefaultTemperature = 0.5

	// DefaultMaxTokens is the completion token limit used when none is set.
	DefaultMaxTokens = 1024
)

// Config holds configuration for the Predibase adapter.
type Config struct {
	// BaseURL is the deployment's OpenAI-compatible API root
	// (e.g., "https://serving.app.predibase.com/<tenant>/deployments/v2/llms/<name>/v1").
	// A trailing slash is removed.
	BaseURL string

	// APIKey authenticates against the deployment. When empty, the
	// adapter's CredentialSource is consulted.
	APIKey string

	// AdapterID selects the LoRA weights (e.g., "my-repo/3").
	AdapterID string

	// AdapterSource says where the adapter is registered. Defaults to "pbase".
	AdapterSource string

	// Model is sent as the request's model field. Defaults to "".
	Model string

	// SystemMessage, when non-empty, is prepended to every conversation.
	SystemMessage string

	// Temperature for sampling. Nil means DefaultTemperature.
	Temperature *float64

	// MaxTokens caps the completion length. Zero means DefaultMaxTokens.
	MaxTokens int

	// Timeout for individual HTTP requests. Defaults to 120s.
	Timeout time.Duration
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig(baseURL, adapterID string) Config {
	temp := DefaultTemperature
	return Config{
		BaseURL:       baseURL,
		AdapterID:     adapterID,
		AdapterSource: DefaultAdapterSource,
		Temperature:   &temp,
		MaxTokens:     DefaultMaxTokens,
		Timeout:       120 * time.Second,
	}
}

// CredentialSource yields an API key, or "" when it has none.
type CredentialSource func() string

// EnvCredential reads the API key from the named environment variable.
func EnvCredential(name string) CredentialSource {
	return func() string {
		return os.Getenv(name)
	}
}

// StaticCredential always yields key.
func StaticCredential(key string) CredentialSource {
	return func() string {
		return key
	}
}
