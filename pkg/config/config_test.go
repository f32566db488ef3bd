package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// isolateEnv clears every variable the loader reads so the host
// environment cannot leak into a test.
func isolateEnv(t *testing.T) {
	t.Helper()
	for _, name := range []string{
		"PREDIBASE_API_KEY",
		"LORASAMPLER_CONFIG",
		"LORASAMPLER_BASE_URL",
		"LORASAMPLER_ADAPTER_ID",
		"LORASAMPLER_ADAPTER_SOURCE",
		"LORASAMPLER_MODEL",
		"LORASAMPLER_SYSTEM_MESSAGE",
		"LORASAMPLER_TEMPERATURE",
		"LORASAMPLER_MAX_TOKENS",
		"LORASAMPLER_PORT",
		"LORASAMPLER_RETRY_STRICT",
	} {
		t.Setenv(name, "")
	}
	t.Setenv("LORASAMPLER_ENV_FILE", filepath.Join(t.TempDir(), "missing.env"))
}

func TestDefaults(t *testing.T) {
	cfg := Defaults()

	if cfg.Server.Port != 8090 {
		t.Errorf("default server.port = %d, want 8090", cfg.Server.Port)
	}
	if cfg.Server.ReadTimeout != 30*time.Second {
		t.Errorf("default server.read_timeout = %v, want 30s", cfg.Server.ReadTimeout)
	}
	if cfg.Predibase.AdapterSource != "pbase" {
		t.Errorf("default predibase.adapter_source = %q, want \"pbase\"", cfg.Predibase.AdapterSource)
	}
	if cfg.Predibase.Temperature != 0.5 {
		t.Errorf("default predibase.temperature = %g, want 0.5", cfg.Predibase.Temperature)
	}
	if cfg.Predibase.MaxTokens != 1024 {
		t.Errorf("default predibase.max_tokens = %d, want 1024", cfg.Predibase.MaxTokens)
	}
	if cfg.Predibase.Model != "" {
		t.Errorf("default predibase.model = %q, want empty", cfg.Predibase.Model)
	}
	if cfg.Retry.MaxAttempts != 5 {
		t.Errorf("default retry.max_attempts = %d, want 5", cfg.Retry.MaxAttempts)
	}
	if cfg.Retry.InitialBackoff != time.Second {
		t.Errorf("default retry.initial_backoff = %v, want 1s", cfg.Retry.InitialBackoff)
	}
	if cfg.Retry.Factor != 2 {
		t.Errorf("default retry.factor = %g, want 2", cfg.Retry.Factor)
	}
	if cfg.Retry.Strict {
		t.Error("default retry.strict = true, want false")
	}
	if !cfg.Observability.Metrics.Enabled {
		t.Error("default observability.metrics.enabled = false, want true")
	}
	if cfg.Observability.Metrics.Path != "/metrics" {
		t.Errorf("default observability.metrics.path = %q, want \"/metrics\"", cfg.Observability.Metrics.Path)
	}
}

func TestLoadFromYAML(t *testing.T) {
	isolateEnv(t)

	yamlContent := `
predibase:
  base_url: https://serving.app.predibase.com/tenant/deployments/v2/llms/llama-3-8b/v1/
  api_key: pb-test-key
  adapter_id: news-summarizer/3
  adapter_source: hub
  model: llama-3-8b
  system_message: You are a terse assistant.
  temperature: 0.2
  max_tokens: 256
  timeout: 45s
retry:
  max_attempts: 3
  initial_backoff: 500ms
  factor: 3
  strict: true
server:
  port: 9191
  read_timeout: 60s
  write_timeout: 5m
logging:
  level: DEBUG
  debug: providers,retry
observability:
  metrics:
    enabled: false
    path: /internal/metrics
`
	tmpFile := writeTemp(t, "config-*.yaml", yamlContent)

	cfg, err := Load(tmpFile)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	// Predibase
	if cfg.Predibase.BaseURL != "https://serving.app.predibase.com/tenant/deployments/v2/llms/llama-3-8b/v1/" {
		t.Errorf("predibase.base_url = %q", cfg.Predibase.BaseURL)
	}
	if cfg.Predibase.APIKey != "pb-test-key" {
		t.Errorf("predibase.api_key = %q, want \"pb-test-key\"", cfg.Predibase.APIKey)
	}
	if cfg.Predibase.AdapterID != "news-summarizer/3" {
		t.Errorf("predibase.adapter_id = %q, want \"news-summarizer/3\"", cfg.Predibase.AdapterID)
	}
	if cfg.Predibase.AdapterSource != "hub" {
		t.Errorf("predibase.adapter_source = %q, want \"hub\"", cfg.Predibase.AdapterSource)
	}
	if cfg.Predibase.Model != "llama-3-8b" {
		t.Errorf("predibase.model = %q, want \"llama-3-8b\"", cfg.Predibase.Model)
	}
	if cfg.Predibase.SystemMessage != "You are a terse assistant." {
		t.Errorf("predibase.system_message = %q", cfg.Predibase.SystemMessage)
	}
	if cfg.Predibase.Temperature != 0.2 {
		t.Errorf("predibase.temperature = %g, want 0.2", cfg.Predibase.Temperature)
	}
	if cfg.Predibase.MaxTokens != 256 {
		t.Errorf("predibase.max_tokens = %d, want 256", cfg.Predibase.MaxTokens)
	}
	if cfg.Predibase.Timeout != 45*time.Second {
		t.Errorf("predibase.timeout = %v, want 45s", cfg.Predibase.Timeout)
	}

	// Retry
	if cfg.Retry.MaxAttempts != 3 {
		t.Errorf("retry.max_attempts = %d, want 3", cfg.Retry.MaxAttempts)
	}
	if cfg.Retry.InitialBackoff != 500*time.Millisecond {
		t.Errorf("retry.initial_backoff = %v, want 500ms", cfg.Retry.InitialBackoff)
	}
	if cfg.Retry.Factor != 3 {
		t.Errorf("retry.factor = %g, want 3", cfg.Retry.Factor)
	}
	if !cfg.Retry.Strict {
		t.Error("retry.strict = false, want true")
	}

	// Server
	if cfg.Server.Port != 9191 {
		t.Errorf("server.port = %d, want 9191", cfg.Server.Port)
	}
	if cfg.Server.ReadTimeout != 60*time.Second {
		t.Errorf("server.read_timeout = %v, want 60s", cfg.Server.ReadTimeout)
	}
	if cfg.Server.WriteTimeout != 5*time.Minute {
		t.Errorf("server.write_timeout = %v, want 5m", cfg.Server.WriteTimeout)
	}

	// Logging
	if cfg.Logging.Level != "DEBUG" {
		t.Errorf("logging.level = %q, want \"DEBUG\"", cfg.Logging.Level)
	}
	if cfg.Logging.Debug != "providers,retry" {
		t.Errorf("logging.debug = %q, want \"providers,retry\"", cfg.Logging.Debug)
	}

	// Observability
	if cfg.Observability.Metrics.Enabled {
		t.Error("observability.metrics.enabled = true, want false")
	}
	if cfg.Observability.Metrics.Path != "/internal/metrics" {
		t.Errorf("observability.metrics.path = %q", cfg.Observability.Metrics.Path)
	}
}

func TestYAMLZeroTemperature(t *testing.T) {
	isolateEnv(t)

	yamlContent := `
predibase:
  base_url: http://localhost:8000
  api_key: pb-key
  adapter_id: a/1
  temperature: 0
`
	cfg, err := Load(writeTemp(t, "config-*.yaml", yamlContent))
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Predibase.Temperature != 0 {
		t.Errorf("predibase.temperature = %g, want 0", cfg.Predibase.Temperature)
	}
	ac := cfg.AdapterConfig()
	if ac.Temperature == nil || *ac.Temperature != 0 {
		t.Errorf("AdapterConfig().Temperature = %v, want pointer to 0", ac.Temperature)
	}
}

func TestEnvOverride(t *testing.T) {
	isolateEnv(t)

	yamlContent := `
predibase:
  base_url: http://localhost:8000
  api_key: pb-yaml-key
  adapter_id: yaml-adapter/1
server:
  port: 9090
`
	tmpFile := writeTemp(t, "config-*.yaml", yamlContent)

	t.Setenv("LORASAMPLER_BASE_URL", "http://override:9000/v1")
	t.Setenv("LORASAMPLER_ADAPTER_ID", "env-adapter/2")
	t.Setenv("LORASAMPLER_ADAPTER_SOURCE", "s3")
	t.Setenv("LORASAMPLER_MODEL", "mistral-7b")
	t.Setenv("LORASAMPLER_SYSTEM_MESSAGE", "Be brief.")
	t.Setenv("LORASAMPLER_TEMPERATURE", "0.9")
	t.Setenv("LORASAMPLER_MAX_TOKENS", "64")
	t.Setenv("LORASAMPLER_PORT", "7070")
	t.Setenv("LORASAMPLER_RETRY_STRICT", "true")

	cfg, err := Load(tmpFile)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.Predibase.BaseURL != "http://override:9000/v1" {
		t.Errorf("predibase.base_url = %q, want env override", cfg.Predibase.BaseURL)
	}
	if cfg.Predibase.AdapterID != "env-adapter/2" {
		t.Errorf("predibase.adapter_id = %q, want env override", cfg.Predibase.AdapterID)
	}
	if cfg.Predibase.AdapterSource != "s3" {
		t.Errorf("predibase.adapter_source = %q, want \"s3\"", cfg.Predibase.AdapterSource)
	}
	if cfg.Predibase.Model != "mistral-7b" {
		t.Errorf("predibase.model = %q, want \"mistral-7b\"", cfg.Predibase.Model)
	}
	if cfg.Predibase.SystemMessage != "Be brief." {
		t.Errorf("predibase.system_message = %q, want \"Be brief.\"", cfg.Predibase.SystemMessage)
	}
	if cfg.Predibase.Temperature != 0.9 {
		t.Errorf("predibase.temperature = %g, want 0.9", cfg.Predibase.Temperature)
	}
	if cfg.Predibase.MaxTokens != 64 {
		t.Errorf("predibase.max_tokens = %d, want 64", cfg.Predibase.MaxTokens)
	}
	if cfg.Server.Port != 7070 {
		t.Errorf("server.port = %d, want 7070 (env override)", cfg.Server.Port)
	}
	if !cfg.Retry.Strict {
		t.Error("retry.strict = false, want true (env override)")
	}
}

func TestEnvOverrideInvalidNumber(t *testing.T) {
	isolateEnv(t)

	yamlContent := `
predibase:
  base_url: http://localhost:8000
  api_key: pb-key
  adapter_id: a/1
`
	tmpFile := writeTemp(t, "config-*.yaml", yamlContent)
	t.Setenv("LORASAMPLER_PORT", "not-a-port")
	t.Setenv("LORASAMPLER_TEMPERATURE", "warm")

	_, err := Load(tmpFile)
	if err == nil {
		t.Fatal("Load() expected error for unparseable env values, got nil")
	}
	for _, want := range []string{"LORASAMPLER_PORT", "LORASAMPLER_TEMPERATURE"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("Load() error = %q, want it to mention %s", err.Error(), want)
		}
	}
}

func TestEnvOverrideAPIKey(t *testing.T) {
	isolateEnv(t)

	yamlContent := `
predibase:
  base_url: http://localhost:8000
  adapter_id: a/1
`
	tmpFile := writeTemp(t, "config-*.yaml", yamlContent)

	t.Setenv("PREDIBASE_API_KEY", "pb-env-api-key")

	cfg, err := Load(tmpFile)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.Predibase.APIKey != "pb-env-api-key" {
		t.Errorf("predibase.api_key = %q, want \"pb-env-api-key\"", cfg.Predibase.APIKey)
	}
}

func TestExplicitAPIKeyWinsOverEnv(t *testing.T) {
	isolateEnv(t)

	yamlContent := `
predibase:
  base_url: http://localhost:8000
  api_key: pb-explicit
  adapter_id: a/1
`
	tmpFile := writeTemp(t, "config-*.yaml", yamlContent)
	t.Setenv("PREDIBASE_API_KEY", "pb-env-api-key")

	cfg, err := Load(tmpFile)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Predibase.APIKey != "pb-explicit" {
		t.Errorf("predibase.api_key = %q, want \"pb-explicit\"", cfg.Predibase.APIKey)
	}
}

func TestDotEnvFile(t *testing.T) {
	isolateEnv(t)

	envFile := writeTemp(t, "sampler-*.env", "PREDIBASE_API_KEY=pb-dotenv-key\nLORASAMPLER_ADAPTER_ID=dotenv-adapter/4\n")
	t.Setenv("LORASAMPLER_ENV_FILE", envFile)

	// godotenv never overrides variables that are already present, so the
	// isolated (empty) values must be removed for the file to take effect.
	// The t.Setenv cleanup restores them afterwards.
	os.Unsetenv("PREDIBASE_API_KEY")
	os.Unsetenv("LORASAMPLER_ADAPTER_ID")
	t.Cleanup(func() {
		os.Unsetenv("PREDIBASE_API_KEY")
		os.Unsetenv("LORASAMPLER_ADAPTER_ID")
	})

	yamlContent := `
predibase:
  base_url: http://localhost:8000
`
	cfg, err := Load(writeTemp(t, "config-*.yaml", yamlContent))
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.Predibase.APIKey != "pb-dotenv-key" {
		t.Errorf("predibase.api_key = %q, want \"pb-dotenv-key\"", cfg.Predibase.APIKey)
	}
	if cfg.Predibase.AdapterID != "dotenv-adapter/4" {
		t.Errorf("predibase.adapter_id = %q, want \"dotenv-adapter/4\"", cfg.Predibase.AdapterID)
	}
}

func TestDotEnvDoesNotOverrideEnvironment(t *testing.T) {
	isolateEnv(t)

	envFile := writeTemp(t, "sampler-*.env", "PREDIBASE_API_KEY=pb-dotenv-key\n")
	t.Setenv("LORASAMPLER_ENV_FILE", envFile)
	t.Setenv("PREDIBASE_API_KEY", "pb-real-env")

	yamlContent := `
predibase:
  base_url: http://localhost:8000
  adapter_id: a/1
`
	cfg, err := Load(writeTemp(t, "config-*.yaml", yamlContent))
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Predibase.APIKey != "pb-real-env" {
		t.Errorf("predibase.api_key = %q, want \"pb-real-env\"", cfg.Predibase.APIKey)
	}
}

func TestFileReference(t *testing.T) {
	isolateEnv(t)

	secretFile := writeTemp(t, "secret-*.txt", "  pb-from-file  \n")

	yamlContent := `
predibase:
  base_url: http://localhost:8000
  adapter_id: a/1
  api_key_file: ` + secretFile + `
`
	tmpFile := writeTemp(t, "config-*.yaml", yamlContent)

	cfg, err := Load(tmpFile)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.Predibase.APIKey != "pb-from-file" {
		t.Errorf("predibase.api_key = %q, want \"pb-from-file\" (trimmed)", cfg.Predibase.APIKey)
	}
}

func TestFileReferenceMissingFile(t *testing.T) {
	isolateEnv(t)

	yamlContent := `
predibase:
  base_url: http://localhost:8000
  adapter_id: a/1
  api_key_file: ` + filepath.Join(t.TempDir(), "nope.txt") + `
`
	_, err := Load(writeTemp(t, "config-*.yaml", yamlContent))
	if err == nil {
		t.Fatal("Load() expected error for missing api_key_file, got nil")
	}
	if !strings.Contains(err.Error(), "predibase.api_key_file") {
		t.Errorf("Load() error = %q, want it to mention predibase.api_key_file", err.Error())
	}
}

func TestFileReferenceDoesNotOverrideExplicitValue(t *testing.T) {
	isolateEnv(t)

	secretFile := writeTemp(t, "secret-*.txt", "pb-from-file")

	yamlContent := `
predibase:
  base_url: http://localhost:8000
  adapter_id: a/1
  api_key: pb-explicit
  api_key_file: ` + secretFile + `
`
	tmpFile := writeTemp(t, "config-*.yaml", yamlContent)

	cfg, err := Load(tmpFile)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	// When both api_key and api_key_file are set, the explicit value takes precedence.
	if cfg.Predibase.APIKey != "pb-explicit" {
		t.Errorf("predibase.api_key = %q, want \"pb-explicit\" (explicit value should win over file)", cfg.Predibase.APIKey)
	}
}

func TestFileDiscovery(t *testing.T) {
	isolateEnv(t)

	yamlContent := `
predibase:
  base_url: http://discovered:8000
  api_key: pb-key
  adapter_id: a/1
`
	tmpFile := writeTemp(t, "config-*.yaml", yamlContent)

	t.Run("explicit path", func(t *testing.T) {
		if got := discoverConfigFile(tmpFile); got != tmpFile {
			t.Errorf("discoverConfigFile(%q) = %q", tmpFile, got)
		}
	})

	t.Run("env var", func(t *testing.T) {
		t.Setenv("LORASAMPLER_CONFIG", tmpFile)

		cfg, err := Load("")
		if err != nil {
			t.Fatalf("Load() error: %v", err)
		}
		if cfg.Predibase.BaseURL != "http://discovered:8000" {
			t.Errorf("predibase.base_url = %q, want discovered value", cfg.Predibase.BaseURL)
		}
	})

	t.Run("working directory", func(t *testing.T) {
		dir := t.TempDir()
		if err := os.WriteFile(filepath.Join(dir, "sampler.yaml"), []byte(yamlContent), 0o600); err != nil {
			t.Fatal(err)
		}
		t.Chdir(dir)

		if got := discoverConfigFile(""); got != "sampler.yaml" {
			t.Errorf("discoverConfigFile(\"\") = %q, want \"sampler.yaml\"", got)
		}
	})
}

func TestValidation(t *testing.T) {
	valid := func(c *Config) {
		c.Predibase.BaseURL = "http://localhost:8000"
		c.Predibase.APIKey = "pb-key"
		c.Predibase.AdapterID = "a/1"
	}

	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr string
	}{
		{
			name:    "missing base_url",
			modify:  func(c *Config) { valid(c); c.Predibase.BaseURL = "" },
			wantErr: "predibase.base_url is required",
		},
		{
			name:    "base_url of only slashes",
			modify:  func(c *Config) { valid(c); c.Predibase.BaseURL = "//" },
			wantErr: "predibase.base_url is required",
		},
		{
			name:    "missing adapter_id",
			modify:  func(c *Config) { valid(c); c.Predibase.AdapterID = "" },
			wantErr: "predibase.adapter_id is required",
		},
		{
			name:    "missing credential",
			modify:  func(c *Config) { valid(c); c.Predibase.APIKey = "" },
			wantErr: "PREDIBASE_API_KEY is required",
		},
		{
			name:    "temperature out of range",
			modify:  func(c *Config) { valid(c); c.Predibase.Temperature = 2.5 },
			wantErr: "predibase.temperature must be between 0 and 2",
		},
		{
			name:    "non-positive max_tokens",
			modify:  func(c *Config) { valid(c); c.Predibase.MaxTokens = 0 },
			wantErr: "predibase.max_tokens must be > 0",
		},
		{
			name:    "zero attempts",
			modify:  func(c *Config) { valid(c); c.Retry.MaxAttempts = 0 },
			wantErr: "retry:",
		},
		{
			name:    "shrinking backoff",
			modify:  func(c *Config) { valid(c); c.Retry.Factor = 0.5 },
			wantErr: "retry:",
		},
		{
			name:    "invalid port",
			modify:  func(c *Config) { valid(c); c.Server.Port = 0 },
			wantErr: "server.port must be > 0",
		},
		{
			name:    "unknown log level",
			modify:  func(c *Config) { valid(c); c.Logging.Level = "LOUD" },
			wantErr: "logging.level must be one of",
		},
		{
			name:    "valid config",
			modify:  valid,
			wantErr: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Defaults()
			tt.modify(&cfg)
			err := cfg.Validate()

			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() unexpected error: %v", err)
				}
				return
			}

			if err == nil {
				t.Fatalf("Validate() expected error containing %q, got nil", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %q, want it to contain %q", err.Error(), tt.wantErr)
			}
		})
	}
}

func TestYAMLDefaultsMerge(t *testing.T) {
	isolateEnv(t)

	// A minimal YAML that only sets the required fields.
	// All other fields should retain defaults.
	yamlContent := `
predibase:
  base_url: http://localhost:8000
  api_key: pb-key
  adapter_id: a/1
`
	tmpFile := writeTemp(t, "config-*.yaml", yamlContent)

	cfg, err := Load(tmpFile)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	// Check that defaults are preserved for unset fields.
	if cfg.Server.Port != 8090 {
		t.Errorf("server.port = %d, want default 8090", cfg.Server.Port)
	}
	if cfg.Predibase.AdapterSource != "pbase" {
		t.Errorf("predibase.adapter_source = %q, want default \"pbase\"", cfg.Predibase.AdapterSource)
	}
	if cfg.Retry.MaxAttempts != 5 {
		t.Errorf("retry.max_attempts = %d, want default 5", cfg.Retry.MaxAttempts)
	}
	if cfg.Predibase.Temperature != 0.5 {
		t.Errorf("predibase.temperature = %g, want default 0.5", cfg.Predibase.Temperature)
	}
}

func TestAdapterConfigAndPolicy(t *testing.T) {
	cfg := Defaults()
	cfg.Predibase.BaseURL = "http://localhost:8000/"
	cfg.Predibase.APIKey = "pb-key"
	cfg.Predibase.AdapterID = "a/1"
	cfg.Predibase.SystemMessage = "sys"
	cfg.Retry.Strict = true

	ac := cfg.AdapterConfig()
	if ac.BaseURL != "http://localhost:8000/" || ac.APIKey != "pb-key" || ac.AdapterID != "a/1" {
		t.Errorf("AdapterConfig() = %+v, want predibase section copied", ac)
	}
	if ac.AdapterSource != "pbase" || ac.MaxTokens != 1024 || ac.SystemMessage != "sys" {
		t.Errorf("AdapterConfig() = %+v, want defaults carried over", ac)
	}
	if ac.Temperature == nil || *ac.Temperature != 0.5 {
		t.Errorf("AdapterConfig().Temperature = %v, want 0.5", ac.Temperature)
	}

	// Mutating the returned pointer must not affect the config.
	*ac.Temperature = 1.5
	if cfg.Predibase.Temperature != 0.5 {
		t.Errorf("predibase.temperature changed to %g through AdapterConfig()", cfg.Predibase.Temperature)
	}

	p := cfg.RetryPolicy()
	if p.MaxAttempts != 5 || p.InitialBackoff != time.Second || p.Factor != 2 || !p.Strict {
		t.Errorf("RetryPolicy() = %+v", p)
	}
}

// writeTemp creates a temporary file with the given content and returns its path.
// The file is automatically cleaned up when the test finishes.
func writeTemp(t *testing.T, pattern, content string) string {
	t.Helper()
	f, err := os.CreateTemp(t.TempDir(), pattern)
	if err != nil {
		t.Fatalf("creating temp file: %v", err)
	}
	if _, err := f.WriteString(content); err != nil {
		f.Close()
		t.Fatalf("writing temp file: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("closing temp file: %v", err)
	}
	return f.Name()
}
