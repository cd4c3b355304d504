package config

import (
	"os"
	"path/filepath"
	"testing"
)

var allKeys = []string{
	"PORT", "NODE_ENV", "OPENAI_API_KEY", "OPENAI_MODEL", "OPENAI_BASE_URL",
	"MAX_TOKENS", "TEMPERATURE", "API_KEY", "MAX_BODY_BYTES", "CONFIG_FILE",
}

// No t.Parallel() in this package: env vars are process-global.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range allKeys {
		t.Setenv(key, "")
	}
}

func mustLoad(t *testing.T) ServiceConfig {
	t.Helper()
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	return cfg
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg := mustLoad(t)

	if cfg.Port != "3000" {
		t.Errorf("Port = %q, want 3000", cfg.Port)
	}
	if cfg.Environment != "development" {
		t.Errorf("Environment = %q, want development", cfg.Environment)
	}
	if !cfg.IsDevelopment() {
		t.Error("IsDevelopment() = false for default environment")
	}
	if cfg.OpenAIModel != "gpt-3.5-turbo" {
		t.Errorf("OpenAIModel = %q, want gpt-3.5-turbo", cfg.OpenAIModel)
	}
	if cfg.MaxTokens != 1000 {
		t.Errorf("MaxTokens = %d, want 1000", cfg.MaxTokens)
	}
	if cfg.Temperature != 0.7 {
		t.Errorf("Temperature = %v, want 0.7", cfg.Temperature)
	}
	if cfg.OpenAIAPIKey != "" || cfg.APIKey != "" || cfg.OpenAIBaseURL != "" {
		t.Errorf("secrets and base URL should default to empty, got %+v", cfg)
	}
	if cfg.MaxBodyBytes != 100<<10 {
		t.Errorf("MaxBodyBytes = %d, want %d", cfg.MaxBodyBytes, 100<<10)
	}
	if cfg.Addr() != ":3000" {
		t.Errorf("Addr() = %q, want :3000", cfg.Addr())
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "8080")
	t.Setenv("NODE_ENV", "production")
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("OPENAI_MODEL", "gpt-4o-mini")
	t.Setenv("OPENAI_BASE_URL", "http://localhost:11434/v1")
	t.Setenv("MAX_TOKENS", "256")
	t.Setenv("TEMPERATURE", "0")
	t.Setenv("API_KEY", "secret")
	t.Setenv("MAX_BODY_BYTES", "2048")

	cfg := mustLoad(t)

	want := ServiceConfig{
		Port:          "8080",
		Environment:   "production",
		OpenAIAPIKey:  "sk-test",
		OpenAIModel:   "gpt-4o-mini",
		OpenAIBaseURL: "http://localhost:11434/v1",
		MaxTokens:     256,
		Temperature:   0,
		APIKey:        "secret",
		MaxBodyBytes:  2048,
	}
	if cfg != want {
		t.Errorf("Load() = %+v, want %+v", cfg, want)
	}
	if cfg.IsDevelopment() {
		t.Error("IsDevelopment() = true in production")
	}
}

func TestLoad_InvalidNumbersFallBack(t *testing.T) {
	tests := []struct {
		name            string
		maxTokens       string
		temperature     string
		wantMaxTokens   int
		wantTemperature float64
	}{
		{"not a number", "lots", "warm", 1000, 0.7},
		{"non-positive tokens", "0", "1.2", 1000, 1.2},
		{"negative tokens", "-5", "2", 1000, 2},
		{"temperature out of range", "50", "3.5", 50, 0.7},
		{"negative temperature", "50", "-0.1", 50, 0.7},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv("MAX_TOKENS", tt.maxTokens)
			t.Setenv("TEMPERATURE", tt.temperature)

			cfg := mustLoad(t)

			if cfg.MaxTokens != tt.wantMaxTokens {
				t.Errorf("MaxTokens = %d, want %d", cfg.MaxTokens, tt.wantMaxTokens)
			}
			if cfg.Temperature != tt.wantTemperature {
				t.Errorf("Temperature = %v, want %v", cfg.Temperature, tt.wantTemperature)
			}
		})
	}
}

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "chatrelay.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config file: %v", err)
	}
	return path
}

func TestLoad_ConfigFile(t *testing.T) {
	clearEnv(t)
	t.Setenv("CONFIG_FILE", writeConfigFile(t, `
port: "9090"
environment: staging
api_key: from-file
openai:
  model: gpt-4o-mini
  max_tokens: 512
  temperature: 0
`))
	t.Setenv("OPENAI_MODEL", "gpt-4o")

	cfg := mustLoad(t)

	if cfg.Port != "9090" {
		t.Errorf("Port = %q, want 9090", cfg.Port)
	}
	if cfg.Environment != "staging" {
		t.Errorf("Environment = %q, want staging", cfg.Environment)
	}
	if cfg.APIKey != "from-file" {
		t.Errorf("APIKey = %q, want from-file", cfg.APIKey)
	}
	if cfg.OpenAIModel != "gpt-4o" {
		t.Errorf("OpenAIModel = %q, environment should override the file", cfg.OpenAIModel)
	}
	if cfg.MaxTokens != 512 {
		t.Errorf("MaxTokens = %d, want 512", cfg.MaxTokens)
	}
	if cfg.Temperature != 0 {
		t.Errorf("Temperature = %v, want 0", cfg.Temperature)
	}
	if cfg.MaxBodyBytes != 100<<10 {
		t.Errorf("MaxBodyBytes = %d, unset file field should keep the default", cfg.MaxBodyBytes)
	}
}

func TestLoad_ConfigFileErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"malformed yaml", "port: [unclosed"},
		{"temperature out of range", "openai:\n  temperature: 3\n"},
		{"negative max tokens", "openai:\n  max_tokens: -1\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv("CONFIG_FILE", writeConfigFile(t, tt.content))

			if _, err := Load(); err == nil {
				t.Error("Load() error = nil, want an error")
			}
		})
	}

	t.Run("missing file", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "absent.yaml"))

		if _, err := Load(); err == nil {
			t.Error("Load() error = nil, want an error")
		}
	})
}
