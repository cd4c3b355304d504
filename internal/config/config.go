// Package config holds the service configuration, read once from the
// environment at startup and passed by value to every component.
package config

import (
	"log"
	"os"
	"strconv"
)

// EnvDevelopment disables the API key gate
const EnvDevelopment = "development"

const (
	defaultPort         = "3000"
	defaultEnvironment  = EnvDevelopment
	defaultModel        = "gpt-3.5-turbo"
	defaultMaxTokens    = 1000
	defaultTemperature  = 0.7
	defaultMaxBodyBytes = 100 << 10
)

// ServiceConfig is read-only after Load returns
type ServiceConfig struct {
	Port        string // PORT
	Environment string // NODE_ENV

	OpenAIAPIKey  string  // OPENAI_API_KEY
	OpenAIModel   string  // OPENAI_MODEL
	OpenAIBaseURL string  // OPENAI_BASE_URL, empty means the SDK default
	MaxTokens     int     // MAX_TOKENS
	Temperature   float64 // TEMPERATURE

	APIKey       string // API_KEY, shared secret checked against x-api-key
	MaxBodyBytes int64  // MAX_BODY_BYTES
}

// Load reads configuration from environment variables, applying defaults
// for missing or unparsable values. When CONFIG_FILE names a YAML file its
// values replace the built-in defaults; environment variables still win.
func Load() (ServiceConfig, error) {
	base := defaults()
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		fc, err := loadFile(path)
		if err != nil {
			return ServiceConfig{}, err
		}
		base = fc.applyTo(base)
	}

	return ServiceConfig{
		Port:          getEnv("PORT", base.Port),
		Environment:   getEnv("NODE_ENV", base.Environment),
		OpenAIAPIKey:  getEnv("OPENAI_API_KEY", base.OpenAIAPIKey),
		OpenAIModel:   getEnv("OPENAI_MODEL", base.OpenAIModel),
		OpenAIBaseURL: getEnv("OPENAI_BASE_URL", base.OpenAIBaseURL),
		MaxTokens:     getEnvInt("MAX_TOKENS", base.MaxTokens),
		Temperature:   getEnvTemperature("TEMPERATURE", base.Temperature),
		APIKey:        getEnv("API_KEY", base.APIKey),
		MaxBodyBytes:  int64(getEnvInt("MAX_BODY_BYTES", int(base.MaxBodyBytes))),
	}, nil
}

func defaults() ServiceConfig {
	return ServiceConfig{
		Port:         defaultPort,
		Environment:  defaultEnvironment,
		OpenAIModel:  defaultModel,
		MaxTokens:    defaultMaxTokens,
		Temperature:  defaultTemperature,
		MaxBodyBytes: defaultMaxBodyBytes,
	}
}

// IsDevelopment reports whether the service runs in development mode
func (c ServiceConfig) IsDevelopment() bool {
	return c.Environment == EnvDevelopment
}

// Addr is the listen address for the HTTP server
func (c ServiceConfig) Addr() string {
	return ":" + c.Port
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt accepts positive integers only
func getEnvInt(key string, defaultValue int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value <= 0 {
		log.Printf("Warning: invalid %s=%q, using default %d", key, raw, defaultValue)
		return defaultValue
	}
	return value
}

// getEnvTemperature accepts values in the provider's [0, 2] range
func getEnvTemperature(key string, defaultValue float64) float64 {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue
	}
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil || value < 0 || value > 2 {
		log.Printf("Warning: invalid %s=%q, using default %.1f", key, raw, defaultValue)
		return defaultValue
	}
	return value
}
