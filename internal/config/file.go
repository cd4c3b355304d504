package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// fileConfig is the optional YAML layer named by CONFIG_FILE:
//
//	port: "8080"
//	environment: production
//	api_key: change-me
//	max_body_bytes: 65536
//	openai:
//	  api_key: sk-...
//	  model: gpt-4o-mini
//	  base_url: http://localhost:11434/v1
//	  max_tokens: 512
//	  temperature: 0.2
type fileConfig struct {
	Port         string `yaml:"port"`
	Environment  string `yaml:"environment"`
	APIKey       string `yaml:"api_key"`
	MaxBodyBytes int64  `yaml:"max_body_bytes"`

	OpenAI struct {
		APIKey      string   `yaml:"api_key"`
		Model       string   `yaml:"model"`
		BaseURL     string   `yaml:"base_url"`
		MaxTokens   int      `yaml:"max_tokens"`
		Temperature *float64 `yaml:"temperature"`
	} `yaml:"openai"`
}

func loadFile(path string) (fileConfig, error) {
	var fc fileConfig

	data, err := os.ReadFile(path)
	if err != nil {
		return fc, fmt.Errorf("failed to read configuration file %q: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fc, fmt.Errorf("failed to parse configuration file %q: %w", path, err)
	}
	if err := fc.validate(); err != nil {
		return fc, fmt.Errorf("invalid configuration file %q: %w", path, err)
	}
	return fc, nil
}

func (fc fileConfig) validate() error {
	if fc.OpenAI.MaxTokens < 0 {
		return fmt.Errorf("openai.max_tokens must be positive, got %d", fc.OpenAI.MaxTokens)
	}
	if t := fc.OpenAI.Temperature; t != nil && (*t < 0 || *t > 2) {
		return fmt.Errorf("openai.temperature must be within [0, 2], got %v", *t)
	}
	if fc.MaxBodyBytes < 0 {
		return fmt.Errorf("max_body_bytes must be positive, got %d", fc.MaxBodyBytes)
	}
	return nil
}

// applyTo overlays every field set in the file onto base
func (fc fileConfig) applyTo(base ServiceConfig) ServiceConfig {
	if fc.Port != "" {
		base.Port = fc.Port
	}
	if fc.Environment != "" {
		base.Environment = fc.Environment
	}
	if fc.APIKey != "" {
		base.APIKey = fc.APIKey
	}
	if fc.MaxBodyBytes > 0 {
		base.MaxBodyBytes = fc.MaxBodyBytes
	}
	if fc.OpenAI.APIKey != "" {
		base.OpenAIAPIKey = fc.OpenAI.APIKey
	}
	if fc.OpenAI.Model != "" {
		base.OpenAIModel = fc.OpenAI.Model
	}
	if fc.OpenAI.BaseURL != "" {
		base.OpenAIBaseURL = fc.OpenAI.BaseURL
	}
	if fc.OpenAI.MaxTokens > 0 {
		base.MaxTokens = fc.OpenAI.MaxTokens
	}
	if fc.OpenAI.Temperature != nil {
		base.Temperature = *fc.OpenAI.Temperature
	}
	return base
}
