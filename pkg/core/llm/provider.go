// Package llm provides the analysis-capability providers used by the
// change scorer. The core defines the request/response shape; the concrete
// provider is a configuration choice.
package llm

import (
	"context"
	"fmt"
)

// Provider is the interface for all LLM providers.
type Provider interface {
	GenerateResponse(ctx context.Context, prompt string, systemPrompt string, options map[string]interface{}) (string, error)
}

// resolveTemperature picks the sampling temperature: a per-call option wins,
// then the configured provider value, then the 0.2 default.
func resolveTemperature(configured float64, options map[string]interface{}) float64 {
	if val, ok := options["temperature"].(float64); ok {
		return val
	}
	if configured != 0 {
		return configured
	}
	return 0.2
}

// NewProvider builds the provider named by cfg.ActiveProvider.
func NewProvider(cfg *Config) (Provider, error) {
	switch cfg.ActiveProvider {
	case "gemini", "":
		return &GeminiProvider{Model: cfg.Model, Temperature: cfg.Temperature}, nil
	case "deepseek":
		return &DeepSeekProvider{Model: cfg.Model, Temperature: cfg.Temperature}, nil
	default:
		return nil, fmt.Errorf("unknown provider %q", cfg.ActiveProvider)
	}
}
