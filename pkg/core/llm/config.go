package llm

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v2"
)

// Config selects the active provider and model. Loaded from a YAML file so
// the provider can change without a rebuild.
type Config struct {
	ActiveProvider string  `yaml:"active_provider"` // "gemini" or "deepseek"
	Model          string  `yaml:"model"`           // provider-specific model name
	Temperature    float64 `yaml:"temperature"`
}

// DefaultConfig is used when no config file is present.
func DefaultConfig() *Config {
	return &Config{ActiveProvider: "gemini", Temperature: 0.2}
}

// LoadConfig reads a YAML provider config. A missing file is not an error;
// the defaults apply.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return nil, fmt.Errorf("failed to read provider config: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse provider config: %w", err)
	}
	return cfg, nil
}
