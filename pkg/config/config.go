// Package config provides configuration loading and validation for the engine.
//
// Configuration is a YAML file describing the model, agent loop limits,
// planner retry policy, circuit breaker thresholds, and retry profiles.
// State (job progress, sessions, dead letters) never lives here; it belongs
// to the persistence layer.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"jobpilot/pkg/resilience/circuit"
	"jobpilot/pkg/resilience/retry"
)

// Model provider constants.
const (
	ProviderAnthropic = "anthropic"
	ProviderOpenAI    = "openai"
)

// Default agent loop limits.
const (
	DefaultMaxIterations   = 10
	DefaultApprovalTimeout = 60 * time.Second
	DefaultMaxTokens       = 4096
)

// Default planner retry policy.
const (
	DefaultPlannerMaxRetries = 3
)

// Model describes the language model the runtime should use.
type Model struct {
	Provider    string  `yaml:"provider"`    // "anthropic" or "openai"
	Name        string  `yaml:"name"`        // Provider model identifier
	APIKeyEnv   string  `yaml:"api_key_env"` // Environment variable holding the API key
	MaxTokens   int     `yaml:"max_tokens"`
	Temperature float32 `yaml:"temperature"`
}

// Agent configures the runtime loop.
type Agent struct {
	MaxIterations   int           `yaml:"max_iterations"`
	ApprovalTimeout time.Duration `yaml:"approval_timeout"`
	SystemPrompt    string        `yaml:"system_prompt,omitempty"`
}

// Planner configures failure handling in the workflow planner.
type Planner struct {
	MaxRetries      int  `yaml:"max_retries"`
	EnableAutoRetry bool `yaml:"enable_auto_retry"`
}

// Config is the root engine configuration.
type Config struct {
	Model         Model                   `yaml:"model"`
	Agent         Agent                   `yaml:"agent"`
	Planner       Planner                 `yaml:"planner"`
	Circuit       circuit.Config          `yaml:"circuit"`
	RetryProfiles map[string]retry.Config `yaml:"retry_profiles,omitempty"`
	DatabasePath  string                  `yaml:"database_path,omitempty"` // Empty disables persistence
}

// Default returns a config with sensible values for every section.
func Default() Config {
	return Config{
		Model: Model{
			Provider:    ProviderAnthropic,
			Name:        "claude-sonnet-4-20250514",
			APIKeyEnv:   "ANTHROPIC_API_KEY",
			MaxTokens:   DefaultMaxTokens,
			Temperature: 0.3,
		},
		Agent: Agent{
			MaxIterations:   DefaultMaxIterations,
			ApprovalTimeout: DefaultApprovalTimeout,
		},
		Planner: Planner{
			MaxRetries:      DefaultPlannerMaxRetries,
			EnableAutoRetry: true,
		},
		Circuit: circuit.DefaultConfig,
	}
}

// Load reads a YAML config file, layering it over Default().
func Load(path string) (Config, error) {
	cfg := Default()

	raw, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate rejects configurations the engine cannot run with.
func (c *Config) Validate() error {
	switch c.Model.Provider {
	case ProviderAnthropic, ProviderOpenAI:
	default:
		return fmt.Errorf("unknown model provider %q", c.Model.Provider)
	}
	if c.Model.Name == "" {
		return fmt.Errorf("model name cannot be empty")
	}
	if c.Model.MaxTokens <= 0 {
		return fmt.Errorf("model max_tokens must be positive")
	}
	if c.Model.Temperature < 0.0 || c.Model.Temperature > 2.0 {
		return fmt.Errorf("model temperature must be between 0.0 and 2.0")
	}
	if c.Agent.MaxIterations <= 0 {
		return fmt.Errorf("agent max_iterations must be positive")
	}
	if c.Agent.ApprovalTimeout <= 0 {
		return fmt.Errorf("agent approval_timeout must be positive")
	}
	if c.Planner.MaxRetries < 0 {
		return fmt.Errorf("planner max_retries cannot be negative")
	}
	return nil
}

// APIKey resolves the model API key from the environment.
func (m *Model) APIKey() (string, error) {
	if m.APIKeyEnv == "" {
		return "", fmt.Errorf("api_key_env not configured for provider %s", m.Provider)
	}
	key := os.Getenv(m.APIKeyEnv)
	if key == "" {
		return "", fmt.Errorf("environment variable %s is empty", m.APIKeyEnv)
	}
	return key, nil
}

// BuildProfiles constructs the retry profile registry, applying any
// per-profile overrides from the config file.
func (c *Config) BuildProfiles() *retry.Profiles {
	profiles := retry.NewProfiles()
	for name, rc := range c.RetryProfiles {
		profiles.Set(name, retry.NewPolicy(rc, nil))
	}
	return profiles
}
