// Package config provides configuration loading for ppt2desc.
// Supports YAML files, environment variables, and programmatic overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/BikS2013/ppt2desc/internal/domain"
)

// Provider names accepted by model.provider.
const (
	ProviderGemini     = "gemini"
	ProviderVertex     = "vertex"
	ProviderOpenAI     = "openai"
	ProviderAnthropic  = "anthropic"
	ProviderOpenRouter = "openrouter"
)

// Rate limit policies.
const (
	PolicyTokenBucket   = "token_bucket"
	PolicySlidingWindow = "sliding_window"
)

// Config holds all configuration for a ppt2desc run.
type Config struct {
	Model         ModelConfig         `yaml:"model"`
	Prompt        PromptConfig        `yaml:"prompt"`
	RateLimit     RateLimitConfig     `yaml:"rate_limit"`
	Retry         RetryConfig         `yaml:"retry"`
	Pipeline      PipelineConfig      `yaml:"pipeline"`
	Render        RenderConfig        `yaml:"render"`
	Output        OutputConfig        `yaml:"output"`
	Observability ObservabilityConfig `yaml:"observability"`
}

// ModelConfig selects the provider and model and carries its credentials.
type ModelConfig struct {
	Provider        string  `yaml:"provider"`
	Name            string  `yaml:"name"`
	APIKey          string  `yaml:"api_key"`
	BaseURL         string  `yaml:"base_url"`
	ProjectID       string  `yaml:"project_id"`
	Region          string  `yaml:"region"`
	CredentialsFile string  `yaml:"credentials_file"`
	MaxTokens       int     `yaml:"max_tokens"`
	Temperature     float64 `yaml:"temperature"`
}

// PromptConfig holds the base prompt and the user supplement.
type PromptConfig struct {
	Base         string `yaml:"base"`
	Instructions string `yaml:"instructions"`
}

// RateLimitConfig bounds model invocations per trailing window.
type RateLimitConfig struct {
	RequestsPerWindow int           `yaml:"requests_per_window"`
	Window            time.Duration `yaml:"window"`
	Policy            string        `yaml:"policy"`
}

// RetryConfig holds the per-slide retry policy.
type RetryConfig struct {
	MaxAttempts         int           `yaml:"max_attempts"`
	BaseDelay           time.Duration `yaml:"base_delay"`
	MaxDelay            time.Duration `yaml:"max_delay"`
	Jitter              float64       `yaml:"jitter"`
	RequestTimeout      time.Duration `yaml:"request_timeout"`
	CountFailedAttempts bool          `yaml:"count_failed_attempts"`
}

// PipelineConfig holds fan-out settings.
type PipelineConfig struct {
	Concurrency     int  `yaml:"concurrency"`
	DeckConcurrency int  `yaml:"deck_concurrency"`
	Recursive       bool `yaml:"recursive"`
}

// RenderConfig holds renderer settings.
type RenderConfig struct {
	LibreOfficePath string        `yaml:"libreoffice_path"`
	DPI             float64       `yaml:"dpi"`
	MaxEdge         int           `yaml:"max_edge"`
	Format          string        `yaml:"format"` // jpeg or png
	Quality         int           `yaml:"quality"`
	Timeout         time.Duration `yaml:"timeout"`
}

// OutputConfig holds result file settings.
type OutputConfig struct {
	Dir     string `yaml:"dir"`
	Summary bool   `yaml:"summary"`
}

// ObservabilityConfig holds logging settings.
type ObservabilityConfig struct {
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`
}

// Load reads configuration from a YAML file, applies environment overrides
// and validates the result.
func Load(path string) (*Config, error) {
	cfg, err := Read(path)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Read is Load without validation, for callers that apply further overrides
// such as command line flags before calling Validate.
func Read(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, domain.ConfigError("read config file", err)
		}

		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, domain.ConfigError("parse config file", err)
		}
		cfg.Model.CredentialsFile = ResolveRelativePath(path, cfg.Model.CredentialsFile)
	}

	applyEnvOverrides(cfg)

	return cfg, nil
}

// DefaultConfig returns a configuration with the documented defaults.
func DefaultConfig() *Config {
	return &Config{
		Model: ModelConfig{
			Provider:    ProviderGemini,
			Name:        DefaultModel(ProviderGemini),
			MaxTokens:   2048,
			Temperature: 0.2,
		},
		RateLimit: RateLimitConfig{
			RequestsPerWindow: 60,
			Window:            time.Minute,
			Policy:            PolicyTokenBucket,
		},
		Retry: RetryConfig{
			MaxAttempts:         3,
			BaseDelay:           time.Second,
			MaxDelay:            30 * time.Second,
			Jitter:              0.5,
			RequestTimeout:      120 * time.Second,
			CountFailedAttempts: true,
		},
		Pipeline: PipelineConfig{
			Concurrency:     4,
			DeckConcurrency: 1,
		},
		Render: RenderConfig{
			DPI:     150,
			MaxEdge: 2048,
			Format:  "jpeg",
			Quality: 85,
			Timeout: 5 * time.Minute,
		},
		Output: OutputConfig{
			Summary: true,
		},
		Observability: ObservabilityConfig{
			LogLevel:  "info",
			LogFormat: "console",
		},
	}
}

// DefaultModel returns the model used when none is configured for provider.
func DefaultModel(provider string) string {
	switch provider {
	case ProviderGemini, ProviderVertex:
		return "gemini-2.5-flash"
	case ProviderOpenAI:
		return "gpt-4o-mini"
	case ProviderAnthropic:
		return "claude-sonnet-4-5"
	case ProviderOpenRouter:
		return "google/gemini-2.5-flash"
	default:
		return ""
	}
}

// Validate checks the configuration for errors. Failures are domain config errors.
func (c *Config) Validate() error {
	switch c.Model.Provider {
	case ProviderGemini, ProviderVertex, ProviderOpenAI, ProviderAnthropic, ProviderOpenRouter:
	default:
		return domain.ConfigError(fmt.Sprintf("invalid provider: %q", c.Model.Provider), nil)
	}

	if strings.TrimSpace(c.Model.Name) == "" {
		return domain.ConfigError("model name is required", nil)
	}

	if c.RateLimit.RequestsPerWindow > 0 && c.RateLimit.Window <= 0 {
		return domain.ConfigError("rate_limit.window must be positive", nil)
	}

	if c.RateLimit.Policy != PolicyTokenBucket && c.RateLimit.Policy != PolicySlidingWindow {
		return domain.ConfigError(fmt.Sprintf("invalid rate limit policy: %q", c.RateLimit.Policy), nil)
	}

	if !c.Retry.CountFailedAttempts && c.RateLimit.Policy != PolicySlidingWindow {
		return domain.ConfigError("retry.count_failed_attempts=false requires the sliding_window rate limit policy", nil)
	}

	if c.Retry.MaxAttempts < 1 {
		return domain.ConfigError("retry.max_attempts must be at least 1", nil)
	}

	if c.Retry.BaseDelay < 0 || c.Retry.MaxDelay < c.Retry.BaseDelay {
		return domain.ConfigError("retry delays must satisfy 0 <= base_delay <= max_delay", nil)
	}

	if c.Retry.Jitter < 0 || c.Retry.Jitter > 1 {
		return domain.ConfigError("retry.jitter must be between 0 and 1", nil)
	}

	if c.Retry.RequestTimeout <= 0 {
		return domain.ConfigError("retry.request_timeout must be positive", nil)
	}

	if c.Pipeline.Concurrency < 1 {
		return domain.ConfigError("pipeline.concurrency must be at least 1", nil)
	}

	if c.Pipeline.DeckConcurrency < 1 {
		return domain.ConfigError("pipeline.deck_concurrency must be at least 1", nil)
	}

	if c.Render.Format != "jpeg" && c.Render.Format != "png" {
		return domain.ConfigError(fmt.Sprintf("invalid render format: %q", c.Render.Format), nil)
	}

	if c.Render.Quality < 1 || c.Render.Quality > 100 {
		return domain.ConfigError("render.quality must be between 1 and 100", nil)
	}

	if c.Render.DPI <= 0 {
		return domain.ConfigError("render.dpi must be positive", nil)
	}

	if c.Render.MaxEdge < 0 {
		return domain.ConfigError("render.max_edge must not be negative", nil)
	}

	if c.Render.LibreOfficePath != "" {
		if _, err := os.Stat(c.Render.LibreOfficePath); err != nil {
			return domain.ConfigError(fmt.Sprintf("libreoffice not found at %s", c.Render.LibreOfficePath), err)
		}
	}

	return nil
}

// ValidateCredentials checks that the selected provider has what it needs to
// authenticate. It is separate from Validate so that commands which never call
// a model can run without keys.
func (c *Config) ValidateCredentials() error {
	m := c.Model
	switch m.Provider {
	case ProviderVertex:
		if m.CredentialsFile == "" {
			return domain.ConfigError("credentials file must be set via model.credentials_file or GOOGLE_APPLICATION_CREDENTIALS", nil)
		}
		if info, err := os.Stat(m.CredentialsFile); err != nil || info.IsDir() {
			return domain.ConfigError(fmt.Sprintf("credentials file not found at %s", m.CredentialsFile), err)
		}
		if m.ProjectID == "" {
			return domain.ConfigError("project ID must be set via model.project_id or PROJECT_ID", nil)
		}
		if m.Region == "" {
			return domain.ConfigError("region must be set via model.region or REGION", nil)
		}
	default:
		if m.APIKey == "" {
			return domain.ConfigError(fmt.Sprintf("API key must be set via model.api_key or %s", APIKeyEnv(m.Provider)), nil)
		}
	}
	return nil
}

// APIKeyEnv returns the environment variable holding the provider's API key.
func APIKeyEnv(provider string) string {
	switch provider {
	case ProviderGemini:
		return "GEMINI_API_KEY"
	case ProviderOpenAI:
		return "OPENAI_API_KEY"
	case ProviderAnthropic:
		return "ANTHROPIC_API_KEY"
	case ProviderOpenRouter:
		return "OPENROUTER_API_KEY"
	default:
		return ""
	}
}

// SetProvider switches the provider. A model name still at the old
// provider's default follows the switch, and so does an API key that came
// from the old provider's environment variable.
func (c *Config) SetProvider(provider string) {
	if c.Model.Name == DefaultModel(c.Model.Provider) {
		c.Model.Name = DefaultModel(provider)
	}
	if env := APIKeyEnv(c.Model.Provider); env != "" && c.Model.APIKey == os.Getenv(env) {
		c.Model.APIKey = ""
	}
	c.Model.Provider = provider
	if c.Model.APIKey == "" {
		if env := APIKeyEnv(provider); env != "" {
			c.Model.APIKey = os.Getenv(env)
		}
	}
}

// applyEnvOverrides applies environment variable overrides to config.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("PPT2DESC_PROVIDER"); v != "" {
		cfg.SetProvider(v)
	}

	if v := os.Getenv("PPT2DESC_MODEL"); v != "" {
		cfg.Model.Name = v
	}

	if cfg.Model.APIKey == "" {
		if env := APIKeyEnv(cfg.Model.Provider); env != "" {
			cfg.Model.APIKey = os.Getenv(env)
		}
	}

	if v := os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"); v != "" && cfg.Model.CredentialsFile == "" {
		cfg.Model.CredentialsFile = v
	}

	if v := os.Getenv("PROJECT_ID"); v != "" && cfg.Model.ProjectID == "" {
		cfg.Model.ProjectID = v
	}

	if v := os.Getenv("REGION"); v != "" && cfg.Model.Region == "" {
		cfg.Model.Region = v
	}

	if v := os.Getenv("PPT2DESC_RATE_LIMIT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.RateLimit.RequestsPerWindow = n
		}
	}

	if v := os.Getenv("LIBREOFFICE_PATH"); v != "" && cfg.Render.LibreOfficePath == "" {
		cfg.Render.LibreOfficePath = v
	}

	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Observability.LogLevel = v
	}

	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Observability.LogFormat = v
	}
}

// ResolveRelativePath resolves a path relative to the config file location.
func ResolveRelativePath(configPath, targetPath string) string {
	if targetPath == "" || filepath.IsAbs(targetPath) {
		return targetPath
	}
	return filepath.Join(filepath.Dir(configPath), targetPath)
}
