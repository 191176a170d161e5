package llm

import (
	"context"
	"fmt"
	"net/http"

	"github.com/BikS2013/ppt2desc/internal/config"
	"github.com/BikS2013/ppt2desc/internal/domain"
)

// Provider identifies a model backend.
type Provider string

const (
	ProviderGemini     Provider = config.ProviderGemini
	ProviderVertex     Provider = config.ProviderVertex
	ProviderOpenAI     Provider = config.ProviderOpenAI
	ProviderAnthropic  Provider = config.ProviderAnthropic
	ProviderOpenRouter Provider = config.ProviderOpenRouter
)

// Client describes slide images with one provider. Every Describe call issues
// exactly one outbound request and fails with *domain.ProviderError.
type Client interface {
	domain.ModelClient
	Provider() Provider
}

// Options carries what a provider client needs to authenticate and call a model.
type Options struct {
	Model           string
	APIKey          string
	BaseURL         string
	ProjectID       string
	Region          string
	CredentialsFile string
	MaxTokens       int
	Temperature     float64
	HTTPClient      *http.Client
}

// OptionsFromConfig maps the model section of the configuration to Options.
func OptionsFromConfig(mc config.ModelConfig) Options {
	return Options{
		Model:           mc.Name,
		APIKey:          mc.APIKey,
		BaseURL:         mc.BaseURL,
		ProjectID:       mc.ProjectID,
		Region:          mc.Region,
		CredentialsFile: mc.CredentialsFile,
		MaxTokens:       mc.MaxTokens,
		Temperature:     mc.Temperature,
	}
}

// New builds the client for the configured provider. Missing credentials are
// reported as a config error before any request is made.
func New(ctx context.Context, cfg *config.Config) (Client, error) {
	if err := cfg.ValidateCredentials(); err != nil {
		return nil, err
	}

	opts := OptionsFromConfig(cfg.Model)
	switch Provider(cfg.Model.Provider) {
	case ProviderGemini:
		return NewGeminiClient(ctx, opts)
	case ProviderVertex:
		return NewVertexClient(ctx, opts)
	case ProviderOpenAI:
		return NewOpenAIClient(opts), nil
	case ProviderAnthropic:
		return NewAnthropicClient(opts), nil
	case ProviderOpenRouter:
		return NewOpenRouterClient(opts), nil
	default:
		return nil, domain.ConfigError(fmt.Sprintf("unsupported provider %q", cfg.Model.Provider), nil)
	}
}
