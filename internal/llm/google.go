package llm

import (
	"context"
	"strings"

	"cloud.google.com/go/auth/credentials"
	"google.golang.org/genai"

	"github.com/BikS2013/ppt2desc/internal/domain"
)

const cloudPlatformScope = "https://www.googleapis.com/auth/cloud-platform"

// GoogleClient serves both the Gemini API and Vertex AI through the genai SDK.
type GoogleClient struct {
	client   *genai.Client
	model    string
	provider Provider
	config   *genai.GenerateContentConfig
}

// NewGeminiClient creates a client for the Gemini API using an API key.
func NewGeminiClient(ctx context.Context, opts Options) (*GoogleClient, error) {
	cc := &genai.ClientConfig{
		APIKey:  opts.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if opts.BaseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: opts.BaseURL}
	}
	if opts.HTTPClient != nil {
		cc.HTTPClient = opts.HTTPClient
	}
	return newGoogleClient(ctx, cc, opts, ProviderGemini)
}

// NewVertexClient creates a Vertex AI client authenticated with a service
// account credentials file.
func NewVertexClient(ctx context.Context, opts Options) (*GoogleClient, error) {
	creds, err := credentials.DetectDefault(&credentials.DetectOptions{
		Scopes:          []string{cloudPlatformScope},
		CredentialsFile: opts.CredentialsFile,
	})
	if err != nil {
		return nil, domain.ConfigError("load Vertex AI credentials", err)
	}

	cc := &genai.ClientConfig{
		Backend:     genai.BackendVertexAI,
		Project:     opts.ProjectID,
		Location:    opts.Region,
		Credentials: creds,
	}
	if opts.HTTPClient != nil {
		cc.HTTPClient = opts.HTTPClient
	}
	return newGoogleClient(ctx, cc, opts, ProviderVertex)
}

func newGoogleClient(ctx context.Context, cc *genai.ClientConfig, opts Options, provider Provider) (*GoogleClient, error) {
	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, domain.ConfigError("create genai client", err)
	}

	gc := &genai.GenerateContentConfig{}
	if opts.Temperature > 0 {
		temp := float32(opts.Temperature)
		gc.Temperature = &temp
	}
	if opts.MaxTokens > 0 {
		gc.MaxOutputTokens = int32(opts.MaxTokens)
	}

	return &GoogleClient{
		client:   client,
		model:    opts.Model,
		provider: provider,
		config:   gc,
	}, nil
}

func (g *GoogleClient) Model() string      { return g.model }
func (g *GoogleClient) Provider() Provider { return g.provider }

// Describe sends the instructions and the slide image as one user turn.
func (g *GoogleClient) Describe(ctx context.Context, image []byte, mimeType, instructions string) (string, error) {
	contents := []*genai.Content{{
		Role: "user",
		Parts: []*genai.Part{
			{Text: instructions},
			{InlineData: &genai.Blob{MIMEType: mimeType, Data: image}},
		},
	}}

	resp, err := g.client.Models.GenerateContent(ctx, g.model, contents, g.config)
	if err != nil {
		return "", Classify(err)
	}
	return googleText(resp, g.provider)
}

var blockedFinishReasons = map[genai.FinishReason]bool{
	genai.FinishReasonSafety:            true,
	genai.FinishReasonRecitation:        true,
	genai.FinishReasonBlocklist:         true,
	genai.FinishReasonProhibitedContent: true,
	genai.FinishReasonSPII:              true,
}

// googleText extracts the answer text, reporting safety blocks and empty answers.
func googleText(resp *genai.GenerateContentResponse, provider Provider) (string, error) {
	if resp == nil {
		return "", emptyResponse(provider)
	}
	if pf := resp.PromptFeedback; pf != nil && pf.BlockReason != "" && pf.BlockReason != genai.BlockedReasonUnspecified {
		return "", blocked("prompt blocked: %s %s", pf.BlockReason, pf.BlockReasonMessage)
	}
	if len(resp.Candidates) == 0 {
		return "", emptyResponse(provider)
	}

	candidate := resp.Candidates[0]
	if blockedFinishReasons[candidate.FinishReason] {
		return "", blocked("generation stopped: %s", candidate.FinishReason)
	}

	var sb strings.Builder
	if candidate.Content != nil {
		for _, part := range candidate.Content.Parts {
			if part == nil || part.Thought {
				continue
			}
			sb.WriteString(part.Text)
		}
	}

	text := strings.TrimSpace(sb.String())
	if text == "" {
		return "", emptyResponse(provider)
	}
	return text, nil
}
