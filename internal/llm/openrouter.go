package llm

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/BikS2013/ppt2desc/internal/domain"
)

const openRouterURL = "https://openrouter.ai/api/v1/chat/completions"

// OpenRouterClient handles communication with the OpenRouter API
type OpenRouterClient struct {
	apiKey      string
	model       string
	endpoint    string
	maxTokens   int
	temperature float64
	httpClient  *http.Client
}

// Message represents a chat message
type Message struct {
	Role    string        `json:"role"`
	Content []ContentPart `json:"content"`
}

// ContentPart represents a part of message content (text or image)
type ContentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *ImageURL `json:"image_url,omitempty"`
}

// ImageURL represents an image URL in the message
type ImageURL struct {
	URL string `json:"url"`
}

// Request represents the API request structure
type Request struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Stream      bool      `json:"stream"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
	Temperature float64   `json:"temperature,omitempty"`
}

// Response represents the API response structure
type Response struct {
	ID      string         `json:"id"`
	Choices []Choice       `json:"choices"`
	Error   *ResponseError `json:"error,omitempty"`
}

// ResponseError is an error reported inside a 200 response body.
type ResponseError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// Choice represents a single completion choice
type Choice struct {
	Message      ChoiceMessage `json:"message"`
	FinishReason string        `json:"finish_reason"`
}

// ChoiceMessage is the assistant message of a choice
type ChoiceMessage struct {
	Content string `json:"content"`
	Role    string `json:"role"`
	Refusal string `json:"refusal,omitempty"`
}

// NewOpenRouterClient creates a new OpenRouter client
func NewOpenRouterClient(opts Options) *OpenRouterClient {
	endpoint := openRouterURL
	if opts.BaseURL != "" {
		endpoint = strings.TrimRight(opts.BaseURL, "/") + "/chat/completions"
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}

	return &OpenRouterClient{
		apiKey:      opts.APIKey,
		model:       opts.Model,
		endpoint:    endpoint,
		maxTokens:   opts.MaxTokens,
		temperature: opts.Temperature,
		httpClient:  httpClient,
	}
}

func (c *OpenRouterClient) Model() string      { return c.model }
func (c *OpenRouterClient) Provider() Provider { return ProviderOpenRouter }

// Describe sends one non-streaming completion request for the image.
func (c *OpenRouterClient) Describe(ctx context.Context, image []byte, mimeType, instructions string) (string, error) {
	body, err := json.Marshal(c.buildRequest(image, mimeType, instructions))
	if err != nil {
		return "", domain.NewProviderError(domain.KindInvalidInput, "marshal request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", domain.NewProviderError(domain.KindInvalidInput, "build request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("HTTP-Referer", "https://github.com/BikS2013/ppt2desc")
	req.Header.Set("X-Title", "ppt2desc")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", Classify(err)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", Classify(err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", Classify(&StatusError{StatusCode: resp.StatusCode, Body: string(bodyBytes)})
	}

	return c.parseResponse(bodyBytes)
}

// buildRequest constructs the API request with the image as a data URL
func (c *OpenRouterClient) buildRequest(image []byte, mimeType, instructions string) *Request {
	imageURL := "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(image)

	msg := Message{
		Role: "user",
		Content: []ContentPart{
			{
				Type: "text",
				Text: instructions,
			},
			{
				Type:     "image_url",
				ImageURL: &ImageURL{URL: imageURL},
			},
		},
	}

	return &Request{
		Model:       c.model,
		Messages:    []Message{msg},
		Stream:      false,
		MaxTokens:   c.maxTokens,
		Temperature: c.temperature,
	}
}

func (c *OpenRouterClient) parseResponse(body []byte) (string, error) {
	var apiResp Response
	if err := json.Unmarshal(body, &apiResp); err != nil {
		return "", domain.NewProviderError(domain.KindUnknown, "parse API response", err)
	}

	// OpenRouter reports some upstream failures inside a 200 body.
	if apiResp.Error != nil {
		return "", Classify(&StatusError{StatusCode: apiResp.Error.Code, Body: apiResp.Error.Message})
	}

	if len(apiResp.Choices) == 0 {
		return "", emptyResponse(ProviderOpenRouter)
	}

	choice := apiResp.Choices[0]
	if choice.FinishReason == "content_filter" {
		return "", blocked("response filtered: content_filter")
	}
	if choice.Message.Refusal != "" {
		return "", blocked("model refused: %s", choice.Message.Refusal)
	}

	text := strings.TrimSpace(choice.Message.Content)
	if text == "" {
		return "", emptyResponse(ProviderOpenRouter)
	}
	return text, nil
}

