package llm

import (
	"context"
	"errors"
	"fmt"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"google.golang.org/genai"

	"github.com/BikS2013/ppt2desc/internal/domain"
)

func TestKindForStatus(t *testing.T) {
	tests := []struct {
		code int
		kind domain.ErrorKind
		ok   bool
	}{
		{401, domain.KindAuth, true},
		{403, domain.KindAuth, true},
		{429, domain.KindRateLimited, true},
		{400, domain.KindInvalidInput, true},
		{404, domain.KindInvalidInput, true},
		{413, domain.KindInvalidInput, true},
		{415, domain.KindInvalidInput, true},
		{422, domain.KindInvalidInput, true},
		{408, domain.KindTransient, true},
		{500, domain.KindTransient, true},
		{503, domain.KindTransient, true},
		{529, domain.KindTransient, true},
		{402, "", false},
		{200, "", false},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprint(tt.code), func(t *testing.T) {
			kind, ok := KindForStatus(tt.code)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.kind, kind)
		})
	}
}

func TestClassify(t *testing.T) {
	existing := domain.NewProviderError(domain.KindContentBlocked, "blocked", nil)

	tests := []struct {
		name string
		err  error
		kind domain.ErrorKind
	}{
		{"provider error passes through", fmt.Errorf("wrap: %w", existing), domain.KindContentBlocked},
		{"status error", &StatusError{StatusCode: 403, Body: "forbidden"}, domain.KindAuth},
		{"genai api error", genai.APIError{Code: 503, Message: "overloaded", Status: "UNAVAILABLE"}, domain.KindTransient},
		{"genai api error pointer", &genai.APIError{Code: 429, Message: "quota", Status: "RESOURCE_EXHAUSTED"}, domain.KindRateLimited},
		{"deadline", fmt.Errorf("call: %w", context.DeadlineExceeded), domain.KindTransient},
		{"network", &net.OpError{Op: "dial", Net: "tcp", Err: errors.New("connection refused")}, domain.KindTransient},
		{"quota message", errors.New("RESOURCE_EXHAUSTED: quota exceeded"), domain.KindRateLimited},
		{"api key message", errors.New("API key not valid. Please pass a valid API key."), domain.KindAuth},
		{"gemini invalid key", genai.APIError{
			Code:    400,
			Status:  "INVALID_ARGUMENT",
			Message: "API key not valid. Please pass a valid API key.",
			Details: []map[string]any{{"@type": "type.googleapis.com/google.rpc.ErrorInfo", "reason": "API_KEY_INVALID"}},
		}, domain.KindAuth},
		{"gemini invalid key reason only", &genai.APIError{
			Code:    400,
			Status:  "INVALID_ARGUMENT",
			Message: "request rejected",
			Details: []map[string]any{{"reason": "API_KEY_INVALID"}},
		}, domain.KindAuth},
		{"gemini bad image stays invalid input", genai.APIError{
			Code:    400,
			Status:  "INVALID_ARGUMENT",
			Message: "Unable to process input image.",
		}, domain.KindInvalidInput},
		{"status error 400 with key message", &StatusError{StatusCode: 400, Body: `{"error":"invalid api key"}`}, domain.KindAuth},
		{"permission message", errors.New("caller does not have permission"), domain.KindAuth},
		{"status without kind falls to message", &StatusError{StatusCode: 402, Body: "insufficient credits"}, domain.KindUnknown},
		{"unknown", errors.New("something odd"), domain.KindUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pe := Classify(tt.err)
			assert.Equal(t, tt.kind, pe.Kind)
			assert.Equal(t, tt.kind.Retryable(), pe.Retryable)
		})
	}

	assert.Nil(t, Classify(nil))
}

func TestClassify_KeepsStatusCode(t *testing.T) {
	pe := Classify(&StatusError{StatusCode: 429, Body: "slow down"})
	assert.Equal(t, 429, pe.StatusCode)
	assert.Contains(t, pe.Error(), "RATE_LIMITED (HTTP 429)")
}

func TestGoogleText(t *testing.T) {
	textResp := func(reason genai.FinishReason, parts ...*genai.Part) *genai.GenerateContentResponse {
		return &genai.GenerateContentResponse{
			Candidates: []*genai.Candidate{{
				Content:      &genai.Content{Role: "model", Parts: parts},
				FinishReason: reason,
			}},
		}
	}

	text, err := googleText(textResp(genai.FinishReasonStop, &genai.Part{Text: "thinking", Thought: true}, &genai.Part{Text: "Slide "}, &genai.Part{Text: "title."}), ProviderGemini)
	assert.NoError(t, err)
	assert.Equal(t, "Slide title.", text)

	_, err = googleText(textResp(genai.FinishReasonSafety), ProviderGemini)
	requireKind(t, err, domain.KindContentBlocked)

	_, err = googleText(textResp(genai.FinishReasonProhibitedContent, &genai.Part{Text: "partial"}), ProviderVertex)
	requireKind(t, err, domain.KindContentBlocked)

	_, err = googleText(&genai.GenerateContentResponse{
		PromptFeedback: &genai.GenerateContentResponsePromptFeedback{BlockReason: genai.BlockedReasonSafety},
	}, ProviderGemini)
	requireKind(t, err, domain.KindContentBlocked)

	_, err = googleText(textResp(genai.FinishReasonStop, &genai.Part{Text: "  "}), ProviderGemini)
	requireKind(t, err, domain.KindUnknown)

	_, err = googleText(&genai.GenerateContentResponse{}, ProviderGemini)
	requireKind(t, err, domain.KindUnknown)

	_, err = googleText(nil, ProviderGemini)
	requireKind(t, err, domain.KindUnknown)
}
