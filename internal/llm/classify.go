package llm

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/openai/openai-go/v3"
	"google.golang.org/genai"

	"github.com/BikS2013/ppt2desc/internal/domain"
)

// StatusError is a non-2xx response from an HTTP provider without an SDK.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("API returned status %d: %s", e.StatusCode, e.Body)
}

// KindForStatus maps an HTTP status to an error kind. ok is false for statuses
// that carry no classification on their own.
func KindForStatus(code int) (kind domain.ErrorKind, ok bool) {
	switch {
	case code == http.StatusUnauthorized, code == http.StatusForbidden:
		return domain.KindAuth, true
	case code == http.StatusTooManyRequests:
		return domain.KindRateLimited, true
	case code == http.StatusBadRequest,
		code == http.StatusNotFound,
		code == http.StatusRequestEntityTooLarge,
		code == http.StatusUnsupportedMediaType,
		code == http.StatusUnprocessableEntity:
		return domain.KindInvalidInput, true
	case code == http.StatusRequestTimeout, code >= 500 && code <= 599:
		return domain.KindTransient, true
	default:
		return "", false
	}
}

var (
	rateLimitPatterns = []string{"resource_exhausted", "quota", "rate limit", "rate_limit", "too many requests"}
	authPatterns      = []string{"api key", "api_key", "permission", "unauthenticated", "unauthorized"}
)

// Classify normalizes any provider failure into a *domain.ProviderError.
// HTTP status wins, then timeouts and network failures, then message patterns.
func Classify(err error) *domain.ProviderError {
	if err == nil {
		return nil
	}

	var pe *domain.ProviderError
	if errors.As(err, &pe) {
		return pe
	}

	if code := statusCode(err); code != 0 {
		if kind, ok := KindForStatus(code); ok {
			// Gemini rejects bad keys with 400 INVALID_ARGUMENT.
			if kind == domain.KindInvalidInput && isAuthRejection(err) {
				kind = domain.KindAuth
			}
			out := domain.NewProviderError(kind, err.Error(), err)
			out.StatusCode = code
			return out
		}
	}

	if isTransport(err) {
		return domain.NewProviderError(domain.KindTransient, err.Error(), err)
	}

	msg := strings.ToLower(err.Error())
	switch {
	case containsAny(msg, rateLimitPatterns):
		return domain.NewProviderError(domain.KindRateLimited, err.Error(), err)
	case containsAny(msg, authPatterns):
		return domain.NewProviderError(domain.KindAuth, err.Error(), err)
	}

	return domain.NewProviderError(domain.KindUnknown, err.Error(), err)
}

// statusCode extracts the HTTP status from any of the SDK error types.
func statusCode(err error) int {
	var oe *openai.Error
	if errors.As(err, &oe) {
		return oe.StatusCode
	}
	var ae *anthropic.Error
	if errors.As(err, &ae) {
		return ae.StatusCode
	}
	var ge genai.APIError
	if errors.As(err, &ge) {
		return ge.Code
	}
	var gp *genai.APIError
	if errors.As(err, &gp) {
		return gp.Code
	}
	var se *StatusError
	if errors.As(err, &se) {
		return se.StatusCode
	}
	return 0
}

// authReasons are google.rpc.ErrorInfo reasons that mean the credentials were refused.
var authReasons = []string{"API_KEY_INVALID", "API_KEY_EXPIRED", "API_KEY_SERVICE_BLOCKED"}

// isAuthRejection reports whether a 400 response is really a credential failure.
func isAuthRejection(err error) bool {
	if reason := genaiReason(err); reason != "" {
		for _, r := range authReasons {
			if reason == r {
				return true
			}
		}
	}
	return containsAny(strings.ToLower(err.Error()), authPatterns)
}

// genaiReason returns the first ErrorInfo reason of a genai.APIError.
func genaiReason(err error) string {
	var details []map[string]any
	var ge genai.APIError
	var gp *genai.APIError
	switch {
	case errors.As(err, &ge):
		details = ge.Details
	case errors.As(err, &gp):
		details = gp.Details
	}
	for _, d := range details {
		if reason, ok := d["reason"].(string); ok && reason != "" {
			return reason
		}
	}
	return ""
}

func isTransport(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, io.ErrUnexpectedEOF) ||
		errors.Is(err, io.EOF) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne)
}

func containsAny(s string, patterns []string) bool {
	for _, p := range patterns {
		if strings.Contains(s, p) {
			return true
		}
	}
	return false
}

func blocked(format string, args ...interface{}) *domain.ProviderError {
	return domain.NewProviderError(domain.KindContentBlocked, fmt.Sprintf(format, args...), nil)
}

func emptyResponse(provider Provider) *domain.ProviderError {
	return domain.NewProviderError(domain.KindUnknown, fmt.Sprintf("%s returned no text", provider), nil)
}
