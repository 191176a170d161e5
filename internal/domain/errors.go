package domain

import (
	"errors"
	"fmt"
)

// Error types for domain-specific errors
type ErrorType string

const (
	ErrorTypeValidation ErrorType = "validation"
	ErrorTypeRender     ErrorType = "render"
	ErrorTypeConfig     ErrorType = "config"
	ErrorTypeIO         ErrorType = "io"
	ErrorTypeCancelled  ErrorType = "cancelled"
)

// DomainError represents a domain-specific error with context
type DomainError struct {
	Type    ErrorType
	Message string
	Err     error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Type, e.Message)
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewError creates a new domain error
func NewError(errType ErrorType, message string, err error) *DomainError {
	return &DomainError{
		Type:    errType,
		Message: message,
		Err:     err,
	}
}

// Common error constructors
func ValidationError(message string, err error) *DomainError {
	return NewError(ErrorTypeValidation, message, err)
}

// RenderError marks a deck-fatal conversion failure. The core never retries it.
func RenderError(message string, err error) *DomainError {
	return NewError(ErrorTypeRender, message, err)
}

func ConfigError(message string, err error) *DomainError {
	return NewError(ErrorTypeConfig, message, err)
}

func IOError(message string, err error) *DomainError {
	return NewError(ErrorTypeIO, message, err)
}

// IsType reports whether err wraps a DomainError of the given type.
func IsType(err error, errType ErrorType) bool {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Type == errType
	}
	return false
}

func IsRenderError(err error) bool { return IsType(err, ErrorTypeRender) }

func IsConfigError(err error) bool { return IsType(err, ErrorTypeConfig) }

// ErrorKind classifies a provider failure independently of the provider SDK.
type ErrorKind string

const (
	KindAuth           ErrorKind = "AUTH"
	KindRateLimited    ErrorKind = "RATE_LIMITED"
	KindInvalidInput   ErrorKind = "INVALID_INPUT"
	KindTransient      ErrorKind = "TRANSIENT"
	KindContentBlocked ErrorKind = "CONTENT_BLOCKED"
	KindUnknown        ErrorKind = "UNKNOWN"
)

// Retryable reports the default retry policy for the kind.
func (k ErrorKind) Retryable() bool {
	return k == KindRateLimited || k == KindTransient
}

// ProviderError is the normalized failure of a single model invocation.
type ProviderError struct {
	Kind       ErrorKind
	Retryable  bool
	Message    string
	StatusCode int
	Err        error
}

func (e *ProviderError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s (HTTP %d): %s", e.Kind, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// NewProviderError builds a ProviderError whose retryability follows the kind.
func NewProviderError(kind ErrorKind, message string, err error) *ProviderError {
	return &ProviderError{
		Kind:      kind,
		Retryable: kind.Retryable(),
		Message:   message,
		Err:       err,
	}
}

// AsProviderError extracts a ProviderError from err. Anything else becomes UNKNOWN.
func AsProviderError(err error) *ProviderError {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe
	}
	return NewProviderError(KindUnknown, err.Error(), err)
}
