package domain

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

// SupportedExtensions lists the deck formats the renderer accepts.
var SupportedExtensions = []string{".ppt", ".pptx", ".pdf"}

// IsSupportedDeck reports whether path has a supported deck extension.
func IsSupportedDeck(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range SupportedExtensions {
		if ext == e {
			return true
		}
	}
	return false
}

// SlideImage represents a single rendered slide
type SlideImage struct {
	Deck     string
	Number   int // 1-based
	Data     []byte
	MIMEType string
	Width    int
	Height   int
}

// DescriptionRequest pairs a slide with the resolved instructions
type DescriptionRequest struct {
	Slide        SlideImage
	Instructions string
}

// SlideError is the serializable failure detail of one slide.
type SlideError struct {
	Kind    ErrorKind `json:"kind"`
	Message string    `json:"message"`
}

// DescriptionResult is the outcome for one slide. Exactly one of Content and
// Error is set.
type DescriptionResult struct {
	Number   int         `json:"number"`
	Content  *string     `json:"content"`
	Success  bool        `json:"success"`
	Attempts int         `json:"attempts"`
	Error    *SlideError `json:"error,omitempty"`
}

// SucceededResult builds a successful DescriptionResult.
func SucceededResult(number int, content string, attempts int) DescriptionResult {
	return DescriptionResult{
		Number:   number,
		Content:  &content,
		Success:  true,
		Attempts: attempts,
	}
}

// FailedResult builds a failed DescriptionResult from a provider error.
func FailedResult(number int, perr *ProviderError, attempts int) DescriptionResult {
	return DescriptionResult{
		Number:   number,
		Success:  false,
		Attempts: attempts,
		Error: &SlideError{
			Kind:    perr.Kind,
			Message: perr.Message,
		},
	}
}

// DeckResult holds the ordered slide descriptions of one deck
type DeckResult struct {
	Deck   string              `json:"deck"`
	Model  string              `json:"model"`
	Slides []DescriptionResult `json:"slides"`
}

// Failed counts the slides that carry an error.
func (d *DeckResult) Failed() int {
	n := 0
	for _, s := range d.Slides {
		if !s.Success {
			n++
		}
	}
	return n
}

// Validate checks the ordering and per-slide invariants against the number
// of rendered pages.
func (d *DeckResult) Validate(pages int) error {
	if len(d.Slides) != pages {
		return ValidationError(fmt.Sprintf("deck %s has %d results for %d pages", d.Deck, len(d.Slides), pages), nil)
	}
	for i, s := range d.Slides {
		if s.Number != i+1 {
			return ValidationError(fmt.Sprintf("deck %s: slot %d holds slide %d", d.Deck, i+1, s.Number), nil)
		}
		hasContent := s.Content != nil
		hasError := s.Error != nil
		if hasContent == hasError {
			return ValidationError(fmt.Sprintf("deck %s: slide %d must have exactly one of content or error", d.Deck, s.Number), nil)
		}
		if s.Success != hasContent {
			return ValidationError(fmt.Sprintf("deck %s: slide %d success flag disagrees with content", d.Deck, s.Number), nil)
		}
	}
	return nil
}

// DeckError is the serializable deck-level failure.
type DeckError struct {
	Type    ErrorType `json:"type"`
	Message string    `json:"message"`
}

// NewDeckError converts err into a DeckError, keeping the domain type when present.
func NewDeckError(err error) *DeckError {
	errType := ErrorTypeRender
	var de *DomainError
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		errType = ErrorTypeCancelled
	case errors.As(err, &de):
		errType = de.Type
	}
	return &DeckError{Type: errType, Message: err.Error()}
}

// DeckEntry is one file of a batch: either a result or a deck-level error.
type DeckEntry struct {
	File     string        `json:"file"`
	Result   *DeckResult   `json:"result,omitempty"`
	Error    *DeckError    `json:"error,omitempty"`
	Duration time.Duration `json:"duration_ns"`
}

// OK reports whether the deck produced a result.
func (e DeckEntry) OK() bool {
	return e.Error == nil && e.Result != nil
}

// BatchReport aggregates every deck of a run
type BatchReport struct {
	RunID     string      `json:"run_id"`
	Model     string      `json:"model"`
	Entries   []DeckEntry `json:"entries"`
	Succeeded int         `json:"succeeded"`
	Failed    int         `json:"failed"`
}

// Tally recomputes the aggregate counters from the entries.
func (r *BatchReport) Tally() {
	r.Succeeded, r.Failed = 0, 0
	for _, e := range r.Entries {
		if e.OK() {
			r.Succeeded++
		} else {
			r.Failed++
		}
	}
}

// EventType represents the type of stream event
type EventType string

const (
	EventDeckStart      EventType = "deck_start"
	EventRenderComplete EventType = "render_complete"
	EventSlideComplete  EventType = "slide_complete"
	EventDeckComplete   EventType = "deck_complete"
	EventError          EventType = "error"
)

// StreamEvent represents a progress event emitted during processing
type StreamEvent struct {
	Type        EventType   `json:"type"`
	Deck        string      `json:"deck"`
	SlideNumber int         `json:"slide_number,omitempty"`
	Payload     interface{} `json:"payload,omitempty"`
	Timestamp   time.Time   `json:"timestamp"`
}
