package ui

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/BikS2013/ppt2desc/internal/domain"
)

func TestFormatDuration(t *testing.T) {
	assert.Equal(t, "250ms", FormatDuration(250*time.Millisecond))
	assert.Equal(t, "42s", FormatDuration(42*time.Second))
	assert.Equal(t, "2m 5s", FormatDuration(125*time.Second))
}

func TestSummaryRows(t *testing.T) {
	report := &domain.BatchReport{Entries: []domain.DeckEntry{
		{File: "/in/a.pptx", Duration: 2 * time.Second, Result: &domain.DeckResult{Slides: []domain.DescriptionResult{
			domain.SucceededResult(1, "x", 1),
		}}},
		{File: "/in/b.pptx", Duration: time.Second, Result: &domain.DeckResult{Slides: []domain.DescriptionResult{
			domain.SucceededResult(1, "x", 1),
			domain.FailedResult(2, domain.NewProviderError(domain.KindAuth, "denied", nil), 1),
		}}},
		{File: "/in/c.ppt", Error: &domain.DeckError{Type: domain.ErrorTypeRender, Message: "corrupt"}},
	}}

	assert.Equal(t, [][]string{
		{"a.pptx", "ok", "1", "0", "2s"},
		{"b.pptx", "partial", "2", "1", "1s"},
		{"c.ppt", "render", "-", "-", "0s"},
	}, SummaryRows(report))
}

func TestTracker_DisabledIgnoresEvents(t *testing.T) {
	tr := NewTracker(1, false)
	tr.Handle(domain.StreamEvent{Type: domain.EventRenderComplete, Payload: 3})
	tr.Finish()
	assert.Nil(t, tr.bar)
	assert.Nil(t, tr.spinner)
}
