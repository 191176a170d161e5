package ui

import (
	"fmt"
	"os"
	"time"

	"github.com/briandowns/spinner"
	"github.com/schollz/progressbar/v3"

	"github.com/BikS2013/ppt2desc/internal/domain"
)

// ProgressBar wraps a progressbar instance for deterministic progress display.
type ProgressBar struct {
	bar *progressbar.ProgressBar
}

// NewProgressBar creates a new progress bar with the given total and description.
func NewProgressBar(total int64, description string) *ProgressBar {
	bar := progressbar.NewOptions64(
		total,
		progressbar.OptionSetWidth(50),
		progressbar.OptionSetDescription(description),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "█",
			SaucerHead:    "█",
			SaucerPadding: "░",
			BarStart:      "│",
			BarEnd:        "│",
		}),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetItsString("slides"),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprint(os.Stderr, "\n")
		}),
		progressbar.OptionFullWidth(),
		progressbar.OptionSetRenderBlankState(true),
	)

	return &ProgressBar{bar: bar}
}

// Set moves the bar to current.
func (p *ProgressBar) Set(current int64) {
	_ = p.bar.Set64(current)
}

// SetTotal updates the total value of the progress bar.
func (p *ProgressBar) SetTotal(total int64) {
	p.bar.ChangeMax64(total)
}

// Describe replaces the description shown left of the bar.
func (p *ProgressBar) Describe(description string) {
	p.bar.Describe(description)
}

// Finish completes the progress bar.
func (p *ProgressBar) Finish() {
	_ = p.bar.Finish()
}

// Spinner wraps a spinner instance for indeterminate progress display.
type Spinner struct {
	spinner *spinner.Spinner
}

// NewSpinner creates a new spinner with the given message.
func NewSpinner(message string) *Spinner {
	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
	s.Suffix = " " + message
	s.Writer = os.Stderr
	return &Spinner{spinner: s}
}

// Start starts the spinner animation.
func (s *Spinner) Start() {
	s.spinner.Start()
}

// Stop stops the spinner animation and clears the line.
func (s *Spinner) Stop() {
	s.spinner.Stop()
}

// UpdateMessage updates the spinner's message.
func (s *Spinner) UpdateMessage(message string) {
	s.spinner.Suffix = " " + message
}

// Tracker turns pipeline events into terminal progress. A spinner runs
// until the first deck is rendered and the slide total becomes known; a
// slide progress bar takes over from there.
type Tracker struct {
	enabled bool
	decks   int
	started int
	spinner *Spinner
	bar     *ProgressBar
	total   int64
	done    int64
}

// NewTracker creates a tracker for the given number of decks. A disabled
// tracker ignores every event.
func NewTracker(decks int, enabled bool) *Tracker {
	return &Tracker{enabled: enabled, decks: decks}
}

// Handle updates the display for one event. It must be called from a
// single goroutine.
func (t *Tracker) Handle(ev domain.StreamEvent) {
	if !t.enabled {
		return
	}

	switch ev.Type {
	case domain.EventDeckStart:
		t.started++
		msg := fmt.Sprintf("[%d/%d] Rendering %s", t.started, t.decks, ev.Deck)
		if t.bar != nil {
			t.bar.Describe(msg)
			return
		}
		if t.spinner == nil {
			t.spinner = NewSpinner(msg)
			t.spinner.Start()
			return
		}
		t.spinner.UpdateMessage(msg)

	case domain.EventRenderComplete:
		pages, _ := ev.Payload.(int)
		t.total += int64(pages)
		if t.bar == nil {
			if t.spinner != nil {
				t.spinner.Stop()
				t.spinner = nil
			}
			t.bar = NewProgressBar(t.total, "Describing "+ev.Deck)
			t.bar.Set(t.done)
			return
		}
		t.bar.SetTotal(t.total)
		t.bar.Describe("Describing " + ev.Deck)

	case domain.EventSlideComplete:
		t.done++
		if t.bar != nil {
			t.bar.Set(t.done)
		}
	}
}

// Finish clears any live spinner or bar.
func (t *Tracker) Finish() {
	if t.spinner != nil {
		t.spinner.Stop()
		t.spinner = nil
	}
	if t.bar != nil && t.done >= t.total {
		t.bar.Finish()
	} else if t.bar != nil {
		fmt.Fprintln(os.Stderr)
	}
}
