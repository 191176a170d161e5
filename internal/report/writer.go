// Package report persists deck results and batch summaries as JSON files.
package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/BikS2013/ppt2desc/internal/domain"
)

// SummaryFile is the batch summary name inside the output directory.
const SummaryFile = "_summary.json"

// Writer writes one JSON file per deck plus a batch summary
type Writer struct {
	dir string

	mu   sync.Mutex
	used map[string]bool
}

// NewWriter creates the output directory if needed.
func NewWriter(dir string) (*Writer, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, domain.ConfigError("output directory cannot be empty", nil)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, domain.IOError(fmt.Sprintf("cannot create output directory %s", dir), err)
	}
	return &Writer{
		dir:  dir,
		used: map[string]bool{strings.TrimSuffix(SummaryFile, ".json"): true},
	}, nil
}

// Dir returns the output directory.
func (w *Writer) Dir() string { return w.dir }

// WriteDeck writes <dir>/<deck stem>.json and returns its path. Decks sharing
// a stem get a numeric suffix.
func (w *Writer) WriteDeck(res *domain.DeckResult) (string, error) {
	stem := strings.TrimSuffix(filepath.Base(res.Deck), filepath.Ext(res.Deck))
	path := filepath.Join(w.dir, w.reserve(stem)+".json")
	if err := writeJSON(path, res); err != nil {
		return "", err
	}
	return path, nil
}

func (w *Writer) reserve(stem string) string {
	w.mu.Lock()
	defer w.mu.Unlock()

	name := stem
	for i := 2; w.used[name]; i++ {
		name = fmt.Sprintf("%s-%d", stem, i)
	}
	w.used[name] = true
	return name
}

// DeckSummary is the per-deck line of the batch summary.
type DeckSummary struct {
	File         string            `json:"file"`
	Success      bool              `json:"success"`
	Slides       int               `json:"slides"`
	FailedSlides int               `json:"failed_slides"`
	Duration     string            `json:"duration"`
	Error        *domain.DeckError `json:"error,omitempty"`
}

// Summary is the content of the batch summary file.
type Summary struct {
	RunID       string        `json:"run_id"`
	Model       string        `json:"model"`
	GeneratedAt time.Time     `json:"generated_at"`
	Succeeded   int           `json:"succeeded"`
	Failed      int           `json:"failed"`
	Decks       []DeckSummary `json:"decks"`
}

// Summarize condenses a batch report.
func Summarize(report *domain.BatchReport) Summary {
	s := Summary{
		RunID:       report.RunID,
		Model:       report.Model,
		GeneratedAt: time.Now().UTC(),
		Succeeded:   report.Succeeded,
		Failed:      report.Failed,
		Decks:       make([]DeckSummary, 0, len(report.Entries)),
	}
	for _, e := range report.Entries {
		d := DeckSummary{
			File:     e.File,
			Success:  e.OK(),
			Duration: e.Duration.Round(time.Millisecond).String(),
			Error:    e.Error,
		}
		if e.Result != nil {
			d.Slides = len(e.Result.Slides)
			d.FailedSlides = e.Result.Failed()
		}
		s.Decks = append(s.Decks, d)
	}
	return s
}

// WriteSummary writes the batch summary and returns its path.
func (w *Writer) WriteSummary(report *domain.BatchReport) (string, error) {
	path := filepath.Join(w.dir, SummaryFile)
	if err := writeJSON(path, Summarize(report)); err != nil {
		return "", err
	}
	return path, nil
}

// writeJSON replaces path atomically through a temp file.
func writeJSON(path string, v interface{}) error {
	payload, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return domain.IOError("failed to encode JSON", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, payload, 0o644); err != nil {
		return domain.IOError(fmt.Sprintf("failed to write %s", path), err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return domain.IOError(fmt.Sprintf("failed to write %s", path), err)
	}
	return nil
}
