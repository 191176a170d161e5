package extract

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/BikS2013/ppt2desc/internal/domain"
	"github.com/BikS2013/ppt2desc/internal/observability"
)

// DeckProcessor runs the pipeline for one deck file.
type DeckProcessor interface {
	Process(ctx context.Context, path string, eventCh chan<- domain.StreamEvent) (*domain.DeckResult, error)
}

// BatchConfig holds batch level settings
type BatchConfig struct {
	Model           string
	DeckConcurrency int
	Recursive       bool
	// OnDeck is called once per deck as it finishes. Calls are serialized.
	OnDeck func(domain.DeckEntry)
}

// BatchRunner processes every deck under a path and never lets one deck's
// failure stop the others.
type BatchRunner struct {
	decks  DeckProcessor
	cfg    BatchConfig
	logger *observability.Logger
}

// NewBatchRunner creates a batch runner
func NewBatchRunner(decks DeckProcessor, cfg BatchConfig, logger *observability.Logger) *BatchRunner {
	if cfg.DeckConcurrency < 1 {
		cfg.DeckConcurrency = 1
	}
	if logger == nil {
		logger = observability.Nop()
	}
	return &BatchRunner{
		decks:  decks,
		cfg:    cfg,
		logger: logger.WithComponent("batch"),
	}
}

// Discover lists the deck files at path in sorted order. A file must have a
// supported extension; a directory yields its supported files, descending
// into subdirectories only when Recursive is set.
func (b *BatchRunner) Discover(path string) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, domain.ConfigError(fmt.Sprintf("input path %s", path), err)
	}

	if !info.IsDir() {
		if !domain.IsSupportedDeck(path) {
			return nil, domain.ConfigError(fmt.Sprintf("unsupported file type: %s (supported: %s)",
				path, strings.Join(domain.SupportedExtensions, ", ")), nil)
		}
		return []string{path}, nil
	}

	var files []string
	err = filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if p != path && !b.cfg.Recursive {
				return filepath.SkipDir
			}
			return nil
		}
		if isLockFile(d.Name()) || !domain.IsSupportedDeck(p) {
			return nil
		}
		files = append(files, p)
		return nil
	})
	if err != nil {
		return nil, domain.IOError(fmt.Sprintf("scan %s", path), err)
	}

	sort.Strings(files)
	return files, nil
}

// isLockFile matches the owner files Office and LibreOffice leave next to open decks.
func isLockFile(name string) bool {
	return strings.HasPrefix(name, "~$") || strings.HasPrefix(name, ".~lock.")
}

// Run processes every discovered deck. Only discovery errors are returned;
// deck failures are recorded in the report.
func (b *BatchRunner) Run(ctx context.Context, path string, eventCh chan<- domain.StreamEvent) (*domain.BatchReport, error) {
	files, err := b.Discover(path)
	if err != nil {
		return nil, err
	}

	report := &domain.BatchReport{
		RunID:   uuid.NewString(),
		Model:   b.cfg.Model,
		Entries: make([]domain.DeckEntry, len(files)),
	}
	log := b.logger.WithRun(report.RunID)
	log.Info().Int("decks", len(files)).Str("input", path).Msg("starting batch")

	var mu sync.Mutex
	var g errgroup.Group
	g.SetLimit(b.cfg.DeckConcurrency)
	for i, file := range files {
		g.Go(func() error {
			entry := b.processDeck(ctx, file, eventCh)
			report.Entries[i] = entry

			if entry.Error != nil {
				log.Error().Str("file", file).Str("type", string(entry.Error.Type)).Msg(entry.Error.Message)
			}
			if b.cfg.OnDeck != nil {
				mu.Lock()
				b.cfg.OnDeck(entry)
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()

	report.Tally()
	log.Info().Int("succeeded", report.Succeeded).Int("failed", report.Failed).Msg("batch complete")
	return report, nil
}

func (b *BatchRunner) processDeck(ctx context.Context, file string, eventCh chan<- domain.StreamEvent) domain.DeckEntry {
	entry := domain.DeckEntry{File: file}
	if err := ctx.Err(); err != nil {
		entry.Error = domain.NewDeckError(err)
		return entry
	}

	start := time.Now()
	result, err := b.decks.Process(ctx, file, eventCh)
	entry.Duration = time.Since(start)
	if err != nil {
		entry.Error = domain.NewDeckError(err)
		return entry
	}
	entry.Result = result
	return entry
}
