package extract

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/BikS2013/ppt2desc/internal/domain"
	"github.com/BikS2013/ppt2desc/internal/observability"
)

const defaultConcurrency = 4

// SlideDescriber describes a single slide without failing.
type SlideDescriber interface {
	Describe(ctx context.Context, req domain.DescriptionRequest) domain.DescriptionResult
}

// ServiceConfig holds the per-deck settings
type ServiceConfig struct {
	Model        string
	Instructions string
	Concurrency  int
}

// Service renders one deck and describes its slides in parallel
type Service struct {
	renderer  domain.Renderer
	describer SlideDescriber
	cfg       ServiceConfig
	logger    *observability.Logger
}

// NewService creates a new deck pipeline
func NewService(renderer domain.Renderer, describer SlideDescriber, cfg ServiceConfig, logger *observability.Logger) *Service {
	if cfg.Concurrency < 1 {
		cfg.Concurrency = defaultConcurrency
	}
	if logger == nil {
		logger = observability.Nop()
	}
	return &Service{
		renderer:  renderer,
		describer: describer,
		cfg:       cfg,
		logger:    logger.WithComponent("extract"),
	}
}

// Process renders path and describes every slide. A render failure fails the
// whole deck before any slide is described; slide failures are recorded in
// the result and never abort the deck.
func (s *Service) Process(ctx context.Context, path string, eventCh chan<- domain.StreamEvent) (*domain.DeckResult, error) {
	deck := filepath.Base(path)
	log := s.logger.WithDeck(deck)
	startTime := time.Now()

	s.emitEvent(eventCh, domain.StreamEvent{
		Type:      domain.EventDeckStart,
		Deck:      deck,
		Payload:   fmt.Sprintf("Starting %s", deck),
		Timestamp: time.Now(),
	})

	log.Info().Msg("rendering deck")
	slides, err := s.renderer.Render(ctx, path)
	if err == nil && len(slides) == 0 {
		err = domain.RenderError(fmt.Sprintf("%s produced no pages", deck), nil)
	}
	if err != nil {
		if !domain.IsRenderError(err) {
			err = domain.RenderError(fmt.Sprintf("render %s", deck), err)
		}
		log.Error().Err(err).Msg("render failed")
		s.emitError(eventCh, deck, err)
		return nil, err
	}

	log.Info().Int("slides", len(slides)).Msg("rendered deck")
	s.emitEvent(eventCh, domain.StreamEvent{
		Type:      domain.EventRenderComplete,
		Deck:      deck,
		Payload:   len(slides),
		Timestamp: time.Now(),
	})

	results := make([]domain.DescriptionResult, len(slides))

	var g errgroup.Group
	g.SetLimit(s.cfg.Concurrency)
	for i, slide := range slides {
		g.Go(func() error {
			res := s.describer.Describe(ctx, domain.DescriptionRequest{
				Slide:        slide,
				Instructions: s.cfg.Instructions,
			})
			results[i] = res

			s.emitEvent(eventCh, domain.StreamEvent{
				Type:        domain.EventSlideComplete,
				Deck:        deck,
				SlideNumber: res.Number,
				Payload:     res,
				Timestamp:   time.Now(),
			})
			return nil
		})
	}
	_ = g.Wait()

	result := &domain.DeckResult{
		Deck:   deck,
		Model:  s.cfg.Model,
		Slides: results,
	}
	if err := result.Validate(len(slides)); err != nil {
		log.Error().Err(err).Msg("invalid deck result")
		s.emitError(eventCh, deck, err)
		return nil, err
	}

	failed := result.Failed()
	s.emitEvent(eventCh, domain.StreamEvent{
		Type:      domain.EventDeckComplete,
		Deck:      deck,
		Payload:   fmt.Sprintf("%d/%d slides described in %v", len(slides)-failed, len(slides), time.Since(startTime).Round(time.Millisecond)),
		Timestamp: time.Now(),
	})
	log.Info().Int("slides", len(slides)).Int("failed", failed).Dur("elapsed", time.Since(startTime)).Msg("deck complete")

	return result, nil
}

// emitEvent sends without blocking; a full channel drops the event
func (s *Service) emitEvent(eventCh chan<- domain.StreamEvent, event domain.StreamEvent) {
	if eventCh != nil {
		select {
		case eventCh <- event:
		default:
			s.logger.Debug().Str("event", string(event.Type)).Msg("event channel full, dropping event")
		}
	}
}

func (s *Service) emitError(eventCh chan<- domain.StreamEvent, deck string, err error) {
	s.emitEvent(eventCh, domain.StreamEvent{
		Type:      domain.EventError,
		Deck:      deck,
		Payload:   err.Error(),
		Timestamp: time.Now(),
	})
}
