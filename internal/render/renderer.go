package render

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BikS2013/ppt2desc/internal/config"
	"github.com/BikS2013/ppt2desc/internal/domain"
	"github.com/BikS2013/ppt2desc/internal/observability"
)

type pdfConverter interface {
	Convert(ctx context.Context, input, outDir string) (string, error)
}

type pageRasterizer interface {
	Rasterize(ctx context.Context, pdfPath string) ([]domain.SlideImage, error)
}

// Renderer turns decks into slide images: LibreOffice to PDF, then go-fitz
// to raster. PDF input skips the conversion step.
type Renderer struct {
	validator  *Validator
	converter  pdfConverter
	rasterizer pageRasterizer
	timeout    time.Duration
	logger     *observability.Logger
}

// New creates a renderer from the render configuration.
func New(cfg config.RenderConfig, logger *observability.Logger) (*Renderer, error) {
	rasterizer, err := NewRasterizer(RasterOptions{
		DPI:     cfg.DPI,
		MaxEdge: cfg.MaxEdge,
		Format:  cfg.Format,
		Quality: cfg.Quality,
	})
	if err != nil {
		return nil, err
	}
	r := newRenderer(NewConverter(cfg.LibreOfficePath), rasterizer, logger)
	r.timeout = cfg.Timeout
	return r, nil
}

func newRenderer(converter pdfConverter, rasterizer pageRasterizer, logger *observability.Logger) *Renderer {
	if logger == nil {
		logger = observability.Nop()
	}
	return &Renderer{
		validator:  NewValidator(),
		converter:  converter,
		rasterizer: rasterizer,
		logger:     logger.WithComponent("render"),
	}
}

// Render implements domain.Renderer. Exceeding the render timeout is a
// render failure; cancellation of ctx is passed through.
func (r *Renderer) Render(ctx context.Context, path string) ([]domain.SlideImage, error) {
	if r.timeout <= 0 {
		return r.render(ctx, path)
	}
	renderCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	slides, err := r.render(renderCtx, path)
	if err != nil && ctx.Err() == nil && renderCtx.Err() != nil {
		return nil, domain.RenderError(fmt.Sprintf("rendering %s timed out after %s", filepath.Base(path), r.timeout), nil)
	}
	return slides, err
}

func (r *Renderer) render(ctx context.Context, path string) ([]domain.SlideImage, error) {
	large, err := r.validator.ValidateDeckPath(path)
	if err != nil {
		return nil, domain.RenderError("invalid deck", err)
	}
	deck := filepath.Base(path)
	if large {
		r.logger.Warn().Str("deck", deck).Msg("Large deck, rendering may take a while")
	}

	tmpDir, err := os.MkdirTemp("", "ppt2desc-*")
	if err != nil {
		return nil, domain.IOError("failed to create temp directory", err)
	}
	defer os.RemoveAll(tmpDir)

	pdfPath := path
	if strings.ToLower(filepath.Ext(path)) != ".pdf" {
		r.logger.Debug().Str("deck", deck).Msg("Converting to PDF")
		pdfPath, err = r.converter.Convert(ctx, path, tmpDir)
		if err != nil {
			return nil, err
		}
	}

	slides, err := r.rasterizer.Rasterize(ctx, pdfPath)
	if err != nil {
		return nil, err
	}
	if len(slides) == 0 {
		return nil, domain.RenderError(fmt.Sprintf("%s has no pages", deck), nil)
	}

	for i := range slides {
		slides[i].Deck = deck
		slides[i].Number = i + 1
	}

	r.logger.Debug().Str("deck", deck).Int("pages", len(slides)).Msg("Rendered deck")
	return slides, nil
}
