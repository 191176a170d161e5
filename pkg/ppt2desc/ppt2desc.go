// Package ppt2desc describes presentation slides with vision language models.
//
// A Client renders each deck to page images, sends every slide to the
// configured provider under a shared rate limit, retries transient failures
// and returns one ordered result per deck.
package ppt2desc

import (
	"context"
	"time"

	"github.com/BikS2013/ppt2desc/internal/config"
	"github.com/BikS2013/ppt2desc/internal/domain"
	"github.com/BikS2013/ppt2desc/internal/extract"
	"github.com/BikS2013/ppt2desc/internal/llm"
	"github.com/BikS2013/ppt2desc/internal/observability"
	"github.com/BikS2013/ppt2desc/internal/ratelimit"
	"github.com/BikS2013/ppt2desc/internal/render"
)

// Re-export result types for the public API
type (
	Config            = config.Config
	DeckResult        = domain.DeckResult
	DescriptionResult = domain.DescriptionResult
	DeckEntry         = domain.DeckEntry
	DeckError         = domain.DeckError
	BatchReport       = domain.BatchReport
	SlideImage        = domain.SlideImage
	ErrorKind         = domain.ErrorKind
	StreamEvent       = domain.StreamEvent
	EventType         = domain.EventType
	Renderer          = domain.Renderer
	ModelClient       = domain.ModelClient
)

// Event type constants
const (
	EventDeckStart      = domain.EventDeckStart
	EventRenderComplete = domain.EventRenderComplete
	EventSlideComplete  = domain.EventSlideComplete
	EventDeckComplete   = domain.EventDeckComplete
	EventError          = domain.EventError
)

// Error kinds
const (
	KindAuth           = domain.KindAuth
	KindRateLimited    = domain.KindRateLimited
	KindInvalidInput   = domain.KindInvalidInput
	KindTransient      = domain.KindTransient
	KindContentBlocked = domain.KindContentBlocked
	KindUnknown        = domain.KindUnknown
)

// LoadConfig reads a YAML file (optional) and applies environment overrides.
func LoadConfig(path string) (*Config, error) {
	return config.Load(path)
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	return config.DefaultConfig()
}

// Option customizes a Client
type Option func(*options)

type options struct {
	logger   *observability.Logger
	model    domain.ModelClient
	renderer domain.Renderer
	onDeck   func(DeckEntry)
	onAdmit  func(time.Time)
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(logger *observability.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithModelClient replaces the provider client built from the configuration.
func WithModelClient(client ModelClient) Option {
	return func(o *options) { o.model = client }
}

// WithRenderer replaces the LibreOffice and go-fitz renderer.
func WithRenderer(r Renderer) Option {
	return func(o *options) { o.renderer = r }
}

// WithOnDeck registers a callback invoked as each deck finishes.
func WithOnDeck(fn func(DeckEntry)) Option {
	return func(o *options) { o.onDeck = fn }
}

// WithAdmitHook registers a callback invoked each time the rate limiter
// admits a model request.
func WithAdmitHook(fn func(time.Time)) Option {
	return func(o *options) { o.onAdmit = fn }
}

// Client is the main entry point for the library
type Client struct {
	runner *extract.BatchRunner
	model  string
}

// New validates cfg and wires the rate limiter, model client, renderer and
// pipelines. Configuration and credential problems are returned here, before
// any deck is touched.
func New(ctx context.Context, cfg *Config, opts ...Option) (*Client, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	o := options{logger: observability.Nop()}
	for _, opt := range opts {
		opt(&o)
	}

	var limiterOpts []ratelimit.Option
	if o.onAdmit != nil {
		limiterOpts = append(limiterOpts, ratelimit.WithAdmitHook(o.onAdmit))
	}
	limiter, err := ratelimit.New(ratelimit.Config{
		RequestsPerWindow: cfg.RateLimit.RequestsPerWindow,
		Window:            cfg.RateLimit.Window,
		Policy:            ratelimit.Policy(cfg.RateLimit.Policy),
	}, limiterOpts...)
	if err != nil {
		return nil, err
	}

	model := o.model
	if model == nil {
		client, err := llm.New(ctx, cfg)
		if err != nil {
			return nil, err
		}
		model = client
	}

	renderer := o.renderer
	if renderer == nil {
		r, err := render.New(cfg.Render, o.logger)
		if err != nil {
			return nil, err
		}
		renderer = r
	}

	describer := extract.NewDescriber(model, limiter, extract.RetryConfigFrom(cfg.Retry), o.logger)
	service := extract.NewService(renderer, describer, extract.ServiceConfig{
		Model:        model.Model(),
		Instructions: llm.BuildInstructions(cfg.Prompt.Base, cfg.Prompt.Instructions),
		Concurrency:  cfg.Pipeline.Concurrency,
	}, o.logger)
	runner := extract.NewBatchRunner(service, extract.BatchConfig{
		Model:           model.Model(),
		DeckConcurrency: cfg.Pipeline.DeckConcurrency,
		Recursive:       cfg.Pipeline.Recursive,
		OnDeck:          o.onDeck,
	}, o.logger)

	return &Client{runner: runner, model: model.Model()}, nil
}

// Model returns the model identifier recorded in results.
func (c *Client) Model() string { return c.model }

// Discover lists the decks Run would process for path.
func (c *Client) Discover(path string) ([]string, error) {
	return c.runner.Discover(path)
}

// Run describes every deck at path, a single file or a directory. Events are
// sent to eventCh when it is non-nil; sends never block. Only configuration
// and discovery errors are returned, deck failures are in the report.
func (c *Client) Run(ctx context.Context, path string, eventCh chan<- StreamEvent) (*BatchReport, error) {
	return c.runner.Run(ctx, path, eventCh)
}
