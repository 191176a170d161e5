package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/BikS2013/ppt2desc/cmd/ppt2desc/ui"
	"github.com/BikS2013/ppt2desc/internal/config"
	"github.com/BikS2013/ppt2desc/internal/domain"
	"github.com/BikS2013/ppt2desc/internal/observability"
	"github.com/BikS2013/ppt2desc/internal/report"
	"github.com/BikS2013/ppt2desc/pkg/ppt2desc"
)

var errAllFailed = errors.New("every deck failed")

var describeFlags struct {
	inputDir        string
	outputDir       string
	model           string
	provider        string
	instructions    string
	libreOfficePath string
	rateLimit       int
	concurrency     int
	deckConcurrency int
	maxAttempts     int
	recursive       bool
}

var describeCmd = &cobra.Command{
	Use:   "describe",
	Short: "Describe every slide of one deck or a directory of decks",
	Long: `Render each .ppt, .pptx or .pdf deck to images and describe every slide with
the configured vision model. One <deck>.json is written per deck, plus a
_summary.json for the run. Slides that fail are recorded with their error and
never stop the rest of the deck.`,
	Example: `  ppt2desc describe --input_dir ./decks --output_dir ./out
  ppt2desc describe --input_dir talk.pptx --output_dir ./out --provider anthropic
  ppt2desc describe --input_dir ./decks --output_dir ./out --rate_limit 10 --instructions "Focus on the charts"`,
	RunE: runDescribe,
}

func init() {
	f := describeCmd.Flags()
	f.StringVar(&describeFlags.inputDir, "input_dir", "", "deck file or directory of decks (required)")
	f.StringVar(&describeFlags.outputDir, "output_dir", "", "directory for the JSON results")
	f.StringVar(&describeFlags.model, "model", "", "model name (default depends on provider)")
	f.StringVar(&describeFlags.provider, "provider", "", "gemini, vertex, openai, anthropic or openrouter")
	f.StringVar(&describeFlags.instructions, "instructions", "", "extra instructions appended to the prompt")
	f.StringVar(&describeFlags.libreOfficePath, "libreoffice_path", "", "path to the soffice binary")
	f.IntVar(&describeFlags.rateLimit, "rate_limit", 0, "model requests per minute, 0 disables limiting")
	f.IntVar(&describeFlags.concurrency, "concurrency", 0, "slides described in parallel per deck")
	f.IntVar(&describeFlags.deckConcurrency, "deck_concurrency", 0, "decks processed in parallel")
	f.IntVar(&describeFlags.maxAttempts, "max_attempts", 0, "attempts per slide including the first")
	f.BoolVar(&describeFlags.recursive, "recursive", false, "descend into subdirectories")
	describeCmd.MarkFlagRequired("input_dir")
	rootCmd.AddCommand(describeCmd)
}

func runDescribe(cmd *cobra.Command, args []string) error {
	cfg, err := loadDescribeConfig(cmd)
	if err != nil {
		return err
	}

	logger := newLogger(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	writer, err := report.NewWriter(cfg.Output.Dir)
	if err != nil {
		return err
	}

	onDeck := func(e domain.DeckEntry) {
		if e.Result == nil {
			return
		}
		path, err := writer.WriteDeck(e.Result)
		if err != nil {
			logger.Error().Err(err).Str("deck", e.Result.Deck).Msg("failed to write result")
			return
		}
		logger.Debug().Str("deck", e.Result.Deck).Str("path", path).Msg("result written")
	}

	client, err := ppt2desc.New(ctx, cfg, ppt2desc.WithLogger(logger), ppt2desc.WithOnDeck(onDeck))
	if err != nil {
		return err
	}

	files, err := client.Discover(describeFlags.inputDir)
	if err != nil {
		return err
	}

	ui.Section("Describing decks")
	ui.Info("Input: %s (%d deck(s))", describeFlags.inputDir, len(files))
	ui.Info("Model: %s/%s", cfg.Model.Provider, client.Model())
	ui.Info("Output: %s", writer.Dir())

	tracker := ui.NewTracker(len(files), !ui.Verbose())
	eventCh := make(chan domain.StreamEvent, 256)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for ev := range eventCh {
			tracker.Handle(ev)
		}
	}()

	start := time.Now()
	rep, err := client.Run(ctx, describeFlags.inputDir, eventCh)
	close(eventCh)
	<-done
	tracker.Finish()
	if err != nil {
		return err
	}

	if cfg.Output.Summary {
		if _, err := writer.WriteSummary(rep); err != nil {
			logger.Error().Err(err).Msg("failed to write summary")
		}
	}
	ui.Summary(rep, writer.Dir(), time.Since(start))

	if ctx.Err() != nil {
		ui.Warning("Interrupted, results may be incomplete")
	}
	if rep.Failed > 0 && rep.Succeeded == 0 {
		return errAllFailed
	}
	return nil
}

// loadDescribeConfig layers file, environment and flags, then validates once.
func loadDescribeConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Read(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	applyDescribeFlags(cmd, cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.Output.Dir == "" {
		return nil, domain.ConfigError("output directory is required (use --output_dir)", nil)
	}
	return cfg, nil
}

// applyDescribeFlags overrides file and environment settings with the flags
// given on the command line.
func applyDescribeFlags(cmd *cobra.Command, cfg *config.Config) {
	f := cmd.Flags()
	if f.Changed("provider") {
		cfg.SetProvider(describeFlags.provider)
	}
	if f.Changed("model") {
		cfg.Model.Name = describeFlags.model
	}
	if f.Changed("instructions") {
		cfg.Prompt.Instructions = describeFlags.instructions
	}
	if f.Changed("libreoffice_path") {
		cfg.Render.LibreOfficePath = describeFlags.libreOfficePath
	}
	if f.Changed("rate_limit") {
		cfg.RateLimit.RequestsPerWindow = describeFlags.rateLimit
		cfg.RateLimit.Window = time.Minute
	}
	if f.Changed("concurrency") {
		cfg.Pipeline.Concurrency = describeFlags.concurrency
	}
	if f.Changed("deck_concurrency") {
		cfg.Pipeline.DeckConcurrency = describeFlags.deckConcurrency
	}
	if f.Changed("max_attempts") {
		cfg.Retry.MaxAttempts = describeFlags.maxAttempts
	}
	if f.Changed("recursive") {
		cfg.Pipeline.Recursive = describeFlags.recursive
	}
	if f.Changed("output_dir") {
		cfg.Output.Dir = describeFlags.outputDir
	}
	if verbose {
		cfg.Observability.LogLevel = "debug"
	}
}

// newLogger keeps info logs from fighting the progress bar unless verbose
// output was requested.
func newLogger(cfg *config.Config) *observability.Logger {
	level := cfg.Observability.LogLevel
	if !verbose && level == "info" {
		level = "warn"
	}
	return observability.NewLogger(observability.LogConfig{
		Level:       level,
		Format:      cfg.Observability.LogFormat,
		ServiceName: "ppt2desc",
		NoColor:     noColor,
	})
}
