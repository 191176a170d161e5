package commands

import (
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/BikS2013/ppt2desc/cmd/ppt2desc/ui"
)

var (
	cfgFile string
	verbose bool
	noColor bool
)

var rootCmd = &cobra.Command{
	Use:   "ppt2desc",
	Short: "Describe presentation slides with vision language models",
	Long: `ppt2desc converts PowerPoint and PDF decks into slide images and asks a
vision language model to describe each slide. Results are written as one JSON
file per deck.

Supported providers: gemini, vertex, openai, anthropic, openrouter.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		_ = godotenv.Load() // a missing .env is fine
		ui.InitUI(noColor, verbose)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
