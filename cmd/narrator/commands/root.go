// Package commands implements the narrator command line.
package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/lexiqai/pdf-narrator/cmd/narrator/ui"
	"github.com/lexiqai/pdf-narrator/internal/config"
	"github.com/lexiqai/pdf-narrator/internal/observability"
)

var (
	verbose bool
	noColor bool

	// cfg is loaded once before any subcommand runs.
	cfg *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "narrator",
	Short: "Convert PDF documents to spoken audio",
	Long: `narrator extracts the text of a PDF and reads it aloud with one of several
speech backends: Google TTS (free), Eleven Labs AI or Deepgram Aura. The result
is written as a single MP3 file.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = loaded

		ui.InitUI(noColor, verbose)

		// Interactive commands keep the terminal for the progress bar.
		level := cfg.LogLevel
		switch {
		case verbose:
			level = "debug"
		case cmd.Name() != "serve":
			level = "warn"
		}
		observability.InitLoggerTo(os.Stderr, level, cfg.LogPretty)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
