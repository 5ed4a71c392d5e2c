package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/lexiqai/pdf-narrator/cmd/narrator/ui"
	"github.com/lexiqai/pdf-narrator/internal/conversion"
	"github.com/lexiqai/pdf-narrator/internal/observability"
)

var (
	convertOutput string
	convertVoice  string
)

var convertCmd = &cobra.Command{
	Use:   "convert <input.pdf>",
	Short: "Convert a PDF to an MP3 file",
	Long: `Extract the text of a PDF and synthesize it with the selected voice.
The output path gets an .mp3 extension unless it already has one. Ctrl-C
cancels the conversion and leaves no output file behind.`,
	Args: cobra.ExactArgs(1),
	RunE: runConvert,
}

func init() {
	convertCmd.Flags().StringVarP(&convertOutput, "output", "o", "", "output audio file (default: input name with .mp3)")
	convertCmd.Flags().StringVar(&convertVoice, "voice", "", `voice: "Google TTS (gTTS)", "Eleven Labs AI", "Deepgram Aura" or gtts, elevenlabs, deepgram (default from DEFAULT_VOICE)`)
	rootCmd.AddCommand(convertCmd)
}

func runConvert(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	input := args[0]
	voice := convertVoice
	if voice == "" {
		voice = cfg.DefaultVoice
	}

	a := newApp(cfg, observability.GetLogger())
	defer a.Close()

	info, err := a.service.Inspect(ctx, input)
	if err != nil {
		return err
	}
	ui.Info("%d pages loaded from %s", info.Pages, input)

	events, err := a.service.Convert(ctx, input, voice, convertOutput)
	if err != nil {
		return err
	}

	return renderConversion(ctx, events, voice)
}

// renderConversion drives the progress bar from events and reports the
// outcome. The spinner covers the backend call that follows 100%.
func renderConversion(ctx context.Context, events <-chan conversion.Event, voice string) error {
	bar := ui.NewProgressBar(100, "Converting")
	spin := ui.NewSpinner(fmt.Sprintf("Waiting for %s...", voice))
	defer spin.Stop()

	for e := range events {
		switch e.Type {
		case conversion.EventProgress:
			bar.Set(e.Percent)
			if e.Percent == 100 {
				bar.Finish()
				spin.Start()
			}
		case conversion.EventDone:
			spin.Stop()
			ui.Success("Audio saved to %s", e.OutputPath)
			return nil
		case conversion.EventFailed:
			spin.Stop()
			bar.Reset()
			if ctx.Err() != nil {
				return fmt.Errorf("conversion cancelled")
			}
			return fmt.Errorf("conversion failed: %s", e.Reason)
		}
	}
	return fmt.Errorf("conversion ended without a result")
}
