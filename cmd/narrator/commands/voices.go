package commands

import (
	"github.com/spf13/cobra"

	"github.com/lexiqai/pdf-narrator/cmd/narrator/ui"
	"github.com/lexiqai/pdf-narrator/internal/secrets"
	"github.com/lexiqai/pdf-narrator/internal/tts"
)

var voicesCmd = &cobra.Command{
	Use:   "voices",
	Short: "List the available voices and whether they are configured",
	Args:  cobra.NoArgs,
	RunE:  runVoices,
}

func init() {
	rootCmd.AddCommand(voicesCmd)
}

func runVoices(cmd *cobra.Command, args []string) error {
	credentials := secrets.NewStore(cfg.SecretsDir, map[string]string{
		tts.CredentialElevenLabs: cfg.ElevenLabsAPIKey,
		tts.CredentialDeepgram:   cfg.DeepgramAPIKey,
	})

	ui.Section("Voices")
	for _, v := range tts.Voices() {
		cred := v.CredentialName()
		switch {
		case cred == "":
			ui.Success("%s (%s): no key needed", v, v.ID())
		case credentials.Has(cred):
			ui.Success("%s (%s): key configured", v, v.ID())
		default:
			ui.Warning("%s (%s): key missing, set %s or %s/%s_api_key.txt", v, v.ID(), envVarFor(cred), cfg.SecretsDir, cred)
		}
	}
	return nil
}

func envVarFor(credential string) string {
	switch credential {
	case tts.CredentialElevenLabs:
		return "ELEVENLABS_API_KEY"
	case tts.CredentialDeepgram:
		return "DEEPGRAM_API_KEY"
	default:
		return ""
	}
}
