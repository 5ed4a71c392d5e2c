package tts

import (
	"bytes"
	"context"
	"fmt"

	api "github.com/deepgram/deepgram-go-sdk/v3/pkg/api/speak/v1/rest"
	interfaces "github.com/deepgram/deepgram-go-sdk/v3/pkg/client/interfaces"
	speakClient "github.com/deepgram/deepgram-go-sdk/v3/pkg/client/speak"
	"github.com/rs/zerolog"
)

const (
	deepgramName = "Deepgram"
	// deepgramMaxChars is the Aura REST limit per request.
	deepgramMaxChars = 2000
	// CredentialDeepgram names the Deepgram key in the credential store.
	CredentialDeepgram = "deepgram"
)

// speakFunc performs one Aura request and returns its MP3 payload.
type speakFunc func(ctx context.Context, apiKey, model, text string) ([]byte, error)

// DeepgramSynthesizer speaks through Deepgram Aura.
type DeepgramSynthesizer struct {
	model       string
	credentials CredentialSource
	speak       speakFunc
	logger      zerolog.Logger
}

// NewDeepgramSynthesizer creates the backend. Like ElevenLabs the key is
// resolved per call.
func NewDeepgramSynthesizer(model string, credentials CredentialSource, logger zerolog.Logger) *DeepgramSynthesizer {
	return &DeepgramSynthesizer{
		model:       model,
		credentials: credentials,
		speak:       deepgramSpeak,
		logger:      logger.With().Str("backend", CredentialDeepgram).Logger(),
	}
}

// Synthesize implements Synthesizer.
func (d *DeepgramSynthesizer) Synthesize(ctx context.Context, text string) ([]byte, error) {
	apiKey, err := d.credentials.Lookup(CredentialDeepgram)
	if err != nil {
		return nil, missingCredentialError(deepgramName, err)
	}

	chunks := SplitText(text, deepgramMaxChars)
	if len(chunks) == 0 {
		return nil, &SynthesisError{Backend: deepgramName, Message: "No text to speak", Err: ErrNoAudio}
	}

	var out bytes.Buffer
	for i, chunk := range chunks {
		part, err := d.speak(ctx, apiKey, d.model, chunk)
		if err != nil {
			return nil, &SynthesisError{
				Backend: deepgramName,
				Message: fmt.Sprintf("Error generating Deepgram audio: %v", err),
				Err:     fmt.Errorf("%w: %w", ErrTransport, err),
			}
		}
		out.Write(part)
		d.logger.Debug().Int("chunk", i+1).Int("chunks", len(chunks)).Int("bytes", len(part)).Msg("Synthesized chunk")
	}
	return out.Bytes(), nil
}

func deepgramSpeak(ctx context.Context, apiKey, model, text string) ([]byte, error) {
	c := speakClient.NewREST(apiKey, &interfaces.ClientOptions{})
	dg := api.New(c)

	var buf interfaces.RawResponse
	if _, err := dg.ToStream(ctx, text, &interfaces.SpeakOptions{Model: model}, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
