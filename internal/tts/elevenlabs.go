package tts

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/rs/zerolog"
)

const (
	elevenLabsName = "ElevenLabs"
	// elevenLabsFailure is the message shown for any non-success answer.
	elevenLabsFailure = "Error generating AI audio."
	// CredentialElevenLabs names the ElevenLabs key in the credential store.
	CredentialElevenLabs = "elevenlabs"
)

// CredentialSource resolves API keys by provider name.
type CredentialSource interface {
	Lookup(name string) (string, error)
}

// ElevenLabsSynthesizer posts the whole text in a single request.
type ElevenLabsSynthesizer struct {
	url         string
	voice       string
	credentials CredentialSource
	httpClient  *http.Client
	logger      zerolog.Logger
}

// elevenLabsRequest is the request payload.
type elevenLabsRequest struct {
	Text  string `json:"text"`
	Voice string `json:"voice"`
}

// NewElevenLabsSynthesizer creates the backend. The key is looked up on
// every call so a missing key fails the conversion, not startup.
func NewElevenLabsSynthesizer(url, voice string, credentials CredentialSource, httpClient *http.Client, logger zerolog.Logger) *ElevenLabsSynthesizer {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &ElevenLabsSynthesizer{
		url:         url,
		voice:       voice,
		credentials: credentials,
		httpClient:  httpClient,
		logger:      logger.With().Str("backend", CredentialElevenLabs).Logger(),
	}
}

// Synthesize implements Synthesizer.
func (e *ElevenLabsSynthesizer) Synthesize(ctx context.Context, text string) ([]byte, error) {
	apiKey, err := e.credentials.Lookup(CredentialElevenLabs)
	if err != nil {
		return nil, missingCredentialError(elevenLabsName, err)
	}

	jsonData, err := json.Marshal(elevenLabsRequest{Text: text, Voice: e.voice})
	if err != nil {
		return nil, &SynthesisError{Backend: elevenLabsName, Message: elevenLabsFailure, Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.url, bytes.NewReader(jsonData))
	if err != nil {
		return nil, &SynthesisError{Backend: elevenLabsName, Message: elevenLabsFailure, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "audio/mpeg")
	req.Header.Set("Authorization", "Bearer "+apiKey)

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return nil, transportError(elevenLabsName, fmt.Sprintf("Connection error during ElevenLabs request: %v", err), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		e.logger.Warn().
			Int("status", resp.StatusCode).
			Str("body", string(detail)).
			Msg("ElevenLabs returned non-success status")
		return nil, &SynthesisError{
			Backend:    elevenLabsName,
			Message:    elevenLabsFailure,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("%w: %d", ErrBadStatus, resp.StatusCode),
		}
	}

	audioData, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, transportError(elevenLabsName, fmt.Sprintf("Connection error while reading ElevenLabs audio: %v", err), err)
	}

	e.logger.Debug().Int("bytes", len(audioData)).Msg("ElevenLabs audio received")
	return audioData, nil
}
