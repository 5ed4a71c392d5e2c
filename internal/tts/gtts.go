package tts

import (
	"bufio"
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"

	"github.com/rs/zerolog"
)

const (
	// gttsMaxChars is the longest text the translate endpoint accepts per call.
	gttsMaxChars = 100
	gttsRPCID    = "jQ1olc"
	gttsName     = "Google TTS"
)

var gttsAudioPattern = regexp.MustCompile(`jQ1olc","\[\\"(.*)\\"]`)

// GoogleConfig configures the Google Translate speech backend.
type GoogleConfig struct {
	Language string
	TLD      string
	Slow     bool
	// URL overrides the batchexecute endpoint derived from TLD.
	URL string
}

// GoogleSynthesizer speaks through the public Google Translate endpoint. It
// needs no credential. Long text is sent in chunks whose MP3 payloads are
// concatenated in order.
type GoogleSynthesizer struct {
	cfg        GoogleConfig
	endpoint   string
	httpClient *http.Client
	logger     zerolog.Logger
}

// NewGoogleSynthesizer creates the backend.
func NewGoogleSynthesizer(cfg GoogleConfig, httpClient *http.Client, logger zerolog.Logger) *GoogleSynthesizer {
	if cfg.Language == "" {
		cfg.Language = "en"
	}
	if cfg.TLD == "" {
		cfg.TLD = "com"
	}
	endpoint := cfg.URL
	if endpoint == "" {
		endpoint = fmt.Sprintf("https://translate.google.%s/_/TranslateWebserverUi/data/batchexecute", cfg.TLD)
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &GoogleSynthesizer{
		cfg:        cfg,
		endpoint:   endpoint,
		httpClient: httpClient,
		logger:     logger.With().Str("backend", "gtts").Logger(),
	}
}

// Synthesize implements Synthesizer.
func (g *GoogleSynthesizer) Synthesize(ctx context.Context, text string) ([]byte, error) {
	chunks := SplitText(text, gttsMaxChars)
	if len(chunks) == 0 {
		return nil, &SynthesisError{
			Backend: gttsName,
			Message: "No text to speak",
			Err:     ErrNoAudio,
		}
	}

	var out bytes.Buffer
	for i, chunk := range chunks {
		part, err := g.synthesizeChunk(ctx, chunk)
		if err != nil {
			return nil, err
		}
		out.Write(part)
		g.logger.Debug().Int("chunk", i+1).Int("chunks", len(chunks)).Int("bytes", len(part)).Msg("Synthesized chunk")
	}
	return out.Bytes(), nil
}

func (g *GoogleSynthesizer) synthesizeChunk(ctx context.Context, text string) ([]byte, error) {
	body, err := g.requestBody(text)
	if err != nil {
		return nil, &SynthesisError{Backend: gttsName, Message: "Failed to encode Google TTS request", Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.endpoint, strings.NewReader(body))
	if err != nil {
		return nil, &SynthesisError{Backend: gttsName, Message: "Failed to build Google TTS request", Err: err}
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded;charset=utf-8")
	req.Header.Set("Referer", "http://translate.google.com/")
	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; WOW64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/47.0.2526.106 Safari/537.36")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, transportError(gttsName, fmt.Sprintf("Connection error during Google TTS request: %v", err), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &SynthesisError{
			Backend:    gttsName,
			Message:    fmt.Sprintf("Google TTS returned %d (%s)", resp.StatusCode, http.StatusText(resp.StatusCode)),
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("%w: %d", ErrBadStatus, resp.StatusCode),
		}
	}

	audio, err := decodeBatchResponse(resp.Body)
	if err != nil {
		return nil, &SynthesisError{Backend: gttsName, Message: "Google TTS returned no audio", Err: err}
	}
	return audio, nil
}

// requestBody builds the form-encoded batchexecute envelope. The speed slot
// is null for normal speed and true for slow speech.
func (g *GoogleSynthesizer) requestBody(text string) (string, error) {
	var speed any
	if g.cfg.Slow {
		speed = true
	}
	params, err := json.Marshal([]any{text, g.cfg.Language, speed, "null"})
	if err != nil {
		return "", err
	}
	rpc, err := json.Marshal([][][]any{{{gttsRPCID, string(params), nil, "generic"}}})
	if err != nil {
		return "", err
	}
	return "f.req=" + url.QueryEscape(string(rpc)) + "&", nil
}

// decodeBatchResponse finds the jQ1olc line in the streamed response and
// decodes its base64 audio.
func decodeBatchResponse(r io.Reader) ([]byte, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 16*1024*1024)

	var out []byte
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.Contains(line, gttsRPCID) {
			continue
		}
		m := gttsAudioPattern.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		decoded, err := base64.StdEncoding.DecodeString(m[1])
		if err != nil {
			return nil, fmt.Errorf("decode audio: %w", err)
		}
		out = append(out, decoded...)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if len(out) == 0 {
		return nil, ErrNoAudio
	}
	return out, nil
}
