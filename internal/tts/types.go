package tts

import (
	"context"
	"strings"
)

// Synthesizer turns text into a complete MP3 payload.
type Synthesizer interface {
	// Synthesize blocks until the whole payload is available or fails.
	Synthesize(ctx context.Context, text string) ([]byte, error)
}

// SynthesizerFunc adapts a function to the Synthesizer interface.
type SynthesizerFunc func(ctx context.Context, text string) ([]byte, error)

func (f SynthesizerFunc) Synthesize(ctx context.Context, text string) ([]byte, error) {
	return f(ctx, text)
}

// Voice is the display name of a synthesis backend.
type Voice string

const (
	VoiceGoogle     Voice = "Google TTS (gTTS)"
	VoiceElevenLabs Voice = "Eleven Labs AI"
	VoiceDeepgram   Voice = "Deepgram Aura"
)

// voiceIDs are the short names used on the command line, in metrics labels
// and as credential names.
var voiceIDs = map[Voice]string{
	VoiceGoogle:     "gtts",
	VoiceElevenLabs: "elevenlabs",
	VoiceDeepgram:   "deepgram",
}

// Voices lists every backend in presentation order.
func Voices() []Voice {
	return []Voice{VoiceGoogle, VoiceElevenLabs, VoiceDeepgram}
}

// ID returns the short identifier of the voice.
func (v Voice) ID() string {
	return voiceIDs[v]
}

func (v Voice) String() string {
	return string(v)
}

// ParseVoice maps a display name or short id to a Voice. Matching ignores
// case and surrounding whitespace.
func ParseVoice(name string) (Voice, error) {
	trimmed := strings.TrimSpace(name)
	for _, v := range Voices() {
		if strings.EqualFold(trimmed, string(v)) || strings.EqualFold(trimmed, v.ID()) {
			return v, nil
		}
	}
	return "", &UnknownBackendError{Name: name}
}
