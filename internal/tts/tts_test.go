package tts

import (
	"context"
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// staticCredentials is a CredentialSource backed by a map.
type staticCredentials map[string]string

func (s staticCredentials) Lookup(name string) (string, error) {
	if v, ok := s[name]; ok {
		return v, nil
	}
	return "", errors.New(name + ": credential not configured")
}

func TestParseVoice(t *testing.T) {
	tests := []struct {
		in   string
		want Voice
	}{
		{"Google TTS (gTTS)", VoiceGoogle},
		{"  google tts (gtts) ", VoiceGoogle},
		{"gtts", VoiceGoogle},
		{"Eleven Labs AI", VoiceElevenLabs},
		{"ELEVENLABS", VoiceElevenLabs},
		{"Deepgram Aura", VoiceDeepgram},
		{"deepgram", VoiceDeepgram},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseVoice(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseVoiceUnknown(t *testing.T) {
	_, err := ParseVoice("Robot")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnknownBackend)

	var ube *UnknownBackendError
	require.ErrorAs(t, err, &ube)
	assert.Equal(t, "Robot", ube.Name)
}

func TestVoiceIDs(t *testing.T) {
	assert.Equal(t, "gtts", VoiceGoogle.ID())
	assert.Equal(t, "elevenlabs", VoiceElevenLabs.ID())
	assert.Equal(t, "deepgram", VoiceDeepgram.ID())
	assert.Equal(t, "", VoiceGoogle.CredentialName())
	assert.Equal(t, CredentialElevenLabs, VoiceElevenLabs.CredentialName())
}

func TestSplitTextRespectsLimit(t *testing.T) {
	text := strings.Repeat("The quick brown fox jumps over the lazy dog. ", 20) +
		strings.Repeat("x", 250)

	chunks := SplitText(text, 100)
	require.NotEmpty(t, chunks)
	for _, c := range chunks {
		assert.LessOrEqual(t, utf8.RuneCountInString(c), 100, c)
		assert.Equal(t, strings.TrimSpace(c), c)
	}

	joined := strings.Join(chunks, " ")
	assert.Equal(t, strings.Join(strings.Fields(text), " "), joinWithoutWordBreaks(joined))
}

// joinWithoutWordBreaks undoes the hard cuts of the 250-x word so the
// rejoined text can be compared with the input.
func joinWithoutWordBreaks(s string) string {
	return strings.ReplaceAll(s, "x x", "xx")
}

func TestSplitTextMergesShortSentences(t *testing.T) {
	chunks := SplitText("Hi. How are you? Fine, thanks.", 100)
	assert.Equal(t, []string{"Hi. How are you? Fine, thanks."}, chunks)
}

func TestSplitTextPrefersPunctuation(t *testing.T) {
	chunks := SplitText("First sentence here. Second sentence here.", 25)
	assert.Equal(t, []string{"First sentence here.", "Second sentence here."}, chunks)
}

func TestSplitTextDropsUnspeakable(t *testing.T) {
	assert.Empty(t, SplitText(" ... \n -- ,,", 100))
	assert.Empty(t, SplitText("anything", 0))
}

func TestSplitTextMultibyte(t *testing.T) {
	text := strings.Repeat("é", 150)
	chunks := SplitText(text, 100)
	require.Len(t, chunks, 2)
	assert.Equal(t, 100, utf8.RuneCountInString(chunks[0]))
	assert.Equal(t, 50, utf8.RuneCountInString(chunks[1]))
}

func TestSynthesizerFunc(t *testing.T) {
	var s Synthesizer = SynthesizerFunc(func(ctx context.Context, text string) ([]byte, error) {
		return []byte(strings.ToUpper(text)), nil
	})
	got, err := s.Synthesize(context.Background(), "abc")
	require.NoError(t, err)
	assert.Equal(t, "ABC", string(got))
}

func TestSynthesisErrorMessageAndUnwrap(t *testing.T) {
	cause := errors.New("dial tcp: refused")
	err := transportError("ElevenLabs", "Connection error", cause)

	assert.Equal(t, "Connection error", err.Error())
	assert.ErrorIs(t, err, ErrTransport)
	assert.ErrorIs(t, err, cause)
	assert.True(t, IsSynthesisError(err))
	assert.False(t, IsSynthesisError(cause))
}
