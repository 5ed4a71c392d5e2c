package tts

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lexiqai/pdf-narrator/internal/cache"
	"github.com/lexiqai/pdf-narrator/internal/config"
	"github.com/lexiqai/pdf-narrator/internal/resilience"
)

// countingSynthesizer returns audio or err and counts calls.
type countingSynthesizer struct {
	audio []byte
	err   error
	calls int
}

func (c *countingSynthesizer) Synthesize(ctx context.Context, text string) ([]byte, error) {
	c.calls++
	return c.audio, c.err
}

func TestGuardedOpensAfterFailures(t *testing.T) {
	backend := &countingSynthesizer{err: &SynthesisError{Message: "boom", Err: ErrBadStatus}}
	g := NewGuarded(VoiceElevenLabs, backend, resilience.NewCircuitBreaker("elevenlabs", 2, time.Hour))

	for i := 0; i < 2; i++ {
		_, err := g.Synthesize(context.Background(), "x")
		assert.ErrorIs(t, err, ErrBadStatus)
	}
	assert.Equal(t, resilience.StateOpen.String(), g.Stats().State)

	_, err := g.Synthesize(context.Background(), "x")
	assert.ErrorIs(t, err, resilience.ErrCircuitOpen)
	assert.True(t, IsSynthesisError(err))
	assert.Equal(t, 2, backend.calls, "open circuit must not reach the backend")
}

func TestGuardedIgnoresMissingCredential(t *testing.T) {
	backend := &countingSynthesizer{err: missingCredentialError("ElevenLabs", errors.New("unset"))}
	g := NewGuarded(VoiceElevenLabs, backend, resilience.NewCircuitBreaker("elevenlabs", 1, time.Hour))

	for i := 0; i < 3; i++ {
		_, err := g.Synthesize(context.Background(), "x")
		assert.ErrorIs(t, err, ErrMissingCredential)
	}
	assert.Equal(t, resilience.StateClosed.String(), g.Stats().State)
	assert.Equal(t, 3, backend.calls)
}

func TestGuardedPassesAudioThrough(t *testing.T) {
	backend := &countingSynthesizer{audio: []byte("mp3")}
	g := NewGuarded(VoiceGoogle, backend, resilience.NewCircuitBreaker("gtts", 1, time.Hour))

	audio, err := g.Synthesize(context.Background(), "x")
	require.NoError(t, err)
	assert.Equal(t, "mp3", string(audio))
}

func TestCachedServesRepeatedText(t *testing.T) {
	backend := &countingSynthesizer{audio: []byte("mp3")}
	mem := cache.NewMemoryClient()
	c := NewCached(VoiceGoogle, "en|com|false", backend, mem, time.Hour, zerolog.Nop())

	for i := 0; i < 3; i++ {
		audio, err := c.Synthesize(context.Background(), "same text")
		require.NoError(t, err)
		assert.Equal(t, "mp3", string(audio))
	}
	assert.Equal(t, 1, backend.calls)
	assert.Equal(t, 1, mem.Len())
}

func TestCachedKeysByVoice(t *testing.T) {
	assert.NotEqual(t, CacheKey(VoiceGoogle, "", "a"), CacheKey(VoiceDeepgram, "", "a"))
	assert.NotEqual(t, CacheKey(VoiceGoogle, "", "a"), CacheKey(VoiceGoogle, "", "b"))
	assert.NotEqual(t, CacheKey(VoiceElevenLabs, "Bella", "a"), CacheKey(VoiceElevenLabs, "Rachel", "a"))
	assert.NotEqual(t, CacheKey(VoiceGoogle, "en", "|a"), CacheKey(VoiceGoogle, "en|", "a"))
	assert.Equal(t, CacheKey(VoiceGoogle, "en", "a"), CacheKey(VoiceGoogle, "en", "a"))
}

func TestCachedSeparatesBackendSettings(t *testing.T) {
	mem := cache.NewMemoryClient()
	speaker := func(name string) Synthesizer {
		return SynthesizerFunc(func(ctx context.Context, text string) ([]byte, error) {
			return []byte(name + ":" + text), nil
		})
	}
	bella := NewCached(VoiceElevenLabs, "Bella", speaker("Bella"), mem, time.Hour, zerolog.Nop())
	rachel := NewCached(VoiceElevenLabs, "Rachel", speaker("Rachel"), mem, time.Hour, zerolog.Nop())

	audio, err := bella.Synthesize(context.Background(), "Hello")
	require.NoError(t, err)
	assert.Equal(t, "Bella:Hello", string(audio))

	audio, err = rachel.Synthesize(context.Background(), "Hello")
	require.NoError(t, err)
	assert.Equal(t, "Rachel:Hello", string(audio))
	assert.Equal(t, 2, mem.Len())
}

func TestBackendSettingsTrackAudioShapingConfig(t *testing.T) {
	base := &config.Config{GTTSLanguage: "en", GTTSTLD: "com", ElevenLabsVoice: "Bella", DeepgramModel: "aura-asteria-en"}
	changed := []func(c *config.Config){
		func(c *config.Config) { c.GTTSLanguage = "fr" },
		func(c *config.Config) { c.GTTSTLD = "co.uk" },
		func(c *config.Config) { c.GTTSSlow = true },
		func(c *config.Config) { c.ElevenLabsVoice = "Rachel" },
		func(c *config.Config) { c.DeepgramModel = "aura-luna-en" },
	}

	want := BackendSettings(base)
	for i, change := range changed {
		cfg := *base
		change(&cfg)
		got := BackendSettings(&cfg)
		assert.NotEqual(t, want, got, "change %d should alter a fingerprint", i)
	}
}

func TestCachedDoesNotStoreFailures(t *testing.T) {
	backend := &countingSynthesizer{err: errors.New("down")}
	mem := cache.NewMemoryClient()
	c := NewCached(VoiceGoogle, "en|com|false", backend, mem, time.Hour, zerolog.Nop())

	_, err := c.Synthesize(context.Background(), "x")
	require.Error(t, err)
	assert.Equal(t, 0, mem.Len())
}

// brokenCache fails every operation.
type brokenCache struct{}

func (brokenCache) Get(context.Context, string) ([]byte, error) {
	return nil, errors.New("conn refused")
}
func (brokenCache) Set(context.Context, string, []byte, time.Duration) error {
	return errors.New("conn refused")
}
func (brokenCache) Ping(context.Context) error { return errors.New("conn refused") }
func (brokenCache) Close() error               { return nil }

func TestCachedToleratesCacheFailure(t *testing.T) {
	backend := &countingSynthesizer{audio: []byte("mp3")}
	c := NewCached(VoiceGoogle, "en|com|false", backend, brokenCache{}, time.Hour, zerolog.Nop())

	audio, err := c.Synthesize(context.Background(), "x")
	require.NoError(t, err)
	assert.Equal(t, "mp3", string(audio))
}

func TestRegistryResolve(t *testing.T) {
	r := NewRegistry()
	backend := &countingSynthesizer{audio: []byte("a")}
	r.Register(VoiceGoogle, backend)

	v, s, err := r.Resolve("gtts")
	require.NoError(t, err)
	assert.Equal(t, VoiceGoogle, v)
	assert.Same(t, backend, s)

	_, _, err = r.Resolve("Deepgram Aura")
	assert.ErrorIs(t, err, ErrUnknownBackend, "known but unregistered voice")

	_, _, err = r.Resolve("nope")
	assert.ErrorIs(t, err, ErrUnknownBackend)

	assert.Equal(t, []Voice{VoiceGoogle}, r.Voices())
}

func TestNewRegistryFromConfigRegistersEveryVoice(t *testing.T) {
	cfg := &config.Config{
		HTTPTimeout:                time.Second,
		ElevenLabsURL:              "http://127.0.0.1:1",
		ElevenLabsVoice:            "Bella",
		DeepgramModel:              "aura-asteria-en",
		CircuitBreakerMaxFailures:  5,
		CircuitBreakerResetTimeout: 30,
		CacheTTL:                   time.Hour,
	}

	r := NewRegistryFromConfig(cfg, Options{
		Credentials: staticCredentials{},
		Cache:       cache.NewMemoryClient(),
		Logger:      zerolog.Nop(),
	})
	assert.Equal(t, Voices(), r.Voices())

	_, s, err := r.Resolve("Eleven Labs AI")
	require.NoError(t, err)
	_, err = s.Synthesize(context.Background(), "hello")
	assert.ErrorIs(t, err, ErrMissingCredential)

	stats, ok := r.Circuit(VoiceElevenLabs)
	require.True(t, ok)
	assert.Equal(t, "closed", stats.State)
	assert.Equal(t, int64(1), stats.Requests)
	assert.Zero(t, stats.Failures, "missing credentials do not count against the backend")
}

func TestRegistryCircuitReportsFailures(t *testing.T) {
	cfg := &config.Config{
		HTTPTimeout:                time.Second,
		ElevenLabsURL:              "http://127.0.0.1:1",
		ElevenLabsVoice:            "Bella",
		CircuitBreakerMaxFailures:  1,
		CircuitBreakerResetTimeout: 30,
	}
	r := NewRegistryFromConfig(cfg, Options{
		Credentials: staticCredentials{CredentialElevenLabs: "key"},
		Logger:      zerolog.Nop(),
	})

	_, s, err := r.Resolve("elevenlabs")
	require.NoError(t, err)
	_, err = s.Synthesize(context.Background(), "hello")
	assert.ErrorIs(t, err, ErrTransport)

	stats, ok := r.Circuit(VoiceElevenLabs)
	require.True(t, ok)
	assert.Equal(t, "open", stats.State)
	assert.Equal(t, int64(1), stats.Failures)
	assert.InDelta(t, 100.0, stats.FailureRate, 0.001)

	_, ok = NewRegistry().Circuit(VoiceElevenLabs)
	assert.False(t, ok)
}
