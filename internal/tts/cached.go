package tts

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/lexiqai/pdf-narrator/internal/cache"
	"github.com/lexiqai/pdf-narrator/internal/observability"
)

// Cached serves repeated (voice, settings, text) triples from a cache. Cache
// failures are logged and never fail synthesis.
type Cached struct {
	voice    Voice
	settings string
	next     Synthesizer
	cache    cache.Client
	ttl      time.Duration
	logger   zerolog.Logger
}

// NewCached wraps next with a cache lookup. settings fingerprints the backend
// configuration that shapes the audio (speaker, language, model) so a config
// change never serves audio recorded under the old one.
func NewCached(voice Voice, settings string, next Synthesizer, c cache.Client, ttl time.Duration, logger zerolog.Logger) *Cached {
	return &Cached{
		voice:    voice,
		settings: settings,
		next:     next,
		cache:    c,
		ttl:      ttl,
		logger:   logger.With().Str("backend", voice.ID()).Logger(),
	}
}

// CacheKey identifies audio for text spoken by voice under settings.
func CacheKey(voice Voice, settings, text string) string {
	h := sha256.New()
	h.Write([]byte(voice.ID()))
	h.Write([]byte{0})
	h.Write([]byte(settings))
	h.Write([]byte{0})
	h.Write([]byte(text))
	return hex.EncodeToString(h.Sum(nil))
}

// Synthesize implements Synthesizer.
func (c *Cached) Synthesize(ctx context.Context, text string) ([]byte, error) {
	key := CacheKey(c.voice, c.settings, text)

	audio, err := c.cache.Get(ctx, key)
	switch {
	case err == nil && len(audio) > 0:
		observability.RecordCacheLookup("hit")
		c.logger.Debug().Str("key", key).Msg("Audio cache hit")
		return audio, nil
	case err == nil, errors.Is(err, cache.ErrCacheMiss):
		observability.RecordCacheLookup("miss")
	default:
		observability.RecordCacheLookup("error")
		c.logger.Warn().Err(err).Msg("Audio cache lookup failed")
	}

	audio, err = c.next.Synthesize(ctx, text)
	if err != nil {
		return nil, err
	}

	if len(audio) > 0 {
		if err := c.cache.Set(ctx, key, audio, c.ttl); err != nil {
			c.logger.Warn().Err(err).Msg("Audio cache store failed")
		}
	}
	return audio, nil
}
