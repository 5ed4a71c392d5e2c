package tts

import (
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/lexiqai/pdf-narrator/internal/cache"
	"github.com/lexiqai/pdf-narrator/internal/config"
	"github.com/lexiqai/pdf-narrator/internal/resilience"
)

// Registry maps voices to their synthesizers.
type Registry struct {
	mu       sync.RWMutex
	backends map[Voice]Synthesizer
	guards   map[Voice]*Guarded
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		backends: make(map[Voice]Synthesizer),
		guards:   make(map[Voice]*Guarded),
	}
}

// Register installs s for v, replacing any previous backend.
func (r *Registry) Register(v Voice, s Synthesizer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.backends[v] = s
}

// registerGuarded installs s for v and remembers its breaker for Circuit.
func (r *Registry) registerGuarded(v Voice, s Synthesizer, g *Guarded) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.backends[v] = s
	r.guards[v] = g
}

// Circuit reports the breaker of v, if it has one.
func (r *Registry) Circuit(v Voice) (CircuitStats, bool) {
	r.mu.RLock()
	g, ok := r.guards[v]
	r.mu.RUnlock()
	if !ok {
		return CircuitStats{}, false
	}
	return g.Stats(), true
}

// Resolve parses name and returns its backend.
func (r *Registry) Resolve(name string) (Voice, Synthesizer, error) {
	v, err := ParseVoice(name)
	if err != nil {
		return "", nil, err
	}

	r.mu.RLock()
	s, ok := r.backends[v]
	r.mu.RUnlock()
	if !ok {
		return "", nil, &UnknownBackendError{Name: name}
	}
	return v, s, nil
}

// Voices returns the registered voices in presentation order.
func (r *Registry) Voices() []Voice {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []Voice
	for _, v := range Voices() {
		if _, ok := r.backends[v]; ok {
			out = append(out, v)
		}
	}
	return out
}

// CredentialName returns the credential a voice needs, or "" for none.
func (v Voice) CredentialName() string {
	switch v {
	case VoiceElevenLabs:
		return CredentialElevenLabs
	case VoiceDeepgram:
		return CredentialDeepgram
	default:
		return ""
	}
}

// Options carries the collaborators NewRegistryFromConfig wires in.
type Options struct {
	Credentials CredentialSource
	// Cache is optional; nil disables audio caching.
	Cache  cache.Client
	Logger zerolog.Logger
}

// NewRegistryFromConfig builds every backend. Each one sits behind its own
// circuit breaker and, when a cache is given, a cache lookup in front of it.
func NewRegistryFromConfig(cfg *config.Config, opts Options) *Registry {
	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}

	backends := map[Voice]Synthesizer{
		VoiceGoogle: NewGoogleSynthesizer(GoogleConfig{
			Language: cfg.GTTSLanguage,
			TLD:      cfg.GTTSTLD,
			Slow:     cfg.GTTSSlow,
			URL:      cfg.GTTSURL,
		}, httpClient, opts.Logger),
		VoiceElevenLabs: NewElevenLabsSynthesizer(cfg.ElevenLabsURL, cfg.ElevenLabsVoice, opts.Credentials, httpClient, opts.Logger),
		VoiceDeepgram:   NewDeepgramSynthesizer(cfg.DeepgramModel, opts.Credentials, opts.Logger),
	}

	settings := BackendSettings(cfg)
	r := NewRegistry()
	for _, v := range Voices() {
		g := NewGuarded(v, backends[v], resilience.NewCircuitBreaker(
			v.ID(),
			cfg.CircuitBreakerMaxFailures,
			time.Duration(cfg.CircuitBreakerResetTimeout)*time.Second,
		))
		var s Synthesizer = g
		if opts.Cache != nil {
			s = NewCached(v, settings[v], s, opts.Cache, cfg.CacheTTL, opts.Logger)
		}
		r.registerGuarded(v, s, g)
	}
	return r
}

// BackendSettings fingerprints the configuration each backend's audio depends on.
func BackendSettings(cfg *config.Config) map[Voice]string {
	return map[Voice]string{
		VoiceGoogle:     fmt.Sprintf("%s|%s|%t", cfg.GTTSLanguage, cfg.GTTSTLD, cfg.GTTSSlow),
		VoiceElevenLabs: cfg.ElevenLabsVoice,
		VoiceDeepgram:   cfg.DeepgramModel,
	}
}
