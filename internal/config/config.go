package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Known voice display names. Kept here so configuration can be validated
// without importing the synthesis packages.
var knownVoices = []string{
	"Google TTS (gTTS)", "gtts",
	"Eleven Labs AI", "elevenlabs",
	"Deepgram Aura", "deepgram",
}

// Config holds all configuration for the narrator
type Config struct {
	// Server configuration (narrator serve)
	Host           string   `envconfig:"HOST" default:"127.0.0.1"` // Listen address; loopback unless set
	Port           string   `envconfig:"PORT" default:"8080"`
	AllowedOrigins []string `envconfig:"ALLOWED_ORIGINS"` // Extra browser origins, comma separated

	// Conversion behaviour
	DefaultVoice     string        `envconfig:"DEFAULT_VOICE" default:"Google TTS (gTTS)"`
	ProgressInterval time.Duration `envconfig:"PROGRESS_INTERVAL" default:"50ms"` // Delay between progress ticks
	PageSeparator    string        `envconfig:"PAGE_SEPARATOR" default:""`        // Inserted between page texts
	HTTPTimeout      time.Duration `envconfig:"HTTP_TIMEOUT" default:"90s"`       // Per backend request

	// Google Translate TTS (no credential)
	GTTSLanguage string `envconfig:"GTTS_LANG" default:"en"`
	GTTSTLD      string `envconfig:"GTTS_TLD" default:"com"`
	GTTSSlow     bool   `envconfig:"GTTS_SLOW" default:"false"`
	GTTSURL      string `envconfig:"GTTS_URL" default:""` // Overrides the batchexecute endpoint

	// ElevenLabs API configuration. The key is optional at load time and only
	// checked when a conversion actually uses the backend.
	ElevenLabsAPIKey string `envconfig:"ELEVENLABS_API_KEY"`
	ElevenLabsURL    string `envconfig:"ELEVENLABS_URL" default:"https://api.elevenlabs.io/v1/text-to-speech"`
	ElevenLabsVoice  string `envconfig:"ELEVENLABS_VOICE" default:"Bella"`

	// Deepgram Aura TTS configuration
	DeepgramAPIKey string `envconfig:"DEEPGRAM_API_KEY"`
	DeepgramModel  string `envconfig:"DEEPGRAM_MODEL" default:"aura-asteria-en"`

	// Directory holding <provider>_api_key.txt files used when the env key is empty
	SecretsDir string `envconfig:"SECRETS_DIR" default:"secrets"`

	// Resilience configuration
	CircuitBreakerMaxFailures  int `envconfig:"CIRCUIT_BREAKER_MAX_FAILURES" default:"5"`   // Failures before opening circuit
	CircuitBreakerResetTimeout int `envconfig:"CIRCUIT_BREAKER_RESET_TIMEOUT" default:"30"` // Seconds before attempting recovery

	// Synthesis cache (Redis)
	CacheEnabled  bool          `envconfig:"CACHE_ENABLED" default:"false"`
	RedisAddr     string        `envconfig:"REDIS_ADDR" default:"localhost:6379"`
	RedisPassword string        `envconfig:"REDIS_PASSWORD" default:""`
	RedisDB       int           `envconfig:"REDIS_DB" default:"0"`
	CacheTTL      time.Duration `envconfig:"CACHE_TTL" default:"24h"`

	// Observability configuration
	LogLevel       string `envconfig:"LOG_LEVEL" default:"info"`       // Log level: debug, info, warn, error
	LogPretty      bool   `envconfig:"LOG_PRETTY" default:"false"`     // Pretty print logs (for development)
	MetricsEnabled bool   `envconfig:"METRICS_ENABLED" default:"true"` // Enable Prometheus metrics
}

// Load reads configuration from environment variables
// It first attempts to load from .env file if it exists, then from environment
func Load() (*Config, error) {
	// Try to load .env file (ignore error if it doesn't exist)
	_ = godotenv.Load()
	return LoadFromEnv()
}

// LoadFromEnv loads configuration directly from environment variables
// without attempting to load .env file (useful for containerized deployments)
func LoadFromEnv() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks values envconfig cannot express with tags
func (c *Config) Validate() error {
	if c.ProgressInterval <= 0 {
		return fmt.Errorf("PROGRESS_INTERVAL must be positive, got %s", c.ProgressInterval)
	}
	if c.HTTPTimeout <= 0 {
		return fmt.Errorf("HTTP_TIMEOUT must be positive, got %s", c.HTTPTimeout)
	}
	if !IsKnownVoice(c.DefaultVoice) {
		return fmt.Errorf("DEFAULT_VOICE %q is not a known voice", c.DefaultVoice)
	}
	if c.CacheEnabled && c.CacheTTL <= 0 {
		return fmt.Errorf("CACHE_TTL must be positive when CACHE_ENABLED is set")
	}
	return nil
}

// IsKnownVoice reports whether name is a voice display name or short id
func IsKnownVoice(name string) bool {
	for _, v := range knownVoices {
		if strings.EqualFold(strings.TrimSpace(name), v) {
			return true
		}
	}
	return false
}
