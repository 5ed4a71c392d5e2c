package commands

import (
	"github.com/rs/zerolog"

	"github.com/lexiqai/pdf-narrator/internal/audio"
	"github.com/lexiqai/pdf-narrator/internal/cache"
	"github.com/lexiqai/pdf-narrator/internal/config"
	"github.com/lexiqai/pdf-narrator/internal/conversion"
	"github.com/lexiqai/pdf-narrator/internal/document"
	"github.com/lexiqai/pdf-narrator/internal/secrets"
	"github.com/lexiqai/pdf-narrator/internal/tts"
)

// app is the wired object graph shared by the subcommands.
type app struct {
	credentials *secrets.Store
	cache       cache.Client
	registry    *tts.Registry
	service     *conversion.Service
	logger      zerolog.Logger
}

func newApp(cfg *config.Config, logger zerolog.Logger) *app {
	credentials := secrets.NewStore(cfg.SecretsDir, map[string]string{
		tts.CredentialElevenLabs: cfg.ElevenLabsAPIKey,
		tts.CredentialDeepgram:   cfg.DeepgramAPIKey,
	})

	audioCache := openAudioCache(cfg, logger)

	registry := tts.NewRegistryFromConfig(cfg, tts.Options{
		Credentials: credentials,
		Cache:       audioCache,
		Logger:      logger,
	})

	task := conversion.NewTask(conversion.TaskConfig{
		Resolver:         registry,
		Writer:           audio.NewWriter(),
		ProgressInterval: cfg.ProgressInterval,
		Events:           conversion.NewEventLog(0),
		Logger:           logger,
	})

	return &app{
		credentials: credentials,
		cache:       audioCache,
		registry:    registry,
		service:     conversion.NewService(document.NewExtractor(cfg.PageSeparator), task, logger),
		logger:      logger,
	}
}

// openAudioCache returns nil when caching is off. When Redis cannot be reached
// the cache falls back to process memory.
func openAudioCache(cfg *config.Config, logger zerolog.Logger) cache.Client {
	if !cfg.CacheEnabled {
		return nil
	}
	rc, err := cache.NewRedisClient(cache.RedisConfig{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err != nil {
		logger.Warn().Err(err).Str("addr", cfg.RedisAddr).Msg("Redis unavailable, caching audio in memory")
		return cache.NewMemoryClient()
	}
	return rc
}

func (a *app) Close() {
	if a.cache != nil {
		if err := a.cache.Close(); err != nil {
			a.logger.Warn().Err(err).Msg("Failed to close audio cache")
		}
	}
}
