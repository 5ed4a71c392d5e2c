// Package transport exposes the conversion task over HTTP and WebSocket.
package transport

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/lexiqai/pdf-narrator/internal/cache"
	"github.com/lexiqai/pdf-narrator/internal/conversion"
	"github.com/lexiqai/pdf-narrator/internal/observability"
	"github.com/lexiqai/pdf-narrator/internal/tts"
)

// CredentialChecker reports whether a provider credential is configured.
type CredentialChecker interface {
	Has(name string) bool
}

// CircuitReporter reports the breaker of a voice's backend.
type CircuitReporter interface {
	Circuit(v tts.Voice) (tts.CircuitStats, bool)
}

// Deps holds everything the router needs.
type Deps struct {
	Service      *conversion.Service
	Voices       []tts.Voice
	Credentials  CredentialChecker
	Circuits     CircuitReporter // optional
	Cache        cache.Client    // nil when caching is disabled
	DefaultVoice string

	MetricsEnabled bool

	// AllowedOrigins lists browser origins, besides the server's own host,
	// that may start conversions or open the event stream.
	AllowedOrigins []string

	// BaseContext bounds conversions started over HTTP. Request contexts
	// end with the response, so they cannot be used.
	BaseContext context.Context
	Logger      zerolog.Logger
}

// NewRouter creates the HTTP router with all routes configured.
func NewRouter(deps Deps) http.Handler {
	if deps.BaseContext == nil {
		deps.BaseContext = context.Background()
	}
	h := &handler{deps: deps, logger: deps.Logger.With().Str("component", "http").Logger()}
	h.upgrader = websocket.Upgrader{
		CheckOrigin:     h.originAllowed,
		ReadBufferSize:  1024,
		WriteBufferSize: 4096,
	}

	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(requestLogger(h.logger))
	r.Use(chimiddleware.Recoverer)

	r.Get("/health", observability.HealthCheckHandler())
	r.Get("/ready", observability.ReadinessHandler(h.readinessChecks()...))
	if deps.MetricsEnabled {
		r.Handle("/metrics", promhttp.Handler())
	}

	r.Get("/voices", h.listVoices)

	r.Route("/conversions", func(r chi.Router) {
		r.With(h.requireOrigin, chimiddleware.AllowContentType("application/json")).Post("/", h.createConversion)
		r.Route("/current", func(r chi.Router) {
			r.Get("/", h.currentConversion)
			r.Get("/events", h.conversionEvents)
			r.Get("/ws", h.streamEvents)
		})
	})

	return r
}

// readinessChecks verify configuration only; no paid API is called.
func (h *handler) readinessChecks() []observability.NamedCheck {
	var checks []observability.NamedCheck
	for _, v := range h.deps.Voices {
		name := v.CredentialName()
		if name == "" {
			continue
		}
		checks = append(checks, observability.NamedCheck{
			Name: v.ID(),
			Check: func(ctx context.Context) (bool, error) {
				if h.deps.Credentials == nil || !h.deps.Credentials.Has(name) {
					return false, errCredentialMissing(name)
				}
				return true, nil
			},
		})
	}
	if h.deps.Cache != nil {
		checks = append(checks, observability.NamedCheck{
			Name: "audio_cache",
			Check: func(ctx context.Context) (bool, error) {
				if err := h.deps.Cache.Ping(ctx); err != nil {
					return false, err
				}
				return true, nil
			},
		})
	}
	return checks
}

// originAllowed accepts requests without an Origin header (CLI tools, curl)
// and browser requests from the server's own host or a configured origin.
func (h *handler) originAllowed(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	u, err := url.Parse(origin)
	if err != nil || u.Host == "" {
		return false
	}
	if strings.EqualFold(u.Host, r.Host) {
		return true
	}
	for _, allowed := range h.deps.AllowedOrigins {
		if strings.EqualFold(strings.TrimRight(allowed, "/"), origin) {
			return true
		}
	}
	return false
}

// requireOrigin rejects cross-origin browser requests with 403.
func (h *handler) requireOrigin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !h.originAllowed(r) {
			h.logger.Warn().Str("origin", r.Header.Get("Origin")).Str("path", r.URL.Path).Msg("Cross-origin request rejected")
			h.writeError(w, http.StatusForbidden, "origin not allowed", "")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// requestLogger logs one line per request with zerolog.
func requestLogger(logger zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			logger.Debug().
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Str("request_id", chimiddleware.GetReqID(r.Context())).
				Int("status", ww.Status()).
				Dur("duration", time.Since(start)).
				Msg("HTTP request")
		})
	}
}
