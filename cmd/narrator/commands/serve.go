package commands

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/lexiqai/pdf-narrator/internal/observability"
	"github.com/lexiqai/pdf-narrator/internal/transport"
	"github.com/lexiqai/pdf-narrator/internal/tts"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP conversion service",
	Long: `Serve the conversion task over HTTP:

  POST /conversions                     start a conversion
  GET  /conversions/current             status of the current conversion
  GET  /conversions/current/events      events since a sequence number
  GET  /conversions/current/ws          live event stream (WebSocket)
  GET  /voices                          available voices
  GET  /health, /ready, /metrics`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	logger := observability.GetLogger()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a := newApp(cfg, logger)
	defer a.Close()

	router := transport.NewRouter(transport.Deps{
		Service:        a.service,
		Voices:         a.registry.Voices(),
		Credentials:    a.credentials,
		Circuits:       a.registry,
		Cache:          a.cache,
		DefaultVoice:   cfg.DefaultVoice,
		MetricsEnabled: cfg.MetricsEnabled,
		AllowedOrigins: cfg.AllowedOrigins,
		BaseContext:    ctx,
		Logger:         logger,
	})

	// No write timeout: the WebSocket stream stays open for whole conversions.
	server := &http.Server{
		Addr:              net.JoinHostPort(cfg.Host, cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	logger.Info().
		Str("host", cfg.Host).
		Str("port", cfg.Port).
		Str("default_voice", cfg.DefaultVoice).
		Str("log_level", cfg.LogLevel).
		Bool("metrics_enabled", cfg.MetricsEnabled).
		Bool("cache_enabled", a.cache != nil).
		Int("voices", len(tts.Voices())).
		Msg("Narrator service starting")

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", server.Addr).Msg("Server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	logger.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	logger.Info().Msg("Server exited gracefully")
	return nil
}
