package transport

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/lexiqai/pdf-narrator/internal/conversion"
	"github.com/lexiqai/pdf-narrator/internal/document"
	"github.com/lexiqai/pdf-narrator/internal/observability"
	"github.com/lexiqai/pdf-narrator/internal/tts"
)

// maxPollWait caps the long-poll wait of the events endpoint.
const maxPollWait = 30 * time.Second

type handler struct {
	deps     Deps
	logger   zerolog.Logger
	upgrader websocket.Upgrader
}

// ConversionRequestDTO is the body of POST /conversions.
type ConversionRequestDTO struct {
	InputPath  string `json:"input_path"`
	Voice      string `json:"voice,omitempty"`
	OutputPath string `json:"output_path,omitempty"`
}

// EventsDTO is the response of GET /conversions/current/events.
type EventsDTO struct {
	Events  []conversion.Event `json:"events"`
	LastSeq int64              `json:"last_seq"`
}

// VoiceDTO describes one backend.
type VoiceDTO struct {
	Name               string            `json:"name"`
	ID                 string            `json:"id"`
	RequiresCredential bool              `json:"requires_credential"`
	Configured         bool              `json:"configured"`
	Circuit            *tts.CircuitStats `json:"circuit,omitempty"`
}

// ErrorDTO is the body of every error response.
type ErrorDTO struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// createConversion handles POST /conversions.
func (h *handler) createConversion(w http.ResponseWriter, r *http.Request) {
	var req ConversionRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}
	if req.InputPath == "" {
		h.writeError(w, http.StatusBadRequest, "input_path is required", "")
		return
	}
	if req.Voice == "" {
		req.Voice = h.deps.DefaultVoice
	}

	// The channel is buffered for the whole conversion; HTTP callers follow
	// progress through the event log instead.
	_, err := h.deps.Service.Convert(h.deps.BaseContext, req.InputPath, req.Voice, req.OutputPath)
	if err != nil {
		status := statusForError(err)
		logger := observability.WithCorrelationID(chimiddleware.GetReqID(r.Context()))
		logger.Info().Err(err).Int("status", status).Str("input_path", req.InputPath).Msg("Conversion request rejected")
		if status == http.StatusInternalServerError {
			observability.RecordError("request", "http")
		}
		h.writeError(w, status, err.Error(), "")
		return
	}

	h.writeJSON(w, http.StatusAccepted, h.deps.Service.Task().Status())
}

// currentConversion handles GET /conversions/current.
func (h *handler) currentConversion(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, h.deps.Service.Task().Status())
}

// conversionEvents handles GET /conversions/current/events?since=N&wait=D.
// With wait set it long-polls until a newer event exists.
func (h *handler) conversionEvents(w http.ResponseWriter, r *http.Request) {
	since, err := parseSince(r)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid since", err.Error())
		return
	}

	var wait time.Duration
	if v := r.URL.Query().Get("wait"); v != "" {
		wait, err = time.ParseDuration(v)
		if err != nil || wait < 0 {
			h.writeError(w, http.StatusBadRequest, "invalid wait", v)
			return
		}
		if wait > maxPollWait {
			wait = maxPollWait
		}
	}

	log := h.deps.Service.Task().Events()
	events := log.Since(since)
	if len(events) == 0 && wait > 0 {
		ctx, cancel := context.WithTimeout(r.Context(), wait)
		events, _ = log.Wait(ctx, since)
		cancel()
	}
	if events == nil {
		events = []conversion.Event{}
	}

	h.writeJSON(w, http.StatusOK, EventsDTO{Events: events, LastSeq: log.LastSeq()})
}

// listVoices handles GET /voices.
func (h *handler) listVoices(w http.ResponseWriter, r *http.Request) {
	out := make([]VoiceDTO, 0, len(h.deps.Voices))
	for _, v := range h.deps.Voices {
		cred := v.CredentialName()
		configured := cred == "" || (h.deps.Credentials != nil && h.deps.Credentials.Has(cred))
		dto := VoiceDTO{
			Name:               string(v),
			ID:                 v.ID(),
			RequiresCredential: cred != "",
			Configured:         configured,
		}
		if h.deps.Circuits != nil {
			if stats, ok := h.deps.Circuits.Circuit(v); ok {
				dto.Circuit = &stats
			}
		}
		out = append(out, dto)
	}
	h.writeJSON(w, http.StatusOK, out)
}

func parseSince(r *http.Request) (int64, error) {
	v := r.URL.Query().Get("since")
	if v == "" {
		return 0, nil
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("since must be a non-negative integer, got %q", v)
	}
	return n, nil
}

func statusForError(err error) int {
	switch {
	case errors.Is(err, conversion.ErrTaskRunning):
		return http.StatusConflict
	case errors.Is(err, document.ErrOpen),
		errors.Is(err, conversion.ErrEmptyText),
		errors.Is(err, conversion.ErrNoOutputPath),
		errors.Is(err, tts.ErrUnknownBackend):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func errCredentialMissing(name string) error {
	return fmt.Errorf("%s credential not configured", name)
}

func (h *handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Warn().Err(err).Msg("Failed to encode response")
	}
}

func (h *handler) writeError(w http.ResponseWriter, status int, message, details string) {
	h.writeJSON(w, status, ErrorDTO{Error: message, Details: details})
}
