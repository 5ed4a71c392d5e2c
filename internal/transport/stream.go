package transport

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

const (
	wsWriteTimeout = 10 * time.Second
	wsPongWait     = 60 * time.Second
	wsPingPeriod   = wsPongWait * 9 / 10
)

// streamEvents handles GET /conversions/current/ws?since=N. Every event newer
// than since is pushed as a JSON text message until the client goes away.
func (h *handler) streamEvents(w http.ResponseWriter, r *http.Request) {
	since, err := parseSince(r)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid since", err.Error())
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn().Err(err).Msg("Failed to upgrade connection to WebSocket")
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	// The reader only handles control frames; it cancels the stream when the
	// client closes the connection.
	conn.SetReadDeadline(time.Now().Add(wsPongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	h.logger.Debug().Int64("since", since).Msg("Event stream opened")
	if err := h.pushEvents(ctx, conn, since); err != nil && ctx.Err() == nil {
		h.logger.Debug().Err(err).Msg("Event stream ended")
	}
}

func (h *handler) pushEvents(ctx context.Context, conn *websocket.Conn, since int64) error {
	log := h.deps.Service.Task().Events()

	for {
		waitCtx, cancel := context.WithTimeout(ctx, wsPingPeriod)
		events, err := log.Wait(waitCtx, since)
		cancel()

		if ctx.Err() != nil {
			return ctx.Err()
		}

		for _, e := range events {
			conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
			if err := conn.WriteJSON(e); err != nil {
				return err
			}
			since = e.Seq
		}

		// Nothing happened for a ping period.
		if err != nil {
			conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return err
			}
		}
	}
}
