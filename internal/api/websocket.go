/*-------------------------------------------------------------------------
 *
 * websocket.go
 *    WebSocket handler for the live conversation stream
 *
 * Pushes turn events (thinking steps, resolved messages, pending and
 * resolved actions) over a WebSocket connection per session.
 *
 * Copyright (c) 2024-2026, Zyra Tecnologia Ltda. <dev@zyra.app.br>
 *
 * IDENTIFICATION
 *    internal/api/websocket.go
 *
 *-------------------------------------------------------------------------
 */

package api

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/victorbarbieri91/zyra-comando/internal/metrics"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
	HandshakeTimeout: 10 * time.Second,
}

const (
	/* WebSocket connection timeouts */
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 64 * 1024
)

/* HandleWebSocket streams session events to a connected client */
func (h *Handlers) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	identity, ok := callerIdentity(w, r)
	if !ok {
		return
	}

	sessionIDStr := r.URL.Query().Get("sessao_id")
	if sessionIDStr == "" {
		http.Error(w, "sessao_id is required", http.StatusBadRequest)
		return
	}
	sessionID, err := uuid.Parse(sessionIDStr)
	if err != nil {
		http.Error(w, "invalid sessao_id format", http.StatusBadRequest)
		return
	}
	if _, err := h.sessions.Get(r.Context(), identity.TenantID, sessionID); err != nil {
		respondDomainError(w, r, err)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		metrics.WarnWithContext(r.Context(), "WebSocket upgrade failed", map[string]interface{}{
			"error": err.Error(),
		})
		return
	}
	defer conn.Close()

	conn.SetReadLimit(maxMessageSize)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	events, unsubscribe := h.hub.Subscribe(sessionID)
	defer unsubscribe()

	/* Drain client frames so pongs and close frames are processed */
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ping := time.NewTicker(pingPeriod)
	defer ping.Stop()

	for {
		select {
		case <-done:
			return
		case <-r.Context().Done():
			return
		case <-ping.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case event := <-events:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(event); err != nil {
				metrics.DebugWithContext(r.Context(), "WebSocket write failed", map[string]interface{}{
					"error": err.Error(),
				})
				return
			}
		}
	}
}
