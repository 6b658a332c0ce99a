/*-------------------------------------------------------------------------
 *
 * streaming.go
 *    Server-Sent Events (SSE) streaming for live turn progress
 *
 * Streams thinking steps and turn events for one session using the
 * Server-Sent Events protocol.
 *
 * Copyright (c) 2024-2026, Zyra Tecnologia Ltda. <dev@zyra.app.br>
 *
 * IDENTIFICATION
 *    internal/api/streaming.go
 *
 *-------------------------------------------------------------------------
 */

package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/victorbarbieri91/zyra-comando/internal/orchestrator"
)

const sseKeepAliveInterval = 25 * time.Second

/* StreamSession streams a session's turn events over SSE */
func (h *Handlers) StreamSession(w http.ResponseWriter, r *http.Request) {
	identity, ok := callerIdentity(w, r)
	if !ok {
		return
	}

	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	if _, err := h.sessions.Get(r.Context(), identity.TenantID, id); err != nil {
		respondDomainError(w, r, err)
		return
	}

	/* Set headers for streaming */
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		return
	}

	events, unsubscribe := h.hub.Subscribe(id)
	defer unsubscribe()

	/* Replay the steps of a turn already in flight */
	for _, step := range h.orch.ThinkingSteps(id) {
		sendSSE(w, flusher, orchestrator.EventThinking, orchestrator.Event{
			Type:      orchestrator.EventThinking,
			SessionID: id,
			Step:      step,
		})
	}

	keepAlive := time.NewTicker(sseKeepAliveInterval)
	defer keepAlive.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-keepAlive.C:
			fmt.Fprint(w, ": keep-alive\n\n")
			flusher.Flush()
		case event := <-events:
			sendSSE(w, flusher, event.Type, event)
		}
	}
}

func sendSSE(w http.ResponseWriter, flusher http.Flusher, event string, data interface{}) {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return
	}

	fmt.Fprintf(w, "event: %s\n", event)
	fmt.Fprintf(w, "data: %s\n\n", jsonData)
	flusher.Flush()
}
