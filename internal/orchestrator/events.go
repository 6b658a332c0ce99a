/*-------------------------------------------------------------------------
 *
 * events.go
 *    Per-session event fan-out for live conversation updates
 *
 * The hub delivers turn progress to SSE and WebSocket subscribers.
 * Delivery is best-effort: a slow subscriber drops events rather than
 * blocking the turn.
 *
 * Copyright (c) 2024-2026, Zyra Tecnologia Ltda. <dev@zyra.app.br>
 *
 * IDENTIFICATION
 *    internal/orchestrator/events.go
 *
 *-------------------------------------------------------------------------
 */

package orchestrator

import (
	"sync"

	"github.com/google/uuid"
)

/* Event types published during a turn */
const (
	EventThinking       = "pensando"
	EventMessage        = "mensagem"
	EventActionPending  = "acao_pendente"
	EventActionResolved = "acao_resolvida"
	EventCancelled      = "cancelado"
)

type Event struct {
	Type      string    `json:"tipo"`
	SessionID uuid.UUID `json:"sessao_id"`
	Step      string    `json:"passo,omitempty"`
	MessageID int64     `json:"mensagem_id,omitempty"`
	ActionID  string    `json:"acao_id,omitempty"`
	Outcome   string    `json:"desfecho,omitempty"`
}

const subscriberBuffer = 32

type Hub struct {
	mu   sync.Mutex
	subs map[uuid.UUID]map[chan Event]struct{}
}

func NewHub() *Hub {
	return &Hub{subs: make(map[uuid.UUID]map[chan Event]struct{})}
}

/* Subscribe registers a listener for one session's events */
func (h *Hub) Subscribe(sessionID uuid.UUID) (<-chan Event, func()) {
	ch := make(chan Event, subscriberBuffer)

	h.mu.Lock()
	if h.subs[sessionID] == nil {
		h.subs[sessionID] = make(map[chan Event]struct{})
	}
	h.subs[sessionID][ch] = struct{}{}
	h.mu.Unlock()

	unsubscribe := func() {
		h.mu.Lock()
		if set, ok := h.subs[sessionID]; ok {
			delete(set, ch)
			if len(set) == 0 {
				delete(h.subs, sessionID)
			}
		}
		h.mu.Unlock()
	}
	return ch, unsubscribe
}

/* Publish delivers an event to all of the session's subscribers */
func (h *Hub) Publish(event Event) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for ch := range h.subs[event.SessionID] {
		select {
		case ch <- event:
		default:
			/* Subscriber is not draining; drop the event */
		}
	}
}
