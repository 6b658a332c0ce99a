/*-------------------------------------------------------------------------
 *
 * orchestrator.go
 *    Conversation turn orchestration
 *
 * Drives the full lifecycle of a conversation turn: resolve the active
 * session, persist the user message and a loading placeholder, dispatch
 * to the agent backend, and resolve the placeholder with the reply, an
 * error marker, or a cancellation notice. The placeholder is always
 * resolved, whatever happens to the turn.
 *
 * Ordering and staleness guarantees:
 *   - at most one turn in flight per session
 *   - history snapshot is taken before the user message is appended
 *   - each session carries an epoch counter, bumped whenever the user
 *     clears the chat or switches sessions; a reply whose epoch no
 *     longer matches is discarded, never shown
 *
 * Copyright (c) 2024-2026, Zyra Tecnologia Ltda. <dev@zyra.app.br>
 *
 * IDENTIFICATION
 *    internal/orchestrator/orchestrator.go
 *
 *-------------------------------------------------------------------------
 */

package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/victorbarbieri91/zyra-comando/internal/agentclient"
	"github.com/victorbarbieri91/zyra-comando/internal/db"
	"github.com/victorbarbieri91/zyra-comando/internal/metrics"
	"github.com/victorbarbieri91/zyra-comando/internal/session"
	"github.com/victorbarbieri91/zyra-comando/internal/stager"
)

var (
	ErrTurnInFlight  = errors.New("a turn is already in flight for this session")
	ErrStaleResponse = errors.New("agent response discarded: conversation state changed")
	ErrEmptyMessage  = errors.New("message text is empty")
)

/* Transcript notices shown when a placeholder cannot carry a reply */
const (
	staleNotice     = "Resposta descartada porque a conversa mudou durante o processamento."
	cancelNotice    = "Geração interrompida pelo usuário."
	agentDownNotice = "O assistente está indisponível no momento. Tente novamente em instantes."
)

/* SessionStore is the persistence surface the orchestrator needs.
 * *db.Queries satisfies it. */
type SessionStore interface {
	ActiveSession(ctx context.Context, tenantID, userID string) (*db.Session, error)
	CreateSession(ctx context.Context, session *db.Session) error
	GetSession(ctx context.Context, tenantID string, id uuid.UUID) (*db.Session, error)
	SwitchActiveSession(ctx context.Context, tenantID, userID string, id uuid.UUID) error
	ArchiveSession(ctx context.Context, tenantID string, id uuid.UUID) error
	TouchSession(ctx context.Context, id uuid.UUID) error
	AppendMessage(ctx context.Context, message *db.Message) error
	ResolveMessage(ctx context.Context, id int64, content *string, errorText *string, toolResults db.ToolResultList) error
	GetRecentMessages(ctx context.Context, sessionID uuid.UUID, limit int) ([]db.Message, error)
	GetUserMessageBefore(ctx context.Context, sessionID uuid.UUID, assistantMessageID int64) (*db.Message, error)
}

/* TurnResult is what a completed (or failed) turn produced */
type TurnResult struct {
	Session          *db.Session
	UserMessage      *db.Message
	AssistantMessage *db.Message
	PendingAction    *stager.PendingAction
	Stale            bool
}

type turnState struct {
	turnID uint64
	epoch  uint64
	cancel context.CancelFunc
}

type Orchestrator struct {
	store      SessionStore
	backend    agentclient.Backend
	actions    *stager.Stager
	hub        *Hub
	maxHistory int

	mu       sync.Mutex
	inflight map[uuid.UUID]*turnState
	epochs   map[uuid.UUID]uint64
	turnSeq  uint64
	thinking map[uuid.UUID][]string
}

func New(store SessionStore, backend agentclient.Backend, actions *stager.Stager, hub *Hub, maxHistory int) *Orchestrator {
	return &Orchestrator{
		store:      store,
		backend:    backend,
		actions:    actions,
		hub:        hub,
		maxHistory: maxHistory,
		inflight:   make(map[uuid.UUID]*turnState),
		epochs:     make(map[uuid.UUID]uint64),
		thinking:   make(map[uuid.UUID][]string),
	}
}

/* SendMessage runs one conversation turn for the user's active session,
 * creating a session when none is active. Blocks until the turn settles. */
func (o *Orchestrator) SendMessage(ctx context.Context, tenantID, userID, texto string) (*TurnResult, error) {
	texto = strings.TrimSpace(texto)
	if texto == "" {
		return nil, ErrEmptyMessage
	}

	sess, err := o.store.ActiveSession(ctx, tenantID, userID)
	if errors.Is(err, db.ErrNoActiveSession) {
		sess = &db.Session{
			TenantID: tenantID,
			UserID:   userID,
			Title:    session.DeriveTitle(texto),
		}
		if err := o.store.CreateSession(ctx, sess); err != nil {
			return nil, fmt.Errorf("session creation failed: tenant_id='%s', error=%w", tenantID, err)
		}
	} else if err != nil {
		return nil, err
	}

	return o.runTurn(ctx, sess, texto, nil)
}

/* Resubmit re-runs the user request that produced the given assistant
 * message, carrying the correction text to the agent. Used by the
 * feedback loop. */
func (o *Orchestrator) Resubmit(ctx context.Context, tenantID string, sessionID uuid.UUID, assistantMessageID int64, correcao string) error {
	sess, err := o.store.GetSession(ctx, tenantID, sessionID)
	if err != nil {
		return err
	}

	original, err := o.store.GetUserMessageBefore(ctx, sessionID, assistantMessageID)
	if err != nil {
		return fmt.Errorf("original request lookup failed: message_id=%d, error=%w", assistantMessageID, err)
	}
	if original.Content == nil {
		return fmt.Errorf("original request has no text: message_id=%d", original.ID)
	}

	_, err = o.runTurn(ctx, sess, *original.Content, &correcao)
	return err
}

func (o *Orchestrator) runTurn(ctx context.Context, sess *db.Session, texto string, correcao *string) (*TurnResult, error) {
	/* Claim the in-flight slot for this session */
	o.mu.Lock()
	if o.inflight[sess.ID] != nil {
		o.mu.Unlock()
		return nil, ErrTurnInFlight
	}
	o.turnSeq++
	turnCtx, cancel := context.WithCancel(ctx)
	turn := &turnState{
		turnID: o.turnSeq,
		epoch:  o.epochs[sess.ID],
		cancel: cancel,
	}
	o.inflight[sess.ID] = turn
	o.mu.Unlock()

	defer func() {
		cancel()
		o.mu.Lock()
		if o.inflight[sess.ID] == turn {
			delete(o.inflight, sess.ID)
		}
		delete(o.thinking, sess.ID)
		o.mu.Unlock()
	}()

	ctx = metrics.WithLogContext(ctx, metrics.GetRequestIDFromContext(ctx),
		sess.TenantID, sess.ID.String(), strconv.FormatUint(turn.turnID, 10))

	/* Snapshot the history before this turn's messages land */
	history, err := o.loadHistory(turnCtx, sess.ID)
	if err != nil {
		return nil, err
	}

	userMsg := &db.Message{SessionID: sess.ID, Role: db.RoleUser, Content: &texto}
	if err := o.store.AppendMessage(ctx, userMsg); err != nil {
		return nil, err
	}

	placeholder := &db.Message{SessionID: sess.ID, Role: db.RoleAssistant, Loading: true}
	if err := o.store.AppendMessage(ctx, placeholder); err != nil {
		return nil, err
	}

	o.hub.Publish(Event{Type: EventMessage, SessionID: sess.ID, MessageID: userMsg.ID})

	result := &TurnResult{Session: sess, UserMessage: userMsg, AssistantMessage: placeholder}

	req := &agentclient.Request{
		TenantID: sess.TenantID,
		UserID:   sess.UserID,
		History:  history,
		Texto:    texto,
		Correcao: correcao,
	}

	start := time.Now()
	resp, completeErr := o.backend.Complete(turnCtx, req, func(step string) {
		o.recordThinking(sess.ID, turn, step)
	})
	duration := time.Since(start)

	/* A reply for a superseded conversation state is never shown */
	o.mu.Lock()
	stale := o.epochs[sess.ID] != turn.epoch
	o.mu.Unlock()

	if stale {
		metrics.RecordStaleResponse()
		metrics.RecordTurn("stale", duration)
		metrics.WarnWithContext(ctx, "Discarding stale agent response", map[string]interface{}{
			"turn_id": turn.turnID,
			"epoch":   turn.epoch,
		})
		o.resolvePlaceholder(ctx, placeholder, nil, stringPtr(staleNotice), nil)
		o.hub.Publish(Event{Type: EventCancelled, SessionID: sess.ID, MessageID: placeholder.ID})
		result.Stale = true
		return result, ErrStaleResponse
	}

	if completeErr != nil {
		if errors.Is(completeErr, context.Canceled) {
			metrics.RecordTurn("cancelled", duration)
			o.resolvePlaceholder(ctx, placeholder, nil, stringPtr(cancelNotice), nil)
			o.hub.Publish(Event{Type: EventCancelled, SessionID: sess.ID, MessageID: placeholder.ID})
			return result, fmt.Errorf("turn cancelled: session_id='%s', error=%w", sess.ID.String(), completeErr)
		}

		metrics.RecordTurn("error", duration)
		metrics.ErrorWithContext(ctx, "Agent backend failed", completeErr, map[string]interface{}{
			"turn_id": turn.turnID,
		})
		o.resolvePlaceholder(ctx, placeholder, nil, stringPtr(agentDownNotice), nil)
		o.hub.Publish(Event{Type: EventMessage, SessionID: sess.ID, MessageID: placeholder.ID})
		return result, fmt.Errorf("turn failed: session_id='%s', error=%w", sess.ID.String(), completeErr)
	}

	o.resolvePlaceholder(ctx, placeholder, &resp.Reply, nil, db.ToolResultList(resp.ToolResults))

	/* Stage proposed actions in arrival order; the first valid one is
	 * presented, the rest queue behind it */
	for _, proposed := range resp.Actions {
		if _, err := o.actions.Stage(ctx, sess.TenantID, sess.ID, proposed); err != nil {
			metrics.WarnWithContext(ctx, "Rejected malformed action proposal", map[string]interface{}{
				"table": proposed.Table,
				"kind":  string(proposed.Kind),
				"error": err.Error(),
			})
		}
	}
	/* A clear or switch may have landed after the staleness check above;
	 * anything staged for a superseded conversation is withdrawn */
	o.mu.Lock()
	current := o.epochs[sess.ID] == turn.epoch
	o.mu.Unlock()
	if !current {
		o.actions.ClearSession(ctx, sess.ID)
		metrics.WarnWithContext(ctx, "Withdrawing actions staged for a cleared conversation", map[string]interface{}{
			"turn_id": turn.turnID,
			"epoch":   turn.epoch,
		})
	} else if pending := o.actions.Current(sess.ID); pending != nil {
		result.PendingAction = pending
		o.hub.Publish(Event{Type: EventActionPending, SessionID: sess.ID, ActionID: pending.ID.String()})
	}

	if err := o.store.TouchSession(ctx, sess.ID); err != nil {
		metrics.WarnWithContext(ctx, "Session touch failed", map[string]interface{}{
			"error": err.Error(),
		})
	}

	metrics.RecordTurn("completed", duration)
	o.hub.Publish(Event{Type: EventMessage, SessionID: sess.ID, MessageID: placeholder.ID})
	return result, nil
}

/* resolvePlaceholder fills the loading placeholder. Runs on a context
 * detached from turn cancellation: the placeholder must never be left
 * loading. */
func (o *Orchestrator) resolvePlaceholder(ctx context.Context, placeholder *db.Message, content *string, errorText *string, toolResults db.ToolResultList) {
	resolveCtx := context.WithoutCancel(ctx)
	if err := o.store.ResolveMessage(resolveCtx, placeholder.ID, content, errorText, toolResults); err != nil {
		metrics.ErrorWithContext(ctx, "Placeholder resolution failed", err, map[string]interface{}{
			"message_id": placeholder.ID,
		})
		return
	}
	placeholder.Loading = false
	placeholder.Content = content
	placeholder.ErrorText = errorText
	placeholder.ToolResults = toolResults
}

func (o *Orchestrator) recordThinking(sessionID uuid.UUID, turn *turnState, step string) {
	o.mu.Lock()
	current := o.inflight[sessionID] == turn
	if current {
		o.thinking[sessionID] = append(o.thinking[sessionID], step)
	}
	o.mu.Unlock()

	if current {
		o.hub.Publish(Event{Type: EventThinking, SessionID: sessionID, Step: step})
	}
}

/* ThinkingSteps returns the in-flight turn's intermediate steps. They
 * are ephemeral and vanish when the turn settles. */
func (o *Orchestrator) ThinkingSteps(sessionID uuid.UUID) []string {
	o.mu.Lock()
	defer o.mu.Unlock()
	steps := o.thinking[sessionID]
	out := make([]string, len(steps))
	copy(out, steps)
	return out
}

/* StopTurn cancels the session's in-flight turn, if any. The epoch is
 * untouched: the turn resolves its placeholder with a cancellation
 * notice rather than being silently discarded. */
func (o *Orchestrator) StopTurn(sessionID uuid.UUID) bool {
	o.mu.Lock()
	turn := o.inflight[sessionID]
	o.mu.Unlock()

	if turn == nil {
		return false
	}
	turn.cancel()
	return true
}

/* CurrentAction returns the presented action for the session */
func (o *Orchestrator) CurrentAction(sessionID uuid.UUID) *stager.PendingAction {
	return o.actions.Current(sessionID)
}

/* ConfirmAction confirms the presented action and records the outcome in
 * the conversation transcript */
func (o *Orchestrator) ConfirmAction(ctx context.Context, tenantID string, actionID uuid.UUID, duplaConfirmacao bool) (*stager.Outcome, error) {
	action := o.actions.Get(actionID)
	if action == nil || action.TenantID != tenantID {
		return nil, db.ErrNotFound
	}

	outcome, err := o.actions.Confirm(ctx, actionID, duplaConfirmacao)
	if err != nil {
		return nil, err
	}

	o.appendActionOutcome(ctx, outcome)
	o.publishActionResolution(outcome)
	return outcome, nil
}

/* CancelAction cancels the presented action. Queued actions from the
 * same turn stay queued and the next one is presented. */
func (o *Orchestrator) CancelAction(ctx context.Context, tenantID string, actionID uuid.UUID) (*stager.Outcome, error) {
	action := o.actions.Get(actionID)
	if action == nil || action.TenantID != tenantID {
		return nil, db.ErrNotFound
	}

	outcome, err := o.actions.Cancel(ctx, actionID)
	if err != nil {
		return nil, err
	}

	o.appendActionOutcome(ctx, outcome)
	o.publishActionResolution(outcome)
	return outcome, nil
}

func (o *Orchestrator) appendActionOutcome(ctx context.Context, outcome *stager.Outcome) {
	action := outcome.Action

	msg := &db.Message{SessionID: action.SessionID, Role: db.RoleAssistant}
	switch {
	case action.Status == stager.StatusCancelled:
		msg.Content = stringPtr(fmt.Sprintf("Ação cancelada: %s em %s.",
			actionVerb(action.Proposed.Kind), action.Proposed.Table))
	case outcome.ExecErr != nil:
		msg.ErrorText = stringPtr(fmt.Sprintf("Não foi possível %s em %s: %s.",
			actionVerb(action.Proposed.Kind), action.Proposed.Table,
			execErrorNotice(outcome.ExecErr)))
	default:
		msg.Content = stringPtr(fmt.Sprintf("Ação executada: %s em %s.",
			actionVerb(action.Proposed.Kind), action.Proposed.Table))
	}

	/* The session may have been archived meanwhile; the outcome is
	 * already in the action log, so a rejected append is only warned */
	if err := o.store.AppendMessage(ctx, msg); err != nil {
		metrics.WarnWithContext(ctx, "Action outcome not recorded in transcript", map[string]interface{}{
			"action_id": action.ID.String(),
			"error":     err.Error(),
		})
		return
	}
	o.hub.Publish(Event{Type: EventMessage, SessionID: action.SessionID, MessageID: msg.ID})
}

func (o *Orchestrator) publishActionResolution(outcome *stager.Outcome) {
	action := outcome.Action

	result := string(action.Status)
	if outcome.ExecErr != nil {
		result = stager.ClassifyExecError(outcome.ExecErr)
	}
	o.hub.Publish(Event{
		Type:      EventActionResolved,
		SessionID: action.SessionID,
		ActionID:  action.ID.String(),
		Outcome:   result,
	})

	if next := o.actions.Current(action.SessionID); next != nil {
		o.hub.Publish(Event{Type: EventActionPending, SessionID: action.SessionID, ActionID: next.ID.String()})
	}
}

/* ClearChat archives the active session and discards everything tied to
 * it: staged actions, the in-flight turn, and pending agent replies */
func (o *Orchestrator) ClearChat(ctx context.Context, tenantID, userID string) error {
	sess, err := o.store.ActiveSession(ctx, tenantID, userID)
	if errors.Is(err, db.ErrNoActiveSession) {
		return nil
	}
	if err != nil {
		return err
	}

	o.invalidateSession(sess.ID)
	o.actions.ClearSession(ctx, sess.ID)

	if err := o.store.ArchiveSession(ctx, tenantID, sess.ID); err != nil {
		return err
	}

	o.hub.Publish(Event{Type: EventCancelled, SessionID: sess.ID})
	metrics.InfoWithContext(ctx, "Chat cleared", map[string]interface{}{
		"session_id": sess.ID.String(),
	})
	return nil
}

/* SwitchSession moves the active pointer to another session. A turn
 * still in flight for the previous session is invalidated: its reply
 * will be discarded as stale. */
func (o *Orchestrator) SwitchSession(ctx context.Context, tenantID, userID string, id uuid.UUID) (*db.Session, error) {
	target, err := o.store.GetSession(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if target.Archived {
		return nil, fmt.Errorf("session is archived: session_id='%s', error=%w", id.String(), db.ErrNotFound)
	}

	current, err := o.store.ActiveSession(ctx, tenantID, userID)
	if err != nil && !errors.Is(err, db.ErrNoActiveSession) {
		return nil, err
	}
	if current != nil && current.ID != id {
		o.invalidateSession(current.ID)
	}

	if err := o.store.SwitchActiveSession(ctx, tenantID, userID, id); err != nil {
		return nil, err
	}
	return target, nil
}

func (o *Orchestrator) invalidateSession(id uuid.UUID) {
	o.mu.Lock()
	o.epochs[id]++
	if turn := o.inflight[id]; turn != nil {
		turn.cancel()
	}
	delete(o.thinking, id)
	o.mu.Unlock()
}

func (o *Orchestrator) loadHistory(ctx context.Context, sessionID uuid.UUID) ([]agentclient.HistoryMessage, error) {
	messages, err := o.store.GetRecentMessages(ctx, sessionID, o.maxHistory)
	if err != nil {
		return nil, fmt.Errorf("history load failed: session_id='%s', error=%w", sessionID.String(), err)
	}

	history := make([]agentclient.HistoryMessage, 0, len(messages))
	for _, msg := range messages {
		if msg.Loading || msg.Content == nil {
			continue
		}
		history = append(history, agentclient.HistoryMessage{Role: msg.Role, Content: *msg.Content})
	}
	return history, nil
}

func actionVerb(kind stager.Kind) string {
	switch kind {
	case stager.KindInsert:
		return "criar registro"
	case stager.KindUpdate:
		return "atualizar registro"
	case stager.KindDelete:
		return "excluir registro"
	}
	return "executar ação"
}

func execErrorNotice(err error) string {
	switch stager.ClassifyExecError(err) {
	case "mutation_validation":
		return "os dados informados são inválidos"
	case "mutation_not_found":
		return "o registro não foi encontrado"
	case "mutation_permission_denied":
		return "o escritório não tem permissão para esta operação"
	}
	return "ocorreu um erro inesperado"
}

func stringPtr(s string) *string {
	return &s
}
