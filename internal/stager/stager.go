/*-------------------------------------------------------------------------
 *
 * stager.go
 *    Action stager and confirmation gate
 *
 * Holds proposed mutations in a strict FIFO queue per session. The head
 * of the queue is the presented action; confirming or cancelling it is
 * terminal and promotes the next queued action. Deletes cannot be
 * confirmed without the double-confirmation acknowledgment.
 *
 * Copyright (c) 2024-2026, Zyra Tecnologia Ltda. <dev@zyra.app.br>
 *
 * IDENTIFICATION
 *    internal/stager/stager.go
 *
 *-------------------------------------------------------------------------
 */

package stager

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/victorbarbieri91/zyra-comando/internal/datastore"
	"github.com/victorbarbieri91/zyra-comando/internal/metrics"
)

/* Executor applies a confirmed action to the data store */
type Executor interface {
	Execute(ctx context.Context, action *PendingAction) error
}

/* AuditLog records the lifecycle of staged actions */
type AuditLog interface {
	RecordStaged(ctx context.Context, action *PendingAction) error
	RecordResolved(ctx context.Context, id uuid.UUID, status Status, execErr error) error
}

/* Outcome is the result of disposing of a presented action */
type Outcome struct {
	Action   *PendingAction
	Executed bool
	ExecErr  error
}

type Stager struct {
	exec  Executor
	audit AuditLog

	mu     sync.Mutex
	queues map[uuid.UUID][]*PendingAction
	byID   map[uuid.UUID]*PendingAction
}

func New(exec Executor, audit AuditLog) *Stager {
	return &Stager{
		exec:   exec,
		audit:  audit,
		queues: make(map[uuid.UUID][]*PendingAction),
		byID:   make(map[uuid.UUID]*PendingAction),
	}
}

/* Stage enqueues a proposed action; the queue head is promoted to presented */
func (s *Stager) Stage(ctx context.Context, tenantID string, sessionID uuid.UUID, proposed ProposedAction) (*PendingAction, error) {
	if err := proposed.Validate(); err != nil {
		return nil, err
	}

	action := &PendingAction{
		ID:         uuid.New(),
		SessionID:  sessionID,
		TenantID:   tenantID,
		Proposed:   proposed,
		Status:     StatusQueued,
		ProposedAt: time.Now().UTC(),
	}
	if proposed.Kind == KindUpdate {
		action.Changes = ComputeChanges(proposed.Antes, proposed.Depois)
	}

	s.mu.Lock()
	s.queues[sessionID] = append(s.queues[sessionID], action)
	s.byID[action.ID] = action
	s.promoteLocked(sessionID)
	s.mu.Unlock()

	metrics.RecordActionStaged(string(proposed.Kind))
	if s.audit != nil {
		if err := s.audit.RecordStaged(ctx, action); err != nil {
			metrics.WarnWithContext(ctx, "Failed to audit staged action", map[string]interface{}{
				"action_id": action.ID.String(),
				"error":     err.Error(),
			})
		}
	}
	return action, nil
}

/* Current returns the presented action for a session, or nil */
func (s *Stager) Current(sessionID uuid.UUID) *PendingAction {
	s.mu.Lock()
	defer s.mu.Unlock()
	queue := s.queues[sessionID]
	if len(queue) == 0 {
		return nil
	}
	return queue[0]
}

/* Get returns an action by ID, or nil */
func (s *Stager) Get(id uuid.UUID) *PendingAction {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.byID[id]
}

/* QueueLength returns the number of still-pending actions for a session */
func (s *Stager) QueueLength(sessionID uuid.UUID) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.queues[sessionID])
}

/* Confirm disposes of the presented action, executing it against the store.
 *
 * A delete is blocked unless duplaConfirmacao is set; the action stays
 * presented. Otherwise the action transitions to confirmed before
 * execution and never returns to presented, even on execution failure. */
func (s *Stager) Confirm(ctx context.Context, id uuid.UUID, duplaConfirmacao bool) (*Outcome, error) {
	s.mu.Lock()
	action, err := s.presentedLocked(id)
	if err != nil {
		s.mu.Unlock()
		return nil, err
	}

	if action.Proposed.Kind == KindDelete && !duplaConfirmacao {
		s.mu.Unlock()
		metrics.RecordDeleteConfirmBlocked()
		return nil, fmt.Errorf("delete confirmation blocked: action_id='%s', table='%s', %w",
			action.ID.String(), action.Proposed.Table, ErrDeleteNotAcknowledged)
	}

	action.DoubleConfirm = duplaConfirmacao
	action.Status = StatusConfirmed
	s.removeLocked(action)
	s.mu.Unlock()

	outcome := &Outcome{Action: action, Executed: true}
	if s.exec != nil {
		outcome.ExecErr = s.exec.Execute(ctx, action)
	}

	outcomeLabel := "confirmed"
	if outcome.ExecErr != nil {
		outcomeLabel = "confirmed_failed"
	}
	metrics.RecordActionResolved(string(action.Proposed.Kind), outcomeLabel)

	if s.audit != nil {
		if err := s.audit.RecordResolved(ctx, action.ID, StatusConfirmed, outcome.ExecErr); err != nil {
			metrics.WarnWithContext(ctx, "Failed to audit resolved action", map[string]interface{}{
				"action_id": action.ID.String(),
				"error":     err.Error(),
			})
		}
	}
	return outcome, nil
}

/* Cancel disposes of the presented action without executing it.
 * Cancelling clears the double-confirmation acknowledgment. */
func (s *Stager) Cancel(ctx context.Context, id uuid.UUID) (*Outcome, error) {
	s.mu.Lock()
	action, err := s.presentedLocked(id)
	if err != nil {
		s.mu.Unlock()
		return nil, err
	}
	action.DoubleConfirm = false
	action.Status = StatusCancelled
	s.removeLocked(action)
	s.mu.Unlock()

	metrics.RecordActionResolved(string(action.Proposed.Kind), "cancelled")
	if s.audit != nil {
		if err := s.audit.RecordResolved(ctx, action.ID, StatusCancelled, nil); err != nil {
			metrics.WarnWithContext(ctx, "Failed to audit cancelled action", map[string]interface{}{
				"action_id": action.ID.String(),
				"error":     err.Error(),
			})
		}
	}
	return &Outcome{Action: action}, nil
}

/* ClearSession discards every still-pending action of a session */
func (s *Stager) ClearSession(ctx context.Context, sessionID uuid.UUID) {
	s.mu.Lock()
	queue := s.queues[sessionID]
	delete(s.queues, sessionID)
	for _, action := range queue {
		action.Status = StatusCancelled
		action.DoubleConfirm = false
		delete(s.byID, action.ID)
	}
	s.mu.Unlock()

	for _, action := range queue {
		metrics.RecordActionResolved(string(action.Proposed.Kind), "cancelled")
		if s.audit != nil {
			if err := s.audit.RecordResolved(ctx, action.ID, StatusCancelled, nil); err != nil {
				metrics.WarnWithContext(ctx, "Failed to audit cleared action", map[string]interface{}{
					"action_id": action.ID.String(),
					"error":     err.Error(),
				})
			}
		}
	}
}

func (s *Stager) presentedLocked(id uuid.UUID) (*PendingAction, error) {
	action := s.byID[id]
	if action == nil {
		return nil, fmt.Errorf("action disposition failed: action_id='%s', error=%w", id.String(), ErrNotPresented)
	}
	queue := s.queues[action.SessionID]
	if len(queue) == 0 || queue[0].ID != id {
		return nil, fmt.Errorf("action disposition failed: action_id='%s', error=%w", id.String(), ErrNotPresented)
	}
	return action, nil
}

func (s *Stager) removeLocked(action *PendingAction) {
	queue := s.queues[action.SessionID]
	if len(queue) > 0 && queue[0].ID == action.ID {
		queue = queue[1:]
	}
	if len(queue) == 0 {
		delete(s.queues, action.SessionID)
	} else {
		s.queues[action.SessionID] = queue
	}
	delete(s.byID, action.ID)
	s.promoteLocked(action.SessionID)
}

func (s *Stager) promoteLocked(sessionID uuid.UUID) {
	queue := s.queues[sessionID]
	if len(queue) > 0 && queue[0].Status == StatusQueued {
		queue[0].Status = StatusPresented
	}
}

/* ClassifyExecError maps an execution error onto the mutation taxonomy */
func ClassifyExecError(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, datastore.ErrValidation):
		return "mutation_validation"
	case errors.Is(err, datastore.ErrNotFound):
		return "mutation_not_found"
	case errors.Is(err, datastore.ErrPermissionDenied):
		return "mutation_permission_denied"
	default:
		return "mutation_unknown"
	}
}
