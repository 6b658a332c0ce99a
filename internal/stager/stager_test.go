/*-------------------------------------------------------------------------
 *
 * stager_test.go
 *    Tests for the action stager and confirmation gate
 *
 * Copyright (c) 2024-2026, Zyra Tecnologia Ltda. <dev@zyra.app.br>
 *
 * IDENTIFICATION
 *    internal/stager/stager_test.go
 *
 *-------------------------------------------------------------------------
 */

package stager

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/google/uuid"

	"github.com/victorbarbieri91/zyra-comando/internal/datastore"
)

type executedCall struct {
	kind  Kind
	table string
	id    interface{}
}

type fakeExecutor struct {
	calls []executedCall
	err   error
}

func (f *fakeExecutor) Execute(ctx context.Context, action *PendingAction) error {
	call := executedCall{kind: action.Proposed.Kind, table: action.Proposed.Table}
	switch action.Proposed.Kind {
	case KindDelete:
		call.id = action.Proposed.Registro["id"]
	case KindUpdate:
		call.id = action.Proposed.Antes["id"]
	}
	f.calls = append(f.calls, call)
	return f.err
}

func insertAction(table, name string) ProposedAction {
	return ProposedAction{
		Kind:  KindInsert,
		Table: table,
		Dados: map[string]interface{}{"nome": name},
	}
}

/* TestFIFOPresentation stages A, B, C and checks presentation order */
func TestFIFOPresentation(t *testing.T) {
	exec := &fakeExecutor{}
	s := New(exec, nil)
	ctx := context.Background()
	sessionID := uuid.New()

	a, err := s.Stage(ctx, "t1", sessionID, insertAction("clientes", "A"))
	if err != nil {
		t.Fatalf("stage A failed: %v", err)
	}
	b, err := s.Stage(ctx, "t1", sessionID, insertAction("processos", "B"))
	if err != nil {
		t.Fatalf("stage B failed: %v", err)
	}
	c, err := s.Stage(ctx, "t1", sessionID, ProposedAction{
		Kind:     KindDelete,
		Table:    "agenda",
		Registro: map[string]interface{}{"id": "9", "nome": "C"},
	})
	if err != nil {
		t.Fatalf("stage C failed: %v", err)
	}

	if current := s.Current(sessionID); current == nil || current.ID != a.ID {
		t.Fatalf("expected A presented first, got %v", current)
	}
	if a.Status != StatusPresented {
		t.Errorf("expected A presented, got %s", a.Status)
	}
	if b.Status != StatusQueued || c.Status != StatusQueued {
		t.Errorf("expected B and C queued, got %s and %s", b.Status, c.Status)
	}
	if got := s.QueueLength(sessionID); got != 3 {
		t.Errorf("expected queue length 3, got %d", got)
	}

	/* Cancelling A presents B regardless of any property of B or C */
	if _, err := s.Cancel(ctx, a.ID); err != nil {
		t.Fatalf("cancel A failed: %v", err)
	}
	if current := s.Current(sessionID); current == nil || current.ID != b.ID {
		t.Fatalf("expected B presented after cancelling A, got %v", current)
	}

	/* Confirming B presents C */
	if _, err := s.Confirm(ctx, b.ID, false); err != nil {
		t.Fatalf("confirm B failed: %v", err)
	}
	if current := s.Current(sessionID); current == nil || current.ID != c.ID {
		t.Fatalf("expected C presented after confirming B, got %v", current)
	}
}

/* TestConfirmRequiresPresented rejects confirming a queued action */
func TestConfirmRequiresPresented(t *testing.T) {
	s := New(&fakeExecutor{}, nil)
	ctx := context.Background()
	sessionID := uuid.New()

	if _, err := s.Stage(ctx, "t1", sessionID, insertAction("clientes", "A")); err != nil {
		t.Fatalf("stage A failed: %v", err)
	}
	b, err := s.Stage(ctx, "t1", sessionID, insertAction("clientes", "B"))
	if err != nil {
		t.Fatalf("stage B failed: %v", err)
	}

	if _, err := s.Confirm(ctx, b.ID, false); !errors.Is(err, ErrNotPresented) {
		t.Errorf("expected ErrNotPresented for queued action, got %v", err)
	}
}

/* TestDeleteSafety blocks delete confirmation without the acknowledgment */
func TestDeleteSafety(t *testing.T) {
	exec := &fakeExecutor{}
	s := New(exec, nil)
	ctx := context.Background()
	sessionID := uuid.New()

	action, err := s.Stage(ctx, "t1", sessionID, ProposedAction{
		Kind:        KindDelete,
		Table:       "clientes",
		Explanation: "Excluir o cliente Acme",
		Registro:    map[string]interface{}{"id": "42", "nome": "Acme"},
	})
	if err != nil {
		t.Fatalf("stage failed: %v", err)
	}

	/* Confirm without the checkbox is blocked */
	if _, err := s.Confirm(ctx, action.ID, false); !errors.Is(err, ErrDeleteNotAcknowledged) {
		t.Fatalf("expected ErrDeleteNotAcknowledged, got %v", err)
	}
	if len(exec.calls) != 0 {
		t.Fatalf("expected no execution while blocked, got %d calls", len(exec.calls))
	}
	if current := s.Current(sessionID); current == nil || current.ID != action.ID {
		t.Fatalf("expected action to remain presented after blocked confirm")
	}

	/* Setting the checkbox then confirming executes exactly one delete for id 42 */
	outcome, err := s.Confirm(ctx, action.ID, true)
	if err != nil {
		t.Fatalf("confirm with acknowledgment failed: %v", err)
	}
	if outcome.ExecErr != nil {
		t.Fatalf("unexpected execution error: %v", outcome.ExecErr)
	}
	if len(exec.calls) != 1 {
		t.Fatalf("expected exactly one delete call, got %d", len(exec.calls))
	}
	if exec.calls[0].kind != KindDelete || exec.calls[0].table != "clientes" || exec.calls[0].id != "42" {
		t.Errorf("unexpected delete call: %+v", exec.calls[0])
	}
	if current := s.Current(sessionID); current != nil {
		t.Errorf("expected action out of the queue, got %v", current)
	}
}

/* TestCancelClearsAcknowledgment clears the checkbox state on cancel */
func TestCancelClearsAcknowledgment(t *testing.T) {
	s := New(&fakeExecutor{}, nil)
	ctx := context.Background()
	sessionID := uuid.New()

	action, err := s.Stage(ctx, "t1", sessionID, ProposedAction{
		Kind:     KindDelete,
		Table:    "clientes",
		Registro: map[string]interface{}{"id": "7"},
	})
	if err != nil {
		t.Fatalf("stage failed: %v", err)
	}
	action.DoubleConfirm = true

	outcome, err := s.Cancel(ctx, action.ID)
	if err != nil {
		t.Fatalf("cancel failed: %v", err)
	}
	if outcome.Action.DoubleConfirm {
		t.Error("expected acknowledgment cleared on cancel")
	}
	if outcome.Action.Status != StatusCancelled {
		t.Errorf("expected cancelled status, got %s", outcome.Action.Status)
	}
}

/* TestConfirmFailureIsTerminal keeps a failed execution out of the queue */
func TestConfirmFailureIsTerminal(t *testing.T) {
	exec := &fakeExecutor{err: fmt.Errorf("row gone: %w", datastore.ErrNotFound)}
	s := New(exec, nil)
	ctx := context.Background()
	sessionID := uuid.New()

	action, err := s.Stage(ctx, "t1", sessionID, insertAction("clientes", "A"))
	if err != nil {
		t.Fatalf("stage failed: %v", err)
	}

	outcome, err := s.Confirm(ctx, action.ID, false)
	if err != nil {
		t.Fatalf("confirm failed: %v", err)
	}
	if outcome.ExecErr == nil {
		t.Fatal("expected execution error")
	}
	if ClassifyExecError(outcome.ExecErr) != "mutation_not_found" {
		t.Errorf("expected mutation_not_found, got %s", ClassifyExecError(outcome.ExecErr))
	}
	/* The action does not return to presented for retry */
	if current := s.Current(sessionID); current != nil {
		t.Errorf("expected empty queue after failed confirm, got %v", current)
	}
	if action.Status != StatusConfirmed {
		t.Errorf("expected confirmed (attempted) status, got %s", action.Status)
	}
}

/* TestValidatePayloadShape enforces the exactly-one-of invariant */
func TestValidatePayloadShape(t *testing.T) {
	cases := []ProposedAction{
		{Kind: KindInsert, Table: "clientes"},
		{Kind: KindInsert, Table: "clientes", Dados: map[string]interface{}{"a": 1}, Registro: map[string]interface{}{"id": 1}},
		{Kind: KindUpdate, Table: "clientes", Antes: map[string]interface{}{"id": 1}},
		{Kind: KindDelete, Table: "clientes", Dados: map[string]interface{}{"a": 1}},
		{Kind: "merge", Table: "clientes", Dados: map[string]interface{}{"a": 1}},
		{Kind: KindInsert, Dados: map[string]interface{}{"a": 1}},
	}
	for i, proposed := range cases {
		if err := proposed.Validate(); !errors.Is(err, ErrInvalidAction) {
			t.Errorf("case %d: expected ErrInvalidAction, got %v", i, err)
		}
	}
}

/* TestClearSession discards presented and queued actions */
func TestClearSession(t *testing.T) {
	s := New(&fakeExecutor{}, nil)
	ctx := context.Background()
	sessionID := uuid.New()

	a, _ := s.Stage(ctx, "t1", sessionID, insertAction("clientes", "A"))
	b, _ := s.Stage(ctx, "t1", sessionID, insertAction("clientes", "B"))

	s.ClearSession(ctx, sessionID)

	if s.Current(sessionID) != nil {
		t.Error("expected empty queue after clear")
	}
	if a.Status != StatusCancelled || b.Status != StatusCancelled {
		t.Errorf("expected cancelled statuses, got %s and %s", a.Status, b.Status)
	}
	if s.Get(a.ID) != nil || s.Get(b.ID) != nil {
		t.Error("expected cleared actions to be unreachable by ID")
	}
	if got := s.QueueLength(sessionID); got != 0 {
		t.Errorf("expected queue length 0 after clear, got %d", got)
	}
}
