/*-------------------------------------------------------------------------
 *
 * feedback_test.go
 *    Tests for the feedback and retry loop
 *
 * Copyright (c) 2024-2026, Zyra Tecnologia Ltda. <dev@zyra.app.br>
 *
 * IDENTIFICATION
 *    internal/humanloop/feedback_test.go
 *
 *-------------------------------------------------------------------------
 */

package humanloop

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"

	"github.com/victorbarbieri91/zyra-comando/internal/db"
)

type fakeFeedbackStore struct {
	mu       sync.Mutex
	messages map[int64]*db.Message
	sessions map[uuid.UUID]*db.Session
	feedback map[int64]*db.FeedbackRecord
	nextID   int64
}

func newFakeFeedbackStore() *fakeFeedbackStore {
	return &fakeFeedbackStore{
		messages: make(map[int64]*db.Message),
		sessions: make(map[uuid.UUID]*db.Session),
		feedback: make(map[int64]*db.FeedbackRecord),
	}
}

func (s *fakeFeedbackStore) addAssistantMessage(tenantID string) *db.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	sessionID := uuid.New()
	s.sessions[sessionID] = &db.Session{ID: sessionID, TenantID: tenantID}
	s.nextID++
	content := "resposta"
	msg := &db.Message{ID: s.nextID, SessionID: sessionID, Role: db.RoleAssistant, Content: &content}
	s.messages[msg.ID] = msg
	return msg
}

func (s *fakeFeedbackStore) GetMessageByID(ctx context.Context, id int64) (*db.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	msg, ok := s.messages[id]
	if !ok {
		return nil, db.ErrNotFound
	}
	return msg, nil
}

func (s *fakeFeedbackStore) GetSession(ctx context.Context, tenantID string, id uuid.UUID) (*db.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok || sess.TenantID != tenantID {
		return nil, db.ErrNotFound
	}
	return sess, nil
}

func (s *fakeFeedbackStore) InsertFeedback(ctx context.Context, feedback *db.FeedbackRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.feedback[feedback.MessageID]; exists {
		return db.ErrFeedbackConflict
	}
	s.feedback[feedback.MessageID] = feedback
	return nil
}

func (s *fakeFeedbackStore) GetFeedbackForMessage(ctx context.Context, messageID int64) (*db.FeedbackRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.feedback[messageID], nil
}

type resubmitCall struct {
	sessionID uuid.UUID
	messageID int64
	correcao  string
}

type fakeResubmitter struct {
	mu    sync.Mutex
	calls []resubmitCall
	err   error
	gate  chan struct{}
}

func (r *fakeResubmitter) Resubmit(ctx context.Context, tenantID string, sessionID uuid.UUID, assistantMessageID int64, correcao string) error {
	if r.gate != nil {
		<-r.gate
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, resubmitCall{sessionID, assistantMessageID, correcao})
	return r.err
}

func (r *fakeResubmitter) callCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.calls)
}

func TestPositiveFeedbackRecordedOnce(t *testing.T) {
	store := newFakeFeedbackStore()
	resubmitter := &fakeResubmitter{}
	manager := NewFeedbackManager(store, resubmitter)

	msg := store.addAssistantMessage("t1")

	record, err := manager.SubmitFeedback(context.Background(), "t1", msg.ID, db.FeedbackPositivo, nil)
	if err != nil {
		t.Fatalf("feedback failed: %v", err)
	}
	if record.Kind != db.FeedbackPositivo {
		t.Errorf("unexpected kind: %s", record.Kind)
	}

	stored, err := manager.FeedbackFor(context.Background(), "t1", msg.ID)
	if err != nil {
		t.Fatalf("feedback lookup failed: %v", err)
	}
	if stored == nil || stored.Kind != db.FeedbackPositivo {
		t.Errorf("expected stored positive feedback, got %v", stored)
	}

	if _, err := manager.SubmitFeedback(context.Background(), "t1", msg.ID, db.FeedbackNegativo, stringPtr("errado")); !errors.Is(err, db.ErrFeedbackConflict) {
		t.Errorf("expected conflict on second submission, got %v", err)
	}
	if resubmitter.callCount() != 0 {
		t.Error("conflicting submission must not trigger a retry")
	}
}

func TestNegativeWithoutTextLeavesMessageOpen(t *testing.T) {
	store := newFakeFeedbackStore()
	resubmitter := &fakeResubmitter{}
	manager := NewFeedbackManager(store, resubmitter)

	msg := store.addAssistantMessage("t1")

	record, err := manager.SubmitFeedback(context.Background(), "t1", msg.ID, db.FeedbackNegativo, stringPtr("   "))
	if err != nil || record != nil {
		t.Fatalf("expected silent no-op, got record=%v err=%v", record, err)
	}
	if resubmitter.callCount() != 0 {
		t.Error("no-op feedback must not trigger a retry")
	}
	if stored, err := manager.FeedbackFor(context.Background(), "t1", msg.ID); err != nil || stored != nil {
		t.Errorf("expected no stored feedback, got record=%v err=%v", stored, err)
	}

	/* The message is still open for real feedback */
	if _, err := manager.SubmitFeedback(context.Background(), "t1", msg.ID, db.FeedbackPositivo, nil); err != nil {
		t.Errorf("message should still accept feedback: %v", err)
	}
}

func TestNegativeWithCorrectionRetriesExactlyOnce(t *testing.T) {
	store := newFakeFeedbackStore()
	resubmitter := &fakeResubmitter{}
	manager := NewFeedbackManager(store, resubmitter)

	msg := store.addAssistantMessage("t1")

	record, err := manager.SubmitFeedback(context.Background(), "t1", msg.ID, db.FeedbackNegativo, stringPtr("o prazo correto é 15 dias"))
	if err != nil {
		t.Fatalf("feedback failed: %v", err)
	}
	if record.Correction == nil || *record.Correction != "o prazo correto é 15 dias" {
		t.Errorf("correction not recorded: %v", record.Correction)
	}

	if resubmitter.callCount() != 1 {
		t.Fatalf("expected exactly one retry, got %d", resubmitter.callCount())
	}
	call := resubmitter.calls[0]
	if call.messageID != msg.ID || call.sessionID != msg.SessionID || call.correcao != "o prazo correto é 15 dias" {
		t.Errorf("unexpected retry call: %+v", call)
	}
}

func TestRetryFailureDoesNotRetryAgain(t *testing.T) {
	store := newFakeFeedbackStore()
	resubmitter := &fakeResubmitter{err: errors.New("turn in flight")}
	manager := NewFeedbackManager(store, resubmitter)

	msg := store.addAssistantMessage("t1")

	if _, err := manager.SubmitFeedback(context.Background(), "t1", msg.ID, db.FeedbackNegativo, stringPtr("correção")); err != nil {
		t.Fatalf("feedback should be recorded even when the retry fails: %v", err)
	}
	if resubmitter.callCount() != 1 {
		t.Errorf("expected a single retry attempt, got %d", resubmitter.callCount())
	}
}

func TestConcurrentSubmissionsFirstWins(t *testing.T) {
	store := newFakeFeedbackStore()
	resubmitter := &fakeResubmitter{}
	manager := NewFeedbackManager(store, resubmitter)

	msg := store.addAssistantMessage("t1")

	var wg sync.WaitGroup
	errs := make([]error, 8)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = manager.SubmitFeedback(context.Background(), "t1", msg.ID, db.FeedbackNegativo, stringPtr("correção"))
		}(i)
	}
	wg.Wait()

	successes := 0
	for _, err := range errs {
		switch {
		case err == nil:
			successes++
		case errors.Is(err, db.ErrFeedbackConflict):
		default:
			t.Errorf("unexpected error: %v", err)
		}
	}
	if successes != 1 {
		t.Errorf("expected exactly one winning submission, got %d", successes)
	}
	if resubmitter.callCount() != 1 {
		t.Errorf("expected exactly one retry, got %d", resubmitter.callCount())
	}
}

func TestFeedbackTargetValidation(t *testing.T) {
	store := newFakeFeedbackStore()
	manager := NewFeedbackManager(store, &fakeResubmitter{})

	msg := store.addAssistantMessage("t1")

	/* Wrong tenant */
	if _, err := manager.SubmitFeedback(context.Background(), "t2", msg.ID, db.FeedbackPositivo, nil); !errors.Is(err, db.ErrNotFound) {
		t.Errorf("expected not found for foreign tenant, got %v", err)
	}

	/* User messages and loading placeholders are not rateable */
	store.mu.Lock()
	store.nextID++
	userMsg := &db.Message{ID: store.nextID, SessionID: msg.SessionID, Role: db.RoleUser}
	store.messages[userMsg.ID] = userMsg
	store.nextID++
	loading := &db.Message{ID: store.nextID, SessionID: msg.SessionID, Role: db.RoleAssistant, Loading: true}
	store.messages[loading.ID] = loading
	store.mu.Unlock()

	if _, err := manager.SubmitFeedback(context.Background(), "t1", userMsg.ID, db.FeedbackPositivo, nil); !errors.Is(err, ErrInvalidTarget) {
		t.Errorf("expected invalid target for user message, got %v", err)
	}
	if _, err := manager.SubmitFeedback(context.Background(), "t1", loading.ID, db.FeedbackPositivo, nil); !errors.Is(err, ErrInvalidTarget) {
		t.Errorf("expected invalid target for loading placeholder, got %v", err)
	}

	/* Correction kind requires text */
	if _, err := manager.SubmitFeedback(context.Background(), "t1", msg.ID, db.FeedbackCorrecao, nil); !errors.Is(err, ErrMissingText) {
		t.Errorf("expected missing text error, got %v", err)
	}

	/* Unknown kind */
	if _, err := manager.SubmitFeedback(context.Background(), "t1", msg.ID, "neutro", nil); !errors.Is(err, ErrInvalidKind) {
		t.Errorf("expected invalid kind error, got %v", err)
	}
}

func stringPtr(s string) *string { return &s }
