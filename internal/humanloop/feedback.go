/*-------------------------------------------------------------------------
 *
 * feedback.go
 *    User feedback on assistant responses
 *
 * Feedback is write-once per assistant message. A negative rating that
 * carries correction text re-runs the original request exactly once,
 * with the correction attached for the agent.
 *
 * Copyright (c) 2024-2026, Zyra Tecnologia Ltda. <dev@zyra.app.br>
 *
 * IDENTIFICATION
 *    internal/humanloop/feedback.go
 *
 *-------------------------------------------------------------------------
 */

package humanloop

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/victorbarbieri91/zyra-comando/internal/db"
	"github.com/victorbarbieri91/zyra-comando/internal/metrics"
)

var (
	ErrInvalidKind   = errors.New("unknown feedback kind")
	ErrInvalidTarget = errors.New("feedback target is not a settled assistant message")
	ErrMissingText   = errors.New("correction feedback requires text")
)

/* Store is the persistence surface the feedback loop needs.
 * *db.Queries satisfies it. */
type Store interface {
	GetMessageByID(ctx context.Context, id int64) (*db.Message, error)
	GetSession(ctx context.Context, tenantID string, id uuid.UUID) (*db.Session, error)
	InsertFeedback(ctx context.Context, feedback *db.FeedbackRecord) error
	GetFeedbackForMessage(ctx context.Context, messageID int64) (*db.FeedbackRecord, error)
}

/* Resubmitter re-runs the request that produced an assistant message.
 * The orchestrator satisfies it. */
type Resubmitter interface {
	Resubmit(ctx context.Context, tenantID string, sessionID uuid.UUID, assistantMessageID int64, correcao string) error
}

type FeedbackManager struct {
	store    Store
	resubmit Resubmitter

	mu       sync.Mutex
	inflight map[int64]bool
}

func NewFeedbackManager(store Store, resubmit Resubmitter) *FeedbackManager {
	return &FeedbackManager{
		store:    store,
		resubmit: resubmit,
		inflight: make(map[int64]bool),
	}
}

/* SubmitFeedback records feedback on an assistant message.
 *
 * Negative feedback with an empty correction is a no-op: the message
 * stays open so the user can come back with a correction. A second
 * submission for the same message returns db.ErrFeedbackConflict. */
func (m *FeedbackManager) SubmitFeedback(ctx context.Context, tenantID string, messageID int64, kind string, correcao *string) (*db.FeedbackRecord, error) {
	text := ""
	if correcao != nil {
		text = strings.TrimSpace(*correcao)
	}

	switch kind {
	case db.FeedbackPositivo:
	case db.FeedbackCorrecao:
		if text == "" {
			return nil, ErrMissingText
		}
	case db.FeedbackNegativo:
		if text == "" {
			/* Leave the message open for a later correction */
			return nil, nil
		}
	default:
		return nil, fmt.Errorf("feedback rejected: kind='%s', error=%w", kind, ErrInvalidKind)
	}

	/* First submission wins; concurrent ones conflict */
	m.mu.Lock()
	if m.inflight[messageID] {
		m.mu.Unlock()
		return nil, db.ErrFeedbackConflict
	}
	m.inflight[messageID] = true
	m.mu.Unlock()

	defer func() {
		m.mu.Lock()
		delete(m.inflight, messageID)
		m.mu.Unlock()
	}()

	message, err := m.validateTarget(ctx, tenantID, messageID)
	if err != nil {
		return nil, err
	}

	record := &db.FeedbackRecord{MessageID: messageID, Kind: kind}
	if text != "" {
		record.Correction = &text
	}
	if err := m.store.InsertFeedback(ctx, record); err != nil {
		return nil, err
	}
	metrics.RecordFeedback(kind)

	if kind == db.FeedbackNegativo {
		m.retryOnce(ctx, tenantID, message, text)
	}
	return record, nil
}

/* FeedbackFor returns the recorded feedback for a message, nil when the
 * message is still open */
func (m *FeedbackManager) FeedbackFor(ctx context.Context, tenantID string, messageID int64) (*db.FeedbackRecord, error) {
	if _, err := m.validateTarget(ctx, tenantID, messageID); err != nil {
		return nil, err
	}
	return m.store.GetFeedbackForMessage(ctx, messageID)
}

func (m *FeedbackManager) validateTarget(ctx context.Context, tenantID string, messageID int64) (*db.Message, error) {
	message, err := m.store.GetMessageByID(ctx, messageID)
	if err != nil {
		return nil, err
	}
	if message.Role != db.RoleAssistant || message.Loading {
		return nil, ErrInvalidTarget
	}

	/* Tenant check goes through the owning session */
	if _, err := m.store.GetSession(ctx, tenantID, message.SessionID); err != nil {
		return nil, err
	}
	return message, nil
}

/* retryOnce re-runs the original request with the correction attached.
 * The feedback is already recorded; a failed retry is logged, never a
 * second attempt. */
func (m *FeedbackManager) retryOnce(ctx context.Context, tenantID string, message *db.Message, correcao string) {
	metrics.RecordFeedbackRetry()

	err := m.resubmit.Resubmit(ctx, tenantID, message.SessionID, message.ID, correcao)
	if err != nil {
		metrics.WarnWithContext(ctx, "Feedback retry failed", map[string]interface{}{
			"message_id": message.ID,
			"error":      err.Error(),
		})
	}
}
