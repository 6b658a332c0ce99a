/*-------------------------------------------------------------------------
 *
 * queries.go
 *    Database queries for the Centro de Comando service
 *
 * Provides query functions for sessions, messages, feedback records,
 * and the staged-action audit log. All queries are tenant-scoped.
 *
 * Copyright (c) 2024-2026, Zyra Tecnologia Ltda. <dev@zyra.app.br>
 *
 * IDENTIFICATION
 *    internal/db/queries.go
 *
 *-------------------------------------------------------------------------
 */

package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

var (
	ErrNotFound         = errors.New("record not found")
	ErrNoActiveSession  = errors.New("no active session")
	ErrSessionNotActive = errors.New("session is no longer active")
	ErrFeedbackConflict = errors.New("feedback already recorded for message")
)

/* Session queries */
const (
	createSessionQuery = `
		INSERT INTO zyra_comando.sessions (id, tenant_id, user_id, title, active)
		VALUES ($1, $2, $3, $4, TRUE)
		RETURNING created_at, last_activity_at`

	deactivateSessionsQuery = `
		UPDATE zyra_comando.sessions
		SET active = FALSE
		WHERE tenant_id = $1 AND user_id = $2 AND active`

	getSessionQuery = `
		SELECT * FROM zyra_comando.sessions
		WHERE id = $1 AND tenant_id = $2`

	activeSessionQuery = `
		SELECT * FROM zyra_comando.sessions
		WHERE tenant_id = $1 AND user_id = $2 AND active AND NOT archived`

	/* Single statement so the active pointer moves atomically */
	switchActiveSessionQuery = `
		UPDATE zyra_comando.sessions
		SET active = (id = $3)
		WHERE tenant_id = $1 AND user_id = $2 AND (active OR id = $3) AND NOT archived`

	listSessionsQuery = `
		SELECT * FROM zyra_comando.sessions
		WHERE tenant_id = $1 AND user_id = $2
		ORDER BY last_activity_at DESC
		LIMIT $3 OFFSET $4`

	archiveSessionQuery = `
		UPDATE zyra_comando.sessions
		SET archived = TRUE, active = FALSE
		WHERE id = $1 AND tenant_id = $2`

	touchSessionQuery = `
		UPDATE zyra_comando.sessions
		SET last_activity_at = NOW()
		WHERE id = $1`

	deactivateIdleSessionsQuery = `
		UPDATE zyra_comando.sessions
		SET active = FALSE
		WHERE active AND last_activity_at < NOW() - $1::interval`
)

/* Message queries */
const (
	/* The WHERE EXISTS guard re-checks the active pointer at append time */
	appendMessageQuery = `
		INSERT INTO zyra_comando.messages (session_id, role, content, error_text, loading, tool_results)
		SELECT $1, $2, $3, $4, $5, $6::jsonb
		WHERE EXISTS (
			SELECT 1 FROM zyra_comando.sessions
			WHERE id = $1 AND active AND NOT archived
		)
		RETURNING id, created_at`

	resolveMessageQuery = `
		UPDATE zyra_comando.messages
		SET content = $2, error_text = $3, loading = FALSE, tool_results = $4::jsonb
		WHERE id = $1 AND loading`

	getMessagesQuery = `
		SELECT * FROM zyra_comando.messages
		WHERE session_id = $1
		ORDER BY id ASC
		LIMIT $2 OFFSET $3`

	getMessageByIDQuery = `SELECT * FROM zyra_comando.messages WHERE id = $1`

	recentMessagesQuery = `
		SELECT * FROM (
			SELECT * FROM zyra_comando.messages
			WHERE session_id = $1 AND NOT loading
			ORDER BY id DESC
			LIMIT $2
		) m ORDER BY id ASC`

	userMessageBeforeQuery = `
		SELECT * FROM zyra_comando.messages
		WHERE session_id = $1 AND role = 'user' AND id < $2
		ORDER BY id DESC
		LIMIT 1`
)

/* Feedback queries */
const (
	/* ON CONFLICT DO NOTHING makes the first write win under concurrency */
	insertFeedbackQuery = `
		INSERT INTO zyra_comando.feedback (message_id, kind, correction)
		VALUES ($1, $2, $3)
		ON CONFLICT (message_id) DO NOTHING
		RETURNING id, created_at`

	getFeedbackForMessageQuery = `
		SELECT * FROM zyra_comando.feedback WHERE message_id = $1`
)

/* Action audit queries */
const (
	insertActionRecordQuery = `
		INSERT INTO zyra_comando.action_log
		(id, session_id, tenant_id, kind, target_table, explanation, payload, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7::jsonb, $8)
		RETURNING created_at`

	resolveActionRecordQuery = `
		UPDATE zyra_comando.action_log
		SET status = $2, error_text = $3, resolved_at = NOW()
		WHERE id = $1 AND status = 'pending'`

	listActionRecordsQuery = `
		SELECT * FROM zyra_comando.action_log
		WHERE tenant_id = $1 AND ($2::uuid IS NULL OR session_id = $2)
		ORDER BY created_at DESC
		LIMIT $3 OFFSET $4`
)

type Queries struct {
	DB *sqlx.DB
}

func NewQueries(db *sqlx.DB) *Queries {
	return &Queries{DB: db}
}

/* CreateSession creates a new active session, deactivating any previous one */
func (q *Queries) CreateSession(ctx context.Context, session *Session) error {
	tx, err := q.DB.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("session creation failed: tenant_id='%s', error=%w", session.TenantID, err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, deactivateSessionsQuery, session.TenantID, session.UserID); err != nil {
		return fmt.Errorf("session creation failed (deactivate previous): tenant_id='%s', error=%w", session.TenantID, err)
	}

	if session.ID == uuid.Nil {
		session.ID = uuid.New()
	}
	row := tx.QueryRowxContext(ctx, createSessionQuery, session.ID, session.TenantID, session.UserID, session.Title)
	if err := row.Scan(&session.CreatedAt, &session.LastActivityAt); err != nil {
		return fmt.Errorf("session creation failed: tenant_id='%s', error=%w", session.TenantID, err)
	}
	session.Active = true

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("session creation failed (commit): tenant_id='%s', error=%w", session.TenantID, err)
	}
	return nil
}

/* GetSession retrieves a session by ID within a tenant */
func (q *Queries) GetSession(ctx context.Context, tenantID string, id uuid.UUID) (*Session, error) {
	var session Session
	err := q.DB.GetContext(ctx, &session, getSessionQuery, id, tenantID)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("session retrieval failed: session_id='%s', error=%w", id.String(), ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("session retrieval failed: session_id='%s', error=%w", id.String(), err)
	}
	return &session, nil
}

/* ActiveSession returns the user's active session, or ErrNoActiveSession */
func (q *Queries) ActiveSession(ctx context.Context, tenantID, userID string) (*Session, error) {
	var session Session
	err := q.DB.GetContext(ctx, &session, activeSessionQuery, tenantID, userID)
	if err == sql.ErrNoRows {
		return nil, ErrNoActiveSession
	}
	if err != nil {
		return nil, fmt.Errorf("active session lookup failed: tenant_id='%s', error=%w", tenantID, err)
	}
	return &session, nil
}

/* SwitchActiveSession atomically moves the active pointer to the given session */
func (q *Queries) SwitchActiveSession(ctx context.Context, tenantID, userID string, id uuid.UUID) error {
	result, err := q.DB.ExecContext(ctx, switchActiveSessionQuery, tenantID, userID, id)
	if err != nil {
		return fmt.Errorf("session switch failed: session_id='%s', error=%w", id.String(), err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("session switch failed (rows affected): session_id='%s', error=%w", id.String(), err)
	}
	if rows == 0 {
		return fmt.Errorf("session switch failed: session_id='%s', error=%w", id.String(), ErrNotFound)
	}
	return nil
}

/* ListSessions lists a user's sessions, most recent activity first */
func (q *Queries) ListSessions(ctx context.Context, tenantID, userID string, limit, offset int) ([]Session, error) {
	var sessions []Session
	if err := q.DB.SelectContext(ctx, &sessions, listSessionsQuery, tenantID, userID, limit, offset); err != nil {
		return nil, fmt.Errorf("session listing failed: tenant_id='%s', error=%w", tenantID, err)
	}
	return sessions, nil
}

/* ArchiveSession archives a session; the pipeline never hard-deletes */
func (q *Queries) ArchiveSession(ctx context.Context, tenantID string, id uuid.UUID) error {
	result, err := q.DB.ExecContext(ctx, archiveSessionQuery, id, tenantID)
	if err != nil {
		return fmt.Errorf("session archive failed: session_id='%s', error=%w", id.String(), err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("session archive failed: session_id='%s', error=%w", id.String(), ErrNotFound)
	}
	return nil
}

/* TouchSession refreshes the session activity timestamp */
func (q *Queries) TouchSession(ctx context.Context, id uuid.UUID) error {
	_, err := q.DB.ExecContext(ctx, touchSessionQuery, id)
	if err != nil {
		return fmt.Errorf("session touch failed: session_id='%s', error=%w", id.String(), err)
	}
	return nil
}

/* DeactivateIdleSessions clears the active flag on long-idle sessions */
func (q *Queries) DeactivateIdleSessions(ctx context.Context, maxIdle string) (int64, error) {
	result, err := q.DB.ExecContext(ctx, deactivateIdleSessionsQuery, maxIdle)
	if err != nil {
		return 0, fmt.Errorf("idle session deactivation failed: error=%w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("idle session deactivation failed (rows affected): error=%w", err)
	}
	return rows, nil
}

/* AppendMessage appends a message, re-checking the active pointer */
func (q *Queries) AppendMessage(ctx context.Context, message *Message) error {
	row := q.DB.QueryRowxContext(ctx, appendMessageQuery,
		message.SessionID, message.Role, message.Content, message.ErrorText,
		message.Loading, message.ToolResults)
	err := row.Scan(&message.ID, &message.CreatedAt)
	if err == sql.ErrNoRows {
		return fmt.Errorf("message append rejected: session_id='%s', error=%w",
			message.SessionID.String(), ErrSessionNotActive)
	}
	if err != nil {
		return fmt.Errorf("message append failed: session_id='%s', role='%s', error=%w",
			message.SessionID.String(), message.Role, err)
	}
	return nil
}

/* ResolveMessage resolves a loading placeholder to content or an error marker */
func (q *Queries) ResolveMessage(ctx context.Context, id int64, content *string, errorText *string, toolResults ToolResultList) error {
	result, err := q.DB.ExecContext(ctx, resolveMessageQuery, id, content, errorText, toolResults)
	if err != nil {
		return fmt.Errorf("message resolution failed: message_id=%d, error=%w", id, err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("message resolution failed (rows affected): message_id=%d, error=%w", id, err)
	}
	if rows == 0 {
		return fmt.Errorf("message resolution failed: message_id=%d, error=%w", id, ErrNotFound)
	}
	return nil
}

/* GetMessages lists messages for a session in append order */
func (q *Queries) GetMessages(ctx context.Context, sessionID uuid.UUID, limit, offset int) ([]Message, error) {
	var messages []Message
	if err := q.DB.SelectContext(ctx, &messages, getMessagesQuery, sessionID, limit, offset); err != nil {
		return nil, fmt.Errorf("message listing failed: session_id='%s', error=%w", sessionID.String(), err)
	}
	return messages, nil
}

/* GetMessageByID retrieves a message by ID */
func (q *Queries) GetMessageByID(ctx context.Context, id int64) (*Message, error) {
	var message Message
	err := q.DB.GetContext(ctx, &message, getMessageByIDQuery, id)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("message retrieval failed: message_id=%d, error=%w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("message retrieval failed: message_id=%d, error=%w", id, err)
	}
	return &message, nil
}

/* GetRecentMessages returns the last N resolved messages in append order */
func (q *Queries) GetRecentMessages(ctx context.Context, sessionID uuid.UUID, limit int) ([]Message, error) {
	var messages []Message
	if err := q.DB.SelectContext(ctx, &messages, recentMessagesQuery, sessionID, limit); err != nil {
		return nil, fmt.Errorf("recent message listing failed: session_id='%s', error=%w", sessionID.String(), err)
	}
	return messages, nil
}

/* GetUserMessageBefore returns the user turn that preceded an assistant message */
func (q *Queries) GetUserMessageBefore(ctx context.Context, sessionID uuid.UUID, assistantMessageID int64) (*Message, error) {
	var message Message
	err := q.DB.GetContext(ctx, &message, userMessageBeforeQuery, sessionID, assistantMessageID)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("originating user message lookup failed: message_id=%d, error=%w", assistantMessageID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("originating user message lookup failed: message_id=%d, error=%w", assistantMessageID, err)
	}
	return &message, nil
}

/* InsertFeedback records feedback once per message; first write wins */
func (q *Queries) InsertFeedback(ctx context.Context, feedback *FeedbackRecord) error {
	row := q.DB.QueryRowxContext(ctx, insertFeedbackQuery, feedback.MessageID, feedback.Kind, feedback.Correction)
	err := row.Scan(&feedback.ID, &feedback.CreatedAt)
	if err == sql.ErrNoRows {
		return fmt.Errorf("feedback rejected: message_id=%d, error=%w", feedback.MessageID, ErrFeedbackConflict)
	}
	if err != nil {
		return fmt.Errorf("feedback insert failed: message_id=%d, kind='%s', error=%w",
			feedback.MessageID, feedback.Kind, err)
	}
	return nil
}

/* GetFeedbackForMessage returns the feedback record for a message, if any */
func (q *Queries) GetFeedbackForMessage(ctx context.Context, messageID int64) (*FeedbackRecord, error) {
	var feedback FeedbackRecord
	err := q.DB.GetContext(ctx, &feedback, getFeedbackForMessageQuery, messageID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("feedback retrieval failed: message_id=%d, error=%w", messageID, err)
	}
	return &feedback, nil
}

/* InsertActionRecord writes the audit row for a newly staged action */
func (q *Queries) InsertActionRecord(ctx context.Context, record *ActionRecord) error {
	row := q.DB.QueryRowxContext(ctx, insertActionRecordQuery,
		record.ID, record.SessionID, record.TenantID, record.Kind,
		record.TargetTable, record.Explanation, record.Payload, record.Status)
	if err := row.Scan(&record.CreatedAt); err != nil {
		return fmt.Errorf("action record insert failed: action_id='%s', kind='%s', error=%w",
			record.ID.String(), record.Kind, err)
	}
	return nil
}

/* ResolveActionRecord marks the audit row with its terminal status */
func (q *Queries) ResolveActionRecord(ctx context.Context, id uuid.UUID, status string, errorText *string) error {
	result, err := q.DB.ExecContext(ctx, resolveActionRecordQuery, id, status, errorText)
	if err != nil {
		return fmt.Errorf("action record resolution failed: action_id='%s', status='%s', error=%w",
			id.String(), status, err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("action record resolution failed (rows affected): action_id='%s', error=%w", id.String(), err)
	}
	if rows == 0 {
		return fmt.Errorf("action record resolution failed: action_id='%s', error=%w", id.String(), ErrNotFound)
	}
	return nil
}

/* ListActionRecords lists audit rows for a tenant, newest first */
func (q *Queries) ListActionRecords(ctx context.Context, tenantID string, sessionID *uuid.UUID, limit, offset int) ([]ActionRecord, error) {
	var records []ActionRecord
	if err := q.DB.SelectContext(ctx, &records, listActionRecordsQuery, tenantID, sessionID, limit, offset); err != nil {
		return nil, fmt.Errorf("action record listing failed: tenant_id='%s', error=%w", tenantID, err)
	}
	return records, nil
}
