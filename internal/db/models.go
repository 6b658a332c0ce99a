/*-------------------------------------------------------------------------
 *
 * models.go
 *    Database models for the Centro de Comando service
 *
 * Defines data structures for conversation sessions, messages, tool
 * results, feedback records, and the staged-action audit log.
 *
 * Copyright (c) 2024-2026, Zyra Tecnologia Ltda. <dev@zyra.app.br>
 *
 * IDENTIFICATION
 *    internal/db/models.go
 *
 *-------------------------------------------------------------------------
 */

package db

import (
	"time"

	"github.com/google/uuid"
)

/* Message roles */
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

/* Feedback kinds */
const (
	FeedbackPositivo = "positivo"
	FeedbackNegativo = "negativo"
	FeedbackCorrecao = "correcao"
)

/* Action audit statuses */
const (
	ActionStatusPending         = "pending"
	ActionStatusConfirmed       = "confirmed"
	ActionStatusConfirmedFailed = "confirmed_failed"
	ActionStatusCancelled       = "cancelled"
)

type Session struct {
	ID             uuid.UUID `db:"id"`
	TenantID       string    `db:"tenant_id"`
	UserID         string    `db:"user_id"`
	Title          string    `db:"title"`
	Active         bool      `db:"active"`
	Archived       bool      `db:"archived"`
	CreatedAt      time.Time `db:"created_at"`
	LastActivityAt time.Time `db:"last_activity_at"`
}

type Message struct {
	ID          int64          `db:"id"`
	SessionID   uuid.UUID      `db:"session_id"`
	Role        string         `db:"role"`
	Content     *string        `db:"content"`
	ErrorText   *string        `db:"error_text"`
	Loading     bool           `db:"loading"`
	ToolResults ToolResultList `db:"tool_results"`
	CreatedAt   time.Time      `db:"created_at"`
}

/* ToolResult is the outcome of an agent-invoked read operation */
type ToolResult struct {
	Tabela   string                   `json:"tabela"`
	Consulta string                   `json:"consulta,omitempty"`
	Linhas   []map[string]interface{} `json:"linhas"`
}

type FeedbackRecord struct {
	ID         int64     `db:"id"`
	MessageID  int64     `db:"message_id"`
	Kind       string    `db:"kind"`
	Correction *string   `db:"correction"`
	CreatedAt  time.Time `db:"created_at"`
}

/* ActionRecord is the audit trail row for a staged action */
type ActionRecord struct {
	ID          uuid.UUID  `db:"id"`
	SessionID   uuid.UUID  `db:"session_id"`
	TenantID    string     `db:"tenant_id"`
	Kind        string     `db:"kind"`
	TargetTable string     `db:"target_table"`
	Explanation string     `db:"explanation"`
	Payload     JSONBMap   `db:"payload"`
	Status      string     `db:"status"`
	ErrorText   *string    `db:"error_text"`
	CreatedAt   time.Time  `db:"created_at"`
	ResolvedAt  *time.Time `db:"resolved_at"`
}
