/*-------------------------------------------------------------------------
 *
 * manager.go
 *    Session management for the Centro de Comando service
 *
 * Provides session lifecycle management including creation, retrieval,
 * history listing, and the per-user active-session pointer.
 *
 * Copyright (c) 2024-2026, Zyra Tecnologia Ltda. <dev@zyra.app.br>
 *
 * IDENTIFICATION
 *    internal/session/manager.go
 *
 *-------------------------------------------------------------------------
 */

package session

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/victorbarbieri91/zyra-comando/internal/db"
)

const maxTitleLength = 60

type Manager struct {
	queries *db.Queries
	cache   *Cache
}

func NewManager(queries *db.Queries, cache *Cache) *Manager {
	return &Manager{
		queries: queries,
		cache:   cache,
	}
}

/* Create creates a new active session titled after the first user message */
func (m *Manager) Create(ctx context.Context, tenantID, userID, firstMessage string) (*db.Session, error) {
	/* Validate input */
	if tenantID == "" || userID == "" {
		return nil, fmt.Errorf("session creation failed: tenant_or_user_empty=true")
	}

	/* Check context cancellation */
	if ctx.Err() != nil {
		return nil, fmt.Errorf("session creation cancelled: context_error=%w", ctx.Err())
	}

	session := &db.Session{
		TenantID: tenantID,
		UserID:   userID,
		Title:    DeriveTitle(firstMessage),
	}

	if err := m.queries.CreateSession(ctx, session); err != nil {
		return nil, fmt.Errorf("session creation failed: tenant_id='%s', error=%w", tenantID, err)
	}

	/* Cache the session */
	if m.cache != nil {
		m.cache.Set(session.ID, session)
	}

	return session, nil
}

/* Get retrieves a session by ID */
func (m *Manager) Get(ctx context.Context, tenantID string, id uuid.UUID) (*db.Session, error) {
	if id == uuid.Nil {
		return nil, fmt.Errorf("session retrieval failed: session_id_empty=true")
	}

	/* Try cache first */
	if m.cache != nil {
		if session := m.cache.Get(id); session != nil && session.TenantID == tenantID {
			return session, nil
		}
	}

	session, err := m.queries.GetSession(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}

	if m.cache != nil {
		m.cache.Set(id, session)
	}
	return session, nil
}

/* Active returns the user's active session */
func (m *Manager) Active(ctx context.Context, tenantID, userID string) (*db.Session, error) {
	return m.queries.ActiveSession(ctx, tenantID, userID)
}

/* List lists the user's sessions for the history panel */
func (m *Manager) List(ctx context.Context, tenantID, userID string, limit, offset int) ([]db.Session, error) {
	return m.queries.ListSessions(ctx, tenantID, userID, limit, offset)
}

/* Switch atomically moves the active pointer to the given session */
func (m *Manager) Switch(ctx context.Context, tenantID, userID string, id uuid.UUID) error {
	if id == uuid.Nil {
		return fmt.Errorf("session switch failed: session_id_empty=true")
	}
	if err := m.queries.SwitchActiveSession(ctx, tenantID, userID, id); err != nil {
		return err
	}
	if m.cache != nil {
		m.cache.Delete(id)
	}
	return nil
}

/* Archive archives a session; the pipeline never hard-deletes */
func (m *Manager) Archive(ctx context.Context, tenantID string, id uuid.UUID) error {
	if id == uuid.Nil {
		return fmt.Errorf("session archive failed: session_id_empty=true")
	}
	if err := m.queries.ArchiveSession(ctx, tenantID, id); err != nil {
		return err
	}
	if m.cache != nil {
		m.cache.Delete(id)
	}
	return nil
}

/* DeriveTitle derives a session title from the first user message */
func DeriveTitle(firstMessage string) string {
	title := strings.TrimSpace(strings.Join(strings.Fields(firstMessage), " "))
	if title == "" {
		return "Nova conversa"
	}
	runes := []rune(title)
	if len(runes) > maxTitleLength {
		return string(runes[:maxTitleLength-1]) + "…"
	}
	return title
}
