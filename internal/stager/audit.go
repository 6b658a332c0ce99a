/*-------------------------------------------------------------------------
 *
 * audit.go
 *    Database-backed audit log for staged actions
 *
 * Copyright (c) 2024-2026, Zyra Tecnologia Ltda. <dev@zyra.app.br>
 *
 * IDENTIFICATION
 *    internal/stager/audit.go
 *
 *-------------------------------------------------------------------------
 */

package stager

import (
	"context"

	"github.com/google/uuid"

	"github.com/victorbarbieri91/zyra-comando/internal/db"
)

/* DBAudit persists action lifecycle events to the audit log table */
type DBAudit struct {
	queries *db.Queries
}

func NewDBAudit(queries *db.Queries) *DBAudit {
	return &DBAudit{queries: queries}
}

/* RecordStaged writes the pending audit row */
func (a *DBAudit) RecordStaged(ctx context.Context, action *PendingAction) error {
	var payload db.JSONBMap
	switch action.Proposed.Kind {
	case KindInsert:
		payload = db.FromMap(map[string]interface{}{"dados": action.Proposed.Dados})
	case KindUpdate:
		payload = db.FromMap(map[string]interface{}{"antes": action.Proposed.Antes, "depois": action.Proposed.Depois})
	case KindDelete:
		payload = db.FromMap(map[string]interface{}{"registro": action.Proposed.Registro})
	}

	record := &db.ActionRecord{
		ID:          action.ID,
		SessionID:   action.SessionID,
		TenantID:    action.TenantID,
		Kind:        string(action.Proposed.Kind),
		TargetTable: action.Proposed.Table,
		Explanation: action.Proposed.Explanation,
		Payload:     payload,
		Status:      db.ActionStatusPending,
	}
	return a.queries.InsertActionRecord(ctx, record)
}

/* RecordResolved marks the audit row with the action's terminal status */
func (a *DBAudit) RecordResolved(ctx context.Context, id uuid.UUID, status Status, execErr error) error {
	dbStatus := db.ActionStatusCancelled
	var errorText *string
	if status == StatusConfirmed {
		dbStatus = db.ActionStatusConfirmed
		if execErr != nil {
			dbStatus = db.ActionStatusConfirmedFailed
			msg := execErr.Error()
			errorText = &msg
		}
	}
	return a.queries.ResolveActionRecord(ctx, id, dbStatus, errorText)
}
