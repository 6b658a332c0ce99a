/*-------------------------------------------------------------------------
 *
 * executor.go
 *    Data store executor for confirmed actions
 *
 * Copyright (c) 2024-2026, Zyra Tecnologia Ltda. <dev@zyra.app.br>
 *
 * IDENTIFICATION
 *    internal/stager/executor.go
 *
 *-------------------------------------------------------------------------
 */

package stager

import (
	"context"
	"fmt"

	"github.com/victorbarbieri91/zyra-comando/internal/datastore"
)

/* StoreExecutor executes confirmed actions against the tenant data store */
type StoreExecutor struct {
	store datastore.Store
}

func NewStoreExecutor(store datastore.Store) *StoreExecutor {
	return &StoreExecutor{store: store}
}

/* Execute applies the action's mutation */
func (e *StoreExecutor) Execute(ctx context.Context, action *PendingAction) error {
	switch action.Proposed.Kind {
	case KindInsert:
		return e.store.Insert(ctx, action.TenantID, action.Proposed.Table, action.Proposed.Dados)
	case KindUpdate:
		return e.store.Update(ctx, action.TenantID, action.Proposed.Table, action.Proposed.Antes, action.Proposed.Depois)
	case KindDelete:
		return e.store.Delete(ctx, action.TenantID, action.Proposed.Table, action.Proposed.Registro)
	default:
		return fmt.Errorf("execution rejected: action_id='%s', kind='%s', %w",
			action.ID.String(), action.Proposed.Kind, ErrInvalidAction)
	}
}
