/*-------------------------------------------------------------------------
 *
 * store.go
 *    Tenant-scoped data store interface
 *
 * The Centro de Comando pipeline executes confirmed mutations through
 * this interface. The backing store enforces tenant isolation and row
 * constraints; rejections surface as typed errors.
 *
 * Copyright (c) 2024-2026, Zyra Tecnologia Ltda. <dev@zyra.app.br>
 *
 * IDENTIFICATION
 *    internal/datastore/store.go
 *
 *-------------------------------------------------------------------------
 */

package datastore

import (
	"context"
	"errors"
)

var (
	/* ErrValidation indicates the payload was rejected by store constraints */
	ErrValidation = errors.New("payload rejected by store constraints")
	/* ErrNotFound indicates the target row does not exist */
	ErrNotFound = errors.New("target row not found")
	/* ErrPermissionDenied indicates the tenant may not touch the row */
	ErrPermissionDenied = errors.New("permission denied")
)

/* Store is the per-table mutation surface keyed by tenant */
type Store interface {
	Insert(ctx context.Context, tenantID, table string, dados map[string]interface{}) error
	Update(ctx context.Context, tenantID, table string, antes, depois map[string]interface{}) error
	Delete(ctx context.Context, tenantID, table string, registro map[string]interface{}) error
}
