/*-------------------------------------------------------------------------
 *
 * context.go
 *    Request identity propagation through context
 *
 * Copyright (c) 2024-2026, Zyra Tecnologia Ltda. <dev@zyra.app.br>
 *
 * IDENTIFICATION
 *    internal/auth/context.go
 *
 *-------------------------------------------------------------------------
 */

package auth

import "context"

/* Identity is the tenant-scoped caller identity resolved from the token */
type Identity struct {
	TenantID string
	UserID   string
	Name     string
}

/* Context key types for type-safe context values */
type contextKey string

const identityKey contextKey = "identity"

/* SetIdentity sets the caller identity in context */
func SetIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

/* IdentityFromContext gets the caller identity from context */
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey).(Identity)
	return id, ok
}
