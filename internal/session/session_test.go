/*-------------------------------------------------------------------------
 *
 * session_test.go
 *    Tests for session title derivation and the session cache
 *
 * Copyright (c) 2024-2026, Zyra Tecnologia Ltda. <dev@zyra.app.br>
 *
 * IDENTIFICATION
 *    internal/session/session_test.go
 *
 *-------------------------------------------------------------------------
 */

package session

import (
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/victorbarbieri91/zyra-comando/internal/db"
)

func TestDeriveTitle(t *testing.T) {
	if got := DeriveTitle("  Cadastre   um novo cliente  "); got != "Cadastre um novo cliente" {
		t.Errorf("expected collapsed whitespace, got %q", got)
	}

	if got := DeriveTitle(""); got != "Nova conversa" {
		t.Errorf("expected fallback title, got %q", got)
	}

	long := strings.Repeat("processo ", 20)
	got := DeriveTitle(long)
	if len([]rune(got)) > maxTitleLength {
		t.Errorf("title exceeds %d runes: %q", maxTitleLength, got)
	}
	if !strings.HasSuffix(got, "…") {
		t.Errorf("truncated title should end with ellipsis: %q", got)
	}
}

func TestCacheSetGetDelete(t *testing.T) {
	cache := NewCache(4)

	id := uuid.New()
	cache.Set(id, &db.Session{ID: id, TenantID: "t1", Title: "Consulta"})

	got := cache.Get(id)
	if got == nil || got.Title != "Consulta" {
		t.Fatalf("expected cached session, got %+v", got)
	}

	cache.Delete(id)
	if cache.Get(id) != nil {
		t.Error("expected session to be evicted after delete")
	}
}

func TestCacheEvictsAtCapacity(t *testing.T) {
	cache := NewCache(2)

	ids := []uuid.UUID{uuid.New(), uuid.New(), uuid.New()}
	for _, id := range ids {
		cache.Set(id, &db.Session{ID: id})
	}

	if n := cache.Len(); n > 2 {
		t.Errorf("expected at most 2 cached sessions, got %d", n)
	}
}
