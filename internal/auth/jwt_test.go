/*-------------------------------------------------------------------------
 *
 * jwt_test.go
 *    Tests for JWT validation and identity extraction
 *
 * Copyright (c) 2024-2026, Zyra Tecnologia Ltda. <dev@zyra.app.br>
 *
 * IDENTIFICATION
 *    internal/auth/jwt_test.go
 *
 *-------------------------------------------------------------------------
 */

package auth

import (
	"testing"
	"time"
)

func TestValidateTokenRoundTrip(t *testing.T) {
	v, err := NewValidator("test-secret")
	if err != nil {
		t.Fatalf("validator creation failed: %v", err)
	}

	token, err := v.GenerateToken("escritorio-1", "user-7", "Ana", time.Hour)
	if err != nil {
		t.Fatalf("token generation failed: %v", err)
	}

	claims, err := v.ValidateToken(token)
	if err != nil {
		t.Fatalf("token validation failed: %v", err)
	}
	if claims.TenantID != "escritorio-1" || claims.UserID != "user-7" {
		t.Errorf("unexpected identity: tenant=%s user=%s", claims.TenantID, claims.UserID)
	}
}

func TestValidateTokenRejectsExpired(t *testing.T) {
	v, _ := NewValidator("test-secret")

	token, err := v.GenerateToken("escritorio-1", "user-7", "Ana", -time.Minute)
	if err != nil {
		t.Fatalf("token generation failed: %v", err)
	}

	if _, err := v.ValidateToken(token); err == nil {
		t.Error("expected expired token to be rejected")
	}
}

func TestValidateTokenRejectsWrongSecret(t *testing.T) {
	issuer, _ := NewValidator("secret-a")
	verifier, _ := NewValidator("secret-b")

	token, _ := issuer.GenerateToken("escritorio-1", "user-7", "Ana", time.Hour)
	if _, err := verifier.ValidateToken(token); err == nil {
		t.Error("expected token signed with a different secret to be rejected")
	}
}

func TestValidateTokenRequiresIdentity(t *testing.T) {
	v, _ := NewValidator("test-secret")

	token, _ := v.GenerateToken("", "user-7", "Ana", time.Hour)
	if _, err := v.ValidateToken(token); err == nil {
		t.Error("expected token without tenant to be rejected")
	}
}

func TestExtractToken(t *testing.T) {
	if tok, err := ExtractToken("Bearer abc123"); err != nil || tok != "abc123" {
		t.Errorf("bearer extraction failed: tok=%q err=%v", tok, err)
	}
	if tok, err := ExtractToken("abc123"); err != nil || tok != "abc123" {
		t.Errorf("bare token extraction failed: tok=%q err=%v", tok, err)
	}
	if _, err := ExtractToken(""); err == nil {
		t.Error("expected error for empty header")
	}
	if _, err := ExtractToken("Bearer a b"); err == nil {
		t.Error("expected error for malformed header")
	}
}
