/*-------------------------------------------------------------------------
 *
 * jwt.go
 *    JWT token validation for the Centro de Comando service
 *
 * Tokens are issued by the main Zyra application; this service only
 * validates them and extracts the tenant and user identity.
 *
 * Copyright (c) 2024-2026, Zyra Tecnologia Ltda. <dev@zyra.app.br>
 *
 * IDENTIFICATION
 *    internal/auth/jwt.go
 *
 *-------------------------------------------------------------------------
 */

package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

/* Claims carried by Zyra-issued JWT tokens */
type Claims struct {
	TenantID string `json:"tenant_id"`
	UserID   string `json:"user_id"`
	Name     string `json:"name"`
	jwt.RegisteredClaims
}

type Validator struct {
	secret []byte
}

func NewValidator(secret string) (*Validator, error) {
	if secret == "" {
		return nil, fmt.Errorf("validator creation failed: jwt_secret_empty=true")
	}
	return &Validator{secret: []byte(secret)}, nil
}

/* ValidateToken validates a JWT token and returns the claims */
func (v *Validator) ValidateToken(tokenString string) (*Claims, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return v.secret, nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, errors.New("invalid token")
	}
	if claims.TenantID == "" || claims.UserID == "" {
		return nil, errors.New("token missing tenant or user identity")
	}

	return claims, nil
}

/* GenerateToken generates a signed token, used by the CLI and tests */
func (v *Validator) GenerateToken(tenantID, userID, name string, ttl time.Duration) (string, error) {
	claims := &Claims{
		TenantID: tenantID,
		UserID:   userID,
		Name:     name,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(v.secret)
	if err != nil {
		return "", fmt.Errorf("token signing failed: error=%w", err)
	}
	return tokenString, nil
}

/* ExtractToken extracts the JWT token from an Authorization header */
func ExtractToken(authHeader string) (string, error) {
	if authHeader == "" {
		return "", errors.New("missing authorization header")
	}

	/* Support both "Bearer <token>" and bare "<token>" */
	parts := strings.Split(authHeader, " ")
	if len(parts) == 2 && strings.ToLower(parts[0]) == "bearer" {
		return parts[1], nil
	}
	if len(parts) == 1 {
		return parts[0], nil
	}

	return "", errors.New("invalid authorization header format")
}
