/*-------------------------------------------------------------------------
 *
 * middleware.go
 *    JWT authentication middleware
 *
 * Copyright (c) 2024-2026, Zyra Tecnologia Ltda. <dev@zyra.app.br>
 *
 * IDENTIFICATION
 *    internal/auth/middleware.go
 *
 *-------------------------------------------------------------------------
 */

package auth

import (
	"net/http"
	"strings"
)

/* Endpoints reachable without a token */
var publicPaths = map[string]bool{
	"/health":  true,
	"/metrics": true,
}

/* Middleware validates the bearer token and stores the identity in context */
func Middleware(validator *Validator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			/* Skip auth for CORS preflight */
			if r.Method == http.MethodOptions {
				next.ServeHTTP(w, r)
				return
			}

			if publicPaths[r.URL.Path] {
				next.ServeHTTP(w, r)
				return
			}

			authHeader := r.Header.Get("Authorization")
			/* Browser WebSockets cannot set custom headers; for websocket
			 * endpoints only, allow the token via query param (?token=...) */
			if authHeader == "" && strings.HasSuffix(r.URL.Path, "/ws") {
				if token := r.URL.Query().Get("token"); token != "" {
					authHeader = "Bearer " + token
				}
			}
			if authHeader == "" {
				http.Error(w, "Missing authorization header", http.StatusUnauthorized)
				return
			}

			tokenString, err := ExtractToken(authHeader)
			if err != nil {
				http.Error(w, err.Error(), http.StatusUnauthorized)
				return
			}

			claims, err := validator.ValidateToken(tokenString)
			if err != nil {
				http.Error(w, "Invalid token", http.StatusUnauthorized)
				return
			}

			ctx := SetIdentity(r.Context(), Identity{
				TenantID: claims.TenantID,
				UserID:   claims.UserID,
				Name:     claims.Name,
			})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
