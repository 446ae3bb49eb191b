// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package middleware

import (
	"context"
	"net/http"
	"strings"

	"adsouk/internal/token"
)

// contextKey is an unexported type for context keys to prevent collisions.
type contextKey string

const (
	// TokenKey is the context key for the authenticated token payload.
	TokenKey contextKey = "token"

	// BearerTokenKey is the context key for the raw presented credential,
	// kept so logout can revoke it.
	BearerTokenKey contextKey = "bearer"
)

// Authenticate resolves the Authorization bearer credential against the
// token store and puts the payload in the request context. It does NOT
// enforce authentication; it just loads the identity when one exists.
func Authenticate(store *token.Store) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			bearer := bearerToken(r)
			if bearer == "" {
				next.ServeHTTP(w, r)
				return
			}

			data, err := store.Lookup(r.Context(), bearer)
			if err != nil || data == nil {
				// Unknown or expired token: treat as unauthenticated.
				next.ServeHTTP(w, r)
				return
			}

			ctx := context.WithValue(r.Context(), TokenKey, data)
			ctx = context.WithValue(ctx, BearerTokenKey, bearer)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAuth rejects requests without an authenticated identity.
// Must be applied after Authenticate in the middleware chain.
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if TokenFromCtx(r.Context()) == nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"message":"Unauthenticated."}`))
			return
		}

		next.ServeHTTP(w, r)
	})
}

// TokenFromCtx extracts the token payload from the request context.
// Returns nil if the request is not authenticated.
func TokenFromCtx(ctx context.Context) *token.Data {
	data, _ := ctx.Value(TokenKey).(*token.Data)
	return data
}

// BearerFromCtx extracts the raw presented credential from the request
// context. Empty when the request is not authenticated.
func BearerFromCtx(ctx context.Context) string {
	bearer, _ := ctx.Value(BearerTokenKey).(string)
	return bearer
}

// bearerToken parses the Authorization header. Returns "" when the header
// is absent or not a bearer scheme.
func bearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if len(auth) > len(prefix) && strings.EqualFold(auth[:len(prefix)], prefix) {
		return strings.TrimSpace(auth[len(prefix):])
	}
	return ""
}
