// Package middleware provides HTTP middleware for authentication and
// role-based authorization.
package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/google/uuid"
)

// ContextKey is a typed key for context values to avoid collisions.
type ContextKey string

const principalKey ContextKey = "principal"

// Principal is the authenticated caller.
type Principal struct {
	ID   uuid.UUID
	Role string
}

// TokenValidator validates a bearer token and returns its principal.
type TokenValidator interface {
	ValidateToken(tokenString string) (Principal, error)
}

// RoleLookup returns the current role of a user, or ok=false when the user
// no longer exists. Roles are re-read so a promotion or demotion takes effect
// without a new token.
type RoleLookup func(ctx context.Context, id uuid.UUID) (role string, ok bool, err error)

// AuthMiddleware validates the bearer token and stores the principal in the
// request context.
func AuthMiddleware(tokens TokenValidator, lookup RoleLookup) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r.Header.Get("Authorization"))
			if !ok {
				deny(w, http.StatusUnauthorized, "Not authorized to access this route")
				return
			}

			p, err := tokens.ValidateToken(token)
			if err != nil {
				deny(w, http.StatusUnauthorized, "Not authorized to access this route")
				return
			}

			if lookup != nil {
				role, found, err := lookup(r.Context(), p.ID)
				if err != nil {
					deny(w, http.StatusInternalServerError, "Server error")
					return
				}
				if !found {
					deny(w, http.StatusUnauthorized, "Not authorized to access this route")
					return
				}
				p.Role = role
			}

			next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), p)))
		})
	}
}

// RequireRole rejects principals whose role is not in roles. It must run
// after AuthMiddleware.
func RequireRole(roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, ok := GetPrincipal(r.Context())
			if !ok {
				deny(w, http.StatusUnauthorized, "Not authorized to access this route")
				return
			}
			for _, role := range roles {
				if p.Role == role {
					next.ServeHTTP(w, r)
					return
				}
			}
			deny(w, http.StatusForbidden, "User role "+p.Role+" is not authorized to access this route")
		})
	}
}

// WithPrincipal returns a context carrying p.
func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey, p)
}

// GetPrincipal extracts the authenticated principal from ctx.
func GetPrincipal(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalKey).(Principal)
	return p, ok
}

func bearerToken(header string) (string, bool) {
	parts := strings.Fields(header)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	return parts[1], true
}

func deny(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{"success": false, "error": msg})
}
