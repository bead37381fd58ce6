package middleware

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"direct-messenger-backend/internal/apperr"
)

type contextKey string

const userIDKey contextKey = "user_id"

// TokenValidator checks bearer tokens. A disabled validator lets every
// request through unauthenticated.
type TokenValidator interface {
	Enabled() bool
	Validate(token string) (string, error)
}

// Authenticate creates a middleware for JWT authentication. It is a no-op
// while tokens are disabled.
func Authenticate(tokens TokenValidator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !tokens.Enabled() {
				next.ServeHTTP(w, r)
				return
			}

			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				respondError(w, "Authorization header required", http.StatusUnauthorized)
				return
			}

			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || parts[0] != "Bearer" {
				respondError(w, "Invalid authorization header format", http.StatusUnauthorized)
				return
			}

			userID, err := tokens.Validate(parts[1])
			if err != nil {
				respondError(w, "Invalid token", http.StatusUnauthorized)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), userID)))
		})
	}
}

// WithUserID stores the authenticated user ID in ctx
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// GetUserID extracts user ID from context
func GetUserID(ctx context.Context) string {
	userID, ok := ctx.Value(userIDKey).(string)
	if !ok {
		return ""
	}
	return userID
}

// AuthorizeActor checks that the user a request acts as is the authenticated
// one. Without an authenticated user every actor is accepted.
func AuthorizeActor(ctx context.Context, actorID string) error {
	authenticated := GetUserID(ctx)
	if authenticated == "" || authenticated == actorID {
		return nil
	}
	return fmt.Errorf("token does not belong to user %s: %w", actorID, apperr.ErrForbidden)
}

// respondError sends an error response
func respondError(w http.ResponseWriter, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
