package middleware

import (
	"context"
	"net/http"
	"time"
)

// StoreTimeout bounds the request context so store calls give up after d.
// Expired calls surface as store-unavailable errors from the services.
func StoreTimeout(d time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if d <= 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, cancel := context.WithTimeout(r.Context(), d)
			defer cancel()
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
