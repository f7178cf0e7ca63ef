package middleware

import (
	"context"
	"net/http"
	"time"
)

// Deadline bounds the context of every request by timeout.
// Operational endpoints (/metrics, /health, /ready) are left unbounded.
// Handlers are expected to answer before the deadline themselves; the
// middleware never writes a response of its own.
func Deadline(timeout time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if timeout <= 0 || isOperationalPath(r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}

			ctx, cancel := context.WithTimeout(r.Context(), timeout)
			defer cancel()

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func isOperationalPath(path string) bool {
	switch path {
	case "/metrics", "/health", "/ready", "/":
		return true
	}
	return false
}
