package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"runtime/debug"
	"slices"
	"time"

	"github.com/google/uuid"
)

// LoggerFunc returns the logger to use for the current request.
// It is called per request so that a reconfigured logger takes effect
// without rebuilding the router.
type LoggerFunc func() *slog.Logger

// StaticLogger adapts a fixed logger to a LoggerFunc.
func StaticLogger(logger *slog.Logger) LoggerFunc {
	return func() *slog.Logger { return logger }
}

type contextKey string

// RequestIDKey is the context key for the request ID.
const RequestIDKey contextKey = "request_id"

// quietPaths are polled by orchestrators and scrapers; their access logs go to debug.
var quietPaths = []string{"/health", "/ready", "/metrics"}

// RequestID tags each request with the caller's X-Request-ID or a fresh UUID.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.New().String()
		}

		w.Header().Set("X-Request-ID", id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), RequestIDKey, id)))
	})
}

// GetRequestID retrieves the request ID from context.
func GetRequestID(ctx context.Context) string {
	if id, ok := ctx.Value(RequestIDKey).(string); ok {
		return id
	}
	return ""
}

// statusRecorder remembers the status and size of a response.
type statusRecorder struct {
	http.ResponseWriter
	status      int
	bytes       int64
	wroteHeader bool
}

func (sr *statusRecorder) WriteHeader(code int) {
	if !sr.wroteHeader {
		sr.status = code
		sr.wroteHeader = true
	}
	sr.ResponseWriter.WriteHeader(code)
}

func (sr *statusRecorder) Write(b []byte) (int, error) {
	sr.wroteHeader = true
	n, err := sr.ResponseWriter.Write(b)
	sr.bytes += int64(n)
	return n, err
}

// Logging writes one access log line per request.
// Slack redeliveries carry their retry number and reason.
func Logging(logger LoggerFunc) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

			next.ServeHTTP(rec, r)

			attrs := []any{
				"method", r.Method,
				"path", r.URL.Path,
				"status", rec.status,
				"duration", time.Since(start).String(),
				"bytes", rec.bytes,
				"request_id", GetRequestID(r.Context()),
				"remote_addr", r.RemoteAddr,
			}
			if retry := r.Header.Get("X-Slack-Retry-Num"); retry != "" {
				attrs = append(attrs,
					"slack_retry_num", retry,
					"slack_retry_reason", r.Header.Get("X-Slack-Retry-Reason"),
				)
			}

			level := slog.LevelInfo
			switch {
			case rec.status >= http.StatusInternalServerError:
				level = slog.LevelError
			case slices.Contains(quietPaths, r.URL.Path):
				level = slog.LevelDebug
			}
			logger().Log(r.Context(), level, "request completed", attrs...)
		})
	}
}

// Recovery turns a handler panic into a response.
// Requests to ackPaths are answered 200 {"status":200} so that the event
// platform does not redeliver; all other paths get a 500.
func Recovery(logger LoggerFunc, ackPaths ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}

				logger().Error("panic recovered",
					"error", rec,
					"request_id", GetRequestID(r.Context()),
					"path", r.URL.Path,
					"stack", string(debug.Stack()),
				)

				if slices.Contains(ackPaths, r.URL.Path) {
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusOK)
					w.Write([]byte(`{"status":200}`))
					return
				}
				http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			}()

			next.ServeHTTP(w, r)
		})
	}
}
