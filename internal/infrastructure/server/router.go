package server

import (
	"net/http"
	"time"

	"github.com/qj0r9j0vc2/mention-bridge/internal/adapter/handler"
	"github.com/qj0r9j0vc2/mention-bridge/internal/adapter/handler/middleware"
	"github.com/qj0r9j0vc2/mention-bridge/internal/infrastructure/observability"
)

// Handlers holds all HTTP handlers.
type Handlers struct {
	SlackEvents *handler.SlackEventsHandler
	Health      *handler.HealthHandler
	Ready       *handler.ReadyHandler
	Metrics     *handler.MetricsHandler
	Reload      *handler.ReloadHandler
}

// RouterOptions configures the middleware stack.
type RouterOptions struct {
	SigningSecret  string
	RequestTimeout time.Duration
	Metrics        *observability.Metrics
}

// slackPaths receive Slack event deliveries.
var slackPaths = []string{"/webhook/slack/events", "/api/messages"}

// NewRouter creates the HTTP router with all handlers.
// logger is consulted on every request.
func NewRouter(handlers *Handlers, opts RouterOptions, logger middleware.LoggerFunc) http.Handler {
	mux := http.NewServeMux()

	// Health check endpoints
	mux.Handle("/health", handlers.Health)
	if handlers.Ready != nil {
		mux.Handle("/ready", handlers.Ready)
	} else {
		mux.Handle("/ready", handlers.Health)
	}
	mux.Handle("/", handlers.Health) // Root path returns health

	if handlers.Metrics != nil {
		mux.Handle("/metrics", handlers.Metrics)
	}

	if handlers.Reload != nil {
		mux.Handle("/-/reload", handlers.Reload)
	}

	// Webhook endpoints
	if handlers.SlackEvents != nil {
		events := middleware.SlackAuth(opts.SigningSecret, logger)(handlers.SlackEvents)
		for _, path := range slackPaths {
			mux.Handle(path, events)
		}
	}

	// Apply middleware stack
	var h http.Handler = mux
	h = middleware.Deadline(opts.RequestTimeout)(h)
	if opts.Metrics != nil {
		h = middleware.Observability(opts.Metrics)(h)
	}
	h = middleware.Logging(logger)(h)
	h = middleware.Recovery(logger, slackPaths...)(h)
	h = middleware.RequestID(h)

	return h
}
