package server

import (
	"context"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qj0r9j0vc2/mention-bridge/internal/adapter/handler"
	"github.com/qj0r9j0vc2/mention-bridge/internal/adapter/handler/middleware"
	"github.com/qj0r9j0vc2/mention-bridge/internal/infrastructure/config"
)

func TestServer_ServeAndShutdown(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	router := NewRouter(&Handlers{Health: handler.NewHealthHandler("mention-bridge", "test")}, RouterOptions{RequestTimeout: time.Second}, middleware.StaticLogger(logger))

	srv := New(config.ServerConfig{
		ReadTimeout:     time.Second,
		WriteTimeout:    time.Second,
		ShutdownTimeout: time.Second,
	}, router, logger)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx, ln) }()

	resp, err := http.Get("http://" + ln.Addr().String() + "/health")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}

func TestRouter_PanicOnSlackRouteIsAcknowledged(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	// Without a logger the events handler panics on its first log call.
	router := NewRouter(&Handlers{
		Health:      handler.NewHealthHandler("mention-bridge", "test"),
		SlackEvents: &handler.SlackEventsHandler{},
	}, RouterOptions{RequestTimeout: time.Second}, middleware.StaticLogger(logger))

	for _, path := range []string{"/webhook/slack/events", "/api/messages"} {
		t.Run(path, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(`{}`))
			req.Header.Set("X-Slack-Retry-Num", "1")
			w := httptest.NewRecorder()

			require.NotPanics(t, func() { router.ServeHTTP(w, req) })
			assert.Equal(t, http.StatusOK, w.Code)
			assert.JSONEq(t, `{"status":200}`, w.Body.String())
		})
	}
}
