package app

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"sync/atomic"
)

// AtomicLogger is a slog.Logger whose level and format can change at runtime.
type AtomicLogger struct {
	level   *slog.LevelVar
	out     io.Writer
	current atomic.Pointer[slog.Logger]
}

// NewAtomicLogger creates a logger writing to out.
func NewAtomicLogger(level, format string, out io.Writer) *AtomicLogger {
	if out == nil {
		out = os.Stdout
	}
	l := &AtomicLogger{
		level: new(slog.LevelVar),
		out:   out,
	}
	l.Reconfigure(level, format)
	return l
}

// Get returns the current logger.
func (l *AtomicLogger) Get() *slog.Logger {
	if l == nil {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return l.current.Load()
}

// Reconfigure applies a new level and format.
func (l *AtomicLogger) Reconfigure(level, format string) {
	l.level.Set(parseLevel(level))

	opts := &slog.HandlerOptions{Level: l.level}

	var h slog.Handler
	if strings.EqualFold(format, "text") {
		h = slog.NewTextHandler(l.out, opts)
	} else {
		h = slog.NewJSONHandler(l.out, opts)
	}
	l.current.Store(slog.New(h))
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// slogAdapter adapts AtomicLogger to the Logger interfaces of the inner layers.
type slogAdapter struct {
	logger *AtomicLogger
}

func (a *slogAdapter) Debug(msg string, keysAndValues ...any) {
	a.logger.Get().Debug(msg, keysAndValues...)
}

func (a *slogAdapter) Info(msg string, keysAndValues ...any) {
	a.logger.Get().Info(msg, keysAndValues...)
}

func (a *slogAdapter) Warn(msg string, keysAndValues ...any) {
	a.logger.Get().Warn(msg, keysAndValues...)
}

func (a *slogAdapter) Error(msg string, keysAndValues ...any) {
	a.logger.Get().Error(msg, keysAndValues...)
}

func (app *Application) setupLogger() {
	if app.logger == nil {
		app.logger = NewAtomicLogger(app.config.Logging.Level, app.config.Logging.Format, os.Stdout)
	}
}

func (app *Application) logAdapter() *slogAdapter {
	return &slogAdapter{logger: app.logger}
}
