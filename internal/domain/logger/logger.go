// Package logger defines the logging contract shared by adapters and use cases.
package logger

// Logger is a structured, leveled logger taking alternating key/value pairs.
type Logger interface {
	Debug(msg string, keysAndValues ...any)
	Info(msg string, keysAndValues ...any)
	Warn(msg string, keysAndValues ...any)
	Error(msg string, keysAndValues ...any)
}
