// Package moderation decides whether mention text contains disallowed content.
package moderation

import (
	"context"
	"errors"
	"fmt"
)

// ErrListUnavailable is returned (wrapped) when the word list cannot be obtained.
var ErrListUnavailable = errors.New("moderation word list unavailable")

// FailPolicy controls what the pipeline does when the word list is unavailable.
type FailPolicy string

const (
	// FailOpen lets the text through when the list cannot be fetched.
	FailOpen FailPolicy = "open"
	// FailClosed rejects the text when the list cannot be fetched.
	FailClosed FailPolicy = "closed"
)

// ParseFailPolicy converts a configuration value into a FailPolicy.
// An empty value means FailOpen.
func ParseFailPolicy(s string) (FailPolicy, error) {
	switch FailPolicy(s) {
	case "", FailOpen:
		return FailOpen, nil
	case FailClosed:
		return FailClosed, nil
	default:
		return "", fmt.Errorf("unknown moderation fail policy %q", s)
	}
}

// WordListSource fetches the newline-delimited moderation list.
type WordListSource interface {
	// Load returns the raw lines of the list. Called once per check.
	Load(ctx context.Context) ([]string, error)

	// Name identifies the backend in logs and metrics (e.g., "blob", "sqlite").
	Name() string
}

// Logger defines the contract for logging within the moderation gates.
type Logger interface {
	Debug(msg string, keysAndValues ...any)
	Info(msg string, keysAndValues ...any)
	Warn(msg string, keysAndValues ...any)
	Error(msg string, keysAndValues ...any)
}

// Disabled is a gate that allows everything.
type Disabled struct{}

// IsDisallowed always returns false.
func (Disabled) IsDisallowed(context.Context, string) (bool, error) {
	return false, nil
}
