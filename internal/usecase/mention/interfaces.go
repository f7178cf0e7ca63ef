package mention

import (
	"context"
	"time"

	"github.com/qj0r9j0vc2/mention-bridge/internal/domain/entity"
)

// Moderator decides whether a mention's text may be answered.
type Moderator interface {
	// IsDisallowed returns true when the text contains disallowed content.
	// An error means the decision could not be made (e.g., the word list is unavailable).
	IsDisallowed(ctx context.Context, text string) (bool, error)
}

// ThreadReader fetches the messages of a Slack thread.
type ThreadReader interface {
	// GetThreadMessages returns every message of the thread rooted at threadTS,
	// the root message included, following pagination until exhausted.
	GetThreadMessages(ctx context.Context, channelID, threadTS string) ([]entity.ThreadMessage, error)
}

// Completer sends a prompt to a completion service.
// OCP: chat-completion and retrieval protocols implement this interface.
type Completer interface {
	// Complete returns the answer text. An empty string means no answer was produced.
	Complete(ctx context.Context, prompt entity.Prompt) (string, error)

	// Protocol returns the strategy identifier (e.g., "chat", "retrieval").
	Protocol() string
}

// Responder posts text into a Slack thread.
type Responder interface {
	PostThreadReply(ctx context.Context, channelID, threadTS, text string) error
}

// ReplyFormatter rewrites an answer before it is posted.
type ReplyFormatter interface {
	Format(text string) string
}

// FailureReporter escalates failures of external dependencies.
type FailureReporter interface {
	ReportDependencyFailure(ctx context.Context, dependency string, err error)
}

// MetricsRecorder records pipeline metrics.
type MetricsRecorder interface {
	RecordModeration(ctx context.Context, result string)
	RecordThreadFetch(ctx context.Context, success bool, messages int)
	RecordCompletion(ctx context.Context, protocol string, success bool, duration time.Duration)
	RecordReply(ctx context.Context, kind string, success bool)
	RecordOutcome(ctx context.Context, outcome string, duration time.Duration)
}

// Logger defines the contract for logging within use cases.
type Logger interface {
	Debug(msg string, keysAndValues ...any)
	Info(msg string, keysAndValues ...any)
	Warn(msg string, keysAndValues ...any)
	Error(msg string, keysAndValues ...any)
}

// nopRecorder is used when no metrics recorder is configured.
type nopRecorder struct{}

func (nopRecorder) RecordModeration(context.Context, string)                      {}
func (nopRecorder) RecordThreadFetch(context.Context, bool, int)                  {}
func (nopRecorder) RecordCompletion(context.Context, string, bool, time.Duration) {}
func (nopRecorder) RecordReply(context.Context, string, bool)                     {}
func (nopRecorder) RecordOutcome(context.Context, string, time.Duration)          {}

type nopReporter struct{}

func (nopReporter) ReportDependencyFailure(context.Context, string, error) {}

type identityFormatter struct{}

func (identityFormatter) Format(text string) string { return text }
