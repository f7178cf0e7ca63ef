package mention

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"strings"
	"time"

	"github.com/qj0r9j0vc2/mention-bridge/internal/domain/entity"
	"github.com/qj0r9j0vc2/mention-bridge/internal/usecase/moderation"
)

// Outcome is the terminal state of one pipeline run.
type Outcome string

const (
	OutcomeRejected          Outcome = "rejected"
	OutcomeThreadFetchFailed Outcome = "thread_fetch_failed"
	OutcomeNoQuestion        Outcome = "no_question"
	OutcomeNoAnswer          Outcome = "no_answer"
	OutcomeAnswered          Outcome = "answered"
	OutcomeError             Outcome = "error"
)

// ErrNotMention is returned when Execute is called with something other than an app mention.
var ErrNotMention = errors.New("event is not an app mention")

const (
	defaultPipelineTimeout = 25 * time.Second
	defaultReplyTimeout    = 10 * time.Second
)

// Output describes what the pipeline did for one mention.
type Output struct {
	Outcome Outcome
	Reply   string // text posted to the thread
	Replied bool   // false when posting the reply failed
}

// Dependencies are the collaborators of HandleMentionUseCase.
// Formatter, Reporter and Metrics are optional.
type Dependencies struct {
	Moderator Moderator
	Threads   ThreadReader
	Completer Completer
	Responder Responder
	Formatter ReplyFormatter
	Reporter  FailureReporter
	Metrics   MetricsRecorder
	Logger    Logger
}

// Options bound the time spent per mention.
type Options struct {
	PipelineTimeout time.Duration
	ReplyTimeout    time.Duration
}

// HandleMentionUseCase runs moderation, conversation assembly, completion and
// the reply for a single app mention.
type HandleMentionUseCase struct {
	moderator Moderator
	threads   ThreadReader
	completer Completer
	responder Responder
	formatter ReplyFormatter
	reporter  FailureReporter
	metrics   MetricsRecorder
	logger    Logger
	settings  SettingsFunc

	pipelineTimeout time.Duration
	replyTimeout    time.Duration
}

// NewHandleMentionUseCase creates a new HandleMentionUseCase with dependencies.
func NewHandleMentionUseCase(deps Dependencies, settings SettingsFunc, opts Options) *HandleMentionUseCase {
	uc := &HandleMentionUseCase{
		moderator:       deps.Moderator,
		threads:         deps.Threads,
		completer:       deps.Completer,
		responder:       deps.Responder,
		formatter:       deps.Formatter,
		reporter:        deps.Reporter,
		metrics:         deps.Metrics,
		logger:          deps.Logger,
		settings:        settings,
		pipelineTimeout: opts.PipelineTimeout,
		replyTimeout:    opts.ReplyTimeout,
	}

	if uc.moderator == nil {
		uc.moderator = moderation.Disabled{}
	}
	if uc.formatter == nil {
		uc.formatter = identityFormatter{}
	}
	if uc.reporter == nil {
		uc.reporter = nopReporter{}
	}
	if uc.metrics == nil {
		uc.metrics = nopRecorder{}
	}
	if uc.pipelineTimeout <= 0 {
		uc.pipelineTimeout = defaultPipelineTimeout
	}
	if uc.replyTimeout <= 0 {
		uc.replyTimeout = defaultReplyTimeout
	}

	return uc
}

// Execute processes an app mention. Every stage that fails replies to the thread
// with a canned message and stops; panics are recovered and reported to the user.
// The only error returned is ErrNotMention.
func (uc *HandleMentionUseCase) Execute(ctx context.Context, event *entity.MentionEvent) (out *Output, err error) {
	if event == nil || !event.IsAppMention() {
		return nil, ErrNotMention
	}

	settings := uc.settings()
	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			uc.logger.Error("panic in mention pipeline",
				"panic", r,
				"eventID", event.EventID,
				"stack", string(debug.Stack()),
			)
			out = uc.finishAfterPanic(ctx, event, settings.Messages.ErrorPrefix+fmt.Sprint(r))
			err = nil
		}
		uc.metrics.RecordOutcome(ctx, string(out.Outcome), time.Since(start))
	}()

	pctx, cancel := context.WithTimeout(ctx, uc.pipelineTimeout)
	defer cancel()

	return uc.run(pctx, event, settings), nil
}

func (uc *HandleMentionUseCase) run(ctx context.Context, event *entity.MentionEvent, settings Settings) *Output {
	logger := uc.logger

	// 1. Moderation
	if uc.isDisallowed(ctx, event, settings.FailPolicy) {
		logger.Info("mention rejected by moderation",
			"eventID", event.EventID,
			"channel", event.ChannelID,
			"user", event.UserID,
		)
		return uc.finish(ctx, event, OutcomeRejected, settings.Messages.Rejected)
	}

	// 2. Thread history
	messages, err := uc.threads.GetThreadMessages(ctx, event.ChannelID, event.ThreadID())
	uc.metrics.RecordThreadFetch(ctx, err == nil, len(messages))
	if err != nil {
		err = fmt.Errorf("%w: %w", ErrThreadFetch, err)
		logger.Error("failed to fetch thread",
			"error", err,
			"channel", event.ChannelID,
			"threadTS", event.ThreadID(),
		)
		uc.reporter.ReportDependencyFailure(ctx, "slack", err)
		return uc.finish(ctx, event, OutcomeThreadFetchFailed, settings.Messages.ThreadFetchFailed)
	}

	// 3. Conversation
	conv, err := Assemble(messages, settings.MaxThreadMessages, settings.SystemPrompt)
	if errors.Is(err, ErrNoQuestion) {
		logger.Info("no question in thread",
			"channel", event.ChannelID,
			"threadTS", event.ThreadID(),
		)
		return uc.finish(ctx, event, OutcomeNoQuestion, settings.Messages.NoQuestion)
	}
	if err != nil {
		logger.Error("failed to assemble conversation", "error", err)
		return uc.finish(ctx, event, OutcomeError, settings.Messages.ErrorPrefix+err.Error())
	}

	prompt := entity.Prompt{
		Conversation: conv,
		Question:     StripMention(event.Text),
		History:      BuildHistory(conv[:len(conv)-1]),
	}

	// 4. Completion
	answer := uc.complete(ctx, prompt)
	if strings.TrimSpace(answer) == "" {
		return uc.finish(ctx, event, OutcomeNoAnswer, settings.Messages.NoAnswer)
	}

	// 5. Reply
	return uc.finish(ctx, event, OutcomeAnswered, uc.formatter.Format(answer))
}

// isDisallowed applies the moderation gate and the configured fail policy.
func (uc *HandleMentionUseCase) isDisallowed(ctx context.Context, event *entity.MentionEvent, policy moderation.FailPolicy) bool {
	disallowed, err := uc.moderator.IsDisallowed(ctx, StripMentions(event.Text))
	if err == nil {
		if disallowed {
			uc.metrics.RecordModeration(ctx, "rejected")
		} else {
			uc.metrics.RecordModeration(ctx, "allowed")
		}
		return disallowed
	}

	uc.logger.Warn("moderation check failed",
		"error", err,
		"policy", string(policy),
		"eventID", event.EventID,
	)
	uc.reporter.ReportDependencyFailure(ctx, "moderation", err)

	if policy == moderation.FailClosed {
		uc.metrics.RecordModeration(ctx, "unavailable_closed")
		return true
	}
	uc.metrics.RecordModeration(ctx, "unavailable_open")
	return false
}

// complete calls the completion strategy. Failures are logged and yield "".
func (uc *HandleMentionUseCase) complete(ctx context.Context, prompt entity.Prompt) string {
	start := time.Now()
	answer, err := uc.completer.Complete(ctx, prompt)
	uc.metrics.RecordCompletion(ctx, uc.completer.Protocol(), err == nil && answer != "", time.Since(start))

	if err != nil {
		uc.logger.Error("completion failed",
			"error", err,
			"protocol", uc.completer.Protocol(),
		)
		uc.reporter.ReportDependencyFailure(ctx, "completion", err)
		return ""
	}

	return answer
}

// finish posts text to the thread and builds the output.
// The reply uses a context detached from the pipeline deadline so an expired
// pipeline still informs the user.
func (uc *HandleMentionUseCase) finish(ctx context.Context, event *entity.MentionEvent, outcome Outcome, text string) *Output {
	rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), uc.replyTimeout)
	defer cancel()

	err := uc.responder.PostThreadReply(rctx, event.ChannelID, event.ThreadID(), text)
	uc.metrics.RecordReply(ctx, string(outcome), err == nil)
	if err != nil {
		uc.logger.Error("failed to post thread reply",
			"error", err,
			"outcome", string(outcome),
			"channel", event.ChannelID,
			"threadTS", event.ThreadID(),
		)
	} else {
		uc.logger.Debug("posted thread reply",
			"outcome", string(outcome),
			"channel", event.ChannelID,
			"threadTS", event.ThreadID(),
		)
	}

	return &Output{
		Outcome: outcome,
		Reply:   text,
		Replied: err == nil,
	}
}

// finishAfterPanic reports a recovered panic to the thread. A second panic while
// replying is swallowed.
func (uc *HandleMentionUseCase) finishAfterPanic(ctx context.Context, event *entity.MentionEvent, text string) (out *Output) {
	defer func() {
		if r := recover(); r != nil {
			uc.logger.Error("panic while reporting pipeline panic", "panic", r)
			out = &Output{Outcome: OutcomeError, Reply: text}
		}
	}()
	return uc.finish(ctx, event, OutcomeError, text)
}
