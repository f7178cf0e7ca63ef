package mention

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qj0r9j0vc2/mention-bridge/internal/domain/entity"
	"github.com/qj0r9j0vc2/mention-bridge/internal/usecase/moderation"
)

type fakeModerator struct {
	disallowed bool
	err        error
	calls      int
	texts      []string
}

func (f *fakeModerator) IsDisallowed(_ context.Context, text string) (bool, error) {
	f.calls++
	f.texts = append(f.texts, text)
	return f.disallowed, f.err
}

type fakeThreads struct {
	messages []entity.ThreadMessage
	err      error
	calls    int
	threadTS string
}

func (f *fakeThreads) GetThreadMessages(_ context.Context, _, threadTS string) ([]entity.ThreadMessage, error) {
	f.calls++
	f.threadTS = threadTS
	return f.messages, f.err
}

type fakeCompleter struct {
	answer  string
	err     error
	panicOn bool
	block   bool
	prompts []entity.Prompt
}

func (f *fakeCompleter) Complete(ctx context.Context, prompt entity.Prompt) (string, error) {
	f.prompts = append(f.prompts, prompt)
	if f.panicOn {
		panic("boom")
	}
	if f.block {
		<-ctx.Done()
		return "", ctx.Err()
	}
	return f.answer, f.err
}

func (f *fakeCompleter) Protocol() string { return "fake" }

type post struct {
	channel  string
	threadTS string
	text     string
	ctxErr   error
}

type fakeResponder struct {
	mu    sync.Mutex
	posts []post
	err   error
}

func (f *fakeResponder) PostThreadReply(ctx context.Context, channel, threadTS, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.posts = append(f.posts, post{channel: channel, threadTS: threadTS, text: text, ctxErr: ctx.Err()})
	return f.err
}

type fakeReporter struct {
	dependencies []string
}

func (f *fakeReporter) ReportDependencyFailure(_ context.Context, dependency string, _ error) {
	f.dependencies = append(f.dependencies, dependency)
}

type upperFormatter struct{}

func (upperFormatter) Format(text string) string { return strings.ToUpper(text) }

type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Info(string, ...any)  {}
func (nopLogger) Warn(string, ...any)  {}
func (nopLogger) Error(string, ...any) {}

type harness struct {
	moderator *fakeModerator
	threads   *fakeThreads
	completer *fakeCompleter
	responder *fakeResponder
	reporter  *fakeReporter
	settings  Settings
	opts      Options
}

func newHarness() *harness {
	return &harness{
		moderator: &fakeModerator{},
		threads: &fakeThreads{messages: []entity.ThreadMessage{
			{Timestamp: "1700000000.000100", Text: "<@U0BOT> what is Go?", UserID: "U1"},
		}},
		completer: &fakeCompleter{answer: "a language"},
		responder: &fakeResponder{},
		reporter:  &fakeReporter{},
		settings: Settings{
			SystemPrompt:      "You are helpful.",
			MaxThreadMessages: 10,
			FailPolicy:        moderation.FailOpen,
			Messages:          DefaultMessages(),
		},
	}
}

func (h *harness) useCase() *HandleMentionUseCase {
	return NewHandleMentionUseCase(Dependencies{
		Moderator: h.moderator,
		Threads:   h.threads,
		Completer: h.completer,
		Responder: h.responder,
		Reporter:  h.reporter,
		Logger:    nopLogger{},
	}, StaticSettings(h.settings), h.opts)
}

func mentionEvent() *entity.MentionEvent {
	return &entity.MentionEvent{
		Type:      entity.MentionEventType,
		UserID:    "U1",
		Text:      "<@U0BOT> what is Go?",
		ChannelID: "C1",
		Timestamp: "1700000000.000100",
		EventID:   "Ev1",
	}
}

func TestExecute_Answered(t *testing.T) {
	h := newHarness()

	out, err := h.useCase().Execute(context.Background(), mentionEvent())
	require.NoError(t, err)

	assert.Equal(t, OutcomeAnswered, out.Outcome)
	assert.True(t, out.Replied)
	require.Len(t, h.responder.posts, 1)
	assert.Equal(t, post{channel: "C1", threadTS: "1700000000.000100", text: "a language"}, h.responder.posts[0])

	require.Len(t, h.completer.prompts, 1)
	prompt := h.completer.prompts[0]
	assert.Equal(t, "what is Go?", prompt.Question)
	assert.Equal(t, entity.Conversation{
		{Role: entity.RoleSystem, Content: "You are helpful."},
		{Role: entity.RoleUser, Content: "what is Go?"},
	}, prompt.Conversation)
	assert.Empty(t, prompt.History)
}

func TestExecute_RepliesInParentThread(t *testing.T) {
	h := newHarness()
	event := mentionEvent()
	event.Timestamp = "1700000050.000000"
	event.ThreadTS = "1700000000.000100"

	_, err := h.useCase().Execute(context.Background(), event)
	require.NoError(t, err)

	assert.Equal(t, "1700000000.000100", h.threads.threadTS)
	require.Len(t, h.responder.posts, 1)
	assert.Equal(t, "1700000000.000100", h.responder.posts[0].threadTS)
}

func TestExecute_HistoryFromThread(t *testing.T) {
	h := newHarness()
	h.threads.messages = []entity.ThreadMessage{
		{Timestamp: "1.0", Text: "<@U0BOT> q1"},
		{Timestamp: "2.0", Text: "a1", BotID: "B1"},
		{Timestamp: "3.0", Text: "<@U0BOT> what is Go?"},
	}

	_, err := h.useCase().Execute(context.Background(), mentionEvent())
	require.NoError(t, err)

	require.Len(t, h.completer.prompts, 1)
	assert.Equal(t, []entity.QAPair{{Question: "q1", Answer: "a1"}}, h.completer.prompts[0].History)
}

func TestExecute_Rejected(t *testing.T) {
	h := newHarness()
	h.moderator.disallowed = true

	out, err := h.useCase().Execute(context.Background(), mentionEvent())
	require.NoError(t, err)

	assert.Equal(t, OutcomeRejected, out.Outcome)
	require.Len(t, h.responder.posts, 1)
	assert.Equal(t, DefaultMessages().Rejected, h.responder.posts[0].text)
	assert.Zero(t, h.threads.calls)
	assert.Empty(t, h.completer.prompts)
}

func TestExecute_ModerationSeesTextWithoutMentions(t *testing.T) {
	h := newHarness()

	_, err := h.useCase().Execute(context.Background(), mentionEvent())
	require.NoError(t, err)

	assert.Equal(t, []string{"what is Go?"}, h.moderator.texts)
}

func TestExecute_StaticGateIgnoresNumericBotID(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		outcome Outcome
	}{
		{name: "digits only in mention", text: "<@U0123456789> what is Go?", outcome: OutcomeAnswered},
		{name: "phone number in question", text: "<@U0123456789> call 090-1234-5678", outcome: OutcomeRejected},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness()
			uc := NewHandleMentionUseCase(Dependencies{
				Moderator: moderation.NewStaticGate(moderation.DefaultBannedLiterals),
				Threads:   h.threads,
				Completer: h.completer,
				Responder: h.responder,
				Logger:    nopLogger{},
			}, StaticSettings(h.settings), h.opts)

			event := mentionEvent()
			event.Text = tt.text

			out, err := uc.Execute(context.Background(), event)
			require.NoError(t, err)
			assert.Equal(t, tt.outcome, out.Outcome)
		})
	}
}

func TestExecute_ModerationUnavailable(t *testing.T) {
	tests := []struct {
		name    string
		policy  moderation.FailPolicy
		outcome Outcome
	}{
		{name: "fail open continues", policy: moderation.FailOpen, outcome: OutcomeAnswered},
		{name: "fail closed rejects", policy: moderation.FailClosed, outcome: OutcomeRejected},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness()
			h.moderator.err = moderation.ErrListUnavailable
			h.settings.FailPolicy = tt.policy

			out, err := h.useCase().Execute(context.Background(), mentionEvent())
			require.NoError(t, err)

			assert.Equal(t, tt.outcome, out.Outcome)
			assert.Equal(t, []string{"moderation"}, h.reporter.dependencies)
			assert.Len(t, h.responder.posts, 1)
		})
	}
}

func TestExecute_ThreadFetchFailed(t *testing.T) {
	h := newHarness()
	h.threads.err = errors.New("channel_not_found")

	out, err := h.useCase().Execute(context.Background(), mentionEvent())
	require.NoError(t, err)

	assert.Equal(t, OutcomeThreadFetchFailed, out.Outcome)
	assert.Equal(t, DefaultMessages().ThreadFetchFailed, out.Reply)
	assert.Empty(t, h.completer.prompts)
	assert.Equal(t, []string{"slack"}, h.reporter.dependencies)
}

func TestExecute_NoQuestion(t *testing.T) {
	h := newHarness()
	h.threads.messages = nil

	out, err := h.useCase().Execute(context.Background(), mentionEvent())
	require.NoError(t, err)

	assert.Equal(t, OutcomeNoQuestion, out.Outcome)
	assert.Equal(t, DefaultMessages().NoQuestion, out.Reply)
	assert.Empty(t, h.completer.prompts)
}

func TestExecute_NoAnswer(t *testing.T) {
	tests := []struct {
		name   string
		answer string
		err    error
	}{
		{name: "completion error", err: errors.New("503 service unavailable")},
		{name: "empty answer", answer: ""},
		{name: "whitespace answer", answer: " \n "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness()
			h.completer.answer = tt.answer
			h.completer.err = tt.err

			out, err := h.useCase().Execute(context.Background(), mentionEvent())
			require.NoError(t, err)

			assert.Equal(t, OutcomeNoAnswer, out.Outcome)
			require.Len(t, h.responder.posts, 1)
			assert.Equal(t, DefaultMessages().NoAnswer, h.responder.posts[0].text)
		})
	}
}

func TestExecute_PanicIsReported(t *testing.T) {
	h := newHarness()
	h.completer.panicOn = true

	out, err := h.useCase().Execute(context.Background(), mentionEvent())
	require.NoError(t, err)

	assert.Equal(t, OutcomeError, out.Outcome)
	require.Len(t, h.responder.posts, 1)
	assert.Equal(t, "Error happened: boom", h.responder.posts[0].text)
}

func TestExecute_ReplyFailureIsNotPropagated(t *testing.T) {
	h := newHarness()
	h.responder.err = errors.New("not_in_channel")

	out, err := h.useCase().Execute(context.Background(), mentionEvent())
	require.NoError(t, err)

	assert.Equal(t, OutcomeAnswered, out.Outcome)
	assert.False(t, out.Replied)
}

func TestExecute_TimedOutPipelineStillReplies(t *testing.T) {
	h := newHarness()
	h.completer.block = true
	h.opts = Options{PipelineTimeout: 20 * time.Millisecond, ReplyTimeout: time.Second}

	out, err := h.useCase().Execute(context.Background(), mentionEvent())
	require.NoError(t, err)

	assert.Equal(t, OutcomeNoAnswer, out.Outcome)
	require.Len(t, h.responder.posts, 1)
	assert.NoError(t, h.responder.posts[0].ctxErr)
}

func TestExecute_FormatterApplied(t *testing.T) {
	h := newHarness()
	uc := NewHandleMentionUseCase(Dependencies{
		Moderator: h.moderator,
		Threads:   h.threads,
		Completer: h.completer,
		Responder: h.responder,
		Formatter: upperFormatter{},
		Logger:    nopLogger{},
	}, StaticSettings(h.settings), Options{})

	out, err := uc.Execute(context.Background(), mentionEvent())
	require.NoError(t, err)
	assert.Equal(t, "A LANGUAGE", out.Reply)
}

func TestExecute_SettingsReadPerEvent(t *testing.T) {
	h := newHarness()
	prompt := "first"
	uc := NewHandleMentionUseCase(Dependencies{
		Threads:   h.threads,
		Completer: h.completer,
		Responder: h.responder,
		Logger:    nopLogger{},
	}, func() Settings {
		s := h.settings
		s.SystemPrompt = prompt
		return s
	}, Options{})

	_, err := uc.Execute(context.Background(), mentionEvent())
	require.NoError(t, err)
	prompt = "second"
	_, err = uc.Execute(context.Background(), mentionEvent())
	require.NoError(t, err)

	require.Len(t, h.completer.prompts, 2)
	assert.Equal(t, "first", h.completer.prompts[0].Conversation[0].Content)
	assert.Equal(t, "second", h.completer.prompts[1].Conversation[0].Content)
}

func TestExecute_NotMention(t *testing.T) {
	h := newHarness()
	uc := h.useCase()

	_, err := uc.Execute(context.Background(), nil)
	assert.ErrorIs(t, err, ErrNotMention)

	_, err = uc.Execute(context.Background(), &entity.MentionEvent{Type: "message"})
	assert.ErrorIs(t, err, ErrNotMention)
	assert.Empty(t, h.responder.posts)
}
