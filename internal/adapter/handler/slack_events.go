package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"runtime/debug"
	"sync"

	"github.com/qj0r9j0vc2/mention-bridge/internal/adapter/dto"
	"github.com/qj0r9j0vc2/mention-bridge/internal/domain/entity"
	"github.com/qj0r9j0vc2/mention-bridge/internal/domain/logger"
	"github.com/qj0r9j0vc2/mention-bridge/internal/usecase/mention"
)

const maxEventBodyBytes = 1 << 20

// MentionExecutor runs the mention pipeline for one event.
type MentionExecutor interface {
	Execute(ctx context.Context, event *entity.MentionEvent) (*mention.Output, error)
}

// statusResponse is the body returned to Slack on every accepted request.
type statusResponse struct {
	Status  int    `json:"status"`
	Message string `json:"message,omitempty"`
}

// SlackEventsHandler handles Slack Events API requests.
// Mentions are acknowledged immediately and processed in the background,
// outliving the request; Wait blocks until in-flight mentions finish.
// NOTE: Signature verification is handled by middleware.SlackAuth middleware.
type SlackEventsHandler struct {
	mentions MentionExecutor
	logger   logger.Logger

	wg sync.WaitGroup
}

// NewSlackEventsHandler creates a new Slack events handler.
func NewSlackEventsHandler(mentions MentionExecutor, logger logger.Logger) *SlackEventsHandler {
	return &SlackEventsHandler{
		mentions: mentions,
		logger:   logger,
	}
}

// ServeHTTP handles POST /webhook/slack/events
func (h *SlackEventsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	// Slack redelivers events it considers unanswered; the first delivery
	// is already being handled.
	if retry := r.Header.Get(dto.RetryHeader); retry != "" {
		h.logger.Info("ignoring slack redelivery",
			"retry_num", retry,
			"retry_reason", r.Header.Get("X-Slack-Retry-Reason"),
		)
		writeStatus(w, "No need to resend")
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxEventBodyBytes))
	if err != nil {
		http.Error(w, "failed to read body", http.StatusBadRequest)
		return
	}

	envelope, err := dto.DecodeEnvelope(body)
	if err != nil {
		var parseErr *dto.ParseError
		if errors.As(err, &parseErr) {
			h.logger.Warn("rejecting malformed slack event", "error", parseErr)
		}
		http.Error(w, "invalid payload", http.StatusBadRequest)
		return
	}

	// Handle URL verification challenge
	if envelope.IsChallenge() {
		w.Header().Set("Content-Type", "text/plain")
		w.Write([]byte(envelope.Challenge))
		return
	}

	event, ok := envelope.MentionEvent()
	if !ok {
		writeStatus(w, "")
		return
	}

	// Slack drops the connection after about three seconds, which cancels
	// r.Context(). The pipeline bounds itself with its own timeout.
	ctx := context.WithoutCancel(r.Context())
	h.wg.Add(1)
	go func() {
		defer h.wg.Done()
		h.handleMention(ctx, event)
	}()

	writeStatus(w, "")
}

// Wait blocks until every mention accepted so far has been processed.
func (h *SlackEventsHandler) Wait() {
	h.wg.Wait()
}

func (h *SlackEventsHandler) handleMention(ctx context.Context, event *entity.MentionEvent) {
	defer func() {
		if rec := recover(); rec != nil {
			h.logger.Error("panic while handling mention",
				"event_id", event.EventID,
				"channel", event.ChannelID,
				"error", rec,
				"stack", string(debug.Stack()),
			)
		}
	}()

	output, err := h.mentions.Execute(ctx, event)
	if err != nil {
		h.logger.Error("failed to handle mention",
			"event_id", event.EventID,
			"channel", event.ChannelID,
			"error", err,
		)
	} else {
		h.logger.Info("mention handled",
			"event_id", event.EventID,
			"channel", event.ChannelID,
			"thread_ts", event.ThreadID(),
			"in_thread", event.IsInThread(),
			"outcome", output.Outcome,
			"replied", output.Replied,
		)
	}
}

func writeStatus(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(statusResponse{Status: http.StatusOK, Message: message})
}
