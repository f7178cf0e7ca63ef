package dto

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/slack-go/slack/slackevents"

	"github.com/qj0r9j0vc2/mention-bridge/internal/domain/entity"
)

// RetryHeader carries the redelivery attempt number of a Slack event.
const RetryHeader = "X-Slack-Retry-Num"

// EventEnvelope is the outer document of a Slack Events API request.
type EventEnvelope struct {
	Token     string             `json:"token"`
	Type      string             `json:"type"`
	Challenge string             `json:"challenge"`
	TeamID    string             `json:"team_id"`
	EventID   string             `json:"event_id"`
	Event     *SlackEventPayload `json:"event"`
}

// SlackEventPayload is the inner event of an event_callback envelope.
type SlackEventPayload struct {
	Type     string `json:"type"`
	User     string `json:"user"`
	Text     string `json:"text"`
	Channel  string `json:"channel"`
	TS       string `json:"ts"`
	ThreadTS string `json:"thread_ts"`
	BotID    string `json:"bot_id"`
}

// ParseError reports a request body that is not a valid event envelope.
type ParseError struct {
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("invalid event envelope: %v", e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// DecodeEnvelope parses a request body into an EventEnvelope.
func DecodeEnvelope(body []byte) (*EventEnvelope, error) {
	if len(body) == 0 {
		return nil, &ParseError{Err: errors.New("empty body")}
	}

	var env EventEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, &ParseError{Err: err}
	}
	return &env, nil
}

// IsChallenge reports whether the envelope is a URL verification handshake.
func (e *EventEnvelope) IsChallenge() bool {
	return e.Type == string(slackevents.URLVerification) || e.Challenge != ""
}

// MentionEvent converts the inner event to a domain mention event.
// It returns false when the envelope carries no app_mention event.
func (e *EventEnvelope) MentionEvent() (*entity.MentionEvent, bool) {
	if e.Event == nil || e.Event.Type != entity.MentionEventType {
		return nil, false
	}

	return &entity.MentionEvent{
		Type:      e.Event.Type,
		TeamID:    e.TeamID,
		UserID:    e.Event.User,
		ChannelID: e.Event.Channel,
		Text:      e.Event.Text,
		Timestamp: e.Event.TS,
		ThreadTS:  e.Event.ThreadTS,
		EventID:   e.EventID,
	}, true
}
