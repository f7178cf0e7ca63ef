package entity

// MentionEventType is the Events API type of an app mention.
const MentionEventType = "app_mention"

// MentionEvent represents an app_mention event delivered by Slack's Events API.
type MentionEvent struct {
	// Event type (must be "app_mention" to be processed)
	Type string

	// Context
	TeamID    string
	UserID    string
	ChannelID string

	// Raw message body, may start with a "<@BOT>" mention token
	Text string

	// Message timestamp, doubles as the thread ID for top-level mentions
	Timestamp string

	// Parent thread timestamp (if the mention was posted in a thread)
	ThreadTS string

	// Unique event identifier
	EventID string
}

// IsAppMention returns true if this is an app_mention event.
func (e *MentionEvent) IsAppMention() bool {
	return e.Type == MentionEventType
}

// IsInThread returns true if the event is part of a thread.
func (e *MentionEvent) IsInThread() bool {
	return e.ThreadTS != ""
}

// ThreadID returns the timestamp replies must be attached to:
// the parent thread when there is one, otherwise the mention itself.
func (e *MentionEvent) ThreadID() string {
	if e.ThreadTS != "" {
		return e.ThreadTS
	}
	return e.Timestamp
}
