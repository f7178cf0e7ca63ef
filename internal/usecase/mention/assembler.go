package mention

import (
	"errors"
	"regexp"
	"slices"
	"strings"

	"github.com/qj0r9j0vc2/mention-bridge/internal/domain/entity"
)

var (
	// ErrNoQuestion is returned when a thread yields no messages to send.
	ErrNoQuestion = errors.New("no question found in thread")

	// ErrThreadFetch wraps failures to retrieve the thread history.
	ErrThreadFetch = errors.New("failed to retrieve thread messages")
)

var (
	leadingMention = regexp.MustCompile(`^<@[^>]+>\s*`)
	anyMention     = regexp.MustCompile(`<@[^>]+>`)
)

// StripMention removes a single leading "<@U…>" mention token and the whitespace after it.
func StripMention(text string) string {
	return leadingMention.ReplaceAllString(text, "")
}

// StripMentions removes every "<@U…>" mention token. User IDs are digit runs
// that content patterns (phone numbers) would otherwise match.
func StripMentions(text string) string {
	return strings.TrimSpace(anyMention.ReplaceAllString(text, ""))
}

// Assemble turns thread messages into a conversation for a chat-completion service.
//
// Messages are ordered by ascending numeric timestamp (stable for ties), truncated
// to the last window entries when window > 0, and tagged assistant when authored
// by a bot and user otherwise. The system prompt is always the first message.
// Returns ErrNoQuestion when there is nothing to send.
func Assemble(messages []entity.ThreadMessage, window int, systemPrompt string) (entity.Conversation, error) {
	windowed := orderAndWindow(messages, window)
	if len(windowed) == 0 {
		return nil, ErrNoQuestion
	}

	conv := make(entity.Conversation, 0, len(windowed)+1)
	conv = append(conv, entity.Message{Role: entity.RoleSystem, Content: systemPrompt})
	for _, m := range windowed {
		conv = append(conv, toMessage(m))
	}

	return conv, nil
}

// BuildHistory pairs each user turn with the assistant turn that directly follows it.
// The trailing user turn (the question being asked) is not part of the history.
func BuildHistory(conv entity.Conversation) []entity.QAPair {
	turns := conv.Turns()

	var history []entity.QAPair
	for i := 0; i+1 < len(turns); i++ {
		if turns[i].Role != entity.RoleUser || turns[i+1].Role != entity.RoleAssistant {
			continue
		}
		history = append(history, entity.QAPair{
			Question: turns[i].Content,
			Answer:   turns[i+1].Content,
		})
		i++
	}

	return history
}

func orderAndWindow(messages []entity.ThreadMessage, window int) []entity.ThreadMessage {
	sorted := slices.Clone(messages)
	slices.SortStableFunc(sorted, func(a, b entity.ThreadMessage) int {
		return entity.CompareTimestamps(a.Timestamp, b.Timestamp)
	})

	if window > 0 && len(sorted) > window {
		sorted = sorted[len(sorted)-window:]
	}
	return sorted
}

func toMessage(m entity.ThreadMessage) entity.Message {
	role := entity.RoleUser
	if m.IsFromBot() {
		role = entity.RoleAssistant
	}
	return entity.Message{Role: role, Content: StripMention(m.Text)}
}
