package entity

// Role is the conversational role of a message sent to a completion service.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is a role-tagged message.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Conversation is an ordered sequence of role-tagged messages.
// A well-formed conversation starts with exactly one system message.
type Conversation []Message

// Turns returns the messages after the leading system message.
func (c Conversation) Turns() []Message {
	if len(c) > 0 && c[0].Role == RoleSystem {
		return c[1:]
	}
	return c
}

// QAPair is one earlier question and the answer the bot gave to it.
type QAPair struct {
	Question string
	Answer   string
}

// Prompt is everything a completion strategy may draw on for one mention.
// Chat-style strategies use Conversation; retrieval-style strategies use Question and History.
type Prompt struct {
	Conversation Conversation
	Question     string
	History      []QAPair
}
