package presenter

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// MaxMessageLength is the longest text Slack accepts in a single message.
const MaxMessageLength = 40000

const truncationSuffix = "…"

var (
	boldPattern    = regexp.MustCompile(`\*\*(.+?)\*\*|__(.+?)__`)
	strikePattern  = regexp.MustCompile(`~~(.+?)~~`)
	linkPattern    = regexp.MustCompile(`\[([^\]]+)\]\((https?://[^\s)]+)\)`)
	headingPattern = regexp.MustCompile(`(?m)^#{1,6}[ \t]+(.+?)[ \t]*#*[ \t]*$`)
	bulletPattern  = regexp.MustCompile(`(?m)^([ \t]*)[-*+][ \t]+`)
	inlineCode     = regexp.MustCompile("`[^`\n]+`")
)

// MrkdwnFormatter rewrites completion answers written in Markdown into
// Slack mrkdwn and keeps them within Slack's message size limit.
type MrkdwnFormatter struct {
	enabled func() bool
}

// NewMrkdwnFormatter creates a formatter. Conversion runs only while enabled
// reports true; truncation always applies.
func NewMrkdwnFormatter(enabled func() bool) *MrkdwnFormatter {
	if enabled == nil {
		enabled = func() bool { return true }
	}
	return &MrkdwnFormatter{enabled: enabled}
}

// Format converts and truncates text.
func (f *MrkdwnFormatter) Format(text string) string {
	if f.enabled() {
		text = ToMrkdwn(text)
	}
	return Truncate(text, MaxMessageLength)
}

// ToMrkdwn converts common Markdown constructs to Slack mrkdwn.
// Fenced code blocks and inline code are left untouched.
func ToMrkdwn(text string) string {
	parts := strings.Split(text, "```")
	for i := range parts {
		// Odd parts are inside a fence
		if i%2 == 1 {
			continue
		}
		parts[i] = convertOutsideInlineCode(parts[i])
	}
	return strings.Join(parts, "```")
}

func convertOutsideInlineCode(s string) string {
	var b strings.Builder
	last := 0
	for _, loc := range inlineCode.FindAllStringIndex(s, -1) {
		b.WriteString(convertSpan(s[last:loc[0]]))
		b.WriteString(s[loc[0]:loc[1]])
		last = loc[1]
	}
	b.WriteString(convertSpan(s[last:]))
	return b.String()
}

func convertSpan(s string) string {
	s = headingPattern.ReplaceAllString(s, "*$1*")
	s = bulletPattern.ReplaceAllString(s, "${1}• ")
	s = boldPattern.ReplaceAllString(s, "*$1$2*")
	s = strikePattern.ReplaceAllString(s, "~$1~")
	s = linkPattern.ReplaceAllString(s, "<$2|$1>")
	return s
}

// Truncate shortens text to at most limit runes, marking the cut.
func Truncate(text string, limit int) string {
	if limit <= 0 || utf8.RuneCountInString(text) <= limit {
		return text
	}

	keep := limit - utf8.RuneCountInString(truncationSuffix)
	if keep < 0 {
		keep = 0
	}

	n := 0
	for i := range text {
		if n == keep {
			return text[:i] + truncationSuffix
		}
		n++
	}
	return text
}
