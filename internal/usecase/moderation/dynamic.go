package moderation

import (
	"context"
	"fmt"
	"regexp"
	"strings"
)

// DynamicGate checks text against a word list fetched from a WordListSource on every call.
// Each non-blank line is a case-insensitive regular expression.
type DynamicGate struct {
	source WordListSource
	logger Logger
}

// NewDynamicGate creates a gate backed by source.
func NewDynamicGate(source WordListSource, logger Logger) *DynamicGate {
	return &DynamicGate{
		source: source,
		logger: logger,
	}
}

// IsDisallowed fetches the current list and returns true on the first matching line.
// A list that cannot be fetched yields an error wrapping ErrListUnavailable.
func (g *DynamicGate) IsDisallowed(ctx context.Context, text string) (bool, error) {
	lines, err := g.source.Load(ctx)
	if err != nil {
		return false, fmt.Errorf("%w: %s: %v", ErrListUnavailable, g.source.Name(), err)
	}

	for _, pattern := range ParseWordList(lines) {
		re, err := regexp.Compile("(?i)" + pattern)
		if err != nil {
			g.logger.Warn("skipping invalid moderation pattern",
				"source", g.source.Name(),
				"pattern", pattern,
				"error", err,
			)
			continue
		}
		if re.MatchString(text) {
			g.logger.Debug("moderation pattern matched",
				"source", g.source.Name(),
				"pattern", pattern,
			)
			return true, nil
		}
	}

	return false, nil
}

// ParseWordList trims each line and drops blank lines and "#" comments.
// Lines may themselves contain newlines (a whole document passed as one element).
func ParseWordList(lines []string) []string {
	var patterns []string
	for _, chunk := range lines {
		for _, line := range strings.Split(chunk, "\n") {
			line = strings.TrimSpace(line)
			if line == "" || strings.HasPrefix(line, "#") {
				continue
			}
			patterns = append(patterns, line)
		}
	}
	return patterns
}
