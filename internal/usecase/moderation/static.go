package moderation

import (
	"context"
	"fmt"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// PhoneNumberPattern matches phone-number-like digit runs such as 03-1234-5678 or 09012345678.
const PhoneNumberPattern = `\d{2,4}-?\d{2,4}-?\d{3,4}`

// DefaultBannedLiterals is the built-in literal list used when no pattern file is configured.
var DefaultBannedLiterals = []string{
	"パスワード",
	"password",
	"マイナンバー",
	"クレジットカード",
	"credit card",
	"暗証番号",
}

// StaticGate checks text against a fixed set of literal substrings and the phone number pattern.
// It performs no I/O.
type StaticGate struct {
	literals []string
	phone    *regexp.Regexp
}

// NewStaticGate creates a static gate. Literals are matched case-insensitively;
// blank literals are ignored.
func NewStaticGate(literals []string) *StaticGate {
	lowered := make([]string, 0, len(literals))
	for _, l := range literals {
		l = strings.TrimSpace(l)
		if l == "" {
			continue
		}
		lowered = append(lowered, strings.ToLower(l))
	}

	return &StaticGate{
		literals: lowered,
		phone:    regexp.MustCompile(PhoneNumberPattern),
	}
}

// IsDisallowed reports whether text contains a banned literal or a phone-number-like sequence.
func (g *StaticGate) IsDisallowed(_ context.Context, text string) (bool, error) {
	lower := strings.ToLower(text)
	for _, l := range g.literals {
		if strings.Contains(lower, l) {
			return true, nil
		}
	}
	return g.phone.MatchString(text), nil
}

// patternFile is the on-disk layout of a static pattern file.
type patternFile struct {
	Patterns []string `yaml:"patterns"`
}

// LoadStaticPatterns reads banned literals from a YAML file of the form:
//
//	patterns:
//	  - password
//	  - 暗証番号
func LoadStaticPatterns(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read pattern file: %w", err)
	}

	var pf patternFile
	if err := yaml.Unmarshal(data, &pf); err != nil {
		return nil, fmt.Errorf("parse pattern file: %w", err)
	}

	return pf.Patterns, nil
}
