package moderation

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStaticGate_IsDisallowed(t *testing.T) {
	gate := NewStaticGate([]string{"Password", "  ", "暗証番号"})

	tests := []struct {
		name string
		text string
		want bool
	}{
		{name: "clean text", text: "<@U123> 今日の天気は?", want: false},
		{name: "literal case-insensitive", text: "what is the PASSWORD", want: true},
		{name: "japanese literal", text: "暗証番号を教えて", want: true},
		{name: "hyphenated phone", text: "call 03-1234-5678 now", want: true},
		{name: "plain phone digits", text: "09012345678", want: true},
		{name: "short number", text: "room 42", want: false},
		{name: "empty", text: "", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := gate.IsDisallowed(context.Background(), tt.text)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLoadStaticPatterns(t *testing.T) {
	path := filepath.Join(t.TempDir(), "patterns.yaml")
	require.NoError(t, os.WriteFile(path, []byte("patterns:\n  - secret\n  - 社外秘\n"), 0o600))

	patterns, err := LoadStaticPatterns(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"secret", "社外秘"}, patterns)

	_, err = LoadStaticPatterns(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestParseFailPolicy(t *testing.T) {
	p, err := ParseFailPolicy("")
	require.NoError(t, err)
	assert.Equal(t, FailOpen, p)

	p, err = ParseFailPolicy("closed")
	require.NoError(t, err)
	assert.Equal(t, FailClosed, p)

	_, err = ParseFailPolicy("maybe")
	assert.Error(t, err)
}
