package dto

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeEnvelope_Mention(t *testing.T) {
	body := `{
		"token": "tok",
		"type": "event_callback",
		"team_id": "T1",
		"event_id": "Ev1",
		"event": {
			"type": "app_mention",
			"user": "U1",
			"text": "<@BOT123> What is the weather?",
			"channel": "C1",
			"ts": "1700000000.000100",
			"thread_ts": "1700000000.000001"
		}
	}`

	env, err := DecodeEnvelope([]byte(body))
	require.NoError(t, err)
	assert.False(t, env.IsChallenge())

	event, ok := env.MentionEvent()
	require.True(t, ok)
	assert.Equal(t, "app_mention", event.Type)
	assert.Equal(t, "T1", event.TeamID)
	assert.Equal(t, "U1", event.UserID)
	assert.Equal(t, "C1", event.ChannelID)
	assert.Equal(t, "<@BOT123> What is the weather?", event.Text)
	assert.Equal(t, "1700000000.000001", event.ThreadID())
	assert.Equal(t, "Ev1", event.EventID)
}

func TestDecodeEnvelope_Challenge(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "url_verification", body: `{"type":"url_verification","challenge":"abc","token":"t"}`},
		{name: "challenge only", body: `{"challenge":"abc"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env, err := DecodeEnvelope([]byte(tt.body))
			require.NoError(t, err)
			assert.True(t, env.IsChallenge())
			assert.Equal(t, "abc", env.Challenge)
		})
	}
}

func TestDecodeEnvelope_NotMention(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "no event", body: `{"type":"event_callback"}`},
		{name: "message event", body: `{"type":"event_callback","event":{"type":"message","text":"hi"}}`},
		{name: "empty object", body: `{}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env, err := DecodeEnvelope([]byte(tt.body))
			require.NoError(t, err)

			event, ok := env.MentionEvent()
			assert.False(t, ok)
			assert.Nil(t, event)
		})
	}
}

func TestDecodeEnvelope_Malformed(t *testing.T) {
	for _, body := range []string{"", "{", "not json", `{"event":"oops"}`} {
		_, err := DecodeEnvelope([]byte(body))

		var parseErr *ParseError
		assert.ErrorAs(t, err, &parseErr, "body %q", body)
	}
}
