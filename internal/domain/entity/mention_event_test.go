package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMentionEvent_ThreadID(t *testing.T) {
	top := &MentionEvent{Type: MentionEventType, Timestamp: "1700000000.000100"}
	assert.Equal(t, "1700000000.000100", top.ThreadID())
	assert.False(t, top.IsInThread())

	reply := &MentionEvent{Type: MentionEventType, Timestamp: "1700000050.000100", ThreadTS: "1700000000.000100"}
	assert.Equal(t, "1700000000.000100", reply.ThreadID())
	assert.True(t, reply.IsInThread())
}

func TestMentionEvent_IsAppMention(t *testing.T) {
	assert.True(t, (&MentionEvent{Type: "app_mention"}).IsAppMention())
	assert.False(t, (&MentionEvent{Type: "message"}).IsAppMention())
}

func TestConversation_Turns(t *testing.T) {
	conv := Conversation{
		{Role: RoleSystem, Content: "be brief"},
		{Role: RoleUser, Content: "hi"},
		{Role: RoleAssistant, Content: "hello"},
		{Role: RoleUser, Content: "what time is it"},
	}

	assert.Equal(t, conv[1:], conv.Turns())
	assert.Equal(t, Conversation{{Role: RoleUser, Content: "x"}}, Conversation{{Role: RoleUser, Content: "x"}}.Turns())
	assert.Empty(t, Conversation{}.Turns())
}
