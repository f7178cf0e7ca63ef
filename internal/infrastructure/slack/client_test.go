package slack

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainerrors "github.com/qj0r9j0vc2/mention-bridge/internal/domain/errors"
	"github.com/qj0r9j0vc2/mention-bridge/internal/infrastructure/slack/slacktest"
)

func TestClient_GetThreadMessages_Paginates(t *testing.T) {
	fake := slacktest.NewServer()
	defer fake.Close()
	fake.SetPageSize(2)

	fake.AddThreadMessage("C1", "100.000001", slacktest.Message{TS: "100.000001", Text: "<@U0BOT> hi", User: "U1"})
	fake.AddThreadMessage("C1", "100.000001", slacktest.Message{TS: "100.000002", Text: "hello", BotID: "B1"})
	fake.AddThreadMessage("C1", "100.000001", slacktest.Message{TS: "100.000003", Text: "<@U0BOT> more", User: "U1"})

	client := NewClient("xoxb-test", fake.APIURL())

	messages, err := client.GetThreadMessages(context.Background(), "C1", "100.000001")
	require.NoError(t, err)
	require.Len(t, messages, 3)
	assert.Equal(t, 2, fake.RepliesCalls())

	assert.Equal(t, "100.000001", messages[0].Timestamp)
	assert.Equal(t, "U1", messages[0].UserID)
	assert.False(t, messages[0].IsFromBot())
	assert.Equal(t, "B1", messages[1].BotID)
	assert.True(t, messages[1].IsFromBot())
	assert.Equal(t, "<@U0BOT> more", messages[2].Text)
}

func TestClient_GetThreadMessages_Error(t *testing.T) {
	fake := slacktest.NewServer()
	defer fake.Close()
	fake.FailMethod("conversations.replies", "channel_not_found")

	client := NewClient("xoxb-test", fake.APIURL())

	_, err := client.GetThreadMessages(context.Background(), "C404", "1.0")
	require.Error(t, err)
	assert.True(t, domainerrors.IsPermanentError(err))
	assert.Contains(t, err.Error(), "channel_not_found")
}

func TestClient_PostThreadReply(t *testing.T) {
	fake := slacktest.NewServer()
	defer fake.Close()

	client := NewClient("xoxb-test", fake.APIURL())

	err := client.PostThreadReply(context.Background(), "C1", "100.000001", "answer text")
	require.NoError(t, err)

	posted := fake.Posted()
	require.Len(t, posted, 1)
	assert.Equal(t, "C1", posted[0].Channel)
	assert.Equal(t, "100.000001", posted[0].ThreadTS)
	assert.Equal(t, "answer text", posted[0].Text)
}

func TestClient_PostThreadReply_ServerError(t *testing.T) {
	fake := slacktest.NewServer()
	defer fake.Close()
	fake.FailMethod("chat.postMessage", "internal_error")

	client := NewClient("xoxb-test", fake.APIURL())

	err := client.PostThreadReply(context.Background(), "C1", "1.0", "x")
	require.Error(t, err)
	assert.True(t, domainerrors.IsTransientError(err))
}

func TestClient_AuthTest(t *testing.T) {
	fake := slacktest.NewServer()
	defer fake.Close()

	userID, err := NewClient("xoxb-test", fake.APIURL()).AuthTest(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "U0FAKEBOT", userID)
}

func TestClient_Ping(t *testing.T) {
	fake := slacktest.NewServer()
	defer fake.Close()

	client := NewClient("xoxb-test", fake.APIURL())
	require.NoError(t, client.Ping(context.Background()))

	fake.FailMethod("auth.test", "invalid_auth")
	err := client.Ping(context.Background())
	require.Error(t, err)
	assert.True(t, domainerrors.IsPermanentError(err))
}

func TestCategorizeSlackError(t *testing.T) {
	assert.Nil(t, categorizeSlackError(nil, "op"))
	assert.True(t, domainerrors.IsTransientError(categorizeSlackError(context.DeadlineExceeded, "op")))
	assert.True(t, domainerrors.IsPermanentError(categorizeSlackError(assert.AnError, "op")))
}
