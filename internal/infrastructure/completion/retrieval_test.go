package completion

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qj0r9j0vc2/mention-bridge/internal/domain/entity"
	domainerrors "github.com/qj0r9j0vc2/mention-bridge/internal/domain/errors"
)

func TestRetrievalClient_Complete(t *testing.T) {
	var got retrievalRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer key", r.Header.Get("Authorization"))
		assert.Equal(t, "blue", r.Header.Get("azureml-model-deployment"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		// The service double-encodes non-ASCII text.
		w.Write([]byte(`{"answer": "\u6771\u4eac\u3067\u3059"}`))
	}))
	defer server.Close()

	client, err := NewRetrievalClient(RetrievalConfig{Endpoint: server.URL, APIKey: "key", Deployment: "blue"})
	require.NoError(t, err)
	assert.Equal(t, ProtocolRetrieval, client.Protocol())

	answer, err := client.Complete(context.Background(), entity.Prompt{
		Question: "首都は?",
		History:  []entity.QAPair{{Question: "hi", Answer: "hello"}},
	})
	require.NoError(t, err)
	assert.Equal(t, "東京です", answer)

	assert.Equal(t, "首都は?", got.Question)
	require.Len(t, got.ChatHistory, 1)
	assert.Equal(t, "hi", got.ChatHistory[0].Inputs.Question)
	assert.Equal(t, "hello", got.ChatHistory[0].Outputs.Answer)
}

func TestRetrievalClient_EmptyHistoryIsArray(t *testing.T) {
	var raw map[string]json.RawMessage
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&raw))
		w.Write([]byte(`{"answer":"ok"}`))
	}))
	defer server.Close()

	client, err := NewRetrievalClient(RetrievalConfig{Endpoint: server.URL})
	require.NoError(t, err)

	_, err = client.Complete(context.Background(), entity.Prompt{Question: "q"})
	require.NoError(t, err)
	assert.JSONEq(t, `[]`, string(raw["chat_history"]))
}

func TestExtractAnswer(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		want    string
		wantErr bool
	}{
		{name: "object", body: `{"answer":"yes"}`, want: "yes"},
		{name: "escaped object", body: `{"answer":"\u306f\u3044"}`, want: "はい"},
		{name: "string wrapping object", body: `"{\"answer\": \"\\u306f\\u3044\"}"`, want: "はい"},
		{name: "empty answer", body: `{"answer":""}`, want: ""},
		{name: "missing answer", body: `{"result":"x"}`, wantErr: true},
		{name: "malformed", body: `{"answer":`, wantErr: true},
		{name: "empty body", body: ``, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := extractAnswer([]byte(tt.body))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRetrievalClient_MissingAnswerIsPermanent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"error":"flow failed"}`))
	}))
	defer server.Close()

	client, err := NewRetrievalClient(RetrievalConfig{Endpoint: server.URL})
	require.NoError(t, err)

	_, err = client.Complete(context.Background(), entity.Prompt{Question: "q"})
	require.Error(t, err)
	assert.True(t, domainerrors.IsPermanentError(err))
}
