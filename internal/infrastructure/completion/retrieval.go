package completion

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/qj0r9j0vc2/mention-bridge/internal/domain/entity"
	domainerrors "github.com/qj0r9j0vc2/mention-bridge/internal/domain/errors"
)

// RetrievalConfig configures the retrieval (prompt-flow style) protocol.
type RetrievalConfig struct {
	Endpoint   string
	APIKey     string
	Deployment string // sent as the azureml-model-deployment header
	Timeout    time.Duration
}

// RetrievalClient sends a standalone question plus earlier Q/A pairs to a
// retrieval-augmented endpoint and reads the "answer" field of the response.
type RetrievalClient struct {
	endpoint string
	rest     *restClient
}

type retrievalTurn struct {
	Inputs struct {
		Question string `json:"question"`
	} `json:"inputs"`
	Outputs struct {
		Answer string `json:"answer"`
	} `json:"outputs"`
}

type retrievalRequest struct {
	ChatHistory []retrievalTurn `json:"chat_history"`
	Question    string          `json:"question"`
}

// NewRetrievalClient creates a retrieval client.
func NewRetrievalClient(cfg RetrievalConfig) (*RetrievalClient, error) {
	if cfg.Endpoint == "" {
		return nil, errors.New("retrieval endpoint is required")
	}

	headers := map[string]string{}
	if cfg.APIKey != "" {
		headers["Authorization"] = "Bearer " + cfg.APIKey
	}
	if cfg.Deployment != "" {
		headers["azureml-model-deployment"] = cfg.Deployment
	}

	return &RetrievalClient{
		endpoint: cfg.Endpoint,
		rest:     newRestClient(cfg.Timeout, headers),
	}, nil
}

// Protocol returns "retrieval".
func (c *RetrievalClient) Protocol() string {
	return ProtocolRetrieval
}

// Complete posts the question and history and returns the answer.
func (c *RetrievalClient) Complete(ctx context.Context, prompt entity.Prompt) (string, error) {
	req := retrievalRequest{
		ChatHistory: make([]retrievalTurn, 0, len(prompt.History)),
		Question:    prompt.Question,
	}
	for _, qa := range prompt.History {
		var turn retrievalTurn
		turn.Inputs.Question = qa.Question
		turn.Outputs.Answer = qa.Answer
		req.ChatHistory = append(req.ChatHistory, turn)
	}

	body, err := c.rest.post(ctx, c.endpoint, req)
	if err != nil {
		return "", err
	}

	answer, err := extractAnswer(body)
	if err != nil {
		return "", domainerrors.NewPermanentError("malformed retrieval response", err)
	}

	return strings.TrimSpace(answer), nil
}

// extractAnswer decodes numeric escapes in the raw body and reads the "answer" field.
// The document may be an object or a JSON string that wraps an object.
func extractAnswer(body []byte) (string, error) {
	doc := []byte(UnescapeUnicode(string(body)))

	trimmed := bytes.TrimSpace(doc)
	if len(trimmed) > 0 && trimmed[0] == '"' {
		var inner string
		if err := json.Unmarshal(trimmed, &inner); err != nil {
			return "", err
		}
		trimmed = []byte(inner)
	}

	var resp struct {
		Answer *string `json:"answer"`
	}
	if err := json.Unmarshal(trimmed, &resp); err != nil {
		return "", err
	}
	if resp.Answer == nil {
		return "", errors.New(`response has no "answer" field`)
	}

	return *resp.Answer, nil
}
