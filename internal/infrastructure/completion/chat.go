package completion

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/qj0r9j0vc2/mention-bridge/internal/domain/entity"
	domainerrors "github.com/qj0r9j0vc2/mention-bridge/internal/domain/errors"
)

const (
	AuthSchemeAPIKey = "api-key"
	AuthSchemeBearer = "bearer"

	DefaultAPIVersion = "2023-03-15-preview"
)

// ChatConfig configures the chat-completion protocol.
type ChatConfig struct {
	Endpoint   string // base URL, or the full completion URL when Deployment is empty
	APIKey     string
	Deployment string
	APIVersion string
	Model      string
	AuthScheme string // "api-key" (default) or "bearer"

	MaxTokens        int
	Temperature      float64
	FrequencyPenalty float64
	PresencePenalty  float64
	TopP             float64

	Timeout time.Duration
}

// ChatClient sends role-tagged conversations to an OpenAI-compatible
// chat-completion endpoint (Azure OpenAI deployments included).
type ChatClient struct {
	cfg  ChatConfig
	url  string
	rest *restClient
}

type chatRequest struct {
	Model            string           `json:"model,omitempty"`
	Messages         []entity.Message `json:"messages"`
	MaxTokens        int              `json:"max_tokens"`
	Temperature      float64          `json:"temperature"`
	FrequencyPenalty float64          `json:"frequency_penalty"`
	PresencePenalty  float64          `json:"presence_penalty"`
	TopP             float64          `json:"top_p"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Code    string `json:"code"`
	} `json:"error,omitempty"`
}

// NewChatClient creates a chat-completion client.
func NewChatClient(cfg ChatConfig) (*ChatClient, error) {
	if cfg.Endpoint == "" {
		return nil, errors.New("chat completion endpoint is required")
	}

	target, err := chatURL(cfg)
	if err != nil {
		return nil, err
	}

	headers := map[string]string{}
	if cfg.APIKey != "" {
		switch strings.ToLower(cfg.AuthScheme) {
		case "", AuthSchemeAPIKey:
			headers["api-key"] = cfg.APIKey
		case AuthSchemeBearer:
			headers["Authorization"] = "Bearer " + cfg.APIKey
		default:
			return nil, fmt.Errorf("unknown auth scheme %q", cfg.AuthScheme)
		}
	}

	return &ChatClient{
		cfg:  cfg,
		url:  target,
		rest: newRestClient(cfg.Timeout, headers),
	}, nil
}

// chatURL builds the Azure deployment path when a deployment is configured.
func chatURL(cfg ChatConfig) (string, error) {
	if cfg.Deployment == "" {
		return cfg.Endpoint, nil
	}

	base, err := url.Parse(strings.TrimRight(cfg.Endpoint, "/"))
	if err != nil {
		return "", fmt.Errorf("parse endpoint: %w", err)
	}

	version := cfg.APIVersion
	if version == "" {
		version = DefaultAPIVersion
	}

	base = base.JoinPath("openai", "deployments", cfg.Deployment, "chat", "completions")
	q := base.Query()
	q.Set("api-version", version)
	base.RawQuery = q.Encode()

	return base.String(), nil
}

// Protocol returns "chat".
func (c *ChatClient) Protocol() string {
	return ProtocolChat
}

// Complete sends the prompt's conversation and returns choices[0].message.content.
func (c *ChatClient) Complete(ctx context.Context, prompt entity.Prompt) (string, error) {
	req := chatRequest{
		Model:            c.cfg.Model,
		Messages:         prompt.Conversation,
		MaxTokens:        c.cfg.MaxTokens,
		Temperature:      c.cfg.Temperature,
		FrequencyPenalty: c.cfg.FrequencyPenalty,
		PresencePenalty:  c.cfg.PresencePenalty,
		TopP:             c.cfg.TopP,
	}

	body, err := c.rest.post(ctx, c.url, req)
	if err != nil {
		return "", err
	}

	var resp chatResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", domainerrors.NewPermanentError("malformed chat completion response", err)
	}

	if resp.Error != nil {
		return "", domainerrors.NewPermanentError("chat completion error", errors.New(resp.Error.Message))
	}

	if len(resp.Choices) == 0 {
		return "", domainerrors.NewPermanentError("chat completion returned no choices", nil)
	}

	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}
