package slack

import (
	"context"
	"errors"
	"fmt"
	"net"

	"github.com/slack-go/slack"

	"github.com/qj0r9j0vc2/mention-bridge/internal/domain/entity"
	domainerrors "github.com/qj0r9j0vc2/mention-bridge/internal/domain/errors"
)

// repliesPageSize is the page size requested from conversations.replies.
const repliesPageSize = 200

// Client wraps the Slack API client with the operations the mention pipeline needs.
// Implements mention.ThreadReader and mention.Responder.
type Client struct {
	api *slack.Client
}

// NewClient creates a new Slack client.
func NewClient(botToken string, apiURL ...string) *Client {
	var api *slack.Client
	if len(apiURL) > 0 && apiURL[0] != "" {
		// Use custom API URL (for tests against a fake Slack)
		api = slack.New(botToken, slack.OptionAPIURL(apiURL[0]))
	} else {
		api = slack.New(botToken)
	}

	return &Client{api: api}
}

// GetThreadMessages retrieves every message of a thread via conversations.replies,
// following the response cursor until the thread is exhausted.
func (c *Client) GetThreadMessages(ctx context.Context, channelID, threadTS string) ([]entity.ThreadMessage, error) {
	var (
		messages []entity.ThreadMessage
		cursor   string
	)

	for {
		page, hasMore, next, err := c.api.GetConversationRepliesContext(ctx, &slack.GetConversationRepliesParameters{
			ChannelID: channelID,
			Timestamp: threadTS,
			Cursor:    cursor,
			Limit:     repliesPageSize,
		})
		if err != nil {
			return nil, categorizeSlackError(err, "fetching thread replies")
		}

		for _, m := range page {
			messages = append(messages, entity.ThreadMessage{
				Timestamp: m.Timestamp,
				Text:      m.Text,
				UserID:    m.User,
				BotID:     m.BotID,
			})
		}

		if !hasMore || next == "" {
			return messages, nil
		}
		cursor = next
	}
}

// PostThreadReply posts a plain-text reply in the thread identified by threadTS.
func (c *Client) PostThreadReply(ctx context.Context, channelID, threadTS, text string) error {
	options := []slack.MsgOption{
		slack.MsgOptionText(text, false),
		slack.MsgOptionTS(threadTS),
	}

	_, _, err := c.api.PostMessageContext(ctx, channelID, options...)
	if err != nil {
		return categorizeSlackError(err, "posting thread reply")
	}

	return nil
}

// AuthTest verifies the bot token and returns the bot's user ID.
func (c *Client) AuthTest(ctx context.Context) (string, error) {
	resp, err := c.api.AuthTestContext(ctx)
	if err != nil {
		return "", categorizeSlackError(err, "auth test")
	}
	return resp.UserID, nil
}

// Ping reports whether Slack accepts the bot token.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.AuthTest(ctx)
	return err
}

// categorizeSlackError wraps Slack API errors as transient or permanent domain errors.
func categorizeSlackError(err error, operation string) error {
	if err == nil {
		return nil
	}

	var rateErr *slack.RateLimitedError
	if errors.As(err, &rateErr) {
		return domainerrors.NewTransientError(
			fmt.Sprintf("%s: rate limited (retry after %s)", operation, rateErr.RetryAfter),
			err,
		)
	}

	// Check for network errors (transient)
	var netErr net.Error
	if errors.As(err, &netErr) {
		return domainerrors.NewTransientError(
			fmt.Sprintf("%s: network error", operation),
			err,
		)
	}

	// Check for Slack API errors
	var slackErr slack.SlackErrorResponse
	if errors.As(err, &slackErr) {
		switch slackErr.Err {
		case "rate_limited", "ratelimited":
			return domainerrors.NewTransientError(
				fmt.Sprintf("%s: rate limited", operation),
				err,
			)

		case "internal_error", "fatal_error", "service_unavailable":
			return domainerrors.NewTransientError(
				fmt.Sprintf("%s: slack server error", operation),
				err,
			)

		// Everything else (invalid_auth, channel_not_found, thread_not_found, ...) is permanent
		default:
			return domainerrors.NewPermanentError(
				fmt.Sprintf("%s: %s", operation, slackErr.Err),
				err,
			)
		}
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return domainerrors.NewTransientError(
			fmt.Sprintf("%s: context timeout", operation),
			err,
		)
	}

	return domainerrors.NewPermanentError(
		fmt.Sprintf("%s: %v", operation, err),
		err,
	)
}
