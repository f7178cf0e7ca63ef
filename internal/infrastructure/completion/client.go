// Package completion implements the chat-completion and retrieval protocols
// used to answer mentions.
package completion

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	ProtocolChat      = "chat"
	ProtocolRetrieval = "retrieval"

	defaultTimeout = 20 * time.Second

	// maxResponseBytes caps how much of a response body is read.
	maxResponseBytes = 4 << 20
)

// restClient posts JSON documents and returns the raw response body.
type restClient struct {
	httpClient *http.Client
	headers    map[string]string
}

func newRestClient(timeout time.Duration, headers map[string]string) *restClient {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &restClient{
		httpClient: &http.Client{Timeout: timeout},
		headers:    headers,
	}
}

// post sends body as JSON. Non-2xx responses are returned as *StatusError.
func (c *restClient) post(ctx context.Context, url string, body any) ([]byte, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, categorize(fmt.Errorf("request failed: %w", err))
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, categorize(fmt.Errorf("read response: %w", err))
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, categorize(&StatusError{StatusCode: resp.StatusCode, Body: truncate(string(data), 512)})
	}

	return data, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
