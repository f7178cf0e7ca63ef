package middleware

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

const testSigningSecret = "8f742231b10e8888abcd99yyyzzz85a5"

func sign(secret, timestamp, body string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "v0:%s:%s", timestamp, body)
	return "v0=" + hex.EncodeToString(mac.Sum(nil))
}

func echoBody(t *testing.T) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		assert.NoError(t, err)
		w.Write(body)
	})
}

func TestSlackAuth(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	body := `{"type":"event_callback"}`
	now := strconv.FormatInt(time.Now().Unix(), 10)
	stale := strconv.FormatInt(time.Now().Add(-10*time.Minute).Unix(), 10)

	tests := []struct {
		name       string
		secret     string
		timestamp  string
		signature  string
		wantStatus int
	}{
		{
			name:       "valid signature",
			secret:     testSigningSecret,
			timestamp:  now,
			signature:  sign(testSigningSecret, now, body),
			wantStatus: http.StatusOK,
		},
		{
			name:       "wrong secret",
			secret:     testSigningSecret,
			timestamp:  now,
			signature:  sign("other-secret", now, body),
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "stale timestamp",
			secret:     testSigningSecret,
			timestamp:  stale,
			signature:  sign(testSigningSecret, stale, body),
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "missing headers",
			secret:     testSigningSecret,
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "verification disabled",
			secret:     "",
			wantStatus: http.StatusOK,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/webhook/slack/events", strings.NewReader(body))
			if tt.timestamp != "" {
				req.Header.Set("X-Slack-Request-Timestamp", tt.timestamp)
			}
			if tt.signature != "" {
				req.Header.Set("X-Slack-Signature", tt.signature)
			}
			w := httptest.NewRecorder()

			SlackAuth(tt.secret, StaticLogger(logger))(echoBody(t)).ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
			if tt.wantStatus == http.StatusOK {
				assert.Equal(t, body, w.Body.String(), "body must be restored for the handler")
			}
		})
	}
}
