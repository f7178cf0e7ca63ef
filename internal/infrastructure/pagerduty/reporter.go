package pagerduty

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/PagerDuty/go-pagerduty"

	domainerrors "github.com/qj0r9j0vc2/mention-bridge/internal/domain/errors"
)

const (
	// DedupKeyPrefix namespaces incidents raised by this service.
	DedupKeyPrefix = "mention-bridge/"

	defaultCooldown = 5 * time.Minute
	defaultTimeout  = 10 * time.Second
)

// Logger is the logging contract used by the reporter.
type Logger interface {
	Warn(msg string, keysAndValues ...any)
	Error(msg string, keysAndValues ...any)
}

// Config holds reporter settings.
type Config struct {
	RoutingKey   string
	Severity     string
	Source       string
	EventsAPIURL string        // Optional: custom Events API endpoint
	Cooldown     time.Duration // Minimum interval between reports for the same dependency
	Timeout      time.Duration // Per-report deadline, retries included
}

// Reporter raises PagerDuty incidents when an external dependency of the
// mention pipeline fails. Reports are sent in the background so the pipeline
// is never held up by PagerDuty; Wait blocks until in-flight reports finish.
type Reporter struct {
	cfg        Config
	retry      *RetryPolicy
	logger     Logger
	httpClient *http.Client
	now        func() time.Time

	mu       sync.Mutex
	lastSent map[string]time.Time

	wg sync.WaitGroup
}

// NewReporter creates a new PagerDuty dependency-failure reporter.
func NewReporter(cfg Config, logger Logger) *Reporter {
	if cfg.Severity == "" {
		cfg.Severity = "error"
	}
	if cfg.Source == "" {
		cfg.Source = "mention-bridge"
	}
	if cfg.Cooldown <= 0 {
		cfg.Cooldown = defaultCooldown
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}

	return &Reporter{
		cfg:        cfg,
		retry:      DefaultRetryPolicy(),
		logger:     logger,
		httpClient: &http.Client{},
		now:        time.Now,
		lastSent:   make(map[string]time.Time),
	}
}

// ReportDependencyFailure triggers an incident for the failing dependency.
// Repeated failures of the same dependency within the cooldown are dropped.
func (r *Reporter) ReportDependencyFailure(ctx context.Context, dependency string, cause error) {
	if r.cfg.RoutingKey == "" || !r.allow(dependency) {
		return
	}

	event := r.buildEvent(dependency, cause)

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()

		sendCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.cfg.Timeout)
		defer cancel()

		err := r.retry.WithRetry(sendCtx, func(ctx context.Context) error {
			return r.send(ctx, event)
		})
		if err != nil {
			r.forget(dependency)
			if r.logger != nil {
				r.logger.Error("failed to report dependency failure to pagerduty",
					"dependency", dependency,
					"error", err,
				)
			}
		}
	}()
}

// Wait blocks until every in-flight report has completed.
func (r *Reporter) Wait() {
	r.wg.Wait()
}

func (r *Reporter) allow(dependency string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	if last, ok := r.lastSent[dependency]; ok && now.Sub(last) < r.cfg.Cooldown {
		return false
	}
	r.lastSent[dependency] = now
	return true
}

func (r *Reporter) forget(dependency string) {
	r.mu.Lock()
	delete(r.lastSent, dependency)
	r.mu.Unlock()
}

// buildEvent creates the trigger event for a dependency failure.
func (r *Reporter) buildEvent(dependency string, cause error) *pagerduty.V2Event {
	class := "permanent"
	if domainerrors.IsTransientError(cause) {
		class = "transient"
	}

	details := map[string]interface{}{
		"dependency": dependency,
		"class":      class,
	}
	if cause != nil {
		details["error"] = cause.Error()
	}

	return &pagerduty.V2Event{
		RoutingKey: r.cfg.RoutingKey,
		Action:     "trigger",
		DedupKey:   DedupKeyPrefix + dependency,
		Payload: &pagerduty.V2Payload{
			Summary:   fmt.Sprintf("[%s] %s dependency failure: %v", r.cfg.Source, dependency, cause),
			Source:    r.cfg.Source,
			Severity:  r.cfg.Severity,
			Timestamp: r.now().UTC().Format("2006-01-02T15:04:05.000Z"),
			Component: dependency,
			Class:     class,
			Details:   details,
		},
	}
}

func (r *Reporter) send(ctx context.Context, event *pagerduty.V2Event) error {
	var err error
	if r.cfg.EventsAPIURL != "" {
		// Use custom Events API endpoint
		_, err = r.sendEventHTTP(ctx, event)
	} else {
		_, err = pagerduty.ManageEventWithContext(ctx, *event)
	}
	return categorizePagerDutyError(err, "sending pagerduty event")
}

// sendEventHTTP sends an event to a custom PagerDuty Events API endpoint via HTTP.
func (r *Reporter) sendEventHTTP(ctx context.Context, event *pagerduty.V2Event) (*pagerduty.V2EventResponse, error) {
	payload, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("marshaling event: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.cfg.EventsAPIURL+"/v2/enqueue", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("sending request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, pagerduty.APIError{StatusCode: resp.StatusCode}
	}

	var eventResp pagerduty.V2EventResponse
	if err := json.Unmarshal(body, &eventResp); err != nil {
		return nil, fmt.Errorf("unmarshaling response: %w, body: %s", err, string(body))
	}

	return &eventResp, nil
}

// categorizePagerDutyError wraps PagerDuty API errors as transient or permanent domain errors.
func categorizePagerDutyError(err error, operation string) error {
	if err == nil {
		return nil
	}

	// Check for context errors (transient)
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return domainerrors.NewTransientError(
			fmt.Sprintf("%s: context timeout", operation),
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

	var pdErr pagerduty.APIError
	if errors.As(err, &pdErr) {
		switch {
		case pdErr.StatusCode == http.StatusTooManyRequests:
			return domainerrors.NewTransientError(
				fmt.Sprintf("%s: rate limited", operation),
				err,
			)
		case pdErr.StatusCode >= 500 && pdErr.StatusCode < 600:
			return domainerrors.NewTransientError(
				fmt.Sprintf("%s: pagerduty server error (status %d)", operation, pdErr.StatusCode),
				err,
			)
		case pdErr.StatusCode >= 400 && pdErr.StatusCode < 500:
			return domainerrors.NewPermanentError(
				fmt.Sprintf("%s: client error (status %d)", operation, pdErr.StatusCode),
				err,
			)
		}
	}

	// Default to permanent error
	return domainerrors.NewPermanentError(
		fmt.Sprintf("%s: %v", operation, err),
		err,
	)
}
