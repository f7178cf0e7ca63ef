package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics holds all application metrics.
// It implements the mention pipeline's metrics recorder.
type Metrics struct {
	meter metric.Meter

	// HTTP metrics
	HTTPRequestsTotal   metric.Int64Counter
	HTTPRequestDuration metric.Float64Histogram
	HTTPRequestsActive  metric.Int64UpDownCounter

	// Mention pipeline metrics
	MentionsProcessedTotal    metric.Int64Counter
	MentionProcessingDuration metric.Float64Histogram
	ModerationDecisionsTotal  metric.Int64Counter

	// Slack metrics
	ThreadFetchesTotal metric.Int64Counter
	ThreadMessages     metric.Int64Histogram
	RepliesPostedTotal metric.Int64Counter

	// Completion metrics
	CompletionRequestsTotal   metric.Int64Counter
	CompletionRequestDuration metric.Float64Histogram
}

// NewMetrics creates and registers all application metrics.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	m := &Metrics{meter: meter}

	var err error

	// HTTP metrics
	m.HTTPRequestsTotal, err = meter.Int64Counter(
		"http.server.requests.total",
		metric.WithDescription("Total number of HTTP requests"),
		metric.WithUnit("{requests}"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating http_requests_total: %w", err)
	}

	m.HTTPRequestDuration, err = meter.Float64Histogram(
		"http.server.request.duration",
		metric.WithDescription("HTTP request duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating http_request_duration: %w", err)
	}

	m.HTTPRequestsActive, err = meter.Int64UpDownCounter(
		"http.server.requests.active",
		metric.WithDescription("Number of active HTTP requests"),
		metric.WithUnit("{requests}"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating http_requests_active: %w", err)
	}

	// Mention pipeline metrics
	m.MentionsProcessedTotal, err = meter.Int64Counter(
		"mentions.processed.total",
		metric.WithDescription("Total number of mention events processed, by outcome"),
		metric.WithUnit("{mentions}"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating mentions_processed_total: %w", err)
	}

	m.MentionProcessingDuration, err = meter.Float64Histogram(
		"mentions.processing.duration",
		metric.WithDescription("Mention processing duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating mention_processing_duration: %w", err)
	}

	m.ModerationDecisionsTotal, err = meter.Int64Counter(
		"moderation.decisions.total",
		metric.WithDescription("Total number of moderation decisions, by result"),
		metric.WithUnit("{decisions}"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating moderation_decisions_total: %w", err)
	}

	// Slack metrics
	m.ThreadFetchesTotal, err = meter.Int64Counter(
		"slack.thread.fetches.total",
		metric.WithDescription("Total number of thread history fetches"),
		metric.WithUnit("{fetches}"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating thread_fetches_total: %w", err)
	}

	m.ThreadMessages, err = meter.Int64Histogram(
		"slack.thread.messages",
		metric.WithDescription("Number of messages in fetched threads"),
		metric.WithUnit("{messages}"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating thread_messages: %w", err)
	}

	m.RepliesPostedTotal, err = meter.Int64Counter(
		"slack.replies.total",
		metric.WithDescription("Total number of thread replies posted, by kind"),
		metric.WithUnit("{replies}"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating replies_total: %w", err)
	}

	// Completion metrics
	m.CompletionRequestsTotal, err = meter.Int64Counter(
		"completion.requests.total",
		metric.WithDescription("Total number of completion requests"),
		metric.WithUnit("{requests}"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating completion_requests_total: %w", err)
	}

	m.CompletionRequestDuration, err = meter.Float64Histogram(
		"completion.request.duration",
		metric.WithDescription("Completion request duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating completion_request_duration: %w", err)
	}

	return m, nil
}

// RecordHTTPRequest records HTTP request metrics.
func (m *Metrics) RecordHTTPRequest(ctx context.Context, method, path string, statusCode int, duration time.Duration) {
	attrs := []attribute.KeyValue{
		attribute.String("http.method", method),
		attribute.String("http.route", path),
		attribute.Int("http.status_code", statusCode),
	}

	m.HTTPRequestsTotal.Add(ctx, 1, metric.WithAttributes(attrs...))
	m.HTTPRequestDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attrs...))
}

// RecordModeration records a moderation decision.
func (m *Metrics) RecordModeration(ctx context.Context, result string) {
	m.ModerationDecisionsTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("result", result)))
}

// RecordThreadFetch records a thread history fetch.
func (m *Metrics) RecordThreadFetch(ctx context.Context, success bool, messages int) {
	m.ThreadFetchesTotal.Add(ctx, 1, metric.WithAttributes(attribute.Bool("success", success)))
	if success {
		m.ThreadMessages.Record(ctx, int64(messages))
	}
}

// RecordCompletion records a completion request.
func (m *Metrics) RecordCompletion(ctx context.Context, protocol string, success bool, duration time.Duration) {
	attrs := []attribute.KeyValue{
		attribute.String("protocol", protocol),
		attribute.Bool("success", success),
	}

	m.CompletionRequestsTotal.Add(ctx, 1, metric.WithAttributes(attrs...))
	m.CompletionRequestDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attrs...))
}

// RecordReply records a posted thread reply.
func (m *Metrics) RecordReply(ctx context.Context, kind string, success bool) {
	m.RepliesPostedTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("kind", kind),
		attribute.Bool("success", success),
	))
}

// RecordOutcome records the terminal outcome of a mention event.
func (m *Metrics) RecordOutcome(ctx context.Context, outcome string, duration time.Duration) {
	attrs := metric.WithAttributes(attribute.String("outcome", outcome))

	m.MentionsProcessedTotal.Add(ctx, 1, attrs)
	m.MentionProcessingDuration.Record(ctx, duration.Seconds(), attrs)
}
