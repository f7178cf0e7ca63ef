package observability

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func gatheredNames(t *testing.T, tel *Telemetry) []string {
	t.Helper()
	families, err := tel.Registry.Gather()
	require.NoError(t, err)

	names := make([]string, 0, len(families))
	for _, f := range families {
		names = append(names, f.GetName())
	}
	return names
}

func TestNewTelemetry_ExportsToOwnRegistry(t *testing.T) {
	first, err := NewTelemetry("", "test")
	require.NoError(t, err)
	t.Cleanup(func() { _ = first.Shutdown(context.Background()) })

	// A second instance in the same process must not collide with the first.
	second, err := NewTelemetry(ServiceName, "test")
	require.NoError(t, err)
	t.Cleanup(func() { _ = second.Shutdown(context.Background()) })

	first.Metrics.RecordOutcome(context.Background(), "answered", 250*time.Millisecond)

	joined := strings.Join(gatheredNames(t, first), " ")
	assert.Contains(t, joined, "mentions_processed")
	assert.Contains(t, joined, "go_goroutines")
	assert.Contains(t, joined, "target_info")

	assert.NotContains(t, strings.Join(gatheredNames(t, second), " "), "mentions_processed")
}
