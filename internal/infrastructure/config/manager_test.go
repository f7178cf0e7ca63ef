package config

import (
	"errors"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingLogger struct {
	warnings []string
	errors   []string
}

func (l *recordingLogger) Info(string, ...any)        {}
func (l *recordingLogger) Warn(msg string, _ ...any)  { l.warnings = append(l.warnings, msg) }
func (l *recordingLogger) Error(msg string, _ ...any) { l.errors = append(l.errors, msg) }

func newManager(t *testing.T, content string) (*ConfigManager, string, *recordingLogger) {
	t.Helper()
	path := writeConfig(t, content)
	cfg, err := Load(path)
	require.NoError(t, err)
	logger := &recordingLogger{}
	return NewConfigManager(path, cfg, logger), path, logger
}

func TestConfigManager_TryReload_AppliesReloadableKeys(t *testing.T) {
	m, path, _ := newManager(t, minimalYAML)
	before := m.Get()

	var calls int
	m.OnReload(func(old, updated *Config) {
		calls++
		assert.Equal(t, "info", old.Logging.Level)
		assert.Equal(t, "debug", updated.Logging.Level)
	})

	require.NoError(t, os.WriteFile(path, []byte(minimalYAML+`
logging:
  level: debug
conversation:
  system_prompt: updated prompt
  max_thread_messages: 3
`), 0o600))

	require.NoError(t, m.TryReload())

	after := m.Get()
	assert.Equal(t, "debug", after.Logging.Level)
	assert.Equal(t, "updated prompt", after.Conversation.SystemPrompt)
	assert.Equal(t, 3, after.Conversation.MaxThreadMessages)
	assert.Equal(t, 1, calls)

	// The previous snapshot is untouched.
	assert.Equal(t, "info", before.Logging.Level)
}

func TestConfigManager_TryReload_StaticChangeRequiresRestart(t *testing.T) {
	m, path, logger := newManager(t, minimalYAML)

	require.NoError(t, os.WriteFile(path, []byte(minimalYAML+`
server:
  port: 9999
logging:
  level: warn
`), 0o600))

	err := m.TryReload()
	assert.True(t, errors.Is(err, ErrRequiresRestart))

	cfg := m.Get()
	assert.Equal(t, 8080, cfg.Server.Port, "static key must keep its running value")
	assert.Equal(t, "warn", cfg.Logging.Level, "reloadable key is still applied")
	assert.NotEmpty(t, logger.warnings)
}

func TestConfigManager_TryReload_InvalidKeepsCurrent(t *testing.T) {
	m, path, _ := newManager(t, minimalYAML)

	require.NoError(t, os.WriteFile(path, []byte(minimalYAML+`
logging:
  level: loud
`), 0o600))

	err := m.TryReload()
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrRequiresRestart))
	assert.Equal(t, "info", m.Get().Logging.Level)
}

func TestConfigManager_TryReload_NoChange(t *testing.T) {
	m, _, _ := newManager(t, minimalYAML)
	before := m.Get()

	called := false
	m.OnReload(func(*Config, *Config) { called = true })

	require.NoError(t, m.TryReload())
	assert.Same(t, before, m.Get())
	assert.False(t, called)
}

func TestStaticChanges(t *testing.T) {
	a := validConfig(t)
	b := *a
	b.Logging.Level = "debug"
	b.Moderation.FailPolicy = "closed"
	assert.Empty(t, staticChanges(a, &b))

	b.Moderation.Source = "blob"
	b.Completion.Model = "gpt-4o"
	assert.Equal(t, []string{"completion", "moderation"}, staticChanges(a, &b))
}

func TestConfigManager_Watch_NoPath(t *testing.T) {
	m := NewConfigManager("", &Config{}, &recordingLogger{})
	assert.NoError(t, m.Watch())
}
