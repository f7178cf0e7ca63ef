package config

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/google/go-cmp/cmp"
)

// ErrRequiresRestart is returned by TryReload when the new configuration changes
// keys that cannot be applied at runtime. Reloadable keys are still applied.
var ErrRequiresRestart = errors.New("configuration change requires restart")

// Logger defines the logging contract of the config manager.
type Logger interface {
	Info(msg string, keysAndValues ...any)
	Warn(msg string, keysAndValues ...any)
	Error(msg string, keysAndValues ...any)
}

// ReloadFunc is called after a reload with the previous and the new configuration.
type ReloadFunc func(old, updated *Config)

// ConfigManager holds the current configuration and applies reloads.
// Readers call Get; the returned snapshot is never mutated.
type ConfigManager struct {
	path    string
	logger  Logger
	current atomic.Pointer[Config]

	mu        sync.Mutex // serializes reloads
	callbacks []ReloadFunc
}

// NewConfigManager creates a manager seeded with initial.
func NewConfigManager(path string, initial *Config, logger Logger) *ConfigManager {
	m := &ConfigManager{
		path:   path,
		logger: logger,
	}
	m.current.Store(initial)
	return m
}

// Get returns the current configuration snapshot.
func (m *ConfigManager) Get() *Config {
	return m.current.Load()
}

// OnReload registers a callback run after every successful reload.
func (m *ConfigManager) OnReload(fn ReloadFunc) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.callbacks = append(m.callbacks, fn)
}

// TryReload re-reads the configuration file and environment.
//
// An invalid configuration is rejected and the current one kept. Changes to
// reloadable keys are applied; changes to anything else are logged, ignored
// and reported as ErrRequiresRestart.
func (m *ConfigManager) TryReload() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	loaded, err := Load(m.path)
	if err != nil {
		return fmt.Errorf("reloading config: %w", err)
	}

	old := m.current.Load()
	updated := *old
	applyReloadable(&updated, loaded)

	changedStatic := staticChanges(old, loaded)
	for _, section := range changedStatic {
		m.logger.Warn("ignoring configuration change until restart",
			"section", section,
			"reason", getRestartReason(section),
		)
	}

	if !cmp.Equal(*old, updated) {
		m.current.Store(&updated)
		m.logger.Info("configuration reloaded", "path", m.path)
		for _, fn := range m.callbacks {
			fn(old, &updated)
		}
	}

	if len(changedStatic) > 0 {
		return ErrRequiresRestart
	}
	return nil
}

// Watch reloads the configuration whenever the file changes.
// It returns immediately; watching lasts for the life of the process.
func (m *ConfigManager) Watch() error {
	if m.path == "" {
		return nil
	}
	if _, err := os.Stat(m.path); err != nil {
		return fmt.Errorf("watching config file: %w", err)
	}

	v, err := newViper(m.path)
	if err != nil {
		return err
	}

	v.OnConfigChange(func(e fsnotify.Event) {
		if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
			return
		}
		err := m.TryReload()
		switch {
		case err == nil, errors.Is(err, ErrRequiresRestart):
		default:
			m.logger.Error("config reload failed", "error", err, "file", e.Name)
		}
	})
	v.WatchConfig()

	m.logger.Info("watching config file", "path", m.path)
	return nil
}

// applyReloadable copies the hot-reloadable keys from src into dst.
func applyReloadable(dst, src *Config) {
	dst.Logging = src.Logging
	dst.Conversation = src.Conversation
	dst.Messages = src.Messages
	dst.Moderation.FailPolicy = src.Moderation.FailPolicy
	dst.Slack.MrkdwnConversion = src.Slack.MrkdwnConversion
}

// staticChanges returns the sections whose non-reloadable keys differ.
func staticChanges(old, updated *Config) []string {
	a, b := *old, *updated
	applyReloadable(&a, &b)

	sections := map[string]bool{
		"server":     cmp.Equal(a.Server, b.Server),
		"slack":      cmp.Equal(a.Slack, b.Slack),
		"completion": cmp.Equal(a.Completion, b.Completion),
		"moderation": cmp.Equal(a.Moderation, b.Moderation),
		"storage":    cmp.Equal(a.Storage, b.Storage),
		"pipeline":   cmp.Equal(a.Pipeline, b.Pipeline),
		"pagerduty":  cmp.Equal(a.PagerDuty, b.PagerDuty),
	}

	var changed []string
	for section, equal := range sections {
		if !equal {
			changed = append(changed, section)
		}
	}
	sort.Strings(changed)
	return changed
}
