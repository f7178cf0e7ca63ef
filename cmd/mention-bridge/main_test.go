package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "dev\n", out)
}

func TestModerateCommand_Static(t *testing.T) {
	path := writeConfig(t, "moderation:\n  source: static\n")

	out, err := execute(t, "--config", path, "moderate", "what", "is", "my", "password")
	require.NoError(t, err)
	assert.Equal(t, "rejected\n", out)

	out, err = execute(t, "--config", path, "moderate", "hello")
	require.NoError(t, err)
	assert.Equal(t, "allowed\n", out)
}

func TestPatternsCommands_SQLite(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "patterns.db")
	path := writeConfig(t, fmt.Sprintf("moderation:\n  source: sqlite\nstorage:\n  sqlite:\n    path: %s\n", dbPath))

	_, err := execute(t, "--config", path, "patterns", "add", "forbidden")
	require.NoError(t, err)

	_, err = execute(t, "--config", path, "patterns", "add", "forbidden")
	assert.Error(t, err, "duplicate pattern")

	out, err := execute(t, "--config", path, "patterns", "list")
	require.NoError(t, err)
	assert.Equal(t, "forbidden\n", out)

	out, err = execute(t, "--config", path, "moderate", "this is FORBIDDEN")
	require.NoError(t, err)
	assert.Equal(t, "rejected\n", out)

	_, err = execute(t, "--config", path, "patterns", "remove", "forbidden")
	require.NoError(t, err)

	_, err = execute(t, "--config", path, "patterns", "remove", "forbidden")
	assert.Error(t, err, "removing a missing pattern")

	out, err = execute(t, "--config", path, "patterns", "list")
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestPatternsCommands_RequireDatabaseSource(t *testing.T) {
	path := writeConfig(t, "moderation:\n  source: static\n")

	_, err := execute(t, "--config", path, "patterns", "list")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sqlite or mysql")
}
