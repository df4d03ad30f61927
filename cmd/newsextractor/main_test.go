package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TobiSchelling/NewsExtractor/internal/config"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	rootCmd.SilenceUsage = false
	t.Cleanup(func() { rootCmd.SetArgs(nil) })
	err := rootCmd.Execute()
	return out.String(), err
}

func TestRequiresTwoArguments(t *testing.T) {
	for _, args := range [][]string{{}, {"config.yaml"}, {"a", "b", "c"}} {
		out, err := execute(t, args...)
		assert.Error(t, err)
		assert.Contains(t, out, "Usage:")
	}
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "newsextractor dev")
}

func TestInitWritesExampleConfig(t *testing.T) {
	target := filepath.Join(t.TempDir(), "config.yaml")

	out, err := execute(t, "init", target)
	require.NoError(t, err)
	assert.Contains(t, out, "Created config")

	data, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Equal(t, config.DefaultConfigYAML, data)

	out, err = execute(t, "init", target)
	require.NoError(t, err)
	assert.Contains(t, out, "already exists")
}

func TestRunFailsOnBadInputs(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(cfgPath, config.DefaultConfigYAML, 0o644))

	_, err := execute(t, filepath.Join(dir, "missing.yaml"), filepath.Join(dir, "keys.yaml"))
	assert.ErrorContains(t, err, "loading config")

	keyPath := filepath.Join(dir, "keys.yaml")
	require.NoError(t, os.WriteFile(keyPath, []byte("other: {}\n"), 0o600))
	_, err = execute(t, cfgPath, keyPath)
	assert.ErrorIs(t, err, config.ErrNoSink)
}
