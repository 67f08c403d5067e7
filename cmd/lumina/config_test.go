package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_FirstRun(t *testing.T) {
	dir := t.TempDir()

	v, err := loadConfig(dir)
	require.NoError(t, err)

	// Default config.yaml written.
	assert.FileExists(t, filepath.Join(dir, "config.yaml"))

	// Defaults applied.
	assert.Equal(t, "none", v.GetString(cfgKeyAIProvider))
	assert.Equal(t, "http://localhost:11434", v.GetString(cfgKeyOllamaURL))
	assert.True(t, v.GetBool(cfgKeySearchFuzzy))
	assert.Equal(t, 8, v.GetInt(cfgKeyIndexWorkers))
}

func TestLoadConfig_ExistingFileWins(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(`
ai:
  provider: ollama
  ollama_model: llama3
index:
  workers: 2
`), 0o644))

	v, err := loadConfig(dir)
	require.NoError(t, err)
	assert.Equal(t, "ollama", v.GetString(cfgKeyAIProvider))
	assert.Equal(t, "llama3", v.GetString(cfgKeyOllamaModel))
	assert.Equal(t, 2, v.GetInt(cfgKeyIndexWorkers))
}

func TestWatchConfig(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(`
watch:
  settle: 5s
  folders:
    - path: /tmp/downloads
      instruction: invoices go to billing
    - path: /tmp/desktop
      existing_only: true
`), 0o644))

	v, err := loadConfig(dir)
	require.NoError(t, err)

	folders, settle, err := watchConfig(v)
	require.NoError(t, err)
	assert.Equal(t, 5*time.Second, settle)
	require.Len(t, folders, 2)
	assert.Equal(t, "/tmp/downloads", folders[0].Path)
	assert.Equal(t, "invoices go to billing", folders[0].Instruction)
	assert.False(t, folders[0].ExistingOnly)
	assert.True(t, folders[1].ExistingOnly)
}

func TestExpandHome(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(home, "Downloads"), expandHome("~/Downloads"))
	assert.Equal(t, home, expandHome("~"))
	assert.Equal(t, "/abs/path", expandHome("/abs/path"))
}
