package watcher

import (
	"os"
	"path/filepath"
	"strings"
	"time"
)

const stateFileName = "watcher_last_active"

// LoadLastActive returns when the watcher last ran, for the catch-up
// pass. Zero when never recorded.
func LoadLastActive(dataDir string) time.Time {
	b, err := os.ReadFile(filepath.Join(dataDir, stateFileName))
	if err != nil {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339, strings.TrimSpace(string(b)))
	if err != nil {
		return time.Time{}
	}
	return t
}

// SaveLastActive records t as the watcher's last activity time.
func SaveLastActive(dataDir string, t time.Time) error {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return err
	}
	return os.WriteFile(
		filepath.Join(dataDir, stateFileName),
		[]byte(t.Format(time.RFC3339)+"\n"), 0o644)
}
