// Package integration provides CLI integration tests for lumina.
package integration

import (
	"bytes"
	"encoding/json"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
)

var (
	// luminaBin is the path to the built lumina binary.
	luminaBin string
	// buildErr captures any build error.
	buildErr error
)

// BuildError wraps a build error with output.
type BuildError struct {
	Err    error
	Output string
}

func (e *BuildError) Error() string {
	return e.Err.Error() + ": " + e.Output
}

// FindProjectRoot finds the project root by walking up and looking for go.mod.
func FindProjectRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}

	for {
		goModPath := filepath.Join(dir, "go.mod")
		if _, err := os.Stat(goModPath); err == nil {
			return dir, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", os.ErrNotExist
		}
		dir = parent
	}
}

// SetLuminaBin sets the path to the lumina binary (called from TestMain).
func SetLuminaBin(path string) {
	luminaBin = path
}

// SetBuildErr sets the build error (called from TestMain).
func SetBuildErr(err error) {
	buildErr = err
}

// TestEnv provides an isolated test environment with its own config and
// data directory. The config disables AI providers and embeddings so no
// test depends on the network.
type TestEnv struct {
	t       *testing.T
	TempDir string
	Config  string
	DataDir string
	WorkDir string
}

// NewTestEnv creates a new isolated test environment.
func NewTestEnv(t *testing.T) *TestEnv {
	t.Helper()

	if buildErr != nil {
		t.Fatalf("failed to build lumina: %v", buildErr)
	}
	if luminaBin == "" {
		t.Fatal("lumina binary not built (luminaBin is empty)")
	}

	tempDir := t.TempDir()
	dataDir := filepath.Join(tempDir, "data")
	configDir := filepath.Join(tempDir, "config")
	workDir := filepath.Join(tempDir, "work")

	for _, dir := range []string{configDir, workDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			t.Fatalf("failed to create %s: %v", dir, err)
		}
	}

	configContent := "data_dir: " + dataDir + "\nai:\n  provider: none\n  embed_model: none\n"
	if err := os.WriteFile(filepath.Join(configDir, "config.yaml"), []byte(configContent), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	return &TestEnv{
		t:       t,
		TempDir: tempDir,
		Config:  configDir,
		DataDir: dataDir,
		WorkDir: workDir,
	}
}

// WriteFile creates a file with content under the env's work directory
// and returns its absolute path.
func (e *TestEnv) WriteFile(name, content string) string {
	e.t.Helper()
	path := filepath.Join(e.WorkDir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		e.t.Fatalf("failed to create parent dir for %s: %v", name, err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		e.t.Fatalf("failed to write %s: %v", name, err)
	}
	return path
}

// CmdResult holds the result of a lumina command execution.
type CmdResult struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// RunLumina executes the lumina CLI with the given arguments.
// Returns stdout, stderr, and exit code.
func (e *TestEnv) RunLumina(args ...string) CmdResult {
	e.t.Helper()

	allArgs := append([]string{"--config-dir", e.Config, "--data-dir", e.DataDir}, args...)
	cmd := exec.Command(luminaBin, allArgs...)
	cmd.Dir = e.WorkDir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	exitCode := 0
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			exitCode = exitErr.ExitCode()
		} else {
			e.t.Fatalf("failed to run lumina: %v", err)
		}
	}

	return CmdResult{
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		ExitCode: exitCode,
	}
}

// MustRunLumina executes the lumina CLI and fails the test if it returns non-zero.
func (e *TestEnv) MustRunLumina(args ...string) CmdResult {
	e.t.Helper()
	result := e.RunLumina(args...)
	if result.ExitCode != 0 {
		e.t.Fatalf("lumina %v failed with exit code %d:\nstdout: %s\nstderr: %s",
			args, result.ExitCode, result.Stdout, result.Stderr)
	}
	return result
}

// ParseJSON parses JSON output into the target type.
func ParseJSON[T any](t *testing.T, jsonStr string) T {
	t.Helper()
	var result T
	if err := json.Unmarshal([]byte(jsonStr), &result); err != nil {
		t.Fatalf("failed to parse JSON %q: %v", jsonStr, err)
	}
	return result
}

// SearchResult mirrors the JSON shape of a search hit.
type SearchResult struct {
	Path      string  `json:"Path"`
	Name      string  `json:"Name"`
	Category  string  `json:"Category"`
	Label     string  `json:"Label"`
	Exists    bool    `json:"Exists"`
	Relevance float64 `json:"Relevance"`
}

// StatusInfo mirrors the JSON shape of the status command.
type StatusInfo struct {
	DataDir      string         `json:"data_dir"`
	AIProvider   string         `json:"ai_provider"`
	Files        int            `json:"files"`
	FilesWithOCR int            `json:"files_with_ocr"`
	TotalBytes   int64          `json:"total_bytes"`
	Categories   map[string]int `json:"categories"`
}

// HistoryEntry mirrors the JSON shape of a search history entry.
type HistoryEntry struct {
	Query        string `json:"Query"`
	ResultsCount int    `json:"ResultsCount"`
}
