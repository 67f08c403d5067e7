package scan

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name string, size int) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, make([]byte, size), 0o644))
	return path
}

func TestDirectory(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "report.pdf", 10)
	writeFile(t, dir, "sub/photo.jpg", 20)
	writeFile(t, dir, ".hidden.txt", 5)
	writeFile(t, dir, "Thumbs.db", 5)
	writeFile(t, dir, "draft.tmp", 5)
	writeFile(t, dir, ".git/config", 5)

	files, err := Directory(context.Background(), dir, Options{})
	require.NoError(t, err)
	require.Len(t, files, 2)

	byName := map[string]File{}
	for _, f := range files {
		byName[f.Name] = f
	}

	report := byName["report.pdf"]
	assert.Equal(t, ".pdf", report.Extension)
	assert.Equal(t, int64(10), report.Size)
	assert.Equal(t, "Documents/PDFs", report.Category)

	photo := byName["photo.jpg"]
	assert.Equal(t, filepath.Join(dir, "sub", "photo.jpg"), photo.Path)
}

func TestDirectory_MaxFiles(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"a.txt", "b.txt", "c.txt", "d.txt"} {
		writeFile(t, dir, name, 1)
	}

	files, err := Directory(context.Background(), dir, Options{MaxFiles: 2})
	require.NoError(t, err)
	assert.Len(t, files, 2)
}

func TestDirectory_Errors(t *testing.T) {
	t.Run("missing root", func(t *testing.T) {
		_, err := Directory(context.Background(), filepath.Join(t.TempDir(), "nope"), Options{})
		assert.Error(t, err)
	})

	t.Run("root is a file", func(t *testing.T) {
		dir := t.TempDir()
		path := writeFile(t, dir, "file.txt", 1)
		_, err := Directory(context.Background(), path, Options{})
		assert.Error(t, err)
	})
}

func TestShouldSkip(t *testing.T) {
	tests := []struct {
		name string
		want bool
	}{
		{".bashrc", true},
		{"thumbs.db", true},
		{"Desktop.ini", true},
		{"save.bak", true},
		{"edit.swp", true},
		{"report.pdf", false},
		{"data.csv", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ShouldSkip(tt.name))
		})
	}
}

func TestDirectoryStats(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.txt", 100)
	writeFile(t, dir, "sub/b.txt", 50)

	stats, err := DirectoryStats(dir)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.TotalFiles)
	assert.Equal(t, 1, stats.TotalDirs)
	assert.Equal(t, int64(150), stats.TotalBytes)
}
