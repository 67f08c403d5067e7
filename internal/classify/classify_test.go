package classify

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCategorize(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"report.pdf", "Documents/PDFs"},
		{"letter.DOCX", "Documents/Word"},
		{"notes.md", "Documents/Text"},
		{"budget.xlsx", "Spreadsheets"},
		{"deck.pptx", "Presentations"},
		{"photo.JPG", "Images/Photos"},
		{"capture.png", "Images/Screenshots"},
		{"clip.mp4", "Videos"},
		{"song.mp3", "Audio/Music"},
		{"memo.wav", "Audio/Recordings"},
		{"bundle.zip", "Archives"},
		{"main.go", "Code"},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, Categorize(tt.path))
		})
	}
}

func TestOverride(t *testing.T) {
	Override(map[string][]string{
		"Documents/Ebooks": {"epub", ".MOBI", " "},
	})

	assert.Equal(t, "Documents/Ebooks", Categorize("novel.epub"))
	assert.Equal(t, "Documents/Ebooks", Categorize("novel.mobi"))
	// Built-in mappings stay intact.
	assert.Equal(t, "Documents/PDFs", Categorize("report.pdf"))
}

func TestCategorize_MIMEFallback(t *testing.T) {
	dir := t.TempDir()

	// PNG magic bytes with an unknown extension.
	path := filepath.Join(dir, "picture.unknownext")
	png := []byte{0x89, 'P', 'N', 'G', 0x0D, 0x0A, 0x1A, 0x0A, 0, 0, 0, 0}
	require.NoError(t, os.WriteFile(path, png, 0o644))

	assert.Equal(t, "Images/Photos", Categorize(path))
}

func TestCategorize_UnknownIsMisc(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "blob.xyzzy")
	require.NoError(t, os.WriteFile(path, []byte{0x00, 0x01, 0x02, 0x03}, 0o644))

	assert.Equal(t, CategoryMisc, Categorize(path))
}

func TestFolderCategory(t *testing.T) {
	tests := []struct {
		path string
		tags []string
		want string
	}{
		{"vacation.jpeg", nil, "images"},
		{"movie.mkv", nil, "videos"},
		{"track.flac", nil, "audio"},
		{"thesis.tex", nil, "documents"},
		{"data.csv", nil, "spreadsheets"},
		{"slides.key", nil, "presentations"},
		{"backup.tgz", nil, "archives"},
		{"app.swift", nil, "code"},
		{"config.toml", nil, "data"},
		{"setup.dmg", nil, "installers"},
		{"sans.woff2", nil, "fonts"},
		{"model.stl", nil, "3d-models"},
		{"novel.epub", nil, "ebooks"},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, FolderCategory(tt.path, tt.tags))
		})
	}
}

func TestFolderCategory_TagFallback(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "scan001.xyzzy")
	require.NoError(t, os.WriteFile(path, []byte{0x00, 0x01}, 0o644))

	assert.Equal(t, "documents", FolderCategory(path, []string{"Invoice March"}))
	assert.Equal(t, "screenshots", FolderCategory(path, []string{"desktop screenshot"}))
	assert.Equal(t, "misc", FolderCategory(path, []string{"nothing useful"}))
}

func TestDestinationPath(t *testing.T) {
	got := DestinationPath("/home/u/Downloads/pic.png", "/home/u/Sorted", nil)
	assert.Equal(t, filepath.Join("/home/u/Sorted", "images", "pic.png"), got)
}

func TestShouldIgnore(t *testing.T) {
	tests := []struct {
		path string
		want bool
	}{
		{".DS_Store", true},
		{"Thumbs.db", true},
		{".hidden", true},
		{"~$report.docx", true},
		{"download.crdownload", true},
		{"movie.part", true},
		{"report.pdf", false},
		{"photo.jpg", false},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, ShouldIgnore(tt.path))
		})
	}
}
