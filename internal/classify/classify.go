// Package classify assigns files to categories using extension and MIME
// heuristics. Categories come in two flavors: hierarchical index categories
// ("Documents/PDFs") used for display and search filtering, and flat
// folder categories ("documents") used when organizing without AI.
package classify

import (
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// CategoryMisc is returned when no heuristic matches.
const CategoryMisc = "Misc"

// defaultCategories maps hierarchical category names to extensions.
var defaultCategories = map[string][]string{
	"Documents/PDFs":     {".pdf"},
	"Documents/Word":     {".doc", ".docx", ".rtf"},
	"Documents/Text":     {".txt", ".md"},
	"Spreadsheets":       {".xls", ".xlsx", ".csv"},
	"Presentations":      {".ppt", ".pptx"},
	"Images/Photos":      {".jpg", ".jpeg"},
	"Images/Screenshots": {".png"},
	"Images/Graphics":    {".gif", ".svg", ".webp"},
	"Videos":             {".mp4", ".mov"},
	"Audio/Music":        {".mp3"},
	"Audio/Recordings":   {".wav", ".m4a"},
	"Archives":           {".zip", ".rar", ".7z"},
	"Code":               {".py", ".js", ".ts", ".go"},
}

// mimeFallbacks maps MIME type prefixes to categories, checked when the
// extension is unknown.
var mimeFallbacks = []struct {
	prefix   string
	category string
}{
	{"application/pdf", "Documents/PDFs"},
	{"image/", "Images/Photos"},
	{"video/", "Videos"},
	{"audio/", "Audio/Recordings"},
}

// extensionIndex is the inverse of defaultCategories, built once.
var extensionIndex = func() map[string]string {
	idx := make(map[string]string)
	for category, exts := range defaultCategories {
		for _, ext := range exts {
			idx[ext] = category
		}
	}
	return idx
}()

// Override adds or replaces extension mappings from the user's category
// configuration. Extensions are normalized to a leading dot and lower case.
// Call before indexing; lookups are not synchronized.
func Override(categories map[string][]string) {
	for category, exts := range categories {
		for _, ext := range exts {
			ext = strings.ToLower(strings.TrimSpace(ext))
			if ext == "" {
				continue
			}
			if !strings.HasPrefix(ext, ".") {
				ext = "." + ext
			}
			extensionIndex[ext] = category
		}
	}
}

// Categorize returns the hierarchical category for path. Extension lookup
// is tried first; unknown extensions fall back to content-based MIME
// detection. Files that match nothing are Misc.
func Categorize(path string) string {
	ext := strings.ToLower(filepath.Ext(path))
	if category, ok := extensionIndex[ext]; ok {
		return category
	}
	if category := categorizeByMIME(path); category != "" {
		return category
	}
	return CategoryMisc
}

func categorizeByMIME(path string) string {
	mtype, err := mimetype.DetectFile(path)
	if err != nil {
		return ""
	}
	for _, fb := range mimeFallbacks {
		if strings.HasPrefix(mtype.String(), fb.prefix) {
			return fb.category
		}
	}
	return ""
}

// DetectMIME returns the detected MIME type for path, or "" when the file
// cannot be read.
func DetectMIME(path string) string {
	mtype, err := mimetype.DetectFile(path)
	if err != nil {
		return ""
	}
	// Strip parameters such as "; charset=utf-8".
	s := mtype.String()
	if i := strings.IndexByte(s, ';'); i >= 0 {
		s = s[:i]
	}
	return s
}
