package classify

import (
	"path/filepath"
	"strings"
)

// folderCategories maps extensions to flat folder names used when
// organizing without an AI plan.
var folderCategories = map[string]string{
	// Images
	".jpg": "images", ".jpeg": "images", ".png": "images", ".gif": "images",
	".bmp": "images", ".webp": "images", ".svg": "images", ".ico": "images",
	".tiff": "images", ".tif": "images", ".heic": "images", ".heif": "images",
	".raw": "images", ".cr2": "images", ".nef": "images", ".psd": "images",

	// Videos
	".mp4": "videos", ".mkv": "videos", ".avi": "videos", ".mov": "videos",
	".wmv": "videos", ".flv": "videos", ".webm": "videos", ".m4v": "videos",
	".mpeg": "videos", ".mpg": "videos", ".3gp": "videos",

	// Audio
	".mp3": "audio", ".wav": "audio", ".flac": "audio", ".aac": "audio",
	".ogg": "audio", ".wma": "audio", ".m4a": "audio", ".aiff": "audio",
	".opus": "audio",

	// Documents
	".pdf": "documents", ".doc": "documents", ".docx": "documents",
	".txt": "documents", ".rtf": "documents", ".odt": "documents",
	".pages": "documents", ".md": "documents", ".tex": "documents",

	// Spreadsheets
	".xls": "spreadsheets", ".xlsx": "spreadsheets", ".csv": "spreadsheets",
	".ods": "spreadsheets", ".numbers": "spreadsheets",

	// Presentations
	".ppt": "presentations", ".pptx": "presentations", ".key": "presentations",
	".odp": "presentations",

	// Archives
	".zip": "archives", ".rar": "archives", ".7z": "archives", ".tar": "archives",
	".gz": "archives", ".bz2": "archives", ".xz": "archives", ".tgz": "archives",

	// Code
	".py": "code", ".js": "code", ".ts": "code", ".jsx": "code", ".tsx": "code",
	".html": "code", ".css": "code", ".scss": "code", ".less": "code",
	".java": "code", ".c": "code", ".cpp": "code", ".h": "code", ".hpp": "code",
	".cs": "code", ".go": "code", ".rs": "code", ".rb": "code", ".php": "code",
	".swift": "code", ".kt": "code", ".scala": "code", ".r": "code",
	".sql": "code", ".sh": "code", ".bat": "code", ".ps1": "code",

	// Data
	".json": "data", ".xml": "data", ".yaml": "data", ".yml": "data",
	".toml": "data", ".ini": "data", ".cfg": "data", ".conf": "data",

	// Installers
	".exe": "installers", ".msi": "installers", ".dmg": "installers",
	".pkg": "installers", ".deb": "installers", ".rpm": "installers",
	".app": "installers", ".apk": "installers",

	// Fonts
	".ttf": "fonts", ".otf": "fonts", ".woff": "fonts", ".woff2": "fonts",
	".eot": "fonts",

	// 3D/CAD
	".obj": "3d-models", ".stl": "3d-models", ".fbx": "3d-models",
	".blend": "3d-models", ".dae": "3d-models", ".3ds": "3d-models",

	// eBooks
	".epub": "ebooks", ".mobi": "ebooks", ".azw": "ebooks", ".azw3": "ebooks",
}

// folderMIMEFallbacks maps MIME type prefixes to flat folder names.
var folderMIMEFallbacks = []struct {
	prefix   string
	category string
}{
	{"application/pdf", "documents"},
	{"application/zip", "archives"},
	{"application/x-rar", "archives"},
	{"application/x-7z", "archives"},
	{"image/", "images"},
	{"video/", "videos"},
	{"audio/", "audio"},
	{"text/", "documents"},
}

// tagKeywords maps AI tag keywords to folder names, consulted when neither
// extension nor MIME type yields a category.
var tagKeywords = []struct {
	keyword  string
	category string
}{
	{"screenshot", "screenshots"},
	{"photo", "images"},
	{"picture", "images"},
	{"video", "videos"},
	{"music", "audio"},
	{"song", "audio"},
	{"document", "documents"},
	{"invoice", "documents"},
	{"receipt", "documents"},
	{"code", "code"},
	{"script", "code"},
}

// ignoreNames are files and directories never considered for organization.
var ignoreNames = map[string]struct{}{
	".DS_Store":    {},
	"Thumbs.db":    {},
	"desktop.ini":  {},
	".gitignore":   {},
	".git":         {},
	"__pycache__":  {},
	"node_modules": {},
}

// ignoreExtensions are in-progress or temporary file extensions.
var ignoreExtensions = map[string]struct{}{
	".tmp": {}, ".temp": {}, ".crdownload": {}, ".part": {}, ".partial": {},
}

// FolderCategory returns the flat folder name for path. Extension mapping
// wins, then MIME detection, then tag keywords. Unmatched files go to misc.
func FolderCategory(path string, tags []string) string {
	ext := strings.ToLower(filepath.Ext(path))
	if category, ok := folderCategories[ext]; ok {
		return category
	}

	if mime := DetectMIME(path); mime != "" {
		for _, fb := range folderMIMEFallbacks {
			if strings.HasPrefix(mime, fb.prefix) {
				return fb.category
			}
		}
	}

	for _, tag := range tags {
		lower := strings.ToLower(tag)
		for _, tk := range tagKeywords {
			if strings.Contains(lower, tk.keyword) {
				return tk.category
			}
		}
	}

	return "misc"
}

// DestinationPath returns base/category/name for path.
func DestinationPath(path, base string, tags []string) string {
	return filepath.Join(base, FolderCategory(path, tags), filepath.Base(path))
}

// ShouldIgnore reports whether a file must be skipped during organization:
// known system files, hidden files, temp extensions, and Office lock files.
func ShouldIgnore(path string) bool {
	name := filepath.Base(path)
	if _, ok := ignoreNames[name]; ok {
		return true
	}
	if strings.HasPrefix(name, ".") {
		return true
	}
	if strings.HasPrefix(name, "~$") {
		return true
	}
	ext := strings.ToLower(filepath.Ext(name))
	_, ok := ignoreExtensions[ext]
	return ok
}
