// Package scan discovers files under a directory tree, skipping hidden,
// system, and temporary files.
package scan

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"lumina/internal/classify"
	"lumina/internal/logging"
)

// DefaultMaxFiles bounds a single scan so a runaway root (e.g. "/") cannot
// swamp the index pass.
const DefaultMaxFiles = 1000

// File describes a discovered file.
type File struct {
	Path      string
	Name      string
	Extension string
	Size      int64
	MIMEType  string
	Category  string
}

// systemFiles are skipped regardless of extension. Compared lowercase.
var systemFiles = map[string]struct{}{
	"thumbs.db":   {},
	"desktop.ini": {},
	".ds_store":   {},
	"icon\r":      {},
}

// tempExtensions are editor and download leftovers.
var tempExtensions = map[string]struct{}{
	".tmp": {}, ".temp": {}, ".bak": {}, ".swp": {}, ".swo": {},
}

// Options controls a directory scan.
type Options struct {
	// MaxFiles caps the number of files returned. Zero means DefaultMaxFiles.
	MaxFiles int
	// DetectMIME enables content-based MIME detection per file. Off by
	// default because it opens every file.
	DetectMIME bool
}

// Directory walks root recursively and returns metadata for every regular
// file that passes the skip rules. The walk stops early once MaxFiles is
// reached.
func Directory(ctx context.Context, root string, opts Options) ([]File, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("stat scan root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("scan root is not a directory: %s", root)
	}

	maxFiles := opts.MaxFiles
	if maxFiles <= 0 {
		maxFiles = DefaultMaxFiles
	}

	log := logging.Get(ctx).With(zap.String("root", root))
	log.Info("scan started")

	var files []File
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			log.Debug("skipping unreadable entry", zap.String("path", path), zap.Error(err))
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if d.IsDir() {
			// Hidden directories are skipped entirely, except the root itself.
			if path != root && strings.HasPrefix(d.Name(), ".") {
				return fs.SkipDir
			}
			return nil
		}
		if ShouldSkip(d.Name()) {
			return nil
		}

		fi, err := d.Info()
		if err != nil {
			log.Debug("stat failed", zap.String("path", path), zap.Error(err))
			return nil
		}

		f := File{
			Path:      path,
			Name:      d.Name(),
			Extension: strings.ToLower(filepath.Ext(d.Name())),
			Size:      fi.Size(),
			Category:  classify.Categorize(path),
		}
		if opts.DetectMIME {
			f.MIMEType = classify.DetectMIME(path)
		}
		files = append(files, f)

		if len(files) >= maxFiles {
			log.Warn("reached file limit", zap.Int("max_files", maxFiles))
			return fs.SkipAll
		}
		return nil
	})
	if err != nil {
		return files, fmt.Errorf("walk %s: %w", root, err)
	}

	log.Info("scan completed", zap.Int("files", len(files)))
	return files, nil
}

// ShouldSkip reports whether a file name is excluded from scanning:
// hidden files, known system files, and temporary extensions. Exclusion
// patterns configured for organization do not apply here; a file can be
// indexed even when it will never be moved.
func ShouldSkip(name string) bool {
	if strings.HasPrefix(name, ".") {
		return true
	}
	if _, ok := systemFiles[strings.ToLower(name)]; ok {
		return true
	}
	ext := strings.ToLower(filepath.Ext(name))
	_, ok := tempExtensions[ext]
	return ok
}

// Stats summarizes a directory tree.
type Stats struct {
	TotalFiles int
	TotalDirs  int
	TotalBytes int64
}

// DirectoryStats counts files, directories, and bytes under root.
func DirectoryStats(root string) (Stats, error) {
	var stats Stats
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			if path != root {
				stats.TotalDirs++
			}
			return nil
		}
		stats.TotalFiles++
		if fi, err := d.Info(); err == nil {
			stats.TotalBytes += fi.Size()
		}
		return nil
	})
	if err != nil {
		return stats, fmt.Errorf("walk %s: %w", root, err)
	}
	return stats, nil
}
