package index

import (
	"fmt"
	"os"
	"strings"
	"time"

	"lumina/internal/metadata"
)

// Statistics summarizes the index contents.
type Statistics struct {
	TotalFiles   int
	FilesWithOCR int
	TotalBytes   int64
	Categories   map[string]int
}

// Statistics returns counts and sizes across the index.
func (ix *Index) Statistics() (Statistics, error) {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	stats := Statistics{Categories: make(map[string]int)}

	if err := ix.db.QueryRow("SELECT COUNT(*) FROM files").Scan(&stats.TotalFiles); err != nil {
		return stats, fmt.Errorf("count files: %w", err)
	}
	if err := ix.db.QueryRow("SELECT COUNT(*) FROM files WHERE has_ocr = 1").Scan(&stats.FilesWithOCR); err != nil {
		return stats, fmt.Errorf("count ocr files: %w", err)
	}
	if err := ix.db.QueryRow("SELECT COALESCE(SUM(file_size), 0) FROM files").Scan(&stats.TotalBytes); err != nil {
		return stats, fmt.Errorf("sum file sizes: %w", err)
	}

	rows, err := ix.db.Query("SELECT COALESCE(category, ''), COUNT(*) FROM files GROUP BY category")
	if err != nil {
		return stats, fmt.Errorf("count categories: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			category string
			n        int
		)
		if err := rows.Scan(&category, &n); err != nil {
			return stats, err
		}
		stats.Categories[category] = n
	}
	return stats, rows.Err()
}

// CleanupStats reports the outcome of a stale-entry sweep.
type CleanupStats struct {
	Checked int
	Removed int
}

// CleanupStale removes entries whose files no longer exist on disk.
// Keeping the index clean prevents unique-constraint conflicts when files
// are later moved onto previously used paths.
func (ix *Index) CleanupStale(progress func(current, total int)) (CleanupStats, error) {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	rows, err := ix.db.Query("SELECT id, file_path FROM files")
	if err != nil {
		return CleanupStats{}, fmt.Errorf("list files: %w", err)
	}

	type entry struct {
		id   int64
		path string
	}
	var all []entry
	for rows.Next() {
		var e entry
		if err := rows.Scan(&e.id, &e.path); err != nil {
			rows.Close()
			return CleanupStats{}, err
		}
		all = append(all, e)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return CleanupStats{}, err
	}

	stats := CleanupStats{Checked: len(all)}
	var stale []int64
	for i, e := range all {
		if progress != nil && i%100 == 0 {
			progress(i, len(all))
		}
		if _, err := os.Stat(e.path); os.IsNotExist(err) {
			stale = append(stale, e.id)
		}
	}

	if len(stale) > 0 {
		placeholders := strings.TrimSuffix(strings.Repeat("?,", len(stale)), ",")
		args := make([]any, len(stale))
		for i, id := range stale {
			args[i] = id
		}
		for _, table := range []string{
			"DELETE FROM files WHERE id IN (%s)",
			"DELETE FROM files_fts WHERE rowid IN (%s)",
			"DELETE FROM embeddings WHERE file_id IN (%s)",
		} {
			if _, err := ix.db.Exec(fmt.Sprintf(table, placeholders), args...); err != nil {
				return stats, fmt.Errorf("remove stale entries: %w", err)
			}
		}
		stats.Removed = len(stale)
	}

	if progress != nil {
		progress(len(all), len(all))
	}
	return stats, nil
}

// ResyncStats reports the outcome of a date resync.
type ResyncStats struct {
	Updated       int
	NotFound      int
	Errors        int
	MetadataDates int
}

// ResyncDates re-reads filesystem timestamps for every indexed file and
// re-extracts original dates from file metadata.
func (ix *Index) ResyncDates(progress func(current, total int)) (ResyncStats, error) {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	rows, err := ix.db.Query("SELECT id, file_path FROM files")
	if err != nil {
		return ResyncStats{}, fmt.Errorf("list files: %w", err)
	}

	type entry struct {
		id   int64
		path string
	}
	var all []entry
	for rows.Next() {
		var e entry
		if err := rows.Scan(&e.id, &e.path); err != nil {
			rows.Close()
			return ResyncStats{}, err
		}
		all = append(all, e)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return ResyncStats{}, err
	}

	var stats ResyncStats
	for i, e := range all {
		fi, err := os.Stat(e.path)
		if err != nil {
			stats.NotFound++
			continue
		}

		var original any
		if t := metadata.OriginalDate(e.path); !t.IsZero() {
			original = t.Format(time.RFC3339)
			stats.MetadataDates++
		}

		modified := fi.ModTime().Format(time.RFC3339)
		_, err = ix.db.Exec(`
			UPDATE files SET created_date = ?, modified_date = ?, original_date = ?
			WHERE id = ?`, modified, modified, original, e.id)
		if err != nil {
			stats.Errors++
			continue
		}
		stats.Updated++

		if progress != nil && (i%10 == 0 || i == len(all)-1) {
			progress(i+1, len(all))
		}
	}
	return stats, nil
}

// RebuildStats reports the outcome of an FTS rebuild.
type RebuildStats struct {
	Total   int
	Indexed int
}

// RebuildFTS drops and repopulates the full-text index from the files
// table. The files table itself is untouched.
func (ix *Index) RebuildFTS() (RebuildStats, error) {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	var stats RebuildStats
	if err := ix.db.QueryRow("SELECT COUNT(*) FROM files").Scan(&stats.Total); err != nil {
		return stats, fmt.Errorf("count files: %w", err)
	}
	if stats.Total == 0 {
		return stats, nil
	}

	if err := ix.rebuildFTSTable(); err != nil {
		return stats, err
	}
	stats.Indexed = stats.Total
	return stats, nil
}
