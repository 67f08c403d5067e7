package index

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"lumina/internal/metadata"
)

// FileRecord is one indexed file. Enriched fields (Label, Caption, Tags,
// OCRText, AISource) come from AI analysis or user edits and survive
// reindexing when the newer record leaves them empty.
type FileRecord struct {
	ID           int64
	Path         string
	Name         string
	Extension    string
	Size         int64
	MIMEType     string
	Category     string
	CreatedDate  time.Time
	ModifiedDate time.Time
	OriginalDate time.Time
	IndexedDate  time.Time
	HasOCR       bool
	OCRText      string
	Label        string
	Tags         []string
	Caption      string
	ContentHash  string
	AISource     string
	UserTags     []string
}

const fileColumns = `id, file_path, file_name, file_extension, file_size,
	mime_type, category, created_date, modified_date, original_date,
	indexed_date, has_ocr, ocr_text, label, tags, caption, content_hash,
	ai_source, user_tags`

// Upsert inserts or updates a file record keyed by path. Filesystem dates
// and the metadata original date are computed here; the caller fills in
// identity, classification, and enrichment fields. rec.ID is set on return.
func (ix *Index) Upsert(rec *FileRecord) error {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	// Preserve enriched fields from the existing row when the incoming
	// record does not provide them. A plain reindex must not wipe AI or
	// user annotations.
	existing, err := ix.getByPath(rec.Path)
	if err != nil {
		return err
	}
	if existing != nil {
		if strings.TrimSpace(rec.Label) == "" {
			rec.Label = existing.Label
		}
		if strings.TrimSpace(rec.Caption) == "" {
			rec.Caption = existing.Caption
		}
		if len(rec.Tags) == 0 {
			rec.Tags = existing.Tags
		}
		if len(rec.UserTags) == 0 {
			rec.UserTags = existing.UserTags
		}
		if strings.TrimSpace(rec.OCRText) == "" && strings.TrimSpace(existing.OCRText) != "" {
			rec.OCRText = existing.OCRText
			rec.HasOCR = existing.HasOCR
		}
		if rec.AISource == "" {
			rec.AISource = existing.AISource
		}
	}

	now := time.Now()
	if fi, err := os.Stat(rec.Path); err == nil {
		rec.ModifiedDate = fi.ModTime()
		if rec.CreatedDate.IsZero() {
			rec.CreatedDate = fi.ModTime()
		}
	} else {
		rec.CreatedDate = now
		rec.ModifiedDate = now
	}
	rec.OriginalDate = metadata.OriginalDate(rec.Path)
	rec.IndexedDate = now

	res, err := ix.db.Exec(`
		INSERT INTO files (
			file_path, file_name, file_extension, file_size, mime_type,
			category, created_date, modified_date, original_date,
			indexed_date, has_ocr, ocr_text, label, tags, caption,
			content_hash, ai_source, user_tags
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(file_path) DO UPDATE SET
			file_name = excluded.file_name,
			file_extension = excluded.file_extension,
			file_size = excluded.file_size,
			mime_type = excluded.mime_type,
			category = excluded.category,
			created_date = excluded.created_date,
			modified_date = excluded.modified_date,
			original_date = excluded.original_date,
			indexed_date = excluded.indexed_date,
			has_ocr = excluded.has_ocr,
			ocr_text = excluded.ocr_text,
			label = excluded.label,
			tags = excluded.tags,
			caption = excluded.caption,
			content_hash = excluded.content_hash,
			ai_source = excluded.ai_source,
			user_tags = excluded.user_tags`,
		rec.Path, rec.Name, rec.Extension, rec.Size, rec.MIMEType,
		rec.Category, encodeTime(rec.CreatedDate), encodeTime(rec.ModifiedDate),
		encodeTime(rec.OriginalDate), encodeTime(rec.IndexedDate),
		rec.HasOCR, rec.OCRText, rec.Label, encodeTags(rec.Tags), rec.Caption,
		rec.ContentHash, rec.AISource, encodeTags(rec.UserTags))
	if err != nil {
		return fmt.Errorf("upsert file %s: %w", rec.Path, err)
	}

	if existing != nil {
		rec.ID = existing.ID
	} else {
		id, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("upsert file %s: %w", rec.Path, err)
		}
		rec.ID = id
	}

	ix.syncFTS(rec.ID)
	return nil
}

// UpdatePath rewrites a moved file's path, keeping all other metadata.
// A stale row already holding the new path is removed first so the unique
// constraint cannot fire when a file is moved onto a previously used path.
func (ix *Index) UpdatePath(id int64, newPath string) error {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	res, err := ix.db.Exec(
		"DELETE FROM files WHERE file_path = ? AND id != ?", newPath, id)
	if err != nil {
		return fmt.Errorf("remove stale entry for %s: %w", newPath, err)
	}
	if n, _ := res.RowsAffected(); n > 0 {
		// Drop orphaned FTS and embedding rows left by the stale entry.
		_, _ = ix.db.Exec("DELETE FROM files_fts WHERE rowid NOT IN (SELECT id FROM files)")
		_, _ = ix.db.Exec("DELETE FROM embeddings WHERE file_id NOT IN (SELECT id FROM files)")
	}

	res, err = ix.db.Exec("UPDATE files SET file_path = ? WHERE id = ?", newPath, id)
	if err != nil {
		return fmt.Errorf("update path for %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("no indexed file with id %d", id)
	}

	ix.syncFTS(id)
	return nil
}

// AddTags merges tags into a file's user tags.
func (ix *Index) AddTags(id int64, tags []string) error {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	var raw sql.NullString
	err := ix.db.QueryRow("SELECT user_tags FROM files WHERE id = ?", id).Scan(&raw)
	if err == sql.ErrNoRows {
		return fmt.Errorf("no indexed file with id %d", id)
	}
	if err != nil {
		return fmt.Errorf("load tags for %d: %w", id, err)
	}

	merged := parseTags(raw.String)
	seen := make(map[string]struct{}, len(merged))
	for _, t := range merged {
		seen[strings.ToLower(t)] = struct{}{}
	}
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		if _, ok := seen[strings.ToLower(t)]; !ok {
			seen[strings.ToLower(t)] = struct{}{}
			merged = append(merged, t)
		}
	}

	_, err = ix.db.Exec("UPDATE files SET user_tags = ? WHERE id = ?", encodeTags(merged), id)
	if err != nil {
		return fmt.Errorf("update tags for %d: %w", id, err)
	}
	return nil
}

// Delete removes a file and its FTS and embedding rows.
func (ix *Index) Delete(id int64) error {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	return ix.deleteByID(id)
}

// DeleteByPath removes a file by its path.
func (ix *Index) DeleteByPath(path string) error {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	var id int64
	err := ix.db.QueryRow("SELECT id FROM files WHERE file_path = ?", path).Scan(&id)
	if err == sql.ErrNoRows {
		return nil
	}
	if err != nil {
		return fmt.Errorf("lookup %s: %w", path, err)
	}
	return ix.deleteByID(id)
}

func (ix *Index) deleteByID(id int64) error {
	for _, q := range []string{
		"DELETE FROM files WHERE id = ?",
		"DELETE FROM files_fts WHERE rowid = ?",
		"DELETE FROM embeddings WHERE file_id = ?",
	} {
		if _, err := ix.db.Exec(q, id); err != nil {
			return fmt.Errorf("delete file %d: %w", id, err)
		}
	}
	return nil
}

// GetByPath returns the record for path, or nil when not indexed.
func (ix *Index) GetByPath(path string) (*FileRecord, error) {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	return ix.getByPath(path)
}

func (ix *Index) getByPath(path string) (*FileRecord, error) {
	row := ix.db.QueryRow(
		"SELECT "+fileColumns+" FROM files WHERE file_path = ?", path)
	rec, err := scanFile(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get file %s: %w", path, err)
	}
	return rec, nil
}

// GetByName returns the first record matching a bare file name. Useful when
// a file has moved and only the name is known.
func (ix *Index) GetByName(name string) (*FileRecord, error) {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	row := ix.db.QueryRow(
		"SELECT "+fileColumns+" FROM files WHERE file_name = ?", name)
	rec, err := scanFile(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get file by name %s: %w", name, err)
	}
	return rec, nil
}

// GetByIDs returns the records for the given ids, in database order.
func (ix *Index) GetByIDs(ids []int64) ([]FileRecord, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	ix.mu.Lock()
	defer ix.mu.Unlock()

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	rows, err := ix.db.Query(
		"SELECT "+fileColumns+" FROM files WHERE id IN ("+placeholders+")", args...)
	if err != nil {
		return nil, fmt.Errorf("get files by ids: %w", err)
	}
	defer rows.Close()

	var out []FileRecord
	for rows.Next() {
		rec, err := scanFile(rows)
		if err != nil {
			return nil, fmt.Errorf("scan file: %w", err)
		}
		out = append(out, *rec)
	}
	return out, rows.Err()
}

// Count returns the number of indexed files.
func (ix *Index) Count() (int, error) {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	var n int
	if err := ix.db.QueryRow("SELECT COUNT(*) FROM files").Scan(&n); err != nil {
		return 0, fmt.Errorf("count files: %w", err)
	}
	return n, nil
}

// All returns every indexed file ordered by path. Used by exports.
func (ix *Index) All() ([]FileRecord, error) {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	rows, err := ix.db.Query(
		"SELECT " + fileColumns + " FROM files ORDER BY file_path")
	if err != nil {
		return nil, fmt.Errorf("list files: %w", err)
	}
	defer rows.Close()

	var out []FileRecord
	for rows.Next() {
		rec, err := scanFile(rows)
		if err != nil {
			return nil, fmt.Errorf("scan file: %w", err)
		}
		out = append(out, *rec)
	}
	return out, rows.Err()
}

// NamesWithTags returns the set of file names that carry AI tags, used to
// skip re-analysis of already enriched files.
func (ix *Index) NamesWithTags() (map[string]struct{}, error) {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	rows, err := ix.db.Query(
		"SELECT file_name FROM files WHERE tags IS NOT NULL AND tags != '' AND tags != '[]'")
	if err != nil {
		return nil, fmt.Errorf("list tagged names: %w", err)
	}
	defer rows.Close()

	out := make(map[string]struct{})
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		out[name] = struct{}{}
	}
	return out, rows.Err()
}

// syncFTS refreshes the FTS mirror for one file. External-content FTS5
// tables cannot be UPDATEd; the row is deleted and re-inserted from the
// main table. A corrupted index triggers a one-time automatic rebuild.
func (ix *Index) syncFTS(id int64) {
	_, delErr := ix.db.Exec("DELETE FROM files_fts WHERE rowid = ?", id)
	_, insErr := ix.db.Exec(`
		INSERT INTO files_fts(rowid, file_name, file_path, category, ocr_text, caption, tags)
		SELECT id, file_name, file_path, category, ocr_text, caption, tags
		FROM files WHERE id = ?`, id)

	for _, err := range []error{delErr, insErr} {
		if err == nil {
			continue
		}
		msg := strings.ToLower(err.Error())
		if strings.Contains(msg, "malformed") || strings.Contains(msg, "corrupt") {
			ix.autoRebuildFTS()
			return
		}
	}
}

// autoRebuildFTS drops and repopulates the FTS table. Runs at most once
// per process so a persistently broken index cannot loop.
func (ix *Index) autoRebuildFTS() {
	if ix.ftsRebuilt {
		return
	}
	ix.ftsRebuilt = true
	_ = ix.rebuildFTSTable()
}

func (ix *Index) rebuildFTSTable() error {
	if _, err := ix.db.Exec("DROP TABLE IF EXISTS files_fts"); err != nil {
		return fmt.Errorf("drop fts table: %w", err)
	}
	if _, err := ix.db.Exec(`
		CREATE VIRTUAL TABLE files_fts USING fts5(
			file_name, file_path, category, ocr_text, caption, tags,
			content='files', content_rowid='id'
		)`); err != nil {
		return fmt.Errorf("recreate fts table: %w", err)
	}
	if _, err := ix.db.Exec(`
		INSERT INTO files_fts(rowid, file_name, file_path, category, ocr_text, caption, tags)
		SELECT id, file_name, file_path, category, ocr_text, caption, tags FROM files`); err != nil {
		return fmt.Errorf("repopulate fts table: %w", err)
	}
	return nil
}

// scanner covers both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanFile(s scanner) (*FileRecord, error) {
	return scanFileWithExtra(s)
}

// scanFileWithExtra scans the standard file columns plus any trailing
// columns (e.g. a search rank) into extra.
func scanFileWithExtra(s scanner, extra ...any) (*FileRecord, error) {
	var (
		rec                         FileRecord
		ext, mime, category         sql.NullString
		created, modified, original sql.NullString
		indexed, ocrText, label     sql.NullString
		tags, caption, hash         sql.NullString
		aiSource, userTags          sql.NullString
		size                        sql.NullInt64
	)
	dest := []any{&rec.ID, &rec.Path, &rec.Name, &ext, &size, &mime,
		&category, &created, &modified, &original, &indexed, &rec.HasOCR,
		&ocrText, &label, &tags, &caption, &hash, &aiSource, &userTags}
	dest = append(dest, extra...)
	if err := s.Scan(dest...); err != nil {
		return nil, err
	}

	rec.Extension = ext.String
	rec.Size = size.Int64
	rec.MIMEType = mime.String
	rec.Category = category.String
	rec.CreatedDate = decodeTime(created.String)
	rec.ModifiedDate = decodeTime(modified.String)
	rec.OriginalDate = decodeTime(original.String)
	rec.IndexedDate = decodeTime(indexed.String)
	rec.OCRText = ocrText.String
	rec.Label = label.String
	rec.Tags = parseTags(tags.String)
	rec.Caption = caption.String
	rec.ContentHash = hash.String
	rec.AISource = aiSource.String
	rec.UserTags = parseTags(userTags.String)
	return &rec, nil
}

func encodeTags(tags []string) string {
	if len(tags) == 0 {
		return ""
	}
	b, err := json.Marshal(tags)
	if err != nil {
		return ""
	}
	return string(b)
}

// parseTags accepts both JSON lists and legacy comma-separated strings.
func parseTags(raw string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	var list []string
	if err := json.Unmarshal([]byte(raw), &list); err == nil {
		out := list[:0]
		for _, t := range list {
			if t = strings.TrimSpace(t); t != "" {
				out = append(out, t)
			}
		}
		if len(out) == 0 {
			return nil
		}
		return out
	}
	var out []string
	for _, t := range strings.Split(raw, ",") {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	return out
}

func encodeTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t.Format(time.RFC3339)
}

func decodeTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
