package index

import (
	"database/sql"
	"fmt"
	"strings"
)

// Result is a file record with its search rank. Lower ranks are better
// matches (bm25 scores are negative for good matches).
type Result struct {
	FileRecord
	Rank float64
}

// Filters narrows an advanced search beyond full-text terms.
type Filters struct {
	Label  string
	HasOCR bool
	HasAI  bool
	Tags   []string
}

// Search runs a full-text query ranked by bm25. When the FTS query fails
// (syntax or a corrupted index), it falls back to LIKE matching across the
// searchable columns. Every search is logged to history.
func (ix *Index) Search(query string, limit int) ([]Result, error) {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	if limit <= 0 {
		limit = 50
	}

	results, err := ix.searchFTS(query, limit)
	if err != nil {
		if msg := strings.ToLower(err.Error()); strings.Contains(msg, "malformed") || strings.Contains(msg, "corrupt") {
			ix.autoRebuildFTS()
		}
		results, err = ix.searchLike(query, limit)
		if err != nil {
			return nil, err
		}
	}

	ix.logSearch(query, len(results))
	return results, nil
}

func (ix *Index) searchFTS(query string, limit int) ([]Result, error) {
	rows, err := ix.db.Query(`
		SELECT `+prefixColumns("f")+`, bm25(files_fts) AS rank
		FROM files f
		JOIN files_fts ON f.id = files_fts.rowid
		WHERE files_fts MATCH ?
		ORDER BY rank ASC
		LIMIT ?`, query, limit)
	if err != nil {
		return nil, fmt.Errorf("fts search: %w", err)
	}
	defer rows.Close()
	return scanResults(rows)
}

func (ix *Index) searchLike(query string, limit int) ([]Result, error) {
	like := "%" + query + "%"
	rows, err := ix.db.Query(`
		SELECT `+fileColumns+`, 0 AS rank FROM files
		WHERE file_name LIKE ? OR category LIKE ? OR ocr_text LIKE ?
			OR caption LIKE ? OR tags LIKE ?
		ORDER BY file_name
		LIMIT ?`, like, like, like, like, like, limit)
	if err != nil {
		return nil, fmt.Errorf("like search: %w", err)
	}
	defer rows.Close()
	return scanResults(rows)
}

// SearchAdvanced matches parsed query terms with prefix expansion
// ("report" matches "reports") joined by OR, then applies structured
// filters. An empty FTS result set falls back to LIKE matching so that
// partial midword matches still surface.
func (ix *Index) SearchAdvanced(terms []string, f Filters, limit int) ([]Result, error) {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	if limit <= 0 {
		limit = 50
	}

	results, err := ix.advancedFTS(terms, f, limit)
	if err != nil || len(results) == 0 {
		likeResults, likeErr := ix.advancedLike(terms, f, limit)
		if likeErr == nil {
			results = likeResults
		} else if err != nil {
			return nil, err
		} else {
			return nil, likeErr
		}
	}

	if q := strings.TrimSpace(strings.Join(terms, " ")); q != "" {
		ix.logSearch(q, len(results))
	}
	return results, nil
}

func (ix *Index) advancedFTS(terms []string, f Filters, limit int) ([]Result, error) {
	var sb strings.Builder
	sb.WriteString("SELECT " + prefixColumns("f") + ", 1 AS rank FROM files f JOIN files_fts ON f.id = files_fts.rowid ")

	var args []any
	if len(terms) > 0 {
		tokens := make([]string, len(terms))
		for i, t := range terms {
			tokens[i] = sanitizeToken(t) + "*"
		}
		sb.WriteString("WHERE files_fts MATCH ?")
		args = append(args, strings.Join(tokens, " OR "))
	} else {
		sb.WriteString("WHERE 1=1")
	}

	appendFilters(&sb, &args, f, "f.")
	sb.WriteString(" ORDER BY f.file_name LIMIT ?")
	args = append(args, limit)

	rows, err := ix.db.Query(sb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("advanced fts search: %w", err)
	}
	defer rows.Close()
	return scanResults(rows)
}

func (ix *Index) advancedLike(terms []string, f Filters, limit int) ([]Result, error) {
	var sb strings.Builder
	sb.WriteString("SELECT " + fileColumns + ", 0 AS rank FROM files WHERE 1=1")

	var args []any
	if len(terms) > 0 {
		var clauses []string
		for _, term := range terms {
			like := "%" + term + "%"
			clauses = append(clauses,
				"file_name LIKE ?", "category LIKE ?", "ocr_text LIKE ?",
				"caption LIKE ?", "tags LIKE ?")
			args = append(args, like, like, like, like, like)
		}
		sb.WriteString(" AND (" + strings.Join(clauses, " OR ") + ")")
	}

	appendFilters(&sb, &args, f, "")
	sb.WriteString(" ORDER BY file_name LIMIT ?")
	args = append(args, limit)

	rows, err := ix.db.Query(sb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("advanced like search: %w", err)
	}
	defer rows.Close()
	return scanResults(rows)
}

func appendFilters(sb *strings.Builder, args *[]any, f Filters, prefix string) {
	if f.Label != "" {
		sb.WriteString(" AND (" + prefix + "label = ? OR " + prefix + "label LIKE ?)")
		*args = append(*args, f.Label, "%"+f.Label+"%")
	}
	if f.HasOCR {
		sb.WriteString(" AND " + prefix + "has_ocr = 1")
	}
	if f.HasAI {
		sb.WriteString(" AND (" + prefix + "label IS NOT NULL OR " + prefix + "caption IS NOT NULL)")
	}
	for _, tag := range f.Tags {
		sb.WriteString(" AND (" + prefix + "tags LIKE ? OR " + prefix + "user_tags LIKE ?)")
		*args = append(*args, "%"+tag+"%", "%"+tag+"%")
	}
}

// sanitizeToken strips FTS5 syntax characters so user input cannot break
// the MATCH expression.
func sanitizeToken(t string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '"', '*', '(', ')', ':', '^', '-':
			return -1
		}
		return r
	}, t)
}

// prefixColumns qualifies the file column list with a table alias.
func prefixColumns(alias string) string {
	cols := strings.Split(fileColumns, ",")
	for i, c := range cols {
		cols[i] = alias + "." + strings.TrimSpace(c)
	}
	return strings.Join(cols, ", ")
}

func scanResults(rows *sql.Rows) ([]Result, error) {
	var out []Result
	for rows.Next() {
		var rank float64
		rec, err := scanFileWithExtra(rows, &rank)
		if err != nil {
			return nil, fmt.Errorf("scan result: %w", err)
		}
		out = append(out, Result{FileRecord: *rec, Rank: rank})
	}
	return out, rows.Err()
}
