// Package extract turns files into clean, readable text suitable for
// indexing and AI analysis.
package extract

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"
)

// Limits preventing runaway memory use on large files.
const (
	MaxChars      = 8000
	maxRowsToRead = 100
	maxCellLength = 200
	maxCSVBytes   = 500_000
)

// textExtensions are read directly as plain text.
var textExtensions = map[string]struct{}{
	".txt": {}, ".md": {}, ".json": {}, ".xml": {}, ".html": {}, ".htm": {},
	".log": {}, ".ini": {}, ".cfg": {}, ".yaml": {}, ".yml": {}, ".toml": {},
	".py": {}, ".js": {}, ".ts": {}, ".jsx": {}, ".tsx": {}, ".css": {}, ".scss": {},
	".java": {}, ".cpp": {}, ".c": {}, ".h": {}, ".hpp": {}, ".cs": {}, ".go": {},
	".rb": {}, ".php": {}, ".swift": {}, ".kt": {}, ".rs": {}, ".sql": {},
	".sh": {}, ".bat": {}, ".ps1": {}, ".env": {}, ".gitignore": {},
}

// FileText extracts readable text from path by dispatching on extension.
// Returns "" when nothing useful can be extracted.
func FileText(path string) string {
	if _, err := os.Stat(path); err != nil {
		return ""
	}

	ext := strings.ToLower(filepath.Ext(path))
	switch {
	case ext == ".csv":
		return CSVSummary(path, maxRowsToRead)
	case ext == ".pdf":
		return PDFText(path)
	default:
		if _, ok := textExtensions[ext]; ok {
			return PlainText(path, MaxChars)
		}
		// Unknown types: attempt a short plain-text read, bail if binary.
		return PlainText(path, 4000)
	}
}

// PlainText reads up to maxChars of text from path. Content that is not
// valid UTF-8 after lossy conversion is treated as binary and dropped.
func PlainText(path string, maxChars int) string {
	f, err := os.Open(path)
	if err != nil {
		return ""
	}
	defer f.Close()

	buf := make([]byte, maxChars)
	n, err := io.ReadFull(f, buf)
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return ""
	}
	content := strings.ToValidUTF8(string(buf[:n]), "")

	// If most of the content was stripped, the file is binary.
	if n > 0 && len(content) < n/2 {
		return ""
	}
	if strings.ContainsRune(content, 0) {
		return ""
	}
	return content
}

// CSVSummary builds a readable summary of a CSV file: headers, sample rows
// formatted as "Header: Value" pairs, and per-column uniqueness analysis.
func CSVSummary(path string, maxRows int) string {
	f, err := os.Open(path)
	if err != nil {
		return ""
	}
	defer f.Close()

	raw := make([]byte, maxCSVBytes)
	n, err := io.ReadFull(f, raw)
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return ""
	}
	content := strings.ToValidUTF8(string(raw[:n]), "")

	reader := csv.NewReader(strings.NewReader(content))
	reader.FieldsPerRecord = -1

	var rows [][]string
	for len(rows) < maxRows+1 {
		row, err := reader.Read()
		if err != nil {
			break
		}
		for i, cell := range row {
			if utf8.RuneCountInString(cell) > maxCellLength {
				row[i] = truncateRunes(cell, maxCellLength) + "..."
			}
		}
		rows = append(rows, row)
	}
	if len(rows) == 0 {
		return ""
	}

	headers := rows[0]
	dataRows := rows[1:]
	totalRows := strings.Count(content, "\n")

	var b strings.Builder
	fmt.Fprintf(&b, "CSV File: %s\n", filepath.Base(path))
	shown := headers
	if len(shown) > 20 {
		shown = shown[:20]
	}
	fmt.Fprintf(&b, "Columns (%d): %s\n", len(headers), strings.Join(shown, ", "))
	if len(headers) > 20 {
		fmt.Fprintf(&b, "  ... and %d more columns\n", len(headers)-20)
	}
	fmt.Fprintf(&b, "Approximate rows: %d\n\n", totalRows)

	b.WriteString("Sample Data:\n")
	sample := dataRows
	if len(sample) > 15 {
		sample = sample[:15]
	}
	for i, row := range sample {
		if len(row) == len(headers) {
			var pairs []string
			for j, v := range row {
				if strings.TrimSpace(v) != "" {
					pairs = append(pairs, headers[j]+": "+v)
				}
			}
			if len(pairs) > 0 {
				limit := pairs
				if len(limit) > 8 {
					limit = limit[:8]
				}
				fmt.Fprintf(&b, "  Row %d: %s\n", i+1, strings.Join(limit, "; "))
				if len(pairs) > 8 {
					fmt.Fprintf(&b, "    ... (%d more fields)\n", len(pairs)-8)
				}
			}
		} else {
			vals := row
			if len(vals) > 10 {
				vals = vals[:10]
			}
			fmt.Fprintf(&b, "  Row %d: %s\n", i+1, strings.Join(vals, ", "))
		}
	}
	if len(dataRows) > 15 {
		fmt.Fprintf(&b, "  ... (%d more sample rows)\n", len(dataRows)-15)
	}

	if len(headers) > 0 && len(dataRows) > 0 {
		b.WriteString("\nColumn Analysis:\n")
		cols := headers
		if len(cols) > 10 {
			cols = cols[:10]
		}
		for j, header := range cols {
			seen := make(map[string]struct{})
			var examples []string
			for _, row := range dataRows {
				if j < len(row) && strings.TrimSpace(row[j]) != "" {
					if _, ok := seen[row[j]]; !ok {
						seen[row[j]] = struct{}{}
						if len(examples) < 5 {
							examples = append(examples, row[j])
						}
					}
				}
			}
			if len(examples) > 0 {
				fmt.Fprintf(&b, "  %s: %d unique values. Examples: %s\n",
					header, len(seen), strings.Join(examples, ", "))
			}
		}
	}

	result := b.String()
	if len(result) > MaxChars {
		result = result[:MaxChars] + "\n... (truncated)"
	}
	return result
}

// SupportedTextFormats lists extensions FileText can handle.
func SupportedTextFormats() []string {
	exts := make([]string, 0, len(textExtensions)+2)
	exts = append(exts, ".csv", ".pdf")
	for ext := range textExtensions {
		exts = append(exts, ext)
	}
	return exts
}

func truncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
