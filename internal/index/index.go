// Package index implements the SQLite file index behind Lumina's search
// and organization features. It combines a files table (source of truth),
// an FTS5 full-text mirror, an embeddings table for semantic search, and
// a search history log.
package index

import (
	"database/sql"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var schemaSQL string

// DBFileName is the index database file inside the data directory.
const DBFileName = "file_index.db"

// Index is the SQLite-backed file index. Safe for concurrent use.
type Index struct {
	mu sync.Mutex
	db *sql.DB

	// ftsRebuilt guards against repeated auto-heal rebuilds in one process.
	ftsRebuilt bool
}

// Open creates or opens the index database under dataDir.
func Open(dataDir string) (*Index, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}

	dbPath := filepath.Join(dataDir, DBFileName)
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open index database: %w", err)
	}

	// modernc.org/sqlite serializes access per connection; a single
	// connection avoids table-lock errors from concurrent writers.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}

	return &Index{db: db}, nil
}

// Close releases the underlying database handle.
func (ix *Index) Close() error {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	if ix.db == nil {
		return nil
	}
	err := ix.db.Close()
	ix.db = nil
	return err
}

// Clear removes all indexed files, FTS rows, and embeddings.
func (ix *Index) Clear() error {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	for _, stmt := range []string{
		"DELETE FROM files",
		"DELETE FROM files_fts",
		"DELETE FROM embeddings",
	} {
		if _, err := ix.db.Exec(stmt); err != nil {
			return fmt.Errorf("clear index: %w", err)
		}
	}
	return nil
}
