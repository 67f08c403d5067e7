package index

import (
	"encoding/json"
	"fmt"
	"time"
)

// Embedding is a stored semantic vector for one file.
type Embedding struct {
	FileID int64
	Model  string
	Vector []float32
}

// UpsertEmbedding stores or replaces the embedding for a file.
func (ix *Index) UpsertEmbedding(fileID int64, model string, vector []float32) error {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	raw, err := json.Marshal(vector)
	if err != nil {
		return fmt.Errorf("encode embedding for %d: %w", fileID, err)
	}

	_, err = ix.db.Exec(`
		INSERT INTO embeddings(file_id, model, dim, vector, updated_at)
		VALUES(?, ?, ?, ?, ?)
		ON CONFLICT(file_id) DO UPDATE SET
			model = excluded.model,
			dim = excluded.dim,
			vector = excluded.vector,
			updated_at = excluded.updated_at`,
		fileID, model, len(vector), string(raw), time.Now().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("upsert embedding for %d: %w", fileID, err)
	}
	return nil
}

// AllEmbeddings returns every stored embedding. The full set fits in memory
// for the index sizes Lumina targets; ranking happens in process.
func (ix *Index) AllEmbeddings() ([]Embedding, error) {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	rows, err := ix.db.Query("SELECT file_id, model, vector FROM embeddings")
	if err != nil {
		return nil, fmt.Errorf("list embeddings: %w", err)
	}
	defer rows.Close()

	var out []Embedding
	for rows.Next() {
		var (
			e   Embedding
			raw string
		)
		if err := rows.Scan(&e.FileID, &e.Model, &raw); err != nil {
			return nil, fmt.Errorf("scan embedding: %w", err)
		}
		if err := json.Unmarshal([]byte(raw), &e.Vector); err != nil {
			continue
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// HasEmbedding reports whether a file already has a stored vector for model.
func (ix *Index) HasEmbedding(fileID int64, model string) (bool, error) {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	var n int
	err := ix.db.QueryRow(
		"SELECT COUNT(*) FROM embeddings WHERE file_id = ? AND model = ?",
		fileID, model).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("check embedding for %d: %w", fileID, err)
	}
	return n > 0, nil
}
