package index

import (
	"fmt"
	"time"
)

// HistoryEntry is one logged search.
type HistoryEntry struct {
	Query        string
	Timestamp    time.Time
	ResultsCount int
}

// logSearch records a query. Failures are ignored; history is best effort
// and must never fail a search. Caller holds the mutex.
func (ix *Index) logSearch(query string, results int) {
	_, _ = ix.db.Exec(
		"INSERT INTO search_history (query, timestamp, results_count) VALUES (?, ?, ?)",
		query, time.Now().Format(time.RFC3339), results)
}

// SearchHistory returns the most recent searches, newest first.
func (ix *Index) SearchHistory(limit int) ([]HistoryEntry, error) {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	if limit <= 0 {
		limit = 10
	}

	rows, err := ix.db.Query(`
		SELECT query, timestamp, results_count
		FROM search_history
		ORDER BY timestamp DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("read search history: %w", err)
	}
	defer rows.Close()

	var out []HistoryEntry
	for rows.Next() {
		var (
			e  HistoryEntry
			ts string
		)
		if err := rows.Scan(&e.Query, &ts, &e.ResultsCount); err != nil {
			return nil, fmt.Errorf("scan history entry: %w", err)
		}
		e.Timestamp = decodeTime(ts)
		out = append(out, e)
	}
	return out, rows.Err()
}
