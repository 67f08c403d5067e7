package mover

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"lumina/internal/index"
	"lumina/internal/logging"
)

// LogEntry records one completed move.
type LogEntry struct {
	FileID    int64  `json:"file_id"`
	From      string `json:"from"`
	To        string `json:"to"`
	Timestamp string `json:"timestamp"`
}

// RenamedEntry records a file that was auto-renamed to avoid a collision.
type RenamedEntry struct {
	OriginalName string `json:"original_name"`
	NewName      string `json:"new_name"`
	Folder       string `json:"folder"`
}

// Log is the on-disk record of one move operation.
type Log struct {
	OperationID string         `json:"operation_id"`
	Timestamp   string         `json:"timestamp"`
	TotalFiles  int            `json:"total_files"`
	Moves       []LogEntry     `json:"moves"`
	Renamed     []RenamedEntry `json:"renamed_files,omitempty"`
}

func writeLog(log *Log, logDir string) (string, error) {
	if err := os.MkdirAll(logDir, 0o755); err != nil {
		return "", fmt.Errorf("create log dir: %w", err)
	}
	if log.OperationID == "" {
		log.OperationID = uuid.NewString()
	}
	name := fmt.Sprintf("moves-%s.json", time.Now().Format("20060102-150405"))
	path := filepath.Join(logDir, name)

	data, err := json.MarshalIndent(log, "", "  ")
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write move log: %w", err)
	}
	return path, nil
}

// ReadLog loads a move log from disk.
func ReadLog(path string) (*Log, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read move log: %w", err)
	}
	var log Log
	if err := json.Unmarshal(data, &log); err != nil {
		return nil, fmt.Errorf("decode move log %s: %w", filepath.Base(path), err)
	}
	return &log, nil
}

// HistoryEntry summarizes one past move operation.
type HistoryEntry struct {
	LogFile         string
	Timestamp       string
	TotalFiles      int
	SuccessfulMoves int
}

// History lists past move operations, newest first. Unreadable log files
// are skipped.
func History(logDir string) ([]HistoryEntry, error) {
	matches, err := filepath.Glob(filepath.Join(logDir, "moves-*.json"))
	if err != nil {
		return nil, err
	}

	var history []HistoryEntry
	for _, path := range matches {
		log, err := ReadLog(path)
		if err != nil {
			continue
		}
		history = append(history, HistoryEntry{
			LogFile:         path,
			Timestamp:       log.Timestamp,
			TotalFiles:      log.TotalFiles,
			SuccessfulMoves: len(log.Moves),
		})
	}

	sort.Slice(history, func(i, j int) bool {
		return history[i].Timestamp > history[j].Timestamp
	})
	return history, nil
}

// UndoResult summarizes an Undo run.
type UndoResult struct {
	Restored int
	Errors   []string
}

// Undo reverses the moves recorded in the given log, newest move first.
// Files that vanished from their destination or whose original path is
// occupied again are reported as errors and left alone.
func Undo(ctx context.Context, idx *index.Index, logPath string, progress ProgressFunc) (*UndoResult, error) {
	log, err := ReadLog(logPath)
	if err != nil {
		return nil, err
	}

	res := &UndoResult{}
	total := len(log.Moves)
	for i := total - 1; i >= 0; i-- {
		if err := ctx.Err(); err != nil {
			res.Errors = append(res.Errors, "cancelled")
			break
		}
		entry := log.Moves[i]

		if _, err := os.Stat(entry.To); err != nil {
			res.Errors = append(res.Errors, fmt.Sprintf("moved file missing: %s", entry.To))
			continue
		}
		if _, err := os.Stat(entry.From); err == nil {
			res.Errors = append(res.Errors, fmt.Sprintf("original location occupied: %s", entry.From))
			continue
		}
		if err := os.MkdirAll(filepath.Dir(entry.From), 0o755); err != nil {
			res.Errors = append(res.Errors, fmt.Sprintf("restore %s: %v", filepath.Base(entry.From), err))
			continue
		}
		if err := moveFile(entry.To, entry.From); err != nil {
			res.Errors = append(res.Errors, fmt.Sprintf("restore %s: %v", filepath.Base(entry.From), err))
			continue
		}

		if idx != nil && entry.FileID > 0 {
			if err := idx.UpdatePath(entry.FileID, entry.From); err != nil {
				logging.Warn(ctx, "index update failed after undo",
					zap.Int64("file_id", entry.FileID), zap.Error(err))
			}
		}
		res.Restored++

		if progress != nil {
			progress(total-i, total)
		}
	}

	logging.Info(ctx, "undo completed",
		zap.Int("restored", res.Restored),
		zap.Int("errors", len(res.Errors)))
	return res, nil
}
