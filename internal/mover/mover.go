// Package mover executes validated move plans against the filesystem
// and records every operation in a JSON log so it can be undone.
package mover

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sys/unix"

	"lumina/internal/index"
	"lumina/internal/logging"
	"lumina/internal/planner"
)

// maxCollisionSuffix bounds the "name (N).ext" rename search when the
// destination gained a conflicting file after planning.
const maxCollisionSuffix = 1000

// Result summarizes an Apply run.
type Result struct {
	Applied int
	Renamed int
	Errors  []string
	LogPath string
}

// ProgressFunc reports per-file progress during Apply and Undo.
type ProgressFunc func(done, total int)

// ValidateMoves runs pre-flight checks over a move batch: sources must
// exist, no move may be a no-op, and no destination folder may sit
// inside a file being moved. Returns one message per problem.
func ValidateMoves(moves []planner.Move) []string {
	var errs []string
	for _, m := range moves {
		if m.Source == m.Destination {
			errs = append(errs, fmt.Sprintf("source and destination are the same: %s", m.Source))
			continue
		}
		if _, err := os.Stat(m.Source); err != nil {
			errs = append(errs, fmt.Sprintf("source does not exist: %s", m.Source))
			continue
		}
		if rel, err := filepath.Rel(m.Source, m.Destination); err == nil &&
			rel != "." && !strings.HasPrefix(rel, "..") {
			errs = append(errs, fmt.Sprintf("destination is inside source: %s", m.Destination))
		}
	}
	return errs
}

// CheckDestination verifies the destination root exists (creating it if
// needed) and is writable, by probing with a throwaway file.
func CheckDestination(destRoot string) error {
	if err := os.MkdirAll(destRoot, 0o755); err != nil {
		return fmt.Errorf("create destination %s: %w", destRoot, err)
	}
	probe := filepath.Join(destRoot, ".lumina-write-probe")
	f, err := os.Create(probe)
	if err != nil {
		return fmt.Errorf("destination %s is not writable: %w", destRoot, err)
	}
	f.Close()
	os.Remove(probe)
	return nil
}

// CheckSpace verifies the destination filesystem has room for all moves.
// Moves within the same filesystem do not consume extra space, but the
// check stays conservative and sums everything.
func CheckSpace(moves []planner.Move, destRoot string) error {
	var required int64
	for _, m := range moves {
		required += m.Size
	}

	var st unix.Statfs_t
	if err := unix.Statfs(destRoot, &st); err != nil {
		return fmt.Errorf("check disk space: %w", err)
	}
	free := int64(st.Bavail) * int64(st.Bsize)

	if required > free {
		return fmt.Errorf("insufficient space: required %.2fMB, available %.2fMB",
			float64(required)/(1<<20), float64(free)/(1<<20))
	}
	return nil
}

// Apply executes the moves, updating the index as each file lands. It
// keeps going past individual failures and reports them in the result.
// A move log is written even when some moves fail. The index may be nil
// when the caller works outside an indexed directory.
func Apply(ctx context.Context, idx *index.Index, moves []planner.Move, logDir string, progress ProgressFunc) (*Result, error) {
	res := &Result{}
	log := &Log{
		Timestamp:  time.Now().Format(time.RFC3339),
		TotalFiles: len(moves),
	}

	for i, m := range moves {
		if err := ctx.Err(); err != nil {
			res.Errors = append(res.Errors, fmt.Sprintf("cancelled after %d of %d moves", i, len(moves)))
			break
		}

		if _, err := os.Stat(m.Source); err != nil {
			res.Errors = append(res.Errors, fmt.Sprintf("source no longer exists: %s", m.Source))
			continue
		}
		if err := os.MkdirAll(filepath.Dir(m.Destination), 0o755); err != nil {
			res.Errors = append(res.Errors, fmt.Sprintf("create folder for %s: %v", m.FileName, err))
			continue
		}

		dest := m.Destination
		if _, err := os.Stat(dest); err == nil {
			// Something landed here after planning; pick a fresh name.
			unique, uerr := uniquePath(dest)
			if uerr != nil {
				res.Errors = append(res.Errors, fmt.Sprintf("rename %s: %v", m.FileName, uerr))
				continue
			}
			log.Renamed = append(log.Renamed, RenamedEntry{
				OriginalName: filepath.Base(dest),
				NewName:      filepath.Base(unique),
				Folder:       filepath.Dir(unique),
			})
			dest = unique
			res.Renamed++
		}

		if err := moveFile(m.Source, dest); err != nil {
			res.Errors = append(res.Errors, fmt.Sprintf("move %s: %v", m.FileName, err))
			continue
		}
		logging.Debug(ctx, "moved file", zap.String("from", m.Source), zap.String("to", dest))

		if idx != nil && m.FileID > 0 {
			if err := idx.UpdatePath(m.FileID, dest); err != nil {
				logging.Warn(ctx, "index update failed after move",
					zap.Int64("file_id", m.FileID), zap.Error(err))
			}
		}

		log.Moves = append(log.Moves, LogEntry{
			FileID:    m.FileID,
			From:      m.Source,
			To:        dest,
			Timestamp: time.Now().Format(time.RFC3339),
		})
		res.Applied++

		if progress != nil {
			progress(i+1, len(moves))
		}
	}

	path, err := writeLog(log, logDir)
	if err != nil {
		logging.Warn(ctx, "move log not saved", zap.Error(err))
	}
	res.LogPath = path

	logging.Info(ctx, "move operation completed",
		zap.Int("applied", res.Applied),
		zap.Int("renamed", res.Renamed),
		zap.Int("errors", len(res.Errors)))
	return res, nil
}

// uniquePath returns a non-existing sibling of path using " (N)" suffixes.
func uniquePath(path string) (string, error) {
	ext := filepath.Ext(path)
	stem := path[:len(path)-len(ext)]
	for i := 1; i <= maxCollisionSuffix; i++ {
		candidate := fmt.Sprintf("%s (%d)%s", stem, i, ext)
		if _, err := os.Stat(candidate); os.IsNotExist(err) {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("no unique name for %s after %d attempts", filepath.Base(path), maxCollisionSuffix)
}

// moveFile renames src to dest, falling back to copy-and-remove when the
// rename crosses filesystems.
func moveFile(src, dest string) error {
	if err := os.Rename(src, dest); err == nil {
		return nil
	}

	info, err := os.Stat(src)
	if err != nil {
		return err
	}
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dest, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		os.Remove(dest)
		return fmt.Errorf("copy %s: %w", filepath.Base(src), err)
	}
	if err := out.Close(); err != nil {
		os.Remove(dest)
		return err
	}
	return os.Remove(src)
}
