package planner

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/agnivade/levenshtein"

	"lumina/internal/index"
)

// Move is one concrete file relocation derived from a validated plan.
type Move struct {
	FileID      int64  `json:"file_id"`
	FileName    string `json:"file_name"`
	Source      string `json:"source_path"`
	Destination string `json:"destination_path"`
	Folder      string `json:"destination_folder"`
	Size        int64  `json:"size"`
}

// maxCollisionSuffix bounds the "name (N).ext" rename search.
const maxCollisionSuffix = 1000

// ToMoves converts a validated plan into concrete move operations. This
// step is fully deterministic; the model has no influence here. Files
// that vanished, are unknown, or already sit in their destination are
// skipped. Name collisions get a " (N)" suffix.
func (p *Plan) ToMoves(filesByID map[int64]index.FileRecord, destRoot string) []Move {
	var moves []Move
	planned := make(map[string]struct{})

	for folder, ids := range p.Folders {
		destFolder := filepath.Join(destRoot, folder)

		for _, id := range ids {
			info, ok := filesByID[id]
			if !ok {
				continue
			}
			src := info.Path
			if _, err := os.Stat(src); err != nil {
				continue
			}
			if filepath.Dir(src) == destFolder {
				continue
			}

			dest := uniqueDestination(destFolder, filepath.Base(src), planned)
			if dest == "" {
				continue
			}
			planned[dest] = struct{}{}

			moves = append(moves, Move{
				FileID:      id,
				FileName:    filepath.Base(src),
				Source:      src,
				Destination: dest,
				Folder:      folder,
				Size:        info.Size,
			})
		}
	}
	return moves
}

// uniqueDestination returns a collision-free path under destFolder,
// checking both files on disk and destinations already planned in this
// batch. Returns "" if no free name is found within the suffix limit.
func uniqueDestination(destFolder, name string, planned map[string]struct{}) string {
	candidate := filepath.Join(destFolder, name)
	if available(candidate, planned) {
		return candidate
	}

	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)
	for i := 1; i <= maxCollisionSuffix; i++ {
		candidate = filepath.Join(destFolder, fmt.Sprintf("%s (%d)%s", stem, i, ext))
		if available(candidate, planned) {
			return candidate
		}
	}
	return ""
}

func available(path string, planned map[string]struct{}) bool {
	if _, taken := planned[path]; taken {
		return false
	}
	_, err := os.Stat(path)
	return os.IsNotExist(err)
}

// FolderSummary describes one folder in a plan summary.
type FolderSummary struct {
	Name      string
	FileCount int
	SizeBytes int64
}

// Summary aggregates a plan for display before user approval.
type Summary struct {
	TotalFolders int
	TotalFiles   int
	TotalBytes   int64
	Folders      []FolderSummary
}

// Summarize builds a human-readable overview of the plan.
func (p *Plan) Summarize(filesByID map[int64]index.FileRecord) Summary {
	s := Summary{TotalFolders: len(p.Folders)}
	for folder, ids := range p.Folders {
		fs := FolderSummary{Name: folder, FileCount: len(ids)}
		for _, id := range ids {
			if info, ok := filesByID[id]; ok {
				fs.SizeBytes += info.Size
			}
		}
		s.TotalFiles += len(ids)
		s.TotalBytes += fs.SizeBytes
		s.Folders = append(s.Folders, fs)
	}
	return s
}

// maxFolderMatchDistance is the edit distance within which a proposed
// folder is considered the same as an existing one.
const maxFolderMatchDistance = 2

// MatchExistingFolders renames plan folders to existing destination
// folders they nearly match, so "organize into existing folders" reuses
// "Invoices" instead of creating a sibling "invoices" or "invoice".
func (p *Plan) MatchExistingFolders(existing []string) {
	if len(existing) == 0 {
		return
	}

	matched := make(map[string][]int64, len(p.Folders))
	for folder, ids := range p.Folders {
		best := folder
		bestDist := maxFolderMatchDistance + 1
		for _, ex := range existing {
			if strings.EqualFold(folder, ex) {
				best = ex
				bestDist = 0
				break
			}
			d := levenshtein.ComputeDistance(strings.ToLower(folder), strings.ToLower(ex))
			if d < bestDist {
				best = ex
				bestDist = d
			}
		}
		matched[best] = append(matched[best], ids...)
	}
	p.Folders = matched
}
