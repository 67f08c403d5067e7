// Package planner turns user instructions into validated organization
// plans. The flow is strict: the model proposes, the app validates, the
// user approves, the app executes. Model output never reaches the
// filesystem without passing Validate.
package planner

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"lumina/internal/llm"
)

// Plan maps folder names to the file ids placed in them.
type Plan struct {
	Folders map[string][]int64 `json:"folders"`
}

// ParsePlan extracts and decodes a plan from raw model output. File ids
// arriving as numbers or numeric strings are both accepted.
func ParsePlan(content string) (*Plan, error) {
	raw, ok := llm.ExtractJSON(content)
	if !ok {
		return nil, fmt.Errorf("no JSON object in model response")
	}

	var loose struct {
		Folders map[string][]any `json:"folders"`
	}
	if err := json.Unmarshal([]byte(raw), &loose); err != nil {
		return nil, fmt.Errorf("decode plan: %w", err)
	}

	plan := &Plan{Folders: make(map[string][]int64, len(loose.Folders))}
	for folder, ids := range loose.Folders {
		var out []int64
		for _, v := range ids {
			switch id := v.(type) {
			case float64:
				out = append(out, int64(id))
			case string:
				if n, err := strconv.ParseInt(id, 10, 64); err == nil {
					out = append(out, n)
				}
			}
		}
		plan.Folders[folder] = out
	}
	return plan, nil
}

// Dedupe removes file ids that appear in more than one folder, keeping
// the first occurrence. Folders left empty are dropped.
func (p *Plan) Dedupe() {
	seen := make(map[int64]struct{})
	for folder, ids := range p.Folders {
		var kept []int64
		for _, id := range ids {
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			kept = append(kept, id)
		}
		if len(kept) == 0 {
			delete(p.Folders, folder)
			continue
		}
		p.Folders[folder] = kept
	}
}

// EnsureAllIncluded adds any file id from all that the model omitted to a
// catch-all folder, reusing an existing "misc", "other", or "unsorted"
// folder when present.
func (p *Plan) EnsureAllIncluded(all []int64) {
	if p.Folders == nil {
		p.Folders = make(map[string][]int64)
	}

	included := make(map[int64]struct{})
	for _, ids := range p.Folders {
		for _, id := range ids {
			included[id] = struct{}{}
		}
	}

	var missing []int64
	for _, id := range all {
		if _, ok := included[id]; !ok {
			missing = append(missing, id)
		}
	}
	if len(missing) == 0 {
		return
	}

	target := "misc"
	for _, name := range []string{"misc", "other", "unsorted"} {
		if _, ok := p.Folders[name]; ok {
			target = name
			break
		}
	}
	p.Folders[target] = append(p.Folders[target], missing...)
}

// dangerousFolderNames can never appear in a plan.
var dangerousFolderNames = map[string]struct{}{
	"system32":      {},
	"windows":       {},
	"program files": {},
	"programdata":   {},
	"$recycle.bin":  {},
}

// MaxFolderDepth limits nesting in proposed folder names.
const MaxFolderDepth = 2

// Validate is the safety gate between the model and the filesystem.
// It rejects path traversal, absolute paths, drive letters, system folder
// names, excessive depth, unknown ids, and ids placed in multiple folders.
func (p *Plan) Validate(validIDs map[int64]struct{}) []string {
	var errs []string
	if p == nil || len(p.Folders) == 0 {
		return []string{"plan contains no folders"}
	}

	seen := make(map[int64]struct{})
	for folder, ids := range p.Folders {
		if strings.TrimSpace(folder) == "" {
			errs = append(errs, "empty folder name")
			continue
		}
		if strings.Contains(folder, "..") {
			errs = append(errs, fmt.Sprintf("path traversal not allowed: %s", folder))
			continue
		}
		if strings.HasPrefix(folder, "/") || strings.HasPrefix(folder, "\\") {
			errs = append(errs, fmt.Sprintf("absolute paths not allowed: %s", folder))
			continue
		}
		if strings.Contains(folder, ":") {
			errs = append(errs, fmt.Sprintf("drive letters not allowed: %s", folder))
			continue
		}
		if _, bad := dangerousFolderNames[strings.ToLower(folder)]; bad {
			errs = append(errs, fmt.Sprintf("system folder name not allowed: %s", folder))
			continue
		}
		depth := strings.Count(strings.ReplaceAll(folder, "\\", "/"), "/") + 1
		if depth > MaxFolderDepth {
			errs = append(errs, fmt.Sprintf("folder too deep (%d > %d): %s", depth, MaxFolderDepth, folder))
		}

		for _, id := range ids {
			if _, ok := validIDs[id]; !ok {
				errs = append(errs, fmt.Sprintf("unknown file id: %d", id))
			} else if _, dup := seen[id]; dup {
				errs = append(errs, fmt.Sprintf("file id %d appears in multiple folders", id))
			}
			seen[id] = struct{}{}
		}
	}
	return errs
}

func marshalPlan(p *Plan) (string, error) {
	b, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode plan: %w", err)
	}
	return string(b), nil
}

// FileCount returns the number of file ids across all folders.
func (p *Plan) FileCount() int {
	n := 0
	for _, ids := range p.Folders {
		n += len(ids)
	}
	return n
}
