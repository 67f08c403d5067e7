// Package watcher auto-organizes configured folders: it watches for new
// files, waits for them to settle, indexes them, asks the planner for an
// organization plan scoped to the folder's instruction, and executes the
// validated moves inside that folder.
package watcher

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"lumina/internal/classify"
	"lumina/internal/index"
	"lumina/internal/llm"
	"lumina/internal/logging"
	"lumina/internal/mover"
	"lumina/internal/planner"
	"lumina/internal/search"
)

// Folder is one watched directory with its organization instruction.
type Folder struct {
	Path         string
	Instruction  string
	ExistingOnly bool // restrict plans to subfolders that already exist
}

// DefaultSettle is how long a folder must stay quiet after an event
// before its files are organized.
const DefaultSettle = 2 * time.Second

// Options tunes a Watcher.
type Options struct {
	Settle       time.Duration
	CatchUpSince time.Time // organize files modified after this on start
}

// Watcher drives the auto-organize loop.
type Watcher struct {
	svc     *search.Service
	client  llm.Client
	logDir  string
	folders []Folder
	settle  time.Duration
	catchUp time.Time

	processed map[string]struct{}
}

// New builds a Watcher over the given folders. client plans the
// organization; it must not be nil.
func New(svc *search.Service, client llm.Client, logDir string, folders []Folder, opts Options) *Watcher {
	settle := opts.Settle
	if settle <= 0 {
		settle = DefaultSettle
	}
	return &Watcher{
		svc:       svc,
		client:    client,
		logDir:    logDir,
		folders:   folders,
		settle:    settle,
		catchUp:   opts.CatchUpSince,
		processed: make(map[string]struct{}),
	}
}

// Run watches until ctx is cancelled. A catch-up pass over files that
// appeared while not running executes first.
func (w *Watcher) Run(ctx context.Context) error {
	if len(w.folders) == 0 {
		return fmt.Errorf("no folders to watch")
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("start watcher: %w", err)
	}
	defer fsw.Close()

	byPath := make(map[string]Folder, len(w.folders))
	for _, f := range w.folders {
		abs, err := filepath.Abs(f.Path)
		if err != nil {
			return err
		}
		if info, err := os.Stat(abs); err != nil || !info.IsDir() {
			return fmt.Errorf("not a watchable directory: %s", f.Path)
		}
		f.Path = abs
		byPath[abs] = f
		if err := fsw.Add(abs); err != nil {
			return fmt.Errorf("watch %s: %w", f.Path, err)
		}
		logging.Info(ctx, "watching folder", zap.String("path", abs))
	}

	w.catchUpPass(ctx, byPath)

	// One settle timer per folder; events reset it, expiry queues the
	// folder for organizing.
	settled := make(chan string, len(byPath))
	timers := make(map[string]*time.Timer, len(byPath))
	defer func() {
		for _, t := range timers {
			t.Stop()
		}
	}()

	for {
		select {
		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) == 0 {
				continue
			}
			dir := filepath.Dir(event.Name)
			if _, watched := byPath[dir]; !watched {
				continue
			}
			if classify.ShouldIgnore(event.Name) {
				continue
			}

			logging.Debug(ctx, "file event", zap.String("file", event.Name), zap.String("op", event.Op.String()))
			if t, exists := timers[dir]; exists {
				t.Stop()
			}
			timers[dir] = time.AfterFunc(w.settle, func() {
				select {
				case settled <- dir:
				default:
				}
			})

		case dir := <-settled:
			w.organizeFolder(ctx, byPath[dir])

		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			logging.Warn(ctx, "watcher error", zap.Error(err))

		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// catchUpPass organizes files that appeared while the watcher was not
// running, filtered by the catch-up timestamp when one is set.
func (w *Watcher) catchUpPass(ctx context.Context, byPath map[string]Folder) {
	for _, f := range byPath {
		candidates := w.collectCandidates(f.Path)
		if !w.catchUp.IsZero() {
			var recent []string
			for _, p := range candidates {
				if info, err := os.Stat(p); err == nil && info.ModTime().After(w.catchUp) {
					recent = append(recent, p)
				}
			}
			candidates = recent
		}
		if len(candidates) == 0 {
			continue
		}
		logging.Info(ctx, "catch-up pass",
			zap.String("folder", f.Path), zap.Int("files", len(candidates)))
		w.organize(ctx, f, candidates)
	}
}

// collectCandidates returns direct-child files of dir that pass the
// usual skip rules and have not already been organized this session.
func (w *Watcher) collectCandidates(dir string) []string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}

	var out []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		path := filepath.Join(dir, e.Name())
		if classify.ShouldIgnore(path) {
			continue
		}
		if _, done := w.processed[path]; done {
			continue
		}
		out = append(out, path)
	}
	sort.Strings(out)
	return out
}

func (w *Watcher) organizeFolder(ctx context.Context, f Folder) {
	candidates := w.collectCandidates(f.Path)
	if len(candidates) == 0 {
		return
	}
	w.organize(ctx, f, candidates)
}

// organize indexes the candidates, requests a plan, validates it, and
// executes the resulting moves inside the watched folder.
func (w *Watcher) organize(ctx context.Context, f Folder, candidates []string) {
	idx := w.svc.Index()

	var records []index.FileRecord
	for _, path := range candidates {
		if _, err := w.svc.IndexFile(ctx, path, false); err != nil {
			logging.Warn(ctx, "auto-index failed", zap.String("file", path), zap.Error(err))
			continue
		}
		rec, err := idx.GetByPath(path)
		if err != nil || rec == nil {
			continue
		}
		records = append(records, *rec)
	}
	if len(records) == 0 {
		return
	}

	existing := subfolderNames(f.Path)
	instruction := buildInstruction(f, existing)

	plan, err := planner.RequestPlan(ctx, w.client, instruction, records)
	if err != nil {
		logging.Warn(ctx, "plan request failed", zap.String("folder", f.Path), zap.Error(err))
		return
	}

	if f.ExistingOnly {
		plan.MatchExistingFolders(existing)
		dropUnknownFolders(plan, existing)
		if len(plan.Folders) == 0 {
			logging.Info(ctx, "no plan folders match existing ones", zap.String("folder", f.Path))
			return
		}
	}

	valid := make(map[int64]struct{}, len(records))
	filesByID := make(map[int64]index.FileRecord, len(records))
	for _, r := range records {
		valid[r.ID] = struct{}{}
		filesByID[r.ID] = r
	}
	if errs := plan.Validate(valid); len(errs) > 0 {
		logging.Warn(ctx, "plan rejected",
			zap.String("folder", f.Path), zap.Strings("errors", errs))
		return
	}

	moves := plan.ToMoves(filesByID, f.Path)
	if len(moves) == 0 {
		for _, path := range candidates {
			w.processed[path] = struct{}{}
		}
		return
	}

	res, err := mover.Apply(ctx, idx, moves, w.logDir, nil)
	if err != nil {
		logging.Error(ctx, "apply failed", zap.Error(err))
		return
	}
	for _, path := range candidates {
		w.processed[path] = struct{}{}
	}
	logging.Info(ctx, "auto-organized",
		zap.String("folder", f.Path),
		zap.Int("moved", res.Applied),
		zap.Int("errors", len(res.Errors)))
}

// dropUnknownFolders removes plan folders that still do not name an
// existing subfolder after fuzzy matching. Their files stay in place.
func dropUnknownFolders(plan *planner.Plan, existing []string) {
	known := make(map[string]struct{}, len(existing))
	for _, name := range existing {
		known[name] = struct{}{}
	}
	for name := range plan.Folders {
		if _, ok := known[name]; !ok {
			delete(plan.Folders, name)
		}
	}
}

func subfolderNames(dir string) []string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() && !strings.HasPrefix(e.Name(), ".") {
			out = append(out, e.Name())
		}
	}
	sort.Strings(out)
	return out
}

// buildInstruction composes the auto-organize instruction sent to the
// model: the folder's configured instruction plus the rules this mode
// needs (never recreate the parent folder, include every file, and in
// existing-only mode never invent folders).
func buildInstruction(f Folder, existing []string) string {
	parent := strings.ToLower(filepath.Base(f.Path))

	if f.ExistingOnly && len(existing) > 0 {
		quoted := make([]string, len(existing))
		for i, name := range existing {
			quoted[i] = "'" + name + "'"
		}
		instruction := f.Instruction
		if instruction == "" {
			instruction = "Organize files into appropriate folders"
		}
		return fmt.Sprintf(`%s - EXISTING FOLDERS ONLY
User's instructions: %s

EXISTING FOLDERS YOU CAN USE: %s

CRITICAL RULES:
1. You can ONLY use the folders listed above - DO NOT create any new folders
2. Move EVERY file to the most appropriate EXISTING folder
3. EVERY file_id in your response MUST go to one of the existing folders listed above`,
			planner.AutoOrganizePrefix, instruction, strings.Join(quoted, ", "))
	}

	if f.Instruction != "" {
		return fmt.Sprintf(`%s User's specific instructions: %s

PARENT FOLDER NAME: '%s' - DO NOT create a folder with this name!

RULES FOR AUTO-ORGANIZE MODE:
1. FOLLOW the user's specific instructions EXACTLY for any files they mentioned
2. For ALL REMAINING files not covered by the instructions, organize them logically by file type
3. EVERY file MUST be placed in a folder - NO files left out
4. Use simple, clear folder names (e.g., 'photos', 'docs', 'videos', 'audio', 'misc')`,
			planner.AutoOrganizePrefix, f.Instruction, parent)
	}

	return fmt.Sprintf(`%s Organize ALL files into logical folders based on file type and content.
PARENT FOLDER NAME: '%s' - DO NOT create a folder with this name!
Use clear folder names like 'photos', 'docs', 'videos', 'audio', 'misc'.
EVERY file MUST be placed in a folder - NO files left out.`,
		planner.AutoOrganizePrefix, parent)
}
