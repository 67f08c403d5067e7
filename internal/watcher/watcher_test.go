package watcher

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lumina/internal/index"
	"lumina/internal/planner"
	"lumina/internal/search"
)

type stubLLM struct {
	respond func(system, user string) string
	calls   int
}

func (s *stubLLM) Complete(_ context.Context, system, user string) (string, error) {
	s.calls++
	return s.respond(system, user), nil
}

func (s *stubLLM) Name() string { return "stub" }

func openTestIndex(t *testing.T) *index.Index {
	t.Helper()
	ix, err := index.Open(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { ix.Close() })
	return ix
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

// indexAll indexes the given paths and returns their record ids keyed by
// base name.
func indexAll(t *testing.T, svc *search.Service, paths ...string) map[string]int64 {
	t.Helper()
	ids := make(map[string]int64, len(paths))
	for _, p := range paths {
		_, err := svc.IndexFile(context.Background(), p, false)
		require.NoError(t, err)
		rec, err := svc.Index().GetByPath(p)
		require.NoError(t, err)
		require.NotNil(t, rec)
		ids[filepath.Base(p)] = rec.ID
	}
	return ids
}

func TestCollectCandidates(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "doc.txt"), "x")
	writeFile(t, filepath.Join(dir, ".hidden"), "x")
	writeFile(t, filepath.Join(dir, "movie.mkv.crdownload"), "x")
	writeFile(t, filepath.Join(dir, "~$report.docx"), "x")
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "sub"), 0o755))

	w := New(nil, nil, "", nil, Options{})
	got := w.collectCandidates(dir)
	assert.Equal(t, []string{filepath.Join(dir, "doc.txt")}, got)

	// Already-processed files drop out.
	w.processed[filepath.Join(dir, "doc.txt")] = struct{}{}
	assert.Empty(t, w.collectCandidates(dir))
}

func TestBuildInstruction(t *testing.T) {
	t.Run("default mode names the parent folder", func(t *testing.T) {
		got := buildInstruction(Folder{Path: "/home/u/Downloads"}, nil)
		assert.Contains(t, got, planner.AutoOrganizePrefix)
		assert.Contains(t, got, "'downloads'")
		assert.Contains(t, got, "DO NOT create a folder with this name")
	})

	t.Run("custom instruction is embedded", func(t *testing.T) {
		got := buildInstruction(Folder{Path: "/d", Instruction: "invoices go to billing"}, nil)
		assert.Contains(t, got, "invoices go to billing")
		assert.Contains(t, got, "ALL REMAINING files")
	})

	t.Run("existing-only lists the folders", func(t *testing.T) {
		got := buildInstruction(
			Folder{Path: "/d", ExistingOnly: true},
			[]string{"docs", "photos"})
		assert.Contains(t, got, "EXISTING FOLDERS ONLY")
		assert.Contains(t, got, "'docs', 'photos'")
		assert.Contains(t, got, "DO NOT create any new folders")
	})

	t.Run("existing-only without folders falls back to default", func(t *testing.T) {
		got := buildInstruction(Folder{Path: "/d", ExistingOnly: true}, nil)
		assert.NotContains(t, got, "EXISTING FOLDERS ONLY")
	})
}

func TestDropUnknownFolders(t *testing.T) {
	plan := &planner.Plan{Folders: map[string][]int64{
		"docs":   {1},
		"random": {2},
	}}
	dropUnknownFolders(plan, []string{"docs", "photos"})
	assert.Equal(t, map[string][]int64{"docs": {1}}, plan.Folders)
}

func TestOrganizeFolder(t *testing.T) {
	dir := t.TempDir()
	logDir := t.TempDir()
	docPath := filepath.Join(dir, "notes.txt")
	picPath := filepath.Join(dir, "pic.jpg")
	writeFile(t, docPath, "meeting notes")
	writeFile(t, picPath, "jpegdata")

	svc := search.New(openTestIndex(t), nil, nil, search.Config{Workers: 1})
	ids := indexAll(t, svc, docPath, picPath)

	client := &stubLLM{respond: func(_, _ string) string {
		return fmt.Sprintf(`{"folders": {"docs": [%d], "photos": [%d]}}`,
			ids["notes.txt"], ids["pic.jpg"])
	}}

	w := New(svc, client, logDir, []Folder{{Path: dir}}, Options{})
	w.organizeFolder(context.Background(), Folder{Path: dir})

	assert.FileExists(t, filepath.Join(dir, "docs", "notes.txt"))
	assert.FileExists(t, filepath.Join(dir, "photos", "pic.jpg"))
	assert.NoFileExists(t, docPath)

	// Index follows the moves.
	rec, err := svc.Index().GetByPath(filepath.Join(dir, "docs", "notes.txt"))
	require.NoError(t, err)
	require.NotNil(t, rec)

	// A move log was written.
	logs, err := filepath.Glob(filepath.Join(logDir, "moves-*.json"))
	require.NoError(t, err)
	assert.Len(t, logs, 1)

	// Nothing left to organize on a second pass.
	w.organizeFolder(context.Background(), Folder{Path: dir})
	assert.Equal(t, 1, client.calls)
}

func TestOrganizeFolder_ExistingOnly(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "docs"), 0o755))
	docPath := filepath.Join(dir, "notes.txt")
	strayPath := filepath.Join(dir, "stray.bin")
	writeFile(t, docPath, "notes")
	writeFile(t, strayPath, "data")

	svc := search.New(openTestIndex(t), nil, nil, search.Config{Workers: 1})
	ids := indexAll(t, svc, docPath, strayPath)

	// The model answers with a case variant of the existing folder and an
	// invented one.
	client := &stubLLM{respond: func(_, _ string) string {
		return fmt.Sprintf(`{"folders": {"Docs": [%d], "random": [%d]}}`,
			ids["notes.txt"], ids["stray.bin"])
	}}

	w := New(svc, client, t.TempDir(), nil, Options{})
	w.organizeFolder(context.Background(), Folder{Path: dir, ExistingOnly: true})

	assert.FileExists(t, filepath.Join(dir, "docs", "notes.txt"))
	// The invented folder was dropped; its file stays put.
	assert.FileExists(t, strayPath)
	assert.NoDirExists(t, filepath.Join(dir, "random"))
}

func TestOrganizeFolder_RejectedPlan(t *testing.T) {
	dir := t.TempDir()
	docPath := filepath.Join(dir, "notes.txt")
	writeFile(t, docPath, "notes")

	svc := search.New(openTestIndex(t), nil, nil, search.Config{Workers: 1})
	indexAll(t, svc, docPath)

	client := &stubLLM{respond: func(_, _ string) string {
		return `{"folders": {"../escape": [1]}}`
	}}

	w := New(svc, client, t.TempDir(), nil, Options{})
	w.organizeFolder(context.Background(), Folder{Path: dir})

	// Traversal rejected, nothing moved.
	assert.FileExists(t, docPath)
}

func TestCatchUpPass_SinceFilter(t *testing.T) {
	dir := t.TempDir()
	oldPath := filepath.Join(dir, "old.txt")
	newPath := filepath.Join(dir, "new.txt")
	writeFile(t, oldPath, "old")
	writeFile(t, newPath, "new")

	stale := time.Now().Add(-48 * time.Hour)
	require.NoError(t, os.Chtimes(oldPath, stale, stale))

	svc := search.New(openTestIndex(t), nil, nil, search.Config{Workers: 1})
	client := &stubLLM{respond: func(_, user string) string {
		// Only the fresh file should be offered.
		assert.NotContains(t, user, "old.txt")
		return `{"folders": {}}`
	}}

	w := New(svc, client, t.TempDir(), nil,
		Options{CatchUpSince: time.Now().Add(-time.Hour)})
	w.catchUpPass(context.Background(), map[string]Folder{dir: {Path: dir}})

	assert.Equal(t, 1, client.calls)
}

func TestRun_OrganizesAfterSettle(t *testing.T) {
	dir := t.TempDir()
	logDir := t.TempDir()

	svc := search.New(openTestIndex(t), nil, nil, search.Config{Workers: 1})

	// Respond with whatever single file got indexed.
	client := &stubLLM{respond: func(_, _ string) string {
		rec, err := svc.Index().GetByPath(filepath.Join(dir, "incoming.txt"))
		if err != nil || rec == nil {
			return `{"folders": {}}`
		}
		return fmt.Sprintf(`{"folders": {"docs": [%d]}}`, rec.ID)
	}}

	w := New(svc, client, logDir, []Folder{{Path: dir}}, Options{Settle: 50 * time.Millisecond})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	// Give the watcher a moment to register, then drop a file in.
	time.Sleep(200 * time.Millisecond)
	writeFile(t, filepath.Join(dir, "incoming.txt"), "hello")

	moved := filepath.Join(dir, "docs", "incoming.txt")
	require.Eventually(t, func() bool {
		_, err := os.Stat(moved)
		return err == nil
	}, 10*time.Second, 50*time.Millisecond, "file was not organized")

	cancel()
	require.ErrorIs(t, <-done, context.Canceled)
}

func TestLastActiveState(t *testing.T) {
	dir := t.TempDir()

	assert.True(t, LoadLastActive(dir).IsZero())

	now := time.Now().Truncate(time.Second)
	require.NoError(t, SaveLastActive(dir, now))
	assert.True(t, LoadLastActive(dir).Equal(now))

	// Corrupt state reads as zero.
	require.NoError(t, os.WriteFile(filepath.Join(dir, stateFileName), []byte("junk"), 0o644))
	assert.True(t, LoadLastActive(dir).IsZero())
}

func TestRun_NoFolders(t *testing.T) {
	w := New(nil, nil, "", nil, Options{})
	assert.Error(t, w.Run(context.Background()))
}

func TestRun_MissingFolder(t *testing.T) {
	w := New(nil, nil, "", []Folder{{Path: filepath.Join(t.TempDir(), "gone")}}, Options{})
	assert.Error(t, w.Run(context.Background()))
}
