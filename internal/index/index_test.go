package index

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestIndex(t *testing.T) *Index {
	t.Helper()
	ix, err := Open(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = ix.Close() })
	return ix
}

func testRecord(t *testing.T, dir, name string) *FileRecord {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte("content of "+name), 0o644))
	return &FileRecord{
		Path:      path,
		Name:      name,
		Extension: filepath.Ext(name),
		Size:      int64(len("content of " + name)),
		Category:  "Documents/Text",
	}
}

func TestOpen_CreatesDatabase(t *testing.T) {
	dir := t.TempDir()
	ix, err := Open(filepath.Join(dir, "nested", "data"))
	require.NoError(t, err)
	defer ix.Close()

	_, err = os.Stat(filepath.Join(dir, "nested", "data", DBFileName))
	assert.NoError(t, err)
}

func TestUpsert_InsertAndUpdate(t *testing.T) {
	ix := openTestIndex(t)
	dir := t.TempDir()

	rec := testRecord(t, dir, "notes.txt")
	require.NoError(t, ix.Upsert(rec))
	assert.NotZero(t, rec.ID)
	assert.False(t, rec.IndexedDate.IsZero())

	got, err := ix.GetByPath(rec.Path)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, rec.ID, got.ID)
	assert.Equal(t, "notes.txt", got.Name)
	assert.Equal(t, "Documents/Text", got.Category)

	// Second upsert for the same path keeps the id.
	rec2 := testRecord(t, dir, "notes.txt")
	rec2.Category = "Documents/PDFs"
	require.NoError(t, ix.Upsert(rec2))
	assert.Equal(t, rec.ID, rec2.ID)

	n, err := ix.Count()
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestUpsert_PreservesEnrichedFields(t *testing.T) {
	ix := openTestIndex(t)
	dir := t.TempDir()

	rec := testRecord(t, dir, "invoice.txt")
	rec.Label = "invoice"
	rec.Caption = "March utility invoice"
	rec.Tags = []string{"invoice", "utility"}
	rec.OCRText = "Total due: $42"
	rec.HasOCR = true
	rec.AISource = "ollama"
	require.NoError(t, ix.Upsert(rec))

	// Reindex without enrichment must not wipe it.
	plain := testRecord(t, dir, "invoice.txt")
	require.NoError(t, ix.Upsert(plain))

	got, err := ix.GetByPath(rec.Path)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "invoice", got.Label)
	assert.Equal(t, "March utility invoice", got.Caption)
	assert.Equal(t, []string{"invoice", "utility"}, got.Tags)
	assert.Equal(t, "Total due: $42", got.OCRText)
	assert.True(t, got.HasOCR)
	assert.Equal(t, "ollama", got.AISource)

	// Explicit new enrichment replaces the old values.
	richer := testRecord(t, dir, "invoice.txt")
	richer.Label = "receipt"
	require.NoError(t, ix.Upsert(richer))
	got, err = ix.GetByPath(rec.Path)
	require.NoError(t, err)
	assert.Equal(t, "receipt", got.Label)
}

func TestUpdatePath(t *testing.T) {
	ix := openTestIndex(t)
	dir := t.TempDir()

	rec := testRecord(t, dir, "moveme.txt")
	rec.Tags = []string{"important"}
	require.NoError(t, ix.Upsert(rec))

	newPath := filepath.Join(dir, "sorted", "moveme.txt")
	require.NoError(t, ix.UpdatePath(rec.ID, newPath))

	got, err := ix.GetByPath(newPath)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, rec.ID, got.ID)
	assert.Equal(t, []string{"important"}, got.Tags)

	old, err := ix.GetByPath(rec.Path)
	require.NoError(t, err)
	assert.Nil(t, old)
}

func TestUpdatePath_RemovesStaleEntry(t *testing.T) {
	ix := openTestIndex(t)
	dir := t.TempDir()

	stale := testRecord(t, dir, "old.txt")
	require.NoError(t, ix.Upsert(stale))

	mover := testRecord(t, dir, "new.txt")
	require.NoError(t, ix.Upsert(mover))

	// Move "new.txt" onto the path previously held by "old.txt".
	require.NoError(t, ix.UpdatePath(mover.ID, stale.Path))

	got, err := ix.GetByPath(stale.Path)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, mover.ID, got.ID)

	n, err := ix.Count()
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestUpdatePath_UnknownID(t *testing.T) {
	ix := openTestIndex(t)
	assert.Error(t, ix.UpdatePath(999, "/nowhere/file.txt"))
}

func TestDelete_Cascades(t *testing.T) {
	ix := openTestIndex(t)
	dir := t.TempDir()

	rec := testRecord(t, dir, "gone.txt")
	require.NoError(t, ix.Upsert(rec))
	require.NoError(t, ix.UpsertEmbedding(rec.ID, "test-model", []float32{0.1, 0.2}))

	require.NoError(t, ix.Delete(rec.ID))

	got, err := ix.GetByPath(rec.Path)
	require.NoError(t, err)
	assert.Nil(t, got)

	embs, err := ix.AllEmbeddings()
	require.NoError(t, err)
	assert.Empty(t, embs)
}

func TestDeleteByPath_MissingIsNoop(t *testing.T) {
	ix := openTestIndex(t)
	assert.NoError(t, ix.DeleteByPath("/not/indexed.txt"))
}

func TestSearch_FTS(t *testing.T) {
	ix := openTestIndex(t)
	dir := t.TempDir()

	a := testRecord(t, dir, "budget_report.txt")
	require.NoError(t, ix.Upsert(a))
	b := testRecord(t, dir, "vacation_photos.txt")
	require.NoError(t, ix.Upsert(b))

	results, err := ix.Search("budget", 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "budget_report.txt", results[0].Name)

	// Search is logged to history.
	history, err := ix.SearchHistory(5)
	require.NoError(t, err)
	require.NotEmpty(t, history)
	assert.Equal(t, "budget", history[0].Query)
	assert.Equal(t, 1, history[0].ResultsCount)
}

func TestSearch_MatchesEnrichedFields(t *testing.T) {
	ix := openTestIndex(t)
	dir := t.TempDir()

	rec := testRecord(t, dir, "img_0042.txt")
	rec.Caption = "sunset over the harbor"
	rec.Tags = []string{"sunset", "harbor"}
	require.NoError(t, ix.Upsert(rec))

	results, err := ix.Search("harbor", 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "img_0042.txt", results[0].Name)
}

func TestSearchAdvanced(t *testing.T) {
	ix := openTestIndex(t)
	dir := t.TempDir()

	invoice := testRecord(t, dir, "invoice_march.txt")
	invoice.Label = "invoice"
	invoice.HasOCR = true
	invoice.OCRText = "amount due"
	require.NoError(t, ix.Upsert(invoice))

	photo := testRecord(t, dir, "photo_beach.txt")
	require.NoError(t, ix.Upsert(photo))

	t.Run("prefix terms", func(t *testing.T) {
		results, err := ix.SearchAdvanced([]string{"invoi"}, Filters{}, 10)
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.Equal(t, "invoice_march.txt", results[0].Name)
	})

	t.Run("label filter", func(t *testing.T) {
		results, err := ix.SearchAdvanced(nil, Filters{Label: "invoice"}, 10)
		require.NoError(t, err)
		require.Len(t, results, 1)
	})

	t.Run("ocr filter", func(t *testing.T) {
		results, err := ix.SearchAdvanced(nil, Filters{HasOCR: true}, 10)
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.True(t, results[0].HasOCR)
	})

	t.Run("no match falls back without error", func(t *testing.T) {
		results, err := ix.SearchAdvanced([]string{"zzzznothing"}, Filters{}, 10)
		require.NoError(t, err)
		assert.Empty(t, results)
	})
}

func TestAddTags(t *testing.T) {
	ix := openTestIndex(t)
	dir := t.TempDir()

	rec := testRecord(t, dir, "tagged.txt")
	require.NoError(t, ix.Upsert(rec))

	require.NoError(t, ix.AddTags(rec.ID, []string{"work", "urgent"}))
	require.NoError(t, ix.AddTags(rec.ID, []string{"Urgent", "todo"})) // dedup case-insensitive

	got, err := ix.GetByPath(rec.Path)
	require.NoError(t, err)
	assert.Equal(t, []string{"work", "urgent", "todo"}, got.UserTags)
}

func TestEmbeddings(t *testing.T) {
	ix := openTestIndex(t)
	dir := t.TempDir()

	rec := testRecord(t, dir, "vec.txt")
	require.NoError(t, ix.Upsert(rec))

	require.NoError(t, ix.UpsertEmbedding(rec.ID, "nomic-embed-text", []float32{1, 2, 3}))

	has, err := ix.HasEmbedding(rec.ID, "nomic-embed-text")
	require.NoError(t, err)
	assert.True(t, has)

	has, err = ix.HasEmbedding(rec.ID, "other-model")
	require.NoError(t, err)
	assert.False(t, has)

	// Replacing keeps one row.
	require.NoError(t, ix.UpsertEmbedding(rec.ID, "nomic-embed-text", []float32{4, 5}))
	embs, err := ix.AllEmbeddings()
	require.NoError(t, err)
	require.Len(t, embs, 1)
	assert.Equal(t, []float32{4, 5}, embs[0].Vector)
}

func TestStatistics(t *testing.T) {
	ix := openTestIndex(t)
	dir := t.TempDir()

	a := testRecord(t, dir, "a.txt")
	a.HasOCR = true
	a.OCRText = "text"
	require.NoError(t, ix.Upsert(a))
	b := testRecord(t, dir, "b.txt")
	require.NoError(t, ix.Upsert(b))

	stats, err := ix.Statistics()
	require.NoError(t, err)
	assert.Equal(t, 2, stats.TotalFiles)
	assert.Equal(t, 1, stats.FilesWithOCR)
	assert.Positive(t, stats.TotalBytes)
	assert.Equal(t, 2, stats.Categories["Documents/Text"])
}

func TestCleanupStale(t *testing.T) {
	ix := openTestIndex(t)
	dir := t.TempDir()

	keep := testRecord(t, dir, "keep.txt")
	require.NoError(t, ix.Upsert(keep))
	gone := testRecord(t, dir, "gone.txt")
	require.NoError(t, ix.Upsert(gone))
	require.NoError(t, os.Remove(gone.Path))

	stats, err := ix.CleanupStale(nil)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Checked)
	assert.Equal(t, 1, stats.Removed)

	n, err := ix.Count()
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestResyncDates(t *testing.T) {
	ix := openTestIndex(t)
	dir := t.TempDir()

	rec := testRecord(t, dir, "dates.txt")
	require.NoError(t, ix.Upsert(rec))
	missing := testRecord(t, dir, "missing.txt")
	require.NoError(t, ix.Upsert(missing))
	require.NoError(t, os.Remove(missing.Path))

	stats, err := ix.ResyncDates(nil)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Updated)
	assert.Equal(t, 1, stats.NotFound)
}

func TestRebuildFTS(t *testing.T) {
	ix := openTestIndex(t)
	dir := t.TempDir()

	rec := testRecord(t, dir, "rebuild_target.txt")
	require.NoError(t, ix.Upsert(rec))

	stats, err := ix.RebuildFTS()
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Total)
	assert.Equal(t, 1, stats.Indexed)

	// Search still works after the rebuild.
	results, err := ix.Search("rebuild", 10)
	require.NoError(t, err)
	assert.Len(t, results, 1)
}

func TestClear(t *testing.T) {
	ix := openTestIndex(t)
	dir := t.TempDir()

	rec := testRecord(t, dir, "wipe.txt")
	require.NoError(t, ix.Upsert(rec))
	require.NoError(t, ix.Clear())

	n, err := ix.Count()
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestParseTags(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, parseTags(`["a","b"]`))
	assert.Equal(t, []string{"a", "b"}, parseTags("a, b"))
	assert.Nil(t, parseTags(""))
	assert.Nil(t, parseTags("[]"))
}
