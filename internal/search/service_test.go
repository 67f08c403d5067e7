package search

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lumina/internal/embed"
	"lumina/internal/index"
)

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

type stubLLM struct {
	response string
	calls    int
}

func (s *stubLLM) Complete(context.Context, string, string) (string, error) {
	s.calls++
	return s.response, nil
}

func (s *stubLLM) Name() string { return "stub" }

// embedStub answers the Ollama tags and embeddings endpoints. Text
// containing "beach" gets one axis, everything else the other.
func embedStub(t *testing.T) *embed.Client {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/api/tags", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"models": []map[string]string{{"name": embed.DefaultModel}},
		})
	})
	mux.HandleFunc("/api/embeddings", func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		vec := []float32{0, 1}
		if strings.Contains(string(body), "beach") {
			vec = []float32{1, 0}
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"embedding": vec})
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return embed.NewClient(srv.URL, "")
}

func TestService_IndexDirectory(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "invoice.txt"), "Invoice from Acme Corp for consulting services")
	writeFile(t, filepath.Join(dir, "notes.md"), "meeting notes about the roadmap")
	writeFile(t, filepath.Join(dir, "sub", "report.txt"), "quarterly report")
	writeFile(t, filepath.Join(dir, ".hidden"), "skip me")

	ix := openTestIndex(t)
	svc := New(ix, nil, nil, Config{Workers: 2})

	var messages []string
	stats, err := svc.IndexDirectory(context.Background(), dir, false, func(done, total int, msg string) {
		messages = append(messages, msg)
	})
	require.NoError(t, err)
	assert.Equal(t, 3, stats.Total)
	assert.Equal(t, 3, stats.Indexed)
	assert.Zero(t, stats.Skipped)
	assert.Empty(t, stats.Errors)
	assert.Len(t, messages, 3)

	count, err := ix.Count()
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	// Second pass: everything unchanged.
	stats, err = svc.IndexDirectory(context.Background(), dir, false, nil)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.Skipped)
	assert.Zero(t, stats.Indexed)
}

func TestService_IndexDirectory_Empty(t *testing.T) {
	svc := New(openTestIndex(t), nil, nil, Config{})
	stats, err := svc.IndexDirectory(context.Background(), t.TempDir(), false, nil)
	require.NoError(t, err)
	assert.Zero(t, stats.Total)
}

func TestService_IndexFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "doc.txt")
	writeFile(t, path, "important document")

	svc := New(openTestIndex(t), nil, nil, Config{})

	skipped, err := svc.IndexFile(context.Background(), path, false)
	require.NoError(t, err)
	assert.False(t, skipped)

	skipped, err = svc.IndexFile(context.Background(), path, false)
	require.NoError(t, err)
	assert.True(t, skipped)

	// Force reprocesses unchanged content.
	skipped, err = svc.IndexFile(context.Background(), path, true)
	require.NoError(t, err)
	assert.False(t, skipped)

	_, err = svc.IndexFile(context.Background(), filepath.Join(dir, "missing.txt"), false)
	assert.Error(t, err)

	_, err = svc.IndexFile(context.Background(), dir, false)
	assert.Error(t, err)
}

func TestService_Enrichment(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "acme-invoice.txt")
	writeFile(t, path, "Invoice #42 from Acme Corp, total due 1200 USD")

	enricher := &stubLLM{response: `{"type": "Invoice", "tags": ["Billing", "acme"], "caption": "An invoice from Acme Corp."}`}
	ix := openTestIndex(t)
	svc := New(ix, nil, enricher, Config{})

	_, err := svc.IndexFile(context.Background(), path, false)
	require.NoError(t, err)
	assert.Equal(t, 1, enricher.calls)

	rec, err := ix.GetByPath(path)
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, "invoice", rec.Label)
	assert.Equal(t, []string{"billing", "acme"}, rec.Tags)
	assert.Equal(t, "An invoice from Acme Corp.", rec.Caption)
	assert.Equal(t, "stub", rec.AISource)

	// Unchanged file skips the model entirely.
	_, err = svc.IndexFile(context.Background(), path, false)
	require.NoError(t, err)
	assert.Equal(t, 1, enricher.calls)
}

func TestService_SemanticSearch(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "beach.txt"), "sunny beach day with friends")
	writeFile(t, filepath.Join(dir, "taxes.txt"), "annual tax declaration forms")

	ix := openTestIndex(t)
	svc := New(ix, embedStub(t), nil, Config{Workers: 1})

	_, err := svc.IndexDirectory(context.Background(), dir, false, nil)
	require.NoError(t, err)

	embs, err := ix.AllEmbeddings()
	require.NoError(t, err)
	assert.Len(t, embs, 2)

	results, err := svc.Search(context.Background(), "beach", 10)
	require.NoError(t, err)
	require.NotEmpty(t, results)
	assert.Equal(t, "beach.txt", results[0].Name)
	assert.InDelta(t, 1.0, results[0].Relevance, 1e-9)
	assert.True(t, results[0].Exists)
}

func TestService_Search_Keyword(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "quarterly-report.txt"), "revenue numbers")
	writeFile(t, filepath.Join(dir, "holiday.txt"), "packing list")

	svc := New(openTestIndex(t), nil, nil, Config{Workers: 1})
	_, err := svc.IndexDirectory(context.Background(), dir, false, nil)
	require.NoError(t, err)

	results, err := svc.Search(context.Background(), "report", 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "quarterly-report.txt", results[0].Name)
	assert.NotEmpty(t, results[0].SizeHuman)
}

func TestService_Search_ExtensionFilter(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "report.pdf"), "%PDF-1.4 fake")
	writeFile(t, filepath.Join(dir, "report.txt"), "plain report")

	svc := New(openTestIndex(t), nil, nil, Config{Workers: 1})
	_, err := svc.IndexDirectory(context.Background(), dir, false, nil)
	require.NoError(t, err)

	results, err := svc.Search(context.Background(), "report pdfs", 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "report.pdf", results[0].Name)
}

func TestService_Search_DateFilter(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "report.txt"), "contents")

	svc := New(openTestIndex(t), nil, nil, Config{Workers: 1})
	_, err := svc.IndexDirectory(context.Background(), dir, false, nil)
	require.NoError(t, err)

	// Freshly written file falls inside "today".
	results, err := svc.Search(context.Background(), "report today", 10)
	require.NoError(t, err)
	assert.Len(t, results, 1)

	// A past year excludes it.
	results, err = svc.Search(context.Background(), "report 2020", 10)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestService_Suggestions(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "report.txt"), "contents")

	svc := New(openTestIndex(t), nil, nil, Config{Workers: 1})
	_, err := svc.IndexDirectory(context.Background(), dir, false, nil)
	require.NoError(t, err)

	_, err = svc.Search(context.Background(), "report", 10)
	require.NoError(t, err)
	_, err = svc.Search(context.Background(), "holiday", 10)
	require.NoError(t, err)

	got, err := svc.Suggestions("rep", 5)
	require.NoError(t, err)
	assert.Contains(t, got, "report")
	assert.NotContains(t, got, "holiday")
}
