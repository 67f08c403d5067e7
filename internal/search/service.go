package search

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"lumina/internal/classify"
	"lumina/internal/embed"
	"lumina/internal/extract"
	"lumina/internal/index"
	"lumina/internal/llm"
	"lumina/internal/logging"
	"lumina/internal/scan"
)

// Config tunes the indexing pipeline and search behavior.
type Config struct {
	Workers    int    // concurrent files during indexing
	MaxFiles   int    // scan cap, 0 for the scan default
	OCR        bool   // run OCR on images when tesseract is available
	Fuzzy      bool   // correct query typos against known keywords
	EmbedModel string // embedding model name recorded with vectors
}

// DefaultWorkers bounds the indexing pool when Config.Workers is unset.
const DefaultWorkers = 8

// embedBlobLimit caps the text embedded per file.
const embedBlobLimit = 5000

// Service ties the index, the embedder, and the language model into the
// search and indexing operations the CLI exposes. Embedder and enricher
// are optional; without them indexing still records metadata and text.
type Service struct {
	idx      *index.Index
	embedder *embed.Client
	enricher llm.Client
	cfg      Config
}

// New builds a Service. embedder and enricher may be nil.
func New(idx *index.Index, embedder *embed.Client, enricher llm.Client, cfg Config) *Service {
	if cfg.Workers <= 0 {
		cfg.Workers = DefaultWorkers
	}
	if cfg.EmbedModel == "" {
		cfg.EmbedModel = "ollama:" + embed.DefaultModel
	}
	return &Service{idx: idx, embedder: embedder, enricher: enricher, cfg: cfg}
}

// Index exposes the underlying index for operations the service does not
// wrap (statistics, maintenance).
func (s *Service) Index() *index.Index { return s.idx }

// IndexStats summarizes one IndexDirectory run.
type IndexStats struct {
	Total   int
	Indexed int
	Skipped int
	WithOCR int
	Errors  []string
}

// ProgressFunc receives per-file progress during indexing.
type ProgressFunc func(done, total int, message string)

// IndexDirectory scans dir and indexes every eligible file through a
// bounded worker pool. Files whose content hash is unchanged skip the
// expensive extraction and enrichment steps unless force is set. Cancel
// via ctx.
func (s *Service) IndexDirectory(ctx context.Context, dir string, force bool, progress ProgressFunc) (*IndexStats, error) {
	files, err := scan.Directory(ctx, dir, scan.Options{MaxFiles: s.cfg.MaxFiles, DetectMIME: true})
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", dir, err)
	}

	stats := &IndexStats{Total: len(files)}
	if len(files) == 0 {
		return stats, nil
	}

	logging.Info(ctx, "indexing directory",
		zap.String("dir", dir),
		zap.Int("files", len(files)),
		zap.Int("workers", s.cfg.Workers))

	// Progress calls are serialized under the same mutex as the counters.
	var mu sync.Mutex
	done := 0
	report := func(msg string) {
		mu.Lock()
		defer mu.Unlock()
		done++
		if progress != nil {
			progress(done, len(files), msg)
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.Workers)

	for _, f := range files {
		f := f
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			outcome, err := s.indexOne(gctx, f, force)
			mu.Lock()
			switch {
			case err != nil:
				stats.Errors = append(stats.Errors, fmt.Sprintf("%s: %v", f.Name, err))
			case outcome.skipped:
				stats.Skipped++
			default:
				stats.Indexed++
				if outcome.hasOCR {
					stats.WithOCR++
				}
			}
			mu.Unlock()

			switch {
			case err != nil:
				report("Error: " + f.Name)
			case outcome.skipped:
				report("Skipped (unchanged): " + f.Name)
			default:
				report("Indexed: " + f.Name)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		logging.Info(ctx, "indexing cancelled",
			zap.Int("indexed", stats.Indexed), zap.Int("skipped", stats.Skipped))
		return stats, err
	}

	logging.Info(ctx, "indexing finished",
		zap.Int("indexed", stats.Indexed),
		zap.Int("skipped", stats.Skipped),
		zap.Int("with_ocr", stats.WithOCR),
		zap.Int("errors", len(stats.Errors)))
	return stats, nil
}

// IndexFile indexes a single file. force reruns extraction and enrichment
// even when the content hash is unchanged.
func (s *Service) IndexFile(ctx context.Context, path string, force bool) (skipped bool, err error) {
	info, err := os.Stat(path)
	if err != nil {
		return false, fmt.Errorf("stat %s: %w", path, err)
	}
	if info.IsDir() {
		return false, fmt.Errorf("%s is a directory", path)
	}

	f := scan.File{
		Path:      path,
		Name:      filepath.Base(path),
		Extension: strings.ToLower(filepath.Ext(path)),
		Size:      info.Size(),
	}
	f.MIMEType = classify.DetectMIME(path)
	outcome, err := s.indexOne(ctx, f, force)
	if err != nil {
		return false, err
	}
	return outcome.skipped, nil
}

type indexOutcome struct {
	skipped bool
	hasOCR  bool
}

func (s *Service) indexOne(ctx context.Context, f scan.File, force bool) (indexOutcome, error) {
	hash, err := hashFile(f.Path)
	if err != nil {
		return indexOutcome{}, fmt.Errorf("hash: %w", err)
	}

	existing, err := s.idx.GetByPath(f.Path)
	if err != nil {
		return indexOutcome{}, err
	}
	if !force && existing != nil && existing.ContentHash == hash && hash != "" {
		// Unchanged content; make sure an embedding exists and move on.
		if s.embedder != nil {
			if ok, _ := s.idx.HasEmbedding(existing.ID, s.cfg.EmbedModel); !ok {
				s.storeEmbedding(ctx, existing)
			}
		}
		return indexOutcome{skipped: true}, nil
	}

	rec := &index.FileRecord{
		Path:        f.Path,
		Name:        f.Name,
		Extension:   f.Extension,
		Size:        f.Size,
		MIMEType:    f.MIMEType,
		Category:    classify.Categorize(f.Path),
		ContentHash: hash,
	}

	snippet := s.extractContent(ctx, rec)
	if s.enricher != nil && snippet != "" {
		s.enrich(ctx, rec, snippet)
	}

	if err := s.idx.Upsert(rec); err != nil {
		return indexOutcome{}, err
	}
	if s.embedder != nil {
		s.storeEmbedding(ctx, rec)
	}
	return indexOutcome{hasOCR: rec.HasOCR}, nil
}

// extractContent pulls searchable text out of the file: OCR for images
// when enabled, pdftotext for PDFs, and plain or structured text for the
// rest. OCR-ish text lands on the record; the return value feeds the
// enricher.
func (s *Service) extractContent(ctx context.Context, rec *index.FileRecord) string {
	if s.cfg.OCR && extract.OCRSupported(rec.Path) {
		if text := extract.OCRText(rec.Path); text != "" {
			rec.OCRText = truncate(text, embedBlobLimit)
			rec.HasOCR = true
			return text
		}
		logging.Debug(ctx, "ocr produced no text", zap.String("file", rec.Name))
	}

	text := extract.FileText(rec.Path)
	if text == "" {
		return ""
	}
	switch rec.Extension {
	case ".pdf", ".csv", ".xlsx", ".xls":
		rec.OCRText = truncate(text, embedBlobLimit)
		rec.HasOCR = true
	}
	return text
}

const enrichSystemPrompt = `You are a file classification assistant. Given file content, return STRICT JSON:
{
  "type": "<one lowercase word: document, invoice, receipt, report, letter, contract, code, data, notes, screenshot, other>",
  "tags": [10-25 short lowercase tags capturing topic, entities, document kind, and purpose],
  "caption": "<= 400 chars, 1-2 sentences summarizing the content"
}
JSON only. No markdown. No explanation.`

// enrich asks the language model for a label, tags, and a caption based
// on extracted content. Failures are logged and ignored; enrichment is
// best effort.
func (s *Service) enrich(ctx context.Context, rec *index.FileRecord, snippet string) {
	user := fmt.Sprintf("Filename: %s\nContent snippet:\n%s", rec.Name, truncate(snippet, embedBlobLimit))
	content, err := s.enricher.Complete(ctx, enrichSystemPrompt, user)
	if err != nil {
		logging.Debug(ctx, "enrichment failed", zap.String("file", rec.Name), zap.Error(err))
		return
	}

	raw, ok := llm.ExtractJSON(content)
	if !ok {
		return
	}
	var parsed struct {
		Type    string   `json:"type"`
		Tags    []string `json:"tags"`
		Caption string   `json:"caption"`
	}
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		return
	}

	rec.Label = strings.ToLower(strings.TrimSpace(parsed.Type))
	if len(parsed.Tags) > 25 {
		parsed.Tags = parsed.Tags[:25]
	}
	rec.Tags = rec.Tags[:0]
	for _, t := range parsed.Tags {
		rec.Tags = append(rec.Tags, truncate(strings.ToLower(t), 64))
	}
	rec.Caption = truncate(strings.TrimSpace(parsed.Caption), 400)
	rec.AISource = s.enricher.Name()
}

// storeEmbedding embeds the searchable text blob for a record. Best
// effort: an unreachable embedder only logs.
func (s *Service) storeEmbedding(ctx context.Context, rec *index.FileRecord) {
	blob := embedBlob(rec)
	if blob == "" || rec.ID == 0 {
		return
	}
	vec, err := s.embedder.Embed(ctx, blob)
	if err != nil {
		logging.Debug(ctx, "embedding failed", zap.String("file", rec.Name), zap.Error(err))
		return
	}
	if err := s.idx.UpsertEmbedding(rec.ID, s.cfg.EmbedModel, vec); err != nil {
		logging.Warn(ctx, "embedding not stored", zap.String("file", rec.Name), zap.Error(err))
	}
}

func embedBlob(rec *index.FileRecord) string {
	parts := []string{rec.Name, rec.Label, strings.Join(rec.Tags, " "), rec.Caption, rec.OCRText}
	var kept []string
	for _, p := range parts {
		if p != "" {
			kept = append(kept, p)
		}
	}
	return truncate(strings.Join(kept, " "), embedBlobLimit)
}

func hashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

func truncate(s string, n int) string {
	if len(s) > n {
		return s[:n]
	}
	return s
}

// Result is a search hit enhanced for display.
type Result struct {
	index.FileRecord
	Rank       float64
	Exists     bool
	SizeHuman  string
	OCRPreview string
	Relevance  float64
}

// Search parses the query, runs keyword and semantic searches, merges
// them by best rank, and applies extension and date filters.
func (s *Service) Search(ctx context.Context, query string, limit int) ([]Result, error) {
	if limit <= 0 {
		limit = 50
	}
	parsed := ParseQuery(query, s.cfg.Fuzzy)
	if len(parsed.Corrections) > 0 {
		logging.Debug(ctx, "query corrections", zap.Strings("applied", parsed.Corrections))
	}

	// Filters thin the keyword results after merging, so fetch extra.
	fetchLimit := limit
	switch {
	case parsed.DateOnly():
		fetchLimit = 500
	case parsed.HasDate() || len(parsed.Extensions) > 0:
		fetchLimit = limit * 3
	}

	keyword, err := s.idx.SearchAdvanced(parsed.Terms, parsed.Filters, fetchLimit)
	if err != nil {
		return nil, err
	}

	var semantic []index.Result
	if !parsed.DateOnly() && s.embedder != nil {
		semantic = s.semanticSearch(ctx, parsed, limit)
	}

	merged := mergeByRank(keyword, semantic)

	if len(parsed.Extensions) > 0 {
		merged = filterExtensions(merged, parsed.Extensions)
	}
	if parsed.HasDate() {
		merged = filterDates(merged, parsed.DateStart, parsed.DateEnd)
	}
	if len(merged) > limit {
		merged = merged[:limit]
	}

	out := make([]Result, len(merged))
	for i, r := range merged {
		out[i] = enhance(r)
	}
	logging.Info(ctx, "search completed",
		zap.String("query", query), zap.Int("results", len(out)))
	return out, nil
}

// semanticSearch embeds the query and scores it against every stored
// vector. Errors degrade to an empty contribution.
func (s *Service) semanticSearch(ctx context.Context, parsed Parsed, limit int) []index.Result {
	qtext := strings.Join(parsed.Terms, " ")
	if parsed.Filters.Label != "" {
		qtext += " " + parsed.Filters.Label
	}
	if len(parsed.Filters.Tags) > 0 {
		qtext += " " + strings.Join(parsed.Filters.Tags, " ")
	}
	qtext = strings.TrimSpace(qtext)
	if qtext == "" {
		return nil
	}

	qvec, err := s.embedder.Embed(ctx, qtext)
	if err != nil {
		logging.Debug(ctx, "semantic search unavailable", zap.Error(err))
		return nil
	}
	embs, err := s.idx.AllEmbeddings()
	if err != nil || len(embs) == 0 {
		return nil
	}

	type scored struct {
		id  int64
		cos float64
	}
	hits := make([]scored, 0, len(embs))
	for _, e := range embs {
		if cos := embed.Cosine(qvec, e.Vector); cos > 0 {
			hits = append(hits, scored{id: e.FileID, cos: cos})
		}
	}
	sort.Slice(hits, func(i, j int) bool { return hits[i].cos > hits[j].cos })
	if len(hits) > limit {
		hits = hits[:limit]
	}

	ids := make([]int64, len(hits))
	rankByID := make(map[int64]float64, len(hits))
	for i, h := range hits {
		ids[i] = h.id
		rankByID[h.id] = h.cos * 10
	}

	recs, err := s.idx.GetByIDs(ids)
	if err != nil {
		return nil
	}
	results := make([]index.Result, len(recs))
	for i, rec := range recs {
		results[i] = index.Result{FileRecord: rec, Rank: rankByID[rec.ID]}
	}
	return results
}

// mergeByRank unions keyword and semantic hits, keeping the best rank
// per file, sorted best first.
func mergeByRank(keyword, semantic []index.Result) []index.Result {
	byID := make(map[int64]index.Result, len(keyword)+len(semantic))
	for _, r := range append(append([]index.Result{}, keyword...), semantic...) {
		if prev, ok := byID[r.ID]; !ok || r.Rank > prev.Rank {
			byID[r.ID] = r
		}
	}

	merged := make([]index.Result, 0, len(byID))
	for _, r := range byID {
		merged = append(merged, r)
	}
	sort.Slice(merged, func(i, j int) bool { return merged[i].Rank > merged[j].Rank })
	return merged
}

func filterExtensions(results []index.Result, extensions []string) []index.Result {
	allowed := make(map[string]struct{}, len(extensions))
	for _, ext := range extensions {
		allowed[ext] = struct{}{}
	}

	var kept []index.Result
	for _, r := range results {
		ext := strings.ToLower(filepath.Ext(r.Path))
		if _, ok := allowed[ext]; ok {
			kept = append(kept, r)
		}
	}
	return kept
}

// filterDates keeps results whose best-known date falls in the range.
// The original date (EXIF, document metadata) wins over the modified
// date, which wins over the created date. Files with no date pass.
func filterDates(results []index.Result, start, end time.Time) []index.Result {
	var kept []index.Result
	for _, r := range results {
		d := r.OriginalDate
		if d.IsZero() {
			d = r.ModifiedDate
		}
		if d.IsZero() {
			d = r.CreatedDate
		}
		if d.IsZero() {
			kept = append(kept, r)
			continue
		}
		if !start.IsZero() && d.Before(start) {
			continue
		}
		if !end.IsZero() && d.After(end) {
			continue
		}
		kept = append(kept, r)
	}
	return kept
}

func enhance(r index.Result) Result {
	out := Result{FileRecord: r.FileRecord, Rank: r.Rank}
	_, err := os.Stat(r.Path)
	out.Exists = err == nil
	out.SizeHuman = FormatSize(r.Size)
	if r.OCRText != "" {
		out.OCRPreview = truncate(r.OCRText, 200)
		if len(r.OCRText) > 200 {
			out.OCRPreview += "..."
		}
	}
	if r.Rank > 0 {
		out.Relevance = r.Rank / 10
		if out.Relevance > 1 {
			out.Relevance = 1
		}
	}
	return out
}

// FormatSize renders a byte count for humans.
func FormatSize(size int64) string {
	if size == 0 {
		return "0 B"
	}
	units := []string{"B", "KB", "MB", "GB", "TB"}
	value := float64(size)
	i := 0
	for value >= 1024 && i < len(units)-1 {
		value /= 1024
		i++
	}
	if i == 0 {
		return fmt.Sprintf("%d B", size)
	}
	return fmt.Sprintf("%.1f %s", value, units[i])
}

// Suggestions returns past queries containing the given prefix text,
// newest first, deduplicated.
func (s *Service) Suggestions(partial string, limit int) ([]string, error) {
	history, err := s.idx.SearchHistory(50)
	if err != nil {
		return nil, err
	}

	lower := strings.ToLower(partial)
	seen := make(map[string]struct{})
	var out []string
	for _, h := range history {
		if !strings.Contains(strings.ToLower(h.Query), lower) {
			continue
		}
		if _, dup := seen[h.Query]; dup {
			continue
		}
		seen[h.Query] = struct{}{}
		out = append(out, h.Query)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}
