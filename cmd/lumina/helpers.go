// Shared helpers for lumina CLI commands.
package main

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"lumina/internal/embed"
	"lumina/internal/index"
	"lumina/internal/llm"
	"lumina/internal/search"
)

// movesDir is where move logs land, under the data directory.
func movesDir() string {
	return filepath.Join(dataDir, "moves")
}

// newService assembles the search service from the loaded config: the
// index, an optional Ollama embedder, and an optional enrichment model.
func newService() *search.Service {
	var (
		embedder   *embed.Client
		embedModel string
	)
	if model := cfg.GetString(cfgKeyEmbedModel); model != "" && model != "none" {
		embedder = embed.NewClient(cfg.GetString(cfgKeyOllamaURL), model)
		embedModel = "ollama:" + model
	}

	enricher, err := newPlannerClient()
	if err != nil && !errors.Is(err, llm.ErrNoProvider) {
		fmt.Fprintln(os.Stderr, "Warning:", err)
	}

	return search.New(idx, embedder, enricher, search.Config{
		Workers:    cfg.GetInt(cfgKeyIndexWorkers),
		MaxFiles:   cfg.GetInt(cfgKeyIndexMaxFiles),
		OCR:        cfg.GetBool(cfgKeyIndexOCR),
		Fuzzy:      cfg.GetBool(cfgKeySearchFuzzy),
		EmbedModel: embedModel,
	})
}

// newPlannerClient builds the configured completion client, or
// llm.ErrNoProvider when AI is off.
func newPlannerClient() (llm.Client, error) {
	provider := cfg.GetString(cfgKeyAIProvider)
	pc := llm.ProviderConfig{Provider: provider, APIKey: os.Getenv(envOpenAIKey)}
	switch provider {
	case "openai":
		pc.BaseURL = cfg.GetString(cfgKeyOpenAIBaseURL)
		pc.Model = cfg.GetString(cfgKeyOpenAIModel)
	case "ollama", "local":
		pc.BaseURL = cfg.GetString(cfgKeyOllamaURL)
		pc.Model = cfg.GetString(cfgKeyOllamaModel)
	}
	return llm.New(pc)
}

// findRecord resolves a file argument against the index: exact path
// first, then bare name.
func findRecord(arg string) (*index.FileRecord, error) {
	if abs, err := filepath.Abs(arg); err == nil {
		rec, err := idx.GetByPath(abs)
		if err != nil {
			return nil, err
		}
		if rec != nil {
			return rec, nil
		}
	}

	rec, err := idx.GetByName(filepath.Base(arg))
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, fmt.Errorf("not in the index: %s", arg)
	}
	return rec, nil
}

// printJSON writes v as indented JSON to stdout.
func printJSON(v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal output: %w", err)
	}
	fmt.Println(string(out))
	return nil
}

// confirm prompts for a yes/no answer on stdin.
func confirm(prompt string) bool {
	fmt.Printf("%s [y/N]: ", prompt)
	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes"
}
