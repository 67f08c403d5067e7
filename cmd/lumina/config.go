// Config loading for the lumina CLI.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"

	"lumina/internal/classify"
	"lumina/internal/embed"
	"lumina/internal/search"
	"lumina/internal/watcher"
)

const (
	configFileName = "config"
	configFileType = "yaml"
	configFileExt  = "config.yaml"

	cfgKeyDataDir = "data_dir"

	cfgKeyAIProvider    = "ai.provider"
	cfgKeyOpenAIBaseURL = "ai.openai_base_url"
	cfgKeyOpenAIModel   = "ai.openai_model"
	cfgKeyOllamaURL     = "ai.ollama_url"
	cfgKeyOllamaModel   = "ai.ollama_model"
	cfgKeyEmbedModel    = "ai.embed_model"

	cfgKeyIndexOCR      = "index.ocr"
	cfgKeyIndexMaxFiles = "index.max_files"
	cfgKeyIndexWorkers  = "index.workers"

	cfgKeyWatchFolders = "watch.folders"
	cfgKeyWatchSettle  = "watch.settle"

	cfgKeySearchFuzzy = "search.fuzzy"

	cfgKeyCategories = "categories"

	cfgKeyUpdateURL = "update.manifest_url"

	// EnvOpenAIKey supplies the API key outside the config file.
	envOpenAIKey = "LUMINA_OPENAI_API_KEY"
)

// defaultConfigYAML is written to config.yaml on first run.
const defaultConfigYAML = `# Lumina configuration

# Data directory for the index and move logs (optional; overridable by
# --data-dir flag)
# data_dir:

ai:
  # Provider for organization planning and enrichment: openai, ollama, none
  provider: none
  # openai_base_url:
  # openai_model:
  # ollama_url: http://localhost:11434
  # ollama_model:
  # Embedding model served by Ollama; "none" disables semantic search
  embed_model: nomic-embed-text

index:
  # Run OCR on images when tesseract is installed
  ocr: false
  # Cap on files per indexing run; 0 means the scanner default
  max_files: 0
  workers: 8

search:
  # Correct close typos in queries ("yesturday" -> "yesterday")
  fuzzy: true

watch:
  # Folders organized automatically while "lumina watch" runs
  # folders:
  #   - path: ~/Downloads
  #     instruction: invoices go to billing
  #     existing_only: false
  settle: 2s

update:
  # manifest_url: https://example.com/lumina/latest.json

# Extra extension-to-category mappings, merged over the built-in ones
# categories:
#   Documents/Ebooks: [epub, mobi]
`

// loadConfig reads config.yaml from the config directory, creating the
// directory and a default file on first run. A missing config.yaml is
// not an error.
func loadConfig(configDir string) (*viper.Viper, error) {
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return nil, fmt.Errorf("ensure config dir: %w", err)
	}
	if err := ensureDefaultConfigFile(configDir); err != nil {
		return nil, fmt.Errorf("ensure default config: %w", err)
	}

	v := viper.New()
	v.SetDefault(cfgKeyAIProvider, "none")
	v.SetDefault(cfgKeyOllamaURL, "http://localhost:11434")
	v.SetDefault(cfgKeyEmbedModel, embed.DefaultModel)
	v.SetDefault(cfgKeyIndexOCR, false)
	v.SetDefault(cfgKeyIndexMaxFiles, 0)
	v.SetDefault(cfgKeyIndexWorkers, search.DefaultWorkers)
	v.SetDefault(cfgKeySearchFuzzy, true)
	v.SetDefault(cfgKeyWatchSettle, watcher.DefaultSettle)

	v.SetConfigName(configFileName)
	v.SetConfigType(configFileType)
	v.AddConfigPath(configDir)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return v, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	if overrides := v.GetStringMapStringSlice(cfgKeyCategories); len(overrides) > 0 {
		classify.Override(overrides)
	}
	return v, nil
}

func ensureDefaultConfigFile(configDir string) error {
	path := filepath.Join(configDir, configFileExt)

	_, err := os.Stat(path)
	if err == nil {
		return nil
	}
	if !os.IsNotExist(err) {
		return fmt.Errorf("stat config file: %w", err)
	}
	return os.WriteFile(path, []byte(defaultConfigYAML), 0o644)
}

// watchFolder mirrors one entry under watch.folders in config.yaml.
type watchFolder struct {
	Path         string `mapstructure:"path"`
	Instruction  string `mapstructure:"instruction"`
	ExistingOnly bool   `mapstructure:"existing_only"`
}

// watchConfig decodes the configured watch folders and settle delay.
func watchConfig(v *viper.Viper) ([]watcher.Folder, time.Duration, error) {
	var raw []watchFolder
	if err := v.UnmarshalKey(cfgKeyWatchFolders, &raw); err != nil {
		return nil, 0, fmt.Errorf("decode watch.folders: %w", err)
	}

	folders := make([]watcher.Folder, 0, len(raw))
	for _, f := range raw {
		folders = append(folders, watcher.Folder{
			Path:         expandHome(f.Path),
			Instruction:  f.Instruction,
			ExistingOnly: f.ExistingOnly,
		})
	}
	return folders, v.GetDuration(cfgKeyWatchSettle), nil
}

// expandHome resolves a leading ~ in configured paths.
func expandHome(path string) string {
	if path == "~" || len(path) > 1 && path[:2] == "~/" {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[1:])
		}
	}
	return path
}
