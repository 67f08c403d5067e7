// Package llm provides chat-completion clients used for organization
// planning. Two providers are supported: any OpenAI-compatible endpoint
// and a local Ollama server. The model only ever proposes plans as text;
// it never touches files.
package llm

import (
	"context"
	"errors"
	"regexp"
	"strings"
)

// Client produces a completion for a system and user prompt pair.
type Client interface {
	// Complete returns the raw model output for the given prompts.
	Complete(ctx context.Context, system, user string) (string, error)
	// Name identifies the provider for logging and provenance fields.
	Name() string
}

// ErrNoProvider is returned when planning is requested with AI disabled.
var ErrNoProvider = errors.New("no AI provider configured")

// ProviderConfig selects and configures a provider.
type ProviderConfig struct {
	// Provider is "openai", "ollama", or "none".
	Provider string
	// APIKey authenticates against OpenAI-compatible endpoints.
	APIKey string
	// BaseURL overrides the provider's default endpoint.
	BaseURL string
	// Model overrides the provider's default model.
	Model string
}

// New returns the client for cfg, or ErrNoProvider when AI is off.
func New(cfg ProviderConfig) (Client, error) {
	switch cfg.Provider {
	case "openai":
		return NewOpenAIClient(cfg.BaseURL, cfg.APIKey, cfg.Model), nil
	case "ollama", "local":
		return NewOllamaClient(cfg.BaseURL, cfg.Model), nil
	case "", "none":
		return nil, ErrNoProvider
	default:
		return nil, errors.New("unknown AI provider: " + cfg.Provider)
	}
}

var jsonCodeBlock = regexp.MustCompile("(?s)```(?:json)?\\s*(\\{.*?\\})\\s*```")

// ExtractJSON pulls a JSON object out of a model response. Models often
// wrap JSON in markdown fences or surround it with prose; the parse is
// tried in order of strictness.
func ExtractJSON(content string) (string, bool) {
	content = strings.TrimSpace(content)
	if strings.HasPrefix(content, "{") && strings.HasSuffix(content, "}") {
		return content, true
	}
	if m := jsonCodeBlock.FindStringSubmatch(content); m != nil {
		return m[1], true
	}
	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start != -1 && end > start {
		return content[start : end+1], true
	}
	return "", false
}
