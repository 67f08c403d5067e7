package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Local Ollama defaults. The default model handles both text and vision.
const (
	DefaultOllamaBaseURL = "http://localhost:11434"
	DefaultOllamaModel   = "qwen2.5vl:3b"
)

// OllamaClient talks to a local Ollama server through /api/generate.
type OllamaClient struct {
	baseURL string
	model   string
	http    *http.Client
}

// NewOllamaClient returns a client for a local Ollama server.
// Empty baseURL and model select the defaults.
func NewOllamaClient(baseURL, model string) *OllamaClient {
	if baseURL == "" {
		baseURL = DefaultOllamaBaseURL
	}
	if model == "" {
		model = DefaultOllamaModel
	}
	return &OllamaClient{
		baseURL: baseURL,
		model:   model,
		// Local models can be slow on first load.
		http: &http.Client{Timeout: 180 * time.Second},
	}
}

// Name implements Client.
func (c *OllamaClient) Name() string { return "ollama" }

// Alive reports whether the Ollama server responds.
func (c *OllamaClient) Alive(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/tags", nil)
	if err != nil {
		return false
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

// Complete implements Client. Ollama's generate endpoint takes a single
// prompt, so the system prompt is prepended to the user message.
func (c *OllamaClient) Complete(ctx context.Context, system, user string) (string, error) {
	if !c.Alive(ctx) {
		return "", fmt.Errorf("ollama server not running at %s", c.baseURL)
	}

	payload, err := json.Marshal(map[string]any{
		"model":       c.model,
		"prompt":      system + "\n\n" + user,
		"stream":      false,
		"temperature": 0.1,
	})
	if err != nil {
		return "", fmt.Errorf("encode generate request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/api/generate", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("build generate request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("call generate endpoint: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("generate endpoint returned %s", resp.Status)
	}

	var body struct {
		Response string `json:"response"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("decode generate response: %w", err)
	}
	if body.Response == "" {
		return "", fmt.Errorf("generate response was empty")
	}
	return body.Response, nil
}
