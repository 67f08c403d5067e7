// Package embed provides text embeddings through a local Ollama server.
// All calls degrade gracefully: when Ollama or the model is unavailable,
// callers get an error and semantic search simply stays off.
package embed

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"time"
)

// Defaults for the local Ollama setup.
const (
	DefaultURL   = "http://localhost:11434"
	DefaultModel = "nomic-embed-text"
)

// ErrUnavailable is returned when Ollama is not running or the embedding
// model is not pulled. The model is never pulled automatically; Lumina
// only uses what is already local.
var ErrUnavailable = errors.New("embedding model unavailable")

// Client talks to an Ollama server.
type Client struct {
	baseURL string
	model   string
	http    *http.Client
}

// NewClient returns a client for the given Ollama base URL and model.
// Empty arguments select the defaults.
func NewClient(baseURL, model string) *Client {
	if baseURL == "" {
		baseURL = DefaultURL
	}
	if model == "" {
		model = DefaultModel
	}
	return &Client{
		baseURL: baseURL,
		model:   model,
		http:    &http.Client{Timeout: 20 * time.Second},
	}
}

// Model returns the configured embedding model name.
func (c *Client) Model() string { return c.model }

// Alive reports whether the Ollama server responds.
func (c *Client) Alive(ctx context.Context) bool {
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

// HasModel reports whether the embedding model is already pulled locally.
func (c *Client) HasModel(ctx context.Context) bool {
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
	if resp.StatusCode != http.StatusOK {
		return false
	}

	var body struct {
		Models []struct {
			Name string `json:"name"`
		} `json:"models"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return false
	}
	for _, m := range body.Models {
		if m.Name == c.model {
			return true
		}
	}
	return false
}

// Embed returns the embedding vector for text.
func (c *Client) Embed(ctx context.Context, text string) ([]float32, error) {
	if !c.Alive(ctx) || !c.HasModel(ctx) {
		return nil, ErrUnavailable
	}

	payload, err := json.Marshal(map[string]string{
		"model": c.model,
		"input": text,
	})
	if err != nil {
		return nil, fmt.Errorf("encode embed request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/api/embeddings", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build embed request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call embed endpoint: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("embed endpoint returned %s", resp.Status)
	}

	var body struct {
		Embedding []float32 `json:"embedding"`
		Data      []struct {
			Embedding []float32 `json:"embedding"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode embed response: %w", err)
	}
	if len(body.Embedding) > 0 {
		return body.Embedding, nil
	}
	if len(body.Data) > 0 && len(body.Data[0].Embedding) > 0 {
		return body.Data[0].Embedding, nil
	}
	return nil, fmt.Errorf("embed response contained no vector")
}

// Cosine returns the cosine similarity of two vectors, or 0 when the
// dimensions differ or either vector is zero.
func Cosine(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
