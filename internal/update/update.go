// Package update checks a hosted JSON manifest for newer releases.
package update

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/mod/semver"

	"lumina/internal/logging"
)

// DefaultTimeout bounds the manifest fetch.
const DefaultTimeout = 10 * time.Second

// Manifest is the hosted release descriptor.
type Manifest struct {
	Version      string `json:"version"`
	DownloadURL  string `json:"download_url"`
	ReleaseName  string `json:"release_name"`
	ReleaseNotes string `json:"release_notes"`
	PublishedAt  string `json:"published_at"`
	Required     bool   `json:"is_required"`
}

// Info describes an available update.
type Info struct {
	CurrentVersion string
	LatestVersion  string
	DownloadURL    string
	ReleaseName    string
	ReleaseNotes   string
	PublishedAt    string
	Required       bool
}

// Checker fetches and evaluates the release manifest.
type Checker struct {
	url    string
	client *http.Client
}

// NewChecker builds a Checker for the given manifest URL. A nil client
// gets a default with DefaultTimeout.
func NewChecker(url string, client *http.Client) *Checker {
	if client == nil {
		client = &http.Client{Timeout: DefaultTimeout}
	}
	return &Checker{url: url, client: client}
}

// Check fetches the manifest and returns update info when the hosted
// version is newer than current. A nil Info with nil error means the
// running version is up to date.
func (c *Checker) Check(ctx context.Context, current string) (*Info, error) {
	if c.url == "" {
		return nil, fmt.Errorf("no update URL configured")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, fmt.Errorf("build update request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch update manifest: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("update manifest returned status %d", resp.StatusCode)
	}

	var m Manifest
	if err := json.NewDecoder(resp.Body).Decode(&m); err != nil {
		return nil, fmt.Errorf("decode update manifest: %w", err)
	}
	if strings.TrimSpace(m.Version) == "" {
		return nil, fmt.Errorf("update manifest has no version")
	}

	latest := strings.TrimPrefix(m.Version, "v")
	if !IsNewer(current, latest) {
		logging.Debug(ctx, "up to date", zap.String("version", current))
		return nil, nil
	}

	logging.Info(ctx, "update available",
		zap.String("current", current), zap.String("latest", latest))

	name := m.ReleaseName
	if name == "" {
		name = "Version " + latest
	}
	return &Info{
		CurrentVersion: current,
		LatestVersion:  latest,
		DownloadURL:    m.DownloadURL,
		ReleaseName:    name,
		ReleaseNotes:   m.ReleaseNotes,
		PublishedAt:    m.PublishedAt,
		Required:       m.Required,
	}, nil
}

// IsNewer reports whether latest is a higher version than current.
// Versions compare semantically when both parse; otherwise it falls back
// to a plain string comparison.
func IsNewer(current, latest string) bool {
	cur := canonical(current)
	lat := canonical(latest)
	if semver.IsValid(cur) && semver.IsValid(lat) {
		return semver.Compare(lat, cur) > 0
	}
	return strings.TrimPrefix(latest, "v") > strings.TrimPrefix(current, "v")
}

func canonical(v string) string {
	return "v" + strings.TrimPrefix(strings.TrimSpace(v), "v")
}
