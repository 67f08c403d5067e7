package update

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func manifestServer(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestCheck_UpdateAvailable(t *testing.T) {
	srv := manifestServer(t, http.StatusOK, `{
		"version": "v2.0.0",
		"download_url": "https://example.com/Lumina-2.0.0-mac.dmg",
		"release_name": "Lumina 2.0",
		"release_notes": "Faster indexing.",
		"published_at": "2026-08-01",
		"is_required": true
	}`)

	info, err := NewChecker(srv.URL, nil).Check(context.Background(), "1.9.0")
	require.NoError(t, err)
	require.NotNil(t, info)
	assert.Equal(t, "1.9.0", info.CurrentVersion)
	assert.Equal(t, "2.0.0", info.LatestVersion)
	assert.Equal(t, "https://example.com/Lumina-2.0.0-mac.dmg", info.DownloadURL)
	assert.Equal(t, "Lumina 2.0", info.ReleaseName)
	assert.True(t, info.Required)
}

func TestCheck_UpToDate(t *testing.T) {
	srv := manifestServer(t, http.StatusOK, `{"version": "1.9.0"}`)

	info, err := NewChecker(srv.URL, nil).Check(context.Background(), "1.9.0")
	require.NoError(t, err)
	assert.Nil(t, info)
}

func TestCheck_OlderManifest(t *testing.T) {
	srv := manifestServer(t, http.StatusOK, `{"version": "1.0.0"}`)

	info, err := NewChecker(srv.URL, nil).Check(context.Background(), "1.9.0")
	require.NoError(t, err)
	assert.Nil(t, info)
}

func TestCheck_DefaultReleaseName(t *testing.T) {
	srv := manifestServer(t, http.StatusOK, `{"version": "2.1.0"}`)

	info, err := NewChecker(srv.URL, nil).Check(context.Background(), "1.9.0")
	require.NoError(t, err)
	require.NotNil(t, info)
	assert.Equal(t, "Version 2.1.0", info.ReleaseName)
}

func TestCheck_Errors(t *testing.T) {
	t.Run("no url", func(t *testing.T) {
		_, err := NewChecker("", nil).Check(context.Background(), "1.0.0")
		assert.Error(t, err)
	})

	t.Run("server error", func(t *testing.T) {
		srv := manifestServer(t, http.StatusInternalServerError, "")
		_, err := NewChecker(srv.URL, nil).Check(context.Background(), "1.0.0")
		assert.ErrorContains(t, err, "status 500")
	})

	t.Run("bad json", func(t *testing.T) {
		srv := manifestServer(t, http.StatusOK, "not json")
		_, err := NewChecker(srv.URL, nil).Check(context.Background(), "1.0.0")
		assert.ErrorContains(t, err, "decode")
	})

	t.Run("missing version", func(t *testing.T) {
		srv := manifestServer(t, http.StatusOK, `{"download_url": "x"}`)
		_, err := NewChecker(srv.URL, nil).Check(context.Background(), "1.0.0")
		assert.ErrorContains(t, err, "no version")
	})
}

func TestIsNewer(t *testing.T) {
	assert.True(t, IsNewer("1.9.0", "2.0.0"))
	assert.True(t, IsNewer("v1.9.0", "1.10.0"))
	assert.False(t, IsNewer("2.0.0", "2.0.0"))
	assert.False(t, IsNewer("2.0.0", "1.9.9"))
	// Non-semver input falls back to string order.
	assert.True(t, IsNewer("build-a", "build-b"))
}
