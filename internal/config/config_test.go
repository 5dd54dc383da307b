package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ozgurerrdem/persona-watch/internal/apperr"
	"github.com/ozgurerrdem/persona-watch/internal/browser"
	"github.com/ozgurerrdem/persona-watch/internal/httpx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCatalog(t *testing.T) {
	t.Run("valid catalog", func(t *testing.T) {
		yaml := `
polling:
  interval: 1s
  max_attempts: 5
adapters:
  serpapi:
    enabled: true
    engines: [google, google_news]
  x:
    enabled: true
    limit: 25
`
		c, err := ParseCatalog([]byte(yaml))
		require.NoError(t, err)
		assert.Equal(t, time.Second, c.Polling.Interval)
		assert.Equal(t, 5, c.Polling.MaxAttempts)
		assert.Equal(t, []string{"google", "google_news"}, c.Adapters.SerpAPI.Engines)
		assert.True(t, c.Adapters.X.Enabled)
		assert.Equal(t, 25, c.Adapters.X.Limit)
		assert.False(t, c.Adapters.TikTok.Enabled)
	})

	t.Run("empty document", func(t *testing.T) {
		c, err := ParseCatalog(nil)
		require.NoError(t, err)
		assert.False(t, c.Adapters.SerpAPI.Enabled)
	})

	t.Run("unknown key", func(t *testing.T) {
		_, err := ParseCatalog([]byte("adapters:\n  serpapi:\n    enabeld: true\n"))
		assert.Error(t, err)
	})

	t.Run("unknown engine", func(t *testing.T) {
		_, err := ParseCatalog([]byte("adapters:\n  serpapi:\n    engines: [bing]\n"))
		assert.ErrorContains(t, err, "unknown engine")
	})

	t.Run("relative base url", func(t *testing.T) {
		_, err := ParseCatalog([]byte("adapters:\n  filmot:\n    base_url: filmot.com\n"))
		assert.ErrorContains(t, err, "not an absolute URL")
	})

	t.Run("negative polling", func(t *testing.T) {
		_, err := ParseCatalog([]byte("polling:\n  max_attempts: -1\n"))
		assert.ErrorContains(t, err, "polling.max_attempts")
	})
}

func TestLoadCatalog_ShippedFile(t *testing.T) {
	path := filepath.Join("..", "..", "configs", "adapters.yaml")
	if _, err := os.Stat(path); err != nil {
		t.Skip("configs/adapters.yaml not found")
	}

	c, err := LoadCatalog(path)

	require.NoError(t, err)
	assert.Equal(t, 30, c.Polling.MaxAttempts)
	assert.Equal(t, "nfp1fpt5gUlBwPcor", c.Adapters.X.ActorID)
}

func TestLoadSecrets(t *testing.T) {
	t.Setenv("SERPAPI_API_KEY", " key ")
	t.Setenv("SCAN_TIMEOUT", "2m")

	s, err := LoadSecrets()

	require.NoError(t, err)
	assert.Equal(t, "key", s.SerpAPIKey)
	assert.Equal(t, 2*time.Minute, s.ScanTimeout)

	t.Setenv("SCAN_TIMEOUT", "soon")
	_, err = LoadSecrets()
	assert.Error(t, err)
}

func testDeps() Deps {
	return Deps{HTTP: httpx.NewDefault(), Renderer: browser.NewStatic(nil)}
}

func TestBuildRegistry(t *testing.T) {
	t.Run("all adapters with credentials", func(t *testing.T) {
		s := &Secrets{SerpAPIKey: "s", YouTubeAPIKey: "y", ApifyToken: "a"}

		registry, err := BuildRegistry(DefaultCatalog(), s, testDeps())

		require.NoError(t, err)
		assert.Equal(t, []string{
			"serpapi", "youtube", "filmot", "eksi", "sikayetvar",
			"x", "instagram", "facebook", "tiktok",
		}, registry.Names())
	})

	t.Run("missing apify token", func(t *testing.T) {
		s := &Secrets{SerpAPIKey: "s", YouTubeAPIKey: "y"}

		_, err := BuildRegistry(DefaultCatalog(), s, testDeps())

		var ce *apperr.ConfigurationError
		require.True(t, errors.As(err, &ce))
		assert.Equal(t, "APIFY_API_TOKEN", ce.Key)
	})

	t.Run("disabled adapters need no credentials", func(t *testing.T) {
		c := &Catalog{Adapters: AdaptersConfig{Filmot: ScrapeConfig{Enabled: true}}}

		registry, err := BuildRegistry(c, &Secrets{}, testDeps())

		require.NoError(t, err)
		assert.Equal(t, []string{"filmot"}, registry.Names())
	})
}
