package serpapi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ozgurerrdem/persona-watch/internal/apperr"
	"github.com/ozgurerrdem/persona-watch/internal/domain"
	"github.com/ozgurerrdem/persona-watch/internal/httpx"
	"github.com/ozgurerrdem/persona-watch/internal/normalize"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const googleFixture = `{
  "search_metadata": {"processed_at": "2025-01-10 12:00:00 UTC"},
  "search_information": [{"title": "ignored"}],
  "organic_results": [
    {"title": "Acme wins award", "link": "https://www.acme.com/news/", "snippet": "Acme did it", "date": "3 saat önce", "source": "Acme"},
    {"title": "Acme on YouTube", "link": "https://www.youtube.com/watch?v=1"},
    {"snippet": "no title and no link"},
    "not an object"
  ],
  "related_questions": [
    {"question": "What is Acme?", "link": "https://example.com/q"}
  ]
}`

const newsFixture = `{
  "search_metadata": {"created_at": "2025-01-10 12:00:00 UTC"},
  "news_results": [
    {"title": "Acme news", "link": "https://news.example.com/a", "date": "01/09/2025, 08:00 AM, +0000 UTC", "source": {"name": "Daily"}}
  ]
}`

const videosFixture = `{
  "search_metadata": {"processed_at": "2025-01-10 12:00:00 UTC"},
  "video_results": [
    {"title": "Acme video", "link": "https://vimeo.com/1", "rich_snippet": {"top": {"detected_extensions": {"gün_önce": 2}}}},
    {"title": "Acme dated", "link": "https://vimeo.com/2", "rich_snippet": {"top": {"detected_extensions": {"eki": 3}, "extensions": ["Vimeo", "3 Eki 2024"]}}},
    {"title": "Acme undated", "link": "https://vimeo.com/3"}
  ]
}`

func newTestServer(t *testing.T, failEngine string) *httptest.Server {
	t.Helper()
	fixtures := map[string]string{
		EngineGoogle: googleFixture,
		EngineNews:   newsFixture,
		EngineVideos: videosFixture,
	}
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "/search.json", r.URL.Path)
		assert.Equal(t, `"acme"`, q.Get("q"))
		assert.Equal(t, "key", q.Get("api_key"))
		assert.Equal(t, "100", q.Get("num"))
		engine := q.Get("engine")
		if engine == failEngine {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_, _ = w.Write([]byte(fixtures[engine]))
	}))
}

func newTestAdapter(t *testing.T, srv *httptest.Server) *Adapter {
	t.Helper()
	a, err := New(Config{APIKey: "key", BaseURL: srv.URL}, httpx.New(httpx.Config{Retry: httpx.RetryConfig{MaxAttempts: 1}}))
	require.NoError(t, err)
	a.now = func() time.Time { return time.Date(2025, 1, 10, 12, 30, 0, 0, time.UTC) }
	return a
}

func byTitle(records []domain.ContentRecord) map[string]domain.ContentRecord {
	out := make(map[string]domain.ContentRecord, len(records))
	for _, r := range records {
		out[r.Title] = r
	}
	return out
}

func TestAdapter_Scan(t *testing.T) {
	// Arrange
	srv := newTestServer(t, "")
	defer srv.Close()
	a := newTestAdapter(t, srv)

	// Act
	records, err := a.Scan(context.Background(), "acme")

	// Assert
	require.NoError(t, err)
	got := byTitle(records)
	require.Len(t, got, 6)

	organic := got["Acme wins award"]
	assert.Equal(t, "organic_results", organic.Platform)
	assert.Equal(t, "Acme", organic.Publisher)
	assert.Equal(t, "Acme did it", organic.Body)
	assert.Equal(t, time.Date(2025, 1, 10, 9, 0, 0, 0, time.UTC), organic.PublishedAt)
	assert.Equal(t, normalize.Fingerprint("Acme wins award", "https://acme.com/news"), organic.Fingerprint)
	assert.Equal(t, Name, organic.Source)
	assert.Equal(t, "acme", organic.SearchKeyword)

	assert.Contains(t, got, "What is Acme?")

	news := got["Acme news"]
	assert.Equal(t, "Daily", news.Publisher)
	assert.Equal(t, time.Date(2025, 1, 9, 8, 0, 0, 0, time.UTC), news.PublishedAt)

	assert.Equal(t, time.Date(2025, 1, 8, 12, 0, 0, 0, time.UTC), got["Acme video"].PublishedAt)
	assert.Equal(t, time.Date(2024, 10, 3, 0, 0, 0, 0, time.UTC), got["Acme dated"].PublishedAt)
	assert.Equal(t, time.Date(2025, 1, 10, 12, 30, 0, 0, time.UTC), got["Acme undated"].PublishedAt)

	assert.NotContains(t, got, "Acme on YouTube")
}

func TestAdapter_Scan_EngineFailureKeepsOthers(t *testing.T) {
	srv := newTestServer(t, EngineNews)
	defer srv.Close()
	a := newTestAdapter(t, srv)

	records, err := a.Scan(context.Background(), "acme")

	require.Error(t, err)
	assert.Contains(t, err.Error(), EngineNews)
	assert.Len(t, records, 5)
}

func TestNew_RequiresAPIKey(t *testing.T) {
	_, err := New(Config{}, nil)

	var cfgErr *apperr.ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "SERPAPI_API_KEY", cfgErr.Key)
}
