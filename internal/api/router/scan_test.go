package router

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/ozgurerrdem/persona-watch/internal/apperr"
	"github.com/ozgurerrdem/persona-watch/internal/domain"
	"github.com/ozgurerrdem/persona-watch/internal/scan"
	"github.com/ozgurerrdem/persona-watch/internal/source"
	"github.com/ozgurerrdem/persona-watch/internal/storage/in_mem"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubAdapter struct {
	name string
	err  error
}

func (s stubAdapter) Name() string     { return s.name }
func (s stubAdapter) Platform() string { return "Stub" }
func (s stubAdapter) Scan(_ context.Context, keyword string) ([]domain.ContentRecord, error) {
	if s.err != nil {
		return nil, s.err
	}
	r := domain.ContentRecord{
		Title:       "hit for " + keyword,
		URL:         "https://stub.example/" + s.name,
		PublishedAt: time.Date(2025, 1, 10, 12, 0, 0, 0, time.UTC),
	}
	return []domain.ContentRecord{source.Stamp(s, keyword, r, r.Title)}, nil
}

func newTestEcho(t *testing.T) *echo.Echo {
	t.Helper()
	registry, err := source.NewRegistry(stubAdapter{name: "ok"}, stubAdapter{name: "broken", err: errors.New("quota exceeded")})
	require.NoError(t, err)
	store := in_mem.NewInMemStorer()

	e := echo.New()
	e.HTTPErrorHandler = apperr.GlobalErrorHandler()
	NewScanRouter(e, scan.NewOrchestrator(registry, store), WithLister(store)).Bind()
	return e
}

func do(e *echo.Echo, method, target, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestScanRouter_Scan(t *testing.T) {
	t.Run("returns records and per-adapter errors", func(t *testing.T) {
		// Arrange
		e := newTestEcho(t)

		// Act
		rec := do(e, http.MethodPost, "/scan", `{"searchKeyword":"acme"}`)

		// Assert
		require.Equal(t, http.StatusOK, rec.Code)
		var outcome domain.ScanOutcome
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &outcome))
		assert.Equal(t, domain.ScanCompletedWithErrors, outcome.State)
		require.Len(t, outcome.NewRecords, 1)
		assert.Equal(t, "ok", outcome.NewRecords[0].Source)
		assert.Equal(t, "quota exceeded", outcome.Errors["broken"])
	})

	t.Run("empty keyword is a bad request", func(t *testing.T) {
		e := newTestEcho(t)

		rec := do(e, http.MethodPost, "/scan", `{"searchKeyword":" "}`)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "validation error")
	})

	t.Run("unknown adapter is a bad request", func(t *testing.T) {
		e := newTestEcho(t)

		rec := do(e, http.MethodPost, "/scan", `{"searchKeyword":"acme","adapters":["ok","typo"]}`)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "typo")
	})

	t.Run("malformed body", func(t *testing.T) {
		e := newTestEcho(t)

		rec := do(e, http.MethodPost, "/scan", `{"searchKeyword":`)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestScanRouter_Adapters(t *testing.T) {
	e := newTestEcho(t)

	rec := do(e, http.MethodGet, "/scan/adapters", "")

	require.Equal(t, http.StatusOK, rec.Code)
	var got []AdapterInfo
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, []AdapterInfo{{Name: "ok", Platform: "Stub"}, {Name: "broken", Platform: "Stub"}}, got)
}

func TestScanRouter_Contents(t *testing.T) {
	// Arrange
	e := newTestEcho(t)
	require.Equal(t, http.StatusOK, do(e, http.MethodPost, "/scan", `{"searchKeyword":"acme","adapters":["ok"]}`).Code)

	t.Run("lists stored records", func(t *testing.T) {
		rec := do(e, http.MethodGet, "/contents?keyword=acme", "")

		require.Equal(t, http.StatusOK, rec.Code)
		var got []domain.ContentRecord
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
		assert.Len(t, got, 1)
	})

	t.Run("rejects bad limit", func(t *testing.T) {
		rec := do(e, http.MethodGet, "/contents?limit=zero", "")

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("filters by date range", func(t *testing.T) {
		tests := []struct {
			query string
			want  int
		}{
			{"dateFrom=2025-01-10&dateTo=2025-01-10", 1},
			{"dateFrom=2025-01-10T23:00:00Z", 1},
			{"dateTo=2025-01-09", 0},
			{"dateFrom=2025-01-11", 0},
		}
		for _, tt := range tests {
			t.Run(tt.query, func(t *testing.T) {
				rec := do(e, http.MethodGet, "/contents?"+tt.query, "")

				require.Equal(t, http.StatusOK, rec.Code)
				var got []domain.ContentRecord
				require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
				assert.Len(t, got, tt.want)
			})
		}
	})

	t.Run("rejects bad dates", func(t *testing.T) {
		for _, query := range []string{"dateFrom=yesterday", "dateTo=10.01.2025", "dateFrom=2025-01-12&dateTo=2025-01-10"} {
			rec := do(e, http.MethodGet, "/contents?"+query, "")

			assert.Equal(t, http.StatusBadRequest, rec.Code, query)
		}
	})
}
