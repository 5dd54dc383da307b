// Package serpapi scans Google web, news and video results through SerpApi.
package serpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/ozgurerrdem/persona-watch/internal/apperr"
	"github.com/ozgurerrdem/persona-watch/internal/domain"
	"github.com/ozgurerrdem/persona-watch/internal/httpx"
	"github.com/ozgurerrdem/persona-watch/internal/normalize"
	"github.com/ozgurerrdem/persona-watch/internal/source"
	"golang.org/x/sync/errgroup"
)

const (
	Name           = "serpapi"
	DefaultBaseURL = "https://serpapi.com"

	EngineGoogle = "google"
	EngineNews   = "google_news"
	EngineVideos = "google_videos"
)

// sections of a SerpApi response that hold navigation or ads, not results
var excludedSections = map[string]struct{}{
	"related_searches":   {},
	"search_information": {},
	"pagination":         {},
	"ads":                {},
	"inline_images":      {},
	"menu_links":         {},
	"related_topics":     {},
	"serpapi_pagination": {},
}

type Config struct {
	APIKey   string
	BaseURL  string
	Engines  []string
	Language string
	Country  string
	Num      int
}

type Adapter struct {
	cfg  Config
	http *httpx.Client
	now  func() time.Time
}

var _ source.Adapter = (*Adapter)(nil)

func New(cfg Config, http *httpx.Client) (*Adapter, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, apperr.NewConfiguration(Name, "SERPAPI_API_KEY")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if len(cfg.Engines) == 0 {
		cfg.Engines = []string{EngineGoogle, EngineNews, EngineVideos}
	}
	if cfg.Language == "" {
		cfg.Language = "tr"
	}
	if cfg.Country == "" {
		cfg.Country = "tr"
	}
	if cfg.Num <= 0 {
		cfg.Num = 100
	}
	if http == nil {
		http = httpx.NewDefault()
	}
	return &Adapter{cfg: cfg, http: http, now: time.Now}, nil
}

func (a *Adapter) Name() string     { return Name }
func (a *Adapter) Platform() string { return "Google" }

// Scan queries every engine concurrently. A failing engine does not discard the
// others' results; its error is returned alongside them.
func (a *Adapter) Scan(ctx context.Context, keyword string) ([]domain.ContentRecord, error) {
	var (
		mu      sync.Mutex
		records []domain.ContentRecord
		errs    []error
	)

	var g errgroup.Group
	for _, engine := range a.cfg.Engines {
		g.Go(func() error {
			found, err := a.scanEngine(ctx, engine, keyword)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				slog.Warn("serpapi engine failed", "engine", engine, "error", err)
				errs = append(errs, fmt.Errorf("%s: %w", engine, err))
				return nil
			}
			records = append(records, found...)
			return nil
		})
	}
	_ = g.Wait()

	return records, errors.Join(errs...)
}

func (a *Adapter) searchURL(engine, keyword string) string {
	q := url.Values{}
	q.Set("engine", engine)
	q.Set("q", `"`+keyword+`"`)
	q.Set("hl", a.cfg.Language)
	q.Set("gl", a.cfg.Country)
	q.Set("num", fmt.Sprint(a.cfg.Num))
	q.Set("api_key", a.cfg.APIKey)
	return a.cfg.BaseURL + "/search.json?" + q.Encode()
}

func (a *Adapter) scanEngine(ctx context.Context, engine, keyword string) ([]domain.ContentRecord, error) {
	var sections map[string]json.RawMessage
	if err := a.http.GetJSON(ctx, a.searchURL(engine, keyword), &sections); err != nil {
		return nil, err
	}

	now := a.now().UTC()
	resolver := normalize.NewResolver(baseTime(sections, now), now)

	names := make([]string, 0, len(sections))
	for name := range sections {
		names = append(names, name)
	}
	sort.Strings(names)

	var records []domain.ContentRecord
	for _, section := range names {
		if _, skip := excludedSections[section]; skip {
			continue
		}
		var items []json.RawMessage
		if err := json.Unmarshal(sections[section], &items); err != nil {
			continue
		}

		for _, raw := range items {
			var it item
			if err := json.Unmarshal(raw, &it); err != nil {
				continue
			}
			if r, ok := a.toRecord(engine, section, keyword, it, resolver); ok {
				records = append(records, r)
			}
		}
	}

	slog.Debug("serpapi engine scanned", "engine", engine, "records", len(records))
	return records, nil
}

func (a *Adapter) toRecord(engine, section, keyword string, it item, resolver *normalize.Resolver) (domain.ContentRecord, bool) {
	title := normalize.FirstNonEmpty(it.Title, it.Question)
	link := strings.TrimSpace(it.Link)

	if strings.Contains(strings.ToLower(link), "youtube.com") {
		return domain.ContentRecord{}, false
	}
	if title == "" && link == "" {
		return domain.ContentRecord{}, false
	}

	r := domain.ContentRecord{
		Title:       title,
		Body:        it.Snippet,
		URL:         link,
		Platform:    section,
		Publisher:   normalize.FirstNonEmpty(nameOf(it.Source), it.Channel, nameOf(it.Author)),
		PublishedAt: publishedAt(engine, it, resolver),
	}
	return source.Stamp(a, keyword, r, title), true
}

// baseTime is the moment SerpApi produced the response; relative dates are measured from it.
func baseTime(sections map[string]json.RawMessage, fallback time.Time) time.Time {
	var meta struct {
		ProcessedAt string `json:"processed_at"`
		CreatedAt   string `json:"created_at"`
	}
	if raw, ok := sections["search_metadata"]; ok && json.Unmarshal(raw, &meta) == nil {
		for _, candidate := range []string{meta.ProcessedAt, meta.CreatedAt} {
			if t, ok := normalize.ParseAbsolute(candidate, fallback); ok {
				return t
			}
		}
	}
	return fallback
}
