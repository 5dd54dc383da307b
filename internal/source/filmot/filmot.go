// Package filmot finds spoken mentions of a keyword in YouTube subtitles via filmot.com.
package filmot

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/ozgurerrdem/persona-watch/internal/domain"
	"github.com/ozgurerrdem/persona-watch/internal/httpx"
	"github.com/ozgurerrdem/persona-watch/internal/normalize"
	"github.com/ozgurerrdem/persona-watch/internal/source"
)

const (
	Name           = "filmot"
	DefaultBaseURL = "https://filmot.com"
	watchURL       = "https://www.youtube.com/watch?v="
	unknownChannel = "Unknown Channel"
)

var resultsPattern = regexp.MustCompile(`(?s)window\.results\s*=\s*(\{.*?\});`)

type Config struct {
	BaseURL   string
	UserAgent string
}

type Adapter struct {
	cfg  Config
	http *httpx.Client
	now  func() time.Time
}

var _ source.Adapter = (*Adapter)(nil)

func New(cfg Config, http *httpx.Client) *Adapter {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if http == nil {
		http = httpx.New(httpx.Config{UserAgent: cfg.UserAgent})
	}
	return &Adapter{cfg: cfg, http: http, now: time.Now}
}

func (a *Adapter) Name() string     { return Name }
func (a *Adapter) Platform() string { return "YouTube" }

type hit struct {
	CtxBefore string  `json:"ctx_before"`
	Token     string  `json:"token"`
	CtxAfter  string  `json:"ctx_after"`
	Start     float64 `json:"start"`
}

type video struct {
	Vid  string `json:"vid"`
	Hits []hit  `json:"hits"`
}

func (a *Adapter) searchURL(keyword string) string {
	phrase := url.PathEscape(normalize.JoinWords(keyword, "+"))
	return fmt.Sprintf("%s/search/%%22%s%%22/1?sortField=uploaddate&sortOrder=desc&gridView=1&", a.cfg.BaseURL, phrase)
}

func (a *Adapter) Scan(ctx context.Context, keyword string) ([]domain.ContentRecord, error) {
	if strings.TrimSpace(keyword) == "" {
		return nil, nil
	}

	page, err := a.http.Get(ctx, a.searchURL(keyword), nil)
	if err != nil {
		return nil, err
	}

	videos, err := parseResults(string(page))
	if err != nil {
		return nil, err
	}
	cards, err := parseCards(string(page))
	if err != nil {
		slog.Warn("filmot video cards unreadable", "error", err)
	}

	now := a.now().UTC()
	resolver := normalize.NewResolver(now, now)

	var records []domain.ContentRecord
	for _, v := range videos {
		card, hasCard := cards[v.Vid]
		for _, h := range v.Hits {
			records = append(records, a.toRecord(keyword, v.Vid, h, card, hasCard, resolver))
		}
	}
	return records, nil
}

func (a *Adapter) toRecord(keyword, vid string, h hit, c card, hasCard bool, resolver *normalize.Resolver) domain.ContentRecord {
	token := strings.TrimSpace(h.Token)
	text := strings.TrimSpace(strings.Join([]string{
		strings.TrimSpace(h.CtxBefore), token, strings.TrimSpace(h.CtxAfter),
	}, " "))

	r := domain.ContentRecord{
		Title:       normalize.FirstNonEmpty(c.Title, token),
		Body:        text,
		URL:         fmt.Sprintf("%s%s&t=%ds", watchURL, vid, int(h.Start)),
		Publisher:   normalize.FirstNonEmpty(c.Channel, unknownChannel),
		PublishedAt: resolver.Normalize(c.Date),
	}
	if hasCard {
		r.Views = c.Views
		r.Likes = c.Likes
	}
	return source.StampURL(a, keyword, r, token, watchURL+vid)
}

// parseResults reads the hit index embedded as window.results; videos are ordered by id.
func parseResults(page string) ([]video, error) {
	m := resultsPattern.FindStringSubmatch(page)
	if m == nil {
		return nil, nil
	}

	var byID map[string]video
	if err := json.Unmarshal([]byte(m[1]), &byID); err != nil {
		return nil, fmt.Errorf("decode window.results: %w", err)
	}

	ids := make([]string, 0, len(byID))
	for id := range byID {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	videos := make([]video, 0, len(ids))
	for _, id := range ids {
		v := byID[id]
		if v.Vid == "" {
			v.Vid = id
		}
		videos = append(videos, v)
	}
	return videos, nil
}
