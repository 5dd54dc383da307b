// Package youtube scans today's uploads through the YouTube Data API v3.
package youtube

import (
	"context"
	"html"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/ozgurerrdem/persona-watch/internal/apperr"
	"github.com/ozgurerrdem/persona-watch/internal/domain"
	"github.com/ozgurerrdem/persona-watch/internal/httpx"
	"github.com/ozgurerrdem/persona-watch/internal/normalize"
	"github.com/ozgurerrdem/persona-watch/internal/source"
)

const (
	Name           = "youtube"
	DefaultBaseURL = "https://www.googleapis.com/youtube/v3"
	WatchURL       = "https://www.youtube.com/watch?v="
	maxResults     = "50"
)

type Config struct {
	APIKey  string
	BaseURL string
	// SkipStatistics disables the follow-up videos call that fills view, like and comment counts.
	SkipStatistics bool
}

type Adapter struct {
	cfg  Config
	http *httpx.Client
	now  func() time.Time
}

var _ source.Adapter = (*Adapter)(nil)

func New(cfg Config, http *httpx.Client) (*Adapter, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, apperr.NewConfiguration(Name, "YOUTUBE_API_KEY")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if http == nil {
		http = httpx.NewDefault()
	}
	return &Adapter{cfg: cfg, http: http, now: time.Now}, nil
}

func (a *Adapter) Name() string     { return Name }
func (a *Adapter) Platform() string { return "YouTube" }

type searchResponse struct {
	Items []struct {
		ID struct {
			VideoID string `json:"videoId"`
		} `json:"id"`
		Snippet struct {
			Title        string `json:"title"`
			Description  string `json:"description"`
			ChannelTitle string `json:"channelTitle"`
			PublishedAt  string `json:"publishedAt"`
		} `json:"snippet"`
	} `json:"items"`
}

type videosResponse struct {
	Items []struct {
		ID         string `json:"id"`
		Statistics struct {
			ViewCount    string `json:"viewCount"`
			LikeCount    string `json:"likeCount"`
			DislikeCount string `json:"dislikeCount"`
			CommentCount string `json:"commentCount"`
		} `json:"statistics"`
	} `json:"items"`
}

func (a *Adapter) Scan(ctx context.Context, keyword string) ([]domain.ContentRecord, error) {
	now := a.now().UTC()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	q := url.Values{}
	q.Set("part", "snippet")
	q.Set("q", keyword)
	q.Set("type", "video")
	q.Set("maxResults", maxResults)
	q.Set("order", "date")
	q.Set("publishedAfter", today.Format(time.RFC3339))
	q.Set("key", a.cfg.APIKey)

	var resp searchResponse
	if err := a.http.GetJSON(ctx, a.cfg.BaseURL+"/search?"+q.Encode(), &resp); err != nil {
		return nil, err
	}

	resolver := normalize.NewResolver(now, now)
	records := make([]domain.ContentRecord, 0, len(resp.Items))
	ids := make([]string, 0, len(resp.Items))
	for _, it := range resp.Items {
		title := html.UnescapeString(strings.TrimSpace(it.Snippet.Title))
		videoID := strings.TrimSpace(it.ID.VideoID)
		if title == "" || videoID == "" {
			continue
		}

		r := domain.ContentRecord{
			Title:       title,
			Body:        html.UnescapeString(it.Snippet.Description),
			URL:         WatchURL + videoID,
			Publisher:   it.Snippet.ChannelTitle,
			PublishedAt: resolver.Normalize(it.Snippet.PublishedAt),
		}
		records = append(records, source.Stamp(a, keyword, r, title))
		ids = append(ids, videoID)
	}

	if !a.cfg.SkipStatistics && len(ids) > 0 {
		if err := a.fillStatistics(ctx, ids, records); err != nil {
			slog.Warn("youtube statistics unavailable", "error", err)
		}
	}
	return records, nil
}

// fillStatistics sets counters on records; records[i] belongs to ids[i].
func (a *Adapter) fillStatistics(ctx context.Context, ids []string, records []domain.ContentRecord) error {
	q := url.Values{}
	q.Set("part", "statistics")
	q.Set("id", strings.Join(ids, ","))
	q.Set("key", a.cfg.APIKey)

	var resp videosResponse
	if err := a.http.GetJSON(ctx, a.cfg.BaseURL+"/videos?"+q.Encode(), &resp); err != nil {
		return err
	}

	index := make(map[string]int, len(ids))
	for i, id := range ids {
		index[id] = i
	}
	for _, v := range resp.Items {
		i, ok := index[v.ID]
		if !ok {
			continue
		}
		records[i].Views = normalize.ParseCount(v.Statistics.ViewCount)
		records[i].Likes = normalize.ParseCount(v.Statistics.LikeCount)
		records[i].Dislikes = normalize.ParseCount(v.Statistics.DislikeCount)
		records[i].Comments = normalize.ParseCount(v.Statistics.CommentCount)
	}
	return nil
}
