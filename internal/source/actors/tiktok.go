package actors

import (
	"strings"

	"github.com/ozgurerrdem/persona-watch/internal/apify"
	"github.com/ozgurerrdem/persona-watch/internal/domain"
	"github.com/ozgurerrdem/persona-watch/internal/jobpoll"
	"github.com/ozgurerrdem/persona-watch/internal/normalize"
	"github.com/ozgurerrdem/persona-watch/internal/source"
)

const (
	TikTokName         = "tiktok"
	TikTokActorID      = "GdWCkxBtKWOsKjdch"
	tiktokDefaultLimit = 100
)

type tiktokVideo struct {
	Text          string `json:"text"`
	WebVideoURL   string `json:"webVideoUrl"`
	CreateTimeISO string `json:"createTimeISO"`
	DiggCount     int64  `json:"diggCount"`
	ShareCount    int64  `json:"shareCount"`
	PlayCount     int64  `json:"playCount"`
	CommentCount  int64  `json:"commentCount"`
	CollectCount  int64  `json:"collectCount"`
	AuthorMeta    *struct {
		Name string `json:"name"`
	} `json:"authorMeta"`
	// some datasets flatten the author
	AuthorNameFlat string `json:"authorMeta.name"`
}

func (v tiktokVideo) author() string {
	if v.AuthorMeta != nil && strings.TrimSpace(v.AuthorMeta.Name) != "" {
		return v.AuthorMeta.Name
	}
	return v.AuthorNameFlat
}

// NewTikTok searches videos tagged with the keyword.
func NewTikTok(cfg Config, client *apify.Client, poller *jobpoll.Poller) source.Adapter {
	return &actorAdapter[tiktokVideo]{
		name:     TikTokName,
		platform: "TikTok",
		cfg:      cfg.withDefaults(TikTokActorID, tiktokDefaultLimit),
		client:   client,
		poller:   poller,
		jobs: func(keyword string, cfg Config) []job {
			return []job{{label: "videos", input: map[string]any{
				"hashtags":                      []string{`"` + keyword + `"`},
				"resultsPerPage":                cfg.Limit,
				"excludePinnedPosts":            false,
				"proxyCountryCode":              "None",
				"scrapeRelatedVideos":           false,
				"shouldDownloadAvatars":         false,
				"shouldDownloadCovers":          false,
				"shouldDownloadMusicCovers":     false,
				"shouldDownloadSlideshowImages": false,
				"shouldDownloadSubtitles":       false,
				"shouldDownloadVideos":          false,
				"profileScrapeSections":         []string{"videos"},
				"profileSorting":                "latest",
				"searchSection":                 "",
				"maxProfilesPerQuery":           10,
			}}}
		},
		mapItem: mapTikTokVideo,
		now:     nowFunc,
	}
}

func mapTikTokVideo(v tiktokVideo, resolver *normalize.Resolver) (domain.ContentRecord, string, bool) {
	text := strings.TrimSpace(v.Text)
	if text == "" || strings.TrimSpace(v.WebVideoURL) == "" {
		return domain.ContentRecord{}, "", false
	}

	r := domain.ContentRecord{
		Title:       normalize.TitleFrom(text, v.author(), "TikTok Gönderisi"),
		Body:        text,
		URL:         v.WebVideoURL,
		Publisher:   v.author(),
		PublishedAt: resolver.Normalize(v.CreateTimeISO),
		Counters: domain.Counters{
			Likes:     v.DiggCount,
			Shares:    v.ShareCount,
			Views:     v.PlayCount,
			Comments:  v.CommentCount,
			Bookmarks: v.CollectCount,
		},
	}
	return r, text, true
}
