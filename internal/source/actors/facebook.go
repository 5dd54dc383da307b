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
	FacebookName         = "facebook"
	FacebookActorID      = "4YfcIWyRtJHJ5Ha3a"
	facebookDefaultLimit = 10
)

type facebookPost struct {
	FacebookURL string `json:"facebookUrl"`
	PageName    string `json:"pageName"`
	URL         string `json:"url"`
	TopLevelURL string `json:"topLevelUrl"`
	Time        string `json:"time"`
	Timestamp   int64  `json:"timestamp"`
	Text        string `json:"text"`
	Likes       int64  `json:"likes"`
	Comments    int64  `json:"comments"`
	Shares      int64  `json:"shares"`
}

// NewFacebook runs a public post search.
func NewFacebook(cfg Config, client *apify.Client, poller *jobpoll.Poller) source.Adapter {
	return &actorAdapter[facebookPost]{
		name:     FacebookName,
		platform: "Facebook",
		cfg:      cfg.withDefaults(FacebookActorID, facebookDefaultLimit),
		client:   client,
		poller:   poller,
		jobs: func(keyword string, cfg Config) []job {
			return []job{{label: "posts", input: map[string]any{
				"searchQuery": keyword,
				"maxPosts":    cfg.Limit,
			}}}
		},
		mapItem: mapFacebookPost,
		now:     nowFunc,
	}
}

func mapFacebookPost(p facebookPost, resolver *normalize.Resolver) (domain.ContentRecord, string, bool) {
	text := strings.TrimSpace(p.Text)
	link := normalize.FirstNonEmpty(p.URL, p.TopLevelURL, p.FacebookURL)
	if text == "" || link == "" {
		return domain.ContentRecord{}, "", false
	}

	published, ok := normalize.FromUnix(p.Timestamp)
	if !ok {
		published = resolver.Normalize(p.Time)
	}

	r := domain.ContentRecord{
		Title:       normalize.TitleFrom(text, p.PageName, "Facebook Gönderisi"),
		Body:        text,
		URL:         link,
		Publisher:   p.PageName,
		PublishedAt: published,
		Counters: domain.Counters{
			Likes:    p.Likes,
			Comments: p.Comments,
			Shares:   p.Shares,
		},
	}
	return r, text, true
}
