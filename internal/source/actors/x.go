package actors

import (
	"net/url"
	"strings"

	"github.com/ozgurerrdem/persona-watch/internal/apify"
	"github.com/ozgurerrdem/persona-watch/internal/domain"
	"github.com/ozgurerrdem/persona-watch/internal/jobpoll"
	"github.com/ozgurerrdem/persona-watch/internal/normalize"
	"github.com/ozgurerrdem/persona-watch/internal/source"
)

const (
	XName         = "x"
	XActorID      = "nfp1fpt5gUlBwPcor"
	xDefaultLimit = 50
)

type xTweet struct {
	URL           string `json:"url"`
	TwitterURL    string `json:"twitterUrl"`
	Text          string `json:"text"`
	CreatedAt     string `json:"createdAt"`
	RetweetCount  int64  `json:"retweetCount"`
	LikeCount     int64  `json:"likeCount"`
	QuoteCount    int64  `json:"quoteCount"`
	ReplyCount    int64  `json:"replyCount"`
	BookmarkCount int64  `json:"bookmarkCount"`
}

// NewX searches latest tweets containing the exact keyword.
func NewX(cfg Config, client *apify.Client, poller *jobpoll.Poller) source.Adapter {
	return &actorAdapter[xTweet]{
		name:     XName,
		platform: "X",
		cfg:      cfg.withDefaults(XActorID, xDefaultLimit),
		client:   client,
		poller:   poller,
		jobs: func(keyword string, cfg Config) []job {
			return []job{{label: "tweets", input: map[string]any{
				"maxItems":    cfg.Limit,
				"searchTerms": []string{`"` + keyword + `"`},
				"sort":        "Latest",
			}}}
		},
		mapItem: mapTweet,
		now:     nowFunc,
	}
}

func mapTweet(t xTweet, resolver *normalize.Resolver) (domain.ContentRecord, string, bool) {
	text := strings.TrimSpace(t.Text)
	link := normalize.FirstNonEmpty(t.URL, t.TwitterURL)
	if text == "" || link == "" {
		return domain.ContentRecord{}, "", false
	}

	r := domain.ContentRecord{
		Title:       normalize.TitleFrom(text),
		Body:        text,
		URL:         link,
		Publisher:   handleFromURL(link),
		PublishedAt: resolver.Normalize(t.CreatedAt),
		Counters: domain.Counters{
			Likes:     t.LikeCount,
			Shares:    t.RetweetCount,
			Quotes:    t.QuoteCount,
			Comments:  t.ReplyCount,
			Bookmarks: t.BookmarkCount,
		},
	}
	return r, text, true
}

// handleFromURL reads the account from https://x.com/{handle}/status/{id}.
func handleFromURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	first, _, _ := strings.Cut(strings.Trim(u.Path, "/"), "/")
	if first == "" || strings.EqualFold(first, "status") || strings.EqualFold(first, "i") {
		return ""
	}
	return first
}
