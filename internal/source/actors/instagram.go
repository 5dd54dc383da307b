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
	InstagramName         = "instagram"
	InstagramActorID      = "reGe1ST3OBgYZSsZJ"
	instagramDefaultLimit = 20
)

// InstagramResultTypes are fetched as separate runs and merged.
var InstagramResultTypes = []string{"posts", "stories"}

type instagramPost struct {
	Caption       string `json:"caption"`
	OwnerFullName string `json:"ownerFullName"`
	OwnerUsername string `json:"ownerUsername"`
	URL           string `json:"url"`
	CommentsCount int64  `json:"commentsCount"`
	LikesCount    int64  `json:"likesCount"`
	Timestamp     string `json:"timestamp"`
}

// NewInstagram scans the hashtag made of the keyword without spaces.
func NewInstagram(cfg Config, client *apify.Client, poller *jobpoll.Poller) source.Adapter {
	return &actorAdapter[instagramPost]{
		name:     InstagramName,
		platform: "Instagram",
		cfg:      cfg.withDefaults(InstagramActorID, instagramDefaultLimit),
		client:   client,
		poller:   poller,
		jobs:     instagramJobs,
		mapItem:  mapInstagramPost,
		now:      nowFunc,
	}
}

func Hashtag(keyword string) string {
	return strings.ToLower(normalize.JoinWords(keyword, ""))
}

func instagramJobs(keyword string, cfg Config) []job {
	jobs := make([]job, 0, len(InstagramResultTypes))
	for _, kind := range InstagramResultTypes {
		jobs = append(jobs, job{label: kind, input: map[string]any{
			"hashtags":     []string{Hashtag(keyword)},
			"resultsLimit": cfg.Limit,
			"resultsType":  kind,
		}})
	}
	return jobs
}

func mapInstagramPost(p instagramPost, resolver *normalize.Resolver) (domain.ContentRecord, string, bool) {
	caption := strings.TrimSpace(p.Caption)
	owner := normalize.FirstNonEmpty(p.OwnerUsername, p.OwnerFullName)
	if strings.TrimSpace(p.URL) == "" || (caption == "" && owner == "") {
		return domain.ContentRecord{}, "", false
	}

	r := domain.ContentRecord{
		Title:       normalize.TitleFrom(caption, owner, "Instagram Gönderisi"),
		Body:        caption,
		URL:         p.URL,
		Publisher:   owner,
		PublishedAt: resolver.Normalize(p.Timestamp),
		Counters: domain.Counters{
			Likes:    p.LikesCount,
			Comments: p.CommentsCount,
		},
	}
	return r, caption, true
}
