package es

import (
	"time"

	"github.com/elastic/go-elasticsearch/v8/typedapi/types"
	"github.com/google/uuid"
	"github.com/ozgurerrdem/persona-watch/internal/domain"
)

// ContentDocument is the indexed shape of a domain.ContentRecord.
type ContentDocument struct {
	ID            string    `json:"id"`
	Title         string    `json:"title"`
	Body          string    `json:"body"`
	URL           string    `json:"url"`
	Platform      string    `json:"platform"`
	Publisher     string    `json:"publisher"`
	SearchKeyword string    `json:"search_keyword"`
	PublishedAt   time.Time `json:"published_at"`
	Fingerprint   string    `json:"fingerprint"`
	Source        string    `json:"source"`
	Status        string    `json:"status"`
	CreatedAt     time.Time `json:"created_at"`
	IndexedAt     time.Time `json:"indexed_at"`
	LikeCount     int64     `json:"like_count"`
	DislikeCount  int64     `json:"dislike_count"`
	CommentCount  int64     `json:"comment_count"`
	ViewCount     int64     `json:"view_count"`
	ShareCount    int64     `json:"share_count"`
	QuoteCount    int64     `json:"quote_count"`
	BookmarkCount int64     `json:"bookmark_count"`
}

func toDocument(r domain.ContentRecord, indexedAt time.Time) ContentDocument {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	if r.Status == "" {
		r.Status = domain.RecordActive
	}
	return ContentDocument{
		ID:            r.ID.String(),
		Title:         r.Title,
		Body:          r.Body,
		URL:           r.URL,
		Platform:      r.Platform,
		Publisher:     r.Publisher,
		SearchKeyword: r.SearchKeyword,
		PublishedAt:   r.PublishedAt.UTC(),
		Fingerprint:   r.Fingerprint,
		Source:        r.Source,
		Status:        string(r.Status),
		CreatedAt:     r.CreatedAt.UTC(),
		IndexedAt:     indexedAt,
		LikeCount:     r.Likes,
		DislikeCount:  r.Dislikes,
		CommentCount:  r.Comments,
		ViewCount:     r.Views,
		ShareCount:    r.Shares,
		QuoteCount:    r.Quotes,
		BookmarkCount: r.Bookmarks,
	}
}

func (d ContentDocument) toDomain() (domain.ContentRecord, error) {
	id, err := uuid.Parse(d.ID)
	if err != nil {
		return domain.ContentRecord{}, err
	}
	return domain.ContentRecord{
		ID:            id,
		Title:         d.Title,
		Body:          d.Body,
		URL:           d.URL,
		Platform:      d.Platform,
		Publisher:     d.Publisher,
		SearchKeyword: d.SearchKeyword,
		PublishedAt:   d.PublishedAt.UTC(),
		Fingerprint:   d.Fingerprint,
		Source:        d.Source,
		Status:        domain.RecordStatus(d.Status),
		CreatedAt:     d.CreatedAt.UTC(),
		Counters: domain.Counters{
			Likes:     d.LikeCount,
			Dislikes:  d.DislikeCount,
			Comments:  d.CommentCount,
			Views:     d.ViewCount,
			Shares:    d.ShareCount,
			Quotes:    d.QuoteCount,
			Bookmarks: d.BookmarkCount,
		},
	}, nil
}

func contentMappings() *types.TypeMapping {
	return &types.TypeMapping{
		Properties: map[string]types.Property{
			"id":             types.NewKeywordProperty(),
			"title":          textWithKeyword(),
			"body":           types.NewTextProperty(),
			"url":            types.NewKeywordProperty(),
			"platform":       types.NewKeywordProperty(),
			"publisher":      textWithKeyword(),
			"search_keyword": types.NewKeywordProperty(),
			"published_at":   types.NewDateProperty(),
			"fingerprint":    types.NewKeywordProperty(),
			"source":         types.NewKeywordProperty(),
			"status":         types.NewKeywordProperty(),
			"created_at":     types.NewDateProperty(),
			"indexed_at":     types.NewDateProperty(),
			"like_count":     types.NewLongNumberProperty(),
			"dislike_count":  types.NewLongNumberProperty(),
			"comment_count":  types.NewLongNumberProperty(),
			"view_count":     types.NewLongNumberProperty(),
			"share_count":    types.NewLongNumberProperty(),
			"quote_count":    types.NewLongNumberProperty(),
			"bookmark_count": types.NewLongNumberProperty(),
		},
	}
}

func textWithKeyword() types.Property {
	textProp := types.NewTextProperty()
	textProp.Fields = map[string]types.Property{
		"keyword": types.NewKeywordProperty(),
	}
	return textProp
}
