package domain

import (
	"time"

	"github.com/google/uuid"
)

type RecordStatus string

const (
	RecordActive  RecordStatus = "A"
	RecordDeleted RecordStatus = "D"
)

// ContentRecord is one piece of discovered content, normalized across sources.
// Records are built once by an adapter and never mutated afterwards.
type ContentRecord struct {
	ID            uuid.UUID    `json:"id"`
	Title         string       `json:"title"`
	Body          string       `json:"body"`
	URL           string       `json:"url"`
	Platform      string       `json:"platform"`
	Publisher     string       `json:"publisher,omitempty"`
	SearchKeyword string       `json:"searchKeyword"`
	PublishedAt   time.Time    `json:"publishedAt"`
	Fingerprint   string       `json:"fingerprint"`
	Source        string       `json:"source"`
	Status        RecordStatus `json:"status"`
	CreatedAt     time.Time    `json:"createdAt"`
	Counters
}

// Counters holds engagement numbers. Sources that do not report a counter leave it at zero.
type Counters struct {
	Likes     int64 `json:"likeCount"`
	Dislikes  int64 `json:"dislikeCount"`
	Comments  int64 `json:"commentCount"`
	Views     int64 `json:"viewCount"`
	Shares    int64 `json:"shareCount"`
	Quotes    int64 `json:"quoteCount"`
	Bookmarks int64 `json:"bookmarkCount"`
}
