package storage

import (
	"context"
	"strings"
	"time"

	"github.com/ozgurerrdem/persona-watch/internal/domain"
)

// ContentStore is the persistence collaborator of a scan. Both operations are
// bulk: one read of every active fingerprint and one append of the new records.
type ContentStore interface {
	LoadActiveFingerprints(ctx context.Context) (map[string]struct{}, error)
	AppendRecords(ctx context.Context, records []domain.ContentRecord) error
}

// RecordLister is implemented by stores that can return their active records, newest first.
type RecordLister interface {
	ListRecords(ctx context.Context, filter RecordFilter) ([]domain.ContentRecord, error)
}

// RecordFilter narrows ListRecords. Zero fields do not filter. PublishedFrom is
// inclusive and PublishedBefore exclusive.
type RecordFilter struct {
	Keyword         string
	PublishedFrom   time.Time
	PublishedBefore time.Time
	Limit           int
}

// Matches reports whether an active record passes the keyword and date bounds.
// The keyword compares case-insensitively.
func (f RecordFilter) Matches(r domain.ContentRecord) bool {
	if r.Status != domain.RecordActive {
		return false
	}
	if kw := strings.TrimSpace(f.Keyword); kw != "" && !strings.EqualFold(r.SearchKeyword, kw) {
		return false
	}
	if !f.PublishedFrom.IsZero() && r.PublishedAt.Before(f.PublishedFrom) {
		return false
	}
	if !f.PublishedBefore.IsZero() && !r.PublishedAt.Before(f.PublishedBefore) {
		return false
	}
	return true
}

type Type string

const (
	ES    Type = "es"
	PG    Type = "pg"
	InMem Type = "in_mem"
)

var SupportedTypes = []Type{PG, ES, InMem}

type StorerError string

const (
	ErrUnsupportedStorer StorerError = "unsupported storer type: %s"
)

func (e StorerError) Error() string {
	return string(e)
}
