package in_mem

import (
	"context"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/ozgurerrdem/persona-watch/internal/domain"
	"github.com/ozgurerrdem/persona-watch/internal/normalize"
	"github.com/ozgurerrdem/persona-watch/internal/storage"
)

type InMemStorer struct {
	storageLock sync.RWMutex
	order       []uuid.UUID
	storage     map[uuid.UUID]domain.ContentRecord
}

func NewInMemStorer(seed ...domain.ContentRecord) *InMemStorer {
	s := &InMemStorer{
		storage: make(map[uuid.UUID]domain.ContentRecord),
	}
	_ = s.AppendRecords(context.Background(), seed)
	return s
}

func (s *InMemStorer) LoadActiveFingerprints(_ context.Context) (map[string]struct{}, error) {
	s.storageLock.RLock()
	defer s.storageLock.RUnlock()

	known := make(map[string]struct{}, len(s.storage))
	for _, r := range s.storage {
		if r.Status == domain.RecordActive {
			known[normalize.CanonicalFingerprint(r.Fingerprint)] = struct{}{}
		}
	}
	return known, nil
}

func (s *InMemStorer) AppendRecords(_ context.Context, records []domain.ContentRecord) error {
	s.storageLock.Lock()
	defer s.storageLock.Unlock()

	for _, r := range records {
		if r.ID == uuid.Nil {
			r.ID = uuid.New()
		}
		if _, exists := s.storage[r.ID]; !exists {
			s.order = append(s.order, r.ID)
		}
		s.storage[r.ID] = r
	}
	slog.Debug("records appended to in-memory storage", "count", len(records), "total", len(s.storage))
	return nil
}

// SoftDelete flags a record as deleted; its fingerprint stops counting as known.
func (s *InMemStorer) SoftDelete(_ context.Context, id uuid.UUID) bool {
	s.storageLock.Lock()
	defer s.storageLock.Unlock()

	r, ok := s.storage[id]
	if !ok {
		return false
	}
	r.Status = domain.RecordDeleted
	s.storage[id] = r
	return true
}

// ListRecords returns matching records newest first. A non-positive limit returns all of them.
func (s *InMemStorer) ListRecords(_ context.Context, filter storage.RecordFilter) ([]domain.ContentRecord, error) {
	s.storageLock.RLock()
	defer s.storageLock.RUnlock()

	out := make([]domain.ContentRecord, 0, len(s.order))
	for _, id := range s.order {
		if r := s.storage[id]; filter.Matches(r) {
			out = append(out, r)
		}
	}
	domain.SortByPublishedDesc(out)
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

var (
	_ storage.ContentStore = (*InMemStorer)(nil)
	_ storage.RecordLister = (*InMemStorer)(nil)
)
