package factory

import (
	"context"
	"fmt"

	"github.com/ozgurerrdem/persona-watch/internal/storage"
	"github.com/ozgurerrdem/persona-watch/internal/storage/es"
	"github.com/ozgurerrdem/persona-watch/internal/storage/in_mem"
	"github.com/ozgurerrdem/persona-watch/internal/storage/pg"
	"github.com/ozgurerrdem/persona-watch/pkg/server"
)

// Store bundles the content store with its health check and a release function.
type Store struct {
	storage.ContentStore
	Health server.HealthChecker
	Close  func()
}

// NewStore opens the backend selected by cfg.
func NewStore(ctx context.Context, cfg *StorageConfig) (*Store, error) {
	switch cfg.Type {
	case storage.PG:
		if cfg.Pg == nil {
			return nil, fmt.Errorf("missing PostgreSQL configuration")
		}
		pool, err := pg.NewConnectionPool(ctx, *cfg.Pg)
		if err != nil {
			return nil, fmt.Errorf("failed to create PostgreSQL connection pool: %w", err)
		}
		return &Store{
			ContentStore: pg.NewStorer(pool),
			Health:       pg.NewHealthChecker(pool),
			Close:        pool.Close,
		}, nil

	case storage.ES:
		if cfg.Es == nil {
			return nil, fmt.Errorf("missing Elasticsearch configuration")
		}
		s, err := es.NewStorer(ctx, *cfg.Es)
		if err != nil {
			return nil, err
		}
		return &Store{ContentStore: s, Health: s, Close: func() {}}, nil

	case storage.InMem:
		return &Store{ContentStore: in_mem.NewInMemStorer(), Health: server.NewOkHealthChecker(), Close: func() {}}, nil

	default:
		return nil, fmt.Errorf(string(storage.ErrUnsupportedStorer), cfg.Type)
	}
}

// Lister returns the store's record listing when the backend supports it.
func (s *Store) Lister() (storage.RecordLister, bool) {
	l, ok := s.ContentStore.(storage.RecordLister)
	return l, ok
}
