// Package actors scans social platforms through Apify actors. Every adapter submits
// one or more actor runs, waits for them with the shared poller and maps the
// resulting dataset items.
package actors

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/ozgurerrdem/persona-watch/internal/apify"
	"github.com/ozgurerrdem/persona-watch/internal/domain"
	"github.com/ozgurerrdem/persona-watch/internal/jobpoll"
	"github.com/ozgurerrdem/persona-watch/internal/normalize"
	"github.com/ozgurerrdem/persona-watch/internal/source"
	"golang.org/x/sync/errgroup"
)

var nowFunc = time.Now

// Config selects the actor and how many items it may return.
type Config struct {
	ActorID string
	Limit   int
}

func (c Config) withDefaults(actorID string, limit int) Config {
	if strings.TrimSpace(c.ActorID) == "" {
		c.ActorID = actorID
	}
	if c.Limit <= 0 {
		c.Limit = limit
	}
	return c
}

// job is one actor run of a scan, named for error attribution.
type job struct {
	label string
	input any
}

// mapper turns one dataset item into a record; false drops the item.
type mapper[T any] func(item T, resolver *normalize.Resolver) (rec domain.ContentRecord, fingerprintText string, ok bool)

type actorAdapter[T any] struct {
	name     string
	platform string
	cfg      Config
	client   *apify.Client
	poller   *jobpoll.Poller
	jobs     func(keyword string, cfg Config) []job
	mapItem  mapper[T]
	now      func() time.Time
}

func (a *actorAdapter[T]) Name() string     { return a.name }
func (a *actorAdapter[T]) Platform() string { return a.platform }

// Scan runs the adapter's jobs concurrently. Jobs that fail or never finish are
// reported in the returned error; items from the others are still returned.
func (a *actorAdapter[T]) Scan(ctx context.Context, keyword string) ([]domain.ContentRecord, error) {
	jobs := a.jobs(keyword, a.cfg)

	var (
		mu      sync.Mutex
		records []domain.ContentRecord
		errs    []error
	)

	var g errgroup.Group
	for _, j := range jobs {
		g.Go(func() error {
			items, err := jobpoll.Collect(ctx, a.poller, a.client,
				jobpoll.Spec{JobType: a.cfg.ActorID, Input: j.input},
				apify.Fetcher[T](a.client))

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				slog.Warn("actor run failed", "adapter", a.name, "job", j.label, "error", err)
				errs = append(errs, fmt.Errorf("%s: %w", j.label, err))
				return nil
			}
			records = append(records, a.toRecords(keyword, items)...)
			return nil
		})
	}
	_ = g.Wait()

	return records, errors.Join(errs...)
}

func (a *actorAdapter[T]) toRecords(keyword string, items []T) []domain.ContentRecord {
	now := a.now().UTC()
	resolver := normalize.NewResolver(now, now)

	records := make([]domain.ContentRecord, 0, len(items))
	for _, it := range items {
		rec, text, ok := a.mapItem(it, resolver)
		if !ok {
			continue
		}
		records = append(records, source.Stamp(a, keyword, rec, text))
	}
	return records
}

var _ source.Adapter = (*actorAdapter[xTweet])(nil)
