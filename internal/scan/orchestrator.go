// Package scan fans a keyword out to the selected adapters, keeps only records
// whose fingerprint is not known yet and persists them in one batch.
package scan

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/ozgurerrdem/persona-watch/internal/apperr"
	"github.com/ozgurerrdem/persona-watch/internal/domain"
	"github.com/ozgurerrdem/persona-watch/internal/normalize"
	"github.com/ozgurerrdem/persona-watch/internal/source"
	"github.com/ozgurerrdem/persona-watch/internal/storage"
)

// DefaultStoreTimeout bounds each store call of a scan.
const DefaultStoreTimeout = 30 * time.Second

type Orchestrator struct {
	registry     *source.Registry
	store        storage.ContentStore
	metrics      *Metrics
	timeout      time.Duration
	storeTimeout time.Duration
}

type Option func(*Orchestrator)

func WithMetrics(m *Metrics) Option {
	return func(o *Orchestrator) {
		o.metrics = m
	}
}

// WithTimeout bounds the adapter fan-out of a scan. Zero leaves the caller's context
// as the only limit. Records found before the deadline are still persisted.
func WithTimeout(d time.Duration) Option {
	return func(o *Orchestrator) {
		if d > 0 {
			o.timeout = d
		}
	}
}

// WithStoreTimeout bounds loading known fingerprints and appending new records.
func WithStoreTimeout(d time.Duration) Option {
	return func(o *Orchestrator) {
		if d > 0 {
			o.storeTimeout = d
		}
	}
}

func NewOrchestrator(registry *source.Registry, store storage.ContentStore, opts ...Option) *Orchestrator {
	o := &Orchestrator{registry: registry, store: store, storeTimeout: DefaultStoreTimeout}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

func (o *Orchestrator) Registry() *source.Registry {
	return o.registry
}

type adapterResult struct {
	name    string
	records []domain.ContentRecord
	err     error
	elapsed time.Duration
}

// Scan runs every selected adapter concurrently. Adapter failures end up in the
// outcome's error map; an error is returned only for an invalid request or when
// the store cannot be read or written.
func (o *Orchestrator) Scan(ctx context.Context, req domain.ScanRequest) (*domain.ScanOutcome, error) {
	keyword := req.Keyword()
	if keyword == "" {
		return nil, apperr.NewValidation("search keyword must not be empty")
	}

	adapters, err := o.registry.ByNames(req.Adapters...)
	if err != nil {
		return nil, err
	}

	known, err := o.loadKnown(ctx)
	if err != nil {
		return nil, fmt.Errorf("load active fingerprints: %w", err)
	}

	started := time.Now()
	outcome := &domain.ScanOutcome{
		State:      domain.ScanRunning,
		NewRecords: []domain.ContentRecord{},
		Errors:     map[string]string{},
	}
	slog.Info("scan started", "keyword", keyword, "adapters", len(adapters), "knownFingerprints", len(known))

	scanCtx := ctx
	if o.timeout > 0 {
		var cancel context.CancelFunc
		scanCtx, cancel = context.WithTimeout(ctx, o.timeout)
		defer cancel()
	}

	results := make(chan adapterResult, len(adapters))
	for _, a := range adapters {
		go func() {
			results <- run(scanCtx, a, keyword)
		}()
	}

	// Single consumer: known grows as results arrive, so the first adapter to
	// finish keeps a fingerprint shared with later ones.
	for range adapters {
		r := <-results
		kept := 0
		for _, rec := range r.records {
			fp := normalize.CanonicalFingerprint(rec.Fingerprint)
			if _, dup := known[fp]; dup {
				continue
			}
			known[fp] = struct{}{}
			outcome.NewRecords = append(outcome.NewRecords, rec)
			kept++
		}
		if r.err != nil {
			outcome.Errors[r.name] = r.err.Error()
			slog.Error("adapter failed", "adapter", r.name, "records", len(r.records), "error", apperr.NewAdapter(r.name, r.err))
		}
		o.metrics.observeAdapter(r, kept)
		slog.Debug("adapter finished", "adapter", r.name, "found", len(r.records), "new", kept, "elapsed", r.elapsed)
	}

	if len(outcome.NewRecords) > 0 {
		if err := o.appendNew(ctx, outcome.NewRecords); err != nil {
			return nil, fmt.Errorf("append %d records: %w", len(outcome.NewRecords), err)
		}
	}

	domain.SortByPublishedDesc(outcome.NewRecords)
	outcome.State = domain.ScanCompleted
	if len(outcome.Errors) > 0 {
		outcome.State = domain.ScanCompletedWithErrors
	}

	elapsed := time.Since(started)
	o.metrics.observeScan(string(outcome.State), elapsed)
	slog.Info("scan finished",
		"keyword", keyword,
		"state", outcome.State,
		"newRecords", len(outcome.NewRecords),
		"errors", len(outcome.Errors),
		"elapsed", elapsed)

	return outcome, nil
}

// storeContext detaches store calls from the scan's cancellation: what the adapters
// found before a deadline or a client disconnect is still written.
func (o *Orchestrator) storeContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), o.storeTimeout)
}

func (o *Orchestrator) loadKnown(ctx context.Context) (map[string]struct{}, error) {
	ctx, cancel := o.storeContext(ctx)
	defer cancel()
	return o.store.LoadActiveFingerprints(ctx)
}

func (o *Orchestrator) appendNew(ctx context.Context, records []domain.ContentRecord) error {
	ctx, cancel := o.storeContext(ctx)
	defer cancel()
	return o.store.AppendRecords(ctx, records)
}

// run invokes one adapter and turns a panic into an adapter error.
func run(ctx context.Context, a source.Adapter, keyword string) (res adapterResult) {
	res.name = a.Name()
	started := time.Now()
	defer func() {
		if p := recover(); p != nil {
			res.err = fmt.Errorf("adapter panicked: %v", p)
		}
		res.elapsed = time.Since(started)
	}()

	res.records, res.err = a.Scan(ctx, keyword)
	return res
}
