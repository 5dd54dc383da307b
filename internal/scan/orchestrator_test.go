package scan

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ozgurerrdem/persona-watch/internal/apperr"
	"github.com/ozgurerrdem/persona-watch/internal/domain"
	"github.com/ozgurerrdem/persona-watch/internal/jobpoll"
	"github.com/ozgurerrdem/persona-watch/internal/normalize"
	"github.com/ozgurerrdem/persona-watch/internal/source"
	"github.com/ozgurerrdem/persona-watch/internal/storage"
	"github.com/ozgurerrdem/persona-watch/internal/storage/in_mem"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var base = time.Date(2025, 1, 10, 12, 0, 0, 0, time.UTC)

type fakeAdapter struct {
	name  string
	fn    func(ctx context.Context, keyword string) ([]domain.ContentRecord, error)
	mu    sync.Mutex
	calls int
}

func (f *fakeAdapter) Name() string     { return f.name }
func (f *fakeAdapter) Platform() string { return "Fake" }
func (f *fakeAdapter) Scan(ctx context.Context, keyword string) ([]domain.ContentRecord, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	return f.fn(ctx, keyword)
}

func returning(name string, records ...domain.ContentRecord) *fakeAdapter {
	return &fakeAdapter{name: name, fn: func(_ context.Context, keyword string) ([]domain.ContentRecord, error) {
		out := make([]domain.ContentRecord, 0, len(records))
		for _, r := range records {
			out = append(out, source.Stamp(&fakeAdapter{name: name}, keyword, r, r.Title))
		}
		return out, nil
	}}
}

func failing(name string, err error) *fakeAdapter {
	return &fakeAdapter{name: name, fn: func(context.Context, string) ([]domain.ContentRecord, error) {
		return nil, err
	}}
}

func content(title, url string, published time.Time) domain.ContentRecord {
	return domain.ContentRecord{Title: title, Body: title, URL: url, PublishedAt: published}
}

func newOrchestrator(t *testing.T, store *in_mem.InMemStorer, adapters ...source.Adapter) *Orchestrator {
	t.Helper()
	registry, err := source.NewRegistry(adapters...)
	require.NoError(t, err)
	return NewOrchestrator(registry, store)
}

func TestOrchestrator_Scan_PartialFailure(t *testing.T) {
	// Arrange
	store := in_mem.NewInMemStorer()
	o := newOrchestrator(t, store,
		failing("a", errors.New("upstream exploded")),
		returning("b", content("from b", "https://b.example/1", base)),
		returning("c", content("from c", "https://c.example/1", base.Add(-time.Hour))),
	)

	// Act
	outcome, err := o.Scan(context.Background(), domain.ScanRequest{SearchKeyword: "acme"})

	// Assert
	require.NoError(t, err)
	assert.Equal(t, domain.ScanCompletedWithErrors, outcome.State)
	assert.Equal(t, map[string]string{"a": "upstream exploded"}, outcome.Errors)
	require.Len(t, outcome.NewRecords, 2)
	assert.Equal(t, "from b", outcome.NewRecords[0].Title)
	assert.Equal(t, "from c", outcome.NewRecords[1].Title)

	persisted, err := store.ListRecords(context.Background(), storage.RecordFilter{Keyword: "acme"})
	require.NoError(t, err)
	assert.Len(t, persisted, 2)
}

func TestOrchestrator_Scan_KeepsRecordsReturnedWithError(t *testing.T) {
	// Arrange
	partial := &fakeAdapter{name: "partial", fn: func(_ context.Context, keyword string) ([]domain.ContentRecord, error) {
		r := source.Stamp(&fakeAdapter{name: "partial"}, keyword, content("kept", "https://p.example/1", base), "kept")
		return []domain.ContentRecord{r}, errors.New("page 2: timeout")
	}}
	o := newOrchestrator(t, in_mem.NewInMemStorer(), partial)

	// Act
	outcome, err := o.Scan(context.Background(), domain.ScanRequest{SearchKeyword: "acme"})

	// Assert
	require.NoError(t, err)
	assert.Equal(t, domain.ScanCompletedWithErrors, outcome.State)
	assert.Len(t, outcome.NewRecords, 1)
	assert.Equal(t, "page 2: timeout", outcome.Errors["partial"])
}

func TestOrchestrator_Scan_RecoversPanickingAdapter(t *testing.T) {
	boom := &fakeAdapter{name: "boom", fn: func(context.Context, string) ([]domain.ContentRecord, error) {
		panic("nil map")
	}}
	o := newOrchestrator(t, in_mem.NewInMemStorer(), boom, returning("ok", content("fine", "https://ok.example", base)))

	outcome, err := o.Scan(context.Background(), domain.ScanRequest{SearchKeyword: "acme"})

	require.NoError(t, err)
	assert.Contains(t, outcome.Errors["boom"], "nil map")
	assert.Len(t, outcome.NewRecords, 1)
}

func TestOrchestrator_Scan_DedupWithinScan(t *testing.T) {
	// Arrange
	same := content("Same Story", "https://news.example/story", base)
	variant := content("  same story ", "http://www.news.example/story/", base)
	o := newOrchestrator(t, in_mem.NewInMemStorer(),
		returning("first", same, same),
		returning("second", variant),
	)

	// Act
	outcome, err := o.Scan(context.Background(), domain.ScanRequest{SearchKeyword: "acme"})

	// Assert
	require.NoError(t, err)
	assert.Equal(t, domain.ScanCompleted, outcome.State)
	assert.Len(t, outcome.NewRecords, 1)
}

func TestOrchestrator_Scan_Idempotent(t *testing.T) {
	// Arrange
	store := in_mem.NewInMemStorer()
	o := newOrchestrator(t, store,
		returning("b", content("one", "https://b.example/1", base), content("two", "https://b.example/2", base)),
	)
	req := domain.ScanRequest{SearchKeyword: "acme"}

	// Act
	first, err := o.Scan(context.Background(), req)
	require.NoError(t, err)
	second, err := o.Scan(context.Background(), req)
	require.NoError(t, err)

	// Assert
	assert.Len(t, first.NewRecords, 2)
	assert.Empty(t, second.NewRecords)
	assert.Equal(t, domain.ScanCompleted, second.State)
}

func TestOrchestrator_Scan_IgnoresSoftDeletedFingerprints(t *testing.T) {
	// Arrange
	r := content("back again", "https://b.example/1", base)
	deleted := source.Stamp(&fakeAdapter{name: "b"}, "acme", r, r.Title)
	deleted.Fingerprint = "  " + strings.ToUpper(deleted.Fingerprint)
	deleted.Status = domain.RecordDeleted
	active := source.Stamp(&fakeAdapter{name: "b"}, "acme", content("known", "https://b.example/2", base), "known")
	active.Fingerprint = strings.ToUpper(active.Fingerprint)

	store := in_mem.NewInMemStorer(deleted, active)
	o := newOrchestrator(t, store, returning("b", r, content("known", "https://b.example/2", base)))

	// Act
	outcome, err := o.Scan(context.Background(), domain.ScanRequest{SearchKeyword: "acme"})

	// Assert
	require.NoError(t, err)
	require.Len(t, outcome.NewRecords, 1)
	assert.Equal(t, "back again", outcome.NewRecords[0].Title)
}

func TestOrchestrator_Scan_SortedNewestFirst(t *testing.T) {
	o := newOrchestrator(t, in_mem.NewInMemStorer(),
		returning("a", content("a1", "https://a/1", base.Add(-48*time.Hour)), content("a2", "https://a/2", base.Add(time.Hour))),
		returning("b", content("b1", "https://b/1", base), content("b2", "https://b/2", base.Add(-time.Minute))),
	)

	outcome, err := o.Scan(context.Background(), domain.ScanRequest{SearchKeyword: "acme"})

	require.NoError(t, err)
	require.Len(t, outcome.NewRecords, 4)
	for i := 1; i < len(outcome.NewRecords); i++ {
		assert.False(t, outcome.NewRecords[i].PublishedAt.After(outcome.NewRecords[i-1].PublishedAt))
	}
	assert.Equal(t, "a2", outcome.NewRecords[0].Title)
}

func TestOrchestrator_Scan_RequestErrors(t *testing.T) {
	o := newOrchestrator(t, in_mem.NewInMemStorer(), returning("a"))

	t.Run("empty keyword", func(t *testing.T) {
		_, err := o.Scan(context.Background(), domain.ScanRequest{SearchKeyword: "   "})

		var ve *apperr.ValidationError
		assert.ErrorAs(t, err, &ve)
	})

	t.Run("unknown adapter", func(t *testing.T) {
		_, err := o.Scan(context.Background(), domain.ScanRequest{SearchKeyword: "acme", Adapters: []string{"a", "nope"}})

		var ue *apperr.UnknownAdapterError
		require.ErrorAs(t, err, &ue)
		assert.Equal(t, []string{"nope"}, ue.Names)
	})
}

func TestOrchestrator_Scan_SelectsSubset(t *testing.T) {
	a := returning("a", content("a", "https://a/1", base))
	b := returning("b", content("b", "https://b/1", base))
	o := newOrchestrator(t, in_mem.NewInMemStorer(), a, b)

	outcome, err := o.Scan(context.Background(), domain.ScanRequest{SearchKeyword: "acme", Adapters: []string{"b"}})

	require.NoError(t, err)
	require.Len(t, outcome.NewRecords, 1)
	assert.Equal(t, "b", outcome.NewRecords[0].Source)
	assert.Equal(t, 0, a.calls)
	assert.Equal(t, 1, b.calls)
}

func TestOrchestrator_Scan_Cancellation(t *testing.T) {
	// Arrange
	blocking := &fakeAdapter{name: "slow", fn: func(ctx context.Context, _ string) ([]domain.ContentRecord, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}}
	registry, err := source.NewRegistry(blocking, returning("fast", content("quick", "https://f/1", base)))
	require.NoError(t, err)
	o := NewOrchestrator(registry, in_mem.NewInMemStorer(), WithTimeout(50*time.Millisecond))

	// Act
	started := time.Now()
	outcome, err := o.Scan(context.Background(), domain.ScanRequest{SearchKeyword: "acme"})

	// Assert
	require.NoError(t, err)
	assert.Less(t, time.Since(started), 5*time.Second)
	assert.Equal(t, context.DeadlineExceeded.Error(), outcome.Errors["slow"])
	assert.Len(t, outcome.NewRecords, 1)
}

// ctxStore fails like a network-backed store once its context is done.
type ctxStore struct {
	*in_mem.InMemStorer
	block bool
}

func (s *ctxStore) LoadActiveFingerprints(ctx context.Context) (map[string]struct{}, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.InMemStorer.LoadActiveFingerprints(ctx)
}

func (s *ctxStore) AppendRecords(ctx context.Context, records []domain.ContentRecord) error {
	if s.block {
		<-ctx.Done()
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.InMemStorer.AppendRecords(ctx, records)
}

func (s *ctxStore) stored(t *testing.T) map[string]struct{} {
	t.Helper()
	known, err := s.InMemStorer.LoadActiveFingerprints(context.Background())
	require.NoError(t, err)
	return known
}

func slowAndFast(t *testing.T) *source.Registry {
	t.Helper()
	blocking := &fakeAdapter{name: "slow", fn: func(ctx context.Context, _ string) ([]domain.ContentRecord, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}}
	registry, err := source.NewRegistry(blocking, returning("fast", content("quick", "https://f/1", base)))
	require.NoError(t, err)
	return registry
}

func TestOrchestrator_Scan_PersistsAfterDeadline(t *testing.T) {
	t.Run("scan timeout", func(t *testing.T) {
		// Arrange
		store := &ctxStore{InMemStorer: in_mem.NewInMemStorer()}
		o := NewOrchestrator(slowAndFast(t), store, WithTimeout(50*time.Millisecond))

		// Act
		outcome, err := o.Scan(context.Background(), domain.ScanRequest{SearchKeyword: "acme"})

		// Assert
		require.NoError(t, err)
		require.Len(t, outcome.NewRecords, 1)
		assert.Equal(t, domain.ScanCompletedWithErrors, outcome.State)
		assert.Equal(t, context.DeadlineExceeded.Error(), outcome.Errors["slow"])
		assert.Len(t, store.stored(t), 1)
	})

	t.Run("caller cancels", func(t *testing.T) {
		// Arrange
		store := &ctxStore{InMemStorer: in_mem.NewInMemStorer()}
		o := NewOrchestrator(slowAndFast(t), store)
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		time.AfterFunc(50*time.Millisecond, cancel)

		// Act
		outcome, err := o.Scan(ctx, domain.ScanRequest{SearchKeyword: "acme"})

		// Assert
		require.NoError(t, err)
		require.Len(t, outcome.NewRecords, 1)
		assert.Equal(t, context.Canceled.Error(), outcome.Errors["slow"])
		assert.Len(t, store.stored(t), 1)
	})
}

func TestOrchestrator_Scan_StoreTimeout(t *testing.T) {
	// Arrange
	store := &ctxStore{InMemStorer: in_mem.NewInMemStorer(), block: true}
	registry, err := source.NewRegistry(returning("fast", content("quick", "https://f/1", base)))
	require.NoError(t, err)
	o := NewOrchestrator(registry, store, WithStoreTimeout(20*time.Millisecond))

	// Act
	started := time.Now()
	outcome, err := o.Scan(context.Background(), domain.ScanRequest{SearchKeyword: "acme"})

	// Assert
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Nil(t, outcome)
	assert.Less(t, time.Since(started), 5*time.Second)
}

func TestOrchestrator_Scan_Metrics(t *testing.T) {
	// Arrange
	reg := prometheus.NewRegistry()
	metrics := NewMetrics(reg)
	registry, err := source.NewRegistry(
		returning("a", content("x", "https://a/1", base), content("x", "https://a/1", base)),
		failing("b", errors.New("down")),
	)
	require.NoError(t, err)
	o := NewOrchestrator(registry, in_mem.NewInMemStorer(), WithMetrics(metrics))

	// Act
	_, err = o.Scan(context.Background(), domain.ScanRequest{SearchKeyword: "acme"})

	// Assert
	require.NoError(t, err)
	assert.Equal(t, 2.0, testutil.ToFloat64(metrics.RecordsFound.WithLabelValues("a")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.RecordsNew.WithLabelValues("a")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.RecordsDuplicate.WithLabelValues("a")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.AdapterErrors.WithLabelValues("b")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.ScansTotal.WithLabelValues(string(domain.ScanCompletedWithErrors))))
}

// asyncRunner finishes its single job on the second status poll.
type asyncRunner struct {
	mu    sync.Mutex
	polls int
}

func (r *asyncRunner) Submit(context.Context, jobpoll.Spec) (string, error) { return "job-1", nil }

func (r *asyncRunner) Status(context.Context, string) (jobpoll.State, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.polls++
	if r.polls < 2 {
		return jobpoll.State{Status: domain.JobRunning}, nil
	}
	return jobpoll.State{Status: domain.JobSucceeded, ResultLocationID: "ds-1"}, nil
}

func TestOrchestrator_Scan_EndToEnd(t *testing.T) {
	// Arrange
	mockSearch := &fakeAdapter{name: "mockSearch", fn: func(_ context.Context, keyword string) ([]domain.ContentRecord, error) {
		r := content("Acme news", "http://www.Example.com/x/", base)
		return []domain.ContentRecord{source.Stamp(&fakeAdapter{name: "mockSearch"}, keyword, r, r.Body)}, nil
	}}

	runner := &asyncRunner{}
	poller := jobpoll.NewPoller(jobpoll.WithInterval(time.Millisecond), jobpoll.WithMaxAttempts(5))
	mockAsyncJob := &fakeAdapter{name: "mockAsyncJob", fn: func(ctx context.Context, keyword string) ([]domain.ContentRecord, error) {
		texts, err := jobpoll.Collect(ctx, poller, runner, jobpoll.Spec{JobType: "mock", Input: keyword},
			func(context.Context, string) ([]string, error) { return []string{"Acme news"}, nil })
		if err != nil {
			return nil, err
		}
		r := content(texts[0], "https://example.com/x", base)
		return []domain.ContentRecord{source.Stamp(&fakeAdapter{name: "mockAsyncJob"}, keyword, r, r.Body)}, nil
	}}

	o := newOrchestrator(t, in_mem.NewInMemStorer(), mockSearch, mockAsyncJob)

	// Act
	outcome, err := o.Scan(context.Background(), domain.ScanRequest{
		SearchKeyword: "acme",
		Adapters:      []string{"mockSearch", "mockAsyncJob"},
	})

	// Assert
	require.NoError(t, err)
	assert.Equal(t, 2, runner.polls)
	assert.Empty(t, outcome.Errors)
	require.Len(t, outcome.NewRecords, 1)
	assert.Equal(t, normalize.Fingerprint("Acme news", "https://example.com/x"), outcome.NewRecords[0].Fingerprint)
}
