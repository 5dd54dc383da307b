package es

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esutil"
	"github.com/elastic/go-elasticsearch/v8/typedapi/types"
	"github.com/elastic/go-elasticsearch/v8/typedapi/types/enums/sortorder"
	"github.com/ozgurerrdem/persona-watch/internal/domain"
	"github.com/ozgurerrdem/persona-watch/internal/normalize"
	"github.com/ozgurerrdem/persona-watch/internal/storage"
)

const (
	fingerprintPageSize = 1000
	defaultListLimit    = 100
)

type Storer struct {
	client    *elasticsearch.TypedClient
	indexName string
}

func NewStorer(ctx context.Context, config ClientConfig) (*Storer, error) {
	client, err := newClient(config)
	if err != nil {
		return nil, fmt.Errorf("failed to create Elasticsearch client: %w", err)
	}
	s := &Storer{
		client:    client,
		indexName: config.IndexName,
	}

	if err := s.EnsureIndex(ctx); err != nil {
		return nil, fmt.Errorf("failed to ensure index exists: %w", err)
	}
	return s, nil
}

func (e *Storer) EnsureIndex(ctx context.Context) error {
	exists, err := e.client.Indices.Exists(e.indexName).Do(ctx)
	if err != nil {
		return fmt.Errorf("failed to check if index exists: %w", err)
	}
	if exists {
		slog.Debug("Index already exists", "index", e.indexName)
		return nil
	}

	res, err := e.client.Indices.Create(e.indexName).Mappings(contentMappings()).Do(ctx)
	if err != nil {
		return fmt.Errorf("failed to create index: %w", err)
	}
	if !res.Acknowledged {
		return fmt.Errorf("index creation was not acknowledged")
	}

	slog.Info("Index created successfully", "index", e.indexName)
	return nil
}

func activeFilter() types.Query {
	return types.Query{Term: map[string]types.TermQuery{
		"status": {Value: string(domain.RecordActive)},
	}}
}

// LoadActiveFingerprints pages through active documents sorted by fingerprint using search_after.
func (e *Storer) LoadActiveFingerprints(ctx context.Context) (map[string]struct{}, error) {
	known := make(map[string]struct{})
	asc := sortorder.Asc
	query := activeFilter()

	var after []types.FieldValue
	for {
		req := e.client.Search().
			Index(e.indexName).
			Query(&query).
			Size(fingerprintPageSize).
			Sort(&types.SortOptions{
				SortOptions: map[string]types.FieldSort{"fingerprint": {Order: &asc}},
			})
		if after != nil {
			req = req.SearchAfter(after...)
		}

		res, err := req.Do(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to search fingerprints: %w", err)
		}

		for _, hit := range res.Hits.Hits {
			var doc struct {
				Fingerprint string `json:"fingerprint"`
			}
			if err := json.Unmarshal(hit.Source_, &doc); err != nil {
				return nil, fmt.Errorf("failed to unmarshal document: %w", err)
			}
			known[normalize.CanonicalFingerprint(doc.Fingerprint)] = struct{}{}
		}

		if len(res.Hits.Hits) < fingerprintPageSize {
			return known, nil
		}
		after = res.Hits.Hits[len(res.Hits.Hits)-1].Sort
	}
}

// AppendRecords bulk indexes the records and waits for a refresh so the next
// fingerprint load sees them.
func (e *Storer) AppendRecords(ctx context.Context, records []domain.ContentRecord) error {
	if len(records) == 0 {
		return nil
	}

	bi, err := esutil.NewBulkIndexer(esutil.BulkIndexerConfig{
		Index:      e.indexName,
		Client:     e.client,
		NumWorkers: 2,
		FlushBytes: 5e+6, // 5MB
		Refresh:    "wait_for",
	})
	if err != nil {
		return fmt.Errorf("failed to create bulk indexer: %w", err)
	}

	var successful, failed atomic.Int64
	now := time.Now().UTC()

	for _, r := range records {
		doc := toDocument(r, now)
		body, err := json.Marshal(doc)
		if err != nil {
			failed.Add(1)
			slog.Error("failed to marshal document", "error", err, "id", doc.ID)
			continue
		}

		err = bi.Add(ctx, esutil.BulkIndexerItem{
			Action:     "index",
			DocumentID: doc.ID,
			Body:       bytes.NewReader(body),
			OnSuccess: func(context.Context, esutil.BulkIndexerItem, esutil.BulkIndexerResponseItem) {
				successful.Add(1)
			},
			OnFailure: func(_ context.Context, item esutil.BulkIndexerItem, res esutil.BulkIndexerResponseItem, err error) {
				failed.Add(1)
				if err != nil {
					slog.Error("bulk index error", "error", err, "id", item.DocumentID)
				} else {
					slog.Error("bulk index error", "status", res.Status, "error", res.Error.Type, "reason", res.Error.Reason, "id", item.DocumentID)
				}
			},
		})
		if err != nil {
			failed.Add(1)
			slog.Error("failed to add document to bulk indexer", "error", err, "id", doc.ID)
		}
	}

	if err := bi.Close(ctx); err != nil {
		return fmt.Errorf("failed to close bulk indexer: %w", err)
	}

	slog.Info("Bulk indexing completed",
		"successful", successful.Load(),
		"failed", failed.Load(),
		"total", len(records),
		"index", e.indexName)

	if n := failed.Load(); n > 0 {
		return fmt.Errorf("failed to index %d out of %d records", n, len(records))
	}
	return nil
}

func (e *Storer) ListRecords(ctx context.Context, filter storage.RecordFilter) ([]domain.ContentRecord, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}

	filters := []types.Query{activeFilter()}
	if keyword := strings.TrimSpace(filter.Keyword); keyword != "" {
		insensitive := true
		filters = append(filters, types.Query{Term: map[string]types.TermQuery{
			"search_keyword": {Value: keyword, CaseInsensitive: &insensitive},
		}})
	}
	if published, ok := publishedRange(filter); ok {
		filters = append(filters, types.Query{Range: map[string]types.RangeQuery{
			"published_at": published,
		}})
	}

	desc := sortorder.Desc
	res, err := e.client.Search().
		Index(e.indexName).
		Query(&types.Query{Bool: &types.BoolQuery{Filter: filters}}).
		Size(limit).
		Sort(&types.SortOptions{
			SortOptions: map[string]types.FieldSort{"published_at": {Order: &desc}},
		}).
		Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to search contents: %w", err)
	}

	out := make([]domain.ContentRecord, 0, len(res.Hits.Hits))
	for _, hit := range res.Hits.Hits {
		var doc ContentDocument
		if err := json.Unmarshal(hit.Source_, &doc); err != nil {
			return nil, fmt.Errorf("failed to unmarshal document: %w", err)
		}
		r, err := doc.toDomain()
		if err != nil {
			return nil, fmt.Errorf("document %s: %w", doc.ID, err)
		}
		out = append(out, r)
	}
	return out, nil
}

// publishedRange turns the date bounds of filter into a published_at range, when any is set.
func publishedRange(filter storage.RecordFilter) (types.DateRangeQuery, bool) {
	var q types.DateRangeQuery
	if !filter.PublishedFrom.IsZero() {
		from := filter.PublishedFrom.UTC().Format(time.RFC3339)
		q.Gte = &from
	}
	if !filter.PublishedBefore.IsZero() {
		before := filter.PublishedBefore.UTC().Format(time.RFC3339)
		q.Lt = &before
	}
	return q, q.Gte != nil || q.Lt != nil
}

var (
	_ storage.ContentStore = (*Storer)(nil)
	_ storage.RecordLister = (*Storer)(nil)
)

// Healthy pings the cluster.
func (e *Storer) Healthy(ctx context.Context) bool {
	ok, err := e.client.Ping().Do(ctx)
	if err != nil {
		slog.Warn("Elasticsearch ping failed", "error", err)
		return false
	}
	return ok
}
