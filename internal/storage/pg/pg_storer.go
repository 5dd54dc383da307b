package pg

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/ozgurerrdem/persona-watch/internal/domain"
	"github.com/ozgurerrdem/persona-watch/internal/normalize"
	"github.com/ozgurerrdem/persona-watch/internal/storage"
)

const (
	contentsTable    = "news_contents"
	defaultListLimit = 100
)

var contentColumns = []string{
	"id", "title", "body", "url", "platform", "publisher", "search_keyword",
	"published_at", "fingerprint", "source", "status", "created_at",
	"like_count", "dislike_count", "comment_count", "view_count",
	"share_count", "quote_count", "bookmark_count",
}

type Storer struct {
	db *pgxpool.Pool
}

func NewStorer(pool *ConnectionPool) *Storer {
	return &Storer{db: pool.conn}
}

func (s *Storer) LoadActiveFingerprints(ctx context.Context) (map[string]struct{}, error) {
	rows, err := s.db.Query(ctx,
		`SELECT fingerprint FROM news_contents WHERE status = $1`, string(domain.RecordActive))
	if err != nil {
		return nil, fmt.Errorf("failed to query fingerprints: %w", err)
	}
	defer rows.Close()

	known := make(map[string]struct{})
	for rows.Next() {
		var fp string
		if err := rows.Scan(&fp); err != nil {
			return nil, fmt.Errorf("failed to scan fingerprint: %w", err)
		}
		known[normalize.CanonicalFingerprint(fp)] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read fingerprints: %w", err)
	}
	return known, nil
}

// AppendRecords copies all records in one transaction; nothing is written when any row fails.
func (s *Storer) AppendRecords(ctx context.Context, records []domain.ContentRecord) error {
	if len(records) == 0 {
		return nil
	}

	rows := make([][]any, len(records))
	for i, r := range records {
		if r.ID == uuid.Nil {
			r.ID = uuid.New()
		}
		if r.Status == "" {
			r.Status = domain.RecordActive
		}
		rows[i] = []any{
			r.ID, r.Title, r.Body, r.URL, r.Platform, r.Publisher, r.SearchKeyword,
			r.PublishedAt.UTC(), r.Fingerprint, r.Source, string(r.Status), r.CreatedAt.UTC(),
			r.Likes, r.Dislikes, r.Comments, r.Views, r.Shares, r.Quotes, r.Bookmarks,
		}
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	n, err := tx.CopyFrom(ctx, pgx.Identifier{contentsTable}, contentColumns, pgx.CopyFromRows(rows))
	if err != nil {
		return fmt.Errorf("failed to bulk insert contents: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit contents: %w", err)
	}

	slog.Info("contents stored", "count", n)
	return nil
}

func (s *Storer) ListRecords(ctx context.Context, filter storage.RecordFilter) ([]domain.ContentRecord, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}
	query := `
		SELECT ` + strings.Join(contentColumns, ", ") + `
		FROM news_contents
		WHERE status = $1
		  AND ($2 = '' OR lower(search_keyword) = lower($2))
		  AND ($3::timestamptz IS NULL OR published_at >= $3)
		  AND ($4::timestamptz IS NULL OR published_at < $4)
		ORDER BY published_at DESC
		LIMIT $5`

	rows, err := s.db.Query(ctx, query,
		string(domain.RecordActive),
		strings.TrimSpace(filter.Keyword),
		nullableTime(filter.PublishedFrom),
		nullableTime(filter.PublishedBefore),
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query contents: %w", err)
	}
	defer rows.Close()

	var out []domain.ContentRecord
	for rows.Next() {
		var (
			r      domain.ContentRecord
			status string
		)
		if err := rows.Scan(
			&r.ID, &r.Title, &r.Body, &r.URL, &r.Platform, &r.Publisher, &r.SearchKeyword,
			&r.PublishedAt, &r.Fingerprint, &r.Source, &status, &r.CreatedAt,
			&r.Likes, &r.Dislikes, &r.Comments, &r.Views, &r.Shares, &r.Quotes, &r.Bookmarks,
		); err != nil {
			return nil, fmt.Errorf("failed to scan content: %w", err)
		}
		r.Status = domain.RecordStatus(status)
		r.PublishedAt = r.PublishedAt.UTC()
		r.CreatedAt = r.CreatedAt.UTC()
		out = append(out, r)
	}
	return out, rows.Err()
}

func nullableTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	u := t.UTC()
	return &u
}

// SoftDelete flags a record as deleted so its fingerprint is no longer treated as known.
func (s *Storer) SoftDelete(ctx context.Context, id uuid.UUID) (bool, error) {
	tag, err := s.db.Exec(ctx, `UPDATE news_contents SET status = $1 WHERE id = $2`, string(domain.RecordDeleted), id)
	if err != nil {
		return false, fmt.Errorf("failed to soft delete content: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

var (
	_ storage.ContentStore = (*Storer)(nil)
	_ storage.RecordLister = (*Storer)(nil)
)
