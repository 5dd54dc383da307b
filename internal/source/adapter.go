// Package source defines the scan capability every content source implements and
// the registry the orchestrator resolves adapters from.
package source

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/ozgurerrdem/persona-watch/internal/domain"
	"github.com/ozgurerrdem/persona-watch/internal/normalize"
)

// Adapter scans one external source for a keyword.
// Zero results is a successful empty scan; errors are reserved for conditions
// the adapter cannot recover from. An adapter whose work is split into several
// requests may return the records it got together with an error for the rest.
type Adapter interface {
	// Name is the stable identifier used for selection and error attribution.
	Name() string
	// Platform is the display category stamped on records ("YouTube", "X").
	Platform() string
	Scan(ctx context.Context, keyword string) ([]domain.ContentRecord, error)
}

// Stamp completes a record mapped from source data: identity, status, provenance
// and the fingerprint over fingerprintText and the record URL.
func Stamp(a Adapter, keyword string, r domain.ContentRecord, fingerprintText string) domain.ContentRecord {
	return StampURL(a, keyword, r, fingerprintText, r.URL)
}

// StampURL is Stamp for sources whose dedup URL differs from the display URL.
func StampURL(a Adapter, keyword string, r domain.ContentRecord, fingerprintText, fingerprintURL string) domain.ContentRecord {
	r.ID = uuid.New()
	r.Source = a.Name()
	if r.Platform == "" {
		r.Platform = a.Platform()
	}
	r.SearchKeyword = strings.TrimSpace(keyword)
	r.Status = domain.RecordActive
	r.CreatedAt = time.Now().UTC()
	r.PublishedAt = r.PublishedAt.UTC()
	r.Fingerprint = normalize.Fingerprint(fingerprintText, fingerprintURL)
	return r
}
