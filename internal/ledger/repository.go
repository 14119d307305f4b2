package ledger

import (
	"context"

	"github.com/goliatone/go-crosspost/internal/domain"
	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Repository is the storage contract for article records and the catalog.
// All writes are durable before the call returns.
type Repository interface {
	// GetRecord loads the record plus its platform outcomes, or
	// ErrRecordNotFound.
	GetRecord(ctx context.Context, key Key) (*ArticleRecord, error)
	// TryBegin atomically claims the record for a new workflow run. Absent or
	// Failed records transition to InProgress and report Started; Succeeded or
	// InProgress records short-circuit without mutation.
	TryBegin(ctx context.Context, key Key) (*BeginResult, error)
	// RecordPlatformOutcome upserts one platform's result for the record.
	RecordPlatformOutcome(ctx context.Context, key Key, platform domain.PlatformID, status domain.Status, url string) error
	// Finalize stores the terminal workflow status and, on success, the
	// canonical URL.
	Finalize(ctx context.Context, key Key, status domain.Status, canonicalURL string) error
	// ListCatalog returns every catalog entry; ordering is not guaranteed.
	ListCatalog(ctx context.Context) ([]*CatalogEntry, error)
	// UpsertCatalogEntry creates or overwrites the entry for its canonical URL.
	UpsertCatalogEntry(ctx context.Context, entry *CatalogEntry) error
}

// NewCatalogRepository builds a go-repository-bun repository keyed by the
// canonical URL identifier.
func NewCatalogRepository(db *bun.DB) repository.Repository[*CatalogEntry] {
	return repository.MustNewRepository(db, repository.ModelHandlers[*CatalogEntry]{
		NewRecord: func() *CatalogEntry { return &CatalogEntry{} },
		GetID: func(e *CatalogEntry) uuid.UUID {
			return e.ID
		},
		SetID: func(e *CatalogEntry, id uuid.UUID) {
			e.ID = id
		},
		GetIdentifier: func() string {
			return "canonical_url"
		},
		GetIdentifierValue: func(e *CatalogEntry) string {
			return e.CanonicalURL
		},
	})
}
