package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-crosspost/internal/domain"
	"github.com/goliatone/go-repository-bun"
	"github.com/goliatone/go-repository-cache/cache"
	repositorycache "github.com/goliatone/go-repository-cache/repositorycache"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// BunRepository persists article records and catalog entries through bun.
// Article record writes use conditional statements directly so the dedup
// guard and outcome upserts stay atomic; catalog access goes through
// go-repository-bun with optional read caching.
type BunRepository struct {
	db      *bun.DB
	catalog repository.Repository[*CatalogEntry]
	now     func() time.Time
	id      func() uuid.UUID
}

// BunOption configures the repository.
type BunOption func(*BunRepository)

// WithClock overrides the timestamp source (primarily for testing).
func WithClock(clock func() time.Time) BunOption {
	return func(r *BunRepository) {
		if clock != nil {
			r.now = clock
		}
	}
}

// WithIDGenerator overrides row ID generation (primarily for testing).
func WithIDGenerator(generator func() uuid.UUID) BunOption {
	return func(r *BunRepository) {
		if generator != nil {
			r.id = generator
		}
	}
}

// NewBunRepository constructs a ledger repository without catalog caching.
func NewBunRepository(db *bun.DB, opts ...BunOption) *BunRepository {
	return NewBunRepositoryWithCache(db, nil, nil, opts...)
}

// NewBunRepositoryWithCache constructs a ledger repository whose catalog
// reads go through the supplied cache service. Pass nil to skip caching.
func NewBunRepositoryWithCache(db *bun.DB, cacheService cache.CacheService, keySerializer cache.KeySerializer, opts ...BunOption) *BunRepository {
	catalog := NewCatalogRepository(db)
	if cacheService != nil && keySerializer != nil {
		catalog = repositorycache.New(catalog, cacheService, keySerializer)
	}
	r := &BunRepository{
		db:      db,
		catalog: catalog,
		now:     time.Now,
		id:      uuid.New,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

var _ Repository = (*BunRepository)(nil)

// EnsureSchema creates the ledger tables when they do not exist yet.
func EnsureSchema(ctx context.Context, db *bun.DB) error {
	models := []any{
		(*ArticleRecord)(nil),
		(*PlatformRecord)(nil),
		(*CatalogEntry)(nil),
	}
	for _, model := range models {
		if _, err := db.NewCreateTable().Model(model).IfNotExists().Exec(ctx); err != nil {
			return fmt.Errorf("ledger schema: %w", err)
		}
	}
	return nil
}

func (r *BunRepository) GetRecord(ctx context.Context, key Key) (*ArticleRecord, error) {
	record := &ArticleRecord{}
	err := r.db.NewSelect().
		Model(record).
		Where("record_key = ?", key.String()).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRecordNotFound
		}
		return nil, fmt.Errorf("ledger: load record: %w", err)
	}
	if err := r.attachOutcomes(ctx, record); err != nil {
		return nil, err
	}
	return record, nil
}

func (r *BunRepository) TryBegin(ctx context.Context, key Key) (*BeginResult, error) {
	now := r.now()
	fresh := &ArticleRecord{
		ID:        r.id(),
		RecordKey: key.String(),
		Commit:    key.Commit,
		FileName:  key.FileName,
		Status:    string(domain.StatusInProgress),
		CreatedAt: now,
		UpdatedAt: now,
	}

	res, err := r.db.NewInsert().
		Model(fresh).
		On("CONFLICT (record_key) DO NOTHING").
		Exec(ctx)
	if err != nil {
		return nil, fmt.Errorf("ledger: begin insert: %w", err)
	}
	if affected(res) == 1 {
		fresh.Platforms = map[domain.PlatformID]PlatformOutcome{}
		return &BeginResult{Started: true, Record: fresh}, nil
	}

	// The record exists. Only a Failed record may be reclaimed; the guarded
	// update keeps the check-then-set race closed.
	res, err = r.db.NewUpdate().
		Model((*ArticleRecord)(nil)).
		Set("status = ?", string(domain.StatusInProgress)).
		Set("updated_at = ?", now).
		Where("record_key = ?", key.String()).
		Where("status = ?", string(domain.StatusFailed)).
		Exec(ctx)
	if err != nil {
		return nil, fmt.Errorf("ledger: begin reclaim: %w", err)
	}

	record, err := r.GetRecord(ctx, key)
	if err != nil {
		return nil, err
	}
	return &BeginResult{Started: affected(res) == 1, Record: record}, nil
}

func (r *BunRepository) RecordPlatformOutcome(ctx context.Context, key Key, platform domain.PlatformID, status domain.Status, url string) error {
	row := &PlatformRecord{
		ID:        r.id(),
		RecordKey: key.String(),
		Platform:  string(platform),
		Status:    string(status),
		URL:       url,
		UpdatedAt: r.now(),
	}
	_, err := r.db.NewInsert().
		Model(row).
		On("CONFLICT (record_key, platform) DO UPDATE").
		Set("status = EXCLUDED.status").
		Set("url = EXCLUDED.url").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("ledger: record outcome: %w", err)
	}
	return nil
}

func (r *BunRepository) Finalize(ctx context.Context, key Key, status domain.Status, canonicalURL string) error {
	query := r.db.NewUpdate().
		Model((*ArticleRecord)(nil)).
		Set("status = ?", string(status)).
		Set("updated_at = ?", r.now()).
		Where("record_key = ?", key.String())
	if canonicalURL != "" {
		query = query.Set("canonical_url = ?", canonicalURL)
	}
	res, err := query.Exec(ctx)
	if err != nil {
		return fmt.Errorf("ledger: finalize: %w", err)
	}
	if affected(res) == 0 {
		return ErrRecordNotFound
	}
	return nil
}

func (r *BunRepository) ListCatalog(ctx context.Context) ([]*CatalogEntry, error) {
	entries, _, err := r.catalog.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("ledger: list catalog: %w", err)
	}
	return entries, nil
}

func (r *BunRepository) UpsertCatalogEntry(ctx context.Context, entry *CatalogEntry) error {
	if entry == nil || entry.CanonicalURL == "" {
		return ErrCanonicalURLRequired
	}

	now := r.now()
	existing, err := r.catalog.GetByIdentifier(ctx, entry.CanonicalURL)
	switch {
	case err == nil:
		entry.ID = existing.ID
		entry.CreatedAt = existing.CreatedAt
		entry.UpdatedAt = now
		if _, err := r.catalog.Update(ctx, entry); err != nil {
			return fmt.Errorf("ledger: update catalog entry: %w", err)
		}
		return nil
	case goerrors.IsCategory(err, repository.CategoryDatabaseNotFound):
		if entry.ID == uuid.Nil {
			entry.ID = r.id()
		}
		entry.CreatedAt = now
		entry.UpdatedAt = now
		if _, err := r.catalog.Create(ctx, entry); err != nil {
			return fmt.Errorf("ledger: create catalog entry: %w", err)
		}
		return nil
	default:
		return fmt.Errorf("ledger: lookup catalog entry: %w", err)
	}
}

func (r *BunRepository) attachOutcomes(ctx context.Context, record *ArticleRecord) error {
	var rows []*PlatformRecord
	err := r.db.NewSelect().
		Model(&rows).
		Where("record_key = ?", record.RecordKey).
		Scan(ctx)
	if err != nil {
		return fmt.Errorf("ledger: load outcomes: %w", err)
	}
	record.Platforms = make(map[domain.PlatformID]PlatformOutcome, len(rows))
	for _, row := range rows {
		record.Platforms[domain.PlatformID(row.Platform)] = PlatformOutcome{
			Status: domain.NormalizeStatus(row.Status),
			URL:    row.URL,
		}
	}
	return nil
}

func affected(res sql.Result) int64 {
	if res == nil {
		return 0
	}
	count, err := res.RowsAffected()
	if err != nil {
		return 0
	}
	return count
}
