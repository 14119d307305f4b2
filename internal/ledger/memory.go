package ledger

import (
	"context"
	"sync"
	"time"

	"github.com/goliatone/go-crosspost/internal/domain"
	"github.com/google/uuid"
)

// Memory is a deterministic in-memory Repository used by tests and dry runs.
// It mirrors the conditional-write semantics of the bun implementation.
type Memory struct {
	mu      sync.Mutex
	records map[string]*ArticleRecord
	catalog map[string]*CatalogEntry
	now     func() time.Time
}

// MemoryOption configures the in-memory repository.
type MemoryOption func(*Memory)

// WithMemoryClock overrides the internal clock, used mainly for tests.
func WithMemoryClock(clock func() time.Time) MemoryOption {
	return func(m *Memory) {
		if clock != nil {
			m.now = clock
		}
	}
}

// NewMemory constructs an empty in-memory repository.
func NewMemory(opts ...MemoryOption) *Memory {
	m := &Memory{
		records: map[string]*ArticleRecord{},
		catalog: map[string]*CatalogEntry{},
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

var _ Repository = (*Memory)(nil)

func (m *Memory) GetRecord(ctx context.Context, key Key) (*ArticleRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	record, ok := m.records[key.String()]
	if !ok {
		return nil, ErrRecordNotFound
	}
	return cloneRecord(record), nil
}

func (m *Memory) TryBegin(ctx context.Context, key Key) (*BeginResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	record, ok := m.records[key.String()]
	if !ok {
		record = &ArticleRecord{
			ID:        uuid.New(),
			RecordKey: key.String(),
			Commit:    key.Commit,
			FileName:  key.FileName,
			Status:    string(domain.StatusInProgress),
			Platforms: map[domain.PlatformID]PlatformOutcome{},
			CreatedAt: now,
			UpdatedAt: now,
		}
		m.records[key.String()] = record
		return &BeginResult{Started: true, Record: cloneRecord(record)}, nil
	}

	if record.OverallStatus() == domain.StatusFailed {
		record.Status = string(domain.StatusInProgress)
		record.UpdatedAt = now
		return &BeginResult{Started: true, Record: cloneRecord(record)}, nil
	}

	return &BeginResult{Started: false, Record: cloneRecord(record)}, nil
}

func (m *Memory) RecordPlatformOutcome(ctx context.Context, key Key, platform domain.PlatformID, status domain.Status, url string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	record, ok := m.records[key.String()]
	if !ok {
		return ErrRecordNotFound
	}
	if record.Platforms == nil {
		record.Platforms = map[domain.PlatformID]PlatformOutcome{}
	}
	record.Platforms[platform] = PlatformOutcome{Status: status, URL: url}
	record.UpdatedAt = m.now()
	return nil
}

func (m *Memory) Finalize(ctx context.Context, key Key, status domain.Status, canonicalURL string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	record, ok := m.records[key.String()]
	if !ok {
		return ErrRecordNotFound
	}
	record.Status = string(status)
	if canonicalURL != "" {
		record.CanonicalURL = canonicalURL
	}
	record.UpdatedAt = m.now()
	return nil
}

func (m *Memory) ListCatalog(ctx context.Context) ([]*CatalogEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	entries := make([]*CatalogEntry, 0, len(m.catalog))
	for _, entry := range m.catalog {
		entries = append(entries, cloneEntry(entry))
	}
	return entries, nil
}

func (m *Memory) UpsertCatalogEntry(ctx context.Context, entry *CatalogEntry) error {
	if entry == nil || entry.CanonicalURL == "" {
		return ErrCanonicalURLRequired
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	stored := cloneEntry(entry)
	if existing, ok := m.catalog[entry.CanonicalURL]; ok {
		stored.ID = existing.ID
		stored.CreatedAt = existing.CreatedAt
	} else {
		if stored.ID == uuid.Nil {
			stored.ID = uuid.New()
		}
		stored.CreatedAt = now
	}
	stored.UpdatedAt = now
	m.catalog[entry.CanonicalURL] = stored
	return nil
}

func cloneRecord(record *ArticleRecord) *ArticleRecord {
	if record == nil {
		return nil
	}
	cloned := *record
	cloned.Platforms = make(map[domain.PlatformID]PlatformOutcome, len(record.Platforms))
	for platform, outcome := range record.Platforms {
		cloned.Platforms[platform] = outcome
	}
	return &cloned
}

func cloneEntry(entry *CatalogEntry) *CatalogEntry {
	if entry == nil {
		return nil
	}
	cloned := *entry
	if entry.Links.Platforms != nil {
		cloned.Links.Platforms = make(map[domain.PlatformID]string, len(entry.Links.Platforms))
		for platform, url := range entry.Links.Platforms {
			cloned.Links.Platforms[platform] = url
		}
	}
	return &cloned
}
