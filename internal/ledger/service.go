package ledger

import (
	"context"

	"github.com/goliatone/go-crosspost/internal/domain"
	"github.com/goliatone/go-crosspost/internal/logging"
	"github.com/goliatone/go-crosspost/pkg/interfaces"
)

// Service fronts the ledger repository with key validation and logging. The
// orchestrator talks to this type, never to storage directly.
type Service struct {
	repo   Repository
	logger interfaces.Logger
}

// ServiceOption configures the ledger service.
type ServiceOption func(*Service)

// WithLogger injects the service logger. Defaults to a no-op logger.
func WithLogger(logger interfaces.Logger) ServiceOption {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewService wraps the supplied repository.
func NewService(repo Repository, opts ...ServiceOption) *Service {
	s := &Service{
		repo:   repo,
		logger: logging.NoOp(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// GetRecord loads the article record for the key.
func (s *Service) GetRecord(ctx context.Context, key Key) (*ArticleRecord, error) {
	if err := key.Validate(); err != nil {
		return nil, err
	}
	return s.repo.GetRecord(ctx, key)
}

// TryBegin runs the dedup guard: a Begin result means the caller owns an
// InProgress record; a short-circuit returns the existing record untouched.
func (s *Service) TryBegin(ctx context.Context, key Key) (*BeginResult, error) {
	if err := key.Validate(); err != nil {
		return nil, err
	}
	result, err := s.repo.TryBegin(ctx, key)
	if err != nil {
		return nil, err
	}
	if !result.Started {
		s.logger.Info("ledger.begin.short_circuit",
			"record_key", key.String(),
			"status", result.Record.OverallStatus(),
		)
	}
	return result, nil
}

// RecordPlatformOutcome stores one platform's result for the record.
func (s *Service) RecordPlatformOutcome(ctx context.Context, key Key, platform domain.PlatformID, status domain.Status, url string) error {
	if err := key.Validate(); err != nil {
		return err
	}
	return s.repo.RecordPlatformOutcome(ctx, key, platform, status, url)
}

// Finalize stores the terminal workflow status.
func (s *Service) Finalize(ctx context.Context, key Key, status domain.Status, canonicalURL string) error {
	if err := key.Validate(); err != nil {
		return err
	}
	return s.repo.Finalize(ctx, key, status, canonicalURL)
}

// ListCatalog returns the full, unordered catalog. The catalog stays small
// relative to lookup frequency, so a full scan is acceptable.
func (s *Service) ListCatalog(ctx context.Context) ([]*CatalogEntry, error) {
	return s.repo.ListCatalog(ctx)
}

// UpsertCatalogEntry writes the catalog entry for a fully published article.
// Callers must only invoke this after a zero-failure workflow run.
func (s *Service) UpsertCatalogEntry(ctx context.Context, entry *CatalogEntry) error {
	if entry == nil || entry.CanonicalURL == "" {
		return ErrCanonicalURLRequired
	}
	return s.repo.UpsertCatalogEntry(ctx, entry)
}
