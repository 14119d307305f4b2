package ledger

import (
	"errors"
	"strings"
	"time"

	"github.com/goliatone/go-crosspost/internal/domain"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

var (
	// ErrRecordNotFound reports a missing article record for the supplied key.
	ErrRecordNotFound = errors.New("ledger: article record not found")
	// ErrCatalogEntryNotFound reports a missing catalog entry.
	ErrCatalogEntryNotFound = errors.New("ledger: catalog entry not found")
	// ErrKeyRequired indicates an empty commit or file name in a record key.
	ErrKeyRequired = errors.New("ledger: record key requires commit and file name")
	// ErrCanonicalURLRequired indicates a catalog write without a canonical URL.
	ErrCanonicalURLRequired = errors.New("ledger: canonical url required")
)

// Key identifies one article workflow: the source commit plus the file path
// detected in it. Its string form is "{commit}#{fileName}".
type Key struct {
	Commit   string
	FileName string
}

// String renders the composite record key.
func (k Key) String() string {
	return k.Commit + "#" + k.FileName
}

// Validate reports whether both key components are present.
func (k Key) Validate() error {
	if strings.TrimSpace(k.Commit) == "" || strings.TrimSpace(k.FileName) == "" {
		return ErrKeyRequired
	}
	return nil
}

// PlatformOutcome captures the per-platform result stored on a record.
type PlatformOutcome struct {
	Status domain.Status `json:"status"`
	URL    string        `json:"url,omitempty"`
}

// ArticleRecord is the durable per-article status row. Platform outcomes
// live in their own table so concurrent branches can record results without
// read-modify-write races; they are assembled into Platforms on load.
type ArticleRecord struct {
	bun.BaseModel `bun:"table:article_records,alias:ar"`

	ID           uuid.UUID `bun:",pk,type:uuid" json:"id"`
	RecordKey    string    `bun:"record_key,notnull,unique" json:"record_key"`
	Commit       string    `bun:"commit_sha,notnull" json:"commit"`
	FileName     string    `bun:"file_name,notnull" json:"file_name"`
	Status       string    `bun:"status,notnull,default:'not_started'" json:"status"`
	CanonicalURL string    `bun:"canonical_url" json:"canonical_url,omitempty"`
	CreatedAt    time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at"`
	UpdatedAt    time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at"`

	Platforms map[domain.PlatformID]PlatformOutcome `bun:"-" json:"platforms,omitempty"`
}

// OverallStatus returns the record status as a typed value.
func (r *ArticleRecord) OverallStatus() domain.Status {
	if r == nil {
		return domain.StatusNotStarted
	}
	return domain.NormalizeStatus(r.Status)
}

// PlatformSucceeded reports whether the record already stores a successful
// outcome for the supplied platform, returning the stored URL when it does.
func (r *ArticleRecord) PlatformSucceeded(platform domain.PlatformID) (string, bool) {
	if r == nil {
		return "", false
	}
	outcome, ok := r.Platforms[platform]
	if !ok || outcome.Status != domain.StatusSucceeded {
		return "", false
	}
	return outcome.URL, true
}

// PlatformRecord is one platform's outcome row for an article record.
type PlatformRecord struct {
	bun.BaseModel `bun:"table:article_platform_outcomes,alias:apo"`

	ID        uuid.UUID `bun:",pk,type:uuid" json:"id"`
	RecordKey string    `bun:"record_key,notnull,unique:record_platform" json:"record_key"`
	Platform  string    `bun:"platform,notnull,unique:record_platform" json:"platform"`
	Status    string    `bun:"status,notnull" json:"status"`
	URL       string    `bun:"url" json:"url,omitempty"`
	UpdatedAt time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at"`
}

// CatalogLinks is the JSON document stored on a catalog entry: the canonical
// relative URL plus the per-platform published URLs.
type CatalogLinks struct {
	URL       string                       `json:"url"`
	Platforms map[domain.PlatformID]string `json:"platforms,omitempty"`
}

// CatalogEntry indexes one fully published article for link rewriting. An
// entry exists only for articles whose workflow completed with zero platform
// failures.
type CatalogEntry struct {
	bun.BaseModel `bun:"table:catalog_entries,alias:ce"`

	ID           uuid.UUID    `bun:",pk,type:uuid" json:"id"`
	CanonicalURL string       `bun:"canonical_url,notnull,unique" json:"canonical_url"`
	Title        string       `bun:"title,notnull" json:"title"`
	Links        CatalogLinks `bun:"links,type:jsonb,notnull" json:"links"`
	CreatedAt    time.Time    `bun:"created_at,nullzero,default:current_timestamp" json:"created_at"`
	UpdatedAt    time.Time    `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at"`
}

// PlatformURL returns the published URL stored for the supplied platform.
func (e *CatalogEntry) PlatformURL(platform domain.PlatformID) (string, bool) {
	if e == nil || e.Links.Platforms == nil {
		return "", false
	}
	url, ok := e.Links.Platforms[platform]
	return url, ok && url != ""
}

// BeginResult is the outcome of the dedup guard. Started reports whether the
// caller now owns an InProgress record; otherwise Record carries the existing
// record that short-circuited the request.
type BeginResult struct {
	Started bool
	Record  *ArticleRecord
}
