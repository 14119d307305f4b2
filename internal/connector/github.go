package connector

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goliatone/go-crosspost/internal/logging"
	"github.com/goliatone/go-crosspost/pkg/interfaces"
)

const (
	// DefaultTolerance is how far back one polling pass looks for commits.
	DefaultTolerance = 10 * time.Minute
	// DefaultCommitPrefix marks commits that carry publishable content.
	DefaultCommitPrefix = "[blog]"

	defaultAPIBaseURL = "https://api.github.com"
)

var (
	// ErrRepositoryRequired indicates a connector without owner/repo.
	ErrRepositoryRequired = errors.New("connector: repository owner and name required")
	// ErrContentPathRequired indicates a connector without a content path filter.
	ErrContentPathRequired = errors.New("connector: content path required")
)

// Config describes the repository to watch and the filters that select
// publishable files from it.
type Config struct {
	Owner           string
	Repo            string
	Branch          string
	ContentPath     string
	CommitPrefix    string
	Tolerance       time.Duration
	Token           string
	APIBaseURL      string
	SendStatusEmail bool
}

// GitHub polls a repository for freshly added content files. Each polling
// pass inspects commits in the tolerance window whose message carries the
// configured prefix, and emits one work item per file added under the content
// path. The connector holds no state of its own; the downstream dedup guard
// keeps overlapping windows harmless.
type GitHub struct {
	cfg    Config
	client *http.Client
	logger interfaces.Logger
	now    func() time.Time
}

// Option configures the connector.
type Option func(*GitHub)

// WithHTTPClient swaps the transport client.
func WithHTTPClient(client *http.Client) Option {
	return func(g *GitHub) {
		if client != nil {
			g.client = client
		}
	}
}

// WithLogger sets the connector logger.
func WithLogger(logger interfaces.Logger) Option {
	return func(g *GitHub) {
		if logger != nil {
			g.logger = logger
		}
	}
}

// WithClock overrides the window clock, used by tests.
func WithClock(now func() time.Time) Option {
	return func(g *GitHub) {
		if now != nil {
			g.now = now
		}
	}
}

// NewGitHub builds a connector for the configured repository.
func NewGitHub(cfg Config, opts ...Option) (*GitHub, error) {
	if cfg.Owner == "" || cfg.Repo == "" {
		return nil, ErrRepositoryRequired
	}
	if cfg.ContentPath == "" {
		return nil, ErrContentPathRequired
	}
	if cfg.CommitPrefix == "" {
		cfg.CommitPrefix = DefaultCommitPrefix
	}
	if cfg.Tolerance <= 0 {
		cfg.Tolerance = DefaultTolerance
	}
	if cfg.APIBaseURL == "" {
		cfg.APIBaseURL = defaultAPIBaseURL
	}
	cfg.APIBaseURL = strings.TrimRight(cfg.APIBaseURL, "/")

	g := &GitHub{
		cfg:    cfg,
		client: &http.Client{Timeout: 30 * time.Second},
		logger: logging.NoOp(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g, nil
}

var _ interfaces.Connector = (*GitHub)(nil)

type commitSummary struct {
	SHA    string `json:"sha"`
	Commit struct {
		Message string `json:"message"`
	} `json:"commit"`
}

type commitDetail struct {
	SHA   string `json:"sha"`
	Files []struct {
		Filename string `json:"filename"`
		Status   string `json:"status"`
	} `json:"files"`
}

type contentDocument struct {
	Content  string `json:"content"`
	Encoding string `json:"encoding"`
}

// Detect returns work items for content files added within the tolerance
// window. A commit that cannot be inspected is logged and skipped; the next
// pass picks it up again while the window still covers it.
func (g *GitHub) Detect(ctx context.Context) ([]interfaces.WorkItem, error) {
	since := g.now().Add(-g.cfg.Tolerance)

	commits, err := g.listCommits(ctx, since)
	if err != nil {
		return nil, err
	}

	var items []interfaces.WorkItem
	for _, summary := range commits {
		if !strings.HasPrefix(summary.Commit.Message, g.cfg.CommitPrefix) {
			continue
		}

		detail, err := g.commitDetail(ctx, summary.SHA)
		if err != nil {
			g.logger.Warn("commit inspection failed, skipping",
				"commit", summary.SHA, "error", err)
			continue
		}

		for _, file := range detail.Files {
			if file.Status != "added" || !strings.HasPrefix(file.Filename, g.cfg.ContentPath) {
				continue
			}

			content, err := g.fileContent(ctx, file.Filename, summary.SHA)
			if err != nil {
				g.logger.Warn("content fetch failed, skipping",
					"commit", summary.SHA, "file_name", file.Filename, "error", err)
				continue
			}

			items = append(items, interfaces.WorkItem{
				FileName:        file.Filename,
				Commit:          summary.SHA,
				Content:         content,
				SendStatusEmail: g.cfg.SendStatusEmail,
			})
		}
	}

	g.logger.Info("polling pass complete",
		"since", since.Format(time.RFC3339), "commits", len(commits), "items", len(items))
	return items, nil
}

func (g *GitHub) listCommits(ctx context.Context, since time.Time) ([]commitSummary, error) {
	endpoint := fmt.Sprintf("%s/repos/%s/%s/commits?since=%s",
		g.cfg.APIBaseURL, g.cfg.Owner, g.cfg.Repo,
		url.QueryEscape(since.UTC().Format(time.RFC3339)))
	if g.cfg.Branch != "" {
		endpoint += "&sha=" + url.QueryEscape(g.cfg.Branch)
	}

	var commits []commitSummary
	if err := g.get(ctx, endpoint, &commits); err != nil {
		return nil, fmt.Errorf("connector: list commits: %w", err)
	}
	return commits, nil
}

func (g *GitHub) commitDetail(ctx context.Context, sha string) (*commitDetail, error) {
	endpoint := fmt.Sprintf("%s/repos/%s/%s/commits/%s",
		g.cfg.APIBaseURL, g.cfg.Owner, g.cfg.Repo, sha)

	detail := &commitDetail{}
	if err := g.get(ctx, endpoint, detail); err != nil {
		return nil, err
	}
	return detail, nil
}

func (g *GitHub) fileContent(ctx context.Context, path, ref string) (string, error) {
	endpoint := fmt.Sprintf("%s/repos/%s/%s/contents/%s?ref=%s",
		g.cfg.APIBaseURL, g.cfg.Owner, g.cfg.Repo, path, url.QueryEscape(ref))

	doc := &contentDocument{}
	if err := g.get(ctx, endpoint, doc); err != nil {
		return "", err
	}

	if doc.Encoding != "" && doc.Encoding != "base64" {
		return "", fmt.Errorf("connector: unexpected content encoding %q", doc.Encoding)
	}
	decoded, err := base64.StdEncoding.DecodeString(strings.ReplaceAll(doc.Content, "\n", ""))
	if err != nil {
		return "", fmt.Errorf("connector: decode content: %w", err)
	}
	return string(decoded), nil
}

func (g *GitHub) get(ctx context.Context, endpoint string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	if g.cfg.Token != "" {
		req.Header.Set("Authorization", "Bearer "+g.cfg.Token)
	}

	res, err := g.client.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("connector: upstream status %d", res.StatusCode)
	}
	return json.NewDecoder(res.Body).Decode(out)
}
