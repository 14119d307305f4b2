package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/goliatone/go-crosspost/internal/domain"
	"github.com/goliatone/go-crosspost/internal/formatter"
	"github.com/goliatone/go-crosspost/internal/ledger"
	"github.com/goliatone/go-crosspost/internal/logging"
	"github.com/goliatone/go-crosspost/internal/post"
	"github.com/goliatone/go-crosspost/internal/publisher"
	"github.com/goliatone/go-crosspost/internal/resolver"
	"github.com/goliatone/go-crosspost/pkg/interfaces"
	"github.com/google/uuid"
)

// DefaultTimeout bounds one work item run end to end.
const DefaultTimeout = 5 * time.Minute

var (
	// ErrNoTargets indicates the orchestrator was built without destinations.
	ErrNoTargets = errors.New("orchestrator: at least one platform target required")
	// ErrCanonicalTargetMissing indicates the configured canonical platform has
	// no matching target.
	ErrCanonicalTargetMissing = errors.New("orchestrator: canonical platform has no target")
)

// Target binds a formatter to the request template used to reach its
// platform. The template's body is filled per run by the formatter.
type Target struct {
	Formatter formatter.Formatter
	Request   publisher.Request
}

// RunError reports a run that ended with failed branches. Branch errors are
// keyed by platform so callers can tell deterministic rejections apart.
type RunError struct {
	Key      ledger.Key
	Branches map[domain.PlatformID]error
}

func (e *RunError) Error() string {
	platforms := make([]string, 0, len(e.Branches))
	for platform := range e.Branches {
		platforms = append(platforms, string(platform))
	}
	sort.Strings(platforms)
	return fmt.Sprintf("orchestrator: run %s failed on %s", e.Key.String(), strings.Join(platforms, ", "))
}

// Orchestrator drives one article through the cross-posting workflow: claim
// the record, resolve cross-links against the catalog, publish the canonical
// platform first when one is configured, fan out to the rest, then converge
// on a terminal status. A re-run of a failed article retries only the
// branches that have not yet succeeded.
type Orchestrator struct {
	ledger      *ledger.Service
	publisher   *publisher.Publisher
	notifier    Notifier
	targets     []Target
	canonical   domain.PlatformID
	blogBaseURL string
	timeout     time.Duration
	logger      interfaces.Logger
	newID       func() string
}

// Notifier is the outcome-notification surface the orchestrator needs.
type Notifier interface {
	NotifySuccess(ctx context.Context, fileName string, record *ledger.ArticleRecord) error
	NotifyFailure(ctx context.Context, fileName, executionID string, record *ledger.ArticleRecord) error
}

// Option configures the orchestrator.
type Option func(*Orchestrator)

// WithLogger sets the workflow logger.
func WithLogger(logger interfaces.Logger) Option {
	return func(o *Orchestrator) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithTimeout bounds one run. Defaults to DefaultTimeout.
func WithTimeout(timeout time.Duration) Option {
	return func(o *Orchestrator) {
		if timeout > 0 {
			o.timeout = timeout
		}
	}
}

// WithNotifier enables outcome notifications for items that request them.
func WithNotifier(notifier Notifier) Option {
	return func(o *Orchestrator) {
		o.notifier = notifier
	}
}

// WithCanonicalPlatform selects which platform owns the canonical URL. The
// default is the source blog itself.
func WithCanonicalPlatform(platform domain.PlatformID) Option {
	return func(o *Orchestrator) {
		if platform != "" {
			o.canonical = platform
		}
	}
}

// WithIDGenerator overrides execution id generation, used by tests.
func WithIDGenerator(generator func() string) Option {
	return func(o *Orchestrator) {
		if generator != nil {
			o.newID = generator
		}
	}
}

// New builds an orchestrator over the supplied collaborators. blogBaseURL is
// the source blog root used to absolutize canonical and catalog URLs.
func New(svc *ledger.Service, pub *publisher.Publisher, blogBaseURL string, targets []Target, opts ...Option) (*Orchestrator, error) {
	if len(targets) == 0 {
		return nil, ErrNoTargets
	}
	o := &Orchestrator{
		ledger:      svc,
		publisher:   pub,
		targets:     targets,
		canonical:   domain.PlatformBlog,
		blogBaseURL: strings.TrimRight(blogBaseURL, "/"),
		timeout:     DefaultTimeout,
		logger:      logging.NoOp(),
		newID:       uuid.NewString,
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.canonical != domain.PlatformBlog && o.findTarget(o.canonical) == nil {
		return nil, ErrCanonicalTargetMissing
	}
	return o, nil
}

var _ interfaces.WorkItemProcessor = (*Orchestrator)(nil)

type branchResult struct {
	platform domain.PlatformID
	url      string
	err      error
}

// Process runs one work item to a terminal state. It returns nil both for a
// converged run and for a short-circuited duplicate; a run with failed
// branches returns a *RunError after its partial progress is persisted.
func (o *Orchestrator) Process(ctx context.Context, item interfaces.WorkItem) error {
	ctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	executionID := o.newID()
	key := ledger.Key{Commit: item.Commit, FileName: item.FileName}
	log := logging.WithWorkItemContext(o.logger, item.FileName, item.Commit, executionID)

	begin, err := o.ledger.TryBegin(ctx, key)
	if err != nil {
		return fmt.Errorf("orchestrator: begin %s: %w", key.String(), err)
	}
	if !begin.Started {
		log.Info("duplicate work item, skipping",
			"status", begin.Record.OverallStatus())
		return nil
	}
	record := begin.Record

	parsed, err := post.Parse([]byte(item.Content))
	if err != nil {
		return o.fail(ctx, log, item, key, executionID, "", map[domain.PlatformID]error{}, fmt.Errorf("orchestrator: parse %s: %w", item.FileName, err))
	}

	entries, err := o.ledger.ListCatalog(ctx)
	if err != nil {
		return o.fail(ctx, log, item, key, executionID, "", map[domain.PlatformID]error{}, fmt.Errorf("orchestrator: load catalog: %w", err))
	}
	links := resolver.New(entries, o.blogBaseURL)

	branchErrs := map[domain.PlatformID]error{}
	urls := map[domain.PlatformID]string{}

	// The canonical URL every other branch references. When a platform owns
	// the canonical copy it publishes first, without a canonical reference of
	// its own, and its published URL becomes the canonical for the rest.
	canonicalURL := o.blogBaseURL + parsed.RelativeURL()
	fanout := o.targets
	if o.canonical != domain.PlatformBlog {
		canonicalTarget := o.findTarget(o.canonical)
		result := o.runBranch(ctx, log, key, record, *canonicalTarget, parsed, links, "")
		if result.err != nil {
			branchErrs[result.platform] = result.err
			return o.fail(ctx, log, item, key, executionID, "", branchErrs, nil)
		}
		urls[result.platform] = result.url
		canonicalURL = result.url

		fanout = make([]Target, 0, len(o.targets)-1)
		for _, target := range o.targets {
			if target.Formatter.Platform() != o.canonical {
				fanout = append(fanout, target)
			}
		}
	}

	results := make([]branchResult, len(fanout))
	var wg sync.WaitGroup
	for i, target := range fanout {
		wg.Add(1)
		go func(i int, target Target) {
			defer wg.Done()
			results[i] = o.runBranch(ctx, log, key, record, target, parsed, links, canonicalURL)
		}(i, target)
	}
	wg.Wait()

	for _, result := range results {
		if result.err != nil {
			branchErrs[result.platform] = result.err
			continue
		}
		urls[result.platform] = result.url
	}

	if len(branchErrs) > 0 {
		return o.fail(ctx, log, item, key, executionID, canonicalURL, branchErrs, nil)
	}

	// The catalog entry must land before the record turns Succeeded: a
	// Succeeded record is never reclaimed by TryBegin, so a missed entry
	// would have no retry path. Either write failing finalizes the run as
	// Failed and the next delivery reconverges from the stored branch urls.
	if err := o.ledger.UpsertCatalogEntry(ctx, o.catalogEntry(parsed, canonicalURL, urls)); err != nil {
		return o.fail(ctx, log, item, key, executionID, canonicalURL, branchErrs,
			fmt.Errorf("orchestrator: catalog %s: %w", key.String(), err))
	}
	if err := o.ledger.Finalize(ctx, key, domain.StatusSucceeded, canonicalURL); err != nil {
		return o.fail(ctx, log, item, key, executionID, canonicalURL, branchErrs,
			fmt.Errorf("orchestrator: finalize %s: %w", key.String(), err))
	}

	log.Info("run converged", "canonical_url", canonicalURL, "platforms", len(urls))

	if item.SendStatusEmail && o.notifier != nil {
		final, err := o.ledger.GetRecord(ctx, key)
		if err != nil {
			log.Warn("outcome reload failed", "error", err)
		} else if err := o.notifier.NotifySuccess(ctx, item.FileName, final); err != nil {
			log.Warn("success notification failed", "error", err)
		}
	}
	return nil
}

// runBranch publishes to one platform, reusing a previously stored success so
// a partial retry never re-posts. Failures are captured on the record, never
// propagated as branch panics or run aborts.
func (o *Orchestrator) runBranch(ctx context.Context, log interfaces.Logger, key ledger.Key, record *ledger.ArticleRecord, target Target, parsed *post.Post, links *resolver.Resolver, canonicalURL string) branchResult {
	platform := target.Formatter.Platform()

	if url, ok := record.PlatformSucceeded(platform); ok {
		log.Info("branch already succeeded, reusing stored url",
			"platform", platform, "url", url)
		return branchResult{platform: platform, url: url}
	}

	url, err := o.publishOnce(ctx, target, parsed, links, canonicalURL)
	if err != nil {
		log.Error("branch failed", "platform", platform, "error", err)
		if recordErr := o.ledger.RecordPlatformOutcome(ctx, key, platform, domain.StatusFailed, ""); recordErr != nil {
			log.Error("branch outcome write failed", "platform", platform, "error", recordErr)
		}
		return branchResult{platform: platform, err: err}
	}

	if err := o.ledger.RecordPlatformOutcome(ctx, key, platform, domain.StatusSucceeded, url); err != nil {
		log.Error("branch outcome write failed", "platform", platform, "error", err)
		return branchResult{platform: platform, err: err}
	}

	log.Info("branch succeeded", "platform", platform, "url", url)
	return branchResult{platform: platform, url: url}
}

func (o *Orchestrator) publishOnce(ctx context.Context, target Target, parsed *post.Post, links *resolver.Resolver, canonicalURL string) (string, error) {
	output, err := target.Formatter.Format(formatter.Input{
		Post:         parsed,
		Resolver:     links,
		CanonicalURL: canonicalURL,
	})
	if err != nil {
		return "", err
	}

	request := target.Request
	request.Body = output.Payload

	response, err := o.publisher.Publish(ctx, request)
	if err != nil {
		return "", err
	}
	return target.Formatter.ResultURL(response)
}

// fail converges a broken run: persist the terminal Failed status, notify
// when requested, and surface a RunError (or the fatal setup error).
func (o *Orchestrator) fail(ctx context.Context, log interfaces.Logger, item interfaces.WorkItem, key ledger.Key, executionID, canonicalURL string, branchErrs map[domain.PlatformID]error, fatal error) error {
	if err := o.ledger.Finalize(ctx, key, domain.StatusFailed, canonicalURL); err != nil {
		log.Error("failed-state write failed", "error", err)
	}

	log.Warn("run failed", "branches", len(branchErrs), "error", fatal)

	if item.SendStatusEmail && o.notifier != nil {
		record, err := o.ledger.GetRecord(ctx, key)
		if err != nil {
			record = nil
		}
		if err := o.notifier.NotifyFailure(ctx, item.FileName, executionID, record); err != nil {
			log.Warn("failure notification failed", "error", err)
		}
	}

	if fatal != nil {
		return fatal
	}
	return &RunError{Key: key, Branches: branchErrs}
}

func (o *Orchestrator) catalogEntry(parsed *post.Post, canonicalURL string, urls map[domain.PlatformID]string) *ledger.CatalogEntry {
	platforms := make(map[domain.PlatformID]string, len(urls))
	for platform, url := range urls {
		platforms[platform] = url
	}
	return &ledger.CatalogEntry{
		CanonicalURL: canonicalURL,
		Title:        parsed.FrontMatter.Title,
		Links: ledger.CatalogLinks{
			URL:       parsed.RelativeURL(),
			Platforms: platforms,
		},
	}
}

func (o *Orchestrator) findTarget(platform domain.PlatformID) *Target {
	for i := range o.targets {
		if o.targets[i].Formatter.Platform() == platform {
			return &o.targets[i]
		}
	}
	return nil
}
