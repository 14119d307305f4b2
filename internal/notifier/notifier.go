package notifier

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/goliatone/go-crosspost/internal/domain"
	"github.com/goliatone/go-crosspost/internal/ledger"
	"github.com/goliatone/go-crosspost/internal/logging"
	"github.com/goliatone/go-crosspost/pkg/interfaces"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

const (
	subjectSuccess = "Cross Post Successful!"
	subjectFailure = "Cross Post Failed!"
)

// ErrRecipientRequired indicates the notifier was built without a destination
// address.
var ErrRecipientRequired = errors.New("notifier: recipient required")

// Service composes run-outcome emails and hands them to the configured
// sender. Message bodies are written as markdown and rendered to HTML for the
// mail client, keeping a plain-text alternative for clients that want one.
type Service struct {
	sender   interfaces.EmailSender
	to       string
	renderer goldmark.Markdown
	logger   interfaces.Logger
}

// Option configures the notifier service.
type Option func(*Service)

// WithLogger sets the notification logger.
func WithLogger(logger interfaces.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New builds a notifier that delivers to the supplied address.
func New(sender interfaces.EmailSender, to string, opts ...Option) (*Service, error) {
	if to == "" {
		return nil, ErrRecipientRequired
	}
	s := &Service{
		sender:   sender,
		to:       to,
		renderer: goldmark.New(goldmark.WithExtensions(extension.GFM)),
		logger:   logging.NoOp(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// NotifySuccess reports a fully converged run, listing the published URL for
// every platform recorded on the article.
func (s *Service) NotifySuccess(ctx context.Context, fileName string, record *ledger.ArticleRecord) error {
	var b strings.Builder
	fmt.Fprintf(&b, "**%s** was published to every configured platform.\n\n", fileName)
	if record.CanonicalURL != "" {
		fmt.Fprintf(&b, "Canonical: %s\n\n", record.CanonicalURL)
	}

	for _, platform := range sortedPlatforms(record.Platforms) {
		outcome := record.Platforms[platform]
		if outcome.URL != "" {
			fmt.Fprintf(&b, "- **%s**: %s\n", platform, outcome.URL)
		}
	}

	return s.deliver(ctx, subjectSuccess, b.String())
}

// NotifyFailure reports a run that ended with at least one failed branch. The
// execution reference lets the operator locate the run in the logs before
// retrying.
func (s *Service) NotifyFailure(ctx context.Context, fileName, executionID string, record *ledger.ArticleRecord) error {
	var b strings.Builder
	fmt.Fprintf(&b, "Cross posting **%s** did not complete.\n\n", fileName)
	fmt.Fprintf(&b, "Execution: `%s`\n\n", executionID)

	if record != nil {
		for _, platform := range sortedPlatforms(record.Platforms) {
			outcome := record.Platforms[platform]
			fmt.Fprintf(&b, "- **%s**: %s\n", platform, outcome.Status)
		}
		b.WriteString("\nRe-running the same commit and file retries only the failed platforms.\n")
	}

	return s.deliver(ctx, subjectFailure, b.String())
}

func (s *Service) deliver(ctx context.Context, subject, markdown string) error {
	var html bytes.Buffer
	if err := s.renderer.Convert([]byte(markdown), &html); err != nil {
		return fmt.Errorf("notifier: render body: %w", err)
	}

	msg := interfaces.OutcomeMessage{
		Subject: subject,
		To:      s.to,
		HTML:    html.String(),
		Text:    markdown,
	}
	if err := s.sender.Send(ctx, msg); err != nil {
		return fmt.Errorf("notifier: send: %w", err)
	}

	s.logger.Info("outcome notification sent", "subject", subject, "to", s.to)
	return nil
}

func sortedPlatforms(outcomes map[domain.PlatformID]ledger.PlatformOutcome) []domain.PlatformID {
	platforms := make([]domain.PlatformID, 0, len(outcomes))
	for platform := range outcomes {
		platforms = append(platforms, platform)
	}
	sort.Slice(platforms, func(i, j int) bool { return platforms[i] < platforms[j] })
	return platforms
}

// LogSender writes outcome messages to the log instead of delivering them,
// the default when no mail transport is configured.
type LogSender struct {
	logger interfaces.Logger
}

// NewLogSender builds a sender over the supplied logger.
func NewLogSender(logger interfaces.Logger) *LogSender {
	if logger == nil {
		logger = logging.NoOp()
	}
	return &LogSender{logger: logger}
}

// Send satisfies interfaces.EmailSender.
func (l *LogSender) Send(_ context.Context, msg interfaces.OutcomeMessage) error {
	l.logger.Info("outcome notification",
		"subject", msg.Subject, "to", msg.To, "body", msg.Text)
	return nil
}

// MemorySender records messages for inspection in tests and local runs.
type MemorySender struct {
	mu       sync.Mutex
	messages []interfaces.OutcomeMessage
}

// NewMemorySender builds an empty in-memory sender.
func NewMemorySender() *MemorySender {
	return &MemorySender{}
}

// Send satisfies interfaces.EmailSender.
func (m *MemorySender) Send(_ context.Context, msg interfaces.OutcomeMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = append(m.messages, msg)
	return nil
}

// Messages returns a copy of everything sent so far.
func (m *MemorySender) Messages() []interfaces.OutcomeMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]interfaces.OutcomeMessage, len(m.messages))
	copy(out, m.messages)
	return out
}
