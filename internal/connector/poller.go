package connector

import (
	"context"
	"time"

	"github.com/goliatone/go-crosspost/internal/logging"
	"github.com/goliatone/go-crosspost/pkg/interfaces"
)

// DefaultPollInterval spaces polling passes so consecutive tolerance windows
// overlap instead of leaving gaps.
const DefaultPollInterval = 5 * time.Minute

// Poller drives a connector on a fixed interval and feeds detected work
// items to the processor. Item failures are logged, not fatal; the dedup
// guard makes redelivery on a later pass safe.
type Poller struct {
	connector interfaces.Connector
	processor interfaces.WorkItemProcessor
	interval  time.Duration
	logger    interfaces.Logger
}

// PollerOption configures the poller.
type PollerOption func(*Poller)

// WithInterval sets the spacing between passes.
func WithInterval(interval time.Duration) PollerOption {
	return func(p *Poller) {
		if interval > 0 {
			p.interval = interval
		}
	}
}

// WithPollerLogger sets the poller logger.
func WithPollerLogger(logger interfaces.Logger) PollerOption {
	return func(p *Poller) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// NewPoller builds a poller over the supplied connector and processor.
func NewPoller(connector interfaces.Connector, processor interfaces.WorkItemProcessor, opts ...PollerOption) *Poller {
	p := &Poller{
		connector: connector,
		processor: processor,
		interval:  DefaultPollInterval,
		logger:    logging.NoOp(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// RunOnce executes a single detect-and-process pass.
func (p *Poller) RunOnce(ctx context.Context) error {
	items, err := p.connector.Detect(ctx)
	if err != nil {
		return err
	}
	for _, item := range items {
		if err := p.processor.Process(ctx, item); err != nil {
			p.logger.Error("work item processing failed",
				"file_name", item.FileName, "commit", item.Commit, "error", err)
		}
	}
	return nil
}

// Run polls until the context is canceled. The first pass runs immediately.
func (p *Poller) Run(ctx context.Context) error {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		if err := p.RunOnce(ctx); err != nil {
			p.logger.Error("polling pass failed", "error", err)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
