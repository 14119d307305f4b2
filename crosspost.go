// Package crosspost republishes blog posts to third-party platforms and keeps
// a durable record of every attempt so retries converge instead of duplicating.
package crosspost

import (
	"context"

	"github.com/goliatone/go-crosspost/internal/bootstrap"
	"github.com/goliatone/go-crosspost/internal/connector"
	"github.com/goliatone/go-crosspost/internal/ledger"
	"github.com/goliatone/go-crosspost/internal/orchestrator"
	"github.com/goliatone/go-crosspost/internal/publisher"
	"github.com/goliatone/go-crosspost/internal/webhook"
	"github.com/goliatone/go-crosspost/pkg/interfaces"
)

// WorkItem exports the unit of work flowing from source detection to publication.
type WorkItem = interfaces.WorkItem

// WorkItemProcessor exports the processing contract satisfied by the orchestrator.
type WorkItemProcessor = interfaces.WorkItemProcessor

// LedgerService exports the workflow record service.
type LedgerService = ledger.Service

// PublisherService exports the HTTP publisher.
type PublisherService = publisher.Publisher

// OrchestratorService exports the workflow orchestrator.
type OrchestratorService = orchestrator.Orchestrator

// PollerService exports the source repository poller.
type PollerService = connector.Poller

// WebhookServer exports the push notification server.
type WebhookServer = webhook.Server

// Module wires configuration into the full cross-posting service graph.
type Module struct {
	app *bootstrap.App
}

// New constructs a cross-post module from the provided configuration.
func New(ctx context.Context, cfg Config) (*Module, error) {
	app, err := bootstrap.New(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return &Module{app: app}, nil
}

// Orchestrator returns the work item processor running the publish workflow.
func (m *Module) Orchestrator() *OrchestratorService {
	return m.app.Orchestrator
}

// Ledger returns the workflow record service.
func (m *Module) Ledger() *LedgerService {
	return m.app.Ledger
}

// Publisher returns the platform HTTP publisher.
func (m *Module) Publisher() *PublisherService {
	return m.app.Publisher
}

// Poller returns the source repository poller.
func (m *Module) Poller() *PollerService {
	return m.app.Poller
}

// Webhook returns the push notification server, or nil when disabled.
func (m *Module) Webhook() *WebhookServer {
	return m.app.Webhook
}

// Close releases held resources such as the database handle.
func (m *Module) Close() error {
	return m.app.Close()
}
