package logging

import (
	"context"
	"strings"

	"github.com/goliatone/go-crosspost/pkg/interfaces"
)

const (
	rootModule         = "crosspost"
	ledgerModule       = "crosspost.ledger"
	orchestratorModule = "crosspost.orchestrator"
	publisherModule    = "crosspost.publisher"
	connectorModule    = "crosspost.connector"
	notifierModule     = "crosspost.notifier"
	webhookModule      = "crosspost.webhook"
)

const (
	fieldFileName  = "file_name"
	fieldCommit    = "commit"
	fieldExecution = "execution_id"
)

// ModuleLogger returns a module-scoped logger, defaulting to a no-op
// implementation when no provider is supplied. The returned logger attaches
// the module identifier as structured context so downstream entries can be
// filtered predictably.
func ModuleLogger(provider interfaces.LoggerProvider, module string) interfaces.Logger {
	if module == "" {
		module = rootModule
	}

	logger := NoOp()
	if provider != nil {
		if provided := provider.GetLogger(module); provided != nil {
			logger = provided
		}
	}

	return WithFields(logger, map[string]any{
		"module": module,
	})
}

// LedgerLogger returns the logger namespace reserved for the article ledger.
func LedgerLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, ledgerModule)
}

// OrchestratorLogger returns the logger namespace reserved for workflow runs.
func OrchestratorLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, orchestratorModule)
}

// PublisherLogger returns the logger namespace reserved for the publisher.
func PublisherLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, publisherModule)
}

// ConnectorLogger returns the logger namespace reserved for content connectors.
func ConnectorLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, connectorModule)
}

// NotifierLogger returns the logger namespace reserved for outcome delivery.
func NotifierLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, notifierModule)
}

// WebhookLogger returns the logger namespace reserved for the trigger endpoint.
func WebhookLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, webhookModule)
}

// WithWorkItemContext enriches the provided logger with the fields every
// workflow entry should carry: source file, commit, and execution reference.
// Empty values are ignored.
func WithWorkItemContext(logger interfaces.Logger, fileName, commit, executionID string) interfaces.Logger {
	fields := map[string]any{}
	if trimmed := strings.TrimSpace(fileName); trimmed != "" {
		fields[fieldFileName] = trimmed
	}
	if trimmed := strings.TrimSpace(commit); trimmed != "" {
		fields[fieldCommit] = trimmed
	}
	if trimmed := strings.TrimSpace(executionID); trimmed != "" {
		fields[fieldExecution] = trimmed
	}
	return WithFields(logger, fields)
}

// WithFields attaches structured fields to a logger when the implementation
// supports the optional FieldsLogger extension. Callers can pass nil or an
// empty map to skip allocation safely.
func WithFields(logger interfaces.Logger, fields map[string]any) interfaces.Logger {
	if logger == nil || len(fields) == 0 {
		return logger
	}

	if fieldsLogger, ok := logger.(interfaces.FieldsLogger); ok {
		copied := make(map[string]any, len(fields))
		for key, value := range fields {
			copied[key] = value
		}
		return fieldsLogger.WithFields(copied)
	}

	return logger
}

// NoOp returns a logger that drops every log entry. It satisfies the Logger
// contract so services can safely operate when logging is disabled.
func NoOp() interfaces.Logger {
	return noopLogger{}
}

type noopLogger struct{}

var _ interfaces.Logger = noopLogger{}

func (noopLogger) Trace(string, ...any) {}
func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}
func (noopLogger) Fatal(string, ...any) {}

func (n noopLogger) WithFields(map[string]any) interfaces.Logger {
	return n
}

func (n noopLogger) WithContext(context.Context) interfaces.Logger {
	return n
}
