package commands

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/goliatone/go-crosspost/pkg/interfaces"
	goerrors "github.com/goliatone/go-errors"
)

type testMessage struct{}

func (testMessage) Type() string { return "crosspost.test.message" }

func (testMessage) Validate() error { return nil }

type invalidMessage struct{}

func (invalidMessage) Type() string { return "crosspost.test.invalid" }

func (invalidMessage) Validate() error {
	return validationError()
}

func validationError() error {
	return errors.New("invalid")
}

func TestHandlerExecuteSuccess(t *testing.T) {
	called := false
	h := NewHandler[testMessage](func(ctx context.Context, msg testMessage) error {
		called = true
		return nil
	})

	if err := h.Execute(context.Background(), testMessage{}); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if !called {
		t.Fatal("expected handler to be invoked")
	}
}

func TestHandlerValidationShortCircuitsExecution(t *testing.T) {
	called := false
	h := NewHandler[invalidMessage](func(ctx context.Context, msg invalidMessage) error {
		called = true
		return nil
	})

	err := h.Execute(context.Background(), invalidMessage{})
	if err == nil {
		t.Fatal("expected validation error")
	}
	if !goerrors.IsCategory(err, goerrors.CategoryValidation) {
		t.Fatalf("expected validation category, got %v", err)
	}
	if called {
		t.Fatal("expected handler not to run when validation fails")
	}
}

func TestHandlerContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	h := NewHandler[testMessage](func(ctx context.Context, msg testMessage) error {
		called = true
		return nil
	})

	err := h.Execute(ctx, testMessage{})
	if err == nil {
		t.Fatal("expected context cancellation error")
	}
	if !goerrors.IsCategory(err, goerrors.CategoryCommand) {
		t.Fatalf("expected command category, got %v", err)
	}
	if called {
		t.Fatal("expected handler not to run when context is cancelled")
	}
}

func TestHandlerWrapsExecutionError(t *testing.T) {
	execErr := errors.New("boom")
	h := NewHandler[testMessage](func(ctx context.Context, msg testMessage) error {
		return execErr
	})

	err := h.Execute(context.Background(), testMessage{})
	if err == nil {
		t.Fatal("expected wrapped execution error")
	}
	if !goerrors.IsCategory(err, goerrors.CategoryCommand) {
		t.Fatalf("expected command category, got %v", err)
	}
	if !goerrors.HasCategory(err, goerrors.CategoryCommand) {
		t.Fatalf("expected command category to propagate, got %v", err)
	}
}

func TestHandlerEmitsTelemetry(t *testing.T) {
	var infos []TelemetryInfo
	telemetry := func(_ context.Context, _ testMessage, info TelemetryInfo) {
		infos = append(infos, info)
	}

	execErr := errors.New("boom")
	failing := true
	h := NewHandler[testMessage](func(ctx context.Context, msg testMessage) error {
		if failing {
			return execErr
		}
		return nil
	}, WithTelemetry[testMessage](telemetry), WithOperation[testMessage]("test.op"))

	if err := h.Execute(context.Background(), testMessage{}); err == nil {
		t.Fatal("expected execution error")
	}
	failing = false
	if err := h.Execute(context.Background(), testMessage{}); err != nil {
		t.Fatalf("expected success, got %v", err)
	}

	if len(infos) != 2 {
		t.Fatalf("expected telemetry for both executions, got %d", len(infos))
	}
	if infos[0].Status != TelemetryStatusFailed || !errors.Is(infos[0].Error, execErr) {
		t.Fatalf("unexpected failure telemetry %+v", infos[0])
	}
	if infos[1].Status != TelemetryStatusSuccess || infos[1].Error != nil {
		t.Fatalf("unexpected success telemetry %+v", infos[1])
	}
	if infos[0].Command != "crosspost.test.message" || infos[0].Operation != "test.op" {
		t.Fatalf("unexpected telemetry identity %+v", infos[0])
	}
}

// captureLogger satisfies interfaces.Logger without the optional FieldsLogger
// extension, matching minimal host loggers.
type captureLogger struct {
	messages []string
}

func (l *captureLogger) log(msg string) { l.messages = append(l.messages, msg) }

func (l *captureLogger) Trace(msg string, _ ...any) { l.log(msg) }
func (l *captureLogger) Debug(msg string, _ ...any) { l.log(msg) }
func (l *captureLogger) Info(msg string, _ ...any)  { l.log(msg) }
func (l *captureLogger) Warn(msg string, _ ...any)  { l.log(msg) }
func (l *captureLogger) Error(msg string, _ ...any) { l.log(msg) }
func (l *captureLogger) Fatal(msg string, _ ...any) { l.log(msg) }

func (l *captureLogger) WithContext(context.Context) interfaces.Logger { return l }

func TestDefaultTelemetryAcceptsPlainLogger(t *testing.T) {
	logger := &captureLogger{}
	telemetry := DefaultTelemetry[testMessage](logger)

	telemetry(context.Background(), testMessage{}, TelemetryInfo{
		Command: "crosspost.test.message",
		Fields:  map[string]any{"command": "crosspost.test.message"},
		Status:  TelemetryStatusSuccess,
	})
	telemetry(context.Background(), testMessage{}, TelemetryInfo{
		Command: "crosspost.test.message",
		Fields:  map[string]any{"command": "crosspost.test.message"},
		Status:  TelemetryStatusFailed,
		Error:   errors.New("boom"),
	})

	if len(logger.messages) != 2 {
		t.Fatalf("expected two telemetry entries, got %d", len(logger.messages))
	}
	if logger.messages[0] != "command.execute.success" {
		t.Fatalf("unexpected success entry %q", logger.messages[0])
	}
	if logger.messages[1] != "command.execute.failed" {
		t.Fatalf("unexpected failure entry %q", logger.messages[1])
	}
}

func TestHandlerHonoursTimeoutOption(t *testing.T) {
	h := NewHandler[testMessage](func(ctx context.Context, msg testMessage) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(20 * time.Millisecond):
			return nil
		}
	}, WithTimeout[testMessage](10*time.Millisecond))

	err := h.Execute(context.Background(), testMessage{})
	if err == nil {
		t.Fatal("expected timeout error")
	}
	if !goerrors.IsCategory(err, goerrors.CategoryCommand) {
		t.Fatalf("expected command category for timeout, got %v", err)
	}
}
