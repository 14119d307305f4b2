package crosspostcmd

import (
	"context"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/goliatone/go-crosspost/internal/commands"
	"github.com/goliatone/go-crosspost/pkg/interfaces"
)

const processWorkItemMessageType = "crosspost.workitem.process"

// ProcessWorkItemCommand requests a full cross-posting run for one detected file.
type ProcessWorkItemCommand struct {
	FileName        string `json:"fileName"`
	Commit          string `json:"commit"`
	Content         string `json:"content"`
	SendStatusEmail bool   `json:"sendStatusEmail"`
}

// Type implements command.Message.
func (ProcessWorkItemCommand) Type() string { return processWorkItemMessageType }

// Validate ensures the message carries the required fields before reaching handlers.
func (m ProcessWorkItemCommand) Validate() error {
	errs := validation.Errors{}
	if m.FileName == "" {
		errs["fileName"] = validation.NewError("crosspost.workitem.file_name_required", "fileName is required")
	}
	if m.Commit == "" {
		errs["commit"] = validation.NewError("crosspost.workitem.commit_required", "commit is required")
	}
	if m.Content == "" {
		errs["content"] = validation.NewError("crosspost.workitem.content_required", "content is required")
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

// WorkItem converts the message into the processor's input shape.
func (m ProcessWorkItemCommand) WorkItem() interfaces.WorkItem {
	return interfaces.WorkItem{
		FileName:        m.FileName,
		Commit:          m.Commit,
		Content:         m.Content,
		SendStatusEmail: m.SendStatusEmail,
	}
}

// ProcessWorkItemHandler runs work items through the orchestrator using the
// shared command handler foundation.
type ProcessWorkItemHandler struct {
	inner *commands.Handler[ProcessWorkItemCommand]
}

// NewProcessWorkItemHandler constructs a handler wired to the provided processor.
// The handler timeout bounds the whole run; pass the workflow timeout here.
func NewProcessWorkItemHandler(processor interfaces.WorkItemProcessor, logger interfaces.Logger, opts ...commands.HandlerOption[ProcessWorkItemCommand]) *ProcessWorkItemHandler {
	exec := func(ctx context.Context, msg ProcessWorkItemCommand) error {
		return processor.Process(ctx, msg.WorkItem())
	}

	handlerOpts := []commands.HandlerOption[ProcessWorkItemCommand]{
		commands.WithLogger[ProcessWorkItemCommand](logger),
		commands.WithOperation[ProcessWorkItemCommand]("workitem.process"),
	}
	handlerOpts = append(handlerOpts, opts...)

	return &ProcessWorkItemHandler{
		inner: commands.NewHandler[ProcessWorkItemCommand](exec, handlerOpts...),
	}
}

// Execute satisfies command.Commander[ProcessWorkItemCommand].Execute.
func (h *ProcessWorkItemHandler) Execute(ctx context.Context, msg ProcessWorkItemCommand) error {
	return h.inner.Execute(ctx, msg)
}
