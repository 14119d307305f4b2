package interfaces

import "context"

// WorkItem is one unit of newly detected content to be cross-posted. It is
// immutable once emitted and consumed by exactly one workflow execution.
type WorkItem struct {
	FileName        string `json:"fileName"`
	Commit          string `json:"commit"`
	Content         string `json:"content"`
	SendStatusEmail bool   `json:"sendStatusEmail"`
}

// Connector supplies work items from the content source. Implementations are
// expected to tolerate listing failures by returning an error and emitting
// nothing; the next trigger window naturally retries.
type Connector interface {
	// Detect returns one WorkItem per newly detected content file.
	Detect(ctx context.Context) ([]WorkItem, error)
}

// WorkItemProcessor consumes a single work item and drives it to a terminal
// outcome. The webhook trigger and the polling loop both dispatch through
// this contract.
type WorkItemProcessor interface {
	Process(ctx context.Context, item WorkItem) error
}
