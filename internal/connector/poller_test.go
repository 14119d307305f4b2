package connector

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/goliatone/go-crosspost/pkg/interfaces"
)

type recordingProcessor struct {
	mu    sync.Mutex
	items []interfaces.WorkItem
	err   error
}

func (p *recordingProcessor) Process(_ context.Context, item interfaces.WorkItem) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.items = append(p.items, item)
	return p.err
}

type staticConnector struct {
	items []interfaces.WorkItem
	err   error
}

func (c staticConnector) Detect(context.Context) ([]interfaces.WorkItem, error) {
	return c.items, c.err
}

func TestRunOnceContinuesPastItemFailures(t *testing.T) {
	source := staticConnector{items: []interfaces.WorkItem{
		{FileName: "a.md", Commit: "c1", Content: "x"},
		{FileName: "b.md", Commit: "c1", Content: "y"},
	}}
	processor := &recordingProcessor{err: errors.New("branch failed")}
	poller := NewPoller(source, processor)

	if err := poller.RunOnce(context.Background()); err != nil {
		t.Fatalf("run once: %v", err)
	}
	if len(processor.items) != 2 {
		t.Fatalf("expected both items attempted, got %d", len(processor.items))
	}
}

func TestRunOncePropagatesDetectError(t *testing.T) {
	boom := errors.New("api down")
	poller := NewPoller(staticConnector{err: boom}, &recordingProcessor{})
	if err := poller.RunOnce(context.Background()); !errors.Is(err, boom) {
		t.Fatalf("expected detect error, got %v", err)
	}
}
