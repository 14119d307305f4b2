package notifier

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/goliatone/go-crosspost/internal/domain"
	"github.com/goliatone/go-crosspost/internal/ledger"
)

func recordFixture() *ledger.ArticleRecord {
	return &ledger.ArticleRecord{
		RecordKey:    "abc123#post.md",
		Status:       string(domain.StatusSucceeded),
		CanonicalURL: "https://blog.example.com/post",
		Platforms: map[domain.PlatformID]ledger.PlatformOutcome{
			domain.PlatformDev: {
				Status: domain.StatusSucceeded,
				URL:    "https://dev.to/u/post",
			},
			domain.PlatformMedium: {
				Status: domain.StatusFailed,
			},
		},
	}
}

func TestNotifySuccessListsPlatformLinks(t *testing.T) {
	sender := NewMemorySender()
	svc, err := New(sender, "author@example.com")
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	if err := svc.NotifySuccess(context.Background(), "post.md", recordFixture()); err != nil {
		t.Fatalf("notify: %v", err)
	}

	messages := sender.Messages()
	if len(messages) != 1 {
		t.Fatalf("expected one message, got %d", len(messages))
	}
	msg := messages[0]
	if msg.Subject != "Cross Post Successful!" {
		t.Fatalf("unexpected subject %q", msg.Subject)
	}
	if msg.To != "author@example.com" {
		t.Fatalf("unexpected recipient %q", msg.To)
	}
	if !strings.Contains(msg.Text, "https://dev.to/u/post") {
		t.Fatalf("expected platform link in text body, got %q", msg.Text)
	}
	if !strings.Contains(msg.HTML, "<strong>post.md</strong>") {
		t.Fatalf("expected rendered HTML body, got %q", msg.HTML)
	}
}

func TestNotifyFailureCarriesExecutionReference(t *testing.T) {
	sender := NewMemorySender()
	svc, err := New(sender, "author@example.com")
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	if err := svc.NotifyFailure(context.Background(), "post.md", "exec-42", recordFixture()); err != nil {
		t.Fatalf("notify: %v", err)
	}

	msg := sender.Messages()[0]
	if msg.Subject != "Cross Post Failed!" {
		t.Fatalf("unexpected subject %q", msg.Subject)
	}
	if !strings.Contains(msg.Text, "exec-42") {
		t.Fatalf("expected execution reference, got %q", msg.Text)
	}
	if !strings.Contains(msg.Text, "medium") {
		t.Fatalf("expected per-platform status listing, got %q", msg.Text)
	}
}

func TestNewRequiresRecipient(t *testing.T) {
	if _, err := New(NewMemorySender(), ""); !errors.Is(err, ErrRecipientRequired) {
		t.Fatalf("expected ErrRecipientRequired, got %v", err)
	}
}
