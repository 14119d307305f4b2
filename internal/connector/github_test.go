package connector

import (
	"context"
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

const fakeArticle = "---\ntitle: Post\n---\nbody\n"

func newFakeGitHub(t *testing.T) (*httptest.Server, *[]string) {
	t.Helper()
	var sinceValues []string

	encoded := base64.StdEncoding.EncodeToString([]byte(fakeArticle))
	// The contents API wraps base64 at 60 columns; emit a newline to prove
	// decoding strips it.
	wrapped := encoded[:8] + "\n" + encoded[8:]

	mux := http.NewServeMux()
	mux.HandleFunc("/repos/acme/blog/commits", func(w http.ResponseWriter, r *http.Request) {
		sinceValues = append(sinceValues, r.URL.Query().Get("since"))
		w.Write([]byte(`[
			{"sha":"aaa111","commit":{"message":"[blog] add shipping post"}},
			{"sha":"bbb222","commit":{"message":"fix typo in footer"}},
			{"sha":"ccc333","commit":{"message":"[blog] add second post"}}
		]`))
	})
	mux.HandleFunc("/repos/acme/blog/commits/aaa111", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"sha":"aaa111","files":[
			{"filename":"content/blog/shipping.md","status":"added"},
			{"filename":"content/blog/older.md","status":"modified"},
			{"filename":"static/cover.png","status":"added"}
		]}`))
	})
	mux.HandleFunc("/repos/acme/blog/commits/ccc333", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	mux.HandleFunc("/repos/acme/blog/contents/content/blog/shipping.md", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("ref") != "aaa111" {
			t.Errorf("expected ref aaa111, got %q", r.URL.Query().Get("ref"))
		}
		w.Write([]byte(`{"content":"` + strings.ReplaceAll(wrapped, "\n", `\n`) + `","encoding":"base64"}`))
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server, &sinceValues
}

func newConnector(t *testing.T, server *httptest.Server) *GitHub {
	t.Helper()
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	g, err := NewGitHub(Config{
		Owner:           "acme",
		Repo:            "blog",
		ContentPath:     "content/blog",
		APIBaseURL:      server.URL,
		SendStatusEmail: true,
	}, WithClock(func() time.Time { return now }))
	if err != nil {
		t.Fatalf("new connector: %v", err)
	}
	return g
}

func TestDetectEmitsAddedContentFiles(t *testing.T) {
	server, sinceValues := newFakeGitHub(t)
	g := newConnector(t, server)

	items, err := g.Detect(context.Background())
	if err != nil {
		t.Fatalf("detect: %v", err)
	}

	// Commit bbb222 lacks the prefix; ccc333 cannot be inspected and is
	// skipped. Only the added markdown file under the content path survives.
	if len(items) != 1 {
		t.Fatalf("expected one work item, got %d", len(items))
	}
	item := items[0]
	if item.FileName != "content/blog/shipping.md" {
		t.Fatalf("unexpected file name %q", item.FileName)
	}
	if item.Commit != "aaa111" {
		t.Fatalf("unexpected commit %q", item.Commit)
	}
	if item.Content != fakeArticle {
		t.Fatalf("expected decoded content, got %q", item.Content)
	}
	if !item.SendStatusEmail {
		t.Fatal("expected SendStatusEmail carried from config")
	}

	if len(*sinceValues) != 1 {
		t.Fatalf("expected one commits listing, got %d", len(*sinceValues))
	}
	since, err := time.Parse(time.RFC3339, (*sinceValues)[0])
	if err != nil {
		t.Fatalf("parse since: %v", err)
	}
	want := time.Date(2024, 3, 1, 11, 50, 0, 0, time.UTC)
	if !since.Equal(want) {
		t.Fatalf("expected default ten minute window, got %v", since)
	}
}

func TestNewGitHubValidatesConfig(t *testing.T) {
	if _, err := NewGitHub(Config{Repo: "blog", ContentPath: "content"}); err != ErrRepositoryRequired {
		t.Fatalf("expected ErrRepositoryRequired, got %v", err)
	}
	if _, err := NewGitHub(Config{Owner: "acme", Repo: "blog"}); err != ErrContentPathRequired {
		t.Fatalf("expected ErrContentPathRequired, got %v", err)
	}
}

func TestPollerRunOnceForwardsItems(t *testing.T) {
	server, _ := newFakeGitHub(t)
	g := newConnector(t, server)

	processed := &recordingProcessor{}
	poller := NewPoller(g, processed)

	if err := poller.RunOnce(context.Background()); err != nil {
		t.Fatalf("run once: %v", err)
	}
	if len(processed.items) != 1 {
		t.Fatalf("expected one processed item, got %d", len(processed.items))
	}
	if processed.items[0].FileName != "content/blog/shipping.md" {
		t.Fatalf("unexpected item %q", processed.items[0].FileName)
	}
}
