package formatter

import (
	"errors"
	"strings"
	"testing"

	"github.com/goliatone/go-crosspost/internal/post"
	"github.com/goliatone/go-crosspost/internal/resolver"
)

func inputFixture(canonical string) Input {
	return Input{
		Post: &post.Post{
			FrontMatter: post.FrontMatter{
				Title:            "Shipping a Side Project",
				Description:      "Notes on finishing things",
				Slug:             "shipping-a-side-project",
				Image:            "https://cdn.example.com/cover.png",
				ImageAttribution: "Photo by Someone",
				Categories:       []string{"engineering"},
				Tags:             []string{"side projects"},
			},
			Body: "The body.",
		},
		Resolver:     resolver.New(nil, "https://blog.example.com"),
		CanonicalURL: canonical,
	}
}

func TestForVariant(t *testing.T) {
	for _, variant := range []string{"dev", "medium", "hashnode"} {
		f, err := ForVariant(variant, VariantConfig{})
		if err != nil {
			t.Fatalf("variant %s: %v", variant, err)
		}
		if string(f.Platform()) != variant {
			t.Fatalf("expected platform %s, got %s", variant, f.Platform())
		}
	}
	if _, err := ForVariant("substack", VariantConfig{}); !errors.Is(err, ErrUnknownVariant) {
		t.Fatalf("expected ErrUnknownVariant, got %v", err)
	}
}

func TestDevToFormat(t *testing.T) {
	f := NewDevTo("org-1", 0)
	out, err := f.Format(inputFixture("https://blog.example.com/shipping-a-side-project"))
	if err != nil {
		t.Fatalf("format: %v", err)
	}

	article, ok := out.Payload["article"].(map[string]any)
	if !ok {
		t.Fatalf("expected article envelope, got %#v", out.Payload)
	}
	if article["title"] != "Shipping a Side Project" {
		t.Fatalf("expected title, got %v", article["title"])
	}
	if article["published"] != true {
		t.Fatalf("expected published true, got %v", article["published"])
	}
	if article["canonical_url"] != "https://blog.example.com/shipping-a-side-project" {
		t.Fatalf("expected canonical url, got %v", article["canonical_url"])
	}
	if article["organization_id"] != "org-1" {
		t.Fatalf("expected organization id, got %v", article["organization_id"])
	}

	tags, ok := article["tags"].([]string)
	if !ok || len(tags) != 2 {
		t.Fatalf("expected two tags, got %#v", article["tags"])
	}
	if tags[1] != "sideprojects" {
		t.Fatalf("expected spaces stripped from tags, got %q", tags[1])
	}
}

func TestDevToOmitsCanonicalWhenSelfCanonical(t *testing.T) {
	f := NewDevTo("", 0)
	out, err := f.Format(inputFixture(""))
	if err != nil {
		t.Fatalf("format: %v", err)
	}
	article := out.Payload["article"].(map[string]any)
	if _, present := article["canonical_url"]; present {
		t.Fatal("expected no canonical_url for canonical platform")
	}
	if _, present := article["organization_id"]; present {
		t.Fatal("expected no organization_id when unset")
	}
}

func TestDevToEmbedTweet(t *testing.T) {
	f := NewDevTo("", 0)
	got := f.EmbedTweet("https://twitter.com/gopher/status/1")
	if got != "{% twitter https://twitter.com/gopher/status/1 %}" {
		t.Fatalf("unexpected embed %q", got)
	}
}

func TestMaxTagsCapsTagList(t *testing.T) {
	f, err := ForVariant("dev", VariantConfig{MaxTags: 1})
	if err != nil {
		t.Fatalf("variant: %v", err)
	}
	out, err := f.Format(inputFixture(""))
	if err != nil {
		t.Fatalf("format: %v", err)
	}
	article := out.Payload["article"].(map[string]any)
	tags := article["tags"].([]string)
	if len(tags) != 1 || tags[0] != "engineering" {
		t.Fatalf("expected tag list capped at one, got %#v", tags)
	}

	m, err := ForVariant("medium", VariantConfig{MaxTags: 1})
	if err != nil {
		t.Fatalf("variant: %v", err)
	}
	out, err = m.Format(inputFixture(""))
	if err != nil {
		t.Fatalf("format: %v", err)
	}
	if tags := out.Payload["tags"].([]string); len(tags) != 1 {
		t.Fatalf("expected medium tag list capped at one, got %#v", tags)
	}
}

func TestMediumFormatPrefixesHeading(t *testing.T) {
	f := NewMedium(0)
	out, err := f.Format(inputFixture("https://blog.example.com/shipping-a-side-project"))
	if err != nil {
		t.Fatalf("format: %v", err)
	}

	content, ok := out.Payload["content"].(string)
	if !ok {
		t.Fatalf("expected content string, got %#v", out.Payload["content"])
	}
	if !strings.HasPrefix(content, "\n# Shipping a Side Project\n#### Notes on finishing things\n") {
		t.Fatalf("expected synthesized heading block, got %q", content)
	}
	if !strings.Contains(content, "![Photo by Someone](https://cdn.example.com/cover.png)") {
		t.Fatalf("expected hero image block, got %q", content)
	}
	if out.Payload["publishStatus"] != "draft" {
		t.Fatalf("expected draft publish status, got %v", out.Payload["publishStatus"])
	}
	if out.Payload["contentFormat"] != "markdown" {
		t.Fatalf("expected markdown content format, got %v", out.Payload["contentFormat"])
	}

	tags, ok := out.Payload["tags"].([]string)
	if !ok || tags[1] != "side projects" {
		t.Fatalf("expected tags with spaces preserved, got %#v", out.Payload["tags"])
	}
}

func TestMediumResultURL(t *testing.T) {
	f := NewMedium(0)
	url, err := f.ResultURL(map[string]any{
		"data": map[string]any{"url": "https://medium.com/@u/post-1"},
	})
	if err != nil {
		t.Fatalf("result url: %v", err)
	}
	if url != "https://medium.com/@u/post-1" {
		t.Fatalf("expected nested url, got %q", url)
	}

	if _, err := f.ResultURL(map[string]any{}); !errors.Is(err, ErrResultURLMissing) {
		t.Fatalf("expected ErrResultURLMissing, got %v", err)
	}
}

func TestHashnodeFormat(t *testing.T) {
	f := NewHashnode("pub-1", "https://blog.example.com/")
	out, err := f.Format(inputFixture("https://blog.example.com/shipping-a-side-project"))
	if err != nil {
		t.Fatalf("format: %v", err)
	}

	if out.Payload["query"] != createStoryMutation {
		t.Fatal("expected createPublicationStory mutation")
	}
	variables := out.Payload["variables"].(map[string]any)
	if variables["publicationId"] != "pub-1" {
		t.Fatalf("expected publication id, got %v", variables["publicationId"])
	}

	storyInput := variables["input"].(map[string]any)
	republished, ok := storyInput["isRepublished"].(map[string]any)
	if !ok {
		t.Fatalf("expected isRepublished structure, got %#v", storyInput)
	}
	if republished["originalArticleURL"] != "https://blog.example.com/shipping-a-side-project" {
		t.Fatalf("expected original article url, got %v", republished["originalArticleURL"])
	}
}

func TestHashnodeOmitsRepublishWhenCanonical(t *testing.T) {
	f := NewHashnode("pub-1", "https://blog.example.com")
	out, err := f.Format(inputFixture(""))
	if err != nil {
		t.Fatalf("format: %v", err)
	}
	storyInput := out.Payload["variables"].(map[string]any)["input"].(map[string]any)
	if _, present := storyInput["isRepublished"]; present {
		t.Fatal("expected no isRepublished for canonical platform")
	}
}

func TestHashnodeResultURLFromSlug(t *testing.T) {
	f := NewHashnode("pub-1", "https://blog.example.com")
	url, err := f.ResultURL(map[string]any{
		"data": map[string]any{
			"createPublicationStory": map[string]any{
				"post": map[string]any{"slug": "shipping-a-side-project"},
			},
		},
	})
	if err != nil {
		t.Fatalf("result url: %v", err)
	}
	if url != "https://blog.example.com/shipping-a-side-project" {
		t.Fatalf("expected synthesized url, got %q", url)
	}
}

func TestHashnodeEmbedTweet(t *testing.T) {
	f := NewHashnode("", "")
	if got := f.EmbedTweet("https://twitter.com/gopher/status/1"); got != "%[https://twitter.com/gopher/status/1]" {
		t.Fatalf("unexpected embed %q", got)
	}
}
