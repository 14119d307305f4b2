package post

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/adrg/frontmatter"
	"github.com/goliatone/go-slug"
)

var (
	// ErrTitleRequired indicates the post frontmatter carries no title.
	ErrTitleRequired = errors.New("post: frontmatter title required")
	// ErrSlugUnresolvable indicates no slug was supplied and none could be
	// derived from the title.
	ErrSlugUnresolvable = errors.New("post: slug could not be resolved")
)

// FrontMatter captures the metadata block expected at the top of a source
// blog post. Unknown keys are preserved in Custom.
type FrontMatter struct {
	Title            string
	Description      string
	Slug             string
	Image            string
	ImageAttribution string
	Categories       []string
	Tags             []string
	Custom           map[string]any
}

// Post is a parsed source article: structured frontmatter plus the raw
// Markdown body with delimiters stripped.
type Post struct {
	FrontMatter FrontMatter
	Body        string
}

// RelativeURL returns the article's canonical relative URL: "/" followed by
// the slug with leading and trailing slashes stripped.
func (p *Post) RelativeURL() string {
	return "/" + strings.Trim(p.FrontMatter.Slug, "/")
}

type frontMatterEnvelope struct {
	Title            string         `yaml:"title"`
	Description      string         `yaml:"description"`
	Slug             string         `yaml:"slug"`
	Image            string         `yaml:"image"`
	ImageAttribution string         `yaml:"image_attribution"`
	Categories       []any          `yaml:"categories"`
	Tags             []any          `yaml:"tags"`
	Custom           map[string]any `yaml:",inline"`
}

// Parse extracts frontmatter and body from raw post bytes. A missing title
// fails parsing; a missing slug is derived from the title so legacy posts
// without an explicit slug still resolve a canonical URL.
func Parse(source []byte) (*Post, error) {
	var meta frontMatterEnvelope

	reader := bytes.NewReader(source)
	body, err := frontmatter.Parse(reader, &meta)
	if err != nil {
		return nil, fmt.Errorf("parse frontmatter: %w", err)
	}

	title := strings.TrimSpace(meta.Title)
	if title == "" {
		return nil, ErrTitleRequired
	}

	slugValue := strings.TrimSpace(meta.Slug)
	if slugValue == "" {
		normalizer := slug.Default()
		normalized, err := normalizer.Normalize(title)
		if err != nil || normalized == "" {
			return nil, ErrSlugUnresolvable
		}
		slugValue = normalized
	}

	return &Post{
		FrontMatter: FrontMatter{
			Title:            title,
			Description:      strings.TrimSpace(meta.Description),
			Slug:             slugValue,
			Image:            strings.TrimSpace(meta.Image),
			ImageAttribution: strings.TrimSpace(meta.ImageAttribution),
			Categories:       stringify(meta.Categories),
			Tags:             stringify(meta.Tags),
			Custom:           meta.Custom,
		},
		Body: string(body),
	}, nil
}

// stringify coerces scalar frontmatter list entries into strings. Tag lists
// in the wild mix strings and bare numbers.
func stringify(values []any) []string {
	if len(values) == 0 {
		return nil
	}
	out := make([]string, 0, len(values))
	for _, value := range values {
		out = append(out, fmt.Sprint(value))
	}
	return out
}
