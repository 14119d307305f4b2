package formatter

import (
	"fmt"

	"github.com/goliatone/go-crosspost/internal/domain"
)

// Medium formats posts for the Medium publishing API.
type Medium struct {
	maxTags int
}

// NewMedium constructs the Medium formatter. maxTags caps the tag list when
// positive.
func NewMedium(maxTags int) *Medium {
	return &Medium{maxTags: maxTags}
}

var _ Formatter = (*Medium)(nil)

func (f *Medium) Platform() domain.PlatformID { return domain.PlatformMedium }

// EmbedTweet returns the bare tweet URL; Medium unfurls it on import.
func (f *Medium) EmbedTweet(url string) string {
	return url
}

// Format builds the Medium payload. Medium renders imported markdown without
// the source site's layout, so the content is prefixed with a synthesized
// heading, subheading, and hero image block.
func (f *Medium) Format(input Input) (*Output, error) {
	meta := input.Post.FrontMatter

	content := fmt.Sprintf("\n# %s\n#### %s\n![%s](%s)\n%s",
		meta.Title,
		meta.Description,
		meta.ImageAttribution,
		meta.Image,
		input.Post.Body,
	)
	content = input.Resolver.Resolve(content, domain.PlatformMedium, f.EmbedTweet)

	payload := map[string]any{
		"title":           meta.Title,
		"contentFormat":   "markdown",
		"tags":            limitTags(append(append([]string{}, meta.Categories...), meta.Tags...), f.maxTags),
		"publishStatus":   "draft",
		"notifyFollowers": true,
		"content":         content,
	}
	if input.CanonicalURL != "" {
		payload["canonical_url"] = input.CanonicalURL
	}

	return &Output{
		Payload:     payload,
		RelativeURL: input.Post.RelativeURL(),
	}, nil
}

// ResultURL reads the published URL from the Medium response, which nests the
// post document under "data".
func (f *Medium) ResultURL(response map[string]any) (string, error) {
	if url, ok := stringAt(response, "url"); ok {
		return url, nil
	}
	if url, ok := stringAt(response, "data", "url"); ok {
		return url, nil
	}
	return "", ErrResultURLMissing
}
