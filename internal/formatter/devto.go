package formatter

import (
	"fmt"

	"github.com/goliatone/go-crosspost/internal/domain"
)

// DevTo formats posts for the dev.to Forem articles API.
type DevTo struct {
	organizationID string
	maxTags        int
}

// NewDevTo constructs the dev.to formatter. organizationID is optional;
// maxTags caps the tag list when positive.
func NewDevTo(organizationID string, maxTags int) *DevTo {
	return &DevTo{organizationID: organizationID, maxTags: maxTags}
}

var _ Formatter = (*DevTo)(nil)

func (f *DevTo) Platform() domain.PlatformID { return domain.PlatformDev }

// EmbedTweet renders the Forem liquid tag for tweet embeds.
func (f *DevTo) EmbedTweet(url string) string {
	return fmt.Sprintf("{%% twitter %s %%}", url)
}

// Format builds the dev.to article payload. Tags have their whitespace
// stripped; the API rejects tags containing spaces.
func (f *DevTo) Format(input Input) (*Output, error) {
	meta := input.Post.FrontMatter
	body := input.Resolver.Resolve(input.Post.Body, domain.PlatformDev, f.EmbedTweet)

	tags := limitTags(append(stripSpaces(meta.Categories), stripSpaces(meta.Tags)...), f.maxTags)

	article := map[string]any{
		"title":         meta.Title,
		"published":     true,
		"main_image":    meta.Image,
		"description":   meta.Description,
		"tags":          tags,
		"body_markdown": body,
	}
	if input.CanonicalURL != "" {
		article["canonical_url"] = input.CanonicalURL
	}
	if f.organizationID != "" {
		article["organization_id"] = f.organizationID
	}

	return &Output{
		Payload:     map[string]any{"article": article},
		RelativeURL: input.Post.RelativeURL(),
	}, nil
}

// ResultURL reads the published URL from the dev.to response.
func (f *DevTo) ResultURL(response map[string]any) (string, error) {
	if url, ok := stringAt(response, "url"); ok {
		return url, nil
	}
	return "", ErrResultURLMissing
}
