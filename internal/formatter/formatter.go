package formatter

import (
	"errors"
	"fmt"
	"strings"

	"github.com/goliatone/go-crosspost/internal/domain"
	"github.com/goliatone/go-crosspost/internal/post"
	"github.com/goliatone/go-crosspost/internal/resolver"
)

var (
	// ErrUnknownVariant indicates no formatter is registered for the variant.
	ErrUnknownVariant = errors.New("formatter: unknown variant")
	// ErrResultURLMissing indicates the publish response did not carry the
	// fields needed to derive the published URL.
	ErrResultURLMissing = errors.New("formatter: publish response missing result url")
)

// Input carries the parsed post plus the catalog-aware resolver and the
// absolute canonical URL for the article. CanonicalURL is empty when the
// destination platform is itself the canonical platform, so formatters never
// emit self-referential canonical links.
type Input struct {
	Post         *post.Post
	Resolver     *resolver.Resolver
	CanonicalURL string
}

// Output is the platform-shaped request body plus the article's canonical
// relative URL.
type Output struct {
	Payload     map[string]any
	RelativeURL string
}

// Formatter builds one platform's publish payload and knows how to read the
// published URL back out of that platform's response.
type Formatter interface {
	// Platform returns the target platform identifier.
	Platform() domain.PlatformID
	// Format builds the publish payload for the supplied post.
	Format(input Input) (*Output, error)
	// ResultURL derives the published article URL from the platform response.
	ResultURL(response map[string]any) (string, error)
	// EmbedTweet renders a canonical tweet URL in the platform's embed syntax.
	EmbedTweet(url string) string
}

// VariantConfig collects the per-platform extras a variant may need.
type VariantConfig struct {
	// OrganizationID attaches dev.to posts to an organization when set.
	OrganizationID string
	// PublicationID selects the hashnode publication to publish into.
	PublicationID string
	// BlogBaseURL is the platform blog root used to synthesize published
	// URLs from response slugs (hashnode).
	BlogBaseURL string
	// MaxTags caps how many tags the payload carries. Zero means no cap.
	MaxTags int
}

// ForVariant builds the formatter registered under the supplied variant name.
func ForVariant(variant string, cfg VariantConfig) (Formatter, error) {
	switch domain.NormalizePlatformID(variant) {
	case domain.PlatformDev:
		return NewDevTo(cfg.OrganizationID, cfg.MaxTags), nil
	case domain.PlatformMedium:
		return NewMedium(cfg.MaxTags), nil
	case domain.PlatformHashnode:
		return NewHashnode(cfg.PublicationID, cfg.BlogBaseURL), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownVariant, variant)
	}
}

// stringAt walks nested string-keyed maps and returns the string leaf at the
// supplied path.
func stringAt(value map[string]any, path ...string) (string, bool) {
	current := any(value)
	for _, key := range path {
		node, ok := current.(map[string]any)
		if !ok {
			return "", false
		}
		current, ok = node[key]
		if !ok {
			return "", false
		}
	}
	leaf, ok := current.(string)
	return leaf, ok && leaf != ""
}

func stripSpaces(values []string) []string {
	out := make([]string, 0, len(values))
	for _, value := range values {
		out = append(out, strings.ReplaceAll(value, " ", ""))
	}
	return out
}

// limitTags truncates the tag list to the platform's declared max_tags
// capability. A zero max keeps every tag.
func limitTags(values []string, max int) []string {
	if max > 0 && len(values) > max {
		return values[:max]
	}
	return values
}
