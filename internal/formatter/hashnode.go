package formatter

import (
	"fmt"
	"strings"

	"github.com/goliatone/go-crosspost/internal/domain"
)

const createStoryMutation = "mutation createPublicationStory($input: CreateStoryInput!, $publicationId: String!){ createPublicationStory( input: $input, publicationId: $publicationId ){ code success message post { slug }} }"

// Hashnode formats posts for the Hashnode GraphQL API.
type Hashnode struct {
	publicationID string
	blogBaseURL   string
}

// NewHashnode constructs the Hashnode formatter. blogBaseURL is the
// publication root used to synthesize published URLs from response slugs.
func NewHashnode(publicationID, blogBaseURL string) *Hashnode {
	return &Hashnode{
		publicationID: publicationID,
		blogBaseURL:   strings.TrimRight(blogBaseURL, "/"),
	}
}

var _ Formatter = (*Hashnode)(nil)

func (f *Hashnode) Platform() domain.PlatformID { return domain.PlatformHashnode }

// EmbedTweet renders Hashnode's embed shorthand.
func (f *Hashnode) EmbedTweet(url string) string {
	return fmt.Sprintf("%%[%s]", url)
}

// Format builds the createPublicationStory mutation. Canonical metadata goes
// under the isRepublished structure rather than a flat field.
func (f *Hashnode) Format(input Input) (*Output, error) {
	meta := input.Post.FrontMatter
	body := input.Resolver.Resolve(input.Post.Body, domain.PlatformHashnode, f.EmbedTweet)

	storyInput := map[string]any{
		"title":           meta.Title,
		"contentMarkdown": body,
		"coverImageURL":   meta.Image,
		"tags":            []any{},
		"subtitle":        meta.Description,
	}
	if input.CanonicalURL != "" {
		storyInput["isRepublished"] = map[string]any{
			"originalArticleURL": input.CanonicalURL,
		}
	}

	payload := map[string]any{
		"query": createStoryMutation,
		"variables": map[string]any{
			"publicationId": f.publicationID,
			"input":         storyInput,
		},
	}

	return &Output{
		Payload:     payload,
		RelativeURL: input.Post.RelativeURL(),
	}, nil
}

// ResultURL synthesizes the published URL from the mutation response slug.
func (f *Hashnode) ResultURL(response map[string]any) (string, error) {
	slug, ok := stringAt(response, "data", "createPublicationStory", "post", "slug")
	if !ok {
		return "", ErrResultURLMissing
	}
	return f.blogBaseURL + "/" + slug, nil
}
