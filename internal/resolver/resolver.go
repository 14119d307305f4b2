package resolver

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/goliatone/go-crosspost/internal/domain"
	"github.com/goliatone/go-crosspost/internal/ledger"
)

var (
	// linkPattern matches markdown-style link targets: the text between a
	// balanced pair of parentheses. Rewriting is text substitution, not
	// structural markdown parsing.
	linkPattern = regexp.MustCompile(`\(([^)]*)\)`)
	// tweetPattern matches the fixed tweet-embed shortcode emitted by the
	// source blog templates.
	tweetPattern = regexp.MustCompile(`\{\{<tweet user="([a-zA-Z0-9]*)" id="([\d]*)">\}\}`)
)

// TweetEmbedder renders the canonical tweet URL in one platform's embed
// syntax.
type TweetEmbedder func(url string) string

// TweetURL builds the canonical tweet URL shared by every platform's embed.
func TweetURL(user, id string) string {
	return fmt.Sprintf("https://twitter.com/%s/status/%s", user, id)
}

// Resolver rewrites intra-site links and tweet-embed shortcodes in post
// bodies using the published-article catalog.
type Resolver struct {
	entries      []*ledger.CatalogEntry
	fallbackBase string
}

// New builds a resolver over the supplied catalog snapshot. fallbackBase is
// the absolute base URL substituted when a catalog entry has no URL for the
// destination platform.
func New(entries []*ledger.CatalogEntry, fallbackBase string) *Resolver {
	return &Resolver{
		entries:      entries,
		fallbackBase: strings.TrimRight(fallbackBase, "/"),
	}
}

// Resolve runs both rewrite passes for the destination platform.
func (r *Resolver) Resolve(body string, platform domain.PlatformID, embed TweetEmbedder) string {
	return r.RewriteTweets(r.RewriteLinks(body, platform), embed)
}

// RewriteLinks replaces link targets that match a catalog entry's canonical
// URL with the entry's URL for the destination platform, falling back to the
// configured base URL. Targets without a catalog match are left unchanged;
// identical targets are all replaced together.
func (r *Resolver) RewriteLinks(body string, platform domain.PlatformID) string {
	seen := map[string]struct{}{}
	for _, match := range linkPattern.FindAllStringSubmatch(body, -1) {
		target := match[1]
		if target == "" {
			continue
		}
		if _, done := seen[target]; done {
			continue
		}
		seen[target] = struct{}{}

		entry := r.lookup(target)
		if entry == nil {
			continue
		}
		replacement, ok := entry.PlatformURL(platform)
		if !ok {
			replacement = r.fallbackBase + entry.Links.URL
		}
		body = strings.ReplaceAll(body, target, replacement)
	}
	return body
}

// RewriteTweets replaces tweet shortcodes with the platform embed expression
// built from the canonical tweet URL. A nil embedder leaves the body
// untouched.
func (r *Resolver) RewriteTweets(body string, embed TweetEmbedder) string {
	if embed == nil {
		return body
	}
	return tweetPattern.ReplaceAllStringFunc(body, func(shortcode string) string {
		parts := tweetPattern.FindStringSubmatch(shortcode)
		if len(parts) != 3 {
			return shortcode
		}
		return embed(TweetURL(parts[1], parts[2]))
	})
}

func (r *Resolver) lookup(target string) *ledger.CatalogEntry {
	for _, entry := range r.entries {
		if entry != nil && entry.Links.URL == target {
			return entry
		}
	}
	return nil
}
