package domain

import "strings"

// PlatformID identifies one publishing target within a deployment.
type PlatformID string

const (
	// PlatformDev is the dev.to style Forem API target.
	PlatformDev PlatformID = "dev"
	// PlatformMedium is the Medium publishing API target.
	PlatformMedium PlatformID = "medium"
	// PlatformHashnode is the Hashnode GraphQL API target.
	PlatformHashnode PlatformID = "hashnode"
	// PlatformBlog denotes the source blog itself. It is never published to;
	// selecting it as canonical skips the canonical branch entirely.
	PlatformBlog PlatformID = "blog"
)

// NormalizePlatformID lowercases and trims a platform identifier.
func NormalizePlatformID(input string) PlatformID {
	return PlatformID(strings.ToLower(strings.TrimSpace(input)))
}
