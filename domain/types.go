package domain

import internaldomain "github.com/goliatone/go-crosspost/internal/domain"

// Status represents lifecycle states for cross-post workflow records.
type Status = internaldomain.Status

const (
	// StatusNotStarted indicates no workflow has ever begun for the key.
	StatusNotStarted = internaldomain.StatusNotStarted
	// StatusInProgress indicates a workflow currently owns the record.
	StatusInProgress = internaldomain.StatusInProgress
	// StatusSucceeded indicates every platform branch completed successfully.
	StatusSucceeded = internaldomain.StatusSucceeded
	// StatusFailed indicates at least one branch failed or the workflow aborted.
	StatusFailed = internaldomain.StatusFailed
)

// PlatformID identifies one publishing target within a deployment.
type PlatformID = internaldomain.PlatformID

const (
	// PlatformDev is the dev.to style Forem API target.
	PlatformDev = internaldomain.PlatformDev
	// PlatformMedium is the Medium publishing API target.
	PlatformMedium = internaldomain.PlatformMedium
	// PlatformHashnode is the Hashnode GraphQL API target.
	PlatformHashnode = internaldomain.PlatformHashnode
	// PlatformBlog denotes the source blog itself.
	PlatformBlog = internaldomain.PlatformBlog
)
