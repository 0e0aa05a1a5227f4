// Package constants provides a centralized location for configuration
// values and magic numbers used throughout the prwatch application.
package constants

import "time"

// Fetch constants
const (
	// DefaultWorkers is the bound on simultaneous outbound API requests
	// shared across all sections in a refresh cycle.
	DefaultWorkers = 4

	// SearchPageSize is the per_page value for search and timeline calls.
	SearchPageSize = 100

	// MaxResultsPerUser caps the number of search results kept per user
	// per section; the final page is trimmed to this cap.
	MaxResultsPerUser = 100
)

// Cache TTL constants
const (
	// SectionCacheTTL is the maximum age of a cached section search
	// result before it must be re-fetched.
	SectionCacheTTL = 10 * time.Minute

	// DetailCacheTTL is the maximum age of cached per-PR diff stats.
	DetailCacheTTL = 1 * time.Hour

	// TimelineCacheTTL is the maximum age of cached PR timelines.
	TimelineCacheTTL = 30 * time.Minute
)

// Refresh constants
const (
	// DefaultRefreshInterval drives the watch loop when the settings
	// file does not specify a cadence.
	DefaultRefreshInterval = 30 * time.Second

	// DefaultRecentlyClosedDays is the recency threshold for the
	// recently-closed section.
	DefaultRecentlyClosedDays = 7
)
