// Package section maps the four PR classification buckets to GitHub
// search queries and cache policy. Query construction is pure string
// building; no network or state.
package section

import (
	"fmt"
	"time"

	"github.com/hal/prwatch/internal/constants"
)

// Section is one of the four classification buckets. It is a label
// attached to a query and to a result bucket, not a stored entity.
type Section string

const (
	Open             Section = "open"
	NeedsReview      Section = "needs-review"
	ChangesRequested Section = "changes-requested"
	RecentlyClosed   Section = "recently-closed"
)

// All contains every section in display order.
var All = []Section{Open, NeedsReview, ChangesRequested, RecentlyClosed}

// Valid reports whether s is a known section.
func (s Section) Valid() bool {
	switch s {
	case Open, NeedsReview, ChangesRequested, RecentlyClosed:
		return true
	}
	return false
}

// Title returns the section's display heading.
func (s Section) Title() string {
	switch s {
	case Open:
		return "Open PRs"
	case NeedsReview:
		return "Needs Review"
	case ChangesRequested:
		return "Changes Requested"
	case RecentlyClosed:
		return "Recently Closed"
	}
	return string(s)
}

// Engine builds search queries for sections. Instances carry their own
// settings so parallel test instances never share state.
type Engine struct {
	// RecentlyClosedDays is the recency threshold N for the
	// recently-closed section's closed:>= clause.
	RecentlyClosedDays int

	// Now is injectable for tests; nil means time.Now.
	Now func() time.Time
}

// NewEngine returns an Engine with the given recency threshold.
// Non-positive days fall back to the default.
func NewEngine(recentlyClosedDays int) *Engine {
	if recentlyClosedDays <= 0 {
		recentlyClosedDays = constants.DefaultRecentlyClosedDays
	}
	return &Engine{RecentlyClosedDays: recentlyClosedDays}
}

func (e *Engine) now() time.Time {
	if e.Now != nil {
		return e.Now()
	}
	return time.Now()
}

// Query returns the search query for a section.
func (e *Engine) Query(s Section) string {
	switch s {
	case Open:
		return "is:pr is:open"
	case NeedsReview:
		return "is:pr is:open review:none comments:0 -draft:true"
	case ChangesRequested:
		return "is:pr is:open review:changes_requested -draft:true"
	case RecentlyClosed:
		threshold := e.now().AddDate(0, 0, -e.RecentlyClosedDays)
		return fmt.Sprintf("is:pr is:closed closed:>=%s", threshold.Format("2006-01-02"))
	}
	return ""
}

// ForUser scopes a section query to a single author.
func ForUser(query, login string) string {
	return query + " author:" + login
}

// TTL returns how long cached results for a section stay valid.
func (s Section) TTL() time.Duration {
	return constants.SectionCacheTTL
}

// Bucket returns the cache bucket name for a section's search results.
func (s Section) Bucket() string {
	return "search-" + string(s)
}
