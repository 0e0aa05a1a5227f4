// Package model contains domain types for the prwatch application.
// These types are independent of any external GitHub library.
package model

import (
	"fmt"
	"time"
)

// User represents a GitHub account as embedded in a pull request or
// timeline event. Each owning record carries its own copy; there is no
// shared identity cache.
type User struct {
	Login     string `json:"login"`
	ID        int64  `json:"id"`
	Type      string `json:"type,omitempty"`
	SiteAdmin bool   `json:"site_admin,omitempty"`
	AvatarURL string `json:"avatar_url,omitempty"`
	URL       string `json:"url,omitempty"`
}

// PR state constants as returned by the search API.
const (
	StateOpen   = "open"
	StateClosed = "closed"
)

// Key identifies a pull request across repositories. A bare PR number
// collides between repos, so set membership and dedup always use the
// full (owner, repo, number) triple.
type Key struct {
	Owner  string `json:"owner"`
	Repo   string `json:"repo"`
	Number int    `json:"number"`
}

func (k Key) String() string {
	return fmt.Sprintf("%s/%s#%d", k.Owner, k.Repo, k.Number)
}

// DiffStats holds the change-size fields attached to a PR by the
// detail-fetch phase.
type DiffStats struct {
	ChangedFiles int `json:"changed_files"`
	Additions    int `json:"additions"`
	Deletions    int `json:"deletions"`
}

// PullRequest is a single pull request as classified into a section.
// Records are rebuilt from scratch on every refresh; identity across
// refreshes lives only in the reconciler's key sets.
type PullRequest struct {
	ID        int64      `json:"id"`
	Number    int        `json:"number"`
	Title     string     `json:"title"`
	State     string     `json:"state"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	ClosedAt  *time.Time `json:"closed_at,omitempty"`
	MergedAt  *time.Time `json:"merged_at,omitempty"`
	Draft     bool       `json:"draft"`
	User      User       `json:"user"`
	HTMLURL   string     `json:"html_url"`
	RepoOwner string     `json:"repo_owner"`
	RepoName  string     `json:"repo_name"`

	// Enrichment fields, nil until the detail-fetch phase succeeds.
	Diff *DiffStats `json:"diff,omitempty"`

	// Timeline is only populated when timeline enrichment is requested.
	Timeline []TimelineEvent `json:"timeline,omitempty"`
}

// Key returns the cross-repo identity of the PR.
func (pr *PullRequest) Key() Key {
	return Key{Owner: pr.RepoOwner, Repo: pr.RepoName, Number: pr.Number}
}

// Closed reports whether the PR counts as closed for section purposes.
// Merged PRs report state "closed" from the API, but a non-nil merged_at
// is accepted on its own as well.
func (pr *PullRequest) Closed() bool {
	return pr.State == StateClosed || pr.MergedAt != nil
}
