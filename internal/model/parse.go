package model

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	gh "github.com/google/go-github/v57/github"
)

// ParseError reports a search result that is missing a field the data
// model requires. The caller skips the record and keeps the batch.
type ParseError struct {
	Field string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("pull request payload missing required field %q", e.Field)
}

// FromSearchIssue converts a search API result into a PullRequest.
// Search results for PRs arrive as issues; required fields missing from
// the payload produce a ParseError.
func FromSearchIssue(issue *gh.Issue) (PullRequest, error) {
	for _, f := range []struct {
		name string
		ok   bool
	}{
		{"id", issue.ID != nil},
		{"number", issue.Number != nil},
		{"title", issue.Title != nil},
		{"state", issue.State != nil},
		{"created_at", issue.CreatedAt != nil},
		{"updated_at", issue.UpdatedAt != nil},
		{"draft", issue.Draft != nil},
		{"user", issue.User != nil},
		{"html_url", issue.HTMLURL != nil},
	} {
		if !f.ok {
			return PullRequest{}, &ParseError{Field: f.name}
		}
	}

	owner, repo := repoFromIssue(issue)
	if owner == "" || repo == "" {
		return PullRequest{}, &ParseError{Field: "repository_url"}
	}

	pr := PullRequest{
		ID:        issue.GetID(),
		Number:    issue.GetNumber(),
		Title:     issue.GetTitle(),
		State:     issue.GetState(),
		CreatedAt: issue.GetCreatedAt().UTC(),
		UpdatedAt: issue.GetUpdatedAt().UTC(),
		Draft:     issue.GetDraft(),
		HTMLURL:   issue.GetHTMLURL(),
		RepoOwner: owner,
		RepoName:  repo,
		User: User{
			Login:     issue.GetUser().GetLogin(),
			ID:        issue.GetUser().GetID(),
			Type:      issue.GetUser().GetType(),
			SiteAdmin: issue.GetUser().GetSiteAdmin(),
			AvatarURL: issue.GetUser().GetAvatarURL(),
			URL:       issue.GetUser().GetURL(),
		},
	}

	if issue.ClosedAt != nil {
		t := issue.GetClosedAt().UTC()
		pr.ClosedAt = &t
	}

	return pr, nil
}

// ApplyDetails copies the diff stats and merge state from a pulls API
// response onto an already-parsed PR.
func ApplyDetails(pr *PullRequest, detail *gh.PullRequest) {
	if detail == nil {
		return
	}
	pr.Diff = &DiffStats{
		ChangedFiles: detail.GetChangedFiles(),
		Additions:    detail.GetAdditions(),
		Deletions:    detail.GetDeletions(),
	}
	if detail.MergedAt != nil {
		t := detail.GetMergedAt().UTC()
		pr.MergedAt = &t
	}
}

// repoFromIssue derives (owner, repo) from the repository_url when
// present, falling back to splitting the html_url path. The two URL
// shapes place the segments differently:
//
//	https://api.github.com/repos/{owner}/{repo}
//	https://github.com/{owner}/{repo}/pull/{number}
func repoFromIssue(issue *gh.Issue) (owner, repo string) {
	if u := issue.GetRepositoryURL(); u != "" {
		parts := strings.Split(strings.TrimSuffix(u, "/"), "/")
		if len(parts) >= 2 {
			return parts[len(parts)-2], parts[len(parts)-1]
		}
	}
	parts := strings.Split(strings.TrimSuffix(issue.GetHTMLURL(), "/"), "/")
	if len(parts) >= 4 {
		return parts[len(parts)-4], parts[len(parts)-3]
	}
	return "", ""
}

// commitAuthor is the bare git author shape on "committed" events.
type commitAuthor struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Date  string `json:"date"`
}

// timelineWire covers the union of fields across timeline event shapes.
type timelineWire struct {
	ID          int64         `json:"id"`
	NodeID      string        `json:"node_id"`
	URL         string        `json:"url"`
	Event       string        `json:"event"`
	Actor       *User         `json:"actor"`
	User        *User         `json:"user"`
	Author      *commitAuthor `json:"author"`
	State       string        `json:"state"`
	CreatedAt   string        `json:"created_at"`
	UpdatedAt   string        `json:"updated_at"`
	SubmittedAt string        `json:"submitted_at"`
}

// ParseEvent parses a single raw timeline event. It returns an error
// for payloads without a recognized "event" value; the caller drops
// the event and continues.
func ParseEvent(data json.RawMessage) (TimelineEvent, error) {
	var w timelineWire
	if err := json.Unmarshal(data, &w); err != nil {
		return TimelineEvent{}, fmt.Errorf("malformed timeline event: %w", err)
	}

	typ, ok := eventTypeOf(w)
	if !ok {
		return TimelineEvent{}, fmt.Errorf("unrecognized timeline event %q", w.Event)
	}

	return TimelineEvent{
		ID:        w.ID,
		NodeID:    w.NodeID,
		URL:       w.URL,
		Type:      typ,
		Actor:     actorOf(w),
		CreatedAt: parseEventTime(w.CreatedAt, w.SubmittedAt),
		UpdatedAt: parseEventTime(w.UpdatedAt),
	}, nil
}

// ParseEvents parses a list of raw timeline events. Malformed entries
// are dropped individually; the dropped count is returned so the caller
// can log it.
func ParseEvents(items []json.RawMessage) (events []TimelineEvent, dropped int) {
	for _, item := range items {
		ev, err := ParseEvent(item)
		if err != nil {
			dropped++
			continue
		}
		events = append(events, ev)
	}
	return events, dropped
}

// eventTypeOf maps the wire event name to an EventType. "reviewed"
// events are refined by their review state.
func eventTypeOf(w timelineWire) (EventType, bool) {
	if w.Event == string(EventReviewed) {
		switch w.State {
		case "approved":
			return EventApproved, true
		case "changes_requested":
			return EventChangesRequested, true
		default:
			return EventReviewed, true
		}
	}
	for _, t := range AllEventTypes {
		if w.Event == string(t) {
			return t, true
		}
	}
	return "", false
}

// actorOf picks the Actor variant from whichever author fields the
// payload carries. A git commit author is recognized by its email.
func actorOf(w timelineWire) Actor {
	if w.Author != nil && w.Author.Email != "" {
		return Actor{Kind: ActorCommitAuthor, Name: w.Author.Name, Email: w.Author.Email}
	}
	if w.Actor != nil {
		return Actor{Kind: ActorUser, User: w.Actor}
	}
	if w.User != nil {
		return Actor{Kind: ActorUser, User: w.User}
	}
	return Actor{}
}

// parseEventTime parses the first non-empty timestamp, normalized to
// UTC. An unparseable value yields nil rather than failing the event.
func parseEventTime(values ...string) *time.Time {
	for _, v := range values {
		if v == "" {
			continue
		}
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return nil
		}
		utc := t.UTC()
		return &utc
	}
	return nil
}
