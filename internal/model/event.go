package model

import "time"

// EventType classifies a timeline event.
// See: https://docs.github.com/en/rest/issues/timeline
type EventType string

const (
	EventCommented            EventType = "commented"
	EventCommitted            EventType = "committed"
	EventReopened             EventType = "reopened"
	EventClosed               EventType = "closed"
	EventMerged               EventType = "merged"
	EventReviewRequested      EventType = "review_requested"
	EventReviewRequestRemoved EventType = "review_request_removed"
	EventReviewed             EventType = "reviewed"
	EventApproved             EventType = "approved"
	EventChangesRequested     EventType = "changes_requested"
)

// AllEventTypes contains all timeline event types prwatch understands.
// Events with any other type are dropped during parsing.
var AllEventTypes = []EventType{
	EventCommented,
	EventCommitted,
	EventReopened,
	EventClosed,
	EventMerged,
	EventReviewRequested,
	EventReviewRequestRemoved,
	EventReviewed,
	EventApproved,
	EventChangesRequested,
}

// ActorKind discriminates the two author payload shapes the timeline
// API returns: a full GitHub user, or a bare git commit author.
type ActorKind string

const (
	ActorUser         ActorKind = "user"
	ActorCommitAuthor ActorKind = "commit_author"
)

// Actor is a tagged variant of the two author shapes. The parser picks
// the kind from the fields present in the payload; downstream code
// switches on Kind instead of probing fields.
type Actor struct {
	Kind ActorKind `json:"kind"`

	// User is set when Kind == ActorUser.
	User *User `json:"user,omitempty"`

	// Name and Email are set when Kind == ActorCommitAuthor.
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
}

// Login returns a display name for the actor regardless of kind.
func (a Actor) Login() string {
	switch a.Kind {
	case ActorUser:
		if a.User != nil {
			return a.User.Login
		}
	case ActorCommitAuthor:
		return a.Name
	}
	return ""
}

// TimelineEvent is a single event from a PR's issue timeline.
type TimelineEvent struct {
	ID        int64      `json:"id,omitempty"`
	NodeID    string     `json:"node_id,omitempty"`
	URL       string     `json:"url,omitempty"`
	Actor     Actor      `json:"actor"`
	Type      EventType  `json:"event"`
	CreatedAt *time.Time `json:"created_at,omitempty"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
}
