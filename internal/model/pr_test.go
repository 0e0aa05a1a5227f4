package model

import (
	"testing"
	"time"
)

func TestKeyString(t *testing.T) {
	k := Key{Owner: "org", Repo: "repo", Number: 42}
	if got := k.String(); got != "org/repo#42" {
		t.Errorf("String() = %q, want %q", got, "org/repo#42")
	}
}

func TestKeyDistinctAcrossRepos(t *testing.T) {
	a := Key{Owner: "org", Repo: "alpha", Number: 7}
	b := Key{Owner: "org", Repo: "beta", Number: 7}
	if a == b {
		t.Error("keys for different repos should not be equal")
	}

	set := map[Key]struct{}{a: {}, b: {}}
	if len(set) != 2 {
		t.Errorf("set size = %d, want 2", len(set))
	}
}

func TestPullRequestClosed(t *testing.T) {
	merged := time.Now()

	tests := []struct {
		name string
		pr   PullRequest
		want bool
	}{
		{"open", PullRequest{State: StateOpen}, false},
		{"closed state", PullRequest{State: StateClosed}, true},
		{"merged with open state", PullRequest{State: StateOpen, MergedAt: &merged}, true},
		{"draft open", PullRequest{State: StateOpen, Draft: true}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.pr.Closed(); got != tt.want {
				t.Errorf("Closed() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestActorLogin(t *testing.T) {
	tests := []struct {
		name  string
		actor Actor
		want  string
	}{
		{"user", Actor{Kind: ActorUser, User: &User{Login: "alice"}}, "alice"},
		{"commit author", Actor{Kind: ActorCommitAuthor, Name: "Bob", Email: "bob@example.com"}, "Bob"},
		{"zero value", Actor{}, ""},
		{"user kind without user", Actor{Kind: ActorUser}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.actor.Login(); got != tt.want {
				t.Errorf("Login() = %q, want %q", got, tt.want)
			}
		})
	}
}
