package section

import (
	"testing"
	"time"

	"github.com/hal/prwatch/internal/constants"
)

func TestSectionValid(t *testing.T) {
	for _, sec := range All {
		if !sec.Valid() {
			t.Errorf("expected %q to be valid", sec)
		}
	}
	if Section("merged").Valid() {
		t.Error("expected unknown section to be invalid")
	}
}

func TestEngineQuery(t *testing.T) {
	engine := NewEngine(7)
	engine.Now = func() time.Time {
		return time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)
	}

	tests := []struct {
		section Section
		want    string
	}{
		{Open, "is:pr is:open"},
		{NeedsReview, "is:pr is:open review:none comments:0 -draft:true"},
		{ChangesRequested, "is:pr is:open review:changes_requested -draft:true"},
		{RecentlyClosed, "is:pr is:closed closed:>=2024-05-03"},
	}

	for _, tt := range tests {
		t.Run(string(tt.section), func(t *testing.T) {
			if got := engine.Query(tt.section); got != tt.want {
				t.Errorf("Query(%q) = %q, want %q", tt.section, got, tt.want)
			}
		})
	}
}

func TestEngineRecentlyClosedThreshold(t *testing.T) {
	engine := NewEngine(30)
	engine.Now = func() time.Time {
		return time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)
	}

	want := "is:pr is:closed closed:>=2024-04-10"
	if got := engine.Query(RecentlyClosed); got != want {
		t.Errorf("Query(RecentlyClosed) = %q, want %q", got, want)
	}
}

func TestNewEngineDefaultDays(t *testing.T) {
	engine := NewEngine(0)
	if engine.RecentlyClosedDays != constants.DefaultRecentlyClosedDays {
		t.Errorf("RecentlyClosedDays = %d, want %d",
			engine.RecentlyClosedDays, constants.DefaultRecentlyClosedDays)
	}
}

func TestForUser(t *testing.T) {
	got := ForUser("is:pr is:open", "alice")
	want := "is:pr is:open author:alice"
	if got != want {
		t.Errorf("ForUser() = %q, want %q", got, want)
	}
}

func TestSectionBucket(t *testing.T) {
	if got := Open.Bucket(); got != "search-open" {
		t.Errorf("Bucket() = %q, want %q", got, "search-open")
	}
	if got := RecentlyClosed.Bucket(); got != "search-recently-closed" {
		t.Errorf("Bucket() = %q, want %q", got, "search-recently-closed")
	}
}

func TestSectionTitle(t *testing.T) {
	tests := []struct {
		section Section
		want    string
	}{
		{Open, "Open PRs"},
		{NeedsReview, "Needs Review"},
		{ChangesRequested, "Changes Requested"},
		{RecentlyClosed, "Recently Closed"},
	}

	for _, tt := range tests {
		if got := tt.section.Title(); got != tt.want {
			t.Errorf("Title(%q) = %q, want %q", tt.section, got, tt.want)
		}
	}
}
