package reconcile

import (
	"reflect"
	"testing"

	"github.com/hal/prwatch/internal/model"
)

func key(n int) model.Key {
	return model.Key{Owner: "org", Repo: "repo", Number: n}
}

func keys(nums ...int) []model.Key {
	out := make([]model.Key, 0, len(nums))
	for _, n := range nums {
		out = append(out, key(n))
	}
	return out
}

func TestDiffClassification(t *testing.T) {
	r := New()
	r.Seed(keys(1, 2, 3), keys(4))

	changes := r.Diff(keys(2, 3, 5), keys(1, 4))

	if want := keys(1); !reflect.DeepEqual(changes.NewlyClosed, want) {
		t.Errorf("NewlyClosed = %v, want %v", changes.NewlyClosed, want)
	}
	if want := keys(5); !reflect.DeepEqual(changes.New, want) {
		t.Errorf("New = %v, want %v", changes.New, want)
	}
	if len(changes.Reopened) != 0 {
		t.Errorf("Reopened = %v, want empty", changes.Reopened)
	}
}

func TestDiffFirstRunSuppressed(t *testing.T) {
	r := New()

	changes := r.Diff(keys(1, 2), keys(3))
	if !changes.Empty() {
		t.Errorf("first Diff reported changes: %+v", changes)
	}

	// The first call seeded the sets, so the second call classifies.
	changes = r.Diff(keys(2), keys(1, 3))
	if want := keys(1); !reflect.DeepEqual(changes.NewlyClosed, want) {
		t.Errorf("NewlyClosed = %v, want %v", changes.NewlyClosed, want)
	}
}

func TestDiffReopened(t *testing.T) {
	r := New()
	r.Seed(keys(1), keys(2))

	changes := r.Diff(keys(1, 2), nil)

	if want := keys(2); !reflect.DeepEqual(changes.Reopened, want) {
		t.Errorf("Reopened = %v, want %v", changes.Reopened, want)
	}
	if len(changes.New) != 0 {
		t.Errorf("New = %v, want empty", changes.New)
	}
}

func TestDiffVanishedIsNotClosed(t *testing.T) {
	// A PR that disappears from the open set without appearing in the
	// closed set (e.g. it aged out of the search window) is not a
	// closure.
	r := New()
	r.Seed(keys(1, 2), nil)

	changes := r.Diff(keys(2), nil)
	if len(changes.NewlyClosed) != 0 {
		t.Errorf("NewlyClosed = %v, want empty", changes.NewlyClosed)
	}
}

func TestDiffOpenAndClosedSameCycle(t *testing.T) {
	// The open and closed searches race against GitHub; a PR in both
	// sets is treated as closed.
	r := New()
	r.Seed(keys(1), nil)

	changes := r.Diff(keys(1), keys(1))
	if want := keys(1); !reflect.DeepEqual(changes.NewlyClosed, want) {
		t.Errorf("NewlyClosed = %v, want %v", changes.NewlyClosed, want)
	}

	open, closed := r.Previous()
	if len(open) != 0 {
		t.Errorf("previous open = %v, want empty", open)
	}
	if want := keys(1); !reflect.DeepEqual(closed, want) {
		t.Errorf("previous closed = %v, want %v", closed, want)
	}
}

func TestDiffNewExcludesPreviouslyClosed(t *testing.T) {
	// A PR coming back from the closed set is a reopen, never "new".
	r := New()
	r.Seed(nil, keys(1))

	changes := r.Diff(keys(1, 2), nil)

	if want := keys(2); !reflect.DeepEqual(changes.New, want) {
		t.Errorf("New = %v, want %v", changes.New, want)
	}
	if want := keys(1); !reflect.DeepEqual(changes.Reopened, want) {
		t.Errorf("Reopened = %v, want %v", changes.Reopened, want)
	}
}

func TestDiffAdvancesState(t *testing.T) {
	r := New()
	r.Seed(keys(1), nil)

	r.Diff(keys(1, 2), nil)

	// PR 2 was reported new once; a steady state reports nothing.
	changes := r.Diff(keys(1, 2), nil)
	if !changes.Empty() {
		t.Errorf("steady state reported changes: %+v", changes)
	}
}

func TestDiffCrossRepoKeys(t *testing.T) {
	// The same number in two repositories is two distinct PRs.
	a := model.Key{Owner: "org", Repo: "alpha", Number: 7}
	b := model.Key{Owner: "org", Repo: "beta", Number: 7}

	r := New()
	r.Seed([]model.Key{a}, nil)

	changes := r.Diff([]model.Key{a, b}, nil)
	if want := []model.Key{b}; !reflect.DeepEqual(changes.New, want) {
		t.Errorf("New = %v, want %v", changes.New, want)
	}
}

func TestChangesEmpty(t *testing.T) {
	if !(Changes{}).Empty() {
		t.Error("zero Changes should be empty")
	}
	if (Changes{New: keys(1)}).Empty() {
		t.Error("Changes with entries should not be empty")
	}
}

func TestDefaultPolicy(t *testing.T) {
	p := DefaultPolicy()
	if !p.OnNewlyClosed {
		t.Error("expected OnNewlyClosed to default to true")
	}
	if p.OnNew || p.OnReopened {
		t.Error("expected OnNew and OnReopened to default to false")
	}
}
