// Package reconcile diffs each refresh's PR identifier sets against the
// previous refresh to classify transitions. Identity is the full
// (owner, repo, number) triple; a bare PR number collides across
// repositories and is never used as a key on its own.
package reconcile

import (
	"sort"
	"sync"

	"github.com/hal/prwatch/internal/model"
)

// Changes classifies the PRs that transitioned between two refreshes.
type Changes struct {
	// New holds PRs open now that were not tracked before.
	New []model.Key
	// Reopened holds PRs open now that were previously closed.
	Reopened []model.Key
	// NewlyClosed holds PRs closed now that were previously open.
	NewlyClosed []model.Key
}

// Empty reports whether no transitions occurred.
func (c Changes) Empty() bool {
	return len(c.New) == 0 && len(c.Reopened) == 0 && len(c.NewlyClosed) == 0
}

// Policy decides which transitions warrant a notification. Closures
// always notify by default; new and reopened are opt-in.
type Policy struct {
	OnNewlyClosed bool
	OnNew         bool
	OnReopened    bool
}

// DefaultPolicy notifies on newly closed PRs only.
func DefaultPolicy() Policy {
	return Policy{OnNewlyClosed: true}
}

// Reconciler tracks the open and closed PR key sets between refreshes.
// It takes no collaborators and holds no ambient state beyond the sets
// themselves, so parallel instances are independent.
type Reconciler struct {
	mu         sync.Mutex
	seeded     bool
	prevOpen   map[model.Key]struct{}
	prevClosed map[model.Key]struct{}
}

// New creates an unseeded Reconciler. The first Diff only seeds the
// previous sets and reports no changes, so pre-existing PRs never fire
// spurious notifications at startup.
func New() *Reconciler {
	return &Reconciler{}
}

// Seed installs previous-state sets, typically restored from the
// persisted snapshot at startup. The next Diff then produces a real
// classification instead of a suppressed first run.
func (r *Reconciler) Seed(open, closed []model.Key) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.prevOpen = toSet(open)
	r.prevClosed = toSet(closed)
	r.seeded = true
}

// Diff classifies the current refresh against the previous one and
// advances the tracked sets. A key present in both current sets (the
// two searches raced against GitHub) is treated as closed and removed
// from the open set before classification.
func (r *Reconciler) Diff(currentOpen, currentClosed []model.Key) Changes {
	r.mu.Lock()
	defer r.mu.Unlock()

	curClosed := toSet(currentClosed)
	curOpen := toSet(currentOpen)
	for k := range curClosed {
		delete(curOpen, k)
	}

	if !r.seeded {
		r.prevOpen = curOpen
		r.prevClosed = curClosed
		r.seeded = true
		return Changes{}
	}

	var changes Changes

	// newly_closed = (previous_open − current_open) ∩ current_closed
	for k := range r.prevOpen {
		if _, open := curOpen[k]; open {
			continue
		}
		if _, closed := curClosed[k]; closed {
			changes.NewlyClosed = append(changes.NewlyClosed, k)
		}
	}

	// new = current_open − previous_open − previous_closed
	// reopened = current_open ∩ previous_closed
	for k := range curOpen {
		if _, ok := r.prevClosed[k]; ok {
			changes.Reopened = append(changes.Reopened, k)
			continue
		}
		if _, ok := r.prevOpen[k]; !ok {
			changes.New = append(changes.New, k)
		}
	}

	sortKeys(changes.New)
	sortKeys(changes.Reopened)
	sortKeys(changes.NewlyClosed)

	r.prevOpen = curOpen
	r.prevClosed = curClosed
	return changes
}

// Previous returns copies of the tracked sets, for tests and state
// inspection.
func (r *Reconciler) Previous() (open, closed []model.Key) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for k := range r.prevOpen {
		open = append(open, k)
	}
	for k := range r.prevClosed {
		closed = append(closed, k)
	}
	sortKeys(open)
	sortKeys(closed)
	return open, closed
}

func toSet(keys []model.Key) map[model.Key]struct{} {
	set := make(map[model.Key]struct{}, len(keys))
	for _, k := range keys {
		set[k] = struct{}{}
	}
	return set
}

func sortKeys(keys []model.Key) {
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Owner != keys[j].Owner {
			return keys[i].Owner < keys[j].Owner
		}
		if keys[i].Repo != keys[j].Repo {
			return keys[i].Repo < keys[j].Repo
		}
		return keys[i].Number < keys[j].Number
	})
}
