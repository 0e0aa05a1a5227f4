package watch

import (
	"context"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	gh "github.com/google/go-github/v57/github"
	"github.com/hal/prwatch/internal/model"
	"github.com/hal/prwatch/internal/notify"
	"github.com/hal/prwatch/internal/reconcile"
	"github.com/hal/prwatch/internal/section"
	"github.com/hal/prwatch/internal/service"
	"github.com/hal/prwatch/internal/state"
)

// fakeGitHub serves canned open and closed PR sets. An optional gate
// channel blocks searches until released, for in-flight tests.
type fakeGitHub struct {
	mu     sync.Mutex
	calls  int
	open   []model.PullRequest
	closed []model.PullRequest
	gate   chan struct{}
}

func (f *fakeGitHub) SearchPRs(ctx context.Context, query string, maxResults int) ([]model.PullRequest, error) {
	f.mu.Lock()
	f.calls++
	gate := f.gate
	f.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if strings.Contains(query, "is:closed") {
		return append([]model.PullRequest(nil), f.closed...), nil
	}
	if strings.Contains(query, "review:") || strings.Contains(query, "comments:") {
		return nil, nil
	}
	return append([]model.PullRequest(nil), f.open...), nil
}

func (f *fakeGitHub) PRDetails(ctx context.Context, owner, repo string, number int) (*gh.PullRequest, error) {
	return &gh.PullRequest{
		ChangedFiles: gh.Int(1),
		Additions:    gh.Int(1),
		Deletions:    gh.Int(1),
	}, nil
}

func (f *fakeGitHub) PRTimeline(ctx context.Context, owner, repo string, number int) ([]model.TimelineEvent, error) {
	return nil, nil
}

func (f *fakeGitHub) searchCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// recorder collects notifications.
type recorder struct {
	mu       sync.Mutex
	messages []string
}

func (r *recorder) Notify(title, message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = append(r.messages, title+": "+message)
}

func (r *recorder) all() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.messages...)
}

func watchPR(repo string, number int, st string) model.PullRequest {
	return model.PullRequest{
		ID:        int64(number),
		Number:    number,
		Title:     "test PR",
		State:     st,
		CreatedAt: time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC),
		UpdatedAt: time.Date(2024, 5, 2, 0, 0, 0, 0, time.UTC),
		User:      model.User{Login: "alice", ID: 1},
		RepoOwner: "org",
		RepoName:  repo,
	}
}

func newTestWatcher(t *testing.T, fake *fakeGitHub, rec *recorder, policy reconcile.Policy) (*Watcher, *state.Store) {
	t.Helper()

	svc := service.New(fake, nil, section.NewEngine(7))
	store := state.Load(filepath.Join(t.TempDir(), "state.json"))

	w := New(Config{
		Service:    svc,
		Fetcher:    service.NewFetcher(svc, 4),
		Reconciler: reconcile.New(),
		State:      store,
		Notifier:   rec,
		Policy:     policy,
		Users:      []string{"alice"},
		Interval:   time.Hour,
	})
	return w, store
}

func TestRefreshFirstRunSuppressed(t *testing.T) {
	fake := &fakeGitHub{open: []model.PullRequest{watchPR("repo", 1, model.StateOpen)}}
	rec := &recorder{}
	w, _ := newTestWatcher(t, fake, rec, reconcile.DefaultPolicy())

	w.Refresh(context.Background(), false)

	if msgs := rec.all(); len(msgs) != 0 {
		t.Errorf("first refresh should not notify, got %v", msgs)
	}
}

func TestRefreshNotifiesOnClose(t *testing.T) {
	fake := &fakeGitHub{open: []model.PullRequest{watchPR("repo", 1, model.StateOpen)}}
	rec := &recorder{}
	w, _ := newTestWatcher(t, fake, rec, reconcile.DefaultPolicy())

	w.Refresh(context.Background(), false)

	fake.mu.Lock()
	fake.open = nil
	fake.closed = []model.PullRequest{watchPR("repo", 1, model.StateClosed)}
	fake.mu.Unlock()

	w.Refresh(context.Background(), false)

	msgs := rec.all()
	if len(msgs) != 1 {
		t.Fatalf("got %d notifications, want 1: %v", len(msgs), msgs)
	}
	if !strings.Contains(msgs[0], "1 PR(s) closed") {
		t.Errorf("unexpected notification: %q", msgs[0])
	}
}

func TestRefreshPolicySuppressesNew(t *testing.T) {
	fake := &fakeGitHub{}
	rec := &recorder{}
	w, _ := newTestWatcher(t, fake, rec, reconcile.DefaultPolicy())

	w.Refresh(context.Background(), false)

	fake.mu.Lock()
	fake.open = []model.PullRequest{watchPR("repo", 2, model.StateOpen)}
	fake.mu.Unlock()

	w.Refresh(context.Background(), false)

	// Default policy notifies on closures only.
	if msgs := rec.all(); len(msgs) != 0 {
		t.Errorf("new PRs should not notify under default policy, got %v", msgs)
	}
}

func TestRefreshNotifiesNewAndReopened(t *testing.T) {
	fake := &fakeGitHub{closed: []model.PullRequest{watchPR("repo", 1, model.StateClosed)}}
	rec := &recorder{}
	policy := reconcile.Policy{OnNewlyClosed: true, OnNew: true, OnReopened: true}
	w, _ := newTestWatcher(t, fake, rec, policy)

	w.Refresh(context.Background(), false)

	fake.mu.Lock()
	fake.open = []model.PullRequest{
		watchPR("repo", 1, model.StateOpen),
		watchPR("repo", 2, model.StateOpen),
	}
	fake.closed = nil
	fake.mu.Unlock()

	w.Refresh(context.Background(), false)

	msgs := rec.all()
	if len(msgs) != 2 {
		t.Fatalf("got %d notifications, want 2: %v", len(msgs), msgs)
	}

	joined := strings.Join(msgs, "\n")
	if !strings.Contains(joined, "1 new PR(s) to review") {
		t.Errorf("missing new PR notification: %v", msgs)
	}
	if !strings.Contains(joined, "1 PR(s) reopened") {
		t.Errorf("missing reopened notification: %v", msgs)
	}
}

func TestRefreshPersistsState(t *testing.T) {
	fake := &fakeGitHub{open: []model.PullRequest{watchPR("repo", 1, model.StateOpen)}}
	rec := &recorder{}
	w, store := newTestWatcher(t, fake, rec, reconcile.DefaultPolicy())

	w.Refresh(context.Background(), false)

	data, _, ok := store.PRData(section.Open)
	if !ok {
		t.Fatal("expected open section persisted")
	}
	if len(data["alice"]) != 1 {
		t.Errorf("persisted alice PRs = %d, want 1", len(data["alice"]))
	}
}

func TestNewSeedsFromState(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")

	prev := state.Load(path)
	if err := prev.SetPRData(section.Open, map[string][]model.PullRequest{
		"alice": {watchPR("repo", 1, model.StateOpen)},
	}); err != nil {
		t.Fatalf("SetPRData() error: %v", err)
	}

	// PR 1 closes while the watcher was down.
	fake := &fakeGitHub{closed: []model.PullRequest{watchPR("repo", 1, model.StateClosed)}}
	rec := &recorder{}
	svc := service.New(fake, nil, section.NewEngine(7))

	w := New(Config{
		Service:    svc,
		Fetcher:    service.NewFetcher(svc, 4),
		Reconciler: reconcile.New(),
		State:      state.Load(path),
		Notifier:   rec,
		Policy:     reconcile.DefaultPolicy(),
		Users:      []string{"alice"},
		Interval:   time.Hour,
	})

	// The reconciler was seeded from the snapshot, so the very first
	// refresh classifies instead of suppressing.
	w.Refresh(context.Background(), false)

	msgs := rec.all()
	if len(msgs) != 1 || !strings.Contains(msgs[0], "1 PR(s) closed") {
		t.Errorf("got %v, want one closed notification", msgs)
	}
}

func TestRefreshSingleInFlight(t *testing.T) {
	gate := make(chan struct{})
	fake := &fakeGitHub{gate: gate}
	rec := &recorder{}
	w, _ := newTestWatcher(t, fake, rec, reconcile.DefaultPolicy())

	done := make(chan struct{})
	go func() {
		w.Refresh(context.Background(), false)
		close(done)
	}()

	// Wait for the first refresh to be in flight.
	deadline := time.After(2 * time.Second)
	for fake.searchCalls() == 0 {
		select {
		case <-deadline:
			t.Fatal("first refresh never started")
		case <-time.After(time.Millisecond):
		}
	}

	before := fake.searchCalls()
	w.Refresh(context.Background(), false) // no-op, returns immediately
	if got := fake.searchCalls(); got != before {
		t.Errorf("overlapping refresh issued searches: %d -> %d", before, got)
	}

	close(gate)
	<-done

	if !w.refreshing.CompareAndSwap(false, true) {
		t.Error("refreshing flag not released after cycle")
	}
	w.refreshing.Store(false)
}

func TestRunStopsOnCancel(t *testing.T) {
	fake := &fakeGitHub{}
	rec := &recorder{}
	w, _ := newTestWatcher(t, fake, rec, reconcile.DefaultPolicy())

	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() {
		done <- w.Run(ctx)
	}()

	// Let the immediate refresh complete, then cancel.
	deadline := time.After(2 * time.Second)
	for fake.searchCalls() == 0 {
		select {
		case <-deadline:
			t.Fatal("initial refresh never ran")
		case <-time.After(time.Millisecond):
		}
	}
	cancel()

	select {
	case err := <-done:
		if err != context.Canceled {
			t.Errorf("Run() = %v, want context.Canceled", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run() did not stop on cancel")
	}
}

func TestNewDefaults(t *testing.T) {
	w := New(Config{})
	if w.cfg.Interval <= 0 {
		t.Error("expected default interval")
	}
	if w.cfg.Notifier == nil {
		t.Error("expected default notifier")
	}
}

func TestNotifyFuncAdapter(t *testing.T) {
	var got string
	n := notify.Func(func(title, message string) {
		got = title + ": " + message
	})
	n.Notify("Title", "body")
	if got != "Title: body" {
		t.Errorf("got %q", got)
	}
}
