// Package watch drives the periodic refresh cycle: fetch, reconcile,
// notify, persist, redraw.
package watch

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/hal/prwatch/internal/constants"
	"github.com/hal/prwatch/internal/log"
	"github.com/hal/prwatch/internal/notify"
	"github.com/hal/prwatch/internal/reconcile"
	"github.com/hal/prwatch/internal/section"
	"github.com/hal/prwatch/internal/service"
	"github.com/hal/prwatch/internal/state"
)

// RedrawFunc receives the assembled section mappings after a completed
// refresh. Rendering is entirely the caller's responsibility.
type RedrawFunc func(service.Result)

// Config wires a Watcher's collaborators. All are injected; the
// Watcher owns no globals.
type Config struct {
	Service    *service.Service
	Fetcher    *service.Fetcher
	Reconciler *reconcile.Reconciler
	State      *state.Store
	Notifier   notify.Notifier
	Policy     reconcile.Policy

	Users    []string
	Interval time.Duration
	Timeline bool
	OnRedraw RedrawFunc
}

// Watcher runs refresh cycles on a timer. Only one cycle may be in
// flight at a time; a tick or manual refresh during a running cycle is
// a no-op, not queued.
type Watcher struct {
	cfg        Config
	refreshing atomic.Bool
}

// New creates a Watcher and seeds the reconciler from the persisted
// snapshot when one exists, so a restart does not re-suppress real
// transitions.
func New(cfg Config) *Watcher {
	if cfg.Interval <= 0 {
		cfg.Interval = constants.DefaultRefreshInterval
	}
	if cfg.Notifier == nil {
		cfg.Notifier = notify.Log{}
	}

	if cfg.State != nil && cfg.Reconciler != nil {
		if _, _, ok := cfg.State.PRData(section.Open); ok {
			cfg.Reconciler.Seed(
				cfg.State.SectionKeys(section.Open),
				cfg.State.SectionKeys(section.RecentlyClosed),
			)
		}
	}

	return &Watcher{cfg: cfg}
}

// Run performs an immediate refresh, then refreshes on every tick until
// the context is canceled.
func (w *Watcher) Run(ctx context.Context) error {
	w.Refresh(ctx, false)

	ticker := time.NewTicker(w.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			w.Refresh(ctx, false)
		}
	}
}

// Refresh runs one cycle. When force is set the section caches are
// invalidated first so every search hits the API. A cycle already in
// flight makes this call a no-op.
func (w *Watcher) Refresh(ctx context.Context, force bool) {
	if !w.refreshing.CompareAndSwap(false, true) {
		log.Debug("refresh already in flight, skipping")
		return
	}
	defer w.refreshing.Store(false)

	if force && w.cfg.Service != nil {
		w.cfg.Service.InvalidateSections()
	}

	started := time.Now()
	result, err := w.cfg.Fetcher.Fetch(ctx, w.cfg.Users, service.FetchOptions{
		Timeline: w.cfg.Timeline,
	})
	if err != nil {
		// Fatal failure: one notification summarizing it, nothing else.
		log.Error("refresh failed", "error", err)
		w.cfg.Notifier.Notify("GitHub PR Watcher", fmt.Sprintf("Refresh failed: %v", err))
		return
	}

	log.Info("refresh complete", "elapsed", time.Since(started).Round(time.Millisecond))

	if w.cfg.Reconciler != nil {
		changes := w.cfg.Reconciler.Diff(
			result.Keys(section.Open),
			result.Keys(section.RecentlyClosed),
		)
		w.notifyChanges(changes)
	}

	if w.cfg.State != nil {
		for sec, data := range result {
			if err := w.cfg.State.SetPRData(sec, data); err != nil {
				log.Warn("failed to persist section state", "section", sec, "error", err)
			}
		}
	}

	if w.cfg.OnRedraw != nil {
		w.cfg.OnRedraw(result)
	}
}

func (w *Watcher) notifyChanges(c reconcile.Changes) {
	if c.Empty() {
		return
	}
	if w.cfg.Policy.OnNewlyClosed && len(c.NewlyClosed) > 0 {
		w.cfg.Notifier.Notify("Pull Requests Closed",
			fmt.Sprintf("%d PR(s) closed", len(c.NewlyClosed)))
	}
	if w.cfg.Policy.OnNew && len(c.New) > 0 {
		w.cfg.Notifier.Notify("New Pull Requests",
			fmt.Sprintf("%d new PR(s) to review", len(c.New)))
	}
	if w.cfg.Policy.OnReopened && len(c.Reopened) > 0 {
		w.cfg.Notifier.Notify("Pull Requests Reopened",
			fmt.Sprintf("%d PR(s) reopened", len(c.Reopened)))
	}
}
