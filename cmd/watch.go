package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/hal/prwatch/internal/notify"
	"github.com/hal/prwatch/internal/output"
	"github.com/hal/prwatch/internal/reconcile"
	"github.com/hal/prwatch/internal/service"
	"github.com/hal/prwatch/internal/state"
	"github.com/hal/prwatch/internal/watch"
	"github.com/spf13/cobra"
)

// NewCmdWatch creates the watch command: refresh on a timer, print each
// cycle, and notify on PR transitions until interrupted.
func NewCmdWatch(opts *Options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Watch PRs continuously and notify on transitions",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(cmd, opts)
		},
	}
	addFetchFlags(cmd, opts)
	return cmd
}

func runWatch(cmd *cobra.Command, opts *Options) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rt, err := setup(ctx, opts)
	if err != nil {
		return err
	}

	statePath, err := state.DefaultPath()
	if err != nil {
		return fmt.Errorf("failed to locate state file: %w", err)
	}
	store := state.Load(statePath)

	formatter := &output.Formatter{Thresholds: rt.cfg.Thresholds}

	watcher := watch.New(watch.Config{
		Service:    rt.svc,
		Fetcher:    rt.fetcher,
		Reconciler: reconcile.New(),
		State:      store,
		Notifier:   notify.Log{},
		Policy: reconcile.Policy{
			OnNewlyClosed: rt.cfg.Notify.NotifyOnClosed(),
			OnNew:         rt.cfg.Notify.OnNew,
			OnReopened:    rt.cfg.Notify.OnReopened,
		},
		Users:    rt.users,
		Interval: rt.cfg.Interval(),
		Timeline: opts.Timeline,
		OnRedraw: func(result service.Result) {
			_ = formatter.Format(result, os.Stdout)
		},
	})

	if opts.Force {
		rt.svc.InvalidateSections()
	}

	if err := watcher.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
