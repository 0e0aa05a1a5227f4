package cmd

import (
	"os"

	"github.com/hal/prwatch/internal/output"
	"github.com/hal/prwatch/internal/service"
	"github.com/spf13/cobra"
)

// NewCmdFetch creates the fetch command: one refresh cycle, printed to
// stdout.
func NewCmdFetch(opts *Options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Fetch and print the current PR sections",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFetch(cmd, opts)
		},
	}
	addFetchFlags(cmd, opts)
	return cmd
}

func runFetch(cmd *cobra.Command, opts *Options) error {
	ctx := cmd.Context()

	rt, err := setup(ctx, opts)
	if err != nil {
		return err
	}

	sections, err := requestedSections(opts.Sections)
	if err != nil {
		return err
	}

	if opts.Force {
		rt.svc.InvalidateSections()
	}

	result, err := rt.fetcher.Fetch(ctx, rt.users, service.FetchOptions{
		Sections: sections,
		Timeline: opts.Timeline,
	})
	if err != nil {
		return err
	}

	formatter := &output.Formatter{Thresholds: rt.cfg.Thresholds}
	return formatter.Format(result, os.Stdout)
}
