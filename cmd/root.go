// Package cmd implements the prwatch command-line interface.
package cmd

import (
	"github.com/spf13/cobra"
)

// New creates the root command with all subcommands registered.
func New() *cobra.Command {
	opts := &Options{}

	rootCmd := &cobra.Command{
		Use:   "prwatch",
		Short: "GitHub pull request watcher",
		Long: `A tool that polls the GitHub search API on a schedule and classifies
tracked users' pull requests into sections: open, needs review,
changes requested, and recently closed.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFetch(cmd, opts)
		},
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
	}

	addFetchFlags(rootCmd, opts)

	rootCmd.AddCommand(NewCmdFetch(opts))
	rootCmd.AddCommand(NewCmdWatch(opts))
	rootCmd.AddCommand(NewCmdCache(opts))
	rootCmd.AddCommand(NewCmdVersion())

	return rootCmd
}

// addGlobalFlags registers the flags shared by every data-fetching
// command.
func addGlobalFlags(cmd *cobra.Command, opts *Options) {
	cmd.Flags().StringVar(&opts.ConfigFile, "config", "", "settings file (default: user config dir)")
	cmd.Flags().StringVar(&opts.Token, "token", "", "GitHub token (default: GITHUB_TOKEN env)")
	cmd.Flags().StringSliceVarP(&opts.Users, "users", "u", nil, "tracked users (overrides settings)")
	cmd.Flags().IntVar(&opts.Workers, "workers", 0, "max concurrent API requests")
	cmd.Flags().CountVarP(&opts.Verbosity, "verbose", "v", "increase verbosity (-v, -vv, -vvv)")
	cmd.Flags().BoolVar(&opts.NoCache, "no-cache", false, "bypass the result cache entirely")
}

func addFetchFlags(cmd *cobra.Command, opts *Options) {
	addGlobalFlags(cmd, opts)
	cmd.Flags().StringSliceVarP(&opts.Sections, "sections", "s", nil,
		"sections to fetch (open, needs-review, changes-requested, recently-closed)")
	cmd.Flags().BoolVar(&opts.Force, "force", false, "invalidate cached section data first")
	cmd.Flags().BoolVar(&opts.Timeline, "timeline", false, "also fetch each PR's timeline")
}
