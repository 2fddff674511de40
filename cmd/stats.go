package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/assignwatch/assignwatch/config"
	"github.com/assignwatch/assignwatch/internal/log"
	"github.com/assignwatch/assignwatch/internal/output"
	"github.com/assignwatch/assignwatch/internal/stats"
)

// NewCmdStats creates the stats command.
func NewCmdStats(opts *Options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show statistics recorded by previous runs",
		Long: `Prints the aggregate snapshots recorded by earlier issue listings,
oldest first, so trends in stale counts and assignment churn are visible.`,
		RunE: func(_ *cobra.Command, _ []string) error {
			return runStats(opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Repo, "repo", "r", "", "Only show snapshots for this repository (owner/name)")
	cmd.Flags().StringVarP(&opts.Format, "output", "o", "", "Output format (table, json)")
	cmd.Flags().IntVarP(&opts.Limit, "limit", "n", 20, "Maximum number of snapshots to show")
	cmd.Flags().CountVarP(&opts.Verbosity, "verbose", "v", "Increase verbosity (-v info, -vv debug)")

	return cmd
}

func runStats(opts *Options) error {
	log.Initialize(opts.Verbosity, os.Stderr)

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	store, err := stats.NewStore()
	if err != nil {
		return fmt.Errorf("failed to open stats store: %w", err)
	}

	var history []stats.Snapshot
	if opts.Repo != "" {
		history = store.RecentForRepo(opts.Repo, opts.Limit)
	} else {
		history = store.Recent(opts.Limit)
	}

	formatter := output.NewFormatter(resolveFormat(opts, cfg))
	return formatter.FormatHistory(history, os.Stdout)
}
