package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/assignwatch/assignwatch/internal/log"
	"github.com/assignwatch/assignwatch/internal/model"
	"github.com/assignwatch/assignwatch/internal/rank"
	"github.com/assignwatch/assignwatch/internal/tui"
)

// NewCmdWatch creates the watch command.
func NewCmdWatch(opts *Options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Live dashboard with ticking assignment counters",
		Long: `Opens a full-screen dashboard that refreshes the issue list
periodically and advances per-issue assigned-time counters every second.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runWatch(cmd, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Repo, "repo", "r", "", "Repository to watch (owner/name)")
	cmd.Flags().StringVarP(&opts.Sort, "sort", "s", "assigned", "Sort mode (updated, created, comments, assigned, most-active)")
	cmd.Flags().StringVar(&opts.State, "state", "open", "Issue state filter (open, closed, all)")
	cmd.Flags().IntVarP(&opts.Limit, "limit", "n", 50, "Maximum number of issues to fetch")
	cmd.Flags().IntVar(&opts.Workers, "workers", 10, "Concurrent derivation workers")
	cmd.Flags().CountVarP(&opts.Verbosity, "verbose", "v", "Increase verbosity (-v info, -vv debug)")

	return cmd
}

func runWatch(cmd *cobra.Command, opts *Options) error {
	ctx := cmd.Context()

	// Logs would interleave with the alt-screen display.
	log.Initialize(opts.Verbosity, io.Discard)

	if !tui.ShouldUseTUI() {
		return fmt.Errorf("watch needs an interactive terminal; use 'assignwatch issues' instead")
	}

	rt, err := setup(ctx, opts)
	if err != nil {
		return err
	}

	mode, err := rank.ParseMode(opts.Sort)
	if err != nil {
		return err
	}

	load := func(ctx context.Context) (*tui.Snapshot, error) {
		issues, err := rt.svc.Issues(ctx, model.IssueListOptions{
			State:   opts.State,
			Sort:    mode.APISort(),
			PerPage: opts.Limit,
		})
		if err != nil {
			return nil, err
		}

		ranked, err := rt.svc.Rank(ctx, issues, mode)
		if err != nil {
			return nil, err
		}

		snapshot := &tui.Snapshot{
			Issues: ranked,
			Stale:  len(rt.svc.StaleIssues(issues)),
		}
		if meta, metaErr := rt.svc.Repository(ctx); metaErr == nil {
			snapshot.Repo = meta
		}
		return snapshot, nil
	}

	return tui.Run(ctx, load, rt.cfg.GetPolicy().StaleAfter())
}
