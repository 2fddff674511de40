package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/assignwatch/assignwatch/internal/log"
	"github.com/assignwatch/assignwatch/internal/output"
)

// NewCmdContributors creates the contributors command.
func NewCmdContributors(opts *Options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "contributors",
		Short: "Show the most reliable contributors for a repository",
		Long: `Scores the repository's top contributors on their issue
follow-through and shows them as a leaderboard.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runContributors(cmd, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Repo, "repo", "r", "", "Repository to watch (owner/name)")
	cmd.Flags().StringVarP(&opts.Format, "output", "o", "", "Output format (table, json)")
	cmd.Flags().IntVarP(&opts.Limit, "limit", "n", 10, "Maximum number of contributors to show")
	cmd.Flags().IntVar(&opts.Workers, "workers", 10, "Concurrent derivation workers")
	cmd.Flags().CountVarP(&opts.Verbosity, "verbose", "v", "Increase verbosity (-v info, -vv debug)")

	return cmd
}

func runContributors(cmd *cobra.Command, opts *Options) error {
	ctx := cmd.Context()
	log.Initialize(opts.Verbosity, os.Stderr)

	rt, err := setup(ctx, opts)
	if err != nil {
		return err
	}

	log.Info("scoring contributors", "repo", rt.owner+"/"+rt.name)
	board, err := rt.svc.MostActiveContributors(ctx, opts.Limit)
	if err != nil {
		return err
	}

	formatter := output.NewFormatter(resolveFormat(opts, rt.cfg))
	return formatter.FormatLeaderboard(board, os.Stdout)
}
