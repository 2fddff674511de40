package cmd

import (
	"github.com/spf13/cobra"
)

// New creates the root command with all subcommands registered.
func New() *cobra.Command {
	opts := &Options{}

	rootCmd := &cobra.Command{
		Use:   "assignwatch",
		Short: "GitHub issue assignment dashboard",
		Long: `A CLI tool that ranks a repository's issues by assignment health.
It scores assignees on their follow-through history, estimates completion
probability for in-flight work, and flags stale claims.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runIssues(cmd, opts)
		},
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
	}

	// Add issues flags to the root command so `assignwatch` and
	// `assignwatch issues` work identically.
	addIssuesFlags(rootCmd, opts)

	rootCmd.AddCommand(NewCmdIssues(opts))
	rootCmd.AddCommand(NewCmdContributors(opts))
	rootCmd.AddCommand(NewCmdWatch(opts))
	rootCmd.AddCommand(NewCmdStats(opts))
	rootCmd.AddCommand(NewCmdConfig())
	rootCmd.AddCommand(NewCmdVersion())

	return rootCmd
}
