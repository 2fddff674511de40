package cmd

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/assignwatch/assignwatch/config"
	"github.com/assignwatch/assignwatch/internal/cache"
	"github.com/assignwatch/assignwatch/internal/ghclient"
	"github.com/assignwatch/assignwatch/internal/log"
	"github.com/assignwatch/assignwatch/internal/model"
	"github.com/assignwatch/assignwatch/internal/output"
	"github.com/assignwatch/assignwatch/internal/rank"
	"github.com/assignwatch/assignwatch/internal/service"
	"github.com/assignwatch/assignwatch/internal/stats"
)

// runtime bundles everything the data-driven commands need.
type runtime struct {
	cfg   *config.Config
	svc   *service.Service
	owner string
	name  string
}

// NewCmdIssues creates the issues command.
func NewCmdIssues(opts *Options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "issues",
		Short: "List ranked issues for a repository (same as root assignwatch)",
		Long: `Fetches a repository's issues, resolves assignment metadata, and
displays them under the chosen ranking.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runIssues(cmd, opts)
		},
	}

	addIssuesFlags(cmd, opts)
	return cmd
}

// addIssuesFlags adds the issue-listing flags to a command.
func addIssuesFlags(cmd *cobra.Command, opts *Options) {
	cmd.Flags().StringVarP(&opts.Repo, "repo", "r", "", "Repository to watch (owner/name)")
	cmd.Flags().StringVarP(&opts.Format, "output", "o", "", "Output format (table, json)")
	cmd.Flags().StringVarP(&opts.Sort, "sort", "s", "updated", "Sort mode (updated, created, comments, assigned, most-active)")
	cmd.Flags().StringVar(&opts.State, "state", "open", "Issue state filter (open, closed, all)")
	cmd.Flags().StringVar(&opts.Search, "search", "", "Filter by title, label, or assignee substring")
	cmd.Flags().IntVarP(&opts.Limit, "limit", "n", 50, "Maximum number of issues to fetch")
	cmd.Flags().IntVar(&opts.Workers, "workers", 10, "Concurrent derivation workers")
	cmd.Flags().BoolVar(&opts.Analyze, "analyze", false, "Estimate completion probability per assigned issue")
	cmd.Flags().BoolVar(&opts.NoStats, "no-stats", false, "Skip recording run statistics")
	cmd.Flags().CountVarP(&opts.Verbosity, "verbose", "v", "Increase verbosity (-v info, -vv debug)")
}

func runIssues(cmd *cobra.Command, opts *Options) error {
	ctx := cmd.Context()
	log.Initialize(opts.Verbosity, os.Stderr)

	rt, err := setup(ctx, opts)
	if err != nil {
		return err
	}

	mode, err := rank.ParseMode(opts.Sort)
	if err != nil {
		return err
	}

	log.Info("fetching issues", "repo", rt.owner+"/"+rt.name, "sort", string(mode))
	issues, err := rt.svc.Issues(ctx, model.IssueListOptions{
		State:   opts.State,
		Sort:    mode.APISort(),
		PerPage: opts.Limit,
	})
	if err != nil {
		return err
	}

	issues = filterSearch(issues, opts.Search)

	ranked, err := rt.svc.Rank(ctx, issues, mode)
	if err != nil {
		return err
	}

	d := &output.Dashboard{
		Issues:     ranked,
		Stale:      rt.svc.StaleIssues(issues),
		Now:        time.Now(),
		StaleAfter: rt.cfg.GetPolicy().StaleAfter(),
	}

	// Repository metadata decorates the header; its failure never blocks
	// the listing.
	if meta, metaErr := rt.svc.Repository(ctx); metaErr == nil {
		d.Repo = meta
	} else {
		log.Debug("repository metadata unavailable", "error", metaErr)
	}

	if opts.Analyze {
		d.Analyses = analyzeAll(ctx, rt.svc, ranked)
	}

	if !opts.NoStats {
		recordStats(rt, ranked, len(d.Stale))
	}

	formatter := output.NewFormatter(resolveFormat(opts, rt.cfg))
	return formatter.Format(d, os.Stdout)
}

// setup loads config, authenticates, and builds the service layer.
func setup(ctx context.Context, opts *Options) (*runtime, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	repo := opts.Repo
	if repo == "" {
		repo = cfg.DefaultRepo
	}
	owner, name, err := parseRepo(repo)
	if err != nil {
		return nil, err
	}

	client, err := ghclient.NewClient(ctx, "")
	if err != nil {
		return nil, err
	}

	svc := service.New(client, cache.New(), cfg.GetPolicy(), cfg.GetWeights(),
		owner, name, opts.Workers)

	return &runtime{cfg: cfg, svc: svc, owner: owner, name: name}, nil
}

// parseRepo splits an owner/name repository reference.
func parseRepo(repo string) (owner, name string, err error) {
	if repo == "" {
		return "", "", fmt.Errorf("no repository given. Use --repo owner/name or set default_repo in config")
	}
	parts := strings.Split(repo, "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("invalid repository %q (expected owner/name)", repo)
	}
	return parts[0], parts[1], nil
}

// filterSearch keeps issues whose title, number, author, assignee, or labels
// match the query, case-insensitive.
func filterSearch(issues []model.Issue, query string) []model.Issue {
	if query == "" {
		return issues
	}
	q := strings.ToLower(query)

	var matched []model.Issue
	for _, issue := range issues {
		if matchesSearch(&issue, q) {
			matched = append(matched, issue)
		}
	}
	return matched
}

func matchesSearch(issue *model.Issue, q string) bool {
	if strings.Contains(strings.ToLower(issue.Title), q) {
		return true
	}
	if strings.Contains(strconv.Itoa(issue.Number), q) {
		return true
	}
	if strings.Contains(strings.ToLower(issue.User.Login), q) {
		return true
	}
	if issue.Assignee != nil && strings.Contains(strings.ToLower(issue.Assignee.Login), q) {
		return true
	}
	for _, label := range issue.Labels {
		if strings.Contains(strings.ToLower(label.Name), q) {
			return true
		}
	}
	return false
}

// analyzeAll estimates completion probability for every eligible issue in the
// batch. Per-issue failures are logged and skipped.
func analyzeAll(ctx context.Context, svc *service.Service, ranked []rank.RankedIssue) map[int]*model.IssueAnalysis {
	analyses := make(map[int]*model.IssueAnalysis)
	for i := range ranked {
		issue := &ranked[i].Issue
		est, err := svc.Analysis(ctx, issue)
		if err != nil {
			log.Debug("analysis failed", "issue", issue.Number, "error", err)
			continue
		}
		if est != nil {
			analyses[issue.Number] = est
		}
	}
	return analyses
}

// recordStats appends a run snapshot. Stats are best-effort.
func recordStats(rt *runtime, ranked []rank.RankedIssue, staleCount int) {
	store, err := stats.NewStore()
	if err != nil {
		log.Debug("stats store unavailable", "error", err)
		return
	}
	snap := stats.Summarize(rt.owner+"/"+rt.name, ranked, staleCount, time.Now())
	if err := store.Append(snap); err != nil {
		log.Debug("could not record stats", "error", err)
	}
}

// resolveFormat picks the output format from flags, then config, then table.
func resolveFormat(opts *Options, cfg *config.Config) output.Format {
	if opts.Format != "" {
		return output.Format(opts.Format)
	}
	if cfg.DefaultFormat != "" {
		return output.Format(cfg.DefaultFormat)
	}
	return output.FormatTable
}
