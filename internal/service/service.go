// Package service coordinates fetching, caching, scoring, and ranking for a
// single repository dashboard. Every derived value flows through the cache
// with a TTL fixed by the kind of data, so repeated renders within a window
// reuse upstream results.
package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/assignwatch/assignwatch/config"
	"github.com/assignwatch/assignwatch/internal/analysis"
	"github.com/assignwatch/assignwatch/internal/assignment"
	"github.com/assignwatch/assignwatch/internal/cache"
	"github.com/assignwatch/assignwatch/internal/log"
	"github.com/assignwatch/assignwatch/internal/model"
	"github.com/assignwatch/assignwatch/internal/rank"
	"github.com/assignwatch/assignwatch/internal/reliability"
)

// mostActivePoolSize bounds how many contributors are scored for the
// leaderboard. Contributors arrive in contribution order, so the head of the
// list is the interesting part.
const mostActivePoolSize = 10

// Fetcher is the upstream data source for a repository.
type Fetcher interface {
	Issues(ctx context.Context, owner, repo string, opts model.IssueListOptions) ([]model.Issue, error)
	Timeline(ctx context.Context, owner, repo string, number int) ([]model.TimelineEvent, error)
	UserActivity(ctx context.Context, owner, repo, login string) (*model.RawActivity, error)
	Repository(ctx context.Context, owner, repo string) (*model.RepoMeta, error)
	Contributors(ctx context.Context, owner, repo string) ([]model.User, error)
}

// Service is the derived-data layer over one repository.
type Service struct {
	fetcher   Fetcher
	cache     *cache.Cache
	scorer    *reliability.Scorer
	estimator *analysis.Estimator
	policy    config.Policy
	owner     string
	repo      string
	workers   int
	now       func() time.Time
}

// New creates a service for owner/repo.
func New(fetcher Fetcher, c *cache.Cache, policy config.Policy, weights config.Weights, owner, repo string, workers int) *Service {
	return &Service{
		fetcher:   fetcher,
		cache:     c,
		scorer:    reliability.NewScorer(policy, weights),
		estimator: analysis.NewEstimator(weights),
		policy:    policy,
		owner:     owner,
		repo:      repo,
		workers:   workers,
		now:       time.Now,
	}
}

// NewWithClock creates a service with an injectable clock (for testing). The
// clock drives staleness verdicts only; cache expiry uses the cache's own
// clock and the scorer keeps real time.
func NewWithClock(fetcher Fetcher, c *cache.Cache, policy config.Policy, weights config.Weights, owner, repo string, workers int, now func() time.Time) *Service {
	s := New(fetcher, c, policy, weights, owner, repo, workers)
	s.now = now
	s.scorer = reliability.NewScorerWithClock(policy, weights, now)
	s.estimator = analysis.NewEstimatorWithClock(weights, now)
	return s
}

func (s *Service) repoKey() string {
	return s.owner + "/" + s.repo
}

// Issues lists issues straight from upstream. The primary listing is never
// cached; it is the one view that must be fresh on every render.
func (s *Service) Issues(ctx context.Context, opts model.IssueListOptions) ([]model.Issue, error) {
	return s.fetcher.Issues(ctx, s.owner, s.repo, opts)
}

// Repository fetches repository metadata, cached at the bulk TTL.
func (s *Service) Repository(ctx context.Context) (*model.RepoMeta, error) {
	key := fmt.Sprintf("repo:%s", s.repoKey())
	return cache.GetOrCompute(s.cache, key, cache.BulkTTL, func() (*model.RepoMeta, error) {
		return s.fetcher.Repository(ctx, s.owner, s.repo)
	})
}

// Reliability returns the scored activity view for a user, cached at the
// activity TTL. A nil result with nil error means the user has no observable
// history on the repository.
func (s *Service) Reliability(ctx context.Context, login string) (*model.UserActivity, error) {
	key := fmt.Sprintf("activity:%s:%s", s.repoKey(), login)
	return cache.GetOrCompute(s.cache, key, cache.ActivityTTL, func() (*model.UserActivity, error) {
		raw, err := s.fetcher.UserActivity(ctx, s.owner, s.repo, login)
		if err != nil {
			return nil, err
		}
		return s.scorer.Score(raw), nil
	})
}

// Analysis returns the completion estimate for an issue, cached at the
// analysis TTL. Issues that cannot be estimated (closed, unassigned) return
// nil without touching the cache or upstream.
func (s *Service) Analysis(ctx context.Context, issue *model.Issue) (*model.IssueAnalysis, error) {
	if issue == nil || !issue.Open() || issue.Assignee == nil {
		return nil, nil
	}

	key := fmt.Sprintf("analysis:%s:%d:%s", s.repoKey(), issue.Number, issue.Assignee.Login)
	return cache.GetOrCompute(s.cache, key, cache.AnalysisTTL, func() (*model.IssueAnalysis, error) {
		activity, err := s.Reliability(ctx, issue.Assignee.Login)
		if err != nil {
			return nil, err
		}
		return s.estimator.Estimate(issue, activity), nil
	})
}

// AssignedAt resolves when the issue's current assignee was assigned, from
// the issue timeline. The timeline itself is cached at the timeline TTL; the
// scan over it is cheap and reruns on every call. Returns nil for unassigned
// issues and for assignments with no visible assigned event.
func (s *Service) AssignedAt(ctx context.Context, issue *model.Issue) (*time.Time, error) {
	if issue == nil || issue.Assignee == nil {
		return nil, nil
	}

	timeline, err := s.timeline(ctx, issue.Number)
	if err != nil {
		return nil, err
	}
	return assignment.ResolveAssignedAt(timeline, issue.Assignee.Login), nil
}

func (s *Service) timeline(ctx context.Context, number int) ([]model.TimelineEvent, error) {
	key := fmt.Sprintf("timeline:%s:%d", s.repoKey(), number)
	return cache.GetOrCompute(s.cache, key, cache.TimelineTTL, func() ([]model.TimelineEvent, error) {
		return s.fetcher.Timeline(ctx, s.owner, s.repo, number)
	})
}

// ClaimTag inspects a comment for claim language and labels it by the
// author's standing. The score used for the verdict is, in preference order:
// the author's reliability score, the issue's completion probability, then a
// neutral 50 when neither is available.
func (s *Service) ClaimTag(ctx context.Context, issue *model.Issue, author, text string) (*model.ClaimTag, error) {
	if !reliability.DetectClaim(text) {
		return nil, nil
	}

	score := 50
	activity, err := s.Reliability(ctx, author)
	switch {
	case err != nil:
		log.Debug("claim scoring fell back to issue estimate", "login", author, "error", err)
		fallthrough
	case activity == nil:
		if est, estErr := s.Analysis(ctx, issue); estErr == nil && est != nil {
			score = est.CompletionProbability
		}
	default:
		score = activity.ReliabilityScore
	}

	return s.scorer.TagClaim(true, score), nil
}

// Rank orders issues under the given mode. The service itself supplies the
// derived values, so local modes hit the same caches as everything else.
func (s *Service) Rank(ctx context.Context, issues []model.Issue, mode rank.Mode) ([]rank.RankedIssue, error) {
	engine := rank.NewEngine(s, s.workers)
	return engine.Rank(ctx, issues, mode)
}

// Staleness reports whether an issue has gone quiet past the configured
// window.
func (s *Service) Staleness(issue *model.Issue) model.StalenessVerdict {
	return assignment.Staleness(issue, s.now(), s.policy.StaleAfter())
}

// StaleIssues filters the batch down to stale ones, preserving order.
func (s *Service) StaleIssues(issues []model.Issue) []model.Issue {
	var stale []model.Issue
	for _, issue := range issues {
		if s.Staleness(&issue).Stale {
			stale = append(stale, issue)
		}
	}
	return stale
}

// MostActiveContributors scores the top of the contributor list and returns
// it ordered by reliability, highest first. The whole leaderboard is cached
// at the bulk TTL. Contributors with no scoreable history are dropped.
func (s *Service) MostActiveContributors(ctx context.Context, limit int) ([]model.UserActivity, error) {
	if limit <= 0 || limit > mostActivePoolSize {
		limit = mostActivePoolSize
	}

	key := fmt.Sprintf("bulk:most-active:%s", s.repoKey())
	board, err := cache.GetOrCompute(s.cache, key, cache.BulkTTL, func() ([]model.UserActivity, error) {
		return s.scoreContributors(ctx)
	})
	if err != nil {
		return nil, err
	}

	if len(board) > limit {
		board = board[:limit]
	}
	return board, nil
}

func (s *Service) scoreContributors(ctx context.Context) ([]model.UserActivity, error) {
	contributors, err := s.fetcher.Contributors(ctx, s.owner, s.repo)
	if err != nil {
		return nil, err
	}
	if len(contributors) > mostActivePoolSize {
		contributors = contributors[:mostActivePoolSize]
	}

	scored := make([]*model.UserActivity, len(contributors))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for i := range contributors {
		g.Go(func() error {
			activity, err := s.Reliability(gctx, contributors[i].Login)
			if err != nil {
				log.Debug("skipping unscoreable contributor",
					"login", contributors[i].Login, "error", err)
				return nil
			}
			scored[i] = activity
			return nil
		})
	}
	_ = g.Wait()

	board := make([]model.UserActivity, 0, len(scored))
	for _, activity := range scored {
		if activity != nil {
			board = append(board, *activity)
		}
	}
	sort.SliceStable(board, func(i, j int) bool {
		return board[i].ReliabilityScore > board[j].ReliabilityScore
	})
	return board, nil
}
