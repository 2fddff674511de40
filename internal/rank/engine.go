// Package rank orders issue collections under the dashboard's competing
// sort modes.
package rank

import (
	"context"
	"fmt"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/assignwatch/assignwatch/internal/log"
	"github.com/assignwatch/assignwatch/internal/model"
)

// Mode selects the ordering for a ranking request.
type Mode string

const (
	// API-delegated modes: the upstream query already returns these orders.
	ModeUpdated  Mode = "updated"
	ModeCreated  Mode = "created"
	ModeComments Mode = "comments"

	// Local modes: derived values are resolved per issue, then sorted here.
	ModeAssigned   Mode = "assigned"    // longest-assigned first
	ModeMostActive Mode = "most-active" // highest assignee reliability first
)

// ParseMode validates a mode string.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeUpdated, ModeCreated, ModeComments, ModeAssigned, ModeMostActive:
		return Mode(s), nil
	default:
		return "", fmt.Errorf("invalid sort mode: %s (must be updated, created, comments, assigned, or most-active)", s)
	}
}

// Local reports whether the mode requires local derivation and sorting.
func (m Mode) Local() bool {
	return m == ModeAssigned || m == ModeMostActive
}

// APISort returns the sort parameter to send upstream. Local modes delegate
// the initial listing to the default updated order.
func (m Mode) APISort() string {
	if m.Local() {
		return string(ModeUpdated)
	}
	return string(m)
}

// Resolver supplies the per-issue derived values the local modes sort on.
type Resolver interface {
	AssignedAt(ctx context.Context, issue *model.Issue) (*time.Time, error)
	Reliability(ctx context.Context, login string) (*model.UserActivity, error)
}

// RankedIssue is an issue annotated with whatever derived values the
// ranking mode resolved for it.
type RankedIssue struct {
	Issue      model.Issue         `json:"issue"`
	AssignedAt *time.Time          `json:"assignedAt,omitempty"`
	Activity   *model.UserActivity `json:"activity,omitempty"`
}

// reliabilityScore returns the sort key for most-active mode. Issues with no
// assignee or no activity data sort as zero.
func (r *RankedIssue) reliabilityScore() int {
	if r.Activity == nil {
		return 0
	}
	return r.Activity.ReliabilityScore
}

// assignedAtUnix returns the sort key for assigned mode in epoch
// milliseconds. Unresolved assignments sort as epoch zero, which places them
// first (treated as longest assigned).
func (r *RankedIssue) assignedAtUnix() int64 {
	if r.AssignedAt == nil {
		return 0
	}
	return r.AssignedAt.UnixMilli()
}

// Engine ranks issue collections.
type Engine struct {
	resolver Resolver
	workers  int
}

// NewEngine creates a ranking engine. workers bounds the per-issue
// derivation fan-out.
func NewEngine(resolver Resolver, workers int) *Engine {
	if workers <= 0 {
		workers = 10
	}
	return &Engine{resolver: resolver, workers: workers}
}

// Rank produces a total order over the issues for the given mode. For the
// API-delegated modes the input order is preserved. For the local modes the
// engine first resolves the needed derived value for every issue in the
// batch, then sorts. Both local sorts are stable: derived keys are
// frequently tied (many unassigned issues share the default key), and ties
// keep their original relative order.
//
// A failed derivation for one issue degrades that issue to its documented
// default rather than aborting the batch.
func (e *Engine) Rank(ctx context.Context, issues []model.Issue, mode Mode) ([]RankedIssue, error) {
	ranked := make([]RankedIssue, len(issues))
	for i, issue := range issues {
		ranked[i] = RankedIssue{Issue: issue}
	}

	switch mode {
	case ModeAssigned:
		e.resolveAssignedAt(ctx, ranked)
		sort.SliceStable(ranked, func(i, j int) bool {
			return ranked[i].assignedAtUnix() < ranked[j].assignedAtUnix()
		})
	case ModeMostActive:
		e.resolveActivity(ctx, ranked)
		sort.SliceStable(ranked, func(i, j int) bool {
			return ranked[i].reliabilityScore() > ranked[j].reliabilityScore()
		})
	default:
		// API-delegated order.
	}

	return ranked, nil
}

// resolveAssignedAt fans out assigned-at resolution across the batch and
// waits for all of it; ranking is a barrier over the full batch.
func (e *Engine) resolveAssignedAt(ctx context.Context, ranked []RankedIssue) {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)

	for i := range ranked {
		g.Go(func() error {
			issue := &ranked[i].Issue
			assignedAt, err := e.resolver.AssignedAt(gctx, issue)
			if err != nil {
				log.Debug("assigned-at resolution failed, treating as unknown",
					"issue", issue.Number, "error", err)
				return nil
			}
			ranked[i].AssignedAt = assignedAt
			return nil
		})
	}

	_ = g.Wait()
}

// resolveActivity fans out reliability resolution for every assigned issue.
func (e *Engine) resolveActivity(ctx context.Context, ranked []RankedIssue) {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)

	for i := range ranked {
		if ranked[i].Issue.Assignee == nil {
			continue
		}
		g.Go(func() error {
			issue := &ranked[i].Issue
			activity, err := e.resolver.Reliability(gctx, issue.Assignee.Login)
			if err != nil {
				log.Debug("reliability resolution failed, treating as no activity",
					"issue", issue.Number, "login", issue.Assignee.Login, "error", err)
				return nil
			}
			ranked[i].Activity = activity
			return nil
		})
	}

	_ = g.Wait()
}
