// Package analysis estimates how likely an open, assigned issue is to be
// completed by its current assignee.
package analysis

import (
	"strings"
	"time"

	"github.com/assignwatch/assignwatch/config"
	"github.com/assignwatch/assignwatch/internal/model"
)

// starterLabels mark issues scoped to be easy to finish.
var starterLabels = []string{"good first issue", "help wanted", "easy"}

// Estimator combines an assignee's history with issue-level signals into a
// completion probability. The weighting is a heuristic, not a calibrated
// model; the hard contract is the [0, 100] clamp and monotonicity in the
// assignee's load and close speed.
type Estimator struct {
	weights config.Weights
	now     func() time.Time
}

// NewEstimator creates an estimator with the given weights.
func NewEstimator(weights config.Weights) *Estimator {
	return &Estimator{weights: weights, now: time.Now}
}

// NewEstimatorWithClock creates an estimator with an injectable clock (for testing).
func NewEstimatorWithClock(weights config.Weights, now func() time.Time) *Estimator {
	return &Estimator{weights: weights, now: now}
}

// Estimate returns the completion probability for an issue, or nil when the
// preconditions are unmet: the issue must be open, have an assignee, and the
// assignee's activity must be available. Closed and unassigned issues never
// get an estimate; there is nothing to complete. The result is independent
// of comment text.
func (e *Estimator) Estimate(issue *model.Issue, activity *model.UserActivity) *model.IssueAnalysis {
	if issue == nil || !issue.Open() || issue.Assignee == nil || activity == nil {
		return nil
	}

	w := e.weights
	p := w.ProbabilityBase

	// Context-switching penalty: every other open assignment makes this one
	// less likely to land.
	if load := activity.OpenIssues; load > 0 {
		p -= min(load*w.LoadPenaltyPerIssue, w.LoadPenaltyMax)
	}

	// Historical close speed.
	if avg := activity.AvgTimeToClose; avg > 0 {
		switch {
		case avg <= days(w.FastCloseDays):
			p += w.FastCloseProbBonus
		case avg <= days(w.FastCloseDays+4):
			p += w.SteadyCloseProbBonus
		case avg > days(w.SlowCloseDays):
			p += w.SlowCloseProbPenalty
		}

		// An issue open far longer than the assignee's average close time
		// trends the estimate down.
		if age := e.now().Sub(issue.CreatedAt); age > avg {
			multiples := int(age / avg)
			p -= min(multiples*w.OverduePenaltyPer, w.OverduePenaltyMax)
		}
	}

	// Issue-level signals.
	if issue.Comments > w.HotIssueThreshold {
		p += w.HotIssuePenalty
	}
	if hasStarterLabel(issue) {
		p += w.StarterLabelBonus
	}

	return &model.IssueAnalysis{CompletionProbability: clamp(p)}
}

func hasStarterLabel(issue *model.Issue) bool {
	for _, l := range issue.Labels {
		name := strings.ToLower(strings.ReplaceAll(l.Name, "-", " "))
		for _, starter := range starterLabels {
			if strings.Contains(name, starter) {
				return true
			}
		}
	}
	return false
}

func days(n int) time.Duration {
	return time.Duration(n) * 24 * time.Hour
}

func clamp(n int) int {
	if n < 0 {
		return 0
	}
	if n > 100 {
		return 100
	}
	return n
}
