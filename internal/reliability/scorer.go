// Package reliability converts raw per-user activity into a bounded
// reliability score and an activity-pattern classification, and detects
// claim language in comments.
package reliability

import (
	"time"

	"github.com/assignwatch/assignwatch/config"
	"github.com/assignwatch/assignwatch/internal/model"
)

// Scorer maps a contributor's historical activity on a repository to a
// single comparable score.
type Scorer struct {
	policy  config.Policy
	weights config.Weights
	now     func() time.Time
}

// NewScorer creates a scorer with the given policy and weights.
func NewScorer(policy config.Policy, weights config.Weights) *Scorer {
	return &Scorer{policy: policy, weights: weights, now: time.Now}
}

// NewScorerWithClock creates a scorer with an injectable clock (for testing).
func NewScorerWithClock(policy config.Policy, weights config.Weights, now func() time.Time) *Scorer {
	return &Scorer{policy: policy, weights: weights, now: now}
}

// Score derives the reliability view for a contributor. Returns nil for a
// user with zero history: that case surfaces as "no activity data" rather
// than a fabricated number.
func (s *Scorer) Score(raw *model.RawActivity) *model.UserActivity {
	if raw == nil || !raw.HasHistory() {
		return nil
	}

	w := s.weights
	score := w.ReliabilityBase

	// Follow-through: every closed issue counts, up to a cap.
	score += min(raw.IssuesClosed*w.ClosedIssueBonus, w.ClosedIssueMaxBonus)

	// Close speed. Pathological negative averages are treated as unknown.
	if avg := raw.AvgTimeToClose; avg > 0 {
		switch {
		case avg <= days(w.FastCloseDays):
			score += w.FastCloseBonus
		case avg > days(w.SlowCloseDays):
			score += w.SlowClosePenalty
		}
	}

	// Stale backlog: many open assignments relative to closed ones degrade
	// the score.
	if backlog := raw.OpenAssigned - raw.IssuesClosed; backlog > 0 {
		score -= min(backlog*w.BacklogPenaltyPer, w.BacklogPenaltyMax)
	}

	// Recency.
	if !raw.LastActiveAt.IsZero() {
		idle := s.now().Sub(raw.LastActiveAt)
		switch {
		case idle <= days(s.policy.RecentDays):
			score += w.RecentActivityBonus
		case idle > days(s.policy.DormantDays):
			score += w.DormantPenalty
		}
	}

	return &model.UserActivity{
		Login:            raw.Login,
		AvatarURL:        raw.AvatarURL,
		ReliabilityScore: clamp(score),
		ActivityPattern:  s.pattern(raw),
		AvgTimeToClose:   raw.AvgTimeToClose,
		OpenIssues:       raw.OpenAssigned,
	}
}

// pattern classifies a contributor's working rhythm by thresholding
// recency and volume.
func (s *Scorer) pattern(raw *model.RawActivity) model.ActivityPattern {
	idle := time.Duration(0)
	if !raw.LastActiveAt.IsZero() {
		idle = s.now().Sub(raw.LastActiveAt)
	}

	switch {
	case raw.LastActiveAt.IsZero() || idle > days(s.policy.DormantDays):
		return model.PatternDormant
	case raw.IssuesOpened+raw.IssuesClosed <= s.policy.NewHistoryMax:
		return model.PatternNew
	case raw.AvgTimeToClose > 0 &&
		raw.AvgTimeToClose <= days(s.policy.ConsistentCloseDays) &&
		idle <= days(s.policy.RecentDays):
		return model.PatternConsistent
	default:
		return model.PatternBursty
	}
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
