package stats

import (
	"time"

	"github.com/assignwatch/assignwatch/internal/rank"
)

// Summarize reduces one ranked dashboard render to a snapshot. staleCount is
// passed in rather than recomputed so the snapshot matches what the user saw.
func Summarize(repo string, ranked []rank.RankedIssue, staleCount int, now time.Time) Snapshot {
	snap := Snapshot{
		Timestamp:  now,
		Repo:       repo,
		TotalCount: len(ranked),
		StaleCount: staleCount,
	}

	var scoreSum, scored int
	for i := range ranked {
		issue := &ranked[i].Issue
		if issue.Open() {
			snap.OpenCount++
		} else {
			snap.ClosedCount++
		}
		if issue.PullRequest {
			snap.PRLinkedCount++
		}
		if issue.Assignee != nil {
			snap.AssignedCount++
		}
		if a := ranked[i].Activity; a != nil {
			scoreSum += a.ReliabilityScore
			scored++
		}
	}
	if scored > 0 {
		snap.MeanReliability = float64(scoreSum) / float64(scored)
	}

	return snap
}
