package assignment

import (
	"fmt"
	"time"

	"github.com/assignwatch/assignwatch/internal/model"
)

// Staleness reports whether an issue has gone quiet past the policy window.
// Only open issues without a linked pull request can be stale. Age is
// reported in whole days regardless of the verdict.
func Staleness(issue *model.Issue, now time.Time, staleAfter time.Duration) model.StalenessVerdict {
	age := now.Sub(issue.UpdatedAt)
	days := int(age.Hours() / 24)
	if days < 0 {
		days = 0
	}

	stale := issue.Open() && !issue.PullRequest && age > staleAfter

	return model.StalenessVerdict{Stale: stale, AgeDays: days}
}

// Status is the display classification of an issue on the dashboard.
type Status string

const (
	StatusPRLinked   Status = "pr-linked"
	StatusClosed     Status = "closed"
	StatusStale      Status = "stale"
	StatusInProgress Status = "in-progress"
	StatusOpen       Status = "open"
)

// Classify derives the display status for an issue. PR linkage and closed
// state take precedence; assigned issues are stale or in-progress depending
// on update recency; everything else is plain open.
func Classify(issue *model.Issue, now time.Time, staleAfter time.Duration) Status {
	if issue.PullRequest {
		return StatusPRLinked
	}
	if !issue.Open() {
		return StatusClosed
	}
	if issue.Assignee != nil || len(issue.Assignees) > 0 {
		if v := Staleness(issue, now, staleAfter); v.Stale {
			return StatusStale
		}
		return StatusInProgress
	}
	return StatusOpen
}

// StatusLabel renders a status for display, including the age for stale issues.
func StatusLabel(issue *model.Issue, now time.Time, staleAfter time.Duration) string {
	status := Classify(issue, now, staleAfter)
	if status == StatusStale {
		v := Staleness(issue, now, staleAfter)
		return fmt.Sprintf("stale (%dd)", v.AgeDays)
	}
	return string(status)
}
