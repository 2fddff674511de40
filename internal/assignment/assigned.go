// Package assignment derives assignment timestamps, staleness verdicts, and
// elapsed-time displays from issue metadata and timeline events.
package assignment

import (
	"time"

	"github.com/assignwatch/assignwatch/internal/model"
)

// ResolveAssignedAt returns the creation time of the most recent assigned
// event that names the issue's current assignee. Timeline events arrive
// oldest first, so the scan runs backwards and the first match wins; a
// reassignment therefore resets the clock. Returns nil when no matching
// event exists (the assignment may predate available timeline history),
// which callers must treat as "cannot compute elapsed time", not as
// "just assigned".
func ResolveAssignedAt(timeline []model.TimelineEvent, assignee string) *time.Time {
	if assignee == "" {
		return nil
	}
	for i := len(timeline) - 1; i >= 0; i-- {
		ev := timeline[i]
		if ev.Event != model.EventAssigned {
			continue
		}
		if ev.Assignee != nil && ev.Assignee.Login == assignee {
			t := ev.CreatedAt
			return &t
		}
	}
	return nil
}

// Elapsed returns the time assigned, clamped at zero to tolerate clock skew.
func Elapsed(assignedAt, now time.Time) time.Duration {
	d := now.Sub(assignedAt)
	if d < 0 {
		return 0
	}
	return d
}
