// Package model contains domain types for the assignwatch application.
// These types are independent of any external GitHub library.
package model

import "time"

// IssueState represents the open/closed state of an issue.
const (
	StateOpen   = "open"
	StateClosed = "closed"
)

// User is a GitHub account referenced by issues and timeline events.
type User struct {
	Login     string `json:"login"`
	AvatarURL string `json:"avatarUrl,omitempty"`
	HTMLURL   string `json:"htmlUrl,omitempty"`
}

// Label is an issue label.
type Label struct {
	Name  string `json:"name"`
	Color string `json:"color,omitempty"`
}

// Issue is a single issue (or PR-linked issue) from the tracked repository.
type Issue struct {
	ID          int64     `json:"id"`
	Number      int       `json:"number"`
	Title       string    `json:"title"`
	State       string    `json:"state"` // open, closed
	User        User      `json:"user"`
	Assignee    *User     `json:"assignee,omitempty"`
	Assignees   []User    `json:"assignees,omitempty"`
	Labels      []Label   `json:"labels,omitempty"`
	Comments    int       `json:"comments"`
	PullRequest bool      `json:"pullRequest"` // true when a PR is linked
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
	HTMLURL     string    `json:"htmlUrl,omitempty"`
}

// Open reports whether the issue is open.
func (i *Issue) Open() bool {
	return i.State == StateOpen
}

// LabelNames returns the label names in order.
func (i *Issue) LabelNames() []string {
	names := make([]string, 0, len(i.Labels))
	for _, l := range i.Labels {
		names = append(names, l.Name)
	}
	return names
}

// TimelineEvent is a single event from an issue's timeline.
// Only the fields needed for assignment resolution are carried.
type TimelineEvent struct {
	Event     string    `json:"event"`
	Assignee  *User     `json:"assignee,omitempty"`
	Actor     *User     `json:"actor,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// EventAssigned is the timeline event kind recorded when a user is assigned.
const EventAssigned = "assigned"

// RepoMeta is repository metadata used by the dashboard header.
type RepoMeta struct {
	Owner       User   `json:"owner"`
	FullName    string `json:"fullName"`
	Description string `json:"description,omitempty"`
	Stars       int    `json:"stars"`
	OpenIssues  int    `json:"openIssues"`
}

// IssueListOptions controls the upstream issue listing.
type IssueListOptions struct {
	State   string // all, open, closed
	Sort    string // updated, created, comments
	PerPage int
}
