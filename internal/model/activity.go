package model

import "time"

// ActivityPattern categorizes a contributor's recent working rhythm.
type ActivityPattern string

const (
	PatternConsistent ActivityPattern = "consistent"
	PatternBursty     ActivityPattern = "bursty"
	PatternDormant    ActivityPattern = "dormant"
	PatternNew        ActivityPattern = "new"
)

// RawActivity is the unscored per-user activity summary aggregated from
// the GitHub API. It is the input to the reliability scorer.
type RawActivity struct {
	Login          string        `json:"login"`
	AvatarURL      string        `json:"avatarUrl,omitempty"`
	IssuesOpened   int           `json:"issuesOpened"`
	IssuesClosed   int           `json:"issuesClosed"`   // closed issues where the user was assignee
	OpenAssigned   int           `json:"openAssigned"`   // currently open issues assigned to the user
	AvgTimeToClose time.Duration `json:"avgTimeToClose"` // zero when nothing has been closed
	LastActiveAt   time.Time     `json:"lastActiveAt"`   // zero when no activity was observed
}

// HasHistory reports whether any activity was observed at all. Users without
// history get no reliability score; callers surface "no activity data".
func (r *RawActivity) HasHistory() bool {
	return r.IssuesOpened > 0 || r.IssuesClosed > 0 || r.OpenAssigned > 0
}

// UserActivity is the scored, derived view of a contributor on a repository.
type UserActivity struct {
	Login            string          `json:"login"`
	AvatarURL        string          `json:"avatarUrl,omitempty"`
	ReliabilityScore int             `json:"reliabilityScore"` // 0-100
	ActivityPattern  ActivityPattern `json:"activityPattern"`
	AvgTimeToClose   time.Duration   `json:"avgTimeToClose"`
	OpenIssues       int             `json:"openIssues"`
}

// IssueAnalysis is the derived completion estimate for an open, assigned
// issue. It is never produced for closed or unassigned issues.
type IssueAnalysis struct {
	CompletionProbability int `json:"completionProbability"` // 0-100
}

// ClaimTone is the severity of a claim tag.
type ClaimTone string

const (
	ToneDanger  ClaimTone = "danger"
	ToneSuccess ClaimTone = "success"
	ToneNeutral ClaimTone = "neutral"
)

// ClaimTag labels a comment that claims an issue. Nil means no claim.
type ClaimTag struct {
	Text string    `json:"text"`
	Tone ClaimTone `json:"tone"`
}

// StalenessVerdict reports whether an issue has gone quiet past policy.
type StalenessVerdict struct {
	Stale   bool `json:"stale"`
	AgeDays int  `json:"ageDays"` // whole days since the last update
}
