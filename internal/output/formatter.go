// Package output renders the dashboard for terminals and machine consumers.
package output

import (
	"io"
	"time"

	"github.com/assignwatch/assignwatch/internal/model"
	"github.com/assignwatch/assignwatch/internal/rank"
	"github.com/assignwatch/assignwatch/internal/stats"
)

// Format represents the output format
type Format string

const (
	FormatTable Format = "table"
	FormatJSON  Format = "json"
)

// Dashboard is everything one render of the issue list needs.
type Dashboard struct {
	Repo     *model.RepoMeta              `json:"repo,omitempty"`
	Issues   []rank.RankedIssue           `json:"issues"`
	Analyses map[int]*model.IssueAnalysis `json:"analyses,omitempty"` // keyed by issue number
	Stale    []model.Issue                `json:"stale,omitempty"`

	Now        time.Time     `json:"generatedAt"`
	StaleAfter time.Duration `json:"-"`
}

// Formatter defines the interface for output formatters
type Formatter interface {
	Format(d *Dashboard, w io.Writer) error
	FormatLeaderboard(board []model.UserActivity, w io.Writer) error
	FormatHistory(history []stats.Snapshot, w io.Writer) error
}

// NewFormatter creates a formatter for the specified format
func NewFormatter(format Format) Formatter {
	switch format {
	case FormatJSON:
		return &JSONFormatter{}
	default:
		return &TableFormatter{}
	}
}
