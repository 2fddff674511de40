package analysis

import (
	"testing"
	"time"

	"github.com/assignwatch/assignwatch/config"
	"github.com/assignwatch/assignwatch/internal/model"
)

var testNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func newTestEstimator() *Estimator {
	return NewEstimatorWithClock(config.DefaultWeights(), func() time.Time { return testNow })
}

func openIssue(assignee string) *model.Issue {
	return &model.Issue{
		Number:    1,
		State:     model.StateOpen,
		Assignee:  &model.User{Login: assignee},
		CreatedAt: testNow.Add(-24 * time.Hour),
		UpdatedAt: testNow.Add(-time.Hour),
	}
}

func TestEstimatePreconditions(t *testing.T) {
	e := newTestEstimator()
	activity := &model.UserActivity{Login: "bob", ReliabilityScore: 70}

	closed := openIssue("bob")
	closed.State = model.StateClosed

	unassigned := openIssue("bob")
	unassigned.Assignee = nil

	tests := []struct {
		name     string
		issue    *model.Issue
		activity *model.UserActivity
	}{
		{"nil issue", nil, activity},
		{"closed issue", closed, activity},
		{"unassigned issue", unassigned, activity},
		{"missing activity", openIssue("bob"), nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := e.Estimate(tt.issue, tt.activity); got != nil {
				t.Errorf("Estimate() = %+v, want nil", got)
			}
		})
	}
}

func TestEstimateBounds(t *testing.T) {
	e := newTestEstimator()

	tests := []struct {
		name     string
		issue    *model.Issue
		activity *model.UserActivity
	}{
		{
			name:  "best case",
			issue: openIssue("fast"),
			activity: &model.UserActivity{
				Login:          "fast",
				AvgTimeToClose: 12 * time.Hour,
				OpenIssues:     0,
			},
		},
		{
			name: "worst case",
			issue: func() *model.Issue {
				i := openIssue("slow")
				i.CreatedAt = testNow.Add(-365 * 24 * time.Hour)
				i.Comments = 100
				return i
			}(),
			activity: &model.UserActivity{
				Login:          "slow",
				AvgTimeToClose: 30 * 24 * time.Hour,
				OpenIssues:     50,
			},
		},
		{
			name:  "pathological negative load",
			issue: openIssue("weird"),
			activity: &model.UserActivity{
				Login:      "weird",
				OpenIssues: -10,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := e.Estimate(tt.issue, tt.activity)
			if got == nil {
				t.Fatal("Estimate() = nil, want an analysis")
			}
			if got.CompletionProbability < 0 || got.CompletionProbability > 100 {
				t.Errorf("CompletionProbability = %d, want within [0, 100]", got.CompletionProbability)
			}
		})
	}
}

func TestEstimateMonotonicInLoad(t *testing.T) {
	e := newTestEstimator()
	issue := openIssue("bob")

	prev := 101
	for _, load := range []int{0, 1, 3, 5, 10} {
		activity := &model.UserActivity{Login: "bob", OpenIssues: load, AvgTimeToClose: 2 * 24 * time.Hour}
		got := e.Estimate(issue, activity)
		if got.CompletionProbability > prev {
			t.Errorf("load %d gave probability %d, higher than lighter load's %d", load, got.CompletionProbability, prev)
		}
		prev = got.CompletionProbability
	}
}

func TestEstimateMonotonicInCloseSpeed(t *testing.T) {
	e := newTestEstimator()
	issue := openIssue("bob")
	issue.CreatedAt = testNow.Add(-time.Hour) // too young for the overdue penalty

	prev := -1
	// Slower close averages must never raise the estimate.
	for _, avg := range []time.Duration{60 * 24 * time.Hour, 10 * 24 * time.Hour, 5 * 24 * time.Hour, 24 * time.Hour} {
		activity := &model.UserActivity{Login: "bob", AvgTimeToClose: avg}
		got := e.Estimate(issue, activity)
		if got.CompletionProbability < prev {
			t.Errorf("avg close %v gave probability %d, lower than slower closer's %d", avg, got.CompletionProbability, prev)
		}
		prev = got.CompletionProbability
	}
}

func TestEstimateOverdueIssueTrendsDown(t *testing.T) {
	e := newTestEstimator()
	activity := &model.UserActivity{Login: "bob", AvgTimeToClose: 2 * 24 * time.Hour}

	fresh := openIssue("bob")
	fresh.CreatedAt = testNow.Add(-24 * time.Hour)

	overdue := openIssue("bob")
	overdue.CreatedAt = testNow.Add(-20 * 24 * time.Hour)

	pFresh := e.Estimate(fresh, activity).CompletionProbability
	pOverdue := e.Estimate(overdue, activity).CompletionProbability

	if pOverdue >= pFresh {
		t.Errorf("overdue issue probability %d, fresh issue %d; want overdue < fresh", pOverdue, pFresh)
	}
}
