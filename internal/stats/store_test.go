package stats

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/assignwatch/assignwatch/internal/model"
	"github.com/assignwatch/assignwatch/internal/rank"
)

func TestAppendAndRecent(t *testing.T) {
	dir := t.TempDir()
	s := NewStoreWithPath(filepath.Join(dir, "stats.jsonl"))

	got := s.Recent(10)
	if len(got) != 0 {
		t.Fatalf("expected 0 records, got %d", len(got))
	}

	snap := Snapshot{
		Timestamp:  time.Now(),
		Repo:       "octo/widgets",
		TotalCount: 42,
		OpenCount:  30,
		StaleCount: 3,
	}
	if err := s.Append(snap); err != nil {
		t.Fatal(err)
	}

	got = s.Recent(10)
	if len(got) != 1 {
		t.Fatalf("expected 1 record, got %d", len(got))
	}
	if got[0].TotalCount != 42 || got[0].Repo != "octo/widgets" {
		t.Fatalf("unexpected record: %+v", got[0])
	}

	if err := s.Append(Snapshot{Timestamp: time.Now(), TotalCount: 50}); err != nil {
		t.Fatal(err)
	}

	got = s.Recent(10)
	if len(got) != 2 {
		t.Fatalf("expected 2 records, got %d", len(got))
	}
	if got[1].TotalCount != 50 {
		t.Fatalf("expected TotalCount 50, got %d", got[1].TotalCount)
	}
}

func TestRecentLimitsResults(t *testing.T) {
	dir := t.TempDir()
	s := NewStoreWithPath(filepath.Join(dir, "stats.jsonl"))

	for i := range 10 {
		if err := s.Append(Snapshot{TotalCount: i}); err != nil {
			t.Fatal(err)
		}
	}

	got := s.Recent(3)
	if len(got) != 3 {
		t.Fatalf("expected 3 records, got %d", len(got))
	}
	if got[0].TotalCount != 7 || got[2].TotalCount != 9 {
		t.Fatalf("expected last 3 entries, got %+v", got)
	}
}

func TestRecentForRepo(t *testing.T) {
	dir := t.TempDir()
	s := NewStoreWithPath(filepath.Join(dir, "stats.jsonl"))

	for i := range 6 {
		repo := "octo/widgets"
		if i%2 == 1 {
			repo = "octo/gadgets"
		}
		if err := s.Append(Snapshot{Repo: repo, TotalCount: i}); err != nil {
			t.Fatal(err)
		}
	}

	got := s.RecentForRepo("octo/widgets", 2)
	if len(got) != 2 {
		t.Fatalf("expected 2 records, got %d", len(got))
	}
	if got[0].TotalCount != 2 || got[1].TotalCount != 4 {
		t.Fatalf("expected last 2 widget entries, got %+v", got)
	}

	if got := s.RecentForRepo("octo/unknown", 5); len(got) != 0 {
		t.Fatalf("expected no records for unknown repo, got %d", len(got))
	}
}

func TestPrune(t *testing.T) {
	dir := t.TempDir()
	s := NewStoreWithPath(filepath.Join(dir, "stats.jsonl"))

	for i := range maxRecords + 5 {
		if err := s.Append(Snapshot{TotalCount: i}); err != nil {
			t.Fatal(err)
		}
	}

	got := s.Recent(maxRecords + 100)
	if len(got) != maxRecords {
		t.Fatalf("expected %d records after prune, got %d", maxRecords, len(got))
	}
	if got[0].TotalCount != 5 {
		t.Fatalf("expected first record TotalCount 5, got %d", got[0].TotalCount)
	}
}

func TestSummarize(t *testing.T) {
	now := time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)
	ranked := []rank.RankedIssue{
		{
			Issue:    model.Issue{Number: 1, State: model.StateOpen, Assignee: &model.User{Login: "alice"}},
			Activity: &model.UserActivity{Login: "alice", ReliabilityScore: 80},
		},
		{
			Issue:    model.Issue{Number: 2, State: model.StateOpen, Assignee: &model.User{Login: "bob"}},
			Activity: &model.UserActivity{Login: "bob", ReliabilityScore: 40},
		},
		{Issue: model.Issue{Number: 3, State: model.StateClosed}},
		{Issue: model.Issue{Number: 4, State: model.StateOpen, PullRequest: true}},
	}

	snap := Summarize("octo/widgets", ranked, 1, now)

	if snap.TotalCount != 4 || snap.OpenCount != 3 || snap.ClosedCount != 1 {
		t.Errorf("counts wrong: %+v", snap)
	}
	if snap.AssignedCount != 2 || snap.PRLinkedCount != 1 || snap.StaleCount != 1 {
		t.Errorf("derived counts wrong: %+v", snap)
	}
	if snap.MeanReliability != 60 {
		t.Errorf("MeanReliability = %v, want 60", snap.MeanReliability)
	}
	if snap.Repo != "octo/widgets" || !snap.Timestamp.Equal(now) {
		t.Errorf("metadata wrong: %+v", snap)
	}
}
