package tui

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/assignwatch/assignwatch/internal/model"
	"github.com/assignwatch/assignwatch/internal/rank"
)

var watchNow = time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)

func testSnapshot() *Snapshot {
	assignedAt := watchNow.Add(-(time.Hour + time.Minute + time.Second))
	return &Snapshot{
		Repo: &model.RepoMeta{FullName: "octo/widgets", Stars: 42, OpenIssues: 7},
		Issues: []rank.RankedIssue{
			{
				Issue: model.Issue{
					Number:    12,
					Title:     "Flaky integration test",
					State:     model.StateOpen,
					Assignee:  &model.User{Login: "alice"},
					UpdatedAt: watchNow.Add(-time.Hour),
				},
				AssignedAt: &assignedAt,
			},
		},
		Stale: 1,
	}
}

func loadedModel(t *testing.T) Model {
	t.Helper()
	m := NewModel(context.Background(), func(context.Context) (*Snapshot, error) {
		return testSnapshot(), nil
	}, 7*24*time.Hour)
	m.now = watchNow

	updated, _ := m.Update(snapshotMsg{snapshot: testSnapshot()})
	return updated.(Model)
}

func TestWatchShowsLoadingBeforeFirstSnapshot(t *testing.T) {
	m := NewModel(context.Background(), func(context.Context) (*Snapshot, error) {
		return testSnapshot(), nil
	}, 7*24*time.Hour)

	if !strings.Contains(m.View(), "Loading issues") {
		t.Errorf("initial view missing loading state:\n%s", m.View())
	}
}

func TestWatchRendersSnapshot(t *testing.T) {
	m := loadedModel(t)
	view := m.View()

	for _, want := range []string{"octo/widgets", "#12", "Flaky integration test", "@alice", "1 stale issues"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q:\n%s", want, view)
		}
	}
}

func TestWatchCounterAdvancesOnTick(t *testing.T) {
	m := loadedModel(t)

	if !strings.Contains(m.View(), "1h 1m 1s") {
		t.Fatalf("view missing initial counter:\n%s", m.View())
	}

	updated, _ := m.Update(tickMsg(watchNow.Add(time.Second)))
	m = updated.(Model)

	if !strings.Contains(m.View(), "1h 1m 2s") {
		t.Errorf("counter did not advance after tick:\n%s", m.View())
	}
}

func TestWatchTickSchedulesReloadAfterWindow(t *testing.T) {
	m := loadedModel(t)
	m.lastLoaded = watchNow

	updated, _ := m.Update(tickMsg(watchNow.Add(time.Second)))
	m = updated.(Model)
	if m.loading {
		t.Fatal("reload started before the refresh window elapsed")
	}

	updated, _ = m.Update(tickMsg(watchNow.Add(reloadEvery + time.Second)))
	m = updated.(Model)
	if !m.loading {
		t.Error("reload not started after the refresh window elapsed")
	}
}

func TestWatchKeepsLastSnapshotOnRefreshError(t *testing.T) {
	m := loadedModel(t)

	updated, _ := m.Update(errMsg{err: errors.New("rate limited")})
	m = updated.(Model)

	view := m.View()
	if !strings.Contains(view, "Flaky integration test") {
		t.Errorf("stale data dropped on refresh error:\n%s", view)
	}
	if !strings.Contains(view, "refresh failed") {
		t.Errorf("view missing refresh error notice:\n%s", view)
	}
}

func TestWatchQuitKeys(t *testing.T) {
	m := loadedModel(t)

	for _, key := range []string{"q", "ctrl+c"} {
		_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(key)})
		if key == "ctrl+c" {
			_, cmd = m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
		}
		if cmd == nil {
			t.Fatalf("key %q produced no command", key)
		}
		if _, ok := cmd().(tea.QuitMsg); !ok {
			t.Errorf("key %q did not quit", key)
		}
	}
}

func TestWatchManualRefresh(t *testing.T) {
	m := loadedModel(t)

	updated, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("r")})
	m = updated.(Model)
	if !m.loading || cmd == nil {
		t.Error("manual refresh did not start a load")
	}
}
