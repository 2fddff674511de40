package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/assignwatch/assignwatch/config"
	"github.com/assignwatch/assignwatch/internal/cache"
	"github.com/assignwatch/assignwatch/internal/model"
	"github.com/assignwatch/assignwatch/internal/rank"
)

// mockFetcher serves canned data and counts upstream calls.
type mockFetcher struct {
	mu sync.Mutex

	issues       []model.Issue
	timelines    map[int][]model.TimelineEvent
	activity     map[string]*model.RawActivity
	contributors []model.User

	issuesCalls   int
	timelineCalls int
	activityCalls int
	contribCalls  int

	activityErr error
}

func (m *mockFetcher) Issues(_ context.Context, _, _ string, _ model.IssueListOptions) ([]model.Issue, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.issuesCalls++
	return m.issues, nil
}

func (m *mockFetcher) Timeline(_ context.Context, _, _ string, number int) ([]model.TimelineEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.timelineCalls++
	return m.timelines[number], nil
}

func (m *mockFetcher) UserActivity(_ context.Context, _, _, login string) (*model.RawActivity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.activityCalls++
	if m.activityErr != nil {
		return nil, m.activityErr
	}
	if raw, ok := m.activity[login]; ok {
		return raw, nil
	}
	return &model.RawActivity{Login: login}, nil
}

func (m *mockFetcher) Repository(_ context.Context, owner, repo string) (*model.RepoMeta, error) {
	return &model.RepoMeta{FullName: owner + "/" + repo}, nil
}

func (m *mockFetcher) Contributors(_ context.Context, _, _ string) ([]model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.contribCalls++
	return m.contributors, nil
}

func (m *mockFetcher) calls() (issues, timeline, activity, contrib int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.issuesCalls, m.timelineCalls, m.activityCalls, m.contribCalls
}

// fakeClock is a settable clock shared by the service and its cache.
type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (f *fakeClock) now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.t
}

func (f *fakeClock) advance(d time.Duration) {
	f.mu.Lock()
	f.t = f.t.Add(d)
	f.mu.Unlock()
}

func newTestService(fetcher *mockFetcher, clock *fakeClock) *Service {
	c := cache.NewWithClock(clock.now)
	return NewWithClock(fetcher, c, config.DefaultPolicy(), config.DefaultWeights(),
		"octo", "widgets", 4, clock.now)
}

func steadyActivity(login string, now time.Time) *model.RawActivity {
	return &model.RawActivity{
		Login:          login,
		IssuesOpened:   5,
		IssuesClosed:   5,
		OpenAssigned:   1,
		AvgTimeToClose: 48 * time.Hour,
		LastActiveAt:   now.Add(-24 * time.Hour),
	}
}

func TestReliabilityCachedWithinTTL(t *testing.T) {
	clock := &fakeClock{t: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
	fetcher := &mockFetcher{activity: map[string]*model.RawActivity{
		"alice": steadyActivity("alice", clock.now()),
	}}
	svc := newTestService(fetcher, clock)
	ctx := context.Background()

	first, err := svc.Reliability(ctx, "alice")
	if err != nil {
		t.Fatal(err)
	}
	second, err := svc.Reliability(ctx, "alice")
	if err != nil {
		t.Fatal(err)
	}

	if _, _, activityCalls, _ := fetcher.calls(); activityCalls != 1 {
		t.Errorf("upstream activity calls = %d, want 1", activityCalls)
	}
	if first == nil || second == nil || first.ReliabilityScore != second.ReliabilityScore {
		t.Errorf("cached result diverged: %+v vs %+v", first, second)
	}
}

func TestReliabilityRecomputedAfterTTL(t *testing.T) {
	clock := &fakeClock{t: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
	fetcher := &mockFetcher{activity: map[string]*model.RawActivity{
		"alice": steadyActivity("alice", clock.now()),
	}}
	svc := newTestService(fetcher, clock)
	ctx := context.Background()

	if _, err := svc.Reliability(ctx, "alice"); err != nil {
		t.Fatal(err)
	}
	clock.advance(cache.ActivityTTL + time.Second)
	if _, err := svc.Reliability(ctx, "alice"); err != nil {
		t.Fatal(err)
	}

	if _, _, activityCalls, _ := fetcher.calls(); activityCalls != 2 {
		t.Errorf("upstream activity calls = %d, want 2 after expiry", activityCalls)
	}
}

func TestReliabilityFailureNotCached(t *testing.T) {
	clock := &fakeClock{t: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
	fetcher := &mockFetcher{activityErr: errors.New("boom")}
	svc := newTestService(fetcher, clock)
	ctx := context.Background()

	if _, err := svc.Reliability(ctx, "alice"); err == nil {
		t.Fatal("want error from failing upstream")
	}
	fetcher.mu.Lock()
	fetcher.activityErr = nil
	fetcher.activity = map[string]*model.RawActivity{"alice": steadyActivity("alice", clock.now())}
	fetcher.mu.Unlock()

	activity, err := svc.Reliability(ctx, "alice")
	if err != nil {
		t.Fatal(err)
	}
	if activity == nil {
		t.Error("recovered upstream should produce a score, got nil")
	}
}

func TestReliabilityNoHistoryIsNil(t *testing.T) {
	clock := &fakeClock{t: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
	fetcher := &mockFetcher{}
	svc := newTestService(fetcher, clock)

	activity, err := svc.Reliability(context.Background(), "ghost")
	if err != nil {
		t.Fatal(err)
	}
	if activity != nil {
		t.Errorf("no-history user scored %+v, want nil", activity)
	}
}

func TestAnalysisSkipsIneligibleIssuesWithoutFetching(t *testing.T) {
	clock := &fakeClock{t: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
	fetcher := &mockFetcher{}
	svc := newTestService(fetcher, clock)
	ctx := context.Background()

	closed := &model.Issue{Number: 1, State: model.StateClosed, Assignee: &model.User{Login: "alice"}}
	unassigned := &model.Issue{Number: 2, State: model.StateOpen}

	for _, issue := range []*model.Issue{closed, unassigned, nil} {
		est, err := svc.Analysis(ctx, issue)
		if err != nil {
			t.Fatal(err)
		}
		if est != nil {
			t.Errorf("issue %+v got estimate %+v, want nil", issue, est)
		}
	}
	if _, _, activityCalls, _ := fetcher.calls(); activityCalls != 0 {
		t.Errorf("ineligible issues reached upstream: %d calls", activityCalls)
	}
}

func TestAnalysisCachedPerIssue(t *testing.T) {
	clock := &fakeClock{t: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
	fetcher := &mockFetcher{activity: map[string]*model.RawActivity{
		"alice": steadyActivity("alice", clock.now()),
	}}
	svc := newTestService(fetcher, clock)
	ctx := context.Background()

	issue := &model.Issue{
		Number:    7,
		State:     model.StateOpen,
		Assignee:  &model.User{Login: "alice"},
		CreatedAt: clock.now().Add(-24 * time.Hour),
	}

	first, err := svc.Analysis(ctx, issue)
	if err != nil {
		t.Fatal(err)
	}
	second, err := svc.Analysis(ctx, issue)
	if err != nil {
		t.Fatal(err)
	}
	if first == nil || second == nil {
		t.Fatal("eligible issue got nil estimate")
	}
	if first.CompletionProbability != second.CompletionProbability {
		t.Errorf("cached estimate diverged: %d vs %d",
			first.CompletionProbability, second.CompletionProbability)
	}
	if _, _, activityCalls, _ := fetcher.calls(); activityCalls != 1 {
		t.Errorf("upstream activity calls = %d, want 1", activityCalls)
	}
}

func TestAnalysisKeyedByAssignee(t *testing.T) {
	clock := &fakeClock{t: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
	fetcher := &mockFetcher{activity: map[string]*model.RawActivity{
		"alice": steadyActivity("alice", clock.now()),
		// bob has no history: his fresh estimate is nil.
	}}
	svc := newTestService(fetcher, clock)
	ctx := context.Background()

	issue := &model.Issue{
		Number:    7,
		State:     model.StateOpen,
		Assignee:  &model.User{Login: "alice"},
		CreatedAt: clock.now().Add(-24 * time.Hour),
	}

	first, err := svc.Analysis(ctx, issue)
	if err != nil {
		t.Fatal(err)
	}
	if first == nil {
		t.Fatal("eligible issue got nil estimate")
	}

	// Reassignment well within the analysis TTL must not serve the previous
	// assignee's estimate.
	clock.advance(time.Minute)
	issue.Assignee = &model.User{Login: "bob"}

	second, err := svc.Analysis(ctx, issue)
	if err != nil {
		t.Fatal(err)
	}
	if second != nil {
		t.Errorf("after reassignment to no-history bob, Analysis = %+v, want nil", second)
	}
}

func TestAssignedAtUsesCachedTimeline(t *testing.T) {
	clock := &fakeClock{t: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
	assignedAt := clock.now().Add(-48 * time.Hour)
	fetcher := &mockFetcher{timelines: map[int][]model.TimelineEvent{
		3: {
			{Event: model.EventAssigned, Assignee: &model.User{Login: "alice"}, CreatedAt: assignedAt},
		},
	}}
	svc := newTestService(fetcher, clock)
	ctx := context.Background()

	issue := &model.Issue{Number: 3, State: model.StateOpen, Assignee: &model.User{Login: "alice"}}

	for i := 0; i < 2; i++ {
		got, err := svc.AssignedAt(ctx, issue)
		if err != nil {
			t.Fatal(err)
		}
		if got == nil || !got.Equal(assignedAt) {
			t.Fatalf("AssignedAt = %v, want %v", got, assignedAt)
		}
	}
	if _, timelineCalls, _, _ := fetcher.calls(); timelineCalls != 1 {
		t.Errorf("upstream timeline calls = %d, want 1", timelineCalls)
	}
}

func TestAssignedAtNilForUnassigned(t *testing.T) {
	clock := &fakeClock{t: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
	fetcher := &mockFetcher{}
	svc := newTestService(fetcher, clock)

	got, err := svc.AssignedAt(context.Background(), &model.Issue{Number: 4, State: model.StateOpen})
	if err != nil {
		t.Fatal(err)
	}
	if got != nil {
		t.Errorf("AssignedAt = %v, want nil for unassigned issue", got)
	}
	if _, timelineCalls, _, _ := fetcher.calls(); timelineCalls != 0 {
		t.Errorf("unassigned issue reached upstream: %d timeline calls", timelineCalls)
	}
}

func TestClaimTagScoresAuthor(t *testing.T) {
	clock := &fakeClock{t: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
	fetcher := &mockFetcher{activity: map[string]*model.RawActivity{
		// Dormant with a big backlog: scores well under the risk threshold.
		"flaky": {
			Login:        "flaky",
			IssuesOpened: 4,
			OpenAssigned: 8,
			LastActiveAt: clock.now().Add(-90 * 24 * time.Hour),
		},
		"steady": steadyActivity("steady", clock.now()),
	}}
	svc := newTestService(fetcher, clock)
	ctx := context.Background()
	issue := &model.Issue{Number: 9, State: model.StateOpen, Assignee: &model.User{Login: "steady"}}

	tag, err := svc.ClaimTag(ctx, issue, "flaky", "I'll take this one")
	if err != nil {
		t.Fatal(err)
	}
	if tag == nil || tag.Tone != model.ToneDanger {
		t.Errorf("low-score claimant tag = %+v, want danger tone", tag)
	}

	tag, err = svc.ClaimTag(ctx, issue, "steady", "working on it")
	if err != nil {
		t.Fatal(err)
	}
	if tag == nil || tag.Tone != model.ToneSuccess {
		t.Errorf("high-score claimant tag = %+v, want success tone", tag)
	}
}

func TestClaimTagIgnoresNonClaims(t *testing.T) {
	clock := &fakeClock{t: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
	fetcher := &mockFetcher{}
	svc := newTestService(fetcher, clock)

	tag, err := svc.ClaimTag(context.Background(), nil, "alice", "looks like a parser bug")
	if err != nil {
		t.Fatal(err)
	}
	if tag != nil {
		t.Errorf("non-claim comment tagged %+v, want nil", tag)
	}
	if _, _, activityCalls, _ := fetcher.calls(); activityCalls != 0 {
		t.Errorf("non-claim reached upstream: %d calls", activityCalls)
	}
}

func TestStaleIssuesFilter(t *testing.T) {
	clock := &fakeClock{t: time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)}
	svc := newTestService(&mockFetcher{}, clock)
	now := clock.now()

	issues := []model.Issue{
		{Number: 1, State: model.StateOpen, UpdatedAt: now.Add(-9 * 24 * time.Hour)},
		{Number: 2, State: model.StateOpen, UpdatedAt: now.Add(-time.Hour)},
		{Number: 3, State: model.StateClosed, UpdatedAt: now.Add(-30 * 24 * time.Hour)},
		{Number: 4, State: model.StateOpen, PullRequest: true, UpdatedAt: now.Add(-30 * 24 * time.Hour)},
		{Number: 5, State: model.StateOpen, UpdatedAt: now.Add(-8 * 24 * time.Hour)},
	}

	stale := svc.StaleIssues(issues)
	if len(stale) != 2 || stale[0].Number != 1 || stale[1].Number != 5 {
		t.Errorf("stale set = %+v, want issues 1 and 5", stale)
	}
}

func TestMostActiveContributorsOrderedAndCached(t *testing.T) {
	clock := &fakeClock{t: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
	now := clock.now()
	fetcher := &mockFetcher{
		contributors: []model.User{
			{Login: "slow"}, {Login: "fast"}, {Login: "ghost"},
		},
		activity: map[string]*model.RawActivity{
			"slow": {
				Login:          "slow",
				IssuesOpened:   3,
				IssuesClosed:   2,
				OpenAssigned:   6,
				AvgTimeToClose: 30 * 24 * time.Hour,
				LastActiveAt:   now.Add(-40 * 24 * time.Hour),
			},
			"fast": steadyActivity("fast", now),
			// ghost has no history and is dropped from the board.
		},
	}
	svc := newTestService(fetcher, clock)
	ctx := context.Background()

	board, err := svc.MostActiveContributors(ctx, 5)
	if err != nil {
		t.Fatal(err)
	}
	if len(board) != 2 {
		t.Fatalf("board size = %d, want 2 (no-history contributor dropped)", len(board))
	}
	if board[0].Login != "fast" || board[1].Login != "slow" {
		t.Errorf("board order = [%s %s], want [fast slow]", board[0].Login, board[1].Login)
	}
	if board[0].ReliabilityScore <= board[1].ReliabilityScore {
		t.Errorf("board not descending: %d then %d",
			board[0].ReliabilityScore, board[1].ReliabilityScore)
	}

	if _, err := svc.MostActiveContributors(ctx, 5); err != nil {
		t.Fatal(err)
	}
	if _, _, _, contribCalls := fetcher.calls(); contribCalls != 1 {
		t.Errorf("upstream contributor calls = %d, want 1 within bulk TTL", contribCalls)
	}
}

func TestMostActiveContributorsRecomputedAfterBulkTTL(t *testing.T) {
	clock := &fakeClock{t: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
	fetcher := &mockFetcher{contributors: []model.User{{Login: "fast"}}}
	fetcher.activity = map[string]*model.RawActivity{"fast": steadyActivity("fast", clock.now())}
	svc := newTestService(fetcher, clock)
	ctx := context.Background()

	if _, err := svc.MostActiveContributors(ctx, 3); err != nil {
		t.Fatal(err)
	}
	clock.advance(cache.BulkTTL + time.Second)
	if _, err := svc.MostActiveContributors(ctx, 3); err != nil {
		t.Fatal(err)
	}

	if _, _, _, contribCalls := fetcher.calls(); contribCalls != 2 {
		t.Errorf("upstream contributor calls = %d, want 2 after bulk expiry", contribCalls)
	}
}

func TestRankAssignedThroughService(t *testing.T) {
	clock := &fakeClock{t: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
	now := clock.now()
	fetcher := &mockFetcher{timelines: map[int][]model.TimelineEvent{
		1: {{Event: model.EventAssigned, Assignee: &model.User{Login: "alice"}, CreatedAt: now.Add(-time.Hour)}},
		2: {{Event: model.EventAssigned, Assignee: &model.User{Login: "bob"}, CreatedAt: now.Add(-72 * time.Hour)}},
	}}
	svc := newTestService(fetcher, clock)

	issues := []model.Issue{
		{Number: 1, State: model.StateOpen, Assignee: &model.User{Login: "alice"}},
		{Number: 2, State: model.StateOpen, Assignee: &model.User{Login: "bob"}},
	}

	ranked, err := svc.Rank(context.Background(), issues, rank.ModeAssigned)
	if err != nil {
		t.Fatal(err)
	}
	if ranked[0].Issue.Number != 2 || ranked[1].Issue.Number != 1 {
		t.Errorf("assigned order = [%d %d], want [2 1]",
			ranked[0].Issue.Number, ranked[1].Issue.Number)
	}
}
