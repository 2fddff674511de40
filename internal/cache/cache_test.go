package cache

import (
	"errors"
	"testing"
	"time"
)

func TestGetOrComputeMemoizes(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	c := NewWithClock(func() time.Time { return now })

	calls := 0
	compute := func() (int, error) {
		calls++
		return 42, nil
	}

	got, err := GetOrCompute(c, "k", time.Minute, compute)
	if err != nil || got != 42 {
		t.Fatalf("GetOrCompute() = %d, %v, want 42, nil", got, err)
	}
	got, err = GetOrCompute(c, "k", time.Minute, compute)
	if err != nil || got != 42 {
		t.Fatalf("GetOrCompute() = %d, %v, want 42, nil", got, err)
	}
	if calls != 1 {
		t.Errorf("compute called %d times, want 1", calls)
	}
}

func TestGetOrComputeTTLBoundary(t *testing.T) {
	t0 := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	now := t0
	c := NewWithClock(func() time.Time { return now })

	calls := 0
	compute := func() (string, error) {
		calls++
		return "v", nil
	}

	ttl := 10 * time.Minute
	if _, err := GetOrCompute(c, "k", ttl, compute); err != nil {
		t.Fatal(err)
	}

	// Just inside the TTL window: served from cache, no recompute.
	now = t0.Add(ttl - time.Second)
	if _, err := GetOrCompute(c, "k", ttl, compute); err != nil {
		t.Fatal(err)
	}
	if calls != 1 {
		t.Errorf("compute called %d times at ttl-1s, want 1", calls)
	}

	// Just past the TTL window: recompute.
	now = t0.Add(ttl + time.Second)
	if _, err := GetOrCompute(c, "k", ttl, compute); err != nil {
		t.Fatal(err)
	}
	if calls != 2 {
		t.Errorf("compute called %d times at ttl+1s, want 2", calls)
	}
}

func TestGetOrComputeFailureNotCached(t *testing.T) {
	c := New()

	calls := 0
	boom := errors.New("upstream down")
	compute := func() (int, error) {
		calls++
		if calls == 1 {
			return 0, boom
		}
		return 7, nil
	}

	if _, err := GetOrCompute(c, "k", time.Minute, compute); !errors.Is(err, boom) {
		t.Fatalf("first call error = %v, want %v", err, boom)
	}

	// The failure must not have been stored; the retry recomputes.
	got, err := GetOrCompute(c, "k", time.Minute, compute)
	if err != nil || got != 7 {
		t.Fatalf("second call = %d, %v, want 7, nil", got, err)
	}
	if calls != 2 {
		t.Errorf("compute called %d times, want 2", calls)
	}
}

func TestDistinctKeysDoNotCollide(t *testing.T) {
	c := New()

	a, _ := GetOrCompute(c, "activity:owner/repo:alice", time.Minute, func() (int, error) { return 1, nil })
	b, _ := GetOrCompute(c, "activity:owner/repo:bob", time.Minute, func() (int, error) { return 2, nil })

	if a != 1 || b != 2 {
		t.Errorf("got %d, %d, want 1, 2", a, b)
	}
}

func TestStatsAndClear(t *testing.T) {
	t0 := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	now := t0
	c := NewWithClock(func() time.Time { return now })

	_, _ = GetOrCompute(c, "short", time.Minute, func() (int, error) { return 1, nil })
	_, _ = GetOrCompute(c, "long", time.Hour, func() (int, error) { return 2, nil })

	now = t0.Add(5 * time.Minute)
	total, valid := c.Stats()
	if total != 2 || valid != 1 {
		t.Errorf("Stats() = %d, %d, want 2, 1", total, valid)
	}

	c.Clear()
	total, _ = c.Stats()
	if total != 0 {
		t.Errorf("Stats() after Clear = %d, want 0", total)
	}
}

func TestNilValueCached(t *testing.T) {
	c := New()

	calls := 0
	compute := func() (*int, error) {
		calls++
		return nil, nil
	}

	v, err := GetOrCompute(c, "k", time.Minute, compute)
	if err != nil || v != nil {
		t.Fatalf("GetOrCompute() = %v, %v, want nil, nil", v, err)
	}
	v, _ = GetOrCompute(c, "k", time.Minute, compute)
	if v != nil {
		t.Fatalf("second GetOrCompute() = %v, want nil", v)
	}
	if calls != 1 {
		t.Errorf("compute called %d times, want 1", calls)
	}
}
