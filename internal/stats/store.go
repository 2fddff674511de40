// Package stats persists aggregate dashboard statistics across runs so
// trends (stale growth, assignment churn) can be eyeballed later.
package stats

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/assignwatch/assignwatch/internal/log"
)

// maxRecords is the maximum number of snapshots retained in the store.
const maxRecords = 1000

// Snapshot captures aggregate statistics from a single dashboard run.
type Snapshot struct {
	Timestamp       time.Time `json:"ts"`
	Repo            string    `json:"repo"`
	TotalCount      int       `json:"total"`
	OpenCount       int       `json:"open"`
	ClosedCount     int       `json:"closed"`
	AssignedCount   int       `json:"assigned"`
	StaleCount      int       `json:"stale"`
	PRLinkedCount   int       `json:"prLinked"`
	MeanReliability float64   `json:"meanReliability"` // over scored assignees; 0 when none
}

// Store manages persistence of stats snapshots as JSON Lines.
type Store struct {
	path string
	mu   sync.Mutex
}

// NewStore creates a new stats store at ~/.cache/assignwatch/stats.jsonl.
func NewStore() (*Store, error) {
	cacheDir, err := os.UserCacheDir()
	if err != nil {
		return nil, err
	}

	dir := filepath.Join(cacheDir, "assignwatch")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}

	return &Store{
		path: filepath.Join(dir, "stats.jsonl"),
	}, nil
}

// NewStoreWithPath creates a store at the given path (for testing).
func NewStoreWithPath(path string) *Store {
	return &Store{path: path}
}

// Append adds a snapshot and prunes to the last maxRecords entries.
func (s *Store) Append(snap Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.readAll()
	if err != nil {
		log.Debug("could not read stats, starting fresh", "error", err)
		records = nil
	}

	records = append(records, snap)

	if len(records) > maxRecords {
		records = records[len(records)-maxRecords:]
	}

	return s.writeAll(records)
}

// Recent returns the last n snapshots (or fewer if not enough exist).
func (s *Store) Recent(n int) []Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.readAll()
	if err != nil {
		return nil
	}

	if len(records) <= n {
		return records
	}
	return records[len(records)-n:]
}

// RecentForRepo returns the last n snapshots recorded for the given repo.
func (s *Store) RecentForRepo(repo string, n int) []Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.readAll()
	if err != nil {
		return nil
	}

	var matched []Snapshot
	for _, snap := range records {
		if snap.Repo == repo {
			matched = append(matched, snap)
		}
	}
	if len(matched) <= n {
		return matched
	}
	return matched[len(matched)-n:]
}

// readAll reads all snapshots from disk.
func (s *Store) readAll() ([]Snapshot, error) {
	f, err := os.Open(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	defer func() { _ = f.Close() }()

	var records []Snapshot
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var snap Snapshot
		if err := json.Unmarshal(line, &snap); err != nil {
			continue // skip malformed lines
		}
		records = append(records, snap)
	}
	return records, scanner.Err()
}

// writeAll writes all snapshots to disk atomically.
func (s *Store) writeAll(records []Snapshot) error {
	tmp := s.path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return err
	}

	w := bufio.NewWriter(f)
	enc := json.NewEncoder(w)
	for _, r := range records {
		if err := enc.Encode(r); err != nil {
			_ = f.Close()
			_ = os.Remove(tmp)
			return err
		}
	}
	if err := w.Flush(); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return err
	}

	return os.Rename(tmp, s.path)
}
