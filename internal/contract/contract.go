// Package contract provides interfaces and shared utilities for RepoMind's internal architecture.
package contract

import (
	"context"
	"time"

	"github.com/repomind/repomind/schema"
)

// GitClient defines the version-control operations an analysis needs.
// This allows the analysis pipeline to be tested without network access.
type GitClient interface {
	// Clone makes a shallow copy of url in dir, limited to depth commits.
	Clone(ctx context.Context, url, dir string, depth int) error

	// RecentCommits returns up to limit commits reachable from HEAD, newest first.
	RecentCommits(ctx context.Context, dir string, limit int) ([]schema.Commit, error)
}

// CacheManager defines the interface for managing the persistence stores.
// This allows the persistence layer to be mocked for testing.
type CacheManager interface {
	GetCacheStore() CacheStore
	GetRunStore() RunStore
}

// CacheStore defines the interface for memoized analysis storage.
type CacheStore interface {
	Get(key string) ([]byte, int, int64, error)
	Set(key string, value []byte, version int, timestamp int64) error
	Delete(key string) error
	GetStatus() (schema.CacheStatus, error)
	Close() error
}

// RunStore defines the interface for tracking analysis runs.
type RunStore interface {
	// BeginRun records the start of an analysis and returns its ID
	BeginRun(repoURL, model string, startTime time.Time) (int64, error)

	// EndRun records how the analysis finished
	EndRun(runID int64, endTime time.Time, outcome schema.RunOutcome) error

	// ListRuns returns the most recent runs, newest first
	ListRuns(limit int) ([]schema.RunRecord, error)

	// GetStatus returns status information about the run store
	GetStatus() (schema.HistoryStatus, error)

	// Close closes the underlying connection
	Close() error
}
