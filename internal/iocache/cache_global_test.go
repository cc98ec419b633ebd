package iocache

import (
	"bytes"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/repomind/repomind/internal/parquet"
	"github.com/repomind/repomind/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// resetManager isolates the global manager and the default DB paths for one test.
func resetManager(t *testing.T) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	initOnce = sync.Once{}
	closeOnce = sync.Once{}
	Manager = &CacheStoreManager{}
	t.Cleanup(func() {
		CloseCaching()
		initOnce = sync.Once{}
		closeOnce = sync.Once{}
		Manager = &CacheStoreManager{}
	})
}

func TestInitStores(t *testing.T) {
	t.Run("sqlite defaults", func(t *testing.T) {
		resetManager(t)

		require.NoError(t, InitStores(schema.SQLiteBackend, "", schema.SQLiteBackend, ""))
		require.NotNil(t, Manager.GetCacheStore())
		require.NotNil(t, Manager.GetRunStore())

		CloseCaching()
		_, err := os.Stat(GetDBFilePath())
		assert.NoError(t, err, "cache database file should be created")
		_, err = os.Stat(GetHistoryDBFilePath())
		assert.NoError(t, err, "history database file should be created")
	})

	t.Run("memory cache without history", func(t *testing.T) {
		resetManager(t)

		require.NoError(t, InitStores(schema.MemoryBackend, "", "", ""))
		assert.IsType(t, &MemoryCacheStore{}, Manager.GetCacheStore())
		assert.Nil(t, Manager.GetRunStore())
	})

	t.Run("none backends", func(t *testing.T) {
		resetManager(t)

		require.NoError(t, InitStores(schema.NoneBackend, "", schema.NoneBackend, ""))
		_, _, _, err := Manager.GetCacheStore().Get("k")
		assert.ErrorIs(t, err, sql.ErrNoRows)
		id, err := Manager.GetRunStore().BeginRun("u", "m", time.Now())
		assert.NoError(t, err)
		assert.Zero(t, id)
	})

	t.Run("idempotent", func(t *testing.T) {
		resetManager(t)

		for range 3 {
			assert.NoError(t, InitStores(schema.MemoryBackend, "", "", ""))
		}
		CloseCaching()
		CloseCaching()
	})

	t.Run("history failure closes the cache", func(t *testing.T) {
		resetManager(t)

		err := InitStores(schema.MemoryBackend, "", schema.MySQLBackend, "invalid://connection")
		assert.Error(t, err)
		assert.Nil(t, Manager.GetCacheStore())
	})
}

func TestCacheStoreManagerConcurrency(t *testing.T) {
	resetManager(t)
	require.NoError(t, InitStores(schema.SQLiteBackend, ":memory:", "", ""))

	var wg sync.WaitGroup
	for i := range 10 {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			store := Manager.GetCacheStore()
			if !assert.NotNil(t, store) {
				return
			}
			assert.NoError(t, store.Set("concurrent_key", []byte("value"), 1, int64(1000+id)))
		}(i)
	}
	wg.Wait()
}

func TestClearCache(t *testing.T) {
	t.Run("sqlite removes the file", func(t *testing.T) {
		dbPath := filepath.Join(t.TempDir(), "clear.db")
		store, err := NewCacheStore(memoTable, schema.SQLiteBackend, dbPath)
		require.NoError(t, err)
		require.NoError(t, store.Close())

		require.NoError(t, ClearCache(schema.SQLiteBackend, dbPath, ""))
		_, err = os.Stat(dbPath)
		assert.True(t, os.IsNotExist(err))
	})

	t.Run("sqlite missing file", func(t *testing.T) {
		assert.NoError(t, ClearCache(schema.SQLiteBackend, filepath.Join(t.TempDir(), "missing.db"), ""))
	})

	t.Run("sqlite requires a path", func(t *testing.T) {
		assert.Error(t, ClearCache(schema.SQLiteBackend, "", ""))
	})

	t.Run("no-op backends", func(t *testing.T) {
		assert.NoError(t, ClearCache(schema.NoneBackend, "", ""))
		assert.NoError(t, ClearCache(schema.MemoryBackend, "", ""))
	})

	t.Run("unsupported backend", func(t *testing.T) {
		assert.Error(t, ClearCache("unsupported", "", ""))
	})
}

func TestClearHistory(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "history.db")
	store, err := NewRunStore(schema.SQLiteBackend, dbPath)
	require.NoError(t, err)
	require.NoError(t, store.Close())

	require.NoError(t, ClearHistory(schema.SQLiteBackend, dbPath, ""))
	_, err = os.Stat(dbPath)
	assert.True(t, os.IsNotExist(err))

	assert.NoError(t, ClearHistory(schema.NoneBackend, "", ""))
	assert.Error(t, ClearHistory(schema.MemoryBackend, "", ""))
}

func TestExecuteHistoryExport(t *testing.T) {
	var out bytes.Buffer

	t.Run("requires an output file", func(t *testing.T) {
		assert.Error(t, ExecuteHistoryExport(&out, &MockRunStore{}, ""))
	})

	t.Run("requires a store", func(t *testing.T) {
		assert.Error(t, ExecuteHistoryExport(&out, nil, "runs.parquet"))
	})

	t.Run("empty history", func(t *testing.T) {
		store := &MockRunStore{}
		store.On("GetStatus").Return(schema.HistoryStatus{Backend: "sqlite", Connected: true}, nil)
		assert.Error(t, ExecuteHistoryExport(&out, store, "runs.parquet"))
		store.AssertExpectations(t)
	})

	t.Run("status error", func(t *testing.T) {
		store := &MockRunStore{}
		store.On("GetStatus").Return(schema.HistoryStatus{}, errors.New("boom"))
		assert.Error(t, ExecuteHistoryExport(&out, store, "runs.parquet"))
	})

	t.Run("writes parquet", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "runs.parquet")
		store := &MockRunStore{}
		store.On("GetStatus").Return(schema.HistoryStatus{Backend: "sqlite", Connected: true, TotalRuns: 2}, nil)
		store.On("ListRuns", 0).Return([]schema.RunRecord{
			{RunID: 2, RepoURL: "https://github.com/acme/b", Status: "success", StartTime: time.Now()},
			{RunID: 1, RepoURL: "https://github.com/acme/a", Status: "failed", StartTime: time.Now()},
		}, nil)

		out.Reset()
		require.NoError(t, ExecuteHistoryExport(&out, store, path))
		assert.Contains(t, out.String(), "Exported 2 runs")

		rows, err := parquet.ReadRunsParquet(path)
		require.NoError(t, err)
		require.Len(t, rows, 2)
		assert.Equal(t, int64(2), rows[0].RunID)
		store.AssertExpectations(t)
	})
}

func TestPrintStatus(t *testing.T) {
	var out bytes.Buffer
	PrintCacheStatus(&out, schema.CacheStatus{Backend: "none"})
	assert.Equal(t, "Cache Backend: none\nConnected: false\n", out.String())

	out.Reset()
	PrintCacheStatus(&out, schema.CacheStatus{
		Backend:         "sqlite",
		Connected:       true,
		TotalEntries:    2,
		LastEntryTime:   time.Date(2024, 1, 2, 3, 4, 5, 0, time.Local),
		OldestEntryTime: time.Date(2024, 1, 1, 3, 4, 5, 0, time.Local),
		TableSizeBytes:  4096,
	})
	assert.Contains(t, out.String(), "Total Entries: 2")
	assert.Contains(t, out.String(), "Last Entry: 2024-01-02 03:04:05")
	assert.Contains(t, out.String(), "Table Size: 4096 bytes")

	out.Reset()
	PrintHistoryStatus(&out, schema.HistoryStatus{
		Backend:       "sqlite",
		Connected:     true,
		TotalRuns:     5,
		FailedRuns:    1,
		DistinctRepos: 2,
		LastRunID:     5,
	})
	assert.Contains(t, out.String(), "Total Runs: 5")
	assert.Contains(t, out.String(), "Failed Runs: 1")
	assert.Contains(t, out.String(), "Distinct Repositories: 2")
}
