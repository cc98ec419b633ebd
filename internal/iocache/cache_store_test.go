package iocache

import (
	"database/sql"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/repomind/repomind/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestValidateTableName tests the validateTableName function with various inputs.
func TestValidateTableName(t *testing.T) {
	tests := []struct {
		name      string
		tableName string
		wantErr   bool
	}{
		{"valid simple name", "test_table", false},
		{"valid name with numbers", "test_table_123", false},
		{"valid name starting with underscore", "_test_table", false},
		{"valid mixed case", "TestTable_123", false},
		{"very long name", strings.Repeat("a", 1000), false},
		{"empty name", "", true},
		{"starts with number", "123_table", true},
		{"contains dash", "test-table", true},
		{"contains space", "test table", true},
		{"sql injection attempt", "test'; DROP TABLE users; --", true},
		{"contains dot", "test.table", true},
		{"unicode", "test_表", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateTableName(tt.tableName)
			if tt.wantErr {
				assert.Error(t, err, "validateTableName should error for %q", tt.tableName)
			} else {
				assert.NoError(t, err, "validateTableName should not error for %q", tt.tableName)
			}
		})
	}
}

// TestQuoteTableName tests the quoteTableName function for all backends.
func TestQuoteTableName(t *testing.T) {
	tests := []struct {
		backend schema.DatabaseBackend
		want    string
	}{
		{schema.SQLiteBackend, `"t"`},
		{schema.MySQLBackend, "`t`"},
		{schema.PostgreSQLBackend, `"t"`},
		{schema.NoneBackend, `"t"`},
	}
	for _, tt := range tests {
		t.Run(string(tt.backend), func(t *testing.T) {
			assert.Equal(t, tt.want, quoteTableName("t", tt.backend))
		})
	}
}

// TestGetPlaceholder tests placeholders for different backends.
func TestGetPlaceholder(t *testing.T) {
	assert.Equal(t, "?", getPlaceholder(schema.SQLiteBackend, 1))
	assert.Equal(t, "?", getPlaceholder(schema.MySQLBackend, 3))
	assert.Equal(t, "$1", getPlaceholder(schema.PostgreSQLBackend, 1))
	assert.Equal(t, "$4", getPlaceholder(schema.PostgreSQLBackend, 4))
}

// TestGetUpsertQuery tests the backend-specific upsert statements.
func TestGetUpsertQuery(t *testing.T) {
	tests := []struct {
		backend  schema.DatabaseBackend
		contains string
	}{
		{schema.SQLiteBackend, "INSERT OR REPLACE"},
		{schema.MySQLBackend, "ON DUPLICATE KEY UPDATE"},
		{schema.PostgreSQLBackend, "ON CONFLICT (cache_key) DO UPDATE"},
	}
	for _, tt := range tests {
		t.Run(string(tt.backend), func(t *testing.T) {
			store := &CacheStoreImpl{tableName: "memo", backend: tt.backend}
			assert.Contains(t, store.getUpsertQuery(), tt.contains)
		})
	}
}

// TestGetCreateTableQuery tests the column types chosen per backend.
func TestGetCreateTableQuery(t *testing.T) {
	assert.Contains(t, getCreateTableQuery("memo", schema.MySQLBackend), "MEDIUMBLOB")
	assert.Contains(t, getCreateTableQuery("memo", schema.PostgreSQLBackend), "BYTEA")
	assert.Contains(t, getCreateTableQuery("memo", schema.SQLiteBackend), "BLOB")
	assert.Contains(t, getCreateTableQuery("memo", schema.SQLiteBackend), `"memo"`)
}

// TestSQLiteBackendOperations tests the full lifecycle of SQLite backend operations.
func TestSQLiteBackendOperations(t *testing.T) {
	newStore := func(t *testing.T) *CacheStoreImpl {
		t.Helper()
		store, err := NewCacheStore("test_table", schema.SQLiteBackend, ":memory:")
		require.NoError(t, err, "Failed to create SQLite store")
		t.Cleanup(func() { _ = store.Close() })
		return store.(*CacheStoreImpl)
	}

	t.Run("set and get", func(t *testing.T) {
		store := newStore(t)
		require.NoError(t, store.Set("k", []byte("v"), 1, 1234567890))

		value, version, ts, err := store.Get("k")
		require.NoError(t, err)
		assert.Equal(t, []byte("v"), value)
		assert.Equal(t, 1, version)
		assert.Equal(t, int64(1234567890), ts)
	})

	t.Run("upsert behavior", func(t *testing.T) {
		store := newStore(t)
		require.NoError(t, store.Set("k", []byte("initial"), 1, 1000))
		require.NoError(t, store.Set("k", []byte("updated"), 2, 2000))

		value, version, ts, err := store.Get("k")
		require.NoError(t, err)
		assert.Equal(t, "updated", string(value))
		assert.Equal(t, 2, version)
		assert.Equal(t, int64(2000), ts)
	})

	t.Run("missing key", func(t *testing.T) {
		store := newStore(t)
		_, _, _, err := store.Get("missing")
		assert.ErrorIs(t, err, sql.ErrNoRows)
	})

	t.Run("delete", func(t *testing.T) {
		store := newStore(t)
		require.NoError(t, store.Set("k", []byte("v"), 1, 1000))
		require.NoError(t, store.Delete("k"))
		_, _, _, err := store.Get("k")
		assert.ErrorIs(t, err, sql.ErrNoRows)

		assert.NoError(t, store.Delete("never-set"))
	})

	t.Run("status", func(t *testing.T) {
		store := newStore(t)
		status, err := store.GetStatus()
		require.NoError(t, err)
		assert.Equal(t, "sqlite", status.Backend)
		assert.True(t, status.Connected)
		assert.Zero(t, status.TotalEntries)
		assert.True(t, status.LastEntryTime.IsZero())

		for i, ts := range []int64{1000, 2000, 1500} {
			require.NoError(t, store.Set(fmt.Sprintf("key%d", i), []byte("value"), 1, ts))
		}
		status, err = store.GetStatus()
		require.NoError(t, err)
		assert.Equal(t, 3, status.TotalEntries)
		assert.Equal(t, time.Unix(2000, 0), status.LastEntryTime)
		assert.Equal(t, time.Unix(1000, 0), status.OldestEntryTime)
		assert.Greater(t, status.TableSizeBytes, int64(0))
	})
}

// TestSQLiteFileStorePersists checks entries survive reopening the database file.
func TestSQLiteFileStorePersists(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "memo.db")

	store, err := NewCacheStore(memoTable, schema.SQLiteBackend, dbPath)
	require.NoError(t, err)
	require.NoError(t, store.Set("k", []byte("durable"), 3, 42))
	require.NoError(t, store.Close())

	store, err = NewCacheStore(memoTable, schema.SQLiteBackend, dbPath)
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	value, version, ts, err := store.Get("k")
	require.NoError(t, err)
	assert.Equal(t, "durable", string(value))
	assert.Equal(t, 3, version)
	assert.Equal(t, int64(42), ts)
}

// TestNoneBackendStore tests the no-op store.
func TestNoneBackendStore(t *testing.T) {
	store, err := NewCacheStore("test_none", schema.NoneBackend, "")
	require.NoError(t, err)

	assert.NoError(t, store.Set("k", []byte("v"), 1, 1000))
	_, _, _, err = store.Get("k")
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, store.Delete("k"))

	status, err := store.GetStatus()
	require.NoError(t, err)
	assert.Equal(t, "none", status.Backend)
	assert.False(t, status.Connected)
	assert.NoError(t, store.Close())
}

// TestNewCacheStoreErrors tests invalid store construction.
func TestNewCacheStoreErrors(t *testing.T) {
	_, err := NewCacheStore("bad-name", schema.SQLiteBackend, ":memory:")
	assert.Error(t, err, "Expected error for invalid table name")

	_, err = NewCacheStore("test_table", "unsupported", "")
	assert.Error(t, err, "Expected error for unsupported backend")

	_, err = NewCacheStore("test_table", schema.MySQLBackend, "invalid://connection")
	assert.Error(t, err, "Expected error for unreachable MySQL")
}

// TestMemoryCacheStore tests the in-process store.
func TestMemoryCacheStore(t *testing.T) {
	store, err := NewCacheStore(memoTable, schema.MemoryBackend, "")
	require.NoError(t, err)
	require.IsType(t, &MemoryCacheStore{}, store)

	_, _, _, err = store.Get("k")
	assert.ErrorIs(t, err, sql.ErrNoRows)

	value := []byte("abc")
	require.NoError(t, store.Set("k", value, 1, 100))
	value[0] = 'X'
	got, version, ts, err := store.Get("k")
	require.NoError(t, err)
	assert.Equal(t, "abc", string(got), "Set stores a copy")
	assert.Equal(t, 1, version)
	assert.Equal(t, int64(100), ts)

	require.NoError(t, store.Set("j", []byte("defg"), 1, 50))
	status, err := store.GetStatus()
	require.NoError(t, err)
	assert.Equal(t, "memory", status.Backend)
	assert.True(t, status.Connected)
	assert.Equal(t, 2, status.TotalEntries)
	assert.Equal(t, int64(7), status.TableSizeBytes)
	assert.Equal(t, time.Unix(100, 0), status.LastEntryTime)
	assert.Equal(t, time.Unix(50, 0), status.OldestEntryTime)

	require.NoError(t, store.Delete("k"))
	_, _, _, err = store.Get("k")
	assert.ErrorIs(t, err, sql.ErrNoRows)

	require.NoError(t, store.Close())
	status, err = store.GetStatus()
	require.NoError(t, err)
	assert.Zero(t, status.TotalEntries)
}

// TestMemoryCacheStoreConcurrency tests concurrent access to the in-process store.
func TestMemoryCacheStoreConcurrency(t *testing.T) {
	store := NewMemoryCacheStore()

	var wg sync.WaitGroup
	for i := range 16 {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			key := fmt.Sprintf("key%d", id%4)
			assert.NoError(t, store.Set(key, []byte("value"), 1, int64(id)))
			_, _, _, _ = store.Get(key)
		}(i)
	}
	wg.Wait()

	status, err := store.GetStatus()
	require.NoError(t, err)
	assert.Equal(t, 4, status.TotalEntries)
}
