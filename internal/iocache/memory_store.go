package iocache

import (
	"database/sql"
	"sync"
	"time"

	"github.com/repomind/repomind/internal/contract"
	"github.com/repomind/repomind/schema"
)

type memoryEntry struct {
	value     []byte
	version   int
	timestamp int64
}

// MemoryCacheStore keeps memo entries in process memory.
// It is safe for concurrent use.
type MemoryCacheStore struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
}

var _ contract.CacheStore = &MemoryCacheStore{} // Compile-time check

// NewMemoryCacheStore returns an empty in-memory store.
func NewMemoryCacheStore() *MemoryCacheStore {
	return &MemoryCacheStore{entries: make(map[string]memoryEntry)}
}

// Get returns sql.ErrNoRows for a missing key, like the SQL-backed stores.
func (m *MemoryCacheStore) Get(key string) ([]byte, int, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	entry, ok := m.entries[key]
	if !ok {
		return nil, 0, 0, sql.ErrNoRows
	}
	return entry.value, entry.version, entry.timestamp, nil
}

// Set stores a copy of value under key.
func (m *MemoryCacheStore) Set(key string, value []byte, version int, timestamp int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = memoryEntry{
		value:     append([]byte(nil), value...),
		version:   version,
		timestamp: timestamp,
	}
	return nil
}

// Delete removes key.
func (m *MemoryCacheStore) Delete(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, key)
	return nil
}

// GetStatus summarizes the entries currently held.
func (m *MemoryCacheStore) GetStatus() (schema.CacheStatus, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	status := schema.CacheStatus{
		Backend:      string(schema.MemoryBackend),
		Connected:    true,
		TotalEntries: len(m.entries),
	}
	var oldest, newest int64
	for _, entry := range m.entries {
		status.TableSizeBytes += int64(len(entry.value))
		if oldest == 0 || entry.timestamp < oldest {
			oldest = entry.timestamp
		}
		newest = max(newest, entry.timestamp)
	}
	if len(m.entries) > 0 {
		status.OldestEntryTime = time.Unix(oldest, 0)
		status.LastEntryTime = time.Unix(newest, 0)
	}
	return status, nil
}

// Close drops all entries.
func (m *MemoryCacheStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	clear(m.entries)
	return nil
}
