package core

import (
	"database/sql"
	"testing"
	"time"

	"github.com/repomind/repomind/internal/contract"
	"github.com/repomind/repomind/internal/iocache"
	"github.com/repomind/repomind/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestMemoKey(t *testing.T) {
	a := memoKey(contract.NormalizeRepoURL("https://GitHub.com/acme/widgets.git/"))
	b := memoKey(contract.NormalizeRepoURL(" https://github.com/acme/widgets "))
	c := memoKey(contract.NormalizeRepoURL("https://github.com/acme/gadgets"))

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Len(t, a, 64)
}

func TestMemoCodec(t *testing.T) {
	first, err := memoCodec()
	require.NoError(t, err)
	require.NotNil(t, first.enc)
	require.NotNil(t, first.dec)

	second, err := memoCodec()
	require.NoError(t, err)
	assert.Same(t, first, second)
}

func TestEncodeDecodeResult(t *testing.T) {
	result := &schema.AnalysisResult{
		RepoName:       "widgets",
		Languages:      map[string]int{"Go": 3},
		PreviewImage:   []byte{0x89, 'P', 'N', 'G'},
		CommitPatterns: schema.CommitHistogram{"2024-01": 2},
	}
	data, err := encodeResult(result)
	require.NoError(t, err)

	decoded, err := decodeResult(data)
	require.NoError(t, err)
	assert.Equal(t, result.RepoName, decoded.RepoName)
	assert.Equal(t, result.PreviewImage, decoded.PreviewImage)
	assert.Equal(t, result.CommitPatterns, decoded.CommitPatterns)

	_, err = decodeResult([]byte("not zstd"))
	assert.Error(t, err)
}

func TestCheckCacheHit(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	result := &schema.AnalysisResult{RepoName: "widgets"}
	data, err := encodeResult(result)
	require.NoError(t, err)

	tests := []struct {
		name    string
		version int
		age     time.Duration
		data    []byte
		hit     bool
	}{
		{"fresh entry", currentCacheVersion, 10 * time.Minute, data, true},
		{"expired entry", currentCacheVersion, 61 * time.Minute, data, false},
		{"old layout", currentCacheVersion - 1, time.Minute, data, false},
		{"corrupt entry", currentCacheVersion, time.Minute, []byte("garbage"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := iocache.NewMemoryCacheStore()
			require.NoError(t, store.Set("k", tt.data, tt.version, now.Add(-tt.age).Unix()))

			got := checkCacheHit(store, "k", time.Hour, now)
			if tt.hit {
				require.NotNil(t, got)
				assert.Equal(t, "widgets", got.RepoName)
				return
			}
			assert.Nil(t, got)
			_, _, _, err := store.Get("k")
			assert.ErrorIs(t, err, sql.ErrNoRows, "stale entries are evicted on lookup")
		})
	}

	t.Run("miss", func(t *testing.T) {
		assert.Nil(t, checkCacheHit(iocache.NewMemoryCacheStore(), "absent", time.Hour, now))
	})
}

func TestStoreResult(t *testing.T) {
	now := time.Unix(1700000000, 0)
	store := &iocache.MockCacheStore{}
	store.On("Set", "k", mock.AnythingOfType("[]uint8"), currentCacheVersion, now.Unix()).Return(nil)

	storeResult(store, "k", &schema.AnalysisResult{RepoName: "widgets"}, now)
	store.AssertExpectations(t)
}
