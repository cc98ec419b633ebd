package core

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/klauspost/compress/zstd"
	"github.com/repomind/repomind/internal/contract"
	"github.com/repomind/repomind/internal/logger"
	"github.com/repomind/repomind/schema"
)

// currentCacheVersion defines the version of the memo value layout.
// Bump it whenever AnalysisResult changes shape.
const currentCacheVersion = 1

// zstdCodec compresses memo values. Both halves are safe for concurrent EncodeAll/DecodeAll.
type zstdCodec struct {
	enc *zstd.Encoder
	dec *zstd.Decoder
}

var memoCodec = sync.OnceValues(func() (*zstdCodec, error) {
	enc, err := zstd.NewWriter(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create zstd encoder: %w", err)
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create zstd decoder: %w", err)
	}
	return &zstdCodec{enc: enc, dec: dec}, nil
})

// memoKey returns the cache key for a normalized repository URL.
func memoKey(normalizedURL string) string {
	return fmt.Sprintf("%x", sha256.Sum256([]byte(normalizedURL)))
}

// encodeResult serializes a result for the memo store.
func encodeResult(result *schema.AnalysisResult) ([]byte, error) {
	codec, err := memoCodec()
	if err != nil {
		return nil, err
	}
	data, err := json.Marshal(result)
	if err != nil {
		return nil, err
	}
	return codec.enc.EncodeAll(data, nil), nil
}

// decodeResult reverses encodeResult.
func decodeResult(data []byte) (*schema.AnalysisResult, error) {
	codec, err := memoCodec()
	if err != nil {
		return nil, err
	}
	raw, err := codec.dec.DecodeAll(data, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to decompress memo entry: %w", err)
	}
	var result schema.AnalysisResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, fmt.Errorf("failed to decode memo entry: %w", err)
	}
	return &result, nil
}

// checkCacheHit returns the memoized result for key when it is current and unexpired.
// Entries that are expired, from another layout version, or unreadable are deleted.
func checkCacheHit(store contract.CacheStore, key string, ttl time.Duration, now time.Time) *schema.AnalysisResult {
	data, version, ts, err := store.Get(key)
	if err != nil {
		return nil // Cache miss
	}

	if version != currentCacheVersion || now.Sub(time.Unix(ts, 0)) > ttl {
		evict(store, key)
		return nil
	}

	result, err := decodeResult(data)
	if err != nil {
		logger.Debugf("discarding memo entry %s: %v", key, err)
		evict(store, key)
		return nil
	}
	return result
}

// storeResult memoizes result under key. Failures are logged and otherwise ignored.
func storeResult(store contract.CacheStore, key string, result *schema.AnalysisResult, now time.Time) {
	data, err := encodeResult(result)
	if err != nil {
		contract.LogWarn("Failed to encode analysis for caching", err)
		return
	}
	if err := store.Set(key, data, currentCacheVersion, now.Unix()); err != nil {
		contract.LogWarn("Failed to cache analysis", err)
	}
}

func evict(store contract.CacheStore, key string) {
	if err := store.Delete(key); err != nil {
		contract.LogWarn("Failed to evict memo entry", err)
	}
}
