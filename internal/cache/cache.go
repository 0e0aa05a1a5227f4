// Package cache provides bucketed, TTL-based caching of GitHub API
// results, persisted as one JSON file per bucket.
package cache

import (
	"encoding/json"
	"fmt"
	"hash/fnv"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/hal/prwatch/internal/log"
)

// entry is a single cached value plus the metadata needed to decide
// whether it is still valid. The original, non-normalized query is
// stored so date clauses can be re-checked on read.
type entry struct {
	Query     string          `json:"query"`
	Value     json.RawMessage `json:"value"`
	WrittenAt time.Time       `json:"written_at"`
	TTL       time.Duration   `json:"ttl"`
}

func (e *entry) valid(now time.Time) bool {
	if now.Sub(e.WrittenAt) >= e.TTL {
		return false
	}
	return dateClausesFresh(e.Query, e.WrittenAt, now)
}

// Store is a keyed, bucketed cache. Each bucket is an independent unit
// of persistence holding a mapping from hashed key to entry; whole
// buckets are rewritten on every write. Keys are normalized before
// hashing so queries differing only in embedded date literals share an
// entry.
type Store struct {
	dir string
	mu  sync.Mutex

	// now is injectable for TTL tests; nil means time.Now.
	now func() time.Time
}

// BucketStats counts the entries in one bucket.
type BucketStats struct {
	Total int
	Valid int
}

// DefaultDir returns the cache directory under the user cache root.
func DefaultDir() (string, error) {
	base, err := os.UserCacheDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(base, "prwatch"), nil
}

// NewStore creates a Store rooted at dir, creating it if needed.
func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}
	return &Store{dir: dir}, nil
}

func (s *Store) clock() time.Time {
	if s.now != nil {
		return s.now()
	}
	return time.Now()
}

// hashKey maps a key to a bounded filename-safe identifier. FNV-1a is
// fast and non-cryptographic; collisions are accepted.
func hashKey(key string) string {
	h := fnv.New64a()
	_, _ = h.Write([]byte(NormalizeQuery(key)))
	return fmt.Sprintf("%016x", h.Sum64())
}

func (s *Store) bucketPath(bucket string) string {
	if bucket == "" {
		bucket = "default"
	}
	safe := strings.ReplaceAll(bucket, string(filepath.Separator), "_")
	return filepath.Join(s.dir, safe+".json")
}

// loadBucket reads a bucket and lazily evicts entries that are no
// longer valid. An unreadable bucket file is deleted rather than
// surfaced as an error.
func (s *Store) loadBucket(bucket string) map[string]entry {
	path := s.bucketPath(bucket)

	data, err := os.ReadFile(path)
	if err != nil {
		return map[string]entry{}
	}

	var entries map[string]entry
	if err := json.Unmarshal(data, &entries); err != nil {
		log.Warn("removing corrupt cache bucket", "bucket", bucket, "error", err)
		_ = os.Remove(path)
		return map[string]entry{}
	}

	now := s.clock()
	evicted := 0
	for k, e := range entries {
		if !e.valid(now) {
			delete(entries, k)
			evicted++
		}
	}
	if evicted > 0 {
		log.Debug("evicted expired cache entries", "bucket", bucket, "count", evicted)
		s.writeBucket(bucket, entries)
	}

	return entries
}

func (s *Store) writeBucket(bucket string, entries map[string]entry) {
	path := s.bucketPath(bucket)

	if len(entries) == 0 {
		_ = os.Remove(path)
		return
	}

	data, err := json.Marshal(entries)
	if err != nil {
		log.Warn("failed to encode cache bucket", "bucket", bucket, "error", err)
		return
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		log.Warn("failed to write cache bucket", "bucket", bucket, "error", err)
	}
}

// Get retrieves the cached value for key into out. It returns false on
// a miss, an expired entry, or a value that no longer unmarshals (the
// entry is dropped in that case).
func (s *Store) Get(key, bucket string, out any) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries := s.loadBucket(bucket)
	h := hashKey(key)

	e, ok := entries[h]
	if !ok {
		return false
	}

	if err := json.Unmarshal(e.Value, out); err != nil {
		log.Warn("dropping unreadable cache entry", "bucket", bucket, "error", err)
		delete(entries, h)
		s.writeBucket(bucket, entries)
		return false
	}

	log.Debug("cache hit", "bucket", bucket, "key", h)
	return true
}

// Set stores value under key with the given TTL, rewriting the whole
// bucket file.
func (s *Store) Set(key, bucket string, ttl time.Duration, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode cache value: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	entries := s.loadBucket(bucket)
	entries[hashKey(key)] = entry{
		Query:     key,
		Value:     data,
		WrittenAt: s.clock(),
		TTL:       ttl,
	}
	s.writeBucket(bucket, entries)
	return nil
}

// InvalidateBucket removes all entries for a bucket immediately. Used
// before a forced refresh to guarantee fresh section data.
func (s *Store) InvalidateBucket(bucket string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := os.Remove(s.bucketPath(bucket))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// Clear removes every bucket in the store.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	files, err := os.ReadDir(s.dir)
	if err != nil {
		return err
	}
	for _, f := range files {
		if filepath.Ext(f.Name()) != ".json" {
			continue
		}
		if err := os.Remove(filepath.Join(s.dir, f.Name())); err != nil {
			return err
		}
	}
	return nil
}

// Stats returns per-bucket entry counts. Valid counts re-check each
// entry's TTL and date clauses against now.
func (s *Store) Stats() (map[string]BucketStats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	files, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, err
	}

	now := s.clock()
	stats := make(map[string]BucketStats)

	for _, f := range files {
		if filepath.Ext(f.Name()) != ".json" {
			continue
		}
		bucket := strings.TrimSuffix(f.Name(), ".json")

		data, err := os.ReadFile(filepath.Join(s.dir, f.Name()))
		if err != nil {
			continue
		}
		var entries map[string]entry
		if err := json.Unmarshal(data, &entries); err != nil {
			continue
		}

		bs := BucketStats{Total: len(entries)}
		for _, e := range entries {
			if e.valid(now) {
				bs.Valid++
			}
		}
		stats[bucket] = bs
	}

	return stats, nil
}
