// Package cache provides a small in-process LRU used by the Gate
// (query-expansion variants) and the Sieve (per-agent synthesized
// profile strings) to avoid repeat LLM calls for the same input.
// Grounded on the teacher's internal/infrastructure/cache.MemoryCache
// shape (Get/Set/Delete with per-item TTL, hit/miss stats), backed by
// github.com/dgraph-io/ristretto/v2 instead of the teacher's hand-rolled
// container/list LRU: ristretto's admission policy (TinyLFU) and
// lock-sharded design are a closer match to the high-churn, read-heavy
// access pattern a cache hit in the read path actually sees.
package cache

import (
	"time"

	"github.com/dgraph-io/ristretto/v2"
	"go.uber.org/zap"
)

// Strings is a string-keyed, string-valued cache with per-entry TTL.
type Strings struct {
	c      *ristretto.Cache[string, string]
	logger *zap.Logger
}

// New builds a Strings cache sized for maxItems entries.
func New(maxItems int64, logger *zap.Logger) (*Strings, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	c, err := ristretto.NewCache(&ristretto.Config[string, string]{
		NumCounters: maxItems * 10,
		MaxCost:     maxItems,
		BufferItems: 64,
	})
	if err != nil {
		return nil, err
	}
	return &Strings{c: c, logger: logger}, nil
}

// Get returns the cached value for key, if present and unexpired.
func (s *Strings) Get(key string) (string, bool) {
	v, ok := s.c.Get(key)
	if !ok {
		return "", false
	}
	return v, true
}

// Set stores value under key with ttl. A zero ttl means no expiry.
func (s *Strings) Set(key, value string, ttl time.Duration) {
	if ttl > 0 {
		s.c.SetWithTTL(key, value, 1, ttl)
	} else {
		s.c.Set(key, value, 1)
	}
	s.c.Wait()
}

// Delete evicts key, if present.
func (s *Strings) Delete(key string) {
	s.c.Del(key)
}

// Close releases the cache's background goroutines.
func (s *Strings) Close() {
	s.c.Close()
}
