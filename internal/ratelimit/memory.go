package ratelimit

import (
	"context"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// DefaultMemoryKeys bounds how many buckets a MemoryStore tracks at once.
const DefaultMemoryKeys = 10000

type window struct {
	start time.Time
	count int
}

// MemoryStore keeps fixed-window counters in a size-bounded LRU. Idle
// buckets expire after ttl, which should be at least the longest window.
type MemoryStore struct {
	mu      sync.Mutex
	buckets *expirable.LRU[string, *window]
	now     func() time.Time
}

// MemoryOption configures a MemoryStore.
type MemoryOption func(*MemoryStore)

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) MemoryOption {
	return func(s *MemoryStore) { s.now = now }
}

// NewMemoryStore creates a MemoryStore holding up to size buckets.
func NewMemoryStore(size int, ttl time.Duration, opts ...MemoryOption) *MemoryStore {
	if size <= 0 {
		size = DefaultMemoryKeys
	}
	s := &MemoryStore{
		buckets: expirable.NewLRU[string, *window](size, nil, ttl),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Take implements Store.
func (s *MemoryStore) Take(_ context.Context, key string, l Limit) (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	w, ok := s.buckets.Get(key)
	if !ok || !now.Before(w.start.Add(l.Window)) {
		w = &window{start: now}
		s.buckets.Add(key, w)
	}
	w.count++

	return newResult(w.count, l, w.start.Add(l.Window).Sub(now)), nil
}

// Len reports how many buckets are currently tracked.
func (s *MemoryStore) Len() int {
	return s.buckets.Len()
}
