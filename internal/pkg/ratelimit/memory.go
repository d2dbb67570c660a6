package ratelimit

import (
	"context"
	"hash/fnv"
	"sync"
	"time"
)

const shardCount = 32

// MemoryStore keeps windows in process. Keys are spread over mutex guarded
// shards so unrelated clients do not contend on one lock.
type MemoryStore struct {
	shards [shardCount]*shard
}

type shard struct {
	mu      sync.Mutex
	entries map[string][]time.Time
}

// NewMemoryStore creates an empty in-process store
func NewMemoryStore() *MemoryStore {
	s := &MemoryStore{}
	for i := range s.shards {
		s.shards[i] = &shard{entries: make(map[string][]time.Time)}
	}
	return s
}

func (s *MemoryStore) shard(key string) *shard {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return s.shards[h.Sum32()%shardCount]
}

// Allow implements Store
func (s *MemoryStore) Allow(_ context.Context, key string, limit int, window time.Duration, now time.Time) (*Result, error) {
	sh := s.shard(key)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	stamps := prune(sh.entries[key], now.Add(-window))

	if len(stamps) >= limit {
		sh.entries[key] = stamps
		resetAt := oldest(stamps).Add(window)
		return &Result{
			Allowed:    false,
			Limit:      limit,
			Remaining:  0,
			ResetAt:    resetAt,
			RetryAfter: resetAt.Sub(now),
		}, nil
	}

	stamps = append(stamps, now)
	sh.entries[key] = stamps
	return &Result{
		Allowed:   true,
		Limit:     limit,
		Remaining: limit - len(stamps),
		ResetAt:   oldest(stamps).Add(window),
	}, nil
}

// Reset implements Store
func (s *MemoryStore) Reset(_ context.Context, key string) error {
	sh := s.shard(key)
	sh.mu.Lock()
	delete(sh.entries, key)
	sh.mu.Unlock()
	return nil
}

// Sweep drops keys with no request inside the window ending at now
func (s *MemoryStore) Sweep(now time.Time, window time.Duration) int {
	windowStart := now.Add(-window)
	evicted := 0
	for _, sh := range s.shards {
		sh.mu.Lock()
		for key, stamps := range sh.entries {
			kept := prune(stamps, windowStart)
			if len(kept) == 0 {
				delete(sh.entries, key)
				evicted++
				continue
			}
			sh.entries[key] = kept
		}
		sh.mu.Unlock()
	}
	return evicted
}

// Len returns the number of tracked keys
func (s *MemoryStore) Len() int {
	n := 0
	for _, sh := range s.shards {
		sh.mu.Lock()
		n += len(sh.entries)
		sh.mu.Unlock()
	}
	return n
}

// prune keeps the timestamps strictly after windowStart, in place
func prune(stamps []time.Time, windowStart time.Time) []time.Time {
	kept := stamps[:0]
	for _, ts := range stamps {
		if ts.After(windowStart) {
			kept = append(kept, ts)
		}
	}
	return kept
}

func oldest(stamps []time.Time) time.Time {
	min := stamps[0]
	for _, ts := range stamps[1:] {
		if ts.Before(min) {
			min = ts
		}
	}
	return min
}
