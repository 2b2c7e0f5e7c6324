package ratelimit

import (
	"context"
	"sync"
	"time"
)

type memoryEntry struct {
	count  int64
	start  time.Time
	window time.Duration
}

// MemoryStore keeps counters in process memory. Limits are per instance.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]*memoryEntry
	now     func() time.Time
}

// NewMemoryStore returns an empty store. A nil clock means time.Now.
func NewMemoryStore(now func() time.Time) *MemoryStore {
	if now == nil {
		now = time.Now
	}
	return &MemoryStore{entries: make(map[string]*memoryEntry), now: now}
}

func (s *MemoryStore) Increment(ctx context.Context, key string, window time.Duration) (Counter, error) {
	if err := ctx.Err(); err != nil {
		return Counter{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	e, ok := s.entries[key]
	if !ok || !now.Before(e.start.Add(e.window)) {
		e = &memoryEntry{start: now, window: window}
		s.entries[key] = e
	}
	e.count++
	return Counter{Count: e.count, WindowStart: e.start}, nil
}

// Sweep drops entries whose window has ended and returns how many were removed.
func (s *MemoryStore) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	removed := 0
	for k, e := range s.entries {
		if !now.Before(e.start.Add(e.window)) {
			delete(s.entries, k)
			removed++
		}
	}
	return removed
}

// Len reports the number of tracked keys.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Run sweeps every interval until ctx is done.
func (s *MemoryStore) Run(ctx context.Context, every time.Duration) {
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			s.Sweep()
		}
	}
}
