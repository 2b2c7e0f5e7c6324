package tokens

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Revocations remembers revoked token ids until the token would have
// expired anyway.
type Revocations interface {
	Revoke(ctx context.Context, id string, ttl time.Duration) error
	IsRevoked(ctx context.Context, id string) (bool, error)
}

// RedisRevocations shares the revocation list between instances.
type RedisRevocations struct {
	client *redis.Client
	prefix string
}

func NewRedisRevocations(client *redis.Client, prefix string) *RedisRevocations {
	return &RedisRevocations{client: client, prefix: prefix}
}

func (r *RedisRevocations) Revoke(ctx context.Context, id string, ttl time.Duration) error {
	return r.client.Set(ctx, r.prefix+id, "1", ttl).Err()
}

func (r *RedisRevocations) IsRevoked(ctx context.Context, id string) (bool, error) {
	n, err := r.client.Exists(ctx, r.prefix+id).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// MemoryRevocations is the single-instance fallback. Expired entries are
// dropped on lookup and by Sweep.
type MemoryRevocations struct {
	mu      sync.Mutex
	entries map[string]time.Time
	now     func() time.Time
}

func NewMemoryRevocations(now func() time.Time) *MemoryRevocations {
	if now == nil {
		now = time.Now
	}
	return &MemoryRevocations{entries: make(map[string]time.Time), now: now}
}

func (m *MemoryRevocations) Revoke(_ context.Context, id string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[id] = m.now().Add(ttl)
	return nil
}

func (m *MemoryRevocations) IsRevoked(_ context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	until, ok := m.entries[id]
	if !ok {
		return false, nil
	}
	if !m.now().Before(until) {
		delete(m.entries, id)
		return false, nil
	}
	return true, nil
}

// Sweep drops expired entries and returns how many were removed.
func (m *MemoryRevocations) Sweep() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	removed := 0
	for id, until := range m.entries {
		if !now.Before(until) {
			delete(m.entries, id)
			removed++
		}
	}
	return removed
}

// Len reports the number of remembered ids.
func (m *MemoryRevocations) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

// Run sweeps every interval until ctx is done.
func (m *MemoryRevocations) Run(ctx context.Context, every time.Duration) {
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			m.Sweep()
		}
	}
}
