package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore shares counters between instances. INCR is atomic server-side;
// the first hit of a window sets the expiry, and the remaining TTL recovers
// the window start for later hits.
type RedisStore struct {
	client *redis.Client
	prefix string
	now    func() time.Time
}

// NewRedisStore wraps client. Keys are stored as prefix+key.
func NewRedisStore(client *redis.Client, prefix string) *RedisStore {
	return &RedisStore{client: client, prefix: prefix, now: time.Now}
}

func (s *RedisStore) Increment(ctx context.Context, key string, window time.Duration) (Counter, error) {
	k := s.prefix + key
	n, err := s.client.Incr(ctx, k).Result()
	if err != nil {
		return Counter{}, fmt.Errorf("ratelimit incr: %w", err)
	}
	if n == 1 {
		if err := s.client.PExpire(ctx, k, window).Err(); err != nil {
			return Counter{}, fmt.Errorf("ratelimit expire: %w", err)
		}
		return Counter{Count: n, WindowStart: s.now()}, nil
	}
	ttl, err := s.client.PTTL(ctx, k).Result()
	if err != nil {
		return Counter{}, fmt.Errorf("ratelimit ttl: %w", err)
	}
	if ttl < 0 {
		// key lost its expiry (crash between INCR and PEXPIRE); restart the window
		if err := s.client.PExpire(ctx, k, window).Err(); err != nil {
			return Counter{}, fmt.Errorf("ratelimit expire: %w", err)
		}
		ttl = window
	}
	return Counter{Count: n, WindowStart: s.now().Add(ttl - window)}, nil
}
