package push

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisStore shares subscriptions between instances as JSON values in one hash.
type RedisStore struct {
	client *redis.Client
	key    string
}

// NewRedisStore keeps every subscription under the hash at key.
func NewRedisStore(client *redis.Client, key string) *RedisStore {
	return &RedisStore{client: client, key: key}
}

func (s *RedisStore) Save(ctx context.Context, sub Subscription) error {
	raw, err := json.Marshal(sub)
	if err != nil {
		return fmt.Errorf("push encode: %w", err)
	}
	if err := s.client.HSet(ctx, s.key, sub.ID, raw).Err(); err != nil {
		return fmt.Errorf("push save: %w", err)
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, id string) (bool, error) {
	n, err := s.client.HDel(ctx, s.key, id).Result()
	if err != nil {
		return false, fmt.Errorf("push delete: %w", err)
	}
	return n > 0, nil
}

func (s *RedisStore) Get(ctx context.Context, id string) (*Subscription, error) {
	raw, err := s.client.HGet(ctx, s.key, id).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("push get: %w", err)
	}
	var sub Subscription
	if err := json.Unmarshal(raw, &sub); err != nil {
		return nil, fmt.Errorf("push decode %s: %w", id, err)
	}
	return &sub, nil
}

func (s *RedisStore) List(ctx context.Context) ([]Subscription, error) {
	all, err := s.client.HGetAll(ctx, s.key).Result()
	if err != nil {
		return nil, fmt.Errorf("push list: %w", err)
	}
	out := make([]Subscription, 0, len(all))
	for id, raw := range all {
		var sub Subscription
		if err := json.Unmarshal([]byte(raw), &sub); err != nil {
			return nil, fmt.Errorf("push decode %s: %w", id, err)
		}
		out = append(out, sub)
	}
	sortSubscriptions(out)
	return out, nil
}
