package push

import (
	"context"
	"testing"
	"time"

	mr "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sub(endpoint string, at time.Time) Subscription {
	return Subscription{
		ID:        SubscriptionID(endpoint),
		Endpoint:  endpoint,
		Keys:      Keys{P256dh: "BNc...", Auth: "tBH..."},
		CreatedAt: at,
	}
}

// exerciseStore runs the same contract against every backend.
func exerciseStore(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()
	t0 := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	a := sub("https://fcm.googleapis.com/fcm/send/aaa", t0.Add(time.Minute))
	b := sub("https://updates.push.services.mozilla.com/wpush/v2/bbb", t0)

	require.NoError(t, s.Save(ctx, a))
	require.NoError(t, s.Save(ctx, b))

	got, err := s.Get(ctx, a.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, a.Endpoint, got.Endpoint)
	assert.Equal(t, "tBH...", got.Keys.Auth)

	missing, err := s.Get(ctx, "nope")
	require.NoError(t, err)
	assert.Nil(t, missing)

	all, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, b.ID, all[0].ID, "oldest first")

	// saving the same endpoint again replaces it
	a.UserAgent = "Mozilla/5.0"
	require.NoError(t, s.Save(ctx, a))
	all, err = s.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	removed, err := s.Delete(ctx, a.ID)
	require.NoError(t, err)
	assert.True(t, removed)
	removed, err = s.Delete(ctx, a.ID)
	require.NoError(t, err)
	assert.False(t, removed)
}

func TestMemoryStore(t *testing.T) {
	exerciseStore(t, NewMemoryStore())
}

func TestRedisStore(t *testing.T) {
	m, err := mr.Run()
	require.NoError(t, err)
	defer m.Close()
	client := redis.NewClient(&redis.Options{Addr: m.Addr()})
	defer client.Close()

	exerciseStore(t, NewRedisStore(client, "mhc:push"))
	assert.True(t, m.Exists("mhc:push"))
}

func TestRedisStore_Unavailable(t *testing.T) {
	m, err := mr.Run()
	require.NoError(t, err)
	client := redis.NewClient(&redis.Options{Addr: m.Addr()})
	defer client.Close()
	m.Close()

	s := NewRedisStore(client, "mhc:push")
	assert.Error(t, s.Save(context.Background(), sub("https://push.example.com/x", time.Now())))
	_, err = s.List(context.Background())
	assert.Error(t, err)
}

func TestSubscriptionID_Stable(t *testing.T) {
	assert.Equal(t, SubscriptionID("https://push.example.com/a"), SubscriptionID("https://push.example.com/a"))
	assert.NotEqual(t, SubscriptionID("https://push.example.com/a"), SubscriptionID("https://push.example.com/b"))
}
