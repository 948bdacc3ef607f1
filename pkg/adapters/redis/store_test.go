package redis_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/aretw0/automat/pkg/adapters/redis"
	"github.com/aretw0/automat/pkg/domain"
	"github.com/aretw0/automat/pkg/ports"
	backend "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newClient(t *testing.T) (*miniredis.Miniredis, *backend.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := backend.NewClient(&backend.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestRedisStore_Contract(t *testing.T) {
	_, client := newClient(t)
	ports.RunSnapshotStoreContract(t, redis.NewFromClient(client))
}

func TestRedisStore_TTL_Expiration(t *testing.T) {
	mr, client := newClient(t)
	store := redis.NewFromClient(client, redis.WithTTL(1*time.Second))
	ctx := context.Background()
	id := "light-ttl"

	require.NoError(t, store.Save(ctx, id, domain.NewSnapshot(id, "lightswitch", map[string]string{"power": "off"})))

	ids, err := store.List(ctx)
	require.NoError(t, err)
	assert.Contains(t, ids, id)

	// Key expiry is driven by miniredis time.
	mr.FastForward(2 * time.Second)
	_, err = store.Load(ctx, id)
	assert.ErrorIs(t, err, domain.ErrSnapshotNotFound)

	// Index pruning is driven by wall-clock time.
	time.Sleep(1200 * time.Millisecond)
	ids, err = store.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestRedisStore_Prefix(t *testing.T) {
	mr, client := newClient(t)
	store := redis.NewFromClient(client, redis.WithPrefix("custom:app:"))
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "my-light", domain.NewSnapshot("my-light", "lightswitch", map[string]string{"power": "on"})))

	assert.True(t, mr.Exists("custom:app:my-light"))
	assert.True(t, mr.Exists("custom:app:index"))
	assert.Same(t, client, store.Client())

	ids, err := store.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"my-light"}, ids)
}
