package redis_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/aretw0/arbor/pkg/adapters/redis"
	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/ports"
	backend "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newClient(t *testing.T) (*miniredis.Miniredis, *backend.Client) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := backend.NewClient(&backend.Options{
		Addr: mr.Addr(),
	})
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
	pageID := "page-ttl"
	snap := &domain.Snapshot{
		PageID:  pageID,
		Version: 1,
		Tree:    &domain.Node{Kind: "page"},
	}

	require.NoError(t, store.Save(ctx, pageID, snap))

	pages, err := store.List(ctx)
	assert.NoError(t, err)
	assert.Contains(t, pages, pageID)

	mr.FastForward(2 * time.Second)

	_, err = store.Load(ctx, pageID)
	assert.ErrorIs(t, err, domain.ErrPageNotFound)

	// The index is pruned against the wall clock, not miniredis time.
	time.Sleep(1200 * time.Millisecond)

	pages, err = store.List(ctx)
	assert.NoError(t, err)
	assert.Empty(t, pages)
}

func TestRedisStore_Prefix(t *testing.T) {
	mr, client := newClient(t)

	store := redis.NewFromClient(client, redis.WithPrefix("custom:app:"))
	ctx := context.Background()
	pageID := "my-page"

	err := store.Save(ctx, pageID, &domain.Snapshot{Tree: &domain.Node{Kind: "page"}})
	assert.NoError(t, err)

	assert.True(t, mr.Exists("custom:app:my-page"), "Expected key with custom prefix to exist")
	assert.True(t, mr.Exists("custom:app:index"), "Expected index with custom prefix to exist")

	list, err := store.List(ctx)
	assert.NoError(t, err)
	assert.Contains(t, list, pageID)
}
