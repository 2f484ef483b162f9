package redis

import (
	"context"
	"strings"
	"testing"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/target/sso-bridge/internal/testutil"
)

// setupTestRedis creates a Redis client for testing.
// Tests will be skipped if Redis is not available.
func setupTestRedis(t *testing.T) *redis.Client {
	t.Helper()
	return testutil.SetupTestRedis(t)
}

func TestKVStore_PutGetDelete(t *testing.T) {
	client := setupTestRedis(t)

	store := NewKVStore(client)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "euler", "tok"))

	v, ok, err := store.Get(ctx, "euler")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "tok", v)

	// Stored under the prefix.
	raw, err := client.Get(ctx, DefaultKeyPrefix+"euler").Result()
	require.NoError(t, err)
	assert.Equal(t, "tok", raw)

	require.NoError(t, store.Delete(ctx, "euler"))
	_, ok, err = store.Get(ctx, "euler")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestKVStore_GetMissing(t *testing.T) {
	client := setupTestRedis(t)

	store := NewKVStore(client)
	_, ok, err := store.Get(context.Background(), "non-existent")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestKVStore_PutEmptyKey(t *testing.T) {
	client := setupTestRedis(t)

	store := NewKVStore(client)
	require.Error(t, store.Put(context.Background(), "", "v"))
	require.NoError(t, store.Delete(context.Background(), ""))
}

func TestKVStore_BatchCommit(t *testing.T) {
	client := setupTestRedis(t)

	store := NewKVStoreWithPrefix(client, "test:")
	ctx := context.Background()
	require.NoError(t, store.Put(ctx, "old", "x"))

	b := store.NewBatch()
	b.Delete("old")
	b.Put("tok", "euler")
	b.Put("euler", "tok")
	assert.Equal(t, 3, b.Len())

	// Nothing applied before commit.
	_, ok, err := store.Get(ctx, "tok")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, b.Commit(ctx))

	_, ok, err = store.Get(ctx, "old")
	require.NoError(t, err)
	assert.False(t, ok)

	v, ok, err := store.Get(ctx, "tok")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "euler", v)
}

func TestKVStore_EmptyBatch(t *testing.T) {
	client := setupTestRedis(t)

	store := NewKVStore(client)
	require.NoError(t, store.NewBatch().Commit(context.Background()))
}

func TestHashTagPrefix(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"ssobridge:", "{ssobridge}:"},
		{"sso", "{sso}:"},
		{"", "{ssobridge}:"},
		{"{tenant-a}:sso:", "{tenant-a}:sso:"},
		{"{}:", "{ssobridge}:"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, HashTagPrefix(tt.in))
		})
	}
}

func TestHashTagPrefix_TripleSharesTag(t *testing.T) {
	store := NewKVStoreWithPrefix(nil, HashTagPrefix(DefaultKeyPrefix))
	token := "AbC123"
	for _, k := range []string{token, "euler", "dn_" + token} {
		assert.True(t, strings.HasPrefix(store.key(k), "{ssobridge}:"), store.key(k))
	}
}
