package kv

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestRedis creates a miniredis server and returns a RedisStorage instance
func setupTestRedis(t *testing.T) (*RedisStorage, *miniredis.Miniredis, func()) {
	mr := miniredis.RunT(t)

	client := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})

	storage := NewRedisStorage(client)

	cleanup := func() {
		client.Close()
		mr.Close()
	}

	return storage, mr, cleanup
}

func TestRedisGet_Success(t *testing.T) {
	storage, mr, cleanup := setupTestRedis(t)
	defer cleanup()

	require.NoError(t, mr.Set("storefront:degimen-cart", `[{"id":"7","quantity":1}]`))

	value, ok, err := storage.Get(context.Background(), "degimen-cart")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `[{"id":"7","quantity":1}]`, value)
}

func TestRedisGet_Missing(t *testing.T) {
	storage, _, cleanup := setupTestRedis(t)
	defer cleanup()

	value, ok, err := storage.Get(context.Background(), "nonexistent")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, value)
}

func TestRedisSet_NoExpiry(t *testing.T) {
	storage, mr, cleanup := setupTestRedis(t)
	defer cleanup()

	require.NoError(t, storage.Set(context.Background(), "ecommerce_users", "[]"))

	stored, err := mr.Get("storefront:ecommerce_users")
	require.NoError(t, err)
	assert.Equal(t, "[]", stored)
	assert.Zero(t, mr.TTL("storefront:ecommerce_users"))
}

func TestRedisRemove(t *testing.T) {
	storage, mr, cleanup := setupTestRedis(t)
	defer cleanup()

	require.NoError(t, mr.Set("storefront:ecommerce_user", "{}"))
	require.NoError(t, storage.Remove(context.Background(), "ecommerce_user"))
	assert.False(t, mr.Exists("storefront:ecommerce_user"))

	// removing a missing key is not an error
	assert.NoError(t, storage.Remove(context.Background(), "ecommerce_user"))
}

func TestRedisGet_ServerDown(t *testing.T) {
	storage, mr, cleanup := setupTestRedis(t)
	defer cleanup()

	mr.Close()

	_, _, err := storage.Get(context.Background(), "degimen-cart")
	require.ErrorContains(t, err, "redis get failed")
}

func TestRedisKey_Format(t *testing.T) {
	storage := NewRedisStorage(nil)
	assert.Equal(t, "storefront:degimen-cart", storage.redisKey("degimen-cart"))
}
