package cache

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestInMemoryStore_SetGetDelete(t *testing.T) {
	s := NewInMemoryStore()
	defer s.Close()
	ctx := context.Background()

	_, ok, err := s.Get(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Set(ctx, "k", []byte("v1"), time.Minute))
	val, ok, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []byte("v1"), val)

	require.NoError(t, s.Delete(ctx, "k", "unknown"))
	_, ok, _ = s.Get(ctx, "k")
	assert.False(t, ok)
}

func TestInMemoryStore_Expiry(t *testing.T) {
	s := NewInMemoryStore()
	defer s.Close()
	ctx := context.Background()

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }

	require.NoError(t, s.Set(ctx, "short", []byte("x"), time.Second))
	require.NoError(t, s.Set(ctx, "forever", []byte("y"), 0))

	now = now.Add(2 * time.Second)
	_, ok, _ := s.Get(ctx, "short")
	assert.False(t, ok)
	_, ok, _ = s.Get(ctx, "forever")
	assert.True(t, ok)

	s.purgeExpired()
	assert.Equal(t, 1, s.Len())
}

func TestInMemoryStore_ReturnsCopy(t *testing.T) {
	s := NewInMemoryStore()
	defer s.Close()
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "k", []byte("abc"), 0))
	val, _, _ := s.Get(ctx, "k")
	val[0] = 'z'

	again, _, _ := s.Get(ctx, "k")
	assert.Equal(t, []byte("abc"), again)
}

func TestInMemoryStore_CloseTwice(t *testing.T) {
	s := NewInMemoryStore()
	assert.NoError(t, s.Close())
	assert.NoError(t, s.Close())
}

func TestJSONHelpers(t *testing.T) {
	s := NewInMemoryStore()
	defer s.Close()
	ctx := context.Background()

	type item struct {
		Code string `json:"code"`
	}
	require.NoError(t, SetJSON(ctx, s, "items", []item{{Code: "A"}, {Code: "B"}}, time.Minute))

	var out []item
	ok, err := GetJSON(ctx, s, "items", &out)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []item{{Code: "A"}, {Code: "B"}}, out)

	require.NoError(t, s.Set(ctx, "broken", []byte("{"), 0))
	ok, err = GetJSON(ctx, s, "broken", &out)
	assert.Error(t, err)
	assert.False(t, ok)
}

func unreachableClient() redis.UniversalClient {
	return redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	})
}

func TestStoreFactory_NoClientFallsBack(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	f := NewStoreFactory(nil, WithLogger(zap.New(core)))

	store, err := f.CreateStore(context.Background())
	require.NoError(t, err)
	mem, ok := store.(*InMemoryStore)
	require.True(t, ok)
	defer mem.Close()

	assert.Equal(t, 1, logs.FilterMessage("Redis disabled, using in-memory cache store").Len())
}

func TestStoreFactory_UnreachableRedis(t *testing.T) {
	client := unreachableClient()
	defer client.Close()

	t.Run("fallback allowed", func(t *testing.T) {
		core, logs := observer.New(zap.WarnLevel)
		f := NewStoreFactory(client, WithLogger(zap.New(core)))

		store, err := f.CreateStore(context.Background())
		require.NoError(t, err)
		mem, ok := store.(*InMemoryStore)
		require.True(t, ok)
		defer mem.Close()
		assert.Equal(t, 1, logs.Len())
	})

	t.Run("fallback disabled", func(t *testing.T) {
		f := NewStoreFactory(client, WithInMemoryFallback(false))
		store, err := f.CreateStore(context.Background())
		assert.Error(t, err)
		assert.Nil(t, store)
	})
}

func TestRedisStore_ErrorsWrapKey(t *testing.T) {
	client := unreachableClient()
	defer client.Close()
	s := NewRedisStore(client, "")

	_, ok, err := s.Get(context.Background(), "flash-sales:active")
	assert.False(t, ok)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "flash-sales:active")

	assert.NoError(t, s.Delete(context.Background()))
}
