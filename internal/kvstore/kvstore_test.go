package kvstore

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisSetGetRemove(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	store := NewRedis(client, time.Hour)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "memory", []byte(`{"id":"session_1"}`)))
	got, err := store.Get(ctx, "memory")
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"session_1"}`, string(got))
	assert.Equal(t, time.Hour, mr.TTL("memory"))

	require.NoError(t, store.Remove(ctx, "memory"))
	assert.False(t, mr.Exists("memory"))
	_, err = store.Get(ctx, "memory")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRedisSetFailsWhenServerDown(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	defer client.Close()
	mr.Close()

	err := NewRedis(client, 0).Set(context.Background(), "k", []byte("v"))
	assert.Error(t, err)
}

func TestPrefixedScopesKeys(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	ctx := context.Background()
	a := WithPrefix(NewRedis(client, 0), "session:a:")
	b := WithPrefix(NewRedis(client, 0), "session:b:")

	require.NoError(t, a.Set(ctx, "geecurly_customer_memory", []byte("A")))
	require.NoError(t, b.Set(ctx, "geecurly_customer_memory", []byte("B")))
	assert.True(t, mr.Exists("session:a:geecurly_customer_memory"))

	require.NoError(t, a.Remove(ctx, "geecurly_customer_memory"))
	assert.False(t, mr.Exists("session:a:geecurly_customer_memory"))

	got, err := b.Get(ctx, "geecurly_customer_memory")
	require.NoError(t, err)
	assert.Equal(t, "B", string(got))
}

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	assert.Error(t, m.Set(ctx, "", []byte("x")))

	value := []byte("v1")
	require.NoError(t, m.Set(ctx, "k", value))
	value[0] = 'X'
	got, err := m.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "v1", string(got))

	require.NoError(t, m.Remove(ctx, "k"))
	_, err = m.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrNotFound)
}
