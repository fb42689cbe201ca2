package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSetAndGet(t *testing.T) {
	t.Parallel()

	cache, err := New(0)
	require.NoError(t, err)

	_, found, err := cache.Get(context.Background(), "Blue Widget")
	require.NoError(t, err)
	require.False(t, found)

	require.NoError(t, cache.Set(context.Background(), "Blue Widget", 19.99))

	price, found, err := cache.Get(context.Background(), "Blue Widget")
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, 19.99, price)
}

func TestOverwrite(t *testing.T) {
	t.Parallel()

	cache, err := New(8)
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, cache.Set(ctx, "Blue Widget", 19.99))
	require.NoError(t, cache.Set(ctx, "Blue Widget", 17.49))

	price, found, err := cache.Get(ctx, "Blue Widget")
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, 17.49, price)
	require.Equal(t, 1, cache.Len())
}

func TestEvictionBound(t *testing.T) {
	t.Parallel()

	cache, err := New(2)
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, cache.Set(ctx, "a", 1))
	require.NoError(t, cache.Set(ctx, "b", 2))
	require.NoError(t, cache.Set(ctx, "c", 3))

	require.Equal(t, 2, cache.Len())
	_, found, err := cache.Get(ctx, "a")
	require.NoError(t, err)
	require.False(t, found, "the oldest entry is evicted at capacity")
}
