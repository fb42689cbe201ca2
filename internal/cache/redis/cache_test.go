package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

type fakeClient struct {
	values map[string]string
	getErr error
	setErr error
}

func newFakeClient() *fakeClient {
	return &fakeClient{values: map[string]string{}}
}

func (c *fakeClient) Get(ctx context.Context, key string) *redis.StringCmd {
	if c.getErr != nil {
		return redis.NewStringResult("", c.getErr)
	}
	val, ok := c.values[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(val, nil)
}

func (c *fakeClient) Set(ctx context.Context, key string, value interface{}, _ time.Duration) *redis.StatusCmd {
	if c.setErr != nil {
		return redis.NewStatusResult("", c.setErr)
	}
	c.values[key] = value.(string)
	return redis.NewStatusResult("OK", nil)
}

func TestGetMiss(t *testing.T) {
	t.Parallel()

	cache := NewWithClient(newFakeClient(), "pricewatch:")
	_, found, err := cache.Get(context.Background(), "Blue Widget")

	require.NoError(t, err)
	require.False(t, found)
}

func TestSetThenGet(t *testing.T) {
	t.Parallel()

	client := newFakeClient()
	cache := NewWithClient(client, "pricewatch:")

	require.NoError(t, cache.Set(context.Background(), "Blue Widget", 19.99))

	price, found, err := cache.Get(context.Background(), "Blue Widget")
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, 19.99, price)

	// Keys carry the configured prefix.
	require.Contains(t, client.values, "pricewatch:Blue Widget")
}

func TestGetPropagatesClientError(t *testing.T) {
	t.Parallel()

	client := newFakeClient()
	client.getErr = errors.New("connection refused")
	cache := NewWithClient(client, "")

	_, _, err := cache.Get(context.Background(), "Blue Widget")
	require.ErrorIs(t, err, client.getErr)
}

func TestGetCorruptEntry(t *testing.T) {
	t.Parallel()

	client := newFakeClient()
	client.values["Blue Widget"] = "not-a-number"
	cache := NewWithClient(client, "")

	_, _, err := cache.Get(context.Background(), "Blue Widget")
	require.Error(t, err)
	require.Contains(t, err.Error(), "corrupt cache entry")
}

func TestSetPropagatesClientError(t *testing.T) {
	t.Parallel()

	client := newFakeClient()
	client.setErr = errors.New("readonly replica")
	cache := NewWithClient(client, "")

	require.ErrorIs(t, cache.Set(context.Background(), "Blue Widget", 1), client.setErr)
}
