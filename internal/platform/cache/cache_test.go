package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

type stockView struct {
	ProductID int64 `json:"product_id"`
	Quantity  int64 `json:"quantity"`
}

func newTestCache(t *testing.T) (*Cache, *miniredis.Miniredis) {
	t.Helper()
	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewCache(client, time.Minute), srv
}

func TestFetchJSONPopulatesAndServesFromCache(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()

	calls := 0
	loader := func(ctx context.Context) (interface{}, error) {
		calls++
		return stockView{ProductID: 1, Quantity: 10}, nil
	}

	var got stockView
	require.NoError(t, c.FetchJSON(ctx, "stock:1:1", &got, loader))
	require.Equal(t, int64(10), got.Quantity)
	require.Equal(t, 1, calls)

	// Second read is served from Redis; the loader stays cold.
	got = stockView{}
	require.NoError(t, c.FetchJSON(ctx, "stock:1:1", &got, loader))
	require.Equal(t, int64(10), got.Quantity)
	require.Equal(t, 1, calls)
}

func TestInvalidateForcesReload(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()

	quantity := int64(10)
	loader := func(ctx context.Context) (interface{}, error) {
		return stockView{ProductID: 1, Quantity: quantity}, nil
	}

	var got stockView
	require.NoError(t, c.FetchJSON(ctx, "stock:1:1", &got, loader))
	require.Equal(t, int64(10), got.Quantity)

	quantity = 6
	require.NoError(t, c.Invalidate(ctx, "stock:1:1"))
	require.NoError(t, c.FetchJSON(ctx, "stock:1:1", &got, loader))
	require.Equal(t, int64(6), got.Quantity)
}

func TestFetchJSONPropagatesLoaderError(t *testing.T) {
	c, _ := newTestCache(t)

	wantErr := errors.New("db down")
	var got stockView
	err := c.FetchJSON(context.Background(), "stock:1:1", &got, func(ctx context.Context) (interface{}, error) {
		return nil, wantErr
	})
	require.ErrorIs(t, err, wantErr)
}

func TestNilCacheFallsBackToLoader(t *testing.T) {
	var c *Cache

	var got stockView
	err := c.FetchJSON(context.Background(), "stock:1:1", &got, func(ctx context.Context) (interface{}, error) {
		return stockView{ProductID: 1, Quantity: 4}, nil
	})
	require.NoError(t, err)
	require.Equal(t, int64(4), got.Quantity)

	require.NoError(t, c.Invalidate(context.Background(), "stock:1:1"))
}

func TestFetchJSONExpires(t *testing.T) {
	c, srv := newTestCache(t)
	ctx := context.Background()

	calls := 0
	loader := func(ctx context.Context) (interface{}, error) {
		calls++
		return stockView{ProductID: 1, Quantity: 10}, nil
	}

	var got stockView
	require.NoError(t, c.FetchJSON(ctx, "stock:1:1", &got, loader))
	srv.FastForward(2 * time.Minute)
	require.NoError(t, c.FetchJSON(ctx, "stock:1:1", &got, loader))
	require.Equal(t, 2, calls)
}
