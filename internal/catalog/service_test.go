package catalog

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gogazub/miniapp-checkout/internal/model"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeSource struct {
	items      atomic.Int32
	categories atomic.Int32
	delay      time.Duration
	err        error
}

var (
	liquids = &model.Category{ID: 1, Name: "Жидкости"}
	pods    = &model.Category{ID: 2, Name: "Поды"}
)

func (f *fakeSource) Items(context.Context) ([]model.Item, error) {
	f.items.Add(1)
	time.Sleep(f.delay)
	if f.err != nil {
		return nil, f.err
	}
	return []model.Item{
		{ID: 1, Name: "Mango", Price: decimal.NewFromInt(15), Category: liquids},
		{ID: 2, Name: "Xros", Price: decimal.RequireFromString("79.99"), Category: pods},
		{ID: 3, Name: "Без категории", Price: decimal.NewFromInt(1)},
	}, nil
}

func (f *fakeSource) Categories(context.Context) ([]model.Category, error) {
	f.categories.Add(1)
	if f.err != nil {
		return nil, f.err
	}
	return []model.Category{*liquids, *pods}, nil
}

func setupRedis(t *testing.T) (*RedisCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisCache(client, time.Minute), mr
}

func TestService_Items(t *testing.T) {
	ctx := context.Background()
	cache, _ := setupRedis(t)
	src := &fakeSource{}
	s := NewService(src, cache, zap.NewNop())

	t.Run("all", func(t *testing.T) {
		items, err := s.Items(ctx, "")
		require.NoError(t, err)
		assert.Len(t, items, 3)
	})

	t.Run("by category", func(t *testing.T) {
		items, err := s.Items(ctx, "Поды")
		require.NoError(t, err)
		require.Len(t, items, 1)
		assert.Equal(t, "Xros", items[0].Name)
		assert.True(t, items[0].Price.Equal(decimal.RequireFromString("79.99")))
	})

	t.Run("unknown category", func(t *testing.T) {
		_, err := s.Items(ctx, "Табак")
		assert.ErrorIs(t, err, model.ErrNotFound)
	})

	t.Run("item by id", func(t *testing.T) {
		it, err := s.Item(ctx, 2)
		require.NoError(t, err)
		assert.Equal(t, "Xros", it.Name)

		_, err = s.Item(ctx, 99)
		assert.ErrorIs(t, err, model.ErrNotFound)
	})

	// источник дернут по разу, дальше все из redis
	assert.Equal(t, int32(1), src.items.Load())
	assert.Equal(t, int32(1), src.categories.Load())
}

func TestService_CacheExpiryAndInvalidate(t *testing.T) {
	ctx := context.Background()
	cache, mr := setupRedis(t)
	src := &fakeSource{}
	s := NewService(src, cache, zap.NewNop())

	_, err := s.Categories(ctx)
	require.NoError(t, err)
	assert.True(t, mr.Exists("catalog:categories"))

	mr.FastForward(3 * time.Minute)
	_, err = s.Categories(ctx)
	require.NoError(t, err)
	assert.Equal(t, int32(2), src.categories.Load())

	require.NoError(t, s.Invalidate(ctx))
	assert.False(t, mr.Exists("catalog:categories"))
}

func TestService_Singleflight(t *testing.T) {
	src := &fakeSource{delay: 50 * time.Millisecond}
	s := NewService(src, nil, zap.NewNop())

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.Items(context.Background(), "")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
	assert.Less(t, src.items.Load(), int32(10))
}

func TestService_SourceErrorAndBrokenCache(t *testing.T) {
	ctx := context.Background()

	t.Run("source error is returned", func(t *testing.T) {
		s := NewService(&fakeSource{err: model.ErrUnavailable}, nil, zap.NewNop())
		_, err := s.Items(ctx, "")
		assert.ErrorIs(t, err, model.ErrUnavailable)
	})

	t.Run("garbage in cache falls back to source", func(t *testing.T) {
		cache, mr := setupRedis(t)
		require.NoError(t, mr.Set("catalog:items", "not json"))
		src := &fakeSource{}
		s := NewService(src, cache, zap.NewNop())
		items, err := s.Items(ctx, "")
		require.NoError(t, err)
		assert.Len(t, items, 3)
		assert.Equal(t, int32(1), src.items.Load())
	})

	t.Run("redis down falls back to source", func(t *testing.T) {
		cache, mr := setupRedis(t)
		mr.Close()
		s := NewService(&fakeSource{}, cache, zap.NewNop())
		_, err := s.Categories(ctx)
		require.NoError(t, err)
	})
}

func TestRedisCache_Miss(t *testing.T) {
	cache, _ := setupRedis(t)
	var dst []model.Item
	err := cache.Get(context.Background(), "nothing", &dst)
	assert.True(t, errors.Is(err, ErrCacheMiss))
}
