package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type report struct {
	Product string  `json:"product"`
	Overall float64 `json:"overall"`
}

func TestMemoryCacheRoundTrip(t *testing.T) {
	ctx := context.Background()
	mc := NewMemoryCache(WithMemoryCleanup(0))
	defer mc.Close()

	require.NoError(t, mc.Set(ctx, "score:iphone", report{"Apple iPhone", 83.25}, time.Minute))
	var got report
	require.NoError(t, mc.Get(ctx, "score:iphone", &got))
	assert.Equal(t, report{"Apple iPhone", 83.25}, got)

	require.NoError(t, mc.Set(ctx, "raw", "text", 0))
	var s string
	require.NoError(t, mc.Get(ctx, "raw", &s))
	assert.Equal(t, "text", s)

	assert.ErrorIs(t, mc.Get(ctx, "missing", &got), ErrCacheMiss)
}

func TestMemoryCacheExpiry(t *testing.T) {
	ctx := context.Background()
	mc := NewMemoryCache(WithMemoryCleanup(0))
	defer mc.Close()
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	mc.now = func() time.Time { return now }

	require.NoError(t, mc.Set(ctx, "k", 1, time.Second))
	ok, _ := mc.Exists(ctx, "k")
	assert.True(t, ok)

	now = now.Add(2 * time.Second)
	var v int
	assert.ErrorIs(t, mc.Get(ctx, "k", &v), ErrCacheMiss)
	assert.Zero(t, mc.Len())
}

func TestMemoryCacheEvictsLeastRecentlyUsed(t *testing.T) {
	ctx := context.Background()
	mc := NewMemoryCache(WithMemoryMaxSize(2), WithMemoryCleanup(0))
	defer mc.Close()
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	mc.now = func() time.Time { now = now.Add(time.Millisecond); return now }

	require.NoError(t, mc.Set(ctx, "a", 1, time.Hour))
	require.NoError(t, mc.Set(ctx, "b", 2, time.Hour))
	var v int
	require.NoError(t, mc.Get(ctx, "a", &v))
	require.NoError(t, mc.Set(ctx, "c", 3, time.Hour))

	assert.NoError(t, mc.Get(ctx, "a", &v))
	assert.ErrorIs(t, mc.Get(ctx, "b", &v), ErrCacheMiss)
	assert.NoError(t, mc.Get(ctx, "c", &v))
}

func TestMemoryCacheDeleteByPattern(t *testing.T) {
	ctx := context.Background()
	mc := NewMemoryCache(WithMemoryCleanup(0))
	defer mc.Close()
	for _, k := range []string{"report:a", "report:b", "series:a"} {
		require.NoError(t, mc.Set(ctx, k, k, time.Hour))
	}
	require.NoError(t, mc.DeleteByPattern(ctx, BuildPattern("report:")))
	assert.Equal(t, 1, mc.Len())
}

func TestMemoryCacheLock(t *testing.T) {
	ctx := context.Background()
	mc := NewMemoryCache(WithMemoryCleanup(0))
	defer mc.Close()

	ok, err := mc.TryLock(ctx, "job", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
	ok, _ = mc.TryLock(ctx, "job", time.Minute)
	assert.False(t, ok)
	require.NoError(t, mc.Unlock(ctx, "job"))
	ok, _ = mc.TryLock(ctx, "job", time.Minute)
	assert.True(t, ok)
}

func TestLayeredCachePromotesFromL2(t *testing.T) {
	ctx := context.Background()
	l2 := NewMemoryCache(WithMemoryCleanup(0))
	lc := NewLayeredCache(l2)
	defer lc.Close()

	require.NoError(t, l2.Set(ctx, "k", report{"P", 50}, time.Hour))
	var got report
	require.NoError(t, lc.Get(ctx, "k", &got))
	assert.Equal(t, "P", got.Product)
	assert.Equal(t, 1, lc.l1.Len())

	require.NoError(t, lc.Delete(ctx, "k"))
	assert.ErrorIs(t, lc.Get(ctx, "k", &got), ErrCacheMiss)
}

func TestGetOrLoad(t *testing.T) {
	ctx := context.Background()
	mc := NewMemoryCache(WithMemoryCleanup(0))
	defer mc.Close()

	calls := 0
	load := func(context.Context) (report, error) {
		calls++
		return report{"P", 70}, nil
	}
	v, hit, err := GetOrLoad(ctx, mc, "k", time.Hour, load)
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, 70.0, v.Overall)

	v, hit, err = GetOrLoad(ctx, mc, "k", time.Hour, load)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, 1, calls)

	_, _, err = GetOrLoad(ctx, mc, "bad", time.Hour, func(context.Context) (report, error) {
		return report{}, errors.New("boom")
	})
	assert.Error(t, err)
	ok, _ := mc.Exists(ctx, "bad")
	assert.False(t, ok)
}

func TestKeys(t *testing.T) {
	assert.Equal(t, "report:iphone:110001:1", GenerateKeyWithParams("report", "iphone", "110001", 1))
	assert.Equal(t, "report:x", GenerateKey("report", "x"))
	assert.Len(t, HashKey("anything"), 32)
}
