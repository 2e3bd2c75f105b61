package cache_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"ipinsight/internal/cache"
	"ipinsight/pkg/domain"
	"ipinsight/pkg/storage"
	"ipinsight/pkg/storage/bolt"
	mockstorage "ipinsight/pkg/storage/mock"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

type clock struct{ t time.Time }

func (c *clock) Now() time.Time { return c.t }
func (c *clock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func newCache(t *testing.T) (*cache.Cache, *clock) {
	t.Helper()

	s, err := bolt.New(bolt.Options{Path: filepath.Join(t.TempDir(), "cache.db")})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	clk := &clock{t: time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)}

	return cache.New(s, cache.Options{Now: clk.Now}), clk
}

func result(ip string, score int) *domain.AnalysisResult {
	return &domain.AnalysisResult{
		IP:            ip,
		Type:          domain.TargetIPv4,
		SecurityScore: score,
		Timestamp:     1741608000000,
	}
}

func TestKey(t *testing.T) {
	require.Equal(t, "analysis_example.com", cache.Key("  Example.COM "))
	require.Equal(t, "example.com", cache.QueryFromKey(cache.Key("Example.com")))
}

func TestCache_RoundTripAndExpiry(t *testing.T) {
	ctx := context.Background()
	c, clk := newCache(t)

	r := result("8.8.8.8", 94)
	c.Set(ctx, "8.8.8.8", r, time.Minute)

	got, ok := c.Get(ctx, "8.8.8.8")
	require.True(t, ok)
	require.Equal(t, r, got)
	require.True(t, c.Has(ctx, "8.8.8.8"))

	clk.Advance(time.Minute)
	_, ok = c.Get(ctx, "8.8.8.8")
	require.True(t, ok, "entry is valid up to and including timestamp+ttl")

	clk.Advance(time.Millisecond)
	_, ok = c.Get(ctx, "8.8.8.8")
	require.False(t, ok)
	require.False(t, c.Has(ctx, "8.8.8.8"))
	require.Empty(t, c.Queries(ctx), "expired entry is physically removed")
}

func TestCache_KeyNormalization(t *testing.T) {
	ctx := context.Background()
	c, _ := newCache(t)

	c.Set(ctx, " Example.COM ", result("8.8.8.8", 94), 0)

	_, ok := c.Get(ctx, "example.com")
	require.True(t, ok)
	require.Equal(t, []string{"example.com"}, c.Queries(ctx))
}

func TestCache_DefaultTTL(t *testing.T) {
	ctx := context.Background()
	c, clk := newCache(t)

	c.Set(ctx, "1.1.1.1", result("1.1.1.1", 80), 0)

	clk.Advance(cache.DefaultTTL)
	require.True(t, c.Has(ctx, "1.1.1.1"))

	clk.Advance(time.Second)
	require.False(t, c.Has(ctx, "1.1.1.1"))
}

func TestCache_RemoveAndClear(t *testing.T) {
	ctx := context.Background()
	c, _ := newCache(t)

	c.Set(ctx, "1.1.1.1", result("1.1.1.1", 80), 0)
	c.Set(ctx, "8.8.8.8", result("8.8.8.8", 94), 0)

	c.Remove(ctx, "1.1.1.1")
	c.Remove(ctx, "1.1.1.1")
	require.Equal(t, []string{"8.8.8.8"}, c.Queries(ctx))

	c.Clear(ctx)
	require.Empty(t, c.Queries(ctx))
}

func TestCache_CleanExpired(t *testing.T) {
	ctx := context.Background()
	c, clk := newCache(t)

	require.Equal(t, 0, c.CleanExpired(ctx))

	c.Set(ctx, "short.example.com", result("8.8.8.8", 94), time.Minute)
	c.Set(ctx, "long.example.com", result("8.8.8.8", 94), time.Hour)

	clk.Advance(2 * time.Minute)
	require.Equal(t, 1, c.CleanExpired(ctx))
	require.Equal(t, 0, c.CleanExpired(ctx))
	require.Equal(t, []string{"long.example.com"}, c.Queries(ctx))
}

func TestCache_Stats(t *testing.T) {
	ctx := context.Background()
	c, clk := newCache(t)

	stats := c.Stats(ctx)
	require.Equal(t, 0, stats.TotalEntries)
	require.Empty(t, stats.Entries)

	c.Set(ctx, "1.1.1.1", result("1.1.1.1", 80), time.Minute)
	clk.Advance(time.Second)
	c.Set(ctx, "8.8.8.8", result("8.8.8.8", 94), time.Hour)
	clk.Advance(2 * time.Minute)

	stats = c.Stats(ctx)
	require.Equal(t, 2, stats.TotalEntries)
	require.Equal(t, "8.8.8.8", stats.Entries[0].Query)
	require.False(t, stats.Entries[0].Expired)
	require.Equal(t, "1.1.1.1", stats.Entries[1].Query)
	require.True(t, stats.Entries[1].Expired)
	require.Equal(t, stats.Entries[0].Size+stats.Entries[1].Size, stats.TotalSize)
	require.Positive(t, stats.TotalSize)
}

func TestCache_StorageFailuresDegrade(t *testing.T) {
	ctx := context.Background()
	ctrl := gomock.NewController(t)

	boom := errors.New("disk full")
	part := mockstorage.NewMockPartition(ctrl)
	parts := mockstorage.NewMockPartitions(ctrl)
	parts.EXPECT().Partition(storage.CachePartition).Return(part)

	part.EXPECT().Get(gomock.Any(), "analysis_8.8.8.8", gomock.Any()).Return(false, boom).Times(2)
	part.EXPECT().Put(gomock.Any(), "analysis_8.8.8.8", gomock.Any()).Return(boom)
	part.EXPECT().Delete(gomock.Any(), "analysis_8.8.8.8").Return(boom)
	part.EXPECT().Clear(gomock.Any()).Return(boom)
	part.EXPECT().Keys(gomock.Any()).Return(nil, boom).Times(3)

	c := cache.New(parts, cache.Options{})

	require.NotPanics(t, func() {
		c.Set(ctx, "8.8.8.8", result("8.8.8.8", 94), 0)
		c.Remove(ctx, "8.8.8.8")
		c.Clear(ctx)
	})

	_, ok := c.Get(ctx, "8.8.8.8")
	require.False(t, ok)
	require.False(t, c.Has(ctx, "8.8.8.8"))
	require.Equal(t, 0, c.CleanExpired(ctx))
	require.Empty(t, c.Queries(ctx))
	require.Equal(t, 0, c.Stats(ctx).TotalEntries)
}
