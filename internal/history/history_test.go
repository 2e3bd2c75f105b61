package history_test

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"regexp"
	"testing"
	"time"

	"ipinsight/internal/history"
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

func newService(t *testing.T, opts history.Options) (*history.Service, *clock) {
	t.Helper()

	s, err := bolt.New(bolt.Options{Path: filepath.Join(t.TempDir(), "history.db")})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	clk := &clock{t: time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)}
	opts.Now = clk.Now

	return history.New(s, opts), clk
}

func result(ip, country string, score int) *domain.AnalysisResult {
	return &domain.AnalysisResult{
		IP:            ip,
		Type:          domain.TargetIPv4,
		SecurityScore: score,
		Geolocation:   domain.Geolocation{Country: country},
	}
}

func TestRecord(t *testing.T) {
	ctx := context.Background()
	svc, clk := newService(t, history.Options{})

	entry := svc.Record(ctx, "example.com", result("8.8.8.8", "United States", 94), true)
	require.Regexp(t, regexp.MustCompile(`^\d+_[0-9a-f]{9}$`), entry.ID)
	require.Equal(t, "example.com", entry.Query)
	require.Equal(t, "8.8.8.8", entry.IP)
	require.Equal(t, clk.Now().UnixMilli(), entry.Timestamp)
	require.Equal(t, "United States", entry.Country)
	require.Equal(t, domain.StatusSafe, entry.Status)
	require.True(t, entry.FromCache)

	clk.Advance(time.Second)
	second := svc.Record(ctx, "1.1.1.1", result("1.1.1.1", "Australia", 40), false)
	require.Equal(t, domain.StatusDanger, second.Status)

	list := svc.History(ctx)
	require.Len(t, list, 2)
	require.Equal(t, second, list[0])
	require.Equal(t, entry, list[1])
}

func TestRecord_Cap(t *testing.T) {
	ctx := context.Background()
	n := 0
	svc, clk := newService(t, history.Options{NewSuffix: func() string {
		n++

		return fmt.Sprintf("%09d", n)
	}})

	for i := range history.DefaultMaxEntries + 1 {
		svc.Record(ctx, fmt.Sprintf("q%d", i), result("8.8.8.8", "US", 90), false)
		clk.Advance(time.Millisecond)
	}

	list := svc.History(ctx)
	require.Len(t, list, history.DefaultMaxEntries)
	require.Equal(t, "q1000", list[0].Query)
	require.Equal(t, "q1", list[len(list)-1].Query)
	for _, e := range list {
		require.NotEqual(t, "q0", e.Query)
	}
}

func TestStatistics_Empty(t *testing.T) {
	svc, _ := newService(t, history.Options{})

	stats := svc.Statistics(context.Background())
	require.Equal(t, history.EmptyStatistics(), stats)
	require.Zero(t, stats.TotalAnalyses)
	require.Zero(t, stats.AverageScore)
	require.Empty(t, stats.TopCountries)
	require.Empty(t, stats.AnalysisHistory)
	require.Empty(t, stats.RecentAnalyses)
}

func TestStatistics_AfterRecords(t *testing.T) {
	ctx := context.Background()
	svc, clk := newService(t, history.Options{})

	svc.Record(ctx, "8.8.8.8", result("8.8.8.8", "US", 94), false)
	clk.Advance(time.Hour)
	svc.Record(ctx, "8.8.8.8", result("8.8.8.8", "US", 94), true)
	clk.Advance(time.Hour)
	svc.Record(ctx, "9.9.9.9", result("9.9.9.9", "CH", 55), false)

	stats := svc.Statistics(ctx)
	require.Equal(t, 3, stats.TotalAnalyses)
	require.Equal(t, 2, stats.UniqueIPs)
	require.InDelta(t, 81.0, stats.AverageScore, 0.001)
	require.Equal(t, domain.RiskDistribution{Safe: 2, Warning: 1}, stats.RiskDistribution)
	require.Len(t, stats.AnalysisHistory, history.DailyWindow)

	last := stats.AnalysisHistory[len(stats.AnalysisHistory)-1]
	require.Equal(t, "2025-03-10", last.Date)
	require.Equal(t, 3, last.Count)
	require.InDelta(t, 81.0, last.AverageScore, 0.001)

	snap, ok := svc.Snapshot(ctx)
	require.True(t, ok)
	require.Equal(t, clk.Now().UnixMilli(), snap.LastUpdated)
	require.Equal(t, 3, snap.TotalAnalyses)
}

func TestStatisticsForPeriod(t *testing.T) {
	ctx := context.Background()
	svc, clk := newService(t, history.Options{})

	svc.Record(ctx, "old", result("1.1.1.1", "US", 20), false)
	clk.Advance(10 * 24 * time.Hour)
	svc.Record(ctx, "new", result("8.8.8.8", "US", 90), false)

	stats := svc.StatisticsForPeriod(ctx, 7)
	require.Equal(t, 1, stats.TotalAnalyses)
	require.Equal(t, "new", stats.RecentAnalyses[0].Query)

	stats = svc.StatisticsForPeriod(ctx, 30)
	require.Equal(t, 2, stats.TotalAnalyses)

	clk.Advance(30 * 24 * time.Hour)
	require.Equal(t, history.EmptyStatistics(), svc.StatisticsForPeriod(ctx, 7))
}

func TestDelete(t *testing.T) {
	ctx := context.Background()
	svc, clk := newService(t, history.Options{})

	a := svc.Record(ctx, "a", result("1.1.1.1", "US", 90), false)
	clk.Advance(time.Second)
	b := svc.Record(ctx, "b", result("8.8.8.8", "US", 90), false)

	require.False(t, svc.Delete(ctx, "missing"))
	require.Equal(t, []domain.HistoryEntry{b, a}, svc.History(ctx))

	require.True(t, svc.Delete(ctx, a.ID))
	require.Equal(t, []domain.HistoryEntry{b}, svc.History(ctx))
	require.False(t, svc.Delete(ctx, a.ID))

	snap, ok := svc.Snapshot(ctx)
	require.True(t, ok)
	require.Equal(t, 1, snap.TotalAnalyses)
}

func TestCleanOlderThan(t *testing.T) {
	ctx := context.Background()
	svc, clk := newService(t, history.Options{})

	svc.Record(ctx, "old", result("1.1.1.1", "US", 90), false)
	clk.Advance(8 * 24 * time.Hour)
	svc.Record(ctx, "recent", result("8.8.8.8", "US", 90), false)

	require.Equal(t, 1, svc.CleanOlderThan(ctx, 7))
	require.Equal(t, 0, svc.CleanOlderThan(ctx, 7))

	list := svc.History(ctx)
	require.Len(t, list, 1)
	require.Equal(t, "recent", list[0].Query)
}

func TestCleanOlderThan_HugeRetentionKeepsEverything(t *testing.T) {
	ctx := context.Background()
	svc, clk := newService(t, history.Options{})

	svc.Record(ctx, "a", result("1.1.1.1", "US", 90), false)
	clk.Advance(time.Hour)
	svc.Record(ctx, "b", result("8.8.8.8", "US", 90), false)

	require.Zero(t, svc.CleanOlderThan(ctx, 200000))
	require.Len(t, svc.History(ctx), 2)
	require.Equal(t, 2, svc.StatisticsForPeriod(ctx, 200000).TotalAnalyses)
}

func TestExport(t *testing.T) {
	ctx := context.Background()
	svc, clk := newService(t, history.Options{})

	svc.Record(ctx, "8.8.8.8", result("8.8.8.8", "US", 94), false)

	comps := []domain.Comparison{{ID: "comp_1", Query: "8.8.8.8", Timestamp: 1}}
	export := svc.Export(ctx, comps)
	require.Equal(t, clk.Now().UnixMilli(), export.ExportDate)
	require.Len(t, export.History, 1)
	require.Equal(t, 1, export.Statistics.TotalAnalyses)
	require.Equal(t, comps, export.Comparisons)

	require.NotNil(t, svc.Export(ctx, nil).Comparisons)
}

func TestStorageFailuresDegrade(t *testing.T) {
	ctx := context.Background()
	ctrl := gomock.NewController(t)

	boom := errors.New("io error")
	part := mockstorage.NewMockPartition(ctrl)
	strg := mockstorage.NewMockStorage(ctrl)
	strg.EXPECT().Partition(gomock.Any()).Return(part).AnyTimes()
	part.EXPECT().Get(gomock.Any(), gomock.Any(), gomock.Any()).Return(false, boom).AnyTimes()
	strg.EXPECT().WithTx(gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, cb func(tx storage.Partitions) error) error {
			return cb(strg)
		}).AnyTimes()

	svc := history.New(strg, history.Options{})

	entry := svc.Record(ctx, "8.8.8.8", result("8.8.8.8", "US", 94), false)
	require.Equal(t, "8.8.8.8", entry.Query)
	require.Empty(t, svc.History(ctx))
	require.Equal(t, history.EmptyStatistics(), svc.Statistics(ctx))
	require.False(t, svc.Delete(ctx, entry.ID))
	require.Zero(t, svc.CleanOlderThan(ctx, 1))

	_, ok := svc.Snapshot(ctx)
	require.False(t, ok)
}

func TestWriteFailureKeepsPreviousHistory(t *testing.T) {
	ctx := context.Background()
	ctrl := gomock.NewController(t)

	part := mockstorage.NewMockPartition(ctrl)
	strg := mockstorage.NewMockStorage(ctrl)
	strg.EXPECT().Partition(storage.HistoryPartition).Return(part).AnyTimes()
	part.EXPECT().Get(gomock.Any(), storage.HistoryKey, gomock.Any()).Return(false, nil).AnyTimes()
	strg.EXPECT().WithTx(gomock.Any(), gomock.Any()).Return(errors.New("tx failed"))

	svc := history.New(strg, history.Options{})
	svc.Record(ctx, "8.8.8.8", result("8.8.8.8", "US", 94), false)

	require.Empty(t, svc.History(ctx))
}
