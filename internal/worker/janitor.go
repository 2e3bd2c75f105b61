package worker

import (
	"context"
	"time"

	"ipinsight/pkg/logger"

	"go.uber.org/zap"
)

// CacheSweeper removes expired cache entries.
type CacheSweeper interface {
	CleanExpired(ctx context.Context) int
}

// HistoryCleaner removes old history entries.
type HistoryCleaner interface {
	CleanOlderThan(ctx context.Context, days int) int
}

// Report summarizes one maintenance run.
type Report struct {
	ExpiredCacheEntries int `json:"expiredCacheEntries"`
	OldHistoryEntries   int `json:"oldHistoryEntries"`
}

// Janitor performs the periodic upkeep of the local stores. Both cleanups are
// idempotent, so overlapping runs converge.
type Janitor struct {
	cache         CacheSweeper
	history       HistoryCleaner
	retentionDays int
}

// NewJanitor returns a Janitor. History entries older than retentionDays are
// dropped on every run; zero or less keeps the history untouched.
func NewJanitor(cache CacheSweeper, history HistoryCleaner, retentionDays int) *Janitor {
	return &Janitor{
		cache:         cache,
		history:       history,
		retentionDays: retentionDays,
	}
}

// Run sweeps expired cache entries and, when a retention is configured, old
// history entries.
func (j *Janitor) Run(ctx context.Context) Report {
	return j.clean(ctx, j.retentionDays)
}

// AutoClean is the startup cleanup: it sweeps expired cache entries and drops
// history entries older than days. Zero or less skips the history.
func (j *Janitor) AutoClean(ctx context.Context, days int) Report {
	return j.clean(ctx, days)
}

func (j *Janitor) clean(ctx context.Context, days int) Report {
	var r Report
	r.ExpiredCacheEntries = j.cache.CleanExpired(ctx)
	if days > 0 {
		r.OldHistoryEntries = j.history.CleanOlderThan(ctx, days)
	}

	logger.Debug(ctx, "maintenance done",
		zap.Int("expiredCacheEntries", r.ExpiredCacheEntries),
		zap.Int("oldHistoryEntries", r.OldHistoryEntries))

	return r
}

// Loop runs the janitor every interval until ctx is done. It is used when the
// storage driver has no job queue.
func (j *Janitor) Loop(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			j.Run(ctx)
		}
	}
}
