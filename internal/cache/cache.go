// Package cache keeps recent analysis results in the analysis_cache storage
// partition so repeated queries do not hit the analysis service again.
//
// Every storage failure is logged as a warning and degrades to a miss or a
// no-op: the cache is an optimization and never fails an analysis.
package cache

import (
	"cmp"
	"context"
	"encoding/json"
	"slices"
	"strings"
	"time"

	"ipinsight/pkg/domain"
	"ipinsight/pkg/logger"
	"ipinsight/pkg/storage"

	"go.uber.org/zap"
)

// DefaultTTL applies when neither Options nor Set supply one.
const DefaultTTL = 30 * time.Minute

// keyPrefix namespaces cache keys; stripping it gives back the normalized query.
const keyPrefix = "analysis_"

// Entry is the stored form of a cached result. Timestamp and TTL are in
// milliseconds.
type Entry struct {
	Data      domain.AnalysisResult `json:"data"`
	Timestamp int64                 `json:"timestamp"`
	TTL       int64                 `json:"ttl"`
}

// ExpiresAt returns the last instant at which the entry is still valid.
func (e *Entry) ExpiresAt() time.Time {
	return time.UnixMilli(e.Timestamp + e.TTL)
}

// Expired reports whether now is past the entry's lifetime.
func (e *Entry) Expired(now time.Time) bool {
	return now.After(e.ExpiresAt())
}

// Options configures a Cache.
type Options struct {
	// TTL is the lifetime used by Set when it is given a zero ttl.
	TTL time.Duration
	// Now returns the current time. time.Now is used when nil.
	Now func() time.Time
}

// Cache maps normalized queries to analysis results with a time-to-live.
type Cache struct {
	part storage.Partition
	ttl  time.Duration
	now  func() time.Time
}

// New returns a Cache stored in the analysis_cache partition of s.
func New(s storage.Partitions, opts Options) *Cache {
	if opts.TTL <= 0 {
		opts.TTL = DefaultTTL
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	return &Cache{
		part: s.Partition(storage.CachePartition),
		ttl:  opts.TTL,
		now:  opts.Now,
	}
}

// Key derives the storage key of a query: trimmed, lowercased and prefixed.
func Key(query string) string {
	return keyPrefix + strings.ToLower(strings.TrimSpace(query))
}

// QueryFromKey reverses Key.
func QueryFromKey(key string) string {
	return strings.TrimPrefix(key, keyPrefix)
}

// Get returns the cached result for query. An expired entry is deleted and
// reported as absent in the same call.
func (c *Cache) Get(ctx context.Context, query string) (*domain.AnalysisResult, bool) {
	key := Key(query)
	ctx = logger.WithFields(ctx, zap.String("cacheKey", key))

	var entry Entry
	found, err := c.part.Get(ctx, key, &entry)
	if err != nil {
		logger.Warn(ctx, "could not read cache entry", zap.Error(err))

		return nil, false
	}
	if !found {
		return nil, false
	}

	if entry.Expired(c.now()) {
		if err := c.part.Delete(ctx, key); err != nil {
			logger.Warn(ctx, "could not evict expired cache entry", zap.Error(err))
		}

		return nil, false
	}

	return &entry.Data, true
}

// Set stores result under query for ttl, or for the configured TTL when ttl
// is not positive.
func (c *Cache) Set(ctx context.Context, query string, result *domain.AnalysisResult, ttl time.Duration) {
	if ttl <= 0 {
		ttl = c.ttl
	}

	key := Key(query)
	entry := Entry{
		Data:      *result,
		Timestamp: c.now().UnixMilli(),
		TTL:       ttl.Milliseconds(),
	}
	if err := c.part.Put(ctx, key, entry); err != nil {
		logger.Warn(ctx, "could not write cache entry", zap.String("cacheKey", key), zap.Error(err))
	}
}

// Remove deletes the entry of query, if any.
func (c *Cache) Remove(ctx context.Context, query string) {
	key := Key(query)
	if err := c.part.Delete(ctx, key); err != nil {
		logger.Warn(ctx, "could not remove cache entry", zap.String("cacheKey", key), zap.Error(err))
	}
}

// Has reports whether a live entry exists for query. It evicts expired
// entries like Get.
func (c *Cache) Has(ctx context.Context, query string) bool {
	_, ok := c.Get(ctx, query)

	return ok
}

// Clear deletes every cached entry.
func (c *Cache) Clear(ctx context.Context) {
	if err := c.part.Clear(ctx); err != nil {
		logger.Warn(ctx, "could not clear cache", zap.Error(err))
	}
}

// CleanExpired deletes every expired entry and returns how many were removed.
// Entries that cannot be decoded are removed as well.
func (c *Cache) CleanExpired(ctx context.Context) int {
	keys, err := c.part.Keys(ctx)
	if err != nil {
		logger.Warn(ctx, "could not list cache entries", zap.Error(err))

		return 0
	}

	now := c.now()
	removed := 0
	for _, key := range keys {
		var entry Entry
		found, err := c.part.Get(ctx, key, &entry)
		if err != nil {
			logger.Warn(ctx, "could not read cache entry, dropping it", zap.String("cacheKey", key), zap.Error(err))
		} else if !found || !entry.Expired(now) {
			continue
		}

		if err := c.part.Delete(ctx, key); err != nil {
			logger.Warn(ctx, "could not delete cache entry", zap.String("cacheKey", key), zap.Error(err))

			continue
		}
		removed++
	}

	if removed > 0 {
		logger.Info(ctx, "cleaned expired cache entries", zap.Int("removed", removed))
	}

	return removed
}

// Item describes one stored entry.
type Item struct {
	Query     string `json:"query"`
	Timestamp int64  `json:"timestamp"`
	ExpiresAt int64  `json:"expiresAt"`
	Expired   bool   `json:"expired"`
	Size      int    `json:"size"`
	Type      string `json:"type"`
	Score     int    `json:"securityScore"`
}

// Stats summarizes the cache content.
type Stats struct {
	TotalEntries int `json:"totalEntries"`
	// TotalSize is the sum of the encoded entry sizes in bytes.
	TotalSize int    `json:"totalSize"`
	Entries   []Item `json:"entries"`
}

// Stats lists every stored entry, newest first. Expired entries that were not
// swept yet are included and flagged.
func (c *Cache) Stats(ctx context.Context) Stats {
	stats := Stats{Entries: []Item{}}

	keys, err := c.part.Keys(ctx)
	if err != nil {
		logger.Warn(ctx, "could not list cache entries", zap.Error(err))

		return stats
	}

	now := c.now()
	for _, key := range keys {
		var raw json.RawMessage
		found, err := c.part.Get(ctx, key, &raw)
		if err != nil || !found {
			continue
		}

		var entry Entry
		if err := json.Unmarshal(raw, &entry); err != nil {
			continue
		}

		stats.TotalSize += len(raw)
		stats.Entries = append(stats.Entries, Item{
			Query:     QueryFromKey(key),
			Timestamp: entry.Timestamp,
			ExpiresAt: entry.ExpiresAt().UnixMilli(),
			Expired:   entry.Expired(now),
			Size:      len(raw),
			Type:      string(entry.Data.Type),
			Score:     entry.Data.SecurityScore,
		})
	}

	stats.TotalEntries = len(stats.Entries)
	slices.SortStableFunc(stats.Entries, func(a, b Item) int {
		return cmp.Compare(b.Timestamp, a.Timestamp)
	})

	return stats
}

// Queries returns the normalized queries currently stored.
func (c *Cache) Queries(ctx context.Context) []string {
	keys, err := c.part.Keys(ctx)
	if err != nil {
		logger.Warn(ctx, "could not list cache entries", zap.Error(err))

		return []string{}
	}

	out := make([]string, 0, len(keys))
	for _, key := range keys {
		out = append(out, QueryFromKey(key))
	}

	return out
}
