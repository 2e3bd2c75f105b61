// Package history records every completed analysis and derives statistics
// from the recorded entries.
//
// The full history is one capped list stored under a single key. After every
// mutation a statistics snapshot is written next to it; reads never trust the
// snapshot and always recompute from the list.
package history

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"ipinsight/pkg/domain"
	"ipinsight/pkg/logger"
	"ipinsight/pkg/storage"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DefaultMaxEntries caps the history when Options.MaxEntries is not set.
const DefaultMaxEntries = 1000

// Options configures a Service.
type Options struct {
	// MaxEntries is the number of most recent entries kept.
	MaxEntries int
	// Now returns the current time. time.Now is used when nil.
	Now func() time.Time
	// NewSuffix returns the random part of entry ids. A 9 character random
	// string is used when nil.
	NewSuffix func() string
}

// Service is the history and statistics aggregator. Mutations are serialized
// in process by a mutex and across processes by the storage transaction, so
// concurrent writers cannot lose each other's entries.
type Service struct {
	storage storage.Storage
	max     int
	now     func() time.Time
	suffix  func() string

	mu sync.Mutex
}

// New returns a Service persisting into s.
func New(s storage.Storage, opts Options) *Service {
	if opts.MaxEntries <= 0 {
		opts.MaxEntries = DefaultMaxEntries
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.NewSuffix == nil {
		opts.NewSuffix = randomSuffix
	}

	return &Service{
		storage: s,
		max:     opts.MaxEntries,
		now:     opts.Now,
		suffix:  opts.NewSuffix,
	}
}

func randomSuffix() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:9]
}

// NewEntry builds the history entry of an analysis without recording it.
func (s *Service) NewEntry(query string, result *domain.AnalysisResult, fromCache bool) domain.HistoryEntry {
	now := s.now().UnixMilli()

	return domain.HistoryEntry{
		ID:            fmt.Sprintf("%d_%s", now, s.suffix()),
		Query:         query,
		IP:            result.IP,
		Type:          result.Type,
		SecurityScore: result.SecurityScore,
		Timestamp:     now,
		Country:       result.Geolocation.Country,
		Status:        domain.StatusFromScore(result.SecurityScore),
		FromCache:     fromCache,
	}
}

// Record inserts an entry for the analysis at the head of the history and
// drops the oldest entries beyond the cap. Failures are logged and swallowed.
func (s *Service) Record(ctx context.Context, query string, result *domain.AnalysisResult, fromCache bool) domain.HistoryEntry {
	entry := s.NewEntry(query, result, fromCache)
	ctx = logger.WithFields(ctx, zap.String("historyId", entry.ID))

	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.mutate(ctx, func(list []domain.HistoryEntry) ([]domain.HistoryEntry, bool) {
		list = slices.Insert(list, 0, entry)
		if len(list) > s.max {
			list = list[:s.max]
		}

		return list, true
	})
	if err != nil {
		logger.Warn(ctx, "could not record analysis", zap.Error(err))
	}

	return entry
}

// History returns all entries, most recent first.
func (s *Service) History(ctx context.Context) []domain.HistoryEntry {
	list, err := load(ctx, s.storage)
	if err != nil {
		logger.Warn(ctx, "could not read history", zap.Error(err))

		return []domain.HistoryEntry{}
	}

	return list
}

// Statistics recomputes the statistics of the whole history.
func (s *Service) Statistics(ctx context.Context) domain.Statistics {
	return CalculateStatistics(s.History(ctx), s.now())
}

// StatisticsForPeriod recomputes the statistics of the entries recorded in
// the last days days.
func (s *Service) StatisticsForPeriod(ctx context.Context, days int) domain.Statistics {
	now := s.now()
	cutoff := now.AddDate(0, 0, -days).UnixMilli()

	var period []domain.HistoryEntry
	for _, e := range s.History(ctx) {
		if e.Timestamp > cutoff {
			period = append(period, e)
		}
	}

	return CalculateStatistics(period, now)
}

// Delete removes the entry with the given id. It reports false, leaving the
// history untouched, when no such entry exists.
func (s *Service) Delete(ctx context.Context, id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	deleted, err := s.mutate(ctx, func(list []domain.HistoryEntry) ([]domain.HistoryEntry, bool) {
		filtered := slices.DeleteFunc(slices.Clone(list), func(e domain.HistoryEntry) bool {
			return e.ID == id
		})

		return filtered, len(filtered) != len(list)
	})
	if err != nil {
		logger.Warn(ctx, "could not delete history entry", zap.String("historyId", id), zap.Error(err))

		return false
	}

	return deleted
}

// CleanOlderThan removes entries recorded more than days days ago and returns
// how many were removed.
func (s *Service) CleanOlderThan(ctx context.Context, days int) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := s.now().AddDate(0, 0, -days).UnixMilli()

	removed := 0
	cleaned, err := s.mutate(ctx, func(list []domain.HistoryEntry) ([]domain.HistoryEntry, bool) {
		kept := slices.DeleteFunc(slices.Clone(list), func(e domain.HistoryEntry) bool {
			return e.Timestamp <= cutoff
		})
		removed = len(list) - len(kept)

		return kept, removed > 0
	})
	if err != nil {
		logger.Warn(ctx, "could not clean history", zap.Error(err))

		return 0
	}
	if !cleaned {
		return 0
	}

	logger.Info(ctx, "cleaned old history entries", zap.Int("removed", removed), zap.Int("days", days))

	return removed
}

// Snapshot returns the last persisted statistics snapshot. It is advisory and
// may lag behind the history.
func (s *Service) Snapshot(ctx context.Context) (*domain.StatisticsSnapshot, bool) {
	var snap domain.StatisticsSnapshot
	found, err := s.storage.Partition(storage.StatisticsPartition).Get(ctx, storage.StatisticsKey, &snap)
	if err != nil {
		logger.Warn(ctx, "could not read statistics snapshot", zap.Error(err))

		return nil, false
	}
	if !found {
		return nil, false
	}

	return &snap, true
}

// Export bundles the statistics, the history and the given comparisons.
func (s *Service) Export(ctx context.Context, comparisons []domain.Comparison) domain.Export {
	list := s.History(ctx)
	if comparisons == nil {
		comparisons = []domain.Comparison{}
	}

	return domain.Export{
		Statistics:  CalculateStatistics(list, s.now()),
		History:     list,
		Comparisons: comparisons,
		ExportDate:  s.now().UnixMilli(),
	}
}

func load(ctx context.Context, p storage.Partitions) ([]domain.HistoryEntry, error) {
	var list []domain.HistoryEntry
	if _, err := p.Partition(storage.HistoryPartition).Get(ctx, storage.HistoryKey, &list); err != nil {
		return nil, err
	}
	if list == nil {
		list = []domain.HistoryEntry{}
	}

	return list, nil
}

// mutate reads the list, applies fn and writes the result with a fresh
// statistics snapshot, all in one transaction. The read locks the history row
// on drivers that support it, so writers in other processes wait for the
// commit instead of overwriting each other. fn returns false to leave the
// history untouched; mutate then reports false as well.
func (s *Service) mutate(ctx context.Context, fn func(list []domain.HistoryEntry) ([]domain.HistoryEntry, bool)) (bool, error) {
	changed := false
	err := s.storage.WithTx(ctx, func(tx storage.Partitions) error {
		list, err := load(ctx, tx)
		if err != nil {
			return err
		}

		next, ok := fn(list)
		if !ok {
			return nil
		}

		now := s.now()
		snap := domain.StatisticsSnapshot{
			Statistics:  CalculateStatistics(next, now),
			LastUpdated: now.UnixMilli(),
		}
		if err := tx.Partition(storage.HistoryPartition).Put(ctx, storage.HistoryKey, next); err != nil {
			return err
		}
		if err := tx.Partition(storage.StatisticsPartition).Put(ctx, storage.StatisticsKey, snap); err != nil {
			return err
		}
		changed = true

		return nil
	})
	if err != nil {
		return false, err
	}

	return changed, nil
}
