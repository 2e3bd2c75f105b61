// Package comparison keeps full analysis results the user pinned for a side
// by side view. It is independent of the history: one storage key per saved
// comparison, no expiry.
package comparison

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"ipinsight/pkg/domain"
	"ipinsight/pkg/logger"
	"ipinsight/pkg/serrors"
	"ipinsight/pkg/storage"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	// DefaultListLimit is the number of comparisons List returns.
	DefaultListLimit = 20
	// DefaultMaxEntries is the number of comparisons kept after a save.
	DefaultMaxEntries = 100
)

// Options configures a Store.
type Options struct {
	// ListLimit caps List. Zero selects DefaultListLimit.
	ListLimit int
	// MaxEntries caps the stored comparisons, pruning the oldest on Save.
	// Zero selects DefaultMaxEntries, a negative value disables the cap.
	MaxEntries int
	// Now returns the current time. time.Now is used when nil.
	Now func() time.Time
	// NewSuffix returns the random part of ids.
	NewSuffix func() string
}

// Store is the comparison store.
type Store struct {
	storage    storage.Storage
	listLimit  int
	maxEntries int
	now        func() time.Time
	suffix     func() string

	mu sync.Mutex
}

// New returns a Store persisting into the comparisons partition of s.
func New(s storage.Storage, opts Options) *Store {
	if opts.ListLimit <= 0 {
		opts.ListLimit = DefaultListLimit
	}
	if opts.MaxEntries == 0 {
		opts.MaxEntries = DefaultMaxEntries
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.NewSuffix == nil {
		opts.NewSuffix = func() string {
			return strings.ReplaceAll(uuid.NewString(), "-", "")[:9]
		}
	}

	return &Store{
		storage:    s,
		listLimit:  opts.ListLimit,
		maxEntries: opts.MaxEntries,
		now:        opts.Now,
		suffix:     opts.NewSuffix,
	}
}

// Save stores result under a new id and returns it. When the store holds more
// than the configured maximum the oldest comparisons are pruned in the same
// transaction.
func (s *Store) Save(ctx context.Context, query string, result *domain.AnalysisResult) (string, error) {
	now := s.now().UnixMilli()
	c := domain.Comparison{
		ID:        fmt.Sprintf("comp_%d_%s", now, s.suffix()),
		Query:     query,
		Result:    *result,
		Timestamp: now,
	}
	ctx = logger.WithFields(ctx, zap.String("comparisonId", c.ID))

	s.mu.Lock()
	defer s.mu.Unlock()

	pruned := 0
	err := s.storage.WithTx(ctx, func(tx storage.Partitions) error {
		part := tx.Partition(storage.ComparisonPartition)
		if err := part.Put(ctx, c.ID, c); err != nil {
			return err
		}
		if s.maxEntries < 0 {
			return nil
		}

		all, err := load(ctx, part)
		if err != nil {
			return err
		}
		// the new comparison always survives, older ones fill the rest of the cap
		others := slices.DeleteFunc(all, func(o domain.Comparison) bool { return o.ID == c.ID })
		keep := max(s.maxEntries-1, 0)
		for _, old := range others[min(keep, len(others)):] {
			if err := part.Delete(ctx, old.ID); err != nil {
				return err
			}
			pruned++
		}

		return nil
	})
	if err != nil {
		logger.Warn(ctx, "could not save comparison", zap.Error(err))

		return "", serrors.Wrap(serrors.ErrStorage, err, "save comparison")
	}

	if pruned > 0 {
		logger.Debug(ctx, "pruned old comparisons", zap.Int("pruned", pruned))
	}

	return c.ID, nil
}

// List returns the most recent comparisons, newest first, capped at the
// configured list limit.
func (s *Store) List(ctx context.Context) []domain.Comparison {
	all, err := load(ctx, s.storage.Partition(storage.ComparisonPartition))
	if err != nil {
		logger.Warn(ctx, "could not list comparisons", zap.Error(err))

		return []domain.Comparison{}
	}

	return all[:min(s.listLimit, len(all))]
}

// Get returns the comparison with the given id.
func (s *Store) Get(ctx context.Context, id string) (*domain.Comparison, bool) {
	var c domain.Comparison
	found, err := s.storage.Partition(storage.ComparisonPartition).Get(ctx, id, &c)
	if err != nil {
		logger.Warn(ctx, "could not read comparison", zap.String("comparisonId", id), zap.Error(err))

		return nil, false
	}
	if !found {
		return nil, false
	}

	return &c, true
}

// Remove deletes the comparison with the given id. Removing an unknown id is
// a no-op.
func (s *Store) Remove(ctx context.Context, id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.storage.Partition(storage.ComparisonPartition).Delete(ctx, id); err != nil {
		logger.Warn(ctx, "could not remove comparison", zap.String("comparisonId", id), zap.Error(err))
	}
}

// Clear deletes every comparison.
func (s *Store) Clear(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.storage.Partition(storage.ComparisonPartition).Clear(ctx); err != nil {
		logger.Warn(ctx, "could not clear comparisons", zap.Error(err))
	}
}

// load reads every comparison of part, newest first. Undecodable values are
// skipped.
func load(ctx context.Context, part storage.Partition) ([]domain.Comparison, error) {
	keys, err := part.Keys(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]domain.Comparison, 0, len(keys))
	for _, key := range keys {
		var c domain.Comparison
		found, err := part.Get(ctx, key, &c)
		if err != nil {
			logger.Debug(ctx, "skipping unreadable comparison", zap.String("comparisonId", key), zap.Error(err))

			continue
		}
		if !found {
			continue
		}
		if c.ID == "" {
			c.ID = key
		}
		out = append(out, c)
	}

	slices.SortStableFunc(out, func(a, b domain.Comparison) int {
		if c := cmp.Compare(b.Timestamp, a.Timestamp); c != 0 {
			return c
		}

		return strings.Compare(b.ID, a.ID)
	})

	return out, nil
}
