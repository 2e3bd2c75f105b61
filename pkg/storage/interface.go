// Package storage defines the key/value storage the analysis layer persists
// into. Data lives in named partitions holding JSON values; drivers under
// pkg/storage/<driver>/ provide the concrete backends (bbolt, PostgreSQL).
//
//go:generate mockgen -package mockstorage -source=interface.go -destination=mock/mockstorage.go *
package storage

import "context"

// Partition names used by the application.
const (
	// CachePartition holds analysis results keyed by normalized query.
	CachePartition = "analysis_cache"
	// HistoryPartition holds the whole capped history list under HistoryKey.
	HistoryPartition = "analysis_history"
	// StatisticsPartition holds the advisory statistics snapshot under StatisticsKey.
	StatisticsPartition = "statistics"
	// ComparisonPartition holds one key per saved comparison.
	ComparisonPartition = "comparisons"

	HistoryKey    = "history"
	StatisticsKey = "cached_stats"
)

// Partition is an independent JSON key/value namespace.
type Partition interface {
	// Get decodes the value stored under key into dst. It reports false
	// without touching dst when the key does not exist.
	Get(ctx context.Context, key string, dst any) (bool, error)
	// Put encodes value as JSON and stores it under key, replacing any
	// previous value.
	Put(ctx context.Context, key string, value any) error
	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
	// Keys lists every key of the partition in ascending order.
	Keys(ctx context.Context) ([]string, error)
	// Clear removes every key of the partition.
	Clear(ctx context.Context) error
}

// Partitions hands out partitions by name.
type Partitions interface {
	Partition(name string) Partition
}

// TxStorage gives access to partitions inside one transaction. Writes made
// through it become visible together on Commit.
type TxStorage interface {
	Partitions

	// Commit finalizes the transaction, persisting all changes.
	Commit() error
	// Rollback aborts the transaction, discarding all uncommitted changes.
	Rollback() error
}

// Storage is a non-transactional storage handle with the ability to run
// transactions across partitions.
type Storage interface {
	Partitions

	// Close releases any resources held by the storage implementation. After
	// Close, the instance should not be used.
	Close() error

	// Begin starts a new transaction.
	Begin(ctx context.Context) (TxStorage, error)
	// WithTx runs cb inside a transaction, committing when cb returns nil and
	// rolling back otherwise.
	WithTx(ctx context.Context, cb func(tx Partitions) error) error
}
