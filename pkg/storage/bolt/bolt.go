// Package bolt implements storage.Storage on top of a single bbolt file. Each
// partition is a top-level bucket created on first write.
package bolt

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"ipinsight/pkg/storage"

	"go.etcd.io/bbolt"
	berrors "go.etcd.io/bbolt/errors"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

// Options configures the bbolt driver.
type Options struct {
	// Path is the database file. It is created when missing.
	Path string
	// Timeout bounds how long Open waits for the file lock.
	Timeout time.Duration
	// Meter records read and write latencies. A no-op meter is used when nil.
	Meter metric.Meter
}

// Bolt implements storage.Storage and storage.TxStorage.
type Bolt struct {
	db *bbolt.DB
	// tx is set on handles returned by Begin.
	tx *bbolt.Tx

	readLatency  metric.Float64Histogram
	writeLatency metric.Float64Histogram
}

var (
	_ storage.Storage   = (*Bolt)(nil)
	_ storage.TxStorage = (*Bolt)(nil)
)

// New opens (or creates) the bbolt database at opts.Path.
func New(opts Options) (*Bolt, error) {
	if opts.Timeout <= 0 {
		opts.Timeout = time.Second
	}
	if opts.Meter == nil {
		opts.Meter = noop.NewMeterProvider().Meter("")
	}

	db, err := bbolt.Open(opts.Path, 0o600, &bbolt.Options{
		Timeout:      opts.Timeout,
		FreelistType: bbolt.FreelistArrayType,
	})
	if err != nil {
		return nil, fmt.Errorf("could not open bolt db: %w", err)
	}

	readLatency, _ := opts.Meter.Float64Histogram("ipinsight_storage_read_ms")
	writeLatency, _ := opts.Meter.Float64Histogram("ipinsight_storage_write_ms")

	return &Bolt{
		db:           db,
		readLatency:  readLatency,
		writeLatency: writeLatency,
	}, nil
}

// Close closes the underlying database file. Handles returned by Begin do not
// own the file and only roll back their transaction.
func (b *Bolt) Close() error {
	if b.tx != nil {
		return b.Rollback()
	}

	if err := b.db.Close(); err != nil {
		return fmt.Errorf("could not close bolt db: %w", err)
	}

	return nil
}

// Begin starts a writable transaction.
func (b *Bolt) Begin(_ context.Context) (storage.TxStorage, error) {
	if b.tx != nil {
		return nil, storage.ErrAlreadyInTx
	}

	tx, err := b.db.Begin(true)
	if err != nil {
		return nil, fmt.Errorf("could not begin tx: %w", err)
	}

	return &Bolt{
		db:           b.db,
		tx:           tx,
		readLatency:  b.readLatency,
		writeLatency: b.writeLatency,
	}, nil
}

// Commit commits the transaction of a handle returned by Begin.
func (b *Bolt) Commit() error {
	if b.tx == nil {
		return storage.ErrNotInTx
	}

	if err := b.tx.Commit(); err != nil {
		if errors.Is(err, berrors.ErrTxClosed) {
			return storage.ErrTxDone
		}

		return fmt.Errorf("could not commit tx: %w", err)
	}

	return nil
}

// Rollback aborts the transaction of a handle returned by Begin.
func (b *Bolt) Rollback() error {
	if b.tx == nil {
		return storage.ErrNotInTx
	}

	if err := b.tx.Rollback(); err != nil {
		if errors.Is(err, berrors.ErrTxClosed) {
			return storage.ErrTxDone
		}

		return fmt.Errorf("could not rollback tx: %w", err)
	}

	return nil
}

// WithTx runs cb in a transaction and commits when it returns nil.
func (b *Bolt) WithTx(ctx context.Context, cb func(tx storage.Partitions) error) error {
	tx, err := b.Begin(ctx)
	if err != nil {
		return err
	}

	if err := cb(tx); err != nil {
		_ = tx.Rollback()

		return err
	}

	return tx.Commit()
}

// Partition returns the bucket-backed partition with the given name.
func (b *Bolt) Partition(name string) storage.Partition {
	return &partition{b: b, name: []byte(name)}
}

func (b *Bolt) view(fn func(tx *bbolt.Tx) error) error {
	if b.tx != nil {
		return fn(b.tx)
	}

	return b.db.View(fn)
}

func (b *Bolt) update(fn func(tx *bbolt.Tx) error) error {
	if b.tx != nil {
		return fn(b.tx)
	}

	return b.db.Update(fn)
}

type partition struct {
	b    *Bolt
	name []byte
}

func (p *partition) observe(ctx context.Context, h metric.Float64Histogram, op string, start time.Time) {
	h.Record(ctx, float64(time.Since(start).Microseconds())/1000,
		metric.WithAttributes(
			attribute.String("partition", string(p.name)),
			attribute.String("operation", op),
		))
}

func (p *partition) Get(ctx context.Context, key string, dst any) (bool, error) {
	defer p.observe(ctx, p.b.readLatency, "get", time.Now())

	found := false
	err := p.b.view(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(p.name)
		if bucket == nil {
			return nil
		}

		data := bucket.Get([]byte(key))
		if data == nil {
			return nil
		}
		found = true

		return json.Unmarshal(data, dst)
	})
	if err != nil {
		return false, fmt.Errorf("could not read %s/%s: %w", p.name, key, err)
	}

	return found, nil
}

func (p *partition) Put(ctx context.Context, key string, value any) error {
	defer p.observe(ctx, p.b.writeLatency, "put", time.Now())

	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("could not marshal %s/%s: %w", p.name, key, err)
	}

	err = p.b.update(func(tx *bbolt.Tx) error {
		bucket, err := tx.CreateBucketIfNotExists(p.name)
		if err != nil {
			return err
		}

		return bucket.Put([]byte(key), data)
	})
	if err != nil {
		return fmt.Errorf("could not write %s/%s: %w", p.name, key, err)
	}

	return nil
}

func (p *partition) Delete(ctx context.Context, key string) error {
	defer p.observe(ctx, p.b.writeLatency, "delete", time.Now())

	err := p.b.update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(p.name)
		if bucket == nil {
			return nil
		}

		return bucket.Delete([]byte(key))
	})
	if err != nil {
		return fmt.Errorf("could not delete %s/%s: %w", p.name, key, err)
	}

	return nil
}

func (p *partition) Keys(ctx context.Context) ([]string, error) {
	defer p.observe(ctx, p.b.readLatency, "keys", time.Now())

	var keys []string
	err := p.b.view(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(p.name)
		if bucket == nil {
			return nil
		}

		return bucket.ForEach(func(k, _ []byte) error {
			keys = append(keys, string(k))

			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("could not list %s: %w", p.name, err)
	}

	return keys, nil
}

func (p *partition) Clear(ctx context.Context) error {
	defer p.observe(ctx, p.b.writeLatency, "clear", time.Now())

	err := p.b.update(func(tx *bbolt.Tx) error {
		err := tx.DeleteBucket(p.name)
		if errors.Is(err, berrors.ErrBucketNotFound) {
			return nil
		}

		return err
	})
	if err != nil {
		return fmt.Errorf("could not clear %s: %w", p.name, err)
	}

	return nil
}
