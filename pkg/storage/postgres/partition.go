package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"ipinsight/pkg/storage"

	"github.com/doug-martin/goqu/v9"
	"github.com/doug-martin/goqu/v9/exp"
)

const (
	kvTable = "kv_entries"
)

var (
	_ storage.Storage    = (*PgSQL)(nil)
	_ storage.TxStorage  = (*PgSQL)(nil)
	_ storage.JobStorage = (*PgSQL)(nil)
)

// Partition returns the partition with the given name. Rows of every partition
// live in kv_entries, keyed by (partition, key).
func (p *PgSQL) Partition(name string) storage.Partition {
	return &partition{pg: p, name: name}
}

type partition struct {
	pg   *PgSQL
	name string
}

// Get reads one value. Inside a transaction the row is locked FOR UPDATE until
// commit, so read-modify-write cycles of concurrent transactions serialize.
func (pt *partition) Get(ctx context.Context, key string, dst any) (bool, error) {
	query := pt.pg.Builder.From(kvTable).
		Where(
			goqu.C("partition").Eq(pt.name),
			goqu.C("key").Eq(key),
		)
	if _, inTx := pt.pg.DB.(*sql.Tx); inTx {
		query = query.ForUpdate(exp.Wait)
	}

	var entry PgEntry
	found, err := query.Executor().ScanStructContext(ctx, &entry)
	if err != nil {
		return false, fmt.Errorf("could not read %s/%s from pg: %w", pt.name, key, err)
	}
	if !found {
		return false, nil
	}

	if err := json.Unmarshal(entry.Value, dst); err != nil {
		return false, fmt.Errorf("could not unmarshal %s/%s: %w", pt.name, key, err)
	}

	return true, nil
}

// Put upserts the value, keeping created_at of an existing row.
func (pt *partition) Put(ctx context.Context, key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("could not marshal %s/%s: %w", pt.name, key, err)
	}

	_, err = pt.pg.Builder.Insert(kvTable).
		Rows(PgEntry{
			Partition: pt.name,
			Key:       key,
			Value:     data,
		}).
		OnConflict(goqu.DoUpdate("partition, key", goqu.Record{
			"value":      goqu.L("EXCLUDED.value"),
			"updated_at": goqu.L("CURRENT_TIMESTAMP"),
		})).
		Executor().ExecContext(ctx)
	if err != nil {
		return fmt.Errorf("could not write %s/%s into pg: %w", pt.name, key, err)
	}

	return nil
}

func (pt *partition) Delete(ctx context.Context, key string) error {
	_, err := pt.pg.Builder.Delete(kvTable).
		Where(
			goqu.C("partition").Eq(pt.name),
			goqu.C("key").Eq(key),
		).
		Executor().ExecContext(ctx)
	if err != nil {
		return fmt.Errorf("could not delete %s/%s from pg: %w", pt.name, key, err)
	}

	return nil
}

func (pt *partition) Keys(ctx context.Context) ([]string, error) {
	var keys []string
	if err := pt.pg.Builder.From(kvTable).
		Select("key").
		Where(goqu.C("partition").Eq(pt.name)).
		Order(goqu.C("key").Asc()).
		Executor().ScanValsContext(ctx, &keys); err != nil {
		return nil, fmt.Errorf("could not list %s from pg: %w", pt.name, err)
	}

	return keys, nil
}

func (pt *partition) Clear(ctx context.Context) error {
	_, err := pt.pg.Builder.Delete(kvTable).
		Where(goqu.C("partition").Eq(pt.name)).
		Executor().ExecContext(ctx)
	if err != nil {
		return fmt.Errorf("could not clear %s in pg: %w", pt.name, err)
	}

	return nil
}
