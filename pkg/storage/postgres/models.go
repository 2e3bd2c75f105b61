package postgres

import (
	"encoding/json"
	"time"
)

// PgEntry is one row of the kv_entries table.
type PgEntry struct {
	Partition string          `db:"partition"`
	Key       string          `db:"key"`
	Value     json.RawMessage `db:"value"`

	CreatedAt time.Time `db:"created_at" goqu:"skipinsert"`
	UpdatedAt time.Time `db:"updated_at" goqu:"skipinsert"`
}
