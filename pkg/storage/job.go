package storage

import (
	"context"

	"github.com/riverqueue/river"
)

// JobStorage is implemented by drivers backed by a job queue. Callers type
// assert a Storage to JobStorage and fall back to running work inline when
// the driver has no queue.
type JobStorage interface {
	// AddJob enqueues a new job with the given arguments. It reports whether
	// a new row was inserted (false when a unique job already exists).
	AddJob(ctx context.Context, args river.JobArgs, opts *river.InsertOpts) (bool, error)
}
