package worker

import (
	"context"
	"fmt"
	"time"

	"ipinsight/pkg/logger"
	"ipinsight/pkg/storage"

	"github.com/riverqueue/river"
	"github.com/riverqueue/river/rivertype"
	"go.uber.org/zap"
)

// MaintenanceArgs is the River job running the janitor.
type MaintenanceArgs struct{}

// Kind returns the River job kind used to register and dispatch the maintenance worker.
func (MaintenanceArgs) Kind() string { return "MaintenanceJob" }

// InsertOpts keeps at most one pending maintenance job at a time.
func (MaintenanceArgs) InsertOpts() river.InsertOpts {
	return river.InsertOpts{
		MaxAttempts: 1,
		UniqueOpts: river.UniqueOpts{
			ByArgs: true,
			ByState: []rivertype.JobState{
				rivertype.JobStateAvailable,
				rivertype.JobStatePending,
				rivertype.JobStateRunning,
				rivertype.JobStateScheduled,
			},
		},
	}
}

// MaintenanceWorker is a River worker running the janitor.
type MaintenanceWorker struct {
	river.WorkerDefaults[MaintenanceArgs]

	janitor *Janitor
}

// NewMaintenanceWorker constructs a MaintenanceWorker running j.
func NewMaintenanceWorker(j *Janitor) *MaintenanceWorker {
	return &MaintenanceWorker{janitor: j}
}

// Work runs one maintenance pass. Storage failures are already logged and
// swallowed by the stores, so a job never fails.
func (w *MaintenanceWorker) Work(ctx context.Context, job *river.Job[MaintenanceArgs]) error {
	ctx = logger.WithFields(ctx, zap.Int64("jobID", job.ID))

	r := w.janitor.Run(ctx)
	logger.Info(ctx, "maintenance job completed",
		zap.Int("expiredCacheEntries", r.ExpiredCacheEntries),
		zap.Int("oldHistoryEntries", r.OldHistoryEntries))

	return nil
}

// Timeout bounds a single maintenance run.
func (w *MaintenanceWorker) Timeout(*river.Job[MaintenanceArgs]) time.Duration {
	return time.Minute
}

// Trigger requests a maintenance run. Storage drivers with a job queue get a
// job enqueued and Trigger reports queued; otherwise the janitor runs inline
// and its report is returned.
func Trigger(ctx context.Context, s storage.Storage, j *Janitor) (bool, *Report, error) {
	if js, ok := s.(storage.JobStorage); ok {
		if _, err := js.AddJob(ctx, MaintenanceArgs{}, nil); err != nil {
			return false, nil, fmt.Errorf("could not enqueue maintenance job: %w", err)
		}

		return true, nil, nil
	}

	r := j.Run(ctx)

	return false, &r, nil
}
