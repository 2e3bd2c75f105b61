package worker

import (
	"context"
	"fmt"
	"time"

	"ipinsight/pkg/logger"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/riverqueue/river"
	"github.com/riverqueue/river/riverdriver/riverpgxv5"
)

// Options configures the River client started by Start.
type Options struct {
	// Interval between two scheduled maintenance runs.
	Interval time.Duration
	// MaxWorkers is the size of the default queue worker pool.
	MaxWorkers int
}

// Start runs the janitor as a River periodic job on the database behind
// dbPool. The first run happens right after start.
func Start(ctx context.Context, dbPool *pgxpool.Pool, j *Janitor, opts Options) (*river.Client[pgx.Tx], error) {
	if opts.MaxWorkers <= 0 {
		opts.MaxWorkers = 1
	}

	workers := river.NewWorkers()
	river.AddWorker(workers, NewMaintenanceWorker(j))

	riverClient, err := river.NewClient(riverpgxv5.New(dbPool), &river.Config{
		Queues: map[string]river.QueueConfig{
			river.QueueDefault: {MaxWorkers: opts.MaxWorkers},
		},
		PeriodicJobs: []*river.PeriodicJob{
			river.NewPeriodicJob(
				river.PeriodicInterval(opts.Interval),
				func() (river.JobArgs, *river.InsertOpts) {
					return MaintenanceArgs{}, nil
				},
				&river.PeriodicJobOpts{RunOnStart: true},
			),
		},
		Workers: workers,
		Logger:  logger.Slog(ctx),
	})
	if err != nil {
		return nil, fmt.Errorf("could not create river queue client: %w", err)
	}

	if err := riverClient.Start(ctx); err != nil {
		return nil, fmt.Errorf("could not start river queue client: %w", err)
	}

	return riverClient, nil
}
