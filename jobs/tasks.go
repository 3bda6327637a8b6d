package jobs

import (
	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskStatsRefresh recomputes and caches the permit statistics summary.
	TaskStatsRefresh = "stats:refresh"
	// TaskSessionSweep removes expired session audit rows from postgres.
	TaskSessionSweep = "sessions:sweep"
)

// NewStatsRefreshTask constructs the stats refresh task.
func NewStatsRefreshTask() *asynq.Task {
	return asynq.NewTask(TaskStatsRefresh, nil)
}

// NewSessionSweepTask constructs the session sweep task.
func NewSessionSweepTask() *asynq.Task {
	return asynq.NewTask(TaskSessionSweep, nil)
}
