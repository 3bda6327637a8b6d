package jobs

import (
	"context"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/Nbras002/MHV-PS/internal/stats"
)

// StatsRefreshJob warms the statistics cache.
type StatsRefreshJob struct {
	service *stats.Service
	logger  *slog.Logger
}

// NewStatsRefreshJob constructs the job.
func NewStatsRefreshJob(service *stats.Service, logger *slog.Logger) *StatsRefreshJob {
	return &StatsRefreshJob{service: service, logger: logger}
}

// Handle processes TaskStatsRefresh tasks.
func (j *StatsRefreshJob) Handle(ctx context.Context, t *asynq.Task) error {
	summary, err := j.service.Refresh(ctx)
	if err != nil {
		if j.logger != nil {
			j.logger.Error("stats refresh", slog.Any("error", err))
		}
		return err
	}
	if j.logger != nil {
		j.logger.Info("stats cache refreshed",
			slog.Int("total_permits", summary.TotalPermits),
			slog.Int("open_permits", summary.OpenPermits))
	}
	return nil
}
