package jobs

import (
	"context"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/Nbras002/MHV-PS/internal/auth"
)

// SessionSweepJob removes expired session audit rows.
type SessionSweepJob struct {
	repo   auth.Repository
	logger *slog.Logger
}

// NewSessionSweepJob constructs the job.
func NewSessionSweepJob(repo auth.Repository, logger *slog.Logger) *SessionSweepJob {
	return &SessionSweepJob{repo: repo, logger: logger}
}

// Handle processes TaskSessionSweep tasks.
func (j *SessionSweepJob) Handle(ctx context.Context, t *asynq.Task) error {
	removed, err := j.repo.DeleteExpiredSessions(ctx, time.Now().UTC())
	if err != nil {
		if j.logger != nil {
			j.logger.Error("session sweep", slog.Any("error", err))
		}
		return err
	}
	if j.logger != nil && removed > 0 {
		j.logger.Info("swept expired sessions", slog.Int64("removed", removed))
	}
	return nil
}
