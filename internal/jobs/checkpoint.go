package jobs

import (
	"log/slog"
)

// CheckpointJob periodically folds the SQLite WAL back into the main
// database file so the log cannot grow without bound under steady ingest.
type CheckpointJob struct {
	dbManager DBManager
	logger    *slog.Logger
}

func NewCheckpointJob(dbManager DBManager, logger *slog.Logger) *CheckpointJob {
	return &CheckpointJob{
		dbManager: dbManager,
		logger:    logger,
	}
}

func (j *CheckpointJob) Run() error {
	if err := j.dbManager.CheckpointWAL("TRUNCATE"); err != nil {
		j.logger.Error("WAL checkpoint failed", slog.Any("error", err))
		return err
	}
	j.logger.Debug("WAL checkpoint completed")
	return nil
}
