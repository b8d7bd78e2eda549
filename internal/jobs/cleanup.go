package jobs

import (
	"log/slog"
	"time"

	"peyda/internal/config"
	"peyda/internal/interactions"
)

// CleanupJob deletes raw interaction events past the retention period. The
// monthly rollups are kept forever, so dashboards lose nothing.
type CleanupJob struct {
	dbManager DBManager
	logger    *slog.Logger
	cfg       *config.Config
}

func NewCleanupJob(dbManager DBManager, logger *slog.Logger, cfg *config.Config) *CleanupJob {
	return &CleanupJob{
		dbManager: dbManager,
		logger:    logger,
		cfg:       cfg,
	}
}

// Run removes interaction events older than the retention period. A
// retention of 0 disables the job entirely.
func (j *CleanupJob) Run() error {
	retentionDays := j.cfg.InteractionRetentionDays
	if retentionDays <= 0 {
		j.logger.Debug("Interaction retention disabled, skipping cleanup")
		return nil
	}

	db := j.dbManager.GetConnection()
	cutoffDate := time.Now().UTC().AddDate(0, 0, -retentionDays)

	var countToDelete int64
	if err := db.Model(&interactions.InteractionEvent{}).
		Where("occurred_at < ?", cutoffDate).
		Count(&countToDelete).Error; err != nil {
		j.logger.Error("Failed to count old interactions", slog.Any("error", err))
		return err
	}

	if countToDelete == 0 {
		j.logger.Debug("No old interactions to clean up")
		return nil
	}

	// Delete in batches to avoid locking the database for too long.
	batchSize := 1000
	totalDeleted := int64(0)

	for {
		result := db.Where("occurred_at < ?", cutoffDate).
			Limit(batchSize).
			Delete(&interactions.InteractionEvent{})
		if result.Error != nil {
			j.logger.Error("Failed to delete old interactions",
				slog.Any("error", result.Error),
				slog.Int64("deleted_so_far", totalDeleted))
			return result.Error
		}

		totalDeleted += result.RowsAffected
		if result.RowsAffected < int64(batchSize) {
			break
		}

		time.Sleep(100 * time.Millisecond)
	}

	j.logger.Info("Cleaned up old interactions",
		slog.Int64("deleted_count", totalDeleted),
		slog.Int("retention_days", retentionDays))
	return nil
}
