// Package jobs runs the background maintenance work: interaction retention
// cleanup and WAL checkpointing.
package jobs

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"gorm.io/gorm"

	"peyda/internal/config"
)

// DBManager is the subset of the database manager the jobs need.
type DBManager interface {
	GetConnection() *gorm.DB
	CheckpointWAL(mode string) error
}

// Scheduler is responsible for running background jobs
type Scheduler struct {
	dbManager DBManager
	logger    *slog.Logger
	ctx       context.Context
	cancel    context.CancelFunc
	isRunning bool
	cfg       *config.Config

	// Jobs never overlap; a tick that fires while one is running is skipped.
	processingMutex sync.Mutex
	isProcessing    bool

	cleanupJob    *CleanupJob
	checkpointJob *CheckpointJob

	cleanupTicker    *time.Ticker
	checkpointTicker *time.Ticker
}

func NewScheduler(dbManager DBManager, logger *slog.Logger) (*Scheduler, error) {
	ctx, cancel := context.WithCancel(context.Background())
	cfg := config.GetConfig()

	s := &Scheduler{
		dbManager: dbManager,
		logger:    logger,
		ctx:       ctx,
		cancel:    cancel,
		cfg:       cfg,
	}
	s.cleanupJob = NewCleanupJob(dbManager, logger, cfg)
	s.checkpointJob = NewCheckpointJob(dbManager, logger)
	return s, nil
}

// executeJobSafely runs a job only if no other job is currently executing.
func (s *Scheduler) executeJobSafely(jobName string, jobFunc func() error) {
	s.processingMutex.Lock()
	if s.isProcessing {
		s.logger.Debug("Skipping job execution - previous job still running", slog.String("job", jobName))
		s.processingMutex.Unlock()
		return
	}
	s.isProcessing = true
	s.processingMutex.Unlock()

	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("Panic recovered in background job",
				slog.String("job", jobName),
				slog.Any("panic", r))
		}

		s.processingMutex.Lock()
		s.isProcessing = false
		s.processingMutex.Unlock()
	}()

	if err := jobFunc(); err != nil {
		s.logger.Error("Error executing job", slog.String("job", jobName), slog.Any("error", err))
	}
}

// Start begins all background jobs.
func (s *Scheduler) Start() error {
	if s.isRunning {
		s.logger.Info("Background jobs already running.")
		return nil
	}

	s.logger.Info("Starting background jobs...")
	s.isRunning = true

	s.startCleanupJob()
	s.startCheckpointJob()

	return nil
}

func (s *Scheduler) startCleanupJob() {
	interval := 24 * time.Hour
	s.logger.Info("Starting cleanup job", slog.Duration("interval", interval))
	s.cleanupTicker = time.NewTicker(interval)

	go func() {
		s.executeJobSafely("cleanup", s.cleanupJob.Run)

		for {
			select {
			case <-s.cleanupTicker.C:
				s.executeJobSafely("cleanup", s.cleanupJob.Run)
			case <-s.ctx.Done():
				s.logger.Info("Cleanup job stopped")
				return
			}
		}
	}()
}

func (s *Scheduler) startCheckpointJob() {
	interval := time.Duration(s.cfg.JobIntervalSeconds) * time.Second
	s.logger.Info("Starting checkpoint job", slog.Duration("interval", interval))
	s.checkpointTicker = time.NewTicker(interval)

	go func() {
		for {
			select {
			case <-s.checkpointTicker.C:
				s.executeJobSafely("checkpoint", s.checkpointJob.Run)
			case <-s.ctx.Done():
				s.logger.Info("Checkpoint job stopped")
				return
			}
		}
	}()
}

// Stop terminates all background jobs.
func (s *Scheduler) Stop() {
	if !s.isRunning {
		return
	}

	s.logger.Info("Stopping background jobs...")
	s.cancel()

	if s.cleanupTicker != nil {
		s.cleanupTicker.Stop()
	}
	if s.checkpointTicker != nil {
		s.checkpointTicker.Stop()
	}
	s.isRunning = false
}
