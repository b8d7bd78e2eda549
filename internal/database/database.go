// Package database manages the SQLite connection used by the whole service.
package database

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"peyda/internal/businesses"
	"peyda/internal/config"
	"peyda/internal/interactions"
	"peyda/internal/settings"
	"peyda/internal/users"
)

const (
	busyTimeoutMs   = 5000
	writeRetries    = 5
	writeRetryDelay = 50 * time.Millisecond
)

// Manager owns the GORM connection and serializes writes against SQLite.
type Manager struct {
	cfg    *config.Config
	logger *slog.Logger

	mu sync.Mutex
	db *gorm.DB

	// Single-writer lock: SQLite allows one writer at a time, so funneling
	// writes through one mutex avoids most SQLITE_BUSY churn up front.
	writeMu sync.Mutex
}

// NewManager creates a database manager for the given configuration.
func NewManager(cfg *config.Config, logger *slog.Logger) *Manager {
	return &Manager{cfg: cfg, logger: logger}
}

// Init opens the database connection, creating the storage directory if needed.
func (m *Manager) Init() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.db != nil {
		return nil
	}

	path := m.cfg.GetDatabasePath()
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create storage directory: %w", err)
		}
	}

	dsn := fmt.Sprintf("%s?_busy_timeout=%d&_journal_mode=WAL&_txlock=immediate", path, busyTimeoutMs)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to access underlying sql.DB: %w", err)
	}
	sqlDB.SetMaxOpenConns(m.cfg.GetMaxOpenConns())
	sqlDB.SetMaxIdleConns(m.cfg.GetMaxIdleConns())

	db.Exec("PRAGMA foreign_keys = ON")

	m.db = db
	m.logger.Info("Database connection established", slog.String("path", path))
	return nil
}

// GetConnection returns the shared GORM connection.
func (m *Manager) GetConnection() *gorm.DB {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.db
}

// Close closes the underlying connection pool.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.db == nil {
		return nil
	}
	sqlDB, err := m.db.DB()
	if err != nil {
		return err
	}
	m.db = nil
	return sqlDB.Close()
}

// MigrateDatabase runs all model migrations in a single transaction.
func (m *Manager) MigrateDatabase() error {
	db := m.GetConnection()
	if db == nil {
		return gorm.ErrInvalidDB
	}

	err := db.Transaction(func(tx *gorm.DB) error {
		return tx.AutoMigrate(
			&businesses.Business{},
			&interactions.InteractionEvent{},
			&interactions.MonthlyAnalytics{},
			&settings.Setting{},
			&users.User{},
		)
	})
	if err != nil {
		m.logger.Error("Failed to auto-migrate database", slog.Any("error", err))
		return err
	}

	if err := m.CheckpointWAL("FULL"); err != nil {
		m.logger.Warn("Failed to checkpoint WAL after migration", slog.Any("error", err))
	}

	m.logger.Info("Database migration completed successfully")
	return nil
}

// CheckpointWAL forces a WAL checkpoint with the given mode (PASSIVE, FULL,
// RESTART or TRUNCATE).
func (m *Manager) CheckpointWAL(mode string) error {
	db := m.GetConnection()
	if db == nil {
		return gorm.ErrInvalidDB
	}
	return db.Exec(fmt.Sprintf("PRAGMA wal_checkpoint(%s)", mode)).Error
}

// PerformWrite runs fn inside a transaction, retrying on SQLITE_BUSY.
// All mutating call sites go through here so writes stay serialized.
func (m *Manager) PerformWrite(fn func(tx *gorm.DB) error) error {
	db := m.GetConnection()
	if db == nil {
		return gorm.ErrInvalidDB
	}

	m.writeMu.Lock()
	defer m.writeMu.Unlock()

	var err error
	for attempt := 0; attempt < writeRetries; attempt++ {
		err = db.Transaction(fn)
		if err == nil || !isBusyError(err) {
			return err
		}

		m.logger.Debug("Retrying write after busy database",
			slog.Int("attempt", attempt+1),
			slog.Any("error", err))
		time.Sleep(writeRetryDelay << attempt)
	}
	return fmt.Errorf("write failed after %d attempts: %w", writeRetries, err)
}

func isBusyError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "database is locked") || strings.Contains(msg, "busy")
}
