// Package http holds the authenticated dashboard and operational handlers.
// The anonymous tracking surface lives in api/v1.
package http

import (
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// DBManager is the subset of the database manager the dashboard handlers
// need: they only ever read.
type DBManager interface {
	GetConnection() *gorm.DB
}

// HealthStatus represents the health check response
type HealthStatus struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	DBStatus  string    `json:"db_status"`
}

// HealthHandler reports process liveness and database connectivity.
func HealthHandler(dbm DBManager, logger *slog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		dbStatus := "ok"

		db := dbm.GetConnection()
		if db == nil {
			dbStatus = "error"
			logger.Error("Database connection unavailable")
		} else {
			sqlDB, err := db.DB()
			if err != nil {
				dbStatus = "error"
				logger.Error("Database connection error", slog.Any("error", err))
			} else if err := sqlDB.Ping(); err != nil {
				dbStatus = "error"
				logger.Error("Database ping failed", slog.Any("error", err))
			}
		}

		health := HealthStatus{
			Status:    "ok",
			Timestamp: time.Now(),
			DBStatus:  dbStatus,
		}
		if dbStatus != "ok" {
			health.Status = "degraded"
		}
		return c.JSON(health)
	}
}
