// Package internal wires the application together: config, logging,
// database, background jobs and the HTTP server.
package internal

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/gofiber/fiber/v2"

	"peyda/internal/config"
	"peyda/internal/database"
	"peyda/internal/jobs"
	"peyda/internal/logging"
	"peyda/internal/pkg/geoip"
	"peyda/internal/settings"
)

// Application bundles the long-lived components of the service.
type Application struct {
	Config    *config.Config
	Logger    *slog.Logger
	DBManager *database.Manager
	Scheduler *jobs.Scheduler
	Fiber     *fiber.App
}

// NewApp creates a new application instance with default settings.
func NewApp() (*Application, error) {
	return NewAppWithConfig(config.GetConfig())
}

// NewAppWithConfig creates a new application with the provided config.
func NewAppWithConfig(cfg *config.Config) (*Application, error) {
	logger := logging.NewLogger(cfg)
	geoip.InitLogger(logger)

	dbManager := database.NewManager(cfg, logger)
	if err := dbManager.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	if err := dbManager.MigrateDatabase(); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	if err := settings.SetupDefaultSettings(dbManager.GetConnection()); err != nil {
		return nil, fmt.Errorf("failed to seed default settings: %w", err)
	}

	scheduler, err := jobs.NewScheduler(dbManager, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize jobs: %w", err)
	}

	app := fiber.New(fiber.Config{
		AppName:               cfg.AppName,
		DisableStartupMessage: !cfg.IsDevelopment(),
	})
	MountAppRoutes(app, dbManager, logger)

	return &Application{
		Config:    cfg,
		Logger:    logger,
		DBManager: dbManager,
		Scheduler: scheduler,
		Fiber:     app,
	}, nil
}

// Start runs the background jobs and blocks serving HTTP traffic.
func (a *Application) Start() error {
	if err := a.Scheduler.Start(); err != nil {
		return fmt.Errorf("failed to start background jobs: %w", err)
	}

	addr := ":" + a.Config.AppPort
	a.Logger.Info("Starting server",
		slog.String("addr", addr),
		slog.String("environment", a.Config.Environment))
	return a.Fiber.Listen(addr)
}

// StartAsync starts the background jobs and serves HTTP without blocking
// the caller. Listen errors after startup are logged, not returned.
func (a *Application) StartAsync() error {
	if err := a.Scheduler.Start(); err != nil {
		return fmt.Errorf("failed to start background jobs: %w", err)
	}

	addr := ":" + a.Config.AppPort
	a.Logger.Info("Starting server",
		slog.String("addr", addr),
		slog.String("environment", a.Config.Environment))
	go func() {
		if err := a.Fiber.Listen(addr); err != nil {
			a.Logger.Error("Server stopped", slog.Any("error", err))
		}
	}()
	return nil
}

// Shutdown stops the HTTP server, background jobs and database in order.
func (a *Application) Shutdown(ctx context.Context) error {
	a.Logger.Info("Shutting down...")

	if err := a.Fiber.ShutdownWithContext(ctx); err != nil {
		a.Logger.Error("Error shutting down server", slog.Any("error", err))
	}

	a.Scheduler.Stop()

	if err := a.DBManager.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}
	return nil
}
