package internal

import (
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"

	v1 "peyda/api/v1"
	"peyda/internal/config"
	"peyda/internal/database"
	"peyda/internal/http"
	"peyda/internal/http/middleware"
)

// publicCORSConfig is shared by every anonymous endpoint: tracking requests
// arrive from arbitrary business-profile origins.
var publicCORSConfig = cors.Config{
	AllowOrigins: "*",
	AllowMethods: "POST,GET,OPTIONS",
	AllowHeaders: "Origin, Content-Type, Accept, Referer, User-Agent",
}

// MountAppRoutes mounts all application routes.
func MountAppRoutes(app *fiber.App, dbManager *database.Manager, logger *slog.Logger) {
	cfg := config.GetConfig()
	db := dbManager.GetConnection()

	// Route-level ceiling in front of the persisted per-IP limiter. Only
	// active in production; in development and test it would get in the way.
	publicRateLimiter := conditionalRateLimiter(cfg, limiter.New(limiter.Config{
		Max:        cfg.PublicRateLimitPerMinute,
		Expiration: time.Minute,
	}))

	public := app.Group("/x/api/v1", cors.New(publicCORSConfig), publicRateLimiter)
	public.Post("/track", v1.TrackHandler(dbManager, logger))
	public.Get("/tracker.js", v1.TrackerScriptHandler(logger))

	api := app.Group("/api/v1", cors.New(publicCORSConfig))
	api.Get("/businesses/:id/analytics", http.BusinessAnalyticsHandler(dbManager, logger))

	admin := app.Group("/admin/api", middleware.AdminBasicAuth(db, logger))
	admin.Get("/analytics", http.AdminAnalyticsHandler(dbManager, logger))
	admin.Get("/settings/excluded-ips", http.GetExcludedIPsHandler(dbManager, logger))
	admin.Put("/settings/excluded-ips", http.UpdateExcludedIPsHandler(dbManager, logger))

	app.Get("/_health", http.HealthHandler(dbManager, logger))
}

func conditionalRateLimiter(cfg *config.Config, rateLimiter fiber.Handler) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if cfg.IsProduction() {
			return rateLimiter(c)
		}
		return c.Next()
	}
}
