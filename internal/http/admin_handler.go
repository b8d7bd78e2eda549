package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"

	"peyda/internal/analytics"
	"peyda/internal/settings"
)

// AdminAnalyticsHandler serves the cross-business overview for the admin
// dashboard: global monthly series, top businesses, catalog status counts
// and top visitor countries.
func AdminAnalyticsHandler(dbm DBManager, logger *slog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		period := parsePeriod(c.Query("period"))

		overview, err := analytics.GetOverview(c.Context(), dbm.GetConnection(), period, time.Now().UTC())
		if err != nil {
			logger.Error("Failed to build admin overview", slog.Any("error", err))
			return c.Status(http.StatusInternalServerError).JSON(fiber.Map{
				"error": "failed to load analytics overview",
			})
		}
		return c.JSON(overview)
	}
}

// ExcludedIPsParams is the update body for the tracking exclusion list.
type ExcludedIPsParams struct {
	IPs []string `json:"ips"`
}

// GetExcludedIPsHandler returns the IPs currently excluded from tracking.
func GetExcludedIPsHandler(dbm DBManager, logger *slog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ips, err := settings.GetExcludedIPs(dbm.GetConnection())
		if err != nil {
			logger.Error("Failed to load excluded IPs", slog.Any("error", err))
			return c.Status(http.StatusInternalServerError).JSON(fiber.Map{
				"error": "failed to load excluded IPs",
			})
		}
		if ips == nil {
			ips = []string{}
		}
		return c.JSON(fiber.Map{"ips": ips})
	}
}

// UpdateExcludedIPsHandler replaces the tracking exclusion list.
func UpdateExcludedIPsHandler(dbm DBManager, logger *slog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var params ExcludedIPsParams
		if err := c.BodyParser(&params); err != nil {
			return c.Status(http.StatusBadRequest).JSON(fiber.Map{
				"error": "invalid request body",
			})
		}

		if err := settings.UpdateExcludedIPs(dbm.GetConnection(), params.IPs); err != nil {
			logger.Error("Failed to update excluded IPs", slog.Any("error", err))
			return c.Status(http.StatusInternalServerError).JSON(fiber.Map{
				"error": "failed to update excluded IPs",
			})
		}

		logger.Info("Updated excluded IPs", slog.Int("count", len(params.IPs)))
		return c.JSON(fiber.Map{"success": true})
	}
}
