// Package v1 exposes the public tracking surface: the ingest endpoint and
// the embeddable tracker script.
package v1

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"peyda/internal/interactions"
	"peyda/internal/pkg/botcheck"
)

// TrackParams is the ingest request body.
type TrackParams struct {
	BusinessID string `json:"businessId"`
	Type       string `json:"type"`
}

// TrackHandler accepts one interaction event. Bots get a success response
// without a write, so crawlers see nothing worth probing; real validation
// and rate-limit failures map to 400 and 429.
func TrackHandler(dbm interactions.DBManager, logger *slog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var params TrackParams
		if err := c.BodyParser(&params); err != nil {
			return c.Status(http.StatusBadRequest).JSON(fiber.Map{
				"error": "invalid request body",
			})
		}

		userAgent := c.Get("User-Agent")
		if bot := botcheck.DetectBot(userAgent); bot != nil {
			logger.Debug("Dropping bot interaction",
				slog.String("bot", bot.Name),
				slog.String("businessId", params.BusinessID))
			return c.JSON(fiber.Map{"success": true})
		}

		input := &interactions.RecordInput{
			BusinessID: params.BusinessID,
			Type:       params.Type,
			SourceIP:   getClientIP(c),
			UserAgent:  userAgent,
			Referrer:   c.Get("Referer"),
		}

		if _, err := interactions.RecordInteraction(dbm, logger, input); err != nil {
			return trackError(c, logger, err)
		}
		return c.JSON(fiber.Map{"success": true})
	}
}

func trackError(c *fiber.Ctx, logger *slog.Logger, err error) error {
	var missingErr *interactions.MissingFieldError
	var invalidErr *interactions.InvalidTypeError
	var rateErr *interactions.RateLimitedError

	switch {
	case errors.As(err, &missingErr), errors.As(err, &invalidErr):
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	case errors.As(err, &rateErr):
		return c.Status(http.StatusTooManyRequests).JSON(fiber.Map{
			"error": err.Error(),
		})
	default:
		logger.Error("Failed to record interaction", slog.Any("error", err))
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to record interaction",
		})
	}
}
