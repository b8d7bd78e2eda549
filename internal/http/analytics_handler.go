package http

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"

	"peyda/internal/analytics"
	"peyda/internal/businesses"
)

// BusinessAnalyticsResponse is the per-business dashboard payload.
type BusinessAnalyticsResponse struct {
	Business       *businesses.Business          `json:"business"`
	MonthlyData    []analytics.MonthlyDataPoint  `json:"monthlyData"`
	Totals         analytics.CounterTotals       `json:"totals"`
	TotalClicks    int                           `json:"totalClicks"`
	ConversionRate float64                       `json:"conversionRate"`
	Trend          analytics.TrendSet            `json:"trend"`
	DateRange      analytics.DateRange           `json:"dateRange"`
}

// BusinessAnalyticsHandler serves the monthly series for one business.
// The period query parameter selects the series length in months.
func BusinessAnalyticsHandler(dbm DBManager, logger *slog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		businessID := c.Params("id")
		period := parsePeriod(c.Query("period"))

		db := dbm.GetConnection()
		business, err := businesses.GetBusinessByID(db, businessID)
		if err != nil {
			var notFoundErr *businesses.BusinessNotFoundError
			if errors.As(err, &notFoundErr) {
				return c.Status(http.StatusNotFound).JSON(fiber.Map{
					"error": err.Error(),
				})
			}
			logger.Error("Failed to load business", slog.String("businessId", businessID), slog.Any("error", err))
			return c.Status(http.StatusInternalServerError).JSON(fiber.Map{
				"error": "failed to load business",
			})
		}

		series, err := analytics.GetBusinessSeries(db, businessID, period, time.Now().UTC())
		if err != nil {
			logger.Error("Failed to build analytics series",
				slog.String("businessId", businessID),
				slog.Any("error", err))
			return c.Status(http.StatusInternalServerError).JSON(fiber.Map{
				"error": "failed to load analytics",
			})
		}

		return c.JSON(BusinessAnalyticsResponse{
			Business:       business,
			MonthlyData:    series.MonthlyData,
			Totals:         series.Totals,
			TotalClicks:    series.TotalClicks,
			ConversionRate: series.ConversionRate,
			Trend:          series.Trend,
			DateRange:      series.DateRange,
		})
	}
}

// parsePeriod turns the raw period query value into a sane month count.
// Anything unparseable falls back to the default period.
func parsePeriod(raw string) int {
	if raw == "" {
		return analytics.DefaultPeriodMonths
	}
	months, err := strconv.Atoi(raw)
	if err != nil {
		return analytics.DefaultPeriodMonths
	}
	return analytics.NormalizePeriod(months)
}
