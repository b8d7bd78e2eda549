// Package analytics reconstructs dashboard time series and summary
// statistics from the monthly rollup rows maintained by the ingest pipeline.
package analytics

import (
	"time"

	"gorm.io/gorm"

	"peyda/internal/interactions"
)

const monthKeyLayout = "2006-01"

// DefaultPeriodMonths is the series length when the caller does not ask for
// a specific period. MaxPeriodMonths caps what a caller may request.
const (
	DefaultPeriodMonths = 12
	MaxPeriodMonths     = 60
)

// MonthlyDataPoint is one month of a business's series, zero-filled when no
// rollup row exists for that month.
type MonthlyDataPoint struct {
	Month            string `json:"month"`
	ProfileViews     int    `json:"profileViews"`
	PhoneClicks      int    `json:"phoneClicks"`
	WhatsappClicks   int    `json:"whatsappClicks"`
	WebsiteClicks    int    `json:"websiteClicks"`
	DirectionsClicks int    `json:"directionsClicks"`
	EmailClicks      int    `json:"emailClicks"`
	BookingClicks    int    `json:"bookingClicks"`
}

// CounterTotals sums every counter across a queried period.
type CounterTotals struct {
	ProfileViews     int `json:"profileViews"`
	PhoneClicks      int `json:"phoneClicks"`
	WhatsappClicks   int `json:"whatsappClicks"`
	WebsiteClicks    int `json:"websiteClicks"`
	DirectionsClicks int `json:"directionsClicks"`
	EmailClicks      int `json:"emailClicks"`
	BookingClicks    int `json:"bookingClicks"`
}

// DateRange is the inclusive month span a series covers.
type DateRange struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// BusinessSeries is the full analytics payload for one business and period.
type BusinessSeries struct {
	MonthlyData    []MonthlyDataPoint `json:"monthlyData"`
	Totals         CounterTotals      `json:"totals"`
	TotalClicks    int                `json:"totalClicks"`
	ConversionRate float64            `json:"conversionRate"`
	Trend          TrendSet           `json:"trend"`
	DateRange      DateRange          `json:"dateRange"`
}

// NormalizePeriod clamps a requested period to [1, MaxPeriodMonths], falling
// back to the default for zero or negative input.
func NormalizePeriod(months int) int {
	if months <= 0 {
		return DefaultPeriodMonths
	}
	if months > MaxPeriodMonths {
		return MaxPeriodMonths
	}
	return months
}

// GetBusinessSeries builds the gap-filled monthly series for one business,
// ending at the month containing now. The result always has exactly months
// entries in ascending order.
func GetBusinessSeries(db *gorm.DB, businessID string, months int, now time.Time) (*BusinessSeries, error) {
	months = NormalizePeriod(months)
	start := periodStart(now, months)

	rows, err := interactions.GetMonthlyRowsSince(db, businessID, start)
	if err != nil {
		return nil, err
	}

	byMonth := make(map[string]interactions.MonthlyAnalytics, len(rows))
	for _, row := range rows {
		byMonth[row.MonthStart.UTC().Format(monthKeyLayout)] = row
	}

	series := buildSeries(start, months, byMonth)
	totals := sumSeries(series)
	totalClicks := totals.PhoneClicks + totals.WhatsappClicks + totals.WebsiteClicks +
		totals.DirectionsClicks + totals.EmailClicks + totals.BookingClicks

	return &BusinessSeries{
		MonthlyData:    series,
		Totals:         totals,
		TotalClicks:    totalClicks,
		ConversionRate: ConversionRate(totalClicks, totals.ProfileViews),
		Trend:          computeTrends(series),
		DateRange: DateRange{
			From: series[0].Month,
			To:   series[len(series)-1].Month,
		},
	}, nil
}

// ConversionRate is clicks per hundred profile views, rounded to one
// decimal. Zero views means a rate of exactly 0, never NaN or Inf.
func ConversionRate(totalClicks, profileViews int) float64 {
	if profileViews == 0 {
		return 0
	}
	return round1(float64(totalClicks) / float64(profileViews) * 100)
}

// periodStart returns the first month of a period of the given length whose
// final month contains now.
func periodStart(now time.Time, months int) time.Time {
	current := interactions.MonthStart(now)
	return current.AddDate(0, -(months - 1), 0)
}

func buildSeries(start time.Time, months int, byMonth map[string]interactions.MonthlyAnalytics) []MonthlyDataPoint {
	series := make([]MonthlyDataPoint, 0, months)
	for i := 0; i < months; i++ {
		key := start.AddDate(0, i, 0).Format(monthKeyLayout)
		point := MonthlyDataPoint{Month: key}
		if row, ok := byMonth[key]; ok {
			point.ProfileViews = row.ProfileViews
			point.PhoneClicks = row.PhoneClicks
			point.WhatsappClicks = row.WhatsappClicks
			point.WebsiteClicks = row.WebsiteClicks
			point.DirectionsClicks = row.DirectionsClicks
			point.EmailClicks = row.EmailClicks
			point.BookingClicks = row.BookingClicks
		}
		series = append(series, point)
	}
	return series
}

func sumSeries(series []MonthlyDataPoint) CounterTotals {
	var totals CounterTotals
	for _, point := range series {
		totals.ProfileViews += point.ProfileViews
		totals.PhoneClicks += point.PhoneClicks
		totals.WhatsappClicks += point.WhatsappClicks
		totals.WebsiteClicks += point.WebsiteClicks
		totals.DirectionsClicks += point.DirectionsClicks
		totals.EmailClicks += point.EmailClicks
		totals.BookingClicks += point.BookingClicks
	}
	return totals
}
