package analytics

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/pariz/gountries"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gorm.io/gorm"

	"peyda/internal/businesses"
	"peyda/internal/interactions"
	"peyda/internal/pkg/async"
	"peyda/internal/pkg/geoip"
)

// TopBusinessesLimit and TopCountriesLimit bound the ranked lists in the
// admin overview.
const (
	TopBusinessesLimit = 10
	TopCountriesLimit  = 10

	overviewWorkers = 4
)

// BusinessRanking is one entry of the admin top-businesses list.
type BusinessRanking struct {
	BusinessID   string `json:"businessId"`
	Name         string `json:"name"`
	Slug         string `json:"slug"`
	City         string `json:"city"`
	ProfileViews int    `json:"profileViews"`
	TotalClicks  int    `json:"totalClicks"`
}

// CountryCount is one entry of the admin top-countries list.
type CountryCount struct {
	Code  string `json:"code"`
	Name  string `json:"name"`
	Count int64  `json:"count"`
}

// Overview is the cross-business analytics payload for the admin dashboard.
type Overview struct {
	MonthlyData   []MonthlyDataPoint        `json:"monthlyData"`
	Totals        CounterTotals             `json:"totals"`
	TotalClicks   int                       `json:"totalClicks"`
	TopBusinesses []BusinessRanking         `json:"topBusinesses"`
	BusinessStats businesses.StatusCounts   `json:"businessStats"`
	TopCountries  []CountryCount            `json:"topCountries"`
	DateRange     DateRange                 `json:"dateRange"`
}

var (
	countryQuery     *gountries.Query
	countryQueryOnce sync.Once
	countryTitle     = cases.Title(language.English)
)

// GetOverview aggregates rollups across all businesses for the period ending
// at the month containing now. The four underlying queries run concurrently;
// if any of them fails the whole overview fails.
func GetOverview(ctx context.Context, db *gorm.DB, months int, now time.Time) (*Overview, error) {
	months = NormalizePeriod(months)
	start := periodStart(now, months)

	tasks := []async.Task{
		{Name: "monthly", Run: func() (any, error) {
			return globalMonthlyRows(db, start)
		}},
		{Name: "top_businesses", Run: func() (any, error) {
			return topBusinesses(db, start)
		}},
		{Name: "business_stats", Run: func() (any, error) {
			return businesses.CountByStatus(db)
		}},
		{Name: "top_countries", Run: func() (any, error) {
			return topCountries(db, start)
		}},
	}

	results := async.RunAll(ctx, overviewWorkers, tasks)
	if err := async.FirstError(results); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	byMonth := results["monthly"].Data.(map[string]interactions.MonthlyAnalytics)
	series := buildSeries(start, months, byMonth)
	totals := sumSeries(series)
	totalClicks := totals.PhoneClicks + totals.WhatsappClicks + totals.WebsiteClicks +
		totals.DirectionsClicks + totals.EmailClicks + totals.BookingClicks

	return &Overview{
		MonthlyData:   series,
		Totals:        totals,
		TotalClicks:   totalClicks,
		TopBusinesses: results["top_businesses"].Data.([]BusinessRanking),
		BusinessStats: results["business_stats"].Data.(businesses.StatusCounts),
		TopCountries:  results["top_countries"].Data.([]CountryCount),
		DateRange: DateRange{
			From: series[0].Month,
			To:   series[len(series)-1].Month,
		},
	}, nil
}

// globalMonthlyRows sums every counter across businesses, one synthetic
// rollup row per month, keyed the same way as a single-business series.
func globalMonthlyRows(db *gorm.DB, start time.Time) (map[string]interactions.MonthlyAnalytics, error) {
	var rows []interactions.MonthlyAnalytics
	err := db.Model(&interactions.MonthlyAnalytics{}).
		Select(`month_start,
			SUM(profile_views) AS profile_views,
			SUM(phone_clicks) AS phone_clicks,
			SUM(whatsapp_clicks) AS whatsapp_clicks,
			SUM(website_clicks) AS website_clicks,
			SUM(directions_clicks) AS directions_clicks,
			SUM(email_clicks) AS email_clicks,
			SUM(booking_clicks) AS booking_clicks`).
		Where("month_start >= ?", start).
		Group("month_start").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	byMonth := make(map[string]interactions.MonthlyAnalytics, len(rows))
	for _, row := range rows {
		byMonth[row.MonthStart.UTC().Format(monthKeyLayout)] = row
	}
	return byMonth, nil
}

func topBusinesses(db *gorm.DB, start time.Time) ([]BusinessRanking, error) {
	type rankedRow struct {
		BusinessID   string
		Name         string
		Slug         string
		City         string
		ProfileViews int
		TotalClicks  int
	}

	var rows []rankedRow
	err := db.Table("monthly_analytics").
		Select(`monthly_analytics.business_id,
			businesses.name,
			businesses.slug,
			businesses.city,
			SUM(monthly_analytics.profile_views) AS profile_views,
			SUM(monthly_analytics.phone_clicks
				+ monthly_analytics.whatsapp_clicks
				+ monthly_analytics.website_clicks
				+ monthly_analytics.directions_clicks
				+ monthly_analytics.email_clicks
				+ monthly_analytics.booking_clicks) AS total_clicks`).
		Joins("JOIN businesses ON businesses.id = monthly_analytics.business_id").
		Where("monthly_analytics.month_start >= ?", start).
		Group("monthly_analytics.business_id").
		Order("profile_views DESC").
		Limit(TopBusinessesLimit).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	rankings := make([]BusinessRanking, 0, len(rows))
	for _, row := range rows {
		rankings = append(rankings, BusinessRanking{
			BusinessID:   row.BusinessID,
			Name:         row.Name,
			Slug:         row.Slug,
			City:         row.City,
			ProfileViews: row.ProfileViews,
			TotalClicks:  row.TotalClicks,
		})
	}
	return rankings, nil
}

// topCountries ranks interaction volume by resolved country. Events without
// a resolved country are left out of the ranking.
func topCountries(db *gorm.DB, start time.Time) ([]CountryCount, error) {
	type countryRow struct {
		Country string
		Count   int64
	}

	var rows []countryRow
	err := db.Model(&interactions.InteractionEvent{}).
		Select("country, COUNT(*) AS count").
		Where("occurred_at >= ? AND country != ? AND country != ''", start, geoip.UnknownCountry).
		Group("country").
		Order("count DESC").
		Limit(TopCountriesLimit).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := make([]CountryCount, 0, len(rows))
	for _, row := range rows {
		counts = append(counts, CountryCount{
			Code:  row.Country,
			Name:  countryDisplayName(row.Country),
			Count: row.Count,
		})
	}
	return counts, nil
}

// countryDisplayName maps a stored lowercase ISO code to an English country
// name, falling back to the title-cased code when unknown.
func countryDisplayName(code string) string {
	countryQueryOnce.Do(func() {
		countryQuery = gountries.New()
	})
	if country, err := countryQuery.FindCountryByAlpha(strings.ToUpper(code)); err == nil {
		return country.Name.Common
	}
	return countryTitle.String(code)
}
