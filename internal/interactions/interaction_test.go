package interactions_test

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"peyda/internal/interactions"
	"peyda/internal/settings"
	"peyda/internal/testsupport"
)

func TestRecordInputValidate(t *testing.T) {
	t.Run("rejects missing business id", func(t *testing.T) {
		input := &interactions.RecordInput{Type: "view"}
		err := input.Validate()

		require.Error(t, err)
		assert.Contains(t, err.Error(), "missing")

		var missingErr *interactions.MissingFieldError
		assert.ErrorAs(t, err, &missingErr)
		assert.Equal(t, "businessId", missingErr.Field)
	})

	t.Run("rejects missing type", func(t *testing.T) {
		input := &interactions.RecordInput{BusinessID: "b-1"}
		err := input.Validate()

		require.Error(t, err)
		assert.Contains(t, err.Error(), "missing")
	})

	t.Run("rejects unknown type", func(t *testing.T) {
		input := &interactions.RecordInput{BusinessID: "b-1", Type: "teleport_click"}
		err := input.Validate()

		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid")

		var invalidErr *interactions.InvalidTypeError
		assert.ErrorAs(t, err, &invalidErr)
	})

	t.Run("accepts every whitelisted type", func(t *testing.T) {
		for _, interactionType := range interactions.AllTypes {
			input := &interactions.RecordInput{BusinessID: "b-1", Type: string(interactionType)}
			assert.NoError(t, input.Validate())
		}
	})
}

func TestRecordInteraction(t *testing.T) {
	dbManager, logger := testsupport.SetupTestDBManager(t)
	db := dbManager.GetConnection()

	t.Run("stores event and bumps monthly counter", func(t *testing.T) {
		business := testsupport.CreateTestBusiness(db, "Cafe Naderi")

		event, err := interactions.RecordInteraction(dbManager, logger, &interactions.RecordInput{
			BusinessID: business.ID,
			Type:       "view",
			SourceIP:   "203.0.113.10",
			UserAgent:  "Mozilla/5.0",
			Referrer:   "https://example.com/cafe-naderi",
		})
		require.NoError(t, err)
		require.NotNil(t, event)
		assert.NotEmpty(t, event.ID)
		assert.Equal(t, interactions.TypeView, event.Type)
		assert.Equal(t, "203.0.113.10", event.SourceIP)

		var row interactions.MonthlyAnalytics
		require.NoError(t, db.Where("business_id = ?", business.ID).First(&row).Error)
		assert.Equal(t, 1, row.ProfileViews)
		assert.Equal(t, interactions.MonthStart(time.Now()), row.MonthStart.UTC())

		_, err = interactions.RecordInteraction(dbManager, logger, &interactions.RecordInput{
			BusinessID: business.ID,
			Type:       "view",
			SourceIP:   "203.0.113.11",
		})
		require.NoError(t, err)

		require.NoError(t, db.Where("business_id = ?", business.ID).First(&row).Error)
		assert.Equal(t, 2, row.ProfileViews)
	})

	t.Run("whatsapp click is logged but never rolled up", func(t *testing.T) {
		business := testsupport.CreateTestBusiness(db, "Shiraz Kebab House")

		event, err := interactions.RecordInteraction(dbManager, logger, &interactions.RecordInput{
			BusinessID: business.ID,
			Type:       "whatsapp_click",
			SourceIP:   "203.0.113.20",
		})
		require.NoError(t, err)
		require.NotNil(t, event)

		var eventCount int64
		db.Model(&interactions.InteractionEvent{}).
			Where("business_id = ?", business.ID).
			Count(&eventCount)
		assert.EqualValues(t, 1, eventCount)

		var rollupCount int64
		db.Model(&interactions.MonthlyAnalytics{}).
			Where("business_id = ?", business.ID).
			Count(&rollupCount)
		assert.EqualValues(t, 0, rollupCount, "whatsapp clicks must not create rollup rows")
	})

	t.Run("validation failure writes nothing", func(t *testing.T) {
		business := testsupport.CreateTestBusiness(db, "Isfahan Carpet Gallery")

		_, err := interactions.RecordInteraction(dbManager, logger, &interactions.RecordInput{
			BusinessID: business.ID,
			Type:       "bogus",
			SourceIP:   "203.0.113.30",
		})
		require.Error(t, err)

		var count int64
		db.Model(&interactions.InteractionEvent{}).
			Where("business_id = ?", business.ID).
			Count(&count)
		assert.EqualValues(t, 0, count)
	})

	t.Run("excluded ip is silently skipped", func(t *testing.T) {
		business := testsupport.CreateTestBusiness(db, "Caspian Guesthouse")
		require.NoError(t, settings.UpdateExcludedIPs(db, []string{"198.51.100.7"}))
		defer func() {
			require.NoError(t, settings.UpdateExcludedIPs(db, nil))
		}()

		event, err := interactions.RecordInteraction(dbManager, logger, &interactions.RecordInput{
			BusinessID: business.ID,
			Type:       "view",
			SourceIP:   "198.51.100.7",
		})
		require.NoError(t, err)
		assert.Nil(t, event)

		var count int64
		db.Model(&interactions.InteractionEvent{}).
			Where("business_id = ?", business.ID).
			Count(&count)
		assert.EqualValues(t, 0, count)
	})

	t.Run("duplicate submissions are stored as separate facts", func(t *testing.T) {
		business := testsupport.CreateTestBusiness(db, "Tabriz Bazaar Sweets")

		for i := 0; i < 3; i++ {
			_, err := interactions.RecordInteraction(dbManager, logger, &interactions.RecordInput{
				BusinessID: business.ID,
				Type:       "phone_click",
				SourceIP:   "203.0.113.40",
			})
			require.NoError(t, err)
		}

		var count int64
		db.Model(&interactions.InteractionEvent{}).
			Where("business_id = ? AND type = ?", business.ID, "phone_click").
			Count(&count)
		assert.EqualValues(t, 3, count)

		var row interactions.MonthlyAnalytics
		require.NoError(t, db.Where("business_id = ?", business.ID).First(&row).Error)
		assert.Equal(t, 3, row.PhoneClicks)
	})
}

func TestMonthlyCounterConcurrentIncrements(t *testing.T) {
	dbManager, logger := testsupport.SetupTestDBManager(t)
	db := dbManager.GetConnection()
	business := testsupport.CreateTestBusiness(db, "Mashhad Auto Repair")

	const workers = 20
	errs := make(chan error, workers)
	for i := 0; i < workers; i++ {
		go func(n int) {
			_, err := interactions.RecordInteraction(dbManager, logger, &interactions.RecordInput{
				BusinessID: business.ID,
				Type:       "website_click",
				// Distinct IPs keep the rate limiter out of this test.
				SourceIP: fmt.Sprintf("203.0.113.%d", 50+n),
			})
			errs <- err
		}(i)
	}
	for i := 0; i < workers; i++ {
		require.NoError(t, <-errs)
	}

	var row interactions.MonthlyAnalytics
	require.NoError(t, db.Where("business_id = ?", business.ID).First(&row).Error)
	assert.Equal(t, workers, row.WebsiteClicks, "no increment may be lost under concurrency")

	var eventCount int64
	db.Model(&interactions.InteractionEvent{}).
		Where("business_id = ?", business.ID).
		Count(&eventCount)
	assert.EqualValues(t, workers, eventCount)
}

func TestMonthStart(t *testing.T) {
	input := time.Date(2026, time.March, 17, 22, 45, 9, 0, time.FixedZone("IRST", 3*3600+1800))
	got := interactions.MonthStart(input)

	assert.Equal(t, time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC), got)
	assert.Equal(t, time.UTC, got.Location())
}

func TestTotalClicks(t *testing.T) {
	row := &interactions.MonthlyAnalytics{
		ProfileViews:     100,
		PhoneClicks:      5,
		WhatsappClicks:   4,
		WebsiteClicks:    3,
		DirectionsClicks: 2,
		EmailClicks:      1,
		BookingClicks:    6,
	}

	// Profile views are excluded; whatsapp clicks count on the read side.
	assert.Equal(t, 21, row.TotalClicks())
}

func TestErrorTypes(t *testing.T) {
	var err error = &interactions.RateLimitedError{SourceIP: "203.0.113.1"}
	assert.Contains(t, err.Error(), "too many")

	var rateErr *interactions.RateLimitedError
	assert.True(t, errors.As(err, &rateErr))
}
