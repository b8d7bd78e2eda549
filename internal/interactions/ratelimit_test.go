package interactions_test

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"peyda/internal/interactions"
	"peyda/internal/testsupport"
)

func seedRecentEvents(t *testing.T, dbManager *testsupport.TestDBManager, businessID, ip string, count int, occurredAt time.Time) {
	t.Helper()
	db := dbManager.GetConnection()
	for i := 0; i < count; i++ {
		testsupport.CreateTestInteraction(db, businessID, interactions.TypeView, ip, occurredAt)
	}
}

func TestCountRecentByIP(t *testing.T) {
	dbManager, _ := testsupport.SetupTestDBManager(t)
	db := dbManager.GetConnection()
	business := testsupport.CreateTestBusiness(db, "Yazd Pottery Studio")
	now := time.Now().UTC()

	t.Run("counts only events inside the trailing window", func(t *testing.T) {
		ip := "203.0.113.100"
		seedRecentEvents(t, dbManager, business.ID, ip, 3, now.Add(-10*time.Second))
		seedRecentEvents(t, dbManager, business.ID, ip, 5, now.Add(-2*time.Minute))

		count, err := interactions.CountRecentByIP(db, ip, now)
		require.NoError(t, err)
		assert.EqualValues(t, 3, count)
	})

	t.Run("window boundary is exclusive", func(t *testing.T) {
		ip := "203.0.113.101"
		seedRecentEvents(t, dbManager, business.ID, ip, 1, now.Add(-interactions.RateLimitWindow))

		count, err := interactions.CountRecentByIP(db, ip, now)
		require.NoError(t, err)
		assert.EqualValues(t, 0, count)
	})
}

func TestRateLimit(t *testing.T) {
	dbManager, logger := testsupport.SetupTestDBManager(t)
	db := dbManager.GetConnection()
	business := testsupport.CreateTestBusiness(db, "Kerman Spice Shop")
	now := time.Now().UTC()

	record := func(ip string) (*interactions.InteractionEvent, error) {
		return interactions.RecordInteraction(dbManager, logger, &interactions.RecordInput{
			BusinessID: business.ID,
			Type:       "view",
			SourceIP:   ip,
		})
	}

	t.Run("admits the request that fills the window", func(t *testing.T) {
		ip := "203.0.113.110"
		seedRecentEvents(t, dbManager, business.ID, ip, interactions.RateLimitMaxPerWindow-1, now)

		event, err := record(ip)
		require.NoError(t, err)
		assert.NotNil(t, event)
	})

	t.Run("rejects once the window is full", func(t *testing.T) {
		ip := "203.0.113.111"
		seedRecentEvents(t, dbManager, business.ID, ip, interactions.RateLimitMaxPerWindow, now)

		event, err := record(ip)
		require.Error(t, err)
		assert.Nil(t, event)
		assert.Contains(t, err.Error(), "too many")

		var rateErr *interactions.RateLimitedError
		assert.ErrorAs(t, err, &rateErr)
		assert.Equal(t, ip, rateErr.SourceIP)
	})

	t.Run("rejected request writes nothing", func(t *testing.T) {
		ip := "203.0.113.112"
		seedRecentEvents(t, dbManager, business.ID, ip, interactions.RateLimitMaxPerWindow, now)

		_, err := record(ip)
		require.Error(t, err)

		count, err := interactions.CountRecentByIP(db, ip, now.Add(time.Second))
		require.NoError(t, err)
		assert.EqualValues(t, interactions.RateLimitMaxPerWindow, count)
	})

	t.Run("events outside the window do not count", func(t *testing.T) {
		ip := "203.0.113.113"
		seedRecentEvents(t, dbManager, business.ID, ip, interactions.RateLimitMaxPerWindow+10, now.Add(-5*time.Minute))

		event, err := record(ip)
		require.NoError(t, err)
		assert.NotNil(t, event)
	})

	t.Run("empty source ip bypasses the limit", func(t *testing.T) {
		for i := 0; i < interactions.RateLimitMaxPerWindow+5; i++ {
			event, err := record("")
			require.NoError(t, err, "request %d should be admitted", i)
			require.NotNil(t, event)
		}
	})
}

func TestRateLimitIsPerIP(t *testing.T) {
	dbManager, logger := testsupport.SetupTestDBManager(t)
	db := dbManager.GetConnection()
	business := testsupport.CreateTestBusiness(db, "Qom Bookstore")
	now := time.Now().UTC()

	blocked := "203.0.113.120"
	seedRecentEvents(t, dbManager, business.ID, blocked, interactions.RateLimitMaxPerWindow, now)

	for i := 0; i < 3; i++ {
		ip := fmt.Sprintf("203.0.113.%d", 130+i)
		event, err := interactions.RecordInteraction(dbManager, logger, &interactions.RecordInput{
			BusinessID: business.ID,
			Type:       "view",
			SourceIP:   ip,
		})
		require.NoError(t, err)
		assert.NotNil(t, event)
	}
}
