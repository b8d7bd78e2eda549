package v1_test

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	v1 "peyda/api/v1"
	"peyda/internal/interactions"
	"peyda/internal/testsupport"
)

const browserUA = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/126.0.0.0 Safari/537.36"

func setupTrackApp(t *testing.T) (*fiber.App, *testsupport.TestDBManager) {
	t.Helper()
	dbManager, logger := testsupport.SetupTestDBManager(t)

	app := fiber.New()
	app.Post("/x/api/v1/track", v1.TrackHandler(dbManager, logger))
	return app, dbManager
}

func postTrack(t *testing.T, app *fiber.App, body, sourceIP, userAgent string) (*http.Response, map[string]any) {
	t.Helper()

	req := httptest.NewRequest("POST", "/x/api/v1/track", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if sourceIP != "" {
		req.Header.Set("X-Forwarded-For", sourceIP)
	}
	if userAgent != "" {
		req.Header.Set("User-Agent", userAgent)
	}

	resp, err := app.Test(req)
	require.NoError(t, err)

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	resp.Body.Close()

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(raw, &decoded))
	return resp, decoded
}

func TestTrackHandler(t *testing.T) {
	app, dbManager := setupTrackApp(t)
	db := dbManager.GetConnection()

	t.Run("accepts a valid interaction", func(t *testing.T) {
		business := testsupport.CreateTestBusiness(db, "Cafe Naderi")

		resp, body := postTrack(t, app,
			`{"businessId":"`+business.ID+`","type":"phone_click"}`,
			"203.0.113.50", browserUA)

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, true, body["success"])

		var event interactions.InteractionEvent
		require.NoError(t, db.Where("business_id = ?", business.ID).First(&event).Error)
		assert.Equal(t, "203.0.113.50", event.SourceIP)
		assert.Equal(t, browserUA, event.UserAgent)

		var row interactions.MonthlyAnalytics
		require.NoError(t, db.Where("business_id = ?", business.ID).First(&row).Error)
		assert.Equal(t, 1, row.PhoneClicks)
	})

	t.Run("missing business id is a 400", func(t *testing.T) {
		resp, body := postTrack(t, app, `{"type":"view"}`, "203.0.113.51", browserUA)

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Contains(t, body["error"], "missing")
	})

	t.Run("unknown type is a 400", func(t *testing.T) {
		business := testsupport.CreateTestBusiness(db, "Shiraz Kebab House")

		resp, body := postTrack(t, app,
			`{"businessId":"`+business.ID+`","type":"carrier_pigeon"}`,
			"203.0.113.52", browserUA)

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Contains(t, body["error"], "invalid")
	})

	t.Run("malformed json is a 400", func(t *testing.T) {
		resp, _ := postTrack(t, app, `{"businessId":`, "203.0.113.53", browserUA)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("rate limited ip gets a 429", func(t *testing.T) {
		business := testsupport.CreateTestBusiness(db, "Isfahan Carpet Gallery")
		now := time.Now().UTC()
		for i := 0; i < interactions.RateLimitMaxPerWindow; i++ {
			testsupport.CreateTestInteraction(db, business.ID, interactions.TypeView, "203.0.113.200", now)
		}

		resp, body := postTrack(t, app,
			`{"businessId":"`+business.ID+`","type":"view"}`,
			"203.0.113.200", browserUA)

		assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
		assert.Contains(t, body["error"], "too many")
	})

	t.Run("bot traffic is acknowledged but not stored", func(t *testing.T) {
		business := testsupport.CreateTestBusiness(db, "Caspian Guesthouse")

		resp, body := postTrack(t, app,
			`{"businessId":"`+business.ID+`","type":"view"}`,
			"203.0.113.54",
			"Mozilla/5.0 (compatible; Googlebot/2.1; +http://www.google.com/bot.html)")

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, true, body["success"])

		var count int64
		db.Model(&interactions.InteractionEvent{}).
			Where("business_id = ?", business.ID).
			Count(&count)
		assert.EqualValues(t, 0, count)
	})
}
