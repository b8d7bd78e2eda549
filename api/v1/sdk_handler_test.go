package v1_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	v1 "peyda/api/v1"
	"peyda/internal/testsupport"
)

func TestTrackerScriptHandler(t *testing.T) {
	app := fiber.New()
	app.Get("/x/api/v1/tracker.js", v1.TrackerScriptHandler(testsupport.GetLogger()))

	resp, err := app.Test(httptest.NewRequest("GET", "/x/api/v1/tracker.js", nil))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/javascript", resp.Header.Get("Content-Type"))
	assert.Contains(t, resp.Header.Get("Cache-Control"), "max-age=3600")

	etag := resp.Header.Get("ETag")
	require.NotEmpty(t, etag)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "/x/api/v1/track")

	t.Run("matching etag yields a 304", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/x/api/v1/tracker.js", nil)
		req.Header.Set("If-None-Match", etag)

		cached, err := app.Test(req)
		require.NoError(t, err)
		defer cached.Body.Close()

		assert.Equal(t, http.StatusNotModified, cached.StatusCode)
	})
}
