package v1

import (
	"bytes"
	_ "embed"
	"log/slog"
	"text/template"

	"github.com/gofiber/fiber/v2"
)

//go:embed tracker.js
var trackerTemplate string

// TrackerScriptHandler serves the embeddable tracker. The script is rendered
// against the request's base URL and cached client-side via a strong ETag.
func TrackerScriptHandler(logger *slog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		tmpl, err := template.New("tracker.js").Parse(trackerTemplate)
		if err != nil {
			logger.Error("Failed to parse tracker template", slog.Any("error", err))
			return c.Status(fiber.StatusInternalServerError).SendString("Internal Server Error")
		}

		var buf bytes.Buffer
		data := map[string]string{
			"BaseURL": c.BaseURL(),
		}
		if err := tmpl.Execute(&buf, data); err != nil {
			logger.Error("Failed to render tracker template", slog.Any("error", err))
			return c.Status(fiber.StatusInternalServerError).SendString("Internal Server Error")
		}

		content := buf.Bytes()
		etag := generateETag(content)

		if c.Get("If-None-Match") == etag {
			return c.Status(fiber.StatusNotModified).Send(nil)
		}

		c.Set("Content-Type", "application/javascript")
		c.Set("Cache-Control", "public, max-age=3600")
		c.Set("ETag", etag)
		c.Set("Cross-Origin-Resource-Policy", "cross-origin")
		return c.Send(content)
	}
}
