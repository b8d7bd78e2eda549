// Package middleware contains request guards for the admin surface.
package middleware

import (
	"encoding/base64"
	"log/slog"
	"strings"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"peyda/internal/users"
)

// AdminBasicAuth protects admin endpoints with HTTP Basic credentials
// checked against the admin accounts table. bcrypt does the hash comparison,
// so the check is constant-time with respect to the password.
func AdminBasicAuth(db *gorm.DB, logger *slog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		email, password, ok := parseBasicAuth(c.Get("Authorization"))
		if !ok {
			return unauthorized(c)
		}

		user, err := users.VerifyPassword(db, email, password)
		if err != nil {
			logger.Warn("Rejected admin credentials",
				slog.String("email", email),
				slog.String("ip", c.IP()))
			return unauthorized(c)
		}

		c.Locals("admin_user_id", user.ID)
		return c.Next()
	}
}

func parseBasicAuth(header string) (email, password string, ok bool) {
	const prefix = "Basic "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return "", "", false
	}

	decoded, err := base64.StdEncoding.DecodeString(header[len(prefix):])
	if err != nil {
		return "", "", false
	}

	credentials := string(decoded)
	colon := strings.IndexByte(credentials, ':')
	if colon < 0 {
		return "", "", false
	}
	return credentials[:colon], credentials[colon+1:], true
}

func unauthorized(c *fiber.Ctx) error {
	c.Set("WWW-Authenticate", `Basic realm="admin"`)
	return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
		"error": "unauthorized",
	})
}
