package handlers

import (
	"encoding/base64"
	"strings"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/crypto/bcrypt"

	applog "pedalhouse/internal/log"
)

// RequireSync guards the sync routes with HTTP basic auth. The password is
// compared against a bcrypt hash from config, never a plaintext value.
func RequireSync(user, passwordHash string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if passwordHash == "" {
			applog.Security(c, "sync.auth.unconfigured", nil)
			return unauthorized(c)
		}
		header := c.Get(fiber.HeaderAuthorization)
		if !strings.HasPrefix(header, "Basic ") {
			return unauthorized(c)
		}
		raw, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(header, "Basic "))
		if err != nil {
			return unauthorized(c)
		}
		gotUser, gotPass, ok := strings.Cut(string(raw), ":")
		if !ok || gotUser != user {
			applog.Security(c, "sync.auth.denied", map[string]any{"user": gotUser})
			return unauthorized(c)
		}
		if bcrypt.CompareHashAndPassword([]byte(passwordHash), []byte(gotPass)) != nil {
			applog.Security(c, "sync.auth.denied", map[string]any{"user": gotUser})
			return unauthorized(c)
		}
		return c.Next()
	}
}

func unauthorized(c *fiber.Ctx) error {
	c.Set(fiber.HeaderWWWAuthenticate, `Basic realm="sync"`)
	return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"success": false, "message": "authentication required"})
}
