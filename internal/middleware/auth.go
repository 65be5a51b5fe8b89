// Package middleware provides authentication and authorization middleware for the application.
package middleware

import (
	"crypto/subtle"

	"creatorpulse/internal/config"

	"github.com/gofiber/fiber/v2"
)

var cfg *config.Config

// InitMiddleware initializes authentication middleware with the given config.
func InitMiddleware(c *config.Config) {
	cfg = c
}

// APIKeyRequired enforces the X-API-Key header on protected routes.
// The comparison is constant time so the key cannot be probed byte by byte.
func APIKeyRequired(c *fiber.Ctx) error {
	key := c.Get("X-API-Key")
	if key == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "X-API-Key header required",
		})
	}

	if subtle.ConstantTimeCompare([]byte(key), []byte(cfg.APIKey)) != 1 {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "Invalid API key",
		})
	}

	return c.Next()
}
