// middleware/gateway.go
package middleware

import (
	"os"
	"strings"

	"github.com/gofiber/fiber/v2"

	"scout-admin-system/utils"
)

// GatewayAuthMiddleware validates the Bearer token from the Gateway. All
// authentication and authorization decisions happen upstream; this service
// only verifies the request really came through the gateway.
func GatewayAuthMiddleware() fiber.Handler {
	expectedToken := os.Getenv("SCOUT_SERVICE_TOKEN")
	if expectedToken == "" {
		utils.Fatal("SCOUT_SERVICE_TOKEN is not set — service cannot authenticate Gateway", nil)
	}

	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			utils.Warn("missing Authorization header", "path", c.Path())
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "gateway authentication token missing",
			})
		}

		// Parse "Bearer <token>"; fall back to the raw header value if the
		// gateway sends the token without a prefix.
		token := strings.TrimPrefix(authHeader, "Bearer ")
		if token == authHeader {
			token = authHeader
		}

		if token != expectedToken {
			utils.Warn("invalid gateway token", "path", c.Path())
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "invalid gateway authentication token",
			})
		}

		return c.Next()
	}
}
