// middleware/auth.go
package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"scout-admin-system/utils"
)

// UserContextMiddleware extracts the leader identity and roles the Gateway
// forwards. Secured paths (/s/ and /s/admin/) require a user id; the engine
// itself makes no authorization decisions beyond that presence check.
func UserContextMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID := c.Get("X-User-ID")
		rolesStr := c.Get("X-User-Roles")

		path := c.Path()
		isSecured := strings.HasPrefix(path, "/s/") || strings.HasPrefix(path, "/s/admin/")
		if isSecured && userID == "" {
			utils.Warn("X-User-ID required but missing on secured route", "path", path)
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "missing X-User-ID — request must come through gateway with auth context",
			})
		}

		var roles []string
		if rolesStr != "" {
			for _, r := range strings.Split(rolesStr, ",") {
				r = strings.TrimSpace(r)
				if r != "" {
					roles = append(roles, r)
				}
			}
		}

		c.Locals("user_id", userID)
		c.Locals("user_roles", roles)

		return c.Next()
	}
}
