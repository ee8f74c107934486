// handlers/badge_routes.go
package handlers

import (
	"github.com/gofiber/fiber/v2"

	"scout-admin-system/middleware"
	"scout-admin-system/services"
)

func SetupBadgeRoutes(app *fiber.App, catalog *services.BadgeCatalogService) {
	securedGroup := app.Group("/", middleware.UserContextMiddleware())

	securedGroup.Get("/badges", catalog.GetBadges)
	securedGroup.Get("/badges/:id", catalog.GetBadge)

	adminGroup := app.Group("/s/admin", middleware.UserContextMiddleware())

	adminGroup.Post("/badges", catalog.CreateBadge)
	adminGroup.Put("/badges/:id", catalog.UpdateBadge)
}
