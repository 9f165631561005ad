package stats

import "github.com/gofiber/fiber/v2"

// RegisterRoutes registers the statistics routes.
func RegisterRoutes(app *fiber.App, handler *Handler) {
	stats := app.Group("/stats")
	stats.Get("/top", handler.GetTopSongs)
}
