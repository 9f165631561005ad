package genres

import "github.com/gofiber/fiber/v2"

// RegisterRoutes registers the genre filter routes.
func RegisterRoutes(app *fiber.App, handler *Handler) {
	genres := app.Group("/genres")
	genres.Get("/", handler.GetFilters)
	genres.Put("/:slot", handler.SetFilter)
}
