package engine

import "github.com/gofiber/fiber/v2"

// RegisterRoutes registers the kiosk query and selection routes.
func RegisterRoutes(app *fiber.App, handler *Handler) {
	eng := app.Group("/engine")
	eng.Get("/now-playing", handler.GetNowPlaying)
	eng.Get("/upcoming", handler.GetUpcoming)

	app.Get("/catalog/search", handler.SearchCatalog)
	app.Get("/catalog/genres", handler.GetCatalogGenres)
	app.Post("/queue/paid", handler.EnqueuePaid)
}
