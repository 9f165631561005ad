package credits

import "github.com/gofiber/fiber/v2"

// RegisterRoutes registers the credit routes.
func RegisterRoutes(app *fiber.App, handler *Handler) {
	credits := app.Group("/credits")
	credits.Get("/", handler.GetBalance)
	credits.Post("/", handler.AddCredits)
}
