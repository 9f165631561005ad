package hosting

import (
	"fmt"
	"log/slog"

	"github.com/gofiber/adaptor/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"jukebox/src/features/catalog"
	"jukebox/src/features/config"
	"jukebox/src/features/credits"
	"jukebox/src/features/engine"
	"jukebox/src/features/genres"
	"jukebox/src/features/playback"
	"jukebox/src/features/queue"
	"jukebox/src/features/stats"
)

// Server is the HTTP server for the kiosk API.
type Server struct {
	app  *fiber.App
	port uint32
}

// Services bundles everything the route surface needs.
type Services struct {
	Catalog  *catalog.Service
	Queue    *queue.Service
	Playback *playback.Service
	Credits  *credits.Service
	Genres   *genres.Service
	Stats    *stats.Service
	Registry *prometheus.Registry
}

// NewServer creates a new HTTP server with all feature routes registered.
func NewServer(cfg *config.Manager, svc Services) *Server {
	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			slog.Error("Internal Server Error", "error", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
		},
		AppName:               "Jukebox",
		DisableStartupMessage: true,
		EnablePrintRoutes:     cfg.Get().Server.PrintRoutes,
	})

	app.Use(LogAllRequestsMiddleware())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.SendString("OK")
	})
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(svc.Registry, promhttp.HandlerOpts{})))

	engineHandler := engine.NewHandler(svc.Catalog, svc.Queue, svc.Playback, svc.Credits)
	engine.RegisterRoutes(app, engineHandler)
	genres.RegisterRoutes(app, genres.NewHandler(svc.Genres, svc.Queue))
	credits.RegisterRoutes(app, credits.NewHandler(svc.Credits))
	stats.RegisterRoutes(app, stats.NewHandler(svc.Stats))
	config.RegisterRoutes(app, cfg)

	return &Server{app: app, port: cfg.Get().Server.Port}
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	return s.app.Listen(":" + fmt.Sprint(s.port))
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}
