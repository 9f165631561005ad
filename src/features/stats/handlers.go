package stats

import (
	"log/slog"

	"github.com/gofiber/fiber/v2"
)

// Handler handles statistics requests.
type Handler struct {
	service *Service
}

// NewHandler creates a new stats handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// GetTopSongs returns the most-played tracks.
func (h *Handler) GetTopSongs(c *fiber.Ctx) error {
	limit := c.QueryInt("n", 10)

	songs, err := h.service.TopSongs(c.Context(), limit)
	if err != nil {
		slog.Error("Failed to query top songs", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to query statistics"})
	}

	total, err := h.service.TotalPlays(c.Context())
	if err != nil {
		slog.Error("Failed to count plays", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to query statistics"})
	}

	return c.JSON(fiber.Map{
		"total_plays": total,
		"top":         songs,
	})
}
