package config

import (
	"log/slog"

	"github.com/gofiber/fiber/v2"
)

// Handler is the handler for the config feature.
type Handler struct {
	configManager *Manager
}

// NewHandler creates a new handler for the config feature.
func NewHandler(configManager *Manager) *Handler {
	return &Handler{configManager: configManager}
}

// GetConfig returns the running configuration with secrets redacted.
func (h *Handler) GetConfig(c *fiber.Ctx) error {
	c.Set("Content-Type", "application/json")
	return c.SendString(h.configManager.GetJSON())
}

// UpdateVolume adjusts the playback volume at runtime. The new value applies
// from the next played track.
func (h *Handler) UpdateVolume(c *fiber.Ctx) error {
	var body struct {
		Volume int `json:"volume"`
	}
	if err := c.BodyParser(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}
	if body.Volume < 0 || body.Volume > 100 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "volume must be 0-100"})
	}

	updated := *h.configManager.Get()
	updated.Engine.Volume = body.Volume
	h.configManager.Update(&updated)

	slog.Info("Playback volume updated", "volume", body.Volume)
	return c.JSON(fiber.Map{"volume": body.Volume})
}
