package genres

import (
	"log/slog"
	"strconv"

	"github.com/gofiber/fiber/v2"
)

// RotationRebuilder rebuilds the random rotation after a filter change.
type RotationRebuilder interface {
	RebuildRotation(activeGenres []string)
}

// Handler handles genre filter requests.
type Handler struct {
	service   *Service
	rebuilder RotationRebuilder
}

// NewHandler creates a new genres handler.
func NewHandler(service *Service, rebuilder RotationRebuilder) *Handler {
	return &Handler{service: service, rebuilder: rebuilder}
}

// GetFilters returns the four filter slots and the derived active genre list.
func (h *Handler) GetFilters(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"slots":  h.service.Slots(),
		"active": h.service.Active(),
	})
}

// SetFilter stores a genre token in one slot. An empty body token clears it.
func (h *Handler) SetFilter(c *fiber.Ctx) error {
	slot, err := strconv.Atoi(c.Params("slot"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "slot must be an integer"})
	}

	var body struct {
		Genre string `json:"genre"`
	}
	if err := c.BodyParser(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}

	if err := h.service.Set(slot, body.Genre); err != nil {
		slog.Error("Failed to set genre filter", "slot", slot, "error", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	h.rebuilder.RebuildRotation(h.service.Active())
	return c.JSON(fiber.Map{"slots": h.service.Slots()})
}
