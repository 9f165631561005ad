package credits

import (
	"github.com/gofiber/fiber/v2"
)

// Handler handles credit requests.
type Handler struct {
	service *Service
}

// NewHandler creates a new credits handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// GetBalance returns the current balance and the per-song cost.
func (h *Handler) GetBalance(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"balance":       h.service.Balance(),
		"cost_per_song": h.service.CostPerSong(),
	})
}

// AddCredits inserts money into the balance.
func (h *Handler) AddCredits(c *fiber.Ctx) error {
	var body struct {
		Amount float64 `json:"amount"`
	}
	if err := c.BodyParser(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}
	if err := h.service.Add(body.Amount); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(fiber.Map{"balance": h.service.Balance()})
}
