package engine

import (
	"log/slog"

	"github.com/gofiber/fiber/v2"

	"jukebox/src/features/catalog"
	"jukebox/src/features/credits"
	"jukebox/src/features/playback"
	"jukebox/src/features/queue"
)

// Handler exposes the kiosk query surface: now playing, upcoming, catalog
// search and paid selections.
type Handler struct {
	catalog  *catalog.Service
	queue    *queue.Service
	playback *playback.Service
	credits  *credits.Service
}

// NewHandler creates a new engine handler.
func NewHandler(cat *catalog.Service, q *queue.Service, pb *playback.Service, cr *credits.Service) *Handler {
	return &Handler{catalog: cat, queue: q, playback: pb, credits: cr}
}

// GetNowPlaying returns the track currently being played, if any.
func (h *Handler) GetNowPlaying(c *fiber.Ctx) error {
	track, ok := h.playback.CurrentlyPlaying()
	if !ok {
		return c.JSON(fiber.Map{
			"playing": false,
			"state":   h.playback.State(),
		})
	}
	return c.JSON(fiber.Map{
		"playing":  true,
		"state":    h.playback.State(),
		"track":    track,
		"display":  track.Display(),
		"duration": track.Duration,
	})
}

// GetUpcoming returns the next tracks: the whole paid queue, then the
// rotation head.
func (h *Handler) GetUpcoming(c *fiber.Ctx) error {
	n := c.QueryInt("n", 15)
	return c.JSON(fiber.Map{
		"upcoming": h.queue.Upcoming(n),
		"paid":     h.queue.PaidLen(),
	})
}

// GetCatalogGenres lists the distinct genre tokens present in the catalog,
// the choices a front-end can offer for the filter slots.
func (h *Handler) GetCatalogGenres(c *fiber.Ctx) error {
	cat := h.catalog.Current()
	if cat == nil {
		return c.JSON(fiber.Map{"genres": []string{}})
	}
	return c.JSON(fiber.Map{"genres": cat.Genres()})
}

// SearchCatalog returns tracks matching the query term.
func (h *Handler) SearchCatalog(c *fiber.Ctx) error {
	term := c.Query("q")
	if term == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "missing query parameter q"})
	}
	tracks := h.catalog.Search(term)
	return c.JSON(fiber.Map{
		"count":  len(tracks),
		"tracks": tracks,
	})
}

// EnqueuePaid spends one song's worth of credits and queues the selection.
// The spend is refunded if the index turns out invalid.
func (h *Handler) EnqueuePaid(c *fiber.Ctx) error {
	var body struct {
		Index int `json:"index"`
	}
	if err := c.BodyParser(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}

	if err := h.credits.SpendForSong(); err != nil {
		return c.Status(fiber.StatusPaymentRequired).JSON(fiber.Map{"error": err.Error()})
	}

	if err := h.queue.EnqueuePaid(body.Index); err != nil {
		if cost := h.credits.CostPerSong(); cost > 0 {
			if rerr := h.credits.Add(cost); rerr != nil {
				slog.Error("Failed to refund rejected selection", "error", rerr)
			}
		}
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	return c.JSON(fiber.Map{
		"queued":  h.queue.PaidLen(),
		"balance": h.credits.Balance(),
	})
}
