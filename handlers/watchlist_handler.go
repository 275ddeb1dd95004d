package handlers

import (
	"context"
	"errors"

	"ipotrack/models"
	"ipotrack/services"

	"github.com/gofiber/fiber/v2"
)

// WatchlistStore is the watchlist surface the handler consumes.
type WatchlistStore interface {
	StarredReader
	Add(ctx context.Context, userID, cik string) error
	Remove(ctx context.Context, userID, cik string) error
	Toggle(ctx context.Context, userID, cik string) (bool, error)
}

type WatchlistHandler struct {
	Watchlist WatchlistStore
	IPOs      IPOLister
}

func NewWatchlistHandler(watchlist WatchlistStore, ipos IPOLister) *WatchlistHandler {
	return &WatchlistHandler{Watchlist: watchlist, IPOs: ipos}
}

// GetWatchlist returns the viewer's starred rows in the standard
// listing envelope, every row flagged.
func (h *WatchlistHandler) GetWatchlist(c *fiber.Ctx) error {
	userID := UserID(c)

	starred, err := h.Watchlist.StarredSet(c.Context(), userID)
	if err != nil {
		return respondError(c, err)
	}

	response, err := h.IPOs.List(c.Context(), services.ListFilter{All: true})
	if err != nil {
		return respondError(c, err)
	}

	rows := make([]models.IPO, 0, len(starred))
	for _, row := range response.Rows {
		if _, ok := starred[row.CIK]; ok {
			row.IsStarred = true
			rows = append(rows, row)
		}
	}

	return c.JSON(models.ListResponse{Rows: rows, Source: response.Source})
}

// AddStar stars an IPO. Re-adding an already starred IPO succeeds.
func (h *WatchlistHandler) AddStar(c *fiber.Ctx) error {
	var body struct {
		CIK string `json:"cik"`
	}
	if err := c.BodyParser(&body); err != nil || body.CIK == "" {
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse{Error: "cik is required"})
	}

	if err := h.Watchlist.Add(c.Context(), UserID(c), body.CIK); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"cik": body.CIK, "starred": true})
}

// RemoveStar unstars an IPO. Removing an IPO that is not starred
// succeeds.
func (h *WatchlistHandler) RemoveStar(c *fiber.Ctx) error {
	cik := c.Params("cik")
	if err := h.Watchlist.Remove(c.Context(), UserID(c), cik); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"cik": cik, "starred": false})
}

// ToggleStar flips the starred state of one IPO. A second toggle for
// the same IPO while the first is still in flight is rejected with a
// conflict; a persistence failure leaves the stored state unchanged
// and surfaces as a transient error.
func (h *WatchlistHandler) ToggleStar(c *fiber.Ctx) error {
	cik := c.Params("cik")

	starred, err := h.Watchlist.Toggle(c.Context(), UserID(c), cik)
	if err != nil {
		if errors.Is(err, services.ErrToggleInFlight) {
			return c.Status(fiber.StatusConflict).JSON(models.ErrorResponse{Error: err.Error()})
		}
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"cik": cik, "starred": starred})
}
