package handlers

import (
	"context"

	"ipotrack/models"
	"ipotrack/services"
	"ipotrack/shared"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

// IPOLister is the listing surface the handlers consume.
type IPOLister interface {
	List(ctx context.Context, filter services.ListFilter) (*models.ListResponse, error)
	GetByCIK(ctx context.Context, cik string) (*models.IPO, string, error)
}

// StarredReader loads and applies per-user starred flags.
type StarredReader interface {
	StarredSet(ctx context.Context, userID string) (map[string]struct{}, error)
	MergeStarred(records []models.IPO, starred map[string]struct{}) []models.IPO
}

type IPOHandler struct {
	Service   IPOLister
	Watchlist StarredReader
}

func NewIPOHandler(service IPOLister, watchlist StarredReader) *IPOHandler {
	return &IPOHandler{Service: service, Watchlist: watchlist}
}

// GetIPOs serves the listing endpoint. Recognized query parameters:
// all, page, per_page, exchange, min_market_cap, search, sort, dir,
// and cik for a single-record lookup.
func (h *IPOHandler) GetIPOs(c *fiber.Ctx) error {
	if cik := c.Query("cik"); cik != "" {
		return h.respondSingle(c, cik)
	}

	filter := services.ListFilter{
		All:          c.QueryBool("all", false),
		Page:         c.QueryInt("page", 1),
		PerPage:      c.QueryInt("per_page", services.DefaultPageSize),
		Exchange:     c.Query("exchange"),
		MinMarketCap: c.QueryFloat("min_market_cap", 0),
		Search:       c.Query("search"),
		Sort:         sortStateFromQuery(c),
	}

	response, err := h.Service.List(c.Context(), filter)
	if err != nil {
		return respondError(c, err)
	}

	response.Rows = h.mergeStarredFlags(c, response.Rows)
	return c.JSON(response)
}

// GetIPOByCIK serves the path-parameter form of the single lookup.
func (h *IPOHandler) GetIPOByCIK(c *fiber.Ctx) error {
	return h.respondSingle(c, c.Params("cik"))
}

func (h *IPOHandler) respondSingle(c *fiber.Ctx, cik string) error {
	record, _, err := h.Service.GetByCIK(c.Context(), cik)
	if err != nil {
		return respondError(c, err)
	}
	if record == nil {
		return c.Status(fiber.StatusNotFound).JSON(models.ErrorResponse{Error: "IPO not found"})
	}

	merged := h.mergeStarredFlags(c, []models.IPO{*record})
	return c.JSON(merged[0])
}

// mergeStarredFlags annotates rows for the authenticated viewer. A
// failed starred-set fetch degrades to unflagged rows rather than
// failing the listing.
func (h *IPOHandler) mergeStarredFlags(c *fiber.Ctx, rows []models.IPO) []models.IPO {
	userID := UserID(c)
	if userID == "" {
		return rows
	}

	starred, err := h.Watchlist.StarredSet(c.Context(), userID)
	if err != nil {
		logrus.WithError(err).WithField("user_id", userID).Warn("Could not load starred set for listing")
		return rows
	}
	return h.Watchlist.MergeStarred(rows, starred)
}

func sortStateFromQuery(c *fiber.Ctx) services.SortState {
	column := services.ParseSortColumn(c.Query("sort"))
	if column == services.ColumnNone {
		return services.SortState{}
	}
	direction := services.DirectionAsc
	if c.Query("dir") == string(services.DirectionDesc) {
		direction = services.DirectionDesc
	}
	return services.SortState{Column: column, Direction: direction}
}

// respondError converts a service error into the shared error payload
// with a status matching its category. Errors here are never fatal:
// the client shows an error banner over an empty or stale list.
func respondError(c *fiber.Ctx, err error) error {
	status := fiber.StatusInternalServerError
	switch shared.CategoryOf(err) {
	case shared.ErrorCategoryNetwork, shared.ErrorCategoryUpstream:
		status = fiber.StatusBadGateway
	case shared.ErrorCategoryValidation:
		status = fiber.StatusBadRequest
	case shared.ErrorCategoryAuthentication:
		status = fiber.StatusUnauthorized
	}

	logrus.WithError(err).WithFields(logrus.Fields{
		"path":   c.Path(),
		"status": status,
	}).Error("Request failed")

	return c.Status(status).JSON(models.ErrorResponse{Error: err.Error()})
}
