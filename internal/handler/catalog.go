package handler

import (
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/game-table-reservation/internal/model"
	"github.com/iliyamo/game-table-reservation/internal/service"
)

// CatalogHandler exposes the master data to unauthenticated clients.
// Responses are cacheable; stock is the configured total, not what is
// free on a given date.
type CatalogHandler struct {
	Store service.Reader
	Log   *slog.Logger
}

func NewCatalogHandler(store service.Reader, log *slog.Logger) *CatalogHandler {
	return &CatalogHandler{Store: store, Log: log}
}

// Tables handles GET /v1/catalog/tables.
func (h *CatalogHandler) Tables(c echo.Context) error {
	ctx, cancel := withTimeout(c)
	defer cancel()
	items, err := h.Store.ListTables(ctx)
	if err != nil {
		return internalError(c, h.Log, "list tables", err)
	}
	if items == nil {
		items = []model.Table{}
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// Timeslots handles GET /v1/catalog/timeslots.
func (h *CatalogHandler) Timeslots(c echo.Context) error {
	ctx, cancel := withTimeout(c)
	defer cancel()
	items, err := h.Store.ListTimeslots(ctx)
	if err != nil {
		return internalError(c, h.Log, "list timeslots", err)
	}
	if items == nil {
		items = []model.Timeslot{}
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// Games handles GET /v1/catalog/games.
func (h *CatalogHandler) Games(c echo.Context) error {
	ctx, cancel := withTimeout(c)
	defer cancel()
	items, err := h.Store.ListGames(ctx)
	if err != nil {
		return internalError(c, h.Log, "list games", err)
	}
	if items == nil {
		items = []model.Game{}
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}
