package handler

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/game-table-reservation/internal/model"
	"github.com/iliyamo/game-table-reservation/internal/repository"
)

type tableReq struct {
	Name        string `json:"name" validate:"required,max=100"`
	Description string `json:"description" validate:"max=2000"`
}

type timeslotReq struct {
	StartTime string `json:"start_time" validate:"required,clock"`
	EndTime   string `json:"end_time" validate:"required,clock"`
}

type gameReq struct {
	Name        string `json:"name" validate:"required,max=200"`
	Description string `json:"description" validate:"max=2000"`
	ImageURL    string `json:"image_url" validate:"omitempty,url,max=500"`
	Stock       int    `json:"stock" validate:"gte=0"`
}

// ----- tables -----

// ListTables handles GET /v1/admin/tables.
func (h *AdminHandler) ListTables(c echo.Context) error {
	ctx, cancel := withTimeout(c)
	defer cancel()
	items, err := h.Tables.List(ctx)
	if err != nil {
		return internalError(c, h.Log, "list tables", err)
	}
	if items == nil {
		items = []model.Table{}
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// CreateTable handles POST /v1/admin/tables.
func (h *AdminHandler) CreateTable(c echo.Context) error {
	var req tableReq
	if err := bindValid(c, &req); err != nil {
		return badRequest(c, err.Error())
	}
	t := model.Table{Name: strings.TrimSpace(req.Name), Description: req.Description}
	if t.Name == "" {
		return badRequest(c, "name is required")
	}
	ctx, cancel := withTimeout(c)
	defer cancel()
	if err := h.Tables.Create(ctx, &t); err != nil {
		if errors.Is(err, repository.ErrTableNameExists) {
			return conflict(c, "a table with this name already exists")
		}
		return internalError(c, h.Log, "create table", err)
	}
	h.purgeCatalog(ctx)
	return c.JSON(http.StatusCreated, t)
}

// UpdateTable handles PUT /v1/admin/tables/:id.
func (h *AdminHandler) UpdateTable(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return badRequest(c, "invalid table id")
	}
	var req tableReq
	if err := bindValid(c, &req); err != nil {
		return badRequest(c, err.Error())
	}
	t := model.Table{ID: id, Name: strings.TrimSpace(req.Name), Description: req.Description}
	if t.Name == "" {
		return badRequest(c, "name is required")
	}
	ctx, cancel := withTimeout(c)
	defer cancel()
	if err := h.Tables.Update(ctx, t); err != nil {
		switch {
		case errors.Is(err, repository.ErrTableNameExists):
			return conflict(c, "a table with this name already exists")
		case errors.Is(err, repository.ErrTableNotFound):
			return notFoundError(c, "table not found")
		}
		return internalError(c, h.Log, "update table", err)
	}
	h.purgeCatalog(ctx)
	return c.JSON(http.StatusOK, t)
}

// DeleteTable handles DELETE /v1/admin/tables/:id.  Bookings of the table
// are removed with it.
func (h *AdminHandler) DeleteTable(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return badRequest(c, "invalid table id")
	}
	ctx, cancel := withTimeout(c)
	defer cancel()
	if err := h.Tables.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrTableNotFound) {
			return notFoundError(c, "table not found")
		}
		return internalError(c, h.Log, "delete table", err)
	}
	h.purgeCatalog(ctx)
	return c.NoContent(http.StatusNoContent)
}

// ----- timeslots -----

// ListTimeslots handles GET /v1/admin/timeslots.
func (h *AdminHandler) ListTimeslots(c echo.Context) error {
	ctx, cancel := withTimeout(c)
	defer cancel()
	items, err := h.Timeslots.List(ctx)
	if err != nil {
		return internalError(c, h.Log, "list timeslots", err)
	}
	if items == nil {
		items = []model.Timeslot{}
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

func timeslotFrom(req timeslotReq) (model.Timeslot, error) {
	start, end, err := model.ValidateSpan(req.StartTime, req.EndTime)
	if err != nil {
		return model.Timeslot{}, err
	}
	return model.Timeslot{StartTime: start, EndTime: end}, nil
}

// CreateTimeslot handles POST /v1/admin/timeslots.
func (h *AdminHandler) CreateTimeslot(c echo.Context) error {
	var req timeslotReq
	if err := bindValid(c, &req); err != nil {
		return badRequest(c, err.Error())
	}
	ts, err := timeslotFrom(req)
	if err != nil {
		return badRequest(c, err.Error())
	}
	ctx, cancel := withTimeout(c)
	defer cancel()
	if err := h.Timeslots.Create(ctx, &ts); err != nil {
		return internalError(c, h.Log, "create timeslot", err)
	}
	h.purgeCatalog(ctx)
	return c.JSON(http.StatusCreated, ts)
}

// UpdateTimeslot handles PUT /v1/admin/timeslots/:id.
func (h *AdminHandler) UpdateTimeslot(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return badRequest(c, "invalid timeslot id")
	}
	var req timeslotReq
	if err := bindValid(c, &req); err != nil {
		return badRequest(c, err.Error())
	}
	ts, err := timeslotFrom(req)
	if err != nil {
		return badRequest(c, err.Error())
	}
	ts.ID = id
	ctx, cancel := withTimeout(c)
	defer cancel()
	if err := h.Timeslots.Update(ctx, ts); err != nil {
		if errors.Is(err, repository.ErrTimeslotNotFound) {
			return notFoundError(c, "timeslot not found")
		}
		return internalError(c, h.Log, "update timeslot", err)
	}
	h.purgeCatalog(ctx)
	return c.JSON(http.StatusOK, ts)
}

// DeleteTimeslot handles DELETE /v1/admin/timeslots/:id.
func (h *AdminHandler) DeleteTimeslot(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return badRequest(c, "invalid timeslot id")
	}
	ctx, cancel := withTimeout(c)
	defer cancel()
	if err := h.Timeslots.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrTimeslotNotFound) {
			return notFoundError(c, "timeslot not found")
		}
		return internalError(c, h.Log, "delete timeslot", err)
	}
	h.purgeCatalog(ctx)
	return c.NoContent(http.StatusNoContent)
}

// ----- games -----

// ListGames handles GET /v1/admin/games?q=&in_stock=&page=&page_size=.
func (h *AdminHandler) ListGames(c echo.Context) error {
	q := repository.GameSearchQuery{Name: c.QueryParam("q")}
	q.InStock, _ = strconv.ParseBool(c.QueryParam("in_stock"))
	q.Page, _ = strconv.Atoi(c.QueryParam("page"))
	q.PageSize, _ = strconv.Atoi(c.QueryParam("page_size"))
	q = q.Normalize()

	ctx, cancel := withTimeout(c)
	defer cancel()
	items, total, err := h.Games.Search(ctx, q)
	if err != nil {
		return internalError(c, h.Log, "list games", err)
	}
	if items == nil {
		items = []model.Game{}
	}
	return c.JSON(http.StatusOK, echo.Map{
		"items":     items,
		"total":     total,
		"page":      q.Page,
		"page_size": q.PageSize,
	})
}

func gameFrom(req gameReq) model.Game {
	return model.Game{
		Name:        strings.TrimSpace(req.Name),
		Description: req.Description,
		ImageURL:    strings.TrimSpace(req.ImageURL),
		Stock:       req.Stock,
	}
}

// CreateGame handles POST /v1/admin/games.
func (h *AdminHandler) CreateGame(c echo.Context) error {
	var req gameReq
	if err := bindValid(c, &req); err != nil {
		return badRequest(c, err.Error())
	}
	g := gameFrom(req)
	ctx, cancel := withTimeout(c)
	defer cancel()
	if err := h.Games.Create(ctx, &g); err != nil {
		return internalError(c, h.Log, "create game", err)
	}
	h.purgeCatalog(ctx)
	return c.JSON(http.StatusCreated, g)
}

// UpdateGame handles PUT /v1/admin/games/:id.  Lowering stock below what
// is already booked is allowed; remaining then reads as zero.
func (h *AdminHandler) UpdateGame(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return badRequest(c, "invalid game id")
	}
	var req gameReq
	if err := bindValid(c, &req); err != nil {
		return badRequest(c, err.Error())
	}
	g := gameFrom(req)
	g.ID = id
	ctx, cancel := withTimeout(c)
	defer cancel()
	if err := h.Games.Update(ctx, g); err != nil {
		if errors.Is(err, repository.ErrGameNotFound) {
			return notFoundError(c, "game not found")
		}
		return internalError(c, h.Log, "update game", err)
	}
	h.purgeCatalog(ctx)
	return c.JSON(http.StatusOK, g)
}

// DeleteGame handles DELETE /v1/admin/games/:id.
func (h *AdminHandler) DeleteGame(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return badRequest(c, "invalid game id")
	}
	ctx, cancel := withTimeout(c)
	defer cancel()
	if err := h.Games.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrGameNotFound) {
			return notFoundError(c, "game not found")
		}
		return internalError(c, h.Log, "delete game", err)
	}
	h.purgeCatalog(ctx)
	return c.NoContent(http.StatusNoContent)
}
