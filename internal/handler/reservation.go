package handler

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/game-table-reservation/internal/model"
	"github.com/iliyamo/game-table-reservation/internal/service"
)

// ReservationHandler serves the booking wizard and the caller's bookings.
// Every step is stateless: the selection travels in the request.
type ReservationHandler struct {
	Svc *service.Reservations
	Log *slog.Logger
}

// NewReservationHandler panics on a nil service.
func NewReservationHandler(svc *service.Reservations, log *slog.Logger) *ReservationHandler {
	if svc == nil {
		panic("nil service passed to NewReservationHandler")
	}
	return &ReservationHandler{Svc: svc, Log: log}
}

// ----- DTOs -----

type dateReq struct {
	BookingDate string `json:"booking_date"`
}

type slotsReq struct {
	Date  string   `json:"date"`
	Slots []string `json:"slots"`
}

type summaryReq struct {
	Date        string         `json:"date"`
	TableID     uint64         `json:"table_id"`
	TimeslotIDs []uint64       `json:"timeslot_ids"`
	PartySize   int            `json:"party_size" validate:"gte=0,lte=100"`
	Quantities  map[uint64]int `json:"quantities"`
}

type commitReq struct {
	Date        string   `json:"date"`
	TableID     uint64   `json:"table_id"`
	TimeslotIDs []uint64 `json:"timeslot_ids"`
	GameIDs     []uint64 `json:"game_ids"`
	GameQtys    []int    `json:"game_qtys"`
	PartySize   int      `json:"party_size" validate:"gte=0,lte=100"`
	Name        string   `json:"name" validate:"max=150"`
	Phone       string   `json:"phone" validate:"max=32"`
	Email       string   `json:"email" validate:"omitempty,email,max=254"`
	Notes       string   `json:"notes" validate:"max=1000"`
}

func selectionOf(date string, tableID uint64, ids []uint64) (service.Selection, error) {
	var table string
	if tableID > 0 {
		table = strconv.FormatUint(tableID, 10)
	}
	return service.ParseSelection(date, table, service.JoinIDs(ids))
}

// PickDate handles POST /v1/reservations/date.
func (h *ReservationHandler) PickDate(c echo.Context) error {
	var req dateReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	d, err := h.Svc.PickDate(req.BookingDate)
	if err != nil {
		return writeServiceError(c, h.Log, err, service.Selection{})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"date": d,
		"next": slotsURL + "?date=" + d.String(),
	})
}

// Slots handles GET /v1/reservations/slots?date=.
func (h *ReservationHandler) Slots(c echo.Context) error {
	d, err := h.Svc.PickDate(c.QueryParam("date"))
	if err != nil {
		return writeServiceError(c, h.Log, err, service.Selection{})
	}
	ctx, cancel := withTimeout(c)
	defer cancel()
	grid, err := h.Svc.SlotGrid(ctx, d)
	if err != nil {
		return writeServiceError(c, h.Log, err, service.Selection{Date: d})
	}
	return c.JSON(http.StatusOK, grid)
}

// SelectSlots handles POST /v1/reservations/slots.
func (h *ReservationHandler) SelectSlots(c echo.Context) error {
	var req slotsReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	d, err := h.Svc.PickDate(req.Date)
	if err != nil {
		return writeServiceError(c, h.Log, err, service.Selection{})
	}
	sel, err := h.Svc.SelectSlots(d, req.Slots)
	if err != nil {
		return writeServiceError(c, h.Log, err, sel)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"selection": sel,
		"next":      gamesURL + "?" + sel.Query().Encode(),
	})
}

// Games handles GET /v1/reservations/games?date=&table=&timeslots=.
func (h *ReservationHandler) Games(c echo.Context) error {
	sel, err := service.ParseSelection(c.QueryParam("date"), c.QueryParam("table"), c.QueryParam("timeslots"))
	if err != nil {
		return writeServiceError(c, h.Log, err, sel)
	}
	ctx, cancel := withTimeout(c)
	defer cancel()
	step, err := h.Svc.GameOptions(ctx, sel)
	if err != nil {
		return writeServiceError(c, h.Log, err, sel)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"selection": step.Selection,
		"table":     step.Table,
		"timeslots": step.Timeslots,
		"games":     step.Games,
		"next":      summaryURL,
	})
}

// Summary handles POST /v1/reservations/summary.
func (h *ReservationHandler) Summary(c echo.Context) error {
	p, ok := principal(c)
	if !ok {
		return unauthorized(c)
	}
	var req summaryReq
	if err := bindValid(c, &req); err != nil {
		return badRequest(c, err.Error())
	}
	sel, err := selectionOf(req.Date, req.TableID, req.TimeslotIDs)
	if err != nil {
		return writeServiceError(c, h.Log, err, sel)
	}
	ctx, cancel := withTimeout(c)
	defer cancel()
	view, err := h.Svc.Summary(ctx, p, service.SummaryRequest{
		Selection:  sel,
		PartySize:  req.PartySize,
		Quantities: req.Quantities,
	})
	if err != nil {
		return writeServiceError(c, h.Log, err, sel)
	}
	return c.JSON(http.StatusOK, echo.Map{"summary": view, "next": commitURL})
}

// Commit handles POST /v1/reservations and returns 201 with the receipt.
func (h *ReservationHandler) Commit(c echo.Context) error {
	p, ok := principal(c)
	if !ok {
		return unauthorized(c)
	}
	var req commitReq
	if err := bindValid(c, &req); err != nil {
		return badRequest(c, err.Error())
	}
	sel, err := selectionOf(req.Date, req.TableID, req.TimeslotIDs)
	if err != nil {
		return writeServiceError(c, h.Log, err, sel)
	}
	ctx, cancel := withTimeout(c)
	defer cancel()
	rc, err := h.Svc.Commit(ctx, p, service.CommitRequest{
		Selection: sel,
		GameIDs:   req.GameIDs,
		GameQtys:  req.GameQtys,
		PartySize: req.PartySize,
		Contact:   service.Contact{Name: req.Name, Phone: req.Phone, Email: req.Email},
		Notes:     req.Notes,
	})
	if err != nil {
		return writeServiceError(c, h.Log, err, sel)
	}
	return c.JSON(http.StatusCreated, rc)
}

// MyBookings handles GET /v1/my-bookings.
func (h *ReservationHandler) MyBookings(c echo.Context) error {
	p, ok := principal(c)
	if !ok {
		return unauthorized(c)
	}
	ctx, cancel := withTimeout(c)
	defer cancel()
	list, err := h.Svc.History(ctx, p)
	if err != nil {
		return internalError(c, h.Log, "list bookings", err)
	}
	if list == nil {
		list = []model.BookingDetail{}
	}
	return c.JSON(http.StatusOK, echo.Map{"bookings": list})
}

// Booking handles GET /v1/bookings/:id.
func (h *ReservationHandler) Booking(c echo.Context) error {
	p, ok := principal(c)
	if !ok {
		return unauthorized(c)
	}
	id, ok := parseID(c, "id")
	if !ok {
		return badRequest(c, "invalid booking id")
	}
	ctx, cancel := withTimeout(c)
	defer cancel()
	b, err := h.Svc.Booking(ctx, p, id)
	if err != nil {
		return writeServiceError(c, h.Log, err, service.Selection{})
	}
	return c.JSON(http.StatusOK, b)
}

// Cancel handles POST /v1/bookings/:id/cancel.  Cancelling an already
// cancelled booking returns it unchanged.
func (h *ReservationHandler) Cancel(c echo.Context) error {
	p, ok := principal(c)
	if !ok {
		return unauthorized(c)
	}
	id, ok := parseID(c, "id")
	if !ok {
		return badRequest(c, "invalid booking id")
	}
	ctx, cancel := withTimeout(c)
	defer cancel()
	b, err := h.Svc.Cancel(ctx, p, id)
	if err != nil {
		return writeServiceError(c, h.Log, err, service.Selection{})
	}
	return c.JSON(http.StatusOK, b)
}
