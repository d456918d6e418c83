package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/game-table-reservation/internal/export"
	"github.com/iliyamo/game-table-reservation/internal/metrics"
	"github.com/iliyamo/game-table-reservation/internal/model"
	"github.com/iliyamo/game-table-reservation/internal/repository"
	"github.com/iliyamo/game-table-reservation/internal/service"
)

// xlsxContentType is the MIME type of .xlsx workbooks.
const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type adminBookingReq struct {
	UserID       uint64 `json:"user_id"`
	TableID      uint64 `json:"table_id" validate:"required"`
	TimeslotID   uint64 `json:"timeslot_id" validate:"required"`
	BookingDate  string `json:"booking_date" validate:"required,date"`
	PartySize    int    `json:"party_size" validate:"gte=0,lte=100"`
	Status       string `json:"status" validate:"omitempty,oneof=Pending Confirmed Cancelled"`
	CustomerName string `json:"customer_name" validate:"max=150"`
	Phone        string `json:"phone" validate:"max=32"`
	Email        string `json:"email" validate:"omitempty,email,max=254"`
	Notes        string `json:"notes" validate:"max=1000"`
}

// bookingFilter reads status, from, to and user_id query parameters.
func bookingFilter(c echo.Context) (repository.BookingFilter, error) {
	var f repository.BookingFilter
	if s := strings.TrimSpace(c.QueryParam("status")); s != "" {
		if !model.ValidStatus(s) {
			return f, fmt.Errorf("unknown status %q", s)
		}
		f.Status = s
	}
	for _, q := range []struct {
		name string
		dst  **model.Date
	}{{"from", &f.From}, {"to", &f.To}} {
		raw := c.QueryParam(q.name)
		if raw == "" {
			continue
		}
		d, err := model.ParseDate(raw)
		if err != nil {
			return f, fmt.Errorf("invalid %s date, use YYYY-MM-DD", q.name)
		}
		*q.dst = &d
	}
	if f.From != nil && f.To != nil && f.From.After(f.To.Time) {
		return f, errors.New("from must not be after to")
	}
	if raw := c.QueryParam("user_id"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			return f, errors.New("invalid user_id")
		}
		f.UserID = id
	}
	return f, nil
}

// ListBookings handles GET /v1/admin/bookings.
func (h *AdminHandler) ListBookings(c echo.Context) error {
	f, err := bookingFilter(c)
	if err != nil {
		return badRequest(c, err.Error())
	}
	ctx, cancel := withTimeout(c)
	defer cancel()
	list, err := h.Bookings.List(ctx, f)
	if err != nil {
		return internalError(c, h.Log, "list bookings", err)
	}
	if list == nil {
		list = []model.BookingDetail{}
	}
	return c.JSON(http.StatusOK, echo.Map{"items": list})
}

// ExportBookings handles GET /v1/admin/bookings/export.xlsx.
func (h *AdminHandler) ExportBookings(c echo.Context) error {
	f, err := bookingFilter(c)
	if err != nil {
		return badRequest(c, err.Error())
	}
	ctx, cancel := withTimeout(c)
	defer cancel()
	list, err := h.Bookings.List(ctx, f)
	if err != nil {
		return internalError(c, h.Log, "list bookings", err)
	}
	period := export.Period{From: f.From, To: f.To}
	res := c.Response()
	res.Header().Set(echo.HeaderContentType, xlsxContentType)
	res.Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", period.Filename()))
	res.WriteHeader(http.StatusOK)
	if err := export.WriteBookings(res, period, list); err != nil {
		h.Log.Error("write export", "err", err)
	}
	return nil
}

// inputError is a client mistake detected after binding.
type inputError string

func (e inputError) Error() string { return string(e) }

// toBooking checks that the referenced table and timeslot exist and
// copies the request into b.
func (h *AdminHandler) toBooking(ctx context.Context, req adminBookingReq, b *model.Booking) error {
	if _, err := h.Tables.GetByID(ctx, req.TableID); err != nil {
		if errors.Is(err, repository.ErrTableNotFound) {
			return inputError("table not found")
		}
		return err
	}
	if _, err := h.Timeslots.GetByID(ctx, req.TimeslotID); err != nil {
		if errors.Is(err, repository.ErrTimeslotNotFound) {
			return inputError("timeslot not found")
		}
		return err
	}
	d, err := model.ParseDate(req.BookingDate)
	if err != nil {
		return inputError("invalid booking_date, use YYYY-MM-DD")
	}
	b.TableID = req.TableID
	b.TimeslotID = req.TimeslotID
	b.BookingDate = d
	b.PartySize = req.PartySize
	if b.PartySize <= 0 {
		b.PartySize = service.DefaultPartySize
	}
	b.Status = req.Status
	if b.Status == "" {
		b.Status = model.StatusPending
	}
	b.CustomerName = strings.TrimSpace(req.CustomerName)
	b.Phone = strings.TrimSpace(req.Phone)
	b.Email = strings.TrimSpace(req.Email)
	b.Notes = req.Notes
	return nil
}

func (h *AdminHandler) writeInput(c echo.Context, what string, err error) error {
	var ie inputError
	if errors.As(err, &ie) {
		return badRequest(c, string(ie))
	}
	return internalError(c, h.Log, what, err)
}

// CreateBooking handles POST /v1/admin/bookings.  The booking belongs to
// user_id when given, else to the administrator.  Stock is not checked;
// the unique slot key still is.
func (h *AdminHandler) CreateBooking(c echo.Context) error {
	p, ok := principal(c)
	if !ok {
		return unauthorized(c)
	}
	var req adminBookingReq
	if err := bindValid(c, &req); err != nil {
		return badRequest(c, err.Error())
	}
	ctx, cancel := withTimeout(c)
	defer cancel()
	b := model.Booking{UserID: p.ID}
	if req.UserID > 0 {
		if _, err := h.Customers.GetByID(ctx, req.UserID); err != nil {
			if errors.Is(err, repository.ErrUserNotFound) {
				return badRequest(c, "user not found")
			}
			return internalError(c, h.Log, "load user", err)
		}
		b.UserID = req.UserID
	}
	if err := h.toBooking(ctx, req, &b); err != nil {
		return h.writeInput(c, "prepare booking", err)
	}
	if err := h.Bookings.Create(ctx, &b); err != nil {
		if errors.Is(err, repository.ErrSlotTaken) {
			return conflict(c, "this table is already booked for that timeslot and date")
		}
		return internalError(c, h.Log, "create booking", err)
	}
	metrics.IncBookingCreated(b.Status)
	h.Log.Info("admin created booking", "booking_id", b.ID, "by", p.ID)
	d, err := h.Bookings.GetDetail(ctx, b.ID)
	if err != nil {
		return internalError(c, h.Log, "load booking", err)
	}
	return c.JSON(http.StatusCreated, d)
}

// UpdateBooking handles PUT /v1/admin/bookings/:id.
func (h *AdminHandler) UpdateBooking(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return badRequest(c, "invalid booking id")
	}
	var req adminBookingReq
	if err := bindValid(c, &req); err != nil {
		return badRequest(c, err.Error())
	}
	ctx, cancel := withTimeout(c)
	defer cancel()
	cur, err := h.Bookings.GetDetail(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrBookingNotFound) {
			return notFoundError(c, "booking not found")
		}
		return internalError(c, h.Log, "load booking", err)
	}
	b := cur.Booking
	if err := h.toBooking(ctx, req, &b); err != nil {
		return h.writeInput(c, "prepare booking", err)
	}
	if err := h.Bookings.Update(ctx, b); err != nil {
		switch {
		case errors.Is(err, repository.ErrSlotTaken):
			return conflict(c, "this table is already booked for that timeslot and date")
		case errors.Is(err, repository.ErrBookingNotFound):
			return notFoundError(c, "booking not found")
		}
		return internalError(c, h.Log, "update booking", err)
	}
	d, err := h.Bookings.GetDetail(ctx, id)
	if err != nil {
		return internalError(c, h.Log, "load booking", err)
	}
	return c.JSON(http.StatusOK, d)
}

// DeleteBooking handles DELETE /v1/admin/bookings/:id.
func (h *AdminHandler) DeleteBooking(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return badRequest(c, "invalid booking id")
	}
	ctx, cancel := withTimeout(c)
	defer cancel()
	if err := h.Bookings.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrBookingNotFound) {
			return notFoundError(c, "booking not found")
		}
		return internalError(c, h.Log, "delete booking", err)
	}
	return c.NoContent(http.StatusNoContent)
}

// ConfirmBooking handles POST /v1/admin/bookings/:id/confirm.
func (h *AdminHandler) ConfirmBooking(c echo.Context) error {
	return h.transition(c, h.Svc.Confirm)
}

// CancelBooking handles POST /v1/admin/bookings/:id/cancel.
func (h *AdminHandler) CancelBooking(c echo.Context) error {
	return h.transition(c, h.Svc.Cancel)
}

type transitionFunc func(ctx context.Context, p model.Principal, id uint64) (model.BookingDetail, error)

func (h *AdminHandler) transition(c echo.Context, fn transitionFunc) error {
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
	b, err := fn(ctx, p, id)
	if err != nil {
		return writeServiceError(c, h.Log, err, service.Selection{})
	}
	return c.JSON(http.StatusOK, b)
}
