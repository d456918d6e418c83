package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/game-table-reservation/internal/middleware"
	"github.com/iliyamo/game-table-reservation/internal/model"
	"github.com/iliyamo/game-table-reservation/internal/service"
	"github.com/iliyamo/game-table-reservation/internal/validation"
)

// requestTimeout bounds the storage work of a single request.
const requestTimeout = 5 * time.Second

// Wizard step locations, used as "next" and "redirect" targets.
const (
	dateURL    = "/v1/reservations/date"
	slotsURL   = "/v1/reservations/slots"
	gamesURL   = "/v1/reservations/games"
	summaryURL = "/v1/reservations/summary"
	commitURL  = "/v1/reservations"
)

func withTimeout(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), requestTimeout)
}

// apiError writes the common error body.
func apiError(c echo.Context, status int, code, msg string) error {
	return c.JSON(status, echo.Map{"error": msg, "code": code})
}

func badRequest(c echo.Context, msg string) error {
	return apiError(c, http.StatusBadRequest, string(service.CodeInvalid), msg)
}

func notFoundError(c echo.Context, msg string) error {
	return apiError(c, http.StatusNotFound, string(service.CodeNotFound), msg)
}

func conflict(c echo.Context, msg string) error {
	return apiError(c, http.StatusConflict, "conflict", msg)
}

func internalError(c echo.Context, log *slog.Logger, what string, err error) error {
	log.Error(what, "err", err, "path", c.Path(), "req_id", c.Response().Header().Get(echo.HeaderXRequestID))
	return apiError(c, http.StatusInternalServerError, "internal", "internal error")
}

// bindValid binds the request body into dst and runs the registered
// validator over it.
func bindValid(c echo.Context, dst any) error {
	if err := c.Bind(dst); err != nil {
		return errors.New("invalid body")
	}
	if err := c.Validate(dst); err != nil {
		return errors.New(validation.Message(err))
	}
	return nil
}

// principal returns the authenticated caller.  Routes using it are always
// behind JWTAuth, so a missing principal is a wiring error.
func principal(c echo.Context) (model.Principal, bool) {
	return middleware.PrincipalFrom(c)
}

func unauthorized(c echo.Context) error {
	return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
}

// parseID reads a positive integer path parameter.
func parseID(c echo.Context, name string) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	return id, err == nil && id > 0
}

// stepURL is where a client resumes the wizard for step.
func stepURL(step service.Step, sel service.Selection) string {
	switch step {
	case service.StepDate:
		return dateURL
	case service.StepTimeslots:
		if sel.Date.IsZero() {
			return dateURL
		}
		return slotsURL + "?date=" + sel.Date.String()
	case service.StepGames, service.StepSummary:
		if sel.Date.IsZero() {
			return dateURL
		}
		if sel.TableID == 0 || len(sel.TimeslotIDs) == 0 {
			return slotsURL + "?date=" + sel.Date.String()
		}
		return gamesURL + "?" + sel.Query().Encode()
	}
	return ""
}

// writeServiceError maps a reservation failure to HTTP.  Wizard failures
// carry the step to return to and its URL; conflicts are 409; a booking
// that is missing or not visible is 404.
func writeServiceError(c echo.Context, log *slog.Logger, err error, sel service.Selection) error {
	var se *service.Error
	if !errors.As(err, &se) {
		return internalError(c, log, "reservation request failed", err)
	}
	status := http.StatusBadRequest
	switch se.Code {
	case service.CodeSlotTaken, service.CodeInsufficientStock, service.CodeInvalidTransition:
		status = http.StatusConflict
	case service.CodeNotFound:
		if se.Step == "" {
			status = http.StatusNotFound
		}
	}
	body := echo.Map{"error": se.Message, "code": string(se.Code)}
	if se.Step != "" {
		body["step"] = string(se.Step)
		body["redirect"] = stepURL(se.Step, sel)
	}
	return c.JSON(status, body)
}
