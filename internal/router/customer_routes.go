package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/game-table-reservation/internal/handler"
	"github.com/iliyamo/game-table-reservation/internal/middleware"
	"github.com/iliyamo/game-table-reservation/internal/model"
)

// RegisterCustomer registers the booking wizard and booking routes.  Any
// signed-in account may book; ownership is checked in the service.
func RegisterCustomer(e *echo.Echo, h *handler.ReservationHandler, jwtSecret string) {
	auth := []echo.MiddlewareFunc{
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.RoleCustomer, model.RoleAdmin),
	}

	w := e.Group("/v1/reservations", auth...)
	w.POST("/date", h.PickDate)
	w.GET("/slots", h.Slots)
	w.POST("/slots", h.SelectSlots)
	w.GET("/games", h.Games)
	w.POST("/summary", h.Summary)
	w.POST("", h.Commit)

	e.GET("/v1/my-bookings", h.MyBookings, auth...)
	b := e.Group("/v1/bookings", auth...)
	b.GET("/:id", h.Booking)
	b.POST("/:id/cancel", h.Cancel)
}
