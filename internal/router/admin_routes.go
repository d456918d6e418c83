package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/game-table-reservation/internal/handler"
	"github.com/iliyamo/game-table-reservation/internal/middleware"
)

// RegisterAdmin registers the administration API under /v1/admin.
// Non-administrators get 404 for every route.
func RegisterAdmin(e *echo.Echo, h *handler.AdminHandler, jwtSecret string) {
	g := e.Group("/v1/admin", middleware.JWTAuth(jwtSecret), middleware.RequireAdmin())

	g.GET("/dashboard", h.Dashboard)

	g.GET("/bookings", h.ListBookings)
	g.GET("/bookings/export.xlsx", h.ExportBookings)
	g.POST("/bookings", h.CreateBooking)
	g.PUT("/bookings/:id", h.UpdateBooking)
	g.DELETE("/bookings/:id", h.DeleteBooking)
	g.POST("/bookings/:id/confirm", h.ConfirmBooking)
	g.POST("/bookings/:id/cancel", h.CancelBooking)

	g.GET("/tables", h.ListTables)
	g.POST("/tables", h.CreateTable)
	g.PUT("/tables/:id", h.UpdateTable)
	g.DELETE("/tables/:id", h.DeleteTable)

	g.GET("/timeslots", h.ListTimeslots)
	g.POST("/timeslots", h.CreateTimeslot)
	g.PUT("/timeslots/:id", h.UpdateTimeslot)
	g.DELETE("/timeslots/:id", h.DeleteTimeslot)

	g.GET("/games", h.ListGames)
	g.POST("/games", h.CreateGame)
	g.PUT("/games/:id", h.UpdateGame)
	g.DELETE("/games/:id", h.DeleteGame)

	g.GET("/customers", h.ListCustomers)
	g.PUT("/customers/:id", h.UpdateCustomer)
	g.DELETE("/customers/:id", h.DeleteCustomer)
}
