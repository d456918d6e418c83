// Package router wires handlers and middleware onto the echo instance.
package router

import (
	"log/slog"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/iliyamo/game-table-reservation/internal/handler"
	"github.com/iliyamo/game-table-reservation/internal/middleware"
	"github.com/iliyamo/game-table-reservation/internal/validation"
)

// RegisterMiddlewares installs the global chain: panic recovery, CORS,
// request ids and request logging, then the optional rate limiter.
func RegisterMiddlewares(e *echo.Echo, log *slog.Logger, limiter echo.MiddlewareFunc) {
	e.Validator = validation.New()
	e.Use(echomw.Recover())
	e.Use(echomw.CORS())
	e.Use(middleware.RequestID())
	e.Use(middleware.Slog(log))
	if limiter != nil {
		e.Use(limiter)
	}
}

// RegisterRoutes registers the operational endpoints.  /metrics is only
// exposed when metrics are enabled.
func RegisterRoutes(e *echo.Echo, db handler.Pinger, metricsEnabled bool) {
	e.GET("/healthz", handler.Health(db))
	if metricsEnabled {
		e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	}
}

// RegisterAuth registers account routes.  Register, login, refresh and
// logout need no session; profile routes need a valid access token.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string) {
	g := e.Group("/v1/auth")
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)
	g.POST("/refresh", a.Refresh)
	g.POST("/logout", a.Logout)

	me := e.Group("/v1/me", middleware.JWTAuth(jwtSecret))
	me.GET("", a.Me)
	me.PUT("", a.UpdateMe)
}

// RegisterPublic registers the cached catalogue reads.
func RegisterPublic(e *echo.Echo, h *handler.CatalogHandler, cache *middleware.ResponseCache) {
	g := e.Group("/v1/catalog", cache.Middleware())
	g.GET("/tables", h.Tables)
	g.GET("/timeslots", h.Timeslots)
	g.GET("/games", h.Games)
}
