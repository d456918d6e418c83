package middleware

import (
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
)

// RequestID tags every request with a UUID in X-Request-ID.
func RequestID() echo.MiddlewareFunc {
	return echomw.RequestIDWithConfig(echomw.RequestIDConfig{
		Generator: func() string { return uuid.NewString() },
	})
}

// Slog logs one line per request.
func Slog(log *slog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			if err != nil {
				c.Error(err)
			}
			status := c.Response().Status
			level := slog.LevelInfo
			if status >= 500 {
				level = slog.LevelError
			}
			log.Log(c.Request().Context(), level, "http",
				"method", c.Request().Method,
				"path", c.Path(),
				"status", status,
				"latency_ms", time.Since(start).Milliseconds(),
				"req_id", c.Response().Header().Get(echo.HeaderXRequestID),
				"ip", c.RealIP(),
				"user", userID(c),
			)
			return nil
		}
	}
}
