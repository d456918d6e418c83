// Package middleware contains the echo middleware shared by all routes.
package middleware

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/game-table-reservation/internal/utils"
)

// JWTAuth validates a Bearer access token and stores the principal in the
// context under "principal", plus "user_id" and "role" for middleware that
// only needs those.
func JWTAuth(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			auth := c.Request().Header.Get(echo.HeaderAuthorization)
			if !strings.HasPrefix(auth, "Bearer ") {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing bearer token"})
			}
			p, err := utils.ParseAccessToken(secret, strings.TrimPrefix(auth, "Bearer "))
			if err != nil {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
			}
			c.Set(principalKey, p)
			c.Set("user_id", strconv.FormatUint(p.ID, 10))
			c.Set("role", p.Role)
			return next(c)
		}
	}
}
