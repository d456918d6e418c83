package middleware

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/game-table-reservation/internal/model"
)

const principalKey = "principal"

// PrincipalFrom returns the principal stored by JWTAuth.
func PrincipalFrom(c echo.Context) (model.Principal, bool) {
	p, ok := c.Get(principalKey).(model.Principal)
	return p, ok && p.ID != 0
}

// SetPrincipal stores p as the authenticated caller.
func SetPrincipal(c echo.Context, p model.Principal) { c.Set(principalKey, p) }

// userID returns the caller id as a string, or "anon".
func userID(c echo.Context) string {
	if s, ok := c.Get("user_id").(string); ok && s != "" {
		return s
	}
	return "anon"
}
