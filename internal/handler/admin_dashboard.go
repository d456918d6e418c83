package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/game-table-reservation/internal/model"
	"github.com/iliyamo/game-table-reservation/internal/service"
)

// Dashboard handles GET /v1/admin/dashboard.
func (h *AdminHandler) Dashboard(c echo.Context) error {
	ctx, cancel := withTimeout(c)
	defer cancel()
	d, err := service.BuildDashboard(ctx, h.Stats, model.DateOf(h.now()))
	if err != nil {
		return internalError(c, h.Log, "build dashboard", err)
	}
	return c.JSON(http.StatusOK, d)
}
