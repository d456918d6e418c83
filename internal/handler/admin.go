package handler

import (
	"context"
	"log/slog"
	"time"

	"github.com/iliyamo/game-table-reservation/internal/service"
)

// AdminHandler bundles the stores behind the administration API.  Every
// route is mounted behind RequireAdmin.
type AdminHandler struct {
	Svc       *service.Reservations
	Stats     service.DashboardSource
	Bookings  AdminBookingStore
	Tables    TableStore
	Timeslots TimeslotStore
	Games     GameStore
	Customers CustomerStore
	Sessions  SessionRevoker
	Cache     CachePurger
	Log       *slog.Logger
	Now       func() time.Time
}

// purgeCatalog drops cached catalogue responses.  A failure only delays
// freshness until the cache TTL, so it is logged and ignored.
func (h *AdminHandler) purgeCatalog(ctx context.Context) {
	if h.Cache == nil {
		return
	}
	if err := h.Cache.Purge(ctx); err != nil {
		h.Log.Warn("catalog cache purge failed", "err", err)
	}
}

func (h *AdminHandler) now() time.Time {
	if h.Now != nil {
		return h.Now()
	}
	return time.Now()
}
