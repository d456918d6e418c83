// Package service implements the reservation core: availability, the
// stateless booking wizard, the transactional commit and cancellation.
package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/iliyamo/game-table-reservation/internal/queue"
)

// EventPublisher delivers booking events to the broker.
type EventPublisher interface {
	Publish(ctx context.Context, ev queue.BookingEvent) error
}

// Reservations runs the booking workflow against a Store.  It holds no
// per-request state; every step is driven by its explicit input.
type Reservations struct {
	store  Store
	events EventPublisher
	log    *slog.Logger
	now    func() time.Time
}

// NewReservations wires the workflow.  A nil publisher disables events and
// a nil logger falls back to slog.Default.
func NewReservations(store Store, events EventPublisher, log *slog.Logger) *Reservations {
	if store == nil {
		panic("nil store passed to NewReservations")
	}
	if events == nil {
		events = NopPublisher{}
	}
	if log == nil {
		log = slog.Default()
	}
	return &Reservations{store: store, events: events, log: log, now: time.Now}
}

func (s *Reservations) publish(ctx context.Context, ev queue.BookingEvent) {
	ev.OccurredAt = s.now().UTC().Format(time.RFC3339)
	if err := s.events.Publish(ctx, ev); err != nil {
		s.log.Warn("publish booking event failed", "type", ev.Type, "bookings", ev.BookingIDs, "err", err)
	}
}
