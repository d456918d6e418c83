// Package queue defines message payloads exchanged over the message broker
// and the worker that consumes them.
package queue

// Event types carried in BookingEvent.Type.
const (
	BookingCreated   = "booking.created"
	BookingCancelled = "booking.cancelled"
)

// BookingsQueue is the durable queue booking events are published to.
const BookingsQueue = "booking.events"

// BookingEvent is published after a reservation commits or a booking is
// cancelled.  It carries enough information for downstream consumers to
// log or notify without querying the primary database.
type BookingEvent struct {
	Type       string      `json:"type"`
	BookingIDs []uint64    `json:"booking_ids"`
	UserID     uint64      `json:"user_id"`
	TableID    uint64      `json:"table_id"`
	TableName  string      `json:"table_name"`
	Date       string      `json:"date"`
	Slots      []string    `json:"slots"`
	Items      []EventItem `json:"items"`
	OccurredAt string      `json:"occurred_at"`
}

// EventItem is one reserved game in a BookingEvent.
type EventItem struct {
	GameID uint64 `json:"game_id"`
	Name   string `json:"name"`
	Qty    int    `json:"qty"`
}
