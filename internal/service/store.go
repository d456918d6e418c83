package service

import (
	"context"

	"github.com/iliyamo/game-table-reservation/internal/model"
)

// UsageKey identifies the stock consumed by one game in one timeslot.
type UsageKey struct {
	GameID     uint64
	TimeslotID uint64
}

// Usage maps (game, timeslot) to the summed quantity of non-cancelled
// booking items on a single date.  Missing keys mean zero.
type Usage map[UsageKey]int

// SlotKey identifies a (table, timeslot) pair on a given date.
type SlotKey struct {
	TableID    uint64
	TimeslotID uint64
}

// Reader is the read side of storage used outside transactions.  Results
// are advisory: nothing is locked.
type Reader interface {
	ListTables(ctx context.Context) ([]model.Table, error)
	GetTable(ctx context.Context, id uint64) (model.Table, error)
	// ListTimeslots returns all timeslots ordered by start time.
	ListTimeslots(ctx context.Context) ([]model.Timeslot, error)
	// TimeslotsByIDs returns the existing timeslots among ids ordered by
	// start time.  Unknown ids are skipped.
	TimeslotsByIDs(ctx context.Context, ids []uint64) ([]model.Timeslot, error)
	// ListGames returns all games ordered by name.
	ListGames(ctx context.Context) ([]model.Game, error)
	GamesByIDs(ctx context.Context, ids []uint64) ([]model.Game, error)
	// BookedSlots lists (table, timeslot) pairs held by a non-cancelled
	// booking on date.
	BookedSlots(ctx context.Context, date model.Date) ([]SlotKey, error)
	UsageOn(ctx context.Context, date model.Date, timeslotIDs []uint64) (Usage, error)

	GetBooking(ctx context.Context, id uint64) (model.BookingDetail, error)
	// ListUserBookings returns a user's bookings newest date first, then by
	// timeslot start.
	ListUserBookings(ctx context.Context, userID uint64) ([]model.BookingDetail, error)
	SetBookingStatus(ctx context.Context, id uint64, status string) error
	// TransitionBooking sets the status to "to" only while the booking is
	// still in "from".  Otherwise it returns ErrStatusChanged.
	TransitionBooking(ctx context.Context, id uint64, from, to string) error
}

// TxStore is the storage seen inside a commit transaction.
type TxStore interface {
	ActiveBookingExists(ctx context.Context, tableID, timeslotID uint64, date model.Date) (bool, error)
	// LockGames takes write locks on the games with ids in ascending id
	// order and returns the locked rows.
	LockGames(ctx context.Context, ids []uint64) ([]model.Game, error)
	UsageOn(ctx context.Context, date model.Date, timeslotIDs []uint64) (Usage, error)
	// CreateBooking inserts b and sets its ID.  It returns ErrSlotTaken if
	// another non-cancelled booking holds the same slot.
	CreateBooking(ctx context.Context, b *model.Booking) error
	CreateItems(ctx context.Context, bookingID uint64, items []model.BookingItem) error
}

// Store combines reads with a transaction runner.  WithinTx commits when
// fn returns nil and rolls back otherwise.
type Store interface {
	Reader
	WithinTx(ctx context.Context, fn func(tx TxStore) error) error
}
