package model

import "time"

// Booking statuses.  Only Cancelled bookings are ignored by conflict and
// stock checks.
const (
	StatusPending   = "Pending"
	StatusConfirmed = "Confirmed"
	StatusCancelled = "Cancelled"
)

// ValidStatus reports whether s is a known booking status.
func ValidStatus(s string) bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusCancelled:
		return true
	}
	return false
}

// Statuses lists booking statuses in display order.
var Statuses = []string{StatusPending, StatusConfirmed, StatusCancelled}

// Booking is one table for one timeslot on one date.  A reservation that
// spans several timeslots is stored as several bookings, each carrying
// its own copy of the reserved games.
//
// Fields:
//  ID           – primary key identifier.
//  UserID       – customer who made the booking.
//  TableID      – table being reserved.
//  TimeslotID   – timeslot being reserved.
//  BookingDate  – calendar day of the booking.
//  PartySize    – number of guests.
//  Status       – Pending, Confirmed or Cancelled.
//  CustomerName, Phone, Email – contact details captured at commit.
//  Notes        – free text.
//  Items        – games attached to this booking (loaded on demand).
type Booking struct {
	ID           uint64        `json:"id"`            // bookings.id
	UserID       uint64        `json:"user_id"`       // bookings.user_id
	TableID      uint64        `json:"table_id"`      // bookings.table_id
	TimeslotID   uint64        `json:"timeslot_id"`   // bookings.timeslot_id
	BookingDate  Date          `json:"booking_date"`  // bookings.booking_date
	PartySize    int           `json:"party_size"`    // bookings.party_size
	Status       string        `json:"status"`        // bookings.status
	CustomerName string        `json:"customer_name"` // bookings.customer_name
	Phone        string        `json:"phone"`         // bookings.phone
	Email        string        `json:"email"`         // bookings.email
	Notes        string        `json:"notes"`         // bookings.notes
	CreatedAt    time.Time     `json:"created_at"`    // bookings.created_at
	UpdatedAt    time.Time     `json:"updated_at"`    // bookings.updated_at
	Items        []BookingItem `json:"items,omitempty"`
}

// Active reports whether the booking still occupies its slot and stock.
func (b Booking) Active() bool { return b.Status != StatusCancelled }

// BookingItem reserves Qty copies of a game for the parent booking.
type BookingItem struct {
	ID        uint64 `json:"id"`         // booking_items.id
	BookingID uint64 `json:"booking_id"` // booking_items.booking_id
	GameID    uint64 `json:"game_id"`    // booking_items.game_id
	GameName  string `json:"game_name,omitempty"`
	Qty       int    `json:"qty"` // booking_items.qty
}

// BookingDetail is a booking joined with the names needed to display it.
type BookingDetail struct {
	Booking
	TableName string   `json:"table_name"`
	Timeslot  Timeslot `json:"timeslot"`
	Username  string   `json:"username"`
}
