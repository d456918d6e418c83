package service

import (
	"context"
	"errors"

	"github.com/iliyamo/game-table-reservation/internal/metrics"
	"github.com/iliyamo/game-table-reservation/internal/model"
	"github.com/iliyamo/game-table-reservation/internal/queue"
)

func bookingNotFound() *Error { return fail(CodeNotFound, "", "booking not found") }

// Booking returns a booking visible to p: its own, or any for admins.
// Other users' bookings are reported as not found.
func (s *Reservations) Booking(ctx context.Context, p model.Principal, id uint64) (model.BookingDetail, error) {
	b, err := s.store.GetBooking(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return model.BookingDetail{}, bookingNotFound()
		}
		return model.BookingDetail{}, err
	}
	if b.UserID != p.ID && !p.CanAdminister() {
		return model.BookingDetail{}, bookingNotFound()
	}
	return b, nil
}

// History lists the principal's bookings, newest date first.
func (s *Reservations) History(ctx context.Context, p model.Principal) ([]model.BookingDetail, error) {
	return s.store.ListUserBookings(ctx, p.ID)
}

// Cancel moves a booking to Cancelled.  Cancelling twice is harmless and
// the second call changes nothing.  Stock frees up implicitly because
// cancelled items are not counted.
func (s *Reservations) Cancel(ctx context.Context, p model.Principal, id uint64) (model.BookingDetail, error) {
	b, err := s.Booking(ctx, p, id)
	if err != nil {
		return b, err
	}
	if b.Status == model.StatusCancelled {
		return b, nil
	}
	if err := s.setStatus(ctx, id, model.StatusCancelled); err != nil {
		return model.BookingDetail{}, err
	}
	b.Status = model.StatusCancelled
	metrics.IncBookingCancelled()
	s.log.Info("booking cancelled", "booking_id", id, "by", p.ID)
	s.publish(ctx, bookingEvent(queue.BookingCancelled, b))
	return b, nil
}

// Confirm moves a Pending booking to Confirmed.  Only administrators may
// confirm; anyone else sees not found.  The update only applies while the
// booking is still Pending, so a cancellation that lands first wins.
func (s *Reservations) Confirm(ctx context.Context, p model.Principal, id uint64) (model.BookingDetail, error) {
	if !p.CanAdminister() {
		return model.BookingDetail{}, bookingNotFound()
	}
	b, err := s.Booking(ctx, p, id)
	if err != nil {
		return b, err
	}
	switch b.Status {
	case model.StatusConfirmed:
		return b, nil
	case model.StatusCancelled:
		return model.BookingDetail{}, cannotConfirm()
	}
	err = s.store.TransitionBooking(ctx, id, model.StatusPending, model.StatusConfirmed)
	if errors.Is(err, ErrStatusChanged) {
		cur, rerr := s.Booking(ctx, p, id)
		if rerr != nil {
			return cur, rerr
		}
		if cur.Status == model.StatusConfirmed {
			return cur, nil
		}
		return model.BookingDetail{}, cannotConfirm()
	}
	if err != nil {
		return model.BookingDetail{}, statusError(err)
	}
	b.Status = model.StatusConfirmed
	metrics.IncBookingConfirmed()
	return b, nil
}

func cannotConfirm() *Error {
	return fail(CodeInvalidTransition, "", "cancelled bookings cannot be confirmed")
}

func (s *Reservations) setStatus(ctx context.Context, id uint64, status string) error {
	return statusError(s.store.SetBookingStatus(ctx, id, status))
}

// statusError maps store errors from a status update to user-facing ones.
func statusError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrNotFound):
		return bookingNotFound()
	case errors.Is(err, ErrSlotTaken):
		return fail(CodeSlotTaken, "", "the slot has been booked by someone else")
	}
	return err
}

func bookingEvent(typ string, b model.BookingDetail) queue.BookingEvent {
	ev := queue.BookingEvent{
		Type:       typ,
		BookingIDs: []uint64{b.ID},
		UserID:     b.UserID,
		TableID:    b.TableID,
		TableName:  b.TableName,
		Date:       b.BookingDate.String(),
		Slots:      []string{b.Timeslot.Label()},
	}
	for _, it := range b.Items {
		ev.Items = append(ev.Items, queue.EventItem{GameID: it.GameID, Name: it.GameName, Qty: it.Qty})
	}
	return ev
}
