package service

import (
	"context"
	"errors"
	"sort"
	"strings"

	"github.com/iliyamo/game-table-reservation/internal/metrics"
	"github.com/iliyamo/game-table-reservation/internal/model"
	"github.com/iliyamo/game-table-reservation/internal/queue"
)

// CommitRequest is the input of the final step.  GameIDs and GameQtys are
// parallel lists; duplicates are merged by summing.
type CommitRequest struct {
	Selection
	GameIDs   []uint64
	GameQtys  []int
	PartySize int
	Contact   Contact
	Notes     string
}

// ReservedGame is a game and the quantity held in every booked slot.
type ReservedGame struct {
	Game model.Game `json:"game"`
	Qty  int        `json:"qty"`
}

// Receipt describes a committed reservation.
type Receipt struct {
	Bookings  []model.Booking  `json:"bookings"`
	Date      model.Date       `json:"date"`
	Table     model.Table      `json:"table"`
	Timeslots []model.Timeslot `json:"timeslots"`
	Games     []ReservedGame   `json:"games"`
	StartTime string           `json:"start_time"`
	EndTime   string           `json:"end_time"`
}

// MergeRequirements pairs ids with quantities, drops non-positive
// quantities and sums duplicate ids.
func MergeRequirements(ids []uint64, qtys []int) (map[uint64]int, error) {
	if len(ids) != len(qtys) {
		return nil, fail(CodeInvalid, StepGames, "game selection is incomplete, please choose again")
	}
	out := map[uint64]int{}
	for i, id := range ids {
		if id == 0 || qtys[i] <= 0 {
			continue
		}
		out[id] += qtys[i]
	}
	return out, nil
}

func sortedIDs(m map[uint64]int) []uint64 {
	ids := make([]uint64, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func slotTaken(t model.Table, s model.Timeslot) *Error {
	return fail(CodeSlotTaken, StepTimeslots, "table %s is already booked for %s", t.Name, s.Label())
}

// Commit validates and persists a reservation inside one transaction: one
// Pending booking per selected timeslot, each with every requested game.
// Slot conflicts are checked first, then stock under game row locks taken
// in ascending id order.  Any failure leaves storage untouched.
func (s *Reservations) Commit(ctx context.Context, p model.Principal, req CommitRequest) (*Receipt, error) {
	reqs, err := MergeRequirements(req.GameIDs, req.GameQtys)
	if err != nil {
		return nil, err
	}
	if len(reqs) == 0 {
		return nil, fail(CodeInvalid, StepGames, "select at least one game")
	}
	if req.Date.IsZero() {
		return nil, fail(CodeInvalid, StepDate, "invalid date format, use YYYY-MM-DD")
	}
	table, slots, err := s.resolve(ctx, req.Selection, StepGames)
	if err != nil {
		return nil, err
	}

	partySize := req.PartySize
	if partySize <= 0 {
		partySize = DefaultPartySize
	}
	contact := req.Contact
	if strings.TrimSpace(contact.Name) == "" {
		contact.Name = p.DisplayName()
	}
	if strings.TrimSpace(contact.Email) == "" {
		contact.Email = p.Email
	}

	gameIDs := sortedIDs(reqs)
	ids := slotIDs(slots)
	var (
		created []model.Booking
		locked  map[uint64]model.Game
	)
	err = s.store.WithinTx(ctx, func(tx TxStore) error {
		created = nil
		for _, slot := range slots {
			taken, err := tx.ActiveBookingExists(ctx, table.ID, slot.ID, req.Date)
			if err != nil {
				return err
			}
			if taken {
				return slotTaken(table, slot)
			}
		}

		games, err := tx.LockGames(ctx, gameIDs)
		if err != nil {
			return err
		}
		locked = make(map[uint64]model.Game, len(games))
		for _, g := range games {
			locked[g.ID] = g
		}
		for _, id := range gameIDs {
			if _, ok := locked[id]; !ok {
				return fail(CodeNotFound, StepGames, "game %d not found", id)
			}
		}

		usage, err := tx.UsageOn(ctx, req.Date, ids)
		if err != nil {
			return err
		}
		for _, id := range gameIDs {
			g := locked[id]
			for _, slot := range slots {
				rem := Remaining(g.Stock, usage[UsageKey{GameID: id, TimeslotID: slot.ID}])
				if reqs[id] > rem {
					return fail(CodeInsufficientStock, StepGames,
						"game %q has only %d left for %s on the selected date", g.Name, rem, slot.Label())
				}
			}
		}

		for _, slot := range slots {
			b := model.Booking{
				UserID:       p.ID,
				TableID:      table.ID,
				TimeslotID:   slot.ID,
				BookingDate:  req.Date,
				PartySize:    partySize,
				Status:       model.StatusPending,
				CustomerName: contact.Name,
				Phone:        contact.Phone,
				Email:        contact.Email,
				Notes:        req.Notes,
			}
			if err := tx.CreateBooking(ctx, &b); err != nil {
				if errors.Is(err, ErrSlotTaken) {
					return slotTaken(table, slot)
				}
				return err
			}
			items := make([]model.BookingItem, 0, len(gameIDs))
			for _, id := range gameIDs {
				items = append(items, model.BookingItem{BookingID: b.ID, GameID: id, GameName: locked[id].Name, Qty: reqs[id]})
			}
			if err := tx.CreateItems(ctx, b.ID, items); err != nil {
				return err
			}
			b.Items = items
			created = append(created, b)
		}
		return nil
	})
	if err != nil {
		if IsConflict(err) {
			metrics.IncReservationRejected(string(CodeOf(err)))
			s.log.Info("reservation rejected", "user_id", p.ID, "table_id", table.ID, "date", req.Date.String(), "reason", err.Error())
		}
		return nil, err
	}

	rc := &Receipt{
		Bookings:  created,
		Date:      req.Date,
		Table:     table,
		Timeslots: slots,
		StartTime: slots[0].StartTime,
		EndTime:   slots[len(slots)-1].EndTime,
	}
	for _, id := range gameIDs {
		rc.Games = append(rc.Games, ReservedGame{Game: locked[id], Qty: reqs[id]})
	}
	sort.Slice(rc.Games, func(i, j int) bool { return rc.Games[i].Game.Name < rc.Games[j].Game.Name })

	for range created {
		metrics.IncBookingCreated(model.StatusPending)
	}
	s.log.Info("reservation committed", "user_id", p.ID, "table_id", table.ID, "date", req.Date.String(), "bookings", len(created))
	s.publish(ctx, receiptEvent(p.ID, rc))
	return rc, nil
}

func receiptEvent(userID uint64, rc *Receipt) queue.BookingEvent {
	ev := queue.BookingEvent{
		Type:      queue.BookingCreated,
		UserID:    userID,
		TableID:   rc.Table.ID,
		TableName: rc.Table.Name,
		Date:      rc.Date.String(),
	}
	for _, b := range rc.Bookings {
		ev.BookingIDs = append(ev.BookingIDs, b.ID)
	}
	for _, s := range rc.Timeslots {
		ev.Slots = append(ev.Slots, s.Label())
	}
	for _, g := range rc.Games {
		ev.Items = append(ev.Items, queue.EventItem{GameID: g.Game.ID, Name: g.Game.Name, Qty: g.Qty})
	}
	return ev
}
