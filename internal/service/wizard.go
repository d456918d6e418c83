package service

import (
	"context"
	"errors"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/iliyamo/game-table-reservation/internal/model"
)

// DefaultPartySize is used when the party size is missing or invalid.
const DefaultPartySize = 2

// Selection is the state carried from one wizard step to the next.
type Selection struct {
	Date        model.Date `json:"date"`
	TableID     uint64     `json:"table_id"`
	TimeslotIDs []uint64   `json:"timeslot_ids"`
}

// Query encodes the selection as the query string of the games step.
func (s Selection) Query() url.Values {
	v := url.Values{}
	if !s.Date.IsZero() {
		v.Set("date", s.Date.String())
	}
	if s.TableID > 0 {
		v.Set("table", strconv.FormatUint(s.TableID, 10))
	}
	if len(s.TimeslotIDs) > 0 {
		v.Set("timeslots", JoinIDs(s.TimeslotIDs))
	}
	return v
}

// JoinIDs renders ids as a comma separated list.
func JoinIDs(ids []uint64) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.FormatUint(id, 10)
	}
	return strings.Join(parts, ",")
}

// SplitIDs parses a comma separated id list, skipping blanks, zeros,
// unparsable entries and duplicates.
func SplitIDs(csv string) []uint64 {
	var out []uint64
	seen := map[uint64]bool{}
	for _, p := range strings.Split(csv, ",") {
		id, err := strconv.ParseUint(strings.TrimSpace(p), 10, 64)
		if err != nil || id == 0 || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

// ParseSelection validates the raw date, table and timeslots parameters
// carried in the URL.
func ParseSelection(date, table, timeslots string) (Selection, error) {
	if strings.TrimSpace(date) == "" || strings.TrimSpace(table) == "" || strings.TrimSpace(timeslots) == "" {
		return Selection{}, fail(CodeInvalid, StepDate, "please choose a date, table and timeslot first")
	}
	d, err := model.ParseDate(date)
	if err != nil {
		return Selection{}, fail(CodeInvalid, StepDate, "invalid date format, use YYYY-MM-DD")
	}
	tid, err := strconv.ParseUint(strings.TrimSpace(table), 10, 64)
	if err != nil || tid == 0 {
		return Selection{Date: d}, fail(CodeInvalid, StepTimeslots, "invalid table")
	}
	ids := SplitIDs(timeslots)
	if len(ids) == 0 {
		return Selection{Date: d}, fail(CodeInvalid, StepTimeslots, "select at least one timeslot")
	}
	return Selection{Date: d, TableID: tid, TimeslotIDs: ids}, nil
}

// PickDate validates the free-text date of step one.
func (s *Reservations) PickDate(raw string) (model.Date, error) {
	d, err := model.ParseDate(raw)
	if err != nil {
		return model.Date{}, fail(CodeInvalid, StepDate, "invalid date format, use YYYY-MM-DD")
	}
	return d, nil
}

// SlotCell is one timeslot of one table in the availability grid.
type SlotCell struct {
	Timeslot model.Timeslot `json:"timeslot"`
	Booked   bool           `json:"booked"`
}

// SlotRow is a table with its timeslots.
type SlotRow struct {
	Table model.Table `json:"table"`
	Slots []SlotCell  `json:"slots"`
}

// SlotGrid is the tables × timeslots view of step two.
type SlotGrid struct {
	Date      model.Date       `json:"date"`
	Timeslots []model.Timeslot `json:"timeslots"`
	Rows      []SlotRow        `json:"rows"`
}

// SlotGrid lists every table against every timeslot for date, flagging
// pairs held by a non-cancelled booking.
func (s *Reservations) SlotGrid(ctx context.Context, date model.Date) (SlotGrid, error) {
	tables, err := s.store.ListTables(ctx)
	if err != nil {
		return SlotGrid{}, err
	}
	slots, err := s.store.ListTimeslots(ctx)
	if err != nil {
		return SlotGrid{}, err
	}
	booked, err := s.store.BookedSlots(ctx, date)
	if err != nil {
		return SlotGrid{}, err
	}
	taken := make(map[SlotKey]bool, len(booked))
	for _, k := range booked {
		taken[k] = true
	}

	grid := SlotGrid{Date: date, Timeslots: slots, Rows: make([]SlotRow, 0, len(tables))}
	for _, t := range tables {
		row := SlotRow{Table: t, Slots: make([]SlotCell, 0, len(slots))}
		for _, ts := range slots {
			row.Slots = append(row.Slots, SlotCell{Timeslot: ts, Booked: taken[SlotKey{TableID: t.ID, TimeslotID: ts.ID}]})
		}
		grid.Rows = append(grid.Rows, row)
	}
	return grid, nil
}

// SelectSlots turns "<table>-<timeslot>" picks into a selection.  Malformed
// picks are ignored; picks spanning more than one table are rejected.
func (s *Reservations) SelectSlots(date model.Date, picks []string) (Selection, error) {
	sel := Selection{Date: date}
	seen := map[uint64]bool{}
	for _, p := range picks {
		parts := strings.SplitN(strings.TrimSpace(p), "-", 2)
		if len(parts) != 2 {
			continue
		}
		tid, err1 := strconv.ParseUint(parts[0], 10, 64)
		sid, err2 := strconv.ParseUint(parts[1], 10, 64)
		if err1 != nil || err2 != nil || tid == 0 || sid == 0 {
			continue
		}
		if sel.TableID != 0 && sel.TableID != tid {
			return Selection{Date: date}, fail(CodeInvalid, StepTimeslots, "please select timeslots for a single table only")
		}
		sel.TableID = tid
		if !seen[sid] {
			seen[sid] = true
			sel.TimeslotIDs = append(sel.TimeslotIDs, sid)
		}
	}
	if len(sel.TimeslotIDs) == 0 {
		return Selection{Date: date}, fail(CodeInvalid, StepTimeslots, "select at least one timeslot")
	}
	return sel, nil
}

// resolve loads the table and timeslots named by sel.  missingSlots is the
// step to send the caller back to when none of the timeslots exist.
func (s *Reservations) resolve(ctx context.Context, sel Selection, missingSlots Step) (model.Table, []model.Timeslot, error) {
	table, err := s.store.GetTable(ctx, sel.TableID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return model.Table{}, nil, fail(CodeNotFound, StepTimeslots, "table %d not found", sel.TableID)
		}
		return model.Table{}, nil, err
	}
	slots, err := s.store.TimeslotsByIDs(ctx, sel.TimeslotIDs)
	if err != nil {
		return model.Table{}, nil, err
	}
	if len(slots) == 0 {
		return model.Table{}, nil, fail(CodeInvalid, missingSlots, "the selected timeslots were not found")
	}
	return table, slots, nil
}

func slotIDs(slots []model.Timeslot) []uint64 {
	ids := make([]uint64, len(slots))
	for i, s := range slots {
		ids[i] = s.ID
	}
	return ids
}

// GameOption is a game annotated with its advisory free stock across the
// selected timeslots.
type GameOption struct {
	Game      model.Game `json:"game"`
	Remaining int        `json:"remaining"`
}

// GameStep is the data of step three.
type GameStep struct {
	Selection Selection        `json:"selection"`
	Table     model.Table      `json:"table"`
	Timeslots []model.Timeslot `json:"timeslots"`
	Games     []GameOption     `json:"games"`
}

// GameOptions lists all games with the minimum remaining stock over the
// selected timeslots.  Nothing is locked; the numbers are advisory.
func (s *Reservations) GameOptions(ctx context.Context, sel Selection) (GameStep, error) {
	table, slots, err := s.resolve(ctx, sel, StepTimeslots)
	if err != nil {
		return GameStep{}, err
	}
	games, err := s.store.ListGames(ctx)
	if err != nil {
		return GameStep{}, err
	}
	usage, err := s.store.UsageOn(ctx, sel.Date, slotIDs(slots))
	if err != nil {
		return GameStep{}, err
	}
	sel.TimeslotIDs = slotIDs(slots)
	step := GameStep{Selection: sel, Table: table, Timeslots: slots, Games: make([]GameOption, 0, len(games))}
	for _, g := range games {
		step.Games = append(step.Games, GameOption{Game: g, Remaining: MinRemaining(g, usage, slots)})
	}
	return step, nil
}

// Contact holds the customer details attached to each booking.
type Contact struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
	Email string `json:"email"`
}

// SummaryRequest is the input of step four.  Quantities maps game id to
// the requested count; zero means not selected.
type SummaryRequest struct {
	Selection
	PartySize  int
	Quantities map[uint64]int
}

// ChosenGame is a selected game with its quantity and advisory stock.
type ChosenGame struct {
	Game      model.Game `json:"game"`
	Qty       int        `json:"qty"`
	Remaining int        `json:"remaining"`
	Enough    bool       `json:"enough"`
}

// SummaryView is the data shown for confirmation before commit.
type SummaryView struct {
	Selection Selection        `json:"selection"`
	Table     model.Table      `json:"table"`
	Timeslots []model.Timeslot `json:"timeslots"`
	Games     []ChosenGame     `json:"games"`
	PartySize int              `json:"party_size"`
	Contact   Contact          `json:"contact"`
}

// Summary re-validates the selection and echoes the chosen games.  Contact
// fields are prefilled from the principal.
func (s *Reservations) Summary(ctx context.Context, p model.Principal, req SummaryRequest) (SummaryView, error) {
	table, slots, err := s.resolve(ctx, req.Selection, StepTimeslots)
	if err != nil {
		return SummaryView{}, err
	}
	var ids []uint64
	for id, qty := range req.Quantities {
		if id > 0 && qty > 0 {
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		return SummaryView{}, fail(CodeInvalid, StepGames, "select at least one game")
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	games, err := s.store.GamesByIDs(ctx, ids)
	if err != nil {
		return SummaryView{}, err
	}
	if len(games) == 0 {
		return SummaryView{}, fail(CodeInvalid, StepGames, "select at least one game")
	}
	usage, err := s.store.UsageOn(ctx, req.Date, slotIDs(slots))
	if err != nil {
		return SummaryView{}, err
	}
	sort.Slice(games, func(i, j int) bool { return games[i].Name < games[j].Name })

	sel := req.Selection
	sel.TimeslotIDs = slotIDs(slots)
	view := SummaryView{
		Selection: sel,
		Table:     table,
		Timeslots: slots,
		PartySize: req.PartySize,
		Contact:   Contact{Name: p.DisplayName(), Email: p.Email},
	}
	if view.PartySize <= 0 {
		view.PartySize = DefaultPartySize
	}
	for _, g := range games {
		qty := req.Quantities[g.ID]
		rem := MinRemaining(g, usage, slots)
		view.Games = append(view.Games, ChosenGame{Game: g, Qty: qty, Remaining: rem, Enough: qty <= rem})
	}
	return view, nil
}
