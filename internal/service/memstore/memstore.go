// Package memstore is an in-memory service.Store.  Transactions are
// serialised by a single mutex and applied to a copy of the data, which
// is discarded on error, so it reproduces the commit semantics of the
// SQL store closely enough for tests.
package memstore

import (
	"context"
	"sort"
	"sync"

	"github.com/iliyamo/game-table-reservation/internal/model"
	"github.com/iliyamo/game-table-reservation/internal/service"
)

type data struct {
	tables    map[uint64]model.Table
	timeslots map[uint64]model.Timeslot
	games     map[uint64]model.Game
	bookings  map[uint64]model.Booking
	items     []model.BookingItem
	users     map[uint64]string
	nextID    uint64
}

func (d *data) clone() *data {
	c := &data{
		tables:    make(map[uint64]model.Table, len(d.tables)),
		timeslots: make(map[uint64]model.Timeslot, len(d.timeslots)),
		games:     make(map[uint64]model.Game, len(d.games)),
		bookings:  make(map[uint64]model.Booking, len(d.bookings)),
		items:     append([]model.BookingItem(nil), d.items...),
		users:     make(map[uint64]string, len(d.users)),
		nextID:    d.nextID,
	}
	for k, v := range d.tables {
		c.tables[k] = v
	}
	for k, v := range d.timeslots {
		c.timeslots[k] = v
	}
	for k, v := range d.games {
		c.games[k] = v
	}
	for k, v := range d.bookings {
		c.bookings[k] = v
	}
	for k, v := range d.users {
		c.users[k] = v
	}
	return c
}

func (d *data) id() uint64 {
	d.nextID++
	return d.nextID
}

// Store implements service.Store in memory.
type Store struct {
	mu sync.Mutex
	d  *data
}

var _ service.Store = (*Store)(nil)

// New returns an empty store.
func New() *Store {
	return &Store{d: &data{
		tables:    map[uint64]model.Table{},
		timeslots: map[uint64]model.Timeslot{},
		games:     map[uint64]model.Game{},
		bookings:  map[uint64]model.Booking{},
		users:     map[uint64]string{},
	}}
}

// AddTable seeds a table and returns it with its id.
func (s *Store) AddTable(name string) model.Table {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := model.Table{ID: s.d.id(), Name: name}
	s.d.tables[t.ID] = t
	return t
}

// AddTimeslot seeds a timeslot given HH:MM bounds.
func (s *Store) AddTimeslot(start, end string) model.Timeslot {
	s.mu.Lock()
	defer s.mu.Unlock()
	ts := model.Timeslot{ID: s.d.id(), StartTime: start, EndTime: end}
	s.d.timeslots[ts.ID] = ts
	return ts
}

// AddGame seeds a game with the given stock.
func (s *Store) AddGame(name string, stock int) model.Game {
	s.mu.Lock()
	defer s.mu.Unlock()
	g := model.Game{ID: s.d.id(), Name: name, Stock: stock}
	s.d.games[g.ID] = g
	return g
}

// AddUser registers a username for booking details.
func (s *Store) AddUser(id uint64, username string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.d.users[id] = username
}

// Bookings returns a snapshot of all bookings ordered by id.
func (s *Store) Bookings() []model.Booking {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Booking, 0, len(s.d.bookings))
	for _, b := range s.d.bookings {
		b.Items = s.d.itemsOf(b.ID)
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// ItemCount returns the number of stored booking items.
func (s *Store) ItemCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.d.items)
}

func (d *data) itemsOf(bookingID uint64) []model.BookingItem {
	var out []model.BookingItem
	for _, it := range d.items {
		if it.BookingID == bookingID {
			it.GameName = d.games[it.GameID].Name
			out = append(out, it)
		}
	}
	return out
}

func (d *data) detail(b model.Booking) model.BookingDetail {
	b.Items = d.itemsOf(b.ID)
	return model.BookingDetail{
		Booking:   b,
		TableName: d.tables[b.TableID].Name,
		Timeslot:  d.timeslots[b.TimeslotID],
		Username:  d.users[b.UserID],
	}
}

func (d *data) usage(date model.Date, timeslotIDs []uint64) service.Usage {
	want := map[uint64]bool{}
	for _, id := range timeslotIDs {
		want[id] = true
	}
	u := service.Usage{}
	for _, it := range d.items {
		b, ok := d.bookings[it.BookingID]
		if !ok || !b.Active() || !want[b.TimeslotID] || !b.BookingDate.Equal(date.Time) {
			continue
		}
		u[service.UsageKey{GameID: it.GameID, TimeslotID: b.TimeslotID}] += it.Qty
	}
	return u
}

func (d *data) activeExists(tableID, timeslotID uint64, date model.Date) bool {
	for _, b := range d.bookings {
		if b.Active() && b.TableID == tableID && b.TimeslotID == timeslotID && b.BookingDate.Equal(date.Time) {
			return true
		}
	}
	return false
}

func (d *data) gamesByIDs(ids []uint64) []model.Game {
	var out []model.Game
	for _, id := range ids {
		if g, ok := d.games[id]; ok {
			out = append(out, g)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *Store) ListTables(ctx context.Context) ([]model.Table, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Table, 0, len(s.d.tables))
	for _, t := range s.d.tables {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *Store) GetTable(ctx context.Context, id uint64) (model.Table, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.d.tables[id]
	if !ok {
		return model.Table{}, service.ErrNotFound
	}
	return t, nil
}

func (s *Store) ListTimeslots(ctx context.Context) ([]model.Timeslot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Timeslot, 0, len(s.d.timeslots))
	for _, ts := range s.d.timeslots {
		out = append(out, ts)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartTime < out[j].StartTime })
	return out, nil
}

func (s *Store) TimeslotsByIDs(ctx context.Context, ids []uint64) ([]model.Timeslot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.Timeslot
	for _, id := range ids {
		if ts, ok := s.d.timeslots[id]; ok {
			out = append(out, ts)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartTime < out[j].StartTime })
	return out, nil
}

func (s *Store) ListGames(ctx context.Context) ([]model.Game, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Game, 0, len(s.d.games))
	for _, g := range s.d.games {
		out = append(out, g)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *Store) GamesByIDs(ctx context.Context, ids []uint64) ([]model.Game, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.d.gamesByIDs(ids), nil
}

func (s *Store) BookedSlots(ctx context.Context, date model.Date) ([]service.SlotKey, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []service.SlotKey
	for _, b := range s.d.bookings {
		if b.Active() && b.BookingDate.Equal(date.Time) {
			out = append(out, service.SlotKey{TableID: b.TableID, TimeslotID: b.TimeslotID})
		}
	}
	return out, nil
}

func (s *Store) UsageOn(ctx context.Context, date model.Date, timeslotIDs []uint64) (service.Usage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.d.usage(date, timeslotIDs), nil
}

func (s *Store) GetBooking(ctx context.Context, id uint64) (model.BookingDetail, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.d.bookings[id]
	if !ok {
		return model.BookingDetail{}, service.ErrNotFound
	}
	return s.d.detail(b), nil
}

func (s *Store) ListUserBookings(ctx context.Context, userID uint64) ([]model.BookingDetail, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.BookingDetail
	for _, b := range s.d.bookings {
		if b.UserID == userID {
			out = append(out, s.d.detail(b))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].BookingDate.Equal(out[j].BookingDate.Time) {
			return out[i].BookingDate.After(out[j].BookingDate.Time)
		}
		return out[i].Timeslot.StartTime < out[j].Timeslot.StartTime
	})
	return out, nil
}

func (s *Store) SetBookingStatus(ctx context.Context, id uint64, status string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.d.bookings[id]
	if !ok {
		return service.ErrNotFound
	}
	// reviving a cancelled booking must not collide with a live one
	if !b.Active() && status != model.StatusCancelled && s.d.activeExists(b.TableID, b.TimeslotID, b.BookingDate) {
		return service.ErrSlotTaken
	}
	b.Status = status
	s.d.bookings[id] = b
	return nil
}

func (s *Store) TransitionBooking(ctx context.Context, id uint64, from, to string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.d.bookings[id]
	if !ok {
		return service.ErrNotFound
	}
	if b.Status != from {
		return service.ErrStatusChanged
	}
	if !b.Active() && to != model.StatusCancelled && s.d.activeExists(b.TableID, b.TimeslotID, b.BookingDate) {
		return service.ErrSlotTaken
	}
	b.Status = to
	s.d.bookings[id] = b
	return nil
}

// WithinTx runs fn against a private copy of the data and publishes the
// copy only when fn succeeds.
func (s *Store) WithinTx(ctx context.Context, fn func(tx service.TxStore) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	work := s.d.clone()
	if err := fn(&tx{d: work}); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	s.d = work
	return nil
}

type tx struct{ d *data }

func (t *tx) ActiveBookingExists(ctx context.Context, tableID, timeslotID uint64, date model.Date) (bool, error) {
	return t.d.activeExists(tableID, timeslotID, date), nil
}

func (t *tx) LockGames(ctx context.Context, ids []uint64) ([]model.Game, error) {
	return t.d.gamesByIDs(ids), nil
}

func (t *tx) UsageOn(ctx context.Context, date model.Date, timeslotIDs []uint64) (service.Usage, error) {
	return t.d.usage(date, timeslotIDs), nil
}

func (t *tx) CreateBooking(ctx context.Context, b *model.Booking) error {
	if b.Active() && t.d.activeExists(b.TableID, b.TimeslotID, b.BookingDate) {
		return service.ErrSlotTaken
	}
	b.ID = t.d.id()
	stored := *b
	stored.Items = nil
	t.d.bookings[b.ID] = stored
	return nil
}

func (t *tx) CreateItems(ctx context.Context, bookingID uint64, items []model.BookingItem) error {
	for _, it := range items {
		it.ID = t.d.id()
		it.BookingID = bookingID
		t.d.items = append(t.d.items, it)
	}
	return nil
}
