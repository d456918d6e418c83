package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/game-table-reservation/internal/model"
	"github.com/iliyamo/game-table-reservation/internal/service"
)

// Store adapts the MySQL repositories to service.Store and
// service.DashboardSource.  Repository sentinels are translated to the
// service errors at this boundary.
type Store struct {
	db        *sql.DB
	Tables    *TableRepo
	Timeslots *TimeslotRepo
	Games     *GameRepo
	Bookings  *BookingRepo
	Users     *UserRepo
	Tokens    *TokenRepo
}

var (
	_ service.Store           = (*Store)(nil)
	_ service.DashboardSource = (*Store)(nil)
)

// NewStore wires all repositories to db.
func NewStore(db *sql.DB) *Store {
	return &Store{
		db:        db,
		Tables:    NewTableRepo(db),
		Timeslots: NewTimeslotRepo(db),
		Games:     NewGameRepo(db),
		Bookings:  NewBookingRepo(db),
		Users:     NewUserRepo(db),
		Tokens:    NewTokenRepo(db),
	}
}

// translate maps repository sentinels onto the service contract.
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrSlotTaken):
		return service.ErrSlotTaken
	case errors.Is(err, ErrStatusChanged):
		return service.ErrStatusChanged
	case errors.Is(err, ErrTableNotFound),
		errors.Is(err, ErrTimeslotNotFound),
		errors.Is(err, ErrGameNotFound),
		errors.Is(err, ErrBookingNotFound),
		errors.Is(err, ErrUserNotFound):
		return service.ErrNotFound
	}
	return err
}

func toUsage(rows []UsageRow) service.Usage {
	u := make(service.Usage, len(rows))
	for _, r := range rows {
		u[service.UsageKey{GameID: r.GameID, TimeslotID: r.TimeslotID}] += r.Qty
	}
	return u
}

func (s *Store) ListTables(ctx context.Context) ([]model.Table, error) {
	return s.Tables.List(ctx)
}

func (s *Store) GetTable(ctx context.Context, id uint64) (model.Table, error) {
	t, err := s.Tables.GetByID(ctx, id)
	return t, translate(err)
}

func (s *Store) ListTimeslots(ctx context.Context) ([]model.Timeslot, error) {
	return s.Timeslots.List(ctx)
}

func (s *Store) TimeslotsByIDs(ctx context.Context, ids []uint64) ([]model.Timeslot, error) {
	return s.Timeslots.ByIDs(ctx, ids)
}

func (s *Store) ListGames(ctx context.Context) ([]model.Game, error) {
	return s.Games.List(ctx)
}

func (s *Store) GamesByIDs(ctx context.Context, ids []uint64) ([]model.Game, error) {
	return s.Games.ByIDs(ctx, ids)
}

func (s *Store) BookedSlots(ctx context.Context, date model.Date) ([]service.SlotKey, error) {
	pairs, err := s.Bookings.BookedSlots(ctx, date)
	if err != nil {
		return nil, err
	}
	out := make([]service.SlotKey, len(pairs))
	for i, p := range pairs {
		out[i] = service.SlotKey{TableID: p.TableID, TimeslotID: p.TimeslotID}
	}
	return out, nil
}

func (s *Store) UsageOn(ctx context.Context, date model.Date, timeslotIDs []uint64) (service.Usage, error) {
	rows, err := s.Bookings.Usage(ctx, date, timeslotIDs)
	if err != nil {
		return nil, err
	}
	return toUsage(rows), nil
}

func (s *Store) GetBooking(ctx context.Context, id uint64) (model.BookingDetail, error) {
	d, err := s.Bookings.GetDetail(ctx, id)
	return d, translate(err)
}

func (s *Store) ListUserBookings(ctx context.Context, userID uint64) ([]model.BookingDetail, error) {
	return s.Bookings.ListByUser(ctx, userID, 0)
}

func (s *Store) SetBookingStatus(ctx context.Context, id uint64, status string) error {
	return translate(s.Bookings.UpdateStatus(ctx, id, status))
}

func (s *Store) TransitionBooking(ctx context.Context, id uint64, from, to string) error {
	return translate(s.Bookings.TransitionStatus(ctx, id, from, to))
}

func (s *Store) CountByStatus(ctx context.Context, on *model.Date) (map[string]int, error) {
	return s.Bookings.CountByStatus(ctx, on)
}

func (s *Store) DailyCounts(ctx context.Context, from, to model.Date) (map[string]int, error) {
	return s.Bookings.DailyCounts(ctx, from, to)
}

func (s *Store) Recent(ctx context.Context, limit int) ([]model.BookingDetail, error) {
	return s.Bookings.Recent(ctx, limit)
}

func (s *Store) CountCatalogue(ctx context.Context) (service.CatalogueCounts, error) {
	var (
		c   service.CatalogueCounts
		err error
	)
	if c.Tables, err = s.Tables.Count(ctx); err != nil {
		return c, err
	}
	if c.Timeslots, err = s.Timeslots.Count(ctx); err != nil {
		return c, err
	}
	if c.Games, err = s.Games.Count(ctx); err != nil {
		return c, err
	}
	c.Customers, err = s.Users.CountByRole(ctx, model.RoleCustomer)
	return c, err
}

// commitTxOptions runs commits at READ COMMITTED.  Under InnoDB's default
// REPEATABLE READ the usage read after LockGames would come from the
// snapshot taken at the first read, missing items committed by whoever
// held the game locks before us.
var commitTxOptions = &sql.TxOptions{Isolation: sql.LevelReadCommitted}

// WithinTx begins a transaction, runs fn and commits when fn succeeds.
// Any error rolls back every write made through the TxStore.
func (s *Store) WithinTx(ctx context.Context, fn func(tx service.TxStore) error) error {
	tx, err := s.db.BeginTx(ctx, commitTxOptions)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	if err := fn(&sqlTx{s: s, tx: tx}); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return translate(err)
	}
	committed = true
	return nil
}

type sqlTx struct {
	s  *Store
	tx *sql.Tx
}

func (t *sqlTx) ActiveBookingExists(ctx context.Context, tableID, timeslotID uint64, date model.Date) (bool, error) {
	return t.s.Bookings.ActiveExistsTx(ctx, t.tx, tableID, timeslotID, date)
}

func (t *sqlTx) LockGames(ctx context.Context, ids []uint64) ([]model.Game, error) {
	return t.s.Games.LockByIDsTx(ctx, t.tx, ids)
}

func (t *sqlTx) UsageOn(ctx context.Context, date model.Date, timeslotIDs []uint64) (service.Usage, error) {
	rows, err := t.s.Bookings.UsageTx(ctx, t.tx, date, timeslotIDs)
	if err != nil {
		return nil, err
	}
	return toUsage(rows), nil
}

func (t *sqlTx) CreateBooking(ctx context.Context, b *model.Booking) error {
	return translate(t.s.Bookings.CreateTx(ctx, t.tx, b))
}

func (t *sqlTx) CreateItems(ctx context.Context, bookingID uint64, items []model.BookingItem) error {
	return t.s.Bookings.CreateItemsTx(ctx, t.tx, bookingID, items)
}
