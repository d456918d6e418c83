package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/iliyamo/game-table-reservation/internal/model"
)

// BookingRepo provides access to bookings and their items.  One booking
// row exists per (table, timeslot, date); the uq_bookings_slot key admits
// only one non-cancelled row per tuple.
type BookingRepo struct {
	db *sql.DB
}

// NewBookingRepo returns a new BookingRepo bound to the given database.
func NewBookingRepo(db *sql.DB) *BookingRepo { return &BookingRepo{db: db} }

// UsageRow is the summed quantity of one game in one timeslot.
type UsageRow struct {
	GameID     uint64
	TimeslotID uint64
	Qty        int
}

// SlotPair is a (table, timeslot) pair held by a live booking.
type SlotPair struct {
	TableID    uint64
	TimeslotID uint64
}

// BookingFilter narrows admin listings.  Zero values mean no filter.
type BookingFilter struct {
	Status string
	From   *model.Date
	To     *model.Date
	UserID uint64
	Limit  int
}

const slotKey = "uq_bookings_slot"

func insertBooking(ctx context.Context, q querier, b *model.Booking) error {
	const ins = `INSERT INTO bookings
        (user_id, table_id, timeslot_id, booking_date, party_size, status, customer_name, phone, email, notes)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	res, err := q.ExecContext(ctx, ins, b.UserID, b.TableID, b.TimeslotID, b.BookingDate, b.PartySize,
		b.Status, b.CustomerName, b.Phone, b.Email, b.Notes)
	if err != nil {
		if isDuplicate(err, slotKey) {
			return ErrSlotTaken
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	b.ID = uint64(id)
	return nil
}

// CreateTx inserts a booking within tx and sets its ID.  A live booking
// for the same slot yields ErrSlotTaken.
func (r *BookingRepo) CreateTx(ctx context.Context, tx *sql.Tx, b *model.Booking) error {
	return insertBooking(ctx, tx, b)
}

// Create inserts a booking outside a transaction (admin entry).
func (r *BookingRepo) Create(ctx context.Context, b *model.Booking) error {
	return insertBooking(ctx, r.db, b)
}

// CreateItemsTx bulk inserts the items of one booking.
func (r *BookingRepo) CreateItemsTx(ctx context.Context, tx *sql.Tx, bookingID uint64, items []model.BookingItem) error {
	if len(items) == 0 {
		return nil
	}
	query := `INSERT INTO booking_items (booking_id, game_id, qty) VALUES `
	args := make([]any, 0, len(items)*3)
	for i, it := range items {
		if i > 0 {
			query += ","
		}
		query += "(?, ?, ?)"
		args = append(args, bookingID, it.GameID, it.Qty)
	}
	_, err := tx.ExecContext(ctx, query, args...)
	return err
}

// ActiveExistsTx reports whether a non-cancelled booking holds the slot.
// No lock is taken; the unique key catches the race.
func (r *BookingRepo) ActiveExistsTx(ctx context.Context, tx *sql.Tx, tableID, timeslotID uint64, date model.Date) (bool, error) {
	var one int
	err := tx.QueryRowContext(ctx,
		`SELECT 1 FROM bookings WHERE table_id = ? AND timeslot_id = ? AND booking_date = ? AND status <> 'Cancelled' LIMIT 1`,
		tableID, timeslotID, date).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	return err == nil, err
}

func usage(ctx context.Context, q querier, date model.Date, timeslotIDs []uint64) ([]UsageRow, error) {
	if len(timeslotIDs) == 0 {
		return nil, nil
	}
	ph, args := inList(timeslotIDs)
	query := `SELECT bi.game_id, b.timeslot_id, COALESCE(SUM(bi.qty), 0)
              FROM booking_items bi
              JOIN bookings b ON b.id = bi.booking_id
              WHERE b.booking_date = ? AND b.status <> 'Cancelled' AND b.timeslot_id IN (` + ph + `)
              GROUP BY bi.game_id, b.timeslot_id`
	rows, err := q.QueryContext(ctx, query, append([]any{date}, args...)...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []UsageRow
	for rows.Next() {
		var u UsageRow
		if err := rows.Scan(&u.GameID, &u.TimeslotID, &u.Qty); err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

// Usage sums non-cancelled item quantities per game and timeslot on date.
func (r *BookingRepo) Usage(ctx context.Context, date model.Date, timeslotIDs []uint64) ([]UsageRow, error) {
	return usage(ctx, r.db, date, timeslotIDs)
}

// UsageTx is Usage inside tx, after the game rows have been locked.
func (r *BookingRepo) UsageTx(ctx context.Context, tx *sql.Tx, date model.Date, timeslotIDs []uint64) ([]UsageRow, error) {
	return usage(ctx, tx, date, timeslotIDs)
}

// BookedSlots lists the (table, timeslot) pairs held on date.
func (r *BookingRepo) BookedSlots(ctx context.Context, date model.Date) ([]SlotPair, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT table_id, timeslot_id FROM bookings WHERE booking_date = ? AND status <> 'Cancelled'`, date)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []SlotPair
	for rows.Next() {
		var p SlotPair
		if err := rows.Scan(&p.TableID, &p.TimeslotID); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

const detailSelect = `SELECT b.id, b.user_id, b.table_id, b.timeslot_id, b.booking_date, b.party_size, b.status,
        b.customer_name, b.phone, b.email, b.notes, b.created_at, b.updated_at,
        t.name, ts.start_time, ts.end_time, u.username
    FROM bookings b
    JOIN game_tables t ON t.id = b.table_id
    JOIN timeslots ts ON ts.id = b.timeslot_id
    JOIN users u ON u.id = b.user_id`

func (r *BookingRepo) queryDetails(ctx context.Context, query string, args ...any) ([]model.BookingDetail, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.BookingDetail
	for rows.Next() {
		var (
			d          model.BookingDetail
			start, end string
		)
		if err := rows.Scan(&d.ID, &d.UserID, &d.TableID, &d.TimeslotID, &d.BookingDate, &d.PartySize, &d.Status,
			&d.CustomerName, &d.Phone, &d.Email, &d.Notes, &d.CreatedAt, &d.UpdatedAt,
			&d.TableName, &start, &end, &d.Username); err != nil {
			return nil, err
		}
		d.Timeslot.ID = d.TimeslotID
		d.Timeslot.StartTime, _ = model.NormalizeClock(start)
		d.Timeslot.EndTime, _ = model.NormalizeClock(end)
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if err := r.attachItems(ctx, out); err != nil {
		return nil, err
	}
	return out, nil
}

// attachItems loads the items of all details with a single IN query.
func (r *BookingRepo) attachItems(ctx context.Context, details []model.BookingDetail) error {
	if len(details) == 0 {
		return nil
	}
	ids := make([]uint64, len(details))
	index := make(map[uint64]int, len(details))
	for i, d := range details {
		ids[i] = d.ID
		index[d.ID] = i
	}
	ph, args := inList(ids)
	rows, err := r.db.QueryContext(ctx, `SELECT bi.id, bi.booking_id, bi.game_id, g.name, bi.qty
              FROM booking_items bi
              JOIN games g ON g.id = bi.game_id
              WHERE bi.booking_id IN (`+ph+`)
              ORDER BY bi.booking_id, g.name`, args...)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var it model.BookingItem
		if err := rows.Scan(&it.ID, &it.BookingID, &it.GameID, &it.GameName, &it.Qty); err != nil {
			return err
		}
		if i, ok := index[it.BookingID]; ok {
			details[i].Items = append(details[i].Items, it)
		}
	}
	return rows.Err()
}

// GetDetail returns one booking with names and items.
func (r *BookingRepo) GetDetail(ctx context.Context, id uint64) (model.BookingDetail, error) {
	list, err := r.queryDetails(ctx, detailSelect+" WHERE b.id = ?", id)
	if err != nil {
		return model.BookingDetail{}, err
	}
	if len(list) == 0 {
		return model.BookingDetail{}, ErrBookingNotFound
	}
	return list[0], nil
}

// ListByUser returns a user's bookings newest date first, then by slot.
func (r *BookingRepo) ListByUser(ctx context.Context, userID uint64, limit int) ([]model.BookingDetail, error) {
	q := detailSelect + " WHERE b.user_id = ? ORDER BY b.booking_date DESC, ts.start_time ASC, b.id ASC"
	args := []any{userID}
	if limit > 0 {
		q += " LIMIT ?"
		args = append(args, limit)
	}
	return r.queryDetails(ctx, q, args...)
}

// List returns bookings matching f, newest date first.
func (r *BookingRepo) List(ctx context.Context, f BookingFilter) ([]model.BookingDetail, error) {
	var (
		where []string
		args  []any
	)
	if f.Status != "" {
		where = append(where, "b.status = ?")
		args = append(args, f.Status)
	}
	if f.From != nil {
		where = append(where, "b.booking_date >= ?")
		args = append(args, *f.From)
	}
	if f.To != nil {
		where = append(where, "b.booking_date <= ?")
		args = append(args, *f.To)
	}
	if f.UserID > 0 {
		where = append(where, "b.user_id = ?")
		args = append(args, f.UserID)
	}
	q := detailSelect
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	q += " ORDER BY b.booking_date DESC, ts.start_time ASC, b.id ASC"
	if f.Limit > 0 {
		q += " LIMIT ?"
		args = append(args, f.Limit)
	}
	return r.queryDetails(ctx, q, args...)
}

// Recent returns the most recently created bookings.
func (r *BookingRepo) Recent(ctx context.Context, limit int) ([]model.BookingDetail, error) {
	return r.queryDetails(ctx, detailSelect+" ORDER BY b.created_at DESC, b.id DESC LIMIT ?", limit)
}

// UpdateStatus sets the status of a booking.  Reviving a cancelled booking
// whose slot was taken since yields ErrSlotTaken.
func (r *BookingRepo) UpdateStatus(ctx context.Context, id uint64, status string) error {
	res, err := r.db.ExecContext(ctx, "UPDATE bookings SET status = ? WHERE id = ?", status, id)
	if isDuplicate(err, slotKey) {
		return ErrSlotTaken
	}
	return affected(res, err, ErrBookingNotFound)
}

// TransitionStatus moves a booking from one status to another.  When the
// booking is no longer in status from it returns ErrStatusChanged and
// leaves the row alone.
func (r *BookingRepo) TransitionStatus(ctx context.Context, id uint64, from, to string) error {
	res, err := r.db.ExecContext(ctx, "UPDATE bookings SET status = ? WHERE id = ? AND status = ?", to, id, from)
	if isDuplicate(err, slotKey) {
		return ErrSlotTaken
	}
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}
	var current string
	if err := r.db.QueryRowContext(ctx, "SELECT status FROM bookings WHERE id = ?", id).Scan(&current); err != nil {
		return notFound(err, ErrBookingNotFound)
	}
	return ErrStatusChanged
}

// Update overwrites the admin-editable fields of b.
func (r *BookingRepo) Update(ctx context.Context, b model.Booking) error {
	const q = `UPDATE bookings SET table_id = ?, timeslot_id = ?, booking_date = ?, party_size = ?, status = ?,
        customer_name = ?, phone = ?, email = ?, notes = ? WHERE id = ?`
	res, err := r.db.ExecContext(ctx, q, b.TableID, b.TimeslotID, b.BookingDate, b.PartySize, b.Status,
		b.CustomerName, b.Phone, b.Email, b.Notes, b.ID)
	if isDuplicate(err, slotKey) {
		return ErrSlotTaken
	}
	return affected(res, err, ErrBookingNotFound)
}

// Delete physically removes a booking and its items.
func (r *BookingRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM bookings WHERE id = ?", id)
	return affected(res, err, ErrBookingNotFound)
}

// CountByUser counts all bookings of a user.
func (r *BookingRepo) CountByUser(ctx context.Context, userID uint64) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM bookings WHERE user_id = ?", userID).Scan(&n)
	return n, err
}

// CountByStatus counts bookings per status, on a single date when on is
// non-nil.
func (r *BookingRepo) CountByStatus(ctx context.Context, on *model.Date) (map[string]int, error) {
	q := "SELECT status, COUNT(*) FROM bookings"
	var args []any
	if on != nil {
		q += " WHERE booking_date = ?"
		args = append(args, *on)
	}
	q += " GROUP BY status"
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := map[string]int{}
	for rows.Next() {
		var (
			status string
			n      int
		)
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		out[status] = n
	}
	return out, rows.Err()
}

// DailyCounts counts bookings per booking date within [from, to].
func (r *BookingRepo) DailyCounts(ctx context.Context, from, to model.Date) (map[string]int, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT booking_date, COUNT(*) FROM bookings WHERE booking_date BETWEEN ? AND ? GROUP BY booking_date`, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := map[string]int{}
	for rows.Next() {
		var (
			d model.Date
			n int
		)
		if err := rows.Scan(&d, &n); err != nil {
			return nil, err
		}
		out[d.String()] = n
	}
	return out, rows.Err()
}
