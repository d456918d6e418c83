package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/game-table-reservation/internal/model"
)

// TimeslotRepo stores the daily bookable time ranges.  TIME columns are
// read as strings and normalised to HH:MM.
type TimeslotRepo struct {
	db *sql.DB
}

func NewTimeslotRepo(db *sql.DB) *TimeslotRepo { return &TimeslotRepo{db: db} }

func scanTimeslot(row interface{ Scan(...any) error }) (model.Timeslot, error) {
	var (
		ts         model.Timeslot
		start, end string
	)
	if err := row.Scan(&ts.ID, &start, &end); err != nil {
		return ts, err
	}
	var err error
	if ts.StartTime, err = model.NormalizeClock(start); err != nil {
		return ts, err
	}
	if ts.EndTime, err = model.NormalizeClock(end); err != nil {
		return ts, err
	}
	return ts, nil
}

func queryTimeslots(ctx context.Context, q querier, query string, args ...any) ([]model.Timeslot, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Timeslot
	for rows.Next() {
		ts, err := scanTimeslot(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, ts)
	}
	return out, rows.Err()
}

// List returns all timeslots ordered by start time.
func (r *TimeslotRepo) List(ctx context.Context) ([]model.Timeslot, error) {
	return queryTimeslots(ctx, r.db, "SELECT id, start_time, end_time FROM timeslots ORDER BY start_time, id")
}

// ByIDs returns the existing timeslots among ids ordered by start time.
func (r *TimeslotRepo) ByIDs(ctx context.Context, ids []uint64) ([]model.Timeslot, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	ph, args := inList(ids)
	return queryTimeslots(ctx, r.db,
		"SELECT id, start_time, end_time FROM timeslots WHERE id IN ("+ph+") ORDER BY start_time, id", args...)
}

// GetByID fetches a timeslot or returns ErrTimeslotNotFound.
func (r *TimeslotRepo) GetByID(ctx context.Context, id uint64) (model.Timeslot, error) {
	ts, err := scanTimeslot(r.db.QueryRowContext(ctx, "SELECT id, start_time, end_time FROM timeslots WHERE id = ?", id))
	return ts, notFound(err, ErrTimeslotNotFound)
}

// Create inserts ts and sets its ID.  Times must already be normalised.
func (r *TimeslotRepo) Create(ctx context.Context, ts *model.Timeslot) error {
	res, err := r.db.ExecContext(ctx, "INSERT INTO timeslots (start_time, end_time) VALUES (?, ?)", ts.StartTime, ts.EndTime)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	ts.ID = uint64(id)
	return nil
}

// Update overwrites the bounds of ts.
func (r *TimeslotRepo) Update(ctx context.Context, ts model.Timeslot) error {
	res, err := r.db.ExecContext(ctx, "UPDATE timeslots SET start_time = ?, end_time = ? WHERE id = ?", ts.StartTime, ts.EndTime, ts.ID)
	return affected(res, err, ErrTimeslotNotFound)
}

// Delete removes a timeslot and its bookings.
func (r *TimeslotRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM timeslots WHERE id = ?", id)
	return affected(res, err, ErrTimeslotNotFound)
}

// Count returns the number of timeslots.
func (r *TimeslotRepo) Count(ctx context.Context) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM timeslots").Scan(&n)
	return n, err
}
