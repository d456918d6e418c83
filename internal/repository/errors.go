// Package repository defines error types that are reused across multiple
// repositories.  These sentinel values allow higher layers such as
// handlers to distinguish between different failure scenarios.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/go-sql-driver/mysql"
)

var (
	ErrTableNotFound    = errors.New("table not found")
	ErrTimeslotNotFound = errors.New("timeslot not found")
	ErrGameNotFound     = errors.New("game not found")
	ErrBookingNotFound  = errors.New("booking not found")
	ErrUserNotFound     = errors.New("user not found")

	// ErrUsernameExists is returned when registering a taken username.
	ErrUsernameExists = errors.New("username already exists")
	// ErrTableNameExists is returned when a table name is reused.
	ErrTableNameExists = errors.New("table name already exists")
	// ErrSlotTaken is returned when a write would create a second
	// non-cancelled booking for the same table, timeslot and date.
	ErrSlotTaken = errors.New("slot already booked")
	// ErrStatusChanged is returned by a conditional status update when
	// the booking has left the expected status.
	ErrStatusChanged = errors.New("booking status changed")
	// ErrTokenInvalid covers unknown, expired and revoked refresh tokens.
	ErrTokenInvalid = errors.New("invalid refresh token")
)

// mysqlDuplicateEntry is ER_DUP_ENTRY.
const mysqlDuplicateEntry = 1062

// isDuplicate reports whether err is a unique key violation, optionally on
// a specific key name.
func isDuplicate(err error, key string) bool {
	var me *mysql.MySQLError
	if !errors.As(err, &me) || me.Number != mysqlDuplicateEntry {
		return false
	}
	return key == "" || strings.Contains(me.Message, key)
}

// querier is satisfied by both *sql.DB and *sql.Tx so read helpers can be
// shared between plain and transactional callers.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// inList returns "?,?,?" for n values and the ids as driver args.
func inList(ids []uint64) (string, []any) {
	placeholders := make([]string, 0, len(ids))
	args := make([]any, 0, len(ids))
	for _, id := range ids {
		placeholders = append(placeholders, "?")
		args = append(args, id)
	}
	return strings.Join(placeholders, ","), args
}

// notFound maps sql.ErrNoRows to the given sentinel.
func notFound(err, sentinel error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return sentinel
	}
	return err
}

// affected maps a zero-row update or delete to the given sentinel.
func affected(res sql.Result, err, sentinel error) error {
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sentinel
	}
	return nil
}
