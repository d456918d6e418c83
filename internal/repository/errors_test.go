package repository

import (
	"database/sql"
	"errors"
	"fmt"
	"testing"

	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/require"
)

func TestIsDuplicate(t *testing.T) {
	dup := &mysql.MySQLError{Number: 1062, Message: "Duplicate entry '1-2-2024-06-01-1' for key 'bookings.uq_bookings_slot'"}
	require.True(t, isDuplicate(dup, ""))
	require.True(t, isDuplicate(fmt.Errorf("insert: %w", dup), "uq_bookings_slot"))
	require.False(t, isDuplicate(dup, "uq_users_username"))
	require.False(t, isDuplicate(&mysql.MySQLError{Number: 1452}, ""))
	require.False(t, isDuplicate(errors.New("Error 1062"), ""))
}

func TestInList(t *testing.T) {
	ph, args := inList([]uint64{4, 9, 2})
	require.Equal(t, "?,?,?", ph)
	require.Equal(t, []any{uint64(4), uint64(9), uint64(2)}, args)
}

func TestNotFound(t *testing.T) {
	require.ErrorIs(t, notFound(sql.ErrNoRows, ErrGameNotFound), ErrGameNotFound)
	other := errors.New("boom")
	require.Equal(t, other, notFound(other, ErrGameNotFound))
}

func TestGameSearchQuery(t *testing.T) {
	q := GameSearchQuery{Name: "  Cat ", Page: -2, PageSize: 1000}.Normalize()
	require.Equal(t, GameSearchQuery{Name: "Cat", Page: 1, PageSize: MaxPageSize}, q)
	require.Equal(t, DefaultPageSize, GameSearchQuery{}.Normalize().PageSize)

	cond, args := GameSearchQuery{Name: "Cat", InStock: true}.where()
	require.Equal(t, "LOWER(name) LIKE ? AND stock > 0", cond)
	require.Equal(t, []any{"%cat%"}, args)

	cond, args = GameSearchQuery{}.where()
	require.Equal(t, "1=1", cond)
	require.Empty(t, args)
}
