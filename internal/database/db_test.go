package database

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStatements(t *testing.T) {
	stmts := Statements()
	require.Len(t, stmts, 7)
	for _, s := range stmts {
		require.True(t, strings.HasPrefix(s, "CREATE TABLE IF NOT EXISTS"), s)
		require.NotContains(t, s, "--")
	}
	require.Contains(t, stmts[5], "uq_bookings_slot (table_id, timeslot_id, booking_date, active_slot)")
}

func TestDSN(t *testing.T) {
	dsn := DSN("app", "secret", "db", "3306", "games")
	require.True(t, strings.HasPrefix(dsn, "app:secret@tcp(db:3306)/games?"))
	require.Contains(t, dsn, "parseTime=true")
	require.Contains(t, dsn, "charset=utf8mb4")
	require.Contains(t, dsn, "clientFoundRows=true")
}
