package repository

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/iliyamo/game-table-reservation/internal/service"
)

func TestTranslate(t *testing.T) {
	require.NoError(t, translate(nil))
	require.ErrorIs(t, translate(ErrSlotTaken), service.ErrSlotTaken)
	require.ErrorIs(t, translate(fmt.Errorf("wrap: %w", ErrBookingNotFound)), service.ErrNotFound)
	require.ErrorIs(t, translate(ErrTableNotFound), service.ErrNotFound)
	require.ErrorIs(t, translate(ErrStatusChanged), service.ErrStatusChanged)

	other := errors.New("boom")
	require.Equal(t, other, translate(other))
}

func TestToUsageSumsDuplicates(t *testing.T) {
	u := toUsage([]UsageRow{
		{GameID: 1, TimeslotID: 2, Qty: 3},
		{GameID: 1, TimeslotID: 2, Qty: 1},
		{GameID: 4, TimeslotID: 2, Qty: 2},
	})
	require.Equal(t, 4, u[service.UsageKey{GameID: 1, TimeslotID: 2}])
	require.Equal(t, 2, u[service.UsageKey{GameID: 4, TimeslotID: 2}])
	require.Zero(t, u[service.UsageKey{GameID: 9, TimeslotID: 2}])
}

func TestWithinTx_CommitsAtReadCommitted(t *testing.T) {
	f := &fakeDB{}
	s := NewStore(openFake(t, f))

	called := false
	err := s.WithinTx(context.Background(), func(service.TxStore) error {
		called = true
		return nil
	})
	require.NoError(t, err)
	require.True(t, called)
	require.Len(t, f.begins, 1)
	require.Equal(t, driver.IsolationLevel(sql.LevelReadCommitted), f.begins[0].Isolation)
	require.False(t, f.begins[0].ReadOnly)
	require.Equal(t, 1, f.commits)
	require.Zero(t, f.rollbacks)
}

func TestWithinTx_RollsBackOnError(t *testing.T) {
	f := &fakeDB{}
	s := NewStore(openFake(t, f))

	err := s.WithinTx(context.Background(), func(tx service.TxStore) error {
		return service.ErrSlotTaken
	})
	require.ErrorIs(t, err, service.ErrSlotTaken)
	require.Zero(t, f.commits)
	require.Equal(t, 1, f.rollbacks)
}

func TestWithinTx_CommitErrorIsTranslated(t *testing.T) {
	f := &fakeDB{commitErr: ErrSlotTaken}
	s := NewStore(openFake(t, f))

	err := s.WithinTx(context.Background(), func(service.TxStore) error { return nil })
	require.ErrorIs(t, err, service.ErrSlotTaken)
	require.Equal(t, 1, f.commits)

	f.commitErr = errors.New("connection reset")
	err = s.WithinTx(context.Background(), func(service.TxStore) error { return nil })
	require.EqualError(t, err, "connection reset")
}

func TestTransitionBooking(t *testing.T) {
	statusRows := func(status ...string) func(string, []driver.NamedValue) (driver.Rows, error) {
		return func(string, []driver.NamedValue) (driver.Rows, error) {
			r := &fakeRows{cols: []string{"status"}}
			for _, s := range status {
				r.rows = append(r.rows, []driver.Value{s})
			}
			return r, nil
		}
	}
	ctx := context.Background()

	t.Run("applies while in the expected status", func(t *testing.T) {
		f := &fakeDB{exec: func(q string, args []driver.NamedValue) (driver.Result, error) {
			require.Contains(t, q, "AND status = ?")
			require.Equal(t, "Confirmed", args[0].Value)
			require.Equal(t, "Pending", args[2].Value)
			return driver.RowsAffected(1), nil
		}}
		require.NoError(t, NewStore(openFake(t, f)).TransitionBooking(ctx, 7, "Pending", "Confirmed"))
	})

	t.Run("status moved on", func(t *testing.T) {
		f := &fakeDB{query: statusRows("Cancelled")}
		err := NewStore(openFake(t, f)).TransitionBooking(ctx, 7, "Pending", "Confirmed")
		require.ErrorIs(t, err, service.ErrStatusChanged)
	})

	t.Run("missing booking", func(t *testing.T) {
		f := &fakeDB{query: statusRows()}
		err := NewStore(openFake(t, f)).TransitionBooking(ctx, 7, "Pending", "Confirmed")
		require.ErrorIs(t, err, service.ErrNotFound)
	})
}

func TestTokenRevokeIsSingleUse(t *testing.T) {
	var n int64 = 1
	f := &fakeDB{exec: func(q string, _ []driver.NamedValue) (driver.Result, error) {
		require.Contains(t, q, "revoked_at IS NULL")
		res := driver.RowsAffected(n)
		n = 0
		return res, nil
	}}
	tokens := NewTokenRepo(openFake(t, f))

	require.NoError(t, tokens.Revoke(context.Background(), "hash"))
	require.ErrorIs(t, tokens.Revoke(context.Background(), "hash"), ErrTokenInvalid)
}
