package service

import (
	"context"

	"github.com/iliyamo/game-table-reservation/internal/model"
)

// Remaining is max(stock-used, 0).
func Remaining(stock, used int) int {
	if r := stock - used; r > 0 {
		return r
	}
	return 0
}

// MinRemaining is the stock of g free in every one of slots.  With no
// slots it is the full stock.
func MinRemaining(g model.Game, usage Usage, slots []model.Timeslot) int {
	min := Remaining(g.Stock, 0)
	for _, s := range slots {
		if r := Remaining(g.Stock, usage[UsageKey{GameID: g.ID, TimeslotID: s.ID}]); r < min {
			min = r
		}
	}
	return min
}

// RemainingOn computes the free stock of a game for one date and timeslot
// from committed state.  It is never cached.
func (s *Reservations) RemainingOn(ctx context.Context, gameID uint64, date model.Date, timeslotID uint64) (int, error) {
	games, err := s.store.GamesByIDs(ctx, []uint64{gameID})
	if err != nil {
		return 0, err
	}
	if len(games) == 0 {
		return 0, fail(CodeNotFound, StepGames, "game %d not found", gameID)
	}
	usage, err := s.store.UsageOn(ctx, date, []uint64{timeslotID})
	if err != nil {
		return 0, err
	}
	return Remaining(games[0].Stock, usage[UsageKey{GameID: gameID, TimeslotID: timeslotID}]), nil
}
