package repository

import (
	"context"
	"strings"

	"github.com/iliyamo/game-table-reservation/internal/model"
)

// Paging bounds for GameRepo.Search.
const (
	DefaultPageSize = 50
	MaxPageSize     = 200
)

// GameSearchQuery defines filters and pagination for the admin game list.
type GameSearchQuery struct {
	Name     string // case-insensitive substring of the name
	InStock  bool   // only games with at least one copy
	Page     int
	PageSize int
}

// Normalize clamps the paging fields into their valid ranges.
func (q GameSearchQuery) Normalize() GameSearchQuery {
	q.Name = strings.TrimSpace(q.Name)
	if q.Page < 1 {
		q.Page = 1
	}
	switch {
	case q.PageSize <= 0:
		q.PageSize = DefaultPageSize
	case q.PageSize > MaxPageSize:
		q.PageSize = MaxPageSize
	}
	return q
}

func (q GameSearchQuery) where() (string, []any) {
	var (
		where []string
		args  []any
	)
	if q.Name != "" {
		where = append(where, "LOWER(name) LIKE ?")
		args = append(args, "%"+strings.ToLower(q.Name)+"%")
	}
	if q.InStock {
		where = append(where, "stock > 0")
	}
	if len(where) == 0 {
		return "1=1", args
	}
	return strings.Join(where, " AND "), args
}

// Search returns one page of games matching q and the total match count.
func (r *GameRepo) Search(ctx context.Context, q GameSearchQuery) ([]model.Game, int64, error) {
	q = q.Normalize()
	cond, args := q.where()

	var total int64
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM games WHERE "+cond, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	offset := (q.Page - 1) * q.PageSize
	dataArgs := append(append([]any{}, args...), q.PageSize, offset)
	games, err := queryGames(ctx, r.db,
		"SELECT "+gameColumns+" FROM games WHERE "+cond+" ORDER BY name, id LIMIT ? OFFSET ?", dataArgs...)
	if err != nil {
		return nil, 0, err
	}
	return games, total, nil
}
