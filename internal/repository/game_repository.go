package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/game-table-reservation/internal/model"
)

// GameRepo stores the game catalogue and its total stock.
type GameRepo struct {
	db *sql.DB
}

func NewGameRepo(db *sql.DB) *GameRepo { return &GameRepo{db: db} }

const gameColumns = "id, name, description, image_url, stock"

func queryGames(ctx context.Context, q querier, query string, args ...any) ([]model.Game, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Game
	for rows.Next() {
		var g model.Game
		if err := rows.Scan(&g.ID, &g.Name, &g.Description, &g.ImageURL, &g.Stock); err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

// List returns all games ordered by name.
func (r *GameRepo) List(ctx context.Context) ([]model.Game, error) {
	return queryGames(ctx, r.db, "SELECT "+gameColumns+" FROM games ORDER BY name, id")
}

// ByIDs returns the existing games among ids ordered by id.
func (r *GameRepo) ByIDs(ctx context.Context, ids []uint64) ([]model.Game, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	ph, args := inList(ids)
	return queryGames(ctx, r.db, "SELECT "+gameColumns+" FROM games WHERE id IN ("+ph+") ORDER BY id", args...)
}

// LockByIDsTx selects the games with FOR UPDATE inside tx.  Rows are
// locked in ascending id order so concurrent commits touching the same
// games always acquire locks in the same sequence.
func (r *GameRepo) LockByIDsTx(ctx context.Context, tx *sql.Tx, ids []uint64) ([]model.Game, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	ph, args := inList(ids)
	return queryGames(ctx, tx, "SELECT "+gameColumns+" FROM games WHERE id IN ("+ph+") ORDER BY id FOR UPDATE", args...)
}

// GetByID fetches a game or returns ErrGameNotFound.
func (r *GameRepo) GetByID(ctx context.Context, id uint64) (model.Game, error) {
	games, err := queryGames(ctx, r.db, "SELECT "+gameColumns+" FROM games WHERE id = ?", id)
	if err != nil {
		return model.Game{}, err
	}
	if len(games) == 0 {
		return model.Game{}, ErrGameNotFound
	}
	return games[0], nil
}

// FindByName returns the first game with the exact name.
func (r *GameRepo) FindByName(ctx context.Context, name string) (model.Game, error) {
	games, err := queryGames(ctx, r.db, "SELECT "+gameColumns+" FROM games WHERE name = ? ORDER BY id LIMIT 1", name)
	if err != nil {
		return model.Game{}, err
	}
	if len(games) == 0 {
		return model.Game{}, ErrGameNotFound
	}
	return games[0], nil
}

// Create inserts g and sets its ID.
func (r *GameRepo) Create(ctx context.Context, g *model.Game) error {
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO games (name, description, image_url, stock) VALUES (?, ?, ?, ?)",
		g.Name, g.Description, g.ImageURL, g.Stock)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	g.ID = uint64(id)
	return nil
}

// Update overwrites every editable field of g.
func (r *GameRepo) Update(ctx context.Context, g model.Game) error {
	res, err := r.db.ExecContext(ctx,
		"UPDATE games SET name = ?, description = ?, image_url = ?, stock = ? WHERE id = ?",
		g.Name, g.Description, g.ImageURL, g.Stock, g.ID)
	return affected(res, err, ErrGameNotFound)
}

// Delete removes a game and its booking items.
func (r *GameRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM games WHERE id = ?", id)
	return affected(res, err, ErrGameNotFound)
}

// Count returns the number of games.
func (r *GameRepo) Count(ctx context.Context) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM games").Scan(&n)
	return n, err
}
