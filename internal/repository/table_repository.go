package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/iliyamo/game-table-reservation/internal/model"
)

// TableRepo encapsulates all database queries related to game tables.
type TableRepo struct {
	db *sql.DB
}

// NewTableRepo constructs a TableRepo with the provided DB handle.
func NewTableRepo(db *sql.DB) *TableRepo { return &TableRepo{db: db} }

// List returns all tables ordered by name.
func (r *TableRepo) List(ctx context.Context) ([]model.Table, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT id, name, description FROM game_tables ORDER BY name")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Table
	for rows.Next() {
		var t model.Table
		if err := rows.Scan(&t.ID, &t.Name, &t.Description); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// GetByID fetches a table or returns ErrTableNotFound.
func (r *TableRepo) GetByID(ctx context.Context, id uint64) (model.Table, error) {
	var t model.Table
	err := r.db.QueryRowContext(ctx, "SELECT id, name, description FROM game_tables WHERE id = ?", id).
		Scan(&t.ID, &t.Name, &t.Description)
	return t, notFound(err, ErrTableNotFound)
}

// GetByName fetches a table by its unique name.
func (r *TableRepo) GetByName(ctx context.Context, name string) (model.Table, error) {
	var t model.Table
	err := r.db.QueryRowContext(ctx, "SELECT id, name, description FROM game_tables WHERE name = ?", strings.TrimSpace(name)).
		Scan(&t.ID, &t.Name, &t.Description)
	return t, notFound(err, ErrTableNotFound)
}

// Create inserts t and sets its ID.
func (r *TableRepo) Create(ctx context.Context, t *model.Table) error {
	res, err := r.db.ExecContext(ctx, "INSERT INTO game_tables (name, description) VALUES (?, ?)", t.Name, t.Description)
	if err != nil {
		if isDuplicate(err, "uq_game_tables_name") {
			return ErrTableNameExists
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	t.ID = uint64(id)
	return nil
}

// Update overwrites the name and description of t.
func (r *TableRepo) Update(ctx context.Context, t model.Table) error {
	res, err := r.db.ExecContext(ctx, "UPDATE game_tables SET name = ?, description = ? WHERE id = ?", t.Name, t.Description, t.ID)
	if isDuplicate(err, "uq_game_tables_name") {
		return ErrTableNameExists
	}
	return affected(res, err, ErrTableNotFound)
}

// Delete removes a table.  Its bookings go with it.
func (r *TableRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM game_tables WHERE id = ?", id)
	return affected(res, err, ErrTableNotFound)
}

// Count returns the number of tables.
func (r *TableRepo) Count(ctx context.Context) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM game_tables").Scan(&n)
	return n, err
}
