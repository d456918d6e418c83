package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/iliyamo/game-table-reservation/internal/model"
	"github.com/iliyamo/game-table-reservation/internal/utils"
)

type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

// NewUser carries the fields accepted at registration.
type NewUser struct {
	Username string
	Name     string
	Email    string
	Password string
	Role     string
}

// UserUpdate holds the fields an administrator may change on an account.
type UserUpdate struct {
	Name          string
	Email         string
	Role          string
	Status        string
	BehaviorScore int
}

const userColumns = "id,username,name,email,password_hash,role,status,behavior_score,created_at,updated_at"

func scanUser(row interface{ Scan(...any) error }) (model.User, error) {
	var u model.User
	err := row.Scan(&u.ID, &u.Username, &u.Name, &u.Email, &u.PasswordHash, &u.Role, &u.Status, &u.BehaviorScore, &u.CreatedAt, &u.UpdatedAt)
	return u, err
}

// Create inserts user and returns its ID.
func (r *UserRepo) Create(ctx context.Context, nu NewUser, cost int) (uint64, error) {
	hash, err := utils.HashPassword(nu.Password, cost)
	if err != nil {
		return 0, err
	}
	role := nu.Role
	if !model.ValidRole(role) {
		role = model.RoleCustomer
	}
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO users (username, name, email, password_hash, role) VALUES (?,?,?,?,?)",
		strings.TrimSpace(nu.Username), strings.TrimSpace(nu.Name), strings.ToLower(strings.TrimSpace(nu.Email)), hash, role)
	if err != nil {
		if isDuplicate(err, "uq_users_username") {
			return 0, ErrUsernameExists
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// GetByUsername fetches a user by login name.
func (r *UserRepo) GetByUsername(ctx context.Context, username string) (model.User, error) {
	u, err := scanUser(r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE username=? LIMIT 1", strings.TrimSpace(username)))
	return u, notFound(err, ErrUserNotFound)
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (model.User, error) {
	u, err := scanUser(r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE id=? LIMIT 1", id))
	return u, notFound(err, ErrUserNotFound)
}

// UpdateProfile changes the self-service fields of an account.
func (r *UserRepo) UpdateProfile(ctx context.Context, id uint64, name, email string) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE users SET name=?, email=? WHERE id=?",
		strings.TrimSpace(name), strings.ToLower(strings.TrimSpace(email)), id)
	return affected(res, err, ErrUserNotFound)
}

// ListByRole returns accounts with the given role ordered by username.
func (r *UserRepo) ListByRole(ctx context.Context, role string) ([]model.User, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE role=? ORDER BY username", role)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

// AdminUpdate applies an administrator's changes to an account.
func (r *UserRepo) AdminUpdate(ctx context.Context, id uint64, up UserUpdate) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE users SET name=?, email=?, role=?, status=?, behavior_score=? WHERE id=?",
		strings.TrimSpace(up.Name), strings.ToLower(strings.TrimSpace(up.Email)), up.Role, up.Status, up.BehaviorScore, id)
	return affected(res, err, ErrUserNotFound)
}

// Delete removes an account and, through cascading keys, its bookings.
func (r *UserRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.DB.ExecContext(ctx, "DELETE FROM users WHERE id=?", id)
	return affected(res, err, ErrUserNotFound)
}

// CountByRole counts accounts with the given role.
func (r *UserRepo) CountByRole(ctx context.Context, role string) (int, error) {
	var n int
	err := r.DB.QueryRowContext(ctx, "SELECT COUNT(*) FROM users WHERE role=?", role).Scan(&n)
	return n, err
}
