package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/iliyamo/game-table-reservation/internal/model"
)

// TokenRepo persists refresh token hashes.  Raw tokens are never stored.
type TokenRepo struct{ DB *sql.DB }

func NewTokenRepo(db *sql.DB) *TokenRepo { return &TokenRepo{DB: db} }

// Store inserts a refresh token row.
func (r *TokenRepo) Store(ctx context.Context, t model.RefreshToken) error {
	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO refresh_tokens (user_id, token_hash, expires_at) VALUES (?,?,?)",
		t.UserID, t.TokenHash, t.ExpiresAt.UTC())
	return err
}

// Lookup returns the token with hash if it is still usable, or
// ErrTokenInvalid.
func (r *TokenRepo) Lookup(ctx context.Context, tokenHash string) (model.RefreshToken, error) {
	var (
		t       model.RefreshToken
		revoked sql.NullTime
	)
	err := r.DB.QueryRowContext(ctx,
		"SELECT id, user_id, token_hash, expires_at, revoked_at, created_at FROM refresh_tokens WHERE token_hash=? LIMIT 1",
		tokenHash).Scan(&t.ID, &t.UserID, &t.TokenHash, &t.ExpiresAt, &revoked, &t.CreatedAt)
	if err != nil {
		return model.RefreshToken{}, notFound(err, ErrTokenInvalid)
	}
	if revoked.Valid {
		t.RevokedAt = &revoked.Time
	}
	if !t.Usable(time.Now().UTC()) {
		return model.RefreshToken{}, ErrTokenInvalid
	}
	return t, nil
}

// Revoke marks a token as revoked.  Only one caller can revoke a given
// token; later calls, and calls for unknown hashes, get ErrTokenInvalid.
func (r *TokenRepo) Revoke(ctx context.Context, tokenHash string) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE refresh_tokens SET revoked_at=UTC_TIMESTAMP() WHERE token_hash=? AND revoked_at IS NULL",
		tokenHash)
	return affected(res, err, ErrTokenInvalid)
}

// RevokeAll revokes every active token of a user.
func (r *TokenRepo) RevokeAll(ctx context.Context, userID uint64) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE refresh_tokens SET revoked_at=UTC_TIMESTAMP() WHERE user_id=? AND revoked_at IS NULL",
		userID)
	return err
}
