package utils

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/iliyamo/game-table-reservation/internal/model"
)

func TestAccessTokenRoundTrip(t *testing.T) {
	p := model.Principal{ID: 42, Username: "alice", Name: "Alice", Email: "a@example.com", Role: model.RoleCustomer}
	at, err := NewAccessToken("s3cret", p, 15)
	require.NoError(t, err)
	require.WithinDuration(t, time.Now().Add(15*time.Minute), at.Exp, 5*time.Second)

	got, err := ParseAccessToken("s3cret", at.Token)
	require.NoError(t, err)
	require.Equal(t, p, got)

	_, err = ParseAccessToken("other", at.Token)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseAccessTokenRejects(t *testing.T) {
	expired, err := NewAccessToken("k", model.Principal{ID: 1, Role: model.RoleAdmin}, -1)
	require.NoError(t, err)
	_, err = ParseAccessToken("k", expired.Token)
	require.ErrorIs(t, err, ErrInvalidToken)

	noRole, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "1", "role": "root", "exp": time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte("k"))
	require.NoError(t, err)
	_, err = ParseAccessToken("k", noRole)
	require.ErrorIs(t, err, ErrInvalidToken)

	noExp, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "1", "role": model.RoleAdmin,
	}).SignedString([]byte("k"))
	require.NoError(t, err)
	_, err = ParseAccessToken("k", noExp)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestRefreshToken(t *testing.T) {
	rt, err := NewRefreshToken(7)
	require.NoError(t, err)
	require.Len(t, rt.Raw, 96)
	h := HashRefreshRaw(rt.Raw)
	require.Len(t, h, 64)
	require.Equal(t, h, HashRefreshRaw(rt.Raw))
	require.NotEqual(t, h, HashRefreshRaw(rt.Raw+"x"))
}

func TestPassword(t *testing.T) {
	_, err := HashPassword("short", bcrypt.MinCost)
	require.ErrorIs(t, err, ErrWeakPassword)

	h, err := HashPassword("correct horse", bcrypt.MinCost)
	require.NoError(t, err)
	require.True(t, VerifyPassword(h, "correct horse"))
	require.False(t, VerifyPassword(h, "wrong horse"))
}
