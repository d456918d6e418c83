// Package utils provides helpers for token creation and password hashing.
package utils

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/iliyamo/game-table-reservation/internal/model"
)

// ErrInvalidToken is returned for malformed, expired or wrongly signed
// access tokens.
var ErrInvalidToken = errors.New("invalid token")

// AccessToken is a signed JWT together with its expiry.
type AccessToken struct {
	Token string
	Exp   time.Time
}

// RefreshToken is a long-lived opaque token.  Only its SHA-256 hash is
// stored.
type RefreshToken struct {
	Raw string
	Exp time.Time
}

// NewAccessToken signs an HS256 JWT carrying the principal's id (sub),
// role, username, name and email.
func NewAccessToken(secret string, p model.Principal, ttlMin int) (AccessToken, error) {
	now := time.Now().UTC()
	exp := now.Add(time.Duration(ttlMin) * time.Minute)
	claims := jwt.MapClaims{
		"sub":      strconv.FormatUint(p.ID, 10),
		"role":     p.Role,
		"username": p.Username,
		"name":     p.Name,
		"email":    p.Email,
		"exp":      exp.Unix(),
		"iat":      now.Unix(),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		return AccessToken{}, err
	}
	return AccessToken{Token: signed, Exp: exp}, nil
}

// ParseAccessToken verifies raw and rebuilds the principal from its claims.
func ParseAccessToken(secret, raw string) (model.Principal, error) {
	tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return []byte(secret), nil
	}, jwt.WithExpirationRequired())
	if err != nil || !tok.Valid {
		return model.Principal{}, ErrInvalidToken
	}
	claims, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return model.Principal{}, ErrInvalidToken
	}
	sub, _ := claims["sub"].(string)
	id, err := strconv.ParseUint(sub, 10, 64)
	if err != nil || id == 0 {
		return model.Principal{}, ErrInvalidToken
	}
	str := func(k string) string { s, _ := claims[k].(string); return s }
	p := model.Principal{
		ID:       id,
		Username: str("username"),
		Name:     str("name"),
		Email:    str("email"),
		Role:     str("role"),
	}
	if !model.ValidRole(p.Role) {
		return model.Principal{}, ErrInvalidToken
	}
	return p, nil
}

// NewRefreshToken returns a random 96 hex character token valid for ttlDays.
func NewRefreshToken(ttlDays int) (RefreshToken, error) {
	raw, err := randomHex(48)
	if err != nil {
		return RefreshToken{}, err
	}
	return RefreshToken{
		Raw: raw,
		Exp: time.Now().UTC().Add(time.Duration(ttlDays) * 24 * time.Hour),
	}, nil
}

// HashRefreshRaw returns the hex SHA-256 of a raw refresh token.
func HashRefreshRaw(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

func randomHex(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
