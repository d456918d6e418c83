package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/game-table-reservation/internal/config"
	"github.com/iliyamo/game-table-reservation/internal/model"
	"github.com/iliyamo/game-table-reservation/internal/repository"
	"github.com/iliyamo/game-table-reservation/internal/utils"
)

// RecentOnProfile is how many bookings the profile lists.
const RecentOnProfile = 5

// AuthHandler bundles dependencies for auth and profile endpoints.
type AuthHandler struct {
	Cfg      config.Config
	Users    UserStore
	Tokens   TokenStore
	Bookings ProfileBookings
	Log      *slog.Logger
}

func NewAuthHandler(cfg config.Config, u UserStore, t TokenStore, b ProfileBookings, log *slog.Logger) *AuthHandler {
	return &AuthHandler{Cfg: cfg, Users: u, Tokens: t, Bookings: b, Log: log}
}

// ----- DTOs -----

type registerReq struct {
	Username string `json:"username" validate:"required,min=3,max=150"`
	Name     string `json:"name" validate:"max=150"`
	Email    string `json:"email" validate:"omitempty,email,max=254"`
	Password string `json:"password" validate:"required,min=8,max=128"`
}

type loginReq struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type refreshReq struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

type profileReq struct {
	Name  string `json:"name" validate:"max=150"`
	Email string `json:"email" validate:"omitempty,email,max=254"`
}

type tokenPart struct {
	Token   string    `json:"token"`
	Expires time.Time `json:"expires"`
}

type authResp struct {
	User    model.User `json:"user"`
	Access  tokenPart  `json:"access"`
	Refresh tokenPart  `json:"refresh"`
}

type profileResp struct {
	User         model.User            `json:"user"`
	BookingCount int                   `json:"booking_count"`
	Recent       []model.BookingDetail `json:"recent_bookings"`
}

// issue signs an access token and stores a fresh refresh token for u.
func (h *AuthHandler) issue(c echo.Context, status int, u model.User) error {
	ctx, cancel := withTimeout(c)
	defer cancel()

	access, err := utils.NewAccessToken(h.Cfg.JWTSecret, u.Principal(), h.Cfg.AccessTTLMin)
	if err != nil {
		return internalError(c, h.Log, "issue access token", err)
	}
	refresh, err := utils.NewRefreshToken(h.Cfg.RefreshTTLDays)
	if err != nil {
		return internalError(c, h.Log, "issue refresh token", err)
	}
	if err := h.Tokens.Store(ctx, model.RefreshToken{
		UserID:    u.ID,
		TokenHash: utils.HashRefreshRaw(refresh.Raw),
		ExpiresAt: refresh.Exp,
	}); err != nil {
		return internalError(c, h.Log, "store refresh token", err)
	}
	return c.JSON(status, authResp{
		User:    u,
		Access:  tokenPart{Token: access.Token, Expires: access.Exp},
		Refresh: tokenPart{Token: refresh.Raw, Expires: refresh.Exp},
	})
}

// Register creates a customer account and signs it in.
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerReq
	if err := bindValid(c, &req); err != nil {
		return badRequest(c, err.Error())
	}
	ctx, cancel := withTimeout(c)
	defer cancel()

	uid, err := h.Users.Create(ctx, repository.NewUser{
		Username: strings.TrimSpace(req.Username),
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Role:     model.RoleCustomer,
	}, h.Cfg.BcryptCost)
	switch {
	case errors.Is(err, repository.ErrUsernameExists):
		return conflict(c, "username already exists")
	case errors.Is(err, utils.ErrWeakPassword):
		return badRequest(c, "password must be at least 8 characters")
	case err != nil:
		return internalError(c, h.Log, "create user", err)
	}
	u, err := h.Users.GetByID(ctx, uid)
	if err != nil {
		return internalError(c, h.Log, "load user", err)
	}
	h.Log.Info("user registered", "user_id", uid, "username", u.Username)
	return h.issue(c, http.StatusCreated, u)
}

// Login verifies credentials and returns a new token pair.  Suspended
// accounts are refused.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := bindValid(c, &req); err != nil {
		return badRequest(c, err.Error())
	}
	ctx, cancel := withTimeout(c)
	defer cancel()

	u, err := h.Users.GetByUsername(ctx, strings.TrimSpace(req.Username))
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
		}
		return internalError(c, h.Log, "load user", err)
	}
	if !utils.VerifyPassword(u.PasswordHash, req.Password) {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
	}
	if u.Status == model.UserSuspended {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "account suspended"})
	}
	return h.issue(c, http.StatusOK, u)
}

// Refresh validates a refresh token by hash, revokes it and issues a new
// pair.
func (h *AuthHandler) Refresh(c echo.Context) error {
	var req refreshReq
	if err := bindValid(c, &req); err != nil {
		return badRequest(c, "refresh_token required")
	}
	hash := utils.HashRefreshRaw(strings.TrimSpace(req.RefreshToken))

	ctx, cancel := withTimeout(c)
	defer cancel()

	tok, err := h.Tokens.Lookup(ctx, hash)
	if err != nil {
		if errors.Is(err, repository.ErrTokenInvalid) {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid refresh"})
		}
		return internalError(c, h.Log, "lookup refresh token", err)
	}
	// revoking is the single-use check: a concurrent refresh with the
	// same token loses here
	if err := h.Tokens.Revoke(ctx, hash); err != nil {
		if errors.Is(err, repository.ErrTokenInvalid) {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid refresh"})
		}
		return internalError(c, h.Log, "revoke refresh token", err)
	}
	u, err := h.Users.GetByID(ctx, tok.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid refresh"})
		}
		return internalError(c, h.Log, "load user", err)
	}
	if u.Status == model.UserSuspended {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "account suspended"})
	}
	return h.issue(c, http.StatusOK, u)
}

// Logout revokes a refresh token.  Unknown tokens are ignored.
func (h *AuthHandler) Logout(c echo.Context) error {
	var req refreshReq
	if err := bindValid(c, &req); err != nil {
		return badRequest(c, "refresh_token required")
	}
	ctx, cancel := withTimeout(c)
	defer cancel()
	if err := h.Tokens.Revoke(ctx, utils.HashRefreshRaw(strings.TrimSpace(req.RefreshToken))); err != nil &&
		!errors.Is(err, repository.ErrTokenInvalid) {
		return internalError(c, h.Log, "revoke refresh token", err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *AuthHandler) profile(c echo.Context, userID uint64) error {
	ctx, cancel := withTimeout(c)
	defer cancel()

	u, err := h.Users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return unauthorized(c)
		}
		return internalError(c, h.Log, "load user", err)
	}
	n, err := h.Bookings.CountByUser(ctx, userID)
	if err != nil {
		return internalError(c, h.Log, "count bookings", err)
	}
	recent, err := h.Bookings.ListByUser(ctx, userID, RecentOnProfile)
	if err != nil {
		return internalError(c, h.Log, "recent bookings", err)
	}
	if recent == nil {
		recent = []model.BookingDetail{}
	}
	return c.JSON(http.StatusOK, profileResp{User: u, BookingCount: n, Recent: recent})
}

// Me returns the caller's account with booking count and recent bookings.
func (h *AuthHandler) Me(c echo.Context) error {
	p, ok := principal(c)
	if !ok {
		return unauthorized(c)
	}
	return h.profile(c, p.ID)
}

// UpdateMe changes the caller's name and email.
func (h *AuthHandler) UpdateMe(c echo.Context) error {
	p, ok := principal(c)
	if !ok {
		return unauthorized(c)
	}
	var req profileReq
	if err := bindValid(c, &req); err != nil {
		return badRequest(c, err.Error())
	}
	ctx, cancel := withTimeout(c)
	defer cancel()
	if err := h.Users.UpdateProfile(ctx, p.ID, req.Name, req.Email); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return unauthorized(c)
		}
		return internalError(c, h.Log, "update profile", err)
	}
	return h.profile(c, p.ID)
}
