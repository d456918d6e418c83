package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/game-table-reservation/internal/model"
	"github.com/iliyamo/game-table-reservation/internal/repository"
)

type customerReq struct {
	Name          string `json:"name" validate:"max=150"`
	Email         string `json:"email" validate:"omitempty,email,max=254"`
	Role          string `json:"role" validate:"omitempty,oneof=customer admin"`
	Status        string `json:"status" validate:"omitempty,oneof=active suspended"`
	BehaviorScore *int   `json:"behavior_score"`
}

// ListCustomers handles GET /v1/admin/customers.
func (h *AdminHandler) ListCustomers(c echo.Context) error {
	ctx, cancel := withTimeout(c)
	defer cancel()
	items, err := h.Customers.ListByRole(ctx, model.RoleCustomer)
	if err != nil {
		return internalError(c, h.Log, "list customers", err)
	}
	if items == nil {
		items = []model.User{}
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// UpdateCustomer handles PUT /v1/admin/customers/:id.  Omitted fields keep
// their current value.  Suspending a user revokes their refresh tokens.
func (h *AdminHandler) UpdateCustomer(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return badRequest(c, "invalid user id")
	}
	var req customerReq
	if err := bindValid(c, &req); err != nil {
		return badRequest(c, err.Error())
	}
	ctx, cancel := withTimeout(c)
	defer cancel()
	u, err := h.Customers.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return notFoundError(c, "user not found")
		}
		return internalError(c, h.Log, "load user", err)
	}
	up := repository.UserUpdate{
		Name:          u.Name,
		Email:         u.Email,
		Role:          u.Role,
		Status:        u.Status,
		BehaviorScore: u.BehaviorScore,
	}
	if req.Name != "" {
		up.Name = req.Name
	}
	if req.Email != "" {
		up.Email = req.Email
	}
	if req.Role != "" {
		up.Role = req.Role
	}
	if req.Status != "" {
		up.Status = req.Status
	}
	if req.BehaviorScore != nil {
		up.BehaviorScore = *req.BehaviorScore
	}
	if err := h.Customers.AdminUpdate(ctx, id, up); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return notFoundError(c, "user not found")
		}
		return internalError(c, h.Log, "update user", err)
	}
	if up.Status == model.UserSuspended && u.Status != model.UserSuspended {
		if err := h.Sessions.RevokeAll(ctx, id); err != nil {
			return internalError(c, h.Log, "revoke sessions", err)
		}
	}
	u, err = h.Customers.GetByID(ctx, id)
	if err != nil {
		return internalError(c, h.Log, "load user", err)
	}
	return c.JSON(http.StatusOK, u)
}

// DeleteCustomer handles DELETE /v1/admin/customers/:id.  Administrators
// cannot delete their own account.
func (h *AdminHandler) DeleteCustomer(c echo.Context) error {
	p, ok := principal(c)
	if !ok {
		return unauthorized(c)
	}
	id, ok := parseID(c, "id")
	if !ok {
		return badRequest(c, "invalid user id")
	}
	if id == p.ID {
		return badRequest(c, "you cannot delete your own account")
	}
	ctx, cancel := withTimeout(c)
	defer cancel()
	if err := h.Customers.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return notFoundError(c, "user not found")
		}
		return internalError(c, h.Log, "delete user", err)
	}
	return c.NoContent(http.StatusNoContent)
}
