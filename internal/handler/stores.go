package handler

import (
	"context"

	"github.com/iliyamo/game-table-reservation/internal/model"
	"github.com/iliyamo/game-table-reservation/internal/repository"
)

// The interfaces below are the slices of the MySQL repositories each
// handler uses.  Tests replace them with func-field fakes.

type UserStore interface {
	Create(ctx context.Context, nu repository.NewUser, cost int) (uint64, error)
	GetByUsername(ctx context.Context, username string) (model.User, error)
	GetByID(ctx context.Context, id uint64) (model.User, error)
	UpdateProfile(ctx context.Context, id uint64, name, email string) error
}

type TokenStore interface {
	Store(ctx context.Context, t model.RefreshToken) error
	Lookup(ctx context.Context, tokenHash string) (model.RefreshToken, error)
	Revoke(ctx context.Context, tokenHash string) error
}

// ProfileBookings supplies the booking summary shown on the profile.
type ProfileBookings interface {
	CountByUser(ctx context.Context, userID uint64) (int, error)
	ListByUser(ctx context.Context, userID uint64, limit int) ([]model.BookingDetail, error)
}

type AdminBookingStore interface {
	List(ctx context.Context, f repository.BookingFilter) ([]model.BookingDetail, error)
	GetDetail(ctx context.Context, id uint64) (model.BookingDetail, error)
	Create(ctx context.Context, b *model.Booking) error
	Update(ctx context.Context, b model.Booking) error
	Delete(ctx context.Context, id uint64) error
}

type TableStore interface {
	List(ctx context.Context) ([]model.Table, error)
	GetByID(ctx context.Context, id uint64) (model.Table, error)
	Create(ctx context.Context, t *model.Table) error
	Update(ctx context.Context, t model.Table) error
	Delete(ctx context.Context, id uint64) error
}

type TimeslotStore interface {
	List(ctx context.Context) ([]model.Timeslot, error)
	GetByID(ctx context.Context, id uint64) (model.Timeslot, error)
	Create(ctx context.Context, ts *model.Timeslot) error
	Update(ctx context.Context, ts model.Timeslot) error
	Delete(ctx context.Context, id uint64) error
}

type GameStore interface {
	Search(ctx context.Context, q repository.GameSearchQuery) ([]model.Game, int64, error)
	GetByID(ctx context.Context, id uint64) (model.Game, error)
	Create(ctx context.Context, g *model.Game) error
	Update(ctx context.Context, g model.Game) error
	Delete(ctx context.Context, id uint64) error
}

type CustomerStore interface {
	ListByRole(ctx context.Context, role string) ([]model.User, error)
	GetByID(ctx context.Context, id uint64) (model.User, error)
	AdminUpdate(ctx context.Context, id uint64, up repository.UserUpdate) error
	Delete(ctx context.Context, id uint64) error
}

// SessionRevoker ends every refresh session of a user.
type SessionRevoker interface {
	RevokeAll(ctx context.Context, userID uint64) error
}

// CachePurger drops cached catalogue responses after a write.
type CachePurger interface {
	Purge(ctx context.Context) error
}

var (
	_ UserStore         = (*repository.UserRepo)(nil)
	_ TokenStore        = (*repository.TokenRepo)(nil)
	_ ProfileBookings   = (*repository.BookingRepo)(nil)
	_ AdminBookingStore = (*repository.BookingRepo)(nil)
	_ TableStore        = (*repository.TableRepo)(nil)
	_ TimeslotStore     = (*repository.TimeslotRepo)(nil)
	_ GameStore         = (*repository.GameRepo)(nil)
	_ CustomerStore     = (*repository.UserRepo)(nil)
	_ SessionRevoker    = (*repository.TokenRepo)(nil)
)
