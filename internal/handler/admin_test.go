package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/game-table-reservation/internal/model"
	"github.com/iliyamo/game-table-reservation/internal/repository"
	"github.com/iliyamo/game-table-reservation/internal/service"
	"github.com/iliyamo/game-table-reservation/internal/service/memstore"
	"github.com/iliyamo/game-table-reservation/internal/validation"
)

type fakeTables struct {
	createFn func(ctx context.Context, t *model.Table) error
}

func (f *fakeTables) List(context.Context) ([]model.Table, error) { return nil, nil }
func (f *fakeTables) GetByID(context.Context, uint64) (model.Table, error) {
	return model.Table{}, repository.ErrTableNotFound
}
func (f *fakeTables) Create(ctx context.Context, t *model.Table) error { return f.createFn(ctx, t) }
func (f *fakeTables) Update(context.Context, model.Table) error         { return nil }
func (f *fakeTables) Delete(context.Context, uint64) error              { return repository.ErrTableNotFound }

type fakeTimeslots struct{ created []model.Timeslot }

func (f *fakeTimeslots) List(context.Context) ([]model.Timeslot, error) { return nil, nil }
func (f *fakeTimeslots) GetByID(context.Context, uint64) (model.Timeslot, error) {
	return model.Timeslot{}, repository.ErrTimeslotNotFound
}
func (f *fakeTimeslots) Create(_ context.Context, ts *model.Timeslot) error {
	ts.ID = 9
	f.created = append(f.created, *ts)
	return nil
}
func (f *fakeTimeslots) Update(context.Context, model.Timeslot) error { return nil }
func (f *fakeTimeslots) Delete(context.Context, uint64) error         { return nil }

type countingPurger struct{ n int }

func (p *countingPurger) Purge(context.Context) error {
	p.n++
	return nil
}

type staticDashboard struct{}

func (staticDashboard) CountByStatus(_ context.Context, on *model.Date) (map[string]int, error) {
	if on != nil {
		return map[string]int{model.StatusPending: 1}, nil
	}
	return map[string]int{model.StatusPending: 3, model.StatusConfirmed: 2}, nil
}
func (staticDashboard) CountCatalogue(context.Context) (service.CatalogueCounts, error) {
	return service.CatalogueCounts{Tables: 2}, nil
}
func (staticDashboard) DailyCounts(context.Context, model.Date, model.Date) (map[string]int, error) {
	return map[string]int{}, nil
}
func (staticDashboard) Recent(context.Context, int) ([]model.BookingDetail, error) { return nil, nil }

type fakeCustomers struct {
	users       map[uint64]model.User
	adminUpdate func(ctx context.Context, id uint64, up repository.UserUpdate) error
}

func (f *fakeCustomers) ListByRole(context.Context, string) ([]model.User, error) { return nil, nil }
func (f *fakeCustomers) GetByID(_ context.Context, id uint64) (model.User, error) {
	u, ok := f.users[id]
	if !ok {
		return model.User{}, repository.ErrUserNotFound
	}
	return u, nil
}
func (f *fakeCustomers) AdminUpdate(ctx context.Context, id uint64, up repository.UserUpdate) error {
	if f.adminUpdate != nil {
		if err := f.adminUpdate(ctx, id, up); err != nil {
			return err
		}
	}
	u := f.users[id]
	u.Name, u.Email, u.Role, u.Status, u.BehaviorScore = up.Name, up.Email, up.Role, up.Status, up.BehaviorScore
	f.users[id] = u
	return nil
}
func (f *fakeCustomers) Delete(context.Context, uint64) error { return nil }

type fakeSessions struct {
	revokeAllFn func(ctx context.Context, userID uint64) error
}

func (f *fakeSessions) RevokeAll(ctx context.Context, userID uint64) error {
	return f.revokeAllFn(ctx, userID)
}

func newAdmin(h *AdminHandler) *echo.Echo {
	e := echo.New()
	e.Validator = validation.New()
	g := e.Group("/v1/admin", asUser)
	g.GET("/dashboard", h.Dashboard)
	g.POST("/tables", h.CreateTable)
	g.DELETE("/tables/:id", h.DeleteTable)
	g.POST("/timeslots", h.CreateTimeslot)
	g.POST("/bookings/:id/confirm", h.ConfirmBooking)
	g.POST("/bookings/:id/cancel", h.CancelBooking)
	g.PUT("/customers/:id", h.UpdateCustomer)
	return e
}

func TestAdminCatalogWritesPurgeCache(t *testing.T) {
	purger := &countingPurger{}
	tables := &fakeTables{createFn: func(_ context.Context, tb *model.Table) error {
		if tb.Name == "T1" {
			return repository.ErrTableNameExists
		}
		tb.ID = 3
		return nil
	}}
	slots := &fakeTimeslots{}
	e := newAdmin(&AdminHandler{Tables: tables, Timeslots: slots, Cache: purger, Log: discard})

	rec, body := do(t, e, http.MethodPost, "/v1/admin/tables", "root", `{"name":" T9 "}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	require.Equal(t, "T9", body["name"])
	require.Equal(t, 1, purger.n)

	rec, _ = do(t, e, http.MethodPost, "/v1/admin/tables", "root", `{"name":"T1"}`)
	require.Equal(t, http.StatusConflict, rec.Code)
	require.Equal(t, 1, purger.n)

	rec, _ = do(t, e, http.MethodDelete, "/v1/admin/tables/77", "root", "")
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Equal(t, 1, purger.n)

	rec, _ = do(t, e, http.MethodPost, "/v1/admin/timeslots", "root", `{"start_time":"12:00","end_time":"11:00"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	rec, _ = do(t, e, http.MethodPost, "/v1/admin/timeslots", "root", `{"start_time":"nine","end_time":"10:00"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	rec, _ = do(t, e, http.MethodPost, "/v1/admin/timeslots", "root", `{"start_time":"09:00","end_time":"10:00"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	require.Len(t, slots.created, 1)
	require.Equal(t, 2, purger.n)
}

func TestAdminDashboard(t *testing.T) {
	now := time.Date(2024, 6, 7, 15, 0, 0, 0, time.UTC)
	e := newAdmin(&AdminHandler{Stats: staticDashboard{}, Log: discard, Now: func() time.Time { return now }})

	rec, body := do(t, e, http.MethodGet, "/v1/admin/dashboard", "root", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.EqualValues(t, 5, body["overall"].(map[string]any)["total"])
	require.EqualValues(t, 1, body["today"].(map[string]any)["total"])
	trend := body["trend"].([]any)
	require.Len(t, trend, service.TrendDays)
	require.Equal(t, "2024-06-07", trend[len(trend)-1].(map[string]any)["date"])
}

func TestAdminTransitions(t *testing.T) {
	st := memstore.New()
	tb := st.AddTable("T1")
	ts := st.AddTimeslot("10:00", "11:00")
	g := st.AddGame("Chess", 2)
	svc := service.NewReservations(st, service.NopPublisher{}, discard)
	d, err := model.ParseDate("2024-06-01")
	require.NoError(t, err)
	rc, err := svc.Commit(context.Background(), alice, service.CommitRequest{
		Selection: service.Selection{Date: d, TableID: tb.ID, TimeslotIDs: []uint64{ts.ID}},
		GameIDs:   []uint64{g.ID},
		GameQtys:  []int{1},
	})
	require.NoError(t, err)
	path := "/v1/admin/bookings/" + strconv.FormatUint(rc.Bookings[0].ID, 10)

	e := newAdmin(&AdminHandler{Svc: svc, Log: discard})

	rec, _ := do(t, e, http.MethodPost, path+"/confirm", "alice", "")
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec, body := do(t, e, http.MethodPost, path+"/confirm", "root", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, model.StatusConfirmed, body["status"])

	rec, body = do(t, e, http.MethodPost, path+"/cancel", "root", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, model.StatusCancelled, body["status"])

	rec, body = do(t, e, http.MethodPost, path+"/confirm", "root", "")
	require.Equal(t, http.StatusConflict, rec.Code)
	require.Equal(t, string(service.CodeInvalidTransition), body["code"])

	rec, _ = do(t, e, http.MethodPost, "/v1/admin/bookings/abc/confirm", "root", "")
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSuspendingCustomerRevokesSessions(t *testing.T) {
	customers := &fakeCustomers{users: map[uint64]model.User{
		5: {ID: 5, Username: "erin", Role: model.RoleCustomer, Status: model.UserActive},
	}}
	var revoked []uint64
	sessions := &fakeSessions{revokeAllFn: func(_ context.Context, id uint64) error {
		revoked = append(revoked, id)
		return nil
	}}
	e := newAdmin(&AdminHandler{Customers: customers, Sessions: sessions, Log: discard})

	rec, _ := do(t, e, http.MethodPut, "/v1/admin/customers/5", "root", `{"name":"Erin"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Empty(t, revoked)

	rec, body := do(t, e, http.MethodPut, "/v1/admin/customers/5", "root", `{"status":"suspended"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, model.UserSuspended, body["status"])
	require.Equal(t, []uint64{5}, revoked)

	// already suspended: nothing new to revoke
	rec, _ = do(t, e, http.MethodPut, "/v1/admin/customers/5", "root", `{"status":"suspended"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, []uint64{5}, revoked)
}

func TestSuspendFailsWhenSessionsCannotBeRevoked(t *testing.T) {
	customers := &fakeCustomers{users: map[uint64]model.User{
		5: {ID: 5, Username: "erin", Role: model.RoleCustomer, Status: model.UserActive},
	}}
	sessions := &fakeSessions{revokeAllFn: func(context.Context, uint64) error {
		return errors.New("db down")
	}}
	e := newAdmin(&AdminHandler{Customers: customers, Sessions: sessions, Log: discard})

	rec, _ := do(t, e, http.MethodPut, "/v1/admin/customers/5", "root", `{"status":"suspended"}`)
	require.Equal(t, http.StatusInternalServerError, rec.Code)
}
