package handler

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/game-table-reservation/internal/middleware"
	"github.com/iliyamo/game-table-reservation/internal/model"
	"github.com/iliyamo/game-table-reservation/internal/service"
	"github.com/iliyamo/game-table-reservation/internal/service/memstore"
	"github.com/iliyamo/game-table-reservation/internal/validation"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

var (
	alice = model.Principal{ID: 100, Username: "alice", Email: "alice@example.com", Role: model.RoleCustomer}
	bob   = model.Principal{ID: 200, Username: "bob", Role: model.RoleCustomer}
	root  = model.Principal{ID: 1, Username: "root", Role: model.RoleAdmin}
)

// asUser stands in for JWTAuth: it reads the principal from the
// X-Test-User header.
func asUser(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		switch c.Request().Header.Get("X-Test-User") {
		case "alice":
			middleware.SetPrincipal(c, alice)
		case "bob":
			middleware.SetPrincipal(c, bob)
		case "root":
			middleware.SetPrincipal(c, root)
		}
		return next(c)
	}
}

// Seeded ids: T1=1, T2=2, 10:00=3, 11:00=4, Chess=5 (stock 3), Go=6.
func newWizard(t *testing.T) (*echo.Echo, *memstore.Store) {
	t.Helper()
	st := memstore.New()
	st.AddTable("T1")
	st.AddTable("T2")
	st.AddTimeslot("10:00", "11:00")
	st.AddTimeslot("11:00", "12:00")
	st.AddGame("Chess", 3)
	st.AddGame("Go", 5)
	st.AddUser(alice.ID, alice.Username)
	st.AddUser(bob.ID, bob.Username)

	h := NewReservationHandler(service.NewReservations(st, service.NopPublisher{}, discard), discard)
	e := echo.New()
	e.Validator = validation.New()
	g := e.Group("", asUser)
	g.POST(dateURL, h.PickDate)
	g.GET(slotsURL, h.Slots)
	g.POST(slotsURL, h.SelectSlots)
	g.GET(gamesURL, h.Games)
	g.POST(summaryURL, h.Summary)
	g.POST(commitURL, h.Commit)
	g.GET("/v1/my-bookings", h.MyBookings)
	g.GET("/v1/bookings/:id", h.Booking)
	g.POST("/v1/bookings/:id/cancel", h.Cancel)
	return e, st
}

func do(t *testing.T, e *echo.Echo, method, target, user, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, r)
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if user != "" {
		req.Header.Set("X-Test-User", user)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	out := map[string]any{}
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	}
	return rec, out
}

const commitBody = `{"date":"2024-06-01","table_id":1,"timeslot_ids":[3,4],"game_ids":[5],"game_qtys":[2],"party_size":4}`

func TestWizardHappyPath(t *testing.T) {
	e, st := newWizard(t)

	rec, body := do(t, e, http.MethodPost, dateURL, "alice", `{"booking_date":"2024-06-01"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, slotsURL+"?date=2024-06-01", body["next"])

	rec, body = do(t, e, http.MethodGet, slotsURL+"?date=2024-06-01", "alice", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, body["rows"], 2)

	rec, body = do(t, e, http.MethodPost, slotsURL, "alice", `{"date":"2024-06-01","slots":["1-3","1-4","junk"]}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, gamesURL+"?date=2024-06-01&table=1&timeslots=3%2C4", body["next"])

	rec, body = do(t, e, http.MethodGet, gamesURL+"?date=2024-06-01&table=1&timeslots=3,4", "alice", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, body["games"], 2)

	rec, body = do(t, e, http.MethodPost, summaryURL, "alice",
		`{"date":"2024-06-01","table_id":1,"timeslot_ids":[3,4],"quantities":{"5":2}}`)
	require.Equal(t, http.StatusOK, rec.Code, body)
	require.Equal(t, commitURL, body["next"])

	rec, body = do(t, e, http.MethodPost, commitURL, "alice", commitBody)
	require.Equal(t, http.StatusCreated, rec.Code, body)
	require.Len(t, body["bookings"], 2)
	require.Len(t, st.Bookings(), 2)
	require.Equal(t, 2, st.ItemCount())
}

func TestCommitConflictRedirectsToSlots(t *testing.T) {
	e, st := newWizard(t)

	rec, _ := do(t, e, http.MethodPost, commitURL, "alice", commitBody)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec, body := do(t, e, http.MethodPost, commitURL, "bob", commitBody)
	require.Equal(t, http.StatusConflict, rec.Code)
	require.Equal(t, string(service.CodeSlotTaken), body["code"])
	require.Equal(t, string(service.StepTimeslots), body["step"])
	require.Equal(t, slotsURL+"?date=2024-06-01", body["redirect"])
	require.Len(t, st.Bookings(), 2)
}

func TestCommitInsufficientStock(t *testing.T) {
	e, st := newWizard(t)

	rec, body := do(t, e, http.MethodPost, commitURL, "alice",
		`{"date":"2024-06-01","table_id":2,"timeslot_ids":[3],"game_ids":[5],"game_qtys":[4]}`)
	require.Equal(t, http.StatusConflict, rec.Code)
	require.Equal(t, string(service.CodeInsufficientStock), body["code"])
	require.Equal(t, gamesURL+"?date=2024-06-01&table=2&timeslots=3", body["redirect"])
	require.Empty(t, st.Bookings())
}

func TestGamesWithoutSelectionRedirectsToDate(t *testing.T) {
	e, _ := newWizard(t)

	rec, body := do(t, e, http.MethodGet, gamesURL, "alice", "")
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, string(service.StepDate), body["step"])
	require.Equal(t, dateURL, body["redirect"])
}

func TestSelectSlotsRejectsTwoTables(t *testing.T) {
	e, _ := newWizard(t)

	rec, body := do(t, e, http.MethodPost, slotsURL, "alice", `{"date":"2024-06-01","slots":["1-3","2-4"]}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, slotsURL+"?date=2024-06-01", body["redirect"])
}

func TestCommitRequiresPrincipal(t *testing.T) {
	e, _ := newWizard(t)
	rec, _ := do(t, e, http.MethodPost, commitURL, "", commitBody)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestBookingVisibilityAndCancel(t *testing.T) {
	e, st := newWizard(t)
	rec, _ := do(t, e, http.MethodPost, commitURL, "alice",
		`{"date":"2024-06-01","table_id":1,"timeslot_ids":[3],"game_ids":[6],"game_qtys":[1]}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	id := st.Bookings()[0].ID
	path := "/v1/bookings/" + strconv.FormatUint(id, 10)

	rec, _ = do(t, e, http.MethodGet, path, "bob", "")
	require.Equal(t, http.StatusNotFound, rec.Code)
	rec, _ = do(t, e, http.MethodPost, path+"/cancel", "bob", "")
	require.Equal(t, http.StatusNotFound, rec.Code)

	for i := 0; i < 2; i++ {
		rec, body := do(t, e, http.MethodPost, path+"/cancel", "alice", "")
		require.Equal(t, http.StatusOK, rec.Code)
		require.Equal(t, model.StatusCancelled, body["status"])
	}

	rec, body := do(t, e, http.MethodGet, "/v1/my-bookings", "alice", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, body["bookings"], 1)

	rec, body = do(t, e, http.MethodGet, "/v1/my-bookings", "bob", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Empty(t, body["bookings"])
}

func TestStepURL(t *testing.T) {
	d, err := model.ParseDate("2024-06-01")
	require.NoError(t, err)
	full := service.Selection{Date: d, TableID: 2, TimeslotIDs: []uint64{7, 8}}

	require.Equal(t, dateURL, stepURL(service.StepDate, full))
	require.Equal(t, dateURL, stepURL(service.StepGames, service.Selection{}))
	require.Equal(t, slotsURL+"?date=2024-06-01", stepURL(service.StepTimeslots, full))
	require.Equal(t, slotsURL+"?date=2024-06-01", stepURL(service.StepSummary, service.Selection{Date: d}))
	require.Equal(t, gamesURL+"?date=2024-06-01&table=2&timeslots=7%2C8", stepURL(service.StepGames, full))
	require.Equal(t, "", stepURL("", full))
}
