package seed

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/iliyamo/game-table-reservation/internal/model"
	"github.com/iliyamo/game-table-reservation/internal/repository"
)

const sample = `
tables:
  - name: T1
    description: window
  - name: T2
timeslots:
  - {start: "10:00", end: "11:00"}
  - {start: "11:00:00", end: "12:00:00"}
games:
  - name: Chess
    stock: 2
admin:
  username: admin
  password: ${SEED_TEST_ADMIN_PASSWORD}
`

type fakeTables struct {
	byName  map[string]model.Table
	created []model.Table
}

func (f *fakeTables) GetByName(_ context.Context, name string) (model.Table, error) {
	if t, ok := f.byName[name]; ok {
		return t, nil
	}
	return model.Table{}, repository.ErrTableNotFound
}

func (f *fakeTables) Create(_ context.Context, t *model.Table) error {
	t.ID = uint64(len(f.created) + 100)
	f.created = append(f.created, *t)
	return nil
}

type fakeTimeslots struct {
	list    []model.Timeslot
	created int
}

func (f *fakeTimeslots) List(context.Context) ([]model.Timeslot, error) { return f.list, nil }

func (f *fakeTimeslots) Create(_ context.Context, ts *model.Timeslot) error {
	f.created++
	return nil
}

type fakeGames struct {
	GetFn   func(name string) (model.Game, error)
	created []model.Game
}

func (f *fakeGames) FindByName(_ context.Context, name string) (model.Game, error) { return f.GetFn(name) }

func (f *fakeGames) Create(_ context.Context, g *model.Game) error {
	f.created = append(f.created, *g)
	return nil
}

type fakeUsers struct {
	exists  bool
	created []repository.NewUser
}

func (f *fakeUsers) GetByUsername(context.Context, string) (model.User, error) {
	if f.exists {
		return model.User{ID: 1}, nil
	}
	return model.User{}, repository.ErrUserNotFound
}

func (f *fakeUsers) Create(_ context.Context, nu repository.NewUser, _ int) (uint64, error) {
	f.created = append(f.created, nu)
	return 7, nil
}

func TestParseExpandsEnvAndNormalisesSlots(t *testing.T) {
	t.Setenv("SEED_TEST_ADMIN_PASSWORD", "s3cret-pass")
	c, err := Parse([]byte(sample))
	require.NoError(t, err)
	require.Len(t, c.Tables, 2)
	require.Equal(t, "s3cret-pass", c.Admin.Password)
	require.Equal(t, TimeslotEntry{Start: "11:00", End: "12:00"}, c.Timeslots[1])
	require.Equal(t, 2, c.Games[0].Stock)
}

func TestParseRejectsBadEntries(t *testing.T) {
	_, err := Parse([]byte("timeslots:\n  - {start: \"12:00\", end: \"11:00\"}\n"))
	require.Error(t, err)
	_, err = Parse([]byte("games:\n  - {name: Go, stock: -1}\n"))
	require.Error(t, err)
	_, err = Parse([]byte("tables: [{name: \"\"}]\n"))
	require.Error(t, err)
}

func TestApplySkipsExistingRows(t *testing.T) {
	t.Setenv("SEED_TEST_ADMIN_PASSWORD", "s3cret-pass")
	c, err := Parse([]byte(sample))
	require.NoError(t, err)

	tables := &fakeTables{byName: map[string]model.Table{"T1": {ID: 1, Name: "T1"}}}
	slots := &fakeTimeslots{list: []model.Timeslot{{ID: 1, StartTime: "10:00", EndTime: "11:00"}}}
	games := &fakeGames{GetFn: func(string) (model.Game, error) { return model.Game{}, repository.ErrGameNotFound }}
	users := &fakeUsers{}

	s := &Seeder{Tables: tables, Timeslots: slots, Games: games, Users: users, BcryptCost: 4}
	res, err := s.Apply(context.Background(), c)
	require.NoError(t, err)
	require.Equal(t, Result{Tables: 1, Timeslots: 1, Games: 1, Admin: true}, res)
	require.Equal(t, "T2", tables.created[0].Name)
	require.Equal(t, model.RoleAdmin, users.created[0].Role)

	users.exists = true
	games.GetFn = func(string) (model.Game, error) { return model.Game{ID: 3}, nil }
	tables.byName["T2"] = model.Table{ID: 2}
	slots.list = append(slots.list, model.Timeslot{StartTime: "11:00", EndTime: "12:00"})
	res, err = s.Apply(context.Background(), c)
	require.NoError(t, err)
	require.Equal(t, Result{}, res)
}
