// Package seed loads a YAML catalogue and upserts it into the database.
package seed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/iliyamo/game-table-reservation/internal/model"
	"github.com/iliyamo/game-table-reservation/internal/repository"
)

// Catalogue is the on-disk seed document.  ${VAR} references are
// expanded from the environment before parsing.
type Catalogue struct {
	Tables    []TableEntry    `yaml:"tables"`
	Timeslots []TimeslotEntry `yaml:"timeslots"`
	Games     []GameEntry     `yaml:"games"`
	Admin     *AdminEntry     `yaml:"admin"`
}

type TableEntry struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
}

type TimeslotEntry struct {
	Start string `yaml:"start"`
	End   string `yaml:"end"`
}

type GameEntry struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	ImageURL    string `yaml:"image_url"`
	Stock       int    `yaml:"stock"`
}

// AdminEntry describes the administrator account created when missing.
// An empty password skips the account.
type AdminEntry struct {
	Username string `yaml:"username"`
	Name     string `yaml:"name"`
	Email    string `yaml:"email"`
	Password string `yaml:"password"`
}

// Load reads and parses the catalogue at path.
func Load(path string) (*Catalogue, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// Parse expands environment references in data and decodes it.
func Parse(data []byte) (*Catalogue, error) {
	expanded := []byte(os.ExpandEnv(string(data)))

	var c Catalogue
	if err := yaml.Unmarshal(expanded, &c); err != nil {
		return nil, fmt.Errorf("parse catalogue: %w", err)
	}
	if err := c.validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *Catalogue) validate() error {
	for i, t := range c.Tables {
		if strings.TrimSpace(t.Name) == "" {
			return fmt.Errorf("tables[%d]: name is required", i)
		}
	}
	for i, ts := range c.Timeslots {
		s, e, err := model.ValidateSpan(ts.Start, ts.End)
		if err != nil {
			return fmt.Errorf("timeslots[%d]: %w", i, err)
		}
		c.Timeslots[i] = TimeslotEntry{Start: s, End: e}
	}
	for i, g := range c.Games {
		if strings.TrimSpace(g.Name) == "" {
			return fmt.Errorf("games[%d]: name is required", i)
		}
		if g.Stock < 0 {
			return fmt.Errorf("games[%d]: stock must not be negative", i)
		}
	}
	return nil
}

type TableStore interface {
	GetByName(ctx context.Context, name string) (model.Table, error)
	Create(ctx context.Context, t *model.Table) error
}

type TimeslotStore interface {
	List(ctx context.Context) ([]model.Timeslot, error)
	Create(ctx context.Context, ts *model.Timeslot) error
}

type GameStore interface {
	FindByName(ctx context.Context, name string) (model.Game, error)
	Create(ctx context.Context, g *model.Game) error
}

type UserStore interface {
	GetByUsername(ctx context.Context, username string) (model.User, error)
	Create(ctx context.Context, nu repository.NewUser, cost int) (uint64, error)
}

// Seeder writes a Catalogue.  Rows that already exist are left alone, so
// running it twice is harmless.
type Seeder struct {
	Tables     TableStore
	Timeslots  TimeslotStore
	Games      GameStore
	Users      UserStore
	BcryptCost int
	Log        *slog.Logger
}

// NewSeeder wires a Seeder to the MySQL repositories.
func NewSeeder(s *repository.Store, cost int, log *slog.Logger) *Seeder {
	return &Seeder{Tables: s.Tables, Timeslots: s.Timeslots, Games: s.Games, Users: s.Users, BcryptCost: cost, Log: log}
}

// Result counts the rows created by Apply.
type Result struct {
	Tables    int
	Timeslots int
	Games     int
	Admin     bool
}

// Apply upserts every entry of c.
func (s *Seeder) Apply(ctx context.Context, c *Catalogue) (Result, error) {
	var res Result
	log := s.Log
	if log == nil {
		log = slog.Default()
	}

	for _, entry := range c.Tables {
		_, err := s.Tables.GetByName(ctx, entry.Name)
		if err == nil {
			continue
		}
		if !errors.Is(err, repository.ErrTableNotFound) {
			return res, fmt.Errorf("table %q: %w", entry.Name, err)
		}
		t := model.Table{Name: strings.TrimSpace(entry.Name), Description: entry.Description}
		if err := s.Tables.Create(ctx, &t); err != nil {
			return res, fmt.Errorf("create table %q: %w", entry.Name, err)
		}
		log.Info("seed: table created", "id", t.ID, "name", t.Name)
		res.Tables++
	}

	existing, err := s.Timeslots.List(ctx)
	if err != nil {
		return res, fmt.Errorf("list timeslots: %w", err)
	}
	have := map[string]bool{}
	for _, ts := range existing {
		have[ts.Label()] = true
	}
	for _, entry := range c.Timeslots {
		ts := model.Timeslot{StartTime: entry.Start, EndTime: entry.End}
		if have[ts.Label()] {
			continue
		}
		if err := s.Timeslots.Create(ctx, &ts); err != nil {
			return res, fmt.Errorf("create timeslot %s: %w", ts.Label(), err)
		}
		have[ts.Label()] = true
		log.Info("seed: timeslot created", "id", ts.ID, "slot", ts.Label())
		res.Timeslots++
	}

	for _, entry := range c.Games {
		_, err := s.Games.FindByName(ctx, entry.Name)
		if err == nil {
			continue
		}
		if !errors.Is(err, repository.ErrGameNotFound) {
			return res, fmt.Errorf("game %q: %w", entry.Name, err)
		}
		g := model.Game{Name: strings.TrimSpace(entry.Name), Description: entry.Description, ImageURL: entry.ImageURL, Stock: entry.Stock}
		if err := s.Games.Create(ctx, &g); err != nil {
			return res, fmt.Errorf("create game %q: %w", entry.Name, err)
		}
		log.Info("seed: game created", "id", g.ID, "name", g.Name, "stock", g.Stock)
		res.Games++
	}

	if a := c.Admin; a != nil && a.Username != "" && a.Password != "" {
		_, err := s.Users.GetByUsername(ctx, a.Username)
		switch {
		case err == nil:
		case errors.Is(err, repository.ErrUserNotFound):
			id, err := s.Users.Create(ctx, repository.NewUser{
				Username: a.Username, Name: a.Name, Email: a.Email, Password: a.Password, Role: model.RoleAdmin,
			}, s.BcryptCost)
			if err != nil {
				return res, fmt.Errorf("create admin: %w", err)
			}
			log.Info("seed: admin created", "id", id, "username", a.Username)
			res.Admin = true
		default:
			return res, fmt.Errorf("lookup admin: %w", err)
		}
	}
	return res, nil
}
