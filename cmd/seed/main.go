package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"os"

	"github.com/iliyamo/game-table-reservation/internal/config"
	"github.com/iliyamo/game-table-reservation/internal/database"
	"github.com/iliyamo/game-table-reservation/internal/repository"
	"github.com/iliyamo/game-table-reservation/internal/seed"
)

func main() {
	config.LoadDotEnv()
	cfg := config.Load()
	file := flag.String("file", cfg.SeedFile, "catalogue YAML to load")
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil)).With("app", "seed")

	cat, err := seed.Load(*file)
	if err != nil {
		log.Fatalf("load %s: %v", *file, err)
	}

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("db open: %v", err)
	}
	defer db.Close()

	ctx := context.Background()
	if err := database.Migrate(ctx, db); err != nil {
		log.Fatalf("db migrate: %v", err)
	}

	res, err := seed.NewSeeder(repository.NewStore(db), cfg.BcryptCost, logger).Apply(ctx, cat)
	if err != nil {
		log.Fatalf("seed: %v", err)
	}
	logger.Info("seed complete", "tables", res.Tables, "timeslots", res.Timeslots, "games", res.Games, "admin", res.Admin)
}
