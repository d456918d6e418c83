package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/game-table-reservation/internal/config"
	"github.com/iliyamo/game-table-reservation/internal/database"
	"github.com/iliyamo/game-table-reservation/internal/handler"
	"github.com/iliyamo/game-table-reservation/internal/metrics"
	"github.com/iliyamo/game-table-reservation/internal/middleware"
	"github.com/iliyamo/game-table-reservation/internal/repository"
	"github.com/iliyamo/game-table-reservation/internal/router"
	"github.com/iliyamo/game-table-reservation/internal/service"
)

func main() {
	config.LoadDotEnv()
	cfg := config.Load()
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil)).With("app", "server", "env", cfg.Env)
	slog.SetDefault(logger)

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("db open: %v", err)
	}
	defer db.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.MigrateOnStart {
		if err := database.Migrate(ctx, db); err != nil {
			log.Fatalf("db migrate: %v", err)
		}
	}
	store := repository.NewStore(db)

	rdb := config.NewRedisClient()
	if rdb == nil {
		logger.Warn("redis unavailable; rate limiting and response cache disabled")
	} else {
		defer rdb.Close()
	}
	limiter := middleware.RateLimit(config.LoadRateLimitConfig(), rdb, logger)
	cache := middleware.NewResponseCache(config.LoadCacheConfig(), rdb, logger)

	if cfg.MetricsEnabled {
		metrics.Register()
	}

	var events service.EventPublisher = service.NopPublisher{}
	if cfg.EventsEnabled {
		events = service.NewRabbitPublisher(cfg.AMQPURL)
	}
	svc := service.NewReservations(store, events, logger)

	auth := handler.NewAuthHandler(cfg, store.Users, store.Tokens, store.Bookings, logger)
	admin := &handler.AdminHandler{
		Svc:       svc,
		Stats:     store,
		Bookings:  store.Bookings,
		Tables:    store.Tables,
		Timeslots: store.Timeslots,
		Games:     store.Games,
		Customers: store.Users,
		Sessions:  store.Tokens,
		Cache:     cache,
		Log:       logger,
	}

	e := echo.New()
	e.HideBanner = true
	router.RegisterMiddlewares(e, logger, limiter)
	router.RegisterRoutes(e, db, cfg.MetricsEnabled)
	router.RegisterAuth(e, auth, cfg.JWTSecret)
	router.RegisterPublic(e, handler.NewCatalogHandler(store, logger), cache)
	router.RegisterCustomer(e, handler.NewReservationHandler(svc, logger), cfg.JWTSecret)
	router.RegisterAdmin(e, admin, cfg.JWTSecret)

	addr := ":" + cfg.Port
	go func() {
		logger.Info("listening", "addr", addr)
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutdown signal received")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown", "err", err)
	}
}
