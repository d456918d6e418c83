package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/iliyamo/game-table-reservation/internal/config"
	"github.com/iliyamo/game-table-reservation/internal/queue"
)

func main() {
	config.LoadDotEnv()
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil)).With("app", "worker")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	c := queue.NewConsumer(config.RabbitURL(), config.BookingLogDir(), logger)
	if err := c.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("booking consumer stopped", "err", err)
		os.Exit(1)
	}
	logger.Info("booking consumer stopped")
}
