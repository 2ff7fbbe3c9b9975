package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/dukerupert/parcelry/internal"
	"github.com/dukerupert/parcelry/internal/bootstrap"
)

// The standalone worker drains the job queue without serving HTTP. Run it
// with WORKER_EMBEDDED=false on the API servers.
func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := internal.NewConfig()
	if err != nil {
		return fmt.Errorf("config initialization failed: %w", err)
	}
	logger := internal.NewLogger(os.Stdout, cfg.Env, cfg.LogLevel)

	app, err := bootstrap.New(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer app.Close()

	if err := app.NewWorker().Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	logger.Info("Worker stopped")
	return nil
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}
