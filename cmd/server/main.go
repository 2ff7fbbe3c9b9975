package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/dukerupert/parcelry/internal"
	"github.com/dukerupert/parcelry/internal/bootstrap"
	"github.com/dukerupert/parcelry/internal/handler/api"
	"github.com/dukerupert/parcelry/internal/middleware"
	"github.com/dukerupert/parcelry/internal/routes"
)

const shutdownTimeout = 15 * time.Second

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load configuration
	cfg, err := internal.NewConfig()
	if err != nil {
		return fmt.Errorf("config initialization failed: %w", err)
	}

	// Configure logger
	logger := internal.NewLogger(os.Stdout, cfg.Env, cfg.LogLevel)

	app, err := bootstrap.New(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer app.Close()

	server := routes.NewServer(routes.ServerDeps{
		API: routes.APIDeps{
			ImportHandler:   api.NewImportHandler(app.Imports, app.Shipments, app.Shipping),
			ShipmentHandler: api.NewShipmentHandler(app.Shipments),
			ShippingHandler: api.NewShippingHandler(app.Shipping),
			PresetHandler:   api.NewPresetHandler(app.Presets),
		},
		Logger:      logger,
		DB:          app.DB,
		HTTPMetrics: middleware.NewMetrics(cfg.Metrics.Namespace, app.Registry),
		Gatherer:    app.Registry,
	})
	server.Echo.Server.ReadHeaderTimeout = 10 * time.Second
	server.Echo.Server.IdleTimeout = 120 * time.Second

	g, gctx := errgroup.WithContext(ctx)

	addr := fmt.Sprintf(":%d", cfg.Port)
	g.Go(func() error {
		logger.Info("Starting API server", "address", addr)
		if err := server.Echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	})

	if cfg.Worker.Embedded {
		w := app.NewWorker()
		g.Go(func() error {
			return w.Start(gctx)
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	logger.Info("Server stopped")
	return nil
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}
