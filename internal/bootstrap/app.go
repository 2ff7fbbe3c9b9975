// Package bootstrap handles the startup wiring shared by the API server and
// the worker: database, migrations, stores, providers and services.
package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/dukerupert/parcelry/internal"
	"github.com/dukerupert/parcelry/internal/events"
	"github.com/dukerupert/parcelry/internal/postgres"
	"github.com/dukerupert/parcelry/internal/provider"
	"github.com/dukerupert/parcelry/internal/service"
	"github.com/dukerupert/parcelry/internal/shipping"
	"github.com/dukerupert/parcelry/internal/storage"
	"github.com/dukerupert/parcelry/internal/telemetry"
	"github.com/dukerupert/parcelry/internal/worker"
)

// App holds the process-wide dependencies.
type App struct {
	Config   *internal.Config
	Logger   *slog.Logger
	DB       *sql.DB
	Registry *prometheus.Registry
	Metrics  *telemetry.Metrics
	Events   events.Publisher
	Queue    *postgres.JobQueue

	Imports      service.ImportService
	Shipments    service.ShipmentService
	Shipping     service.ShippingService
	Presets      service.PresetService
	Verification service.VerificationService
}

// New connects to the database, applies pending migrations and builds every
// store and service. Call Close when done.
//
// A NATS connection failure is not fatal: events are dropped and a warning is
// logged.
func New(ctx context.Context, cfg *internal.Config, logger *slog.Logger) (*App, error) {
	logger.Info("Connecting to database...")
	db, err := postgres.Open(ctx, cfg.DatabaseUrl)
	if err != nil {
		return nil, err
	}
	logger.Info("Database connection established")

	if _, err := internal.RunMigrations(db, logger); err != nil {
		db.Close()
		return nil, fmt.Errorf("migration failed: %w", err)
	}

	app, err := build(cfg, db, connectEvents(cfg.NatsURL, logger), logger)
	if err != nil {
		db.Close()
		return nil, err
	}
	return app, nil
}

func build(cfg *internal.Config, db *sql.DB, publisher events.Publisher, logger *slog.Logger) (*App, error) {
	registry := NewRegistry()
	metrics := telemetry.NewMetrics(cfg.Metrics.Namespace, registry)

	files, err := storage.NewStorage(cfg.Storage)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	providers, err := provider.BuildAddressProviders(cfg.Address, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize address providers: %w", err)
	}

	shipments := postgres.NewShipmentStore(db)
	attempts := postgres.NewAttemptStore(db)
	imports := postgres.NewImportJobStore(db)
	presets := postgres.NewPresetStore(db)
	queue := postgres.NewJobQueue(db)

	verifier := service.NewAddressVerifier(providers, attempts, metrics, logger)
	verification := service.NewVerificationService(verifier, shipments, publisher, metrics, logger)

	return &App{
		Config:   cfg,
		Logger:   logger,
		DB:       db,
		Registry: registry,
		Metrics:  metrics,
		Events:   publisher,
		Queue:    queue,

		Imports:      service.NewImportService(imports, shipments, files, queue, publisher, metrics, logger),
		Shipments:    service.NewShipmentService(shipments, attempts, presets, verification, queue, metrics, logger),
		Shipping:     service.NewShippingService(shipments, shipping.NewLinearRateProvider(nil, cfg.LabelBaseURL), metrics, logger),
		Presets:      service.NewPresetService(presets),
		Verification: verification,
	}, nil
}

// NewWorker creates a job worker over the app's queue and services.
func (a *App) NewWorker() *worker.Worker {
	return worker.NewWorker(a.Queue, a.Imports, a.Verification, a.Metrics, worker.Config{
		PollInterval:   a.Config.Worker.PollInterval,
		MaxConcurrency: a.Config.Worker.Concurrency,
		JobTimeout:     a.Config.Worker.JobTimeout,
	}, a.Logger)
}

// Close releases the event connection and the database pool.
func (a *App) Close() error {
	return errors.Join(a.Events.Close(), a.DB.Close())
}

// NewRegistry returns a registry with the Go runtime and process collectors.
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

// connectEvents returns a NATS publisher, or a no-op publisher when url is
// empty or the server cannot be reached.
func connectEvents(url string, logger *slog.Logger) events.Publisher {
	if url == "" {
		logger.Info("NATS_URL not set, events disabled")
		return events.NopPublisher{}
	}
	p, err := events.Connect(url, logger)
	if err != nil {
		logger.Warn("events disabled", "error", err)
		return events.NopPublisher{}
	}
	logger.Info("Connected to NATS", "url", url)
	return p
}
